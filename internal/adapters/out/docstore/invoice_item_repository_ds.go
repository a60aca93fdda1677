// internal/adapters/out/docstore/invoice_item_repository_ds.go
package docstore

import (
	"context"
	"errors"
	"strings"
	"time"

	ds "invoicer/internal/domain/docstore"
	invdom "invoicer/internal/domain/invoice"
)

// InvoiceItemRepositoryDS implements invoice.ItemRepository on a document store.
type InvoiceItemRepositoryDS struct {
	Store ds.Store
	Now   func() time.Time
}

func NewInvoiceItemRepositoryDS(store ds.Store) *InvoiceItemRepositoryDS {
	return &InvoiceItemRepositoryDS{Store: store, Now: time.Now}
}

var _ invdom.ItemRepository = (*InvoiceItemRepositoryDS)(nil)

// CreateInvoiceItem computes amount, stamps created_at and lets the store
// allocate the id.
func (r *InvoiceItemRepositoryDS) CreateInvoiceItem(ctx context.Context, item invdom.InvoiceItem) (string, error) {
	item.InvoiceID = strings.TrimSpace(item.InvoiceID)
	if err := item.Validate(); err != nil {
		return "", err
	}
	item.ApplyAmount()

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	item.CreatedAt = now().UTC()

	return r.Store.Put(ctx, invdom.CollectionItems, "", itemToDocData(item))
}

func (r *InvoiceItemRepositoryDS) GetInvoiceItems(ctx context.Context, invoiceID string) ([]invdom.InvoiceItem, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return []invdom.InvoiceItem{}, nil
	}

	docs, err := r.Store.List(ctx, invdom.CollectionItems, ds.Where(fieldInvoiceID, invoiceID))
	if err != nil {
		return nil, err
	}

	out := make([]invdom.InvoiceItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, docToItem(d))
	}
	return out, nil
}

// DeleteInvoiceItems lists the items of invoiceID and deletes them one by one.
// It is not atomic: an error midway leaves the remaining items in place.
// It returns how many items were deleted.
func (r *InvoiceItemRepositoryDS) DeleteInvoiceItems(ctx context.Context, invoiceID string) (int, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return 0, nil
	}

	docs, err := r.Store.List(ctx, invdom.CollectionItems, ds.Where(fieldInvoiceID, invoiceID))
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, d := range docs {
		if err := r.Store.Delete(ctx, invdom.CollectionItems, d.ID); err != nil {
			// already gone: someone else won the race
			if errors.Is(err, ds.ErrNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}
