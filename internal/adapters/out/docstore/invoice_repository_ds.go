// internal/adapters/out/docstore/invoice_repository_ds.go
package docstore

import (
	"context"
	"errors"
	"strings"
	"time"

	common "invoicer/internal/domain/common"
	ds "invoicer/internal/domain/docstore"
	invdom "invoicer/internal/domain/invoice"
)

// InvoiceRepositoryDS implements invoice.Repository on a document store.
type InvoiceRepositoryDS struct {
	Store ds.Store
	Now   func() time.Time
}

func NewInvoiceRepositoryDS(store ds.Store) *InvoiceRepositoryDS {
	return &InvoiceRepositoryDS{Store: store, Now: time.Now}
}

var _ invdom.Repository = (*InvoiceRepositoryDS)(nil)

func (r *InvoiceRepositoryDS) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// =======================
// Queries
// =======================

func (r *InvoiceRepositoryDS) GetInvoice(ctx context.Context, id string) (invdom.Invoice, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return invdom.Invoice{}, invdom.ErrNotFound
	}

	doc, err := r.Store.Get(ctx, invdom.CollectionInvoices, id)
	if err != nil {
		if errors.Is(err, ds.ErrNotFound) {
			return invdom.Invoice{}, invdom.ErrNotFound
		}
		return invdom.Invoice{}, err
	}
	return docToInvoice(doc), nil
}

// GetInvoices lists every invoice, newest first.
func (r *InvoiceRepositoryDS) GetInvoices(ctx context.Context) ([]invdom.Invoice, error) {
	docs, err := r.Store.List(ctx, invdom.CollectionInvoices, ds.Query{
		OrderBy: fieldCreatedAt,
		Order:   common.SortDesc,
	})
	if err != nil {
		return nil, err
	}

	out := make([]invdom.Invoice, 0, len(docs))
	for _, d := range docs {
		out = append(out, docToInvoice(d))
	}
	return out, nil
}

// =======================
// Commands
// =======================

// CreateInvoice stamps created_at/updated_at and lets the store allocate the id.
func (r *InvoiceRepositoryDS) CreateInvoice(ctx context.Context, inv invdom.Invoice) (string, error) {
	if err := inv.CheckTotals(); err != nil {
		return "", err
	}

	now := r.now()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	return r.Store.Put(ctx, invdom.CollectionInvoices, "", invoiceToDocData(inv))
}

// UpdateInvoice overlays patch and always refreshes updated_at.
func (r *InvoiceRepositoryDS) UpdateInvoice(ctx context.Context, id string, patch invdom.InvoicePatch) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invdom.ErrNotFound
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	updatedAt := r.now()
	if patch.UpdatedAt != nil && !patch.UpdatedAt.IsZero() {
		updatedAt = patch.UpdatedAt.UTC()
	}

	fields := patchToFields(patch)
	fields[fieldUpdatedAt] = formatTime(updatedAt)

	if err := r.Store.Update(ctx, invdom.CollectionInvoices, id, fields); err != nil {
		if errors.Is(err, ds.ErrNotFound) {
			return invdom.ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteInvoice removes only the invoice document. Items are left in place;
// callers delete them with DeleteInvoiceItems.
func (r *InvoiceRepositoryDS) DeleteInvoice(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invdom.ErrNotFound
	}
	if err := r.Store.Delete(ctx, invdom.CollectionInvoices, id); err != nil {
		if errors.Is(err, ds.ErrNotFound) {
			return invdom.ErrNotFound
		}
		return err
	}
	return nil
}

// =======================
// Helpers
// =======================

func patchToFields(p invdom.InvoicePatch) map[string]any {
	fields := map[string]any{}
	setStr := func(key string, v *string) {
		if v != nil {
			fields[key] = strings.TrimSpace(*v)
		}
	}
	setStr("invoice_number", p.InvoiceNumber)
	setStr("issue_date", p.IssueDate)
	setStr("due_date", p.DueDate)
	if p.Status != nil {
		fields["status"] = string(*p.Status)
	}
	setStr("client_name", p.ClientName)
	setStr("client_email", p.ClientEmail)
	setStr("client_address", p.ClientAddress)
	setStr("client_phone", p.ClientPhone)
	if p.Notes != nil {
		fields["notes"] = *p.Notes
	}
	return fields
}
