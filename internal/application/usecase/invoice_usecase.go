// internal/application/usecase/invoice_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	invdom "invoicer/internal/domain/invoice"
)

// InvoiceUsecase backs the interactive form, list and print views.
type InvoiceUsecase struct {
	invoices invdom.Repository
	items    invdom.ItemRepository
	log      *zap.Logger
}

func NewInvoiceUsecase(invoices invdom.Repository, items invdom.ItemRepository, log *zap.Logger) *InvoiceUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &InvoiceUsecase{invoices: invoices, items: items, log: log}
}

// SubmitInput is what the form posts.
type SubmitInput struct {
	Invoice invdom.Invoice       `json:"invoice"`
	Items   []invdom.InvoiceItem `json:"items"`
}

// InvoiceWithItems is the print view model.
type InvoiceWithItems struct {
	Invoice invdom.Invoice       `json:"invoice"`
	Items   []invdom.InvoiceItem `json:"items"`
}

// PartialWriteError is returned when the invoice was stored but one of its
// items was not. The invoice and the items written before the failure stay.
type PartialWriteError struct {
	InvoiceID    string
	ItemsWritten int
	Err          error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("invoice %s saved but item %d failed: %v", e.InvoiceID, e.ItemsWritten, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// ============================================================
// Commands
// ============================================================

// Submit creates the invoice then each item. Tax is always zero, so
// total == subtotal. The two writes are not atomic.
func (u *InvoiceUsecase) Submit(ctx context.Context, in SubmitInput) (InvoiceWithItems, error) {
	inv := in.Invoice
	inv.ID = ""
	inv.Normalize()

	if len(in.Items) == 0 {
		return InvoiceWithItems{}, invdom.ErrNoItems
	}

	items := make([]invdom.InvoiceItem, 0, len(in.Items))
	for _, it := range in.Items {
		it.ID = ""
		it.Description = strings.TrimSpace(it.Description)
		it.ApplyAmount()
		items = append(items, it)
	}

	inv.TaxRate = 0
	inv.ApplyTotals(items)
	if err := inv.Validate(); err != nil {
		return InvoiceWithItems{}, err
	}
	for i := range items {
		// invoice_id is not known yet; validate the rest with a placeholder.
		probe := items[i]
		probe.InvoiceID = "pending"
		if err := probe.Validate(); err != nil {
			return InvoiceWithItems{}, fmt.Errorf("item %d: %w", i, err)
		}
	}

	id, err := u.invoices.CreateInvoice(ctx, inv)
	if err != nil {
		return InvoiceWithItems{}, err
	}
	inv.ID = id

	for i := range items {
		items[i].InvoiceID = id
		itemID, err := u.items.CreateInvoiceItem(ctx, items[i])
		if err != nil {
			u.log.Error("[invoice] item write failed after invoice was created",
				zap.String("invoice_id", id), zap.Int("item", i), zap.Error(err))
			return InvoiceWithItems{}, &PartialWriteError{InvoiceID: id, ItemsWritten: i, Err: err}
		}
		items[i].ID = itemID
	}

	u.log.Info("[invoice] submitted",
		zap.String("invoice_id", id),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.Int("items", len(items)),
	)
	return u.Get(ctx, id)
}

// RenameNumber overwrites the invoice number. Uniqueness is not enforced.
func (u *InvoiceUsecase) RenameNumber(ctx context.Context, id, number string) error {
	number = strings.TrimSpace(number)
	return u.Update(ctx, id, invdom.InvoicePatch{InvoiceNumber: &number})
}

// SetStatus overwrites the status. Any transition is allowed.
func (u *InvoiceUsecase) SetStatus(ctx context.Context, id string, status invdom.Status) error {
	return u.Update(ctx, id, invdom.InvoicePatch{Status: &status})
}

func (u *InvoiceUsecase) Update(ctx context.Context, id string, patch invdom.InvoicePatch) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invdom.ErrInvalidID
	}
	return u.invoices.UpdateInvoice(ctx, id, patch)
}

// Delete removes the items, then the invoice. An invoice without items
// is deleted all the same.
func (u *InvoiceUsecase) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invdom.ErrInvalidID
	}
	if _, err := u.invoices.GetInvoice(ctx, id); err != nil {
		return err
	}
	n, err := u.items.DeleteInvoiceItems(ctx, id)
	if err != nil {
		return fmt.Errorf("delete items of %s: %w", id, err)
	}
	if err := u.invoices.DeleteInvoice(ctx, id); err != nil && !errors.Is(err, invdom.ErrNotFound) {
		return err
	}
	u.log.Info("[invoice] deleted", zap.String("invoice_id", id), zap.Int("items", n))
	return nil
}

// ============================================================
// Queries
// ============================================================

// List returns invoices newest first.
func (u *InvoiceUsecase) List(ctx context.Context) ([]invdom.Invoice, error) {
	return u.invoices.GetInvoices(ctx)
}

func (u *InvoiceUsecase) Get(ctx context.Context, id string) (InvoiceWithItems, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return InvoiceWithItems{}, invdom.ErrInvalidID
	}
	inv, err := u.invoices.GetInvoice(ctx, id)
	if err != nil {
		return InvoiceWithItems{}, err
	}
	items, err := u.items.GetInvoiceItems(ctx, id)
	if err != nil {
		return InvoiceWithItems{}, err
	}
	if items == nil {
		items = []invdom.InvoiceItem{}
	}
	return InvoiceWithItems{Invoice: inv, Items: items}, nil
}

func (u *InvoiceUsecase) Items(ctx context.Context, id string) ([]invdom.InvoiceItem, error) {
	res, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}
