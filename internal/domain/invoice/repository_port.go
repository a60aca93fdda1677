package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid is wrapped by every validation error of this package.
var ErrInvalid = errors.New("invoice: invalid")

var (
	ErrNotFound = errors.New("invoice: not found")

	ErrInvalidID          = invalid("invalid id")
	ErrInvalidNumber      = invalid("invoice_number is required")
	ErrInvalidClient      = invalid("client_name is required")
	ErrInvalidCompany     = invalid("company_name is required")
	ErrInvalidStatus      = invalid("status must be draft, sent or paid")
	ErrInvalidDate        = invalid("dates must be YYYY-MM-DD")
	ErrInvalidAmount      = invalid("amounts must be non-negative")
	ErrTotalsMismatch     = invalid("total must equal subtotal + tax_amount")
	ErrInvalidInvoiceID   = invalid("invoice_id is required")
	ErrInvalidDescription = invalid("description is required")
	ErrInvalidQuantity    = invalid("quantity must be non-negative")
	ErrInvalidUnitPrice   = invalid("unit_price must be non-negative")
	ErrNoItems            = invalid("at least one item is required")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalid, msg)
}

// InvoicePatch is a partial overlay; nil fields are left untouched.
// updated_at is always refreshed by the repository.
type InvoicePatch struct {
	InvoiceNumber *string
	IssueDate     *string
	DueDate       *string
	Status        *Status

	ClientName    *string
	ClientEmail   *string
	ClientAddress *string
	ClientPhone   *string

	Notes *string

	UpdatedAt *time.Time
}

// Validate checks only the fields being set.
func (p InvoicePatch) Validate() error {
	if p.InvoiceNumber != nil && strings.TrimSpace(*p.InvoiceNumber) == "" {
		return ErrInvalidNumber
	}
	if p.ClientName != nil && strings.TrimSpace(*p.ClientName) == "" {
		return ErrInvalidClient
	}
	if p.Status != nil && !p.Status.Valid() {
		return ErrInvalidStatus
	}
	for _, d := range []*string{p.IssueDate, p.DueDate} {
		if d != nil && !validDate(*d) {
			return ErrInvalidDate
		}
	}
	return nil
}

// Repository is the invoice persistence port.
type Repository interface {
	CreateInvoice(ctx context.Context, inv Invoice) (string, error)
	GetInvoice(ctx context.Context, id string) (Invoice, error)
	GetInvoices(ctx context.Context) ([]Invoice, error)
	UpdateInvoice(ctx context.Context, id string, patch InvoicePatch) error
	DeleteInvoice(ctx context.Context, id string) error
}

// ItemRepository is the invoice item persistence port.
type ItemRepository interface {
	CreateInvoiceItem(ctx context.Context, item InvoiceItem) (string, error)
	GetInvoiceItems(ctx context.Context, invoiceID string) ([]InvoiceItem, error)
	DeleteInvoiceItems(ctx context.Context, invoiceID string) (int, error)
}
