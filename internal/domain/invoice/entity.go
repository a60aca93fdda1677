// internal/domain/invoice/entity.go
package invoice

import (
	"strings"
	"time"
)

// Collections used by the repositories and the migration.
const (
	CollectionInvoices = "invoices"
	CollectionItems    = "invoice_items"
)

// DateLayout is the calendar-date format of issue/due/item dates.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
)

// Valid reports whether s is one of draft, sent, paid. There are no
// transition rules; any status may overwrite any other.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid:
		return true
	}
	return false
}

type Invoice struct {
	ID            string `json:"id"`
	InvoiceNumber string `json:"invoice_number"`
	IssueDate     string `json:"issue_date"`
	DueDate       string `json:"due_date"`
	Status        Status `json:"status"`

	ClientName    string `json:"client_name"`
	ClientEmail   string `json:"client_email,omitempty"`
	ClientAddress string `json:"client_address,omitempty"`
	ClientPhone   string `json:"client_phone,omitempty"`

	CompanyName      string `json:"company_name"`
	CompanyFirstName string `json:"company_first_name,omitempty"`
	CompanyLastName  string `json:"company_last_name,omitempty"`
	CompanyAddress   string `json:"company_address,omitempty"`
	CompanyEmail     string `json:"company_email,omitempty"`
	CompanyPhone     string `json:"company_phone,omitempty"`
	CompanySiren     string `json:"company_siren,omitempty"`
	CompanyAPE       string `json:"company_ape,omitempty"`

	BankName            string `json:"bank_name,omitempty"`
	BankIBAN            string `json:"bank_iban,omitempty"`
	BankBIC             string `json:"bank_bic,omitempty"`
	PaymentInstructions string `json:"payment_instructions,omitempty"`
	Notes               string `json:"notes,omitempty"`

	Subtotal  float64 `json:"subtotal"`
	TaxRate   float64 `json:"tax_rate"`
	TaxAmount float64 `json:"tax_amount"`
	Total     float64 `json:"total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (inv Invoice) Validate() error {
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		return ErrInvalidNumber
	}
	if strings.TrimSpace(inv.ClientName) == "" {
		return ErrInvalidClient
	}
	if strings.TrimSpace(inv.CompanyName) == "" {
		return ErrInvalidCompany
	}
	if !inv.Status.Valid() {
		return ErrInvalidStatus
	}
	for _, d := range []string{inv.IssueDate, inv.DueDate} {
		if !validDate(d) {
			return ErrInvalidDate
		}
	}
	if inv.Subtotal < 0 || inv.TaxRate < 0 || inv.TaxAmount < 0 || inv.Total < 0 {
		return ErrInvalidAmount
	}
	return inv.CheckTotals()
}

// Normalize trims free-text fields and defaults the status to draft.
func (inv *Invoice) Normalize() {
	for _, p := range []*string{
		&inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate,
		&inv.ClientName, &inv.ClientEmail, &inv.ClientAddress, &inv.ClientPhone,
		&inv.CompanyName, &inv.CompanyFirstName, &inv.CompanyLastName, &inv.CompanyAddress,
		&inv.CompanyEmail, &inv.CompanyPhone, &inv.CompanySiren, &inv.CompanyAPE,
		&inv.BankName, &inv.BankIBAN, &inv.BankBIC,
	} {
		*p = strings.TrimSpace(*p)
	}
	if inv.Status == "" {
		inv.Status = StatusDraft
	}
}

// IssuerName is the name printed in the issuer block: the company name,
// or "First Last" when the company is a sole trader without a trade name.
func (inv Invoice) IssuerName() string {
	if n := strings.TrimSpace(inv.CompanyName); n != "" {
		return n
	}
	return strings.TrimSpace(strings.TrimSpace(inv.CompanyFirstName) + " " + strings.TrimSpace(inv.CompanyLastName))
}

type InvoiceItem struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	Description string    `json:"description"`
	Quantity    float64   `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Amount      float64   `json:"amount"`
	ItemDate    string    `json:"item_date,omitempty"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (it InvoiceItem) Validate() error {
	if strings.TrimSpace(it.InvoiceID) == "" {
		return ErrInvalidInvoiceID
	}
	if strings.TrimSpace(it.Description) == "" {
		return ErrInvalidDescription
	}
	if it.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if it.UnitPrice < 0 {
		return ErrInvalidUnitPrice
	}
	if !validDate(it.ItemDate) {
		return ErrInvalidDate
	}
	return nil
}

func validDate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
