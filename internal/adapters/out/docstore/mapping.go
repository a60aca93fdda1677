package docstore

import (
	"strings"
	"time"

	common "invoicer/internal/domain/common"
	ds "invoicer/internal/domain/docstore"
	invdom "invoicer/internal/domain/invoice"
)

const (
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"
	fieldInvoiceID = "invoice_id"
)

// timeLayout matches the ISO strings the web client has always written
// (millisecond precision, UTC); lexical order equals time order.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func invoiceToDocData(inv invdom.Invoice) map[string]any {
	return map[string]any{
		"invoice_number": strings.TrimSpace(inv.InvoiceNumber),
		"issue_date":     strings.TrimSpace(inv.IssueDate),
		"due_date":       strings.TrimSpace(inv.DueDate),
		"status":         string(inv.Status),

		"client_name":    strings.TrimSpace(inv.ClientName),
		"client_email":   strings.TrimSpace(inv.ClientEmail),
		"client_address": strings.TrimSpace(inv.ClientAddress),
		"client_phone":   strings.TrimSpace(inv.ClientPhone),

		"company_name":       strings.TrimSpace(inv.CompanyName),
		"company_first_name": strings.TrimSpace(inv.CompanyFirstName),
		"company_last_name":  strings.TrimSpace(inv.CompanyLastName),
		"company_address":    strings.TrimSpace(inv.CompanyAddress),
		"company_email":      strings.TrimSpace(inv.CompanyEmail),
		"company_phone":      strings.TrimSpace(inv.CompanyPhone),
		"company_siren":      strings.TrimSpace(inv.CompanySiren),
		"company_ape":        strings.TrimSpace(inv.CompanyAPE),

		"bank_name":            strings.TrimSpace(inv.BankName),
		"bank_iban":            strings.TrimSpace(inv.BankIBAN),
		"bank_bic":             strings.TrimSpace(inv.BankBIC),
		"payment_instructions": inv.PaymentInstructions,
		"notes":                inv.Notes,

		"subtotal":   inv.Subtotal,
		"tax_rate":   inv.TaxRate,
		"tax_amount": inv.TaxAmount,
		"total":      inv.Total,

		fieldCreatedAt: formatTime(inv.CreatedAt),
		fieldUpdatedAt: formatTime(inv.UpdatedAt),
	}
}

func itemToDocData(it invdom.InvoiceItem) map[string]any {
	return map[string]any{
		fieldInvoiceID: strings.TrimSpace(it.InvoiceID),
		"description":  strings.TrimSpace(it.Description),
		"quantity":     it.Quantity,
		"unit_price":   it.UnitPrice,
		"amount":       it.Amount,
		"item_date":    strings.TrimSpace(it.ItemDate),
		"details":      it.Details,
		fieldCreatedAt: formatTime(it.CreatedAt),
	}
}

// docToInvoice reads both the snake_case fields written by the app and the
// camelCase timestamps added by the migration.
func docToInvoice(doc ds.Document) invdom.Invoice {
	r := reader(doc.Data)

	inv := invdom.Invoice{
		ID:            doc.ID,
		InvoiceNumber: r.str("invoice_number"),
		IssueDate:     r.str("issue_date"),
		DueDate:       r.str("due_date"),
		Status:        invdom.Status(r.str("status")),

		ClientName:    r.str("client_name"),
		ClientEmail:   r.str("client_email"),
		ClientAddress: r.str("client_address"),
		ClientPhone:   r.str("client_phone"),

		CompanyName:      r.str("company_name"),
		CompanyFirstName: r.str("company_first_name"),
		CompanyLastName:  r.str("company_last_name"),
		CompanyAddress:   r.str("company_address"),
		CompanyEmail:     r.str("company_email"),
		CompanyPhone:     r.str("company_phone"),
		CompanySiren:     r.str("company_siren"),
		CompanyAPE:       r.str("company_ape"),

		BankName:            r.str("bank_name"),
		BankIBAN:            r.str("bank_iban"),
		BankBIC:             r.str("bank_bic"),
		PaymentInstructions: r.raw("payment_instructions"),
		Notes:               r.raw("notes"),

		Subtotal:  r.float("subtotal"),
		TaxRate:   r.float("tax_rate"),
		TaxAmount: r.float("tax_amount"),
		Total:     r.float("total"),
	}
	if inv.Status == "" {
		inv.Status = invdom.StatusDraft
	}
	inv.CreatedAt = r.timestamp("createdAt", fieldCreatedAt)
	inv.UpdatedAt = r.timestamp("updatedAt", fieldUpdatedAt)
	return inv
}

func docToItem(doc ds.Document) invdom.InvoiceItem {
	r := reader(doc.Data)
	return invdom.InvoiceItem{
		ID:          doc.ID,
		InvoiceID:   r.str(fieldInvoiceID),
		Description: r.str("description"),
		Quantity:    r.float("quantity"),
		UnitPrice:   r.float("unit_price"),
		Amount:      r.float("amount"),
		ItemDate:    r.str("item_date"),
		Details:     r.raw("details"),
		CreatedAt:   r.timestamp("createdAt", fieldCreatedAt),
	}
}

type reader map[string]any

func (r reader) raw(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

func (r reader) str(key string) string {
	return strings.TrimSpace(r.raw(key))
}

func (r reader) float(key string) float64 {
	switch n := r[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// timestamp returns the first key holding a timestamp or a parseable string.
func (r reader) timestamp(keys ...string) time.Time {
	for _, key := range keys {
		switch v := r[key].(type) {
		case time.Time:
			if !v.IsZero() {
				return v.UTC()
			}
		case string:
			if t, err := common.ParseTimestamp(v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
