// internal/adapters/out/pdf/invoice_pdf.go
package pdf

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	usecase "invoicer/internal/application/usecase"
	invdom "invoicer/internal/domain/invoice"
)

// InvoiceRenderer renders the printable invoice as an A4 PDF.
type InvoiceRenderer struct {
	// Currency is appended to every amount.
	Currency string
}

func NewInvoiceRenderer() *InvoiceRenderer {
	return &InvoiceRenderer{Currency: "€"}
}

const (
	pageMargin = 15.0
	lineH      = 5.0
)

// column widths of the items table; they sum to the printable width (180mm).
var itemCols = []float64{80, 25, 30, 20, 25}

// Render writes the PDF for doc to w.
func (r *InvoiceRenderer) Render(w io.Writer, doc usecase.InvoiceWithItems) error {
	inv := doc.Invoice

	p := gofpdf.New("P", "mm", "A4", "")
	p.SetMargins(pageMargin, pageMargin, pageMargin)
	p.SetAutoPageBreak(true, pageMargin)
	p.SetTitle("Facture "+DisplayNumber(inv.InvoiceNumber), true)
	tr := p.UnicodeTranslatorFromDescriptor("")
	p.AddPage()

	// header
	p.SetTextColor(30, 58, 138)
	p.SetFont("Arial", "B", 28)
	p.CellFormat(100, 14, "FACTURE", "", 0, "L", false, 0, "")
	p.SetTextColor(0, 0, 0)
	p.SetFont("Arial", "", 10)
	x, y := p.GetXY()
	p.SetXY(x, y+2)
	p.CellFormat(80, lineH, tr("DATE : "+FormatDate(inv.IssueDate)), "", 2, "R", false, 0, "")
	p.CellFormat(80, lineH, tr("FACTURE N° : "+DisplayNumber(inv.InvoiceNumber)), "", 2, "R", false, 0, "")
	if inv.DueDate != "" {
		p.CellFormat(80, lineH, tr("ÉCHÉANCE : "+FormatDate(inv.DueDate)), "", 2, "R", false, 0, "")
	}
	p.Ln(8)

	// issuer / recipient
	top := p.GetY()
	p.SetDrawColor(30, 58, 138)
	p.SetLineWidth(0.8)
	p.Line(pageMargin, top, 210-pageMargin, top)

	p.SetXY(pageMargin, top+3)
	r.heading(p, tr, "ÉMETTEUR :")
	p.SetFont("Arial", "", 9)
	for _, kv := range [][2]string{
		{"Nom", inv.CompanyLastName},
		{"Prénom", inv.CompanyFirstName},
		{"Téléphone", inv.CompanyPhone},
		{"e-mail", inv.CompanyEmail},
		{"Adresse", inv.CompanyAddress},
	} {
		p.MultiCell(90, lineH, tr(kv[0]+" : "+kv[1]), "", "L", false)
	}
	leftBottom := p.GetY()

	p.SetXY(105, top+3)
	r.heading(p, tr, "DESTINATAIRE :")
	p.SetX(105)
	p.SetFont("Arial", "B", 10)
	p.MultiCell(90, lineH, tr(inv.ClientName), "", "R", false)
	p.SetFont("Arial", "", 9)
	for _, s := range []string{inv.ClientPhone, inv.ClientEmail, inv.ClientAddress} {
		if strings.TrimSpace(s) == "" {
			continue
		}
		p.SetX(105)
		p.MultiCell(90, lineH, tr(s), "", "R", false)
	}

	bottom := max(leftBottom, p.GetY()) + 3
	p.Line(pageMargin, bottom, 210-pageMargin, bottom)
	p.SetLineWidth(0.2)
	p.SetXY(pageMargin, bottom+6)

	// items
	r.itemsTable(p, tr, doc.Items)
	p.Ln(6)

	// payment + totals
	top = p.GetY()
	r.heading(p, tr, "INSTRUCTIONS DE PAIEMENT :")
	p.SetFont("Arial", "", 9)
	if s := strings.TrimSpace(inv.PaymentInstructions); s != "" {
		p.MultiCell(100, lineH, tr(s), "", "L", false)
	}
	if inv.BankName != "" || inv.BankIBAN != "" || inv.BankBIC != "" {
		p.Ln(2)
		r.heading(p, tr, "RÈGLEMENT :")
		p.SetFont("Arial", "", 9)
		p.MultiCell(100, lineH, tr("Par virement bancaire :"), "", "L", false)
		for _, kv := range [][2]string{{"Banque", inv.BankName}, {"IBAN", inv.BankIBAN}, {"BIC", inv.BankBIC}} {
			if kv[1] != "" {
				p.MultiCell(100, lineH, tr(kv[0]+" : "+kv[1]), "", "L", false)
			}
		}
	}
	leftBottom = p.GetY()

	p.SetXY(125, top)
	p.SetFont("Arial", "B", 12)
	p.CellFormat(70, 8, tr("TOTAL HT : "+r.money(inv.Subtotal)), "", 2, "R", false, 0, "")
	if inv.TaxAmount != 0 {
		p.CellFormat(70, 8, tr("TVA : "+r.money(inv.TaxAmount)), "", 2, "R", false, 0, "")
	}
	p.CellFormat(70, 8, tr("TOTAL : "+r.money(inv.Total)), "T", 2, "R", false, 0, "")

	p.SetXY(pageMargin, max(leftBottom, p.GetY())+6)

	if s := strings.TrimSpace(inv.Notes); s != "" {
		p.SetFont("Arial", "", 9)
		p.MultiCell(0, lineH, tr(s), "T", "L", false)
		p.Ln(4)
	}

	// company footer
	p.SetFillColor(30, 58, 138)
	p.SetTextColor(255, 255, 255)
	p.SetFont("Arial", "B", 10)
	p.CellFormat(0, 7, tr("INFOS SUR L'ENTREPRISE :"), "", 1, "L", true, 0, "")
	p.SetFont("Arial", "", 9)
	p.CellFormat(0, lineH, tr(companyLine(inv)), "", 1, "L", true, 0, "")
	if legal := legalLine(inv); legal != "" {
		p.CellFormat(0, lineH, tr(legal), "", 1, "L", true, 0, "")
	}

	if err := p.Error(); err != nil {
		return fmt.Errorf("pdf: render %s: %w", inv.ID, err)
	}
	return p.Output(w)
}

func (r *InvoiceRenderer) heading(p *gofpdf.Fpdf, tr func(string) string, s string) {
	p.SetFont("Arial", "B", 10)
	p.SetTextColor(30, 58, 138)
	p.CellFormat(90, 6, tr(s), "", 2, "L", false, 0, "")
	p.SetTextColor(0, 0, 0)
}

func (r *InvoiceRenderer) itemsTable(p *gofpdf.Fpdf, tr func(string) string, items []invdom.InvoiceItem) {
	heads := []string{"Description", "Date", "Prix unitaire", "Quantité", "Total"}
	aligns := []string{"L", "C", "C", "C", "R"}

	p.SetFont("Arial", "B", 9)
	p.SetFillColor(30, 58, 138)
	p.SetTextColor(255, 255, 255)
	for i, h := range heads {
		p.CellFormat(itemCols[i], 7, tr(h), "1", 0, aligns[i], true, 0, "")
	}
	p.Ln(-1)

	p.SetTextColor(0, 0, 0)
	p.SetFont("Arial", "", 9)
	for n, it := range items {
		if n%2 == 0 {
			p.SetFillColor(245, 245, 245)
		} else {
			p.SetFillColor(255, 255, 255)
		}
		desc := it.Description
		if d := strings.TrimSpace(it.Details); d != "" {
			desc += "\nDétails : " + d
		}
		lines := p.SplitLines([]byte(tr(desc)), itemCols[0]-2)
		h := float64(max(len(lines), 1)) * lineH

		x, y := p.GetXY()
		p.MultiCell(itemCols[0], lineH, tr(desc), "1", "L", true)
		p.SetXY(x+itemCols[0], y)

		cells := []string{
			FormatDate(it.ItemDate),
			r.money(it.UnitPrice),
			strconv.FormatFloat(it.Quantity, 'f', -1, 64),
			r.money(it.Amount),
		}
		for i, c := range cells {
			p.CellFormat(itemCols[i+1], h, tr(c), "1", 0, aligns[i+1], true, 0, "")
		}
		p.SetXY(x, y+h)
	}
}

func (r *InvoiceRenderer) money(v float64) string {
	return invdom.FormatMoney(v) + r.Currency
}

// DisplayNumber strips the "INV-" prefix the form generates.
func DisplayNumber(n string) string {
	return strings.TrimPrefix(strings.TrimSpace(n), "INV-")
}

// FormatDate renders YYYY-MM-DD as DD/MM/YYYY; anything else is returned as is.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	t, err := time.Parse(invdom.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006")
}

func companyLine(inv invdom.Invoice) string {
	person := strings.TrimSpace(inv.CompanyFirstName + " " + inv.CompanyLastName)
	switch {
	case person == "":
		return inv.IssuerName()
	case inv.CompanyName == "":
		return person
	}
	return person + " - " + inv.CompanyName
}

func legalLine(inv invdom.Invoice) string {
	var parts []string
	if inv.CompanySiren != "" {
		parts = append(parts, "SIREN "+inv.CompanySiren)
	}
	if inv.CompanyAPE != "" {
		parts = append(parts, "APE "+inv.CompanyAPE)
	}
	return strings.Join(parts, " - ")
}
