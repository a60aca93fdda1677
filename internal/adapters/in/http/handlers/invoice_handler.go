// internal/adapters/in/http/handlers/invoice_handler.go
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	usecase "invoicer/internal/application/usecase"
	invdom "invoicer/internal/domain/invoice"
	"invoicer/internal/infra/logger"
)

// maxBodyBytes bounds request bodies; an invoice form is a few KB.
const maxBodyBytes = 1 << 20

// PDFRenderer renders the print view.
type PDFRenderer interface {
	Render(w io.Writer, doc usecase.InvoiceWithItems) error
}

// InvoiceHandler serves /invoices and /invoices/{id}[/items|/pdf].
type InvoiceHandler struct {
	uc  *usecase.InvoiceUsecase
	pdf PDFRenderer
}

func NewInvoiceHandler(uc *usecase.InvoiceUsecase, pdf PDFRenderer) http.Handler {
	return &InvoiceHandler{uc: uc, pdf: pdf}
}

func (h *InvoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] != "invoices" || len(parts) > 3 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.list(w, r)
	case len(parts) == 1 && r.Method == http.MethodPost:
		h.create(w, r)
	case len(parts) == 1:
		methodNotAllowed(w)

	case len(parts) == 2 && r.Method == http.MethodGet:
		h.get(w, r, parts[1])
	case len(parts) == 2 && r.Method == http.MethodPatch:
		h.update(w, r, parts[1])
	case len(parts) == 2 && r.Method == http.MethodDelete:
		h.delete(w, r, parts[1])
	case len(parts) == 2:
		methodNotAllowed(w)

	case len(parts) == 3 && parts[2] == "items" && r.Method == http.MethodGet:
		h.items(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "pdf" && r.Method == http.MethodGet:
		h.renderPDF(w, r, parts[1])
	case len(parts) == 3 && (parts[2] == "items" || parts[2] == "pdf"):
		methodNotAllowed(w)

	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	}
}

// GET /invoices
func (h *InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.uc.List(r.Context())
	if err != nil {
		writeInvoiceErr(w, r, err)
		return
	}
	if list == nil {
		list = []invdom.Invoice{}
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /invoices
func (h *InvoiceHandler) create(w http.ResponseWriter, r *http.Request) {
	var in usecase.SubmitInput
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}
	out, err := h.uc.Submit(r.Context(), in)
	if err != nil {
		writeInvoiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// GET /invoices/{id}
func (h *InvoiceHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	out, err := h.uc.Get(r.Context(), id)
	if err != nil {
		writeInvoiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /invoices/{id}/items
func (h *InvoiceHandler) items(w http.ResponseWriter, r *http.Request, id string) {
	items, err := h.uc.Items(r.Context(), id)
	if err != nil {
		writeInvoiceErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// patchRequest is the PATCH body; absent fields are left untouched.
type patchRequest struct {
	InvoiceNumber *string        `json:"invoice_number"`
	IssueDate     *string        `json:"issue_date"`
	DueDate       *string        `json:"due_date"`
	Status        *invdom.Status `json:"status"`
	ClientName    *string        `json:"client_name"`
	ClientEmail   *string        `json:"client_email"`
	ClientAddress *string        `json:"client_address"`
	ClientPhone   *string        `json:"client_phone"`
	Notes         *string        `json:"notes"`
}

func (p patchRequest) toPatch() invdom.InvoicePatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return invdom.InvoicePatch{
		InvoiceNumber: trim(p.InvoiceNumber),
		IssueDate:     trim(p.IssueDate),
		DueDate:       trim(p.DueDate),
		Status:        p.Status,
		ClientName:    trim(p.ClientName),
		ClientEmail:   trim(p.ClientEmail),
		ClientAddress: p.ClientAddress,
		ClientPhone:   trim(p.ClientPhone),
		Notes:         p.Notes,
	}
}

// PATCH /invoices/{id}
func (h *InvoiceHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req patchRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json: " + err.Error()})
		return
	}
	if err := h.uc.Update(r.Context(), id, req.toPatch()); err != nil {
		writeInvoiceErr(w, r, err)
		return
	}
	h.get(w, r, id)
}

// DELETE /invoices/{id}
func (h *InvoiceHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.uc.Delete(r.Context(), id); err != nil {
		writeInvoiceErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /invoices/{id}/pdf
func (h *InvoiceHandler) renderPDF(w http.ResponseWriter, r *http.Request, id string) {
	if h.pdf == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "pdf rendering not configured"})
		return
	}
	doc, err := h.uc.Get(r.Context(), id)
	if err != nil {
		writeInvoiceErr(w, r, err)
		return
	}

	// render fully before writing so a failure can still be reported as JSON
	var buf bytes.Buffer
	if err := h.pdf.Render(&buf, doc); err != nil {
		writeInvoiceErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+pdfFilename(doc.Invoice)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func pdfFilename(inv invdom.Invoice) string {
	n := strings.TrimSpace(inv.InvoiceNumber)
	if n == "" {
		n = inv.ID
	}
	n = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, n)
	return "facture-" + n + ".pdf"
}

func writeInvoiceErr(w http.ResponseWriter, r *http.Request, err error) {
	var partial *usecase.PartialWriteError
	switch {
	case errors.Is(err, invdom.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, invdom.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &partial):
		logger.FromContext(r.Context()).Error("[invoice] partial write", zap.String("invoice_id", partial.InvoiceID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":      err.Error(),
			"invoice_id": partial.InvoiceID,
		})
	default:
		logger.FromContext(r.Context()).Error("[invoice] request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	return dec.Decode(dst)
}
