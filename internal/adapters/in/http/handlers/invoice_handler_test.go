package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/adapters/in/http/handlers"
	dsadapter "invoicer/internal/adapters/out/docstore"
	"invoicer/internal/adapters/out/memory"
	usecase "invoicer/internal/application/usecase"
	invdom "invoicer/internal/domain/invoice"
)

type fakePDF struct{ err error }

func (f fakePDF) Render(w io.Writer, doc usecase.InvoiceWithItems) error {
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "%PDF-fake "+doc.Invoice.InvoiceNumber)
	return err
}

func newHandler(t *testing.T, pdf handlers.PDFRenderer) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	uc := usecase.NewInvoiceUsecase(
		dsadapter.NewInvoiceRepositoryDS(store),
		dsadapter.NewInvoiceItemRepositoryDS(store),
		nil,
	)
	return handlers.NewInvoiceHandler(uc, pdf), store
}

const submitBody = `{
  "invoice": {
    "invoice_number": "INV-1",
    "issue_date": "2024-03-01",
    "due_date": "2024-03-31",
    "client_name": "ACME",
    "company_name": "Studio"
  },
  "items": [
    {"description": "Design", "quantity": 2, "unit_price": 50}
  ]
}`

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func create(t *testing.T, h http.Handler) usecase.InvoiceWithItems {
	t.Helper()
	rec := do(h, http.MethodPost, "/invoices", submitBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out usecase.InvoiceWithItems
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestInvoiceHandler_CreateGetList(t *testing.T) {
	h, _ := newHandler(t, fakePDF{})

	created := create(t, h)
	assert.Equal(t, 100.0, created.Invoice.Total)
	assert.Equal(t, invdom.StatusDraft, created.Invoice.Status)
	require.Len(t, created.Items, 1)

	rec := do(h, http.MethodGet, "/invoices/"+created.Invoice.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"invoice_number":"INV-1"`)

	rec = do(h, http.MethodGet, "/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []invdom.Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(h, http.MethodGet, "/invoices/"+created.Invoice.ID+"/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []invdom.InvoiceItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 1)
}

func TestInvoiceHandler_EmptyListIsArray(t *testing.T) {
	h, _ := newHandler(t, nil)

	rec := do(h, http.MethodGet, "/invoices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestInvoiceHandler_PatchAndDelete(t *testing.T) {
	h, store := newHandler(t, nil)
	id := create(t, h).Invoice.ID

	rec := do(h, http.MethodPatch, "/invoices/"+id, `{"invoice_number": "FAC-9", "status": "sent"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"invoice_number":"FAC-9"`)
	assert.Contains(t, rec.Body.String(), `"status":"sent"`)

	rec = do(h, http.MethodPatch, "/invoices/"+id, `{"status": "void"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodDelete, "/invoices/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, store.Count(invdom.CollectionInvoices))
	assert.Zero(t, store.Count(invdom.CollectionItems))

	rec = do(h, http.MethodGet, "/invoices/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvoiceHandler_Errors(t *testing.T) {
	h, _ := newHandler(t, nil)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodPost, "/invoices", `{"invoice": `, http.StatusBadRequest},
		{http.MethodPost, "/invoices", `{"invoice": {"invoice_number": "X"}, "items": []}`, http.StatusBadRequest},
		{http.MethodGet, "/invoices/missing", "", http.StatusNotFound},
		{http.MethodPatch, "/invoices/missing", `{"notes": "x"}`, http.StatusNotFound},
		{http.MethodPut, "/invoices", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/invoices/abc", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/invoices/abc/other", "", http.StatusNotFound},
		{http.MethodGet, "/invoices/abc/pdf", "", http.StatusNotImplemented},
	}
	for _, tt := range tests {
		rec := do(h, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.want, rec.Code, "%s %s: %s", tt.method, tt.path, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestInvoiceHandler_PDF(t *testing.T) {
	h, _ := newHandler(t, fakePDF{})
	id := create(t, h).Invoice.ID

	rec := do(h, http.MethodGet, "/invoices/"+id+"/pdf", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="facture-INV-1.pdf"`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = do(h, http.MethodGet, "/invoices/missing/pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	broken, _ := newHandler(t, fakePDF{err: errors.New("font missing")})
	id = create(t, broken).Invoice.ID
	rec = do(broken, http.MethodGet, "/invoices/"+id+"/pdf", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "font missing")
}
