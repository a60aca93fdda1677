package httpin

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"invoicer/internal/adapters/in/http/middleware"
	dsadapter "invoicer/internal/adapters/out/docstore"
	"invoicer/internal/adapters/out/memory"
	usecase "invoicer/internal/application/usecase"
)

func newTestRouter(gate middleware.Gate) http.Handler {
	store := memory.NewStore()
	uc := usecase.NewInvoiceUsecase(dsadapter.NewInvoiceRepositoryDS(store), dsadapter.NewInvoiceItemRepositoryDS(store), nil)
	return NewRouter(RouterDeps{InvoiceUC: uc, Gate: gate, CORSAllowedOrigin: "http://localhost:5173"})
}

func get(h http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthzIsNotGated(t *testing.T) {
	h := newTestRouter(&middleware.CodeGate{Code: "c0de"})

	rec := get(h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_InvoicesAreGated(t *testing.T) {
	h := newTestRouter(&middleware.CodeGate{Code: "c0de"})

	assert.Equal(t, http.StatusUnauthorized, get(h, "/invoices").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/invoices/abc").Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/access/verify").Code)

	rec := get(h, "/invoices", middleware.HeaderAccessCode, "c0de")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
	assert.Equal(t, http.StatusNoContent, get(h, "/access/verify", middleware.HeaderAccessCode, "c0de").Code)
}

func TestRouter_NilGateDeniesAll(t *testing.T) {
	h := newTestRouter(nil)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/invoices").Code)
}

func TestRouter_WithoutUsecaseOnlyHealthz(t *testing.T) {
	h := NewRouter(RouterDeps{})
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/invoices").Code)
	assert.Equal(t, "*", get(h, "/healthz").Header().Get("Access-Control-Allow-Origin"))
}
