// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"go.uber.org/zap"

	"invoicer/internal/adapters/in/http/handlers"
	"invoicer/internal/adapters/in/http/middleware"
	usecase "invoicer/internal/application/usecase"
)

// RouterDeps collects what main wires into the HTTP layer.
type RouterDeps struct {
	InvoiceUC *usecase.InvoiceUsecase
	PDF       handlers.PDFRenderer
	Gate      middleware.Gate

	CORSAllowedOrigin string
	Logger            *zap.Logger
}

// NewRouter builds CORS(RequestLog(Recover(mux))) with the gate in front
// of every route except /healthz.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gate := deps.Gate
	if gate == nil {
		// no gate configured means nothing gets in
		gate = &middleware.CodeGate{}
	}

	// lets the front end check a code or token before showing the app
	mux.Handle("/access/verify", gate.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	if deps.InvoiceUC != nil {
		h := gate.Handler(handlers.NewInvoiceHandler(deps.InvoiceUC, deps.PDF))
		mux.Handle("/invoices", h)
		mux.Handle("/invoices/", h)
	}

	origin := deps.CORSAllowedOrigin
	if origin == "" {
		origin = "*"
	}

	var handler http.Handler = mux
	handler = middleware.Recover(handler)
	handler = middleware.RequestLog(deps.Logger)(handler)
	handler = middleware.CORS(origin)(handler)
	return handler
}
