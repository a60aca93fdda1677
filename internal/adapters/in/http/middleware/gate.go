// internal/adapters/in/http/middleware/gate.go
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"

	"invoicer/internal/infra/logger"
)

// HeaderAccessCode carries the shared access code in "code" mode.
const HeaderAccessCode = "X-Access-Code"

// TokenVerifier verifies Firebase ID tokens; *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

type ctxKey struct{ name string }

var ctxKeyUID = ctxKey{name: "uid"}

// UIDFromContext returns the Firebase uid set by the gate, if any.
func UIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyUID).(string)
	return v, ok && v != ""
}

// Gate decides whether a request may reach the application.
type Gate interface {
	Handler(next http.Handler) http.Handler
}

// CodeGate compares a shared access code in constant time. The code is
// injected from configuration; an empty code rejects every request.
type CodeGate struct {
	Code string
}

func (g *CodeGate) Handler(next http.Handler) http.Handler {
	want := []byte(g.Code)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimSpace(r.Header.Get(HeaderAccessCode))
		if got == "" {
			got = bearer(r)
		}
		if len(want) == 0 || got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			unauthorized(w, "invalid access code")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FirebaseGate requires "Authorization: Bearer <ID_TOKEN>".
type FirebaseGate struct {
	Verifier TokenVerifier
}

func (g *FirebaseGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.Verifier == nil {
			http.Error(w, "auth middleware not initialized", http.StatusServiceUnavailable)
			return
		}
		idToken := bearer(r)
		if idToken == "" {
			unauthorized(w, "missing bearer token")
			return
		}
		token, err := g.Verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			logger.FromContext(r.Context()).Warn("[gate] token rejected", zap.Error(err))
			unauthorized(w, "invalid token")
			return
		}
		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			unauthorized(w, "invalid uid in token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUID, uid)))
	})
}

// OpenGate lets everything through (local development).
type OpenGate struct{}

func (OpenGate) Handler(next http.Handler) http.Handler { return next }

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized: ` + msg + `"}`))
}
