package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid, ok := UIDFromContext(r.Context()); ok {
			w.Header().Set("X-UID", uid)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCodeGate(t *testing.T) {
	h := (&CodeGate{Code: "s3cret"}).Handler(okHandler())

	assert.Equal(t, http.StatusOK, serve(h, map[string]string{HeaderAccessCode: "s3cret"}).Code)
	assert.Equal(t, http.StatusOK, serve(h, map[string]string{"Authorization": "Bearer s3cret"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{HeaderAccessCode: "wrong"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{HeaderAccessCode: "s3cret-longer"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, nil).Code)
}

func TestCodeGate_EmptyCodeRejectsEverything(t *testing.T) {
	h := (&CodeGate{}).Handler(okHandler())

	assert.Equal(t, http.StatusUnauthorized, serve(h, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{HeaderAccessCode: ""}).Code)
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*fbauth.Token, error) {
	switch idToken {
	case "good":
		return &fbauth.Token{UID: "user-1"}, nil
	case "no-uid":
		return &fbauth.Token{}, nil
	}
	return nil, errors.New("token expired")
}

func TestFirebaseGate(t *testing.T) {
	h := (&FirebaseGate{Verifier: fakeVerifier{}}).Handler(okHandler())

	rec := serve(h, map[string]string{"Authorization": "Bearer good"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Header().Get("X-UID"))

	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{"Authorization": "Bearer bad"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{"Authorization": "Bearer no-uid"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, map[string]string{"Authorization": "Basic abc"}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, nil).Code)

	uninit := (&FirebaseGate{}).Handler(okHandler())
	assert.Equal(t, http.StatusServiceUnavailable, serve(uninit, nil).Code)
}

func TestOpenGate(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(OpenGate{}.Handler(okHandler()), nil).Code)
}

func TestCORSAndRecover(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	h := CORS("https://app.example.com")(Recover(panicky))

	rec := serve(h, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/invoices", nil)
	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Contains(t, pre.Header().Get("Access-Control-Allow-Headers"), HeaderAccessCode)
}

func TestRequestLogSetsRequestID(t *testing.T) {
	h := RequestLog(nil)(okHandler())

	rec := serve(h, nil)
	assert.Len(t, rec.Header().Get("X-Request-Id"), 36)

	rec = serve(h, map[string]string{"X-Request-Id": "abc"})
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))
}
