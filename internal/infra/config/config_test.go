package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "AUTH_MODE", "CORS_ALLOWED_ORIGIN", "LOG_LEVEL", "LOG_FORMAT", "FIRESTORE_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, AuthModeCode, cfg.AuthMode)
	assert.Equal(t, "http://localhost:5173", cfg.CORSAllowedOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.CredentialsFile())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_MODE", "Firebase")
	t.Setenv("ACCESS_CODE", "c0de")
	t.Setenv("GCP_PROJECT_ID", "proj")
	t.Setenv("FIRESTORE_PROJECT_ID", "")
	t.Setenv("FIREBASE_PROJECT_ID", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/adc.json")
	t.Setenv("FIRESTORE_CREDENTIALS_FILE", "")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, AuthModeFirebase, cfg.AuthMode)
	assert.Equal(t, "c0de", cfg.AccessCode)
	assert.Equal(t, "proj", cfg.FirestoreProjectID)
	assert.Equal(t, "proj", cfg.FirebaseProjectID)
	assert.Equal(t, "/adc.json", cfg.CredentialsFile())

	t.Setenv("FIRESTORE_CREDENTIALS_FILE", "key.json")
	assert.Equal(t, "key.json", Load().CredentialsFile())
}
