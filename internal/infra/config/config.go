// internal/infra/config/config.go
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Auth modes understood by the access gate.
const (
	AuthModeCode     = "code"
	AuthModeFirebase = "firebase"
	AuthModeNone     = "none"
)

// Config holds the environment-driven settings shared by cmd/api and cmd/migrate.
type Config struct {
	Port                     string
	GCPCreds                 string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string

	// Access gate
	AuthMode          string
	AccessCode        string
	CORSAllowedOrigin string

	LogLevel  string
	LogFormat string

	// Migration report mail (optional)
	SendGridAPIKey    string
	SendGridFrom      string
	MigrationReportTo string

	// Legacy Postgres source for the migration (optional).
	// LegacyDatabaseSecret is a Secret Manager secret id holding the DSN.
	LegacyDatabaseURL    string
	LegacyDatabaseSecret string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	defaultProject := getenvDefault("GCP_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT"))

	cfg := &Config{
		Port:                     getenvDefault("PORT", "8080"),
		GCPCreds:                 os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		AuthMode:          strings.ToLower(getenvDefault("AUTH_MODE", AuthModeCode)),
		AccessCode:        os.Getenv("ACCESS_CODE"),
		CORSAllowedOrigin: getenvDefault("CORS_ALLOWED_ORIGIN", "http://localhost:5173"),

		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "json"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:      os.Getenv("SENDGRID_FROM"),
		MigrationReportTo: os.Getenv("MIGRATION_REPORT_TO"),

		LegacyDatabaseURL:    os.Getenv("LEGACY_DATABASE_URL"),
		LegacyDatabaseSecret: os.Getenv("LEGACY_DATABASE_SECRET"),
	}

	return cfg
}

// CredentialsFile returns the service account path, falling back to
// GOOGLE_APPLICATION_CREDENTIALS.
func (c *Config) CredentialsFile() string {
	if f := strings.TrimSpace(c.FirestoreCredentialsFile); f != "" {
		return f
	}
	return strings.TrimSpace(c.GCPCreds)
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
