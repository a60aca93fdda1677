package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// DB is the read-only connection to the legacy (Supabase) Postgres database.
type DB struct {
	Client *sql.DB
}

// NewConnection opens the legacy database from a DSN or postgres:// URL.
func NewConnection(ctx context.Context, log *zap.Logger, dsn string) (*DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("legacy database dsn is empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	// one reader at a time; the migration never fans out reads
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	log.Info("[db] connected to legacy PostgreSQL")
	return &DB{Client: db}, nil
}

// Close closes the pool.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
