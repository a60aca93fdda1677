// internal/adapters/out/db/export_source_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/lib/pq"

	"invoicer/internal/application/migration"
)

// ExportSourcePG reads legacy rows straight from the Supabase Postgres
// database instead of JSON files. An export name maps to a table: the file
// stem by default ("invoices.json" -> invoices), or Tables[name] when set.
type ExportSourcePG struct {
	DB     *sql.DB
	Schema string
	Tables map[string]string
}

var _ migration.Source = (*ExportSourcePG)(nil)

// DefaultTables maps the default plan's export names to the legacy tables.
func DefaultTables() map[string]string {
	return map[string]string{
		"invoices.json": "invoices",
		"items.json":    "invoice_items",
	}
}

func NewExportSourcePG(db *sql.DB, schema string) *ExportSourcePG {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = "public"
	}
	return &ExportSourcePG{DB: db, Schema: schema, Tables: DefaultTables()}
}

func (s *ExportSourcePG) String() string { return "postgres:" + s.Schema }

// TableFor resolves the table backing an export name.
func (s *ExportSourcePG) TableFor(name string) string {
	name = strings.TrimSpace(name)
	if t, ok := s.Tables[name]; ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	return strings.TrimSuffix(path.Base(name), path.Ext(name))
}

// Load returns every row of the table as a record, in primary-key order
// when the table has an id column. A missing table is ErrSourceNotFound.
func (s *ExportSourcePG) Load(ctx context.Context, name string) ([]migration.Record, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("db: legacy database is nil")
	}
	table := s.TableFor(name)
	if table == "" {
		return nil, fmt.Errorf("%w: no table for %q", migration.ErrSourceNotFound, name)
	}

	exists, hasID, err := s.inspect(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: table %s.%s", migration.ErrSourceNotFound, s.Schema, table)
	}

	qualified := pq.QuoteIdentifier(s.Schema) + "." + pq.QuoteIdentifier(table)
	q := "SELECT row_to_json(t)::text FROM " + qualified + " t"
	if hasID {
		q += " ORDER BY t.id"
	}

	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("db: select %s: %w", qualified, describe(err))
	}
	defer rows.Close()

	var out []migration.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("db: scan %s: %w", qualified, err)
		}
		recs, err := migration.ParseRecords(strings.NewReader("[" + raw + "]"))
		if err != nil {
			return nil, fmt.Errorf("db: %s row %d: %w", qualified, len(out), err)
		}
		out = append(out, recs...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db: iterate %s: %w", qualified, describe(err))
	}
	return out, nil
}

func (s *ExportSourcePG) inspect(ctx context.Context, table string) (exists bool, hasID bool, err error) {
	const q = `
SELECT
  EXISTS (SELECT 1 FROM information_schema.tables  WHERE table_schema = $1 AND table_name = $2),
  EXISTS (SELECT 1 FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 AND column_name = 'id')
`
	if err := s.DB.QueryRowContext(ctx, q, s.Schema, table).Scan(&exists, &hasID); err != nil {
		return false, false, fmt.Errorf("db: inspect %s.%s: %w", s.Schema, table, describe(err))
	}
	return exists, hasID, nil
}

// describe adds the SQLSTATE when the error carries one.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate %s)", err, pqErr.Code)
	}
	return err
}
