package migration_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"invoicer/internal/application/migration"
)

func TestReport_Summary(t *testing.T) {
	rep := migration.Report{
		Source:    "scripts/export",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Steps: []migration.StepReport{
			{File: "invoices.json", Collection: "invoices", Skipped: true},
			{File: "items.json", Collection: "invoice_items", Read: 3, Written: 3, Upserted: 2, Allocated: 1},
		},
	}
	assert.True(t, rep.Succeeded())
	assert.Equal(t, 3, rep.Written())
	assert.Contains(t, rep.Subject(), "succeeded: 3 documents")

	s := rep.Summary()
	assert.Contains(t, s, "skipped (export not found)")
	assert.Contains(t, s, "upserted=2 allocated=1")
	assert.NotContains(t, s, "error:")

	rep.Err = errors.New("boom")
	assert.False(t, rep.Succeeded())
	assert.Contains(t, rep.Subject(), "FAILED")
	assert.Contains(t, rep.Summary(), "error: boom")
}
