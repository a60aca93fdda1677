package migration_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/adapters/out/memory"
	"invoicer/internal/application/migration"
	"invoicer/internal/domain/docstore"
	invdom "invoicer/internal/domain/invoice"
)

// mapSource serves exports from JSON strings keyed by file name.
type mapSource map[string]string

func (m mapSource) String() string { return "test" }

func (m mapSource) Load(_ context.Context, name string) ([]migration.Record, error) {
	raw, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", migration.ErrSourceNotFound, name)
	}
	return migration.ParseRecords(strings.NewReader(raw))
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newPipeline(store *memory.Store, src migration.Source) *migration.Pipeline {
	p := migration.NewPipeline(store, src, nil)
	p.Now = func() time.Time { return fixedNow }
	return p
}

const invoicesJSON = `[
  {"id": 1, "invoice_number": "INV-001", "client_name": "ACME", "total": 100, "created_at": "2023-01-01T00:00:00Z", "updated_at": "2023-01-02T00:00:00Z"},
  {"id": "2", "invoice_number": "INV-002", "client_name": "Globex", "total": 50.5, "created_at": "2023-02-01 10:00:00+00"}
]`

const itemsJSON = `[
  {"id": 10, "invoice_id": "1", "description": "Design", "quantity": 2, "unit_price": 50, "amount": 100},
  {"id": 11, "invoice_id": "2", "description": "Hosting", "quantity": 1, "unit_price": 50.5, "amount": 50.5}
]`

func TestRun_UpsertsUnderLegacyIDs(t *testing.T) {
	store := memory.NewStore()
	p := newPipeline(store, mapSource{"invoices.json": invoicesJSON, "items.json": itemsJSON})

	rep, err := p.Run(context.Background(), migration.DefaultPlan())
	require.NoError(t, err)
	require.Len(t, rep.Steps, 2)
	assert.Equal(t, 4, rep.Written())
	assert.Equal(t, 2, rep.Steps[0].Upserted)
	assert.Zero(t, rep.Steps[0].Allocated)

	doc, err := store.Get(context.Background(), invdom.CollectionInvoices, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", doc.Data[migration.FieldLegacyID])
	assert.Equal(t, "INV-001", doc.Data["invoice_number"])
	assert.Equal(t, int64(100), doc.Data["total"])
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), doc.Data[migration.FieldCreatedAt])
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), doc.Data[migration.FieldUpdatedAt])

	doc, err = store.Get(context.Background(), invdom.CollectionInvoices, "2")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 2, 1, 10, 0, 0, 0, time.UTC), doc.Data[migration.FieldCreatedAt])
	// updated_at absent: migration time
	assert.Equal(t, fixedNow, doc.Data[migration.FieldUpdatedAt])

	item, err := store.Get(context.Background(), invdom.CollectionItems, "10")
	require.NoError(t, err)
	assert.Equal(t, "10", item.Data[migration.FieldLegacyID])
	assert.Equal(t, "1", item.Data["invoice_id"])
	assert.NotContains(t, item.Data, migration.FieldCreatedAt)
}

func TestRun_IsIdempotentWhenEveryRecordHasAnID(t *testing.T) {
	store := memory.NewStore()
	p := newPipeline(store, mapSource{"invoices.json": invoicesJSON, "items.json": itemsJSON})

	_, err := p.Run(context.Background(), migration.DefaultPlan())
	require.NoError(t, err)
	first, err := store.Get(context.Background(), invdom.CollectionInvoices, "1")
	require.NoError(t, err)

	_, err = p.Run(context.Background(), migration.DefaultPlan())
	require.NoError(t, err)

	assert.Equal(t, 2, store.Count(invdom.CollectionInvoices))
	assert.Equal(t, 2, store.Count(invdom.CollectionItems))
	second, err := store.Get(context.Background(), invdom.CollectionInvoices, "1")
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
}

func TestRun_DuplicatesRecordsWithoutIDs(t *testing.T) {
	store := memory.NewStore()
	src := mapSource{
		"items.json": `[{"invoice_id": "1", "description": "a"}, {"invoice_id": "1", "description": "b"}, {"id": null, "description": "c"}]`,
	}
	p := newPipeline(store, src)

	rep, err := p.Run(context.Background(), migration.DefaultPlan())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Steps[1].Allocated)

	_, err = p.Run(context.Background(), migration.DefaultPlan())
	require.NoError(t, err)
	assert.Equal(t, 6, store.Count(invdom.CollectionItems))

	docs, err := store.List(context.Background(), invdom.CollectionItems, docstore.Query{})
	require.NoError(t, err)
	for _, d := range docs {
		assert.NotContains(t, d.Data, migration.FieldLegacyID)
		assert.Len(t, d.ID, 20)
	}
}

func TestRun_SkipsMissingExportAndContinues(t *testing.T) {
	store := memory.NewStore()
	p := newPipeline(store, mapSource{"items.json": itemsJSON})

	rep, err := p.Run(context.Background(), migration.DefaultPlan())
	require.NoError(t, err)
	require.Len(t, rep.Steps, 2)
	assert.True(t, rep.Steps[0].Skipped)
	assert.Zero(t, store.Count(invdom.CollectionInvoices))
	assert.Equal(t, 2, store.Count(invdom.CollectionItems))
}

func TestRun_WriteFailureAbortsAndKeepsEarlierWrites(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("deadline exceeded")
	store.FailPut = func(col, id string) error {
		if col == invdom.CollectionInvoices && id == "2" {
			return boom
		}
		return nil
	}
	p := newPipeline(store, mapSource{"invoices.json": invoicesJSON, "items.json": itemsJSON})

	rep, err := p.Run(context.Background(), migration.DefaultPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, rep.Err, boom)
	assert.Contains(t, err.Error(), "invoices.json -> invoices")

	// items never started
	require.Len(t, rep.Steps, 1)
	assert.Equal(t, 1, rep.Steps[0].Written)
	assert.Equal(t, 1, store.Count(invdom.CollectionInvoices))
	assert.Zero(t, store.Count(invdom.CollectionItems))
}

func TestRun_MalformedTimestampAborts(t *testing.T) {
	store := memory.NewStore()
	p := newPipeline(store, mapSource{
		"invoices.json": `[{"id": 1, "created_at": "yesterday"}]`,
		"items.json":    itemsJSON,
	})

	_, err := p.Run(context.Background(), migration.DefaultPlan())
	require.Error(t, err)
	assert.ErrorIs(t, err, migration.ErrMalformedExport)
	assert.Zero(t, store.Count(invdom.CollectionInvoices))
	assert.Zero(t, store.Count(invdom.CollectionItems))
}

func TestRun_MalformedFileAborts(t *testing.T) {
	p := newPipeline(memory.NewStore(), mapSource{"invoices.json": `{"not": "an array"}`})

	_, err := p.Run(context.Background(), migration.DefaultPlan())
	assert.ErrorIs(t, err, migration.ErrMalformedExport)
}

func TestRun_ConcurrentWritesWithinACollection(t *testing.T) {
	var b strings.Builder
	b.WriteString("[")
	for i := 1; i <= 200; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id": %d, "created_at": "2023-01-01T00:00:00Z"}`, i)
	}
	b.WriteString("]")

	store := memory.NewStore()
	p := newPipeline(store, mapSource{"invoices.json": b.String()})
	p.Concurrency = 8

	rep, err := p.Run(context.Background(), migration.DefaultPlan())
	require.NoError(t, err)
	assert.Equal(t, 200, rep.Steps[0].Upserted)
	assert.Equal(t, 200, store.Count(invdom.CollectionInvoices))
}

func TestRun_ConcurrentFailureIsReported(t *testing.T) {
	store := memory.NewStore()
	boom := errors.New("unavailable")
	store.FailPut = func(_, id string) error {
		if id == "2" {
			return boom
		}
		return nil
	}
	p := newPipeline(store, mapSource{"invoices.json": invoicesJSON, "items.json": itemsJSON})
	p.Concurrency = 4

	rep, err := p.Run(context.Background(), migration.DefaultPlan())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rep.Steps, 1)
	assert.Zero(t, store.Count(invdom.CollectionItems))
}

func TestRun_StopsWhenContextIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := memory.NewStore()
	p := newPipeline(store, mapSource{"invoices.json": invoicesJSON})

	_, err := p.Run(ctx, migration.DefaultPlan())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.Count(invdom.CollectionInvoices))
}

func TestRun_RejectsEmptyPlan(t *testing.T) {
	p := newPipeline(memory.NewStore(), mapSource{})

	rep, err := p.Run(context.Background(), migration.Plan{})
	assert.ErrorIs(t, err, migration.ErrInvalidPlan)
	assert.ErrorIs(t, rep.Err, migration.ErrInvalidPlan)
}

func TestRun_CustomTransformOverridesName(t *testing.T) {
	store := memory.NewStore()
	p := newPipeline(store, mapSource{"clients.json": `[{"id": "c1", "name": "acme"}]`})

	upper := func(rec migration.Record, _ time.Time) (map[string]any, error) {
		doc := rec.Normalized()
		doc["name"] = strings.ToUpper(doc["name"].(string))
		return doc, nil
	}
	_, err := p.Run(context.Background(), migration.Plan{
		{File: "clients.json", Collection: "clients", TransformName: "invoice", Transform: upper},
	})
	require.NoError(t, err)

	doc, err := store.Get(context.Background(), "clients", "c1")
	require.NoError(t, err)
	assert.Equal(t, "ACME", doc.Data["name"])
	assert.NotContains(t, doc.Data, migration.FieldCreatedAt)
}
