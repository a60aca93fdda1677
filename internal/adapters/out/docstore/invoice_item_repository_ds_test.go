package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicer/internal/adapters/out/memory"
	invdom "invoicer/internal/domain/invoice"
)

func TestItemRepository_CreateComputesAmount(t *testing.T) {
	ctx := context.Background()
	repo := NewInvoiceItemRepositoryDS(memory.NewStore())
	repo.Now = func() time.Time { return time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC) }

	id, err := repo.CreateInvoiceItem(ctx, invdom.InvoiceItem{
		InvoiceID:   "inv1",
		Description: "Consulting",
		Quantity:    3,
		UnitPrice:   33.335,
		Amount:      1, // ignored
		ItemDate:    "2024-02-01",
	})
	require.NoError(t, err)

	items, err := repo.GetInvoiceItems(ctx, "inv1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, 100.01, items[0].Amount)
	assert.Equal(t, "2024-02-01", items[0].ItemDate)
	assert.Equal(t, time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC), items[0].CreatedAt)
}

func TestItemRepository_CreateValidates(t *testing.T) {
	repo := NewInvoiceItemRepositoryDS(memory.NewStore())
	ctx := context.Background()

	_, err := repo.CreateInvoiceItem(ctx, invdom.InvoiceItem{Description: "x"})
	assert.ErrorIs(t, err, invdom.ErrInvalidInvoiceID)

	_, err = repo.CreateInvoiceItem(ctx, invdom.InvoiceItem{InvoiceID: "a", Description: "x", Quantity: -1})
	assert.ErrorIs(t, err, invdom.ErrInvalidQuantity)

	_, err = repo.CreateInvoiceItem(ctx, invdom.InvoiceItem{InvoiceID: "a", Description: "x", ItemDate: "02/01/2024"})
	assert.ErrorIs(t, err, invdom.ErrInvalidDate)
}

func TestItemRepository_DeleteInvoiceItemsOnlyTouchesThatInvoice(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := NewInvoiceItemRepositoryDS(store)

	for _, inv := range []string{"a", "a", "b"} {
		_, err := repo.CreateInvoiceItem(ctx, invdom.InvoiceItem{InvoiceID: inv, Description: "line", Quantity: 1, UnitPrice: 1})
		require.NoError(t, err)
	}

	n, err := repo.DeleteInvoiceItems(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := repo.GetInvoiceItems(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Equal(t, 1, store.Count(invdom.CollectionItems))

	n, err = repo.DeleteInvoiceItems(ctx, "a")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestItemRepository_EmptyInvoiceID(t *testing.T) {
	repo := NewInvoiceItemRepositoryDS(memory.NewStore())

	items, err := repo.GetInvoiceItems(context.Background(), " ")
	require.NoError(t, err)
	assert.Empty(t, items)
}
