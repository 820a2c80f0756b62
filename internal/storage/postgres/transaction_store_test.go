package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

func TestTransactionStore_InsertBulkAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	txs := []*domain.TransactionRecord{
		{CustomerID: "C2", TicketID: "T2", Date: day(2024, 3, 2), Amount: 20.5, Channel: domain.ChannelWeb},
		{CustomerID: "C1", TicketID: "T1", Date: day(2024, 3, 1), Amount: 10.25, Channel: domain.ChannelPhysical},
		{CustomerID: "C1", Date: day(2024, 3, 2), Amount: -3, Channel: domain.ChannelPhysical},
	}
	require.NoError(t, store.InsertBulk(ctx, txs))

	got, err := store.List(ctx, domain.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "T1", got[0].TicketID)
	assert.Equal(t, 10.25, got[0].Amount)
	assert.Equal(t, day(2024, 3, 1), got[0].Date)
	assert.Equal(t, domain.ChannelPhysical, got[0].Channel)

	// Same day: C1 sorts before C2
	assert.Equal(t, "", got[1].TicketID)
	assert.Equal(t, -3.0, got[1].Amount)
	assert.Equal(t, "T2", got[2].TicketID)
}

func TestTransactionStore_ListFiltered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.TransactionRecord{
		{CustomerID: "C1", Date: day(2024, 1, 31), Amount: 1, Channel: domain.ChannelWeb},
		{CustomerID: "C1", Date: day(2024, 2, 1), Amount: 2, Channel: domain.ChannelWeb},
		{CustomerID: "C1", Date: day(2024, 2, 29), Amount: 3, Channel: domain.ChannelWeb},
		{CustomerID: "C1", Date: day(2024, 2, 15), Amount: 4, Channel: domain.ChannelPhysical},
		{CustomerID: "C1", Date: day(2024, 3, 1), Amount: 5, Channel: domain.ChannelWeb},
	}))

	got, err := store.List(ctx, domain.TransactionFilter{
		Channel: domain.ChannelWeb,
		From:    day(2024, 2, 1),
		To:      day(2024, 2, 29),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Amount)
	assert.Equal(t, 3.0, got[1].Amount)
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTransactionStore(pool)

	err := store.InsertBulk(context.Background(), []*domain.TransactionRecord{
		{CustomerID: "", Date: day(2024, 1, 1), Amount: 1, Channel: domain.ChannelWeb},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
