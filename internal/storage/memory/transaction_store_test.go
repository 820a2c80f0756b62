package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionStore_InsertAndList(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	txs := []*domain.TransactionRecord{
		{CustomerID: "C2", TicketID: "T2", Date: date(2024, 3, 2), Amount: 20, Channel: domain.ChannelWeb},
		{CustomerID: "C1", TicketID: "T1", Date: date(2024, 3, 1), Amount: 10, Channel: domain.ChannelPhysical},
		{CustomerID: "C1", TicketID: "T3", Date: date(2024, 3, 2), Amount: 5, Channel: domain.ChannelPhysical},
	}
	if err := store.InsertBulk(ctx, txs); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.List(ctx, domain.TransactionFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(got))
	}

	// Ordered by (date, customer_id, ticket_id)
	wantTickets := []string{"T1", "T3", "T2"}
	for i, want := range wantTickets {
		if got[i].TicketID != want {
			t.Errorf("position %d: got ticket %s, want %s", i, got[i].TicketID, want)
		}
	}
}

func TestTransactionStore_ListFiltered(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.TransactionRecord{
		{CustomerID: "C1", Date: date(2024, 1, 15), Amount: 10, Channel: domain.ChannelWeb},
		{CustomerID: "C1", Date: date(2024, 2, 15), Amount: 10, Channel: domain.ChannelPhysical},
		{CustomerID: "C2", Date: date(2024, 2, 20), Amount: 10, Channel: domain.ChannelWeb},
		{CustomerID: "C3", Date: date(2024, 3, 1), Amount: 10, Channel: domain.ChannelWeb},
	})

	got, err := store.List(ctx, domain.TransactionFilter{
		Channel: domain.ChannelWeb,
		From:    date(2024, 2, 1),
		To:      date(2024, 3, 1),
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].CustomerID != "C2" || got[1].CustomerID != "C3" {
		t.Errorf("unexpected customers: %s, %s", got[0].CustomerID, got[1].CustomerID)
	}
}

func TestTransactionStore_InvalidBatchRejected(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.TransactionRecord{
		{CustomerID: "C1", Date: date(2024, 1, 1), Amount: 10, Channel: domain.ChannelWeb},
		{CustomerID: "C2", Date: date(2024, 1, 1), Amount: 10, Channel: domain.Channel("phone")},
	})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	got, _ := store.List(ctx, domain.TransactionFilter{})
	if len(got) != 0 {
		t.Errorf("expected no partial insert, got %d rows", len(got))
	}
}

func TestTransactionStore_AnonymousAndRefundsAccepted(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.TransactionRecord{
		{CustomerID: domain.AnonymousCustomerID, Date: date(2024, 1, 1), Amount: 10, Channel: domain.ChannelPhysical},
		{CustomerID: "C1", Date: date(2024, 1, 1), Amount: -10, Channel: domain.ChannelPhysical},
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
}

func TestTransactionStore_ReturnsCopies(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	tx := &domain.TransactionRecord{CustomerID: "C1", Date: date(2024, 1, 1), Amount: 10, Channel: domain.ChannelWeb}
	_ = store.InsertBulk(ctx, []*domain.TransactionRecord{tx})
	tx.Amount = 999

	got, _ := store.List(ctx, domain.TransactionFilter{})
	if got[0].Amount != 10 {
		t.Errorf("stored record was mutated through caller pointer: %v", got[0].Amount)
	}
	got[0].Amount = 500

	again, _ := store.List(ctx, domain.TransactionFilter{})
	if again[0].Amount != 10 {
		t.Errorf("stored record was mutated through returned pointer: %v", again[0].Amount)
	}
}

func TestTransactionStore_ConcurrentAccess(t *testing.T) {
	store := NewTransactionStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.InsertBulk(ctx, []*domain.TransactionRecord{
				{CustomerID: "C1", Date: date(2024, 1, 1), Amount: 1, Channel: domain.ChannelWeb},
			})
		}()
		go func() {
			defer wg.Done()
			_, _ = store.List(ctx, domain.TransactionFilter{})
		}()
	}
	wg.Wait()

	got, _ := store.List(ctx, domain.TransactionFilter{})
	if len(got) != 50 {
		t.Errorf("expected 50 transactions, got %d", len(got))
	}
}
