package service

import (
	"context"
	"sync"
	"testing"
)

func TestTrackerStartAndGet(t *testing.T) {
	tracker := NewTransactionTracker()
	tracker.Start(LiveTransaction{TransactionID: 7, SessionID: 7, ConnectorID: 3, UserID: 1, ChargePointID: "CP-1"})

	tx, ok := tracker.Get(7)
	if !ok {
		t.Fatal("transaction not found")
	}
	if tx.ChargePointID != "CP-1" || tx.ConnectorID != 3 {
		t.Fatalf("unexpected context: %+v", tx)
	}
	if tracker.Active() != 1 {
		t.Fatalf("expected 1 active, got %d", tracker.Active())
	}
}

func TestTrackerMeter(t *testing.T) {
	tracker := NewTransactionTracker()
	tracker.Start(LiveTransaction{TransactionID: 7})

	// Readings repeat for the life of a transaction; every one must be
	// accepted while the transaction stays active.
	for i := 0; i < 3; i++ {
		if !tracker.Meter(context.Background(), 7) {
			t.Fatalf("meter %d on active transaction must succeed", i+1)
		}
	}
	if tracker.Meter(context.Background(), 8) {
		t.Fatal("meter on unknown transaction must fail")
	}
	if !tracker.Stop(context.Background(), 7) {
		t.Fatal("stop must succeed")
	}
	if tracker.Meter(context.Background(), 7) {
		t.Fatal("meter after stop must fail")
	}
}

func TestTrackerStopOnlyOnce(t *testing.T) {
	tracker := NewTransactionTracker()
	tracker.Start(LiveTransaction{TransactionID: 7})

	if !tracker.Stop(context.Background(), 7) {
		t.Fatal("first stop must win")
	}
	if tracker.Stop(context.Background(), 7) {
		t.Fatal("second stop must lose")
	}
	if _, ok := tracker.Get(7); ok {
		t.Fatal("stopped transaction must be evicted")
	}
	if tracker.Active() != 0 {
		t.Fatalf("expected 0 active, got %d", tracker.Active())
	}
}

func TestTrackerStopRace(t *testing.T) {
	tracker := NewTransactionTracker()
	tracker.Start(LiveTransaction{TransactionID: 7})

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- tracker.Stop(context.Background(), 7)
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("exactly one caller must win the stop race, got %d", won)
	}
}

func TestTrackerUnknownTransaction(t *testing.T) {
	tracker := NewTransactionTracker()
	if _, ok := tracker.Get(99); ok {
		t.Fatal("unknown transaction must not be found")
	}
	if tracker.Stop(context.Background(), 99) {
		t.Fatal("stop on unknown transaction must fail")
	}
}
