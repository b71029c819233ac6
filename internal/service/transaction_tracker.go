package service

import (
	"context"
	"errors"
	"sync"

	"github.com/looplab/fsm"
)

// Live-transaction lifecycle states and events.
const (
	txStateActive = "active"
	txStateClosed = "closed"

	txEventMeter = "meter"
	txEventStop  = "stop"
)

// LiveTransaction is the in-memory context of an open charging transaction.
type LiveTransaction struct {
	TransactionID int64
	SessionID     int64
	ConnectorID   int64
	UserID        int64
	ChargePointID string

	machine *fsm.FSM
}

func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		txStateActive,
		fsm.Events{
			{Name: txEventMeter, Src: []string{txStateActive}, Dst: txStateActive},
			{Name: txEventStop, Src: []string{txStateActive}, Dst: txStateClosed},
		},
		fsm.Callbacks{},
	)
}

// TransactionTracker keeps live transaction contexts by protocol transaction
// id. Each entry carries a small lifecycle machine so a transaction can be
// stopped at most once even when frames race between connections.
type TransactionTracker struct {
	mu   sync.Mutex
	data map[int64]*LiveTransaction
}

// NewTransactionTracker returns initialized tracker.
func NewTransactionTracker() *TransactionTracker {
	return &TransactionTracker{
		data: make(map[int64]*LiveTransaction),
	}
}

// Start registers a freshly opened transaction.
func (t *TransactionTracker) Start(tx LiveTransaction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tx.machine = newLifecycle()
	t.data[tx.TransactionID] = &tx
}

// Get returns the live context for a transaction id.
func (t *TransactionTracker) Get(transactionID int64) (LiveTransaction, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tx, ok := t.data[transactionID]
	if !ok {
		return LiveTransaction{}, false
	}
	return *tx, true
}

// Meter records a meter reading event. Returns false when the transaction is
// not tracked or already closed.
func (t *TransactionTracker) Meter(ctx context.Context, transactionID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tx, ok := t.data[transactionID]
	if !ok {
		return false
	}
	// The meter event keeps the machine in active; the fsm reports that
	// self-loop as NoTransitionError, which is still a successful reading.
	err := tx.machine.Event(ctx, txEventMeter)
	if err == nil {
		return true
	}
	var noTransition fsm.NoTransitionError
	return errors.As(err, &noTransition)
}

// Stop transitions the transaction to closed and evicts it. Returns false when
// the transaction is unknown or was already stopped, so exactly one caller
// wins a double-stop race.
func (t *TransactionTracker) Stop(ctx context.Context, transactionID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	tx, ok := t.data[transactionID]
	if !ok {
		return false
	}
	if err := tx.machine.Event(ctx, txEventStop); err != nil {
		return false
	}
	delete(t.data, transactionID)
	return true
}

// Active returns the number of tracked open transactions.
func (t *TransactionTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.data)
}
