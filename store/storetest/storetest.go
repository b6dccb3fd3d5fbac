// Package storetest holds behavior tests shared by all store
// implementations.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/store"
	"github.com/campreg/ledger/types"
)

// Factory returns a fresh, migrated store.
type Factory func(t *testing.T) store.Store

// Run runs the shared store tests.
func Run(t *testing.T, newStore Factory) {
	t.Run("AppendAndList", func(t *testing.T) { testAppendAndList(t, newStore(t)) })
	t.Run("InsertionOrderTiebreak", func(t *testing.T) { testTiebreak(t, newStore(t)) })
	t.Run("AtomicBatch", func(t *testing.T) { testAtomicBatch(t, newStore(t)) })
	t.Run("EmptyQueries", func(t *testing.T) { testEmpty(t, newStore(t)) })
	t.Run("Ping", func(t *testing.T) {
		if err := newStore(t).Ping(context.Background()); err != nil {
			t.Errorf("Ping: %v", err)
		}
	})
}

// NewEvent builds a valid event.
func NewEvent(participantID id.ParticipantID, kind payment.Kind, value types.Cents, at time.Time) *payment.Event {
	return &payment.Event{
		ID:            id.NewPaymentEventID(),
		ParticipantID: participantID,
		Kind:          kind,
		Value:         value,
		Description:   string(kind),
		CreatedBy:     id.NewUserID(),
		CreatedAt:     at,
	}
}

func testAppendAndList(t *testing.T, s store.Store) {
	ctx := context.Background()
	a := id.NewParticipantID()
	b := id.NewParticipantID()
	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	first := NewEvent(a, payment.KindPriceOverride, 5100, base)
	second := NewEvent(a, payment.KindPayment, -5100, base.Add(time.Minute))
	other := NewEvent(b, payment.KindPayment, -100, base.Add(30*time.Second))

	if err := s.AppendEvents(ctx, []*payment.Event{second, other}); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}
	if err := s.AppendEvents(ctx, []*payment.Event{first}); err != nil {
		t.Fatalf("AppendEvents: %v", err)
	}

	h, err := s.ListEvents(ctx, []id.ParticipantID{a})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(h) != 2 {
		t.Fatalf("expected 2 events, got %d", len(h))
	}
	if h[0].ID != first.ID || h[1].ID != second.ID {
		t.Errorf("events not ordered by created_at: %s, %s", h[0].ID, h[1].ID)
	}

	got := h[1]
	if got.Kind != payment.KindPayment || got.Value != -5100 || got.ParticipantID != a ||
		got.CreatedBy != second.CreatedBy || got.Description != second.Description ||
		!got.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("round trip mismatch: %+v vs %+v", got, second)
	}

	both, err := s.ListEvents(ctx, []id.ParticipantID{a, b})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(both) != 3 || both[1].ID != other.ID {
		t.Errorf("expected merged history ordered by time, got %d events", len(both))
	}
}

func testTiebreak(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := id.NewParticipantID()
	at := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	var want []id.PaymentEventID
	for _, v := range []types.Cents{1000, 2000, 3000} {
		e := NewEvent(p, payment.KindPriceOverride, v, at)
		want = append(want, e.ID)
		if err := s.AppendEvents(ctx, []*payment.Event{e}); err != nil {
			t.Fatalf("AppendEvents: %v", err)
		}
	}

	h, err := s.ListEvents(ctx, []id.ParticipantID{p})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	for i := range want {
		if h[i].ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, h[i].ID, want[i])
		}
	}
	if latest := h.LatestOverride(); latest.Value != 3000 {
		t.Errorf("latest override: got %d, want 3000", latest.Value)
	}
}

func testAtomicBatch(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := id.NewParticipantID()
	now := time.Now().UTC()

	dup := NewEvent(p, payment.KindPayment, -100, now)
	batch := []*payment.Event{
		NewEvent(p, payment.KindPayment, -200, now),
		dup,
		dup,
	}
	if err := s.AppendEvents(ctx, batch); err == nil {
		t.Fatal("expected duplicate event id to fail the batch")
	}

	invalid := NewEvent(p, payment.KindPayment, -300, now)
	invalid.CreatedBy = id.Nil
	if err := s.AppendEvents(ctx, []*payment.Event{NewEvent(p, payment.KindPayment, -400, now), invalid}); err == nil {
		t.Fatal("expected invalid event to fail the batch")
	}

	h, err := s.ListEvents(ctx, []id.ParticipantID{p})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(h) != 0 {
		t.Errorf("failed batches must not persist anything, got %d events", len(h))
	}
}

func testEmpty(t *testing.T, s store.Store) {
	ctx := context.Background()
	if err := s.AppendEvents(ctx, nil); err != nil {
		t.Errorf("empty append: %v", err)
	}
	h, err := s.ListEvents(ctx, nil)
	if err != nil || len(h) != 0 {
		t.Errorf("empty list: got (%v, %v)", h, err)
	}
	h, err = s.ListEvents(ctx, []id.ParticipantID{id.NewParticipantID()})
	if err != nil || len(h) != 0 {
		t.Errorf("unknown participant: got (%v, %v)", h, err)
	}
}

// ExpectInvalidLedgerState asserts that listing p fails with
// payment.ErrInvalidLedgerState.
func ExpectInvalidLedgerState(t *testing.T, s store.Store, p id.ParticipantID) {
	t.Helper()
	_, err := s.ListEvents(context.Background(), []id.ParticipantID{p})
	if !errors.Is(err, payment.ErrInvalidLedgerState) {
		t.Errorf("expected ErrInvalidLedgerState, got %v", err)
	}
}
