package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campreg/ledger"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/store"
	"github.com/campreg/ledger/store/memory"
	"github.com/campreg/ledger/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return memory.New() })
}

func TestInvalidKind(t *testing.T) {
	s := memory.New()
	p := id.NewParticipantID()
	e := storetest.NewEvent(p, payment.Kind(""), 100, time.Now())
	s.Inject(*e)

	storetest.ExpectInvalidLedgerState(t, s, p)
}

func TestReturnedEventsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	p := id.NewParticipantID()
	if err := s.AppendEvents(ctx, []*payment.Event{storetest.NewEvent(p, payment.KindPayment, -100, time.Now())}); err != nil {
		t.Fatal(err)
	}

	h, _ := s.ListEvents(ctx, []id.ParticipantID{p})
	h[0].Value = 999999

	h, _ = s.ListEvents(ctx, []id.ParticipantID{p})
	if h[0].Value != -100 {
		t.Errorf("stored event was mutated: %d", h[0].Value)
	}
}

func TestClosed(t *testing.T) {
	s := memory.New()
	_ = s.Close()
	if err := s.Ping(context.Background()); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}
