package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/campreg/ledger"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/payment"
	ledgerstore "github.com/campreg/ledger/store"
)

// compile-time interface check
var _ ledgerstore.Store = (*Store)(nil)

// Store is an in-memory ledger store for tests and single-process use.
type Store struct {
	mu sync.RWMutex

	// Ledger events in insertion order
	events []payment.Event
	ids    map[string]struct{}

	closed bool
}

func New() *Store {
	return &Store{
		events: make([]payment.Event, 0),
		ids:    make(map[string]struct{}),
	}
}

// Ledger Store implementation
func (s *Store) AppendEvents(_ context.Context, events []*payment.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ledger.ErrStoreClosed
	}

	// Validate the whole batch before touching state.
	batch := make(map[string]struct{}, len(events))
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
		key := e.ID.String()
		if _, exists := s.ids[key]; exists {
			return fmt.Errorf("%w: event %s", ledger.ErrAlreadyExists, key)
		}
		if _, exists := batch[key]; exists {
			return fmt.Errorf("%w: event %s", ledger.ErrAlreadyExists, key)
		}
		batch[key] = struct{}{}
	}

	for _, e := range events {
		s.events = append(s.events, *e)
		s.ids[e.ID.String()] = struct{}{}
	}
	return nil
}

func (s *Store) ListEvents(_ context.Context, participantIDs []id.ParticipantID) (payment.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ledger.ErrStoreClosed
	}

	wanted := make(map[string]struct{}, len(participantIDs))
	for _, pid := range participantIDs {
		wanted[pid.String()] = struct{}{}
	}

	result := make(payment.History, 0)
	for i := range s.events {
		e := s.events[i]
		if _, ok := wanted[e.ParticipantID.String()]; !ok {
			continue
		}
		if !e.Kind.Valid() {
			return nil, fmt.Errorf("%w: event %s has kind %q", payment.ErrInvalidLedgerState, e.ID, e.Kind)
		}
		result = append(result, &e)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Inject appends an event without validation. It exists to simulate
// corrupted rows in tests.
func (s *Store) Inject(e payment.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	s.ids[e.ID.String()] = struct{}{}
}
