// Package plugin provides an extensible plugin system for the ledger.
// Plugins can hook into lifecycle and ledger events to extend functionality.
package plugin

import (
	"context"

	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/payment"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnPriceOverridden is called after a batch of price overrides is appended.
type OnPriceOverridden interface {
	Plugin
	OnPriceOverridden(ctx context.Context, events []*payment.Event) error
}

// OnPaymentRecorded is called after a batch of payments is appended.
type OnPaymentRecorded interface {
	Plugin
	OnPaymentRecorded(ctx context.Context, events []*payment.Event) error
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnCalculationImpossible is called when a subject's price cannot be
// computed because a variable is unresolved.
type OnCalculationImpossible interface {
	Plugin
	OnCalculationImpossible(ctx context.Context, subject participant.Ref, cause *formula.CalculationImpossibleError) error
}

// OnInvalidLedgerState is called when stored events cannot be decoded.
type OnInvalidLedgerState interface {
	Plugin
	OnInvalidLedgerState(ctx context.Context, participantIDs []id.ParticipantID, err error) error
}
