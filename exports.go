package ledger

import (
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/price"
	"github.com/campreg/ledger/types"
)

// Re-export common types for convenience so users don't have to import the
// value packages.

// Cents is re-exported from types package.
type Cents = types.Cents

// Event is re-exported from payment package.
type Event = payment.Event

// Status is re-exported from payment package.
type Status = payment.Status

// PriceTag is re-exported from price package.
type PriceTag = price.Tag

// Re-export Cents helpers
var (
	FromMajor = types.FromMajor
	Sum       = types.Sum
)
