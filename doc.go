// Package ledger prices event participants from configurable formulas and
// tracks what they paid in an append-only payment ledger.
//
// Ledger is designed as a library, not a service. It provides:
//
//   - Itemized price tags computed from custom-field formulas
//   - Per-event variables with global defaults
//   - Manual price overrides and payments as immutable ledger events
//   - Payment status, to-pay amounts and event-wide summaries
//   - Advisory amount suggestions from prior ledger entries
//   - Audit and metrics plugins
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/campreg/ledger"
//	    "github.com/campreg/ledger/store/sqlite"
//	)
//
//	store, err := sqlite.Open("file:ledger.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	l := ledger.New(store, ledger.WithCatalog(variables))
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Attributes carry a formula over the field's selection (value) and event
// variables:
//
//	fee := &attribute.Attribute{
//	    Name:    "Camp Fee",
//	    Kind:    attribute.KindNumber,
//	    Formula: "5000 + 20*nights",
//	    Usage:   attribute.Usage{Participant: true},
//	}
//
// A variable without an event value or default makes the price impossible
// to compute. Reads report this as ErrCalculationImpossible and summaries
// mark their totals unknown instead of dropping the participant.
//
// Ledger writes never evaluate formulas:
//
//	l.SetOverridePrice(ctx, []ledger.ID{p.ID}, 4000, "discount", admin)
//	l.RecordPayment(ctx, p.ID, 5100, "bank transfer", admin)
//
// Payments are stored negated, so ToPay is CurrentPrice plus PaidSum and a
// negative ToPay is an overpayment.
//
// All monetary calculations use integer cents. Major units appear only at
// display boundaries through GetPrice and GetToPay.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	part_01h2xcejqtf2nbrexx3vqjhp41  // Participant ID
//	pev_01h455vb4pex5vsknk084sn02q   // Payment ledger event ID
package ledger
