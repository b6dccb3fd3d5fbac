// Package observability provides a metrics extension for the ledger that
// records event counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                  = (*MetricsExtension)(nil)
	_ plugin.OnInit                  = (*MetricsExtension)(nil)
	_ plugin.OnPriceOverridden       = (*MetricsExtension)(nil)
	_ plugin.OnPaymentRecorded       = (*MetricsExtension)(nil)
	_ plugin.OnCalculationImpossible = (*MetricsExtension)(nil)
	_ plugin.OnInvalidLedgerState    = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger metrics.
// Register it as a ledger plugin to track them automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Ledger metrics
	PriceOverrides   Counter
	PaymentsRecorded Counter
	RefundsRecorded  Counter
	PaymentReceived  Histogram
	BatchSize        Histogram

	// Failure metrics
	CalculationImpossible Counter
	InvalidLedgerState    Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Ledger metrics
		PriceOverrides:   factory.Counter("ledger.price.overrides"),
		PaymentsRecorded: factory.Counter("ledger.payment.recorded"),
		RefundsRecorded:  factory.Counter("ledger.payment.refunded"),
		PaymentReceived:  factory.Histogram("ledger.payment.received_cents"),
		BatchSize:        factory.Histogram("ledger.batch.size"),

		// Failure metrics
		CalculationImpossible: factory.Counter("ledger.price.calculation_impossible"),
		InvalidLedgerState:    factory.Counter("ledger.invalid_state"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnPriceOverridden implements plugin.OnPriceOverridden.
func (m *MetricsExtension) OnPriceOverridden(_ context.Context, events []*payment.Event) error {
	m.PriceOverrides.Add(float64(len(events)))
	m.BatchSize.Observe(float64(len(events)))
	return nil
}

// OnPaymentRecorded implements plugin.OnPaymentRecorded.
func (m *MetricsExtension) OnPaymentRecorded(_ context.Context, events []*payment.Event) error {
	for _, e := range events {
		if e.Value.IsPositive() {
			m.RefundsRecorded.Inc()
			continue
		}
		m.PaymentsRecorded.Inc()
		m.PaymentReceived.Observe(float64(e.Value.Abs()))
	}
	m.BatchSize.Observe(float64(len(events)))
	return nil
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnCalculationImpossible implements plugin.OnCalculationImpossible.
func (m *MetricsExtension) OnCalculationImpossible(_ context.Context, _ participant.Ref, _ *formula.CalculationImpossibleError) error {
	m.CalculationImpossible.Inc()
	return nil
}

// OnInvalidLedgerState implements plugin.OnInvalidLedgerState.
func (m *MetricsExtension) OnInvalidLedgerState(_ context.Context, _ []id.ParticipantID, _ error) error {
	m.InvalidLedgerState.Inc()
	return nil
}
