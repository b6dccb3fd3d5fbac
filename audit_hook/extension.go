// Package audithook bridges ledger events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on a
// particular audit store. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                  = (*Extension)(nil)
	_ plugin.OnPriceOverridden       = (*Extension)(nil)
	_ plugin.OnPaymentRecorded       = (*Extension)(nil)
	_ plugin.OnCalculationImpossible = (*Extension)(nil)
	_ plugin.OnInvalidLedgerState    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges ledger events to an audit trail backend.
type Extension struct {
	recorder Recorder
	logger   *slog.Logger

	only       map[string]struct{} // nil = every action
	skip       map[string]struct{}
	categories map[string]struct{} // nil = every category
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnPriceOverridden implements plugin.OnPriceOverridden.
func (e *Extension) OnPriceOverridden(ctx context.Context, events []*payment.Event) error {
	for _, evt := range events {
		if err := e.record(ctx, ActionPriceOverridden, SeverityInfo, OutcomeSuccess,
			ResourcePaymentEvent, evt.ID.String(), CategoryPricing, nil,
			"participant_id", evt.ParticipantID.String(),
			"value_cents", evt.Value.Int64(),
			"description", evt.Description,
			"created_by", evt.CreatedBy.String(),
		); err != nil {
			return err
		}
	}
	return nil
}

// OnPaymentRecorded implements plugin.OnPaymentRecorded. Positive values
// are refunds.
func (e *Extension) OnPaymentRecorded(ctx context.Context, events []*payment.Event) error {
	for _, evt := range events {
		action := ActionPaymentRecorded
		if evt.Value.IsPositive() {
			action = ActionPaymentRefunded
		}
		if err := e.record(ctx, action, SeverityInfo, OutcomeSuccess,
			ResourcePaymentEvent, evt.ID.String(), CategoryPayment, nil,
			"participant_id", evt.ParticipantID.String(),
			"value_cents", evt.Value.Int64(),
			"description", evt.Description,
			"created_by", evt.CreatedBy.String(),
		); err != nil {
			return err
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnCalculationImpossible implements plugin.OnCalculationImpossible.
func (e *Extension) OnCalculationImpossible(ctx context.Context, subject participant.Ref, cause *formula.CalculationImpossibleError) error {
	return e.record(ctx, ActionCalculationImpossible, SeverityWarning, OutcomeFailure,
		ResourceSubject, subject.ID.String(), CategoryPricing, cause,
		"subject_kind", string(subject.Kind),
		"symbol", cause.Symbol,
		"variable_id", cause.VariableID.String(),
		"event_id", cause.EventID.String(),
	)
}

// OnInvalidLedgerState implements plugin.OnInvalidLedgerState.
func (e *Extension) OnInvalidLedgerState(ctx context.Context, participantIDs []id.ParticipantID, ledgerErr error) error {
	ids := make([]string, len(participantIDs))
	for i, pid := range participantIDs {
		ids[i] = pid.String()
	}
	return e.record(ctx, ActionInvalidLedgerState, SeverityCritical, OutcomeFailure,
		ResourceLedger, "", CategoryIntegrity, ledgerErr,
		"participant_ids", strings.Join(ids, ","),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if !e.allows(action, category) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
