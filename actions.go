package ledger

import (
	"context"
	"fmt"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/types"
)

// ActionCode names an administrative ledger action.
type ActionCode string

const (
	// ActionPriceOverride sets a manual price on each participant.
	ActionPriceOverride ActionCode = "price_override"
	// ActionPayment records the same payment for each participant.
	ActionPayment ActionCode = "payment"
	// ActionPaymentDistribute splits one received total across participants.
	ActionPaymentDistribute ActionCode = "payment_distribute"
)

// ParseActionCode decodes an action code, rejecting unknown codes with
// ErrInvalidAction.
func ParseActionCode(s string) (ActionCode, error) {
	switch c := ActionCode(s); c {
	case ActionPriceOverride, ActionPayment, ActionPaymentDistribute:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// Action is one administrative request against the ledger.
type Action struct {
	Code         ActionCode
	Participants []*participant.Participant
	Cents        types.Cents
	Description  string
	Actor        id.UserID
}

// Apply dispatches an administrative action. Every action is committed as
// one atomic batch.
func (l *Ledger) Apply(ctx context.Context, a Action) ([]*payment.Event, error) {
	switch a.Code {
	case ActionPriceOverride:
		return l.SetOverridePrice(ctx, participantIDs(a.Participants), a.Cents, a.Description, a.Actor)
	case ActionPayment:
		return l.RecordPayments(ctx, participantIDs(a.Participants), a.Cents, a.Description, a.Actor)
	case ActionPaymentDistribute:
		return l.DistributePayment(ctx, a.Participants, a.Cents, a.Description, a.Actor)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, a.Code)
	}
}

// ──────────────────────────────────────────────────
// Ledger writes
// ──────────────────────────────────────────────────

// SetOverridePrice appends one price override per participant. It does not
// evaluate any formula.
func (l *Ledger) SetOverridePrice(ctx context.Context, participants []id.ParticipantID, cents types.Cents, description string, actor id.UserID) ([]*payment.Event, error) {
	values := make([]types.Cents, len(participants))
	for i := range values {
		values[i] = cents
	}
	return l.appendEvents(ctx, payment.KindPriceOverride, participants, values, description, actor)
}

// RecordPayment records cents received from one participant. Refunds pass
// negative cents.
func (l *Ledger) RecordPayment(ctx context.Context, participantID id.ParticipantID, cents types.Cents, description string, actor id.UserID) (*payment.Event, error) {
	events, err := l.RecordPayments(ctx, []id.ParticipantID{participantID}, cents, description, actor)
	if err != nil {
		return nil, err
	}
	return events[0], nil
}

// RecordPayments records cents received from each participant. The stored
// value is -cents.
func (l *Ledger) RecordPayments(ctx context.Context, participants []id.ParticipantID, cents types.Cents, description string, actor id.UserID) ([]*payment.Event, error) {
	values := make([]types.Cents, len(participants))
	for i := range values {
		values[i] = -cents
	}
	return l.appendEvents(ctx, payment.KindPayment, participants, values, description, actor)
}

// DistributePayment records one received total across participants.
//
// The total first covers each participant's outstanding amount in order.
// Participants whose price cannot be computed get nothing in that pass; the
// remainder is split evenly across them or, when every price is known,
// across all participants. A negative total is a refund and is split evenly
// across all participants. Each participant gets exactly one payment event.
func (l *Ledger) DistributePayment(ctx context.Context, participants []*participant.Participant, total types.Cents, description string, actor id.UserID) ([]*payment.Event, error) {
	if actor.IsNil() {
		return nil, ErrMissingActor
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	alloc := make([]types.Cents, len(participants))
	remaining := total
	var unknown []int

	for i, p := range participants {
		st, err := l.status(ctx, p)
		if err != nil {
			return nil, err
		}
		if st.Failed() {
			unknown = append(unknown, i)
			continue
		}
		if remaining <= 0 || !st.PriceSet || st.ToPay <= 0 {
			continue
		}
		share := min(remaining, st.ToPay)
		alloc[i] = share
		remaining -= share
	}

	if remaining != 0 {
		targets := unknown
		if len(targets) == 0 || remaining < 0 {
			targets = make([]int, len(participants))
			for i := range targets {
				targets[i] = i
			}
		}
		for j, share := range splitEvenly(remaining, len(targets)) {
			alloc[targets[j]] += share
		}
	}

	values := make([]types.Cents, len(alloc))
	for i, a := range alloc {
		values[i] = -a
	}

	l.logger.Debug("distributed payment",
		"total", total,
		"participants", len(participants),
		"unknown_prices", len(unknown),
	)

	return l.appendEvents(ctx, payment.KindPayment, participantIDs(participants), values, description, actor)
}

// ImportEvents appends events that already carry their author and
// timestamp, such as rows converted from a legacy export. The batch is
// validated as a whole and committed atomically. A rejected batch returns
// a MultiError listing every invalid event.
func (l *Ledger) ImportEvents(ctx context.Context, events []*payment.Event) error {
	if len(events) == 0 {
		return nil
	}
	var invalid MultiError
	for i, e := range events {
		if err := e.Validate(); err != nil {
			invalid.Add(fmt.Errorf("ledger: import event %d: %w", i, err))
		}
	}
	if invalid.HasErrors() {
		return invalid
	}

	if err := l.store.AppendEvents(ctx, events); err != nil {
		return fmt.Errorf("ledger: import events: %w", err)
	}

	var overrides, payments []*payment.Event
	for _, e := range events {
		if e.Kind == payment.KindPriceOverride {
			overrides = append(overrides, e)
		} else {
			payments = append(payments, e)
		}
	}
	if len(overrides) > 0 {
		l.plugins.EmitPriceOverridden(ctx, overrides)
	}
	if len(payments) > 0 {
		l.plugins.EmitPaymentRecorded(ctx, payments)
	}

	l.logger.Info("ledger events imported",
		"overrides", len(overrides),
		"payments", len(payments),
	)
	return nil
}

// appendEvents builds one event per participant and appends them as one
// batch.
func (l *Ledger) appendEvents(ctx context.Context, kind payment.Kind, participants []id.ParticipantID, values []types.Cents, description string, actor id.UserID) ([]*payment.Event, error) {
	if actor.IsNil() {
		return nil, ErrMissingActor
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	now := l.clock()
	seen := make(map[string]struct{}, len(participants))
	events := make([]*payment.Event, 0, len(participants))

	for i, pid := range participants {
		if !pid.Is(id.PrefixParticipant) {
			return nil, fmt.Errorf("%w: %w", ErrNotAParticipant, ValidationError{Field: "participants", Message: fmt.Sprintf("%q is not a participant id", pid.String())})
		}
		if _, dup := seen[pid.String()]; dup {
			return nil, ValidationError{Field: "participants", Message: fmt.Sprintf("participant %s given twice", pid)}
		}
		seen[pid.String()] = struct{}{}

		events = append(events, &payment.Event{
			ID:            id.NewPaymentEventID(),
			ParticipantID: pid,
			Kind:          kind,
			Value:         values[i],
			Description:   description,
			CreatedBy:     actor,
			CreatedAt:     now,
		})
	}

	if err := l.store.AppendEvents(ctx, events); err != nil {
		l.logger.Error("failed to append ledger events",
			"kind", kind,
			"count", len(events),
			"error", err,
		)
		return nil, fmt.Errorf("ledger: append %s events: %w", kind, err)
	}

	switch kind {
	case payment.KindPriceOverride:
		l.plugins.EmitPriceOverridden(ctx, events)
	case payment.KindPayment:
		l.plugins.EmitPaymentRecorded(ctx, events)
	}

	l.logger.Info("ledger events appended",
		"kind", kind,
		"count", len(events),
		"created_by", actor.String(),
	)

	return events, nil
}

func participantIDs(participants []*participant.Participant) []id.ParticipantID {
	out := make([]id.ParticipantID, 0, len(participants))
	for _, p := range participants {
		out = append(out, p.ID)
	}
	return out
}

// splitEvenly splits total into n integer shares. Remainder cents go to the
// first shares.
func splitEvenly(total types.Cents, n int) []types.Cents {
	sign := types.Cents(1)
	if total < 0 {
		sign, total = -1, -total
	}
	base := total / types.Cents(n)
	rem := int(total % types.Cents(n))

	shares := make([]types.Cents, n)
	for i := range shares {
		share := base
		if i < rem {
			share++
		}
		shares[i] = sign * share
	}
	return shares
}
