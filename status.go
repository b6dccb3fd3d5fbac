package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/price"
	"github.com/campreg/ledger/suggestion"
	"github.com/campreg/ledger/types"
)

// ──────────────────────────────────────────────────
// Ledger reads
// ──────────────────────────────────────────────────

// GetPaymentHistory returns the events of the given participants ordered by
// creation, insertion order breaking ties.
func (l *Ledger) GetPaymentHistory(ctx context.Context, participants ...id.ParticipantID) (payment.History, error) {
	return l.history(ctx, participants)
}

// PaidSum returns the sum of payment values of s. It is negative when money
// was received. Employees have no ledger and always return zero.
func (l *Ledger) PaidSum(ctx context.Context, s participant.Subject) (types.Cents, error) {
	history, err := l.history(ctx, ledgerIDs(s))
	if err != nil {
		return 0, err
	}
	return history.PaidSum(), nil
}

// ──────────────────────────────────────────────────
// Price reads
// ──────────────────────────────────────────────────

// GetPriceTag returns the itemized price of s. A formula variable without a
// value yields an error matching ErrCalculationImpossible.
func (l *Ledger) GetPriceTag(ctx context.Context, s participant.Subject) (*price.Tag, error) {
	st, err := l.status(ctx, s)
	if err != nil {
		return nil, err
	}
	if st.PriceErr != nil {
		l.reportPriceFailure(ctx, st)
		return nil, st.PriceErr
	}
	return st.Tag, nil
}

// CurrentPrice returns the latest override, else the formula total.
// ErrNoPriceSet is returned when neither exists.
func (l *Ledger) CurrentPrice(ctx context.Context, s participant.Subject) (types.Cents, error) {
	st, err := l.priced(ctx, s)
	if err != nil {
		return 0, err
	}
	return st.Price, nil
}

// ToPay returns CurrentPrice plus PaidSum. A negative result is an
// overpayment.
func (l *Ledger) ToPay(ctx context.Context, s participant.Subject) (types.Cents, error) {
	st, err := l.priced(ctx, s)
	if err != nil {
		return 0, err
	}
	return st.ToPay, nil
}

// GetPrice returns the current price, in major units when asMajorUnits is
// set. It returns nil when no price is set.
func (l *Ledger) GetPrice(ctx context.Context, s participant.Subject, asMajorUnits bool) (*decimal.Decimal, error) {
	return l.amount(ctx, s, asMajorUnits, func(st *payment.Status) types.Cents { return st.Price })
}

// GetToPay returns the amount still owed, in major units when asMajorUnits
// is set. It returns nil when no price is set.
func (l *Ledger) GetToPay(ctx context.Context, s participant.Subject, asMajorUnits bool) (*decimal.Decimal, error) {
	return l.amount(ctx, s, asMajorUnits, func(st *payment.Status) types.Cents { return st.ToPay })
}

// GetPaymentStatus returns the derived status of s. A price that cannot be
// computed is reported on the status, not as an error; store and ledger
// state failures are returned.
func (l *Ledger) GetPaymentStatus(ctx context.Context, s participant.Subject) (*payment.Status, error) {
	st, err := l.status(ctx, s)
	if err != nil {
		return nil, err
	}
	l.reportPriceFailure(ctx, st)
	return st, nil
}

// Summary aggregates the statuses of subjects. Inactive subjects are
// excluded without computing their price. When any included price fails the
// summary is marked unknown and carries one problem per unresolved
// variable. Plugins see one OnCalculationImpossible per problem.
func (l *Ledger) Summary(ctx context.Context, subjects []participant.Subject) (*payment.Summary, error) {
	statuses := make([]*payment.Status, 0, len(subjects))
	for _, s := range subjects {
		if s.Inactive() {
			statuses = append(statuses, &payment.Status{Subject: s.Ref(), Inactive: true})
			continue
		}
		st, err := l.status(ctx, s)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}

	sum := payment.Summarize(statuses, l.variableConfigURL)
	reported := make(map[string]bool)
	for _, st := range statuses {
		switch {
		case st.Impossible != nil:
			if reported[st.Impossible.Key()] {
				continue
			}
			reported[st.Impossible.Key()] = true
			l.reportPriceFailure(ctx, st)
		case st.PriceErr != nil:
			l.reportPriceFailure(ctx, st)
		}
	}
	for _, p := range sum.Problems {
		l.logger.Warn("payment summary incomplete",
			"symbol", p.Symbol,
			"variable_id", p.VariableID.String(),
			"subjects", len(p.Subjects),
		)
	}
	return sum, nil
}

// Suggest proposes amounts of kind for target from the ledgers of peers in
// the same event with identical priced selections. Suggestions are never
// used by price or to-pay computation.
func (l *Ledger) Suggest(ctx context.Context, target *participant.Participant, peers []*participant.Participant, kind payment.Kind) ([]suggestion.Suggestion, error) {
	if !kind.Valid() {
		return nil, ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", kind)}
	}

	key := selectionKey(target)
	var ids []id.ParticipantID
	for _, p := range peers {
		if p.ID == target.ID || p.Event != target.Event || selectionKey(p) != key {
			continue
		}
		ids = append(ids, p.ID)
	}

	history, err := l.history(ctx, ids)
	if err != nil {
		return nil, err
	}
	return l.suggester.Suggest(kind, history), nil
}

// ──────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────

// status computes the status of s from its ledger and price tag. Price
// failures are recorded on the status; callers that answer a read report
// them through reportPriceFailure.
func (l *Ledger) status(ctx context.Context, s participant.Subject) (*payment.Status, error) {
	ref := s.Ref()

	history, err := l.history(ctx, ledgerIDs(s))
	if err != nil {
		return nil, err
	}

	tag, priceErr := l.calculator.Tag(s, price.OverrideMap(history.Overrides()))
	if priceErr == nil {
		return payment.NewStatus(ref, tag, history.PaidSum(), s.Inactive()), nil
	}

	st := payment.NewStatus(ref, nil, history.PaidSum(), s.Inactive())
	st.PriceErr = priceErr
	if ci, ok := AsCalculationImpossible(priceErr); ok {
		st.Impossible = ci
	}
	return st, nil
}

// reportPriceFailure logs the price failure on st, if any, and notifies
// plugins of an unresolved variable.
func (l *Ledger) reportPriceFailure(ctx context.Context, st *payment.Status) {
	switch {
	case st.Impossible != nil:
		l.plugins.EmitCalculationImpossible(ctx, st.Subject, st.Impossible)
		l.logger.Warn("price calculation impossible",
			"subject", st.Subject.String(),
			"symbol", st.Impossible.Symbol,
			"event_id", st.Impossible.EventID.String(),
		)
	case st.PriceErr != nil:
		l.logger.Error("price calculation failed",
			"subject", st.Subject.String(),
			"error", st.PriceErr,
		)
	}
}

// priced returns the status of s, failing when no price is known.
func (l *Ledger) priced(ctx context.Context, s participant.Subject) (*payment.Status, error) {
	st, err := l.status(ctx, s)
	if err != nil {
		return nil, err
	}
	if st.PriceErr != nil {
		l.reportPriceFailure(ctx, st)
		return nil, st.PriceErr
	}
	if !st.PriceSet {
		return nil, fmt.Errorf("%w: %s", ErrNoPriceSet, st.Subject)
	}
	return st, nil
}

func (l *Ledger) amount(ctx context.Context, s participant.Subject, asMajorUnits bool, pick func(*payment.Status) types.Cents) (*decimal.Decimal, error) {
	st, err := l.priced(ctx, s)
	if err != nil {
		if errors.Is(err, ErrNoPriceSet) {
			return nil, nil //nolint:nilnil // nil means no price is set
		}
		return nil, err
	}

	cents := pick(st)
	d := decimal.NewFromInt(cents.Int64())
	if asMajorUnits {
		d = cents.Major()
	}
	return &d, nil
}

// history reads the ledger of participants. Undecodable events are reported
// to plugins and returned, never skipped.
func (l *Ledger) history(ctx context.Context, participants []id.ParticipantID) (payment.History, error) {
	if len(participants) == 0 {
		return nil, nil
	}

	history, err := l.store.ListEvents(ctx, participants)
	if err != nil {
		if IsInvalidLedgerState(err) {
			l.plugins.EmitInvalidLedgerState(ctx, participants, err)
			l.logger.Error("invalid ledger state",
				"participants", len(participants),
				"error", err,
			)
		}
		return nil, fmt.Errorf("ledger: list events: %w", err)
	}
	return history, nil
}

// ledgerIDs returns the participants whose ledger contributes to s.
func ledgerIDs(s participant.Subject) []id.ParticipantID {
	switch subj := s.(type) {
	case *participant.Participant:
		return []id.ParticipantID{subj.ID}
	case *participant.Participation:
		return participantIDs(subj.Active())
	default:
		return nil
	}
}

// selectionKey identifies the priced selections of p.
func selectionKey(p *participant.Participant) string {
	var parts []string
	for _, fv := range p.CustomFields {
		a := fv.Attribute
		if a == nil || !a.HasFormula() || !participant.Applies(a, participant.KindParticipant) || !fv.HasSelection() {
			continue
		}
		parts = append(parts, a.ID.String()+"="+fmt.Sprint(fv.Raw))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}
