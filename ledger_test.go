package ledger_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campreg/ledger"
	"github.com/campreg/ledger/attribute"
	audithook "github.com/campreg/ledger/audit_hook"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/store/memory"
	"github.com/campreg/ledger/types"
	"github.com/campreg/ledger/variable"
)

func ptr(f float64) *float64 { return &f }

type clock struct {
	mu     sync.Mutex
	now    time.Time
	frozen bool
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	if !c.frozen {
		c.now = c.now.Add(time.Second)
	}
	return t
}

type auditLog struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (a *auditLog) Record(_ context.Context, e *audithook.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
	return nil
}

func (a *auditLog) count(action string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.events {
		if e.Action == action {
			n++
		}
	}
	return n
}

type fixture struct {
	l       *ledger.Ledger
	store   *memory.Store
	clock   *clock
	audit   *auditLog
	admin   id.UserID
	eventE  id.EventID
	eventF  id.EventID
	campFee *attribute.Attribute
	tripFee *attribute.Attribute
	room    *attribute.Attribute
	meals   *attribute.Attribute
	single  id.ChoiceID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := variable.NewRegistry()
	nights := &variable.Variable{Symbol: "nights", Description: "Nights on site", Default: ptr(3)}
	transport := &variable.Variable{Symbol: "transportCost", Description: "Bus ticket"}
	for _, v := range []*variable.Variable{nights, transport} {
		if err := reg.Define(v); err != nil {
			t.Fatal(err)
		}
	}

	fx := &fixture{
		store:  memory.New(),
		clock:  &clock{now: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)},
		audit:  &auditLog{},
		admin:  id.NewUserID(),
		eventE: id.NewEventID(),
		eventF: id.NewEventID(),
		single: id.NewChoiceID(),
	}
	if err := reg.SetOverride(variable.Value{EventID: fx.eventE, VariableID: nights.ID, Value: 5}); err != nil {
		t.Fatal(err)
	}

	fx.campFee = &attribute.Attribute{
		ID: id.NewAttributeID(), Name: "Camp Fee", Kind: attribute.KindBool,
		Formula: "value * (5000 + 20*nights)",
		Usage:   attribute.Usage{Participant: true},
	}
	fx.tripFee = &attribute.Attribute{
		ID: id.NewAttributeID(), Name: "Trip Fee", Kind: attribute.KindBool,
		Formula: "value * transportCost",
		Usage:   attribute.Usage{Participant: true},
	}
	fx.room = &attribute.Attribute{
		ID: id.NewAttributeID(), Name: "Room", Kind: attribute.KindChoice,
		Formula: "value * 1000",
		Usage:   attribute.Usage{Participation: true},
		Options: []attribute.ChoiceOption{{ID: fx.single, Label: "single", Value: 2}},
	}
	fx.meals = &attribute.Attribute{
		ID: id.NewAttributeID(), Name: "Staff Meals", Kind: attribute.KindNumber,
		Formula: "value * 300",
		Usage:   attribute.Usage{Employee: true},
	}

	fx.l = ledger.New(fx.store,
		ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		ledger.WithCatalog(reg),
		ledger.WithClock(fx.clock.Now),
		ledger.WithVariableConfigURL("/admin/variables/{id}"),
		ledger.WithPlugin(audithook.New(fx.audit)),
	)
	if err := fx.l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = fx.l.Stop() })
	return fx
}

func (fx *fixture) camper(event id.EventID, fields ...attribute.FieldValue) *participant.Participant {
	return &participant.Participant{ID: id.NewParticipantID(), Event: event, Name: "camper", CustomFields: fields}
}

func (fx *fixture) withCampFee() attribute.FieldValue {
	return attribute.FieldValue{Attribute: fx.campFee, Raw: true}
}

func (fx *fixture) withTrip() attribute.FieldValue {
	return attribute.FieldValue{Attribute: fx.tripFee, Raw: true}
}

func TestCampFeeScenario(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	p := fx.camper(fx.eventE, fx.withCampFee())

	price, err := fx.l.CurrentPrice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if price != 5100 {
		t.Fatalf("price: got %d, want 5100", price)
	}

	if _, err := fx.l.RecordPayment(ctx, p.ID, 5100, "bank transfer", fx.admin); err != nil {
		t.Fatal(err)
	}
	st, err := fx.l.GetPaymentStatus(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if st.ToPay != 0 || !st.IsPaid() || st.State() != payment.StateFullyPaid {
		t.Fatalf("after payment: to pay %d, paid %v, state %s", st.ToPay, st.IsPaid(), st.State())
	}

	if _, err := fx.l.SetOverridePrice(ctx, []id.ParticipantID{p.ID}, 4000, "discount", fx.admin); err != nil {
		t.Fatal(err)
	}
	st, err = fx.l.GetPaymentStatus(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if st.Price != 4000 || st.ToPay != -1100 || !st.Overridden || st.State() != payment.StateOverpaid {
		t.Errorf("after override: price %d, to pay %d, overridden %v, state %s", st.Price, st.ToPay, st.Overridden, st.State())
	}

	major, err := fx.l.GetToPay(ctx, p, true)
	if err != nil {
		t.Fatal(err)
	}
	if major == nil || !major.Equal(decimal.RequireFromString("-11")) {
		t.Errorf("to pay in major units: got %v, want -11", major)
	}
	cents, err := fx.l.GetPrice(ctx, p, false)
	if err != nil {
		t.Fatal(err)
	}
	if cents == nil || cents.IntPart() != 4000 {
		t.Errorf("price in cents: got %v, want 4000", cents)
	}

	history, err := fx.l.GetPaymentHistory(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history: got %d events, want 2", len(history))
	}
	if history[0].Kind != payment.KindPayment || history[0].Value != -5100 || history[0].CreatedBy != fx.admin {
		t.Errorf("unexpected first event: %+v", history[0])
	}
	if fx.audit.count(audithook.ActionPaymentRecorded) != 1 || fx.audit.count(audithook.ActionPriceOverridden) != 1 {
		t.Errorf("unexpected audit trail: %+v", fx.audit.events)
	}
}

func TestPricePlusPaidIsToPay(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	tests := []struct {
		name     string
		override *types.Cents
		payments []types.Cents
	}{
		{"formula only", nil, nil},
		{"partial payment", nil, []types.Cents{2000}},
		{"refund", nil, []types.Cents{5100, -600}},
		{"override and payments", func() *types.Cents { c := types.Cents(3000); return &c }(), []types.Cents{1000, 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fx.camper(fx.eventE, fx.withCampFee())
			if tt.override != nil {
				if _, err := fx.l.SetOverridePrice(ctx, []id.ParticipantID{p.ID}, *tt.override, "", fx.admin); err != nil {
					t.Fatal(err)
				}
			}
			for _, c := range tt.payments {
				if _, err := fx.l.RecordPayment(ctx, p.ID, c, "", fx.admin); err != nil {
					t.Fatal(err)
				}
			}

			price, err := fx.l.CurrentPrice(ctx, p)
			if err != nil {
				t.Fatal(err)
			}
			paid, err := fx.l.PaidSum(ctx, p)
			if err != nil {
				t.Fatal(err)
			}
			toPay, err := fx.l.ToPay(ctx, p)
			if err != nil {
				t.Fatal(err)
			}
			if price+paid != toPay {
				t.Errorf("price %d + paid %d != to pay %d", price, paid, toPay)
			}
		})
	}
}

func TestLatestOverrideWinsOnTie(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	fx.clock.frozen = true
	p := fx.camper(fx.eventE, fx.withCampFee())

	for _, c := range []types.Cents{3000, 3500, 2500} {
		if _, err := fx.l.SetOverridePrice(ctx, []id.ParticipantID{p.ID}, c, "", fx.admin); err != nil {
			t.Fatal(err)
		}
	}

	price, err := fx.l.CurrentPrice(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if price != 2500 {
		t.Errorf("got %d, want the last appended override 2500", price)
	}
}

func TestCalculationImpossible(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	paying := fx.camper(fx.eventF, fx.withTrip())
	stuck := fx.camper(fx.eventF, fx.withTrip())
	known := fx.camper(fx.eventE, fx.withCampFee())
	withdrawn := fx.camper(fx.eventF, fx.withTrip())
	withdrawn.Withdrawn = true

	_, err := fx.l.GetPriceTag(ctx, stuck)
	if !ledger.IsCalculationImpossible(err) {
		t.Fatalf("expected calculation impossible, got %v", err)
	}
	ci, ok := ledger.AsCalculationImpossible(err)
	if !ok || ci.Symbol != "transportCost" || ci.Description != "Bus ticket" {
		t.Errorf("unexpected cause: %+v", ci)
	}
	if p, err := fx.l.GetPrice(ctx, stuck, true); p != nil || !ledger.IsCalculationImpossible(err) {
		t.Errorf("GetPrice: got %v, %v", p, err)
	}

	// Ledger writes never depend on formulas.
	if _, err := fx.l.RecordPayment(ctx, paying.ID, 1000, "", fx.admin); err != nil {
		t.Fatal(err)
	}

	st, err := fx.l.GetPaymentStatus(ctx, paying)
	if err != nil {
		t.Fatalf("status must not fail: %v", err)
	}
	if !st.IsImpossible() || st.HasPriceSet() || st.Paid != -1000 {
		t.Errorf("unexpected status: %+v", st)
	}
	// GetPriceTag, GetPrice and GetPaymentStatus each reported once.
	if got := fx.audit.count(audithook.ActionCalculationImpossible); got != 3 {
		t.Errorf("audit after three reads: got %d, want 3", got)
	}

	sum, err := fx.l.Summary(ctx, []participant.Subject{paying, stuck, known, withdrawn})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Known {
		t.Error("summary must be unknown")
	}
	if sum.Included != 3 || sum.Excluded != 1 {
		t.Errorf("included %d excluded %d", sum.Included, sum.Excluded)
	}
	if len(sum.Problems) != 1 {
		t.Fatalf("expected one problem per variable, got %+v", sum.Problems)
	}
	pr := sum.Problems[0]
	if pr.Symbol != "transportCost" || len(pr.Subjects) != 2 || pr.ConfigURL != "/admin/variables/"+ci.VariableID.String() {
		t.Errorf("unexpected problem: %+v", pr)
	}
	if sum.Paid != -1000 || sum.Price != nil || sum.ToPay != nil {
		t.Errorf("unknown summary must only carry paid: %+v", sum)
	}
	// Two subjects share one unresolved variable: one report.
	if got := fx.audit.count(audithook.ActionCalculationImpossible); got != 4 {
		t.Errorf("audit after summary: got %d, want 4", got)
	}

	// Internal price reads of a write are not failures of a read.
	if _, err := fx.l.DistributePayment(ctx, []*participant.Participant{paying, stuck}, 500, "", fx.admin); err != nil {
		t.Fatal(err)
	}
	if got := fx.audit.count(audithook.ActionCalculationImpossible); got != 4 {
		t.Errorf("audit after distribution: got %d, want 4", got)
	}
}

func TestSummaryExcludesInactive(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	active := fx.camper(fx.eventE, fx.withCampFee())
	rejected := fx.camper(fx.eventE, fx.withCampFee())
	rejected.Rejected = true
	deleted := fx.camper(fx.eventE, fx.withCampFee())
	deleted.Deleted = true

	if _, err := fx.l.RecordPayments(ctx, []id.ParticipantID{active.ID, rejected.ID}, 100, "", fx.admin); err != nil {
		t.Fatal(err)
	}

	sum, err := fx.l.Summary(ctx, []participant.Subject{active, rejected, deleted})
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Known || sum.Included != 1 || sum.Excluded != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Price == nil || sum.ToPay == nil {
		t.Fatalf("known summary must carry totals: %+v", sum)
	}
	if *sum.Price != 5100 || sum.Paid != -100 || *sum.ToPay != 5000 {
		t.Errorf("unexpected totals: price %d paid %d to pay %d", *sum.Price, sum.Paid, *sum.ToPay)
	}

	// Inactive subjects stay individually priceable.
	st, err := fx.l.GetPaymentStatus(ctx, rejected)
	if err != nil {
		t.Fatal(err)
	}
	if !st.IsInactive() || st.Price != 5100 || st.Paid != -100 {
		t.Errorf("unexpected inactive status: %+v", st)
	}
}

func TestParticipationAndEmployee(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	pcp := &participant.Participation{
		ID:           id.NewParticipationID(),
		Event:        fx.eventE,
		CustomFields: []attribute.FieldValue{{Attribute: fx.room, Raw: fx.single}},
	}
	a := fx.camper(fx.eventE, fx.withCampFee())
	b := fx.camper(fx.eventE, fx.withCampFee())
	gone := fx.camper(fx.eventE, fx.withCampFee())
	gone.Withdrawn = true
	pcp.Add(a, b, gone)

	if _, err := fx.l.SetOverridePrice(ctx, []id.ParticipantID{b.ID}, 3000, "", fx.admin); err != nil {
		t.Fatal(err)
	}
	if _, err := fx.l.RecordPayments(ctx, []id.ParticipantID{a.ID, gone.ID}, 1000, "", fx.admin); err != nil {
		t.Fatal(err)
	}

	st, err := fx.l.GetPaymentStatus(ctx, pcp)
	if err != nil {
		t.Fatal(err)
	}
	// room 2000 + a 5100 + b override 3000; payments of the withdrawn participant do not count.
	if st.Price != 10100 || st.Paid != -1000 || st.ToPay != 9100 {
		t.Errorf("participation: price %d paid %d to pay %d", st.Price, st.Paid, st.ToPay)
	}

	emp := &participant.Employee{
		ID:           id.NewEmployeeID(),
		Event:        fx.eventE,
		CustomFields: []attribute.FieldValue{{Attribute: fx.meals, Raw: 4}},
	}
	est, err := fx.l.GetPaymentStatus(ctx, emp)
	if err != nil {
		t.Fatal(err)
	}
	if est.Price != 1200 || est.ToPay != 1200 || est.Paid != 0 {
		t.Errorf("employee: %+v", est)
	}
}

func TestNoPriceSet(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	p := fx.camper(fx.eventE)

	if got, err := fx.l.GetPrice(ctx, p, true); err != nil || got != nil {
		t.Errorf("GetPrice: got %v, %v", got, err)
	}
	if _, err := fx.l.CurrentPrice(ctx, p); !errors.Is(err, ledger.ErrNoPriceSet) {
		t.Errorf("CurrentPrice: expected ErrNoPriceSet, got %v", err)
	}
	st, err := fx.l.GetPaymentStatus(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if st.State() != payment.StateNoPriceSet || st.IsPaid() {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestInvalidRequests(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	p := fx.camper(fx.eventE, fx.withCampFee())

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"missing actor", func() error {
			_, err := fx.l.RecordPayment(ctx, p.ID, 100, "", id.Nil)
			return err
		}, ledger.ErrMissingActor},
		{"no participants", func() error {
			_, err := fx.l.SetOverridePrice(ctx, nil, 100, "", fx.admin)
			return err
		}, ledger.ErrNoParticipants},
		{"duplicate participant", func() error {
			_, err := fx.l.RecordPayments(ctx, []id.ParticipantID{p.ID, p.ID}, 100, "", fx.admin)
			return err
		}, ledger.ErrInvalidInput},
		{"wrong id kind", func() error {
			_, err := fx.l.RecordPayments(ctx, []id.ParticipantID{id.NewEmployeeID()}, 100, "", fx.admin)
			return err
		}, ledger.ErrNotAParticipant},
		{"unknown action", func() error {
			_, err := fx.l.Apply(ctx, ledger.Action{Code: "delete_everything", Participants: []*participant.Participant{p}, Actor: fx.admin})
			return err
		}, ledger.ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if !ledger.IsInvalidAction(err) {
				t.Errorf("expected IsInvalidAction for %v", err)
			}
		})
	}

	if fx.store.Len() != 0 {
		t.Errorf("rejected requests must not write, got %d events", fx.store.Len())
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	a := fx.camper(fx.eventE, fx.withCampFee())
	b := fx.camper(fx.eventE, fx.withCampFee())

	code, err := ledger.ParseActionCode("price_override")
	if err != nil {
		t.Fatal(err)
	}
	events, err := fx.l.Apply(ctx, ledger.Action{
		Code: code, Participants: []*participant.Participant{a, b}, Cents: 4500, Description: "group rate", Actor: fx.admin,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Kind != payment.KindPriceOverride || events[1].Value != 4500 {
		t.Errorf("unexpected events: %+v", events)
	}
	if !events[0].CreatedAt.Equal(events[1].CreatedAt) {
		t.Error("one action must share one timestamp")
	}

	if _, err := ledger.ParseActionCode("bogus"); !errors.Is(err, ledger.ErrInvalidAction) {
		t.Errorf("expected ErrInvalidAction, got %v", err)
	}
}

func TestDistributePayment(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		total types.Cents
		want  []types.Cents
	}{
		{"covers owed then unknown prices", 10000, []types.Cents{-5100, -4100, -800}},
		{"short payment fills in order", 6000, []types.Cents{-5100, -900, 0}},
		{"refund split evenly over everyone", -301, []types.Cents{101, 100, 100}},
		{"refund of two cents", -2, []types.Cents{1, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			a := fx.camper(fx.eventE, fx.withCampFee())
			b := fx.camper(fx.eventE, fx.withCampFee())
			c := fx.camper(fx.eventF, fx.withTrip())
			if _, err := fx.l.RecordPayment(ctx, b.ID, 1000, "", fx.admin); err != nil {
				t.Fatal(err)
			}

			events, err := fx.l.DistributePayment(ctx, []*participant.Participant{a, b, c}, tt.total, "family transfer", fx.admin)
			if err != nil {
				t.Fatal(err)
			}
			if len(events) != 3 {
				t.Fatalf("expected one event per participant, got %d", len(events))
			}
			var sum types.Cents
			for i, e := range events {
				if e.Value != tt.want[i] {
					t.Errorf("participant %d: got %d, want %d", i, e.Value, tt.want[i])
				}
				sum += e.Value
			}
			if sum != -tt.total {
				t.Errorf("allocations sum to %d, want %d", sum, -tt.total)
			}
		})
	}
}

func TestDistributePaymentAllKnown(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	a := fx.camper(fx.eventE, fx.withCampFee())
	b := fx.camper(fx.eventE, fx.withCampFee())

	events, err := fx.l.DistributePayment(ctx, []*participant.Participant{a, b}, 10201, "", fx.admin)
	if err != nil {
		t.Fatal(err)
	}
	// 5100 each, leftover 1 cent goes to the first participant.
	if events[0].Value != -5101 || events[1].Value != -5100 {
		t.Errorf("got %d and %d", events[0].Value, events[1].Value)
	}
}

func TestInvalidLedgerState(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	p := fx.camper(fx.eventE, fx.withCampFee())

	fx.store.Inject(payment.Event{
		ID:            id.NewPaymentEventID(),
		ParticipantID: p.ID,
		Value:         -100,
		CreatedBy:     fx.admin,
		CreatedAt:     time.Now(),
	})

	if _, err := fx.l.GetPaymentStatus(ctx, p); !ledger.IsInvalidLedgerState(err) {
		t.Errorf("status: expected invalid ledger state, got %v", err)
	}
	if _, err := fx.l.Summary(ctx, []participant.Subject{p}); !ledger.IsInvalidLedgerState(err) {
		t.Errorf("summary: expected invalid ledger state, got %v", err)
	}
	if fx.audit.count(audithook.ActionInvalidLedgerState) == 0 {
		t.Error("expected invalid ledger state in audit trail")
	}
}

func TestSuggest(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	target := fx.camper(fx.eventE, fx.withCampFee())
	same1 := fx.camper(fx.eventE, fx.withCampFee())
	same2 := fx.camper(fx.eventE, fx.withCampFee())
	different := fx.camper(fx.eventE, fx.withCampFee(), fx.withTrip())
	otherEvent := fx.camper(fx.eventF, fx.withCampFee())

	for _, p := range []*participant.Participant{same1, same2} {
		if _, err := fx.l.SetOverridePrice(ctx, []id.ParticipantID{p.ID}, 4000, "", fx.admin); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range []*participant.Participant{different, otherEvent} {
		for range 3 {
			if _, err := fx.l.SetOverridePrice(ctx, []id.ParticipantID{p.ID}, 9999, "", fx.admin); err != nil {
				t.Fatal(err)
			}
		}
	}

	got, err := fx.l.Suggest(ctx, target, []*participant.Participant{target, same1, same2, different, otherEvent}, payment.KindPriceOverride)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Value != 4000 || got[0].Count != 2 {
		t.Errorf("unexpected suggestions: %+v", got)
	}

	// Suggestions are advisory and never change the price.
	price, err := fx.l.CurrentPrice(ctx, target)
	if err != nil {
		t.Fatal(err)
	}
	if price != 5100 {
		t.Errorf("price changed to %d", price)
	}
}

func TestAppendOnly(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	p := fx.camper(fx.eventE, fx.withCampFee())

	first, err := fx.l.RecordPayment(ctx, p.ID, 500, "first", fx.admin)
	if err != nil {
		t.Fatal(err)
	}
	snapshot := *first

	for i := range 4 {
		if _, err := fx.l.SetOverridePrice(ctx, []id.ParticipantID{p.ID}, types.Cents(1000*i), "", fx.admin); err != nil {
			t.Fatal(err)
		}
	}

	history, err := fx.l.GetPaymentHistory(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 5 {
		t.Fatalf("expected 5 events after 5 actions, got %d", len(history))
	}
	if *history[0] != snapshot {
		t.Errorf("first event changed: %+v != %+v", *history[0], snapshot)
	}
	for i := 1; i < len(history); i++ {
		if history[i].CreatedAt.Before(history[i-1].CreatedAt) {
			t.Errorf("history out of order at %d", i)
		}
	}
}

func TestImportEvents(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	p := fx.camper(fx.eventE, fx.withCampFee())
	legacyAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	event := func(kind payment.Kind, v types.Cents) *payment.Event {
		return &payment.Event{
			ID: id.NewPaymentEventID(), ParticipantID: p.ID, Kind: kind, Value: v,
			CreatedBy: fx.admin, CreatedAt: legacyAt,
		}
	}

	err := fx.l.ImportEvents(ctx, []*payment.Event{event("", 7), event(payment.KindPayment, -100), event("", 5)})
	if !ledger.IsInvalidLedgerState(err) {
		t.Fatalf("expected invalid ledger state, got %v", err)
	}
	var multi ledger.MultiError
	if !errors.As(err, &multi) || len(multi.Errors) != 2 {
		t.Errorf("expected both bad rows reported, got %v", err)
	}
	if fx.store.Len() != 0 {
		t.Fatalf("a rejected import must not write, got %d events", fx.store.Len())
	}

	if err := fx.l.ImportEvents(ctx, []*payment.Event{event(payment.KindPriceOverride, 4000), event(payment.KindPayment, -1000)}); err != nil {
		t.Fatal(err)
	}
	toPay, err := fx.l.ToPay(ctx, p)
	if err != nil {
		t.Fatal(err)
	}
	if toPay != 3000 {
		t.Errorf("to pay: got %d, want 3000", toPay)
	}
	history, err := fx.l.GetPaymentHistory(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !history[0].CreatedAt.Equal(legacyAt) {
		t.Errorf("import must keep timestamps, got %s", history[0].CreatedAt)
	}
}

type brokenSchema struct {
	*memory.Store
}

func (brokenSchema) Migrate(context.Context) error { return errors.New("disk full") }

func TestStartMigration(t *testing.T) {
	ctx := context.Background()

	l := ledger.New(brokenSchema{memory.New()}, ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := l.Start(ctx); !errors.Is(err, ledger.ErrMigrationFailed) {
		t.Errorf("Start: got %v, want ErrMigrationFailed", err)
	}

	l = ledger.New(brokenSchema{memory.New()}, ledger.WithoutMigrate(), ledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := l.Start(ctx); err != nil {
		t.Errorf("Start without migrate: %v", err)
	}
	if err := l.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
	if err := l.Store().Ping(ctx); !errors.Is(err, ledger.ErrStoreClosed) {
		t.Errorf("Stop must close the store, Ping got %v", err)
	}
}
