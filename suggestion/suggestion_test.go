package suggestion_test

import (
	"testing"
	"time"

	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/suggestion"
	"github.com/campreg/ledger/types"
)

func TestMostFrequent(t *testing.T) {
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	ev := func(kind payment.Kind, v types.Cents, minutes int) *payment.Event {
		return &payment.Event{Kind: kind, Value: v, CreatedAt: base.Add(time.Duration(minutes) * time.Minute)}
	}

	history := payment.History{
		ev(payment.KindPriceOverride, 4000, 0),
		ev(payment.KindPriceOverride, 3500, 1),
		ev(payment.KindPriceOverride, 4000, 2),
		ev(payment.KindPriceOverride, 3000, 3),
		ev(payment.KindPayment, -5100, 4),
		ev(payment.KindPayment, -5100, 5),
		ev(payment.KindPayment, 300, 6),
	}

	tests := []struct {
		name  string
		kind  payment.Kind
		limit int
		want  []types.Cents
	}{
		{"overrides by frequency then recency", payment.KindPriceOverride, 0, []types.Cents{4000, 3000, 3500}},
		{"payments as received amounts", payment.KindPayment, 0, []types.Cents{5100, -300}},
		{"limit", payment.KindPriceOverride, 1, []types.Cents{4000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := suggestion.MostFrequent{Limit: tt.limit}.Suggest(tt.kind, history)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d suggestions, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, s := range got {
				if s.Value != tt.want[i] {
					t.Errorf("suggestion %d: got %d, want %d", i, s.Value, tt.want[i])
				}
			}
		})
	}

	top := suggestion.MostFrequent{}.Suggest(payment.KindPriceOverride, history)[0]
	if top.Count != 2 || !top.LastUsed.Equal(base.Add(2*time.Minute)) {
		t.Errorf("unexpected top suggestion: %+v", top)
	}
}

func TestMostFrequentEmpty(t *testing.T) {
	if got := (suggestion.MostFrequent{}).Suggest(payment.KindPayment, nil); len(got) != 0 {
		t.Errorf("expected no suggestions, got %+v", got)
	}
}

func TestStrategyFunc(t *testing.T) {
	var s suggestion.Strategy = suggestion.StrategyFunc(func(payment.Kind, payment.History) []suggestion.Suggestion {
		return []suggestion.Suggestion{{Value: 1}}
	})
	if got := s.Suggest(payment.KindPayment, nil); len(got) != 1 || got[0].Value != 1 {
		t.Errorf("unexpected: %+v", got)
	}
}
