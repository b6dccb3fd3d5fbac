// Package suggestion proposes price and payment amounts from prior ledger
// entries. Suggestions are advisory: nothing in the price or to-pay
// computation reads them.
package suggestion

import (
	"sort"
	"time"

	"github.com/campreg/ledger/payment"
	"github.com/campreg/ledger/types"
)

// Suggestion is one candidate amount. For payments the amount is the money
// received, i.e. the negated ledger value.
type Suggestion struct {
	Value    types.Cents `json:"value"`
	Count    int         `json:"count"`
	LastUsed time.Time   `json:"last_used"`
}

// Strategy ranks candidate amounts of kind found in history.
type Strategy interface {
	Suggest(kind payment.Kind, history payment.History) []Suggestion
}

// StrategyFunc is an adapter to use a plain function as a Strategy.
type StrategyFunc func(kind payment.Kind, history payment.History) []Suggestion

// Suggest implements Strategy.
func (f StrategyFunc) Suggest(kind payment.Kind, history payment.History) []Suggestion {
	return f(kind, history)
}

// MostFrequent ranks amounts by how often they were used, most recent use
// breaking ties. Limit caps the result; zero means no cap.
type MostFrequent struct {
	Limit int
}

var _ Strategy = MostFrequent{}

// Suggest implements Strategy.
func (m MostFrequent) Suggest(kind payment.Kind, history payment.History) []Suggestion {
	byValue := make(map[types.Cents]int)
	var out []Suggestion

	for _, e := range history {
		if e.Kind != kind {
			continue
		}
		v := amount(e)
		idx, ok := byValue[v]
		if !ok {
			byValue[v] = len(out)
			out = append(out, Suggestion{Value: v, Count: 1, LastUsed: e.CreatedAt})
			continue
		}
		out[idx].Count++
		if e.CreatedAt.After(out[idx].LastUsed) {
			out[idx].LastUsed = e.CreatedAt
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].LastUsed.After(out[j].LastUsed)
	})

	if m.Limit > 0 && len(out) > m.Limit {
		out = out[:m.Limit]
	}
	return out
}

func amount(e *payment.Event) types.Cents {
	if e.Kind == payment.KindPayment {
		return -e.Value
	}
	return e.Value
}
