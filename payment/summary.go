package payment

import (
	"fmt"
	"strings"

	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/id"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/types"
)

// Problem is one actionable message about a variable that blocks price
// computation.
type Problem struct {
	Symbol      string            `json:"symbol,omitempty"`
	VariableID  id.VariableID     `json:"variable_id,omitempty"`
	Description string            `json:"description,omitempty"`
	EventID     id.EventID        `json:"event_id"`
	Message     string            `json:"message"`
	ConfigURL   string            `json:"config_url,omitempty"`
	Subjects    []participant.Ref `json:"subjects"`
}

// Summary aggregates the statuses of active subjects. Price and ToPay are
// nil unless Known; Paid only reads ledgers and is always complete.
type Summary struct {
	Included int          `json:"included"`
	Excluded int          `json:"excluded"`
	Price    *types.Cents `json:"price"`
	Paid     types.Cents  `json:"paid"`
	ToPay    *types.Cents `json:"to_pay"`
	Known    bool         `json:"known"`
	Problems []Problem    `json:"problems,omitempty"`
}

// Summarize aggregates statuses. Inactive subjects are excluded. configURL
// may contain an {id} placeholder for the variable ID.
func Summarize(statuses []*Status, configURL string) *Summary {
	sum := &Summary{Known: true}
	problems := make(map[string]int)
	var price, toPay types.Cents

	for _, st := range statuses {
		if st.Inactive {
			sum.Excluded++
			continue
		}
		sum.Included++
		sum.Paid += st.Paid

		if st.Impossible != nil {
			sum.Known = false
			key := st.Impossible.Key()
			if idx, ok := problems[key]; ok {
				sum.Problems[idx].Subjects = append(sum.Problems[idx].Subjects, st.Subject)
				continue
			}
			problems[key] = len(sum.Problems)
			sum.Problems = append(sum.Problems, newProblem(st.Impossible, st.Subject, configURL))
			continue
		}
		if st.PriceErr != nil {
			sum.Known = false
			sum.Problems = append(sum.Problems, Problem{
				Message:  "Prices cannot be calculated: " + st.PriceErr.Error(),
				Subjects: []participant.Ref{st.Subject},
			})
			continue
		}

		if st.PriceSet {
			price += st.Price
			toPay += st.ToPay
		}
	}

	if sum.Known {
		sum.Price, sum.ToPay = &price, &toPay
	}
	return sum
}

func newProblem(ci *formula.CalculationImpossibleError, subject participant.Ref, configURL string) Problem {
	p := Problem{
		Symbol:      ci.Symbol,
		VariableID:  ci.VariableID,
		Description: ci.Description,
		EventID:     ci.EventID,
		Subjects:    []participant.Ref{subject},
	}
	if !ci.Defined() {
		p.Message = fmt.Sprintf("Prices cannot be calculated: the formula variable %q is not defined.", ci.Symbol)
		return p
	}
	if configURL != "" {
		p.ConfigURL = strings.ReplaceAll(configURL, "{id}", ci.VariableID.String())
	}
	p.Message = fmt.Sprintf("Prices cannot be calculated: the variable %q has no default and no value for this event.", ci.Symbol)
	if p.ConfigURL != "" {
		p.Message += " Configure it at " + p.ConfigURL
	}
	return p
}
