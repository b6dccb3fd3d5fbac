package payment

import (
	"github.com/campreg/ledger/formula"
	"github.com/campreg/ledger/participant"
	"github.com/campreg/ledger/price"
	"github.com/campreg/ledger/types"
)

// State is the conceptual payment state of one subject.
type State string

const (
	StateNoPriceSet    State = "no_price_set"
	StatePriceKnown    State = "price_known"
	StatePartiallyPaid State = "partially_paid"
	StateFullyPaid     State = "fully_paid"
	StateOverpaid      State = "overpaid"
)

// Status is the display-ready payment status of one subject. Price and
// ToPay are meaningful only when PriceSet is true.
type Status struct {
	Subject    participant.Ref `json:"subject"`
	Tag        *price.Tag      `json:"tag,omitempty"`
	Price      types.Cents     `json:"price"`
	PriceSet   bool            `json:"price_set"`
	Overridden bool            `json:"overridden"`
	Paid       types.Cents     `json:"paid"`
	ToPay      types.Cents     `json:"to_pay"`
	Inactive   bool            `json:"inactive"`

	// PriceErr is set when the formula price could not be computed.
	// Impossible carries the details when the cause is an unresolved
	// variable.
	PriceErr   error                               `json:"-"`
	Impossible *formula.CalculationImpossibleError `json:"-"`
}

// NewStatus derives a status from a price tag and the paid sum. A nil tag
// means the price could not be determined.
func NewStatus(ref participant.Ref, tag *price.Tag, paid types.Cents, inactive bool) *Status {
	st := &Status{Subject: ref, Tag: tag, Paid: paid, Inactive: inactive}
	if tag != nil && !tag.Empty() {
		st.PriceSet = true
		st.Overridden = tag.Overridden()
		st.Price = tag.Total()
		st.ToPay = st.Price + paid
	}
	return st
}

// IsPaid reports that a price is set and nothing is owed.
func (s *Status) IsPaid() bool { return s.PriceSet && s.ToPay <= 0 }

// IsFree reports that the price is set to zero.
func (s *Status) IsFree() bool { return s.PriceSet && s.Price == 0 }

// HasPriceSet reports whether an override or a computed price exists.
func (s *Status) HasPriceSet() bool { return s.PriceSet }

// IsInactive reports that no payment is expected.
func (s *Status) IsInactive() bool { return s.Inactive }

// IsImpossible reports that a formula variable has no value.
func (s *Status) IsImpossible() bool { return s.Impossible != nil }

// Failed reports that the price could not be computed for any reason.
func (s *Status) Failed() bool { return s.PriceErr != nil || s.Impossible != nil }

// State maps the status onto the payment state machine.
func (s *Status) State() State {
	switch {
	case !s.PriceSet:
		return StateNoPriceSet
	case s.ToPay < 0:
		return StateOverpaid
	case s.ToPay == 0:
		return StateFullyPaid
	case s.Paid != 0:
		return StatePartiallyPaid
	default:
		return StatePriceKnown
	}
}
