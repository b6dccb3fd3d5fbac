// Package id names the records the ledger reads and writes.
//
// An ID is a TypeID such as "part_01h2xcejqtf2nbrexx3vqjhp41". The prefix
// tells which kind of record it points at and the UUIDv7 suffix makes IDs of
// one kind sort by creation time. The zero ID means "no record" and travels
// as an empty string in JSON and as NULL in SQL.
package id

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

var (
	// ErrEmpty is returned by Parse for the empty string.
	ErrEmpty = errors.New("id: empty")
	// ErrWrongKind is returned when an ID carries another record kind's prefix.
	ErrWrongKind = errors.New("id: wrong kind")
)

// Prefix is the record kind encoded in an ID.
type Prefix string

const (
	PrefixEvent         Prefix = "event" // camp or course participants register for
	PrefixParticipant   Prefix = "part"
	PrefixParticipation Prefix = "pcp" // one registration covering several participants
	PrefixEmployee      Prefix = "emp"
	PrefixAttribute     Prefix = "attr" // registration form field
	PrefixChoice        Prefix = "opt"  // option of a choice field
	PrefixVariable      Prefix = "var"  // per-event pricing variable
	PrefixPaymentEvent  Prefix = "pev"  // payment ledger entry
	PrefixUser          Prefix = "usr"  // administrator recording payments
)

var issued = map[Prefix]bool{
	PrefixEvent:         true,
	PrefixParticipant:   true,
	PrefixParticipation: true,
	PrefixEmployee:      true,
	PrefixAttribute:     true,
	PrefixChoice:        true,
	PrefixVariable:      true,
	PrefixPaymentEvent:  true,
	PrefixUser:          true,
}

// Valid reports whether the ledger issues IDs of kind p.
func (p Prefix) Valid() bool { return issued[p] }

// New issues a fresh ID of kind p. It panics when TypeID rejects p, which
// only a hand-written prefix can trigger.
func (p Prefix) New() ID {
	tid, err := typeid.Generate(string(p))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", p, err))
	}
	return ID{tid: tid, set: true}
}

// Parse reads s and requires it to be an ID of kind p.
func (p Prefix) Parse(s string) (ID, error) {
	i, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if !i.Is(p) {
		return Nil, fmt.Errorf("%w: %q is not a %q id", ErrWrongKind, s, p)
	}
	return i, nil
}

// ID identifies one ledger record. Compare IDs with ==.
//
//nolint:recvcheck // UnmarshalText and Scan need pointer receivers.
type ID struct {
	tid typeid.TypeID
	set bool
}

// Nil is the absent ID.
var Nil ID

// Record kinds. They are aliases so that one column type serves all of them;
// the prefix carries the kind at runtime.
type (
	EventID         = ID
	ParticipantID   = ID
	ParticipationID = ID
	EmployeeID      = ID
	AttributeID     = ID
	ChoiceID        = ID
	VariableID      = ID
	PaymentEventID  = ID
	UserID          = ID
)

// Constructors and kind-checking parsers, one pair per record kind.
var (
	NewEventID         = PrefixEvent.New
	NewParticipantID   = PrefixParticipant.New
	NewParticipationID = PrefixParticipation.New
	NewEmployeeID      = PrefixEmployee.New
	NewAttributeID     = PrefixAttribute.New
	NewChoiceID        = PrefixChoice.New
	NewVariableID      = PrefixVariable.New
	NewPaymentEventID  = PrefixPaymentEvent.New
	NewUserID          = PrefixUser.New

	ParseEventID         = PrefixEvent.Parse
	ParseParticipantID   = PrefixParticipant.Parse
	ParseParticipationID = PrefixParticipation.Parse
	ParseEmployeeID      = PrefixEmployee.Parse
	ParseAttributeID     = PrefixAttribute.Parse
	ParseChoiceID        = PrefixChoice.Parse
	ParseVariableID      = PrefixVariable.Parse
	ParsePaymentEventID  = PrefixPaymentEvent.Parse
	ParseUserID          = PrefixUser.Parse
)

// New issues a fresh ID of kind p.
func New(p Prefix) ID { return p.New() }

// Parse reads an ID of any kind. Unlike the decoders behind UnmarshalText
// and Scan it rejects the empty string.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, ErrEmpty
	}
	return decode(s)
}

// ParseWithPrefix is p.Parse(s).
func ParseWithPrefix(s string, p Prefix) (ID, error) { return p.Parse(s) }

// decode is the inverse of String: "" is Nil.
func decode(s string) (ID, error) {
	if s == "" {
		return Nil, nil
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{tid: tid, set: true}, nil
}

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.set {
		return ""
	}
	return i.tid.String()
}

// Prefix returns the record kind, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.set {
		return ""
	}
	return Prefix(i.tid.Prefix())
}

func (i ID) IsNil() bool { return !i.set }

// Is reports whether i is a non-nil ID of kind p.
func (i ID) Is(p Prefix) bool { return i.set && i.Prefix() == p }

func (i ID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *ID) UnmarshalText(b []byte) (err error) {
	*i, err = decode(string(b))
	return err
}

// Value stores Nil as NULL so optional reference columns stay empty.
func (i ID) Value() (driver.Value, error) {
	if !i.set {
		return nil, nil //nolint:nilnil // NULL
	}
	return i.String(), nil
}

func (i *ID) Scan(src any) (err error) {
	switch v := src.(type) {
	case nil:
		*i = Nil
	case string:
		*i, err = decode(v)
	case []byte:
		*i, err = decode(string(v))
	default:
		err = fmt.Errorf("id: cannot scan %T", src)
	}
	return err
}
