package attribute

import (
	"fmt"
	"strconv"

	"github.com/campreg/ledger/id"
)

// FieldValue is the selection an entity made for one attribute. Raw depends
// on the attribute kind:
//
//   - number: float64, int, int64 or a numeric string
//   - bool: bool
//   - choice: id.ChoiceID or its string form
//   - multi_choice: []id.ChoiceID or []string
//   - text: string
//
// A nil Raw means no selection.
type FieldValue struct {
	Attribute *Attribute `json:"attribute"`
	Raw       any        `json:"raw"`
}

// HasSelection reports whether a value was selected.
func (v FieldValue) HasSelection() bool {
	return v.Attribute != nil && v.Raw != nil
}

// Number returns the numeric meaning of the selection, which formulas see as
// value.
func (v FieldValue) Number() (float64, error) {
	if v.Attribute == nil {
		return 0, fmt.Errorf("%w: no attribute", ErrInvalidValue)
	}
	if v.Raw == nil {
		return 0, nil
	}

	switch v.Attribute.Kind {
	case KindNumber:
		return toFloat(v.Raw)
	case KindBool:
		b, ok := v.Raw.(bool)
		if !ok {
			return 0, fmt.Errorf("%w: %T for bool attribute %q", ErrInvalidValue, v.Raw, v.Attribute.Name)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case KindChoice:
		optionID, err := toChoiceID(v.Raw)
		if err != nil {
			return 0, err
		}
		return v.optionValue(optionID)
	case KindMultiChoice:
		ids, err := toChoiceIDs(v.Raw)
		if err != nil {
			return 0, err
		}
		var sum float64
		for _, optionID := range ids {
			val, err := v.optionValue(optionID)
			if err != nil {
				return 0, err
			}
			sum += val
		}
		return sum, nil
	case KindText:
		return 0, fmt.Errorf("%w: text attribute %q", ErrNotNumeric, v.Attribute.Name)
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, v.Attribute.Kind)
	}
}

func (v FieldValue) optionValue(optionID id.ChoiceID) (float64, error) {
	opt, ok := v.Attribute.Option(optionID)
	if !ok {
		return 0, fmt.Errorf("%w: %s in %q", ErrUnknownOption, optionID, v.Attribute.Name)
	}
	return opt.Value, nil
}

func toFloat(raw any) (float64, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidValue, raw)
	}
}

func toChoiceID(raw any) (id.ChoiceID, error) {
	switch c := raw.(type) {
	case id.ChoiceID:
		return c, nil
	case string:
		parsed, err := id.ParseChoiceID(c)
		if err != nil {
			return id.Nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return parsed, nil
	default:
		return id.Nil, fmt.Errorf("%w: %T for choice", ErrInvalidValue, raw)
	}
}

func toChoiceIDs(raw any) ([]id.ChoiceID, error) {
	switch c := raw.(type) {
	case []id.ChoiceID:
		return c, nil
	case []string:
		out := make([]id.ChoiceID, 0, len(c))
		for _, s := range c {
			parsed, err := toChoiceID(s)
			if err != nil {
				return nil, err
			}
			out = append(out, parsed)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T for multiple choice", ErrInvalidValue, raw)
	}
}
