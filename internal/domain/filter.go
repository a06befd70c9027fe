package domain

import (
	"encoding/json"
	"fmt"
)

// FilterKind tags which shape a Filter value carries.
type FilterKind int

const (
	FilterScalar FilterKind = iota
	FilterArray
	FilterRange
)

// RangeBounds is the numeric range shape of a Filter. At least one bound
// must be set.
type RangeBounds struct {
	GTE *float64 `json:"gte,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
	GT  *float64 `json:"gt,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
}

// Filter is a tagged union over the three filter value shapes a request may
// carry per field: a scalar equality, a set of alternatives, or a numeric
// range. Decoding chooses the shape from the JSON value itself rather than
// requiring the caller to name it.
type Filter struct {
	Kind   FilterKind
	Scalar string
	Array  []string
	Range  RangeBounds
}

func (f *Filter) UnmarshalJSON(data []byte) error {
	var scalar string
	if err := json.Unmarshal(data, &scalar); err == nil {
		*f = Filter{Kind: FilterScalar, Scalar: scalar}
		return nil
	}

	var array []string
	if err := json.Unmarshal(data, &array); err == nil {
		*f = Filter{Kind: FilterArray, Array: array}
		return nil
	}

	var rb RangeBounds
	if err := json.Unmarshal(data, &rb); err == nil {
		if rb.GTE == nil && rb.LTE == nil && rb.GT == nil && rb.LT == nil {
			return fmt.Errorf("filter value must be a scalar, an array, or a range object with gte/lte/gt/lt")
		}
		*f = Filter{Kind: FilterRange, Range: rb}
		return nil
	}

	return fmt.Errorf("unrecognized filter value: %s", string(data))
}

func (f Filter) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case FilterScalar:
		return json.Marshal(f.Scalar)
	case FilterArray:
		return json.Marshal(f.Array)
	case FilterRange:
		return json.Marshal(f.Range)
	default:
		return json.Marshal(nil)
	}
}
