package transport

import (
	"encoding/json"
	"strconv"
	"strings"
)

// OptionalBool distinguishes an explicit false from an absent field.
type OptionalBool struct {
	Value bool
	Set   bool
}

func (o OptionalBool) IsZero() bool {
	return !o.Set
}

func (o *OptionalBool) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		o.Set = false
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

func (o OptionalBool) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns the value as a *bool, nil when unset.
func (o OptionalBool) Ptr() *bool {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// FlexibleNumber accepts a JSON number, a numeric string, null, or garbage.
// Calculator inputs come straight from form fields, so anything unparseable
// becomes 0 rather than a rejected request.
type FlexibleNumber float64

func (f *FlexibleNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleNumber(n)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
		if v, perr := strconv.ParseFloat(raw, 64); perr == nil {
			*f = FlexibleNumber(v)
			return nil
		}
	}

	*f = 0
	return nil
}

func (f FlexibleNumber) Float64() float64 {
	return float64(f)
}
