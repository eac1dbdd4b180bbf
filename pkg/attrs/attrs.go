// Package attrs models the administrator-defined attribute map carried by
// every beneficiary record.
//
// Values form a closed tagged union (Text | Number | Date | Choice |
// Choices). The shape is deliberately not bound to a compiled struct: the
// intake schema is mutable at runtime, so records store attributes as a
// typed map validated against the schema current at write time.
package attrs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// KeyIDNumber is the reserved attribute key carrying the per-barangay
// beneficiary identifier. Schema authors must not redefine it.
const KeyIDNumber = "idNumber"

// DateLayout is the wire format for date values.
const DateLayout = "2006-01-02"

// Kind tags a Value variant.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindDate    Kind = "date"
	KindChoice  Kind = "choice"
	KindChoices Kind = "choices"
)

// Value is one attribute value. Exactly one variant field is meaningful,
// selected by Kind.
type Value struct {
	Kind    Kind
	Text    string
	Number  float64
	Date    time.Time
	Choice  string
	Choices []string
}

func NewText(text string) Value      { return Value{Kind: KindText, Text: text} }
func NewNumber(n float64) Value      { return Value{Kind: KindNumber, Number: n} }
func NewDate(d time.Time) Value      { return Value{Kind: KindDate, Date: d} }
func NewChoice(choice string) Value  { return Value{Kind: KindChoice, Choice: choice} }
func NewChoices(cs []string) Value   { return Value{Kind: KindChoices, Choices: cs} }

// ParseDate builds a date value from the wire format.
func ParseDate(raw string) (Value, error) {
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return Value{}, fmt.Errorf("invalid date %q: want %s", raw, DateLayout)
	}
	return NewDate(d), nil
}

// envelope is the persisted JSON shape: {"kind": "...", "value": ...}.
type envelope struct {
	Kind  Kind            `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case KindText:
		payload = v.Text
	case KindNumber:
		payload = v.Number
	case KindDate:
		payload = v.Date.Format(DateLayout)
	case KindChoice:
		payload = v.Choice
	case KindChoices:
		cs := v.Choices
		if cs == nil {
			cs = []string{}
		}
		payload = cs
	default:
		return nil, fmt.Errorf("unknown attribute kind %q", v.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: v.Kind, Value: raw})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	switch env.Kind {
	case KindText:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return err
		}
		*v = NewText(s)
	case KindNumber:
		var n float64
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return err
		}
		*v = NewNumber(n)
	case KindDate:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return err
		}
		parsed, err := ParseDate(s)
		if err != nil {
			return err
		}
		*v = parsed
	case KindChoice:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return err
		}
		*v = NewChoice(s)
	case KindChoices:
		var cs []string
		if err := json.Unmarshal(env.Value, &cs); err != nil {
			return err
		}
		*v = NewChoices(cs)
	default:
		return fmt.Errorf("unknown attribute kind %q", env.Kind)
	}
	return nil
}

// AsString flattens a value to its display string. Numbers keep minimal
// formatting; multi-choice joins with ", ".
func (v Value) AsString() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v.Number), "0"), ".")
	case KindDate:
		return v.Date.Format(DateLayout)
	case KindChoice:
		return v.Choice
	case KindChoices:
		return strings.Join(v.Choices, ", ")
	}
	return ""
}

// Map is an attribute map keyed by field name.
type Map map[string]Value

// Clone returns a deep copy so stored records never alias caller maps.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		if v.Choices != nil {
			v.Choices = append([]string(nil), v.Choices...)
		}
		out[k] = v
	}
	return out
}

// String returns the flattened value for key, or "" when absent.
func (m Map) String(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	return v.AsString()
}

// Date returns the date value for key and whether one is present.
func (m Map) Date(key string) (time.Time, bool) {
	v, ok := m[key]
	if !ok || v.Kind != KindDate {
		return time.Time{}, false
	}
	return v.Date, true
}

// negatives are flattened values that read as "flag not set".
var negatives = map[string]struct{}{
	"": {}, "no": {}, "none": {}, "n/a": {}, "false": {}, "0": {},
}

// Flag interprets the value at key as a boolean report flag. Absent keys
// and negative markers read false; anything else present reads true.
func (m Map) Flag(key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	if v.Kind == KindNumber {
		return v.Number != 0
	}
	if v.Kind == KindDate {
		return true
	}
	flattened := strings.ToLower(strings.TrimSpace(v.AsString()))
	_, negative := negatives[flattened]
	return !negative
}
