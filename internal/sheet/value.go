package sheet

import (
	"encoding/json"
	"strconv"

	"listing-intake-bot/internal/schema"
)

// Value is a single field value. The zero Value is unset.
type Value struct {
	set  bool
	kind schema.Kind
	text string
	num  int64
	dec  float64
	flag bool
}

// Unset returns the unset value.
func Unset() Value { return Value{} }

// Text returns a free-text value.
func Text(s string) Value { return Value{set: true, kind: schema.KindText, text: s} }

// Integer returns an integer value.
func Integer(n int64) Value { return Value{set: true, kind: schema.KindInteger, num: n} }

// Decimal returns a decimal value.
func Decimal(f float64) Value { return Value{set: true, kind: schema.KindDecimal, dec: f} }

// Choice returns an enumerated choice value.
func Choice(s string) Value { return Value{set: true, kind: schema.KindChoice, text: s} }

// Bool returns a yes/no value.
func Bool(b bool) Value { return Value{set: true, kind: schema.KindBool, flag: b} }

// IsSet reports whether the value holds data.
func (v Value) IsSet() bool { return v.set }

// Kind returns the kind of a set value. It is meaningless for unset values.
func (v Value) Kind() schema.Kind { return v.kind }

// String renders the value for display. Unset values render as "".
func (v Value) String() string {
	if !v.set {
		return ""
	}
	switch v.kind {
	case schema.KindInteger:
		return strconv.FormatInt(v.num, 10)
	case schema.KindDecimal:
		return strconv.FormatFloat(v.dec, 'f', -1, 64)
	case schema.KindBool:
		if v.flag {
			return "yes"
		}
		return "no"
	default:
		return v.text
	}
}

// MarshalJSON encodes unset values as null and set values as their natural JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	switch v.kind {
	case schema.KindInteger:
		return json.Marshal(v.num)
	case schema.KindDecimal:
		return json.Marshal(v.dec)
	case schema.KindBool:
		return json.Marshal(v.flag)
	default:
		return json.Marshal(v.text)
	}
}
