// Package sheet holds per-conversation listing sheets and the store that owns them.
package sheet

import (
	"encoding/json"
	"errors"
	"fmt"

	"listing-intake-bot/internal/schema"
)

// ErrUnknownField is returned when a key is not part of the schema.
var ErrUnknownField = errors.New("unknown field")

// Sheet is a snapshot of field values for one conversation.
// It always carries exactly one slot per schema field; copying a Sheet copies all values.
type Sheet struct {
	values [schema.FieldCount]Value
}

// New returns a sheet with every field unset.
func New() Sheet {
	return Sheet{}
}

// Get returns the value for key.
func (s Sheet) Get(key string) (Value, error) {
	i, ok := schema.Index(key)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	return s.values[i], nil
}

// Set stores v under key. Setting an unset Value clears the field.
func (s *Sheet) Set(key string, v Value) error {
	i, ok := schema.Index(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	s.values[i] = v
	return nil
}

// Clear unsets key.
func (s *Sheet) Clear(key string) error {
	return s.Set(key, Unset())
}

// Filled returns the number of set fields.
func (s Sheet) Filled() int {
	n := 0
	for _, v := range s.values {
		if v.IsSet() {
			n++
		}
	}
	return n
}

// Total returns the number of fields on the sheet.
func (s Sheet) Total() int {
	return len(s.values)
}

// IsEmpty reports whether no field is set.
func (s Sheet) IsEmpty() bool {
	return s.Filled() == 0
}

// IsComplete reports whether every field is set.
func (s Sheet) IsComplete() bool {
	return s.Filled() == s.Total()
}

// Keys returns the sheet's field keys in schema order.
func (s Sheet) Keys() []string {
	return schema.Keys()
}

// Each calls fn for every field in schema order.
func (s Sheet) Each(fn func(key string, v Value)) {
	for i, v := range s.values {
		fn(schema.At(i).Key, v)
	}
}

// MarshalJSON encodes the sheet as an object keyed by field.
func (s Sheet) MarshalJSON() ([]byte, error) {
	m := make(map[string]Value, len(s.values))
	s.Each(func(key string, v Value) {
		m[key] = v
	})
	return json.Marshal(m)
}
