package sheet

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-intake-bot/internal/schema"
)

func TestNew_AllUnset(t *testing.T) {
	s := New()

	assert.Equal(t, schema.FieldCount, s.Total())
	assert.Equal(t, 0, s.Filled())
	assert.True(t, s.IsEmpty())
	assert.False(t, s.IsComplete())
	assert.Equal(t, schema.Keys(), s.Keys())

	s.Each(func(key string, v Value) {
		assert.False(t, v.IsSet(), "field %s should be unset", key)
	})
}

func TestSheet_SetAndGet(t *testing.T) {
	s := New()

	require.NoError(t, s.Set("prix", Integer(280000)))
	require.NoError(t, s.Set("ville", Text("Lyon")))

	v, err := s.Get("prix")
	require.NoError(t, err)
	assert.True(t, v.IsSet())
	assert.Equal(t, "280000", v.String())

	assert.Equal(t, 2, s.Filled())
	assert.False(t, s.IsEmpty())
}

func TestSheet_UnknownField(t *testing.T) {
	s := New()

	err := s.Set("piscine_olympique", Bool(true))
	assert.True(t, errors.Is(err, ErrUnknownField))

	_, err = s.Get("piscine_olympique")
	assert.True(t, errors.Is(err, ErrUnknownField))

	assert.Equal(t, schema.FieldCount, s.Total(), "key set must not change")
}

func TestSheet_Clear(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("cave", Bool(true)))
	require.NoError(t, s.Clear("cave"))

	v, err := s.Get("cave")
	require.NoError(t, err)
	assert.False(t, v.IsSet())
	assert.Equal(t, schema.FieldCount, s.Total())
}

func TestSheet_CopyIsIndependent(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("ville", Text("Lyon")))

	cp := s
	require.NoError(t, cp.Set("ville", Text("Paris")))

	v, _ := s.Get("ville")
	assert.Equal(t, "Lyon", v.String())
}

func TestSheet_IsComplete(t *testing.T) {
	s := New()
	for _, key := range schema.Keys() {
		require.NoError(t, s.Set(key, Text("x")))
	}
	assert.True(t, s.IsComplete())
	assert.Equal(t, schema.FieldCount, s.Filled())
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"unset", Unset(), ""},
		{"text", Text("Lyon"), "Lyon"},
		{"integer", Integer(280000), "280000"},
		{"decimal", Decimal(65.5), "65.5"},
		{"decimal whole", Decimal(65), "65"},
		{"choice", Choice("D"), "D"},
		{"true", Bool(true), "yes"},
		{"false", Bool(false), "no"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestValue_Kind(t *testing.T) {
	assert.Equal(t, schema.KindInteger, Integer(1).Kind())
	assert.Equal(t, schema.KindChoice, Choice("A").Kind())
	assert.Equal(t, schema.KindBool, Bool(false).Kind())
	assert.True(t, Bool(false).IsSet(), "false is a set value")
}

func TestSheet_MarshalJSON(t *testing.T) {
	s := New()
	require.NoError(t, s.Set("prix", Integer(280000)))
	require.NoError(t, s.Set("balcon", Bool(true)))
	require.NoError(t, s.Set("ville", Text("Lyon")))

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Len(t, decoded, schema.FieldCount)
	assert.Equal(t, float64(280000), decoded["prix"])
	assert.Equal(t, true, decoded["balcon"])
	assert.Equal(t, "Lyon", decoded["ville"])
	assert.Nil(t, decoded["adresse"])
}
