package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsString(t *testing.T) {
	s, ok := AsString("hello")
	assert.True(t, ok)
	assert.Equal(t, "hello", s)

	_, ok = AsString(nil)
	assert.False(t, ok)

	_, ok = AsString(42)
	assert.False(t, ok)
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
		ok   bool
	}{
		{"int64", int64(7), 7, true},
		{"int", 7, 7, true},
		{"float64", 7.9, 7, true},
		{"string", "7", 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AsInt64(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAsFloat64(t *testing.T) {
	got, ok := AsFloat64(float32(0.5))
	assert.True(t, ok)
	assert.InDelta(t, 0.5, got, 1e-6)

	got, ok = AsFloat64(int64(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, got)

	_, ok = AsFloat64("0.5")
	assert.False(t, ok)
}

func TestAsStringSlice(t *testing.T) {
	got, ok := AsStringSlice([]interface{}{"a", 1, "b"})
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	_, ok = AsStringSlice("not a slice")
	assert.False(t, ok)
}
