package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharset_Chars(t *testing.T) {
	assert.Len(t, Upper.Chars(), 26)
	assert.Len(t, Lower.Chars(), 26)
	assert.Len(t, Digits.Chars(), 10)
	assert.Equal(t, "!@#$%&*+-[](){}", Symbols.Chars())
	assert.Len(t, Symbols.Chars(), 15)
	assert.Empty(t, Charset(42).Chars())
}

func TestParseCharset(t *testing.T) {
	tests := []struct {
		input    string
		expected Charset
	}{
		{"upper", Upper},
		{"Uppercase", Upper},
		{"lower", Lower},
		{"  LOWERCASE ", Lower},
		{"digits", Digits},
		{"numbers", Digits},
		{"num", Digits},
		{"symbols", Symbols},
		{"sym", Symbols},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseCharset(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}

	_, err := ParseCharset("emoji")
	assert.ErrorIs(t, err, ErrUnknownCharset)
}

func TestCharset_String(t *testing.T) {
	for _, c := range AllCharsets {
		parsed, err := ParseCharset(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, "charset(7)", Charset(7).String())
}
