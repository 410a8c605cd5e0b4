// internal/models/money_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBRLAmount(t *testing.T) {
	cases := map[string]int64{
		"150":        15000,
		"150,00":     15000,
		"150,5":      15050,
		"150.50":     15050,
		"R$ 80":      8000,
		"1.234,56":   123456,
		"1.234":      123400,
		"12.345.678": 1234567800,
		"0,99":       99,
	}
	for in, want := range cases {
		got, err := ParseBRLAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "-10", "1,234", "10,", ",50", "R$"} {
		_, err := ParseBRLAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 150,05", FormatBRL(15005))
	assert.Equal(t, "R$ 1.234,56", FormatBRL(123456))
	assert.Equal(t, "R$ 1.000.000,00", FormatBRL(100000000))
	assert.Equal(t, "-R$ 12,30", FormatBRL(-1230))
}
