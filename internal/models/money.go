// internal/models/money.go
package models

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("valor monetário inválido")

// ParseBRLAmount converte "1.234,56", "150,00", "150.5" ou "R$ 80" em centavos.
func ParseBRLAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	intPart, fracPart := s, ""
	switch {
	case strings.Contains(s, ","):
		i := strings.LastIndexByte(s, ',')
		intPart, fracPart = strings.ReplaceAll(s[:i], ".", ""), s[i+1:]
		if fracPart == "" {
			return 0, ErrInvalidAmount
		}
	case strings.Count(s, ".") == 1 && len(s)-strings.IndexByte(s, '.')-1 <= 2:
		i := strings.IndexByte(s, '.')
		intPart, fracPart = s[:i], s[i+1:]
	default:
		intPart = strings.ReplaceAll(s, ".", "")
	}

	if intPart == "" || !allDigits(intPart) || len(fracPart) > 2 || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	reais, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || reais > 1_000_000_000 {
		return 0, ErrInvalidAmount
	}
	cents, _ := strconv.ParseInt(fracPart, 10, 64)
	return reais*100 + cents, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatBRL formata centavos como "R$ 1.234,56".
func FormatBRL(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	reais := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range reais {
		if i > 0 && (len(reais)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + "R$ " + b.String() + "," + frac
}
