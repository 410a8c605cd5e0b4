// internal/auth/password.go
package auth

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func IsPasswordComplex(password string) bool {
	if len(password) < 8 {
		return false
	}
	var (
		hasLetter bool
		hasDigit  bool
		hasSymbol bool
	)
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSymbol = true
		}
	}
	return hasLetter && hasDigit && hasSymbol
}

var nonAlphaSpaceDash = regexp.MustCompile(`[^\p{L}\s'-]`)
var multiSpace = regexp.MustCompile(`\s+`)

// SanitizeName remove caracteres estranhos e coloca em maiúscula a primeira letra de cada palavra.
func SanitizeName(name string) string {
	cleaned := nonAlphaSpaceDash.ReplaceAllString(strings.TrimSpace(name), "")
	cleaned = multiSpace.ReplaceAllString(strings.TrimSpace(cleaned), " ")
	if cleaned == "" {
		return ""
	}
	words := strings.Split(cleaned, " ")
	for i, w := range words {
		r := []rune(w)
		// preposições ficam em minúscula: "Maria da Silva"
		if i > 0 && isNameParticle(strings.ToLower(w)) {
			words[i] = strings.ToLower(w)
			continue
		}
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func isNameParticle(w string) bool {
	switch w {
	case "da", "de", "do", "das", "dos", "e":
		return true
	}
	return false
}

// OnlyDigits descarta tudo que não for dígito (máscaras de CPF e telefone).
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone devolve DDD + número (10 ou 11 dígitos), sem o código do país.
func NormalizePhone(phone string) string {
	digits := OnlyDigits(phone)
	if strings.HasPrefix(strings.TrimSpace(phone), "+55") || (len(digits) > 11 && strings.HasPrefix(digits, "55")) {
		digits = strings.TrimPrefix(digits, "55")
	}
	return digits
}

var phoneRegex = regexp.MustCompile(`^[1-9]{2}9?\d{8}$`)

// ValidatePhone aceita telefones brasileiros com ou sem máscara: (11) 98765-4321, +55 11 3456-7890.
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

// NormalizeCPF mantém só os 11 dígitos.
func NormalizeCPF(cpf string) string {
	return OnlyDigits(cpf)
}

// ValidateCPF confere os dois dígitos verificadores.
func ValidateCPF(cpf string) bool {
	digits := NormalizeCPF(cpf)
	if len(digits) != 11 {
		return false
	}
	allSame := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}
	check := func(n int) byte {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(digits[i]-'0') * (n + 1 - i)
		}
		rest := (sum * 10) % 11
		if rest == 10 {
			rest = 0
		}
		return byte(rest) + '0'
	}
	return check(9) == digits[9] && check(10) == digits[10]
}

// FormatCPF aplica a máscara 000.000.000-00.
func FormatCPF(cpf string) string {
	d := NormalizeCPF(cpf)
	if len(d) != 11 {
		return cpf
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

// IsPastDate aceita datas no formato 2006-01-02 que não estejam no futuro nem antes de 1900.
func IsPastDate(date string) bool {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return false
	}
	return !d.After(time.Now()) && d.Year() >= 1900
}
