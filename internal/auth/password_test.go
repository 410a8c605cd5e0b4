package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Senha@123")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("Senha@123", hash))
	assert.False(t, CheckPasswordHash("senha@123", hash))
}

func TestIsPasswordComplex(t *testing.T) {
	assert.True(t, IsPasswordComplex("Clinica#2024"))
	assert.False(t, IsPasswordComplex("curta1!"))
	assert.False(t, IsPasswordComplex("semdigitos!!"))
	assert.False(t, IsPasswordComplex("semsimbolo123"))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Maria da Silva", SanitizeName("  maria   da silva "))
	assert.Equal(t, "João D'Ávila", SanitizeName("joão d'Ávila"))
	assert.Equal(t, "Ana", SanitizeName("ana123"))
	assert.Equal(t, "", SanitizeName(" 42 "))
}

func TestValidatePhone(t *testing.T) {
	for _, ok := range []string{"(11) 98765-4321", "+55 11 3456-7890", "21987654321", "5511987654321"} {
		assert.True(t, ValidatePhone(ok), ok)
	}
	for _, bad := range []string{"", "12345", "(01) 98765-4321", "119876543210"} {
		assert.False(t, ValidatePhone(bad), bad)
	}
	assert.Equal(t, "11987654321", NormalizePhone("+55 (11) 98765-4321"))
}

func TestValidateCPF(t *testing.T) {
	assert.True(t, ValidateCPF("529.982.247-25"))
	assert.True(t, ValidateCPF("52998224725"))
	assert.False(t, ValidateCPF("529.982.247-24"))
	assert.False(t, ValidateCPF("111.111.111-11"))
	assert.False(t, ValidateCPF("123"))
	assert.Equal(t, "529.982.247-25", FormatCPF("52998224725"))
}

func TestIsPastDate(t *testing.T) {
	assert.True(t, IsPastDate("1990-05-17"))
	assert.False(t, IsPastDate("2999-01-01"))
	assert.False(t, IsPastDate("1850-01-01"))
	assert.False(t, IsPastDate("17/05/1990"))
}
