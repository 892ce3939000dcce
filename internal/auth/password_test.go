package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Str0ng!pass", nil},
		{"too short", "S1!a", ErrPasswordTooShort},
		{"no uppercase", "weak1pass!", ErrPasswordNoUpper},
		{"no digit", "Weakpass!!", ErrPasswordNoDigit},
		{"no symbol", "Weakpass11", ErrPasswordNoSymbol},
		{"unicode symbol counts", "Пароль1€xx", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestHashPassword_Success(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")

	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Str0ng!pass", hash)
}

func TestHashPassword_RejectsWeakPassword(t *testing.T) {
	hash, err := HashPassword("weak")

	assert.ErrorIs(t, err, ErrPasswordTooShort)
	assert.Empty(t, hash)
	assert.True(t, IsPolicyViolation(err))
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")
	require.NoError(t, err)

	assert.True(t, CheckPassword("Str0ng!pass", hash))
	assert.False(t, CheckPassword("Wr0ng!pass", hash))
	assert.False(t, CheckPassword("", hash))
}

func TestGenerateResetCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		code, err := GenerateResetCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.NoError(t, ValidateResetCodeFormat(code))
		seen[code] = true
	}
	// 20 draws from a million values colliding every time is not plausible
	assert.Greater(t, len(seen), 1)
}

func TestValidateResetCodeFormat(t *testing.T) {
	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{"valid", "042917", true},
		{"too short", "1234", false},
		{"too long", "1234567", false},
		{"letters", "12a456", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResetCodeFormat(tt.code)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMalformedResetCode)
			}
		})
	}
}
