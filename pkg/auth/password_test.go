package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("Str0ngEnough")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ngEnough", hash)

	assert.NoError(t, ComparePassword(hash, "Str0ngEnough"))
	assert.Error(t, ComparePassword(hash, "wrong-password"))
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Str0ngEnough", false},
		{"too short", "Ab1", true},
		{"no uppercase", "alllower123", true},
		{"no lowercase", "ALLUPPER123", true},
		{"no digit", "NoDigitsHere", true},
		{"blocklisted catches case variants", "Password123!", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateResetToken(t *testing.T) {
	token, hash, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, hash, HashResetToken(token))

	// Tokens are unique per call
	token2, hash2, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, token2)
	assert.NotEqual(t, hash, hash2)
}
