package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTPManager_GenerateSetup(t *testing.T) {
	tm := NewTOTPManager("verba-test")

	setup, err := tm.GenerateSetup("alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.QRDataURL, "data:image/png;base64,"))
}

func TestTOTPManager_ValidateCode(t *testing.T) {
	tm := NewTOTPManager("verba-test")

	setup, err := tm.GenerateSetup("alice@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)

	assert.True(t, tm.ValidateCode(setup.Secret, code))
	assert.False(t, tm.ValidateCode(setup.Secret, "000000"))
}
