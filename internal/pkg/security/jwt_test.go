package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, userID uint64, secret string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	token := signToken(t, 42, JWTSecret, time.Now().Add(time.Hour))

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token := signToken(t, 42, JWTSecret, time.Now().Add(-time.Hour))

	_, err := ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token := signToken(t, 42, "other-secret", time.Now().Add(time.Hour))

	_, err := ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsMissingUser(t *testing.T) {
	token := signToken(t, 0, JWTSecret, time.Now().Add(time.Hour))

	_, err := ValidateToken(token)
	assert.Error(t, err)
}
