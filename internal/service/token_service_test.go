package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/weprep-api/internal/models"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims *models.JWTClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims(role models.UserRole) *models.JWTClaims {
	now := time.Now()
	return &models.JWTClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestValidateTokenAcceptsSignedClaims(t *testing.T) {
	svc := NewTokenService(testSecret)

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, testSecret, validClaims(models.RoleLearner)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.UserID("user-1"), claims.Actor())
	assert.Equal(t, models.RoleLearner, claims.Role)
}

func TestValidateTokenRejections(t *testing.T) {
	svc := NewTokenService(testSecret)

	expired := validClaims(models.RoleTutor)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	noExpiry := validClaims(models.RoleTutor)
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"wrong secret":  signToken(t, jwt.SigningMethodHS256, "other", validClaims(models.RoleAdmin)),
		"wrong method":  signToken(t, jwt.SigningMethodHS512, testSecret, validClaims(models.RoleAdmin)),
		"expired":       signToken(t, jwt.SigningMethodHS256, testSecret, expired),
		"no expiry":     signToken(t, jwt.SigningMethodHS256, testSecret, noExpiry),
		"unknown role":  signToken(t, jwt.SigningMethodHS256, testSecret, validClaims("GUEST")),
		"garbage token": "not-a-jwt",
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}
