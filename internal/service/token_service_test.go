package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studio-schedule-api/internal/models"
	appErrors "github.com/noah-isme/studio-schedule-api/pkg/errors"
)

const testSecret = "studio-secret"

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func claimsFor(role models.UserRole, ttl time.Duration) models.JWTClaims {
	return models.JWTClaims{
		Role:      role,
		Email:     "ana@studio.test",
		TeacherID: "T1",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "studio-auth",
			Audience:  jwt.ClaimStrings{"studio-portal"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: testSecret, Issuer: "studio-auth", Audience: []string{"studio-portal"}})

	claims, err := svc.ValidateToken(signToken(t, testSecret, claimsFor(models.RoleTeacher, time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID, "subject fills a missing user id")
	assert.True(t, claims.ActsAsTeacher("T1"))
	assert.False(t, claims.IsAdmin())
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: testSecret, Issuer: "studio-auth", Audience: []string{"studio-portal"}})

	wrongAudience := claimsFor(models.RoleAdmin, time.Hour)
	wrongAudience.Audience = jwt.ClaimStrings{"other"}
	unknownRole := claimsFor("JANITOR", time.Hour)

	cases := map[string]struct {
		token string
		code  string
	}{
		"empty":          {token: " ", code: appErrors.ErrUnauthorized.Code},
		"garbage":        {token: "not.a.token", code: appErrors.ErrUnauthorized.Code},
		"wrong secret":   {token: signToken(t, "other", claimsFor(models.RoleAdmin, time.Hour)), code: appErrors.ErrUnauthorized.Code},
		"expired":        {token: signToken(t, testSecret, claimsFor(models.RoleAdmin, -time.Minute)), code: appErrors.ErrUnauthorized.Code},
		"wrong audience": {token: signToken(t, testSecret, wrongAudience), code: appErrors.ErrUnauthorized.Code},
		"unknown role":   {token: signToken(t, testSecret, unknownRole), code: appErrors.ErrForbidden.Code},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(tc.token)
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}

func TestTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(TokenConfig{}).ValidateToken("abc")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
