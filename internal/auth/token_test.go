package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedlsf/buwis-friend/internal/auth"
	"github.com/jedlsf/buwis-friend/internal/config"
	"github.com/jedlsf/buwis-friend/internal/domain"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "buwis-test"}
}

func TestIssueAndValidate(t *testing.T) {
	m := auth.NewTokenManager(testConfig())

	token, expiry, err := m.Issue("user-42", "ana@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID())
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.Equal(t, "buwis-test", claims.Issuer)
}

func TestIssue_EmptyUser(t *testing.T) {
	m := auth.NewTokenManager(testConfig())
	_, _, err := m.Issue(" ", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidateToken_Expired(t *testing.T) {
	m := auth.NewTokenManager(testConfig())
	m.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, _, err := m.Issue("user-42", "")
	require.NoError(t, err)

	m.SetClock(time.Now)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _, err := auth.NewTokenManager(testConfig()).Issue("user-42", "")
	require.NoError(t, err)

	other := testConfig()
	other.Secret = "different"
	_, err = auth.NewTokenManager(other).ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	token, _, err := auth.NewTokenManager(testConfig()).Issue("user-42", "")
	require.NoError(t, err)

	other := testConfig()
	other.Issuer = "someone-else"
	_, err = auth.NewTokenManager(other).ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateToken_WrongAudience(t *testing.T) {
	cfg := testConfig()
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-42",
		Issuer:    cfg.Issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		Audience:  jwt.ClaimStrings{"refresh"},
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = auth.NewTokenManager(cfg).ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := auth.NewTokenManager(testConfig()).ValidateToken("not.a.token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
