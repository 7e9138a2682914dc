package auth

import (
	"strings"
	"testing"
	"time"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var authCfg = models.MAuthConfig{
	JWTSecret: "test-secret",
	Issuer:    "crypto-advisor-api",
	Audience:  "crypto-advisor-client",
}

var user = &models.MUser{ID: "u1", Email: "a@example.com", TokenVersion: 3}

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager(authCfg, 7*24*time.Hour)

	token, err := m.Issue(user)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.ID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "crypto-advisor-api", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"crypto-advisor-client"}, claims.Audience)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestVerifyExpired(t *testing.T) {
	m := NewTokenManager(authCfg, time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.Issue(user)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(token)

	require.Error(t, err)
	assert.Equal(t, MsgTokenExpired, err.Error()[:len(MsgTokenExpired)])
	assert.Equal(t, 401, helpers.HTTPStatus(err))
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	m := NewTokenManager(authCfg, time.Hour)

	otherSecret := NewTokenManager(models.MAuthConfig{JWTSecret: "other", Issuer: authCfg.Issuer, Audience: authCfg.Audience}, time.Hour)
	wrongAudience := NewTokenManager(models.MAuthConfig{JWTSecret: authCfg.JWTSecret, Issuer: authCfg.Issuer, Audience: "someone-else"}, time.Hour)
	wrongIssuer := NewTokenManager(models.MAuthConfig{JWTSecret: authCfg.JWTSecret, Issuer: "evil", Audience: authCfg.Audience}, time.Hour)

	for name, issuer := range map[string]*TokenManager{
		"secret":   otherSecret,
		"audience": wrongAudience,
		"issuer":   wrongIssuer,
	} {
		t.Run(name, func(t *testing.T) {
			token, err := issuer.Issue(user)
			require.NoError(t, err)

			_, err = m.Verify(token)
			require.Error(t, err)
			assert.True(t, strings.HasPrefix(err.Error(), MsgTokenInvalid))
		})
	}

	_, err := m.Verify("not-a-jwt")
	assert.Error(t, err)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	m := NewTokenManager(authCfg, time.Hour)
	claims := Claims{ID: "u1", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    authCfg.Issuer,
		Audience:  jwt.ClaimStrings{authCfg.Audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("garbage", "correct horse"))
}
