package auth

import (
	"errors"
	"time"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	MsgTokenExpired = "Token has expired. Please login again."
	MsgTokenInvalid = "Invalid token format."
)

// Claims is the signed session payload.
type Claims struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	TokenVersion int    `json:"tokenVersion"`
	jwt.RegisteredClaims
}

// -----------------------------------------------------------------------------
// TokenManager issues and verifies HS256 session tokens.
// -----------------------------------------------------------------------------

type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// -----------------------------------------------------------------------------

func NewTokenManager(cfg models.MAuthConfig, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

func (m *TokenManager) Issue(u *models.MUser) (string, error) {
	now := m.now()
	claims := Claims{
		ID:           u.ID,
		Email:        u.Email,
		TokenVersion: u.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{m.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// -----------------------------------------------------------------------------

// Verify checks signature, issuer, audience and expiry. Failures are
// UnauthorizedErrors whose message tells expired and malformed tokens apart.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, helpers.NewUnauthorized(MsgTokenExpired, err)
		}
		return nil, helpers.NewUnauthorized(MsgTokenInvalid, err)
	}
	if claims.ID == "" {
		return nil, helpers.NewUnauthorized(MsgTokenInvalid, nil)
	}
	return claims, nil
}
