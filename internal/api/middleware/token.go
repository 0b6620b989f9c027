package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atreo/portal/internal/core/domain"
)

var errInvalidPortalToken = errors.New("invalid portal token")

// PortalClaims is what the browser carries: which server-side session it
// belongs to and, for display only, the role it was issued for.
type PortalClaims struct {
	SessionID string      `json:"sid"`
	Role      domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// PortalTokens issues and verifies HS256 portal tokens.
type PortalTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewPortalTokens(secret string, ttl time.Duration) *PortalTokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PortalTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for sessionID.
func (p *PortalTokens) Issue(sessionID string, role domain.Role) (string, error) {
	now := p.now()
	claims := PortalClaims{
		SessionID: sessionID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "atreo-portal",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign portal token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns its claims.
func (p *PortalTokens) Parse(raw string) (*PortalClaims, error) {
	claims := &PortalClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil || !tkn.Valid {
		return nil, errInvalidPortalToken
	}
	if claims.SessionID == "" {
		return nil, errInvalidPortalToken
	}
	return claims, nil
}
