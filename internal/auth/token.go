package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"wardRecords/models"
)

// claims carried by a session token. The token only names a session;
// the session row decides whether it is still valid.
type claims struct {
	SessionID string `json:"sid"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func signToken(secret string, s *models.Session) (string, error) {
	if secret == "" {
		return "", errors.New("session secret is empty")
	}
	c := claims{
		SessionID: s.ID,
		Name:      s.Username,
		Role:      string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// parseToken validates the signature and expiry and returns the claims.
func parseToken(tokenStr, secret string, now time.Time) (*claims, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	tok, err := jwt.ParseWithClaims(strings.TrimSpace(tokenStr), &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*claims)
	if c == nil || c.SessionID == "" || c.Name == "" || c.Role == "" {
		return nil, errors.New("invalid claims")
	}
	return c, nil
}
