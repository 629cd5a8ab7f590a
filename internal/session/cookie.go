package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieCodec signs the session ID into the browser cookie so a client
// cannot swap itself into another session. Only the ID travels; everything
// else stays server-side.
type CookieCodec struct {
	secret []byte
	name   string
	ttl    time.Duration
}

func NewCookieCodec(secret, name string, ttl time.Duration) *CookieCodec {
	return &CookieCodec{secret: []byte(secret), name: name, ttl: ttl}
}

// Name returns the cookie name the codec issues and reads.
func (c *CookieCodec) Name() string {
	return c.name
}

// TTL returns the cookie lifetime.
func (c *CookieCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs sessionID into a cookie value.
func (c *CookieCodec) Issue(sessionID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Parse verifies a cookie value and returns the session ID inside it.
func (c *CookieCodec) Parse(value string) (string, error) {
	if value == "" {
		return "", ErrInvalidCookie
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidCookie
	}
	return claims.Subject, nil
}
