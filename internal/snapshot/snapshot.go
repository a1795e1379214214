// Package snapshot implements the stateless share-link path: a one-shot
// export of one category's groups and items, carried inside a URL as a
// signed token. Importing copies the data into the importer's own lists;
// it never creates a live share grant.
package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidPayload indicates a token that is malformed, tampered with, or
// expired. Callers surface it as a parse error and discard the token.
var ErrInvalidPayload = errors.New("invalid share payload")

// Item is a single exported list entry. Positions are preserved so the
// import keeps the exporter's ordering.
type Item struct {
	Name     string `json:"name"`
	Checked  bool   `json:"checked"`
	Value    string `json:"value,omitempty"`
	Link     string `json:"link,omitempty"`
	Position int    `json:"position"`
}

// Payload is the exported snapshot: the items of one category plus the
// exporter's group names.
type Payload struct {
	Category string   `json:"category"`
	Groups   []string `json:"groups"`
	Items    []Item   `json:"items"`
}

type claims struct {
	List Payload `json:"list"`
	jwt.RegisteredClaims
}

// Codec signs and verifies snapshot tokens. Signing keeps the URL payload
// tamper-proof; the TTL bounds how long an exported link stays importable.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl}
}

// Encode wraps the payload in a signed token.
func (c *Codec) Encode(p Payload) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		List: p,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign snapshot: %w", err)
	}
	return signed, nil
}

// Decode verifies the token and returns the embedded payload. Any failure
// maps to ErrInvalidPayload.
func (c *Codec) Decode(tokenString string) (*Payload, error) {
	var cl claims
	token, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidPayload
	}
	if cl.List.Category == "" {
		return nil, ErrInvalidPayload
	}
	return &cl.List, nil
}
