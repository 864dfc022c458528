// Package auth verifies bearer tokens issued by the identity provider and yields
// the principal ID. Token issuance belongs to the identity provider; Sign exists
// for local tooling and tests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// Claims carries the principal as "sub"; tokens that only set "id" are accepted too.
type Claims struct {
	UserID string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalID returns sub, falling back to id.
func (c *Claims) PrincipalID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// Verifier checks HS256 tokens.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier returns a Verifier. issuer may be empty to skip the iss check.
func NewVerifier(secret, issuer string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{secret: []byte(secret), issuer: issuer}, nil
}

// Verify validates token and returns the principal ID in canonical UUID form.
func (v *Verifier) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// Stored ids are lowercase and hyphenated; other spellings of the same UUID
	// must compare equal to them.
	id, err := uuid.Parse(claims.PrincipalID())
	if err != nil {
		return "", fmt.Errorf("%w: principal is not a valid id", ErrInvalidToken)
	}
	return id.String(), nil
}

// Sign issues a token for principalID valid for ttl.
func (v *Verifier) Sign(principalID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
