// Package statetoken issues and verifies the short-lived signed token that
// binds an organization to a Discord OAuth handshake. The token rides in the
// OAuth state parameter and is the only CSRF protection on the callback.
package statetoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window of a state token
const TokenTTL = 5 * time.Minute

// ErrInvalidOrExpired is returned when a state token fails signature
// verification or its expiry has elapsed
var ErrInvalidOrExpired = errors.New("invalid or expired state token")

// Issuer signs and verifies state tokens with a symmetric key. It is a
// stateless cryptographic capability; nothing is stored.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates a state token issuer from the configured signing secret
func NewIssuer(secret string) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a token carrying the organization ID, valid for TokenTTL
func (i *Issuer) Issue(organizationID string) (string, error) {
	if organizationID == "" {
		return "", fmt.Errorf("organization ID cannot be empty")
	}

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"org_id": organizationID,
		"iat":    now.Unix(),
		"exp":    now.Add(TokenTTL).Unix(),
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign state token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the organization ID the
// token was issued for
func (i *Issuer) Verify(tokenString string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.secret, nil
		},
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidOrExpired
	}

	orgID, ok := claims["org_id"].(string)
	if !ok || orgID == "" {
		return "", ErrInvalidOrExpired
	}
	return orgID, nil
}
