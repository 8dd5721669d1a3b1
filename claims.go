package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenClaims is the claim set carried by every token the service
// issues. The subject is the account email; uid carries the user id so
// guarded handlers can act without a store lookup.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID string `json:"uid,omitempty"`
}

// Email returns the account email the token was issued for.
func (c *TokenClaims) Email() string {
	return c.Subject
}

// UserID returns the raw uid claim.
func (c *TokenClaims) UserID() string {
	return c.UID
}

// UserUUID parses the uid claim as a UUID.
func (c *TokenClaims) UserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UID)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CategoryAuth, "token carries no valid user id").
			WithTextCode(TextCodeInvalidToken)
	}
	return id, nil
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
