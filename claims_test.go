package auth_test

import (
	"testing"

	"github.com/castlink/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenClaims(t *testing.T) {
	userID := uuid.New()

	claims := &auth.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "a@example.com",
		},
		UID: userID.String(),
	}

	t.Run("Email returns the subject", func(t *testing.T) {
		assert.Equal(t, "a@example.com", claims.Email())
	})

	t.Run("UserUUID parses the uid claim", func(t *testing.T) {
		parsed, err := claims.UserUUID()
		require.NoError(t, err)
		assert.Equal(t, userID, parsed)
	})

	t.Run("UserUUID fails on a non-uuid uid", func(t *testing.T) {
		bad := &auth.TokenClaims{UID: "not-a-uuid"}
		_, err := bad.UserUUID()
		assert.Error(t, err)
	})
}
