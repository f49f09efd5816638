package services

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamService_Credentials(t *testing.T) {
	svc := NewStreamService("key123", "secret456")
	user := &models.User{ID: "abc", Email: "stream@sandwich.org"}

	creds, err := svc.Credentials(user)
	require.NoError(t, err)
	assert.Equal(t, "key123", creds.APIKey)
	assert.Equal(t, "user_abc", creds.StreamUserID)

	// The token must be an HS256 JWT whose user_id claim carries the
	// prefixed ID, verifiable with the API secret.
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(creds.UserToken, claims, func(t *jwt.Token) (any, error) {
		return []byte("secret456"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)
	assert.Equal(t, "user_abc", claims["user_id"])
}

func TestStreamService_NotConfigured(t *testing.T) {
	svc := NewStreamService("", "")
	_, err := svc.Credentials(&models.User{ID: "abc"})
	assert.ErrorIs(t, err, pkg.ErrInternal)
}
