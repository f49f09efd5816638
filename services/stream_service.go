package services

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sandwichproject/platform/models"
	"github.com/sandwichproject/platform/pkg"
)

// StreamService mints credentials for the hosted Stream Chat surface.
// The server's only involvement with Stream is signing the user token;
// the client talks to Stream directly from there.
type StreamService interface {
	Credentials(user *models.User) (*models.StreamCredentials, error)
}

type streamService struct {
	apiKey    string
	apiSecret []byte
}

// NewStreamService builds the service. Empty credentials are allowed;
// the endpoint then reports the integration as unavailable.
func NewStreamService(apiKey, apiSecret string) StreamService {
	return &streamService{apiKey: apiKey, apiSecret: []byte(apiSecret)}
}

// Credentials returns the API key plus a signed user token. Stream
// expects an HS256 JWT whose user_id claim matches the connecting user.
func (s *streamService) Credentials(user *models.User) (*models.StreamCredentials, error) {
	if s.apiKey == "" || len(s.apiSecret) == 0 {
		return nil, fmt.Errorf("%w: stream chat is not configured", pkg.ErrInternal)
	}

	streamUserID := "user_" + user.ID

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": streamUserID,
	})
	signed, err := token.SignedString(s.apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign stream token: %w", err)
	}

	return &models.StreamCredentials{
		APIKey:       s.apiKey,
		UserToken:    signed,
		StreamUserID: streamUserID,
	}, nil
}
