package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of an access token.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// StreamCredentials is returned by the Stream Chat credentials endpoint.
// The client connects to Stream directly with these; the server only mints
// the token.
type StreamCredentials struct {
	APIKey       string `json:"apiKey"`
	UserToken    string `json:"userToken"`
	StreamUserID string `json:"streamUserId"`
}
