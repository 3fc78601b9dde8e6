package dto

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GoogleUserInfo holds user information obtained from Google.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}

// AuthClaims defines the custom claims for JWT.
type AuthClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"` // "access" or "refresh"
	jwt.RegisteredClaims
}

// TokenResponse represents the response containing access and refresh tokens.
// @Description Response body for authentication tokens
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenRequest represents the request body for refreshing a token.
// @Description Request body for refreshing JWT tokens
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ProfileResponse is the caller's own profile.
// @Description Profile information for the authenticated user
type ProfileResponse struct {
	ID            string     `json:"id"`
	DisplayName   string     `json:"display_name,omitempty"`
	IsPremium     bool       `json:"is_premium"`
	PremiumExpiry *time.Time `json:"premium_expiry,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// UpdateProfileRequest updates the caller's own profile fields.
// @Description Request body for profile self-edit
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
}

// BillingWebhookRequest is the payload the payment collaborator posts when a
// subscription changes.
// @Description Premium entitlement update from the billing provider
type BillingWebhookRequest struct {
	UserID        string     `json:"user_id" validate:"required"`
	IsPremium     bool       `json:"is_premium"`
	PremiumExpiry *time.Time `json:"premium_expiry,omitempty"`
	BillingRef    string     `json:"billing_ref,omitempty"`
}

// MessageResponse represents a generic message response.
// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}
