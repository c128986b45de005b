// Package auth provides authentication services for CellWay.
package auth

import (
	"net/mail"
	"time"
)

// Password length bounds. The upper bound is the bcrypt input limit.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// User represents an authenticated user in the system.
type User struct {
	ID           string    `json:"userId"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RegisterRequest represents the request body for account registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the register request.
func (r *RegisterRequest) Validate() []FieldError {
	var errs []FieldError
	errs = append(errs, validateEmail(r.Email)...)
	errs = append(errs, validatePassword(r.Password)...)
	return errs
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate validates the login request.
func (r *LoginRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Email == "" {
		errs = append(errs, FieldError{
			Field:   "email",
			Message: "email is required",
			Code:    "REQUIRED",
		})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{
			Field:   "password",
			Message: "password is required",
			Code:    "REQUIRED",
		})
	}

	return errs
}

// ForgotPasswordRequest represents the request body for a password reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate validates the forgot password request.
func (r *ForgotPasswordRequest) Validate() []FieldError {
	return validateEmail(r.Email)
}

// ResetPasswordRequest represents the request body for completing a password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Validate validates the reset password request.
func (r *ResetPasswordRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Token == "" {
		errs = append(errs, FieldError{
			Field:   "token",
			Message: "reset token is required",
			Code:    "REQUIRED",
		})
	}
	errs = append(errs, validatePasswordField(r.NewPassword, "newPassword")...)

	return errs
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenResponse represents the response after successful authentication.
type TokenResponse struct {
	// AccessToken is the JWT access token for API authentication.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	RefreshToken string `json:"refreshToken,omitempty"`

	// User contains the authenticated user's information.
	User *User `json:"user"`
}

// RefreshTokenRequest represents the request to refresh an access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate validates the refresh token request.
func (r *RefreshTokenRequest) Validate() []FieldError {
	var errs []FieldError

	if r.RefreshToken == "" {
		errs = append(errs, FieldError{
			Field:   "refreshToken",
			Message: "refresh token is required",
			Code:    "REQUIRED",
		})
	}

	return errs
}

func validateEmail(email string) []FieldError {
	if email == "" {
		return []FieldError{{
			Field:   "email",
			Message: "email is required",
			Code:    "REQUIRED",
		}}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return []FieldError{{
			Field:   "email",
			Message: "email is not valid",
			Code:    "INVALID",
		}}
	}
	return nil
}

func validatePassword(password string) []FieldError {
	return validatePasswordField(password, "password")
}

func validatePasswordField(password, field string) []FieldError {
	if password == "" {
		return []FieldError{{
			Field:   field,
			Message: "password is required",
			Code:    "REQUIRED",
		}}
	}
	if len(password) < MinPasswordLength {
		return []FieldError{{
			Field:   field,
			Message: "password must be at least 8 characters",
			Code:    "TOO_SHORT",
		}}
	}
	if len(password) > MaxPasswordLength {
		return []FieldError{{
			Field:   field,
			Message: "password must be at most 72 characters",
			Code:    "TOO_LONG",
		}}
	}
	return nil
}
