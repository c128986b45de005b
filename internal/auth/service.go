package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the bcrypt work factor for password hashing.
const BcryptCost = 12

// ResetTokenExpiry is how long password reset tokens are valid.
const ResetTokenExpiry = 1 * time.Hour

// Predefined service errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// FindByEmail finds a user by their normalized email address.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// FindByID finds a user by their internal ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// UpdatePassword replaces a user's password hash.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// RefreshTokenRepository defines the interface for refresh token operations.
type RefreshTokenRepository interface {
	// Create stores a new refresh token.
	Create(ctx context.Context, token *RefreshToken) error

	// FindByToken finds a refresh token by its value.
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// Revoke marks a refresh token as revoked.
	Revoke(ctx context.Context, token string) error

	// RevokeAllForUser revokes all refresh tokens for a user.
	RevokeAllForUser(ctx context.Context, userID string) error
}

// ResetToken is a single-use password reset token.
type ResetToken struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
}

// ResetTokenRepository defines the interface for password reset token operations.
type ResetTokenRepository interface {
	// Create stores a new reset token.
	Create(ctx context.Context, token *ResetToken) error

	// FindByToken finds a reset token by its value.
	FindByToken(ctx context.Context, token string) (*ResetToken, error)

	// MarkUsed marks a reset token as consumed.
	MarkUsed(ctx context.Context, token string) error
}

// Service provides authentication operations.
type Service struct {
	jwtService  *JWTService
	userRepo    UserRepository
	refreshRepo RefreshTokenRepository
	resetRepo   ResetTokenRepository
	mailer      Mailer
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService  *JWTService
	UserRepo    UserRepository
	RefreshRepo RefreshTokenRepository
	ResetRepo   ResetTokenRepository
	Mailer      Mailer
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		jwtService:  cfg.JWTService,
		userRepo:    cfg.UserRepo,
		refreshRepo: cfg.RefreshRepo,
		resetRepo:   cfg.ResetRepo,
		mailer:      cfg.Mailer,
	}
}

// Register creates a new account and returns API tokens.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*TokenResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation error: %s", errs[0].Message)
	}

	email := NormalizeEmail(req.Email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:           generateUserID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return s.generateTokens(ctx, user)
}

// Login authenticates a user by email and password. Unknown emails and
// wrong passwords return the same generic error.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenResponse, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation error: %s", errs[0].Message)
	}

	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(ctx, user)
}

// RefreshAccessToken refreshes an access token using a refresh token.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshTokenStr string) (*TokenResponse, error) {
	// Find the refresh token
	refreshToken, err := s.refreshRepo.FindByToken(ctx, refreshTokenStr)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// Check if token is valid
	if refreshToken.RevokedAt != nil {
		return nil, ErrInvalidRefreshToken
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	// Get the user
	user, err := s.userRepo.FindByID(ctx, refreshToken.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// Revoke the old refresh token (rotation)
	if err := s.refreshRepo.Revoke(ctx, refreshTokenStr); err != nil {
		return nil, fmt.Errorf("revoking old refresh token: %w", err)
	}

	// Generate new tokens
	return s.generateTokens(ctx, user)
}

// ValidateAccessToken validates an access token and returns the user ID.
func (s *Service) ValidateAccessToken(tokenString string) (string, error) {
	claims, err := s.jwtService.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// GetUser retrieves a user by ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// RevokeRefreshToken revokes a specific refresh token.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshTokenStr string) error {
	return s.refreshRepo.Revoke(ctx, refreshTokenStr)
}

// RevokeAllTokens revokes all refresh tokens for a user (logout everywhere).
func (s *Service) RevokeAllTokens(ctx context.Context, userID string) error {
	return s.refreshRepo.RevokeAllForUser(ctx, userID)
}

// ForgotPassword issues a single-use reset token and mails it to the
// user. Unknown emails succeed silently so the endpoint doesn't reveal
// which addresses have accounts.
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	if errs := req.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation error: %s", errs[0].Message)
	}

	email := NormalizeEmail(req.Email)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	now := time.Now()
	token := &ResetToken{
		Token:     uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(ResetTokenExpiry),
		CreatedAt: now,
	}

	if err := s.resetRepo.Create(ctx, token); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token.Token); err != nil {
		return fmt.Errorf("sending reset mail: %w", err)
	}

	return nil
}

// ResetPassword consumes a reset token, sets the new password, and
// revokes all refresh tokens for the account.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if errs := req.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation error: %s", errs[0].Message)
	}

	token, err := s.resetRepo.FindByToken(ctx, req.Token)
	if err != nil {
		return ErrInvalidResetToken
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return ErrInvalidResetToken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), BcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, token.UserID, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if err := s.resetRepo.MarkUsed(ctx, req.Token); err != nil {
		return fmt.Errorf("consuming reset token: %w", err)
	}

	// A reset invalidates every open session.
	return s.refreshRepo.RevokeAllForUser(ctx, token.UserID)
}

// generateTokens generates both access and refresh tokens for a user.
func (s *Service) generateTokens(ctx context.Context, user *User) (*TokenResponse, error) {
	// Generate access token
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generating access token: %w", err)
	}

	// Generate refresh token
	refreshTokenStr, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	// Store refresh token
	refreshToken := &RefreshToken{
		ID:        uuid.New().String(),
		Token:     refreshTokenStr,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}

	if err := s.refreshRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(expiresAt).Seconds()),
		RefreshToken: refreshTokenStr,
		User:         user,
	}, nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateUserID generates a unique user ID with prefix.
func generateUserID() string {
	return "usr_" + uuid.New().String()[:22]
}
