package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellway/cellway/internal/auth"
)

// captureMailer records reset tokens instead of sending mail.
type captureMailer struct {
	mu     sync.Mutex
	emails []string
	tokens []string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, email)
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *captureMailer) lastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tokens) == 0 {
		return ""
	}
	return m.tokens[len(m.tokens)-1]
}

func newTestService() (*auth.Service, *captureMailer) {
	mailer := &captureMailer{}
	svc := auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: "test-secret-key-for-testing-only",
			Issuer:     "https://api.cellway.app",
			Audience:   "cellway-api",
		}),
		UserRepo:    auth.NewInMemoryUserRepository(),
		RefreshRepo: auth.NewInMemoryRefreshTokenRepository(),
		ResetRepo:   auth.NewInMemoryResetTokenRepository(),
		Mailer:      mailer,
	})
	return svc, mailer
}

func TestService_Register(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &auth.RegisterRequest{
		Email:    "Rider@Example.COM",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.User.ID, "usr_"))
	assert.Equal(t, "rider@example.com", resp.User.Email, "email should be normalized")
	assert.Empty(t, resp.User.PasswordHash, "hash must not leak through JSON")
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)

	// The access token is immediately usable.
	userID, err := svc.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, userID)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &auth.RegisterRequest{Email: "rider@example.com", Password: "password123"})
	require.NoError(t, err)

	// Same address with different casing.
	_, err = svc.Register(ctx, &auth.RegisterRequest{Email: "RIDER@example.com", Password: "password456"})
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestService_Register_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *auth.RegisterRequest
	}{
		{"missing email", &auth.RegisterRequest{Password: "password123"}},
		{"invalid email", &auth.RegisterRequest{Email: "not-an-email", Password: "password123"}},
		{"missing password", &auth.RegisterRequest{Email: "rider@example.com"}},
		{"short password", &auth.RegisterRequest{Email: "rider@example.com", Password: "short"}},
		{"over-long password", &auth.RegisterRequest{Email: "rider@example.com", Password: strings.Repeat("x", 73)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.Error(t, err)
		})
	}
}

func TestService_Login(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &auth.RegisterRequest{Email: "rider@example.com", Password: "password123"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &auth.LoginRequest{Email: "Rider@Example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "rider@example.com", resp.User.Email)
}

func TestService_Login_GenericError(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, &auth.RegisterRequest{Email: "rider@example.com", Password: "password123"})
	require.NoError(t, err)

	// Wrong password and unknown email produce the same error.
	_, errWrongPass := svc.Login(ctx, &auth.LoginRequest{Email: "rider@example.com", Password: "wrong-password"})
	_, errNoUser := svc.Login(ctx, &auth.LoginRequest{Email: "nobody@example.com", Password: "password123"})

	assert.ErrorIs(t, errWrongPass, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, errNoUser, auth.ErrInvalidCredentials)
}

func TestService_RefreshAccessToken_Rotation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, &auth.RegisterRequest{Email: "rider@example.com", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshAccessToken(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, refreshed.RefreshToken, "refresh token should rotate")

	// The old token is revoked.
	_, err = svc.RefreshAccessToken(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	// The new one works.
	_, err = svc.RefreshAccessToken(ctx, refreshed.RefreshToken)
	assert.NoError(t, err)
}

func TestService_RefreshAccessToken_Unknown(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.RefreshAccessToken(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_Logout(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	resp, err := svc.Register(ctx, &auth.RegisterRequest{Email: "rider@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeRefreshToken(ctx, resp.RefreshToken))

	_, err = svc.RefreshAccessToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_LogoutAll(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Register(ctx, &auth.RegisterRequest{Email: "rider@example.com", Password: "password123"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, &auth.LoginRequest{Email: "rider@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllTokens(ctx, first.User.ID))

	_, err = svc.RefreshAccessToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	_, err = svc.RefreshAccessToken(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestService_PasswordReset_Flow(t *testing.T) {
	svc, mailer := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, &auth.RegisterRequest{Email: "rider@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, &auth.ForgotPasswordRequest{Email: "rider@example.com"}))
	token := mailer.lastToken()
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(ctx, &auth.ResetPasswordRequest{
		Token:       token,
		NewPassword: "new-password-456",
	}))

	// Old password no longer works, new one does.
	_, err = svc.Login(ctx, &auth.LoginRequest{Email: "rider@example.com", Password: "password123"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = svc.Login(ctx, &auth.LoginRequest{Email: "rider@example.com", Password: "new-password-456"})
	assert.NoError(t, err)

	// Open sessions are revoked by the reset.
	_, err = svc.RefreshAccessToken(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

	// The token is single-use.
	err = svc.ResetPassword(ctx, &auth.ResetPasswordRequest{
		Token:       token,
		NewPassword: "another-password-789",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
}

func TestService_ForgotPassword_UnknownEmailSilent(t *testing.T) {
	svc, mailer := newTestService()

	err := svc.ForgotPassword(context.Background(), &auth.ForgotPasswordRequest{Email: "nobody@example.com"})
	assert.NoError(t, err, "unknown emails must not be distinguishable")
	assert.Empty(t, mailer.tokens)
}

func TestService_ResetPassword_InvalidToken(t *testing.T) {
	svc, _ := newTestService()

	err := svc.ResetPassword(context.Background(), &auth.ResetPasswordRequest{
		Token:       "bogus",
		NewPassword: "new-password-456",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidResetToken)
}
