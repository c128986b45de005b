package auth

import (
	"context"

	"github.com/rs/zerolog"
)

// Mailer delivers account mail. SMTP wiring lives in deployment; the
// dev mailer just logs the reset link.
type Mailer interface {
	// SendPasswordReset delivers a password reset token to the address.
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer is a Mailer that writes reset links to the log instead of
// sending mail. Intended for local development.
type LogMailer struct {
	// ResetURLBase is prepended to the token to form the reset link,
	// e.g. "https://app.cellway.app/reset-password?token=".
	ResetURLBase string

	Logger zerolog.Logger
}

// SendPasswordReset logs the reset link.
func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.Logger.Info().
		Str("email", email).
		Str("reset_url", m.ResetURLBase+token).
		Msg("password reset requested")
	return nil
}
