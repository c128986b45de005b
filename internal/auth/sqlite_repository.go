package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// EnsureSQLiteSchema creates the auth tables if they don't exist.
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			id TEXT PRIMARY KEY,
			token TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			revoked_at TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens (user_id);
		CREATE TABLE IF NOT EXISTS reset_tokens (
			token TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			used_at TEXT
		);
	`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SQLiteUserRepository is a SQLite implementation of UserRepository.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// FindByEmail finds a user by their normalized email address.
func (r *SQLiteUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findUser(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = ?`, email)
}

// FindByID finds a user by their internal ID.
func (r *SQLiteUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findUser(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE id = ?`, id)
}

func (r *SQLiteUserRepository) findUser(ctx context.Context, query string, arg any) (*User, error) {
	var (
		user      User
		createdAt string
		updatedAt string
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.CreatedAt = parseSQLiteTime(createdAt)
	user.UpdatedAt = parseSQLiteTime(updatedAt)
	return &user, nil
}

// Create creates a new user.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		formatSQLiteTime(user.CreatedAt),
		formatSQLiteTime(user.UpdatedAt),
	)
	return err
}

// UpdatePassword replaces a user's password hash.
func (r *SQLiteUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, formatSQLiteTime(time.Now()), userID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SQLiteRefreshTokenRepository is a SQLite implementation of RefreshTokenRepository.
type SQLiteRefreshTokenRepository struct {
	db *sql.DB
}

// NewSQLiteRefreshTokenRepository creates a new SQLite refresh token repository.
func NewSQLiteRefreshTokenRepository(db *sql.DB) *SQLiteRefreshTokenRepository {
	return &SQLiteRefreshTokenRepository{db: db}
}

// Create stores a new refresh token.
func (r *SQLiteRefreshTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.Token,
		token.UserID,
		formatSQLiteTime(token.ExpiresAt),
		formatSQLiteTime(token.CreatedAt),
		formatSQLiteTimePtr(token.RevokedAt),
	)
	return err
}

// FindByToken finds a refresh token by its value.
func (r *SQLiteRefreshTokenRepository) FindByToken(ctx context.Context, tokenValue string) (*RefreshToken, error) {
	query := `
		SELECT id, token, user_id, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token = ?
	`

	var (
		token     RefreshToken
		expiresAt string
		createdAt string
		revokedAt sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, tokenValue).Scan(
		&token.ID,
		&token.Token,
		&token.UserID,
		&expiresAt,
		&createdAt,
		&revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	token.ExpiresAt = parseSQLiteTime(expiresAt)
	token.CreatedAt = parseSQLiteTime(createdAt)
	if revokedAt.Valid {
		ts := parseSQLiteTime(revokedAt.String)
		token.RevokedAt = &ts
	}
	return &token, nil
}

// Revoke marks a refresh token as revoked.
func (r *SQLiteRefreshTokenRepository) Revoke(ctx context.Context, tokenValue string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL`,
		formatSQLiteTime(time.Now()), tokenValue,
	)
	return err
}

// RevokeAllForUser revokes all refresh tokens for a user.
func (r *SQLiteRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		formatSQLiteTime(time.Now()), userID,
	)
	return err
}

// SQLiteResetTokenRepository is a SQLite implementation of ResetTokenRepository.
type SQLiteResetTokenRepository struct {
	db *sql.DB
}

// NewSQLiteResetTokenRepository creates a new SQLite reset token repository.
func NewSQLiteResetTokenRepository(db *sql.DB) *SQLiteResetTokenRepository {
	return &SQLiteResetTokenRepository{db: db}
}

// Create stores a new reset token.
func (r *SQLiteResetTokenRepository) Create(ctx context.Context, token *ResetToken) error {
	query := `
		INSERT INTO reset_tokens (token, user_id, expires_at, created_at, used_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		token.Token,
		token.UserID,
		formatSQLiteTime(token.ExpiresAt),
		formatSQLiteTime(token.CreatedAt),
		formatSQLiteTimePtr(token.UsedAt),
	)
	return err
}

// FindByToken finds a reset token by its value.
func (r *SQLiteResetTokenRepository) FindByToken(ctx context.Context, tokenValue string) (*ResetToken, error) {
	query := `
		SELECT token, user_id, expires_at, created_at, used_at
		FROM reset_tokens
		WHERE token = ?
	`

	var (
		token     ResetToken
		expiresAt string
		createdAt string
		usedAt    sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, tokenValue).Scan(
		&token.Token,
		&token.UserID,
		&expiresAt,
		&createdAt,
		&usedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}

	token.ExpiresAt = parseSQLiteTime(expiresAt)
	token.CreatedAt = parseSQLiteTime(createdAt)
	if usedAt.Valid {
		ts := parseSQLiteTime(usedAt.String)
		token.UsedAt = &ts
	}
	return &token, nil
}

// MarkUsed marks a reset token as consumed.
func (r *SQLiteResetTokenRepository) MarkUsed(ctx context.Context, tokenValue string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reset_tokens SET used_at = ? WHERE token = ? AND used_at IS NULL`,
		formatSQLiteTime(time.Now()), tokenValue,
	)
	return err
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatSQLiteTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatSQLiteTime(*t)
}

func parseSQLiteTime(s string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}
