package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// GetUserByUsername retrieves a user by username
func (p *PostgresClient) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := p.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, role, created_at, last_login_at,
		       failed_login_attempts, locked_until
		FROM users
		WHERE username = $1
	`, username).Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.Role,
		&user.CreatedAt, &user.LastLoginAt, &user.FailedLoginAttempts, &user.LockedUntil,
	)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (p *PostgresClient) GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	err := p.pool.QueryRow(ctx, `
		SELECT id, username, role, created_at, last_login_at, failed_login_attempts, locked_until
		FROM users WHERE id = $1
	`, userID).Scan(
		&user.ID, &user.Username, &user.Role, &user.CreatedAt,
		&user.LastLoginAt, &user.FailedLoginAttempts, &user.LockedUntil,
	)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (p *PostgresClient) CreateUser(ctx context.Context, username, passwordHash, role string) (*User, error) {
	var user User
	err := p.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, username, role, created_at, last_login_at, failed_login_attempts, locked_until
	`, username, passwordHash, role).Scan(
		&user.ID, &user.Username, &user.Role, &user.CreatedAt,
		&user.LastLoginAt, &user.FailedLoginAttempts, &user.LockedUntil,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("user %s: %w", username, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (p *PostgresClient) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, username, role, created_at, last_login_at, failed_login_attempts, locked_until
		FROM users ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		var user User
		err := rows.Scan(
			&user.ID, &user.Username, &user.Role, &user.CreatedAt,
			&user.LastLoginAt, &user.FailedLoginAttempts, &user.LockedUntil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

func (p *PostgresClient) UpdateUserPassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return p.execOne(ctx, "user", `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
}

func (p *PostgresClient) UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error {
	return p.execOne(ctx, "user", `UPDATE users SET role = $1 WHERE id = $2`, role, userID)
}

func (p *PostgresClient) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return p.execOne(ctx, "user", `DELETE FROM users WHERE id = $1`, userID)
}

func (p *PostgresClient) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID)
	return err
}

// RecordFailedLogin increments the failure counter and locks the account
// for lockFor once maxAttempts is reached.
func (p *PostgresClient) RecordFailedLogin(ctx context.Context, userID uuid.UUID, maxAttempts int, lockFor time.Duration) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN NOW() + $3::interval
		        ELSE locked_until
		    END
		WHERE id = $1
	`, userID, maxAttempts, lockFor)
	return err
}

func (p *PostgresClient) ResetFailedLogins(ctx context.Context, userID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL
		WHERE id = $1
	`, userID)
	return err
}

// API tokens

func (p *PostgresClient) CreateAPIToken(ctx context.Context, tokenHash, name string, permissions []string, createdByUserID *uuid.UUID, metadata map[string]any) (*APIToken, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	var token APIToken
	err := p.pool.QueryRow(ctx, `
		INSERT INTO api_tokens (token_hash, name, permissions, created_by_user_id, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, token_hash, name, permissions, created_at, last_used_at, created_by_user_id, metadata
	`, tokenHash, name, permissions, createdByUserID, metadata).Scan(
		&token.ID, &token.TokenHash, &token.Name, &token.Permissions,
		&token.CreatedAt, &token.LastUsedAt, &token.CreatedByUserID, &token.Metadata,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api token: %w", err)
	}
	return &token, nil
}

func (p *PostgresClient) GetAPITokenByHash(ctx context.Context, tokenHash string) (*APIToken, error) {
	var token APIToken
	err := p.pool.QueryRow(ctx, `
		SELECT id, token_hash, name, permissions, created_at, last_used_at, created_by_user_id, metadata
		FROM api_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(
		&token.ID, &token.TokenHash, &token.Name, &token.Permissions,
		&token.CreatedAt, &token.LastUsedAt, &token.CreatedByUserID, &token.Metadata,
	)
	if err != nil {
		return nil, notFound(err, "api token")
	}
	return &token, nil
}

func (p *PostgresClient) UpdateAPITokenLastUsed(ctx context.Context, tokenID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `UPDATE api_tokens SET last_used_at = NOW() WHERE id = $1`, tokenID)
	return err
}

func (p *PostgresClient) ListAPITokens(ctx context.Context) ([]*APIToken, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, permissions, created_at, last_used_at, created_by_user_id, metadata
		FROM api_tokens
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list api tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]*APIToken, 0)
	for rows.Next() {
		var token APIToken
		err := rows.Scan(
			&token.ID, &token.Name, &token.Permissions, &token.CreatedAt,
			&token.LastUsedAt, &token.CreatedByUserID, &token.Metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan api token: %w", err)
		}
		tokens = append(tokens, &token)
	}
	return tokens, rows.Err()
}

func (p *PostgresClient) UpdateAPIToken(ctx context.Context, tokenID uuid.UUID, name *string, metadata map[string]any) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if name != nil {
		if _, err := tx.Exec(ctx, `UPDATE api_tokens SET name = $1 WHERE id = $2`, *name, tokenID); err != nil {
			return fmt.Errorf("failed to rename api token: %w", err)
		}
	}
	if metadata != nil {
		if _, err := tx.Exec(ctx, `UPDATE api_tokens SET metadata = $1 WHERE id = $2`, metadata, tokenID); err != nil {
			return fmt.Errorf("failed to update api token metadata: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (p *PostgresClient) DeleteAPIToken(ctx context.Context, tokenID uuid.UUID) error {
	return p.execOne(ctx, "api token", `DELETE FROM api_tokens WHERE id = $1`, tokenID)
}

// Refresh tokens

func (p *PostgresClient) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	return err
}

// GetRefreshToken returns the owner of a live refresh token. Revoked and
// expired tokens are reported as ErrNotFound.
func (p *PostgresClient) GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	var userID uuid.UUID
	var expiresAt time.Time
	var revokedAt *time.Time

	err := p.pool.QueryRow(ctx, `
		SELECT user_id, expires_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`, tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return uuid.Nil, notFound(err, "refresh token")
	}

	if revokedAt != nil {
		return uuid.Nil, fmt.Errorf("refresh token revoked: %w", ErrNotFound)
	}
	if time.Now().After(expiresAt) {
		return uuid.Nil, fmt.Errorf("refresh token expired: %w", ErrNotFound)
	}

	return userID, nil
}

func (p *PostgresClient) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, tokenHash)
	return err
}

func (p *PostgresClient) RevokeAllUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`, userID)
	return err
}

func (p *PostgresClient) LogAuthEvent(ctx context.Context, ev AuthEvent) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO auth_events (event_type, user_id, api_token_id, ip_address, user_agent, success, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ev.Type, ev.UserID, ev.APITokenID, ev.IPAddress, ev.UserAgent, ev.Success, ev.Reason)
	return err
}

func (p *PostgresClient) execOne(ctx context.Context, what, sql string, args ...any) error {
	result, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
