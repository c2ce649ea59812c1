// Package users implements identity-mirror persistence over a dbx.DBTX.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"unidrive/internal/common"
	"unidrive/internal/dbx"
	"unidrive/internal/server/models"
)

// PostgresRepository implements Repository over PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the identity row or ErrorGuestNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, username, email FROM users WHERE user_id = $1`, userID).
		Scan(&u.ID, &u.Username, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorGuestNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	return &u, nil
}

// GetByUsername returns the identity row or ErrorGuestNotFound.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, username, email FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorGuestNotFound
		}
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	return &u, nil
}

// Upsert refreshes the mirror row for an authenticated identity.
func (r *PostgresRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (user_id, username, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Username, user.Email); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}
