// Package invites implements folder-invite persistence over a dbx.DBTX.
package invites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"unidrive/internal/common"
	"unidrive/internal/dbx"
	"unidrive/internal/server/models"
)

const uniqueViolation = "23505"

// PostgresRepository implements Repository over PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a pending invite. A second pending invite for the same
// (folder, invitee) violates the partial unique index and maps to
// ErrorUserAlreadyInFolder.
func (r *PostgresRepository) Create(ctx context.Context, invite *models.FolderInvite) error {
	query := `
		INSERT INTO folder_invites (invite_id, folder_id, inviter_user_id, invitee_user_id, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		invite.ID, invite.FolderID, invite.InviterID, invite.InviteeID, invite.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorUserAlreadyInFolder
		}
		return fmt.Errorf("failed to insert invite: %w", err)
	}
	return nil
}

// GetByID returns the invite row or ErrorInvalidInvite.
func (r *PostgresRepository) GetByID(ctx context.Context, inviteID string) (*models.FolderInvite, error) {
	query := `SELECT invite_id, folder_id, inviter_user_id, invitee_user_id, status, created_at
		FROM folder_invites WHERE invite_id = $1`

	var inv models.FolderInvite
	err := r.db.QueryRowContext(ctx, query, inviteID).Scan(
		&inv.ID, &inv.FolderID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorInvalidInvite
		}
		return nil, fmt.Errorf("failed to select invite: %w", err)
	}
	return &inv, nil
}

// SetStatus transitions a pending invite to a terminal state. An invite
// that is missing or already decided affects zero rows and maps to
// ErrorInvalidInvite: the transition happens at most once.
func (r *PostgresRepository) SetStatus(ctx context.Context, inviteID string, status models.InviteStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE folder_invites SET status = $2 WHERE invite_id = $1 AND status = 'pending'`,
		inviteID, status)
	if err != nil {
		return fmt.Errorf("failed to update invite: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return common.ErrorInvalidInvite
	}
	return nil
}

const inviteListColumns = `i.invite_id, i.folder_id, i.inviter_user_id, i.invitee_user_id, i.status, i.created_at,
		f.folder_name, ur.username, ue.username`

func (r *PostgresRepository) queryInvites(ctx context.Context, query string, args ...any) ([]*models.FolderInvite, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select invites: %w", err)
	}
	defer rows.Close()

	var result []*models.FolderInvite
	for rows.Next() {
		var inv models.FolderInvite
		err := rows.Scan(&inv.ID, &inv.FolderID, &inv.InviterID, &inv.InviteeID, &inv.Status,
			&inv.CreatedAt, &inv.FolderName, &inv.InviterUsername, &inv.InviteeUsername)
		if err != nil {
			return nil, err
		}
		result = append(result, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListReceived returns invites addressed to inviteeID, newest first, with
// denormalized folder and user names for listings.
func (r *PostgresRepository) ListReceived(ctx context.Context, inviteeID string, limit, offset int) ([]*models.FolderInvite, error) {
	query := `SELECT ` + inviteListColumns + `
		FROM folder_invites i
		JOIN folders f ON f.folder_id = i.folder_id
		JOIN users ur ON ur.user_id = i.inviter_user_id
		JOIN users ue ON ue.user_id = i.invitee_user_id
		WHERE i.invitee_user_id = $1
		ORDER BY i.created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryInvites(ctx, query, inviteeID, limit, offset)
}

// ListSent returns invites issued by inviterID, newest first.
func (r *PostgresRepository) ListSent(ctx context.Context, inviterID string, limit, offset int) ([]*models.FolderInvite, error) {
	query := `SELECT ` + inviteListColumns + `
		FROM folder_invites i
		JOIN folders f ON f.folder_id = i.folder_id
		JOIN users ur ON ur.user_id = i.inviter_user_id
		JOIN users ue ON ue.user_id = i.invitee_user_id
		WHERE i.inviter_user_id = $1
		ORDER BY i.created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryInvites(ctx, query, inviterID, limit, offset)
}

// DeletePendingForFolder removes outstanding invites when a folder is
// deleted. Decided invites cascade with the folder row.
func (r *PostgresRepository) DeletePendingForFolder(ctx context.Context, folderID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM folder_invites WHERE folder_id = $1 AND status = 'pending'`, folderID)
	if err != nil {
		return fmt.Errorf("failed to delete invites: %w", err)
	}
	return nil
}
