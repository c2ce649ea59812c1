// Package folders implements folder persistence, aggregate counters, and
// membership rows over a dbx.DBTX.
package folders

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

func orderClause(sort models.Sort) string {
	switch sort {
	case models.SortByName:
		return "folder_name ASC"
	case models.SortBySize:
		return "size ASC"
	case models.SortByLastCreated:
		return "created_at DESC"
	default:
		return "created_at ASC"
	}
}

// Create inserts a folder row. A unique-index violation on
// (user_id, parent_folder_id, folder_name) maps to
// ErrorFolderNameAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := `
		INSERT INTO folders (folder_id, user_id, parent_folder_id, folder_name, folder_type, size, number_files, path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		folder.ID, folder.UserID, folder.ParentFolderID, folder.Name,
		folder.Type, folder.Size, folder.NumberFiles, folder.Path)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorFolderNameAlreadyExists
		}
		return fmt.Errorf("failed to insert folder: %w", err)
	}
	return nil
}

const folderColumns = `folder_id, user_id, parent_folder_id, folder_name, folder_type, size, number_files, path, created_at, updated_at`

func scanFolder(row interface{ Scan(...any) error }) (*models.Folder, error) {
	var f models.Folder
	err := row.Scan(&f.ID, &f.UserID, &f.ParentFolderID, &f.Name, &f.Type,
		&f.Size, &f.NumberFiles, &f.Path, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID returns the folder row or ErrorFolderNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, folderID string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE folder_id = $1`

	f, err := scanFolder(r.db.QueryRowContext(ctx, query, folderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorFolderNotFound
		}
		return nil, fmt.Errorf("failed to select folder: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) queryFolders(ctx context.Context, query string, args ...any) ([]*models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListChildren returns the owner's sub-folders of one parent group.
func (r *PostgresRepository) ListChildren(ctx context.Context, userID string, parentID *string, limit, offset int, sort models.Sort) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders
		WHERE user_id = $1 AND parent_folder_id IS NOT DISTINCT FROM $2
		ORDER BY ` + orderClause(sort) + `
		LIMIT $3 OFFSET $4`
	return r.queryFolders(ctx, query, userID, parentID, limit, offset)
}

// ListChildrenAll returns every direct sub-folder without pagination.
// Used by recursive folder deletion.
func (r *PostgresRepository) ListChildrenAll(ctx context.Context, parentID string) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_folder_id = $1`
	return r.queryFolders(ctx, query, parentID)
}

// ListOwned returns folders owned by userID, optionally filtered by a name
// search.
func (r *PostgresRepository) ListOwned(ctx context.Context, userID, search string, limit, offset int, sort models.Sort) ([]*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders
		WHERE user_id = $1 AND ($2 = '' OR folder_name ILIKE '%' || $2 || '%')
		ORDER BY ` + orderClause(sort) + `
		LIMIT $3 OFFSET $4`
	return r.queryFolders(ctx, query, userID, search, limit, offset)
}

// ListMemberOf returns shared folders the user joined through an accepted
// invite.
func (r *PostgresRepository) ListMemberOf(ctx context.Context, userID, search string, limit, offset int, sort models.Sort) ([]*models.Folder, error) {
	query := `SELECT f.folder_id, f.user_id, f.parent_folder_id, f.folder_name, f.folder_type, f.size, f.number_files, f.path, f.created_at, f.updated_at
		FROM folders f
		JOIN folder_members m ON m.folder_id = f.folder_id
		WHERE m.user_id = $1 AND ($2 = '' OR f.folder_name ILIKE '%' || $2 || '%')
		ORDER BY f.` + orderClause(sort) + `
		LIMIT $3 OFFSET $4`
	return r.queryFolders(ctx, query, userID, search, limit, offset)
}

// NameExists is the advisory pre-check for name collisions in scope.
func (r *PostgresRepository) NameExists(ctx context.Context, userID string, parentID *string, name string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM folders
		WHERE user_id = $1 AND parent_folder_id IS NOT DISTINCT FROM $2 AND folder_name = $3
	)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, parentID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check folder name: %w", err)
	}
	return exists, nil
}

// BumpAggregates adjusts the derived counters and bumps updated_at. Called
// inside the same transaction as the file mutation it accounts for.
func (r *PostgresRepository) BumpAggregates(ctx context.Context, folderID string, deltaSize, deltaFiles int64) error {
	query := `UPDATE folders
		SET size = size + $2, number_files = number_files + $3, updated_at = now()
		WHERE folder_id = $1`

	result, err := r.db.ExecContext(ctx, query, folderID, deltaSize, deltaFiles)
	if err != nil {
		return fmt.Errorf("failed to update folder aggregates: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return common.ErrorFolderNotFound
	}
	return nil
}

// SetType flips the folder's privacy state.
func (r *PostgresRepository) SetType(ctx context.Context, folderID string, t models.FolderType) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE folders SET folder_type = $2, updated_at = now() WHERE folder_id = $1`, folderID, t)
	if err != nil {
		return fmt.Errorf("failed to set folder type: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return common.ErrorFolderNotFound
	}
	return nil
}

// Delete removes a folder row; contained files, sub-folders, invites, and
// memberships cascade at the schema level, but the service deletes blobs
// first.
func (r *PostgresRepository) Delete(ctx context.Context, folderID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE folder_id = $1`, folderID)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return common.ErrorFolderNotFound
	}
	return nil
}

// AddMember records a membership. Duplicate membership maps to
// ErrorUserAlreadyInFolder.
func (r *PostgresRepository) AddMember(ctx context.Context, folderID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO folder_members (folder_id, user_id) VALUES ($1, $2)`, folderID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorUserAlreadyInFolder
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row; a missing row maps to
// ErrorUserNotInFolder.
func (r *PostgresRepository) RemoveMember(ctx context.Context, folderID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM folder_members WHERE folder_id = $1 AND user_id = $2`, folderID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return common.ErrorUserNotInFolder
	}
	return nil
}

// IsMember reports whether userID joined the folder via an accepted invite.
// The owner is an implicit member and has no row here.
func (r *PostgresRepository) IsMember(ctx context.Context, folderID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM folder_members WHERE folder_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, folderID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

// ListMemberIDs returns the non-owner member ids of a folder.
func (r *PostgresRepository) ListMemberIDs(ctx context.Context, folderID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM folder_members WHERE folder_id = $1`, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select members: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
