// Package files implements file-metadata persistence over a dbx.DBTX
// (*sql.DB or *sql.Tx).
package files

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

// orderClause maps the fixed sort vocabulary to SQL. Values never come from
// user input directly; models.ParseSort has already normalized them.
func orderClause(sort models.Sort, nameColumn string) string {
	switch sort {
	case models.SortByName:
		return nameColumn + " ASC"
	case models.SortBySize:
		return "size ASC"
	case models.SortByLastCreated:
		return "created_at DESC"
	default:
		return "created_at ASC"
	}
}

// Create inserts a file row. A unique-index violation on
// (user_id, folder_id, file_name) maps to ErrorFileNameAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (file_id, user_id, folder_id, file_name, path, size, content_type, checksum, encryption, encryption_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.UserID, file.FolderID, file.Name, file.Path,
		file.Size, file.ContentType, file.Checksum, file.Encryption, file.EncryptedKey)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorFileNameAlreadyExists
		}
		return fmt.Errorf("failed to insert file: %w", err)
	}
	return nil
}

const fileColumns = `file_id, user_id, folder_id, file_name, path, size, content_type, checksum, encryption, encryption_key, created_at, updated_at`

func scanFile(row interface{ Scan(...any) error }) (*models.File, error) {
	var f models.File
	err := row.Scan(&f.ID, &f.UserID, &f.FolderID, &f.Name, &f.Path, &f.Size,
		&f.ContentType, &f.Checksum, &f.Encryption, &f.EncryptedKey, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID returns the file row for fileID or ErrorFileNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, fileID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE file_id = $1`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorFileNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

// GetInFolder returns the file only if it sits in the given folder group
// (nil folderID is the root group).
func (r *PostgresRepository) GetInFolder(ctx context.Context, folderID *string, fileID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE file_id = $1 AND folder_id IS NOT DISTINCT FROM $2`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID, folderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorFileNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) queryFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
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

// List returns the owner's files in one folder group with limit/offset
// pagination.
func (r *PostgresRepository) List(ctx context.Context, userID string, folderID *string, limit, offset int, sort models.Sort) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE user_id = $1 AND folder_id IS NOT DISTINCT FROM $2
		ORDER BY ` + orderClause(sort, "file_name") + `
		LIMIT $3 OFFSET $4`
	return r.queryFiles(ctx, query, userID, folderID, limit, offset)
}

// ListInFolder returns every member-visible file of a folder, regardless of
// uploader. Access is the service's concern.
func (r *PostgresRepository) ListInFolder(ctx context.Context, folderID string, limit, offset int, sort models.Sort) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE folder_id = $1
		ORDER BY ` + orderClause(sort, "file_name") + `
		LIMIT $2 OFFSET $3`
	return r.queryFiles(ctx, query, folderID, limit, offset)
}

// ListAllInFolder returns all file rows of a folder without pagination.
// Used by recursive folder deletion.
func (r *PostgresRepository) ListAllInFolder(ctx context.Context, folderID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE folder_id = $1`
	return r.queryFiles(ctx, query, folderID)
}

// NameExistsInFolder is the advisory pre-check for name collisions.
func (r *PostgresRepository) NameExistsInFolder(ctx context.Context, userID string, folderID *string, name string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM files
		WHERE user_id = $1 AND folder_id IS NOT DISTINCT FROM $2 AND file_name = $3
	)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, folderID, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check file name: %w", err)
	}
	return exists, nil
}

// SetFolder re-homes a file to another folder group and updates its blob
// path. A collision in the destination maps to ErrorFileNameAlreadyExists.
func (r *PostgresRepository) SetFolder(ctx context.Context, fileID string, folderID *string, path string) error {
	query := `UPDATE files SET folder_id = $2, path = $3, updated_at = now() WHERE file_id = $1`

	result, err := r.db.ExecContext(ctx, query, fileID, folderID, path)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrorFileNameAlreadyExists
		}
		return fmt.Errorf("failed to move file: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return common.ErrorFileNotFound
	}
	return nil
}

// Delete removes a file row. Exactly one row must be affected.
func (r *PostgresRepository) Delete(ctx context.Context, fileID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE file_id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n != 1 {
		return common.ErrorFileNotFound
	}
	return nil
}
