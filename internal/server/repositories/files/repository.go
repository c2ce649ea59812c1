package files

import (
	"context"

	"unidrive/internal/server/models"
)

// Repository is the persistence contract for file metadata rows.
//
// Name-existence pre-checks are advisory; the authoritative guard is the
// unique index on (user_id, folder_id, file_name), and Create maps a
// violation of it to common.ErrorFileNameAlreadyExists.
type Repository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, fileID string) (*models.File, error)
	GetInFolder(ctx context.Context, folderID *string, fileID string) (*models.File, error)
	List(ctx context.Context, userID string, folderID *string, limit, offset int, sort models.Sort) ([]*models.File, error)
	ListInFolder(ctx context.Context, folderID string, limit, offset int, sort models.Sort) ([]*models.File, error)
	ListAllInFolder(ctx context.Context, folderID string) ([]*models.File, error)
	NameExistsInFolder(ctx context.Context, userID string, folderID *string, name string) (bool, error)
	SetFolder(ctx context.Context, fileID string, folderID *string, path string) error
	Delete(ctx context.Context, fileID string) error
}
