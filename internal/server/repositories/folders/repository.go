package folders

import (
	"context"

	"unidrive/internal/server/models"
)

// Repository is the persistence contract for folder rows, their derived
// aggregates, and membership derived from accepted invites.
type Repository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, folderID string) (*models.Folder, error)
	ListChildren(ctx context.Context, userID string, parentID *string, limit, offset int, sort models.Sort) ([]*models.Folder, error)
	ListChildrenAll(ctx context.Context, parentID string) ([]*models.Folder, error)
	ListOwned(ctx context.Context, userID, search string, limit, offset int, sort models.Sort) ([]*models.Folder, error)
	ListMemberOf(ctx context.Context, userID, search string, limit, offset int, sort models.Sort) ([]*models.Folder, error)
	NameExists(ctx context.Context, userID string, parentID *string, name string) (bool, error)
	BumpAggregates(ctx context.Context, folderID string, deltaSize, deltaFiles int64) error
	SetType(ctx context.Context, folderID string, t models.FolderType) error
	Delete(ctx context.Context, folderID string) error

	AddMember(ctx context.Context, folderID, userID string) error
	RemoveMember(ctx context.Context, folderID, userID string) error
	IsMember(ctx context.Context, folderID, userID string) (bool, error)
	ListMemberIDs(ctx context.Context, folderID string) ([]string, error)
}
