package invites

import (
	"context"

	"unidrive/internal/server/models"
)

// Repository is the persistence contract for folder invites. The partial
// unique index on (folder_id, invitee_user_id) WHERE status='pending' is
// the authoritative guard against duplicate pending invites.
type Repository interface {
	Create(ctx context.Context, invite *models.FolderInvite) error
	GetByID(ctx context.Context, inviteID string) (*models.FolderInvite, error)
	SetStatus(ctx context.Context, inviteID string, status models.InviteStatus) error
	ListReceived(ctx context.Context, inviteeID string, limit, offset int) ([]*models.FolderInvite, error)
	ListSent(ctx context.Context, inviterID string, limit, offset int) ([]*models.FolderInvite, error)
	DeletePendingForFolder(ctx context.Context, folderID string) error
}
