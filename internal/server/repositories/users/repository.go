package users

import (
	"context"

	"unidrive/internal/server/models"
)

// Repository reads the identity rows mirrored from the upstream auth
// system. This engine never creates credentials; Upsert only keeps the
// mirror current when a token for an unseen identity arrives.
type Repository interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}
