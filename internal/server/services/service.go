// Package services implements the storage & sharing use cases. Services own
// the invariants: they drive repositories inside one transaction per
// mutation, call the provider adapter for blob I/O outside of it, translate
// lower-layer failures into the sentinel vocabulary, and emit events after
// a successful commit.
package services

import (
	"context"
	"database/sql"
	"strings"

	"unidrive/internal/logging"
	"unidrive/internal/server/config"
	"unidrive/internal/server/events"
	"unidrive/internal/server/models"
	"unidrive/internal/server/providers"
	"unidrive/internal/server/repositories/repomanager"
)

// Publisher fans events out to the live sessions of the target users.
// *events.Hub implements it.
type Publisher interface {
	Publish(ctx context.Context, targetUserIDs []string, kind models.EventKind, payload any)
}

var _ Publisher = (*events.Hub)(nil)

const (
	defaultListLimit = 50
	maxListLimit     = 100

	// signed-URL TTL bounds, minutes
	minURLTTL = 1
	maxURLTTL = 45
)

// StorageService orchestrates all file, folder, and sharing use cases.
type StorageService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cfg    *config.Config
	hub    Publisher
	logger logging.Logger

	// initProvider is a seam so tests can substitute a fake provider
	// context.
	initProvider providers.Initializer
}

// NewStorageService wires a StorageService with the real provider
// initializer.
func NewStorageService(db *sql.DB, repos repomanager.RepositoryManager, cfg *config.Config, hub Publisher, logger logging.Logger) *StorageService {
	return &StorageService{
		db:           db,
		repos:        repos,
		cfg:          cfg,
		hub:          hub,
		logger:       logger.With("module", "storage_service"),
		initProvider: providers.Initialize,
	}
}

// resolveProvider picks the provider for new blobs from the configured
// storage preference. The mapping is deterministic, so every operation on
// an existing blob resolves the same provider that stored it.
func (s *StorageService) resolveProvider() providers.Type {
	return providers.Resolve(
		providers.ParseCost(s.cfg.DefaultCost),
		providers.ParseLocation(s.cfg.DefaultLocation),
	)
}

// providerContext initializes the resolved provider and returns it with
// its credential block.
func (s *StorageService) providerContext(ctx context.Context) (providers.Context, config.ProviderCredential, error) {
	t := s.resolveProvider()
	cred := providers.CredentialFor(s.cfg, t)

	pctx, err := s.initProvider(ctx, t, cred)
	if err != nil {
		return nil, cred, err
	}
	return pctx, cred, nil
}

// SyncIdentity refreshes the identity mirror for an authenticated user.
// Called by the transport on every authenticated request so usernames can
// be resolved for invites.
func (s *StorageService) SyncIdentity(ctx context.Context, user *models.User) error {
	return s.repos.Users(s.db).Upsert(ctx, user)
}

// blobPath builds the object-storage key "{username}/{folderPath}/{name}".
func blobPath(username, folderPath, name string) string {
	parts := []string{username}
	if folderPath != "" {
		parts = append(parts, folderPath)
	}
	parts = append(parts, name)
	return strings.Join(parts, "/")
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// audience returns the user ids that should be notified about a change in
// the given folder group: the acting user for the root group, or the
// folder owner plus all members for a folder.
func (s *StorageService) audience(ctx context.Context, user *models.User, folder *models.Folder) []string {
	if folder == nil {
		return []string{user.ID}
	}

	targets := []string{folder.UserID}
	members, err := s.repos.Folders(s.db).ListMemberIDs(ctx, folder.ID)
	if err != nil {
		s.logger.Warn(ctx, "failed to resolve event audience", "folder", folder.ID, "err", err)
		return targets
	}
	for _, id := range members {
		if id != folder.UserID {
			targets = append(targets, id)
		}
	}
	return targets
}

// canAccessFolder reports whether user may read the folder: the owner
// always, members of a shared folder otherwise.
func (s *StorageService) canAccessFolder(ctx context.Context, user *models.User, folder *models.Folder) (bool, error) {
	if folder.UserID == user.ID {
		return true, nil
	}
	if folder.Type != models.FolderTypeShared {
		return false, nil
	}
	return s.repos.Folders(s.db).IsMember(ctx, folder.ID, user.ID)
}
