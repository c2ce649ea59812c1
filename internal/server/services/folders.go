package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"unidrive/internal/common"
	"unidrive/internal/dbx"
	"unidrive/internal/server/models"
)

// CreateFolder creates a root-level folder for the user.
func (s *StorageService) CreateFolder(ctx context.Context, user *models.User, name string) (*models.Folder, error) {
	return s.createFolder(ctx, user, name, nil)
}

// CreateFolderInFolder creates a sub-folder. Nesting inside a shared
// folder is rejected: shared content stays one level deep so membership
// never has to cascade.
func (s *StorageService) CreateFolderInFolder(ctx context.Context, user *models.User, name string, parentID string) (*models.Folder, error) {
	return s.createFolder(ctx, user, name, &parentID)
}

func (s *StorageService) createFolder(ctx context.Context, user *models.User, name string, parentID *string) (*models.Folder, error) {
	var parent *models.Folder
	if parentID != nil {
		p, err := s.repos.Folders(s.db).GetByID(ctx, *parentID)
		if err != nil || p.UserID != user.ID {
			return nil, common.ErrorFolderNotFound
		}
		if p.Type == models.FolderTypeShared {
			return nil, common.ErrorFolderIsShared
		}
		parent = p
	}

	exists, err := s.repos.Folders(s.db).NameExists(ctx, user.ID, parentID, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if exists {
		return nil, common.ErrorFolderNameAlreadyExists
	}

	path := name
	if parent != nil {
		path = parent.Path + "/" + name
	}

	folder := &models.Folder{
		ID:             uuid.New().String(),
		UserID:         user.ID,
		ParentFolderID: parentID,
		Name:           name,
		Type:           models.FolderTypePrivate,
		Path:           path,
	}

	if err := s.repos.Folders(s.db).Create(ctx, folder); err != nil {
		if errors.Is(err, common.ErrorFolderNameAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "folder created", "folder", folder.ID, "user", user.ID)
	return folder, nil
}

// GetFolderByID returns a folder visible to the user: the owner or a
// member of a shared folder. Everyone else gets ErrorFolderNotFound.
func (s *StorageService) GetFolderByID(ctx context.Context, user *models.User, folderID string) (*models.Folder, error) {
	folder, err := s.repos.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, common.ErrorFolderNotFound
	}

	ok, err := s.canAccessFolder(ctx, user, folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorFolderNotFound
	}
	return folder, nil
}

// GetFoldersInFolder lists the user's own sub-folders of one parent.
func (s *StorageService) GetFoldersInFolder(ctx context.Context, user *models.User, parentID *string, limit, offset int, sort string) ([]*models.Folder, error) {
	limit, offset = normalizePage(limit, offset)
	result, err := s.repos.Folders(s.db).ListChildren(ctx, user.ID, parentID, limit, offset, models.ParseSort(sort))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return result, nil
}

// GetFolders lists folders for the user. With shared=false these are the
// folders the user owns; with shared=true, the shared folders joined as a
// member. An optional search filters by name.
func (s *StorageService) GetFolders(ctx context.Context, user *models.User, shared bool, search string, limit, offset int, sort string) ([]*models.Folder, error) {
	limit, offset = normalizePage(limit, offset)

	var (
		result []*models.Folder
		err    error
	)
	if shared {
		result, err = s.repos.Folders(s.db).ListMemberOf(ctx, user.ID, search, limit, offset, models.ParseSort(sort))
	} else {
		result, err = s.repos.Folders(s.db).ListOwned(ctx, user.ID, search, limit, offset, models.ParseSort(sort))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return result, nil
}

// DeleteFolder removes a folder with everything in it: all metadata in one
// transaction, then the blobs best effort. Only the owner may delete;
// members get ErrorPermissionDenied, strangers ErrorFolderNotFound.
// Members are notified before removal.
func (s *StorageService) DeleteFolder(ctx context.Context, user *models.User, folderID string) error {
	folder, err := s.repos.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return common.ErrorFolderNotFound
	}
	if folder.UserID != user.ID {
		member, merr := s.repos.Folders(s.db).IsMember(ctx, folderID, user.ID)
		if merr == nil && member {
			return common.ErrorPermissionDenied
		}
		return common.ErrorFolderNotFound
	}

	// collect the whole subtree before touching anything
	folderIDs := []string{folder.ID}
	var allFiles []*models.File
	for i := 0; i < len(folderIDs); i++ {
		fs, err := s.repos.Files(s.db).ListAllInFolder(ctx, folderIDs[i])
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrorDeletingFolder, err)
		}
		allFiles = append(allFiles, fs...)

		children, err := s.repos.Folders(s.db).ListChildrenAll(ctx, folderIDs[i])
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrorDeletingFolder, err)
		}
		for _, c := range children {
			folderIDs = append(folderIDs, c.ID)
		}
	}

	// members hear about the deletion while the folder still exists
	targets := s.audience(ctx, user, folder)
	s.hub.Publish(ctx, targets, models.EventFolderLeft, models.FolderLeftPayload{
		FolderID: folder.ID,
		UserID:   user.ID,
		Deleted:  true,
	})

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, id := range folderIDs {
			if err := s.repos.Invites(tx).DeletePendingForFolder(ctx, id); err != nil {
				return err
			}
		}
		// files, sub-folders, members, and decided invites cascade
		return s.repos.Folders(tx).Delete(ctx, folder.ID)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorDeletingFolder, err)
	}

	// best effort: the metadata rows are gone, orphan blobs are acceptable
	if len(allFiles) > 0 {
		if pctx, cred, perr := s.providerContext(ctx); perr == nil {
			for _, f := range allFiles {
				if derr := pctx.Delete(ctx, cred.Bucket, f.Path); derr != nil {
					s.logger.Warn(ctx, "blob delete failed during folder removal",
						"file", f.ID, "path", f.Path, "err", derr)
				}
			}
		} else {
			s.logger.Warn(ctx, "provider unavailable for blob cleanup",
				"folder", folder.ID, "err", perr)
		}
	}

	s.logger.Info(ctx, "folder deleted", "folder", folder.ID, "user", user.ID,
		"files", len(allFiles), "subfolders", len(folderIDs)-1)
	return nil
}
