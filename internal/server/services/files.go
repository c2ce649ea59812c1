package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"unidrive/internal/common"
	"unidrive/internal/cryptox"
	"unidrive/internal/dbx"
	"unidrive/internal/server/models"
)

// UploadRequest carries the inputs of one file upload.
type UploadRequest struct {
	Name        string
	ContentType string
	Data        []byte
	// FolderID is nil for the root group.
	FolderID *string
	// Encrypt seals the content with a fresh AES-GCM key before upload.
	Encrypt bool
	// EncryptedKey is the client's wrapped key blob, stored opaquely.
	EncryptedKey []byte
}

// UploadResult returns the new file id and, for engine-side encryption,
// the one-time raw content key. The key is never persisted.
type UploadResult struct {
	FileID string
	Key    []byte
}

// UploadFile stores a blob at the resolved provider and persists its
// metadata. The provider write precedes the metadata commit, so a provider
// failure never leaves orphan metadata.
func (s *StorageService) UploadFile(ctx context.Context, user *models.User, req UploadRequest) (*UploadResult, error) {
	var folder *models.Folder

	if req.FolderID != nil {
		f, err := s.repos.Folders(s.db).GetByID(ctx, *req.FolderID)
		if err != nil {
			return nil, common.ErrorFolderNotFound
		}
		ok, err := s.canAccessFolder(ctx, user, f)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if !ok {
			return nil, common.ErrorFolderNotFound
		}
		folder = f
	}

	// advisory pre-check; the unique index is the authoritative guard
	exists, err := s.repos.Files(s.db).NameExistsInFolder(ctx, user.ID, req.FolderID, req.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if exists {
		return nil, common.ErrorFileNameAlreadyExists
	}

	data := req.Data
	var key []byte
	if req.Encrypt {
		key = cryptox.GenerateKey()
		data, err = cryptox.Encrypt(data, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
	}

	pctx, cred, err := s.providerContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := pctx.EnsureBucket(ctx, cred.Bucket); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorCreatingBucket, err)
	}

	folderPath := ""
	if folder != nil {
		folderPath = folder.Path
	}
	path := blobPath(user.Username, folderPath, req.Name)

	if err := pctx.Upload(ctx, cred.Bucket, path, data, req.ContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorFileStorage, err)
	}

	file := &models.File{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		FolderID:     req.FolderID,
		Name:         req.Name,
		Path:         path,
		Size:         int64(len(data)),
		ContentType:  req.ContentType,
		Checksum:     cryptox.Checksum(data),
		Encryption:   req.Encrypt,
		EncryptedKey: req.EncryptedKey,
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Files(tx).Create(ctx, file); err != nil {
			return err
		}
		if folder != nil {
			return s.repos.Folders(tx).BumpAggregates(ctx, folder.ID, file.Size, 1)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorFileNameAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.hub.Publish(ctx, s.audience(ctx, user, folder), models.EventFileAdded, models.FileAddedPayload{
		FileID:     file.ID,
		FolderID:   file.FolderID,
		Name:       file.Name,
		Size:       file.Size,
		UploaderID: user.ID,
	})

	s.logger.Info(ctx, "file uploaded", "file", file.ID, "user", user.ID, "size", file.Size)
	return &UploadResult{FileID: file.ID, Key: key}, nil
}

// getAccessibleFile loads a file and enforces visibility: the uploader
// always sees it; members of the containing shared folder do too. Everyone
// else gets ErrorFileNotFound, never an existence-leaking detail.
func (s *StorageService) getAccessibleFile(ctx context.Context, user *models.User, fileID string) (*models.File, *models.Folder, error) {
	file, err := s.repos.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, common.ErrorFileNotFound
	}

	var folder *models.Folder
	if file.FolderID != nil {
		folder, err = s.repos.Folders(s.db).GetByID(ctx, *file.FolderID)
		if err != nil {
			return nil, nil, common.ErrorFileNotFound
		}
	}

	if file.UserID == user.ID {
		return file, folder, nil
	}
	if folder != nil {
		ok, err := s.canAccessFolder(ctx, user, folder)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if ok {
			return file, folder, nil
		}
	}
	return nil, nil, common.ErrorFileNotFound
}

// GetFileByID returns a file visible to the user.
func (s *StorageService) GetFileByID(ctx context.Context, user *models.User, fileID string) (*models.File, error) {
	file, _, err := s.getAccessibleFile(ctx, user, fileID)
	return file, err
}

// GetFileInFolder returns a file only when it sits in the given folder
// group and is visible to the user.
func (s *StorageService) GetFileInFolder(ctx context.Context, user *models.User, folderID *string, fileID string) (*models.File, error) {
	file, _, err := s.getAccessibleFile(ctx, user, fileID)
	if err != nil {
		return nil, err
	}
	if !sameFolderGroup(file.FolderID, folderID) {
		return nil, common.ErrorFileNotFound
	}
	return file, nil
}

func sameFolderGroup(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// GetFiles lists the user's own root-group files.
func (s *StorageService) GetFiles(ctx context.Context, user *models.User, limit, offset int, sort string) ([]*models.File, error) {
	limit, offset = normalizePage(limit, offset)
	result, err := s.repos.Files(s.db).List(ctx, user.ID, nil, limit, offset, models.ParseSort(sort))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return result, nil
}

// GetFilesInFolder lists a folder's files for the owner or a member.
func (s *StorageService) GetFilesInFolder(ctx context.Context, user *models.User, folderID string, limit, offset int, sort string) ([]*models.File, error) {
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

	limit, offset = normalizePage(limit, offset)
	result, err := s.repos.Files(s.db).ListInFolder(ctx, folderID, limit, offset, models.ParseSort(sort))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return result, nil
}

// GenerateTemporaryFileURL returns a provider-signed read URL bounded to
// [1,45] minutes. Encrypted files are refused: a signed URL would hand out
// ciphertext the holder cannot use and the key must not travel this path.
func (s *StorageService) GenerateTemporaryFileURL(ctx context.Context, user *models.User, fileID string, minutesTTL int) (string, error) {
	if minutesTTL < minURLTTL || minutesTTL > maxURLTTL {
		return "", common.ErrorInvalidTTL
	}

	file, _, err := s.getAccessibleFile(ctx, user, fileID)
	if err != nil {
		return "", err
	}
	if file.Encryption {
		return "", common.ErrorEncryptedFile
	}

	pctx, cred, err := s.providerContext(ctx)
	if err != nil {
		return "", err
	}

	url, err := pctx.SignURL(ctx, cred.Bucket, file.Path, time.Duration(minutesTTL)*time.Minute)
	if err != nil {
		if errors.Is(err, common.ErrorSigningURL) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", common.ErrorSigningURL, err)
	}
	return url, nil
}

// DownloadFile fetches the blob content. When the file is encrypted and
// the caller supplies the content key, the plaintext is returned.
func (s *StorageService) DownloadFile(ctx context.Context, user *models.User, fileID string, key []byte) ([]byte, error) {
	file, _, err := s.getAccessibleFile(ctx, user, fileID)
	if err != nil {
		return nil, err
	}

	pctx, cred, err := s.providerContext(ctx)
	if err != nil {
		return nil, err
	}

	data, err := pctx.Download(ctx, cred.Bucket, file.Path)
	if err != nil {
		if errors.Is(err, common.ErrorBlobNotFound) {
			return nil, common.ErrorBlobNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorFileStorage, err)
	}

	if file.Encryption && key != nil {
		plaintext, err := cryptox.Decrypt(data, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrorEncryptedFile, err)
		}
		return plaintext, nil
	}
	return data, nil
}

// MoveFile re-homes a file to another folder group. The provider move
// precedes the metadata update; on provider failure the database stays
// untouched.
func (s *StorageService) MoveFile(ctx context.Context, user *models.User, fileID string, targetFolderID *string) error {
	file, sourceFolder, err := s.getAccessibleFile(ctx, user, fileID)
	if err != nil {
		return err
	}
	if file.UserID != user.ID {
		return common.ErrorFileNotFound
	}

	var targetFolder *models.Folder
	if targetFolderID != nil {
		f, err := s.repos.Folders(s.db).GetByID(ctx, *targetFolderID)
		if err != nil {
			return common.ErrorFolderNotFound
		}
		ok, err := s.canAccessFolder(ctx, user, f)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrorInternal, err)
		}
		if !ok {
			return common.ErrorFolderNotFound
		}
		targetFolder = f
	}

	if sameFolderGroup(file.FolderID, targetFolderID) {
		return nil
	}

	exists, err := s.repos.Files(s.db).NameExistsInFolder(ctx, user.ID, targetFolderID, file.Name)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if exists {
		return common.ErrorFileNameAlreadyExists
	}

	targetPath := ""
	if targetFolder != nil {
		targetPath = targetFolder.Path
	}
	newPath := blobPath(user.Username, targetPath, file.Name)

	pctx, cred, err := s.providerContext(ctx)
	if err != nil {
		return err
	}
	if err := pctx.Move(ctx, cred.Bucket, file.Path, newPath); err != nil {
		if errors.Is(err, common.ErrorBlobNotFound) {
			return common.ErrorBlobNotFound
		}
		return fmt.Errorf("%w: %v", common.ErrorMovingBlob, err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Files(tx).SetFolder(ctx, file.ID, targetFolderID, newPath); err != nil {
			return err
		}
		if sourceFolder != nil {
			if err := s.repos.Folders(tx).BumpAggregates(ctx, sourceFolder.ID, -file.Size, -1); err != nil {
				return err
			}
		}
		if targetFolder != nil {
			if err := s.repos.Folders(tx).BumpAggregates(ctx, targetFolder.ID, file.Size, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorFileNameAlreadyExists) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "file moved", "file", file.ID, "user", user.ID)
	return nil
}

// DeleteFile removes a file the user may delete: the uploader always, and
// the owner of the containing shared folder for any file in it. Metadata
// is removed first; a blob-delete failure afterwards leaves an orphan blob,
// which is invisible to users, rather than a dangling metadata row.
func (s *StorageService) DeleteFile(ctx context.Context, user *models.User, fileID string) error {
	file, folder, err := s.getAccessibleFile(ctx, user, fileID)
	if err != nil {
		return err
	}
	return s.deleteFile(ctx, user, file, folder)
}

// DeleteFileInFolder deletes a file addressed through its folder.
func (s *StorageService) DeleteFileInFolder(ctx context.Context, user *models.User, folderID string, fileID string) error {
	file, folder, err := s.getAccessibleFile(ctx, user, fileID)
	if err != nil {
		return err
	}
	if file.FolderID == nil || *file.FolderID != folderID {
		return common.ErrorFileNotFound
	}
	return s.deleteFile(ctx, user, file, folder)
}

func (s *StorageService) deleteFile(ctx context.Context, user *models.User, file *models.File, folder *models.Folder) error {
	isUploader := file.UserID == user.ID
	isFolderOwner := folder != nil && folder.UserID == user.ID
	if !isUploader && !isFolderOwner {
		return common.ErrorPermissionDenied
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Files(tx).Delete(ctx, file.ID); err != nil {
			return err
		}
		if folder != nil {
			return s.repos.Folders(tx).BumpAggregates(ctx, folder.ID, -file.Size, -1)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorFileNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrorDeletingFile, err)
	}

	// best effort: the metadata row is gone, an orphan blob is acceptable
	if pctx, cred, perr := s.providerContext(ctx); perr == nil {
		if derr := pctx.Delete(ctx, cred.Bucket, file.Path); derr != nil {
			s.logger.Warn(ctx, "blob delete failed, orphan blob left behind",
				"file", file.ID, "path", file.Path, "err", derr)
		}
	} else {
		s.logger.Warn(ctx, "provider unavailable for blob delete", "file", file.ID, "err", perr)
	}

	s.hub.Publish(ctx, s.audience(ctx, user, folder), models.EventFileDeleted, models.FileDeletedPayload{
		FileID:    file.ID,
		FolderID:  file.FolderID,
		Name:      file.Name,
		DeleterID: user.ID,
	})

	s.logger.Info(ctx, "file deleted", "file", file.ID, "user", user.ID)
	return nil
}
