package httpserver

import (
	"encoding/base64"
	"time"

	"unidrive/internal/server/models"
)

// fileView is the JSON shape of a file row.
type fileView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	FolderID     *string   `json:"folderId,omitempty"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	Checksum     string    `json:"checksum"`
	Encryption   bool      `json:"encryption"`
	EncryptedKey string    `json:"encryptedKey,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toFileView(f *models.File) fileView {
	v := fileView{
		ID:          f.ID,
		UserID:      f.UserID,
		FolderID:    f.FolderID,
		Name:        f.Name,
		Size:        f.Size,
		ContentType: f.ContentType,
		Checksum:    f.Checksum,
		Encryption:  f.Encryption,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
	if len(f.EncryptedKey) > 0 {
		v.EncryptedKey = base64.StdEncoding.EncodeToString(f.EncryptedKey)
	}
	return v
}

func toFileViews(files []*models.File) []fileView {
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, toFileView(f))
	}
	return out
}

// folderView is the JSON shape of a folder row.
type folderView struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	ParentFolderID *string           `json:"parentFolderId,omitempty"`
	Name           string            `json:"name"`
	Type           models.FolderType `json:"type"`
	Size           int64             `json:"size"`
	NumberFiles    int64             `json:"numberFiles"`
	Path           string            `json:"path"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func toFolderView(f *models.Folder) folderView {
	return folderView{
		ID:             f.ID,
		UserID:         f.UserID,
		ParentFolderID: f.ParentFolderID,
		Name:           f.Name,
		Type:           f.Type,
		Size:           f.Size,
		NumberFiles:    f.NumberFiles,
		Path:           f.Path,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

func toFolderViews(folders []*models.Folder) []folderView {
	out := make([]folderView, 0, len(folders))
	for _, f := range folders {
		out = append(out, toFolderView(f))
	}
	return out
}

// inviteView is the JSON shape of an invite, including the denormalized
// names listings join in.
type inviteView struct {
	ID              string              `json:"id"`
	FolderID        string              `json:"folderId"`
	FolderName      string              `json:"folderName,omitempty"`
	InviterUsername string              `json:"inviterUsername,omitempty"`
	InviteeUsername string              `json:"inviteeUsername,omitempty"`
	Status          models.InviteStatus `json:"status"`
	CreatedAt       time.Time           `json:"createdAt"`
}

func toInviteView(i *models.FolderInvite) inviteView {
	return inviteView{
		ID:              i.ID,
		FolderID:        i.FolderID,
		FolderName:      i.FolderName,
		InviterUsername: i.InviterUsername,
		InviteeUsername: i.InviteeUsername,
		Status:          i.Status,
		CreatedAt:       i.CreatedAt,
	}
}

func toInviteViews(invites []*models.FolderInvite) []inviteView {
	out := make([]inviteView, 0, len(invites))
	for _, i := range invites {
		out = append(out, toInviteView(i))
	}
	return out
}
