// Package models defines server-side data models persisted in the database
// and the domain events fanned out to live sessions.
package models

import "time"

// File describes metadata for a blob stored at a provider. The content
// itself lives in object storage under Path inside the owner's bucket.
type File struct {
	// ID is the file row id (uuid).
	ID string
	// UserID is the owner of the file.
	UserID string
	// FolderID is the containing folder, or nil for the root group.
	// (ownerUserID, folderID, name) is unique; the NULL folder counts as
	// one group, not "absent".
	FolderID *string
	// Name is the file name within its folder.
	Name string
	// Path is the object-storage key of the blob
	// ("{username}/{folderPath}/{fileName}").
	Path string
	// Size is the stored byte count (ciphertext size for encrypted files).
	Size int64
	// ContentType is the MIME type reported at upload.
	ContentType string
	// Checksum is the hex SHA-256 of the stored bytes.
	Checksum string
	// Encryption reports whether the blob was sealed client-side or by the
	// engine before upload.
	Encryption bool
	// EncryptedKey is the opaque wrapped per-file key. The engine never
	// interprets it.
	EncryptedKey []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}
