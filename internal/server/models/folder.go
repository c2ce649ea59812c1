package models

import "time"

// FolderType is the privacy state of a folder. The transition is one-way:
// a folder flips to shared on its first accepted invite and never reverts,
// even when the last member leaves.
type FolderType string

const (
	FolderTypePrivate FolderType = "private"
	FolderTypeShared  FolderType = "shared"
)

// Folder is a hierarchical metadata grouping of files, independent of
// provider bucket layout.
type Folder struct {
	// ID is the folder row id (uuid).
	ID string
	// UserID is the owner. The owner is always a member and the only user
	// who may invite to or delete the folder.
	UserID string
	// ParentFolderID is the enclosing folder, or nil at the root.
	ParentFolderID *string
	// Name is unique per (owner, parent).
	Name string
	// Type gates every sharing operation's legality.
	Type FolderType
	// Size and NumberFiles are derived counters kept transactionally
	// consistent with the contained file rows.
	Size        int64
	NumberFiles int64
	// Path is the slash-joined folder path from the root.
	Path string

	CreatedAt time.Time
	// UpdatedAt is bumped on any content change, including aggregate bumps.
	UpdatedAt time.Time
}

// FolderMember records membership derived from accepted invites. The owner
// is an implicit member and has no row.
type FolderMember struct {
	FolderID  string
	UserID    string
	CreatedAt time.Time
}
