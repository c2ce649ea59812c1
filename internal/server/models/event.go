package models

// EventKind names a domain event as it appears on the wire.
type EventKind string

const (
	EventFileAdded       EventKind = "file"
	EventFileDeleted     EventKind = "deleteFile"
	EventFolderLeft      EventKind = "leaveFolder"
	EventInvited         EventKind = "invite"
	EventInviteResponded EventKind = "inviteResponse"
	EventMemberAdded     EventKind = "newMember"
	EventKeepAlive       EventKind = "keep-alive"
)

// Event is a structural-change notification pushed to live sessions.
// Every kind except keep-alive carries a per-kind monotonically increasing
// sequence id assigned by the hub at publish time. Events are produced and
// pushed, never persisted.
type Event struct {
	Kind    EventKind `json:"event"`
	Seq     int64     `json:"id,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

// FileAddedPayload announces a new file in a folder the recipient can see.
type FileAddedPayload struct {
	FileID     string  `json:"fileId"`
	FolderID   *string `json:"folderId,omitempty"`
	Name       string  `json:"name"`
	Size       int64   `json:"size"`
	UploaderID string  `json:"uploaderId"`
}

// FileDeletedPayload announces a file removal.
type FileDeletedPayload struct {
	FileID    string  `json:"fileId"`
	FolderID  *string `json:"folderId,omitempty"`
	Name      string  `json:"name"`
	DeleterID string  `json:"deleterId"`
}

// FolderLeftPayload announces that a member left, or that the folder is
// being deleted by its owner.
type FolderLeftPayload struct {
	FolderID string `json:"folderId"`
	UserID   string `json:"userId"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// InvitedPayload notifies the invitee of a new pending invite.
type InvitedPayload struct {
	InviteID        string `json:"inviteId"`
	FolderID        string `json:"folderId"`
	FolderName      string `json:"folderName"`
	InviterUsername string `json:"inviterUsername"`
}

// InviteRespondedPayload notifies the inviter of the invitee's decision.
type InviteRespondedPayload struct {
	InviteID string       `json:"inviteId"`
	FolderID string       `json:"folderId"`
	Status   InviteStatus `json:"status"`
	Username string       `json:"username"`
}

// MemberAddedPayload notifies existing members of a new member.
type MemberAddedPayload struct {
	FolderID string `json:"folderId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}
