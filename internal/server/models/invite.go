package models

import "time"

// InviteStatus is the state of a folder invite. A pending invite
// transitions exactly once to accepted or rejected and is then immutable.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRejected InviteStatus = "rejected"
)

// InviteDecision is the invitee's answer to a pending invite.
type InviteDecision string

const (
	InviteAccept InviteDecision = "accept"
	InviteReject InviteDecision = "reject"
)

// FolderInvite is a proposal for a user to join a folder as a member.
// At most one pending invite exists per (folder, invitee).
type FolderInvite struct {
	ID        string
	FolderID  string
	InviterID string
	InviteeID string
	Status    InviteStatus
	CreatedAt time.Time

	// Denormalized for listings; not persisted on the invite row.
	FolderName      string
	InviterUsername string
	InviteeUsername string
}
