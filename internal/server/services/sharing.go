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

// InviteFolder invites another user, identified by username, into one of
// the caller's root-level folders. Only the owner may invite, only
// root-level folders are shareable, and a user holds at most one pending
// invite per folder.
func (s *StorageService) InviteFolder(ctx context.Context, user *models.User, folderID, inviteeUsername string) (*models.FolderInvite, error) {
	folder, err := s.repos.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return nil, common.ErrorFolderNotFound
	}
	if folder.UserID != user.ID {
		member, merr := s.repos.Folders(s.db).IsMember(ctx, folderID, user.ID)
		if merr == nil && member {
			return nil, common.ErrorUserIsNotOwner
		}
		return nil, common.ErrorFolderNotFound
	}
	if folder.ParentFolderID != nil {
		return nil, common.ErrorFolderIsPrivate
	}

	invitee, err := s.repos.Users(s.db).GetByUsername(ctx, inviteeUsername)
	if err != nil {
		if errors.Is(err, common.ErrorGuestNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if invitee.ID == user.ID {
		return nil, common.ErrorUserAlreadyInFolder
	}

	member, err := s.repos.Folders(s.db).IsMember(ctx, folderID, invitee.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if member {
		return nil, common.ErrorUserAlreadyInFolder
	}

	invite := &models.FolderInvite{
		ID:        uuid.New().String(),
		FolderID:  folder.ID,
		InviterID: user.ID,
		InviteeID: invitee.ID,
		Status:    models.InviteStatusPending,
	}
	if err := s.repos.Invites(s.db).Create(ctx, invite); err != nil {
		if errors.Is(err, common.ErrorUserAlreadyInFolder) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.hub.Publish(ctx, []string{invitee.ID}, models.EventInvited, models.InvitedPayload{
		InviteID:        invite.ID,
		FolderID:        folder.ID,
		FolderName:      folder.Name,
		InviterUsername: user.Username,
	})

	s.logger.Info(ctx, "folder invite created",
		"invite", invite.ID, "folder", folder.ID, "inviter", user.ID, "invitee", invitee.ID)
	return invite, nil
}

// ValidateFolderInvite records the invitee's decision and returns the
// folder the invite refers to. The pending -> accepted/rejected transition
// happens exactly once; on the first acceptance the folder flips to shared
// and stays shared. Only the invitee may decide, and only while the invite
// is pending.
func (s *StorageService) ValidateFolderInvite(ctx context.Context, user *models.User, inviteID string, decision models.InviteDecision) (*models.Folder, error) {
	invite, err := s.repos.Invites(s.db).GetByID(ctx, inviteID)
	if err != nil {
		return nil, common.ErrorInvalidInvite
	}
	if invite.InviteeID != user.ID || invite.Status != models.InviteStatusPending {
		return nil, common.ErrorInvalidInvite
	}

	folder, err := s.repos.Folders(s.db).GetByID(ctx, invite.FolderID)
	if err != nil {
		return nil, common.ErrorFolderNotFound
	}

	status := models.InviteStatusRejected
	if decision == models.InviteAccept {
		status = models.InviteStatusAccepted
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Invites(tx).SetStatus(ctx, inviteID, status); err != nil {
			return err
		}
		if status != models.InviteStatusAccepted {
			return nil
		}
		if err := s.repos.Folders(tx).AddMember(ctx, folder.ID, user.ID); err != nil {
			return err
		}
		if folder.Type != models.FolderTypeShared {
			return s.repos.Folders(tx).SetType(ctx, folder.ID, models.FolderTypeShared)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorInvalidInvite) || errors.Is(err, common.ErrorUserAlreadyInFolder) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if status == models.InviteStatusAccepted {
		folder.Type = models.FolderTypeShared
	}

	s.hub.Publish(ctx, []string{invite.InviterID}, models.EventInviteResponded, models.InviteRespondedPayload{
		InviteID: invite.ID,
		FolderID: folder.ID,
		Status:   status,
		Username: user.Username,
	})

	if status == models.InviteStatusAccepted {
		// existing members learn about the newcomer; the newcomer already
		// knows
		targets := s.audience(ctx, user, folder)
		notified := targets[:0]
		for _, id := range targets {
			if id != user.ID {
				notified = append(notified, id)
			}
		}
		s.hub.Publish(ctx, notified, models.EventMemberAdded, models.MemberAddedPayload{
			FolderID: folder.ID,
			UserID:   user.ID,
			Username: user.Username,
		})
	}

	s.logger.Info(ctx, "folder invite decided",
		"invite", invite.ID, "folder", folder.ID, "user", user.ID, "status", status)
	return folder, nil
}

// LeaveFolder removes the caller's own membership in a shared folder. The
// owner cannot leave; deletion is the owner's exit.
func (s *StorageService) LeaveFolder(ctx context.Context, user *models.User, folderID string) error {
	folder, err := s.repos.Folders(s.db).GetByID(ctx, folderID)
	if err != nil {
		return common.ErrorFolderNotFound
	}
	if folder.UserID == user.ID {
		return common.ErrorPermissionDenied
	}
	if folder.Type != models.FolderTypeShared {
		return common.ErrorFolderIsPrivate
	}

	// resolve the audience before the membership row disappears
	targets := s.audience(ctx, user, folder)

	if err := s.repos.Folders(s.db).RemoveMember(ctx, folderID, user.ID); err != nil {
		if errors.Is(err, common.ErrorUserNotInFolder) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrorLeavingFolder, err)
	}

	s.hub.Publish(ctx, targets, models.EventFolderLeft, models.FolderLeftPayload{
		FolderID: folder.ID,
		UserID:   user.ID,
	})

	s.logger.Info(ctx, "member left folder", "folder", folder.ID, "user", user.ID)
	return nil
}

// GetReceivedFolderInvites lists invites addressed to the user, newest
// first.
func (s *StorageService) GetReceivedFolderInvites(ctx context.Context, user *models.User, limit, offset int) ([]*models.FolderInvite, error) {
	limit, offset = normalizePage(limit, offset)
	result, err := s.repos.Invites(s.db).ListReceived(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return result, nil
}

// GetSentFolderInvites lists invites the user issued, newest first.
func (s *StorageService) GetSentFolderInvites(ctx context.Context, user *models.User, limit, offset int) ([]*models.FolderInvite, error) {
	limit, offset = normalizePage(limit, offset)
	result, err := s.repos.Invites(s.db).ListSent(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return result, nil
}
