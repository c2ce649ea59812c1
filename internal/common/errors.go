// Package common defines shared constants and sentinel errors used across
// the unidrive storage engine. Callers should use errors.Is to match these
// values; nothing below the HTTP layer raises anything else across a
// package boundary.
package common

import "errors"

var (
	// Not-found errors.
	ErrorFileNotFound   = errors.New("file not found")
	ErrorFolderNotFound = errors.New("folder not found")
	ErrorInvalidInvite  = errors.New("invalid invite")
	ErrorGuestNotFound  = errors.New("guest not found")

	// Conflict errors.
	ErrorFileNameAlreadyExists   = errors.New("file name already exists")
	ErrorFolderNameAlreadyExists = errors.New("folder name already exists")
	ErrorUserAlreadyInFolder     = errors.New("user already in folder")

	// Permission / privacy-state errors.
	ErrorPermissionDenied = errors.New("permission denied")
	ErrorUserIsNotOwner   = errors.New("user is not the folder owner")
	ErrorUserNotInFolder  = errors.New("user is not in folder")
	ErrorFolderIsPrivate  = errors.New("folder is private")
	ErrorFolderIsShared   = errors.New("folder is shared")

	// Provider errors.
	ErrorInvalidCredential = errors.New("invalid provider credential")
	ErrorCreatingContext   = errors.New("error creating provider context")
	ErrorCreatingBucket    = errors.New("error creating bucket")
	ErrorFileStorage       = errors.New("file storage error")
	ErrorMovingBlob        = errors.New("error moving blob")
	ErrorBlobNotFound      = errors.New("blob not found")
	ErrorDeletingFile      = errors.New("error deleting file")
	ErrorDeletingFolder    = errors.New("error deleting folder")
	ErrorLeavingFolder     = errors.New("error leaving folder")
	ErrorSigningURL        = errors.New("error signing url")

	// Validation errors.
	ErrorEncryptedFile = errors.New("file is encrypted")
	ErrorInvalidTTL    = errors.New("ttl out of range")

	// Generic/internal flow control.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
)
