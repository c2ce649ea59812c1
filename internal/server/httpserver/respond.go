package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"unidrive/internal/common"
)

// Envelope is the standard API response envelope.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func respondCreated(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFromError(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		// internal detail stays in the logs
		msg = "internal server error"
	case http.StatusBadGateway:
		// provider/SDK detail stays in the logs
		if s := sentinelOf(err); s != nil {
			msg = s.Error()
		}
	}
	writeJSON(w, status, Envelope{Success: false, Error: msg})
}

// providerSentinels is the provider-failure vocabulary whose text is safe
// to return to clients.
var providerSentinels = []error{
	common.ErrorCreatingBucket,
	common.ErrorFileStorage,
	common.ErrorMovingBlob,
	common.ErrorSigningURL,
	common.ErrorDeletingFile,
	common.ErrorDeletingFolder,
	common.ErrorLeavingFolder,
	common.ErrorInvalidCredential,
	common.ErrorCreatingContext,
}

func sentinelOf(err error) error {
	for _, s := range providerSentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}

func respondBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, Envelope{Success: false, Error: msg})
}

func respondUnauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, Envelope{Success: false, Error: msg})
}

// statusFromError maps the sentinel vocabulary onto HTTP statuses.
// Not-found answers deliberately cover inaccessible resources too, so a
// non-member cannot distinguish "absent" from "forbidden".
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrorFileNotFound),
		errors.Is(err, common.ErrorFolderNotFound),
		errors.Is(err, common.ErrorInvalidInvite),
		errors.Is(err, common.ErrorGuestNotFound),
		errors.Is(err, common.ErrorBlobNotFound):
		return http.StatusNotFound

	case errors.Is(err, common.ErrorFileNameAlreadyExists),
		errors.Is(err, common.ErrorFolderNameAlreadyExists),
		errors.Is(err, common.ErrorUserAlreadyInFolder):
		return http.StatusConflict

	case errors.Is(err, common.ErrorPermissionDenied),
		errors.Is(err, common.ErrorUserIsNotOwner),
		errors.Is(err, common.ErrorUserNotInFolder),
		errors.Is(err, common.ErrorFolderIsPrivate),
		errors.Is(err, common.ErrorFolderIsShared):
		return http.StatusForbidden

	case errors.Is(err, common.ErrorInvalidTTL),
		errors.Is(err, common.ErrorEncryptedFile):
		return http.StatusBadRequest

	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, common.ErrorCreatingBucket),
		errors.Is(err, common.ErrorFileStorage),
		errors.Is(err, common.ErrorMovingBlob),
		errors.Is(err, common.ErrorSigningURL),
		errors.Is(err, common.ErrorDeletingFile),
		errors.Is(err, common.ErrorDeletingFolder),
		errors.Is(err, common.ErrorLeavingFolder),
		errors.Is(err, common.ErrorInvalidCredential),
		errors.Is(err, common.ErrorCreatingContext):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
