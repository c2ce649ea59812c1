package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"unidrive/internal/server/models"
)

func (s *Server) handleInviteFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	var body struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if body.Username == "" {
		respondBadRequest(w, "username required")
		return
	}

	invite, err := s.svc.InviteFolder(r.Context(), user, chi.URLParam(r, "folderID"), body.Username)
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, toInviteView(invite))
}

func (s *Server) handleDecideInvite(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	var body struct {
		Decision models.InviteDecision `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if body.Decision != models.InviteAccept && body.Decision != models.InviteReject {
		respondBadRequest(w, "decision must be accept or reject")
		return
	}

	folder, err := s.svc.ValidateFolderInvite(r.Context(), user, chi.URLParam(r, "inviteID"), body.Decision)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toFolderView(folder))
}

func (s *Server) handleReceivedInvites(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	limit, offset, _ := pageParams(r)
	invites, err := s.svc.GetReceivedFolderInvites(r.Context(), user, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toInviteViews(invites))
}

func (s *Server) handleSentInvites(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	limit, offset, _ := pageParams(r)
	invites, err := s.svc.GetSentFolderInvites(r.Context(), user, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toInviteViews(invites))
}
