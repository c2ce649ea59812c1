package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	var body struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if body.Name == "" {
		respondBadRequest(w, "folder name required")
		return
	}

	var err error
	var folder any
	if body.ParentID != nil {
		f, e := s.svc.CreateFolderInFolder(r.Context(), user, body.Name, *body.ParentID)
		if e == nil {
			folder = toFolderView(f)
		}
		err = e
	} else {
		f, e := s.svc.CreateFolder(r.Context(), user, body.Name)
		if e == nil {
			folder = toFolderView(f)
		}
		err = e
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondCreated(w, folder)
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	q := r.URL.Query()
	shared, _ := strconv.ParseBool(q.Get("shared"))
	limit, offset, sort := pageParams(r)

	folders, err := s.svc.GetFolders(r.Context(), user, shared, q.Get("search"), limit, offset, sort)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toFolderViews(folders))
}

func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	folder, err := s.svc.GetFolderByID(r.Context(), user, chi.URLParam(r, "folderID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toFolderView(folder))
}

func (s *Server) handleListSubFolders(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	limit, offset, sort := pageParams(r)
	parentID := chi.URLParam(r, "folderID")
	folders, err := s.svc.GetFoldersInFolder(r.Context(), user, &parentID, limit, offset, sort)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toFolderViews(folders))
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	if err := s.svc.DeleteFolder(r.Context(), user, chi.URLParam(r, "folderID")); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleLeaveFolder(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	if err := s.svc.LeaveFolder(r.Context(), user, chi.URLParam(r, "folderID")); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil)
}
