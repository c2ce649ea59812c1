package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"unidrive/internal/server/services"
)

// maxUploadBytes caps the multipart form buffered in memory per upload.
const maxUploadBytes = 128 << 20

func pageParams(r *http.Request) (limit, offset int, sort string) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	return limit, offset, q.Get("sort")
}

func optionalFolderID(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondBadRequest(w, "invalid multipart form")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		respondBadRequest(w, "file part required")
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		respondBadRequest(w, "unreadable file part")
		return
	}

	req := services.UploadRequest{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		FolderID:    optionalFolderID(r.FormValue("folderId")),
	}
	req.Encrypt, _ = strconv.ParseBool(r.FormValue("encrypt"))
	if v := r.FormValue("encryptedKey"); v != "" {
		req.EncryptedKey, err = base64.StdEncoding.DecodeString(v)
		if err != nil {
			respondBadRequest(w, "encryptedKey must be base64")
			return
		}
	}
	if req.Name == "" {
		respondBadRequest(w, "file name required")
		return
	}

	res, err := s.svc.UploadFile(r.Context(), user, req)
	if err != nil {
		respondError(w, err)
		return
	}

	out := map[string]any{"fileId": res.FileID}
	if len(res.Key) > 0 {
		// one-time content key, never persisted server-side
		out["key"] = base64.StdEncoding.EncodeToString(res.Key)
	}
	respondCreated(w, out)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	limit, offset, sort := pageParams(r)
	files, err := s.svc.GetFiles(r.Context(), user, limit, offset, sort)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toFileViews(files))
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	file, err := s.svc.GetFileByID(r.Context(), user, chi.URLParam(r, "fileID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toFileView(file))
}

func (s *Server) handleSignFileURL(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	ttl := 15
	if v := r.URL.Query().Get("ttl"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respondBadRequest(w, "ttl must be an integer number of minutes")
			return
		}
		ttl = parsed
	}

	url, err := s.svc.GenerateTemporaryFileURL(r.Context(), user, chi.URLParam(r, "fileID"), ttl)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, map[string]string{"url": url})
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	var key []byte
	if v := r.Header.Get("X-Content-Key"); v != "" {
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			respondBadRequest(w, "X-Content-Key must be base64")
			return
		}
		key = decoded
	}

	fileID := chi.URLParam(r, "fileID")
	file, err := s.svc.GetFileByID(r.Context(), user, fileID)
	if err != nil {
		respondError(w, err)
		return
	}

	data, err := s.svc.DownloadFile(r.Context(), user, fileID, key)
	if err != nil {
		respondError(w, err)
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleMoveFile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	var body struct {
		FolderID *string `json:"folderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	if err := s.svc.MoveFile(r.Context(), user, chi.URLParam(r, "fileID"), body.FolderID); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	if err := s.svc.DeleteFile(r.Context(), user, chi.URLParam(r, "fileID")); err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleDeleteFolderFile(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	err := s.svc.DeleteFileInFolder(r.Context(), user, chi.URLParam(r, "folderID"), chi.URLParam(r, "fileID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, nil)
}

func (s *Server) handleListFolderFiles(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "unauthorized")
		return
	}

	limit, offset, sort := pageParams(r)
	files, err := s.svc.GetFilesInFolder(r.Context(), user, chi.URLParam(r, "folderID"), limit, offset, sort)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, toFileViews(files))
}
