// Package httpserver exposes the storage engine over HTTP: a chi-routed
// JSON API plus a server-sent-events stream for live change notifications.
// It consumes upstream-issued bearer tokens and never issues credentials.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"unidrive/internal/logging"
	"unidrive/internal/server/config"
	"unidrive/internal/server/events"
	"unidrive/internal/server/models"
	"unidrive/internal/server/services"
)

// storage is the slice of the service layer the handlers need.
// *services.StorageService implements it.
type storage interface {
	SyncIdentity(ctx context.Context, user *models.User) error

	UploadFile(ctx context.Context, user *models.User, req services.UploadRequest) (*services.UploadResult, error)
	GetFiles(ctx context.Context, user *models.User, limit, offset int, sort string) ([]*models.File, error)
	GetFilesInFolder(ctx context.Context, user *models.User, folderID string, limit, offset int, sort string) ([]*models.File, error)
	GetFileByID(ctx context.Context, user *models.User, fileID string) (*models.File, error)
	GetFileInFolder(ctx context.Context, user *models.User, folderID *string, fileID string) (*models.File, error)
	GenerateTemporaryFileURL(ctx context.Context, user *models.User, fileID string, minutesTTL int) (string, error)
	DownloadFile(ctx context.Context, user *models.User, fileID string, key []byte) ([]byte, error)
	MoveFile(ctx context.Context, user *models.User, fileID string, targetFolderID *string) error
	DeleteFile(ctx context.Context, user *models.User, fileID string) error
	DeleteFileInFolder(ctx context.Context, user *models.User, folderID, fileID string) error

	CreateFolder(ctx context.Context, user *models.User, name string) (*models.Folder, error)
	CreateFolderInFolder(ctx context.Context, user *models.User, name, parentID string) (*models.Folder, error)
	GetFolderByID(ctx context.Context, user *models.User, folderID string) (*models.Folder, error)
	GetFoldersInFolder(ctx context.Context, user *models.User, parentID *string, limit, offset int, sort string) ([]*models.Folder, error)
	GetFolders(ctx context.Context, user *models.User, shared bool, search string, limit, offset int, sort string) ([]*models.Folder, error)
	DeleteFolder(ctx context.Context, user *models.User, folderID string) error

	InviteFolder(ctx context.Context, user *models.User, folderID, inviteeUsername string) (*models.FolderInvite, error)
	ValidateFolderInvite(ctx context.Context, user *models.User, inviteID string, decision models.InviteDecision) (*models.Folder, error)
	LeaveFolder(ctx context.Context, user *models.User, folderID string) error
	GetReceivedFolderInvites(ctx context.Context, user *models.User, limit, offset int) ([]*models.FolderInvite, error)
	GetSentFolderInvites(ctx context.Context, user *models.User, limit, offset int) ([]*models.FolderInvite, error)
}

var _ storage = (*services.StorageService)(nil)

// sessions is the subscription surface of the event hub used by the SSE
// endpoint.
type sessions interface {
	Subscribe(userID, sessionToken string, emitter events.Emitter)
	Unsubscribe(userID, sessionToken string)
}

// Server is the HTTP front of the engine.
type Server struct {
	cfg    *config.Config
	svc    storage
	hub    sessions
	logger logging.Logger

	srv *http.Server
}

// NewServer wires the router and returns a Server ready to Run.
func NewServer(cfg *config.Config, svc storage, hub sessions, logger logging.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		hub:    hub,
		logger: logger.With("module", "http_server"),
	}

	s.srv = &http.Server{
		Addr:        cfg.EndpointAddrHTTP,
		Handler:     s.routes(),
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: the SSE stream stays open indefinitely
		IdleTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Content-Key"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/events", s.handleEvents)

		r.Route("/files", func(r chi.Router) {
			r.Post("/", s.handleUploadFile)
			r.Get("/", s.handleListFiles)
			r.Route("/{fileID}", func(r chi.Router) {
				r.Get("/", s.handleGetFile)
				r.Get("/url", s.handleSignFileURL)
				r.Get("/content", s.handleDownloadFile)
				r.Patch("/", s.handleMoveFile)
				r.Delete("/", s.handleDeleteFile)
			})
		})

		r.Route("/folders", func(r chi.Router) {
			r.Post("/", s.handleCreateFolder)
			r.Get("/", s.handleListFolders)
			r.Route("/{folderID}", func(r chi.Router) {
				r.Get("/", s.handleGetFolder)
				r.Delete("/", s.handleDeleteFolder)
				r.Get("/folders", s.handleListSubFolders)
				r.Get("/files", s.handleListFolderFiles)
				r.Delete("/files/{fileID}", s.handleDeleteFolderFile)
				r.Post("/invites", s.handleInviteFolder)
				r.Post("/leave", s.handleLeaveFolder)
			})
		})

		r.Route("/invites", func(r chi.Router) {
			r.Get("/received", s.handleReceivedInvites)
			r.Get("/sent", s.handleSentInvites)
			r.Post("/{inviteID}", s.handleDecideInvite)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
