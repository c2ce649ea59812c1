package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"unidrive/internal/common"
	"unidrive/internal/dbx"
	"unidrive/internal/logging"
	"unidrive/internal/server/config"
	"unidrive/internal/server/models"
	"unidrive/internal/server/providers"
	"unidrive/internal/server/repositories/files"
	"unidrive/internal/server/repositories/folders"
	"unidrive/internal/server/repositories/invites"
	"unidrive/internal/server/repositories/users"
)

// ---- in-memory repositories ----

func folderGroupEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakeFileRepo struct {
	mu    sync.Mutex
	files []*models.File
	err   error
}

func (r *fakeFileRepo) Create(_ context.Context, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, f := range r.files {
		if f.UserID == file.UserID && folderGroupEqual(f.FolderID, file.FolderID) && f.Name == file.Name {
			return common.ErrorFileNameAlreadyExists
		}
	}
	file.CreatedAt = time.Now()
	r.files = append(r.files, file)
	return nil
}

func (r *fakeFileRepo) GetByID(_ context.Context, fileID string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return nil, common.ErrorFileNotFound
}

func (r *fakeFileRepo) GetInFolder(_ context.Context, folderID *string, fileID string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.ID == fileID && folderGroupEqual(f.FolderID, folderID) {
			return f, nil
		}
	}
	return nil, common.ErrorFileNotFound
}

func (r *fakeFileRepo) List(_ context.Context, userID string, folderID *string, limit, offset int, _ models.Sort) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*models.File
	for _, f := range r.files {
		if f.UserID == userID && folderGroupEqual(f.FolderID, folderID) {
			out = append(out, f)
		}
	}
	return page(out, limit, offset), nil
}

func (r *fakeFileRepo) ListInFolder(_ context.Context, folderID string, limit, offset int, _ models.Sort) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.File
	for _, f := range r.files {
		if f.FolderID != nil && *f.FolderID == folderID {
			out = append(out, f)
		}
	}
	return page(out, limit, offset), nil
}

func (r *fakeFileRepo) ListAllInFolder(_ context.Context, folderID string) ([]*models.File, error) {
	return r.ListInFolder(context.Background(), folderID, len(r.files)+1, 0, models.SortByCreatedAt)
}

func (r *fakeFileRepo) NameExistsInFolder(_ context.Context, userID string, folderID *string, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	for _, f := range r.files {
		if f.UserID == userID && folderGroupEqual(f.FolderID, folderID) && f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFileRepo) SetFolder(_ context.Context, fileID string, folderID *string, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.files {
		if f.ID == fileID {
			f.FolderID = folderID
			f.Path = path
			return nil
		}
	}
	return common.ErrorFileNotFound
}

func (r *fakeFileRepo) Delete(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.files {
		if f.ID == fileID {
			r.files = append(r.files[:i], r.files[i+1:]...)
			return nil
		}
	}
	return common.ErrorFileNotFound
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

type fakeFolderRepo struct {
	mu      sync.Mutex
	folders []*models.Folder
	members map[string][]string // folderID -> userIDs
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{members: make(map[string][]string)}
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.UserID == folder.UserID && folderGroupEqual(f.ParentFolderID, folder.ParentFolderID) && f.Name == folder.Name {
			return common.ErrorFolderNameAlreadyExists
		}
	}
	folder.CreatedAt = time.Now()
	r.folders = append(r.folders, folder)
	return nil
}

func (r *fakeFolderRepo) GetByID(_ context.Context, folderID string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.ID == folderID {
			return f, nil
		}
	}
	return nil, common.ErrorFolderNotFound
}

func (r *fakeFolderRepo) ListChildren(_ context.Context, userID string, parentID *string, limit, offset int, _ models.Sort) ([]*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.folders {
		if f.UserID == userID && folderGroupEqual(f.ParentFolderID, parentID) {
			out = append(out, f)
		}
	}
	return page(out, limit, offset), nil
}

func (r *fakeFolderRepo) ListChildrenAll(_ context.Context, parentID string) ([]*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.folders {
		if f.ParentFolderID != nil && *f.ParentFolderID == parentID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFolderRepo) ListOwned(_ context.Context, userID, search string, limit, offset int, _ models.Sort) ([]*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.folders {
		if f.UserID == userID && strings.Contains(f.Name, search) {
			out = append(out, f)
		}
	}
	return page(out, limit, offset), nil
}

func (r *fakeFolderRepo) ListMemberOf(_ context.Context, userID, search string, limit, offset int, _ models.Sort) ([]*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.folders {
		for _, m := range r.members[f.ID] {
			if m == userID && strings.Contains(f.Name, search) {
				out = append(out, f)
			}
		}
	}
	return page(out, limit, offset), nil
}

func (r *fakeFolderRepo) NameExists(_ context.Context, userID string, parentID *string, name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.UserID == userID && folderGroupEqual(f.ParentFolderID, parentID) && f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFolderRepo) BumpAggregates(_ context.Context, folderID string, deltaSize, deltaFiles int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.ID == folderID {
			f.Size += deltaSize
			f.NumberFiles += deltaFiles
			return nil
		}
	}
	return common.ErrorFolderNotFound
}

func (r *fakeFolderRepo) SetType(_ context.Context, folderID string, t models.FolderType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.folders {
		if f.ID == folderID {
			f.Type = t
			return nil
		}
	}
	return common.ErrorFolderNotFound
}

func (r *fakeFolderRepo) Delete(_ context.Context, folderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	keep := r.folders[:0]
	doomed := map[string]bool{folderID: true}
	for changed := true; changed; {
		changed = false
		for _, f := range r.folders {
			if f.ParentFolderID != nil && doomed[*f.ParentFolderID] && !doomed[f.ID] {
				doomed[f.ID] = true
				changed = true
			}
		}
	}
	for _, f := range r.folders {
		if doomed[f.ID] {
			if f.ID == folderID {
				found = true
			}
			delete(r.members, f.ID)
			continue
		}
		keep = append(keep, f)
	}
	r.folders = keep
	if !found {
		return common.ErrorFolderNotFound
	}
	return nil
}

func (r *fakeFolderRepo) AddMember(_ context.Context, folderID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[folderID] {
		if m == userID {
			return common.ErrorUserAlreadyInFolder
		}
	}
	r.members[folderID] = append(r.members[folderID], userID)
	return nil
}

func (r *fakeFolderRepo) RemoveMember(_ context.Context, folderID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.members[folderID] {
		if m == userID {
			r.members[folderID] = append(r.members[folderID][:i], r.members[folderID][i+1:]...)
			return nil
		}
	}
	return common.ErrorUserNotInFolder
}

func (r *fakeFolderRepo) IsMember(_ context.Context, folderID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members[folderID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFolderRepo) ListMemberIDs(_ context.Context, folderID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.members[folderID]...), nil
}

type fakeInviteRepo struct {
	mu      sync.Mutex
	invites []*models.FolderInvite
}

func (r *fakeInviteRepo) Create(_ context.Context, invite *models.FolderInvite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.invites {
		if i.FolderID == invite.FolderID && i.InviteeID == invite.InviteeID && i.Status == models.InviteStatusPending {
			return common.ErrorUserAlreadyInFolder
		}
	}
	invite.CreatedAt = time.Now()
	r.invites = append(r.invites, invite)
	return nil
}

func (r *fakeInviteRepo) GetByID(_ context.Context, inviteID string) (*models.FolderInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.invites {
		if i.ID == inviteID {
			return i, nil
		}
	}
	return nil, common.ErrorInvalidInvite
}

func (r *fakeInviteRepo) SetStatus(_ context.Context, inviteID string, status models.InviteStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.invites {
		if i.ID == inviteID && i.Status == models.InviteStatusPending {
			i.Status = status
			return nil
		}
	}
	return common.ErrorInvalidInvite
}

func (r *fakeInviteRepo) ListReceived(_ context.Context, inviteeID string, limit, offset int) ([]*models.FolderInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FolderInvite
	for _, i := range r.invites {
		if i.InviteeID == inviteeID {
			out = append(out, i)
		}
	}
	return page(out, limit, offset), nil
}

func (r *fakeInviteRepo) ListSent(_ context.Context, inviterID string, limit, offset int) ([]*models.FolderInvite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FolderInvite
	for _, i := range r.invites {
		if i.InviterID == inviterID {
			out = append(out, i)
		}
	}
	return page(out, limit, offset), nil
}

func (r *fakeInviteRepo) DeletePendingForFolder(_ context.Context, folderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	keep := r.invites[:0]
	for _, i := range r.invites {
		if i.FolderID == folderID && i.Status == models.InviteStatusPending {
			continue
		}
		keep = append(keep, i)
	}
	r.invites = keep
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users []*models.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, common.ErrorGuestNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrorGuestNotFound
}

func (r *fakeUserRepo) Upsert(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, u := range r.users {
		if u.ID == user.ID {
			r.users[i] = user
			return nil
		}
	}
	r.users = append(r.users, user)
	return nil
}

type fakeRepoManager struct {
	users   *fakeUserRepo
	files   *fakeFileRepo
	folders *fakeFolderRepo
	invites *fakeInviteRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository     { return m.users }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository     { return m.files }
func (m *fakeRepoManager) Folders(dbx.DBTX) folders.Repository { return m.folders }
func (m *fakeRepoManager) Invites(dbx.DBTX) invites.Repository { return m.invites }

// ---- fake provider ----

type fakeProvider struct {
	mu    sync.Mutex
	blobs map[string][]byte

	ensureErr error
	uploadErr error
	moveErr   error
	deleteErr error
	signErr   error

	deletes []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{blobs: make(map[string][]byte)}
}

func (p *fakeProvider) key(bucket, path string) string { return bucket + "/" + path }

func (p *fakeProvider) EnsureBucket(context.Context, string) error { return p.ensureErr }

func (p *fakeProvider) Upload(_ context.Context, bucket, path string, data []byte, _ string) error {
	if p.uploadErr != nil {
		return p.uploadErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blobs[p.key(bucket, path)] = append([]byte(nil), data...)
	return nil
}

func (p *fakeProvider) Download(_ context.Context, bucket, path string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.blobs[p.key(bucket, path)]
	if !ok {
		return nil, common.ErrorBlobNotFound
	}
	return data, nil
}

func (p *fakeProvider) Move(_ context.Context, bucket, from, to string) error {
	if p.moveErr != nil {
		return p.moveErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.blobs[p.key(bucket, from)]
	if !ok {
		return common.ErrorBlobNotFound
	}
	p.blobs[p.key(bucket, to)] = data
	delete(p.blobs, p.key(bucket, from))
	return nil
}

func (p *fakeProvider) Delete(_ context.Context, bucket, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletes = append(p.deletes, path)
	if p.deleteErr != nil {
		return p.deleteErr
	}
	delete(p.blobs, p.key(bucket, path))
	return nil
}

func (p *fakeProvider) List(_ context.Context, bucket, prefix string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for k := range p.blobs {
		if strings.HasPrefix(k, p.key(bucket, prefix)) {
			out = append(out, strings.TrimPrefix(k, bucket+"/"))
		}
	}
	return out, nil
}

func (p *fakeProvider) SignURL(_ context.Context, _ string, path string, ttl time.Duration) (string, error) {
	if p.signErr != nil {
		return "", p.signErr
	}
	return fmt.Sprintf("https://signed.example/%s?ttl=%d", path, int(ttl.Minutes())), nil
}

// ---- publish recorder ----

type published struct {
	Targets []string
	Kind    models.EventKind
	Payload any
}

type publishRecorder struct {
	mu     sync.Mutex
	events []published
}

func (r *publishRecorder) Publish(_ context.Context, targetUserIDs []string, kind models.EventKind, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{Targets: targetUserIDs, Kind: kind, Payload: payload})
}

func (r *publishRecorder) ofKind(kind models.EventKind) []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []published
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ---- harness ----

type harness struct {
	svc      *StorageService
	mock     sqlmock.Sqlmock
	files    *fakeFileRepo
	folders  *fakeFolderRepo
	invites  *fakeInviteRepo
	users    *fakeUserRepo
	provider *fakeProvider
	hub      *publishRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &harness{
		mock:     mock,
		files:    &fakeFileRepo{},
		folders:  newFakeFolderRepo(),
		invites:  &fakeInviteRepo{},
		users:    &fakeUserRepo{},
		provider: newFakeProvider(),
		hub:      &publishRecorder{},
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	mgr := &fakeRepoManager{users: h.users, files: h.files, folders: h.folders, invites: h.invites}

	h.svc = NewStorageService(db, mgr, cfg, h.hub, logger)
	h.svc.initProvider = func(context.Context, providers.Type, config.ProviderCredential) (providers.Context, error) {
		return h.provider, nil
	}
	return h
}

// expectTx queues one Begin/Commit pair; fakes ignore the handle.
func (h *harness) expectTx() {
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
}

func (h *harness) addUser(id, username string) *models.User {
	u := &models.User{ID: id, Username: username, Email: username + "@example.com"}
	_ = h.users.Upsert(context.Background(), u)
	return u
}

func (h *harness) addFolder(f *models.Folder) *models.Folder {
	h.folders.mu.Lock()
	defer h.folders.mu.Unlock()
	h.folders.folders = append(h.folders.folders, f)
	return f
}

func (h *harness) addFile(f *models.File) *models.File {
	h.files.mu.Lock()
	defer h.files.mu.Unlock()
	h.files.files = append(h.files.files, f)
	return f
}

func strPtr(s string) *string { return &s }
