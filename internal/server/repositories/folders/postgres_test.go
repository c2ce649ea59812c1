package folders

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"unidrive/internal/common"
	"unidrive/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func folderRows(folders ...*models.Folder) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"folder_id", "user_id", "parent_folder_id", "folder_name", "folder_type",
		"size", "number_files", "path", "created_at", "updated_at",
	})
	for _, f := range folders {
		rows.AddRow(f.ID, f.UserID, f.ParentFolderID, f.Name, f.Type,
			f.Size, f.NumberFiles, f.Path, time.Now(), time.Now())
	}
	return rows
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+folders`).
		WithArgs("fo-1", "u-1", nil, "docs", models.FolderTypePrivate, int64(0), int64(0), "docs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Folder{
		ID: "fo-1", UserID: "u-1", Name: "docs", Type: models.FolderTypePrivate, Path: "docs",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+folders`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &models.Folder{ID: "fo-1", UserID: "u-1", Name: "docs"})
	if !errors.Is(err, common.ErrorFolderNameAlreadyExists) {
		t.Fatalf("expected ErrorFolderNameAlreadyExists, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.*\s+FROM\s+folders\s+WHERE\s+folder_id\s*=\s*\$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorFolderNotFound) {
		t.Fatalf("expected ErrorFolderNotFound, got %v", err)
	}
}

func TestBumpAggregates(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+folders\s+SET\s+size\s*=\s*size\s*\+\s*\$2,\s*number_files\s*=\s*number_files\s*\+\s*\$3`).
		WithArgs("fo-1", int64(10), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.BumpAggregates(context.Background(), "fo-1", 10, 1); err != nil {
		t.Fatalf("BumpAggregates error: %v", err)
	}
}

func TestBumpAggregates_MissingFolder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+folders\s+SET\s+size`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.BumpAggregates(context.Background(), "missing", 10, 1)
	if !errors.Is(err, common.ErrorFolderNotFound) {
		t.Fatalf("expected ErrorFolderNotFound, got %v", err)
	}
}

func TestListMemberOf(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+.*\s+FROM\s+folders\s+f\s+JOIN\s+folder_members\s+m`).
		WithArgs("u-2", "", 10, 0).
		WillReturnRows(folderRows(
			&models.Folder{ID: "fo-1", UserID: "u-1", Name: "team", Type: models.FolderTypeShared, Path: "team"},
		))

	got, err := repo.ListMemberOf(context.Background(), "u-2", "", 10, 0, models.SortByCreatedAt)
	if err != nil {
		t.Fatalf("ListMemberOf error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "fo-1" {
		t.Fatalf("unexpected folders: %+v", got)
	}
}

func TestAddMember_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+folder_members`).
		WithArgs("fo-1", "u-2").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.AddMember(context.Background(), "fo-1", "u-2")
	if !errors.Is(err, common.ErrorUserAlreadyInFolder) {
		t.Fatalf("expected ErrorUserAlreadyInFolder, got %v", err)
	}
}

func TestRemoveMember_NotInFolder(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+folder_members`).
		WithArgs("fo-1", "u-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RemoveMember(context.Background(), "fo-1", "u-2")
	if !errors.Is(err, common.ErrorUserNotInFolder) {
		t.Fatalf("expected ErrorUserNotInFolder, got %v", err)
	}
}

func TestIsMember(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+folder_members`).
		WithArgs("fo-1", "u-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsMember(context.Background(), "fo-1", "u-2")
	if err != nil {
		t.Fatalf("IsMember error: %v", err)
	}
	if !ok {
		t.Fatal("expected member")
	}
}
