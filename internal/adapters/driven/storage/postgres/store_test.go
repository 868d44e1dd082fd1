package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/readwell/internal/core/domain"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := New(db)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

var columns = []string{
	"id", "owner_id", "title", "content_ref", "source", "source_url", "file_name",
	"status", "progress", "error", "metadata", "created_at", "updated_at",
}

func TestMigrate_UsesEmbeddedFS(t *testing.T) {
	s, _ := newStoreWithMock(t)

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	called := false
	gooseUpContext = func(_ context.Context, db *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		called = true
		assert.Same(t, s.db, db)
		assert.Equal(t, ".", dir)
		return nil
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.True(t, called)
}

func TestMigrate_Error(t *testing.T) {
	s, _ := newStoreWithMock(t)

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	assert.EqualError(t, s.Migrate(context.Background()), "boom")
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_Success(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`INSERT INTO documents \(id, owner_id, .*\) VALUES \(\$1, .*\$13\)`).
		WithArgs("doc-1", "user-1", "Paper", "", "upload", "https://utfs.io/f/a.pdf", "a.pdf",
			"pending", 0, "", `{"wordCount":0,"estimatedReadingTime":0}`, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc := &domain.Document{
		ID:        "doc-1",
		OwnerID:   "user-1",
		Title:     "Paper",
		Source:    domain.SourceUpload,
		SourceURL: "https://utfs.io/f/a.pdf",
		FileName:  "a.pdf",
		Status:    domain.StatusPending,
		Metadata:  &domain.Metadata{},
	}
	require.NoError(t, s.Create(context.Background(), doc))
	assert.Equal(t, fixedNow, doc.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`INSERT INTO documents`).
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	err := s.Create(context.Background(), &domain.Document{ID: "doc-1", OwnerID: "u"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreate_RequiresID(t *testing.T) {
	s, _ := newStoreWithMock(t)
	err := s.Create(context.Background(), &domain.Document{OwnerID: "u"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGet_Found(t *testing.T) {
	s, mock := newStoreWithMock(t)

	rows := sqlmock.NewRows(columns).AddRow(
		"doc-1", "user-1", "Paper", "c.md", "url", "https://utfs.io/f/a.pdf", "a.pdf",
		"completed", 100, "", []byte(`{"wordCount":3,"estimatedReadingTime":1,"images":[{"index":1,"id":"img-1","storageId":"x.png"}]}`),
		fixedNow, fixedNow,
	)
	mock.ExpectQuery(`SELECT .* FROM documents WHERE id = \$1`).WithArgs("doc-1").WillReturnRows(rows)

	doc, err := s.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, doc.Status)
	assert.Equal(t, domain.SourceURL, doc.Source)
	assert.Equal(t, 100, doc.Progress)
	require.NotNil(t, doc.Metadata)
	assert.Equal(t, 3, doc.Metadata.WordCount)
	require.Len(t, doc.Metadata.Images, 1)
	assert.Equal(t, "x.png", doc.Metadata.Images[0].StorageRef)
}

func TestGet_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`SELECT .* FROM documents WHERE id = \$1`).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPatch_BuildsSetClause(t *testing.T) {
	s, mock := newStoreWithMock(t)

	status := domain.StatusFailed
	msg := "insufficient content extracted from PDF"

	mock.ExpectExec(`UPDATE documents SET status = \$1, error = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs("failed", msg, fixedNow, "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Patch(context.Background(), "doc-1", domain.DocumentPatch{Status: &status, Error: &msg})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPatch_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	progress := 50
	mock.ExpectExec(`UPDATE documents SET progress = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(50, fixedNow, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Patch(context.Background(), "missing", domain.DocumentPatch{Progress: &progress})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_ByOwner(t *testing.T) {
	s, mock := newStoreWithMock(t)

	rows := sqlmock.NewRows(columns).
		AddRow("b", "user-1", "B", "", "upload", "", "b.pdf", "pending", 0, "", nil, fixedNow, fixedNow).
		AddRow("a", "user-1", "A", "", "upload", "", "a.pdf", "completed", 100, "", []byte("null"), fixedNow, fixedNow)
	mock.ExpectQuery(`SELECT .* FROM documents WHERE owner_id = \$1 ORDER BY created_at DESC, id ASC`).
		WithArgs("user-1").WillReturnRows(rows)

	docs, err := s.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Nil(t, docs[0].Metadata)
	assert.Nil(t, docs[1].Metadata)
}

func TestList_QueryError(t *testing.T) {
	s, mock := newStoreWithMock(t)
	mock.ExpectQuery(`SELECT .* FROM documents`).WillReturnError(errors.New("conn reset"))

	_, err := s.List(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestDelete(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`DELETE FROM documents WHERE id = \$1`).WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), "doc-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
