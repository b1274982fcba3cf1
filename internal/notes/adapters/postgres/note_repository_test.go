package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicenote/internal/notes/adapters/postgres"
	"nicenote/internal/notes/domain/entities"
	"nicenote/internal/notes/ports/repositories"
	"nicenote/pkg/logger"
)

var (
	errDatabaseConnection = errors.New("database connection failed")

	fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	created  = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	noteCols = []string{"id", "title", "content", "summary", "created_at", "updated_at"}
	listCols = []string{"id", "title", "summary", "created_at", "updated_at"}
)

func strPtr(s string) *string { return &s }

func testContext() context.Context {
	return logger.NewContext(context.Background(), logger.NewNop())
}

func newRepo(t *testing.T) (pgxmock.PgxPoolIface, *postgres.NoteRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	repo := postgres.NewNoteRepository(mock,
		postgres.WithClock(func() time.Time { return fixedNow }),
		postgres.WithIDGenerator(func() string { return "note-1" }))
	return mock, repo
}

func TestNoteRepository_Create(t *testing.T) {
	ctx := testContext()

	t.Run("sanitizes content and derives summary", func(t *testing.T) {
		mock, repo := newRepo(t)

		mock.ExpectQuery(`INSERT INTO notes \(id, title, content, summary, created_at, updated_at\)`).
			WithArgs("note-1", "Plan", "[x](#) **go**", strPtr("x go"), fixedNow).
			WillReturnRows(pgxmock.NewRows(noteCols).
				AddRow("note-1", "Plan", strPtr("[x](#) **go**"), strPtr("x go"), fixedNow, fixedNow))

		note, err := repo.Create(ctx, "Plan", strPtr("[x](javascript:alert(1)) **go**"))
		require.NoError(t, err)
		assert.Equal(t, "note-1", note.ID)
		assert.Equal(t, "[x](#) **go**", *note.Content)
		assert.Equal(t, "x go", *note.Summary)
		assert.Equal(t, fixedNow, note.UpdatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("defaults title and stores null summary for empty content", func(t *testing.T) {
		mock, repo := newRepo(t)

		mock.ExpectQuery(`INSERT INTO notes`).
			WithArgs("note-1", entities.DefaultTitle, "", (*string)(nil), fixedNow).
			WillReturnRows(pgxmock.NewRows(noteCols).
				AddRow("note-1", entities.DefaultTitle, strPtr(""), nil, fixedNow, fixedNow))

		note, err := repo.Create(ctx, "  ", nil)
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultTitle, note.Title)
		assert.Nil(t, note.Summary)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock, repo := newRepo(t)

		mock.ExpectQuery(`INSERT INTO notes`).
			WithArgs("note-1", "Plan", "", (*string)(nil), fixedNow).
			WillReturnError(errDatabaseConnection)

		note, err := repo.Create(ctx, "Plan", nil)
		require.Error(t, err)
		assert.Nil(t, note)
		assert.ErrorIs(t, err, errDatabaseConnection)
		assert.Contains(t, err.Error(), postgres.ErrCreateNote)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_GetByID(t *testing.T) {
	ctx := testContext()

	t.Run("found", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`SELECT id, title, content, summary, created_at, updated_at FROM notes WHERE id = \$1`).
			WithArgs("note-1").
			WillReturnRows(pgxmock.NewRows(noteCols).
				AddRow("note-1", "T", nil, nil, created, fixedNow))

		note, err := repo.GetByID(ctx, "note-1")
		require.NoError(t, err)
		assert.Nil(t, note.Content)
		assert.Equal(t, created, note.CreatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`FROM notes WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		note, err := repo.GetByID(ctx, "missing")
		assert.Nil(t, note)
		require.ErrorIs(t, err, repositories.ErrNoteNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`FROM notes WHERE id = \$1`).
			WithArgs("note-1").
			WillReturnError(errDatabaseConnection)

		_, err := repo.GetByID(ctx, "note-1")
		require.ErrorIs(t, err, errDatabaseConnection)
		assert.NotErrorIs(t, err, repositories.ErrNoteNotFound)
	})
}

func TestNoteRepository_List(t *testing.T) {
	ctx := testContext()
	t1 := fixedNow
	t2 := fixedNow.Add(-time.Minute)

	t.Run("first page with more rows", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`ORDER BY updated_at DESC, id DESC\s+LIMIT \$1`).
			WithArgs(3).
			WillReturnRows(pgxmock.NewRows(listCols).
				AddRow("c", "C", strPtr("c"), created, t1).
				AddRow("b", "B", nil, created, t1).
				AddRow("a", "A", nil, created, t2))

		page, err := repo.List(ctx, nil, nil, 2)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "b", page.Items[1].ID)
		require.NotNil(t, page.NextCursor)
		assert.Equal(t, t1, *page.NextCursor)
		assert.Equal(t, "b", *page.NextCursorID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("last page has no cursor", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`WHERE updated_at < \$1 OR \(updated_at = \$1 AND id < \$2\)`).
			WithArgs(t1, "b", 3).
			WillReturnRows(pgxmock.NewRows(listCols).
				AddRow("a", "A", nil, created, t2))

		page, err := repo.List(ctx, &t1, strPtr("b"), 2)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Nil(t, page.NextCursor)
		assert.Nil(t, page.NextCursorID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("timestamp cursor without id", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`WHERE updated_at < \$1\s+ORDER BY`).
			WithArgs(t1, 51).
			WillReturnRows(pgxmock.NewRows(listCols))

		page, err := repo.List(ctx, &t1, nil, 50)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Nil(t, page.NextCursor)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`FROM notes`).WithArgs(51).WillReturnError(errDatabaseConnection)

		_, err := repo.List(ctx, nil, nil, 50)
		require.ErrorIs(t, err, errDatabaseConnection)
		assert.Contains(t, err.Error(), postgres.ErrListNotes)
	})

	t.Run("row error", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`FROM notes`).WithArgs(51).
			WillReturnRows(pgxmock.NewRows(listCols).
				AddRow("a", "A", nil, created, t2).
				RowError(0, errDatabaseConnection))

		_, err := repo.List(ctx, nil, nil, 50)
		require.Error(t, err)
	})
}

func TestNoteRepository_Update(t *testing.T) {
	ctx := testContext()

	t.Run("title only keeps content", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`UPDATE notes SET`).
			WithArgs("note-1", strPtr("New"), (*string)(nil), (*string)(nil), fixedNow).
			WillReturnRows(pgxmock.NewRows(noteCols).
				AddRow("note-1", "New", strPtr("body"), strPtr("body"), created, fixedNow))

		note, err := repo.Update(ctx, "note-1", entities.NotePatch{Title: strPtr("New")})
		require.NoError(t, err)
		assert.Equal(t, "New", note.Title)
		assert.Equal(t, fixedNow, note.UpdatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("content is sanitized and summarized", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`UPDATE notes SET`).
			WithArgs("note-1", (*string)(nil), strPtr("# Hi [a](#)"), strPtr("Hi a"), fixedNow).
			WillReturnRows(pgxmock.NewRows(noteCols).
				AddRow("note-1", "T", strPtr("# Hi [a](#)"), strPtr("Hi a"), created, fixedNow))

		note, err := repo.Update(ctx, "note-1", entities.NotePatch{Content: strPtr("# Hi [a](vbscript:x)")})
		require.NoError(t, err)
		assert.Equal(t, "Hi a", *note.Summary)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty title becomes default", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`UPDATE notes SET`).
			WithArgs("note-1", strPtr(entities.DefaultTitle), (*string)(nil), (*string)(nil), fixedNow).
			WillReturnRows(pgxmock.NewRows(noteCols).
				AddRow("note-1", entities.DefaultTitle, nil, nil, created, fixedNow))

		_, err := repo.Update(ctx, "note-1", entities.NotePatch{Title: strPtr("")})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectQuery(`UPDATE notes SET`).
			WithArgs("missing", strPtr("x"), (*string)(nil), (*string)(nil), fixedNow).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Update(ctx, "missing", entities.NotePatch{Title: strPtr("x")})
		require.ErrorIs(t, err, repositories.ErrNoteNotFound)
	})
}

func TestNoteRepository_Delete(t *testing.T) {
	ctx := testContext()

	t.Run("delete twice reports true then false", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectExec(`DELETE FROM notes WHERE id = \$1`).
			WithArgs("note-1").
			WillReturnResult(pgconn.NewCommandTag("DELETE 1"))
		mock.ExpectExec(`DELETE FROM notes WHERE id = \$1`).
			WithArgs("note-1").
			WillReturnResult(pgconn.NewCommandTag("DELETE 0"))

		first, err := repo.Delete(ctx, "note-1")
		require.NoError(t, err)
		assert.True(t, first)

		second, err := repo.Delete(ctx, "note-1")
		require.NoError(t, err)
		assert.False(t, second)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock, repo := newRepo(t)
		mock.ExpectExec(`DELETE FROM notes`).
			WithArgs("note-1").
			WillReturnError(errDatabaseConnection)

		ok, err := repo.Delete(ctx, "note-1")
		require.ErrorIs(t, err, errDatabaseConnection)
		assert.False(t, ok)
	})
}

func TestNoteRepository_Search(t *testing.T) {
	ctx := testContext()
	mock, repo := newRepo(t)

	mock.ExpectQuery(`WHERE title ILIKE \$1 ESCAPE`).
		WithArgs(`%50\%\_off%`, 20).
		WillReturnRows(pgxmock.NewRows(noteCols).
			AddRow("note-1", "Sale", strPtr("now 50%_off"), nil, created, fixedNow))

	notes, err := repo.Search(ctx, "50%_off", 20)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Sale", notes[0].Title)
	require.NoError(t, mock.ExpectationsWereMet())
}
