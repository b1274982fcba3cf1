// Package postgres реализует хранилище заметок поверх pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"nicenote/internal/notes/domain/entities"
	"nicenote/internal/notes/ports/repositories"
	"nicenote/pkg/logger"
)

// Константы для сообщений об ошибках.
const (
	ErrCreateNote  = "failed to create note"
	ErrGetNote     = "failed to get note"
	ErrListNotes   = "failed to list notes"
	ErrScanNote    = "failed to scan note"
	ErrIterateRows = "error iterating rows"
	ErrUpdateNote  = "failed to update note"
	ErrDeleteNote  = "failed to delete note"
	ErrSearchNotes = "failed to search notes"
)

const noteColumns = `id, title, content, summary, created_at, updated_at`

const listColumns = `id, title, summary, created_at, updated_at`

const (
	queryInsertNote = `INSERT INTO notes (id, title, content, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING ` + noteColumns

	queryGetNote = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	queryUpdateNote = `UPDATE notes SET
		title = COALESCE($2, title),
		content = COALESCE($3, content),
		summary = CASE WHEN $3::text IS NULL THEN summary ELSE $4 END,
		updated_at = GREATEST($5, created_at)
		WHERE id = $1
		RETURNING ` + noteColumns

	queryDeleteNote = `DELETE FROM notes WHERE id = $1`

	queryListFirst = `SELECT ` + listColumns + ` FROM notes
		ORDER BY updated_at DESC, id DESC
		LIMIT $1`

	queryListAfterTime = `SELECT ` + listColumns + ` FROM notes
		WHERE updated_at < $1
		ORDER BY updated_at DESC, id DESC
		LIMIT $2`

	queryListAfterCursor = `SELECT ` + listColumns + ` FROM notes
		WHERE updated_at < $1 OR (updated_at = $1 AND id < $2)
		ORDER BY updated_at DESC, id DESC
		LIMIT $3`

	querySearch = `SELECT ` + noteColumns + ` FROM notes
		WHERE title ILIKE $1 ESCAPE '\' OR content ILIKE $1 ESCAPE '\'
		ORDER BY updated_at DESC, id DESC
		LIMIT $2`
)

// DBTX - подмножество методов pgxpool.Pool, нужное репозиторию.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NoteRepository реализует repositories.NoteRepository.
type NoteRepository struct {
	db    DBTX
	now   func() time.Time
	newID func() string
}

// Option настраивает NoteRepository.
type Option func(*NoteRepository)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(r *NoteRepository) { r.now = now }
}

// WithIDGenerator подменяет генератор идентификаторов.
func WithIDGenerator(gen func() string) Option {
	return func(r *NoteRepository) { r.newID = gen }
}

// NewNoteRepository создает новый репозиторий заметок.
func NewNoteRepository(db DBTX, opts ...Option) *NoteRepository {
	r := &NoteRepository{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// Create сохраняет новую заметку.
func (r *NoteRepository) Create(ctx context.Context, title string, content *string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Create"))

	raw := ""
	if content != nil {
		raw = *content
	}
	prepared := entities.PrepareContent(raw)
	id := r.newID()
	now := entities.Timestamp(r.now())

	log.Debug(ctx, "creating note", zap.String("noteID", id))

	note, err := scanNote(r.db.QueryRow(ctx, queryInsertNote,
		id, entities.NormalizeTitle(title), prepared.Content, prepared.Summary, now))
	if err != nil {
		log.Error(ctx, ErrCreateNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrCreateNote, err)
	}

	log.Debug(ctx, "note created", zap.String("noteID", note.ID))
	return note, nil
}

// GetByID получает заметку по id.
func (r *NoteRepository) GetByID(ctx context.Context, id string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.GetByID"))
	log.Debug(ctx, "getting note", zap.String("noteID", id))

	note, err := scanNote(r.db.QueryRow(ctx, queryGetNote, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found", zap.String("noteID", id))
			return nil, repositories.ErrNoteNotFound
		}
		log.Error(ctx, ErrGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrGetNote, err)
	}
	return note, nil
}

// List возвращает страницу заметок. Запрашивается limit+1 строк, чтобы узнать о следующей странице.
func (r *NoteRepository) List(ctx context.Context, cursor *time.Time, cursorID *string, limit int) (*entities.NotePage, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.List"))
	log.Debug(ctx, "listing notes", zap.Int("limit", limit), zap.Bool("hasCursor", cursor != nil))

	var (
		rows pgx.Rows
		err  error
	)
	switch {
	case cursor != nil && cursorID != nil:
		rows, err = r.db.Query(ctx, queryListAfterCursor, cursor.UTC(), *cursorID, limit+1)
	case cursor != nil:
		rows, err = r.db.Query(ctx, queryListAfterTime, cursor.UTC(), limit+1)
	default:
		rows, err = r.db.Query(ctx, queryListFirst, limit+1)
	}
	if err != nil {
		log.Error(ctx, ErrListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrListNotes, err)
	}
	defer rows.Close()

	items := make([]entities.NoteListItem, 0, limit+1)
	for rows.Next() {
		var item entities.NoteListItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Summary, &item.CreatedAt, &item.UpdatedAt); err != nil {
			log.Error(ctx, ErrScanNote, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrScanNote, err)
		}
		item.CreatedAt = item.CreatedAt.UTC()
		item.UpdatedAt = item.UpdatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrIterateRows, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrIterateRows, err)
	}

	page := &entities.NotePage{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := page.Items[len(page.Items)-1]
		next, nextID := last.UpdatedAt, last.ID
		page.NextCursor = &next
		page.NextCursorID = &nextID
	}
	return page, nil
}

// Update применяет патч. Содержимое и выдержка пересчитываются только при наличии content.
func (r *NoteRepository) Update(ctx context.Context, id string, patch entities.NotePatch) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Update"))
	log.Debug(ctx, "updating note", zap.String("noteID", id),
		zap.Bool("title", patch.Title != nil), zap.Bool("content", patch.Content != nil))

	var title, content, summary *string
	if patch.Title != nil {
		t := entities.NormalizeTitle(*patch.Title)
		title = &t
	}
	if patch.Content != nil {
		prepared := entities.PrepareContent(*patch.Content)
		content = &prepared.Content
		summary = prepared.Summary
	}

	note, err := scanNote(r.db.QueryRow(ctx, queryUpdateNote,
		id, title, content, summary, entities.Timestamp(r.now())))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found", zap.String("noteID", id))
			return nil, repositories.ErrNoteNotFound
		}
		log.Error(ctx, ErrUpdateNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrUpdateNote, err)
	}
	return note, nil
}

// Delete удаляет заметку.
func (r *NoteRepository) Delete(ctx context.Context, id string) (bool, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Delete"))
	log.Debug(ctx, "deleting note", zap.String("noteID", id))

	result, err := r.db.Exec(ctx, queryDeleteNote, id)
	if err != nil {
		log.Error(ctx, ErrDeleteNote, zap.Error(err))
		return false, fmt.Errorf("%s: %w", ErrDeleteNote, err)
	}

	deleted := result.RowsAffected() > 0
	if !deleted {
		log.Debug(ctx, "note already absent", zap.String("noteID", id))
	}
	return deleted, nil
}

// Search ищет подстроку в заголовке и содержимом без учета регистра.
func (r *NoteRepository) Search(ctx context.Context, query string, limit int) ([]*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Search"))
	log.Debug(ctx, "searching notes", zap.Int("limit", limit))

	rows, err := r.db.Query(ctx, querySearch, likePattern(query), limit)
	if err != nil {
		log.Error(ctx, ErrSearchNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrSearchNotes, err)
	}
	defer rows.Close()

	var notes []*entities.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			log.Error(ctx, ErrScanNote, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrScanNote, err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		log.Error(ctx, ErrIterateRows, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrIterateRows, err)
	}
	return notes, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

func scanNote(row pgx.Row) (*entities.Note, error) {
	var n entities.Note
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Summary, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return &n, nil
}
