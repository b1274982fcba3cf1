// Package app реализует бизнес-логику сервиса заметок.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"nicenote/internal/notes/domain/entities"
	"nicenote/internal/notes/domain/markdown"
	"nicenote/internal/notes/ports/cache"
	"nicenote/internal/notes/ports/repositories"
	"nicenote/pkg/logger"
	"nicenote/pkg/resilience"
)

// Ошибки уровня бизнес-логики.
var (
	ErrNotFound      = errors.New("note not found")
	ErrInvalidParams = errors.New("invalid parameters")
)

// Значения по умолчанию.
const (
	DefaultPageLimit   = 50
	MaxPageLimit       = 100
	DefaultSearchLimit = 20
	MaxSearchLimit     = 50
)

// Константы для сообщений logger.
const (
	LogCacheUnavailable = "note cache unavailable, falling back to repository"
	LogCacheHit         = "note cache hit"
)

// ListParams - параметры запроса страницы.
type ListParams struct {
	Cursor   *time.Time
	CursorID *string
	Limit    int
}

// NoteUseCase представляет бизнес-логику работы с заметками.
type NoteUseCase struct {
	noteRepo     repositories.NoteRepository
	noteCache    cache.NoteCache
	breaker      *resilience.CircuitBreaker
	defaultLimit int
	maxLimit     int
}

// Option настраивает NoteUseCase.
type Option func(*NoteUseCase)

// WithCache включает кэш карточек. Ошибки кэша не прерывают запросы,
// а после серии сбоев Circuit Breaker временно отключает обращения к нему.
func WithCache(c cache.NoteCache, breaker *resilience.CircuitBreaker) Option {
	return func(uc *NoteUseCase) {
		uc.noteCache = c
		uc.breaker = breaker
	}
}

// WithPageLimits задает размер страницы по умолчанию и максимальный.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(uc *NoteUseCase) {
		if maxLimit > 0 {
			uc.maxLimit = maxLimit
		}
		if defaultLimit > 0 && defaultLimit <= uc.maxLimit {
			uc.defaultLimit = defaultLimit
		}
	}
}

// NewNoteUseCase создает новый экземпляр NoteUseCase.
func NewNoteUseCase(noteRepo repositories.NoteRepository, opts ...Option) *NoteUseCase {
	uc := &NoteUseCase{
		noteRepo:     noteRepo,
		defaultLimit: DefaultPageLimit,
		maxLimit:     MaxPageLimit,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.noteCache != nil && uc.breaker == nil {
		uc.breaker = resilience.NewCircuitBreaker("note-cache", resilience.DefaultCircuitBreakerConfig())
	}
	return uc
}

// MaxLimit возвращает максимальный размер страницы.
func (uc *NoteUseCase) MaxLimit() int {
	return uc.maxLimit
}

// ListNotes возвращает страницу заметок. Размер страницы приводится к допустимому диапазону.
func (uc *NoteUseCase) ListNotes(ctx context.Context, params ListParams) (*entities.NotePage, error) {
	limit := params.Limit
	switch {
	case limit <= 0:
		limit = uc.defaultLimit
	case limit > uc.maxLimit:
		limit = uc.maxLimit
	}

	cursorID := params.CursorID
	if params.Cursor == nil {
		cursorID = nil
	}

	page, err := uc.noteRepo.List(ctx, params.Cursor, cursorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return page, nil
}

// GetNote возвращает заметку по id, сначала проверяя кэш.
func (uc *NoteUseCase) GetNote(ctx context.Context, id string) (*entities.Note, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty note id", ErrInvalidParams)
	}

	if note := uc.cacheGet(ctx, id); note != nil {
		return note, nil
	}

	note, err := uc.noteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, uc.mapRepoErr("failed to get note", err)
	}

	uc.cacheSet(ctx, note)
	return note, nil
}

// CreateNote создает заметку. Пустой заголовок заменяется на "Untitled".
func (uc *NoteUseCase) CreateNote(ctx context.Context, title string, content *string) (*entities.Note, error) {
	note, err := uc.noteRepo.Create(ctx, title, content)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	uc.cacheSet(ctx, note)
	return note, nil
}

// UpdateNote применяет частичное обновление. Требуется хотя бы одно поле.
func (uc *NoteUseCase) UpdateNote(ctx context.Context, id string, patch entities.NotePatch) (*entities.Note, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty note id", ErrInvalidParams)
	}
	if patch.Empty() {
		return nil, fmt.Errorf("%w: at least one field must be provided for update", ErrInvalidParams)
	}

	note, err := uc.noteRepo.Update(ctx, id, patch)
	if err != nil {
		uc.cacheDelete(ctx, id)
		return nil, uc.mapRepoErr("failed to update note", err)
	}

	uc.cacheSet(ctx, note)
	return note, nil
}

// DeleteNote удаляет заметку и сообщает, существовала ли она.
func (uc *NoteUseCase) DeleteNote(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, fmt.Errorf("%w: empty note id", ErrInvalidParams)
	}

	deleted, err := uc.noteRepo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}

	uc.cacheDelete(ctx, id)
	return deleted, nil
}

// SearchNotes ищет заметки по подстроке в заголовке или содержимом.
func (uc *NoteUseCase) SearchNotes(ctx context.Context, query string, limit int) ([]entities.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidParams)
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	notes, err := uc.noteRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search notes: %w", err)
	}

	hits := make([]entities.SearchHit, 0, len(notes))
	for _, n := range notes {
		hit := entities.SearchHit{NoteListItem: n.ListItem()}
		if n.Content != nil {
			hit.Snippet = markdown.Snippet(*n.Content, query)
		}
		if hit.Snippet == "" {
			hit.Snippet = markdown.Snippet(n.Title, query)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (uc *NoteUseCase) mapRepoErr(msg string, err error) error {
	if errors.Is(err, repositories.ErrNoteNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func (uc *NoteUseCase) cacheGet(ctx context.Context, id string) *entities.Note {
	if uc.noteCache == nil {
		return nil
	}

	var note *entities.Note
	err := uc.breaker.Execute(ctx, func() error {
		var err error
		note, err = uc.noteCache.Get(ctx, id)
		return err //nolint:wrapcheck
	})
	if err != nil {
		logger.Log(ctx).Warn(ctx, LogCacheUnavailable, zap.String("noteID", id), zap.Error(err))
		return nil
	}
	if note != nil {
		logger.Log(ctx).Debug(ctx, LogCacheHit, zap.String("noteID", id))
	}
	return note
}

func (uc *NoteUseCase) cacheSet(ctx context.Context, note *entities.Note) {
	if uc.noteCache == nil {
		return
	}
	if err := uc.breaker.Execute(ctx, func() error { return uc.noteCache.Set(ctx, note) }); err != nil {
		logger.Log(ctx).Warn(ctx, LogCacheUnavailable, zap.String("noteID", note.ID), zap.Error(err))
	}
}

func (uc *NoteUseCase) cacheDelete(ctx context.Context, id string) {
	if uc.noteCache == nil {
		return
	}
	if err := uc.breaker.Execute(ctx, func() error { return uc.noteCache.Delete(ctx, id) }); err != nil {
		logger.Log(ctx).Warn(ctx, LogCacheUnavailable, zap.String("noteID", id), zap.Error(err))
	}
}
