// Package session связывает транспорт, кэш и автосохранение в клиентские сценарии:
// загрузку списка, открытие, создание, правку и удаление заметок.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"nicenote/internal/client/api"
	"nicenote/internal/client/cache"
	"nicenote/internal/notes/domain/entities"
	"nicenote/internal/notes/domain/markdown"
	v1 "nicenote/pkg/api/notes/v1"
	"nicenote/pkg/logger"
)

// Тексты уведомлений.
const (
	MsgCreateFailed = "Network error: failed to create note."
	MsgDeleteFailed = "Network error: failed to delete note."
)

// ErrLoad оборачивает ошибки загрузки списка и карточек.
var ErrLoad = errors.New("failed to load notes")

// API - операции транспорта, нужные сессии. Реализуется api.Client.
type API interface {
	List(ctx context.Context, params api.ListParams) (*v1.ListResponse, error)
	Get(ctx context.Context, id string) (*v1.Note, error)
	Create(ctx context.Context, req v1.CreateNoteRequest) (*v1.Note, error)
	Delete(ctx context.Context, id string) error
}

// Autosave - операции конвейера автосохранения, нужные сессии.
type Autosave interface {
	Schedule(id string, updates v1.UpdateNoteRequest) error
	Cancel(id string) v1.UpdateNoteRequest
}

// Notifier показывает уведомления.
type Notifier interface {
	Add(message string) string
}

// Session - клиентская сессия работы с заметками.
type Session struct {
	api      API
	cache    *cache.Cache
	autosave Autosave
	notifier Notifier
	pageSize int
}

// New создает сессию. pageSize 0 оставляет размер страницы на усмотрение сервера.
func New(client API, c *cache.Cache, saver Autosave, notifier Notifier, pageSize int) *Session {
	return &Session{api: client, cache: c, autosave: saver, notifier: notifier, pageSize: pageSize}
}

// Refresh перезагружает список с первой страницы. Ошибка фиксируется в cache.LoadState.
func (s *Session) Refresh(ctx context.Context) error {
	s.cache.SetLoadState(cache.LoadLoading, nil)

	page, err := s.api.List(ctx, api.ListParams{Limit: s.pageSize})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoad, err)
		s.cache.SetLoadState(cache.LoadFailed, err)
		return err
	}

	s.cache.SetFirstPage(toPage(page))
	s.cache.SetLoadState(cache.LoadLoaded, nil)
	return nil
}

// LoadMore догружает следующую страницу. Возвращает false, если страниц больше нет.
func (s *Session) LoadMore(ctx context.Context) (bool, error) {
	cursor, cursorID, ok := s.cache.NextCursor()
	if !ok {
		return false, nil
	}

	page, err := s.api.List(ctx, api.ListParams{Cursor: &cursor, CursorID: &cursorID, Limit: s.pageSize})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoad, err)
		s.cache.SetLoadState(cache.LoadFailed, err)
		return false, err
	}

	s.cache.AppendPage(toPage(page))
	return true, nil
}

// Open возвращает карточку заметки, загружая ее при отсутствии в кэше.
func (s *Session) Open(ctx context.Context, id string) (v1.Note, error) {
	if note, ok := s.cache.ReadDetail(id); ok {
		return note, nil
	}

	note, err := s.api.Get(ctx, id)
	if err != nil {
		return v1.Note{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	s.cache.PutDetail(*note)
	return *note, nil
}

// Create создает пустую заметку и ставит ее в начало первой страницы.
func (s *Session) Create(ctx context.Context) (v1.Note, error) {
	note, err := s.api.Create(ctx, v1.CreateNoteRequest{
		Title:   v1.Some(entities.DefaultTitle),
		Content: v1.Some(""),
	})
	if err != nil {
		logger.Log(ctx).Warn(ctx, MsgCreateFailed, zap.Error(err))
		s.notify(MsgCreateFailed)
		return v1.Note{}, err
	}

	s.cache.PutDetail(*note)
	s.cache.InsertAtHead(listItem(*note))
	return *note, nil
}

// Edit ставит правку в очередь автосохранения.
func (s *Session) Edit(id string, updates v1.UpdateNoteRequest) error {
	return s.autosave.Schedule(id, updates)
}

// Delete удаляет заметку на сервере и из кэша. Ожидающие правки снимаются до запроса,
// чтобы автосохранение не писало в удаляемую заметку, и возвращаются в очередь,
// если удалить не удалось. Уже удаленная на сервере заметка считается успешно удаленной.
func (s *Session) Delete(ctx context.Context, id string) error {
	pending := s.autosave.Cancel(id)

	if err := s.api.Delete(ctx, id); err != nil && !api.IsNotFound(err) {
		log := logger.Log(ctx).With(zap.String("note_id", id))
		log.Warn(ctx, MsgDeleteFailed, zap.Error(err))
		if pending.Title.Set || pending.Content.Set {
			if serr := s.autosave.Schedule(id, pending); serr != nil {
				log.Warn(ctx, "failed to requeue pending edits", zap.Error(serr))
			}
		}
		s.notify(MsgDeleteFailed)
		return err
	}

	s.cache.Remove(id)
	return nil
}

func (s *Session) notify(msg string) {
	if s.notifier != nil {
		s.notifier.Add(msg)
	}
}

func toPage(resp *v1.ListResponse) cache.Page {
	return cache.Page{Items: resp.Data, NextCursor: resp.NextCursor, NextCursorID: resp.NextCursorID}
}

func listItem(n v1.Note) v1.NoteListItem {
	item := v1.NoteListItem{ID: n.ID, Title: n.Title, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
	if n.Content != nil {
		if summary := markdown.Summary(*n.Content); summary != "" {
			item.Summary = &summary
		}
	}
	return item
}
