// Package repositories определяет интерфейсы хранилища сервиса заметок.
package repositories

import (
	"context"
	"errors"
	"time"

	"nicenote/internal/notes/domain/entities"
)

// ErrNoteNotFound возвращается, если заметки с таким id нет.
var ErrNoteNotFound = errors.New("note not found")

// NoteRepository определяет интерфейс хранилища заметок.
type NoteRepository interface {
	// List возвращает до limit заметок в порядке (updated_at DESC, id DESC) после курсора.
	List(ctx context.Context, cursor *time.Time, cursorID *string, limit int) (*entities.NotePage, error)
	GetByID(ctx context.Context, id string) (*entities.Note, error)
	Create(ctx context.Context, title string, content *string) (*entities.Note, error)
	Update(ctx context.Context, id string, patch entities.NotePatch) (*entities.Note, error)
	// Delete сообщает, была ли удалена строка. Повторное удаление не ошибка.
	Delete(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]*entities.Note, error)
}
