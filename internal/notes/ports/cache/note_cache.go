// Package cache определяет интерфейс кэша карточек заметок.
package cache

import (
	"context"

	"nicenote/internal/notes/domain/entities"
)

// NoteCache хранит полные записи заметок по id.
type NoteCache interface {
	// Get возвращает nil без ошибки при промахе.
	Get(ctx context.Context, id string) (*entities.Note, error)
	Set(ctx context.Context, note *entities.Note) error
	Delete(ctx context.Context, id string) error
}
