// Package entities определяет доменные сущности сервиса заметок.
package entities

import (
	"strings"
	"time"

	"nicenote/internal/notes/domain/markdown"
)

// DefaultTitle подставляется вместо пустого заголовка.
const DefaultTitle = "Untitled"

// Note представляет заметку.
type Note struct {
	ID        string
	Title     string
	Content   *string
	Summary   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteListItem - представление заметки в списке, без содержимого.
type NoteListItem struct {
	ID        string
	Title     string
	Summary   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListItem возвращает представление заметки для списка.
func (n *Note) ListItem() NoteListItem {
	return NoteListItem{
		ID:        n.ID,
		Title:     n.Title,
		Summary:   n.Summary,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// NotePage - страница списка с курсором на следующую.
// NextCursor и NextCursorID равны nil, если страниц больше нет.
type NotePage struct {
	Items        []NoteListItem
	NextCursor   *time.Time
	NextCursorID *string
}

// NotePatch описывает частичное обновление. nil означает "не менять".
// Touch без полей только сдвигает updated_at.
type NotePatch struct {
	Title   *string
	Content *string
	Touch   bool
}

// Empty сообщает, что в патче нет ни одного поля.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && !p.Touch
}

// SearchHit - результат поиска с подсвеченным фрагментом.
type SearchHit struct {
	NoteListItem
	Snippet string
}

// NormalizeTitle заменяет пустой заголовок на DefaultTitle.
func NormalizeTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return DefaultTitle
	}
	return title
}

// PreparedContent - очищенное содержимое и выведенная из него выдержка.
type PreparedContent struct {
	Content string
	Summary *string
}

// PrepareContent очищает markdown и строит summary. Пустой summary хранится как NULL.
func PrepareContent(raw string) PreparedContent {
	clean := markdown.Sanitize(raw)
	out := PreparedContent{Content: clean}
	if s := markdown.Summary(clean); s != "" {
		out.Summary = &s
	}
	return out
}

// Timestamp приводит время к точности хранилища (микросекунды, UTC).
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
