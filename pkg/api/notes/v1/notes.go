// Package v1 описывает JSON-контракт HTTP API заметок, общий для сервера и клиента.
package v1

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Ошибки валидации.
var (
	ErrInvalidBody     = errors.New("malformed JSON body")
	ErrNoFields        = errors.New("at least one field must be provided for update")
	ErrTitleNull       = errors.New("title must be a string")
	ErrInvalidResponse = errors.New("invalid response shape")
)

// Note - полная запись заметки.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   *string   `json:"content"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate проверяет форму ответа сервера.
func (n *Note) Validate() error {
	switch {
	case n.ID == "":
		return fmt.Errorf("%w: note id is empty", ErrInvalidResponse)
	case n.CreatedAt.IsZero() || n.UpdatedAt.IsZero():
		return fmt.Errorf("%w: note %s has zero timestamps", ErrInvalidResponse, n.ID)
	case n.UpdatedAt.Before(n.CreatedAt):
		return fmt.Errorf("%w: note %s updatedAt precedes createdAt", ErrInvalidResponse, n.ID)
	}
	return nil
}

// NoteListItem - элемент списка без содержимого.
type NoteListItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListResponse - страница списка. Курсоры равны null на последней странице.
type ListResponse struct {
	Data         []NoteListItem `json:"data"`
	NextCursor   *time.Time     `json:"nextCursor"`
	NextCursorID *string        `json:"nextCursorId"`
}

// Validate проверяет согласованность страницы.
func (r *ListResponse) Validate() error {
	if (r.NextCursor == nil) != (r.NextCursorID == nil) {
		return fmt.Errorf("%w: nextCursor and nextCursorId must be set together", ErrInvalidResponse)
	}
	for i := range r.Data {
		if r.Data[i].ID == "" {
			return fmt.Errorf("%w: list item %d has empty id", ErrInvalidResponse, i)
		}
	}
	return nil
}

// SearchHit - результат поиска.
type SearchHit struct {
	NoteListItem
	Snippet string `json:"snippet"`
}

// SearchResponse - ответ поиска.
type SearchResponse struct {
	Data []SearchHit `json:"data"`
}

// CreateNoteRequest - тело POST /notes.
type CreateNoteRequest struct {
	Title   Optional[string] `json:"title,omitzero"`
	Content Optional[string] `json:"content,omitzero"`
}

// Validate проверяет запрос на создание.
func (r *CreateNoteRequest) Validate() error {
	if r.Title.Null {
		return ErrTitleNull
	}
	return nil
}

// UpdateNoteRequest - тело PATCH /notes/{id}. Явный null в content не меняет содержимое.
type UpdateNoteRequest struct {
	Title   Optional[string] `json:"title,omitzero"`
	Content Optional[string] `json:"content,omitzero"`
}

// Validate проверяет, что задано хотя бы одно поле.
func (r *UpdateNoteRequest) Validate() error {
	if !r.Title.Set && !r.Content.Set {
		return ErrNoFields
	}
	if r.Title.Null {
		return ErrTitleNull
	}
	return nil
}

// DeleteResponse - ответ DELETE /notes/{id}.
type DeleteResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse - ответ проверки работоспособности.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// DecodeStrict разбирает ровно один JSON-объект, отклоняя неизвестные поля.
// Пустое тело трактуется как {}.
func DecodeStrict(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON object", ErrInvalidBody)
	}
	return nil
}

// FormatCursor форматирует курсор для query-параметра.
func FormatCursor(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseCursor разбирает курсор в формате RFC 3339 со смещением.
func ParseCursor(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cursor %q: %w", s, err)
	}
	return t.UTC(), nil
}
