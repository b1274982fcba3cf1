// Package http реализует REST API заметок на fiber.
package http

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nicenote/internal/notes/app"
	"nicenote/internal/notes/domain/entities"
	v1 "nicenote/pkg/api/notes/v1"
	"nicenote/pkg/logger"
)

// Константы для логирования.
const (
	LogNoteCreated = "note created"
	LogNoteUpdated = "note updated"
	LogNoteDeleted = "note deleted"
)

// Сообщения об ошибках валидации запроса.
const (
	ErrMsgInvalidLimit    = "limit must be an integer between 1 and %d"
	ErrMsgInvalidCursor   = "cursor must be an RFC 3339 timestamp"
	ErrMsgEmptyQuery      = "query parameter q is required"
	ErrMsgMissingNoteID   = "note id is required"
	RootMessage           = "Nicenote API is running"
	statusOK              = "ok"
	queryParamLimit       = "limit"
	queryParamCursor      = "cursor"
	queryParamCursorID    = "cursorId"
	queryParamSearchQuery = "q"
)

// NoteService - операции бизнес-логики, которые использует HTTP-слой.
type NoteService interface {
	MaxLimit() int
	ListNotes(ctx context.Context, params app.ListParams) (*entities.NotePage, error)
	GetNote(ctx context.Context, id string) (*entities.Note, error)
	CreateNote(ctx context.Context, title string, content *string) (*entities.Note, error)
	UpdateNote(ctx context.Context, id string, patch entities.NotePatch) (*entities.Note, error)
	DeleteNote(ctx context.Context, id string) (bool, error)
	SearchNotes(ctx context.Context, query string, limit int) ([]entities.SearchHit, error)
}

// NoteHandler обрабатывает запросы к /notes.
type NoteHandler struct {
	notes NoteService
}

// NewNoteHandler создает обработчик заметок.
func NewNoteHandler(notes NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// Root отвечает статусом сервиса.
func (h *NoteHandler) Root(c fiber.Ctx) error {
	return c.JSON(v1.HealthResponse{Status: statusOK, Message: RootMessage})
}

// Health - проверка работоспособности.
func (h *NoteHandler) Health(c fiber.Ctx) error {
	return c.JSON(v1.HealthResponse{Status: statusOK})
}

// List возвращает страницу заметок.
func (h *NoteHandler) List(c fiber.Ctx) error {
	ctx := requestContext(c)

	limit, err := parseLimit(c.Query(queryParamLimit), h.notes.MaxLimit())
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, MsgInvalidRequest, err.Error())
	}

	params := app.ListParams{Limit: limit}
	if raw := c.Query(queryParamCursor); raw != "" {
		cursor, err := v1.ParseCursor(raw)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, MsgInvalidRequest, ErrMsgInvalidCursor)
		}
		params.Cursor = &cursor
		if id := c.Query(queryParamCursorID); id != "" {
			params.CursorID = &id
		}
	}

	page, err := h.notes.ListNotes(ctx, params)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toListResponse(page))
}

// Get возвращает заметку по id.
func (h *NoteHandler) Get(c fiber.Ctx) error {
	note, err := h.notes.GetNote(requestContext(c), c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toNoteDTO(note))
}

// Create создает заметку.
func (h *NoteHandler) Create(c fiber.Ctx) error {
	ctx := requestContext(c)

	var req v1.CreateNoteRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, fiber.StatusBadRequest, MsgInvalidRequest, err.Error())
	}

	title := ""
	if p := req.Title.Ptr(); p != nil {
		title = *p
	}
	note, err := h.notes.CreateNote(ctx, title, req.Content.Ptr())
	if err != nil {
		return handleError(c, err)
	}

	logger.Log(ctx).Info(ctx, LogNoteCreated, zap.String("note_id", note.ID))
	return c.Status(fiber.StatusCreated).JSON(toNoteDTO(note))
}

// Update частично обновляет заметку.
func (h *NoteHandler) Update(c fiber.Ctx) error {
	ctx := requestContext(c)
	id := c.Params("id")

	var req v1.UpdateNoteRequest
	if err := decodeBody(c, &req); err != nil {
		return writeError(c, fiber.StatusBadRequest, MsgInvalidRequest, err.Error())
	}

	patch := entities.NotePatch{
		Title:   req.Title.Ptr(),
		Content: req.Content.Ptr(),
		Touch:   req.Content.Null,
	}
	note, err := h.notes.UpdateNote(ctx, id, patch)
	if err != nil {
		return handleError(c, err)
	}

	logger.Log(ctx).Debug(ctx, LogNoteUpdated, zap.String("note_id", id))
	return c.JSON(toNoteDTO(note))
}

// Delete удаляет заметку. Повторное удаление дает 404.
func (h *NoteHandler) Delete(c fiber.Ctx) error {
	ctx := requestContext(c)
	id := c.Params("id")

	deleted, err := h.notes.DeleteNote(ctx, id)
	if err != nil {
		return handleError(c, err)
	}
	if !deleted {
		return writeError(c, fiber.StatusNotFound, MsgNotFound, "")
	}

	logger.Log(ctx).Info(ctx, LogNoteDeleted, zap.String("note_id", id))
	return c.JSON(v1.DeleteResponse{Success: true})
}

// Search ищет заметки по заголовку и содержимому.
func (h *NoteHandler) Search(c fiber.Ctx) error {
	query := strings.TrimSpace(c.Query(queryParamSearchQuery))
	if query == "" {
		return writeError(c, fiber.StatusBadRequest, MsgInvalidRequest, ErrMsgEmptyQuery)
	}

	limit, err := parseLimit(c.Query(queryParamLimit), app.MaxSearchLimit)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, MsgInvalidRequest, err.Error())
	}

	hits, err := h.notes.SearchNotes(requestContext(c), query, limit)
	if err != nil {
		return handleError(c, err)
	}

	resp := v1.SearchResponse{Data: make([]v1.SearchHit, 0, len(hits))}
	for _, hit := range hits {
		resp.Data = append(resp.Data, v1.SearchHit{NoteListItem: toListItemDTO(hit.NoteListItem), Snippet: hit.Snippet})
	}
	return c.JSON(resp)
}

// parseLimit возвращает 0, если параметр не задан: размер выберет бизнес-логика.
func parseLimit(raw string, maxLimit int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf(ErrMsgInvalidLimit, maxLimit)
	}
	return limit, nil
}

func decodeBody(c fiber.Ctx, v interface{ Validate() error }) error {
	if err := v1.DecodeStrict(c.Body(), v); err != nil {
		return err
	}
	return v.Validate()
}

func toNoteDTO(n *entities.Note) v1.Note {
	return v1.Note{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Summary:   n.Summary,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func toListItemDTO(item entities.NoteListItem) v1.NoteListItem {
	return v1.NoteListItem{
		ID:        item.ID,
		Title:     item.Title,
		Summary:   item.Summary,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}

func toListResponse(page *entities.NotePage) v1.ListResponse {
	resp := v1.ListResponse{
		Data:         make([]v1.NoteListItem, 0, len(page.Items)),
		NextCursor:   page.NextCursor,
		NextCursorID: page.NextCursorID,
	}
	for _, item := range page.Items {
		resp.Data = append(resp.Data, toListItemDTO(item))
	}
	return resp
}
