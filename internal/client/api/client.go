// Package api - HTTP-клиент REST API заметок.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	v1 "nicenote/pkg/api/notes/v1"
	"nicenote/pkg/logger"
)

// DefaultTimeout - таймаут HTTP-клиента по умолчанию.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 4 << 10

// Client обращается к API заметок. Безопасен для конкурентного использования.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	language   string
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken задает Bearer-токен.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLanguage задает Accept-Language для сообщений об ошибках.
func WithLanguage(lang string) Option {
	return func(c *Client) { c.language = lang }
}

// NewClient создает клиента. baseURL указывается без завершающего слэша.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListParams - параметры запроса страницы.
type ListParams struct {
	Cursor   *time.Time
	CursorID *string
	Limit    int
}

// List запрашивает страницу заметок.
func (c *Client) List(ctx context.Context, params ListParams) (*v1.ListResponse, error) {
	q := url.Values{}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Cursor != nil {
		q.Set("cursor", v1.FormatCursor(*params.Cursor))
		if params.CursorID != nil {
			q.Set("cursorId", *params.CursorID)
		}
	}

	var page v1.ListResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/notes", q), nil, &page); err != nil {
		return nil, err
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get запрашивает заметку.
func (c *Client) Get(ctx context.Context, id string) (*v1.Note, error) {
	var note v1.Note
	if err := c.do(ctx, http.MethodGet, notePath(id), nil, &note); err != nil {
		return nil, err
	}
	return validated(&note)
}

// Create создает заметку.
func (c *Client) Create(ctx context.Context, req v1.CreateNoteRequest) (*v1.Note, error) {
	var note v1.Note
	if err := c.do(ctx, http.MethodPost, "/notes", req, &note); err != nil {
		return nil, err
	}
	return validated(&note)
}

// Update частично обновляет заметку.
func (c *Client) Update(ctx context.Context, id string, req v1.UpdateNoteRequest) (*v1.Note, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	var note v1.Note
	if err := c.do(ctx, http.MethodPatch, notePath(id), req, &note); err != nil {
		return nil, err
	}
	return validated(&note)
}

// Delete удаляет заметку. Отсутствующая заметка возвращает ErrNotFound.
func (c *Client) Delete(ctx context.Context, id string) error {
	var resp v1.DeleteResponse
	return c.do(ctx, http.MethodDelete, notePath(id), nil, &resp)
}

// Search ищет заметки.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]v1.SearchHit, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp v1.SearchResponse
	if err := c.do(ctx, http.MethodGet, withQuery("/notes/search", q), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Health проверяет доступность сервера.
func (c *Client) Health(ctx context.Context) error {
	var resp v1.HealthResponse
	return c.do(ctx, http.MethodGet, "/health", nil, &resp)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	log := logger.Log(ctx).With(zap.String("method", "api.Client.do"), zap.String("http_method", method), zap.String("path", path))

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}
	if id, ok := logger.GetRequestID(ctx); ok && id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Debug(ctx, "request failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var e v1.ErrorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		log.Debug(ctx, "server returned error", zap.Int("status", resp.StatusCode), zap.String("message", apiErr.Message))
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %w", v1.ErrInvalidResponse, method, path, err)
	}
	return nil
}

func validated(n *v1.Note) (*v1.Note, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func notePath(id string) string {
	return "/notes/" + url.PathEscape(id)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
