package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicenote/internal/client/api"
	v1 "nicenote/pkg/api/notes/v1"
)

var (
	created = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	updated = created.Add(time.Minute)
)

func noteJSON(id string) v1.Note {
	content := "body"
	return v1.Note{ID: id, Title: "Hello", Content: &content, CreatedAt: created, UpdatedAt: updated}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClientRequests(t *testing.T) {
	var lastRequest *http.Request
	var lastBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastRequest = r
		lastBody, _ = io.ReadAll(r.Body)
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/notes":
			next := updated
			id := "n1"
			writeJSON(t, w, http.StatusOK, v1.ListResponse{
				Data:         []v1.NoteListItem{{ID: "n1", Title: "Hello", CreatedAt: created, UpdatedAt: updated}},
				NextCursor:   &next,
				NextCursorID: &id,
			})
		case r.Method == http.MethodGet && r.URL.Path == "/notes/search":
			writeJSON(t, w, http.StatusOK, v1.SearchResponse{Data: []v1.SearchHit{{Snippet: "<mark>x</mark>"}}})
		case r.Method == http.MethodPost:
			writeJSON(t, w, http.StatusCreated, noteJSON("new"))
		case r.Method == http.MethodPatch, r.Method == http.MethodGet:
			writeJSON(t, w, http.StatusOK, noteJSON("n1"))
		case r.Method == http.MethodDelete:
			writeJSON(t, w, http.StatusOK, v1.DeleteResponse{Success: true})
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	client := api.NewClient(srv.URL+"/", api.WithToken("tok"), api.WithLanguage("zh"))

	t.Run("list with cursor", func(t *testing.T) {
		cursorID := "n9"
		page, err := client.List(ctx, api.ListParams{Cursor: &updated, CursorID: &cursorID, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "10", lastRequest.URL.Query().Get("limit"))
		assert.Equal(t, "n9", lastRequest.URL.Query().Get("cursorId"))
		assert.Equal(t, v1.FormatCursor(updated), lastRequest.URL.Query().Get("cursor"))
		assert.Equal(t, "Bearer tok", lastRequest.Header.Get("Authorization"))
		assert.Equal(t, "zh", lastRequest.Header.Get("Accept-Language"))
	})

	t.Run("update sends only set fields", func(t *testing.T) {
		note, err := client.Update(ctx, "n1", v1.UpdateNoteRequest{Content: v1.Some("text")})
		require.NoError(t, err)
		assert.Equal(t, "n1", note.ID)
		assert.Equal(t, http.MethodPatch, lastRequest.Method)
		assert.JSONEq(t, `{"content":"text"}`, string(lastBody))
	})

	t.Run("update without fields never hits the wire", func(t *testing.T) {
		lastRequest = nil
		_, err := client.Update(ctx, "n1", v1.UpdateNoteRequest{})
		require.ErrorIs(t, err, api.ErrValidation)
		assert.False(t, api.IsRetryable(err))
		assert.Nil(t, lastRequest)
	})

	t.Run("create, get, delete, search", func(t *testing.T) {
		note, err := client.Create(ctx, v1.CreateNoteRequest{Title: v1.Some("Hello")})
		require.NoError(t, err)
		assert.Equal(t, "new", note.ID)

		_, err = client.Get(ctx, "a b")
		require.NoError(t, err)
		assert.Equal(t, "/notes/a%20b", lastRequest.URL.EscapedPath())

		require.NoError(t, client.Delete(ctx, "n1"))

		hits, err := client.Search(ctx, "x", 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "x", lastRequest.URL.Query().Get("q"))
	})
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		notFound  bool
		retryable bool
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"error":"Not found"}`, notFound: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"Invalid request"}`},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"Unauthorized"}`},
		{name: "timeout", status: http.StatusRequestTimeout, body: ``, retryable: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: `slow down`, retryable: true},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"Internal Server Error"}`, retryable: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := api.NewClient(srv.URL).Get(context.Background(), "n1")
			require.Error(t, err)

			var apiErr *api.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.notFound, api.IsNotFound(err))
			assert.Equal(t, tt.retryable, api.IsRetryable(err))
		})
	}
}

func TestClientInvalidResponseIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"id": "", "title": "x"})
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL).Get(context.Background(), "n1")
	require.ErrorIs(t, err, v1.ErrInvalidResponse)
	assert.True(t, api.IsRetryable(err))
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := api.NewClient(url).Get(context.Background(), "n1")
	require.ErrorIs(t, err, api.ErrTransport)
	assert.True(t, api.IsRetryable(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = api.NewClient(url).Get(ctx, "n1")
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, api.IsRetryable(err))
}
