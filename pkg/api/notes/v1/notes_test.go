package v1

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStrictUpdate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantErr     error
		wantTitle   *string
		wantContent Optional[string]
	}{
		{name: "title only", body: `{"title":"a"}`, wantTitle: ptr("a")},
		{name: "content null counts as field", body: `{"content":null}`, wantContent: Null[string]()},
		{name: "content value", body: `{"content":"x"}`, wantContent: Some("x")},
		{name: "empty object", body: `{}`, wantErr: ErrNoFields},
		{name: "empty body", body: ``, wantErr: ErrNoFields},
		{name: "title null", body: `{"title":null}`, wantErr: ErrTitleNull},
		{name: "unknown field", body: `{"title":"a","summary":"x"}`, wantErr: ErrInvalidBody},
		{name: "trailing garbage", body: `{"title":"a"} {}`, wantErr: ErrInvalidBody},
		{name: "wrong type", body: `{"title":1}`, wantErr: ErrInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateNoteRequest
			err := DecodeStrict([]byte(tt.body), &req)
			if err == nil {
				err = req.Validate()
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, req.Title.Ptr())
			assert.Equal(t, tt.wantContent, req.Content)
		})
	}
}

func TestOptionalOmitted(t *testing.T) {
	raw, err := json.Marshal(UpdateNoteRequest{Content: Some("body")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"body"}`, string(raw))

	raw, err = json.Marshal(UpdateNoteRequest{Content: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":null}`, string(raw))
}

func TestListResponseNullCursors(t *testing.T) {
	raw, err := json.Marshal(ListResponse{Data: []NoteListItem{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"nextCursor":null,"nextCursorId":null}`, string(raw))
}

func TestValidate(t *testing.T) {
	now := time.Now()
	assert.ErrorIs(t, (&Note{}).Validate(), ErrInvalidResponse)
	assert.ErrorIs(t, (&Note{ID: "a", CreatedAt: now}).Validate(), ErrInvalidResponse)
	assert.ErrorIs(t, (&Note{ID: "a", CreatedAt: now, UpdatedAt: now.Add(-time.Second)}).Validate(), ErrInvalidResponse)
	assert.NoError(t, (&Note{ID: "a", CreatedAt: now, UpdatedAt: now}).Validate())

	id := "x"
	assert.ErrorIs(t, (&ListResponse{NextCursorID: &id}).Validate(), ErrInvalidResponse)
}

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 2, 3, 4, 5, 6, 123456000, time.UTC)
	got, err := ParseCursor(FormatCursor(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got))

	_, err = ParseCursor("yesterday")
	require.Error(t, err)
}

func ptr(s string) *string { return &s }
