package cache_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nicenote/internal/client/cache"
	v1 "nicenote/pkg/api/notes/v1"
)

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func item(id string, minutes int) v1.NoteListItem {
	return v1.NoteListItem{ID: id, Title: "title " + id, CreatedAt: base, UpdatedAt: base.Add(time.Duration(minutes) * time.Minute)}
}

func detail(id string) v1.Note {
	return v1.Note{ID: id, Title: "title " + id, Content: strPtr("old"), Summary: strPtr("old"), CreatedAt: base, UpdatedAt: base}
}

func seeded() *cache.Cache {
	c := cache.New()
	next, nextID := base.Add(time.Minute), "b"
	c.SetFirstPage(cache.Page{Items: []v1.NoteListItem{item("a", 3), item("b", 1)}, NextCursor: &next, NextCursorID: &nextID})
	c.AppendPage(cache.Page{Items: []v1.NoteListItem{item("c", 0)}})
	c.PutDetail(detail("a"))
	return c
}

func TestApplyLocal(t *testing.T) {
	c := seeded()
	now := base.Add(time.Hour)

	c.ApplyLocal("a", v1.UpdateNoteRequest{Content: v1.Some("# New **body**")}, now)

	d, ok := c.ReadDetail("a")
	require.True(t, ok)
	assert.Equal(t, "# New **body**", *d.Content)
	assert.Equal(t, "title a", d.Title)
	assert.Equal(t, now, d.UpdatedAt)
	assert.Equal(t, "old", *d.Summary, "detail summary is server-derived")

	li, ok := c.ReadListEntry("a")
	require.True(t, ok)
	require.NotNil(t, li.Summary)
	assert.Equal(t, "New body", *li.Summary)
	assert.Equal(t, now, li.UpdatedAt)

	c.ApplyLocal("a", v1.UpdateNoteRequest{Title: v1.Some("T"), Content: v1.Null[string]()}, now)
	d, _ = c.ReadDetail("a")
	assert.Equal(t, "T", d.Title)
	assert.Nil(t, d.Content)
	li, _ = c.ReadListEntry("a")
	assert.Nil(t, li.Summary)
}

func TestApplyLocalIgnoresUncachedNotes(t *testing.T) {
	c := seeded()
	c.ApplyLocal("zzz", v1.UpdateNoteRequest{Title: v1.Some("x")}, base)

	_, ok := c.ReadDetail("zzz")
	assert.False(t, ok)
	_, ok = c.ReadListEntry("zzz")
	assert.False(t, ok)
}

func TestMergeServerTimestampsKeepsLocalFields(t *testing.T) {
	c := seeded()
	c.ApplyLocal("a", v1.UpdateNoteRequest{Title: v1.Some("local")}, base.Add(time.Hour))

	server := detail("a")
	server.Title = "stale server title"
	server.UpdatedAt = base.Add(2 * time.Hour)
	c.MergeServerTimestamps("a", server)

	d, _ := c.ReadDetail("a")
	assert.Equal(t, "local", d.Title)
	assert.Equal(t, base.Add(2*time.Hour), d.UpdatedAt)
	li, _ := c.ReadListEntry("a")
	assert.Equal(t, "local", li.Title)
	assert.Equal(t, base.Add(2*time.Hour), li.UpdatedAt)
}

func TestSnapshotRestore(t *testing.T) {
	c := seeded()
	snap := c.Snapshot("a")

	c.ApplyLocal("a", v1.UpdateNoteRequest{Title: v1.Some("changed"), Content: v1.Some("new")}, base.Add(time.Hour))
	c.Restore(snap)

	d, _ := c.ReadDetail("a")
	assert.Equal(t, detail("a"), d)
	li, _ := c.ReadListEntry("a")
	assert.Equal(t, item("a", 3), li)
}

func TestRestoreReinsertsRemovedEntry(t *testing.T) {
	c := seeded()
	snap := c.Snapshot("b")
	c.Remove("b")
	_, ok := c.ReadListEntry("b")
	require.False(t, ok)

	c.Restore(snap)
	assert.Equal(t, []string{"a", "b", "c"}, ids(c.Items()))
	_, ok = c.ReadDetail("b")
	assert.False(t, ok, "detail was not cached at snapshot time")
}

func TestInsertAtHeadAndRemove(t *testing.T) {
	c := seeded()
	c.InsertAtHead(item("new", 10))
	assert.Equal(t, []string{"new", "a", "b", "c"}, ids(c.Items()))

	c.Remove("c")
	c.Remove("a")
	assert.Equal(t, []string{"new", "b"}, ids(c.Items()))
	_, ok := c.ReadDetail("a")
	assert.False(t, ok)

	empty := cache.New()
	empty.InsertAtHead(item("x", 0))
	assert.Empty(t, empty.Items())
}

func TestRestoreToListSortsOnlyFirstPage(t *testing.T) {
	c := seeded()
	c.RestoreToList(item("old", -10))
	c.RestoreToList(item("fresh", 30))

	pages := c.Pages()
	require.Len(t, pages, 2)
	assert.Equal(t, []string{"fresh", "a", "b", "old"}, ids(pages[0].Items))
	assert.Equal(t, []string{"c"}, ids(pages[1].Items))
}

func TestPaging(t *testing.T) {
	c := cache.New()
	_, _, ok := c.NextCursor()
	assert.False(t, ok)

	next, nextID := base, "x"
	c.SetFirstPage(cache.Page{Items: []v1.NoteListItem{item("x", 0)}, NextCursor: &next, NextCursorID: &nextID})
	cursor, cursorID, ok := c.NextCursor()
	require.True(t, ok)
	assert.Equal(t, base, cursor)
	assert.Equal(t, "x", cursorID)

	c.AppendPage(cache.Page{Items: []v1.NoteListItem{item("y", 0)}})
	_, _, ok = c.NextCursor()
	assert.False(t, ok)

	c.SetFirstPage(cache.Page{Items: []v1.NoteListItem{item("z", 0)}})
	assert.Equal(t, []string{"z"}, ids(c.Items()))

	c.SetLoadState(cache.LoadFailed, errors.New("offline"))
	c.Reset()
	assert.Empty(t, c.Items())
	assert.Equal(t, cache.LoadIdle, c.LoadState().Status)
}

func TestLoadState(t *testing.T) {
	c := cache.New()
	boom := errors.New("boom")

	c.SetLoadState(cache.LoadFailed, boom)
	assert.Equal(t, cache.LoadState{Status: cache.LoadFailed, Err: boom}, c.LoadState())
	assert.Equal(t, "failed", c.LoadState().Status.String())

	c.SetLoadState(cache.LoadLoaded, boom)
	assert.NoError(t, c.LoadState().Err)
}

func TestConcurrentAccess(t *testing.T) {
	c := seeded()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ApplyLocal("a", v1.UpdateNoteRequest{Content: v1.Some("x")}, base.Add(time.Duration(i)*time.Second))
			_ = c.Snapshot("a")
			_, _ = c.ReadListEntry("a")
		}()
	}
	wg.Wait()
	_, ok := c.ReadDetail("a")
	assert.True(t, ok)
}

func ids(items []v1.NoteListItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
