// Package cache хранит на клиенте страницы списка заметок и карточки заметок.
package cache

import (
	"slices"
	"sync"
	"time"

	"nicenote/internal/notes/domain/markdown"
	v1 "nicenote/pkg/api/notes/v1"
)

// Page - закэшированная страница списка.
type Page struct {
	Items        []v1.NoteListItem
	NextCursor   *time.Time
	NextCursorID *string
}

// Patch - поверхностное изменение. Меняются только заданные поля.
type Patch struct {
	Title     *string
	Content   v1.Optional[string]
	Summary   v1.Optional[string]
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Snapshot - состояние заметки в обоих представлениях на момент захвата.
type Snapshot struct {
	ID        string
	Detail    *v1.Note
	ListEntry *v1.NoteListItem
}

// Cache - потокобезопасный кэш. Нулевое значение не готово к работе, используйте New.
type Cache struct {
	mu      sync.RWMutex
	details map[string]v1.Note
	pages   []Page
	load    LoadState
}

// New создает пустой кэш.
func New() *Cache {
	return &Cache{details: make(map[string]v1.Note)}
}

// ReadDetail возвращает карточку заметки.
func (c *Cache) ReadDetail(id string) (v1.Note, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.details[id]
	return n, ok
}

// PutDetail сохраняет карточку, полученную с сервера.
func (c *Cache) PutDetail(note v1.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details[note.ID] = note
}

// ReadListEntry ищет заметку на закэшированных страницах.
func (c *Cache) ReadListEntry(id string) (v1.NoteListItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if p, i := c.findEntry(id); p >= 0 {
		return c.pages[p].Items[i], true
	}
	return v1.NoteListItem{}, false
}

// PatchDetail применяет patch к карточке. Возвращает false, если карточки нет.
func (c *Cache) PatchDetail(id string, patch Patch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patchDetail(id, patch)
}

// PatchListEntry применяет patch к элементу списка. Возвращает false, если элемента нет.
func (c *Cache) PatchListEntry(id string, patch Patch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.patchListEntry(id, patch)
}

// ApplyLocal применяет локальную правку к обоим представлениям и сдвигает updatedAt на now.
// Сводка элемента списка пересчитывается из нового содержимого.
func (c *Cache) ApplyLocal(id string, updates v1.UpdateNoteRequest, now time.Time) {
	now = now.UTC()
	detail := Patch{Title: updates.Title.Ptr(), UpdatedAt: &now}
	list := Patch{Title: updates.Title.Ptr(), UpdatedAt: &now}
	if updates.Content.Set {
		detail.Content = updates.Content
		content := ""
		if p := updates.Content.Ptr(); p != nil {
			content = *p
		}
		list.Summary = v1.Null[string]()
		if summary := markdown.Summary(content); summary != "" {
			list.Summary = v1.Some(summary)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.patchDetail(id, detail)
	c.patchListEntry(id, list)
}

// MergeServerTimestamps переносит из ответа сервера только createdAt и updatedAt.
// Остальные поля не трогаются, чтобы не затереть правки, сделанные во время сохранения.
func (c *Cache) MergeServerTimestamps(id string, note v1.Note) {
	created, updated := note.CreatedAt.UTC(), note.UpdatedAt.UTC()
	patch := Patch{CreatedAt: &created, UpdatedAt: &updated}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.patchDetail(id, patch)
	c.patchListEntry(id, patch)
}

// Snapshot захватывает текущее состояние заметки.
func (c *Cache) Snapshot(id string) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{ID: id}
	if n, ok := c.details[id]; ok {
		s.Detail = &n
	}
	if p, i := c.findEntry(id); p >= 0 {
		item := c.pages[p].Items[i]
		s.ListEntry = &item
	}
	return s
}

// Restore возвращает заметку к снимку. Отсутствовавшая в снимке карточка удаляется,
// элемент списка, пропавший после снимка, возвращается на первую страницу.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.Detail != nil {
		c.details[s.ID] = *s.Detail
	} else {
		delete(c.details, s.ID)
	}

	if s.ListEntry == nil {
		return
	}
	if p, i := c.findEntry(s.ID); p >= 0 {
		c.pages[p].Items[i] = *s.ListEntry
		return
	}
	c.restoreToList(*s.ListEntry)
}

// InsertAtHead добавляет созданную заметку в начало первой страницы.
// Если список еще не загружен, ничего не делает.
func (c *Cache) InsertAtHead(item v1.NoteListItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pages) == 0 {
		return
	}
	c.pages[0].Items = append([]v1.NoteListItem{item}, c.pages[0].Items...)
}

// Remove удаляет заметку со всех страниц и из карточек.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.details, id)
	for p := range c.pages {
		c.pages[p].Items = slices.DeleteFunc(c.pages[p].Items, func(n v1.NoteListItem) bool { return n.ID == id })
	}
}

// RestoreToList возвращает удаленный элемент на первую страницу.
// Пересортировывается только первая страница.
func (c *Cache) RestoreToList(item v1.NoteListItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoreToList(item)
}

// SetFirstPage заменяет список одной первой страницей.
func (c *Cache) SetFirstPage(page Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = []Page{clonePage(page)}
}

// AppendPage добавляет следующую страницу.
func (c *Cache) AppendPage(page Page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = append(c.pages, clonePage(page))
}

// NextCursor возвращает курсор последней страницы. ok=false, если список не загружен
// или страниц больше нет.
func (c *Cache) NextCursor() (cursor time.Time, cursorID string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.pages) == 0 {
		return time.Time{}, "", false
	}
	last := c.pages[len(c.pages)-1]
	if last.NextCursor == nil || last.NextCursorID == nil {
		return time.Time{}, "", false
	}
	return *last.NextCursor, *last.NextCursorID, true
}

// Pages возвращает копию закэшированных страниц.
func (c *Cache) Pages() []Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Page, len(c.pages))
	for i, p := range c.pages {
		out[i] = clonePage(p)
	}
	return out
}

// Items возвращает все элементы списка в порядке страниц.
func (c *Cache) Items() []v1.NoteListItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []v1.NoteListItem
	for _, p := range c.pages {
		out = append(out, p.Items...)
	}
	return out
}

// Reset очищает кэш целиком.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.details = make(map[string]v1.Note)
	c.pages = nil
	c.load = LoadState{}
}

func (c *Cache) patchDetail(id string, patch Patch) bool {
	n, ok := c.details[id]
	if !ok {
		return false
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content.Set {
		n.Content = patch.Content.Ptr()
	}
	if patch.Summary.Set {
		n.Summary = patch.Summary.Ptr()
	}
	if patch.CreatedAt != nil {
		n.CreatedAt = *patch.CreatedAt
	}
	if patch.UpdatedAt != nil {
		n.UpdatedAt = *patch.UpdatedAt
	}
	c.details[id] = n
	return true
}

func (c *Cache) patchListEntry(id string, patch Patch) bool {
	found := false
	for p := range c.pages {
		for i := range c.pages[p].Items {
			item := &c.pages[p].Items[i]
			if item.ID != id {
				continue
			}
			found = true
			if patch.Title != nil {
				item.Title = *patch.Title
			}
			if patch.Summary.Set {
				item.Summary = patch.Summary.Ptr()
			}
			if patch.CreatedAt != nil {
				item.CreatedAt = *patch.CreatedAt
			}
			if patch.UpdatedAt != nil {
				item.UpdatedAt = *patch.UpdatedAt
			}
		}
	}
	return found
}

func (c *Cache) findEntry(id string) (page, index int) {
	for p := range c.pages {
		for i := range c.pages[p].Items {
			if c.pages[p].Items[i].ID == id {
				return p, i
			}
		}
	}
	return -1, -1
}

func (c *Cache) restoreToList(item v1.NoteListItem) {
	if len(c.pages) == 0 {
		return
	}
	first := append(slices.Clone(c.pages[0].Items), item)
	slices.SortStableFunc(first, func(a, b v1.NoteListItem) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	c.pages[0].Items = first
}

func clonePage(p Page) Page {
	p.Items = slices.Clone(p.Items)
	return p
}
