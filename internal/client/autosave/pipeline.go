// Package autosave откладывает и объединяет правки заметок, сохраняет их
// с повторами и откатывает оптимистичные изменения кэша при неудаче.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"nicenote/internal/client/api"
	"nicenote/internal/client/cache"
	v1 "nicenote/pkg/api/notes/v1"
	"nicenote/pkg/logger"
	"nicenote/pkg/resilience"
)

// Значения по умолчанию.
const (
	DefaultDebounce    = time.Second
	DefaultMaxAttempts = 3
	DefaultSavedHold   = 2 * time.Second
)

// FailureMessage - текст уведомления о неудачном сохранении.
const FailureMessage = "Failed to save note. Your changes may not be persisted."

// Константы для логирования.
const (
	LogFlushStarted   = "autosave flush started"
	LogFlushSucceeded = "autosave flush succeeded"
	LogFlushFailed    = "autosave flush failed, rolled back local changes"
	LogFlushDiscarded = "autosave result discarded, note was cancelled"
	LogFinalSave      = "final save on close failed"
)

// ErrClosed возвращается при планировании после Close.
var ErrClosed = errors.New("autosave pipeline is closed")

// DefaultRetryDelays - паузы между попытками сохранения.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{time.Second, 2 * time.Second}
}

// Saver сохраняет частичное обновление заметки. Реализуется api.Client.
type Saver interface {
	Update(ctx context.Context, id string, req v1.UpdateNoteRequest) (*v1.Note, error)
}

// Store - операции кэша, которые использует конвейер. Реализуется cache.Cache.
type Store interface {
	ApplyLocal(id string, updates v1.UpdateNoteRequest, now time.Time)
	MergeServerTimestamps(id string, note v1.Note)
	Snapshot(id string) cache.Snapshot
	Restore(s cache.Snapshot)
}

// Notifier показывает уведомление пользователю. Реализуется notify.Notifier.
type Notifier interface {
	Add(message string) string
}

// Options - настройки конвейера.
type Options struct {
	Debounce    time.Duration
	RetryDelays []time.Duration
	MaxAttempts int
	// SavedHold - сколько держится статус saved перед возвратом в idle.
	// 0 - значение по умолчанию, отрицательное - saved держится до следующей правки.
	SavedHold   time.Duration
	ShouldRetry func(error) bool
	Now         func() time.Time
}

// DefaultOptions возвращает настройки по умолчанию.
func DefaultOptions() Options {
	return Options{
		Debounce:    DefaultDebounce,
		RetryDelays: DefaultRetryDelays(),
		MaxAttempts: DefaultMaxAttempts,
		SavedHold:   DefaultSavedHold,
		ShouldRetry: api.IsRetryable,
		Now:         time.Now,
	}
}

type entry struct {
	updates v1.UpdateNoteRequest
	timer   *time.Timer
	// gen отличает актуальный таймер от уже остановленного, но успевшего сработать.
	gen    uint64
	saving bool
}

// flight - идущее сохранение заметки. Живет дольше записи: Cancel удаляет запись,
// но новое сохранение той же заметки не начнется, пока не закроется done.
type flight struct {
	done chan struct{}
}

// Pipeline - конвейер автосохранения. Все методы безопасны для конкурентного вызова.
type Pipeline struct {
	ctx      context.Context
	saver    Saver
	store    Store
	notifier Notifier
	retry    *resilience.Retry
	opts     Options

	mu          sync.Mutex
	entries     map[string]*entry
	flights     map[string]*flight
	statuses    map[string]Status
	savedTimers map[string]*time.Timer
	subs        map[chan StatusEvent]struct{}
	subsClosed  bool
	closed      bool
	inflight    sync.WaitGroup
}

// New создает конвейер. ctx задает время жизни сохранений: его отмена прерывает запросы.
func New(ctx context.Context, saver Saver, store Store, notifier Notifier, opts Options) *Pipeline {
	def := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = def.Debounce
	}
	if len(opts.RetryDelays) == 0 {
		opts.RetryDelays = def.RetryDelays
	}
	if opts.SavedHold == 0 {
		opts.SavedHold = def.SavedHold
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.ShouldRetry == nil {
		opts.ShouldRetry = def.ShouldRetry
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}

	return &Pipeline{
		ctx:      ctx,
		saver:    saver,
		store:    store,
		notifier: notifier,
		retry: resilience.NewRetry("autosave", resilience.RetryConfig{
			MaxAttempts: opts.MaxAttempts,
			Delays:      opts.RetryDelays,
			ShouldRetry: opts.ShouldRetry,
		}),
		opts:        opts,
		entries:     make(map[string]*entry),
		flights:     make(map[string]*flight),
		statuses:    make(map[string]Status),
		savedTimers: make(map[string]*time.Timer),
		subs:        make(map[chan StatusEvent]struct{}),
	}
}

// Schedule объединяет правку с ожидающими (новые значения побеждают), сразу применяет
// ее к кэшу и перезапускает таймер отложенного сохранения.
func (p *Pipeline) Schedule(id string, updates v1.UpdateNoteRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}

	e, ok := p.entries[id]
	if !ok {
		e = &entry{}
		p.entries[id] = e
	}
	e.updates = merge(e.updates, updates)
	p.store.ApplyLocal(id, updates, p.opts.Now())

	if !e.saving {
		p.setStatus(id, StatusUnsaved)
	}
	p.arm(id, e)
	return nil
}

// Cancel отбрасывает таймер и ожидающие правки заметки и возвращает отброшенное.
// Результат уже идущего сохранения будет проигнорирован. Идемпотентен.
func (p *Pipeline) Cancel(id string) v1.UpdateNoteRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return v1.UpdateNoteRequest{}
	}
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	delete(p.entries, id)
	p.setStatus(id, StatusIdle)
	return e.updates
}

// Flush сохраняет ожидающие правки немедленно и ждет результата. Если сохранение
// заметки уже идет, сначала дожидается его, затем отправляет то, что накопилось.
func (p *Pipeline) Flush(id string) {
	p.mu.Lock()
	if f, ok := p.flights[id]; ok {
		p.mu.Unlock()
		<-f.done
		p.mu.Lock()
	}
	e, ok := p.entries[id]
	if !ok || p.closed || p.flights[id] != nil {
		p.mu.Unlock()
		return
	}
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	gen := e.gen
	p.mu.Unlock()

	p.fire(id, e, gen)
}

// Pending сообщает, есть ли у заметки несохраненные правки или идущее сохранение.
func (p *Pipeline) Pending(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[id]
	return ok
}

// Close синхронно останавливает все таймеры и в фоне отправляет по одной попытке
// сохранения для каждой заметки с ожидающими правками. Возвращаемый канал
// закрывается, когда завершатся и они, и уже идущие сохранения.
func (p *Pipeline) Close() <-chan struct{} {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		done := make(chan struct{})
		go func() {
			p.inflight.Wait()
			close(done)
		}()
		return done
	}
	p.closed = true

	type finalSave struct {
		updates v1.UpdateNoteRequest
		after   chan struct{}
	}
	final := make(map[string]finalSave)
	for id, e := range p.entries {
		e.gen++
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		if !empty(e.updates) {
			fs := finalSave{updates: e.updates}
			if f, ok := p.flights[id]; ok {
				fs.after = f.done
			}
			final[id] = fs
		}
		delete(p.entries, id)
	}
	for id, t := range p.savedTimers {
		t.Stop()
		delete(p.savedTimers, id)
	}
	p.inflight.Add(len(final))
	p.mu.Unlock()

	for id, fs := range final {
		go func() {
			defer p.inflight.Done()
			if fs.after != nil {
				<-fs.after
			}
			if _, err := p.saver.Update(p.ctx, id, fs.updates); err != nil {
				logger.Log(p.ctx).Warn(p.ctx, LogFinalSave, zap.String("note_id", id), zap.Error(err))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		p.inflight.Wait()
		p.mu.Lock()
		p.subsClosed = true
		for ch := range p.subs {
			delete(p.subs, ch)
			close(ch)
		}
		p.mu.Unlock()
		close(done)
	}()
	return done
}

// arm (пере)запускает таймер отложенного сохранения. Вызывается под p.mu.
func (p *Pipeline) arm(id string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.timer = time.AfterFunc(p.opts.Debounce, func() { p.fire(id, e, gen) })
}

func (p *Pipeline) fire(id string, e *entry, gen uint64) {
	p.mu.Lock()
	if p.closed || p.entries[id] != e || e.gen != gen {
		p.mu.Unlock()
		return
	}
	e.timer = nil
	if e.saving || p.flights[id] != nil {
		// правки дождутся завершения текущего сохранения
		p.mu.Unlock()
		return
	}
	if empty(e.updates) {
		delete(p.entries, id)
		p.setStatus(id, StatusIdle)
		p.mu.Unlock()
		return
	}

	snapshot := p.store.Snapshot(id)
	updates := e.updates
	e.updates = v1.UpdateNoteRequest{}
	e.saving = true
	f := &flight{done: make(chan struct{})}
	p.flights[id] = f
	p.setStatus(id, StatusSaving)
	p.inflight.Add(1)
	p.mu.Unlock()

	defer p.inflight.Done()
	p.persist(id, e, f, snapshot, updates)
}

func (p *Pipeline) persist(id string, e *entry, f *flight, snapshot cache.Snapshot, updates v1.UpdateNoteRequest) {
	ctx := p.ctx
	log := logger.Log(ctx).With(zap.String("method", "autosave.persist"), zap.String("note_id", id))
	log.Debug(ctx, LogFlushStarted)

	note, err := resilience.Do(ctx, p.retry, func(ctx context.Context, _ int) (*v1.Note, error) {
		return p.saver.Update(ctx, id, updates)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	defer close(f.done)

	e.saving = false
	delete(p.flights, id)
	if current, ok := p.entries[id]; !ok || current != e {
		log.Debug(ctx, LogFlushDiscarded, zap.Error(err))
		// правки, сделанные после Cancel, ждали этого сохранения
		if ok && !p.closed && !empty(current.updates) && current.timer == nil {
			p.arm(id, current)
		}
		return
	}

	if err != nil {
		p.store.Restore(snapshot)
		e.updates = merge(updates, e.updates)
		p.setStatus(id, StatusUnsaved)
		log.Warn(ctx, LogFlushFailed, zap.Error(err))
		if p.notifier != nil {
			p.notifier.Add(FailureMessage)
		}
		return
	}

	p.store.MergeServerTimestamps(id, *note)
	log.Debug(ctx, LogFlushSucceeded)

	if empty(e.updates) {
		delete(p.entries, id)
		p.setStatus(id, StatusSaved)
		return
	}
	p.setStatus(id, StatusUnsaved)
	p.arm(id, e)
}

// merge накладывает newer поверх base: заданные в newer поля побеждают.
func merge(base, newer v1.UpdateNoteRequest) v1.UpdateNoteRequest {
	if newer.Title.Set {
		base.Title = newer.Title
	}
	if newer.Content.Set {
		base.Content = newer.Content
	}
	return base
}

func empty(u v1.UpdateNoteRequest) bool {
	return !u.Title.Set && !u.Content.Set
}
