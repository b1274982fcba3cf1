// Package notify - канал уведомлений для пользователя с автоскрытием.
package notify

import (
	"slices"
	"strconv"
	"sync"
	"time"
)

// DefaultTTL - время жизни уведомления до автоскрытия.
const DefaultTTL = 5 * time.Second

const subscriberBuffer = 16

// Toast - уведомление.
type Toast struct {
	ID      string
	Message string
	Created time.Time
}

// EventKind - тип события.
type EventKind int

// Типы событий.
const (
	EventAdded EventKind = iota
	EventRemoved
)

// Event - изменение набора уведомлений.
type Event struct {
	Kind  EventKind
	Toast Toast
}

// Notifier хранит активные уведомления. Счетчик id и таймеры принадлежат экземпляру.
type Notifier struct {
	mu     sync.Mutex
	ttl    time.Duration
	nextID uint64
	toasts []Toast
	timers map[string]*time.Timer
	subs   map[chan Event]struct{}
	closed bool
}

// Option настраивает Notifier.
type Option func(*Notifier)

// WithTTL меняет время автоскрытия. 0 отключает автоскрытие.
func WithTTL(ttl time.Duration) Option {
	return func(n *Notifier) { n.ttl = ttl }
}

// New создает канал уведомлений.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		ttl:    DefaultTTL,
		timers: make(map[string]*time.Timer),
		subs:   make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Add показывает уведомление и возвращает его id.
func (n *Notifier) Add(message string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	t := Toast{ID: strconv.FormatUint(n.nextID, 10), Message: message, Created: time.Now()}
	n.toasts = append(n.toasts, t)
	if n.ttl > 0 && !n.closed {
		id := t.ID
		n.timers[id] = time.AfterFunc(n.ttl, func() { n.Remove(id) })
	}
	n.publish(Event{Kind: EventAdded, Toast: t})
	return t.ID
}

// Remove скрывает уведомление. Повторный вызов ничего не делает.
func (n *Notifier) Remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}
	idx := slices.IndexFunc(n.toasts, func(t Toast) bool { return t.ID == id })
	if idx < 0 {
		return
	}
	t := n.toasts[idx]
	n.toasts = slices.Delete(n.toasts, idx, idx+1)
	n.publish(Event{Kind: EventRemoved, Toast: t})
}

// List возвращает активные уведомления в порядке добавления.
func (n *Notifier) List() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.toasts)
}

// Subscribe возвращает канал событий и функцию отписки.
// Медленный подписчик теряет события, но не блокирует отправителя.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	n.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if _, ok := n.subs[ch]; ok {
				delete(n.subs, ch)
				close(ch)
			}
		})
	}
}

// Close останавливает таймеры и закрывает каналы подписчиков.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
	for ch := range n.subs {
		delete(n.subs, ch)
		close(ch)
	}
}

func (n *Notifier) publish(ev Event) {
	for ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
