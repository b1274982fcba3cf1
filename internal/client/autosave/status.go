package autosave

import "time"

// Status - состояние сохранения заметки. Значения упорядочены по приоритету
// для общего статуса: saving > unsaved > saved > idle.
type Status int

// Состояния сохранения.
const (
	StatusIdle Status = iota
	StatusSaved
	StatusUnsaved
	StatusSaving
)

func (s Status) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusUnsaved:
		return "unsaved"
	case StatusSaving:
		return "saving"
	default:
		return "idle"
	}
}

// StatusEvent - смена статуса заметки вместе с пересчитанным общим статусом.
type StatusEvent struct {
	NoteID string
	Status Status
	Global Status
}

const subscriberBuffer = 32

// Status возвращает статус заметки.
func (p *Pipeline) Status(id string) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statuses[id]
}

// GlobalStatus возвращает "худший" статус среди всех заметок.
func (p *Pipeline) GlobalStatus() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.global()
}

// Subscribe возвращает канал смен статуса и функцию отписки.
// Медленный подписчик теряет события, но не блокирует сохранение.
func (p *Pipeline) Subscribe() (<-chan StatusEvent, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan StatusEvent, subscriberBuffer)
	if p.subsClosed {
		close(ch)
		return ch, func() {}
	}
	p.subs[ch] = struct{}{}
	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
	}
}

func (p *Pipeline) global() Status {
	g := StatusIdle
	for _, s := range p.statuses {
		g = max(g, s)
	}
	return g
}

// setStatus вызывается под p.mu.
func (p *Pipeline) setStatus(id string, s Status) {
	if t, ok := p.savedTimers[id]; ok {
		t.Stop()
		delete(p.savedTimers, id)
	}

	if s == StatusIdle {
		delete(p.statuses, id)
	} else {
		p.statuses[id] = s
	}

	if s == StatusSaved && p.opts.SavedHold > 0 {
		p.savedTimers[id] = time.AfterFunc(p.opts.SavedHold, func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if p.statuses[id] == StatusSaved {
				p.setStatus(id, StatusIdle)
			}
		})
	}

	ev := StatusEvent{NoteID: id, Status: s, Global: p.global()}
	for ch := range p.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
