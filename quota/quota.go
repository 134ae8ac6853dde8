package quota

import (
	"sync"
	"time"
)

const (
	MessageWindow    = 60 * time.Second
	TicketOpenWindow = 24 * time.Hour
)

// Window counts events per user over a sliding period. Expired entries are
// dropped whenever the user records a new event.
type Window struct {
	size time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string][]time.Time
}

func NewWindow(size time.Duration) *Window {
	return &Window{
		size:    size,
		now:     time.Now,
		entries: make(map[string][]time.Time),
	}
}

// Record adds an event for userID at the current time and returns how many
// events the user now has inside the window.
func (w *Window) Record(userID string) int {
	return w.RecordAt(userID, w.now())
}

// RecordAt is Record with an explicit timestamp.
func (w *Window) RecordAt(userID string, at time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	kept := live(w.entries[userID], at, w.size)
	kept = append(kept, at)
	w.entries[userID] = kept
	return len(kept)
}

// Sweep forgets users whose every entry has expired.
func (w *Window) Sweep(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for userID, times := range w.entries {
		kept := live(times, now, w.size)
		if len(kept) == 0 {
			delete(w.entries, userID)
			continue
		}
		w.entries[userID] = kept
	}
}

// Users reports how many users currently have entries.
func (w *Window) Users() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

func live(times []time.Time, now time.Time, size time.Duration) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if now.Sub(t) < size {
			kept = append(kept, t)
		}
	}
	return kept
}

// Tracker bundles the two windows the DM router consults.
type Tracker struct {
	Messages    *Window
	TicketOpens *Window
}

func NewTracker() *Tracker {
	return &Tracker{
		Messages:    NewWindow(MessageWindow),
		TicketOpens: NewWindow(TicketOpenWindow),
	}
}

// SetClock replaces the time source of both windows.
func (t *Tracker) SetClock(now func() time.Time) {
	t.Messages.now = now
	t.TicketOpens.now = now
}

func (t *Tracker) Sweep(now time.Time) {
	t.Messages.Sweep(now)
	t.TicketOpens.Sweep(now)
}
