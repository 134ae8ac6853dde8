// Package pending holds the per-user conversation state that decides what a
// DM or button press means: the intake steps (language, reason) and the
// rating steps that follow a closed ticket. Entries live only in memory.
package pending

import (
	"sync"
	"time"
)

type Step string

const (
	StepLanguage       Step = "language"
	StepReason         Step = "reason"
	StepRating         Step = "rating"
	StepRatingFeedback Step = "rating_feedback"
)

// CategoryGeneral is the only intake category.
const CategoryGeneral = "general"

// Entry is one of LanguageStep, ReasonStep, RatingStep or RatingFeedbackStep.
type Entry interface {
	Step() Step
	Guild() string
	Locale() string
	entry()
}

// LanguageStep waits for the user to pick a language with the buttons.
type LanguageStep struct {
	GuildID   string
	Language  string
	Category  string
	ExpiresAt time.Time
}

// ReasonStep waits for the DM describing the problem.
type ReasonStep struct {
	GuildID   string
	Language  string
	Category  string
	ExpiresAt time.Time
}

// RatingStep waits for a 1 to 5 rating of a closed ticket.
type RatingStep struct {
	GuildID  string
	TicketID string
	Language string
}

// RatingFeedbackStep waits for written feedback after a low rating.
type RatingFeedbackStep struct {
	GuildID  string
	TicketID string
	Language string
}

func (LanguageStep) Step() Step       { return StepLanguage }
func (ReasonStep) Step() Step         { return StepReason }
func (RatingStep) Step() Step         { return StepRating }
func (RatingFeedbackStep) Step() Step { return StepRatingFeedback }

func (e LanguageStep) Guild() string       { return e.GuildID }
func (e ReasonStep) Guild() string         { return e.GuildID }
func (e RatingStep) Guild() string         { return e.GuildID }
func (e RatingFeedbackStep) Guild() string { return e.GuildID }

func (e LanguageStep) Locale() string       { return e.Language }
func (e ReasonStep) Locale() string         { return e.Language }
func (e RatingStep) Locale() string         { return e.Language }
func (e RatingFeedbackStep) Locale() string { return e.Language }

func (LanguageStep) entry()       {}
func (ReasonStep) entry()         {}
func (RatingStep) entry()         {}
func (RatingFeedbackStep) entry() {}

// Expired reports whether an intake entry has passed its deadline. Rating
// entries never expire.
func Expired(e Entry, now time.Time) bool {
	var deadline time.Time
	switch v := e.(type) {
	case LanguageStep:
		deadline = v.ExpiresAt
	case ReasonStep:
		deadline = v.ExpiresAt
	default:
		return false
	}
	return !deadline.IsZero() && now.After(deadline)
}

// Registry maps user ids to their single pending entry.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

func (r *Registry) Get(userID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[userID]
	return e, ok
}

// Set replaces whatever entry the user had.
func (r *Registry) Set(userID string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[userID] = e
}

func (r *Registry) Delete(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
}

// Take removes and returns the entry only if it is still current, so two
// handlers racing on the same entry cannot both act on it.
func (r *Registry) Take(userID string, current Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[userID]; !ok || e != current {
		return false
	}
	delete(r.entries, userID)
	return true
}

// Swap replaces current with next, failing if the entry changed meanwhile.
func (r *Registry) Swap(userID string, current, next Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[userID]; !ok || e != current {
		return false
	}
	r.entries[userID] = next
	return true
}

// PruneExpired drops intake entries past their deadline and returns how many.
func (r *Registry) PruneExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if Expired(e, now) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
