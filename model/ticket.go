package model

import (
	"strconv"
	"strings"
	"time"
)

// TicketStatus is the lifecycle state of a ticket. Closed is terminal.
type TicketStatus string

const (
	StatusOpen   TicketStatus = "open"
	StatusClosed TicketStatus = "closed"
)

// Close reasons written into Ticket.CloseReason.
const (
	CloseStaff       = "staff close"
	CloseUser        = "user close"
	CloseManual      = "manual close"
	CloseBulk        = "bulk close"
	CloseUserLeft    = "user left"
	CloseDMFailed    = "dm failed"
	CloseIdleTimeout = "idle timeout"
	CloseSetupFailed = "setup failed"
)

// MessageSource tells who wrote a relayed ticket message.
type MessageSource string

const (
	FromUser  MessageSource = "user"
	FromStaff MessageSource = "staff"
)

// TicketMessage is one relayed message, kept for transcripts.
type TicketMessage struct {
	From         MessageSource `json:"from"`
	Content      string        `json:"content"`
	Timestamp    int64         `json:"timestamp"`
	AuthorTag    string        `json:"authorTag,omitempty"`
	AuthorID     string        `json:"authorId,omitempty"`
	AuthorAvatar string        `json:"authorAvatar,omitempty"`
}

// Ticket is a support conversation between one user and the staff of one guild.
// Timestamps are unix milliseconds; zero means the event has not happened yet.
type Ticket struct {
	ID       string       `json:"id"`
	Number   int          `json:"number"`
	GuildID  string       `json:"guildId"`
	UserID   string       `json:"userId"`
	UserTag  string       `json:"userTag,omitempty"`
	Status   TicketStatus `json:"status"`
	Language string       `json:"language"`
	Category string       `json:"category"`
	Reason   string       `json:"reason"`

	ClaimedBy       string `json:"claimedBy,omitempty"`
	ClaimedByTag    string `json:"claimedByTag,omitempty"`
	ClaimedAt       int64  `json:"claimedAt,omitempty"`
	FirstResponseAt int64  `json:"firstResponseAt,omitempty"`
	OpenedAt        int64  `json:"openedAt"`
	ClosedAt        int64  `json:"closedAt,omitempty"`

	Messages []TicketMessage `json:"messages"`

	ThreadID                string `json:"threadId,omitempty"`
	ThreadMessageID         string `json:"threadMessageId,omitempty"`
	AwaitingMessageID       string `json:"awaitingMessageId,omitempty"`
	DMCloseMessageID        string `json:"dmCloseMessageId,omitempty"`
	LogTranscriptMessageID  string `json:"logTranscriptMessageId,omitempty"`
	LogTicketMessageID      string `json:"logTicketMessageId,omitempty"`
	LogRatingMessageID      string `json:"logRatingMessageId,omitempty"`
	LogTranscriptSavedByTag string `json:"logTranscriptSavedByTag,omitempty"`
	LogTranscriptSavedByID  string `json:"logTranscriptSavedById,omitempty"`

	Rating      int    `json:"rating,omitempty"`
	Feedback    string `json:"feedback,omitempty"`
	CloseReason string `json:"closeReason,omitempty"`
	ClosedByTag string `json:"closedByTag,omitempty"`
	ClosedByID  string `json:"closedById,omitempty"`

	LastActivity     int64 `json:"lastActivity"`
	LastUserActivity int64 `json:"lastUserActivity"`
}

func (t *Ticket) IsOpen() bool {
	return t != nil && t.Status == StatusOpen
}

// Clone returns a copy that shares no slices with t.
func (t *Ticket) Clone() Ticket {
	c := *t
	c.Messages = append([]TicketMessage(nil), t.Messages...)
	return c
}

// MarkClosed moves an open ticket to closed. It reports false when the ticket
// was already closed, in which case nothing changes.
func (t *Ticket) MarkClosed(reason string, at time.Time) bool {
	if t.Status == StatusClosed {
		return false
	}
	t.Status = StatusClosed
	t.ClosedAt = Millis(at)
	t.CloseReason = reason
	return true
}

// IdleSince reports whether the user has been silent for longer than limit.
func (t *Ticket) IdleSince(now time.Time, limit time.Duration) bool {
	if t.LastUserActivity == 0 {
		return false
	}
	return now.Sub(FromMillis(t.LastUserActivity)) > limit
}

// NewTicketID derives an opaque id from the creation time.
func NewTicketID(at time.Time) string {
	return "T-" + strings.ToUpper(strconv.FormatInt(Millis(at), 36))
}

// Millis converts t to unix milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts unix milliseconds back to a time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
