package model

import "time"

// Audit event kinds.
const (
	AuditOpened     = "opened"
	AuditClaimed    = "claimed"
	AuditClosed     = "closed"
	AuditRated      = "rated"
	AuditFeedback   = "feedback"
	AuditBlacklist  = "blacklist"
	AuditUnblock    = "unblacklist"
	AuditPurged     = "purged"
	AuditTranscript = "transcript"
)

// AuditEvent is one row of the ticket history table.
type AuditEvent struct {
	ID        string    `db:"id"`
	GuildID   string    `db:"guild_id"`
	TicketID  string    `db:"ticket_id"`
	UserID    string    `db:"user_id"`
	ActorID   string    `db:"actor_id"`
	Kind      string    `db:"kind"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}
