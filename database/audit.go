// Package database keeps the ticket audit history in sqlite. The ticket
// document itself lives in the JSON store; this is an append-only record of
// what happened to tickets, used by /ticket-history.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"support-bot/model"
)

const schema = `CREATE TABLE IF NOT EXISTS audit_events (
	id TEXT NOT NULL PRIMARY KEY,
	guild_id TEXT NOT NULL,
	ticket_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL,
	actor_id TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_events (guild_id, user_id, created_at);`

type AuditLog struct {
	db *sqlx.DB
}

// Open connects to the sqlite file at path and creates the schema.
func Open(path string) (*AuditLog, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}
	// sqlite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}
	return &AuditLog{db: db}, nil
}

func (a *AuditLog) Close() error {
	return a.db.Close()
}

// Record appends an event, filling in the id and time when unset.
func (a *AuditLog) Record(ctx context.Context, ev model.AuditEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	query := `INSERT INTO audit_events (id, guild_id, ticket_id, user_id, actor_id, kind, detail, created_at)
			  VALUES (:id, :guild_id, :ticket_id, :user_id, :actor_id, :kind, :detail, :created_at)`
	if _, err := a.db.NamedExecContext(ctx, query, ev); err != nil {
		return fmt.Errorf("failed to insert audit event %s: %w", ev.Kind, err)
	}
	return nil
}

// History returns a user's events in a guild, newest first.
func (a *AuditLog) History(ctx context.Context, guildID, userID string, limit, offset int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	query := `SELECT * FROM audit_events WHERE guild_id = ? AND user_id = ?
			  ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	if err := a.db.SelectContext(ctx, &events, query, guildID, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get audit history for user %s: %w", userID, err)
	}
	return events, nil
}

func (a *AuditLog) CountHistory(ctx context.Context, guildID, userID string) (int, error) {
	var n int
	err := a.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM audit_events WHERE guild_id = ? AND user_id = ?", guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit history for user %s: %w", userID, err)
	}
	return n, nil
}

// PurgeUser deletes every event about a user in a guild.
func (a *AuditLog) PurgeUser(ctx context.Context, guildID, userID string) (int64, error) {
	result, err := a.db.ExecContext(ctx, "DELETE FROM audit_events WHERE guild_id = ? AND user_id = ?", guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit history for user %s: %w", userID, err)
	}
	return result.RowsAffected()
}

// CountByKind tallies a guild's events per kind, for /system-info.
func (a *AuditLog) CountByKind(ctx context.Context, guildID string) (map[string]int, error) {
	rows, err := a.db.QueryxContext(ctx, "SELECT kind, COUNT(*) AS n FROM audit_events WHERE guild_id = ? GROUP BY kind", guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit events: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var row struct {
			Kind string `db:"kind"`
			N    int    `db:"n"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("failed to scan audit count: %w", err)
		}
		counts[row.Kind] = row.N
	}
	return counts, rows.Err()
}
