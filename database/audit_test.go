package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"support-bot/model"
)

func openTemp(t *testing.T) *AuditLog {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestRecordAndHistory(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	kinds := []string{model.AuditOpened, model.AuditClaimed, model.AuditClosed}
	for i, kind := range kinds {
		err := a.Record(ctx, model.AuditEvent{
			GuildID:   "g1",
			TicketID:  "T-1",
			UserID:    "u1",
			Kind:      kind,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record %s: %v", kind, err)
		}
	}
	a.Record(ctx, model.AuditEvent{GuildID: "g1", UserID: "u2", Kind: model.AuditOpened})

	events, err := a.History(ctx, "g1", "u1", 10, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Kind != model.AuditClosed {
		t.Errorf("newest event = %s, want closed", events[0].Kind)
	}
	if events[0].ID == "" {
		t.Error("event id should be generated")
	}

	page, err := a.History(ctx, "g1", "u1", 2, 2)
	if err != nil || len(page) != 1 {
		t.Fatalf("second page = %d events, %v", len(page), err)
	}

	n, err := a.CountHistory(ctx, "g1", "u1")
	if err != nil || n != 3 {
		t.Errorf("CountHistory = %d, %v", n, err)
	}
	counts, err := a.CountByKind(ctx, "g1")
	if err != nil || counts[model.AuditOpened] != 2 {
		t.Errorf("CountByKind = %v, %v", counts, err)
	}
}

func TestPurgeUser(t *testing.T) {
	a := openTemp(t)
	ctx := context.Background()
	a.Record(ctx, model.AuditEvent{GuildID: "g1", UserID: "u1", Kind: model.AuditOpened})
	a.Record(ctx, model.AuditEvent{GuildID: "g1", UserID: "u1", Kind: model.AuditClosed})
	a.Record(ctx, model.AuditEvent{GuildID: "g2", UserID: "u1", Kind: model.AuditOpened})

	removed, err := a.PurgeUser(ctx, "g1", "u1")
	if err != nil || removed != 2 {
		t.Fatalf("PurgeUser = %d, %v", removed, err)
	}
	if n, _ := a.CountHistory(ctx, "g2", "u1"); n != 1 {
		t.Errorf("other guild history = %d, want 1", n)
	}
}
