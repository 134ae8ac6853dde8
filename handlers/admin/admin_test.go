package admin

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"support-bot/blacklist"
	"support-bot/model"
	"support-bot/store"
	"support-bot/tickets"
)

type recorder struct {
	events []model.AuditEvent
}

func (r *recorder) Record(_ context.Context, ev model.AuditEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func newManager(t *testing.T) (*Manager, *store.Store, *recorder, *time.Time) {
	t.Helper()
	settings := &model.Config{Defaults: model.GuildConfig{Language: "ar", EmbedColor: "#5865F2"}}
	st := store.Open(filepath.Join(t.TempDir(), "data.json"), settings, nil)
	rec := &recorder{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(st, rec, nil)
	m.SetClock(func() time.Time { return now })
	return m, st, rec, &now
}

func TestSetupMakesPrimaryGuild(t *testing.T) {
	m, st, _, _ := newManager(t)
	removed := int64(1)
	st.Update(func(doc *model.Document) error {
		doc.EnsureGuild("g1")
		doc.Guilds["g1"].RemovedAt = &removed
		return nil
	})

	err := m.Setup("g1", model.GuildConfigPatch{
		SupportChannelID: model.StringPtr("support"),
		LogsChannelID:    model.StringPtr("logs"),
		SupportRoleIDs:   []string{"staff"},
		Language:         model.StringPtr("en"),
		MentionRoleID:    model.StringPtr(""),
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if got := st.PrimaryGuildID(nil); got != "g1" {
		t.Errorf("primary guild = %q", got)
	}
	cfg := st.GuildConfig("g1")
	if cfg.SupportChannelID != "support" || cfg.LogsChannelID != "logs" || cfg.Language != "en" {
		t.Errorf("config = %+v", cfg)
	}
	if !cfg.SupportRoleIDs.Contains("staff") {
		t.Errorf("support roles = %v", cfg.SupportRoleIDs)
	}
	st.View(func(doc *model.Document) {
		if doc.Guilds["g1"].RemovedAt != nil {
			t.Error("setup should clear the departure mark")
		}
	})
}

func TestSetupValidation(t *testing.T) {
	m, st, _, _ := newManager(t)
	if err := m.Setup("g1", model.GuildConfigPatch{SupportChannelID: model.StringPtr("s")}); !errors.Is(err, tickets.ErrInvalidInput) {
		t.Errorf("missing fields: err = %v", err)
	}
	err := m.Setup("g1", model.GuildConfigPatch{
		SupportChannelID: model.StringPtr("support"),
		LogsChannelID:    model.StringPtr("logs"),
		SupportRoleIDs:   []string{"staff"},
		EmbedColor:       model.StringPtr("purple"),
	})
	if err == nil {
		t.Error("bad color accepted")
	}
	if st.PrimaryGuildID(nil) != "" {
		t.Error("rejected setup must not pick a primary guild")
	}
}

func TestUpdateConfigKeepsOtherFields(t *testing.T) {
	m, st, _, _ := newManager(t)
	if err := m.UpdateConfig("g1", model.GuildConfigPatch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Errorf("empty patch: err = %v", err)
	}
	m.UpdateConfig("g1", model.GuildConfigPatch{SupportChannelID: model.StringPtr("support")})
	m.UpdateConfig("g1", model.GuildConfigPatch{IdleCloseMinutes: model.IntPtr(45)})
	m.SetAdminRole("g1", "admins")
	m.SetVoiceChannel("g1", "vc")
	if err := m.SetBotStatus("g1", "away"); err == nil {
		t.Error("unknown status accepted")
	}
	m.SetBotStatus("g1", "dnd")

	cfg := st.GuildConfig("g1")
	if cfg.SupportChannelID != "support" || cfg.IdleCloseMinutes != 45 || cfg.AdminRoleID != "admins" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.VoiceChannelID != "vc" || cfg.BotStatus != "dnd" {
		t.Errorf("voice/status = %q/%q", cfg.VoiceChannelID, cfg.BotStatus)
	}

	m.SetVoiceChannel("g1", "")
	if got := st.GuildConfig("g1").VoiceChannelID; got != "" {
		t.Errorf("voice channel not cleared: %q", got)
	}
}

func TestBlacklistLifecycle(t *testing.T) {
	m, st, rec, now := newManager(t)
	ctx := context.Background()

	if err := m.Blacklist(ctx, "g1", "u1", "spam", "s1"); err != nil {
		t.Fatalf("Blacklist: %v", err)
	}
	expires, err := m.TempBlacklist(ctx, "g1", "u2", "", "s1", 90)
	if err != nil {
		t.Fatalf("TempBlacklist: %v", err)
	}
	if !expires.Equal(now.Add(90 * time.Minute)) {
		t.Errorf("expires = %v", expires)
	}
	// A temporary ban replaces the permanent one.
	m.TempBlacklist(ctx, "g1", "u1", "", "s1", 0)

	perm, temp := m.Bans("g1")
	if len(perm) != 0 || len(temp) != 2 {
		t.Fatalf("perm=%v temp=%v", perm, temp)
	}

	*now = now.Add(2 * time.Minute)
	perm, temp = m.Bans("g1")
	if len(temp) != 1 || temp[0].UserID != "u2" {
		t.Errorf("expired ban still listed: %v", temp)
	}
	st.View(func(doc *model.Document) {
		if _, ok := doc.Blacklist["g1"].Temporary["u1"]; ok {
			t.Error("listing should prune expired bans")
		}
	})

	if err := m.RemoveTempBlacklist(ctx, "g1", "u1", "s1"); !errors.Is(err, blacklist.ErrNotListed) {
		t.Errorf("remove missing: err = %v", err)
	}
	if err := m.Unblacklist(ctx, "g1", "u2", "s1"); err != nil {
		t.Errorf("Unblacklist: %v", err)
	}
	if _, temp := m.Bans("g1"); len(temp) != 0 {
		t.Errorf("temp = %v", temp)
	}

	kinds := make([]string, 0, len(rec.events))
	for _, ev := range rec.events {
		kinds = append(kinds, ev.Kind)
	}
	want := "blacklist,blacklist,blacklist,unblacklist"
	if got := strings.Join(kinds, ","); got != want {
		t.Errorf("audit kinds = %s, want %s", got, want)
	}
}

func TestListTexts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := BlacklistText(nil); got != "No users are blacklisted." {
		t.Errorf("empty = %q", got)
	}
	var entries []blacklist.Entry
	for i := 0; i < 23; i++ {
		entries = append(entries, blacklist.Entry{UserID: string(rune('a' + i)), ExpiresAt: now.Add(90 * time.Minute)})
	}
	text := BlacklistText(entries)
	if !strings.HasSuffix(text, "...and 3 more") || strings.Count(text, "<@") != 20 {
		t.Errorf("blacklist text = %q", text)
	}
	temp := TempBlacklistText(entries[:1], now)
	if temp != "Temp blacklisted users:\n<@a> (1h 30m)" {
		t.Errorf("temp text = %q", temp)
	}
}

func TestTopRankText(t *testing.T) {
	if got := TopRankText(nil); got != "No support stats available yet." {
		t.Errorf("empty = %q", got)
	}
	got := TopRankText([]tickets.LeaderboardEntry{{UserID: "s1", Closed: 4, Claimed: 2}, {UserID: "s2", Closed: 1}})
	want := "Top Support Members:\n1. <@s1> - Closed: 4, Claimed: 2\n2. <@s2> - Closed: 1, Claimed: 0"
	if got != want {
		t.Errorf("got %q", got)
	}
}

func TestHistoryEmbed(t *testing.T) {
	if TotalPages(0, HistoryPageSize) != 1 || TotalPages(21, HistoryPageSize) != 3 {
		t.Error("page count")
	}
	at := time.Unix(1700000000, 0)
	events := []model.AuditEvent{
		{UserID: "u1", ActorID: "s1", TicketID: "T-1", Kind: model.AuditClosed, Detail: "staff close", CreatedAt: at},
		{UserID: "u1", ActorID: "u1", TicketID: "T-1", Kind: model.AuditOpened, CreatedAt: at},
	}
	e := HistoryEmbed("u1", events, 1, 1, 2, model.GuildConfig{})
	if !strings.Contains(e.Description, "<t:1700000000:F> **closed** `T-1` by <@s1>: staff close") {
		t.Errorf("description = %q", e.Description)
	}
	if strings.Contains(e.Description, "by <@u1>") {
		t.Error("self actions should not name an actor")
	}
	if e.Footer.Text != "Page 1/1 · 2 events" {
		t.Errorf("footer = %q", e.Footer.Text)
	}
}
