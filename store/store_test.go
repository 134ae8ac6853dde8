package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"

	"support-bot/model"
)

func testSettings() *model.Config {
	return &model.Config{
		Defaults: model.GuildConfig{
			Language:         "ar",
			EmbedColor:       "#5865F2",
			IdleCloseMinutes: 60,
			SupportRoleIDs:   mapset.NewSet[string](),
		},
		Guilds: map[string]model.GuildConfigPatch{},
	}
}

func TestOpenMissingFileGivesEmptyDocument(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "data.json"), testSettings(), nil)
	s.View(func(doc *model.Document) {
		if doc.NextTicketNumber != 1 {
			t.Errorf("NextTicketNumber = %d, want 1", doc.NextTicketNumber)
		}
		if doc.Tickets == nil || doc.Guilds == nil || doc.Blacklist == nil {
			t.Errorf("top-level maps not initialised: %+v", doc)
		}
	})
}

func TestOpenCorruptFileGivesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Open(path, testSettings(), nil)
	s.View(func(doc *model.Document) {
		if doc.NextTicketNumber != 1 || len(doc.Tickets) != 0 {
			t.Errorf("expected empty document, got %+v", doc)
		}
	})
}

func TestUpdatePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := Open(path, testSettings(), nil)
	err := s.Update(func(doc *model.Document) error {
		doc.EnsureGuild("g1")
		doc.Tickets["g1"]["u1"] = &model.Ticket{ID: "T-1", Number: doc.AllocateTicketNumber(), UserID: "u1", Status: model.StatusOpen}
		doc.PrimaryGuildID = "g1"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	reopened := Open(path, testSettings(), nil)
	ticket, ok := reopened.Ticket("g1", "u1")
	if !ok {
		t.Fatal("ticket missing after reopen")
	}
	if ticket.Number != 1 {
		t.Errorf("Number = %d, want 1", ticket.Number)
	}
	reopened.View(func(doc *model.Document) {
		if doc.NextTicketNumber != 2 {
			t.Errorf("NextTicketNumber = %d, want 2", doc.NextTicketNumber)
		}
		if doc.Blacklist["g1"] == nil || doc.Guilds["g1"].SupportStats == nil {
			t.Error("guild shard structures were not persisted")
		}
	})
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := Open(filepath.Join(t.TempDir(), "data.json"), testSettings(), nil)
	if err := s.Update(func(doc *model.Document) error {
		doc.PrimaryGuildID = "kept"
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.Update(func(doc *model.Document) error {
		doc.PrimaryGuildID = "discarded"
		doc.AllocateTicketNumber()
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}
	s.View(func(doc *model.Document) {
		if doc.PrimaryGuildID != "kept" {
			t.Errorf("PrimaryGuildID = %q, want kept", doc.PrimaryGuildID)
		}
		if doc.NextTicketNumber != 1 {
			t.Errorf("NextTicketNumber = %d, want 1", doc.NextTicketNumber)
		}
	})
}

func TestUpdateRollsBackWhenSaveFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := Open(path, testSettings(), nil)
	if err := s.Update(func(doc *model.Document) error {
		doc.PrimaryGuildID = "kept"
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// A non-empty directory where the data file belongs makes the rename fail.
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(path, "blocker"), 0o755); err != nil {
		t.Fatal(err)
	}

	err := s.Update(func(doc *model.Document) error {
		doc.EnsureGuild("g1")
		doc.Tickets["g1"]["u1"] = &model.Ticket{ID: "T-1", UserID: "u1", Status: model.StatusOpen}
		doc.PrimaryGuildID = "lost"
		return nil
	})
	if err == nil {
		t.Fatal("Update should report the failed save")
	}
	s.View(func(doc *model.Document) {
		if doc.PrimaryGuildID != "kept" {
			t.Errorf("PrimaryGuildID = %q, want kept", doc.PrimaryGuildID)
		}
		if _, ok := doc.Tickets["g1"]["u1"]; ok {
			t.Error("unsaved ticket is still in memory")
		}
	})
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := Open(path, testSettings(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Update(func(doc *model.Document) error {
				doc.AllocateTicketNumber()
				return nil
			}); err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	reopened := Open(path, testSettings(), nil)
	reopened.View(func(doc *model.Document) {
		if doc.NextTicketNumber != 51 {
			t.Errorf("NextTicketNumber = %d, want 51", doc.NextTicketNumber)
		}
	})
}

func TestGuildConfigPrecedence(t *testing.T) {
	settings := testSettings()
	settings.Guilds["g1"] = model.GuildConfigPatch{
		Language:      model.StringPtr("en"),
		LogsChannelID: model.StringPtr("file-logs"),
	}
	s := Open(filepath.Join(t.TempDir(), "data.json"), settings, nil)

	cfg := s.GuildConfig("g1")
	if cfg.Language != "en" || cfg.LogsChannelID != "file-logs" || cfg.IdleCloseMinutes != 60 {
		t.Fatalf("file override not applied: %+v", cfg)
	}

	if err := s.PatchGuildConfig("g1", model.GuildConfigPatch{
		LogsChannelID:  model.StringPtr("stored-logs"),
		SupportRoleIDs: []string{"r1"},
	}); err != nil {
		t.Fatal(err)
	}
	cfg = s.GuildConfig("g1")
	if cfg.LogsChannelID != "stored-logs" {
		t.Errorf("LogsChannelID = %q, want stored-logs", cfg.LogsChannelID)
	}
	if cfg.Language != "en" {
		t.Errorf("Language = %q, want en", cfg.Language)
	}
	if !cfg.SupportRoleIDs.Contains("r1") {
		t.Errorf("support roles = %v, want r1", cfg.SupportRoleIDs)
	}

	other := s.GuildConfig("unknown")
	if other.Language != "ar" || other.SupportRoleIDs == nil {
		t.Errorf("defaults not filled for unknown guild: %+v", other)
	}
}

func TestPrimaryGuildIDOrder(t *testing.T) {
	settings := testSettings()
	s := Open(filepath.Join(t.TempDir(), "data.json"), settings, nil)

	if got := s.PrimaryGuildID(nil); got != "" {
		t.Errorf("PrimaryGuildID() = %q, want empty", got)
	}
	if got := s.PrimaryGuildID([]string{"first", "second"}); got != "first" {
		t.Errorf("PrimaryGuildID() = %q, want first", got)
	}

	withEnv := *settings
	withEnv.PrimaryGuildID = "env"
	s.SetSettings(&withEnv)
	if got := s.PrimaryGuildID([]string{"first"}); got != "env" {
		t.Errorf("PrimaryGuildID() = %q, want env", got)
	}

	if err := s.Update(func(doc *model.Document) error {
		doc.PrimaryGuildID = "stored"
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if got := s.PrimaryGuildID([]string{"first"}); got != "stored" {
		t.Errorf("PrimaryGuildID() = %q, want stored", got)
	}
}
