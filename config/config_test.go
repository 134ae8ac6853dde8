package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"support-bot/model"
)

var envKeys = []string{
	"DISCORD_TOKEN", "BOT_TOKEN", "DATA_FILE", "AUDIT_DB", "LOG_CHANNEL_ID", "PRIMARY_GUILD_ID",
	"MAX_MESSAGES_PER_MINUTE", "MAX_TICKETS_PER_DAY", "SETUP_TIMEOUT_MINUTES", "REMOVE_DATA_AFTER_DAYS",
	"IDLE_CLOSE_MINUTES", "WAITING_THRESHOLD", "LANGUAGE", "EMBED_COLOR", "BANNER_URL", "SUPPORT_LABEL",
	"BOT_STATUS", "BOT_ACTIVITY", "SUPPORT_CHANNEL_ID", "LOGS_CHANNEL_ID", "SUPPORT_ROLE_ID",
	"ADMIN_ROLE_ID", "OWNER_USER_ID",
}

// clearEnv blanks every key so the host environment cannot leak in. Viper
// treats empty variables as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "token" || cfg.DataFile != "data/tickets.json" || cfg.AuditDBPath != "data/audit.db" {
		t.Errorf("paths = %+v", cfg)
	}
	if cfg.MaxMessagesPerMinute != 5 || cfg.MaxTicketsPerDay != 3 || cfg.SetupTimeoutMinutes != 10 || cfg.RemoveDataAfterDays != 30 {
		t.Errorf("limits = %+v", cfg)
	}
	d := cfg.Defaults
	if d.Language != "ar" || d.IdleCloseMinutes != 60 || d.SupportLabel != "Chillaxy Support" || d.BotActivity != "DM For Help" {
		t.Errorf("defaults = %+v", d)
	}
	if d.SupportRoleIDs == nil || d.SupportRoleIDs.Cardinality() != 0 {
		t.Errorf("support roles = %v", d.SupportRoleIDs)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "legacy")
	t.Setenv("MAX_TICKETS_PER_DAY", "7")
	t.Setenv("SUPPORT_ROLE_ID", "r1, r2,,")
	t.Setenv("LANGUAGE", "EN")
	t.Setenv("PRIMARY_GUILD_ID", "g9")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BotToken != "legacy" {
		t.Errorf("token = %q, BOT_TOKEN should be accepted", cfg.BotToken)
	}
	if cfg.MaxTicketsPerDay != 7 || cfg.PrimaryGuildID != "g9" || cfg.Defaults.Language != "en" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !cfg.Defaults.SupportRoleIDs.Contains("r1", "r2") || cfg.Defaults.SupportRoleIDs.Cardinality() != 2 {
		t.Errorf("support roles = %v", cfg.Defaults.SupportRoleIDs)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing token": {"DISCORD_TOKEN": " "},
		"bad language":  {"DISCORD_TOKEN": "x", "LANGUAGE": "fr"},
		"bad color":     {"DISCORD_TOKEN": "x", "EMBED_COLOR": "blue"},
		"zero rate":     {"DISCORD_TOKEN": "x", "MAX_MESSAGES_PER_MINUTE": "0"},
		"bad status":    {"DISCORD_TOKEN": "x", "BOT_STATUS": "away"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadGuildOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := strings.Join([]string{
		"idle_close_minutes: 15",
		"guilds:",
		"  \"123\":",
		"    supportChannelId: \"456\"",
		"    supportRoleIds: [\"r1\"]",
		"    waitingThreshold: 4",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Defaults.IdleCloseMinutes != 15 {
		t.Errorf("idle = %d", cfg.Defaults.IdleCloseMinutes)
	}
	override, ok := cfg.Guilds["123"]
	if !ok {
		t.Fatalf("guilds = %+v", cfg.Guilds)
	}
	if override.SupportChannelID == nil || *override.SupportChannelID != "456" {
		t.Errorf("support channel = %v", override.SupportChannelID)
	}
	if override.WaitingThreshold == nil || *override.WaitingThreshold != 4 {
		t.Errorf("waiting threshold = %v", override.WaitingThreshold)
	}
	resolved := cfg.Defaults.Apply(&override)
	if !resolved.SupportRoleIDs.Contains("r1") || resolved.IdleCloseMinutes != 15 {
		t.Errorf("resolved = %+v", resolved)
	}
}

func TestValidatePatch(t *testing.T) {
	ok := model.GuildConfigPatch{
		Language:         model.StringPtr("en"),
		EmbedColor:       model.StringPtr("#112233"),
		BannerURL:        model.StringPtr(""),
		IdleCloseMinutes: model.IntPtr(0),
	}
	if err := ValidatePatch(ok); err != nil {
		t.Errorf("valid patch rejected: %v", err)
	}
	bad := []model.GuildConfigPatch{
		{Language: model.StringPtr("de")},
		{EmbedColor: model.StringPtr("red")},
		{BannerURL: model.StringPtr("not a url")},
		{WaitingThreshold: model.IntPtr(-1)},
		{BotStatus: model.StringPtr("away")},
	}
	for i, p := range bad {
		if err := ValidatePatch(p); err == nil {
			t.Errorf("patch %d accepted", i)
		}
	}
}

func TestNewValidatorRegistersNotBlank(t *testing.T) {
	v := newValidator()
	if err := v.Var("   ", "notblank"); err == nil {
		t.Error("blank value accepted")
	}
	if err := v.Var("token", "notblank"); err != nil {
		t.Errorf("non-blank value rejected: %v", err)
	}
}
