package handlers

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"support-bot/tickets"
)

func TestBulkCloseIncomplete(t *testing.T) {
	cases := []struct {
		result tickets.BulkResult
		want   bool
	}{
		{tickets.BulkResult{Open: 3, Closed: 3, Logged: 3, Deleted: 3}, false},
		{tickets.BulkResult{Open: 3, Closed: 2, Logged: 2, Deleted: 2}, true},
		{tickets.BulkResult{Open: 3, Closed: 3, Logged: 1, Deleted: 3}, true},
		{tickets.BulkResult{Open: 3, Closed: 3, Logged: 3, Deleted: 0}, true},
	}
	for _, c := range cases {
		if got := bulkCloseIncomplete(c.result); got != c.want {
			t.Errorf("bulkCloseIncomplete(%+v) = %v, want %v", c.result, got, c.want)
		}
	}
}

func TestConfigPatchFromOptions(t *testing.T) {
	opts := map[string]*discordgo.ApplicationCommandInteractionDataOption{
		"support_role":       {Name: "support_role", Type: discordgo.ApplicationCommandOptionRole, Value: "r1"},
		"language":           {Name: "language", Type: discordgo.ApplicationCommandOptionString, Value: "EN"},
		"embed_color":        {Name: "embed_color", Type: discordgo.ApplicationCommandOptionString, Value: "  "},
		"idle_close_minutes": {Name: "idle_close_minutes", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(45)},
	}
	p := ConfigPatchFromOptions(opts)
	if len(p.SupportRoleIDs) != 1 || p.SupportRoleIDs[0] != "r1" {
		t.Errorf("support roles = %v", p.SupportRoleIDs)
	}
	if p.Language == nil || *p.Language != "en" {
		t.Errorf("language = %v", p.Language)
	}
	if p.EmbedColor != nil {
		t.Errorf("blank color should be absent, got %q", *p.EmbedColor)
	}
	if p.IdleCloseMinutes == nil || *p.IdleCloseMinutes != 45 {
		t.Errorf("idle minutes = %v", p.IdleCloseMinutes)
	}
	if p.SupportChannelID != nil || p.LogsChannelID != nil {
		t.Error("absent options should stay nil")
	}
}
