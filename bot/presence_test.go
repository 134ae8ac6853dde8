package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"support-bot/model"
)

func TestPresenceStatus(t *testing.T) {
	cases := map[string]discordgo.Status{
		"online":  discordgo.StatusOnline,
		"DND":     discordgo.StatusDoNotDisturb,
		"sleep":   discordgo.StatusIdle,
		"offline": discordgo.StatusInvisible,
		"":        discordgo.StatusOnline,
		"away":    discordgo.StatusOnline,
	}
	for in, want := range cases {
		if got := PresenceStatus(in); got != want {
			t.Errorf("PresenceStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPresenceData(t *testing.T) {
	data := PresenceData(model.GuildConfig{BotStatus: "dnd"})
	if data.Status != "dnd" || len(data.Activities) != 1 || data.Activities[0].Name != defaultActivity {
		t.Errorf("data = %+v", data)
	}
	data = PresenceData(model.GuildConfig{BotStatus: "online", BotActivity: "Tickets"})
	if data.Activities[0].Name != "Tickets" {
		t.Errorf("activity = %q", data.Activities[0].Name)
	}
	data = PresenceData(model.GuildConfig{BotStatus: "offline"})
	if data.Status != "invisible" || len(data.Activities) != 0 {
		t.Errorf("invisible data = %+v", data)
	}
}
