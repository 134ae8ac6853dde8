package ui

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"support-bot/model"
)

func TestTranscriptEscapesContent(t *testing.T) {
	ticket := model.Ticket{
		ID:      "T-ABC",
		Number:  7,
		UserID:  "42",
		UserTag: "alice",
		Messages: []model.TicketMessage{
			{From: model.FromUser, Content: "<script>alert(1)</script>", Timestamp: 1},
			{From: model.FromStaff, Content: "hello", Timestamp: 2, AuthorID: "support"},
		},
	}
	out, err := TranscriptHTML(ticket, model.GuildConfig{})
	if err != nil {
		t.Fatalf("TranscriptHTML: %v", err)
	}
	html := string(out)
	if strings.Contains(html, "<script>alert") {
		t.Fatal("message content was not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("escaped content missing")
	}
	if !strings.Contains(html, DefaultSupportLabel) {
		t.Errorf("staff line should fall back to %q", DefaultSupportLabel)
	}
	if !strings.Contains(html, "#7") {
		t.Error("ticket number missing from header")
	}
}

func TestTranscriptEmpty(t *testing.T) {
	out, err := TranscriptHTML(model.Ticket{ID: "T-1"}, model.GuildConfig{SupportLabel: "Team"})
	if err != nil {
		t.Fatalf("TranscriptHTML: %v", err)
	}
	if !strings.Contains(string(out), "No messages logged.") {
		t.Error("empty transcript should say no messages were logged")
	}
}

func TestThreadComponents(t *testing.T) {
	open := model.Ticket{Status: model.StatusOpen}
	if got := len(ThreadComponents(open)); got != 2 {
		t.Errorf("unclaimed open ticket: %d rows, want 2", got)
	}
	open.ClaimedBy = "9"
	if got := len(ThreadComponents(open)); got != 1 {
		t.Errorf("claimed ticket: %d rows, want 1", got)
	}
	if got := ThreadComponents(model.Ticket{Status: model.StatusClosed}); got != nil {
		t.Errorf("closed ticket should have no components, got %v", got)
	}
}

func TestModalValue(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		CustomID: PrefixFeedback + "T-1",
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: FieldFeedback, Value: "slow"},
			}},
		},
	}
	if got := ModalValue(data, FieldFeedback); got != "slow" {
		t.Errorf("ModalValue = %q, want slow", got)
	}
	if got := ModalValue(data, FieldCloseReason); got != "" {
		t.Errorf("missing field = %q, want empty", got)
	}
	if id, ok := SplitID(data.CustomID, PrefixFeedback); !ok || id != "T-1" {
		t.Errorf("SplitID = %q, %v", id, ok)
	}
}

func TestFillAndLocale(t *testing.T) {
	if Locale("fr") != LangArabic {
		t.Error("unknown language should default to Arabic")
	}
	got := Fill(Text(LangEnglish).TempBlacklisted, "duration", "5m")
	if !strings.Contains(got, "5m") || strings.Contains(got, "{duration}") {
		t.Errorf("Fill = %q", got)
	}
}

func TestClosedEmbedDurationFloor(t *testing.T) {
	ticket := model.Ticket{Number: 3, OpenedAt: 1000, ClosedAt: 2000, Status: model.StatusClosed}
	e := ClosedEmbed(LangEnglish, ticket, model.GuildConfig{})
	found := false
	for _, f := range e.Fields {
		if f.Name == Text(LangEnglish).ClosedEmbedIssueSolved {
			found = true
			if !strings.HasPrefix(f.Value, "1 ") {
				t.Errorf("duration = %q, want at least one minute", f.Value)
			}
		}
	}
	if !found {
		t.Fatal("duration field missing")
	}
}
