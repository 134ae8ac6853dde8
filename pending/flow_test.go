package pending

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"support-bot/model"
	"support-bot/platform"
	"support-bot/platform/platformtest"
	"support-bot/store"
	"support-bot/ui"
)

type rated struct {
	guild, ticket string
	rating        int
}

type fakeTickets struct {
	intakes  []Intake
	ratings  []rated
	feedback map[string]string
	err      error
}

func (f *fakeTickets) CreateFromIntake(_ context.Context, _ platform.User, in Intake) error {
	f.intakes = append(f.intakes, in)
	return f.err
}

func (f *fakeTickets) Rate(_ context.Context, guildID, ticketID string, rating int) error {
	f.ratings = append(f.ratings, rated{guildID, ticketID, rating})
	return f.err
}

func (f *fakeTickets) SubmitFeedback(_ context.Context, _ string, ticketID, feedback string) error {
	if f.feedback == nil {
		f.feedback = make(map[string]string)
	}
	f.feedback[ticketID] = feedback
	return f.err
}

type fixture struct {
	flow    *Flow
	gw      *platformtest.Fake
	tickets *fakeTickets
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	settings := &model.Config{SetupTimeoutMinutes: 10}
	st := store.Open(filepath.Join(t.TempDir(), "tickets.json"), settings, nil)
	fx := &fixture{
		gw:      platformtest.New(),
		tickets: &fakeTickets{},
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	fx.flow = NewFlow(NewRegistry(), fx.gw, st, fx.tickets, nil)
	fx.flow.SetClock(func() time.Time { return fx.now })
	return fx
}

var alice = platform.User{ID: "u1", Tag: "alice"}

func TestStartSendsWelcomeAndLanguagePrompt(t *testing.T) {
	fx := newFixture(t)
	if err := fx.flow.Start(context.Background(), alice, "g1"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	entry, ok := fx.flow.Registry().Get(alice.ID)
	if !ok || entry.Step() != StepLanguage {
		t.Fatalf("entry = %v, want language step", entry)
	}
	dms := fx.gw.DMsTo(alice.ID)
	if len(dms) != 2 {
		t.Fatalf("got %d DMs, want welcome and prompt", len(dms))
	}
	if len(dms[1].Components) == 0 {
		t.Error("language prompt should carry buttons")
	}
}

func TestLanguageThenReasonCreatesTicket(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.flow.Start(ctx, alice, "g1")

	handled, err := fx.flow.HandleMessage(ctx, alice, "hello?")
	if !handled || err != nil {
		t.Fatalf("HandleMessage on language step = %v, %v", handled, err)
	}
	if entry, _ := fx.flow.Registry().Get(alice.ID); entry.Step() != StepLanguage {
		t.Fatal("a DM must not advance the language step")
	}

	if err := fx.flow.SelectLanguage(ctx, alice, ui.LangEnglish); err != nil {
		t.Fatalf("SelectLanguage: %v", err)
	}
	if _, err := fx.flow.HandleMessage(ctx, alice, "  Payment issue "); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(fx.tickets.intakes) != 1 {
		t.Fatalf("got %d intakes, want 1", len(fx.tickets.intakes))
	}
	in := fx.tickets.intakes[0]
	if in.Reason != "Payment issue" || in.Language != ui.LangEnglish || in.GuildID != "g1" || in.Category != CategoryGeneral {
		t.Errorf("intake = %+v", in)
	}
	if _, ok := fx.flow.Registry().Get(alice.ID); ok {
		t.Error("entry should be gone after intake completes")
	}
}

func TestEmptyReasonReprompts(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.flow.Start(ctx, alice, "g1")
	fx.flow.SelectLanguage(ctx, alice, ui.LangEnglish)
	fx.flow.HandleMessage(ctx, alice, "   ")
	if len(fx.tickets.intakes) != 0 {
		t.Fatal("blank reason must not create a ticket")
	}
	if entry, _ := fx.flow.Registry().Get(alice.ID); entry.Step() != StepReason {
		t.Error("entry should stay on the reason step")
	}
}

func TestExpiredIntakeIsDropped(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.flow.Start(ctx, alice, "g1")
	fx.flow.SelectLanguage(ctx, alice, ui.LangEnglish)
	fx.now = fx.now.Add(11 * time.Minute)

	handled, err := fx.flow.HandleMessage(ctx, alice, "Payment issue")
	if !handled || err != nil {
		t.Fatalf("HandleMessage = %v, %v", handled, err)
	}
	if len(fx.tickets.intakes) != 0 {
		t.Error("expired intake must not create a ticket")
	}
	if _, ok := fx.flow.Registry().Get(alice.ID); ok {
		t.Error("expired entry should be deleted")
	}
	dms := fx.gw.DMsTo(alice.ID)
	if got := dms[len(dms)-1].Content; got != ui.Text(ui.LangEnglish).SetupExpired {
		t.Errorf("last DM = %q, want setup expired notice", got)
	}
}

func TestSelectLanguageWithoutEntry(t *testing.T) {
	fx := newFixture(t)
	if err := fx.flow.SelectLanguage(context.Background(), alice, ui.LangEnglish); !errors.Is(err, ErrNotActive) {
		t.Fatalf("err = %v, want ErrNotActive", err)
	}
}

func TestRateHighClearsEntry(t *testing.T) {
	fx := newFixture(t)
	fx.flow.Registry().Set(alice.ID, RatingStep{GuildID: "g1", TicketID: "T-1", Language: ui.LangEnglish})
	needs, ticketID, err := fx.flow.Rate(context.Background(), alice.ID, 4)
	if err != nil || needs || ticketID != "T-1" {
		t.Fatalf("Rate = %v, %q, %v", needs, ticketID, err)
	}
	if _, ok := fx.flow.Registry().Get(alice.ID); ok {
		t.Error("rating of 4 should clear the entry")
	}
	if len(fx.tickets.ratings) != 1 || fx.tickets.ratings[0].rating != 4 {
		t.Errorf("ratings = %+v", fx.tickets.ratings)
	}
}

func TestRateLowMovesToFeedback(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.flow.Registry().Set(alice.ID, RatingStep{GuildID: "g1", TicketID: "T-1", Language: ui.LangEnglish})
	needs, _, err := fx.flow.Rate(ctx, alice.ID, 2)
	if err != nil || !needs {
		t.Fatalf("Rate(2) = %v, %v; want feedback", needs, err)
	}
	entry, ok := fx.flow.Registry().Get(alice.ID)
	if !ok || entry.Step() != StepRatingFeedback {
		t.Fatalf("entry = %v, want rating_feedback", entry)
	}
	if err := fx.flow.SubmitFeedback(ctx, alice.ID, "T-1", " too slow "); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if fx.tickets.feedback["T-1"] != "too slow" {
		t.Errorf("feedback = %q", fx.tickets.feedback["T-1"])
	}
	if _, ok := fx.flow.Registry().Get(alice.ID); ok {
		t.Error("feedback should end the conversation")
	}
}

func TestRateRejectsOutOfRangeAndWrongStep(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if _, _, err := fx.flow.Rate(ctx, alice.ID, 6); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("Rate(6) err = %v", err)
	}
	if _, _, err := fx.flow.Rate(ctx, alice.ID, 5); !errors.Is(err, ErrNotActive) {
		t.Errorf("Rate without entry err = %v", err)
	}
	fx.flow.Start(ctx, alice, "g1")
	if _, _, err := fx.flow.Rate(ctx, alice.ID, 5); !errors.Is(err, ErrNotActive) {
		t.Errorf("Rate on language step err = %v", err)
	}
}

func TestRatingByDM(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.flow.Registry().Set(alice.ID, RatingStep{GuildID: "g1", TicketID: "T-1", Language: ui.LangEnglish})

	fx.flow.HandleMessage(ctx, alice, "ten")
	if len(fx.tickets.ratings) != 0 {
		t.Fatal("invalid rating must not be stored")
	}
	dms := fx.gw.DMsTo(alice.ID)
	if dms[len(dms)-1].Content != ui.Text(ui.LangEnglish).InvalidRating {
		t.Error("invalid rating should be answered with a re-prompt")
	}

	fx.flow.HandleMessage(ctx, alice, "1")
	if entry, _ := fx.flow.Registry().Get(alice.ID); entry == nil || entry.Step() != StepRatingFeedback {
		t.Fatal("low DM rating should ask for feedback")
	}
	fx.flow.HandleMessage(ctx, alice, "nobody answered")
	if fx.tickets.feedback["T-1"] != "nobody answered" {
		t.Errorf("feedback = %q", fx.tickets.feedback["T-1"])
	}
}

func TestRatingEntriesDoNotExpire(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	r.Set("a", RatingStep{GuildID: "g", TicketID: "T"})
	r.Set("b", LanguageStep{GuildID: "g", ExpiresAt: now.Add(-time.Second)})
	r.Set("c", ReasonStep{GuildID: "g", ExpiresAt: now.Add(time.Minute)})
	if n := r.PruneExpired(now); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if _, ok := r.Get("a"); !ok {
		t.Error("rating entry must survive pruning")
	}
	if _, ok := r.Get("b"); ok {
		t.Error("expired language entry should be pruned")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestTakeIsExclusive(t *testing.T) {
	r := NewRegistry()
	e := ReasonStep{GuildID: "g"}
	r.Set("a", e)
	if !r.Take("a", e) {
		t.Fatal("first Take should win")
	}
	if r.Take("a", e) {
		t.Fatal("second Take must fail")
	}
}
