package inbox

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"support-bot/blacklist"
	"support-bot/model"
	"support-bot/pending"
	"support-bot/platform"
	"support-bot/platform/platformtest"
	"support-bot/quota"
	"support-bot/store"
	"support-bot/tickets"
	"support-bot/ui"
)

const guildID = "g1"

var (
	user  = platform.User{ID: "u1", Tag: "alice"}
	staff = platform.User{ID: "s1", Tag: "helper"}

	staffMember = platform.Member{UserID: "s1", Roles: []string{"staff"}}
)

type fixture struct {
	router   *Router
	store    *store.Store
	gw       *platformtest.Fake
	registry *pending.Registry
	flow     *pending.Flow
	now      time.Time
}

func newFixture(t *testing.T, tweak func(cfg *model.Config)) *fixture {
	t.Helper()
	settings := &model.Config{
		PrimaryGuildID:       guildID,
		MaxMessagesPerMinute: 3,
		MaxTicketsPerDay:     5,
		SetupTimeoutMinutes:  10,
		Defaults: model.GuildConfig{
			SupportChannelID: "support",
			SupportRoleIDs:   mapset.NewSet("staff"),
			Language:         ui.LangEnglish,
		},
	}
	if tweak != nil {
		tweak(settings)
	}
	fx := &fixture{
		store:    store.Open(filepath.Join(t.TempDir(), "data.json"), settings, nil),
		gw:       platformtest.New(),
		registry: pending.NewRegistry(),
		now:      time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return fx.now }

	svc := tickets.NewService(fx.store, fx.gw, fx.registry, nil, nil)
	svc.SetClock(clock)
	svc.SetAfter(func(time.Duration, func()) {})
	fx.flow = pending.NewFlow(fx.registry, fx.gw, fx.store, svc, nil)
	fx.flow.SetClock(clock)
	tracker := quota.NewTracker()
	tracker.SetClock(clock)

	fx.router = NewRouter(fx.store, fx.flow, svc, tracker, fx.gw, nil)
	fx.router.SetClock(clock)
	return fx
}

func (fx *fixture) dm(t *testing.T, content string) Outcome {
	t.Helper()
	out, err := fx.router.HandleDM(context.Background(), user, content)
	if err != nil {
		t.Fatalf("HandleDM(%q): %v", content, err)
	}
	return out
}

func (fx *fixture) lastDM(t *testing.T) platform.Message {
	t.Helper()
	dms := fx.gw.DMsTo(user.ID)
	if len(dms) == 0 {
		t.Fatal("no DMs sent")
	}
	return dms[len(dms)-1]
}

func TestFirstDMStartsIntake(t *testing.T) {
	fx := newFixture(t, nil)
	if out := fx.dm(t, "I need help"); out != OutcomeIntake {
		t.Fatalf("outcome = %q", out)
	}
	entry, ok := fx.registry.Get(user.ID)
	if !ok || entry.Step() != pending.StepLanguage || entry.Guild() != guildID {
		t.Fatalf("entry = %#v", entry)
	}
	dms := fx.gw.DMsTo(user.ID)
	if len(dms) != 2 {
		t.Fatalf("got %d DMs, want welcome and language prompt", len(dms))
	}
	if len(dms[1].Components) == 0 {
		t.Error("language prompt should carry buttons")
	}
	if _, ok := fx.store.Ticket(guildID, user.ID); ok {
		t.Error("no ticket before the intake finishes")
	}
}

func TestIntakeToTicketThenForward(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	fx.dm(t, "hello")
	if err := fx.flow.SelectLanguage(ctx, user, ui.LangEnglish); err != nil {
		t.Fatalf("SelectLanguage: %v", err)
	}
	if out := fx.dm(t, "Payment issue"); out != OutcomePending {
		t.Fatalf("outcome = %q", out)
	}
	ticket, ok := fx.store.Ticket(guildID, user.ID)
	if !ok || ticket.Reason != "Payment issue" || !ticket.IsOpen() {
		t.Fatalf("ticket = %+v", ticket)
	}
	if _, ok := fx.registry.Get(user.ID); ok {
		t.Error("intake entry should be gone")
	}

	if out := fx.dm(t, "card was charged twice"); out != OutcomeForwarded {
		t.Fatalf("outcome = %q", out)
	}
	ticket, _ = fx.store.Ticket(guildID, user.ID)
	if len(ticket.Messages) != 1 || ticket.Messages[0].Content != "card was charged twice" {
		t.Errorf("messages = %+v", ticket.Messages)
	}
}

func TestRateLimit(t *testing.T) {
	fx := newFixture(t, nil)
	for i := 0; i < 3; i++ {
		if out := fx.dm(t, "hi"); out != OutcomeIntake {
			t.Fatalf("message %d outcome = %q", i+1, out)
		}
		fx.registry.Delete(user.ID)
	}
	if out := fx.dm(t, "hi"); out != OutcomeRateLimited {
		t.Fatalf("fourth message outcome = %q", out)
	}
	if got := fx.lastDM(t).Content; got != ui.Text(ui.LangArabic).RateLimited {
		t.Errorf("reply = %q", got)
	}

	fx.now = fx.now.Add(61 * time.Second)
	if out := fx.dm(t, "hi"); out != OutcomeIntake {
		t.Errorf("after the window outcome = %q", out)
	}
}

func TestPendingUserNotThrottled(t *testing.T) {
	fx := newFixture(t, nil)
	fx.dm(t, "hi")
	for i := 0; i < 5; i++ {
		if out := fx.dm(t, "what?"); out != OutcomePending {
			t.Fatalf("message %d outcome = %q", i+2, out)
		}
	}
	if got := fx.lastDM(t).Content; got != ui.Text(ui.LangArabic).InvalidChoice {
		t.Errorf("reply = %q", got)
	}
}

func TestNoPrimaryGuild(t *testing.T) {
	fx := newFixture(t, func(cfg *model.Config) { cfg.PrimaryGuildID = "" })
	if out := fx.dm(t, "hi"); out != OutcomeSetupRequired {
		t.Fatalf("outcome = %q", out)
	}
	if got := fx.lastDM(t).Content; got != ui.Text(ui.LangArabic).SetupRequired {
		t.Errorf("reply = %q", got)
	}

	fx.router.SetKnownGuilds(func() []string { return []string{guildID} })
	if out := fx.dm(t, "hi"); out != OutcomeIntake {
		t.Errorf("with a known guild outcome = %q", out)
	}
}

func TestBlacklistedUsers(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		blacklist.AddPermanent(doc, guildID, user.ID, "spam", staff.ID, fx.now)
		return nil
	})
	if out := fx.dm(t, "hi"); out != OutcomeBlacklisted {
		t.Fatalf("outcome = %q", out)
	}
	if got := fx.lastDM(t).Content; got != ui.Text(ui.LangEnglish).Blacklisted {
		t.Errorf("reply = %q", got)
	}
	if _, ok := fx.registry.Get(user.ID); ok {
		t.Error("banned user must not start an intake")
	}
}

func TestTemporaryBan(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		blacklist.AddTemporary(doc, guildID, user.ID, "cool off", staff.ID, 90*time.Minute, fx.now)
		return nil
	})
	if out := fx.dm(t, "hi"); out != OutcomeTempBanned {
		t.Fatalf("outcome = %q", out)
	}
	if got := fx.lastDM(t).Content; !strings.Contains(got, "1h 30m") {
		t.Errorf("reply = %q, want remaining time", got)
	}

	fx.now = fx.now.Add(91 * time.Minute)
	if out := fx.dm(t, "hi"); out != OutcomeIntake {
		t.Fatalf("after expiry outcome = %q", out)
	}
	fx.store.View(func(doc *model.Document) {
		if _, ok := doc.Blacklist[guildID].Temporary[user.ID]; ok {
			t.Error("expired ban should be pruned")
		}
	})
}

func TestDailyTicketLimit(t *testing.T) {
	fx := newFixture(t, func(cfg *model.Config) { cfg.MaxTicketsPerDay = 1 })
	fx.dm(t, "hi")
	fx.registry.Delete(user.ID)
	if out := fx.dm(t, "hi again"); out != OutcomeDailyLimit {
		t.Fatalf("outcome = %q", out)
	}
	if got := fx.lastDM(t).Content; got != ui.Text(ui.LangArabic).Blocked {
		t.Errorf("reply = %q", got)
	}
}

func TestBotMessagesIgnored(t *testing.T) {
	fx := newFixture(t, nil)
	out, err := fx.router.HandleDM(context.Background(), platform.User{ID: "b1", Bot: true}, "hi")
	if out != "" || err != nil || len(fx.gw.DMs) != 0 {
		t.Errorf("bot DM handled: %q %v", out, err)
	}
}

func openTicket(t *testing.T, fx *fixture) model.Ticket {
	t.Helper()
	ctx := context.Background()
	fx.dm(t, "hi")
	fx.flow.SelectLanguage(ctx, user, ui.LangEnglish)
	fx.dm(t, "broken login")
	ticket, ok := fx.store.Ticket(guildID, user.ID)
	if !ok {
		t.Fatal("ticket not opened")
	}
	return ticket
}

func TestThreadRelayAndCloseCommand(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	ticket := openTicket(t, fx)

	msg := ThreadMessage{GuildID: guildID, ThreadID: ticket.ThreadID, Author: staff, Member: staffMember, Content: "Looking into it"}
	if err := fx.router.HandleThreadMessage(ctx, msg); err != nil {
		t.Fatalf("relay: %v", err)
	}
	if got := fx.lastDM(t).Content; got != "Looking into it" {
		t.Errorf("relayed DM = %q", got)
	}

	guest := msg
	guest.Author, guest.Member, guest.Content = platform.User{ID: "x"}, platform.Member{UserID: "x"}, "!close"
	if err := fx.router.HandleThreadMessage(ctx, guest); err != nil {
		t.Fatalf("guest close: %v", err)
	}
	if got, _ := fx.store.Ticket(guildID, user.ID); !got.IsOpen() {
		t.Fatal("guest must not close the ticket")
	}

	msg.Content = " !CLOSE "
	if err := fx.router.HandleThreadMessage(ctx, msg); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, _ := fx.store.Ticket(guildID, user.ID)
	if got.IsOpen() || got.CloseReason != model.CloseManual || got.ClosedByID != staff.ID {
		t.Errorf("ticket = %+v", got)
	}
	for _, m := range got.Messages {
		if strings.Contains(m.Content, "!close") {
			t.Error("close command must not be relayed")
		}
	}
}

func TestThreadMessageOutsideTickets(t *testing.T) {
	fx := newFixture(t, nil)
	err := fx.router.HandleThreadMessage(context.Background(), ThreadMessage{GuildID: guildID, ThreadID: "random", Author: staff, Member: staffMember, Content: "hi"})
	if err != nil {
		t.Errorf("err = %v", err)
	}
	if len(fx.gw.DMs) != 0 {
		t.Error("nothing should be relayed")
	}
}
