// Package inbox decides where inbound messages go: a DM feeds the user's
// pending intake or open ticket, or starts a new intake; a message in a
// ticket thread is relayed back to the ticket owner.
package inbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"support-bot/blacklist"
	"support-bot/model"
	"support-bot/pending"
	"support-bot/platform"
	"support-bot/quota"
	"support-bot/store"
	"support-bot/tickets"
	"support-bot/ui"
	"support-bot/utils"
)

// CloseCommand closes the ticket of the thread it is typed in.
const CloseCommand = "!close"

// Outcome names what a DM ended up doing. Handlers only log it; tests assert on it.
type Outcome string

const (
	OutcomePending       Outcome = "pending"
	OutcomeRateLimited   Outcome = "rate_limited"
	OutcomeSetupRequired Outcome = "setup_required"
	OutcomeBlacklisted   Outcome = "blacklisted"
	OutcomeTempBanned    Outcome = "temp_blacklisted"
	OutcomeForwarded     Outcome = "forwarded"
	OutcomeDailyLimit    Outcome = "daily_limit"
	OutcomeIntake        Outcome = "intake"
)

type Router struct {
	store   *store.Store
	flow    *pending.Flow
	tickets *tickets.Service
	quota   *quota.Tracker
	gw      platform.Gateway
	logger  *zap.Logger

	knownGuilds func() []string
	now         func() time.Time
}

func NewRouter(st *store.Store, flow *pending.Flow, svc *tickets.Service, tracker *quota.Tracker, gw platform.Gateway, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:       st,
		flow:        flow,
		tickets:     svc,
		quota:       tracker,
		gw:          gw,
		logger:      logger,
		knownGuilds: func() []string { return nil },
		now:         time.Now,
	}
}

// SetKnownGuilds sets the source of guild ids used when no primary guild is
// stored or configured.
func (r *Router) SetKnownGuilds(fn func() []string) {
	r.knownGuilds = fn
}

func (r *Router) SetClock(now func() time.Time) {
	r.now = now
}

func (r *Router) reply(ctx context.Context, userID, content string) {
	if _, err := r.gw.SendDM(ctx, userID, platform.Message{Content: content}); err != nil {
		r.logger.Debug("DM reply failed", zap.String("user", userID), zap.Error(err))
	}
}

// HandleDM routes one direct message. Every message counts toward the rate
// limit, but a user in the middle of an intake or rating is never throttled.
func (r *Router) HandleDM(ctx context.Context, user platform.User, content string) (Outcome, error) {
	if user.Bot {
		return "", nil
	}
	settings := r.store.Settings()
	rate := r.quota.Messages.Record(user.ID)

	handled, err := r.flow.HandleMessage(ctx, user, content)
	if handled {
		return OutcomePending, err
	}

	if limit := settings.MaxMessagesPerMinute; limit > 0 && rate > limit {
		r.reply(ctx, user.ID, ui.Text(ui.LangArabic).RateLimited)
		return OutcomeRateLimited, nil
	}

	guildID := r.store.PrimaryGuildID(r.knownGuilds())
	if guildID == "" {
		r.reply(ctx, user.ID, ui.Text(ui.LangArabic).SetupRequired)
		return OutcomeSetupRequired, nil
	}

	var (
		banned    bool
		remaining time.Duration
		ticket    *model.Ticket
	)
	now := r.now()
	err = r.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		blacklist.Prune(doc, guildID, now)
		if blacklist.IsPermanentlyBlocked(doc, guildID, user.ID) {
			banned = true
			return nil
		}
		if blocked, left := blacklist.IsTemporarilyBlocked(doc, guildID, user.ID, now); blocked {
			remaining = left
			return nil
		}
		if t := doc.Tickets[guildID][user.ID]; t.IsOpen() {
			c := t.Clone()
			ticket = &c
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to prepare guild for DM", zap.String("guild", guildID), zap.Error(err))
	}

	cfg := r.store.GuildConfig(guildID)
	text := ui.Text(ui.Locale(cfg.Language))
	switch {
	case banned:
		r.reply(ctx, user.ID, text.Blacklisted)
		return OutcomeBlacklisted, nil
	case remaining > 0:
		r.reply(ctx, user.ID, ui.Fill(text.TempBlacklisted, "duration", utils.FormatDuration(remaining)))
		return OutcomeTempBanned, nil
	case ticket != nil:
		return OutcomeForwarded, r.tickets.ForwardUserMessage(ctx, guildID, user, content)
	}

	if limit := settings.MaxTicketsPerDay; limit > 0 && r.quota.TicketOpens.Record(user.ID) > limit {
		r.reply(ctx, user.ID, ui.Text(ui.LangArabic).Blocked)
		return OutcomeDailyLimit, nil
	}
	return OutcomeIntake, r.flow.Start(ctx, user, guildID)
}

// ThreadMessage is a message posted in a guild thread.
type ThreadMessage struct {
	GuildID  string
	ThreadID string
	Author   platform.User
	Member   platform.Member
	Content  string
	Avatar   string
}

// HandleThreadMessage relays a support member's message to the ticket owner,
// or closes the ticket when the message is the close command. Messages in
// threads that are not tickets, and from non-support members, are ignored.
func (r *Router) HandleThreadMessage(ctx context.Context, msg ThreadMessage) error {
	if msg.Author.Bot {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(msg.Content), CloseCommand) {
		cfg := r.store.GuildConfig(msg.GuildID)
		if !utils.IsSupport(msg.Member, cfg) {
			return nil
		}
		err := r.tickets.CloseByThread(ctx, msg.GuildID, msg.ThreadID, model.CloseManual, msg.Author)
		return ignoreRouting(err)
	}
	err := r.tickets.RelayStaffMessage(ctx, tickets.StaffMessage{
		GuildID:  msg.GuildID,
		ThreadID: msg.ThreadID,
		Author:   msg.Author,
		Member:   msg.Member,
		Content:  msg.Content,
		Avatar:   msg.Avatar,
	})
	return ignoreRouting(err)
}

// ignoreRouting drops the errors that only mean the message was not for us.
func ignoreRouting(err error) error {
	if errors.Is(err, tickets.ErrNotFound) || errors.Is(err, tickets.ErrNotAuthorized) || errors.Is(err, tickets.ErrTicketClosed) {
		return nil
	}
	return err
}
