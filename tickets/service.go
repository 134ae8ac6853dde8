// Package tickets runs the ticket lifecycle: creating a ticket from a
// finished intake, relaying messages both ways, claiming, closing, idle
// expiry, ratings and the logs that go with them.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/model"
	"support-bot/pending"
	"support-bot/platform"
	"support-bot/store"
	"support-bot/ui"
	"support-bot/utils"
)

const (
	mentionPingLifetime = 3 * time.Second
	threadDeleteDelay   = 10 * time.Second
	etaPerTicket        = 5
)

// Auditor receives a record of every lifecycle event.
type Auditor interface {
	Record(ctx context.Context, ev model.AuditEvent) error
}

type Service struct {
	store   *store.Store
	gw      platform.Gateway
	pending *pending.Registry
	audit   Auditor
	logger  *zap.Logger

	now   func() time.Time
	after func(d time.Duration, fn func())
}

// NewService wires the lifecycle. audit may be nil.
func NewService(st *store.Store, gw platform.Gateway, registry *pending.Registry, audit Auditor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   st,
		gw:      gw,
		pending: registry,
		audit:   audit,
		logger:  logger,
		now:     time.Now,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetAfter replaces the timer used for delayed deletions.
func (s *Service) SetAfter(after func(d time.Duration, fn func())) {
	s.after = after
}

func (s *Service) Store() *store.Store {
	return s.store
}

func (s *Service) record(ctx context.Context, t model.Ticket, kind, actorID, detail string) {
	if s.audit == nil {
		return
	}
	ev := model.AuditEvent{
		GuildID:   t.GuildID,
		TicketID:  t.ID,
		UserID:    t.UserID,
		ActorID:   actorID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: s.now(),
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.logger.Warn("Failed to record audit event", zap.String("kind", kind), zap.String("ticket", t.ID), zap.Error(err))
	}
}

func (s *Service) locale(t model.Ticket, cfg model.GuildConfig) string {
	if t.Language != "" {
		return ui.Locale(t.Language)
	}
	return ui.Locale(cfg.Language)
}

func (s *Service) dmText(ctx context.Context, userID, content string) error {
	_, err := s.gw.SendDM(ctx, userID, platform.Message{Content: content})
	if err != nil {
		s.logger.Warn("DM failed", zap.String("user", userID), zap.Error(err))
	}
	return err
}

func embeds(e ...*discordgo.MessageEmbed) []*discordgo.MessageEmbed {
	return e
}

// CreateFromIntake turns a finished intake into an open ticket with a staff
// thread. The user is told when they already have a ticket or when support is
// not set up. If the user cannot be reached by DM the new ticket is closed
// right away and ErrUserUnreachable is returned.
func (s *Service) CreateFromIntake(ctx context.Context, user platform.User, intake pending.Intake) error {
	guildID := intake.GuildID
	cfg := s.store.GuildConfig(guildID)
	locale := ui.Locale(intake.Language)
	if intake.Language == "" {
		locale = ui.Locale(cfg.Language)
	}
	text := ui.Text(locale)
	category := intake.Category
	if category == "" {
		category = pending.CategoryGeneral
	}

	var ticket model.Ticket
	err := s.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		if doc.Tickets[guildID][user.ID].IsOpen() {
			return ErrAlreadyOpen
		}
		if cfg.SupportChannelID == "" {
			return ErrSetupRequired
		}
		now := s.now()
		id := model.NewTicketID(now)
		for at := now; ; {
			if t, _ := doc.FindTicketByID("", id); t == nil {
				break
			}
			at = at.Add(time.Millisecond)
			id = model.NewTicketID(at)
		}
		t := &model.Ticket{
			ID:               id,
			Number:           doc.AllocateTicketNumber(),
			GuildID:          guildID,
			UserID:           user.ID,
			UserTag:          user.Tag,
			Status:           model.StatusOpen,
			Language:         locale,
			Category:         category,
			Reason:           intake.Reason,
			OpenedAt:         model.Millis(now),
			Messages:         []model.TicketMessage{},
			LastActivity:     model.Millis(now),
			LastUserActivity: model.Millis(now),
		}
		doc.Tickets[guildID][user.ID] = t
		ticket = t.Clone()
		return nil
	})
	switch {
	case errors.Is(err, ErrAlreadyOpen):
		s.dmText(ctx, user.ID, text.AlreadyOpen)
		return err
	case errors.Is(err, ErrSetupRequired):
		s.dmText(ctx, user.ID, text.SetupRequired)
		return err
	case err != nil:
		return fmt.Errorf("persist ticket: %w", err)
	}
	logger := s.logger.With(zap.String("guild", guildID), zap.String("ticket", ticket.ID), zap.String("user", user.ID))

	threadID, err := s.gw.CreateThread(ctx, cfg.SupportChannelID, fmt.Sprintf("ticket-%d", ticket.Number))
	if err != nil {
		logger.Error("Failed to create ticket thread", zap.Error(err))
		s.abandon(guildID, user.ID)
		s.dmText(ctx, user.ID, text.SetupRequired)
		return fmt.Errorf("create thread: %w", err)
	}
	ticket.ThreadID = threadID
	s.patch(guildID, user.ID, func(t *model.Ticket) { t.ThreadID = threadID })

	if cfg.MentionRoleID != "" {
		ping, err := s.gw.Send(ctx, threadID, platform.Message{Content: "<@&" + cfg.MentionRoleID + ">"})
		if err == nil {
			s.after(mentionPingLifetime, func() {
				if err := s.gw.Delete(context.Background(), ping); err != nil {
					logger.Debug("Mention ping already gone", zap.Error(err))
				}
			})
		}
	}

	starter, err := s.gw.Send(ctx, threadID, platform.Message{
		Content:    "<@" + user.ID + ">",
		Embeds:     embeds(ui.TicketEmbed(ticket, cfg)),
		Components: ui.ThreadComponents(ticket),
	})
	if err != nil {
		logger.Warn("Failed to post ticket summary", zap.Error(err))
	} else {
		s.patch(guildID, user.ID, func(t *model.Ticket) { t.ThreadMessageID = starter.MessageID })
	}
	s.record(ctx, ticket, model.AuditOpened, user.ID, ticket.Reason)

	var open int
	s.store.View(func(doc *model.Document) { open = doc.OpenTicketCount(guildID) })
	if cfg.WaitingThreshold > 0 && open >= cfg.WaitingThreshold {
		s.dmText(ctx, user.ID, text.Waiting)
	}
	eta := max(etaPerTicket, open*etaPerTicket)
	online, onlineErr := s.gw.OnlineSupportCount(ctx, guildID, supportRoles(cfg))

	closeRef, err := s.gw.SendDM(ctx, user.ID, platform.Message{Content: text.TicketOpened, Components: ui.DMCloseComponents()})
	if err != nil {
		return s.unreachable(ctx, guildID, user.ID, err)
	}
	s.patch(guildID, user.ID, func(t *model.Ticket) { t.DMCloseMessageID = closeRef.MessageID })

	awaiting, err := s.gw.SendDM(ctx, user.ID, platform.Message{Embeds: embeds(ui.AwaitingEmbed(locale, eta, cfg))})
	if err != nil {
		return s.unreachable(ctx, guildID, user.ID, err)
	}
	s.patch(guildID, user.ID, func(t *model.Ticket) { t.AwaitingMessageID = awaiting.MessageID })

	if onlineErr != nil {
		logger.Debug("Could not count online support", zap.Error(onlineErr))
		return nil
	}
	switch {
	case online == 0:
		s.dmText(ctx, user.ID, text.NoSupportAvailable+"\n"+ui.Fill(text.NoSupportAvailableEta, "eta", utils.FormatEta(eta)))
	case online == 1:
		s.dmText(ctx, user.ID, text.SupportAvailableOne)
	default:
		s.dmText(ctx, user.ID, text.SupportAvailableMany)
	}
	return nil
}

func supportRoles(cfg model.GuildConfig) []string {
	if cfg.SupportRoleIDs == nil {
		return nil
	}
	roles := cfg.SupportRoleIDs.ToSlice()
	sort.Strings(roles)
	return roles
}

// unreachable closes the ticket of a user a DM could not reach.
func (s *Service) unreachable(ctx context.Context, guildID, userID string, cause error) error {
	s.logger.Info("Closing ticket, user unreachable", zap.String("guild", guildID), zap.String("user", userID), zap.Error(cause))
	if err := s.Close(ctx, CloseRequest{GuildID: guildID, UserID: userID, Reason: model.CloseDMFailed}); err != nil && !errors.Is(err, ErrTicketClosed) {
		s.logger.Error("Failed to close unreachable ticket", zap.String("user", userID), zap.Error(err))
	}
	return fmt.Errorf("%w: %v", ErrUserUnreachable, cause)
}

// abandon closes a ticket that never got a thread, without any of the
// closing side effects.
func (s *Service) abandon(guildID, userID string) {
	now := s.now()
	s.patch(guildID, userID, func(t *model.Ticket) {
		t.MarkClosed(model.CloseSetupFailed, now)
	})
}

// patch applies fn to the stored ticket, if it still exists.
func (s *Service) patch(guildID, userID string, fn func(t *model.Ticket)) {
	err := s.store.Update(func(doc *model.Document) error {
		if t := doc.Tickets[guildID][userID]; t != nil {
			fn(t)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save ticket", zap.String("guild", guildID), zap.String("user", userID), zap.Error(err))
	}
}

// patchByID is patch for callers that only know the ticket id.
func (s *Service) patchByID(guildID, ticketID string, fn func(t *model.Ticket)) {
	err := s.store.Update(func(doc *model.Document) error {
		if t, _ := doc.FindTicketByID(guildID, ticketID); t != nil {
			fn(t)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to save ticket", zap.String("guild", guildID), zap.String("ticket", ticketID), zap.Error(err))
	}
}
