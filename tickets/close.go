package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"support-bot/model"
	"support-bot/pending"
	"support-bot/platform"
	"support-bot/ui"
)

// CloseRequest names the ticket to close by guild and owner. ClosedBy is the
// zero User for closes the system makes on its own. A positive IdleLimit
// closes only if the owner is still silent for longer than it.
type CloseRequest struct {
	GuildID   string
	UserID    string
	Reason    string
	ClosedBy  platform.User
	IdleLimit time.Duration
}

// Close moves an open ticket to closed and runs every closing side effect:
// the staff thread is updated, locked and archived, the user's live DMs are
// cleaned up and the closed summary with rating buttons is sent. Closing a
// closed ticket changes nothing and returns ErrTicketClosed.
func (s *Service) Close(ctx context.Context, req CloseRequest) error {
	if req.Reason == "" {
		return fmt.Errorf("%w: close reason is required", ErrInvalidInput)
	}
	var ticket model.Ticket
	err := s.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(req.GuildID)
		t := doc.Tickets[req.GuildID][req.UserID]
		if t == nil {
			return ErrNotFound
		}
		if !t.IsOpen() {
			return ErrTicketClosed
		}
		if req.IdleLimit > 0 && !t.IdleSince(s.now(), req.IdleLimit) {
			return ErrStillActive
		}
		if req.ClosedBy.ID != "" {
			t.ClosedByTag = req.ClosedBy.Tag
			t.ClosedByID = req.ClosedBy.ID
		}
		t.MarkClosed(req.Reason, s.now())
		if t.ClosedByID != "" && req.Reason != model.CloseUser {
			doc.Stats(req.GuildID, t.ClosedByID).Closed++
		}
		ticket = t.Clone()
		return nil
	})
	if err != nil {
		return err
	}

	cfg := s.store.GuildConfig(req.GuildID)
	locale := s.locale(ticket, cfg)
	logger := s.logger.With(zap.String("guild", req.GuildID), zap.String("ticket", ticket.ID), zap.String("reason", req.Reason))
	logger.Info("Ticket closed")
	s.record(ctx, ticket, model.AuditClosed, ticket.ClosedByID, req.Reason)

	if ticket.ThreadID != "" {
		if ticket.ThreadMessageID != "" {
			err := s.gw.Edit(ctx, platform.MessageRef{ChannelID: ticket.ThreadID, MessageID: ticket.ThreadMessageID}, platform.Message{
				Embeds:     embeds(ui.TicketEmbed(ticket, cfg)),
				Components: ui.ThreadComponents(ticket),
			})
			if err != nil {
				logger.Warn("Failed to update ticket summary", zap.Error(err))
			}
		}
		_, err := s.gw.Send(ctx, ticket.ThreadID, platform.Message{
			Embeds:     embeds(ui.ClosedControlsEmbed(locale, ticket, cfg)),
			Components: ui.ClosedControlsComponents(),
		})
		if err != nil {
			logger.Warn("Failed to post closed controls", zap.Error(err))
		}
		if err := s.gw.CloseThread(ctx, ticket.ThreadID); err != nil {
			logger.Warn("Failed to lock and archive thread", zap.Error(err))
		}
	}

	for _, id := range []string{ticket.AwaitingMessageID, ticket.DMCloseMessageID} {
		if id == "" {
			continue
		}
		if err := s.gw.DeleteDM(ctx, ticket.UserID, id); err != nil {
			logger.Debug("Failed to delete DM", zap.String("message", id), zap.Error(err))
		}
	}
	s.patch(req.GuildID, req.UserID, func(t *model.Ticket) {
		if t.ID == ticket.ID {
			t.AwaitingMessageID = ""
			t.DMCloseMessageID = ""
		}
	})

	if req.Reason == model.CloseIdleTimeout {
		s.dmText(ctx, ticket.UserID, ui.Text(locale).IdleClosed)
	}
	_, err = s.gw.SendDM(ctx, ticket.UserID, platform.Message{
		Embeds:     embeds(ui.ClosedEmbed(locale, ticket, cfg)),
		Components: ui.RatingComponents(),
	})
	if err != nil {
		logger.Info("Closed summary not delivered", zap.Error(err))
		return nil
	}
	s.pending.Set(ticket.UserID, pending.RatingStep{
		GuildID:  req.GuildID,
		TicketID: ticket.ID,
		Language: locale,
	})
	return nil
}

// CloseByThread closes the ticket behind a staff thread.
func (s *Service) CloseByThread(ctx context.Context, guildID, threadID, reason string, by platform.User) error {
	t, ok := s.store.TicketByThread(guildID, threadID)
	if !ok {
		return ErrNotFound
	}
	return s.Close(ctx, CloseRequest{GuildID: guildID, UserID: t.UserID, Reason: reason, ClosedBy: by})
}

type idleCandidate struct {
	guildID, userID string
	limit           time.Duration
}

// CloseIdle closes every open ticket whose owner has been silent longer than
// the guild's idle limit. Guilds with a limit of zero or less are skipped,
// as are tickets with no recorded user activity. It returns how many closed.
func (s *Service) CloseIdle(ctx context.Context) int {
	now := s.now()
	var candidates []idleCandidate
	s.store.View(func(doc *model.Document) {
		for guildID, tickets := range doc.Tickets {
			cfg := s.store.ResolveConfig(doc, guildID)
			if cfg.IdleCloseMinutes <= 0 {
				continue
			}
			limit := time.Duration(cfg.IdleCloseMinutes) * time.Minute
			for userID, t := range tickets {
				if t.IsOpen() && t.IdleSince(now, limit) {
					candidates = append(candidates, idleCandidate{guildID, userID, limit})
				}
			}
		}
	})

	closed := 0
	for _, c := range candidates {
		// The snapshot may be stale by now; Close checks the silence again.
		err := s.Close(ctx, CloseRequest{
			GuildID:   c.guildID,
			UserID:    c.userID,
			Reason:    model.CloseIdleTimeout,
			IdleLimit: c.limit,
		})
		switch {
		case err == nil:
			closed++
		case errors.Is(err, ErrTicketClosed), errors.Is(err, ErrNotFound), errors.Is(err, ErrStillActive):
		default:
			s.logger.Error("Failed to close idle ticket", zap.String("guild", c.guildID), zap.String("user", c.userID), zap.Error(err))
		}
	}
	return closed
}

// CloseForDeparture closes the open ticket of a member who left the guild.
func (s *Service) CloseForDeparture(ctx context.Context, guildID, userID string) error {
	t, ok := s.store.Ticket(guildID, userID)
	if !ok || !t.IsOpen() {
		return nil
	}
	return s.Close(ctx, CloseRequest{GuildID: guildID, UserID: userID, Reason: model.CloseUserLeft})
}
