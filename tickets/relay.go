package tickets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"support-bot/model"
	"support-bot/platform"
	"support-bot/ui"
	"support-bot/utils"
)

// ForwardUserMessage posts a DM from the ticket owner into the staff thread
// and records it. Nothing is recorded if the thread cannot be reached.
func (s *Service) ForwardUserMessage(ctx context.Context, guildID string, user platform.User, content string) error {
	t, ok := s.store.Ticket(guildID, user.ID)
	if !ok || !t.IsOpen() {
		return ErrNotFound
	}
	if t.ThreadID == "" {
		return fmt.Errorf("%w: ticket %s has no thread", ErrNotFound, t.ID)
	}
	now := s.now()
	_, err := s.gw.Send(ctx, t.ThreadID, platform.Message{
		Content: "<@" + user.ID + ">",
		Embeds:  embeds(ui.UserMessageEmbed(user, content, now)),
	})
	if err != nil {
		return fmt.Errorf("forward to thread %s: %w", t.ThreadID, err)
	}
	s.patch(guildID, user.ID, func(stored *model.Ticket) {
		if stored.ID != t.ID {
			return
		}
		stored.Messages = append(stored.Messages, model.TicketMessage{
			From:         model.FromUser,
			Content:      content,
			Timestamp:    model.Millis(now),
			AuthorTag:    user.Tag,
			AuthorID:     user.ID,
			AuthorAvatar: user.AvatarURL,
		})
		stored.LastActivity = model.Millis(now)
		stored.LastUserActivity = model.Millis(now)
	})
	return nil
}

// StaffMessage is a message written in a ticket thread.
type StaffMessage struct {
	GuildID  string
	ThreadID string
	Author   platform.User
	Member   platform.Member
	Content  string
	// Avatar shown in transcripts; usually the guild icon.
	Avatar string
}

// RelayStaffMessage sends a thread message to the ticket owner. Only support
// members may speak, and once a ticket is claimed only the claimant. If the
// DM fails the ticket is closed and ErrUserUnreachable returned.
func (s *Service) RelayStaffMessage(ctx context.Context, msg StaffMessage) error {
	t, ok := s.store.TicketByThread(msg.GuildID, msg.ThreadID)
	if !ok || !t.IsOpen() {
		return ErrNotFound
	}
	cfg := s.store.GuildConfig(msg.GuildID)
	if !utils.IsSupport(msg.Member, cfg) {
		return ErrNotAuthorized
	}
	if t.ClaimedBy != "" && t.ClaimedBy != msg.Author.ID {
		return ErrNotAuthorized
	}

	if _, err := s.gw.SendDM(ctx, t.UserID, platform.Message{Content: msg.Content}); err != nil {
		return s.unreachable(ctx, msg.GuildID, t.UserID, err)
	}

	label := cfg.SupportLabel
	if label == "" {
		label = ui.DefaultSupportLabel
	}
	avatar := msg.Avatar
	if avatar == "" {
		avatar = msg.Author.AvatarURL
	}
	now := model.Millis(s.now())
	s.patch(msg.GuildID, t.UserID, func(stored *model.Ticket) {
		if stored.ID != t.ID {
			return
		}
		stored.Messages = append(stored.Messages, model.TicketMessage{
			From:         model.FromStaff,
			Content:      msg.Content,
			Timestamp:    now,
			AuthorTag:    label,
			AuthorID:     "support",
			AuthorAvatar: avatar,
		})
		stored.LastActivity = now
		if stored.FirstResponseAt == 0 {
			stored.FirstResponseAt = now
		}
	})
	return nil
}

// Claim assigns an open, unclaimed ticket to a support member. The owner is
// told who took it, with a different notice when the claimant is an admin.
func (s *Service) Claim(ctx context.Context, guildID, threadID string, by platform.User, member platform.Member) error {
	cfg := s.store.GuildConfig(guildID)
	if !utils.IsSupport(member, cfg) {
		return ErrNotAuthorized
	}
	var (
		ticket     model.Ticket
		awaitingID string
	)
	err := s.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		t := doc.FindTicketByThread(guildID, threadID)
		switch {
		case t == nil:
			return ErrNotFound
		case !t.IsOpen():
			return ErrTicketClosed
		case t.ClaimedBy != "":
			return ErrAlreadyClaimed
		}
		t.ClaimedBy = by.ID
		t.ClaimedByTag = by.Tag
		t.ClaimedAt = model.Millis(s.now())
		doc.Stats(guildID, by.ID).Claimed++
		awaitingID = t.AwaitingMessageID
		t.AwaitingMessageID = ""
		ticket = t.Clone()
		return nil
	})
	if err != nil {
		return err
	}
	logger := s.logger.With(zap.String("guild", guildID), zap.String("ticket", ticket.ID), zap.String("claimant", by.ID))
	s.record(ctx, ticket, model.AuditClaimed, by.ID, by.Tag)

	if ticket.ThreadMessageID != "" {
		err := s.gw.Edit(ctx, platform.MessageRef{ChannelID: ticket.ThreadID, MessageID: ticket.ThreadMessageID}, platform.Message{
			Embeds:     embeds(ui.TicketEmbed(ticket, cfg)),
			Components: ui.ThreadComponents(ticket),
		})
		if err != nil {
			logger.Warn("Failed to update ticket summary", zap.Error(err))
		}
	}
	if awaitingID != "" {
		if err := s.gw.DeleteDM(ctx, ticket.UserID, awaitingID); err != nil {
			logger.Debug("Failed to delete awaiting DM", zap.Error(err))
		}
	}

	text := ui.Text(s.locale(ticket, cfg))
	notice := text.ClaimNoticeSupport
	if utils.HasAdminRole(member, cfg) {
		notice = text.ClaimNoticeAdmin
	}
	var unreachable error
	if _, err := s.gw.SendDM(ctx, ticket.UserID, platform.Message{Content: notice}); err != nil {
		unreachable = s.unreachable(ctx, guildID, ticket.UserID, err)
	}
	if _, err := s.gw.Send(ctx, ticket.ThreadID, platform.Message{Content: "Claimed by <@" + by.ID + ">"}); err != nil {
		logger.Warn("Failed to post claim note", zap.Error(err))
	}
	return unreachable
}
