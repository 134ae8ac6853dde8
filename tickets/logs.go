package tickets

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/model"
	"support-bot/platform"
	"support-bot/ui"
	"support-bot/utils"
)

// Rate stores a 1 to 5 rating on a ticket. Ratings of 3 and up are logged
// right away; lower ones are logged together with the feedback that follows.
func (s *Service) Rate(ctx context.Context, guildID, ticketID string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating %d", ErrInvalidInput, rating)
	}
	ticket, gid, err := s.updateByID(guildID, ticketID, func(t *model.Ticket) {
		t.Rating = rating
	})
	if err != nil {
		return err
	}
	s.record(ctx, ticket, model.AuditRated, ticket.UserID, fmt.Sprint(rating))
	if rating >= 3 {
		s.refreshRatingLogs(ctx, gid, ticket, false)
	}
	return nil
}

// SubmitFeedback stores written feedback on a ticket and logs it. An empty
// guildID searches every guild for the ticket.
func (s *Service) SubmitFeedback(ctx context.Context, guildID, ticketID, feedback string) error {
	if feedback == "" {
		return fmt.Errorf("%w: empty feedback", ErrInvalidInput)
	}
	ticket, gid, err := s.updateByID(guildID, ticketID, func(t *model.Ticket) {
		t.Feedback = feedback
	})
	if err != nil {
		return err
	}
	s.record(ctx, ticket, model.AuditFeedback, ticket.UserID, feedback)
	s.refreshRatingLogs(ctx, gid, ticket, true)
	return nil
}

func (s *Service) updateByID(guildID, ticketID string, fn func(t *model.Ticket)) (model.Ticket, string, error) {
	var (
		out model.Ticket
		gid string
	)
	err := s.store.Update(func(doc *model.Document) error {
		t, g := doc.FindTicketByID(guildID, ticketID)
		if t == nil {
			return ErrNotFound
		}
		fn(t)
		out, gid = t.Clone(), g
		return nil
	})
	return out, gid, err
}

// refreshRatingLogs brings the log messages of a ticket up to date with its
// rating and feedback. An existing transcript message is edited in place,
// in the logs channel when there is one and in the thread otherwise. When no
// transcript was updated a separate rating or feedback message is posted.
func (s *Service) refreshRatingLogs(ctx context.Context, guildID string, t model.Ticket, feedback bool) {
	cfg := s.store.GuildConfig(guildID)
	locale := s.locale(t, cfg)
	logger := s.logger.With(zap.String("guild", guildID), zap.String("ticket", t.ID))

	updated := false
	if t.LogTranscriptMessageID != "" {
		channelID := cfg.LogsChannelID
		if channelID == "" {
			channelID = t.ThreadID
		}
		if channelID != "" {
			ref := platform.MessageRef{ChannelID: channelID, MessageID: t.LogTranscriptMessageID}
			err := s.gw.Edit(ctx, ref, platform.Message{Embeds: embeds(ui.TranscriptEmbed(t, locale, cfg))})
			if err != nil {
				logger.Debug("Transcript message not editable", zap.Error(err))
			}
			updated = err == nil
		}
		if cfg.LogsChannelID != "" {
			s.refreshTicketLog(ctx, cfg.LogsChannelID, t, locale)
		}
	}
	if updated || cfg.LogsChannelID == "" {
		return
	}

	embed := ui.RatingLogEmbed(t, locale)
	if feedback {
		embed = ui.FeedbackEmbed(t)
	}
	ref, err := s.gw.Send(ctx, cfg.LogsChannelID, platform.Message{Embeds: embeds(embed)})
	if err != nil {
		logger.Warn("Failed to post rating log", zap.Error(err))
	} else {
		s.patchByID(guildID, t.ID, func(stored *model.Ticket) { stored.LogRatingMessageID = ref.MessageID })
	}
	s.refreshTicketLog(ctx, cfg.LogsChannelID, t, locale)
}

func (s *Service) refreshTicketLog(ctx context.Context, logsChannelID string, t model.Ticket, locale string) {
	if t.LogTicketMessageID == "" {
		return
	}
	ref := platform.MessageRef{ChannelID: logsChannelID, MessageID: t.LogTicketMessageID}
	if err := s.gw.Edit(ctx, ref, platform.Message{Embeds: embeds(ui.TicketLogEmbed(t, locale))}); err != nil {
		s.logger.Debug("Ticket log message not editable", zap.String("ticket", t.ID), zap.Error(err))
	}
}

// postTranscript edits the transcript message at existingID when it still
// exists, otherwise sends a fresh one with the HTML attached.
func (s *Service) postTranscript(ctx context.Context, channelID, existingID string, t model.Ticket, cfg model.GuildConfig) (ref platform.MessageRef, updated bool, err error) {
	embed := ui.TranscriptEmbed(t, s.locale(t, cfg), cfg)
	if existingID != "" {
		ref = platform.MessageRef{ChannelID: channelID, MessageID: existingID}
		if err := s.gw.Edit(ctx, ref, platform.Message{Embeds: embeds(embed)}); err == nil {
			return ref, true, nil
		}
	}
	page, err := ui.TranscriptHTML(t, cfg)
	if err != nil {
		return platform.MessageRef{}, false, err
	}
	ref, err = s.gw.Send(ctx, channelID, platform.Message{
		Embeds: embeds(embed),
		Files: []*discordgo.File{{
			Name:        ui.TranscriptFileName(t),
			ContentType: "text/html",
			Reader:      bytes.NewReader(page),
		}},
	})
	return ref, false, err
}

// SaveTranscript saves the conversation of the ticket behind threadID. With a
// logs channel the transcript goes there, replacing the embed of an earlier
// save in place; without one it is posted into the thread.
func (s *Service) SaveTranscript(ctx context.Context, guildID, threadID string, by platform.User, member platform.Member) error {
	cfg := s.store.GuildConfig(guildID)
	if !utils.IsSupport(member, cfg) {
		return ErrNotAuthorized
	}
	var ticket model.Ticket
	err := s.store.Update(func(doc *model.Document) error {
		t := doc.FindTicketByThread(guildID, threadID)
		if t == nil {
			return ErrNotFound
		}
		t.LogTranscriptSavedByTag = by.Tag
		t.LogTranscriptSavedByID = by.ID
		ticket = t.Clone()
		return nil
	})
	if err != nil {
		return err
	}
	logger := s.logger.With(zap.String("guild", guildID), zap.String("ticket", ticket.ID))
	s.record(ctx, ticket, model.AuditTranscript, by.ID, "")

	if cfg.LogsChannelID != "" {
		ref, updated, err := s.postTranscript(ctx, cfg.LogsChannelID, ticket.LogTranscriptMessageID, ticket, cfg)
		if err == nil {
			if !updated {
				s.patchByID(guildID, ticket.ID, func(t *model.Ticket) { t.LogTranscriptMessageID = ref.MessageID })
			}
			s.ensureTicketLog(ctx, guildID, cfg.LogsChannelID, ticket, cfg)
			return nil
		}
		logger.Warn("Failed to save transcript to logs channel, using thread", zap.Error(err))
	}

	ref, _, err := s.postTranscript(ctx, ticket.ThreadID, "", ticket, cfg)
	if err != nil {
		return fmt.Errorf("post transcript: %w", err)
	}
	s.patchByID(guildID, ticket.ID, func(t *model.Ticket) { t.LogTranscriptMessageID = ref.MessageID })
	return nil
}

// ensureTicketLog keeps one ticket record message in the logs channel.
func (s *Service) ensureTicketLog(ctx context.Context, guildID, logsChannelID string, t model.Ticket, cfg model.GuildConfig) {
	locale := s.locale(t, cfg)
	if t.LogTicketMessageID != "" {
		ref := platform.MessageRef{ChannelID: logsChannelID, MessageID: t.LogTicketMessageID}
		if err := s.gw.Edit(ctx, ref, platform.Message{Embeds: embeds(ui.TicketLogEmbed(t, locale))}); err == nil {
			return
		}
	}
	ref, err := s.gw.Send(ctx, logsChannelID, platform.Message{Embeds: embeds(ui.TicketLogEmbed(t, locale))})
	if err != nil {
		s.logger.Warn("Failed to post ticket log", zap.String("ticket", t.ID), zap.Error(err))
		return
	}
	s.patchByID(guildID, t.ID, func(stored *model.Ticket) { stored.LogTicketMessageID = ref.MessageID })
}
