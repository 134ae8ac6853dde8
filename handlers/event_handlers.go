package handlers

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/inbox"
	"support-bot/platform"
	"support-bot/tickets"
)

func (h *handler) onReady(s *discordgo.Session, r *discordgo.Ready) {
	h.logger.Info("Logged in", zap.String("user", r.User.String()), zap.Int("guilds", len(r.Guilds)))
	if err := h.b.UpdatePresence(); err != nil {
		h.logger.Warn("Presence update failed", zap.Error(err))
	}
}

// onGuildCreate fires for every guild once the session is ready and again
// whenever the bot joins one.
func (h *handler) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable {
		return
	}
	if err := h.b.Sweeper.GuildJoined(g.ID); err != nil {
		h.logger.Error("Failed to record guild join", zap.String("guild", g.ID), zap.Error(err))
	}
	h.b.RefreshCommands(g.ID)
	h.b.JoinConfiguredVoice(g.ID)
}

func (h *handler) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Outages also delete guilds from the gateway; only a real removal counts.
	if g.Unavailable {
		return
	}
	if err := h.b.Sweeper.GuildLeft(g.ID); err != nil {
		h.logger.Error("Failed to record guild removal", zap.String("guild", g.ID), zap.Error(err))
		return
	}
	h.logger.Info("Removed from guild", zap.String("guild", g.ID))
}

func (h *handler) onGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil {
		return
	}
	if err := h.b.Tickets.CloseForDeparture(context.Background(), m.GuildID, m.User.ID); err != nil && !tickets.Expected(err) {
		h.logger.Warn("Failed to close ticket of departed member", zap.String("guild", m.GuildID), zap.String("user", m.User.ID), zap.Error(err))
	}
}

func (h *handler) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || v.UserID != s.State.User.ID {
		return
	}
	h.b.RejoinVoice(v.GuildID, v.ChannelID)
}

// onMessageCreate routes DMs to the inbox and ticket thread messages to the
// relay.
func (h *handler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	ctx := context.Background()
	author := platform.UserFrom(m.Author)

	if m.GuildID == "" {
		outcome, err := h.b.Router.HandleDM(ctx, author, m.Content)
		if err != nil && !tickets.Expected(err) {
			h.logger.Error("Failed to handle DM", zap.String("user", author.ID), zap.String("outcome", string(outcome)), zap.Error(err))
		}
		return
	}

	if _, ok := h.b.Store.TicketByThread(m.GuildID, m.ChannelID); !ok {
		return
	}
	member, err := h.b.Gateway.MemberPermissions(ctx, m.GuildID, author.ID)
	if err != nil {
		h.logger.Warn("Cannot resolve thread author", zap.String("user", author.ID), zap.Error(err))
		return
	}
	err = h.b.Router.HandleThreadMessage(ctx, inbox.ThreadMessage{
		GuildID:  m.GuildID,
		ThreadID: m.ChannelID,
		Author:   author,
		Member:   member,
		Content:  m.Content,
		Avatar:   h.guildIcon(m.GuildID),
	})
	if err != nil && !tickets.Expected(err) {
		h.logger.Error("Failed to relay staff message", zap.String("thread", m.ChannelID), zap.Error(err))
	}
}
