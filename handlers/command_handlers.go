package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/blacklist"
	"support-bot/handlers/admin"
	"support-bot/model"
	"support-bot/tickets"
	"support-bot/ui"
	"support-bot/utils"
)

// configError turns a failed config write into a reply.
func (h *handler) configError(i *discordgo.InteractionCreate, err error) {
	if errors.Is(err, tickets.ErrInvalidInput) || errors.Is(err, admin.ErrEmptyPatch) {
		h.reply.SendEphemeral(i, err.Error())
		return
	}
	h.logger.Error("Config update failed", zap.String("guild", i.GuildID), zap.Error(err))
	h.reply.SendEphemeral(i, "Failed to save configuration: "+err.Error())
}

func (h *handler) handleSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_, opts := options(i)
	p := ConfigPatchFromOptions(opts)
	if p.MentionRoleID == nil {
		p.MentionRoleID = model.StringPtr("")
	}
	if err := h.admin.Setup(i.GuildID, p); err != nil {
		h.configError(i, err)
		return
	}
	h.reply.SendEphemeral(i, "Setup complete. This server is now the active ticket server.")
	if err := h.b.UpdatePresence(); err != nil {
		h.logger.Warn("Presence update failed", zap.Error(err))
	}
	h.b.JoinConfiguredVoice(i.GuildID)
}

func (h *handler) handleSetAdminRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_, opts := options(i)
	role := idOption(opts, "role")
	if role == nil {
		h.reply.SendEphemeral(i, "A role is required.")
		return
	}
	if err := h.admin.SetAdminRole(i.GuildID, *role); err != nil {
		h.configError(i, err)
		return
	}
	h.reply.SendEphemeral(i, fmt.Sprintf("Admin role set to <@&%s>.", *role))
}

func (h *handler) handleConfig(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := options(i)
	switch sub {
	case "set":
		if err := h.admin.UpdateConfig(i.GuildID, ConfigPatchFromOptions(opts)); err != nil {
			if errors.Is(err, admin.ErrEmptyPatch) {
				h.reply.SendEphemeral(i, "Provide at least one option to update.")
				return
			}
			h.configError(i, err)
			return
		}
		h.reply.SendEphemeral(i, "Configuration updated.")
		if err := h.b.UpdatePresence(); err != nil {
			h.logger.Warn("Presence update failed", zap.Error(err))
		}
	case "show":
		h.reply.SendEphemeral(i, ui.ConfigSummary(h.guildConfig(i)))
	}
}

func reasonOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	if r := stringOption(opts, "reason"); r != nil {
		return *r
	}
	return ""
}

func (h *handler) handleBlacklist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	actor := interactionUser(i)
	sub, opts := options(i)
	switch sub {
	case "add":
		userID := idOption(opts, "user")
		if userID == nil {
			h.reply.SendEphemeral(i, "A user is required.")
			return
		}
		if err := h.admin.Blacklist(ctx, i.GuildID, *userID, reasonOption(opts), actor.ID); err != nil {
			h.logger.Error("Blacklist failed", zap.String("user", *userID), zap.Error(err))
			h.reply.SendEphemeral(i, "Failed to update blacklist.")
			return
		}
		h.reply.SendEphemeral(i, fmt.Sprintf("Blacklisted <@%s>.", *userID))
	case "remove":
		userID := idOption(opts, "user")
		if userID == nil {
			h.reply.SendEphemeral(i, "A user is required.")
			return
		}
		err := h.admin.Unblacklist(ctx, i.GuildID, *userID, actor.ID)
		switch {
		case errors.Is(err, blacklist.ErrNotListed):
			h.reply.SendEphemeral(i, fmt.Sprintf("<@%s> is not blacklisted.", *userID))
		case err != nil:
			h.logger.Error("Unblacklist failed", zap.String("user", *userID), zap.Error(err))
			h.reply.SendEphemeral(i, "Failed to update blacklist.")
		default:
			h.reply.SendEphemeral(i, fmt.Sprintf("Removed <@%s> from blacklist.", *userID))
		}
	case "list":
		permanent, _ := h.admin.Bans(i.GuildID)
		h.reply.SendEphemeral(i, admin.BlacklistText(permanent))
	}
}

func (h *handler) handleTempBlacklist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	actor := interactionUser(i)
	sub, opts := options(i)
	switch sub {
	case "add":
		userID := idOption(opts, "user")
		minutes := intOption(opts, "duration_minutes")
		if userID == nil || minutes == nil {
			h.reply.SendEphemeral(i, "A user and a duration are required.")
			return
		}
		if _, err := h.admin.TempBlacklist(ctx, i.GuildID, *userID, reasonOption(opts), actor.ID, *minutes); err != nil {
			h.logger.Error("Temp blacklist failed", zap.String("user", *userID), zap.Error(err))
			h.reply.SendEphemeral(i, "Failed to update blacklist.")
			return
		}
		h.reply.SendEphemeral(i, fmt.Sprintf("Temporarily blacklisted <@%s> for %d minutes.", *userID, max(*minutes, 1)))
	case "remove":
		userID := idOption(opts, "user")
		if userID == nil {
			h.reply.SendEphemeral(i, "A user is required.")
			return
		}
		err := h.admin.RemoveTempBlacklist(ctx, i.GuildID, *userID, actor.ID)
		switch {
		case errors.Is(err, blacklist.ErrNotListed):
			h.reply.SendEphemeral(i, fmt.Sprintf("<@%s> is not temporarily blacklisted.", *userID))
		case err != nil:
			h.logger.Error("Temp unblacklist failed", zap.String("user", *userID), zap.Error(err))
			h.reply.SendEphemeral(i, "Failed to update blacklist.")
		default:
			h.reply.SendEphemeral(i, fmt.Sprintf("Removed <@%s> from temporary blacklist.", *userID))
		}
	case "list":
		_, temporary := h.admin.Bans(i.GuildID)
		h.reply.SendEphemeral(i, admin.TempBlacklistText(temporary, time.Now()))
	}
}

func (h *handler) handleTopRank(s *discordgo.Session, i *discordgo.InteractionCreate) {
	entries := h.b.Tickets.SupportLeaderboard(i.GuildID, admin.TopRankSize)
	h.reply.SendEphemeral(i, admin.TopRankText(entries))
}

func (h *handler) handlePurgeUser(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	_, opts := options(i)
	userID := idOption(opts, "user")
	if userID == nil {
		h.reply.SendEphemeral(i, "A user is required.")
		return
	}
	purged, err := h.b.Tickets.PurgeUser(ctx, i.GuildID, *userID)
	if err != nil {
		h.logger.Error("Ticket purge failed", zap.String("user", *userID), zap.Error(err))
		h.reply.SendEphemeral(i, "Failed to delete user data.")
		return
	}
	events, err := h.b.Audit.PurgeUser(ctx, i.GuildID, *userID)
	if err != nil {
		h.logger.Error("Audit purge failed", zap.String("user", *userID), zap.Error(err))
		h.reply.SendEphemeral(i, "Failed to delete user data.")
		return
	}
	h.logger.Info("User data purged",
		zap.String("guild", i.GuildID),
		zap.String("user", *userID),
		zap.Bool("ticket", purged),
		zap.Int64("audit_events", events),
		zap.String("by", interactionUser(i).ID))
	h.reply.SendEphemeral(i, "User data deleted.")
}

func (h *handler) handleCloseAll(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.reply.DeferResponse(i, true)
	result, err := h.b.Tickets.CloseAll(context.Background(), i.GuildID, interactionUser(i))
	switch {
	case errors.Is(err, tickets.ErrSetupRequired):
		h.reply.SendFollowUp(i, "Logs channel is not set.")
	case err != nil:
		h.logger.Error("Bulk close failed", zap.String("guild", i.GuildID), zap.Error(err))
		h.reply.SendFollowUp(i, "Failed to close tickets.")
	case result.Open == 0:
		h.reply.SendFollowUp(i, "No open tickets found.")
	default:
		summary := fmt.Sprintf("Closed %d tickets. Logged %d. Deleted %d threads.", result.Closed, result.Logged, result.Deleted)
		h.reply.SendFollowUp(i, summary)
		h.logCloseAll(i, result, summary)
	}
}

// bulkCloseIncomplete reports whether some ticket was left open, unlogged or
// with its thread still in place.
func bulkCloseIncomplete(r tickets.BulkResult) bool {
	return r.Closed < r.Open || r.Logged < r.Closed || r.Deleted < r.Closed
}

// logCloseAll reports a bulk close to the operator log channel, as a warning
// when some tickets were not fully processed.
func (h *handler) logCloseAll(i *discordgo.InteractionCreate, result tickets.BulkResult, summary string) {
	channelID := h.b.GetConfig().LogChannelID
	detail := fmt.Sprintf("Guild %s by <@%s>: %s", i.GuildID, interactionUser(i).ID, summary)
	log := utils.LogInfo
	if bulkCloseIncomplete(result) {
		log = utils.LogWarn
	}
	if err := log(h.b.Session, channelID, "Tickets", "Close All", detail); err != nil {
		h.logger.Warn("Failed to post bulk close log", zap.Error(err))
	}
}

func (h *handler) handleVoice(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sub, opts := options(i)
	switch sub {
	case "set":
		channelID := idOption(opts, "channel")
		if channelID == nil {
			h.reply.SendEphemeral(i, "A voice channel is required.")
			return
		}
		if err := h.admin.SetVoiceChannel(i.GuildID, *channelID); err != nil {
			h.configError(i, err)
			return
		}
		h.reply.SendEphemeral(i, fmt.Sprintf("Voice channel set to <#%s>.", *channelID))
		h.b.JoinConfiguredVoice(i.GuildID)
	case "clear":
		if err := h.admin.SetVoiceChannel(i.GuildID, ""); err != nil {
			h.configError(i, err)
			return
		}
		h.b.LeaveVoice(i.GuildID)
		h.reply.SendEphemeral(i, "Voice channel cleared.")
	}
}

func (h *handler) handleBotStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_, opts := options(i)
	status := stringOption(opts, "status")
	if status == nil {
		h.reply.SendEphemeral(i, "A status is required.")
		return
	}
	if err := h.admin.SetBotStatus(i.GuildID, *status); err != nil {
		h.configError(i, err)
		return
	}
	if err := h.b.UpdatePresence(); err != nil {
		h.logger.Warn("Presence update failed", zap.Error(err))
	}
	h.reply.SendEphemeral(i, fmt.Sprintf("Bot status updated to `%s`.", *status))
}

func (h *handler) handleTicketHistory(s *discordgo.Session, i *discordgo.InteractionCreate) {
	_, opts := options(i)
	userID := idOption(opts, "user")
	if userID == nil {
		h.reply.SendEphemeral(i, "A user is required.")
		return
	}
	embed, components, err := h.historyPage(i.GuildID, *userID, 1)
	if err != nil {
		h.logger.Error("History lookup failed", zap.String("user", *userID), zap.Error(err))
		h.reply.SendEphemeral(i, "Failed to load history.")
		return
	}
	h.reply.SendEmbedResponse(i, embed, components, true)
}
