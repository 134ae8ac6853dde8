package bot

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/model"
)

const (
	defaultActivity = "DM For Help"
	voiceRejoinWait = 2 * time.Second
)

var presenceStatus = map[string]discordgo.Status{
	"online":    discordgo.StatusOnline,
	"dnd":       discordgo.StatusDoNotDisturb,
	"idle":      discordgo.StatusIdle,
	"sleep":     discordgo.StatusIdle,
	"offline":   discordgo.StatusInvisible,
	"invisible": discordgo.StatusInvisible,
}

// PresenceStatus maps a configured bot status to a gateway status. Unknown
// values show as online.
func PresenceStatus(botStatus string) discordgo.Status {
	if s, ok := presenceStatus[strings.ToLower(strings.TrimSpace(botStatus))]; ok {
		return s
	}
	return discordgo.StatusOnline
}

// PresenceData builds the gateway presence for a guild config. Invisible
// bots advertise no activity.
func PresenceData(cfg model.GuildConfig) discordgo.UpdateStatusData {
	status := PresenceStatus(cfg.BotStatus)
	data := discordgo.UpdateStatusData{Status: string(status), Activities: []*discordgo.Activity{}}
	if status == discordgo.StatusInvisible {
		return data
	}
	name := strings.TrimSpace(cfg.BotActivity)
	if name == "" {
		name = defaultActivity
	}
	data.Activities = append(data.Activities, &discordgo.Activity{Name: name, Type: discordgo.ActivityTypeGame})
	return data
}

// UpdatePresence applies the status and activity of the primary guild, or
// the defaults when no guild is known yet.
func (b *Bot) UpdatePresence() error {
	cfg := b.GetConfig().Defaults
	if guildID := b.PrimaryGuildID(); guildID != "" {
		cfg = b.Store.GuildConfig(guildID)
	}
	return b.Session.UpdateStatusComplex(PresenceData(cfg))
}

// JoinConfiguredVoice connects to the guild's configured voice channel,
// muted and deafened. Nothing happens without one.
func (b *Bot) JoinConfiguredVoice(guildID string) {
	channelID := b.Store.GuildConfig(guildID).VoiceChannelID
	if channelID == "" {
		return
	}
	if vc, ok := b.voiceConnection(guildID); ok && vc.ChannelID == channelID {
		return
	}
	if _, err := b.Session.ChannelVoiceJoin(guildID, channelID, true, true); err != nil {
		b.Logger.Warn("Voice join failed", zap.String("guild", guildID), zap.String("channel", channelID), zap.Error(err))
	}
}

// LeaveVoice disconnects from any voice channel in the guild.
func (b *Bot) LeaveVoice(guildID string) {
	vc, ok := b.voiceConnection(guildID)
	if !ok {
		return
	}
	if err := vc.Disconnect(); err != nil {
		b.Logger.Warn("Voice leave failed", zap.String("guild", guildID), zap.Error(err))
	}
}

func (b *Bot) voiceConnection(guildID string) (*discordgo.VoiceConnection, bool) {
	b.Session.RLock()
	defer b.Session.RUnlock()
	vc, ok := b.Session.VoiceConnections[guildID]
	return vc, ok && vc != nil
}

// RejoinVoice is called when the bot's own voice state changes. If it was
// moved out of the configured channel it goes back after a short wait.
func (b *Bot) RejoinVoice(guildID, currentChannelID string) {
	target := b.Store.GuildConfig(guildID).VoiceChannelID
	if target == "" || currentChannelID == target {
		return
	}
	time.AfterFunc(voiceRejoinWait, func() {
		b.JoinConfiguredVoice(guildID)
	})
}
