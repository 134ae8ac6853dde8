package model

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// GuildConfig is the resolved configuration of one guild. Every field is
// populated; callers never see a missing value, only a default.
type GuildConfig struct {
	SupportChannelID string
	LogsChannelID    string
	SupportRoleIDs   mapset.Set[string]
	MentionRoleID    string
	AdminRoleID      string
	OwnerUserID      string
	VoiceChannelID   string

	Language         string
	EmbedColor       string
	BannerURL        string
	SupportLabel     string
	IdleCloseMinutes int
	WaitingThreshold int
	BotStatus        string
	BotActivity      string
}

// GuildConfigPatch is a partial override. Nil fields leave the lower layer in place.
type GuildConfigPatch struct {
	SupportChannelID *string  `json:"supportChannelId,omitempty" mapstructure:"supportChannelId"`
	LogsChannelID    *string  `json:"logsChannelId,omitempty" mapstructure:"logsChannelId"`
	SupportRoleIDs   []string `json:"supportRoleIds,omitempty" mapstructure:"supportRoleIds"`
	MentionRoleID    *string  `json:"mentionRoleId,omitempty" mapstructure:"mentionRoleId"`
	AdminRoleID      *string  `json:"adminRoleId,omitempty" mapstructure:"adminRoleId"`
	OwnerUserID      *string  `json:"ownerUserId,omitempty" mapstructure:"ownerUserId"`
	VoiceChannelID   *string  `json:"voiceChannelId,omitempty" mapstructure:"voiceChannelId"`

	Language         *string `json:"language,omitempty" mapstructure:"language" validate:"omitempty,oneof=ar en"`
	EmbedColor       *string `json:"embedColor,omitempty" mapstructure:"embedColor" validate:"omitempty,hexcolor"`
	BannerURL        *string `json:"bannerUrl,omitempty" mapstructure:"bannerUrl" validate:"omitempty,url"`
	SupportLabel     *string `json:"supportLabel,omitempty" mapstructure:"supportLabel"`
	IdleCloseMinutes *int    `json:"idleCloseMinutes,omitempty" mapstructure:"idleCloseMinutes" validate:"omitempty,gte=0"`
	WaitingThreshold *int    `json:"waitingThreshold,omitempty" mapstructure:"waitingThreshold" validate:"omitempty,gte=0"`
	BotStatus        *string `json:"botStatus,omitempty" mapstructure:"botStatus" validate:"omitempty,oneof=online dnd idle sleep offline invisible"`
	BotActivity      *string `json:"botActivity,omitempty" mapstructure:"botActivity"`
}

// Config holds process-wide settings loaded from the environment and config file.
type Config struct {
	BotToken     string
	LogChannelID string
	DataFile     string
	AuditDBPath  string

	PrimaryGuildID       string
	MaxMessagesPerMinute int
	MaxTicketsPerDay     int
	SetupTimeoutMinutes  int
	RemoveDataAfterDays  int

	// Defaults already has environment overrides applied.
	Defaults GuildConfig
	// Guilds are per-guild overrides from the config file.
	Guilds map[string]GuildConfigPatch
}

// Clone copies c, including the role set, so the copy can be changed freely.
func (c GuildConfig) Clone() GuildConfig {
	out := c
	if c.SupportRoleIDs != nil {
		out.SupportRoleIDs = c.SupportRoleIDs.Clone()
	} else {
		out.SupportRoleIDs = mapset.NewSet[string]()
	}
	return out
}

// Apply layers p over c and returns the result; c is not modified.
func (c GuildConfig) Apply(p *GuildConfigPatch) GuildConfig {
	out := c.Clone()
	if p == nil {
		return out
	}
	setString(&out.SupportChannelID, p.SupportChannelID)
	setString(&out.LogsChannelID, p.LogsChannelID)
	if p.SupportRoleIDs != nil {
		out.SupportRoleIDs = mapset.NewSet[string]()
		for _, id := range p.SupportRoleIDs {
			if id != "" {
				out.SupportRoleIDs.Add(id)
			}
		}
	}
	setString(&out.MentionRoleID, p.MentionRoleID)
	setString(&out.AdminRoleID, p.AdminRoleID)
	setString(&out.OwnerUserID, p.OwnerUserID)
	setString(&out.VoiceChannelID, p.VoiceChannelID)
	setString(&out.Language, p.Language)
	setString(&out.EmbedColor, p.EmbedColor)
	setString(&out.BannerURL, p.BannerURL)
	setString(&out.SupportLabel, p.SupportLabel)
	if p.IdleCloseMinutes != nil {
		out.IdleCloseMinutes = *p.IdleCloseMinutes
	}
	if p.WaitingThreshold != nil {
		out.WaitingThreshold = *p.WaitingThreshold
	}
	setString(&out.BotStatus, p.BotStatus)
	setString(&out.BotActivity, p.BotActivity)
	return out
}

// Merge returns p with every non-nil field of next written over it.
func (p *GuildConfigPatch) Merge(next GuildConfigPatch) GuildConfigPatch {
	var out GuildConfigPatch
	if p != nil {
		out = *p
	}
	pick := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	pick(&out.SupportChannelID, next.SupportChannelID)
	pick(&out.LogsChannelID, next.LogsChannelID)
	if next.SupportRoleIDs != nil {
		out.SupportRoleIDs = append([]string(nil), next.SupportRoleIDs...)
	}
	pick(&out.MentionRoleID, next.MentionRoleID)
	pick(&out.AdminRoleID, next.AdminRoleID)
	pick(&out.OwnerUserID, next.OwnerUserID)
	pick(&out.VoiceChannelID, next.VoiceChannelID)
	pick(&out.Language, next.Language)
	pick(&out.EmbedColor, next.EmbedColor)
	pick(&out.BannerURL, next.BannerURL)
	pick(&out.SupportLabel, next.SupportLabel)
	if next.IdleCloseMinutes != nil {
		out.IdleCloseMinutes = next.IdleCloseMinutes
	}
	if next.WaitingThreshold != nil {
		out.WaitingThreshold = next.WaitingThreshold
	}
	pick(&out.BotStatus, next.BotStatus)
	pick(&out.BotActivity, next.BotActivity)
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// StringPtr is a helper for building patches.
func StringPtr(s string) *string { return &s }

// IntPtr is a helper for building patches.
func IntPtr(n int) *int { return &n }
