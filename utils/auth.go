package utils

import (
	"github.com/bwmarrin/discordgo"

	"support-bot/model"
	"support-bot/platform"
)

// IsManager reports whether m may run admin commands: the configured owner,
// else holders of the admin role, else anyone with Manage Server.
func IsManager(m platform.Member, cfg model.GuildConfig) bool {
	if m.UserID == "" {
		return false
	}
	if cfg.OwnerUserID != "" && m.UserID == cfg.OwnerUserID {
		return true
	}
	if cfg.AdminRoleID != "" {
		return m.HasRole(cfg.AdminRoleID)
	}
	return m.Can(discordgo.PermissionManageGuild)
}

// IsSupport reports whether m may work tickets. Without configured support
// roles, Manage Server is required.
func IsSupport(m platform.Member, cfg model.GuildConfig) bool {
	if m.UserID == "" {
		return false
	}
	if cfg.SupportRoleIDs == nil || cfg.SupportRoleIDs.Cardinality() == 0 {
		return m.Can(discordgo.PermissionManageGuild)
	}
	for _, r := range m.Roles {
		if cfg.SupportRoleIDs.Contains(r) {
			return true
		}
	}
	return false
}

// HasAdminRole is the admin-flavoured claim check.
func HasAdminRole(m platform.Member, cfg model.GuildConfig) bool {
	return cfg.AdminRoleID != "" && m.HasRole(cfg.AdminRoleID)
}

// MemberFromInteraction builds a permission subject from an interaction
// member. Permissions come resolved from the platform.
func MemberFromInteraction(m *discordgo.Member) platform.Member {
	if m == nil || m.User == nil {
		return platform.Member{}
	}
	return platform.Member{UserID: m.User.ID, Roles: m.Roles, Permissions: m.Permissions}
}
