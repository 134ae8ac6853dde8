package defs

import "github.com/bwmarrin/discordgo"

var textChannel = []discordgo.ChannelType{discordgo.ChannelTypeGuildText}

var languageChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Arabic", Value: "ar"},
	{Name: "English", Value: "en"},
}

var Setup = &discordgo.ApplicationCommand{
	Name:        "setup",
	Description: "Configure the DM ticket bot",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "support_channel",
			Description:  "Channel for support threads",
			Required:     true,
			ChannelTypes: textChannel,
		},
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "logs_channel",
			Description:  "Channel for ticket logs",
			Required:     true,
			ChannelTypes: textChannel,
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "support_role",
			Description: "Role allowed to reply/close tickets",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "language",
			Description: "Default language",
			Required:    true,
			Choices:     languageChoices,
		},
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "mention_role",
			Description: "Role to mention on new tickets",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "embed_color",
			Description: "Embed color hex (e.g. #5865F2)",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "banner_url",
			Description: "Optional banner image URL for ticket embeds",
		},
	},
}

var SetAdminRole = &discordgo.ApplicationCommand{
	Name:        "set-admin-role",
	Description: "Set the admin role for ticket management",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionRole,
			Name:        "role",
			Description: "Admin role for ticket management",
			Required:    true,
		},
	},
}

var Config = &discordgo.ApplicationCommand{
	Name:        "config",
	Description: "Update or view ticket configuration",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "set",
			Description: "Update ticket configuration",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "support_channel",
					Description:  "Channel for support threads",
					ChannelTypes: textChannel,
				},
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "logs_channel",
					Description:  "Channel for ticket logs",
					ChannelTypes: textChannel,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "support_role",
					Description: "Role allowed to reply/close tickets",
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "mention_role",
					Description: "Role to mention on new tickets",
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "admin_role",
					Description: "Admin role for ticket management",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "language",
					Description: "Default language",
					Choices:     languageChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "embed_color",
					Description: "Embed color hex (e.g. #5865F2)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "banner_url",
					Description: "Optional banner image URL for ticket embeds",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "idle_close_minutes",
					Description: "Close tickets after this many minutes without a user reply (0 disables)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "waiting_threshold",
					Description: "Open tickets before users get a busy notice (0 disables)",
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "show",
			Description: "Show current ticket configuration",
		},
	},
}
