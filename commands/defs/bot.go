package defs

import "github.com/bwmarrin/discordgo"

var Voice = &discordgo.ApplicationCommand{
	Name:        "voice",
	Description: "Set or clear the voice channel the bot stays in",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "set",
			Description: "Set the voice channel to stay in",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Voice channel",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildVoice,
						discordgo.ChannelTypeGuildStageVoice,
					},
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "clear",
			Description: "Clear the voice channel and leave",
		},
	},
}

var BotStatus = &discordgo.ApplicationCommand{
	Name:        "bot-status",
	Description: "Change the bot presence status",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "status",
			Description: "Presence status",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Online", Value: "online"},
				{Name: "Do Not Disturb", Value: "dnd"},
				{Name: "Sleep", Value: "sleep"},
				{Name: "Offline", Value: "offline"},
			},
		},
	},
}

var SystemInfo = &discordgo.ApplicationCommand{
	Name:        "system-info",
	Description: "Display bot and system status information",
}
