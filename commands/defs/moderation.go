package defs

import "github.com/bwmarrin/discordgo"

func userOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: description,
		Required:    true,
	}
}

var reasonOption = &discordgo.ApplicationCommandOption{
	Type:        discordgo.ApplicationCommandOptionString,
	Name:        "reason",
	Description: "Reason for blacklist",
}

var Blacklist = &discordgo.ApplicationCommand{
	Name:        "blacklist",
	Description: "Manage ticket blacklist",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "add",
			Description: "Blacklist a user from creating tickets",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to blacklist"), reasonOption},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "remove",
			Description: "Remove a user from the blacklist",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to unblacklist")},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "list",
			Description: "List blacklisted users",
		},
	},
}

var TempBlacklist = &discordgo.ApplicationCommand{
	Name:        "tempblacklist",
	Description: "Manage temporary ticket blacklist",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "add",
			Description: "Temporarily blacklist a user from creating tickets",
			Options: []*discordgo.ApplicationCommandOption{
				userOption("User to blacklist"),
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "duration_minutes",
					Description: "Duration in minutes",
					Required:    true,
				},
				reasonOption,
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "remove",
			Description: "Remove a user from temporary blacklist",
			Options:     []*discordgo.ApplicationCommandOption{userOption("User to unblacklist")},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "list",
			Description: "List temporarily blacklisted users",
		},
	},
}

var PurgeUser = &discordgo.ApplicationCommand{
	Name:        "purge-user",
	Description: "Delete a user's ticket data",
	Options:     []*discordgo.ApplicationCommandOption{userOption("User to delete data for")},
}

var CloseAll = &discordgo.ApplicationCommand{
	Name:        "close-all",
	Description: "Close all open tickets, log transcripts, and delete threads",
}

var TopRank = &discordgo.ApplicationCommand{
	Name:        "toprank",
	Description: "Show top support members by handled tickets",
}

var TicketHistory = &discordgo.ApplicationCommand{
	Name:        "ticket-history",
	Description: "Show the ticket audit history of a user",
	Options:     []*discordgo.ApplicationCommandOption{userOption("User to look up")},
}
