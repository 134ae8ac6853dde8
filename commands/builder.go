package commands

import (
	"github.com/bwmarrin/discordgo"

	"support-bot/commands/defs"
)

// All returns the slash commands registered in every guild.
func All() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.Setup,
		defs.SetAdminRole,
		defs.Config,
		defs.Blacklist,
		defs.TempBlacklist,
		defs.TopRank,
		defs.PurgeUser,
		defs.CloseAll,
		defs.Voice,
		defs.BotStatus,
		defs.TicketHistory,
		defs.SystemInfo,
	}
}
