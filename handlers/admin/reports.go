package admin

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"support-bot/blacklist"
	"support-bot/model"
	"support-bot/tickets"
	"support-bot/utils"
)

const (
	listLimit   = 20
	TopRankSize = 10
	// HistoryPageSize is how many audit events one /ticket-history page shows.
	HistoryPageSize = 10
)

func moreLine(total int) string {
	if total <= listLimit {
		return ""
	}
	return fmt.Sprintf("\n...and %d more", total-listLimit)
}

// BlacklistText renders /blacklist list.
func BlacklistText(entries []blacklist.Entry) string {
	if len(entries) == 0 {
		return "No users are blacklisted."
	}
	lines := make([]string, 0, listLimit)
	for i, e := range entries {
		if i == listLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("<@%s>", e.UserID))
	}
	return "Blacklisted users:\n" + strings.Join(lines, "\n") + moreLine(len(entries))
}

// TempBlacklistText renders /tempblacklist list with the time left on each ban.
func TempBlacklistText(entries []blacklist.Entry, now time.Time) string {
	if len(entries) == 0 {
		return "No users are temporarily blacklisted."
	}
	lines := make([]string, 0, listLimit)
	for i, e := range entries {
		if i == listLimit {
			break
		}
		remaining := "unknown"
		if !e.ExpiresAt.IsZero() {
			remaining = utils.FormatDuration(e.ExpiresAt.Sub(now))
		}
		lines = append(lines, fmt.Sprintf("<@%s> (%s)", e.UserID, remaining))
	}
	return "Temp blacklisted users:\n" + strings.Join(lines, "\n") + moreLine(len(entries))
}

// TopRankText renders /toprank.
func TopRankText(entries []tickets.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "No support stats available yet."
	}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("%d. <@%s> - Closed: %d, Claimed: %d", i+1, e.UserID, e.Closed, e.Claimed))
	}
	return "Top Support Members:\n" + strings.Join(lines, "\n")
}

// TotalPages is the page count for n items, at least one.
func TotalPages(n, size int) int {
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// HistoryEmbed renders one page of a user's audit trail.
func HistoryEmbed(userID string, events []model.AuditEvent, page, totalPages, total int, cfg model.GuildConfig) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:  "Ticket History",
		Color:  utils.ResolveEmbedColor(cfg.EmbedColor, utils.ColorPrimary),
		Footer: &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d · %d events", page, totalPages, total)},
	}
	if len(events) == 0 {
		e.Description = fmt.Sprintf("No recorded ticket events for <@%s>.", userID)
		return e
	}
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		line := fmt.Sprintf("%s **%s**", utils.DiscordTime(ev.CreatedAt), ev.Kind)
		if ev.TicketID != "" {
			line += " `" + ev.TicketID + "`"
		}
		if ev.ActorID != "" && ev.ActorID != ev.UserID {
			line += fmt.Sprintf(" by <@%s>", ev.ActorID)
		}
		if ev.Detail != "" {
			line += ": " + ev.Detail
		}
		lines = append(lines, line)
	}
	e.Description = fmt.Sprintf("Events for <@%s>\n\n%s", userID, strings.Join(lines, "\n"))
	return e
}
