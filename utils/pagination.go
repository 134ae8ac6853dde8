package utils

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// PaginationComponents builds previous/next buttons with a page indicator.
// Button IDs are customIDPrefix, the target page, then args joined by colons.
func PaginationComponents(currentPage, totalPages int, customIDPrefix string, args ...string) []discordgo.MessageComponent {
	if totalPages <= 1 {
		return nil
	}

	buttonArgs := ""
	if len(args) > 0 {
		buttonArgs = ":" + strings.Join(args, ":")
	}
	pageID := func(page int) string {
		return fmt.Sprintf("%s%d%s", customIDPrefix, page, buttonArgs)
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.PrimaryButton,
					Disabled: currentPage <= 1,
					CustomID: pageID(currentPage - 1),
				},
				discordgo.Button{
					Label:    fmt.Sprintf("%d/%d", currentPage, totalPages),
					Style:    discordgo.SecondaryButton,
					Disabled: true,
					CustomID: customIDPrefix + "indicator",
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.PrimaryButton,
					Disabled: currentPage >= totalPages,
					CustomID: pageID(currentPage + 1),
				},
			},
		},
	}
}
