package utils

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestPaginationComponents(t *testing.T) {
	if got := PaginationComponents(1, 1, "page:", "u1"); got != nil {
		t.Errorf("single page should have no buttons: %v", got)
	}
	comps := PaginationComponents(2, 3, "page:", "u1")
	buttons := comps[0].(discordgo.ActionsRow).Components
	prev := buttons[0].(discordgo.Button)
	next := buttons[2].(discordgo.Button)
	if prev.CustomID != "page:1:u1" || next.CustomID != "page:3:u1" {
		t.Errorf("ids = %q, %q", prev.CustomID, next.CustomID)
	}
	if prev.Disabled || next.Disabled {
		t.Error("middle page buttons should be enabled")
	}
	if label := buttons[1].(discordgo.Button).Label; label != "2/3" {
		t.Errorf("indicator = %q", label)
	}

	last := PaginationComponents(3, 3, "page:")[0].(discordgo.ActionsRow).Components
	if !last[2].(discordgo.Button).Disabled || last[2].(discordgo.Button).CustomID != "page:4" {
		t.Errorf("last page next = %+v", last[2])
	}
}
