package commands

import (
	"regexp"
	"testing"

	"github.com/bwmarrin/discordgo"
)

var commandName = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

func checkOptions(t *testing.T, path string, opts []*discordgo.ApplicationCommandOption) {
	t.Helper()
	seen := map[string]bool{}
	optionalSeen := false
	for _, opt := range opts {
		if !commandName.MatchString(opt.Name) {
			t.Errorf("%s: bad option name %q", path, opt.Name)
		}
		if seen[opt.Name] {
			t.Errorf("%s: duplicate option %q", path, opt.Name)
		}
		seen[opt.Name] = true
		if n := len(opt.Description); n == 0 || n > 100 {
			t.Errorf("%s %s: description length %d", path, opt.Name, n)
		}
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand {
			checkOptions(t, path+" "+opt.Name, opt.Options)
			continue
		}
		if opt.Required && optionalSeen {
			t.Errorf("%s: required option %q follows an optional one", path, opt.Name)
		}
		if !opt.Required {
			optionalSeen = true
		}
	}
	if len(opts) > 25 {
		t.Errorf("%s: %d options", path, len(opts))
	}
}

func TestAllCommandsValid(t *testing.T) {
	seen := map[string]bool{}
	for _, cmd := range All() {
		if !commandName.MatchString(cmd.Name) {
			t.Errorf("bad command name %q", cmd.Name)
		}
		if seen[cmd.Name] {
			t.Errorf("duplicate command %q", cmd.Name)
		}
		seen[cmd.Name] = true
		if n := len(cmd.Description); n == 0 || n > 100 {
			t.Errorf("%s: description length %d", cmd.Name, n)
		}
		checkOptions(t, cmd.Name, cmd.Options)
	}
	for _, name := range []string{"setup", "config", "blacklist", "tempblacklist", "close-all", "ticket-history"} {
		if !seen[name] {
			t.Errorf("missing command %q", name)
		}
	}
}
