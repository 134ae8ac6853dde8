package utils

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	mapset "github.com/deckarep/golang-set/v2"

	"support-bot/model"
	"support-bot/platform"
)

func TestIsManager(t *testing.T) {
	admin := platform.Member{UserID: "a", Roles: []string{"admin"}}
	manageGuild := platform.Member{UserID: "m", Permissions: discordgo.PermissionManageGuild}
	owner := platform.Member{UserID: "owner"}

	cfg := model.GuildConfig{}
	if !IsManager(manageGuild, cfg) {
		t.Error("Manage Server should qualify without admin role")
	}
	if IsManager(admin, cfg) {
		t.Error("role alone should not qualify without admin role configured")
	}

	cfg.AdminRoleID = "admin"
	if !IsManager(admin, cfg) {
		t.Error("admin role holder should qualify")
	}
	if IsManager(manageGuild, cfg) {
		t.Error("Manage Server should not qualify once an admin role is set")
	}

	cfg.OwnerUserID = "owner"
	if !IsManager(owner, cfg) {
		t.Error("owner should always qualify")
	}
}

func TestIsSupport(t *testing.T) {
	staff := platform.Member{UserID: "s", Roles: []string{"support"}}
	admin := platform.Member{UserID: "a", Permissions: discordgo.PermissionAdministrator}

	cfg := model.GuildConfig{SupportRoleIDs: mapset.NewSet[string]()}
	if !IsSupport(admin, cfg) {
		t.Error("administrator should qualify without support roles")
	}
	if IsSupport(staff, cfg) {
		t.Error("role holder should not qualify without support roles configured")
	}

	cfg.SupportRoleIDs.Add("support")
	if !IsSupport(staff, cfg) {
		t.Error("support role holder should qualify")
	}
	if IsSupport(admin, cfg) {
		t.Error("administrator without the role should not qualify")
	}
	if IsSupport(platform.Member{}, cfg) {
		t.Error("empty member should never qualify")
	}
}
