// Package admin holds the guild management behind the slash commands:
// ticket configuration, the blacklist and the bot's own presence settings.
package admin

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"support-bot/blacklist"
	"support-bot/config"
	"support-bot/model"
	"support-bot/store"
	"support-bot/tickets"
)

// ErrEmptyPatch is returned by UpdateConfig when no option was given.
var ErrEmptyPatch = errors.New("nothing to update")

type Manager struct {
	store  *store.Store
	audit  tickets.Auditor
	logger *zap.Logger
	now    func() time.Time
}

// NewManager builds a Manager. audit may be nil.
func NewManager(st *store.Store, audit tickets.Auditor, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: st, audit: audit, logger: logger, now: time.Now}
}

func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Manager) record(ctx context.Context, guildID, userID, actorID, kind, detail string) {
	if m.audit == nil {
		return
	}
	ev := model.AuditEvent{GuildID: guildID, UserID: userID, ActorID: actorID, Kind: kind, Detail: detail, CreatedAt: m.now()}
	if err := m.audit.Record(ctx, ev); err != nil {
		m.logger.Warn("Failed to record audit event", zap.String("kind", kind), zap.String("user", userID), zap.Error(err))
	}
}

func (m *Manager) patch(guildID string, p model.GuildConfigPatch, fn func(doc *model.Document)) error {
	if err := config.ValidatePatch(p); err != nil {
		return err
	}
	return m.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		meta := doc.Guilds[guildID]
		merged := meta.Config.Merge(p)
		meta.Config = &merged
		if fn != nil {
			fn(doc)
		}
		return nil
	})
}

// Setup stores the core ticket configuration of a guild and makes it the
// guild DMs are routed to.
func (m *Manager) Setup(guildID string, p model.GuildConfigPatch) error {
	if p.SupportChannelID == nil || p.LogsChannelID == nil || len(p.SupportRoleIDs) == 0 {
		return fmt.Errorf("%w: support channel, logs channel and support role are required", tickets.ErrInvalidInput)
	}
	err := m.patch(guildID, p, func(doc *model.Document) {
		doc.PrimaryGuildID = guildID
		doc.Guilds[guildID].RemovedAt = nil
	})
	if err == nil {
		m.logger.Info("Guild set up", zap.String("guild", guildID))
	}
	return err
}

// UpdateConfig merges the given options into the stored override.
func (m *Manager) UpdateConfig(guildID string, p model.GuildConfigPatch) error {
	if reflect.ValueOf(p).IsZero() {
		return ErrEmptyPatch
	}
	return m.patch(guildID, p, nil)
}

func (m *Manager) SetAdminRole(guildID, roleID string) error {
	return m.patch(guildID, model.GuildConfigPatch{AdminRoleID: &roleID}, nil)
}

// SetVoiceChannel binds the guild's voice channel. An empty id clears it.
func (m *Manager) SetVoiceChannel(guildID, channelID string) error {
	return m.patch(guildID, model.GuildConfigPatch{VoiceChannelID: &channelID}, nil)
}

func (m *Manager) SetBotStatus(guildID, status string) error {
	return m.patch(guildID, model.GuildConfigPatch{BotStatus: &status}, nil)
}

// Blacklist bans a user for good, replacing any temporary ban.
func (m *Manager) Blacklist(ctx context.Context, guildID, userID, reason, by string) error {
	now := m.now()
	err := m.store.Update(func(doc *model.Document) error {
		blacklist.Prune(doc, guildID, now)
		blacklist.AddPermanent(doc, guildID, userID, reason, by, now)
		return nil
	})
	if err != nil {
		return err
	}
	m.record(ctx, guildID, userID, by, model.AuditBlacklist, reason)
	return nil
}

// TempBlacklist bans a user for the given minutes, replacing any permanent
// ban. It returns when the ban lapses.
func (m *Manager) TempBlacklist(ctx context.Context, guildID, userID, reason, by string, minutes int) (time.Time, error) {
	now := m.now()
	var expires time.Time
	err := m.store.Update(func(doc *model.Document) error {
		blacklist.Prune(doc, guildID, now)
		expires = blacklist.AddTemporary(doc, guildID, userID, reason, by, time.Duration(minutes)*time.Minute, now)
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	m.record(ctx, guildID, userID, by, model.AuditBlacklist, fmt.Sprintf("%d minutes: %s", minutes, reason))
	return expires, nil
}

// Unblacklist lifts every ban on a user. Returns blacklist.ErrNotListed when
// there was none.
func (m *Manager) Unblacklist(ctx context.Context, guildID, userID, by string) error {
	err := m.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		return blacklist.Remove(doc, guildID, userID)
	})
	if err != nil {
		return err
	}
	m.record(ctx, guildID, userID, by, model.AuditUnblock, "")
	return nil
}

// RemoveTempBlacklist lifts only a temporary ban.
func (m *Manager) RemoveTempBlacklist(ctx context.Context, guildID, userID, by string) error {
	err := m.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		return blacklist.RemoveTemporary(doc, guildID, userID)
	})
	if err != nil {
		return err
	}
	m.record(ctx, guildID, userID, by, model.AuditUnblock, "temporary")
	return nil
}

// Bans lists both kinds of ban after dropping the expired ones.
func (m *Manager) Bans(guildID string) (permanent, temporary []blacklist.Entry) {
	now := m.now()
	var pruned int
	err := m.store.Update(func(doc *model.Document) error {
		pruned = blacklist.Prune(doc, guildID, now)
		permanent = blacklist.ListPermanent(doc, guildID)
		temporary = blacklist.ListTemporary(doc, guildID)
		return nil
	})
	if err != nil {
		m.logger.Warn("Failed to save pruned blacklist", zap.String("guild", guildID), zap.Error(err))
	}
	if pruned > 0 {
		m.logger.Info("Pruned expired bans", zap.String("guild", guildID), zap.Int("count", pruned))
	}
	return permanent, temporary
}
