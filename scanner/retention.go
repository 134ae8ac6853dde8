package scanner

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"support-bot/model"
)

func (s *Sweeper) retention() (time.Duration, bool) {
	days := s.store.Settings().RemoveDataAfterDays
	if days <= 0 {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

func pastRetention(meta *model.GuildMeta, now time.Time, retention time.Duration) bool {
	return meta != nil && meta.RemovedAt != nil && now.Sub(model.FromMillis(*meta.RemovedAt)) > retention
}

// CleanupRemovedGuilds drops the tickets and bookkeeping of every guild that
// was left longer ago than the retention period. It returns the dropped ids.
func (s *Sweeper) CleanupRemovedGuilds() []string {
	retention, ok := s.retention()
	if !ok {
		return nil
	}
	now := s.now()
	var removed []string
	err := s.store.Update(func(doc *model.Document) error {
		for guildID, meta := range doc.Guilds {
			if pastRetention(meta, now, retention) {
				delete(doc.Tickets, guildID)
				delete(doc.Guilds, guildID)
				removed = append(removed, guildID)
			}
		}
		return nil
	})
	if err != nil {
		s.fail("Guild Cleanup", err)
		return nil
	}
	sort.Strings(removed)
	if len(removed) > 0 {
		s.logger.Info("Removed data of departed guilds", zap.Strings("guilds", removed))
	}
	return removed
}

// GuildJoined clears the departure mark of a guild the bot is back in. Data
// kept past the retention period is wiped instead of restored.
func (s *Sweeper) GuildJoined(guildID string) error {
	retention, limited := s.retention()
	now := s.now()
	return s.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		meta := doc.Guilds[guildID]
		if meta.RemovedAt == nil {
			return nil
		}
		if limited && pastRetention(meta, now, retention) {
			doc.Tickets[guildID] = make(map[string]*model.Ticket)
			s.logger.Info("Rejoined guild after retention, tickets wiped", zap.String("guild", guildID))
		}
		meta.RemovedAt = nil
		return nil
	})
}

// GuildLeft marks a guild as departed so its data ages out.
func (s *Sweeper) GuildLeft(guildID string) error {
	at := model.Millis(s.now())
	return s.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		doc.Guilds[guildID].RemovedAt = &at
		return nil
	})
}
