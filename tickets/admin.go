package tickets

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"support-bot/model"
	"support-bot/platform"
	"support-bot/ui"
)

// BulkResult counts what CloseAll managed to do.
type BulkResult struct {
	Open    int
	Closed  int
	Logged  int
	Deleted int
}

// CloseAll closes every open ticket of a guild, saves each transcript to the
// logs channel and deletes the threads. A logs channel is required.
func (s *Service) CloseAll(ctx context.Context, guildID string, by platform.User) (BulkResult, error) {
	var result BulkResult
	cfg := s.store.GuildConfig(guildID)
	if cfg.LogsChannelID == "" {
		return result, fmt.Errorf("%w: logs channel is not set", ErrSetupRequired)
	}
	var owners []string
	s.store.View(func(doc *model.Document) {
		for userID, t := range doc.Tickets[guildID] {
			if t.IsOpen() {
				owners = append(owners, userID)
			}
		}
	})
	sort.Strings(owners)
	result.Open = len(owners)
	if result.Open == 0 {
		return result, nil
	}

	if _, err := s.gw.Send(ctx, cfg.LogsChannelID, platform.Message{Embeds: embeds(ui.BulkCloseEmbed(cfg, by, result.Open))}); err != nil {
		return result, fmt.Errorf("logs channel not accessible: %w", err)
	}
	s.logger.Info("Bulk closing tickets", zap.String("guild", guildID), zap.String("by", by.ID), zap.Int("open", result.Open))

	for _, userID := range owners {
		err := s.Close(ctx, CloseRequest{GuildID: guildID, UserID: userID, Reason: model.CloseBulk, ClosedBy: by})
		if err != nil {
			s.logger.Warn("Bulk close skipped ticket", zap.String("user", userID), zap.Error(err))
			continue
		}
		result.Closed++

		t, ok := s.store.Ticket(guildID, userID)
		if !ok {
			continue
		}
		ref, _, err := s.postTranscript(ctx, cfg.LogsChannelID, "", t, cfg)
		if err != nil {
			s.logger.Warn("Failed to log transcript", zap.String("ticket", t.ID), zap.Error(err))
		} else {
			s.patchByID(guildID, t.ID, func(stored *model.Ticket) { stored.LogTranscriptMessageID = ref.MessageID })
			result.Logged++
		}
		if t.ThreadID != "" {
			if err := s.gw.DeleteChannel(ctx, t.ThreadID); err != nil {
				s.logger.Warn("Failed to delete thread", zap.String("thread", t.ThreadID), zap.Error(err))
			} else {
				result.Deleted++
			}
		}
	}
	return result, nil
}

// ScheduleThreadDeletion announces and then deletes a ticket thread after a
// fixed delay. Once scheduled the deletion cannot be called off.
func (s *Service) ScheduleThreadDeletion(ctx context.Context, threadID string) error {
	_, err := s.gw.Send(ctx, threadID, platform.Message{Content: "Ticket will be deleted in 10 seconds."})
	s.after(threadDeleteDelay, func() {
		if err := s.gw.DeleteChannel(context.Background(), threadID); err != nil {
			s.logger.Warn("Failed to delete ticket thread", zap.String("thread", threadID), zap.Error(err))
		}
	})
	return err
}

// PurgeUser forgets the stored ticket of a user in a guild. It reports
// whether there was anything to remove.
func (s *Service) PurgeUser(ctx context.Context, guildID, userID string) (bool, error) {
	var purged *model.Ticket
	err := s.store.Update(func(doc *model.Document) error {
		doc.EnsureGuild(guildID)
		if t := doc.Tickets[guildID][userID]; t != nil {
			c := t.Clone()
			purged = &c
		}
		delete(doc.Tickets[guildID], userID)
		return nil
	})
	if err != nil {
		return false, err
	}
	return purged != nil, nil
}

// LeaderboardEntry is one staff member's totals.
type LeaderboardEntry struct {
	UserID  string
	Closed  int
	Claimed int
}

// SupportLeaderboard ranks staff by tickets closed, then claimed.
func (s *Service) SupportLeaderboard(guildID string, limit int) []LeaderboardEntry {
	var entries []LeaderboardEntry
	s.store.View(func(doc *model.Document) {
		meta := doc.Guilds[guildID]
		if meta == nil {
			return
		}
		for userID, st := range meta.SupportStats {
			if st == nil {
				continue
			}
			entries = append(entries, LeaderboardEntry{UserID: userID, Closed: st.Closed, Claimed: st.Claimed})
		}
	})
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Closed != b.Closed {
			return a.Closed > b.Closed
		}
		if a.Claimed != b.Claimed {
			return a.Claimed > b.Claimed
		}
		return a.UserID < b.UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
