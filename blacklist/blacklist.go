// Package blacklist manages per-guild permanent and temporary bans on the
// ticket document. Callers run these inside store transactions.
package blacklist

import (
	"errors"
	"sort"
	"time"

	"support-bot/model"
)

// MinDuration is the shortest temporary ban accepted.
const MinDuration = time.Minute

var ErrNotListed = errors.New("user is not blacklisted")

// IsPermanentlyBlocked reports whether userID has a permanent ban in guildID.
func IsPermanentlyBlocked(doc *model.Document, guildID, userID string) bool {
	bl := doc.Blacklist[guildID]
	if bl == nil {
		return false
	}
	_, ok := bl.Permanent[userID]
	return ok
}

// IsTemporarilyBlocked reports whether userID has a live temporary ban and how
// long it still runs.
func IsTemporarilyBlocked(doc *model.Document, guildID, userID string, now time.Time) (bool, time.Duration) {
	bl := doc.Blacklist[guildID]
	if bl == nil {
		return false, 0
	}
	entry, ok := bl.Temporary[userID]
	if !ok {
		return false, 0
	}
	remaining := model.FromMillis(entry.ExpiresAt).Sub(now)
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}

// AddPermanent bans userID for good, dropping any temporary ban.
func AddPermanent(doc *model.Document, guildID, userID, reason, by string, now time.Time) {
	doc.EnsureGuild(guildID)
	bl := doc.Blacklist[guildID]
	bl.Permanent[userID] = model.Ban{Reason: reason, By: by, At: model.Millis(now)}
	delete(bl.Temporary, userID)
}

// AddTemporary bans userID until now+d, dropping any permanent ban. Durations
// under MinDuration are raised to it. It returns the expiry.
func AddTemporary(doc *model.Document, guildID, userID, reason, by string, d time.Duration, now time.Time) time.Time {
	if d < MinDuration {
		d = MinDuration
	}
	doc.EnsureGuild(guildID)
	bl := doc.Blacklist[guildID]
	expires := now.Add(d)
	bl.Temporary[userID] = model.TempBan{
		Reason:    reason,
		By:        by,
		At:        model.Millis(now),
		ExpiresAt: model.Millis(expires),
	}
	delete(bl.Permanent, userID)
	return expires
}

// Remove lifts both kinds of ban.
func Remove(doc *model.Document, guildID, userID string) error {
	bl := doc.Blacklist[guildID]
	if bl == nil {
		return ErrNotListed
	}
	_, perm := bl.Permanent[userID]
	_, temp := bl.Temporary[userID]
	if !perm && !temp {
		return ErrNotListed
	}
	delete(bl.Permanent, userID)
	delete(bl.Temporary, userID)
	return nil
}

// RemoveTemporary lifts only a temporary ban.
func RemoveTemporary(doc *model.Document, guildID, userID string) error {
	bl := doc.Blacklist[guildID]
	if bl == nil {
		return ErrNotListed
	}
	if _, ok := bl.Temporary[userID]; !ok {
		return ErrNotListed
	}
	delete(bl.Temporary, userID)
	return nil
}

// Prune drops temporary bans in guildID that expired at or before now. It
// reports how many were removed.
func Prune(doc *model.Document, guildID string, now time.Time) int {
	bl := doc.Blacklist[guildID]
	if bl == nil {
		return 0
	}
	cutoff := model.Millis(now)
	removed := 0
	for userID, entry := range bl.Temporary {
		if entry.ExpiresAt <= cutoff {
			delete(bl.Temporary, userID)
			removed++
		}
	}
	return removed
}

// PruneAll runs Prune over every guild.
func PruneAll(doc *model.Document, now time.Time) int {
	removed := 0
	for guildID := range doc.Blacklist {
		removed += Prune(doc, guildID, now)
	}
	return removed
}

// Entry is a listing row for either ban kind.
type Entry struct {
	UserID    string
	Reason    string
	By        string
	At        time.Time
	ExpiresAt time.Time // zero for permanent bans
}

// ListPermanent returns permanent bans ordered by when they were added.
func ListPermanent(doc *model.Document, guildID string) []Entry {
	bl := doc.Blacklist[guildID]
	if bl == nil {
		return nil
	}
	out := make([]Entry, 0, len(bl.Permanent))
	for userID, ban := range bl.Permanent {
		out = append(out, Entry{UserID: userID, Reason: ban.Reason, By: ban.By, At: model.FromMillis(ban.At)})
	}
	sortEntries(out)
	return out
}

// ListTemporary returns temporary bans ordered by when they were added.
func ListTemporary(doc *model.Document, guildID string) []Entry {
	bl := doc.Blacklist[guildID]
	if bl == nil {
		return nil
	}
	out := make([]Entry, 0, len(bl.Temporary))
	for userID, ban := range bl.Temporary {
		out = append(out, Entry{
			UserID:    userID,
			Reason:    ban.Reason,
			By:        ban.By,
			At:        model.FromMillis(ban.At),
			ExpiresAt: model.FromMillis(ban.ExpiresAt),
		})
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].At.Equal(entries[j].At) {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].At.Before(entries[j].At)
	})
}
