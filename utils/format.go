package utils

import (
	"fmt"
	"math"
	"time"
)

// FormatEta renders a wait estimate in minutes.
func FormatEta(minutes int) string {
	if minutes <= 1 {
		return "1 minute"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatDuration renders a remaining time, rounded to whole minutes and
// never below one minute.
func FormatDuration(d time.Duration) string {
	total := int(math.Round(d.Minutes()))
	if total < 1 {
		total = 1
	}
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	hours, minutes := total/60, total%60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// DiscordTime renders t as a full-date timestamp tag.
func DiscordTime(t time.Time) string {
	return fmt.Sprintf("<t:%d:F>", t.Unix())
}
