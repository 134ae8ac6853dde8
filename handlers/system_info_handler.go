package handlers

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"support-bot/model"
	"support-bot/utils"
)

// ticketCounts returns the open and total stored tickets of a guild.
func ticketCounts(doc *model.Document, guildID string) (open, total int) {
	for _, t := range doc.Tickets[guildID] {
		total++
		if t.IsOpen() {
			open++
		}
	}
	return open, total
}

func fileSizeMB(path string) float64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(info.Size()) / 1024 / 1024
}

func (h *handler) handleSystemInfo(s *discordgo.Session, i *discordgo.InteractionCreate) {
	cpuCount, _ := cpu.Counts(true)
	cpuUsage := 0.0
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		cpuUsage = percent[0]
	}
	osVersion, kernel := "unknown", "unknown"
	if info, err := host.Info(); err == nil {
		osVersion = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
		kernel = info.KernelVersion
	}
	memory := "unknown"
	if vm, err := mem.VirtualMemory(); err == nil {
		memory = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}

	var open, total int
	h.b.Store.View(func(doc *model.Document) {
		open, total = ticketCounts(doc, i.GuildID)
	})

	events := "none"
	if counts, err := h.b.Audit.CountByKind(context.Background(), i.GuildID); err != nil {
		h.logger.Warn("Audit counts unavailable", zap.Error(err))
	} else if len(counts) > 0 {
		kinds := make([]string, 0, len(counts))
		for kind := range counts {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		parts := make([]string, 0, len(kinds))
		for _, kind := range kinds {
			parts = append(parts, fmt.Sprintf("%s: %d", kind, counts[kind]))
		}
		events = strings.Join(parts, "\n")
	}

	settings := h.b.GetConfig()
	storage := fmt.Sprintf("%.2f MB", fileSizeMB(settings.DataFile)+fileSizeMB(settings.AuditDBPath))

	embed := &discordgo.MessageEmbed{
		Title: "System Info",
		Color: utils.ResolveEmbedColor(h.guildConfig(i).EmbedColor, utils.ColorPrimary),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "OS", Value: osVersion, Inline: true},
			{Name: "Kernel", Value: kernel, Inline: true},
			{Name: "Go", Value: runtime.Version(), Inline: true},
			{Name: "CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "CPU usage", Value: fmt.Sprintf("%.1f%%", cpuUsage), Inline: true},
			{Name: "Memory", Value: memory, Inline: true},
			{Name: "Storage", Value: storage, Inline: true},
			{Name: "Gateway latency", Value: s.HeartbeatLatency().String(), Inline: true},
			{Name: "Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "Guilds", Value: fmt.Sprintf("%d", len(h.b.GuildIDs())), Inline: true},
			{Name: "Tickets", Value: fmt.Sprintf("%d open / %d stored", open, total), Inline: true},
			{Name: "Pending conversations", Value: fmt.Sprintf("%d", h.b.Registry.Len()), Inline: true},
			{Name: "Audit events", Value: events},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "System monitor · " + time.Now().Format("15:04"),
		},
	}
	h.reply.SendEphemeralEmbed(i, embed)
}
