package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/commands"
	"support-bot/database"
	"support-bot/inbox"
	"support-bot/model"
	"support-bot/pending"
	"support-bot/platform"
	"support-bot/quota"
	"support-bot/scanner"
	"support-bot/store"
	"support-bot/tickets"
	"support-bot/utils"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages |
	discordgo.IntentMessageContent |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsGuildVoiceStates

type Bot struct {
	Session            *discordgo.Session
	RegisteredCommands []*discordgo.ApplicationCommand
	CommandHandlers    map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	Store    *store.Store
	Audit    *database.AuditLog
	Gateway  *platform.Discord
	Registry *pending.Registry
	Tickets  *tickets.Service
	Flow     *pending.Flow
	Quota    *quota.Tracker
	Router   *inbox.Router
	Sweeper  *scanner.Sweeper
	Logger   *zap.Logger

	ConfigPath string

	commandsMu sync.Mutex
	scheduler  *Scheduler
}

func (b *Bot) GetConfig() *model.Config {
	return b.Store.Settings()
}

// New builds the session and wires every ticket component around it. The
// data and audit files are created under their configured directories.
func New(cfg *model.Config, configPath string, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = intents
	dg.StateEnabled = true

	for _, path := range []string{cfg.DataFile, cfg.AuditDBPath} {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	audit, err := database.Open(cfg.AuditDBPath)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		Session:    dg,
		Store:      store.Open(cfg.DataFile, cfg, logger.Named("store")),
		Audit:      audit,
		Gateway:    platform.NewDiscord(dg),
		Registry:   pending.NewRegistry(),
		Quota:      quota.NewTracker(),
		Logger:     logger,
		ConfigPath: configPath,
	}
	b.Tickets = tickets.NewService(b.Store, b.Gateway, b.Registry, audit, logger.Named("tickets"))
	b.Flow = pending.NewFlow(b.Registry, b.Gateway, b.Store, b.Tickets, logger.Named("pending"))
	b.Router = inbox.NewRouter(b.Store, b.Flow, b.Tickets, b.Quota, b.Gateway, logger.Named("inbox"))
	b.Router.SetKnownGuilds(b.GuildIDs)
	b.Sweeper = scanner.NewSweeper(b.Store, b.Tickets, b.Registry, b.Quota, logger.Named("scanner"))
	b.Sweeper.OnFailure(b.reportScannerFailure)
	b.scheduler = NewScheduler(b.Sweeper, logger.Named("scheduler"))
	return b, nil
}

func (b *Bot) reportScannerFailure(operation string, err error) {
	if lerr := utils.LogError(b.Session, b.GetConfig().LogChannelID, "Scanner", operation, err.Error()); lerr != nil {
		b.Logger.Warn("Failed to post scanner failure", zap.Error(lerr))
	}
}

// GuildIDs lists the guilds in the session state, in join order.
func (b *Bot) GuildIDs() []string {
	if b.Session.State == nil {
		return nil
	}
	b.Session.State.RLock()
	defer b.Session.State.RUnlock()
	ids := make([]string, 0, len(b.Session.State.Guilds))
	for _, g := range b.Session.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

// PrimaryGuildID resolves the guild DMs belong to.
func (b *Bot) PrimaryGuildID() string {
	return b.Store.PrimaryGuildID(b.GuildIDs())
}

func (b *Bot) Close() {
	b.Logger.Info("Gracefully shutting down")
	b.scheduler.Stop()
	if err := b.Session.Close(); err != nil {
		b.Logger.Warn("Session close failed", zap.Error(err))
	}
	if err := b.Audit.Close(); err != nil {
		b.Logger.Warn("Audit database close failed", zap.Error(err))
	}
}

// RefreshCommands overwrites the slash commands of one guild.
func (b *Bot) RefreshCommands(guildID string) {
	if b.Session.State == nil || b.Session.State.User == nil {
		return
	}
	cmds := commands.All()
	registered, err := b.Session.ApplicationCommandBulkOverwrite(b.Session.State.User.ID, guildID, cmds)
	if err != nil {
		b.Logger.Error("Cannot update commands", zap.String("guild", guildID), zap.Error(err))
		return
	}
	b.commandsMu.Lock()
	b.RegisteredCommands = append(b.RegisteredCommands, registered...)
	b.commandsMu.Unlock()
	b.Logger.Info("Registered commands", zap.String("guild", guildID), zap.Int("count", len(registered)))
}

// ReloadConfig swaps in new settings and reapplies the presence they name.
func (b *Bot) ReloadConfig(cfg *model.Config) {
	b.Store.SetSettings(cfg)
	if err := b.UpdatePresence(); err != nil {
		b.Logger.Warn("Presence update after reload failed", zap.Error(err))
	}
}
