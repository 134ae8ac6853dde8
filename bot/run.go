package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"support-bot/config"
	"support-bot/model"
	"support-bot/utils"
)

// Run opens the gateway, starts the periodic passes and the config watcher,
// then blocks until the process is told to stop.
func (b *Bot) Run() error {
	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.scheduler.Start(ctx)

	err := config.Watch(b.ConfigPath, b.Logger, func(cfg *model.Config) {
		b.ReloadConfig(cfg)
		utils.LogInfo(b.Session, cfg.LogChannelID, "System", "Config Reload", "Configuration reloaded from "+b.ConfigPath)
	})
	if err != nil {
		b.Logger.Warn("Config watcher not started", zap.Error(err))
	}

	b.Logger.Info("Bot is now running. Press CTRL-C to exit.")
	if err := utils.LogInfo(b.Session, b.GetConfig().LogChannelID, "System", "Startup", "Bot has started successfully."); err != nil {
		b.Logger.Warn("Startup log failed", zap.Error(err))
	}
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	return nil
}
