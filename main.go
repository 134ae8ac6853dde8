package main

import (
	"go.uber.org/zap"

	"support-bot/bot"
	"support-bot/config"
	"support-bot/handlers"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		logger.Fatal("Error loading config", zap.Error(err))
	}

	b, err := bot.New(cfg, config.DefaultPath, logger)
	if err != nil {
		logger.Fatal("Error creating bot", zap.Error(err))
	}
	defer b.Close()

	handlers.Register(b)

	if err := b.Run(); err != nil {
		logger.Error("Bot stopped", zap.Error(err))
	}
}
