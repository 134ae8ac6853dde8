package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"support-bot/model"
	"support-bot/utils"
)

// DefaultPath is where the optional per-guild override file lives.
const DefaultPath = "config.yaml"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	return v
}

// ValidatePatch checks the values a guild override may set.
func ValidatePatch(p model.GuildConfigPatch) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid guild configuration: %w", err)
	}
	return nil
}

// settings is the flat, validated view of every key.
type settings struct {
	Token                string `validate:"required,notblank"`
	DataFile             string `validate:"required,notblank"`
	AuditDB              string `validate:"required,notblank"`
	MaxMessagesPerMinute int    `validate:"gte=1"`
	MaxTicketsPerDay     int    `validate:"gte=1"`
	SetupTimeoutMinutes  int    `validate:"gte=1"`
	RemoveDataAfterDays  int    `validate:"gte=0"`
	IdleCloseMinutes     int    `validate:"gte=0"`
	WaitingThreshold     int    `validate:"gte=0"`
	Language             string `validate:"oneof=ar en"`
	EmbedColor           string `validate:"omitempty,hexcolor"`
	BannerURL            string `validate:"omitempty,url"`
	BotStatus            string `validate:"oneof=online dnd idle sleep offline invisible"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_file", "data/tickets.json")
	v.SetDefault("audit_db", "data/audit.db")
	v.SetDefault("max_messages_per_minute", 5)
	v.SetDefault("max_tickets_per_day", 3)
	v.SetDefault("setup_timeout_minutes", 10)
	v.SetDefault("remove_data_after_days", 30)
	v.SetDefault("idle_close_minutes", 60)
	v.SetDefault("waiting_threshold", 0)
	v.SetDefault("language", "ar")
	v.SetDefault("embed_color", utils.DefaultEmbedColor)
	v.SetDefault("support_label", "Chillaxy Support")
	v.SetDefault("bot_status", "online")
	v.SetDefault("bot_activity", "DM For Help")
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.BindEnv("discord_token", "DISCORD_TOKEN", "BOT_TOKEN")
	v.BindEnv("audit_db", "AUDIT_DB")

	if path == "" {
		return v, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, err
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return v, nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Load reads .env, then layers environment variables over the optional
// config file at path and validates the result.
func Load(path string) (*model.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}

	flat := settings{
		Token:                strings.TrimSpace(v.GetString("discord_token")),
		DataFile:             v.GetString("data_file"),
		AuditDB:              v.GetString("audit_db"),
		MaxMessagesPerMinute: v.GetInt("max_messages_per_minute"),
		MaxTicketsPerDay:     v.GetInt("max_tickets_per_day"),
		SetupTimeoutMinutes:  v.GetInt("setup_timeout_minutes"),
		RemoveDataAfterDays:  v.GetInt("remove_data_after_days"),
		IdleCloseMinutes:     v.GetInt("idle_close_minutes"),
		WaitingThreshold:     v.GetInt("waiting_threshold"),
		Language:             strings.ToLower(v.GetString("language")),
		EmbedColor:           strings.TrimSpace(v.GetString("embed_color")),
		BannerURL:            v.GetString("banner_url"),
		BotStatus:            strings.ToLower(v.GetString("bot_status")),
	}
	if err := validate.Struct(flat); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	defaults := model.GuildConfig{
		SupportChannelID: v.GetString("support_channel_id"),
		LogsChannelID:    v.GetString("logs_channel_id"),
		MentionRoleID:    v.GetString("mention_role_id"),
		AdminRoleID:      v.GetString("admin_role_id"),
		OwnerUserID:      v.GetString("owner_user_id"),
		VoiceChannelID:   v.GetString("voice_channel_id"),
		Language:         flat.Language,
		EmbedColor:       utils.NormalizeHexColor(flat.EmbedColor),
		BannerURL:        flat.BannerURL,
		SupportLabel:     v.GetString("support_label"),
		IdleCloseMinutes: flat.IdleCloseMinutes,
		WaitingThreshold: flat.WaitingThreshold,
		BotStatus:        flat.BotStatus,
		BotActivity:      v.GetString("bot_activity"),
	}.Apply(&model.GuildConfigPatch{SupportRoleIDs: splitIDs(v.GetString("support_role_id"))})

	guilds := make(map[string]model.GuildConfigPatch)
	if err := v.UnmarshalKey("guilds", &guilds); err != nil {
		return nil, fmt.Errorf("decode guild overrides: %w", err)
	}
	for guildID, override := range guilds {
		if err := ValidatePatch(override); err != nil {
			return nil, fmt.Errorf("guild %s: %w", guildID, err)
		}
	}

	return &model.Config{
		BotToken:             flat.Token,
		LogChannelID:         v.GetString("log_channel_id"),
		DataFile:             flat.DataFile,
		AuditDBPath:          flat.AuditDB,
		PrimaryGuildID:       v.GetString("primary_guild_id"),
		MaxMessagesPerMinute: flat.MaxMessagesPerMinute,
		MaxTicketsPerDay:     flat.MaxTicketsPerDay,
		SetupTimeoutMinutes:  flat.SetupTimeoutMinutes,
		RemoveDataAfterDays:  flat.RemoveDataAfterDays,
		Defaults:             defaults,
		Guilds:               guilds,
	}, nil
}

// Watch reloads the configuration whenever the file at path changes and
// hands every valid result to onChange. Invalid edits are logged and
// skipped. It does nothing when there is no file to watch.
func Watch(path string, logger *zap.Logger, onChange func(*model.Config)) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	v, err := newViper(path)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(path)
		if err != nil {
			logger.Warn("Ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		logger.Info("Configuration reloaded", zap.String("file", e.Name))
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
