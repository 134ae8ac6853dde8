package handlers

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/bot"
	"support-bot/handlers/admin"
	"support-bot/model"
	"support-bot/platform"
	"support-bot/ui"
	"support-bot/utils"
)

const notAllowed = "Not allowed."

// handler carries what every event callback needs.
type handler struct {
	b      *bot.Bot
	admin  *admin.Manager
	reply  utils.Responder
	logger *zap.Logger
}

func Register(b *bot.Bot) {
	h := &handler{
		b:      b,
		admin:  admin.NewManager(b.Store, b.Audit, b.Logger.Named("admin")),
		reply:  utils.Responder{Session: b.Session, Logger: b.Logger},
		logger: b.Logger.Named("handlers"),
	}
	b.CommandHandlers = commandHandlers(h)
	addHandlers(b, h)
}

type commandFunc func(s *discordgo.Session, i *discordgo.InteractionCreate)

func commandHandlers(h *handler) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	manager := func(fn commandFunc) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if !h.isManager(i) {
				h.reply.SendEphemeral(i, notAllowed)
				return
			}
			fn(s, i)
		}
	}
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"setup":          manager(h.handleSetup),
		"set-admin-role": manager(h.handleSetAdminRole),
		"config":         manager(h.handleConfig),
		"blacklist":      manager(h.handleBlacklist),
		"tempblacklist":  manager(h.handleTempBlacklist),
		"toprank":        manager(h.handleTopRank),
		"purge-user":     manager(h.handlePurgeUser),
		"close-all":      manager(h.handleCloseAll),
		"voice":          manager(h.handleVoice),
		"bot-status":     manager(h.handleBotStatus),
		"ticket-history": manager(h.handleTicketHistory),
		"system-info":    manager(h.handleSystemInfo),
	}
}

func addHandlers(b *bot.Bot, h *handler) {
	b.Session.AddHandler(h.onReady)
	b.Session.AddHandler(h.onGuildCreate)
	b.Session.AddHandler(h.onGuildDelete)
	b.Session.AddHandler(h.onGuildMemberRemove)
	b.Session.AddHandler(h.onVoiceStateUpdate)
	b.Session.AddHandler(h.onMessageCreate)

	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			if fn, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
				if i.GuildID == "" {
					h.reply.SendEphemeral(i, "This command can only be used in a server.")
					return
				}
				fn(s, i)
			}
		case discordgo.InteractionMessageComponent:
			h.handleComponent(s, i)
		case discordgo.InteractionModalSubmit:
			h.handleModal(s, i)
		}
	})
}

// interactionUser returns the invoking user for guild and DM interactions.
func interactionUser(i *discordgo.InteractionCreate) platform.User {
	if i.Member != nil && i.Member.User != nil {
		return platform.UserFrom(i.Member.User)
	}
	return platform.UserFrom(i.User)
}

func (h *handler) guildConfig(i *discordgo.InteractionCreate) model.GuildConfig {
	return h.b.Store.GuildConfig(i.GuildID)
}

func (h *handler) isManager(i *discordgo.InteractionCreate) bool {
	return i.GuildID != "" && utils.IsManager(utils.MemberFromInteraction(i.Member), h.guildConfig(i))
}

func (h *handler) isSupport(i *discordgo.InteractionCreate) bool {
	return i.GuildID != "" && utils.IsSupport(utils.MemberFromInteraction(i.Member), h.guildConfig(i))
}

// guildIcon is the avatar staff messages carry in transcripts.
func (h *handler) guildIcon(guildID string) string {
	g, err := h.b.Session.State.Guild(guildID)
	if err != nil || g == nil {
		return ""
	}
	return g.IconURL("64")
}

// options flattens the options of a command or of its subcommand.
func options(i *discordgo.InteractionCreate) (string, map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	data := i.ApplicationCommandData()
	opts := data.Options
	sub := ""
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		sub = opts[0].Name
		opts = opts[0].Options
	}
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return sub, m
}

// idOption returns the snowflake value of a user, role or channel option.
func idOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	opt, ok := opts[name]
	if !ok {
		return nil
	}
	id, _ := opt.Value.(string)
	if id == "" {
		return nil
	}
	return &id
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *string {
	opt, ok := opts[name]
	if !ok {
		return nil
	}
	v := strings.TrimSpace(opt.StringValue())
	if v == "" {
		return nil
	}
	return &v
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) *int {
	opt, ok := opts[name]
	if !ok {
		return nil
	}
	v := int(opt.IntValue())
	return &v
}

// ConfigPatchFromOptions builds the stored override from /setup or /config
// set options. Absent options stay nil.
func ConfigPatchFromOptions(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) model.GuildConfigPatch {
	p := model.GuildConfigPatch{
		SupportChannelID: idOption(opts, "support_channel"),
		LogsChannelID:    idOption(opts, "logs_channel"),
		MentionRoleID:    idOption(opts, "mention_role"),
		AdminRoleID:      idOption(opts, "admin_role"),
		Language:         stringOption(opts, "language"),
		EmbedColor:       stringOption(opts, "embed_color"),
		BannerURL:        stringOption(opts, "banner_url"),
		IdleCloseMinutes: intOption(opts, "idle_close_minutes"),
		WaitingThreshold: intOption(opts, "waiting_threshold"),
	}
	if role := idOption(opts, "support_role"); role != nil {
		p.SupportRoleIDs = []string{*role}
	}
	if p.Language != nil {
		lang := ui.Locale(strings.ToLower(*p.Language))
		p.Language = &lang
	}
	return p
}
