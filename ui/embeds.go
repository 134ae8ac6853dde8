package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"support-bot/model"
	"support-bot/platform"
	"support-bot/utils"
)

const embedFieldLimit = 1024

func withBanner(e *discordgo.MessageEmbed, cfg model.GuildConfig) *discordgo.MessageEmbed {
	if cfg.BannerURL != "" {
		e.Image = &discordgo.MessageEmbedImage{URL: cfg.BannerURL}
	}
	return e
}

func field(name, value string) *discordgo.MessageEmbedField {
	if value == "" {
		value = "-"
	}
	if len(value) > embedFieldLimit {
		value = value[:embedFieldLimit-3] + "..."
	}
	return &discordgo.MessageEmbedField{Name: name, Value: value}
}

func stamp(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return utils.DiscordTime(model.FromMillis(ms))
}

func rfc3339(ms int64) string {
	if ms == 0 {
		return time.Now().Format(time.RFC3339)
	}
	return model.FromMillis(ms).Format(time.RFC3339)
}

func roleMentions(cfg model.GuildConfig) string {
	if cfg.SupportRoleIDs == nil || cfg.SupportRoleIDs.Cardinality() == 0 {
		return "Server management"
	}
	ids := cfg.SupportRoleIDs.ToSlice()
	sort.Strings(ids)
	mentions := make([]string, len(ids))
	for i, id := range ids {
		mentions[i] = "<@&" + id + ">"
	}
	return strings.Join(mentions, " ")
}

func userLine(t model.Ticket) string {
	return fmt.Sprintf("%s (%s)", t.UserTag, t.UserID)
}

// WelcomeEmbed opens the intake conversation.
func WelcomeEmbed(locale string, cfg model.GuildConfig) *discordgo.MessageEmbed {
	text := Text(locale)
	return withBanner(&discordgo.MessageEmbed{
		Title:       text.TicketPromptTitle,
		Description: text.TicketPromptBody,
		Color:       0x2f3136,
	}, cfg)
}

// LanguagePromptEmbed goes with the language buttons.
func LanguagePromptEmbed(locale string, cfg model.GuildConfig) *discordgo.MessageEmbed {
	e := WelcomeEmbed(locale, cfg)
	text := Text(locale)
	e.Title = text.ChooseLanguageTitle
	e.Description = text.ChooseLanguageBody
	return e
}

// AwaitingEmbed tells the user roughly how long they will wait.
func AwaitingEmbed(locale string, etaMinutes int, cfg model.GuildConfig) *discordgo.MessageEmbed {
	text := Text(locale)
	return withBanner(&discordgo.MessageEmbed{
		Title:       text.AwaitingTitle,
		Description: Fill(text.AwaitingBody, "eta", utils.FormatEta(etaMinutes)),
		Color:       0x2f3136,
	}, cfg)
}

// TicketEmbed is the staff-facing summary pinned at the top of the thread.
func TicketEmbed(t model.Ticket, cfg model.GuildConfig) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		field("User", fmt.Sprintf("%s\n`%s`", t.UserTag, t.UserID)),
		field("Status", strings.ToUpper(string(t.Status))),
		field("Reason", t.Reason),
		field("Language", t.Language),
		field("Ticket Number", fmt.Sprintf("#%d", t.Number)),
		field("Opened At", stamp(t.OpenedAt)),
	}
	if t.ClosedAt != 0 {
		fields = append(fields, field("Closed At", stamp(t.ClosedAt)))
	}
	fields = append(fields,
		field("Access", roleMentions(cfg)),
		field("Claimed By", t.ClaimedByTag),
		field("Closed By", t.ClosedByTag),
	)
	return withBanner(&discordgo.MessageEmbed{
		Title:       "Ticket " + t.ID,
		Description: "```\nOfficial Ticket Details\n```",
		Color:       utils.ResolveEmbedColor(cfg.EmbedColor, utils.ColorPrimary),
		Fields:      fields,
		Timestamp:   rfc3339(t.OpenedAt),
	}, cfg)
}

// UserMessageEmbed relays a user's DM into the staff thread.
func UserMessageEmbed(u platform.User, content string, at time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: fmt.Sprintf("%s (%s)", u.Tag, u.ID), IconURL: u.AvatarURL},
		Description: content,
		Timestamp:   at.Format(time.RFC3339),
	}
}

// ClosedEmbed is the summary DM'd to the user on close, above the rating buttons.
func ClosedEmbed(locale string, t model.Ticket, cfg model.GuildConfig) *discordgo.MessageEmbed {
	text := Text(locale)
	minutes := 1
	if t.ClosedAt != 0 {
		minutes = max(1, int((t.ClosedAt-t.OpenedAt+30_000)/60_000))
	}
	fields := []*discordgo.MessageEmbedField{
		field(text.ClosedEmbedTicketID, fmt.Sprintf("#%d", t.Number)),
		field(text.ClosedEmbedIssueSolved, fmt.Sprintf("%d %s", minutes, text.ClosedEmbedDurationUnit)),
	}
	if t.CloseReason != "" {
		fields = append(fields, field(text.CloseReason, t.CloseReason))
	}
	fields = append(fields,
		field(text.ClosedEmbedComplaint, fmt.Sprintf("#%d", t.Number)),
		field(text.ClosedEmbedRate, text.ClosedEmbedRateValue),
	)
	return withBanner(&discordgo.MessageEmbed{
		Title:       text.ClosedEmbedTitle,
		Description: text.ClosedEmbedThanks,
		Color:       utils.RandomColor(),
		Fields:      fields,
		Timestamp:   rfc3339(t.ClosedAt),
	}, cfg)
}

// ClosedControlsEmbed goes above the transcript and delete buttons in the thread.
func ClosedControlsEmbed(locale string, t model.Ticket, cfg model.GuildConfig) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       "Closed Ticket Controls",
		Description: "Use the buttons below to save a transcript or delete the ticket.",
		Color:       utils.RandomColor(),
		Fields: []*discordgo.MessageEmbedField{
			field("Ticket ID", fmt.Sprintf("#%d", t.Number)),
			field("Status", strings.ToUpper(string(t.Status))),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if locale == LangArabic {
		e.Title = "لوحة التحكم بالتذكرة المغلقة"
		e.Description = "استخدم الأزرار أدناه لحفظ نسخة المحادثة أو حذف التذكرة."
		e.Fields[0].Name = "معرف التذكرة"
		e.Fields[1].Name = "الحالة"
	}
	return withBanner(e, cfg)
}

type logLabels struct {
	ticketID, user, status, closeReason, openedAt, firstResponse, closedAt string
	rating, feedback, notRated, none, notSpecified, savedBy                string
}

var logText = map[string]logLabels{
	LangEnglish: {
		ticketID: "Ticket ID", user: "User", status: "Status", closeReason: "Close Reason",
		openedAt: "Opened At", firstResponse: "Claimed/First Response", closedAt: "Closed At",
		rating: "Rating", feedback: "Feedback", notRated: "Not rated", none: "None",
		notSpecified: "Not specified", savedBy: "Saved By",
	},
	LangArabic: {
		ticketID: "رقم التذكرة", user: "المستخدم", status: "الحالة", closeReason: "سبب الإغلاق",
		openedAt: "فتحت في", firstResponse: "تم الاستلام في", closedAt: "أغلقت في",
		rating: "التقييم", feedback: "الملاحظات", notRated: "لم يتم التقييم", none: "لا توجد",
		notSpecified: "غير محدد", savedBy: "من حفظ النسخة",
	},
}

func labels(locale string) logLabels {
	return logText[Locale(locale)]
}

func ratingValue(t model.Ticket, l logLabels) string {
	if t.Rating == 0 {
		return l.notRated
	}
	return fmt.Sprint(t.Rating)
}

func feedbackValue(t model.Ticket, l logLabels) string {
	if t.Feedback == "" {
		return l.none
	}
	return t.Feedback
}

// TicketLogEmbed is the full record of a ticket in the logs channel.
func TicketLogEmbed(t model.Ticket, locale string) *discordgo.MessageEmbed {
	l := labels(locale)
	title := "Ticket Saved"
	if Locale(locale) == LangArabic {
		title = "حفظ التكت"
	}
	closeReason := t.CloseReason
	if closeReason == "" {
		closeReason = l.notSpecified
	}
	firstResponse := t.ClaimedAt
	if firstResponse == 0 {
		firstResponse = t.FirstResponseAt
	}
	return &discordgo.MessageEmbed{
		Title: title,
		Color: utils.RandomColor(),
		Fields: []*discordgo.MessageEmbedField{
			field(l.ticketID, fmt.Sprintf("#%d", t.Number)),
			field(l.user, userLine(t)),
			field(l.status, strings.ToUpper(string(t.Status))),
			field(l.closeReason, closeReason),
			field(l.openedAt, stamp(t.OpenedAt)),
			field(l.firstResponse, stamp(firstResponse)),
			field(l.closedAt, stamp(t.ClosedAt)),
			field(l.rating, ratingValue(t, l)),
			field(l.feedback, feedbackValue(t, l)),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// RatingLogEmbed is posted when a rating arrives and no transcript message
// exists to update.
func RatingLogEmbed(t model.Ticket, locale string) *discordgo.MessageEmbed {
	l := labels(locale)
	title := "Rating Saved"
	if Locale(locale) == LangArabic {
		title = "تم حفظ التقييم"
	}
	return &discordgo.MessageEmbed{
		Title: title,
		Color: utils.RandomColor(),
		Fields: []*discordgo.MessageEmbedField{
			field(l.ticketID, fmt.Sprintf("#%d", t.Number)),
			field(l.user, userLine(t)),
			field(l.rating, ratingValue(t, l)),
			field(l.feedback, feedbackValue(t, l)),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// FeedbackEmbed is posted when written feedback arrives and no transcript
// message exists to update.
func FeedbackEmbed(t model.Ticket) *discordgo.MessageEmbed {
	rating := "-"
	if t.Rating != 0 {
		rating = fmt.Sprint(t.Rating)
	}
	return &discordgo.MessageEmbed{
		Title: "Ticket Feedback",
		Color: utils.RandomColor(),
		Fields: []*discordgo.MessageEmbedField{
			field("Ticket", fmt.Sprintf("#%d", t.Number)),
			field("User", userLine(t)),
			field("Rating", rating),
			field("Feedback", t.Feedback),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// TranscriptEmbed accompanies the HTML transcript attachment.
func TranscriptEmbed(t model.Ticket, locale string, cfg model.GuildConfig) *discordgo.MessageEmbed {
	l := labels(locale)
	e := &discordgo.MessageEmbed{
		Title:       "Transcript Saved",
		Description: "The transcript for this ticket has been saved.",
		Color:       utils.RandomColor(),
		Fields: []*discordgo.MessageEmbedField{
			field(l.ticketID, fmt.Sprintf("#%d", t.Number)),
			field(l.user, userLine(t)),
			field(l.status, strings.ToUpper(string(t.Status))),
			field(l.rating, ratingValue(t, l)),
			field(l.feedback, feedbackValue(t, l)),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if Locale(locale) == LangArabic {
		e.Title = "نسخة المحادثة محفوظة"
		e.Description = "تم حفظ نسخة المحادثة الخاصة بهذه التذكرة."
	}
	if t.LogTranscriptSavedByTag != "" && t.LogTranscriptSavedByID != "" {
		e.Fields = append(e.Fields, field(l.savedBy, fmt.Sprintf("%s (%s)", t.LogTranscriptSavedByTag, t.LogTranscriptSavedByID)))
	}
	return withBanner(e, cfg)
}

// BulkCloseEmbed announces /close-all in the logs channel.
func BulkCloseEmbed(cfg model.GuildConfig, actor platform.User, total int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Bulk Ticket Close",
		Description: "All open tickets were closed and logged.",
		Color:       utils.ResolveEmbedColor(cfg.EmbedColor, utils.ColorWarning),
		Fields: []*discordgo.MessageEmbedField{
			field("Reason", "Bulk close all tickets"),
			field("Executed By", fmt.Sprintf("%s (%s)", actor.Tag, actor.ID)),
			field("Total Open Tickets", fmt.Sprint(total)),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// ConfigSummary renders /config show.
func ConfigSummary(cfg model.GuildConfig) string {
	orNotSet := func(v, format string) string {
		if v == "" {
			return "Not set"
		}
		return fmt.Sprintf(format, v)
	}
	supportRoles := "Not set"
	if cfg.SupportRoleIDs != nil && cfg.SupportRoleIDs.Cardinality() > 0 {
		supportRoles = roleMentions(cfg)
	}
	status := cfg.BotStatus
	if status == "" {
		status = "online"
	}
	lines := []string{
		"Support channel: " + orNotSet(cfg.SupportChannelID, "<#%s>"),
		"Logs channel: " + orNotSet(cfg.LogsChannelID, "<#%s>"),
		"Support role: " + supportRoles,
		"Admin role: " + orNotSet(cfg.AdminRoleID, "<@&%s>"),
		"Owner user: " + orNotSet(cfg.OwnerUserID, "<@%s>"),
		"Mention role: " + orNotSet(cfg.MentionRoleID, "<@&%s>"),
		"Voice channel: " + orNotSet(cfg.VoiceChannelID, "<#%s>"),
		"Bot status: " + status,
		"Language: " + cfg.Language,
		"Embed color: " + utils.NormalizeHexColor(cfg.EmbedColor),
		"Banner URL: " + orNotSet(cfg.BannerURL, "%s"),
		fmt.Sprintf("Idle close: %d minutes", cfg.IdleCloseMinutes),
		fmt.Sprintf("Waiting threshold: %d", cfg.WaitingThreshold),
	}
	return strings.Join(lines, "\n")
}
