package pending

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/platform"
	"support-bot/store"
	"support-bot/ui"
)

var (
	// ErrNotActive means the user has no entry at the step the event needs.
	ErrNotActive = errors.New("no active pending step")
	// ErrInvalidRating is returned for ratings outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// LowRating is the highest rating that asks for written feedback.
const LowRating = 2

// Intake is a completed intake conversation, ready to become a ticket.
type Intake struct {
	GuildID  string
	Language string
	Category string
	Reason   string
}

// Tickets is what the flow needs from the ticket lifecycle.
type Tickets interface {
	CreateFromIntake(ctx context.Context, user platform.User, intake Intake) error
	Rate(ctx context.Context, guildID, ticketID string, rating int) error
	SubmitFeedback(ctx context.Context, guildID, ticketID, feedback string) error
}

// Flow drives the pending state machine.
type Flow struct {
	registry *Registry
	gw       platform.Gateway
	store    *store.Store
	tickets  Tickets
	logger   *zap.Logger
	now      func() time.Time
}

func NewFlow(registry *Registry, gw platform.Gateway, st *store.Store, tickets Tickets, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		registry: registry,
		gw:       gw,
		store:    st,
		tickets:  tickets,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source; tests only.
func (f *Flow) SetClock(now func() time.Time) {
	f.now = now
}

func (f *Flow) Registry() *Registry {
	return f.registry
}

func (f *Flow) setupTimeout() time.Duration {
	minutes := 10
	if cfg := f.store.Settings(); cfg != nil && cfg.SetupTimeoutMinutes > 0 {
		minutes = cfg.SetupTimeoutMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (f *Flow) dm(ctx context.Context, userID string, msg platform.Message) {
	if _, err := f.gw.SendDM(ctx, userID, msg); err != nil {
		f.logger.Warn("pending dm failed", zap.String("user", userID), zap.Error(err))
	}
}

func (f *Flow) text(ctx context.Context, userID, content string) {
	f.dm(ctx, userID, platform.Message{Content: content})
}

// Start opens a new intake for the user, replacing any previous entry, and
// sends the welcome and language prompts.
func (f *Flow) Start(ctx context.Context, user platform.User, guildID string) error {
	entry := LanguageStep{
		GuildID:   guildID,
		Language:  ui.LangArabic,
		Category:  CategoryGeneral,
		ExpiresAt: f.now().Add(f.setupTimeout()),
	}
	f.registry.Set(user.ID, entry)

	cfg := f.store.GuildConfig(guildID)
	f.dm(ctx, user.ID, platform.Message{Embeds: []*discordgo.MessageEmbed{ui.WelcomeEmbed(entry.Language, cfg)}})
	return f.SendPrompt(ctx, user, entry)
}

// SendPrompt asks the question that belongs to the entry's step.
func (f *Flow) SendPrompt(ctx context.Context, user platform.User, e Entry) error {
	locale := ui.Locale(e.Locale())
	var msg platform.Message
	switch e.(type) {
	case LanguageStep:
		cfg := f.store.GuildConfig(e.Guild())
		msg = platform.Message{
			Embeds:     []*discordgo.MessageEmbed{ui.LanguagePromptEmbed(locale, cfg)},
			Components: ui.LanguageComponents(),
		}
	case ReasonStep:
		msg = platform.Message{Content: ui.Text(locale).AskReason}
	default:
		return nil
	}
	if _, err := f.gw.SendDM(ctx, user.ID, msg); err != nil {
		f.logger.Warn("pending prompt failed", zap.String("user", user.ID), zap.String("step", string(e.Step())), zap.Error(err))
		return err
	}
	return nil
}

// HandleMessage interprets a DM against the user's pending entry. It reports
// false when the user has no entry and the message should be routed elsewhere.
func (f *Flow) HandleMessage(ctx context.Context, user platform.User, content string) (bool, error) {
	entry, ok := f.registry.Get(user.ID)
	if !ok {
		return false, nil
	}
	text := ui.Text(entry.Locale())

	if Expired(entry, f.now()) {
		f.registry.Take(user.ID, entry)
		f.text(ctx, user.ID, text.SetupExpired)
		return true, nil
	}

	content = strings.TrimSpace(content)
	switch e := entry.(type) {
	case LanguageStep:
		f.text(ctx, user.ID, text.InvalidChoice)
		return true, nil

	case ReasonStep:
		if content == "" {
			f.text(ctx, user.ID, text.AskReason)
			return true, nil
		}
		if !f.registry.Take(user.ID, e) {
			return true, nil
		}
		return true, f.tickets.CreateFromIntake(ctx, user, Intake{
			GuildID:  e.GuildID,
			Language: e.Language,
			Category: e.Category,
			Reason:   content,
		})

	case RatingStep:
		rating, err := strconv.Atoi(content)
		if err != nil || rating < 1 || rating > 5 {
			f.text(ctx, user.ID, text.InvalidRating)
			return true, nil
		}
		needsFeedback, err := f.rate(ctx, user.ID, e, rating)
		if err != nil {
			return true, err
		}
		if needsFeedback {
			f.text(ctx, user.ID, text.AskFeedback)
		} else {
			f.text(ctx, user.ID, text.Thanks)
		}
		return true, nil

	case RatingFeedbackStep:
		if content == "" {
			f.text(ctx, user.ID, text.AskFeedback)
			return true, nil
		}
		if err := f.SubmitFeedback(ctx, user.ID, e.TicketID, content); err != nil {
			return true, err
		}
		f.text(ctx, user.ID, text.Thanks)
		return true, nil
	}
	return true, nil
}

// SelectLanguage handles a language button and moves the intake to the
// reason step.
func (f *Flow) SelectLanguage(ctx context.Context, user platform.User, lang string) error {
	entry, ok := f.registry.Get(user.ID)
	if !ok {
		return ErrNotActive
	}
	step, ok := entry.(LanguageStep)
	if !ok {
		return ErrNotActive
	}
	if Expired(step, f.now()) {
		f.registry.Take(user.ID, entry)
		f.text(ctx, user.ID, ui.Text(step.Language).SetupExpired)
		return ErrNotActive
	}
	next := ReasonStep{
		GuildID:   step.GuildID,
		Language:  ui.Locale(lang),
		Category:  step.Category,
		ExpiresAt: step.ExpiresAt,
	}
	if !f.registry.Swap(user.ID, entry, next) {
		return ErrNotActive
	}
	return f.SendPrompt(ctx, user, next)
}

// Rate handles a rating button. A low rating keeps the conversation open for
// feedback and reports needsFeedback with the ticket to collect it for.
func (f *Flow) Rate(ctx context.Context, userID string, rating int) (needsFeedback bool, ticketID string, err error) {
	if rating < 1 || rating > 5 {
		return false, "", ErrInvalidRating
	}
	entry, ok := f.registry.Get(userID)
	if !ok {
		return false, "", ErrNotActive
	}
	step, ok := entry.(RatingStep)
	if !ok {
		return false, "", ErrNotActive
	}
	needsFeedback, err = f.rate(ctx, userID, step, rating)
	return needsFeedback, step.TicketID, err
}

func (f *Flow) rate(ctx context.Context, userID string, step RatingStep, rating int) (bool, error) {
	if rating <= LowRating {
		next := RatingFeedbackStep{GuildID: step.GuildID, TicketID: step.TicketID, Language: step.Language}
		if !f.registry.Swap(userID, step, next) {
			return false, ErrNotActive
		}
	} else if !f.registry.Take(userID, step) {
		return false, ErrNotActive
	}
	if err := f.tickets.Rate(ctx, step.GuildID, step.TicketID, rating); err != nil {
		return false, err
	}
	return rating <= LowRating, nil
}

// SubmitFeedback stores written feedback for a ticket and ends the rating
// conversation. The ticket is looked up in every guild when the user has no
// matching entry, so a modal opened before a restart still lands.
func (f *Flow) SubmitFeedback(ctx context.Context, userID, ticketID, feedback string) error {
	guildID := ""
	if entry, ok := f.registry.Get(userID); ok {
		if step, ok := entry.(RatingFeedbackStep); ok && step.TicketID == ticketID {
			guildID = step.GuildID
		}
	}
	if err := f.tickets.SubmitFeedback(ctx, guildID, ticketID, strings.TrimSpace(feedback)); err != nil {
		return err
	}
	f.registry.Delete(userID)
	return nil
}
