package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"support-bot/handlers/admin"
	"support-bot/model"
	"support-bot/pending"
	"support-bot/tickets"
	"support-bot/ui"
	"support-bot/utils"
)

const (
	closingTicket  = "Closing ticket..."
	ticketNotFound = "Ticket not found."
)

// userLocale is the language of the user's pending conversation, Arabic when
// there is none.
func (h *handler) userLocale(userID string) string {
	if entry, ok := h.b.Flow.Registry().Get(userID); ok {
		return ui.Locale(entry.Locale())
	}
	return ui.LangArabic
}

func (h *handler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	if lang, ok := ui.SplitID(customID, ui.PrefixLanguage); ok {
		h.handleLanguage(i, lang)
		return
	}
	if value, ok := ui.SplitID(customID, ui.PrefixRate); ok {
		h.handleRate(i, value)
		return
	}
	if value, ok := ui.SplitID(customID, ui.PrefixHistory); ok {
		h.handleHistoryPage(i, value)
		return
	}

	switch customID {
	case ui.IDClose:
		h.handleCloseButton(i)
	case ui.IDCloseReason:
		h.handleCloseReasonButton(i)
	case ui.IDCloseRequest:
		h.reply.UpdateMessage(i, "Are you sure you want to close?", ui.CloseConfirmComponents())
	case ui.IDCloseConfirm:
		h.handleCloseConfirm(i)
	case ui.IDCloseCancel:
		h.handleCloseCancel(i)
	case ui.IDClaim:
		h.handleClaim(i)
	case ui.IDTranscript:
		h.handleTranscript(i)
	case ui.IDDeleteRequest, ui.IDDeleteConfirm, ui.IDDeleteCancel:
		h.handleDelete(i, customID)
	default:
		h.logger.Debug("Unknown component", zap.String("custom_id", customID))
	}
}

func (h *handler) handleLanguage(i *discordgo.InteractionCreate, lang string) {
	user := interactionUser(i)
	err := h.b.Flow.SelectLanguage(context.Background(), user, lang)
	switch {
	case errors.Is(err, pending.ErrNotActive):
		h.reply.SendEphemeral(i, ui.Text(ui.LangArabic).InvalidChoice)
	case err != nil:
		h.logger.Error("Language selection failed", zap.String("user", user.ID), zap.Error(err))
		h.reply.SendEphemeral(i, ui.Text(ui.Locale(lang)).InvalidChoice)
	default:
		h.reply.SendEphemeral(i, "Updated.")
	}
}

func (h *handler) handleRate(i *discordgo.InteractionCreate, value string) {
	user := interactionUser(i)
	locale := h.userLocale(user.ID)
	text := ui.Text(locale)
	rating, err := strconv.Atoi(value)
	if err != nil {
		h.reply.SendEphemeral(i, text.InvalidRating)
		return
	}
	ctx := context.Background()

	// A low rating answers with the feedback modal, which must be the first
	// response to the interaction.
	if rating >= 1 && rating <= pending.LowRating {
		_, ticketID, err := h.b.Flow.Rate(ctx, user.ID, rating)
		if err != nil {
			h.rateFailed(i, user.ID, text, err, false)
			return
		}
		h.reply.ShowModal(i, ui.FeedbackModal(ticketID))
		return
	}

	h.reply.DeferUpdate(i)
	if _, _, err := h.b.Flow.Rate(ctx, user.ID, rating); err != nil {
		h.rateFailed(i, user.ID, text, err, true)
		return
	}
	h.reply.EditResponse(i, text.Thanks, nil)
}

func (h *handler) rateFailed(i *discordgo.InteractionCreate, userID string, text *ui.Messages, err error, deferred bool) {
	msg := text.NotActive
	switch {
	case errors.Is(err, pending.ErrInvalidRating):
		msg = text.InvalidRating
	case errors.Is(err, pending.ErrNotActive):
	default:
		h.logger.Error("Rating failed", zap.String("user", userID), zap.Error(err))
		msg = ticketNotFound
	}
	if deferred {
		h.reply.SendFollowUpEphemeral(i, msg)
		return
	}
	h.reply.SendEphemeral(i, msg)
}

// threadTicket returns the ticket behind the thread the interaction came from.
func (h *handler) threadTicket(i *discordgo.InteractionCreate) (model.Ticket, bool) {
	if i.GuildID == "" {
		return model.Ticket{}, false
	}
	return h.b.Store.TicketByThread(i.GuildID, i.ChannelID)
}

func (h *handler) handleCloseButton(i *discordgo.InteractionCreate) {
	if !h.isSupport(i) {
		h.reply.SendEphemeral(i, notAllowed)
		return
	}
	t, ok := h.threadTicket(i)
	if !ok || !t.IsOpen() {
		h.reply.SendEphemeral(i, ticketNotFound)
		return
	}
	h.reply.UpdateMessage(i, "Are you sure you want to close this ticket?", ui.CloseConfirmComponents())
}

func (h *handler) handleCloseReasonButton(i *discordgo.InteractionCreate) {
	if !h.isSupport(i) {
		h.reply.SendEphemeral(i, notAllowed)
		return
	}
	h.reply.ShowModal(i, ui.CloseReasonModal(i.ChannelID))
}

func (h *handler) handleCloseConfirm(i *discordgo.InteractionCreate) {
	ctx := context.Background()
	user := interactionUser(i)

	if i.GuildID != "" {
		if _, ok := h.threadTicket(i); !ok {
			h.reply.UpdateMessage(i, ticketNotFound, nil)
			return
		}
		if !h.isSupport(i) {
			h.reply.SendEphemeral(i, notAllowed)
			return
		}
		h.reply.UpdateMessage(i, closingTicket, nil)
		if err := h.b.Tickets.CloseByThread(ctx, i.GuildID, i.ChannelID, model.CloseStaff, user); err != nil && !tickets.Expected(err) {
			h.logger.Error("Staff close failed", zap.String("thread", i.ChannelID), zap.Error(err))
		}
		return
	}

	guildID := h.b.PrimaryGuildID()
	t, ok := h.b.Store.Ticket(guildID, user.ID)
	if guildID == "" || !ok || !t.IsOpen() {
		h.reply.UpdateMessage(i, ui.Text(h.userLocale(user.ID)).NotActive, nil)
		return
	}
	h.reply.UpdateMessage(i, closingTicket, nil)
	err := h.b.Tickets.Close(ctx, tickets.CloseRequest{
		GuildID:  guildID,
		UserID:   user.ID,
		Reason:   model.CloseUser,
		ClosedBy: user,
	})
	if err != nil && !tickets.Expected(err) {
		h.logger.Error("User close failed", zap.String("user", user.ID), zap.Error(err))
	}
}

func (h *handler) handleCloseCancel(i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		h.reply.UpdateMessage(i, "Close cancelled.", ui.DMCloseComponents())
		return
	}
	t, ok := h.threadTicket(i)
	if !ok {
		h.reply.UpdateMessage(i, "Close cancelled.", nil)
		return
	}
	h.reply.UpdateMessage(i, "Close cancelled.", ui.ThreadComponents(t))
}

func (h *handler) handleClaim(i *discordgo.InteractionCreate) {
	h.reply.DeferUpdate(i)
	user := interactionUser(i)
	err := h.b.Tickets.Claim(context.Background(), i.GuildID, i.ChannelID, user, utils.MemberFromInteraction(i.Member))
	switch {
	case err == nil:
		h.reply.SendFollowUpEphemeral(i, "Claimed.")
	case errors.Is(err, tickets.ErrNotAuthorized):
		h.reply.SendFollowUpEphemeral(i, notAllowed)
	case errors.Is(err, tickets.ErrAlreadyClaimed):
		h.reply.SendFollowUpEphemeral(i, "This ticket is already claimed.")
	case errors.Is(err, tickets.ErrNotFound), errors.Is(err, tickets.ErrTicketClosed):
		h.reply.SendFollowUpEphemeral(i, ticketNotFound)
	case errors.Is(err, tickets.ErrUserUnreachable):
		h.reply.SendFollowUpEphemeral(i, "The user could not be reached. The ticket was closed.")
	default:
		h.logger.Error("Claim failed", zap.String("thread", i.ChannelID), zap.Error(err))
		h.reply.SendFollowUpEphemeral(i, "Claim failed.")
	}
}

func (h *handler) handleTranscript(i *discordgo.InteractionCreate) {
	h.reply.DeferUpdate(i)
	user := interactionUser(i)
	err := h.b.Tickets.SaveTranscript(context.Background(), i.GuildID, i.ChannelID, user, utils.MemberFromInteraction(i.Member))
	switch {
	case err == nil:
		h.reply.SendFollowUpEphemeral(i, "Transcript saved.")
	case errors.Is(err, tickets.ErrNotAuthorized):
		h.reply.SendFollowUpEphemeral(i, notAllowed)
	case errors.Is(err, tickets.ErrNotFound):
		h.reply.SendFollowUpEphemeral(i, ticketNotFound)
	default:
		h.logger.Error("Transcript failed", zap.String("thread", i.ChannelID), zap.Error(err))
		h.reply.SendFollowUpEphemeral(i, "Failed to save transcript.")
	}
}

func (h *handler) handleDelete(i *discordgo.InteractionCreate, customID string) {
	if !h.isManager(i) {
		h.reply.SendEphemeral(i, notAllowed)
		return
	}
	switch customID {
	case ui.IDDeleteRequest:
		h.reply.UpdateMessage(i, "This ticket will be deleted in 10 seconds. Confirm?", ui.DeleteConfirmComponents())
	case ui.IDDeleteCancel:
		h.reply.UpdateMessage(i, "Delete cancelled.", ui.ClosedControlsComponents())
	case ui.IDDeleteConfirm:
		h.reply.DeferUpdate(i)
		h.reply.SendFollowUpEphemeral(i, "Deleting ticket in 10 seconds.")
		if err := h.b.Tickets.ScheduleThreadDeletion(context.Background(), i.ChannelID); err != nil {
			h.logger.Error("Failed to schedule thread deletion", zap.String("thread", i.ChannelID), zap.Error(err))
		}
	}
}

// handleHistoryPage turns a /ticket-history page. value is "<page>:<userID>".
func (h *handler) handleHistoryPage(i *discordgo.InteractionCreate, value string) {
	if !h.isManager(i) {
		h.reply.SendEphemeral(i, notAllowed)
		return
	}
	pageText, userID, ok := strings.Cut(value, ":")
	page, err := strconv.Atoi(pageText)
	if !ok || err != nil || userID == "" {
		h.reply.SendEphemeral(i, "Invalid page.")
		return
	}
	embed, components, err := h.historyPage(i.GuildID, userID, page)
	if err != nil {
		h.logger.Error("History lookup failed", zap.String("user", userID), zap.Error(err))
		h.reply.SendEphemeral(i, "Failed to load history.")
		return
	}
	h.reply.UpdateEmbed(i, embed, components)
}

func (h *handler) historyPage(guildID, userID string, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent, error) {
	ctx := context.Background()
	total, err := h.b.Audit.CountHistory(ctx, guildID, userID)
	if err != nil {
		return nil, nil, err
	}
	pages := admin.TotalPages(total, admin.HistoryPageSize)
	page = min(max(page, 1), pages)
	events, err := h.b.Audit.History(ctx, guildID, userID, admin.HistoryPageSize, (page-1)*admin.HistoryPageSize)
	if err != nil {
		return nil, nil, err
	}
	embed := admin.HistoryEmbed(userID, events, page, pages, total, h.b.Store.GuildConfig(guildID))
	return embed, ui.HistoryComponents(userID, page, pages), nil
}

func (h *handler) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	ctx := context.Background()
	user := interactionUser(i)

	if threadID, ok := ui.SplitID(data.CustomID, ui.PrefixCloseModal); ok {
		reason := ui.ModalValue(data, ui.FieldCloseReason)
		if reason == "" {
			reason = model.CloseStaff
		}
		if _, ok := h.b.Store.TicketByThread(i.GuildID, threadID); !ok {
			h.reply.SendEphemeral(i, ticketNotFound)
			return
		}
		if !h.isSupport(i) {
			h.reply.SendEphemeral(i, notAllowed)
			return
		}
		h.reply.UpdateMessage(i, closingTicket, nil)
		if err := h.b.Tickets.CloseByThread(ctx, i.GuildID, threadID, reason, user); err != nil && !tickets.Expected(err) {
			h.logger.Error("Close with reason failed", zap.String("thread", threadID), zap.Error(err))
		}
		return
	}

	if ticketID, ok := ui.SplitID(data.CustomID, ui.PrefixFeedback); ok {
		h.reply.DeferResponse(i, true)
		feedback := ui.ModalValue(data, ui.FieldFeedback)
		if err := h.b.Flow.SubmitFeedback(ctx, user.ID, ticketID, feedback); err != nil {
			if !errors.Is(err, tickets.ErrNotFound) {
				h.logger.Error("Feedback failed", zap.String("ticket", ticketID), zap.Error(err))
			}
			h.reply.SendFollowUp(i, ticketNotFound)
			return
		}
		h.reply.SendFollowUp(i, ui.Text(h.userLocale(user.ID)).Thanks)
	}
}
