package ui

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"support-bot/model"
	"support-bot/utils"
)

// Component custom IDs. Parameterised ones carry a value after a colon.
const (
	IDClose          = "ticket_close"
	IDCloseReason    = "ticket_close_reason"
	IDCloseRequest   = "ticket_close_request"
	IDCloseConfirm   = "ticket_close_confirm"
	IDCloseCancel    = "ticket_close_cancel"
	IDClaim          = "ticket_claim"
	IDTranscript     = "ticket_transcript"
	IDDeleteRequest  = "ticket_delete_request"
	IDDeleteConfirm  = "ticket_delete_confirm"
	IDDeleteCancel   = "ticket_delete_cancel"
	PrefixLanguage   = "ticket_lang:"
	PrefixRate       = "ticket_rate:"
	PrefixFeedback   = "ticket_feedback:"
	PrefixCloseModal = "ticket_close_reason:"
	PrefixHistory    = "history_page:"

	FieldFeedback    = "feedback"
	FieldCloseReason = "close_reason"
)

// SplitID returns the value after the colon of a parameterised custom ID.
func SplitID(customID, prefix string) (string, bool) {
	if !strings.HasPrefix(customID, prefix) {
		return "", false
	}
	return strings.TrimPrefix(customID, prefix), true
}

func button(id, label string, style discordgo.ButtonStyle) discordgo.Button {
	return discordgo.Button{CustomID: id, Label: label, Style: style}
}

func row(buttons ...discordgo.MessageComponent) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: buttons}
}

// CloseRow is shown on open tickets in the staff thread.
func CloseRow() discordgo.ActionsRow {
	return row(
		button(IDClose, "Close", discordgo.DangerButton),
		button(IDCloseReason, "Close with Reason", discordgo.SecondaryButton),
	)
}

// DMCloseComponents lets the user close their own ticket.
func DMCloseComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		row(button(IDCloseRequest, "Close Ticket", discordgo.DangerButton)),
	}
}

// RatingComponents are the 1 to 5 buttons under the closed summary.
func RatingComponents() []discordgo.MessageComponent {
	styles := []discordgo.ButtonStyle{
		discordgo.DangerButton,
		discordgo.DangerButton,
		discordgo.SecondaryButton,
		discordgo.PrimaryButton,
		discordgo.SuccessButton,
	}
	buttons := make([]discordgo.MessageComponent, 0, len(styles))
	for i, style := range styles {
		n := strconv.Itoa(i + 1)
		buttons = append(buttons, button(PrefixRate+n, n, style))
	}
	return []discordgo.MessageComponent{row(buttons...)}
}

func CloseConfirmComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		row(
			button(IDCloseConfirm, "Confirm Close", discordgo.DangerButton),
			button(IDCloseCancel, "Cancel", discordgo.SecondaryButton),
		),
	}
}

func ClosedControlsComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		row(
			button(IDTranscript, "Transcript", discordgo.SecondaryButton),
			button(IDDeleteRequest, "Delete", discordgo.DangerButton),
		),
	}
}

func DeleteConfirmComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		row(
			button(IDDeleteConfirm, "Confirm Delete", discordgo.DangerButton),
			button(IDDeleteCancel, "Cancel", discordgo.SecondaryButton),
		),
	}
}

func LanguageComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		row(
			button(PrefixLanguage+LangArabic, "عربي", discordgo.PrimaryButton),
			button(PrefixLanguage+LangEnglish, "English", discordgo.SecondaryButton),
		),
	}
}

// ThreadComponents are the controls under the ticket summary: none once
// closed, no claim button once claimed.
func ThreadComponents(t model.Ticket) []discordgo.MessageComponent {
	if t.Status == model.StatusClosed {
		return nil
	}
	if t.ClaimedBy != "" {
		return []discordgo.MessageComponent{CloseRow()}
	}
	return []discordgo.MessageComponent{
		CloseRow(),
		row(button(IDClaim, "Claim", discordgo.SuccessButton)),
	}
}

// HistoryComponents pages through /ticket-history results.
func HistoryComponents(userID string, page, totalPages int) []discordgo.MessageComponent {
	return utils.PaginationComponents(page, totalPages, PrefixHistory, userID)
}

func textModal(customID, title, fieldID, label string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: customID,
		Title:    title,
		Components: []discordgo.MessageComponent{
			row(discordgo.TextInput{
				CustomID:  fieldID,
				Label:     label,
				Style:     discordgo.TextInputParagraph,
				Required:  true,
				MaxLength: 1000,
			}),
		},
	}
}

// FeedbackModal asks for free text after a low rating.
func FeedbackModal(ticketID string) *discordgo.InteractionResponseData {
	return textModal(PrefixFeedback+ticketID, "Support Feedback", FieldFeedback, "What went wrong? How can we improve?")
}

// CloseReasonModal collects a free-text close reason for the ticket in threadID.
func CloseReasonModal(threadID string) *discordgo.InteractionResponseData {
	return textModal(PrefixCloseModal+threadID, "Close Ticket (Reason)", FieldCloseReason, "Reason for closing")
}

// ModalValue pulls a text input out of submitted modal rows.
func ModalValue(data discordgo.ModalSubmitInteractionData, fieldID string) string {
	for _, c := range data.Components {
		r, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range r.Components {
			if input, ok := inner.(*discordgo.TextInput); ok && input.CustomID == fieldID {
				return input.Value
			}
		}
	}
	return ""
}
