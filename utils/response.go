package utils

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Responder answers interactions and logs failures instead of returning them.
type Responder struct {
	Session *discordgo.Session
	Logger  *zap.Logger
}

func (r Responder) respond(i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse, what string) {
	if err := r.Session.InteractionRespond(i.Interaction, resp); err != nil {
		r.Logger.Warn("Interaction response failed", zap.String("kind", what), zap.Error(err))
	}
}

// SendEphemeral sends an ephemeral message.
func (r Responder) SendEphemeral(i *discordgo.InteractionCreate, message string) {
	r.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, "ephemeral")
}

// SendEphemeralEmbed sends an ephemeral embed.
func (r Responder) SendEphemeralEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	r.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	}, "ephemeral embed")
}

// SendPublicResponse sends a visible message.
func (r Responder) SendPublicResponse(i *discordgo.InteractionCreate, message string) {
	r.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
		},
	}, "public")
}

// UpdateMessage rewrites the message a component is attached to.
func (r Responder) UpdateMessage(i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	r.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Components: components,
		},
	}, "update")
}

// ShowModal opens a modal in response to a component or command.
func (r Responder) ShowModal(i *discordgo.InteractionCreate, modal *discordgo.InteractionResponseData) {
	r.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: modal,
	}, "modal")
}

// DeferUpdate acknowledges a component without changing its message.
func (r Responder) DeferUpdate(i *discordgo.InteractionCreate) {
	r.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, "defer update")
}

// DeferResponse defers an interaction response, optionally making it ephemeral.
func (r Responder) DeferResponse(i *discordgo.InteractionCreate, ephemeral bool) {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		response.Data = &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		}
	}
	r.respond(i, response, "defer")
}

// SendFollowUp edits the deferred response.
func (r Responder) SendFollowUp(i *discordgo.InteractionCreate, message string) {
	if _, err := r.Session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &message,
	}); err != nil {
		r.Logger.Warn("Follow-up edit failed", zap.Error(err))
	}
}

// SendFollowUpEphemeral posts an extra ephemeral message after a deferred update.
func (r Responder) SendFollowUpEphemeral(i *discordgo.InteractionCreate, message string) {
	if _, err := r.Session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: message,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); err != nil {
		r.Logger.Warn("Follow-up message failed", zap.Error(err))
	}
}

// UpdateEmbed rewrites the message a component is attached to with an embed.
func (r Responder) UpdateEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	r.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	}, "update embed")
}

// EditResponse replaces the content and components of a deferred response.
func (r Responder) EditResponse(i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	if _, err := r.Session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	}); err != nil {
		r.Logger.Warn("Response edit failed", zap.Error(err))
	}
}

// SendEmbedResponse sends a visible embed with components.
func (r Responder) SendEmbedResponse(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) {
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	r.respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, "embed")
}
