// Package platform is the narrow set of chat operations the ticket code needs.
// Discord implements it over a discordgo session; platformtest fakes it.
package platform

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
)

// ErrUnavailable is returned when a call cannot reach the platform at all.
var ErrUnavailable = errors.New("platform unavailable")

type User struct {
	ID        string
	Tag       string
	AvatarURL string
	Bot       bool
}

// Member is a guild member as far as permission checks care.
type Member struct {
	UserID      string
	Roles       []string
	Permissions int64
}

func (m Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func (m Member) Can(perm int64) bool {
	return m.Permissions&discordgo.PermissionAdministrator != 0 || m.Permissions&perm == perm
}

// MessageRef locates a sent message.
type MessageRef struct {
	ChannelID string
	MessageID string
}

func (r MessageRef) IsZero() bool { return r.MessageID == "" }

// Message is an outgoing payload. On Edit, an empty Content leaves the text as
// it was, while Components always replaces the existing rows.
type Message struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	Files      []*discordgo.File
}

type Gateway interface {
	SendDM(ctx context.Context, userID string, msg Message) (MessageRef, error)
	DeleteDM(ctx context.Context, userID, messageID string) error
	Send(ctx context.Context, channelID string, msg Message) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, msg Message) error
	Delete(ctx context.Context, ref MessageRef) error

	// CreateThread opens a public thread under channelID and returns its id.
	CreateThread(ctx context.Context, channelID, name string) (string, error)
	// CloseThread locks and archives a thread.
	CloseThread(ctx context.Context, threadID string) error
	DeleteChannel(ctx context.Context, channelID string) error

	FetchUser(ctx context.Context, userID string) (User, error)
	// OnlineSupportCount counts online members holding any of roleIDs, or
	// holding Manage Server when roleIDs is empty.
	OnlineSupportCount(ctx context.Context, guildID string, roleIDs []string) (int, error)
	MemberPermissions(ctx context.Context, guildID, userID string) (Member, error)
}
