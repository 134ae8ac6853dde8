package platform

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// threadArchiveMinutes is the auto-archive window of ticket threads.
const threadArchiveMinutes = 1440

// Discord is the Gateway backed by a live discordgo session. Presence-based
// availability needs the session state and the presence intent.
type Discord struct {
	Session *discordgo.Session
}

func NewDiscord(s *discordgo.Session) *Discord {
	return &Discord{Session: s}
}

func (d *Discord) SendDM(ctx context.Context, userID string, msg Message) (MessageRef, error) {
	channel, err := d.Session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return MessageRef{}, fmt.Errorf("open dm with %s: %w", userID, err)
	}
	return d.Send(ctx, channel.ID, msg)
}

func (d *Discord) DeleteDM(ctx context.Context, userID, messageID string) error {
	if messageID == "" {
		return nil
	}
	channel, err := d.Session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open dm with %s: %w", userID, err)
	}
	return d.Delete(ctx, MessageRef{ChannelID: channel.ID, MessageID: messageID})
}

func (d *Discord) Send(ctx context.Context, channelID string, msg Message) (MessageRef, error) {
	sent, err := d.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     msg.Embeds,
		Components: msg.Components,
		Files:      msg.Files,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return MessageRef{}, fmt.Errorf("send to %s: %w", channelID, err)
	}
	return MessageRef{ChannelID: sent.ChannelID, MessageID: sent.ID}, nil
}

func (d *Discord) Edit(ctx context.Context, ref MessageRef, msg Message) error {
	components := msg.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	edit := &discordgo.MessageEdit{
		ID:         ref.MessageID,
		Channel:    ref.ChannelID,
		Components: &components,
	}
	if msg.Content != "" {
		edit.Content = &msg.Content
	}
	if msg.Embeds != nil {
		edit.Embeds = &msg.Embeds
	}
	if _, err := d.Session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit %s/%s: %w", ref.ChannelID, ref.MessageID, err)
	}
	return nil
}

func (d *Discord) Delete(ctx context.Context, ref MessageRef) error {
	if err := d.Session.ChannelMessageDelete(ref.ChannelID, ref.MessageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete %s/%s: %w", ref.ChannelID, ref.MessageID, err)
	}
	return nil
}

func (d *Discord) CreateThread(ctx context.Context, channelID, name string) (string, error) {
	thread, err := d.Session.ThreadStart(channelID, name, discordgo.ChannelTypeGuildPublicThread, threadArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("start thread in %s: %w", channelID, err)
	}
	return thread.ID, nil
}

func (d *Discord) CloseThread(ctx context.Context, threadID string) error {
	locked, archived := true, true
	// Locking first; an archived thread rejects further edits.
	if _, err := d.Session.ChannelEdit(threadID, &discordgo.ChannelEdit{Locked: &locked}, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("lock thread %s: %w", threadID, err)
	}
	if _, err := d.Session.ChannelEdit(threadID, &discordgo.ChannelEdit{Archived: &archived}, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("archive thread %s: %w", threadID, err)
	}
	return nil
}

func (d *Discord) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := d.Session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

func (d *Discord) FetchUser(ctx context.Context, userID string) (User, error) {
	u, err := d.Session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return User{}, fmt.Errorf("fetch user %s: %w", userID, err)
	}
	return UserFrom(u), nil
}

// UserFrom converts a discordgo user.
func UserFrom(u *discordgo.User) User {
	if u == nil {
		return User{}
	}
	return User{ID: u.ID, Tag: u.String(), AvatarURL: u.AvatarURL("64"), Bot: u.Bot}
}

func (d *Discord) OnlineSupportCount(ctx context.Context, guildID string, roleIDs []string) (int, error) {
	guild, err := d.Session.State.Guild(guildID)
	if err != nil {
		return 0, fmt.Errorf("guild %s not in state: %w", guildID, err)
	}
	count := 0
	for _, p := range guild.Presences {
		if p == nil || p.User == nil || p.Status != discordgo.StatusOnline {
			continue
		}
		member, err := d.MemberPermissions(ctx, guildID, p.User.ID)
		if err != nil {
			continue
		}
		if len(roleIDs) == 0 {
			if member.Can(discordgo.PermissionManageGuild) {
				count++
			}
			continue
		}
		for _, roleID := range roleIDs {
			if member.HasRole(roleID) {
				count++
				break
			}
		}
	}
	return count, nil
}

func (d *Discord) MemberPermissions(ctx context.Context, guildID, userID string) (Member, error) {
	m, err := d.Session.State.Member(guildID, userID)
	if err != nil {
		m, err = d.Session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return Member{}, fmt.Errorf("fetch member %s: %w", userID, err)
		}
	}
	guild, err := d.Session.State.Guild(guildID)
	if err != nil {
		guild, err = d.Session.Guild(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return Member{}, fmt.Errorf("fetch guild %s: %w", guildID, err)
		}
	}
	return Member{UserID: userID, Roles: m.Roles, Permissions: GuildPermissions(guild, userID, m.Roles)}, nil
}

// GuildPermissions folds the guild-level permission bits of a member's roles.
// The owner gets everything.
func GuildPermissions(guild *discordgo.Guild, userID string, roles []string) int64 {
	if guild == nil {
		return 0
	}
	if guild.OwnerID == userID {
		return discordgo.PermissionAll
	}
	held := make(map[string]struct{}, len(roles)+1)
	held[guild.ID] = struct{}{} // @everyone
	for _, r := range roles {
		held[r] = struct{}{}
	}
	var perms int64
	for _, role := range guild.Roles {
		if _, ok := held[role.ID]; ok {
			perms |= role.Permissions
		}
	}
	return perms
}
