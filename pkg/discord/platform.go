package discord

import (
	"context"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

const (
	// logScanLimit is how far back EditLoggedCase looks for a case entry
	logScanLimit = 200
	purgeMax     = 100
	inviteMaxAge = 86400

	targetTypeEmbeddedApplication = 2
)

// Platform adapts a discordgo session to moderation.ChatPlatform
type Platform struct {
	session *discordgo.Session
}

var _ moderation.ChatPlatform = (*Platform)(nil)

// NewPlatform creates a Platform on top of session
func NewPlatform(session *discordgo.Session) *Platform {
	return &Platform{session: session}
}

func (p *Platform) botID() string {
	if p.session.State != nil && p.session.State.User != nil {
		return p.session.State.User.ID
	}
	return ""
}

// SendDirectMessage opens a DM channel with the user and posts the notice
func (p *Platform) SendDirectMessage(ctx context.Context, userID string, n *moderation.Notice) error {
	ch, err := p.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return errors.WrapIfWithDetails(err, "open dm channel", "user", userID)
	}
	return p.PostMessage(ctx, ch.ID, n)
}

// PostMessage sends the notice to a channel
func (p *Platform) PostMessage(ctx context.Context, channelID string, n *moderation.Notice) error {
	_, err := p.session.ChannelMessageSendComplex(channelID, messageFromNotice(n), discordgo.WithContext(ctx))
	return errors.WrapIfWithDetails(err, "send message", "channel", channelID)
}

// SetRole adds or removes a role from a member
func (p *Platform) SetRole(ctx context.Context, guildID, userID, roleID string, add bool) error {
	var err error
	if add {
		err = p.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	} else {
		err = p.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
	}
	return errors.WrapIfWithDetails(err, "set role", "guild", guildID, "user", userID, "role", roleID)
}

func (p *Platform) channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if p.session.State != nil {
		if ch, err := p.session.State.Channel(channelID); err == nil {
			return ch, nil
		}
	}
	ch, err := p.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, errors.WrapIfWithDetails(err, "fetch channel", "channel", channelID)
	}
	return ch, nil
}

// ChannelPermission reads the send-messages overwrite of a role
func (p *Platform) ChannelPermission(ctx context.Context, channelID, roleID string) (moderation.SendOverwrite, error) {
	ch, err := p.channel(ctx, channelID)
	if err != nil {
		return moderation.SendInherit, err
	}
	return sendOverwriteOf(findOverwrite(ch, roleID)), nil
}

// SetChannelPermission changes only the send-messages bit of a role
// overwrite. Overwrites left empty are removed.
func (p *Platform) SetChannelPermission(ctx context.Context, channelID, roleID string, ow moderation.SendOverwrite) error {
	ch, err := p.channel(ctx, channelID)
	if err != nil {
		return err
	}
	allow, deny := applySendOverwrite(findOverwrite(ch, roleID), ow)
	if allow == 0 && deny == 0 {
		if findOverwrite(ch, roleID) == nil {
			return nil
		}
		err = p.session.ChannelPermissionDelete(channelID, roleID, discordgo.WithContext(ctx))
	} else {
		err = p.session.ChannelPermissionSet(channelID, roleID, discordgo.PermissionOverwriteTypeRole, allow, deny, discordgo.WithContext(ctx))
	}
	return errors.WrapIfWithDetails(err, "set channel permission", "channel", channelID, "role", roleID)
}

// Member fetches a guild member, nil when the user is not in the guild
func (p *Platform) Member(ctx context.Context, guildID, userID string) (*moderation.Member, error) {
	var m *discordgo.Member
	if p.session.State != nil {
		m, _ = p.session.State.Member(guildID, userID)
	}
	if m == nil {
		var err error
		m, err = p.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			if isRESTCode(err, discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser) {
				return nil, nil
			}
			return nil, errors.WrapIfWithDetails(err, "fetch member", "guild", guildID, "user", userID)
		}
	}
	out := &moderation.Member{ID: userID, Roles: append([]string(nil), m.Roles...)}
	if m.User != nil {
		out.ID = m.User.ID
		out.Username = m.User.Username
	}
	return out, nil
}

// Kick removes a member from the guild
func (p *Platform) Kick(ctx context.Context, guildID, userID, reason string) error {
	err := p.session.GuildMemberDeleteWithReason(guildID, userID, auditReason(reason), discordgo.WithContext(ctx))
	return errors.WrapIfWithDetails(err, "kick member", "guild", guildID, "user", userID)
}

// Ban bans a user without deleting their messages
func (p *Platform) Ban(ctx context.Context, guildID, userID, reason string) error {
	err := p.session.GuildBanCreateWithReason(guildID, userID, auditReason(reason), 0, discordgo.WithContext(ctx))
	return errors.WrapIfWithDetails(err, "ban user", "guild", guildID, "user", userID)
}

// Unban lifts a ban. The reason only lives in the case, the ban removal
// endpoint takes none.
func (p *Platform) Unban(ctx context.Context, guildID, userID, _ string) error {
	err := p.session.GuildBanDelete(guildID, userID, discordgo.WithContext(ctx))
	return errors.WrapIfWithDetails(err, "unban user", "guild", guildID, "user", userID)
}

// IsBanned reports whether the user is on the guild ban list
func (p *Platform) IsBanned(ctx context.Context, guildID, userID string) (bool, error) {
	_, err := p.session.GuildBan(guildID, userID, discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	if isRESTCode(err, discordgo.ErrCodeUnknownBan) {
		return false, nil
	}
	return false, errors.WrapIfWithDetails(err, "fetch ban", "guild", guildID, "user", userID)
}

// PurgeMessages deletes up to limit recent messages. Messages older than
// two weeks can't be bulk deleted and are skipped.
func (p *Platform) PurgeMessages(ctx context.Context, channelID string, limit int) (int, error) {
	if limit > purgeMax {
		limit = purgeMax
	}
	msgs, err := p.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return 0, errors.WrapIfWithDetails(err, "fetch messages", "channel", channelID)
	}

	ids := bulkDeletable(msgs, time.Now())
	switch len(ids) {
	case 0:
		return 0, nil
	case 1:
		err = p.session.ChannelMessageDelete(channelID, ids[0], discordgo.WithContext(ctx))
	default:
		err = p.session.ChannelMessagesBulkDelete(channelID, ids, discordgo.WithContext(ctx))
	}
	if err != nil {
		return 0, errors.WrapIfWithDetails(err, "delete messages", "channel", channelID)
	}
	return len(ids), nil
}

// EditLoggedCase looks for the bot's log entry of a case and rewrites its
// reason field
func (p *Platform) EditLoggedCase(ctx context.Context, channelID string, caseID int64, reason string) (bool, error) {
	botID := p.botID()
	before := ""
	for scanned := 0; scanned < logScanLimit; {
		msgs, err := p.session.ChannelMessages(channelID, purgeMax, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return false, errors.WrapIfWithDetails(err, "fetch log messages", "channel", channelID)
		}
		if len(msgs) == 0 {
			return false, nil
		}

		if msg, embed := findLoggedCase(msgs, botID, caseID); msg != nil {
			setReason(embed, reason)
			edit := discordgo.NewMessageEdit(channelID, msg.ID).SetEmbeds(msg.Embeds)
			if _, err := p.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
				return false, errors.WrapIfWithDetails(err, "edit log message", "channel", channelID, "message", msg.ID)
			}
			return true, nil
		}

		scanned += len(msgs)
		before = msgs[len(msgs)-1].ID
	}
	return false, nil
}

type inviteRequest struct {
	MaxAge              int    `json:"max_age"`
	MaxUses             int    `json:"max_uses"`
	TargetType          int    `json:"target_type"`
	TargetApplicationID string `json:"target_application_id"`
}

// CreateActivityInvite creates an invite that launches an embedded
// application in a voice channel
func (p *Platform) CreateActivityInvite(ctx context.Context, channelID, applicationID string) (string, error) {
	body := inviteRequest{
		MaxAge:              inviteMaxAge,
		TargetType:          targetTypeEmbeddedApplication,
		TargetApplicationID: applicationID,
	}
	endpoint := discordgo.EndpointChannelInvites(channelID)
	raw, err := p.session.RequestWithBucketID("POST", endpoint, body, endpoint, discordgo.WithContext(ctx))
	if err != nil {
		return "", errors.WrapIfWithDetails(err, "create activity invite", "channel", channelID)
	}

	var invite discordgo.Invite
	if err := json.Unmarshal(raw, &invite); err != nil {
		return "", errors.WrapIf(err, "decode invite")
	}
	if invite.Code == "" {
		return "", errors.New("discord returned an invite without code")
	}
	return invite.Code, nil
}

func auditReason(reason string) string {
	const max = 512
	if r := []rune(reason); len(r) > max {
		return string(r[:max])
	}
	return reason
}

func isRESTCode(err error, codes ...int) bool {
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) || rest.Message == nil {
		return false
	}
	for _, c := range codes {
		if rest.Message.Code == c {
			return true
		}
	}
	return false
}

func findOverwrite(ch *discordgo.Channel, roleID string) *discordgo.PermissionOverwrite {
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == roleID && ow.Type == discordgo.PermissionOverwriteTypeRole {
			return ow
		}
	}
	return nil
}

func sendOverwriteOf(ow *discordgo.PermissionOverwrite) moderation.SendOverwrite {
	switch {
	case ow == nil:
		return moderation.SendInherit
	case ow.Deny&discordgo.PermissionSendMessages != 0:
		return moderation.SendDeny
	case ow.Allow&discordgo.PermissionSendMessages != 0:
		return moderation.SendAllow
	default:
		return moderation.SendInherit
	}
}

// applySendOverwrite returns the allow/deny pair with only the send bit
// changed
func applySendOverwrite(ow *discordgo.PermissionOverwrite, send moderation.SendOverwrite) (allow, deny int64) {
	if ow != nil {
		allow, deny = ow.Allow, ow.Deny
	}
	allow &^= discordgo.PermissionSendMessages
	deny &^= discordgo.PermissionSendMessages
	switch send {
	case moderation.SendAllow:
		allow |= discordgo.PermissionSendMessages
	case moderation.SendDeny:
		deny |= discordgo.PermissionSendMessages
	}
	return allow, deny
}

// bulkDeletable keeps the ids Discord still accepts in a bulk delete
func bulkDeletable(msgs []*discordgo.Message, now time.Time) []string {
	cutoff := now.Add(-14*24*time.Hour + time.Minute)
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Timestamp.IsZero() || m.Timestamp.After(cutoff) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func findLoggedCase(msgs []*discordgo.Message, botID string, caseID int64) (*discordgo.Message, *discordgo.MessageEmbed) {
	footer := moderation.CaseFooter(caseID)
	for _, m := range msgs {
		if m.Author == nil || (botID != "" && m.Author.ID != botID) {
			continue
		}
		for _, e := range m.Embeds {
			if e.Footer != nil && strings.TrimSpace(e.Footer.Text) == footer {
				return m, e
			}
		}
	}
	return nil, nil
}

func setReason(e *discordgo.MessageEmbed, reason string) {
	for _, f := range e.Fields {
		if f.Name == "Reason" {
			f.Value = reason
			return
		}
	}
	e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: reason})
}

// EmbedFromNotice renders a notice as a Discord embed
func EmbedFromNotice(n *moderation.Notice) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       n.Title,
		Description: n.Description,
		Color:       n.Color,
	}
	for _, f := range n.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if n.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: n.Footer}
	}
	if n.ThumbnailURL != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: n.ThumbnailURL}
	}
	if !n.Timestamp.IsZero() {
		e.Timestamp = n.Timestamp.Format(time.RFC3339)
	}
	return e
}

func messageFromNotice(n *moderation.Notice) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{
		Content: n.Content,
		// only the explicit content mention pings
		AllowedMentions: &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}},
	}
	if n.Title != "" || n.Description != "" || len(n.Fields) > 0 {
		msg.Embeds = []*discordgo.MessageEmbed{EmbedFromNotice(n)}
	}
	return msg
}
