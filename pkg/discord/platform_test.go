package discord

import (
	"net/http"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

func TestSendOverwriteRoundTrip(t *testing.T) {
	const other = discordgo.PermissionAddReactions

	ow := &discordgo.PermissionOverwrite{ID: "r", Type: discordgo.PermissionOverwriteTypeRole, Allow: other}
	assert.Equal(t, moderation.SendInherit, sendOverwriteOf(ow))
	assert.Equal(t, moderation.SendInherit, sendOverwriteOf(nil))

	allow, deny := applySendOverwrite(ow, moderation.SendDeny)
	assert.Equal(t, int64(other), allow, "unrelated bits survive")
	assert.Equal(t, int64(discordgo.PermissionSendMessages), deny)

	ow.Allow, ow.Deny = allow, deny
	assert.Equal(t, moderation.SendDeny, sendOverwriteOf(ow))

	allow, deny = applySendOverwrite(ow, moderation.SendAllow)
	assert.Equal(t, int64(other|discordgo.PermissionSendMessages), allow)
	assert.Zero(t, deny)

	allow, deny = applySendOverwrite(nil, moderation.SendInherit)
	assert.Zero(t, allow)
	assert.Zero(t, deny)
}

func TestFindOverwriteIgnoresMembers(t *testing.T) {
	ch := &discordgo.Channel{PermissionOverwrites: []*discordgo.PermissionOverwrite{
		{ID: "x", Type: discordgo.PermissionOverwriteTypeMember, Deny: discordgo.PermissionSendMessages},
	}}
	assert.Nil(t, findOverwrite(ch, "x"))
}

func TestBulkDeletableSkipsOldMessages(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := []*discordgo.Message{
		{ID: "1", Timestamp: now.Add(-time.Hour)},
		{ID: "2", Timestamp: now.Add(-15 * 24 * time.Hour)},
		{ID: "3", Timestamp: now.Add(-13 * 24 * time.Hour)},
	}
	assert.Equal(t, []string{"1", "3"}, bulkDeletable(msgs, now))
}

func TestFindLoggedCase(t *testing.T) {
	bot := &discordgo.User{ID: "bot"}
	msgs := []*discordgo.Message{
		{ID: "a", Author: &discordgo.User{ID: "someone"}, Embeds: []*discordgo.MessageEmbed{{Footer: &discordgo.MessageEmbedFooter{Text: "Case #7"}}}},
		{ID: "b", Author: bot, Embeds: []*discordgo.MessageEmbed{{Footer: &discordgo.MessageEmbedFooter{Text: "Case #70"}}}},
		{ID: "c", Author: bot, Embeds: []*discordgo.MessageEmbed{{
			Footer: &discordgo.MessageEmbedFooter{Text: "Case #7"},
			Fields: []*discordgo.MessageEmbedField{{Name: "Reason", Value: "old"}},
		}}},
	}

	msg, embed := findLoggedCase(msgs, "bot", 7)
	require.NotNil(t, msg)
	assert.Equal(t, "c", msg.ID)

	setReason(embed, "new")
	assert.Equal(t, "new", embed.Fields[0].Value)

	msg, _ = findLoggedCase(msgs, "bot", 8)
	assert.Nil(t, msg)
}

func TestEmbedFromNotice(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := EmbedFromNotice(&moderation.Notice{
		Title:     "Member Warned",
		Color:     0xFFA500,
		Fields:    []moderation.Field{{Name: "Points", Value: "100", Inline: true}},
		Footer:    "Case #1",
		Timestamp: at,
	})

	assert.Equal(t, "Member Warned", e.Title)
	require.Len(t, e.Fields, 1)
	assert.True(t, e.Fields[0].Inline)
	assert.Equal(t, "Case #1", e.Footer.Text)
	assert.Equal(t, "2026-03-01T12:00:00Z", e.Timestamp)

	msg := messageFromNotice(&moderation.Notice{Content: "<@1>"})
	assert.Empty(t, msg.Embeds, "content-only notices carry no embed")
}

func TestIsRESTCode(t *testing.T) {
	err := errors.WrapIf(&discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
		Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMember},
	}, "fetch member")

	assert.True(t, isRESTCode(err, discordgo.ErrCodeUnknownBan, discordgo.ErrCodeUnknownMember))
	assert.False(t, isRESTCode(err, discordgo.ErrCodeUnknownBan))
	assert.False(t, isRESTCode(errors.New("boom"), discordgo.ErrCodeUnknownMember))
}

func TestAuditReasonTruncates(t *testing.T) {
	long := make([]rune, 600)
	for i := range long {
		long[i] = 'ñ'
	}
	assert.Len(t, []rune(auditReason(string(long))), 512)
	assert.Equal(t, "short", auditReason("short"))
}
