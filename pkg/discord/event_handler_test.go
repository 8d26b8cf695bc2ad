package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandlerRecordsNames(t *testing.T) {
	client, err := NewClient("test-token")
	require.NoError(t, err)
	eh := client.EventHandler

	assert.Error(t, eh.LoadEvents(), "nothing registered yet")

	eh.OnReady(func(*discordgo.Session, *discordgo.Ready) {})
	eh.RegisterEvent(func(*discordgo.Session, *discordgo.Disconnect) {})
	assert.False(t, eh.Has("GuildMemberAdd"))
	assert.NoError(t, eh.LoadEvents())

	eh.OnGuildMemberAdd(func(*discordgo.Session, *discordgo.GuildMemberAdd) {})
	assert.Equal(t, []string{"Ready", "Disconnect", "GuildMemberAdd"}, eh.Registered())
	assert.True(t, eh.Has("GuildMemberAdd"))
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "Resumed", eventName(func(*discordgo.Session, *discordgo.Resumed) {}))
	assert.Equal(t, "GuildMemberRemove", eventName(func(*discordgo.Session, *discordgo.GuildMemberRemove) {}))
	assert.Equal(t, "unknown", eventName(func(*discordgo.Session) {}))
	assert.Equal(t, "unknown", eventName("not a func"))
}
