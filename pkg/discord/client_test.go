package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

func commandInteraction(guildID string, perms int64, name string, sub ...string) *discordgo.InteractionCreate {
	data := discordgo.ApplicationCommandInteractionData{Name: name}
	for _, s := range sub {
		data.Options = append(data.Options, &discordgo.ApplicationCommandInteractionDataOption{
			Name: s,
			Type: discordgo.ApplicationCommandOptionSubCommand,
		})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:           discordgo.InteractionApplicationCommand,
		GuildID:        guildID,
		AppPermissions: perms,
		Data:           data,
	}}
}

func routingClient(svc *moderation.Service) *ExtendedClient {
	c := &ExtendedClient{Commands: NewCommandCollection(), Moderation: svc}
	h := NewCommandHandler(c)
	h.BuildCommandGroup("mod", "Moderation",
		NewModerationCommand("kick", "Kick", "mod", noop).WithBotPermissions(discordgo.PermissionKickMembers),
		NewModerationCommand("mute", "Mute", "mod", noop).WithBotPermissions(discordgo.PermissionManageRoles),
	)
	h.RegisterCommand(NewCommand("ping", "Latency", "utils", noop).AllowInDM())
	return c
}

func TestRouteModerationCommands(t *testing.T) {
	svc := &moderation.Service{}

	tests := []struct {
		name    string
		client  *ExtendedClient
		i       *discordgo.InteractionCreate
		key     string
		refusal string
	}{
		{"allowed", routingClient(svc), commandInteraction("g", discordgo.PermissionKickMembers, "mod", "kick"), "mod.kick", ""},
		{"administrator", routingClient(svc), commandInteraction("g", discordgo.PermissionAdministrator, "mod", "mute"), "mod.mute", ""},
		{"missing kick", routingClient(svc), commandInteraction("g", discordgo.PermissionManageRoles, "mod", "kick"), "mod.kick", "I need the **Kick Members** permission in this channel to do that."},
		{"missing roles", routingClient(svc), commandInteraction("g", discordgo.PermissionKickMembers, "mod", "mute"), "mod.mute", "I need the **Manage Roles** permission in this channel to do that."},
		{"in dm", routingClient(svc), commandInteraction("", 0, "mod", "kick"), "mod.kick", "This command only works in a server."},
		{"no service", routingClient(nil), commandInteraction("g", discordgo.PermissionKickMembers, "mod", "kick"), "mod.kick", "Moderation is not available right now."},
		{"utility without service", routingClient(nil), commandInteraction("g", 0, "ping"), "ping", ""},
		{"utility in dm", routingClient(nil), commandInteraction("", 0, "ping"), "ping", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, key, refusal := tt.client.route(tt.i)
			require.NotNil(t, cmd)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.refusal, refusal)
		})
	}
}

func TestRouteUnknownCommand(t *testing.T) {
	cmd, key, refusal := routingClient(nil).route(commandInteraction("g", 0, "mod", "nuke"))
	assert.Nil(t, cmd)
	assert.Equal(t, "mod.nuke", key)
	assert.Empty(t, refusal)
}

func TestMissingPermission(t *testing.T) {
	assert.Empty(t, missingPermission(0, 0))
	assert.Empty(t, missingPermission(discordgo.PermissionBanMembers|discordgo.PermissionKickMembers, discordgo.PermissionBanMembers))
	assert.Equal(t, "Ban Members", missingPermission(discordgo.PermissionKickMembers, discordgo.PermissionBanMembers))
	assert.Equal(t, "Manage Messages", missingPermission(0, discordgo.PermissionManageMessages))
	assert.Equal(t, "0x8000", missingPermission(0, discordgo.PermissionAttachFiles))
}

func TestModerationCommandFlag(t *testing.T) {
	assert.True(t, NewModerationCommand("warn", "Warn", "mod", noop).Moderation)
	assert.False(t, NewCommand("ping", "Latency", "utils", noop).Moderation)
}

func TestLoadCommandsNeedsCommands(t *testing.T) {
	c := &ExtendedClient{Commands: NewCommandCollection()}
	h := NewCommandHandler(c)
	assert.Error(t, h.LoadCommands())

	h.RegisterCommand(NewModerationCommand("warn", "Warn", "mod", noop))
	assert.NoError(t, h.LoadCommands())
}
