package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(*CommandContext) error { return nil }

func TestCommandCreation(t *testing.T) {
	cmd := NewCommand("warn", "Warn a member", "mod", noop)
	require.NotNil(t, cmd)

	assert.Equal(t, "warn", cmd.Name)
	assert.Equal(t, "Warn a member", cmd.Description)
	assert.Equal(t, "mod", cmd.Category)
	assert.NotNil(t, cmd.Run)
}

func TestToApplicationCommand(t *testing.T) {
	option := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: "Member to warn",
		Required:    true,
	}

	appCmd := NewCommand("warn", "Warn a member", "mod", noop).
		WithOptions(option).
		WithUserPermissions(discordgo.PermissionModerateMembers).
		ToApplicationCommand()

	require.Len(t, appCmd.Options, 1)
	assert.Equal(t, "user", appCmd.Options[0].Name)
	require.NotNil(t, appCmd.DefaultMemberPermissions)
	assert.Equal(t, int64(discordgo.PermissionModerateMembers), *appCmd.DefaultMemberPermissions)
	require.NotNil(t, appCmd.DMPermission)
	assert.False(t, *appCmd.DMPermission)
}

func TestAllowInDM(t *testing.T) {
	appCmd := NewCommand("ping", "Latency", "utils", noop).AllowInDM().ToApplicationCommand()
	assert.Nil(t, appCmd.DMPermission)
	assert.Nil(t, appCmd.DefaultMemberPermissions)
}

func TestCommandAsDev(t *testing.T) {
	cmd := NewCommand("test", "Test command", "test", noop).AsDev()
	assert.True(t, cmd.IsDev)
}

func TestCommandKey(t *testing.T) {
	tests := []struct {
		name string
		data discordgo.ApplicationCommandInteractionData
		want string
	}{
		{"plain", discordgo.ApplicationCommandInteractionData{Name: "activity"}, "activity"},
		{
			"subcommand",
			discordgo.ApplicationCommandInteractionData{Name: "mod", Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "warn", Type: discordgo.ApplicationCommandOptionSubCommand},
			}},
			"mod.warn",
		},
		{
			"group",
			discordgo.ApplicationCommandInteractionData{Name: "channel", Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "freeze", Type: discordgo.ApplicationCommandOptionSubCommandGroup, Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "add", Type: discordgo.ApplicationCommandOptionSubCommand},
				}},
			}},
			"channel.freeze.add",
		},
		{
			"plain option",
			discordgo.ApplicationCommandInteractionData{Name: "activity", Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: "type", Type: discordgo.ApplicationCommandOptionString},
			}},
			"activity",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commandKey(tt.data))
		})
	}
}

func TestBuildCommandGroupRegistersSubcommands(t *testing.T) {
	client := &ExtendedClient{Commands: NewCommandCollection()}
	handler := NewCommandHandler(client)

	group := handler.BuildCommandGroup("mod", "Moderation",
		NewCommand("warn", "Warn", "mod", noop),
		NewCommand("kick", "Kick", "mod", noop),
	)

	assert.Len(t, group.Options, 2)
	assert.Equal(t, 2, client.Commands.Size())
	_, ok := client.Commands.Get("mod.kick")
	assert.True(t, ok)
}
