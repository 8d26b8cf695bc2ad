// Package admin provides the administrator commands: /channel and /settings
package admin

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// channelAction is the shape of every per channel moderation action
type channelAction func(svc *moderation.Service, c context.Context, inv moderation.Invocation, channelID string) (*moderation.Result, error)

func channelOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  "Text channel, defaults to this one",
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}
}

// targetChannel returns the channel option or the channel the command was
// run in
func targetChannel(ctx *discord.CommandContext) string {
	if opt := ctx.GetOption("channel"); opt != nil {
		return opt.ChannelValue(nil).ID
	}
	return ctx.Interaction.ChannelID
}

func runChannelAction(action channelAction) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
			return action(svc, c, ctx.Invocation(), targetChannel(ctx))
		})
	}
}

func newChannelCommand(name, description string, action channelAction) *discord.Command {
	return discord.NewModerationCommand(name, description, "admin", runChannelAction(action)).
		WithOptions(channelOption()).
		WithUserPermissions(discordgo.PermissionManageChannels).
		WithBotPermissions(discordgo.PermissionManageRoles)
}

// createFreezeCommand creates /channel freeze, which locks every
// freezeable channel at once
func createFreezeCommand(name, description string, action func(*moderation.Service, context.Context, moderation.Invocation) (*moderation.Result, error)) *discord.Command {
	return discord.NewModerationCommand(name, description, "admin", func(ctx *discord.CommandContext) error {
		return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
			return action(svc, c, ctx.Invocation())
		})
	}).WithUserPermissions(discordgo.PermissionManageChannels).
		WithBotPermissions(discordgo.PermissionManageRoles)
}

// RegisterChannelCommands registers the /channel group
func RegisterChannelCommands(client *discord.ExtendedClient) {
	group := client.CommandHandler.BuildCommandGroup(
		"channel",
		"Channel moderation",
		newChannelCommand("lock", "Stop members from talking in a channel", (*moderation.Service).Lock),
		newChannelCommand("unlock", "Let members talk in a locked channel again", (*moderation.Service).Unlock),
		newChannelCommand("freezeable", "Add a channel to the freeze list", (*moderation.Service).Freezeable),
		newChannelCommand("unfreezeable", "Remove a channel from the freeze list", (*moderation.Service).Unfreezeable),
		createFreezeCommand("freeze", "Lock every channel on the freeze list", (*moderation.Service).Freeze),
		createFreezeCommand("unfreeze", "Unlock every channel on the freeze list", (*moderation.Service).Unfreeze),
	)

	perms := int64(discordgo.PermissionManageChannels)
	group.DefaultMemberPermissions = &perms
	client.CommandHandler.AddGlobalCommand(group)
}
