// Package misc provides the /activity command
package misc

import (
	"context"
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

func activityChoices() []*discordgo.ApplicationCommandOptionChoice {
	names := make([]string, 0, len(moderation.Activities))
	for name := range moderation.Activities {
		names = append(names, name)
	}
	sort.Strings(names)

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(names))
	for _, name := range names {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
	}
	return choices
}

// createActivityCommand creates the /activity command
func createActivityCommand() *discord.Command {
	return discord.NewModerationCommand(
		"activity",
		"Start an activity in a voice channel",
		"misc",
		activityHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "type",
			Description: "Activity to start",
			Required:    true,
			Choices:     activityChoices(),
		},
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "Voice channel to start it in",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
		},
	).WithBotPermissions(discordgo.PermissionCreateInstantInvite)
}

func activityHandler(ctx *discord.CommandContext) error {
	return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		channelID := ctx.GetOption("channel").ChannelValue(nil).ID
		return svc.Activity(c, ctx.Invocation(), channelID, ctx.GetStringOption("type"))
	})
}

// RegisterMiscCommands registers /activity
func RegisterMiscCommands(client *discord.ExtendedClient) {
	client.CommandHandler.RegisterCommand(createActivityCommand())
}
