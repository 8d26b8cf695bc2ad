// Package mod - /mod purge
package mod

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// createPurgeCommand creates the /mod purge subcommand
func createPurgeCommand() *discord.Command {
	return discord.NewModerationCommand(
		"purge",
		"Delete recent messages in this channel (max 100)",
		"mod",
		purgeHandler,
	).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "amount",
			Description: "How many messages to delete",
			Required:    true,
		},
	).WithUserPermissions(discordgo.PermissionManageMessages).
		WithBotPermissions(discordgo.PermissionManageMessages)
}

// purgeHandler replies ephemerally so the confirmation is not purged
// along with the rest
func purgeHandler(ctx *discord.CommandContext) error {
	return ctx.RunModeration(true, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		inv := ctx.Invocation()
		return svc.Purge(c, inv, inv.ChannelID, int(ctx.GetIntOption("amount")))
	})
}
