// Package mod provides the moderation commands organized as subcommands
// under /mod. Each command is in its own file.
package mod

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterModCommands registers all moderation commands as /mod subcommands
func RegisterModCommands(client *discord.ExtendedClient) {
	modGroup := client.CommandHandler.BuildCommandGroup(
		"mod",
		"Moderation commands",
		createWarnCommand(),
		createLiftWarnCommand(),
		createEditReasonCommand(),
		createRemovePointsCommand(),
		createKickCommand(),
		createBanCommand(),
		createUnbanCommand(),
		createMuteCommand(),
		createUnmuteCommand(),
		createPurgeCommand(),
		createCasesCommand(),
	)

	client.CommandHandler.AddGlobalCommand(modGroup)
}
