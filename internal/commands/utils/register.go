package utils

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterUtilsCommands registers the utility commands as /utils subcommands
func RegisterUtilsCommands(client *discord.ExtendedClient) {
	utilsGroup := client.CommandHandler.BuildCommandGroup(
		"utils",
		"Utility commands",
		createPingCommand(),
		createStatusCommand(),
	)

	client.CommandHandler.AddGlobalCommand(utilsGroup)
}
