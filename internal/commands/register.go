// Package commands provides a registry for organizing bot commands.
// Commands are organized in subdirectories by category (mod, admin, misc, utils).
package commands

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/admin"
	"github.com/PancyStudios/PancyModGo/internal/commands/misc"
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient) {
	// Utility commands (/utils ping, /utils status)
	utils.RegisterUtilsCommands(client)

	// Moderation commands (/mod warn, /mod kick, /mod mute...)
	mod.RegisterModCommands(client)

	// Channel and settings commands for administrators
	admin.RegisterChannelCommands(client)
	admin.RegisterSettingsCommands(client)

	// /activity
	misc.RegisterMiscCommands(client)
}
