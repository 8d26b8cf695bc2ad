// Package events provides a registry for organizing bot events.
// Events are organized by category (ready, guild, member).
package events

import (
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient) {
	logger.System("📋 Registrando eventos del bot...", "Events")

	// Ready event (bot startup, timer restore) and gateway reconnects
	RegisterReadyEvent(client)

	// Guild events (server join/leave)
	RegisterGuildEvents(client)

	// Member events (mute evasion)
	RegisterMemberEvents(client)

	logger.Success("✅ Todos los eventos registrados correctamente", "Events")
}
