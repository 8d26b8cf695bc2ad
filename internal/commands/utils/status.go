package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
)

// createStatusCommand creates the /utils status subcommand
func createStatusCommand() *discord.Command {
	return discord.NewCommand(
		"status",
		"Show the bot status",
		"utils",
		statusHandler,
	)
}

func onlineText(ok bool) string {
	if ok {
		return "🟢 Online"
	}
	return "🔴 Offline"
}

// statusHandler handles the /utils status command
func statusHandler(ctx *discord.CommandContext) error {
	if err := ctx.Defer(); err != nil {
		return err
	}
	errors.Go(func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		dbStatus := "In-memory (no MongoDB)"
		if db := database.Get(); db != nil {
			dbStatus, _ = db.GetStatus(c)
		}
		broker := mqtt.Get()

		_ = ctx.EditReply(fmt.Sprintf(
			"📊 **Bot status**\n"+
				"• Bot: 🟢 Online\n"+
				"• Database: %s\n"+
				"• MQTT: %s\n"+
				"• Servers: %d\n"+
				"• Uptime: %s",
			dbStatus,
			onlineText(broker != nil && broker.IsConnected()),
			ctx.Client.GuildCount(),
			time.Since(ctx.Client.StartTime).Round(time.Second),
		))
	})
	return nil
}
