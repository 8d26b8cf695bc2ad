// Package events provides event handlers for member events
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// RegisterMemberEvents registers all member-related event handlers
func RegisterMemberEvents(client *discord.ExtendedClient) {
	client.EventHandler.OnGuildMemberAdd(func(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
		onGuildMemberAdd(client, m)
	})
}

// onGuildMemberAdd gives the mute role back to muted members who left and
// rejoined to get rid of it
func onGuildMemberAdd(client *discord.ExtendedClient, m *discordgo.GuildMemberAdd) {
	svc := client.Moderation
	if svc == nil {
		return
	}

	errors.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		reapplied, err := svc.ReapplyMute(ctx, m.GuildID, m.User.ID)
		if err != nil {
			logger.Error(fmt.Sprintf("Error reaplicando mute a %s en %s: %v", m.User.ID, m.GuildID, err), "Member")
			return
		}
		if reapplied {
			logger.Info(fmt.Sprintf("🔇 %s volvió a %s estando muteado, rol reaplicado", m.User.Username, m.GuildID), "Member")
		}
	})
}
