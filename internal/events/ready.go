// Package events provides event handlers for the bot
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const restoreTimeout = 2 * time.Minute

// RegisterReadyEvent registers the ready event handler
func RegisterReadyEvent(client *discord.ExtendedClient) {
	var restoreOnce sync.Once
	client.EventHandler.OnReady(func(s *discordgo.Session, r *discordgo.Ready) {
		onReady(client, &restoreOnce, s, r)
	})
	client.EventHandler.RegisterEvent(onDisconnect)
	client.EventHandler.RegisterEvent(onResumed)
}

// onReady is called when the bot successfully connects to Discord. Ready
// fires again after every reconnect; timers are restored only once.
func onReady(client *discord.ExtendedClient, restoreOnce *sync.Once, s *discordgo.Session, r *discordgo.Ready) {
	logger.Success(fmt.Sprintf("✅ Bot conectado: %s", r.User.Username), "Ready")
	logger.Info(fmt.Sprintf("📊 Conectado a %d servidores", len(r.Guilds)), "Ready")

	if err := s.UpdateGameStatus(0, "🛡️ /mod"); err != nil {
		logger.Error(fmt.Sprintf("Error estableciendo estado: %v", err), "Ready")
	}

	svc := client.Moderation
	if svc == nil {
		return
	}
	svc.SetBotIdentity(r.User.ID, r.User.Username)

	restoreOnce.Do(func() {
		errors.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
			defer cancel()

			n, err := svc.RestoreTimers(ctx)
			if err != nil {
				logger.Error(fmt.Sprintf("Error restaurando desmuteos programados: %v", err), "Ready")
				return
			}
			logger.Info(fmt.Sprintf("⏰ %d desmuteos programados restaurados", n), "Ready")
		})
	})
}

func onDisconnect(s *discordgo.Session, _ *discordgo.Disconnect) {
	logger.Warn(fmt.Sprintf("🔌 Shard %d desconectado.", s.ShardID), "Shard")
}

func onResumed(s *discordgo.Session, _ *discordgo.Resumed) {
	logger.Success(fmt.Sprintf("✅ Shard %d reanudado.", s.ShardID), "Shard")
}
