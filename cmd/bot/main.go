// Package main is the entry point for the PancyMod Go application.
// It wires the moderation stores and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/rueidis"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/events"
	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/moderation/memstore"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/PancyStudios/PancyModGo/pkg/web"
)

const shutdownTimeout = 10 * time.Second

// stores groups the three persistence ports of the moderation service
type stores struct {
	ledger   moderation.Ledger
	records  moderation.Accumulator
	settings moderation.GuildSettings
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(logger.Options{
		ErrorWebhook: cfg.ErrorWebhook,
		LogsWebhook:  cfg.LogsWebhook,
		Dir:          cfg.LogDir,
		Debug:        !cfg.IsProd(),
	})
	defer log.Close()

	logger.System(fmt.Sprintf("Iniciando PancyMod Go %s (%s)...", config.Version, config.BuildTime), "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	var unmutes *scheduler.Scheduler
	errors.Init(cfg.ErrorWebhook, func() {
		if unmutes != nil {
			unmutes.Stop()
		}
		if discordClient != nil {
			if err := discordClient.Stop(); err != nil {
				logger.Error(fmt.Sprintf("Error cerrando Discord: %v", err), "Main")
			}
		}
	})

	// Initialize database
	db, st := openStores(cfg)
	defer func() {
		if db == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := db.Disconnect(ctx); err != nil {
			logger.Error(fmt.Sprintf("Error desconectando la base de datos: %v", err), "Main")
		}
	}()

	// Initialize the unmute scheduler, persisted in Redis when configured
	redisClient, unmuteStore := openSchedulerStore(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}
	unmutes = scheduler.New(clock.Real{}, unmuteStore)
	defer unmutes.Stop()

	// Initialize MQTT
	mqttClientID := "pancymod"
	if !cfg.IsProd() {
		mqttClientID = "pancymod_canary"
	}
	mqttClient := mqtt.Init(mqtt.Options{
		Broker:   cfg.MQTTBroker(),
		Username: cfg.MQTTUser,
		Password: cfg.MQTTPassword,
		ClientID: mqttClientID,
		Prefix:   cfg.MQTTPrefix,
	})
	defer mqttClient.Destroy()

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	svc := moderation.NewService(moderation.Deps{
		Ledger:      st.ledger,
		Accumulator: st.records,
		Settings:    st.settings,
		Scheduler:   unmutes,
		Platform:    discordClient.Platform,
		Tiers:       discord.NewTierResolver(discordClient.Session, st.settings),
		Events:      mqttClient,
		Clock:       clock.Real{},
		Options: moderation.Options{
			KickThreshold: cfg.WarnKickThreshold,
			BanThreshold:  cfg.WarnBanThreshold,
			CallTimeout:   cfg.CallTimeout,
		},
	})
	discordClient.Moderation = svc

	if err := mqttClient.On("history", historyRequest(svc)); err != nil {
		logger.Warn(fmt.Sprintf("Consultas de historial por MQTT desactivadas: %v", err), "Main")
	}

	// Register commands using the commands package
	commands.RegisterAll(discordClient)

	// Register events using the events package
	events.RegisterAll(discordClient)

	// Initialize web server
	webServer, err := web.Init(cfg.LogsWebServerHook, cfg.WebAllowedHosts)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating web server: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, web.API{
		History:  svc,
		Database: dbStatus(db),
		BotReady: discordClient.IsReady,
	})
	webServer.StartAsync(cfg.Port)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := discordClient.Stop(); err != nil {
			logger.Error(fmt.Sprintf("Error cerrando Discord: %v", err), "Main")
		}
	}()

	logger.Success("PancyMod Go iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyMod Go...", "Main")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := webServer.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("Error cerrando el servidor web: %v", err), "Main")
	}
	errors.Get().Stop()
}

// openStores connects to MongoDB. Without a connection string the bot keeps
// its moderation state in memory.
func openStores(cfg *config.Config) (*database.Database, stores) {
	if cfg.MongoDBURL == "" {
		logger.Warn("mongodbUrl vacío, los casos se guardarán solo en memoria", "Main")
		mem := memstore.New()
		return nil, stores{ledger: mem, records: mem, settings: mem}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Init(ctx, cfg.MongoDBURL, cfg.DBName)
	if err != nil {
		// Continue without database, it will attempt to reconnect
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
	} else if err := db.EnsureIndexes(ctx); err != nil {
		logger.Warn(fmt.Sprintf("Error creando índices: %v", err), "Main")
	}

	return db, stores{
		ledger:   database.NewCaseLedger(db),
		records:  database.NewUserRecords(db),
		settings: database.NewGuildSettingsStore(db),
	}
}

// openSchedulerStore returns a nil store when Redis is not configured or
// unreachable, pending unmutes are then rebuilt from the muted records
func openSchedulerStore(cfg *config.Config) (rueidis.Client, scheduler.Store) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client, err := scheduler.Dial(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error(fmt.Sprintf("Error conectando a Redis: %v", err), "Main")
		return nil, nil
	}
	logger.Success("Conectado a Redis", "Main")
	return client, scheduler.NewRedisStore(client, "")
}

// dbStatus keeps a nil *Database from turning into a non-nil interface
func dbStatus(db *database.Database) web.StatusSource {
	if db == nil {
		return nil
	}
	return db
}

// historyRequest answers <prefix>/request/history with a user's record and cases
func historyRequest(svc *moderation.Service) mqtt.RequestHandler {
	return func(ctx context.Context, payload map[string]interface{}) (interface{}, error) {
		guildID, _ := payload["guildId"].(string)
		userID, _ := payload["userId"].(string)
		if guildID == "" || userID == "" {
			return nil, moderation.Validation("guildId and userId are required")
		}
		history, err := svc.History(ctx, guildID, userID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"user":  history.Record,
			"cases": history.Cases,
		}, nil
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
