// Package main syncs the PancyMod slash commands with Discord.
//
// Usage:
//
//	go run ./cmd/sync-commands [options]
//
// Options:
//
//	-list           List the commands Discord has registered
//	-clean          Remove every command without registering new ones
//	-guild <id>     Work on one guild instead of the global list
//	-dump           Print the current definitions as JSON and exit, no login needed
//
// Without options the command list is overwritten with the current one.
// With -guild the definitions go to that guild only, handy to try changes
// before they propagate globally.
package main

import (
	"flag"
	"fmt"
	"os"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"
	"github.com/goccy/go-json"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

const prefix = "SyncCommands"

func main() {
	listCmd := flag.Bool("list", false, "List all registered commands")
	cleanCmd := flag.Bool("clean", false, "Remove all commands without registering new ones")
	guildID := flag.String("guild", "", "Target a specific guild (leave empty for global)")
	dumpCmd := flag.Bool("dump", false, "Print the command definitions as JSON")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{ErrorWebhook: cfg.ErrorWebhook, LogsWebhook: cfg.LogsWebhook})
	defer log.Close()

	client, err := discord.NewClient(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), prefix)
		os.Exit(1)
	}

	// Build the definitions the bot would register
	commands.RegisterAll(client)

	if *dumpCmd {
		if err := dumpCommands(client.CommandHandler.Definitions()); err != nil {
			logger.Error(fmt.Sprintf("Error serializando comandos: %v", err), prefix)
			os.Exit(1)
		}
		return
	}

	if err := client.Session.Open(); err != nil {
		logger.Critical(fmt.Sprintf("Error connecting to Discord: %v", err), prefix)
		os.Exit(1)
	}
	defer client.Session.Close()
	logger.Success("Conectado a Discord", prefix)

	switch {
	case *listCmd:
		err = listCommands(client, *guildID)
	case *cleanCmd:
		err = cleanCommands(client, *guildID)
	default:
		err = syncCommands(client, *guildID)
	}
	if err != nil {
		logger.Error(err.Error(), prefix)
		os.Exit(1)
	}

	logger.Success("Operación completada exitosamente", prefix)
}

func dumpCommands(cmds []*discordgo.ApplicationCommand) error {
	out, err := json.MarshalIndent(cmds, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(out))
	return err
}

func listCommands(client *discord.ExtendedClient, guildID string) error {
	var cmds []*discordgo.ApplicationCommand
	var err error
	if guildID != "" {
		cmds, err = client.CommandHandler.ListGuildCommands(guildID)
	} else {
		cmds, err = client.CommandHandler.ListGlobalCommands()
	}
	if err != nil {
		return errors.WrapIf(err, "error obteniendo comandos")
	}

	if len(cmds) == 0 {
		logger.Info("No hay comandos registrados", prefix)
		return nil
	}
	logger.Info(fmt.Sprintf("Comandos encontrados: %d", len(cmds)), prefix)
	for i, cmd := range cmds {
		logger.Info(fmt.Sprintf("  %d. /%s (%d opciones, ID: %s)", i+1, cmd.Name, len(cmd.Options), cmd.ID), prefix)
	}
	return nil
}

func cleanCommands(client *discord.ExtendedClient, guildID string) error {
	logger.Info("🧹 Eliminando todos los comandos...", prefix)

	var err error
	if guildID != "" {
		err = client.CommandHandler.UnregisterGuildCommands(guildID)
	} else {
		err = client.CommandHandler.UnregisterCommands()
	}
	if err != nil {
		return errors.WrapIf(err, "error eliminando comandos")
	}
	logger.Success("✅ Todos los comandos han sido eliminados", prefix)
	return nil
}

func syncCommands(client *discord.ExtendedClient, guildID string) error {
	logger.Info("🔄 Sincronizando comandos...", prefix)

	if guildID == "" {
		if err := client.CommandHandler.SyncCommands(); err != nil {
			return errors.WrapIf(err, "error sincronizando comandos")
		}
		logger.Success("✅ Comandos globales sincronizados", prefix)
		return nil
	}

	registered, err := client.Session.ApplicationCommandBulkOverwrite(
		client.Session.State.User.ID,
		guildID,
		client.CommandHandler.Definitions(),
	)
	if err != nil {
		return errors.WrapIfWithDetails(err, "error sincronizando comandos", "guild", guildID)
	}
	logger.Success(fmt.Sprintf("✅ %d comandos sincronizados en %s", len(registered), guildID), prefix)
	return nil
}
