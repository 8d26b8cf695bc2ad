package admin

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

func roleOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{Type: discordgo.ApplicationCommandOptionRole, Name: name, Description: description}
}

func thresholdOption(name, description string) *discordgo.ApplicationCommandOption {
	zero := 0.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		MinValue:    &zero,
	}
}

func createSettingsViewCommand() *discord.Command {
	return discord.NewModerationCommand("view", "Show this server's moderation settings", "admin", func(ctx *discord.CommandContext) error {
		return ctx.RunModeration(true, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
			cfg, err := svc.Settings(c, ctx.Invocation())
			if err != nil {
				return nil, err
			}
			return &moderation.Result{Reply: settingsNotice(cfg)}, nil
		})
	})
}

func createSettingsSetCommand() *discord.Command {
	return discord.NewModerationCommand("set", "Change this server's moderation settings", "admin", settingsSetHandler).
		WithOptions(
			roleOption("mute-role", "Role given to muted members"),
			&discordgo.ApplicationCommandOption{
				Type:         discordgo.ApplicationCommandOptionChannel,
				Name:         "log-channel",
				Description:  "Channel where cases are announced",
				ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
			},
			roleOption("member-plus-role", "Role that can still talk in locked channels"),
			roleOption("mod-role", "Moderator role"),
			roleOption("admin-role", "Administrator role"),
			thresholdOption("kick-threshold", "Warn points that trigger a kick, 0 for the default"),
			thresholdOption("ban-threshold", "Warn points that trigger a ban, 0 for the default"),
		)
}

// settingsPatch collects the options that were given
func settingsPatch(ctx *discord.CommandContext) moderation.SettingsPatch {
	var patch moderation.SettingsPatch
	id := func(name string) *string {
		opt := ctx.GetOption(name)
		if opt == nil {
			return nil
		}
		v, _ := opt.Value.(string)
		return &v
	}
	num := func(name string) *int {
		opt := ctx.GetOption(name)
		if opt == nil {
			return nil
		}
		v := int(opt.IntValue())
		return &v
	}
	patch.MuteRoleID = id("mute-role")
	patch.PublicLogChannelID = id("log-channel")
	patch.MemberPlusRoleID = id("member-plus-role")
	patch.ModRoleID = id("mod-role")
	patch.AdminRoleID = id("admin-role")
	patch.KickThreshold = num("kick-threshold")
	patch.BanThreshold = num("ban-threshold")
	return patch
}

func settingsSetHandler(ctx *discord.CommandContext) error {
	patch := settingsPatch(ctx)
	if patch.Empty() {
		return ctx.ReplyEphemeral("❌ Give at least one setting to change.")
	}
	return ctx.RunModeration(true, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		cfg, err := svc.UpdateSettings(c, ctx.Invocation(), patch)
		if err != nil {
			return nil, err
		}
		n := settingsNotice(cfg)
		n.Title = "Settings updated"
		return &moderation.Result{Reply: n}, nil
	})
}

func mentionOr(format, id string) string {
	if id == "" {
		return "not set"
	}
	return fmt.Sprintf(format, id)
}

func thresholdText(v int) string {
	if v <= 0 {
		return "default"
	}
	return fmt.Sprint(v)
}

func settingsNotice(cfg *models.GuildConfig) *moderation.Notice {
	freeze := "none"
	if len(cfg.LockedChannels) > 0 {
		freeze = ""
		for i, id := range cfg.LockedChannels {
			if i > 0 {
				freeze += " "
			}
			freeze += fmt.Sprintf("<#%s>", id)
		}
	}
	return &moderation.Notice{
		Title: "Moderation settings",
		Color: 0x3498DB,
		Fields: []moderation.Field{
			{Name: "Mute role", Value: mentionOr("<@&%s>", cfg.MuteRoleID), Inline: true},
			{Name: "Log channel", Value: mentionOr("<#%s>", cfg.PublicLogChannelID), Inline: true},
			{Name: "Member+ role", Value: mentionOr("<@&%s>", cfg.MemberPlusRoleID), Inline: true},
			{Name: "Mod role", Value: mentionOr("<@&%s>", cfg.ModRoleID), Inline: true},
			{Name: "Admin role", Value: mentionOr("<@&%s>", cfg.AdminRoleID), Inline: true},
			{Name: "Kick / ban at", Value: thresholdText(cfg.KickThreshold) + " / " + thresholdText(cfg.BanThreshold), Inline: true},
			{Name: "Freezeable channels", Value: freeze},
		},
	}
}

// RegisterSettingsCommands registers the /settings group
func RegisterSettingsCommands(client *discord.ExtendedClient) {
	group := client.CommandHandler.BuildCommandGroup(
		"settings",
		"Moderation settings of this server",
		createSettingsViewCommand(),
		createSettingsSetCommand(),
	)

	perms := int64(discordgo.PermissionManageGuild)
	group.DefaultMemberPermissions = &perms
	client.CommandHandler.AddGlobalCommand(group)
}
