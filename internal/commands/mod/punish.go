// Package mod - /mod kick, ban, unban, mute and unmute
package mod

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// targetAction is the shape shared by the actions that only take a reason
type targetAction func(svc *moderation.Service, c context.Context, inv moderation.Invocation, target moderation.Target, reason string) (*moderation.Result, error)

func runTargetAction(action targetAction) discord.CommandRunFunc {
	return func(ctx *discord.CommandContext) error {
		return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
			target, err := ctx.Target(c, "user")
			if err != nil {
				return nil, err
			}
			return action(svc, c, ctx.Invocation(), target, ctx.GetStringOption("reason"))
		})
	}
}

// createKickCommand creates the /mod kick subcommand
func createKickCommand() *discord.Command {
	return discord.NewModerationCommand(
		"kick",
		"Kick a member from the server",
		"mod",
		runTargetAction((*moderation.Service).Kick),
	).WithOptions(
		userOption("Member to kick"),
		reasonOption(false),
	).WithUserPermissions(discordgo.PermissionKickMembers).
		WithBotPermissions(discordgo.PermissionKickMembers)
}

// createBanCommand creates the /mod ban subcommand. Users outside the
// server can be banned by id.
func createBanCommand() *discord.Command {
	return discord.NewModerationCommand(
		"ban",
		"Ban a user, member or not",
		"mod",
		runTargetAction((*moderation.Service).Ban),
	).WithOptions(
		userOption("User to ban"),
		reasonOption(false),
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers)
}

// createUnbanCommand creates the /mod unban subcommand
func createUnbanCommand() *discord.Command {
	return discord.NewModerationCommand(
		"unban",
		"Lift the ban of a user",
		"mod",
		runTargetAction((*moderation.Service).Unban),
	).WithOptions(
		userOption("User to unban"),
		reasonOption(false),
	).WithUserPermissions(discordgo.PermissionBanMembers).
		WithBotPermissions(discordgo.PermissionBanMembers)
}

// createMuteCommand creates the /mod mute subcommand
func createMuteCommand() *discord.Command {
	return discord.NewModerationCommand(
		"mute",
		"Mute a member, optionally for a while",
		"mod",
		muteHandler,
	).WithOptions(
		userOption("Member to mute"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "duration",
			Description: "How long, e.g. 10m, 2h, 1d. Empty mutes until unmuted",
		},
		reasonOption(false),
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionManageRoles)
}

func muteHandler(ctx *discord.CommandContext) error {
	return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		target, err := ctx.Target(c, "user")
		if err != nil {
			return nil, err
		}
		return svc.Mute(c, ctx.Invocation(), target, ctx.GetStringOption("duration"), ctx.GetStringOption("reason"))
	})
}

// createUnmuteCommand creates the /mod unmute subcommand
func createUnmuteCommand() *discord.Command {
	return discord.NewModerationCommand(
		"unmute",
		"Unmute a member",
		"mod",
		runTargetAction((*moderation.Service).Unmute),
	).WithOptions(
		userOption("Member to unmute"),
		reasonOption(false),
	).WithUserPermissions(discordgo.PermissionModerateMembers).
		WithBotPermissions(discordgo.PermissionManageRoles)
}
