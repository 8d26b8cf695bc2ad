// Package mod - /mod warn, liftwarn, removepoints and editreason
package mod

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// createWarnCommand creates the /mod warn subcommand
func createWarnCommand() *discord.Command {
	return discord.NewModerationCommand(
		"warn",
		"Warn a user and add warn points",
		"mod",
		warnHandler,
	).WithOptions(
		userOption("User to warn"),
		pointsOption("Warn points to add"),
		reasonOption(false),
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

// warnHandler handles the /mod warn command
func warnHandler(ctx *discord.CommandContext) error {
	return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		target, err := ctx.Target(c, "user")
		if err != nil {
			return nil, err
		}
		points := int(ctx.GetIntOption("points"))
		return svc.Warn(c, ctx.Invocation(), target, points, ctx.GetStringOption("reason"))
	})
}

// createLiftWarnCommand creates the /mod liftwarn subcommand
func createLiftWarnCommand() *discord.Command {
	return discord.NewModerationCommand(
		"liftwarn",
		"Lift a warn and give its points back",
		"mod",
		liftWarnHandler,
	).WithOptions(
		userOption("User whose warn to lift"),
		caseOption(),
		reasonOption(false),
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

func liftWarnHandler(ctx *discord.CommandContext) error {
	return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		target, err := ctx.Target(c, "user")
		if err != nil {
			return nil, err
		}
		return svc.LiftWarn(c, ctx.Invocation(), target, ctx.GetIntOption("case"), ctx.GetStringOption("reason"))
	})
}

// createRemovePointsCommand creates the /mod removepoints subcommand
func createRemovePointsCommand() *discord.Command {
	return discord.NewModerationCommand(
		"removepoints",
		"Remove warn points from a user",
		"mod",
		removePointsHandler,
	).WithOptions(
		userOption("User to remove points from"),
		pointsOption("Warn points to remove"),
		reasonOption(false),
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

func removePointsHandler(ctx *discord.CommandContext) error {
	return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		target, err := ctx.Target(c, "user")
		if err != nil {
			return nil, err
		}
		points := int(ctx.GetIntOption("points"))
		return svc.RemovePoints(c, ctx.Invocation(), target, points, ctx.GetStringOption("reason"))
	})
}

// createEditReasonCommand creates the /mod editreason subcommand
func createEditReasonCommand() *discord.Command {
	return discord.NewModerationCommand(
		"editreason",
		"Change the reason of a case",
		"mod",
		editReasonHandler,
	).WithOptions(
		userOption("User the case belongs to"),
		caseOption(),
		reasonOption(true),
	).WithUserPermissions(discordgo.PermissionModerateMembers)
}

func editReasonHandler(ctx *discord.CommandContext) error {
	return ctx.RunModeration(false, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		target, err := ctx.Target(c, "user")
		if err != nil {
			return nil, err
		}
		return svc.EditReason(c, ctx.Invocation(), target, ctx.GetIntOption("case"), ctx.GetStringOption("reason"))
	})
}
