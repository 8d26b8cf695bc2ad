package discord

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// actionTimeout bounds a whole moderation command, notifications included
const actionTimeout = 2 * time.Minute

// ModerationFunc runs one moderation action for a command
type ModerationFunc func(c context.Context, svc *moderation.Service) (*moderation.Result, error)

// Invocation describes who ran the command and where
func (ctx *CommandContext) Invocation() moderation.Invocation {
	inv := moderation.Invocation{
		GuildID:   ctx.Interaction.GuildID,
		ChannelID: ctx.Interaction.ChannelID,
	}
	if u := ctx.User(); u != nil {
		inv.ModeratorID = u.ID
		inv.ModeratorTag = u.Username
	}
	if g := ctx.Guild(); g != nil {
		inv.GuildName = g.Name
	}
	return inv
}

// Target resolves a user option into a moderation target
func (ctx *CommandContext) Target(c context.Context, option string) (moderation.Target, error) {
	opt := ctx.GetOption(option)
	if opt == nil {
		return nil, moderation.Validation("You must specify a user.")
	}
	userID := opt.UserValue(nil).ID
	username := ""
	if resolved := ctx.Interaction.ApplicationCommandData().Resolved; resolved != nil {
		if u, ok := resolved.Users[userID]; ok {
			username = u.Username
		}
	}
	return ctx.Client.Moderation.ResolveTarget(c, ctx.Interaction.GuildID, userID, username)
}

// RunModeration defers the response, runs fn off the gateway goroutine and
// renders its result. Failures are shown only to the invoker.
func (ctx *CommandContext) RunModeration(ephemeral bool, fn ModerationFunc) error {
	if ctx.Client == nil || ctx.Client.Moderation == nil {
		return ctx.ReplyEphemeral("❌ Moderation is not available right now.")
	}

	var err error
	if ephemeral {
		err = ctx.DeferEphemeral()
	} else {
		err = ctx.Defer()
	}
	if err != nil {
		return err
	}

	errors.Go(func() {
		c, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()

		res, err := fn(c, ctx.Client.Moderation)
		ctx.renderResult(res, err, ephemeral)
	})
	return nil
}

func (ctx *CommandContext) renderResult(res *moderation.Result, err error, ephemeral bool) {
	var sendErr error
	switch {
	case err != nil && res == nil:
		msg := "❌ " + ErrorMessage(err)
		if ephemeral {
			sendErr = ctx.EditReply(msg)
		} else {
			sendErr = ctx.FollowupEphemeral(msg)
		}
	default:
		content := ""
		if res.Reply == nil {
			content = res.Message
		}
		if err != nil {
			// the case stands even though enforcement failed
			content = "⚠️ " + ErrorMessage(err)
		}
		var embeds []*discordgo.MessageEmbed
		if res.Reply != nil {
			embeds = append(embeds, EmbedFromNotice(res.Reply))
		}
		sendErr = ctx.EditReplyComplex(content, embeds...)
	}
	if sendErr != nil {
		logger.Warn("No se pudo responder a la interacción: "+sendErr.Error(), "Moderation")
	}
}

// ErrorMessage turns an error into something safe to show the invoker.
// Unclassified errors are logged and replaced by a generic message.
func ErrorMessage(err error) string {
	if moderation.KindOf(err) != moderation.KindUnknown {
		if msg := moderation.Message(err); msg != "" {
			return msg
		}
	}
	logger.Error("Error inesperado en moderación: "+err.Error(), "Moderation")
	return "Something went wrong while running this command."
}
