// Package mod - /mod cases
package mod

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// casesShown caps the cases listed in one reply; embeds hold 25 fields
const casesShown = 20

// createCasesCommand creates the /mod cases subcommand
func createCasesCommand() *discord.Command {
	cmd := discord.NewModerationCommand(
		"cases",
		"List a user's cases and warn points",
		"mod",
		casesHandler,
	).WithOptions(userOption("User to look up"))
	cmd.Options[0].Required = false
	return cmd
}

// casesHandler lists the invoker's own cases when no user is given
func casesHandler(ctx *discord.CommandContext) error {
	return ctx.RunModeration(true, func(c context.Context, svc *moderation.Service) (*moderation.Result, error) {
		inv := ctx.Invocation()
		var target moderation.Target = moderation.ExternalUser{ID: inv.ModeratorID, Username: inv.ModeratorTag}
		if ctx.GetOption("user") != nil {
			var err error
			if target, err = ctx.Target(c, "user"); err != nil {
				return nil, err
			}
		}

		h, err := svc.Cases(c, inv, target)
		if err != nil {
			return nil, err
		}
		return &moderation.Result{Reply: historyNotice(target, h)}, nil
	})
}

func historyNotice(target moderation.Target, h *moderation.History) *moderation.Notice {
	n := &moderation.Notice{
		Title: fmt.Sprintf("Cases of %s", target.Tag()),
		Color: 0x3498DB,
	}

	status := fmt.Sprintf("**Warn points:** %d", h.Record.WarnPoints)
	if h.Record.IsMuted {
		status += "\n**Muted**"
		if h.Record.MuteUntil != nil {
			status += fmt.Sprintf(" until <t:%d:F>", h.Record.MuteUntil.Unix())
		}
	}
	n.Description = status

	if len(h.Cases) == 0 {
		n.Description += "\n\nClean record."
		return n
	}

	// newest first
	shown := 0
	for i := len(h.Cases) - 1; i >= 0 && shown < casesShown; i-- {
		n.Fields = append(n.Fields, caseField(h.Cases[i]))
		shown++
	}
	n.Footer = fmt.Sprintf("%d cases in total", len(h.Cases))
	return n
}

func caseField(c *models.Case) moderation.Field {
	title := fmt.Sprintf("#%d %s", c.ID, c.Type)
	switch c.Punishment.Kind {
	case models.PunishmentNone:
	case models.PunishmentPoints:
		title += fmt.Sprintf(" (%d points)", c.Punishment.Points)
	default:
		title += " (" + c.Punishment.String() + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nBy %s <t:%d:R>", c.Reason, c.ModeratorTag, c.CreatedAt.Unix())
	if c.Lifted {
		fmt.Fprintf(&b, "\n~~Lifted~~ by %s: %s", c.LiftedByTag, c.LiftedReason)
	}
	return moderation.Field{Name: title, Value: b.String()}
}
