package moderation

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

const (
	colorWarn   = 0xFFA500
	colorKick   = 0xFF7F50
	colorBan    = 0xE74C3C
	colorMute   = 0x95A5A6
	colorLift   = 0x2ECC71
	colorUpdate = 0x3498DB
)

var caseTitles = map[models.CaseType]string{
	models.CaseWarn:         "Member Warned",
	models.CaseKick:         "Member Kicked",
	models.CaseBan:          "Member Banned",
	models.CaseUnban:        "Member Unbanned",
	models.CaseMute:         "Member Muted",
	models.CaseUnmute:       "Member Unmuted",
	models.CaseLiftWarn:     "Warn Lifted",
	models.CaseRemovePoints: "Points Removed",
	models.CaseEditReason:   "Case Reason Updated",
}

var caseColors = map[models.CaseType]int{
	models.CaseWarn:         colorWarn,
	models.CaseKick:         colorKick,
	models.CaseBan:          colorBan,
	models.CaseUnban:        colorLift,
	models.CaseMute:         colorMute,
	models.CaseUnmute:       colorLift,
	models.CaseLiftWarn:     colorLift,
	models.CaseRemovePoints: colorLift,
	models.CaseEditReason:   colorUpdate,
}

// CaseFooter is the footer every logged case carries. EditLoggedCase
// relies on this exact shape.
func CaseFooter(id int64) string {
	return fmt.Sprintf("Case #%d", id)
}

func userField(name, tag, id string) Field {
	return Field{Name: name, Value: fmt.Sprintf("%s (<@%s>)", tag, id), Inline: true}
}

// caseNotice renders a case as it is shown to moderators and the target
func caseNotice(kind models.CaseType, c *models.Case, targetTag string, extra ...Field) *Notice {
	n := &Notice{
		Title:     caseTitles[kind],
		Color:     caseColors[kind],
		Footer:    CaseFooter(c.ID),
		Timestamp: c.CreatedAt,
	}

	n.Fields = append(n.Fields,
		userField("Member", targetTag, c.TargetUserID),
		userField("Moderator", c.ModeratorTag, c.ModeratorID),
	)

	switch c.Punishment.Kind {
	case models.PunishmentPoints:
		n.Fields = append(n.Fields, Field{Name: "Points", Value: c.Punishment.String(), Inline: true})
	case models.PunishmentPermanent, models.PunishmentDuration:
		n.Fields = append(n.Fields, Field{Name: "Duration", Value: c.Punishment.String(), Inline: true})
	}

	n.Fields = append(n.Fields, Field{Name: "Reason", Value: c.Reason})
	if kind == models.CaseLiftWarn && c.LiftedReason != "" {
		n.Fields = append(n.Fields, Field{Name: "Lift reason", Value: c.LiftedReason})
	}
	n.Fields = append(n.Fields, extra...)
	return n
}

func withContent(n *Notice, content string) *Notice {
	cp := *n
	cp.Fields = append([]Field(nil), n.Fields...)
	cp.Content = content
	return &cp
}

// sendDM tells the target what happened. Failure is expected when the user
// blocks DMs or shares no server with the bot.
func (s *Service) sendDM(ctx context.Context, userID, content string, n *Notice) bool {
	err := s.call(ctx, func(ctx context.Context) error {
		return s.platform.SendDirectMessage(ctx, userID, withContent(n, content))
	})
	if err != nil {
		logger.Debug(fmt.Sprintf("DM a %s falló: %v", userID, err), "Moderation")
		return false
	}
	return true
}

// announce posts to the public log channel. When the target could not be
// told privately the post mentions them instead.
func (s *Service) announce(ctx context.Context, cfg *models.GuildConfig, n *Notice, mention string) {
	if cfg == nil || cfg.PublicLogChannelID == "" || n == nil {
		return
	}
	content := ""
	if mention != "" {
		content = fmt.Sprintf("<@%s>", mention)
	}
	err := s.call(ctx, func(ctx context.Context) error {
		return s.platform.PostMessage(ctx, cfg.PublicLogChannelID, withContent(n, content))
	})
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo publicar en el canal de logs %s: %v", cfg.PublicLogChannelID, err), "Moderation")
	}
}

// fanOut runs independent best-effort notifications concurrently
func fanOut(jobs ...func()) {
	var wg conc.WaitGroup
	for _, job := range jobs {
		if job != nil {
			wg.Go(job)
		}
	}
	wg.Wait()
}

func mentionUnless(delivered bool, userID string) string {
	if delivered {
		return ""
	}
	return userID
}
