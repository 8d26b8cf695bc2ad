package moderation

import (
	"context"
	"fmt"
	"strconv"

	"emperror.dev/errors"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

func guildName(inv Invocation) string {
	if inv.GuildName != "" {
		return inv.GuildName
	}
	return "the server"
}

func totalField(total int) Field {
	return Field{Name: "Total points", Value: strconv.Itoa(total), Inline: true}
}

// Warn issues warn points and escalates to a kick or a ban once the guild
// thresholds are crossed. The ban threshold is checked first.
func (s *Service) Warn(ctx context.Context, inv Invocation, target Target, points int, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod), s.targetBelowActor(), positivePoints(points)); err != nil {
		return nil, err
	}

	uid := target.UserID()
	unlock := s.locks.lock(inv.GuildID, uid)
	defer unlock()

	total, err := s.accumulator.ApplyDelta(ctx, inv.GuildID, uid, points)
	if err != nil {
		return nil, errors.WrapIfWithDetails(err, "apply warn points", "user", uid)
	}

	c, err := s.commitCase(ctx, a, models.CaseWarn, models.Points(points), SanitizeReason(reason), nil)
	if err != nil {
		if _, rerr := s.accumulator.ApplyDelta(ctx, inv.GuildID, uid, -points); rerr != nil {
			logger.Error(fmt.Sprintf("No se pudieron descontar %d puntos de %s: %v", points, uid, rerr), "Moderation")
		}
		return nil, err
	}

	kick, ban := s.thresholds(a.cfg)
	notice := caseNotice(models.CaseWarn, c, target.Tag(), totalField(total))
	res := &Result{Case: c, Total: total, Reply: notice}
	_, member := target.(KnownMember)

	var escalation *Notice
	var enforceErr error
	dmSent := false

	switch {
	case total >= ban:
		res.DMDelivered = s.sendDM(ctx, uid, fmt.Sprintf("You were banned from %s for reaching %d or more points.", guildName(inv), ban), notice)
		dmSent = true
		res.Escalation, escalation, enforceErr = s.escalate(ctx, a, models.CaseBan, fmt.Sprintf("Reached %d or more warn points.", ban))
	case total >= kick && member:
		kicked, err := s.accumulator.WasWarnKicked(ctx, inv.GuildID, uid)
		if err != nil {
			logger.Warn(fmt.Sprintf("No se pudo leer wasWarnKicked de %s: %v", uid, err), "Moderation")
			break
		}
		if kicked {
			break
		}
		if err := s.accumulator.MarkWarnKicked(ctx, inv.GuildID, uid); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo marcar wasWarnKicked de %s: %v", uid, err), "Moderation")
			break
		}
		res.DMDelivered = s.sendDM(ctx, uid, fmt.Sprintf("You were kicked from %s for reaching %d or more points. You will be banned at %d points.", guildName(inv), kick, ban), notice)
		dmSent = true
		res.Escalation, escalation, enforceErr = s.escalate(ctx, a, models.CaseKick, fmt.Sprintf("Reached %d or more warn points.", kick))
	}

	if !dmSent && member {
		res.DMDelivered = s.sendDM(ctx, uid, fmt.Sprintf("You were warned in %s. You will be kicked at %d points and banned at %d points.", guildName(inv), kick, ban), notice)
	}

	mention := ""
	if member && res.Escalation == nil {
		mention = mentionUnless(res.DMDelivered, uid)
	}
	fanOut(
		func() { s.announce(ctx, a.cfg, notice, mention) },
		func() { s.announce(ctx, a.cfg, escalation, "") },
	)
	return res, enforceErr
}

// escalate commits an automatic KICK or BAN and enforces it
func (s *Service) escalate(ctx context.Context, a *action, typ models.CaseType, reason string) (*models.Case, *Notice, error) {
	p := models.Punishment{}
	if typ == models.CaseBan {
		p = models.Permanent()
	}
	auto := &action{inv: s.botInvocation(a.inv.GuildID), target: a.target, cfg: a.cfg}
	auto.inv.GuildName = a.inv.GuildName

	c, err := s.commitCase(ctx, auto, typ, p, reason, nil)
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo registrar la escalada %s de %s: %v", typ, a.target.UserID(), err), "Moderation")
		return nil, nil, err
	}
	return c, caseNotice(typ, c, a.target.Tag()), s.enforce(ctx, c, a.target)
}

// enforce applies a committed KICK or BAN on the platform. The case is
// never rolled back when the platform refuses.
func (s *Service) enforce(ctx context.Context, c *models.Case, target Target) error {
	var verb string
	err := s.call(ctx, func(ctx context.Context) error {
		switch c.Type {
		case models.CaseKick:
			verb = "kick"
			return s.platform.Kick(ctx, c.GuildID, c.TargetUserID, c.Reason)
		case models.CaseBan:
			verb = "ban"
			return s.platform.Ban(ctx, c.GuildID, c.TargetUserID, c.Reason)
		}
		return nil
	})
	if err != nil {
		logger.Error(fmt.Sprintf("Fallo al aplicar %s sobre %s en %s: %v", c.Type, c.TargetUserID, c.GuildID, err), "Moderation")
		return PermissionDenied(err, "Case #%d was logged but I couldn't %s %s. Check my permissions.", c.ID, verb, target.Tag())
	}
	return nil
}

func negativePoints(err error, points int, target Target) error {
	if errors.Is(err, ErrNegativePoints) || KindOf(err) == KindInvalidOperation {
		return InvalidOperation(ErrNegativePoints, "Removing %d points would leave %s below zero.", points, target.Tag())
	}
	return errors.WrapIf(err, "apply point delta")
}

// LiftWarn marks a warn case as lifted and refunds its points
func (s *Service) LiftWarn(ctx context.Context, inv Invocation, target Target, caseID int64, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod), s.targetBelowActor()); err != nil {
		return nil, err
	}

	uid := target.UserID()
	unlock := s.locks.lock(inv.GuildID, uid)
	defer unlock()

	c, err := s.getCase(ctx, inv.GuildID, target, caseID)
	if err != nil {
		return nil, err
	}
	if c.Type != models.CaseWarn {
		return nil, Validation("Case #%d is a %s, not a warn.", c.ID, c.Type)
	}
	if c.Lifted {
		return nil, Conflict(ErrAlreadyLifted, "Case #%d was already lifted.", c.ID)
	}

	points := c.Punishment.Points
	total, err := s.accumulator.ApplyDelta(ctx, inv.GuildID, uid, -points)
	if err != nil {
		return nil, negativePoints(err, points, target)
	}

	now := s.clock.Now().UTC()
	c.Lifted = true
	c.LiftedReason = SanitizeReason(reason)
	c.LiftedByID = inv.ModeratorID
	c.LiftedByTag = inv.ModeratorTag
	c.LiftedAt = now
	c.UpdatedAt = now
	if err := s.ledger.UpdateCase(ctx, inv.GuildID, uid, c); err != nil {
		if _, rerr := s.accumulator.ApplyDelta(ctx, inv.GuildID, uid, points); rerr != nil {
			logger.Error(fmt.Sprintf("No se pudieron restaurar %d puntos de %s: %v", points, uid, rerr), "Moderation")
		}
		return nil, errors.WrapIf(err, "update lifted case")
	}
	s.publish(ctx, models.CaseLiftWarn, c)

	notice := caseNotice(models.CaseLiftWarn, c, target.Tag(), totalField(total))
	notice.Timestamp = now
	res := &Result{Case: c, Total: total, Reply: notice}
	if _, member := target.(KnownMember); member {
		res.DMDelivered = s.sendDM(ctx, uid, fmt.Sprintf("One of your warns was lifted in %s.", guildName(inv)), notice)
	}
	s.announce(ctx, a.cfg, notice, "")
	return res, nil
}

// RemovePoints takes points away without touching any warn case
func (s *Service) RemovePoints(ctx context.Context, inv Invocation, target Target, points int, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod), s.targetBelowActor(), positivePoints(points)); err != nil {
		return nil, err
	}

	uid := target.UserID()
	unlock := s.locks.lock(inv.GuildID, uid)
	defer unlock()

	total, err := s.accumulator.ApplyDelta(ctx, inv.GuildID, uid, -points)
	if err != nil {
		return nil, negativePoints(err, points, target)
	}

	c, err := s.commitCase(ctx, a, models.CaseRemovePoints, models.Points(points), SanitizeReason(reason), nil)
	if err != nil {
		if _, rerr := s.accumulator.ApplyDelta(ctx, inv.GuildID, uid, points); rerr != nil {
			logger.Error(fmt.Sprintf("No se pudieron restaurar %d puntos de %s: %v", points, uid, rerr), "Moderation")
		}
		return nil, err
	}

	notice := caseNotice(models.CaseRemovePoints, c, target.Tag(), totalField(total))
	res := &Result{Case: c, Total: total, Reply: notice}
	if _, member := target.(KnownMember); member {
		res.DMDelivered = s.sendDM(ctx, uid, fmt.Sprintf("%d warn points were removed from you in %s.", points, guildName(inv)), notice)
	}
	s.announce(ctx, a.cfg, notice, "")
	return res, nil
}

// EditReason rewrites the reason of a case and of its public log entry
func (s *Service) EditReason(ctx context.Context, inv Invocation, target Target, caseID int64, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod), s.targetBelowActor()); err != nil {
		return nil, err
	}

	uid := target.UserID()
	unlock := s.locks.lock(inv.GuildID, uid)
	defer unlock()

	c, err := s.getCase(ctx, inv.GuildID, target, caseID)
	if err != nil {
		return nil, err
	}

	previous := c.Reason
	c.Reason = SanitizeReason(reason)
	c.UpdatedAt = s.clock.Now().UTC()
	if err := s.ledger.UpdateCase(ctx, inv.GuildID, uid, c); err != nil {
		return nil, errors.WrapIf(err, "update case reason")
	}
	s.publish(ctx, models.CaseEditReason, c)

	notice := caseNotice(models.CaseEditReason, c, target.Tag(), Field{Name: "Previous reason", Value: previous})
	notice.Timestamp = c.UpdatedAt
	res := &Result{Case: c, Reply: notice, Message: fmt.Sprintf("Case #%d updated.", c.ID)}

	edited := false
	if a.cfg.PublicLogChannelID != "" {
		err := s.call(ctx, func(ctx context.Context) error {
			var err error
			edited, err = s.platform.EditLoggedCase(ctx, a.cfg.PublicLogChannelID, c.ID, c.Reason)
			return err
		})
		if err != nil {
			logger.Warn(fmt.Sprintf("No se pudo editar el log del caso #%d: %v", c.ID, err), "Moderation")
		}
	}
	if edited {
		res.Message = fmt.Sprintf("Case #%d updated and its log entry edited.", c.ID)
	} else {
		s.announce(ctx, a.cfg, notice, "")
	}

	if _, member := target.(KnownMember); member {
		res.DMDelivered = s.sendDM(ctx, uid, fmt.Sprintf("The reason of one of your cases in %s was updated.", guildName(inv)), notice)
	}
	return res, nil
}

func (s *Service) getCase(ctx context.Context, guildID string, target Target, caseID int64) (*models.Case, error) {
	c, err := s.ledger.GetCase(ctx, guildID, target.UserID(), caseID)
	if err != nil {
		if KindOf(err) == KindNotFound || errors.Is(err, ErrCaseNotFound) {
			return nil, NotFound(ErrCaseNotFound, "%s has no case #%d.", target.Tag(), caseID)
		}
		return nil, errors.WrapIf(err, "get case")
	}
	return c, nil
}
