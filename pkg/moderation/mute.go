package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emperror.dev/errors"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

const expiredReason = "Temporary mute expired."

// Mute gives the target the guild's mute role. An empty duration mutes
// permanently, otherwise an unmute is scheduled.
func (s *Service) Mute(ctx context.Context, inv Invocation, target Target, duration, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}

	var d time.Duration
	parse := func(context.Context, *action) error {
		if strings.TrimSpace(duration) == "" {
			return nil
		}
		v, err := ParseDuration(duration)
		if err != nil {
			return BadDuration(duration)
		}
		d = v
		return nil
	}
	checks := []check{
		s.requireTier(TierMod),
		requireMember(),
		s.targetBelowActor(),
		muteRoleConfigured(),
		parse,
		s.notMuted(),
	}
	// Checks run under the lock so two mutes of the same user can't both
	// pass notMuted.
	uid := target.UserID()
	unlock := s.locks.lock(inv.GuildID, uid)
	defer unlock()

	if err := s.run(ctx, a, checks...); err != nil {
		return nil, err
	}

	p := models.Permanent()
	var until *time.Time
	if d > 0 {
		u := s.clock.Now().UTC().Add(d)
		p, until = models.Lasting(d), &u
	}

	if _, err := s.accumulator.SetMuted(ctx, inv.GuildID, uid, true, until); err != nil {
		return nil, errors.WrapIf(err, "save mute flag")
	}
	if until != nil {
		if err := s.scheduler.Arm(ctx, inv.GuildID, uid, *until, s.ExpireMute); err != nil {
			s.rollbackMute(ctx, inv.GuildID, uid, false)
			return nil, err
		}
	}

	c, err := s.commitCase(ctx, a, models.CaseMute, p, SanitizeReason(reason), until)
	if err != nil {
		s.rollbackMute(ctx, inv.GuildID, uid, until != nil)
		return nil, err
	}

	var roleErr error
	err = s.call(ctx, func(ctx context.Context) error {
		return s.platform.SetRole(ctx, inv.GuildID, uid, a.cfg.MuteRoleID, true)
	})
	if err != nil {
		roleErr = PermissionDenied(err, "Case #%d was logged but I couldn't give %s the mute role. Check my permissions.", c.ID, target.Tag())
	}

	notice := caseNotice(models.CaseMute, c, target.Tag())
	if until != nil {
		notice.Fields = append(notice.Fields, Field{Name: "Until", Value: fmt.Sprintf("<t:%d:F>", until.Unix()), Inline: true})
	}
	res := &Result{Case: c, Reply: notice}
	res.DMDelivered = s.sendDM(ctx, uid, fmt.Sprintf("You were muted in %s.", guildName(inv)), notice)

	s.announce(ctx, a.cfg, notice, mentionUnless(res.DMDelivered, uid))
	return res, roleErr
}

// rollbackMute undoes the bookkeeping of a mute whose case never got
// recorded.
func (s *Service) rollbackMute(ctx context.Context, guildID, userID string, armed bool) {
	if armed {
		s.scheduler.Cancel(ctx, guildID, userID)
	}
	if _, err := s.accumulator.SetMuted(ctx, guildID, userID, false, nil); err != nil {
		logger.Error(fmt.Sprintf("No se pudo revertir el mute de %s: %v", userID, err), "Moderation")
	}
}

func (s *Service) notMuted() check {
	return func(ctx context.Context, a *action) error {
		uid := a.target.UserID()
		if m, ok := a.target.(KnownMember); ok && m.HasRole(a.cfg.MuteRoleID) {
			return Validation("%s is already muted.", a.target.Tag())
		}
		if _, pending := s.scheduler.Pending(a.inv.GuildID, uid); pending {
			return Conflict(ErrAlreadyScheduled, "%s already has an unmute scheduled.", a.target.Tag())
		}
		rec, err := s.accumulator.Record(ctx, a.inv.GuildID, uid)
		if err != nil {
			return errors.WrapIf(err, "load user record")
		}
		if rec != nil && rec.IsMuted {
			return Validation("%s is already muted.", a.target.Tag())
		}
		return nil
	}
}

// Unmute lifts a mute early. Unmuting someone who is not muted succeeds
// as a no-op and records nothing.
func (s *Service) Unmute(ctx context.Context, inv Invocation, target Target, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod), requireMember(), s.targetBelowActor(), muteRoleConfigured()); err != nil {
		return nil, err
	}

	uid := target.UserID()
	unlock := s.locks.lock(inv.GuildID, uid)
	defer unlock()

	cancelled := s.scheduler.Cancel(ctx, inv.GuildID, uid)
	changed, err := s.accumulator.SetMuted(ctx, inv.GuildID, uid, false, nil)
	if err != nil {
		return nil, errors.WrapIf(err, "clear mute flag")
	}
	hasRole := target.(KnownMember).HasRole(a.cfg.MuteRoleID)
	if !changed && !hasRole && !cancelled {
		return &Result{Noop: true, Message: fmt.Sprintf("%s is not muted.", target.Tag())}, nil
	}

	c, err := s.commitCase(ctx, a, models.CaseUnmute, models.Punishment{}, SanitizeReason(reason), nil)
	if err != nil {
		return nil, err
	}

	var roleErr error
	err = s.call(ctx, func(ctx context.Context) error {
		return s.platform.SetRole(ctx, inv.GuildID, uid, a.cfg.MuteRoleID, false)
	})
	if err != nil {
		roleErr = PermissionDenied(err, "Case #%d was logged but I couldn't remove the mute role from %s.", c.ID, target.Tag())
	}

	notice := caseNotice(models.CaseUnmute, c, target.Tag())
	res := &Result{Case: c, Reply: notice}
	res.DMDelivered = s.sendDM(ctx, uid, fmt.Sprintf("You were unmuted in %s.", guildName(inv)), notice)
	s.announce(ctx, a.cfg, notice, "")
	return res, roleErr
}

// ExpireMute is the scheduler callback of a timed mute. It commits an
// UNMUTE case only when the user was still muted, but removes a leftover
// mute role either way.
func (s *Service) ExpireMute(ctx context.Context, guildID, userID string) {
	unlock := s.locks.lock(guildID, userID)
	defer unlock()

	changed, err := s.accumulator.SetMuted(ctx, guildID, userID, false, nil)
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo desmutear a %s en %s: %v", userID, guildID, err), "Moderation")
		return
	}

	cfg, err := s.settings.GuildConfig(ctx, guildID)
	if err != nil || cfg == nil {
		cfg = &models.GuildConfig{GuildID: guildID}
	}

	var target Target = ExternalUser{ID: userID}
	var m *Member
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.platform.Member(ctx, guildID, userID)
		return err
	})
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudo obtener al miembro %s: %v", userID, err), "Moderation")
	}

	// stripped even when the record was already clear
	if m != nil {
		km := KnownMember{ID: m.ID, Username: m.Username, Roles: m.Roles}
		target = km
		if km.HasRole(cfg.MuteRoleID) {
			err := s.call(ctx, func(ctx context.Context) error {
				return s.platform.SetRole(ctx, guildID, userID, cfg.MuteRoleID, false)
			})
			if err != nil {
				logger.Warn(fmt.Sprintf("No se pudo quitar el rol de mute a %s: %v", userID, err), "Moderation")
			}
		}
	}

	if !changed {
		logger.Debug(fmt.Sprintf("%s ya no estaba muteado en %s", userID, guildID), "Moderation")
		return
	}

	a := &action{inv: s.botInvocation(guildID), target: target, cfg: cfg}
	c, err := s.commitCase(ctx, a, models.CaseUnmute, models.Punishment{}, expiredReason, nil)
	if err != nil {
		logger.Error(fmt.Sprintf("No se pudo registrar el unmute de %s: %v", userID, err), "Moderation")
		return
	}

	notice := caseNotice(models.CaseUnmute, c, target.Tag())
	if m != nil {
		s.sendDM(ctx, userID, "Your mute has expired.", notice)
	}
	s.announce(ctx, cfg, notice, "")
}

// RestoreTimers re-arms every pending unmute after a restart. Overdue
// ones fire right away.
func (s *Service) RestoreTimers(ctx context.Context) (int, error) {
	n, err := s.scheduler.Restore(ctx, s.ExpireMute)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudieron restaurar los timers persistidos: %v", err), "Moderation")
	}

	users, err := s.accumulator.MutedUsers(ctx)
	if err != nil {
		return n, errors.WrapIf(err, "list muted users")
	}
	for _, r := range users {
		if r.MuteUntil == nil {
			continue
		}
		if _, pending := s.scheduler.Pending(r.GuildID, r.UserID); pending {
			continue
		}
		if err := s.scheduler.Arm(ctx, r.GuildID, r.UserID, *r.MuteUntil, s.ExpireMute); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo rearmar el unmute de %s: %v", r.UserID, err), "Moderation")
			continue
		}
		n++
	}
	return n, nil
}

// ReapplyMute gives the mute role back to a muted user who rejoined
func (s *Service) ReapplyMute(ctx context.Context, guildID, userID string) (bool, error) {
	rec, err := s.accumulator.Record(ctx, guildID, userID)
	if err != nil {
		return false, errors.WrapIf(err, "load user record")
	}
	if rec == nil || !rec.IsMuted {
		return false, nil
	}
	cfg, err := s.settings.GuildConfig(ctx, guildID)
	if err != nil {
		return false, errors.WrapIf(err, "load guild config")
	}
	if cfg == nil || cfg.MuteRoleID == "" {
		return false, nil
	}
	err = s.call(ctx, func(ctx context.Context) error {
		return s.platform.SetRole(ctx, guildID, userID, cfg.MuteRoleID, true)
	})
	if err != nil {
		return false, PermissionDenied(err, "couldn't reapply the mute role")
	}
	return true, nil
}
