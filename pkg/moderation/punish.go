package moderation

import (
	"context"
	"fmt"

	"emperror.dev/errors"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Kick removes a member from the guild. The target is told before the kick
// since afterwards the bot may share no server with them.
func (s *Service) Kick(ctx context.Context, inv Invocation, target Target, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod), requireMember(), s.targetBelowActor()); err != nil {
		return nil, err
	}

	c, err := s.commitCase(ctx, a, models.CaseKick, models.Punishment{}, SanitizeReason(reason), nil)
	if err != nil {
		return nil, err
	}

	notice := caseNotice(models.CaseKick, c, target.Tag())
	res := &Result{Case: c, Reply: notice}
	res.DMDelivered = s.sendDM(ctx, target.UserID(), fmt.Sprintf("You were kicked from %s.", guildName(inv)), notice)
	enforceErr := s.enforce(ctx, c, target)

	s.announce(ctx, a.cfg, notice, "")
	return res, enforceErr
}

// Ban bans a member or, by id, a user outside the guild
func (s *Service) Ban(ctx context.Context, inv Invocation, target Target, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod), s.targetBelowActor(), s.notBanned()); err != nil {
		return nil, err
	}

	c, err := s.commitCase(ctx, a, models.CaseBan, models.Permanent(), SanitizeReason(reason), nil)
	if err != nil {
		return nil, err
	}

	notice := caseNotice(models.CaseBan, c, target.Tag())
	res := &Result{Case: c, Reply: notice}
	if _, member := target.(KnownMember); member {
		res.DMDelivered = s.sendDM(ctx, target.UserID(), fmt.Sprintf("You were banned from %s.", guildName(inv)), notice)
	}
	enforceErr := s.enforce(ctx, c, target)

	s.announce(ctx, a.cfg, notice, "")
	return res, enforceErr
}

// Unban lifts a platform ban. The platform call runs first: an UNBAN case
// only exists for a ban that was actually lifted.
func (s *Service) Unban(ctx context.Context, inv Invocation, target Target, reason string) (*Result, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod), s.isBanned()); err != nil {
		return nil, err
	}

	reason = SanitizeReason(reason)
	err = s.call(ctx, func(ctx context.Context) error {
		return s.platform.Unban(ctx, inv.GuildID, target.UserID(), reason)
	})
	if err != nil {
		return nil, PermissionDenied(err, "I couldn't unban %s. Check my permissions.", target.Tag())
	}

	c, err := s.commitCase(ctx, a, models.CaseUnban, models.Punishment{}, reason, nil)
	if err != nil {
		return nil, err
	}

	notice := caseNotice(models.CaseUnban, c, target.Tag())
	s.announce(ctx, a.cfg, notice, "")
	return &Result{Case: c, Reply: notice}, nil
}

func (s *Service) banned(ctx context.Context, a *action) (bool, error) {
	var banned bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		banned, err = s.platform.IsBanned(ctx, a.inv.GuildID, a.target.UserID())
		return err
	})
	if err != nil {
		return false, errors.WrapIf(err, "look up ban")
	}
	return banned, nil
}

func (s *Service) notBanned() check {
	return func(ctx context.Context, a *action) error {
		if _, member := a.target.(KnownMember); member {
			return nil
		}
		banned, err := s.banned(ctx, a)
		if err != nil {
			return err
		}
		if banned {
			return Validation("%s is already banned.", a.target.Tag())
		}
		return nil
	}
}

func (s *Service) isBanned() check {
	return func(ctx context.Context, a *action) error {
		banned, err := s.banned(ctx, a)
		if err != nil {
			return err
		}
		if !banned {
			return Validation("%s isn't banned.", a.target.Tag())
		}
		return nil
	}
}
