package moderation

import (
	"context"

	"emperror.dev/errors"
)

// check is one precondition of an action. Checks run in order and the
// first failure aborts the action before any state changes.
type check func(ctx context.Context, a *action) error

func (s *Service) run(ctx context.Context, a *action, checks ...check) error {
	for _, c := range checks {
		if err := c(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) actorTier(ctx context.Context, a *action) (Tier, error) {
	if a.resolved {
		return a.actorTier, nil
	}
	t, err := s.tiers.Resolve(ctx, a.inv.GuildID, a.inv.ModeratorID)
	if err != nil {
		return TierMember, errors.WrapIf(err, "resolve invoker tier")
	}
	a.actorTier, a.resolved = t, true
	return t, nil
}

// requireTier rejects invokers below min
func (s *Service) requireTier(min Tier) check {
	return func(ctx context.Context, a *action) error {
		t, err := s.actorTier(ctx, a)
		if err != nil {
			return err
		}
		if t < min {
			return Validation("You need to be %s or above to do that.", min)
		}
		return nil
	}
}

// requireMember rejects targets that are not in the guild
func requireMember() check {
	return func(_ context.Context, a *action) error {
		if _, ok := a.target.(KnownMember); !ok {
			return Validation("%s is not a member of this server.", a.target.Tag())
		}
		return nil
	}
}

// targetBelowActor enforces the role hierarchy: nobody moderates
// themselves, staff, or someone ranked above them.
func (s *Service) targetBelowActor() check {
	return func(ctx context.Context, a *action) error {
		if a.target.UserID() == a.inv.ModeratorID {
			return Validation("You can't moderate yourself.")
		}
		if _, ok := a.target.(KnownMember); !ok {
			return nil
		}

		actor, err := s.actorTier(ctx, a)
		if err != nil {
			return err
		}
		target, err := s.tiers.Resolve(ctx, a.inv.GuildID, a.target.UserID())
		if err != nil {
			return errors.WrapIf(err, "resolve target tier")
		}
		if target >= TierMod || target > actor {
			return Validation("Target user is a moderator or ranks above you.")
		}
		return nil
	}
}

func positivePoints(points int) check {
	return func(context.Context, *action) error {
		if points <= 0 {
			return Validation("Points must be a positive number.")
		}
		return nil
	}
}

// muteRoleConfigured rejects mutes in guilds without a mute role
func muteRoleConfigured() check {
	return func(_ context.Context, a *action) error {
		if a.cfg.MuteRoleID == "" {
			return Validation("This server has no mute role configured. Set one with /settings.")
		}
		return nil
	}
}
