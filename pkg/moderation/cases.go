package moderation

import (
	"context"

	"emperror.dev/errors"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// ResolveTarget turns a user id into a KnownMember when the user is in the
// guild and an ExternalUser otherwise.
func (s *Service) ResolveTarget(ctx context.Context, guildID, userID, username string) (Target, error) {
	var m *Member
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		m, err = s.platform.Member(ctx, guildID, userID)
		return err
	})
	if err != nil {
		return nil, errors.WrapIfWithDetails(err, "resolve target", "user", userID)
	}
	if m == nil {
		return ExternalUser{ID: userID, Username: username}, nil
	}
	if m.Username == "" {
		m.Username = username
	}
	return KnownMember{ID: m.ID, Username: m.Username, Roles: m.Roles}, nil
}

// History is a user's moderation record within a guild
type History struct {
	Record *models.UserRecord
	Cases  []*models.Case
}

// Cases lists a user's cases. Members may always read their own.
func (s *Service) Cases(ctx context.Context, inv Invocation, target Target) (*History, error) {
	a, err := s.begin(ctx, inv, target)
	if err != nil {
		return nil, err
	}
	if target.UserID() != inv.ModeratorID {
		if err := s.run(ctx, a, s.requireTier(TierMod)); err != nil {
			return nil, err
		}
	}
	return s.History(ctx, inv.GuildID, target.UserID())
}

// History reads a user's record and cases without any permission check
func (s *Service) History(ctx context.Context, guildID, userID string) (*History, error) {
	rec, err := s.accumulator.Record(ctx, guildID, userID)
	if err != nil {
		return nil, errors.WrapIf(err, "load user record")
	}
	if rec == nil {
		rec = &models.UserRecord{GuildID: guildID, UserID: userID}
	}
	cases, err := s.ledger.ListCases(ctx, guildID, userID)
	if err != nil {
		return nil, errors.WrapIf(err, "list cases")
	}
	return &History{Record: rec, Cases: cases}, nil
}
