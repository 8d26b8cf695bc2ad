package moderation

import (
	"context"

	"emperror.dev/errors"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// SettingsPatch holds the guild settings to change. Nil fields are kept.
type SettingsPatch struct {
	MuteRoleID         *string
	PublicLogChannelID *string
	MemberPlusRoleID   *string
	ModRoleID          *string
	AdminRoleID        *string
	KickThreshold      *int
	BanThreshold       *int
}

// Empty reports whether the patch changes nothing
func (p SettingsPatch) Empty() bool {
	return p.MuteRoleID == nil && p.PublicLogChannelID == nil && p.MemberPlusRoleID == nil &&
		p.ModRoleID == nil && p.AdminRoleID == nil && p.KickThreshold == nil && p.BanThreshold == nil
}

// Settings returns the guild configuration, for admins only
func (s *Service) Settings(ctx context.Context, inv Invocation) (*models.GuildConfig, error) {
	a, err := s.channelAction(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierAdmin)); err != nil {
		return nil, err
	}
	return a.cfg, nil
}

// UpdateSettings applies a patch to the guild configuration
func (s *Service) UpdateSettings(ctx context.Context, inv Invocation, patch SettingsPatch) (*models.GuildConfig, error) {
	a, err := s.channelAction(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierAdmin)); err != nil {
		return nil, err
	}

	cfg := *a.cfg
	cfg.GuildID = inv.GuildID
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.MuteRoleID, patch.MuteRoleID)
	set(&cfg.PublicLogChannelID, patch.PublicLogChannelID)
	set(&cfg.MemberPlusRoleID, patch.MemberPlusRoleID)
	set(&cfg.ModRoleID, patch.ModRoleID)
	set(&cfg.AdminRoleID, patch.AdminRoleID)
	if patch.KickThreshold != nil {
		cfg.KickThreshold = *patch.KickThreshold
	}
	if patch.BanThreshold != nil {
		cfg.BanThreshold = *patch.BanThreshold
	}

	if cfg.KickThreshold < 0 || cfg.BanThreshold < 0 {
		return nil, Validation("Thresholds can't be negative.")
	}
	kick, ban := s.thresholds(&cfg)
	if kick >= ban {
		return nil, Validation("The kick threshold (%d) must be lower than the ban threshold (%d).", kick, ban)
	}

	if err := s.settings.UpdateGuildConfig(ctx, &cfg); err != nil {
		return nil, errors.WrapIf(err, "save guild config")
	}
	return &cfg, nil
}
