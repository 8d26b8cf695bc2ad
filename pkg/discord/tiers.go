package discord

import (
	"context"

	"emperror.dev/errors"
	"github.com/bwmarrin/discordgo"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// TierResolver maps guild members to permission tiers using the guild owner,
// the Administrator permission and the roles configured per guild
type TierResolver struct {
	session  *discordgo.Session
	settings moderation.GuildSettings
}

var _ moderation.PermissionTier = (*TierResolver)(nil)

// NewTierResolver creates a TierResolver
func NewTierResolver(session *discordgo.Session, settings moderation.GuildSettings) *TierResolver {
	return &TierResolver{session: session, settings: settings}
}

// Resolve returns the tier of userID in guildID. Users that are not in the
// guild are plain members.
func (r *TierResolver) Resolve(ctx context.Context, guildID, userID string) (moderation.Tier, error) {
	guild, err := r.guild(ctx, guildID)
	if err != nil {
		return moderation.TierMember, err
	}

	member, err := r.member(ctx, guildID, userID)
	if err != nil {
		if isRESTCode(err, discordgo.ErrCodeUnknownMember, discordgo.ErrCodeUnknownUser) {
			return moderation.TierMember, nil
		}
		return moderation.TierMember, errors.WrapIfWithDetails(err, "fetch member", "guild", guildID, "user", userID)
	}

	cfg, err := r.settings.GuildConfig(ctx, guildID)
	if err != nil {
		return moderation.TierMember, errors.WrapIf(err, "load guild config")
	}
	return tierOf(guild, userID, member.Roles, cfg), nil
}

func (r *TierResolver) guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if r.session.State != nil {
		if g, err := r.session.State.Guild(guildID); err == nil {
			return g, nil
		}
	}
	g, err := r.session.Guild(guildID, discordgo.WithContext(ctx))
	return g, errors.WrapIfWithDetails(err, "fetch guild", "guild", guildID)
}

func (r *TierResolver) member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	if r.session.State != nil {
		if m, err := r.session.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	return r.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
}

func tierOf(guild *discordgo.Guild, userID string, roles []string, cfg *models.GuildConfig) moderation.Tier {
	if guild.OwnerID == userID {
		return moderation.TierOwner
	}
	if rolePermissions(guild, roles)&discordgo.PermissionAdministrator != 0 {
		return moderation.TierAdmin
	}
	if cfg == nil {
		return moderation.TierMember
	}

	has := func(id string) bool {
		if id == "" {
			return false
		}
		for _, r := range roles {
			if r == id {
				return true
			}
		}
		return false
	}
	switch {
	case has(cfg.AdminRoleID):
		return moderation.TierAdmin
	case has(cfg.ModRoleID):
		return moderation.TierMod
	case has(cfg.MemberPlusRoleID):
		return moderation.TierMemberPlus
	}
	return moderation.TierMember
}

// rolePermissions ORs the guild level permissions of @everyone and roles
func rolePermissions(guild *discordgo.Guild, roles []string) int64 {
	var perms int64
	for _, role := range guild.Roles {
		if role.ID == guild.ID {
			perms |= role.Permissions
			continue
		}
		for _, id := range roles {
			if role.ID == id {
				perms |= role.Permissions
				break
			}
		}
	}
	return perms
}
