package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

func TestTierOf(t *testing.T) {
	guild := &discordgo.Guild{
		ID:      "g",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "g", Permissions: discordgo.PermissionSendMessages},
			{ID: "root", Permissions: discordgo.PermissionAdministrator},
			{ID: "mods"},
			{ID: "admins"},
			{ID: "plus"},
		},
	}
	cfg := &models.GuildConfig{GuildID: "g", ModRoleID: "mods", AdminRoleID: "admins", MemberPlusRoleID: "plus"}

	tests := []struct {
		name  string
		user  string
		roles []string
		cfg   *models.GuildConfig
		want  moderation.Tier
	}{
		{"owner", "owner", nil, cfg, moderation.TierOwner},
		{"administrator permission", "u", []string{"root"}, cfg, moderation.TierAdmin},
		{"admin role", "u", []string{"admins"}, cfg, moderation.TierAdmin},
		{"mod role", "u", []string{"plus", "mods"}, cfg, moderation.TierMod},
		{"member plus", "u", []string{"plus"}, cfg, moderation.TierMemberPlus},
		{"nothing", "u", nil, cfg, moderation.TierMember},
		{"no config", "u", []string{"mods"}, nil, moderation.TierMember},
		{"unset role ids never match", "u", []string{""}, &models.GuildConfig{}, moderation.TierMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tierOf(guild, tt.user, tt.roles, tt.cfg))
		})
	}
}
