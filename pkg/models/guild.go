package models

// GuildConfig holds the per guild moderation settings
type GuildConfig struct {
	GuildID            string   `bson:"guildId" json:"guildId"`
	MuteRoleID         string   `bson:"muteRoleId" json:"muteRoleId,omitempty"`
	PublicLogChannelID string   `bson:"publicLogChannelId" json:"publicLogChannelId,omitempty"`
	MemberPlusRoleID   string   `bson:"memberPlusRoleId" json:"memberPlusRoleId,omitempty"`
	ModRoleID          string   `bson:"modRoleId" json:"modRoleId,omitempty"`
	AdminRoleID        string   `bson:"adminRoleId" json:"adminRoleId,omitempty"`
	LockedChannels     []string `bson:"lockedChannels,omitempty" json:"lockedChannels,omitempty"`

	// Zero means the process-wide default applies
	KickThreshold int `bson:"kickThreshold" json:"kickThreshold,omitempty"`
	BanThreshold  int `bson:"banThreshold" json:"banThreshold,omitempty"`
}

// Thresholds resolves the effective kick and ban thresholds
func (g *GuildConfig) Thresholds(defaultKick, defaultBan int) (kick, ban int) {
	kick, ban = defaultKick, defaultBan
	if g == nil {
		return
	}
	if g.KickThreshold > 0 {
		kick = g.KickThreshold
	}
	if g.BanThreshold > 0 {
		ban = g.BanThreshold
	}
	return
}

// IsLockable reports whether a channel is on the freeze list
func (g *GuildConfig) IsLockable(channelID string) bool {
	if g == nil {
		return false
	}
	for _, id := range g.LockedChannels {
		if id == channelID {
			return true
		}
	}
	return false
}
