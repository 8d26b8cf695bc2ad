package models

import "time"

// UserRecord is the per guild, per user moderation state
type UserRecord struct {
	GuildID       string     `bson:"guildId" json:"guildId"`
	UserID        string     `bson:"userId" json:"userId"`
	WarnPoints    int        `bson:"warnPoints" json:"warnPoints"`
	WasWarnKicked bool       `bson:"wasWarnKicked" json:"wasWarnKicked"`
	IsMuted       bool       `bson:"isMuted" json:"isMuted"`
	MuteUntil     *time.Time `bson:"muteUntil,omitempty" json:"muteUntil,omitempty"`
}
