// Package moderation implements the moderation case and timed-punishment
// lifecycle: case issuing, warn point escalation and scheduled unmutes.
package moderation

import (
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Tier is the permission level of a guild member
type Tier int

const (
	TierMember Tier = iota
	TierMemberPlus
	TierMod
	TierAdmin
	TierOwner
)

// String returns a readable tier name
func (t Tier) String() string {
	switch t {
	case TierMemberPlus:
		return "member+"
	case TierMod:
		return "mod"
	case TierAdmin:
		return "admin"
	case TierOwner:
		return "owner"
	default:
		return "member"
	}
}

// Target is the user a moderation action is aimed at. It is resolved once,
// before any check runs.
type Target interface {
	UserID() string
	Tag() string
	isTarget()
}

// KnownMember is a target that is currently in the guild
type KnownMember struct {
	ID       string
	Username string
	Roles    []string
}

// UserID returns the member's user id
func (m KnownMember) UserID() string { return m.ID }

// Tag returns the member's display tag
func (m KnownMember) Tag() string { return tagOr(m.Username, m.ID) }

// HasRole reports whether the member holds roleID
func (m KnownMember) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func (KnownMember) isTarget() {}

// ExternalUser is a target addressed by raw id, not a guild member
type ExternalUser struct {
	ID       string
	Username string
}

// UserID returns the user id
func (u ExternalUser) UserID() string { return u.ID }

// Tag returns the user's display tag
func (u ExternalUser) Tag() string { return tagOr(u.Username, u.ID) }

func (ExternalUser) isTarget() {}

func tagOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

// Invocation identifies who ran a command and where
type Invocation struct {
	GuildID      string
	GuildName    string
	ChannelID    string
	ModeratorID  string
	ModeratorTag string
}

// Member is the platform view of a guild member
type Member struct {
	ID       string
	Username string
	Roles    []string
}

// SendOverwrite is the tri-state of a role's send-messages overwrite
type SendOverwrite int

const (
	SendInherit SendOverwrite = iota
	SendAllow
	SendDeny
)

// Field is one name/value pair of a Notice
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Notice is a platform neutral rich message
type Notice struct {
	Content      string
	Title        string
	Description  string
	Color        int
	Fields       []Field
	Footer       string
	ThumbnailURL string
	Timestamp    time.Time
}

// Result describes the outcome of a moderation action
type Result struct {
	Case        *models.Case
	Escalation  *models.Case
	Total       int
	DMDelivered bool
	Reply       *Notice
	Message     string
	Noop        bool
	Count       int
}
