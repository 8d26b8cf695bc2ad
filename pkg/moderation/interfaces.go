package moderation

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Ledger is the append-only case store. Case ids are allocated per guild.
type Ledger interface {
	// NextCaseID atomically reserves the next case id of the guild
	NextCaseID(ctx context.Context, guildID string) (int64, error)
	// Append stores a new case, failing with a conflict if the id exists
	Append(ctx context.Context, guildID, userID string, c *models.Case) error
	GetCase(ctx context.Context, guildID, userID string, caseID int64) (*models.Case, error)
	// UpdateCase replaces a previously fetched case
	UpdateCase(ctx context.Context, guildID, userID string, c *models.Case) error
	// ListCases returns the user's cases ordered by id
	ListCases(ctx context.Context, guildID, userID string) ([]*models.Case, error)
}

// Accumulator tracks warn points and mute state per guild member
type Accumulator interface {
	// ApplyDelta adds delta to the user's points and returns the new total.
	// A delta that would leave the total negative is rejected unchanged.
	ApplyDelta(ctx context.Context, guildID, userID string, delta int) (int, error)
	CurrentTotal(ctx context.Context, guildID, userID string) (int, error)
	MarkWarnKicked(ctx context.Context, guildID, userID string) error
	WasWarnKicked(ctx context.Context, guildID, userID string) (bool, error)
	// SetMuted flips the muted flag and reports whether it changed
	SetMuted(ctx context.Context, guildID, userID string, muted bool, until *time.Time) (bool, error)
	Record(ctx context.Context, guildID, userID string) (*models.UserRecord, error)
	// MutedUsers lists every record currently flagged as muted
	MutedUsers(ctx context.Context) ([]*models.UserRecord, error)
}

// GuildSettings gives access to per guild configuration
type GuildSettings interface {
	// GuildConfig never returns nil for a guild without settings
	GuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)
	UpdateGuildConfig(ctx context.Context, cfg *models.GuildConfig) error
	AddLockedChannel(ctx context.Context, guildID, channelID string) (bool, error)
	RemoveLockedChannel(ctx context.Context, guildID, channelID string) (bool, error)
}

// UnmuteFunc is invoked when a scheduled unmute fires
type UnmuteFunc func(ctx context.Context, guildID, userID string)

// Scheduler arms and disarms deferred unmutes
type Scheduler interface {
	Arm(ctx context.Context, guildID, userID string, fireAt time.Time, fn UnmuteFunc) error
	Cancel(ctx context.Context, guildID, userID string) bool
	Pending(guildID, userID string) (time.Time, bool)
	Restore(ctx context.Context, fn UnmuteFunc) (int, error)
}

// ChatPlatform is the narrow view of the chat client the core needs
type ChatPlatform interface {
	SendDirectMessage(ctx context.Context, userID string, n *Notice) error
	PostMessage(ctx context.Context, channelID string, n *Notice) error
	SetRole(ctx context.Context, guildID, userID, roleID string, add bool) error
	ChannelPermission(ctx context.Context, channelID, roleID string) (SendOverwrite, error)
	SetChannelPermission(ctx context.Context, channelID, roleID string, ow SendOverwrite) error
	// Member returns nil without error when the user is not in the guild
	Member(ctx context.Context, guildID, userID string) (*Member, error)
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string) error
	Unban(ctx context.Context, guildID, userID, reason string) error
	IsBanned(ctx context.Context, guildID, userID string) (bool, error)
	PurgeMessages(ctx context.Context, channelID string, limit int) (int, error)
	// EditLoggedCase rewrites the reason of a case already posted in channelID
	EditLoggedCase(ctx context.Context, channelID string, caseID int64, reason string) (bool, error)
	CreateActivityInvite(ctx context.Context, channelID, applicationID string) (string, error)
}

// PermissionTier resolves a member's permission level
type PermissionTier interface {
	Resolve(ctx context.Context, guildID, userID string) (Tier, error)
}

// EventSink receives every case mutation
type EventSink interface {
	PublishCase(ctx context.Context, action models.CaseType, c *models.Case) error
}
