// Package models holds the persisted moderation entities.
package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// CaseType identifies the moderation action a case records
type CaseType string

const (
	CaseWarn         CaseType = "WARN"
	CaseKick         CaseType = "KICK"
	CaseBan          CaseType = "BAN"
	CaseUnban        CaseType = "UNBAN"
	CaseMute         CaseType = "MUTE"
	CaseUnmute       CaseType = "UNMUTE"
	CaseLiftWarn     CaseType = "LIFTWARN"
	CaseRemovePoints CaseType = "REMOVEPOINTS"
	CaseEditReason   CaseType = "EDITREASON"
)

// PunishmentKind tags the variant stored in a Punishment
type PunishmentKind string

const (
	PunishmentNone      PunishmentKind = ""
	PunishmentPoints    PunishmentKind = "points"
	PunishmentPermanent PunishmentKind = "permanent"
	PunishmentDuration  PunishmentKind = "duration"
)

// Punishment is what a case inflicted: a point count for WARN and
// REMOVEPOINTS, PERMANENT for bans and open-ended mutes, a duration for
// timed mutes.
type Punishment struct {
	Kind     PunishmentKind `bson:"kind,omitempty" json:"kind,omitempty"`
	Points   int            `bson:"points,omitempty" json:"points,omitempty"`
	Duration time.Duration  `bson:"duration,omitempty" json:"duration,omitempty"`
}

// Points builds a point punishment
func Points(n int) Punishment {
	return Punishment{Kind: PunishmentPoints, Points: n}
}

// Permanent builds a PERMANENT punishment
func Permanent() Punishment {
	return Punishment{Kind: PunishmentPermanent}
}

// Lasting builds a timed punishment
func Lasting(d time.Duration) Punishment {
	return Punishment{Kind: PunishmentDuration, Duration: d}
}

// String renders the punishment the way it is shown in logs
func (p Punishment) String() string {
	switch p.Kind {
	case PunishmentPoints:
		return strconv.Itoa(p.Points)
	case PunishmentPermanent:
		return "PERMANENT"
	case PunishmentDuration:
		now := time.Now()
		return strings.TrimSpace(humanize.RelTime(now, now.Add(p.Duration), "", ""))
	default:
		return ""
	}
}

// Case is one audit record of a moderation action
type Case struct {
	GuildID      string     `bson:"guildId" json:"guildId"`
	TargetUserID string     `bson:"userId" json:"userId"`
	ID           int64      `bson:"caseId" json:"id"`
	Type         CaseType   `bson:"type" json:"type"`
	ModeratorID  string     `bson:"moderatorId" json:"moderatorId"`
	ModeratorTag string     `bson:"moderatorTag" json:"moderatorTag"`
	Reason       string     `bson:"reason" json:"reason"`
	Punishment   Punishment `bson:"punishment" json:"punishment"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	Until        *time.Time `bson:"until,omitempty" json:"until,omitempty"`

	Lifted       bool      `bson:"lifted" json:"lifted"`
	LiftedReason string    `bson:"liftedReason,omitempty" json:"liftedReason,omitempty"`
	LiftedByID   string    `bson:"liftedById,omitempty" json:"liftedById,omitempty"`
	LiftedByTag  string    `bson:"liftedByTag,omitempty" json:"liftedByTag,omitempty"`
	LiftedAt     time.Time `bson:"liftedAt,omitempty" json:"liftedAt,omitempty"`
}

// Clone returns a deep copy so stores never share mutable state with callers
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Until != nil {
		u := *c.Until
		cp.Until = &u
	}
	return &cp
}
