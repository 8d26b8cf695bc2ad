// Package memstore keeps moderation state in process memory. It backs the
// bot when no database is reachable and is used throughout the tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

// Store implements moderation.Ledger, moderation.Accumulator and
// moderation.GuildSettings under a single mutex.
type Store struct {
	mu       sync.Mutex
	counters map[string]int64
	cases    map[string]map[int64]*models.Case
	users    map[string]*models.UserRecord
	guilds   map[string]*models.GuildConfig
}

var (
	_ moderation.Ledger        = (*Store)(nil)
	_ moderation.Accumulator   = (*Store)(nil)
	_ moderation.GuildSettings = (*Store)(nil)
)

// New returns an empty store
func New() *Store {
	return &Store{
		counters: make(map[string]int64),
		cases:    make(map[string]map[int64]*models.Case),
		users:    make(map[string]*models.UserRecord),
		guilds:   make(map[string]*models.GuildConfig),
	}
}

func userKey(guildID, userID string) string {
	return guildID + ":" + userID
}

func (s *Store) NextCaseID(_ context.Context, guildID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[guildID]++
	return s.counters[guildID], nil
}

func (s *Store) Append(_ context.Context, guildID, userID string, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.cases[guildID]
	if !ok {
		byID = make(map[int64]*models.Case)
		s.cases[guildID] = byID
	}
	if _, exists := byID[c.ID]; exists {
		return moderation.Conflict(moderation.ErrDuplicateCase, "Case #%d already exists.", c.ID)
	}
	cp := c.Clone()
	cp.GuildID, cp.TargetUserID = guildID, userID
	byID[c.ID] = cp
	return nil
}

func (s *Store) lookup(guildID, userID string, caseID int64) (*models.Case, bool) {
	c, ok := s.cases[guildID][caseID]
	if !ok || c.TargetUserID != userID {
		return nil, false
	}
	return c, true
}

func (s *Store) GetCase(_ context.Context, guildID, userID string, caseID int64) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.lookup(guildID, userID, caseID)
	if !ok {
		return nil, moderation.NotFound(moderation.ErrCaseNotFound, "Case #%d not found.", caseID)
	}
	return c.Clone(), nil
}

func (s *Store) UpdateCase(_ context.Context, guildID, userID string, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(guildID, userID, c.ID); !ok {
		return moderation.NotFound(moderation.ErrCaseNotFound, "Case #%d not found.", c.ID)
	}
	cp := c.Clone()
	cp.GuildID, cp.TargetUserID = guildID, userID
	s.cases[guildID][c.ID] = cp
	return nil
}

func (s *Store) ListCases(_ context.Context, guildID, userID string) ([]*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Case
	for _, c := range s.cases[guildID] {
		if c.TargetUserID == userID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) record(guildID, userID string, create bool) *models.UserRecord {
	k := userKey(guildID, userID)
	rec, ok := s.users[k]
	if !ok && create {
		rec = &models.UserRecord{GuildID: guildID, UserID: userID}
		s.users[k] = rec
	}
	return rec
}

func (s *Store) ApplyDelta(_ context.Context, guildID, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	if rec := s.record(guildID, userID, false); rec != nil {
		current = rec.WarnPoints
	}
	if current+delta < 0 {
		return current, moderation.InvalidOperation(moderation.ErrNegativePoints, "Only %d points left.", current)
	}
	rec := s.record(guildID, userID, true)
	rec.WarnPoints += delta
	return rec.WarnPoints, nil
}

func (s *Store) CurrentTotal(_ context.Context, guildID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.record(guildID, userID, false); rec != nil {
		return rec.WarnPoints, nil
	}
	return 0, nil
}

func (s *Store) MarkWarnKicked(_ context.Context, guildID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(guildID, userID, true).WasWarnKicked = true
	return nil
}

func (s *Store) WasWarnKicked(_ context.Context, guildID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.record(guildID, userID, false)
	return rec != nil && rec.WasWarnKicked, nil
}

func (s *Store) SetMuted(_ context.Context, guildID, userID string, muted bool, until *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(guildID, userID, muted)
	if rec == nil || rec.IsMuted == muted {
		return false, nil
	}
	rec.IsMuted = muted
	rec.MuteUntil = nil
	if muted && until != nil {
		u := *until
		rec.MuteUntil = &u
	}
	return true, nil
}

func cloneRecord(r *models.UserRecord) *models.UserRecord {
	cp := *r
	if r.MuteUntil != nil {
		u := *r.MuteUntil
		cp.MuteUntil = &u
	}
	return &cp
}

func (s *Store) Record(_ context.Context, guildID, userID string) (*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec := s.record(guildID, userID, false); rec != nil {
		return cloneRecord(rec), nil
	}
	return nil, nil
}

func (s *Store) MutedUsers(context.Context) ([]*models.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.UserRecord
	for _, rec := range s.users {
		if rec.IsMuted {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func cloneConfig(g *models.GuildConfig) *models.GuildConfig {
	cp := *g
	cp.LockedChannels = append([]string(nil), g.LockedChannels...)
	return &cp
}

func (s *Store) GuildConfig(_ context.Context, guildID string) (*models.GuildConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.guilds[guildID]; ok {
		return cloneConfig(g), nil
	}
	return &models.GuildConfig{GuildID: guildID}, nil
}

func (s *Store) UpdateGuildConfig(_ context.Context, cfg *models.GuildConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guilds[cfg.GuildID] = cloneConfig(cfg)
	return nil
}

func (s *Store) guild(guildID string) *models.GuildConfig {
	g, ok := s.guilds[guildID]
	if !ok {
		g = &models.GuildConfig{GuildID: guildID}
		s.guilds[guildID] = g
	}
	return g
}

func (s *Store) AddLockedChannel(_ context.Context, guildID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guild(guildID)
	if g.IsLockable(channelID) {
		return false, nil
	}
	g.LockedChannels = append(g.LockedChannels, channelID)
	return true, nil
}

func (s *Store) RemoveLockedChannel(_ context.Context, guildID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.guild(guildID)
	for i, id := range g.LockedChannels {
		if id == channelID {
			g.LockedChannels = append(g.LockedChannels[:i], g.LockedChannels[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
