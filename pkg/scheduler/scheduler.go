// Package scheduler arms deferred unmutes. Pending timers live in memory
// and are mirrored to an optional Store so they survive restarts.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"emperror.dev/errors"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

const fireTimeout = time.Minute

// Entry is a persisted pending unmute
type Entry struct {
	GuildID string
	UserID  string
	FireAt  time.Time
}

// Store persists pending unmutes
type Store interface {
	Save(ctx context.Context, e Entry) error
	Delete(ctx context.Context, guildID, userID string) error
	All(ctx context.Context) ([]Entry, error)
}

type timerEntry struct {
	Entry
	timer clock.Timer
}

// Scheduler keeps at most one pending unmute per (guild, user)
type Scheduler struct {
	clock clock.Clock
	store Store

	mu      sync.Mutex
	pending map[string]*timerEntry

	ctx    context.Context
	cancel context.CancelFunc
}

var _ moderation.Scheduler = (*Scheduler)(nil)

// New creates a scheduler. store may be nil for memory-only operation.
func New(c clock.Clock, store Store) *Scheduler {
	if c == nil {
		c = clock.Real{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		clock:   c,
		store:   store,
		pending: make(map[string]*timerEntry),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func key(guildID, userID string) string {
	return guildID + ":" + userID
}

// Arm schedules fn at fireAt. A fireAt in the past fires right away.
func (s *Scheduler) Arm(ctx context.Context, guildID, userID string, fireAt time.Time, fn moderation.UnmuteFunc) error {
	return s.arm(ctx, Entry{GuildID: guildID, UserID: userID, FireAt: fireAt}, fn, true)
}

func (s *Scheduler) arm(ctx context.Context, e Entry, fn moderation.UnmuteFunc, persist bool) error {
	k := key(e.GuildID, e.UserID)

	s.mu.Lock()
	if _, exists := s.pending[k]; exists {
		s.mu.Unlock()
		return moderation.Conflict(moderation.ErrAlreadyScheduled, "An unmute is already scheduled for %s.", e.UserID)
	}
	te := &timerEntry{Entry: e}
	s.pending[k] = te
	s.mu.Unlock()

	if persist && s.store != nil {
		if err := s.store.Save(ctx, e); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo persistir el unmute de %s: %v", k, err), "Scheduler")
		}
	}

	// The callback may run synchronously when already due, so no lock is
	// held while arming.
	t := s.clock.AfterFunc(e.FireAt.Sub(s.clock.Now()), func() { s.fire(k, te, fn) })

	s.mu.Lock()
	te.timer = t
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) fire(k string, te *timerEntry, fn moderation.UnmuteFunc) {
	s.mu.Lock()
	if cur, ok := s.pending[k]; !ok || cur != te {
		s.mu.Unlock()
		return
	}
	delete(s.pending, k)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, fireTimeout)
	defer cancel()

	if s.store != nil {
		if err := s.store.Delete(ctx, te.GuildID, te.UserID); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo borrar el unmute persistido de %s: %v", k, err), "Scheduler")
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error(fmt.Sprintf("Panic en el unmute de %s: %v", k, r), "Scheduler")
		}
	}()
	fn(ctx, te.GuildID, te.UserID)
}

// Cancel disarms a pending unmute and reports whether one existed
func (s *Scheduler) Cancel(ctx context.Context, guildID, userID string) bool {
	k := key(guildID, userID)

	s.mu.Lock()
	te, ok := s.pending[k]
	if ok {
		delete(s.pending, k)
		if te.timer != nil {
			te.timer.Stop()
		}
	}
	s.mu.Unlock()

	if ok && s.store != nil {
		if err := s.store.Delete(ctx, guildID, userID); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo borrar el unmute persistido de %s: %v", k, err), "Scheduler")
		}
	}
	return ok
}

// Pending returns when the user's unmute fires, if one is armed
func (s *Scheduler) Pending(guildID, userID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	te, ok := s.pending[key(guildID, userID)]
	if !ok {
		return time.Time{}, false
	}
	return te.FireAt, true
}

// Len returns the number of armed timers
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Restore re-arms every persisted entry that is not armed yet
func (s *Scheduler) Restore(ctx context.Context, fn moderation.UnmuteFunc) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	entries, err := s.store.All(ctx)
	if err != nil {
		return 0, errors.WrapIf(err, "load persisted unmutes")
	}

	n := 0
	for _, e := range entries {
		if err := s.arm(ctx, e, fn, false); err != nil {
			continue
		}
		n++
	}
	if n > 0 {
		logger.Info(fmt.Sprintf("%d unmutes restaurados", n), "Scheduler")
	}
	return n, nil
}

// Stop disarms every timer without touching the store
func (s *Scheduler) Stop() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, te := range s.pending {
		if te.timer != nil {
			te.timer.Stop()
		}
		delete(s.pending, k)
	}
}
