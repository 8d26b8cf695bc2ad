package moderation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"emperror.dev/errors"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

const (
	DefaultKickThreshold = 400
	DefaultBanThreshold  = 800
	DefaultCallTimeout   = 10 * time.Second
)

// Options tunes a Service
type Options struct {
	KickThreshold int
	BanThreshold  int
	// CallTimeout bounds every platform and notification call
	CallTimeout time.Duration
	// BotID and BotTag sign the cases the bot issues on its own
	BotID  string
	BotTag string
}

// Deps are the collaborators of a Service. Events may be nil.
type Deps struct {
	Ledger      Ledger
	Accumulator Accumulator
	Settings    GuildSettings
	Scheduler   Scheduler
	Platform    ChatPlatform
	Tiers       PermissionTier
	Events      EventSink
	Clock       clock.Clock
	Options     Options
}

// Service orchestrates every moderation action: it validates, commits the
// case, enforces it on the platform and notifies.
type Service struct {
	ledger      Ledger
	accumulator Accumulator
	settings    GuildSettings
	scheduler   Scheduler
	platform    ChatPlatform
	tiers       PermissionTier
	events      EventSink
	clock       clock.Clock
	opts        Options

	idMu  sync.RWMutex
	locks keyedMutex
}

// NewService wires a Service, filling unset options with defaults
func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Options.KickThreshold <= 0 {
		d.Options.KickThreshold = DefaultKickThreshold
	}
	if d.Options.BanThreshold <= 0 {
		d.Options.BanThreshold = DefaultBanThreshold
	}
	if d.Options.CallTimeout <= 0 {
		d.Options.CallTimeout = DefaultCallTimeout
	}
	if d.Options.BotTag == "" {
		d.Options.BotTag = "PancyMod"
	}

	return &Service{
		ledger:      d.Ledger,
		accumulator: d.Accumulator,
		settings:    d.Settings,
		scheduler:   d.Scheduler,
		platform:    d.Platform,
		tiers:       d.Tiers,
		events:      d.Events,
		clock:       d.Clock,
		opts:        d.Options,
		locks:       keyedMutex{locks: make(map[string]*refMutex)},
	}
}

// SetBotIdentity updates the identity used for automatic cases. It is
// known only once the gateway session is ready.
func (s *Service) SetBotIdentity(id, tag string) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.opts.BotID = id
	s.opts.BotTag = tag
}

func (s *Service) botInvocation(guildID string) Invocation {
	s.idMu.RLock()
	defer s.idMu.RUnlock()
	return Invocation{GuildID: guildID, ModeratorID: s.opts.BotID, ModeratorTag: s.opts.BotTag}
}

// action carries the state shared by the checks of one command
type action struct {
	inv       Invocation
	target    Target
	cfg       *models.GuildConfig
	actorTier Tier
	resolved  bool
}

func (s *Service) begin(ctx context.Context, inv Invocation, target Target) (*action, error) {
	cfg, err := s.settings.GuildConfig(ctx, inv.GuildID)
	if err != nil {
		return nil, errors.WrapIfWithDetails(err, "load guild config", "guild", inv.GuildID)
	}
	if cfg == nil {
		cfg = &models.GuildConfig{GuildID: inv.GuildID}
	}
	return &action{inv: inv, target: target, cfg: cfg}, nil
}

func (s *Service) thresholds(cfg *models.GuildConfig) (kick, ban int) {
	return cfg.Thresholds(s.opts.KickThreshold, s.opts.BanThreshold)
}

// commitCase allocates the next id and appends the case. A ledger conflict
// aborts the action before anything else is touched.
func (s *Service) commitCase(ctx context.Context, a *action, typ models.CaseType, p models.Punishment, reason string, until *time.Time) (*models.Case, error) {
	id, err := s.ledger.NextCaseID(ctx, a.inv.GuildID)
	if err != nil {
		return nil, errors.WrapIf(err, "allocate case id")
	}

	c := &models.Case{
		GuildID:      a.inv.GuildID,
		TargetUserID: a.target.UserID(),
		ID:           id,
		Type:         typ,
		ModeratorID:  a.inv.ModeratorID,
		ModeratorTag: a.inv.ModeratorTag,
		Reason:       reason,
		Punishment:   p,
		CreatedAt:    s.clock.Now().UTC(),
		Until:        until,
	}
	if err := s.ledger.Append(ctx, a.inv.GuildID, c.TargetUserID, c); err != nil {
		if KindOf(err) != KindUnknown {
			return nil, err
		}
		return nil, errors.WrapIf(err, "append case")
	}

	logger.Info(fmt.Sprintf("Case #%d (%s) issued on %s in %s by %s", c.ID, c.Type, c.TargetUserID, c.GuildID, c.ModeratorTag), "Moderation")
	s.publish(ctx, typ, c)
	return c, nil
}

func (s *Service) publish(ctx context.Context, action models.CaseType, c *models.Case) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.CallTimeout)
	defer cancel()
	if err := s.events.PublishCase(ctx, action, c); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo publicar el evento del caso #%d: %v", c.ID, err), "Moderation")
	}
}

// call runs fn with the per-call timeout applied
func (s *Service) call(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return fn(ctx)
}

// keyedMutex serialises mutations of a single (guild, user) pair
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(guildID, userID string) func() {
	key := guildID + ":" + userID

	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
