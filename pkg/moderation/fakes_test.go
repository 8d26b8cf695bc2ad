package moderation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/clock"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/PancyStudios/PancyModGo/pkg/moderation/memstore"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
)

const (
	guildID    = "g"
	logChannel = "log"
	muteRole   = "muted"
	plusRole   = "plus"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type sent struct {
	to     string
	notice *moderation.Notice
}

type fakePlatform struct {
	mu sync.Mutex

	members map[string]*moderation.Member
	banned  map[string]bool
	perms   map[string]moderation.SendOverwrite
	logged  map[int64]string

	dms    []sent
	posts  []sent
	kicked []string

	failDM    map[string]bool
	failKick  bool
	failBan   bool
	failRoles bool
	failPerms map[string]bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		members:   make(map[string]*moderation.Member),
		banned:    make(map[string]bool),
		perms:     make(map[string]moderation.SendOverwrite),
		logged:    make(map[int64]string),
		failDM:    make(map[string]bool),
		failPerms: make(map[string]bool),
	}
}

func (p *fakePlatform) addMember(id string, roles ...string) moderation.KnownMember {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[id] = &moderation.Member{ID: id, Username: id + "#0001", Roles: roles}
	return moderation.KnownMember{ID: id, Username: id + "#0001", Roles: roles}
}

func (p *fakePlatform) SendDirectMessage(_ context.Context, userID string, n *moderation.Notice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failDM[userID] {
		return errors.New("cannot send messages to this user")
	}
	p.dms = append(p.dms, sent{to: userID, notice: n})
	return nil
}

func (p *fakePlatform) PostMessage(_ context.Context, channelID string, n *moderation.Notice) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, sent{to: channelID, notice: n})
	return nil
}

func (p *fakePlatform) SetRole(_ context.Context, _, userID, roleID string, add bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failRoles {
		return errors.New("missing permissions")
	}
	m, ok := p.members[userID]
	if !ok {
		return errors.New("unknown member")
	}
	var roles []string
	for _, r := range m.Roles {
		if r != roleID {
			roles = append(roles, r)
		}
	}
	if add {
		roles = append(roles, roleID)
	}
	m.Roles = roles
	return nil
}

func (p *fakePlatform) hasRole(userID, roleID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.members[userID]
	if !ok {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

func (p *fakePlatform) ChannelPermission(_ context.Context, channelID, roleID string) (moderation.SendOverwrite, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.perms[channelID+"/"+roleID], nil
}

func (p *fakePlatform) SetChannelPermission(_ context.Context, channelID, roleID string, ow moderation.SendOverwrite) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPerms[channelID] {
		return errors.New("missing access")
	}
	p.perms[channelID+"/"+roleID] = ow
	return nil
}

func (p *fakePlatform) Member(_ context.Context, _, userID string) (*moderation.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.members[userID]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.Roles = append([]string(nil), m.Roles...)
	return &cp, nil
}

func (p *fakePlatform) Kick(_ context.Context, _, userID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failKick {
		return errors.New("missing permissions")
	}
	p.kicked = append(p.kicked, userID)
	delete(p.members, userID)
	return nil
}

func (p *fakePlatform) Ban(_ context.Context, _, userID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failBan {
		return errors.New("missing permissions")
	}
	p.banned[userID] = true
	delete(p.members, userID)
	return nil
}

func (p *fakePlatform) Unban(_ context.Context, _, userID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.banned, userID)
	return nil
}

func (p *fakePlatform) IsBanned(_ context.Context, _, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.banned[userID], nil
}

func (p *fakePlatform) PurgeMessages(_ context.Context, _ string, limit int) (int, error) {
	return limit, nil
}

func (p *fakePlatform) EditLoggedCase(_ context.Context, _ string, caseID int64, reason string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.logged[caseID]; !ok {
		return false, nil
	}
	p.logged[caseID] = reason
	return true, nil
}

func (p *fakePlatform) CreateActivityInvite(_ context.Context, _, applicationID string) (string, error) {
	return "code-" + applicationID, nil
}

func (p *fakePlatform) dmsTo(userID string) []*moderation.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*moderation.Notice
	for _, d := range p.dms {
		if d.to == userID {
			out = append(out, d.notice)
		}
	}
	return out
}

func (p *fakePlatform) logPosts() []*moderation.Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*moderation.Notice
	for _, s := range p.posts {
		if s.to == logChannel {
			out = append(out, s.notice)
		}
	}
	return out
}

type fakeTiers struct {
	mu    sync.Mutex
	tiers map[string]moderation.Tier
}

func (f *fakeTiers) set(userID string, t moderation.Tier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tiers[userID] = t
}

func (f *fakeTiers) Resolve(_ context.Context, _, userID string) (moderation.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tiers[userID], nil
}

type fakeEvents struct {
	mu      sync.Mutex
	actions []models.CaseType
}

func (f *fakeEvents) PublishCase(_ context.Context, action models.CaseType, _ *models.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

// flakyLedger fails Append on demand, everything else goes to the store
type flakyLedger struct {
	*memstore.Store

	mu         sync.Mutex
	failAppend bool
}

func (l *flakyLedger) setFailAppend(fail bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failAppend = fail
}

func (l *flakyLedger) Append(ctx context.Context, guildID, userID string, c *models.Case) error {
	l.mu.Lock()
	fail := l.failAppend
	l.mu.Unlock()
	if fail {
		return errors.New("server selection timeout")
	}
	return l.Store.Append(ctx, guildID, userID, c)
}

type env struct {
	svc    *moderation.Service
	store  *memstore.Store
	ledger *flakyLedger
	plat   *fakePlatform
	tiers  *fakeTiers
	events *fakeEvents
	clk    *clock.Manual
	sched  *scheduler.Scheduler
	inv    moderation.Invocation
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		store:  memstore.New(),
		plat:   newFakePlatform(),
		tiers:  &fakeTiers{tiers: map[string]moderation.Tier{"mod": moderation.TierMod, "admin": moderation.TierAdmin}},
		events: &fakeEvents{},
		clk:    clock.NewManual(epoch),
		inv: moderation.Invocation{
			GuildID:      guildID,
			GuildName:    "Pancy",
			ChannelID:    "general",
			ModeratorID:  "mod",
			ModeratorTag: "mod#0001",
		},
	}
	e.ledger = &flakyLedger{Store: e.store}
	e.sched = scheduler.New(e.clk, nil)
	t.Cleanup(e.sched.Stop)

	require.NoError(t, e.store.UpdateGuildConfig(context.Background(), &models.GuildConfig{
		GuildID:            guildID,
		MuteRoleID:         muteRole,
		PublicLogChannelID: logChannel,
		MemberPlusRoleID:   plusRole,
	}))

	e.svc = moderation.NewService(moderation.Deps{
		Ledger:      e.ledger,
		Accumulator: e.store,
		Settings:    e.store,
		Scheduler:   e.sched,
		Platform:    e.plat,
		Tiers:       e.tiers,
		Events:      e.events,
		Clock:       e.clk,
		Options:     moderation.Options{BotID: "bot", BotTag: "PancyMod#0000"},
	})
	return e
}

func (e *env) as(userID string) moderation.Invocation {
	inv := e.inv
	inv.ModeratorID = userID
	inv.ModeratorTag = userID + "#0001"
	return inv
}

func (e *env) cases(t *testing.T, userID string) []*models.Case {
	t.Helper()
	cases, err := e.store.ListCases(context.Background(), guildID, userID)
	require.NoError(t, err)
	return cases
}

func (e *env) total(t *testing.T, userID string) int {
	t.Helper()
	total, err := e.store.CurrentTotal(context.Background(), guildID, userID)
	require.NoError(t, err)
	return total
}
