package moderation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"emperror.dev/errors"
	"github.com/sourcegraph/conc/pool"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

const (
	maxPurge        = 100
	freezeWorkers   = 4
	activityInvites = "https://discord.com/invite/"
)

// Activities maps the names accepted by Activity to their application ids
var Activities = map[string]string{
	"youtube":  "880218394199220334",
	"poker":    "755827207812677713",
	"betrayal": "773336526917861400",
	"fishing":  "814288819477020702",
	"chess":    "832012774040141894",
}

// channelAction is the state of an action with no user target
func (s *Service) channelAction(ctx context.Context, inv Invocation) (*action, error) {
	return s.begin(ctx, inv, ExternalUser{ID: inv.ModeratorID, Username: inv.ModeratorTag})
}

// Purge bulk-deletes recent messages. Counts above 100 are clamped.
func (s *Service) Purge(ctx context.Context, inv Invocation, channelID string, limit int) (*Result, error) {
	a, err := s.channelAction(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, Validation("The amount of messages must be a positive number.")
	}
	if limit > maxPurge {
		limit = maxPurge
	}

	var n int
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.platform.PurgeMessages(ctx, channelID, limit)
		return err
	})
	if err != nil {
		return nil, PermissionDenied(err, "I couldn't delete messages in <#%s>.", channelID)
	}
	logger.Info(fmt.Sprintf("%s borró %d mensajes en %s", inv.ModeratorTag, n, channelID), "Moderation")
	return &Result{Count: n, Message: fmt.Sprintf("Purged %d messages.", n)}, nil
}

// setLock flips a channel between locked and unlocked. Lock requires both
// overwrites to inherit; unlock requires the exact state lock leaves.
func (s *Service) setLock(ctx context.Context, cfg *models.GuildConfig, guildID, channelID string, lock bool) bool {
	everyone := guildID
	plus := cfg.MemberPlusRoleID

	read := func(roleID string) (SendOverwrite, error) {
		var ow SendOverwrite
		err := s.call(ctx, func(ctx context.Context) error {
			var err error
			ow, err = s.platform.ChannelPermission(ctx, channelID, roleID)
			return err
		})
		return ow, err
	}
	write := func(roleID string, ow SendOverwrite) error {
		return s.call(ctx, func(ctx context.Context) error {
			return s.platform.SetChannelPermission(ctx, channelID, roleID, ow)
		})
	}

	def, err := read(everyone)
	if err != nil {
		logger.Warn(fmt.Sprintf("No se pudieron leer los permisos de %s: %v", channelID, err), "Moderation")
		return false
	}
	plusOw := SendInherit
	if plus != "" {
		if plusOw, err = read(plus); err != nil {
			logger.Warn(fmt.Sprintf("No se pudieron leer los permisos de %s: %v", channelID, err), "Moderation")
			return false
		}
	}

	var defTo, plusTo SendOverwrite
	switch {
	case lock && def == SendInherit && plusOw == SendInherit:
		defTo, plusTo = SendDeny, SendAllow
	case !lock && def == SendDeny && (plus == "" || plusOw == SendAllow):
		defTo, plusTo = SendInherit, SendInherit
	default:
		return false
	}

	if err := write(everyone, defTo); err != nil {
		logger.Warn(fmt.Sprintf("No se pudieron cambiar los permisos de %s: %v", channelID, err), "Moderation")
		return false
	}
	if plus != "" {
		if err := write(plus, plusTo); err != nil {
			logger.Warn(fmt.Sprintf("No se pudieron cambiar los permisos de %s: %v", channelID, err), "Moderation")
			return false
		}
	}
	return true
}

// Lock stops regular members from talking in one channel
func (s *Service) Lock(ctx context.Context, inv Invocation, channelID string) (*Result, error) {
	return s.lockOne(ctx, inv, channelID, true)
}

// Unlock reverts Lock
func (s *Service) Unlock(ctx context.Context, inv Invocation, channelID string) (*Result, error) {
	return s.lockOne(ctx, inv, channelID, false)
}

func (s *Service) lockOne(ctx context.Context, inv Invocation, channelID string, lock bool) (*Result, error) {
	a, err := s.channelAction(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierAdmin)); err != nil {
		return nil, err
	}

	if !s.setLock(ctx, a.cfg, inv.GuildID, channelID, lock) {
		if lock {
			return nil, Validation("<#%s> is already locked or my permissions are wrong.", channelID)
		}
		return nil, Validation("<#%s> is already unlocked or my permissions are wrong.", channelID)
	}
	verb := "Unlocked"
	if lock {
		verb = "Locked"
	}
	return &Result{Count: 1, Message: fmt.Sprintf("%s <#%s>.", verb, channelID)}, nil
}

// Freeze locks every freezeable channel of the guild
func (s *Service) Freeze(ctx context.Context, inv Invocation) (*Result, error) {
	return s.freezeAll(ctx, inv, true)
}

// Unfreeze unlocks every freezeable channel of the guild
func (s *Service) Unfreeze(ctx context.Context, inv Invocation) (*Result, error) {
	return s.freezeAll(ctx, inv, false)
}

func (s *Service) freezeAll(ctx context.Context, inv Invocation, lock bool) (*Result, error) {
	a, err := s.channelAction(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierAdmin)); err != nil {
		return nil, err
	}
	if len(a.cfg.LockedChannels) == 0 {
		return nil, Validation("No freezeable channels! Set some with /channel freezeable.")
	}

	var changed atomic.Int32
	p := pool.New().WithMaxGoroutines(freezeWorkers)
	for _, ch := range a.cfg.LockedChannels {
		ch := ch
		p.Go(func() {
			if s.setLock(ctx, a.cfg, inv.GuildID, ch, lock) {
				changed.Add(1)
			}
		})
	}
	p.Wait()

	n := int(changed.Load())
	if n == 0 {
		if lock {
			return nil, Validation("Server is already frozen or my permissions are wrong.")
		}
		return nil, Validation("Server is already unfrozen or my permissions are wrong.")
	}
	verb := "Unfroze"
	if lock {
		verb = "Froze"
	}
	return &Result{Count: n, Message: fmt.Sprintf("%s %d of %d channels.", verb, n, len(a.cfg.LockedChannels))}, nil
}

// Freezeable adds a channel to the freeze list
func (s *Service) Freezeable(ctx context.Context, inv Invocation, channelID string) (*Result, error) {
	a, err := s.channelAction(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierAdmin)); err != nil {
		return nil, err
	}
	added, err := s.settings.AddLockedChannel(ctx, inv.GuildID, channelID)
	if err != nil {
		return nil, errors.WrapIf(err, "add freezeable channel")
	}
	if !added {
		return nil, Validation("<#%s> is already freezeable.", channelID)
	}
	return &Result{Message: fmt.Sprintf("<#%s> is now freezeable.", channelID)}, nil
}

// Unfreezeable removes a channel from the freeze list
func (s *Service) Unfreezeable(ctx context.Context, inv Invocation, channelID string) (*Result, error) {
	a, err := s.channelAction(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierAdmin)); err != nil {
		return nil, err
	}
	removed, err := s.settings.RemoveLockedChannel(ctx, inv.GuildID, channelID)
	if err != nil {
		return nil, errors.WrapIf(err, "remove freezeable channel")
	}
	if !removed {
		return nil, Validation("<#%s> isn't freezeable.", channelID)
	}
	return &Result{Message: fmt.Sprintf("<#%s> is no longer freezeable.", channelID)}, nil
}

// Activity creates an embedded activity invite for a voice channel
func (s *Service) Activity(ctx context.Context, inv Invocation, channelID, activity string) (*Result, error) {
	a, err := s.channelAction(ctx, inv)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, a, s.requireTier(TierMod)); err != nil {
		return nil, err
	}

	appID, ok := Activities[strings.ToLower(activity)]
	if !ok {
		names := make([]string, 0, len(Activities))
		for name := range Activities {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, Validation("Unknown activity %q. Try one of: %s.", activity, strings.Join(names, ", "))
	}

	var code string
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		code, err = s.platform.CreateActivityInvite(ctx, channelID, appID)
		return err
	})
	if err != nil {
		return nil, PermissionDenied(err, "I couldn't create an invite for <#%s>.", channelID)
	}
	return &Result{Message: activityInvites + code}, nil
}
