package moderation_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

func TestTimedMuteExpires(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")
	ctx := context.Background()

	res, err := e.svc.Mute(ctx, e.inv, target, "10m", "noise")
	require.NoError(t, err)
	assert.Equal(t, models.CaseMute, res.Case.Type)
	assert.Equal(t, models.Lasting(10*time.Minute), res.Case.Punishment)
	require.NotNil(t, res.Case.Until)
	assert.Equal(t, epoch.Add(10*time.Minute), *res.Case.Until)
	assert.True(t, e.plat.hasRole("u1", muteRole))

	rec, err := e.store.Record(ctx, guildID, "u1")
	require.NoError(t, err)
	assert.True(t, rec.IsMuted)

	at, pending := e.sched.Pending(guildID, "u1")
	require.True(t, pending)
	assert.Equal(t, epoch.Add(10*time.Minute), at)

	e.clk.Advance(10 * time.Minute)

	assert.False(t, e.plat.hasRole("u1", muteRole))
	cases := e.cases(t, "u1")
	require.Len(t, cases, 2)
	assert.Equal(t, models.CaseUnmute, cases[1].Type)
	assert.Equal(t, "bot", cases[1].ModeratorID)
	assert.Equal(t, "Temporary mute expired.", cases[1].Reason)

	rec, err = e.store.Record(ctx, guildID, "u1")
	require.NoError(t, err)
	assert.False(t, rec.IsMuted)
}

func TestPermanentMute(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")

	res, err := e.svc.Mute(context.Background(), e.inv, target, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.Permanent(), res.Case.Punishment)
	assert.Nil(t, res.Case.Until)
	assert.Zero(t, e.sched.Len())
}

func TestMuteRejectsBadDuration(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")

	for _, in := range []string{"forever", "600y", "9999999999999m"} {
		_, err := e.svc.Mute(context.Background(), e.inv, target, in, "")
		assert.ErrorIs(t, err, moderation.ErrBadDuration, in)
		assert.Equal(t, moderation.KindValidation, moderation.KindOf(err), in)
	}
	assert.Empty(t, e.cases(t, "u1"))
	assert.False(t, e.plat.hasRole("u1", muteRole))
	assert.Zero(t, e.sched.Len())
}

func TestConcurrentMutesRecordOneCase(t *testing.T) {
	for _, duration := range []string{"1h", ""} {
		t.Run("duration="+duration, func(t *testing.T) {
			e := newEnv(t)
			target := e.plat.addMember("u1")
			ctx := context.Background()

			const n = 8
			var wg sync.WaitGroup
			var ok int32
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := e.svc.Mute(ctx, e.inv, target, duration, "spam"); err == nil {
						atomic.AddInt32(&ok, 1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), ok)
			cases := e.cases(t, "u1")
			require.Len(t, cases, 1)
			assert.Equal(t, models.CaseMute, cases[0].Type)
		})
	}
}

func TestMuteLedgerFailureLeavesUserUnmuted(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")
	ctx := context.Background()
	e.ledger.setFailAppend(true)

	_, err := e.svc.Mute(ctx, e.inv, target, "1h", "")
	require.Error(t, err)
	assert.False(t, e.plat.hasRole("u1", muteRole))
	assert.Zero(t, e.sched.Len())
	rec, err := e.store.Record(ctx, guildID, "u1")
	require.NoError(t, err)
	if rec != nil {
		assert.False(t, rec.IsMuted)
	}

	e.ledger.setFailAppend(false)
	_, err = e.svc.Mute(ctx, e.inv, target, "1h", "")
	require.NoError(t, err, "a failed mute does not block the next one")
}

func TestMuteRejectsAlreadyMuted(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1", muteRole)

	_, err := e.svc.Mute(context.Background(), e.inv, target, "1h", "")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))
}

func TestMuteNeedsMuteRole(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.UpdateGuildConfig(context.Background(), &models.GuildConfig{GuildID: guildID}))
	target := e.plat.addMember("u1")

	_, err := e.svc.Mute(context.Background(), e.inv, target, "1h", "")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))
}

func TestMuteRoleFailureKeepsCase(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")
	e.plat.failRoles = true

	res, err := e.svc.Mute(context.Background(), e.inv, target, "5m", "")
	assert.Equal(t, moderation.KindPermissionDenied, moderation.KindOf(err))
	require.NotNil(t, res)
	assert.Len(t, e.cases(t, "u1"), 1)
}

func TestUnmuteCancelsTimer(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")
	ctx := context.Background()

	_, err := e.svc.Mute(ctx, e.inv, target, "1h", "")
	require.NoError(t, err)

	muted := moderation.KnownMember{ID: "u1", Username: "u1#0001", Roles: []string{muteRole}}
	res, err := e.svc.Unmute(ctx, e.inv, muted, "served")
	require.NoError(t, err)
	assert.False(t, res.Noop)
	assert.Equal(t, models.CaseUnmute, res.Case.Type)
	assert.Equal(t, "mod", res.Case.ModeratorID)
	assert.False(t, e.plat.hasRole("u1", muteRole))
	assert.Zero(t, e.sched.Len())

	e.clk.Advance(2 * time.Hour)
	assert.Len(t, e.cases(t, "u1"), 2, "a cancelled timer records nothing")
}

func TestUnmuteNotMutedIsNoop(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")

	res, err := e.svc.Unmute(context.Background(), e.inv, target, "")
	require.NoError(t, err)
	assert.True(t, res.Noop)
	assert.Nil(t, res.Case)
	assert.Empty(t, e.cases(t, "u1"))
}

func TestExpireMuteAfterManualUnmuteDoesNothing(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")
	ctx := context.Background()

	_, err := e.svc.Mute(ctx, e.inv, target, "", "")
	require.NoError(t, err)
	_, err = e.store.SetMuted(ctx, guildID, "u1", false, nil)
	require.NoError(t, err)

	e.svc.ExpireMute(ctx, guildID, "u1")
	assert.Len(t, e.cases(t, "u1"), 1)
	assert.False(t, e.plat.hasRole("u1", muteRole), "a leftover mute role is still removed")
}

func TestExpireMuteWithoutRoleLeavesMemberAlone(t *testing.T) {
	e := newEnv(t)
	e.plat.addMember("u1", plusRole)

	e.svc.ExpireMute(context.Background(), guildID, "u1")
	assert.True(t, e.plat.hasRole("u1", plusRole))
	assert.Empty(t, e.cases(t, "u1"))
	assert.Empty(t, e.plat.logPosts())
}

func TestExpireMuteForDepartedUser(t *testing.T) {
	e := newEnv(t)
	target := e.plat.addMember("u1")
	ctx := context.Background()

	_, err := e.svc.Mute(ctx, e.inv, target, "1m", "")
	require.NoError(t, err)
	_, err = e.svc.Kick(ctx, e.inv, moderation.KnownMember{ID: "u1", Roles: []string{muteRole}}, "")
	require.NoError(t, err)

	e.clk.Advance(time.Minute)

	cases := e.cases(t, "u1")
	require.Len(t, cases, 3)
	assert.Equal(t, models.CaseUnmute, cases[2].Type)
}

func TestRestoreTimersFromRecords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.plat.addMember("u1", muteRole)
	e.plat.addMember("u2", muteRole)

	overdue := epoch.Add(-time.Minute)
	later := epoch.Add(time.Hour)
	_, err := e.store.SetMuted(ctx, guildID, "u1", true, &overdue)
	require.NoError(t, err)
	_, err = e.store.SetMuted(ctx, guildID, "u2", true, &later)
	require.NoError(t, err)
	_, err = e.store.SetMuted(ctx, guildID, "u3", true, nil)
	require.NoError(t, err)

	n, err := e.svc.RestoreTimers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, e.plat.hasRole("u1", muteRole), "overdue unmute fires right away")
	assert.True(t, e.plat.hasRole("u2", muteRole))
	_, pending := e.sched.Pending(guildID, "u2")
	assert.True(t, pending)
	_, pending = e.sched.Pending(guildID, "u3")
	assert.False(t, pending, "permanent mutes have no timer")
}

func TestReapplyMute(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.plat.addMember("u1")

	applied, err := e.svc.ReapplyMute(ctx, guildID, "u1")
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = e.store.SetMuted(ctx, guildID, "u1", true, nil)
	require.NoError(t, err)
	applied, err = e.svc.ReapplyMute(ctx, guildID, "u1")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, e.plat.hasRole("u1", muteRole))
}
