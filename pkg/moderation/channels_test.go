package moderation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

func TestLockUnlock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.as("admin")

	_, err := e.svc.Lock(ctx, e.inv, "c1")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err), "mods can't lock")

	res, err := e.svc.Lock(ctx, admin, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, moderation.SendDeny, e.plat.perms["c1/"+guildID])
	assert.Equal(t, moderation.SendAllow, e.plat.perms["c1/"+plusRole])

	_, err = e.svc.Lock(ctx, admin, "c1")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))

	_, err = e.svc.Unlock(ctx, admin, "c1")
	require.NoError(t, err)
	assert.Equal(t, moderation.SendInherit, e.plat.perms["c1/"+guildID])
	assert.Equal(t, moderation.SendInherit, e.plat.perms["c1/"+plusRole])

	_, err = e.svc.Unlock(ctx, admin, "c1")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))
}

func TestLockSkipsCustomisedChannel(t *testing.T) {
	e := newEnv(t)
	e.plat.perms["c1/"+guildID] = moderation.SendAllow

	_, err := e.svc.Lock(context.Background(), e.as("admin"), "c1")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))
	assert.Equal(t, moderation.SendAllow, e.plat.perms["c1/"+guildID])
}

func TestFreezeableList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.as("admin")

	_, err := e.svc.Freeze(ctx, admin)
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err), "nothing to freeze")

	_, err = e.svc.Freezeable(ctx, admin, "c1")
	require.NoError(t, err)
	_, err = e.svc.Freezeable(ctx, admin, "c1")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))

	_, err = e.svc.Unfreezeable(ctx, admin, "c1")
	require.NoError(t, err)
	_, err = e.svc.Unfreezeable(ctx, admin, "c1")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))
}

func TestFreezeCountsChangedChannels(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.as("admin")

	for _, ch := range []string{"c1", "c2", "c3"} {
		_, err := e.svc.Freezeable(ctx, admin, ch)
		require.NoError(t, err)
	}
	_, err := e.svc.Lock(ctx, admin, "c2")
	require.NoError(t, err)
	e.plat.failPerms["c3"] = true

	res, err := e.svc.Freeze(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, moderation.SendDeny, e.plat.perms["c1/"+guildID])

	_, err = e.svc.Freeze(ctx, admin)
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))

	res, err = e.svc.Unfreeze(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestPurge(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Purge(ctx, e.inv, "c1", 0)
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))

	res, err := e.svc.Purge(ctx, e.inv, "c1", 250)
	require.NoError(t, err)
	assert.Equal(t, 100, res.Count)
}

func TestActivity(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.Activity(ctx, e.inv, "voice", "Chess")
	require.NoError(t, err)
	assert.Equal(t, "https://discord.com/invite/code-832012774040141894", res.Message)

	_, err = e.svc.Activity(ctx, e.inv, "voice", "tetris")
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err))
}

func TestUpdateSettingsValidatesThresholds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	kick := 900

	_, err := e.svc.UpdateSettings(ctx, e.as("admin"), moderation.SettingsPatch{KickThreshold: &kick})
	assert.Equal(t, moderation.KindValidation, moderation.KindOf(err), "kick 900 is above the default ban 800")

	role := "new-mute"
	cfg, err := e.svc.UpdateSettings(ctx, e.as("admin"), moderation.SettingsPatch{MuteRoleID: &role})
	require.NoError(t, err)
	assert.Equal(t, "new-mute", cfg.MuteRoleID)
	assert.Equal(t, logChannel, cfg.PublicLogChannelID, "unset fields are kept")
}
