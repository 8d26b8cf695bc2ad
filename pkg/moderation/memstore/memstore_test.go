package memstore

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
)

func TestNextCaseIDConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 50
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := s.NextCaseID(ctx, "g1")
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for i, id := range ids {
		assert.Equal(t, int64(i+1), id)
	}

	other, err := s.NextCaseID(ctx, "g2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other, "counters are per guild")
}

func TestAppendDuplicate(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "g", "u", &models.Case{ID: 1, Type: models.CaseWarn}))
	err := s.Append(ctx, "g", "u2", &models.Case{ID: 1, Type: models.CaseKick})
	assert.Equal(t, moderation.KindConflict, moderation.KindOf(err))
	assert.ErrorIs(t, err, moderation.ErrDuplicateCase)
}

func TestGetAndUpdateCase(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "g", "u", &models.Case{ID: 3, Reason: "spam"}))

	_, err := s.GetCase(ctx, "g", "other", 3)
	assert.Equal(t, moderation.KindNotFound, moderation.KindOf(err), "case belongs to another user")

	c, err := s.GetCase(ctx, "g", "u", 3)
	require.NoError(t, err)
	c.Reason = "flood"
	require.NoError(t, s.UpdateCase(ctx, "g", "u", c))

	got, err := s.GetCase(ctx, "g", "u", 3)
	require.NoError(t, err)
	assert.Equal(t, "flood", got.Reason)

	err = s.UpdateCase(ctx, "g", "u", &models.Case{ID: 9})
	assert.ErrorIs(t, err, moderation.ErrCaseNotFound)
}

func TestListCasesOrdered(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []int64{4, 1, 3} {
		require.NoError(t, s.Append(ctx, "g", "u", &models.Case{ID: id}))
	}
	require.NoError(t, s.Append(ctx, "g", "x", &models.Case{ID: 2}))

	cases, err := s.ListCases(ctx, "g", "u")
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, []int64{1, 3, 4}, []int64{cases[0].ID, cases[1].ID, cases[2].ID})
}

func TestApplyDeltaNeverNegative(t *testing.T) {
	s := New()
	ctx := context.Background()

	total, err := s.ApplyDelta(ctx, "g", "u", 30)
	require.NoError(t, err)
	assert.Equal(t, 30, total)

	_, err = s.ApplyDelta(ctx, "g", "u", -31)
	assert.ErrorIs(t, err, moderation.ErrNegativePoints)
	assert.Equal(t, moderation.KindInvalidOperation, moderation.KindOf(err))

	cur, err := s.CurrentTotal(ctx, "g", "u")
	require.NoError(t, err)
	assert.Equal(t, 30, cur, "rejected delta leaves the total unchanged")

	total, err = s.ApplyDelta(ctx, "g", "u", -30)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = s.ApplyDelta(ctx, "g", "nobody", -1)
	assert.Error(t, err)
}

func TestSetMutedReportsChange(t *testing.T) {
	s := New()
	ctx := context.Background()
	until := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	changed, err := s.SetMuted(ctx, "g", "u", false, nil)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.SetMuted(ctx, "g", "u", true, &until)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.SetMuted(ctx, "g", "u", true, nil)
	require.NoError(t, err)
	assert.False(t, changed)

	muted, err := s.MutedUsers(ctx)
	require.NoError(t, err)
	require.Len(t, muted, 1)
	assert.Equal(t, until, *muted[0].MuteUntil)

	changed, err = s.SetMuted(ctx, "g", "u", false, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	rec, err := s.Record(ctx, "g", "u")
	require.NoError(t, err)
	assert.False(t, rec.IsMuted)
	assert.Nil(t, rec.MuteUntil)
}

func TestLockedChannels(t *testing.T) {
	s := New()
	ctx := context.Background()

	added, err := s.AddLockedChannel(ctx, "g", "c1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddLockedChannel(ctx, "g", "c1")
	require.NoError(t, err)
	assert.False(t, added)

	cfg, err := s.GuildConfig(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, cfg.LockedChannels)

	removed, err := s.RemoveLockedChannel(ctx, "g", "c1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveLockedChannel(ctx, "g", "c1")
	require.NoError(t, err)
	assert.False(t, removed)
}
