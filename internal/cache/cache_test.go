package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchwatch/matchwatch/internal/clock"
)

func newTestCache(t *testing.T) (*Cache, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	c := New(clk, map[Category]Durations{
		CategorySchedule: {Base: 5 * time.Minute, Live: 30 * time.Second},
		CategoryDetails:  {Base: 2 * time.Minute, Live: 10 * time.Second},
		CategoryMedia:    {Base: 15 * time.Minute}, // no live duration
	})
	return c, clk
}

func TestAdaptiveDuration(t *testing.T) {
	c, clk := newTestCache(t)

	c.Put(CategorySchedule, "", "today", true)

	_, ok := c.Get(CategorySchedule, "")
	assert.True(t, ok, "fresh live entry is valid")

	clk.Advance(29 * time.Second)
	_, ok = c.Get(CategorySchedule, "")
	assert.True(t, ok, "still inside live duration")

	clk.Advance(1 * time.Second)
	_, ok = c.Get(CategorySchedule, "")
	assert.False(t, ok, "expired at live duration, well before base")

	// A non-live put extends validity to base duration from its own write.
	c.Put(CategorySchedule, "", "tomorrow", false)
	clk.Advance(4 * time.Minute)
	v, ok := c.Get(CategorySchedule, "")
	require.True(t, ok)
	assert.Equal(t, "tomorrow", v)

	clk.Advance(1 * time.Minute)
	_, ok = c.Get(CategorySchedule, "")
	assert.False(t, ok)
}

func TestLivenessIsPerCategory(t *testing.T) {
	c, clk := newTestCache(t)

	c.Put(CategorySchedule, "", "sched", true)
	c.Put(CategoryMedia, "m1", "clip", true) // media has no live duration

	clk.Advance(1 * time.Minute)

	_, ok := c.Get(CategorySchedule, "")
	assert.False(t, ok, "live schedule expired")

	_, ok = c.Get(CategoryMedia, "m1")
	assert.True(t, ok, "media keeps its base duration")
}

func TestLiveHintAppliesToWholeCategory(t *testing.T) {
	c, clk := newTestCache(t)

	c.Put(CategoryDetails, "e1", "d1", false)
	c.Put(CategoryDetails, "e2", "d2", true) // most recent put is live

	clk.Advance(15 * time.Second)

	// Both entries now expire on the live duration.
	_, ok := c.Get(CategoryDetails, "e1")
	assert.False(t, ok)
	_, ok = c.Get(CategoryDetails, "e2")
	assert.False(t, ok)
}

func TestInvalidateAll(t *testing.T) {
	c, _ := newTestCache(t)

	c.Put(CategorySchedule, "", 1, false)
	c.Put(CategoryDetails, "e1", 2, false)
	c.InvalidateAll()

	_, ok := c.Get(CategorySchedule, "")
	assert.False(t, ok)
	_, ok = c.Get(CategoryDetails, "e1")
	assert.False(t, ok)
}

func TestGetOrFetch(t *testing.T) {
	c, clk := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) (any, bool, error) {
		calls++
		return "fetched", false, nil
	}

	v, err := c.GetOrFetch(ctx, CategoryDetails, "e1", fetch)
	require.NoError(t, err)
	assert.Equal(t, "fetched", v)

	v, err = c.GetOrFetch(ctx, CategoryDetails, "e1", fetch)
	require.NoError(t, err)
	assert.Equal(t, "fetched", v)
	assert.Equal(t, 1, calls, "second call served from cache")

	clk.Advance(3 * time.Minute)
	_, err = c.GetOrFetch(ctx, CategoryDetails, "e1", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "expired entry refetched")
}

func TestGetOrFetchError(t *testing.T) {
	c, _ := newTestCache(t)

	wantErr := errors.New("feed down")
	_, err := c.GetOrFetch(context.Background(), CategoryDetails, "e1", func(ctx context.Context) (any, bool, error) {
		return nil, false, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	_, ok := c.Get(CategoryDetails, "e1")
	assert.False(t, ok, "failed fetch stores nothing")
}
