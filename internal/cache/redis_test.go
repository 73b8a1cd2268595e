package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"locdecoder/internal/core/model"
)

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	c := NewPositionCache(ctx, "", 0, zap.NewNop())
	defer c.Close()

	assert.False(t, c.Enabled())
	assert.Equal(t, DefaultTTL, c.ttl)
	require.NoError(t, c.SetLatest(ctx, model.NewPosition("dev-1", 1, 2)))

	_, err := c.GetLatest(ctx, "dev-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestInvalidURLDisablesCache(t *testing.T) {
	c := NewPositionCache(context.Background(), "not a url", 0, zap.NewNop())
	assert.False(t, c.Enabled())
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *PositionCache
	assert.False(t, c.Enabled())
	_, err := c.GetLatest(context.Background(), "dev-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLatestKey(t *testing.T) {
	assert.Equal(t, "position:latest:868120300000001", latestKey("868120300000001"))
}

func newTestCache(t *testing.T) (*PositionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewPositionCache(context.Background(), "redis://"+mr.Addr(), time.Hour, zap.NewNop())
	require.True(t, c.Enabled())
	t.Cleanup(c.Close)
	return c, mr
}

func positionAt(deviceID string, ts time.Time) *model.Position {
	p := model.NewPosition(deviceID, 28.676295, 77.43001833)
	p.Timestamp = ts
	p.Protocol = "gt06"
	p.Status["acc"] = true
	return p
}

func TestSetAndGetLatest(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	ts := time.Date(2026, 1, 10, 7, 6, 29, 0, time.UTC)

	want := positionAt("868120300000001", ts)
	require.NoError(t, c.SetLatest(ctx, want))

	got, err := c.GetLatest(ctx, "868120300000001")
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, ts.Equal(got.Timestamp))
	assert.Equal(t, want.Latitude, got.Latitude)
	assert.Equal(t, true, got.Status["acc"])

	assert.Equal(t, time.Hour, mr.TTL(latestKey("868120300000001")))

	mr.FastForward(2 * time.Hour)
	_, err = c.GetLatest(ctx, "868120300000001")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetLatestMissingKey(t *testing.T) {
	c, _ := newTestCache(t)
	_, err := c.GetLatest(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetLatestCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(latestKey("dev-1"), "{not json"))

	_, err := c.GetLatest(context.Background(), "dev-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSetLatestKeepsNewerEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)
	newer := positionAt("dev-1", time.Date(2026, 1, 10, 7, 6, 29, 0, time.UTC))
	older := positionAt("dev-1", time.Date(2025, 1, 10, 7, 6, 29, 0, time.UTC))

	require.NoError(t, c.SetLatest(ctx, newer))
	require.NoError(t, c.SetLatest(ctx, older))

	got, err := c.GetLatest(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)

	sameTime := positionAt("dev-1", newer.Timestamp)
	require.NoError(t, c.SetLatest(ctx, sameTime))
	got, err = c.GetLatest(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, sameTime.ID, got.ID)
}

func TestSetLatestReplacesCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set(latestKey("dev-1"), "{not json"))

	p := positionAt("dev-1", time.Date(2026, 1, 10, 7, 6, 29, 0, time.UTC))
	require.NoError(t, c.SetLatest(ctx, p))

	got, err := c.GetLatest(ctx, "dev-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}
