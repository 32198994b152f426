package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTrackerSupersedes(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker(time.Minute)

	first, err := tr.Begin(ctx, "acct-1", "designer")
	require.NoError(t, err)
	ok, err := tr.IsCurrent(ctx, "acct-1", "designer", first)
	require.NoError(t, err)
	assert.True(t, ok)

	second, err := tr.Begin(ctx, "acct-1", "designer")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	ok, _ = tr.IsCurrent(ctx, "acct-1", "designer", first)
	assert.False(t, ok, "first request is stale")
	ok, _ = tr.IsCurrent(ctx, "acct-1", "designer", second)
	assert.True(t, ok)

	// Ending a stale token leaves the newer one in place.
	require.NoError(t, tr.End(ctx, "acct-1", "designer", first))
	ok, _ = tr.IsCurrent(ctx, "acct-1", "designer", first)
	assert.False(t, ok)
}

func TestMemoryTrackerEndedNewerTokenStillSupersedes(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker(time.Minute)

	older, _ := tr.Begin(ctx, "acct-1", "designer")
	newer, _ := tr.Begin(ctx, "acct-1", "designer")
	require.NoError(t, tr.End(ctx, "acct-1", "designer", newer))

	ok, err := tr.IsCurrent(ctx, "acct-1", "designer", older)
	require.NoError(t, err)
	assert.False(t, ok, "an older request stays stale after the newer one finished")
}

func TestMemoryTrackerUnknownPairIsNotCurrent(t *testing.T) {
	tr := NewMemoryTracker(time.Minute)
	ok, err := tr.IsCurrent(context.Background(), "acct-1", "designer", "some-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTrackerIsolatesContexts(t *testing.T) {
	ctx := context.Background()
	tr := NewMemoryTracker(time.Minute)

	a, _ := tr.Begin(ctx, "acct-1", "designer")
	_, _ = tr.Begin(ctx, "acct-1", "history")
	_, _ = tr.Begin(ctx, "acct-2", "designer")

	ok, _ := tr.IsCurrent(ctx, "acct-1", "designer", a)
	assert.True(t, ok)
}

func TestTrackerKeyDefaultsContext(t *testing.T) {
	assert.Equal(t, "redesign:current:acct:default", trackerKey("acct", "  "))
	assert.Equal(t, "redesign:current:acct:tab-2", trackerKey("acct", "tab-2"))
}
