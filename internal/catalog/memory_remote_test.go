package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRemoteOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryRemote()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	remote.now = func() time.Time { return base }

	first, err := remote.Create(ctx, Draft{Name: "first"})
	require.NoError(t, err)
	second, err := remote.Create(ctx, Draft{Name: "second"})
	require.NoError(t, err)
	assert.True(t, second.CreatedAt.After(first.CreatedAt), "timestamps must be strictly increasing")

	list, err := remote.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, names(list))
}

func TestMemoryRemoteUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryRemote()

	created, err := remote.Create(ctx, Draft{Name: "before"})
	require.NoError(t, err)
	updated, err := remote.Update(ctx, created.ID, Draft{Name: "after"})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	_, err = remote.Update(ctx, "missing", Draft{})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, remote.Delete(ctx, created.ID))
	require.NoError(t, remote.Delete(ctx, created.ID))
	_, err = remote.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRemoteSeedMarker(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryRemote()

	recorded, err := remote.SeedRecorded(ctx)
	require.NoError(t, err)
	assert.False(t, recorded)

	seeded, err := remote.Seed(ctx, BaselineProducts(), true)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = remote.Seed(ctx, BaselineProducts(), true)
	require.NoError(t, err)
	assert.False(t, seeded)

	list, _ := remote.List(ctx)
	assert.Len(t, list, 4)
}

func TestMemoryRemoteWatchDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryRemote()
	_, _ = remote.Create(ctx, Draft{Name: "existing"})

	var got [][]Product
	stop, err := remote.Watch(ctx, func(products []Product) { got = append(got, products) }, nil)
	require.NoError(t, err)

	_, _ = remote.Create(ctx, Draft{Name: "new"})
	stop()
	stop()
	_, _ = remote.Create(ctx, Draft{Name: "ignored"})

	require.Len(t, got, 2)
	assert.Equal(t, []string{"existing"}, names(got[0]))
	assert.Equal(t, []string{"new", "existing"}, names(got[1]))
	assert.Equal(t, 0, remote.listeners.Len())
}

func TestMemoryRemoteWatchHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryRemote().Watch(ctx, func([]Product) {}, nil)
	assert.Error(t, err)
}
