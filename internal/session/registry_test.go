package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/model"
	"github.com/BuzzLyutic/taskboard/internal/notify"
	"github.com/BuzzLyutic/taskboard/internal/record"
	"github.com/BuzzLyutic/taskboard/internal/repo"
	"github.com/BuzzLyutic/taskboard/internal/taskstore"
)

// countingRecords wraps the in-memory repo and counts SelectAll calls.
type countingRecords struct {
	*repo.MemoryTaskRepo
	selects atomic.Int32
	fail    atomic.Bool
	delay   time.Duration
}

func (c *countingRecords) SelectAll(ctx context.Context, userID string) ([]record.TaskRecord, error) {
	c.selects.Add(1)
	time.Sleep(c.delay)
	if c.fail.Load() {
		return nil, errors.New("record store down")
	}
	return c.MemoryTaskRepo.SelectAll(ctx, userID)
}

func TestRegistry_GetLoadsOnce(t *testing.T) {
	ctx := context.Background()
	mem := repo.NewMemoryTaskRepo()
	_, err := mem.Insert(ctx, record.FromDraft("u1", model.Draft{Title: "seed", Status: model.StatusPending, Priority: model.PriorityLow}))
	require.NoError(t, err)
	records := &countingRecords{MemoryTaskRepo: mem, delay: 20 * time.Millisecond}
	reg := NewRegistry(records, notify.NewMemory(5), zap.NewNop(), time.Hour)

	var wg sync.WaitGroup
	stores := make([]*taskstore.Store, 10)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.Get(ctx, "u1")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), records.selects.Load())
	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
	assert.Len(t, stores[0].Tasks(), 1)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_RequiresIdentity(t *testing.T) {
	reg := NewRegistry(repo.NewMemoryTaskRepo(), nil, nil, time.Hour)

	_, err := reg.Get(context.Background(), "")

	assert.ErrorIs(t, err, taskstore.ErrNoIdentity)
}

func TestRegistry_FailedLoadStillRegisters(t *testing.T) {
	ctx := context.Background()
	records := &countingRecords{MemoryTaskRepo: repo.NewMemoryTaskRepo()}
	records.fail.Store(true)
	n := notify.NewMemory(5)
	reg := NewRegistry(records, n, zap.NewNop(), time.Hour)

	s, err := reg.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, s.Tasks())
	feed, _ := n.Drain(ctx, "u1")
	require.Len(t, feed, 1)
	assert.Equal(t, "Failed to load tasks", feed[0].Message)

	records.fail.Store(false)
	_, err = reg.Reload(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, int32(2), records.selects.Load())
}

func TestRegistry_EvictIdle(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(repo.NewMemoryTaskRepo(), nil, zap.NewNop(), time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	_, err := reg.Get(ctx, "idle")
	require.NoError(t, err)
	clock = clock.Add(45 * time.Second)
	_, err = reg.Get(ctx, "active")
	require.NoError(t, err)

	clock = clock.Add(30 * time.Second)
	require.NoError(t, reg.EvictIdle(ctx))

	assert.Equal(t, 1, reg.Len())
	assert.Nil(t, reg.lookup("idle"))
	assert.NotNil(t, reg.lookup("active"))

	reg.Close("active")
	assert.Equal(t, 0, reg.Len())
}
