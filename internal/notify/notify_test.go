package notify

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemory_NotifyAndDrain(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2)

	m.Notify(ctx, "u1", Error("first"))
	m.Notify(ctx, "u1", Error("second"))
	m.Notify(ctx, "u1", Success("third"))
	m.Notify(ctx, "u2", Success("other user"))

	got, err := m.Drain(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Message)
	assert.Equal(t, "third", got[1].Message)
	assert.Equal(t, LevelSuccess, got[1].Level)

	again, err := m.Drain(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again)

	other, _ := m.Drain(ctx, "u2")
	assert.Len(t, other, 1)
}

func TestNew_AssignsID(t *testing.T) {
	a, b := Error("x"), Error("x")
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}

func TestRedis_NotifyAndDrain(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	client, err := NewRedisClient(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	r := NewRedis(client, 3, time.Minute, zap.NewNop())
	user := "redis-test-user"
	_, _ = r.Drain(ctx, user)

	for _, msg := range []string{"a", "b", "c", "d"} {
		r.Notify(ctx, user, Success(msg))
	}

	got, err := r.Drain(ctx, user)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Message)
	assert.Equal(t, "d", got[2].Message)

	empty, err := r.Drain(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
