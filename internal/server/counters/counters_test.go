package counters

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCounter(t *testing.T) (*RedisCounter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cl := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cl.Close() })
	return NewRedisCounter(cl, logging.Nop()), mr
}

func TestRedisCounter_IncAndAll(t *testing.T) {
	c, mr := newCounter(t)
	ctx := context.Background()

	n, err := c.Inc(ctx, "unit-a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = c.Inc(ctx, "unit-a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = c.Inc(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, "2", mr.HGet("dl:archives", "unit-a"))
	assert.Equal(t, "1", mr.HGet("dl:archives", "all"))

	got, err := c.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"unit-a": 2, "all": 1}, got)
}

func TestRedisCounter_AllSkipsGarbage(t *testing.T) {
	c, mr := newCounter(t)
	mr.HSet("dl:archives", "unit-a", "3")
	mr.HSet("dl:archives", "broken", "x")

	got, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"unit-a": 3}, got)
}

func TestRedisCounter_ServerDown(t *testing.T) {
	c, mr := newCounter(t)
	mr.Close()

	_, err := c.Inc(context.Background(), "unit-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot increment unit-a counter")

	_, err = c.All(context.Background())
	require.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	cl, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = cl.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	var c Counter = Nop{}
	n, err := c.Inc(context.Background(), "g")
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := c.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
