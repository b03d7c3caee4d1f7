// Package counters keeps per-group archive download statistics.
package counters

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/studyportal/internal/common"
	"github.com/dmitrijs2005/studyportal/internal/logging"
	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix    = "dl"
	KeyArchives  = "archives" // HASH. group id (or "all") -> completed archive count. HINCRBY dl:archives {group} 1
	KeySeparator = ":"
)

// Counter records completed archive downloads.
type Counter interface {
	Inc(ctx context.Context, group string) (int64, error)
	All(ctx context.Context) (map[string]int64, error)
}

type RedisCounter struct {
	cl  *redis.Client
	log logging.Logger
}

func NewRedisCounter(cl *redis.Client, log logging.Logger) *RedisCounter {
	return &RedisCounter{cl: cl, log: log.With("module", "counters")}
}

// NewRedisClient parses url and checks the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cannot parse redis url: %w", err)
	}

	cl := redis.NewClient(opt)
	if _, err := cl.Ping(ctx).Result(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("cannot reach redis: %w", err)
	}
	return cl, nil
}

func (c *RedisCounter) Inc(ctx context.Context, group string) (int64, error) {
	field := fieldFor(group)
	n, err := c.cl.HIncrBy(ctx, getKey(KeyPrefix, KeyArchives), field, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot increment %s counter: %w", field, err)
	}
	return n, nil
}

func (c *RedisCounter) All(ctx context.Context) (map[string]int64, error) {
	raw, err := c.cl.HGetAll(ctx, getKey(KeyPrefix, KeyArchives)).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get archive counters: %w", err)
	}

	result := make(map[string]int64, len(raw))
	for field, val := range raw {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			c.log.Error(ctx, "cannot convert counter value", "field", field, "error", err)
			continue
		}
		result[field] = n
	}
	return result, nil
}

// Nop counts nothing. It is used when no Redis is configured.
type Nop struct{}

func (Nop) Inc(context.Context, string) (int64, error)    { return 0, nil }
func (Nop) All(context.Context) (map[string]int64, error) { return map[string]int64{}, nil }

func fieldFor(group string) string {
	if group == "" {
		return common.AllGroupsKey
	}
	return group
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
