package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis stores each user's feed as a capped list under notifications:<user>.
type Redis struct {
	client *redislib.Client
	prefix string
	max    int64
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis(client *redislib.Client, max int, ttl time.Duration, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	if max <= 0 {
		max = 50
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Redis{
		client: client,
		prefix: "notifications:",
		max:    int64(max),
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis) Notify(ctx context.Context, userID string, n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		r.logger.Error("encode notification", zap.String("user_id", userID), zap.Error(err))
		return
	}

	key := r.key(userID)
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.LTrim(ctx, key, -r.max, -1)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		r.logger.Error("publish notification",
			zap.String("user_id", userID),
			zap.String("message", n.Message),
			zap.Error(err),
		)
	}
}

func (r *Redis) Drain(ctx context.Context, userID string) ([]Notification, error) {
	key := r.key(userID)

	var items *redislib.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		items = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(items.Val()))
	for _, raw := range items.Val() {
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *Redis) key(userID string) string {
	return fmt.Sprintf("%s%s", r.prefix, userID)
}

// NewRedisClient parses a redis:// URL and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redislib.Client, error) {
	opts, err := redislib.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redislib.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
