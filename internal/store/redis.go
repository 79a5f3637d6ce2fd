package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/groupbot/internal/config"
)

// MaxActivity bounds the activity list kept in redis.
const MaxActivity = 1000

// Redis keeps the snapshot as one JSON value and the activity log as a capped list.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects to the server in cfg and verifies it answers.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &Redis{rdb: rdb, prefix: cfg.Prefix}, nil
}

func (r *Redis) key(name string) string {
	return redisKey(r.prefix, name)
}

func redisKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + ":" + name
}

func (r *Redis) Load(ctx context.Context) (Snapshot, error) {
	data, err := r.rdb.Get(ctx, r.key("snapshot")).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis get snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (r *Redis) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key("snapshot"), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set snapshot: %w", err)
	}
	return nil
}

func (r *Redis) LogActivity(ctx context.Context, a Activity) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode activity: %w", err)
	}
	key := r.key("activity")
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, MaxActivity-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis push activity: %w", err)
	}
	return nil
}

func (r *Redis) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		return nil, nil
	}
	raw, err := r.rdb.LRange(ctx, r.key("activity"), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range activity: %w", err)
	}
	out := make([]Activity, 0, len(raw))
	for _, item := range raw {
		var a Activity
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
