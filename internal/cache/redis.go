package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akl7777777/ippure-panel/internal/model"
)

const keyPrefix = "ippure:"

// Redis shares reports between aggregator replicas. Entries expire through
// the key TTL, so there is no sweeper.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration, log *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	log.Info("redis cache connected", zap.String("addr", addr), zap.Int("db", db), zap.Duration("ttl", ttl))
	return &Redis{client: client, ttl: ttl, log: log}, nil
}

func (c *Redis) Get(ctx context.Context, key string) (*model.Report, bool) {
	s, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var r model.Report
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		c.log.Warn("redis entry undecodable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return cachedCopy(&r), true
}

func (c *Redis) Set(ctx context.Context, key string, r *model.Report) {
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, b, c.ttl).Err(); err != nil {
		c.log.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Size counts this service's keys with SCAN.
func (c *Redis) Size(ctx context.Context) int {
	n := 0
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("redis scan failed", zap.Error(err))
	}
	return n
}

func (c *Redis) TTL() time.Duration { return c.ttl }

func (c *Redis) Backend() string { return "redis" }

func (c *Redis) Close() error { return c.client.Close() }
