package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"uniplanner/core/constants"
	"uniplanner/core/logger"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	GetSupportedFields(ctx context.Context, table string) ([]string, bool, error)
	SetSupportedFields(ctx context.Context, table string, fields []string) error
	InvalidateSupportedFields(ctx context.Context, table string) error
	Del(ctx context.Context, key string) error
	Close() error
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type redisCache struct {
	client *redis.Client
}

func NewRedisCache(cfg RedisConfig) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Cache:NewRedisCache:Ping", "addr", cfg.Addr, "error", err)
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("Cache:NewRedisCache:Connected", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func supportedFieldsKey(table string) string {
	return fmt.Sprintf(constants.RedisKeySupportedFields, table)
}

func (c *redisCache) GetSupportedFields(ctx context.Context, table string) ([]string, bool, error) {
	val, err := c.client.Get(ctx, supportedFieldsKey(table)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if val == "" {
		return []string{}, true, nil
	}
	return strings.Split(val, ","), true, nil
}

func (c *redisCache) SetSupportedFields(ctx context.Context, table string, fields []string) error {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return c.client.Set(ctx, supportedFieldsKey(table), strings.Join(sorted, ","), constants.SupportedFieldsTTL).Err()
}

func (c *redisCache) InvalidateSupportedFields(ctx context.Context, table string) error {
	return c.Del(ctx, supportedFieldsKey(table))
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
