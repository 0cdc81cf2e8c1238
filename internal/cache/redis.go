package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"go_subdns/internal/config"
)

var Client *redis.Client

// InitRedis connects the shared client. A disabled config leaves Client nil.
func InitRedis(cfg config.RedisConfig, logger *logrus.Entry) error {
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory rate limiting")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	Client = client
	logger.WithField("addr", cfg.Addr).Info("redis connected")
	return nil
}

// Ping reports redis health; a nil client counts as healthy-but-disabled
func Ping(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Ping(ctx).Err()
}

// Close closes the Redis connection
func Close() error {
	if Client != nil {
		err := Client.Close()
		Client = nil
		return err
	}
	return nil
}
