package cache

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	fiberredis "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/MemberPortal/internal/pkg/config"
)

var client *redis.Client

// SetupCache connects to the Redis compatible cache. It returns nil when
// CACHE_HOST is empty; callers fall back to the database in that case.
func SetupCache(cfg *config.Config) *redis.Client {
	if !cfg.CacheEnabled() {
		log.Info("[Cache] CACHE_HOST not set, running without cache")
		client = nil
		return nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.CacheAddr(),
		Password: cfg.CachePassword,
		DB:       DBCache,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warnf("[Cache] Could not connect to %s: %v", cfg.CacheAddr(), err)
	} else {
		log.Infof("[Cache] Connected to %s", cfg.CacheAddr())
	}
	return client
}

// GetClient returns the shared client, or nil when caching is disabled.
func GetClient() *redis.Client {
	return client
}

// Close releases the shared client.
func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// Databases of the shared Redis instance.
const (
	DBCache    = 0
	DBSessions = 1
	DBLimiter  = 2
)

// FiberStorage returns a fiber storage backed by another database of the
// same Redis server, or nil when c is nil so fiber falls back to memory.
func FiberStorage(c *redis.Client, database int) fiber.Storage {
	if c == nil {
		return nil
	}
	host, port := "localhost", 6379
	if h, p, err := net.SplitHostPort(c.Options().Addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}
	return fiberredis.New(fiberredis.Config{
		Host:     host,
		Port:     port,
		Password: c.Options().Password,
		Database: database,
		Reset:    false,
	})
}
