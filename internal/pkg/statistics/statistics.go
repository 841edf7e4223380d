package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/MemberPortal/app/models"
	"github.com/ManuelReschke/MemberPortal/app/repository"
)

const (
	CacheKeyDashboard = "statistics:dashboard"
	CacheExpiration   = time.Minute
)

// Service serves the dashboard counters, cached in Redis when a client is set.
type Service struct {
	repo   repository.StatsRepository
	client *redis.Client
}

func NewService(repo repository.StatsRepository, client *redis.Client) *Service {
	return &Service{repo: repo, client: client}
}

// Dashboard returns the cached counters or recomputes them from the database.
func (s *Service) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	if s.client != nil {
		raw, err := s.client.Get(ctx, CacheKeyDashboard).Bytes()
		switch {
		case err == nil:
			var stats models.DashboardStats
			if uerr := json.Unmarshal(raw, &stats); uerr == nil {
				return &stats, nil
			}
			log.Warnf("[Statistics] dropping unreadable cache entry")
		case !errors.Is(err, redis.Nil):
			log.Warnf("[Statistics] cache read failed: %v", err)
		}
	}

	stats, err := s.repo.Dashboard()
	if err != nil {
		return nil, err
	}

	if s.client != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.client.Set(ctx, CacheKeyDashboard, raw, CacheExpiration).Err(); err != nil {
				log.Warnf("[Statistics] cache write failed: %v", err)
			}
		}
	}
	return stats, nil
}

// Invalidate drops the cached counters after content changes.
func (s *Service) Invalidate(ctx context.Context) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, CacheKeyDashboard).Err(); err != nil {
		log.Warnf("[Statistics] cache invalidation failed: %v", err)
	}
}
