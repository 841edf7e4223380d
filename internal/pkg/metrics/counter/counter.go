package counter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/MemberPortal/app/repository"
)

const newsViewsKey = "news:counters:views"

// ViewCounter buffers news view increments in a Redis hash and writes them
// to the database in batches. Without a Redis client every view is written
// directly.
type ViewCounter struct {
	client *redis.Client
	news   repository.NewsRepository
}

func NewViewCounter(client *redis.Client, news repository.NewsRepository) *ViewCounter {
	return &ViewCounter{client: client, news: news}
}

// AddNewsView records one view of a news item.
func (v *ViewCounter) AddNewsView(ctx context.Context, newsID uint) error {
	if v.client == nil {
		return v.news.IncrementViews(newsID, 1)
	}
	field := strconv.FormatUint(uint64(newsID), 10)
	if err := v.client.HIncrBy(ctx, newsViewsKey, field, 1).Err(); err != nil {
		// keep the view even when the cache is down
		return v.news.IncrementViews(newsID, 1)
	}
	return nil
}

// Flush drains the pending views into the database and returns how many
// news items were updated.
func (v *ViewCounter) Flush(ctx context.Context) (int, error) {
	if v.client == nil {
		return 0, nil
	}

	// RENAME moves the hash atomically so increments arriving during the
	// flush land in a fresh hash.
	tmpKey := fmt.Sprintf("%s:tmp:%d", newsViewsKey, time.Now().UnixNano())
	if err := v.client.Rename(ctx, newsViewsKey, tmpKey).Err(); err != nil {
		if isNoSuchKey(err) {
			return 0, nil
		}
		return 0, err
	}
	defer v.client.Del(ctx, tmpKey)

	data, err := v.client.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return 0, err
	}

	pending := parseIncrements(data)
	var errs []error
	for _, p := range pending {
		if err := v.news.IncrementViews(p.id, p.inc); err != nil {
			errs = append(errs, fmt.Errorf("news %d: %w", p.id, err))
		}
	}
	return len(pending) - len(errs), errors.Join(errs...)
}

type increment struct {
	id  uint
	inc int64
}

// parseIncrements converts hash fields into sorted id/increment pairs,
// skipping malformed and zero entries.
func parseIncrements(data map[string]string) []increment {
	out := make([]increment, 0, len(data))
	for k, val := range data {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		inc, err := strconv.ParseInt(val, 10, 64)
		if err != nil || inc == 0 {
			continue
		}
		out = append(out, increment{id: uint(id), inc: inc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func isNoSuchKey(err error) bool {
	return errors.Is(err, redis.Nil) || strings.Contains(strings.ToLower(err.Error()), "no such key")
}
