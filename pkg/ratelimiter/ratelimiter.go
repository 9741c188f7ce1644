package ratelimiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"anoa.com/yamdb/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

const (
	ScopeReview  = "review"
	ScopeComment = "comment"
)

// Cooldown enforces a minimum gap between two actions of the same user.
// A nil redis client disables it.
type Cooldown struct {
	rdb *redis.Client
}

func NewCooldown(rdb *redis.Client) *Cooldown {
	return &Cooldown{rdb: rdb}
}

func key(userID uint, scope string) string {
	return fmt.Sprintf("rate_limit:user:%d:%s", userID, scope)
}

// Acquire starts the cooldown for scope. It returns a release func that
// undoes the reservation when the guarded action fails.
func (c *Cooldown) Acquire(ctx context.Context, userID uint, scope string, limit time.Duration) (func(), error) {
	if c == nil || c.rdb == nil || limit <= 0 {
		return func() {}, nil
	}

	k := key(userID, scope)
	wasSet, err := c.rdb.SetNX(ctx, k, "locked", limit).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if !wasSet {
		ttl, _ := c.rdb.TTL(ctx, k).Result()
		seconds := int64(math.Ceil(ttl.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		return nil, &apperror.RateLimitError{
			Message:    fmt.Sprintf("you are doing that too fast. Please wait %d seconds", seconds),
			RetryAfter: seconds,
		}
	}

	release := func() {
		_ = c.rdb.Del(context.WithoutCancel(ctx), k).Err()
	}
	return release, nil
}
