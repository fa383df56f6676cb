package rating

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"ttt-arena/pkg/arenadto"
)

const leaderboardKey = "arena:leaderboard"

// Store keeps the leaderboard in a Redis sorted set so standings survive
// server restarts even though rooms and sessions do not.
type Store struct {
	rdb *redis.Client
}

func NewStore(redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for rating store")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Adjust applies a settlement delta to a player's score, floored at zero.
func (s *Store) Adjust(ctx context.Context, username string, delta int) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}
	score, err := s.rdb.ZIncrBy(ctx, leaderboardKey, float64(delta), username).Result()
	if err != nil {
		return err
	}
	if score < 0 {
		return s.rdb.ZAdd(ctx, leaderboardKey, redis.Z{Score: 0, Member: username}).Err()
	}
	return nil
}

// Top returns the n best standings, highest first.
func (s *Store) Top(ctx context.Context, n int) ([]arenadto.Standing, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := s.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]arenadto.Standing, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, arenadto.Standing{Username: name, Points: int(z.Score)})
	}
	return out, nil
}
