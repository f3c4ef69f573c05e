// Package leaderboardrepo publishes finished leaderboard snapshots to redis.
package leaderboardrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/go-petr/coincard/internal/leaderboard"
)

// ErrNoSnapshot indicates that nothing has been published yet or the snapshot expired.
var ErrNoSnapshot = errors.New("no leaderboard snapshot")

const latestKey = "coincard:leaderboard:latest"

// Connect opens a redis client and checks the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

// RepoRedis stores the latest snapshot under a single key.
type RepoRedis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRepoRedis returns RepoRedis. A zero ttl keeps snapshots until overwritten.
func NewRepoRedis(client *redis.Client, ttl time.Duration) *RepoRedis {
	return &RepoRedis{client: client, ttl: ttl}
}

// Publish implements leaderboard.Publisher.
func (r *RepoRedis) Publish(ctx context.Context, s leaderboard.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, latestKey, b, r.ttl).Err()
}

// Latest returns the last published snapshot.
func (r *RepoRedis) Latest(ctx context.Context) (leaderboard.Snapshot, error) {
	var s leaderboard.Snapshot

	b, err := r.client.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, ErrNoSnapshot
	}

	if err != nil {
		return s, err
	}

	err = json.Unmarshal(b, &s)

	return s, err
}
