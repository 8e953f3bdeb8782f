// Package cache holds the Redis read-through cache for leaderboard pages.
// The database stays authoritative; the cache only spares the rankings
// table from every public leaderboard view.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chip-race/league-server/models"
	"github.com/redis/go-redis/v9"
)

// ErrLeaderboardMiss is returned when no cached copy exists for a ranking.
var ErrLeaderboardMiss = errors.New("leaderboard not cached")

type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &LeaderboardCache{client: client, ttl: ttl}
}

func leaderboardKey(rankingID string) string {
	return "leaderboard:" + rankingID
}

func (c *LeaderboardCache) SetPlayers(ctx context.Context, rankingID string, players []models.RankingPlayer) error {
	payload, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard %s: %w", rankingID, err)
	}
	if err := c.client.Set(ctx, leaderboardKey(rankingID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache leaderboard %s: %w", rankingID, err)
	}
	return nil
}

func (c *LeaderboardCache) GetPlayers(ctx context.Context, rankingID string) ([]models.RankingPlayer, error) {
	payload, err := c.client.Get(ctx, leaderboardKey(rankingID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrLeaderboardMiss
		}
		return nil, fmt.Errorf("failed to read cached leaderboard %s: %w", rankingID, err)
	}

	var players []models.RankingPlayer
	if err := json.Unmarshal(payload, &players); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached leaderboard %s: %w", rankingID, err)
	}
	return players, nil
}

func (c *LeaderboardCache) Invalidate(ctx context.Context, rankingID string) error {
	return c.client.Del(ctx, leaderboardKey(rankingID)).Err()
}
