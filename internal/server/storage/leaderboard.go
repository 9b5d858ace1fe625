package storage

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	// 累计总资产排行（按昵称）
	leaderboardKey = "forsale:leaderboard:total"
	// 对局场次
	gamesKey = "forsale:leaderboard:games"

	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// RecordGameResult 记录一局的终局结果：累加总资产并计入场次
func (rs *RedisStore) RecordGameResult(ctx context.Context, results []GameResult) error {
	if len(results) == 0 {
		return nil
	}

	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range results {
			pipe.ZIncrBy(ctx, leaderboardKey, float64(r.Total), r.Nickname)
			pipe.HIncrBy(ctx, gamesKey, r.Nickname, 1)
		}
		return nil
	})
	return err
}

// GetLeaderboard 获取排行榜前 limit 名
func (rs *RedisStore) GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	limit = clampLimit(limit)

	results, err := rs.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	if len(results) == 0 {
		return entries, nil
	}

	names := make([]string, len(results))
	for i, z := range results {
		names[i], _ = z.Member.(string)
	}
	games, err := rs.client.HMGet(ctx, gamesKey, names...).Result()
	if err != nil {
		return nil, err
	}

	for i, z := range results {
		entry := LeaderboardEntry{
			Rank:     i + 1,
			Nickname: names[i],
			Total:    int(z.Score),
		}
		if s, ok := games[i].(string); ok {
			entry.Games, _ = strconv.Atoi(s)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLeaderboardLimit
	case limit > maxLeaderboardLimit:
		return maxLeaderboardLimit
	default:
		return limit
	}
}
