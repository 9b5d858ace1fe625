package storage

import (
	"context"
)

// RoomData 房间概要（用于 Redis 镜像，不用于重启恢复）
type RoomData struct {
	Code        string   `json:"code"`
	Phase       string   `json:"phase"`
	HostName    string   `json:"host_name"`
	Players     []string `json:"players"`
	MaxPlayers  int      `json:"max_players"`
	Round       int      `json:"round"`
	SealedRound int      `json:"sealed_round"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

// GameResult 一名玩家的终局结果
type GameResult struct {
	Nickname string
	Total    int
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Total    int    `json:"total"`
	Games    int    `json:"games"`
}

// Store 房间镜像与排行榜存储
type Store interface {
	SaveRoom(ctx context.Context, data *RoomData) error
	DeleteRoom(ctx context.Context, code string) error
	RecordGameResult(ctx context.Context, results []GameResult) error
	GetLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	Close() error
}

// NopStore 未启用 Redis 时使用，所有写入直接丢弃
type NopStore struct{}

func (NopStore) SaveRoom(context.Context, *RoomData) error           { return nil }
func (NopStore) DeleteRoom(context.Context, string) error            { return nil }
func (NopStore) RecordGameResult(context.Context, []GameResult) error { return nil }
func (NopStore) Close() error                                        { return nil }

func (NopStore) GetLeaderboard(context.Context, int) ([]LeaderboardEntry, error) {
	return []LeaderboardEntry{}, nil
}
