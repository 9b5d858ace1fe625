package handler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
	"github.com/palemoky/for-sale/internal/types"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	leaderboardTimeout      = 3 * time.Second
)

// --- 排行榜处理 ---

// handleGetLeaderboard 获取排行榜（按累计总资产）
func (h *Handler) handleGetLeaderboard(client types.ClientInterface, msg *protocol.Message) {
	limit := defaultLeaderboardLimit
	if payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg); err == nil &&
		payload.Limit > 0 && payload.Limit <= maxLeaderboardLimit {
		limit = payload.Limit
	}

	ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
	defer cancel()

	entries, err := h.store.GetLeaderboard(ctx, limit)
	if err != nil {
		log.Warn("⚠️ 获取排行榜失败", "err", err)
		client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeQueryFailed, "获取排行榜失败"))
		return
	}

	// 转换为协议格式
	protocolEntries := make([]protocol.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		protocolEntries = append(protocolEntries, protocol.LeaderboardEntry{
			Rank:     entry.Rank,
			Nickname: entry.Nickname,
			Total:    entry.Total,
			Games:    entry.Games,
		})
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Entries: protocolEntries,
	}))
}

// handleGetRoomList 获取可加入的房间列表
func (h *Handler) handleGetRoomList(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomListResult, protocol.RoomListResultPayload{
		Rooms: h.rooms.GetRoomList(),
	}))
}

// handleGetOnlineCount 获取在线人数（按需）
func (h *Handler) handleGetOnlineCount(client types.ClientInterface) {
	client.SendMessage(codec.MustNewMessage(protocol.MsgOnlineCount, protocol.OnlineCountPayload{
		Count: h.server.GetOnlineCount(),
	}))
}
