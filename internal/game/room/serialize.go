package room

import (
	"github.com/palemoky/for-sale/internal/game/session"
	"github.com/palemoky/for-sale/internal/server/storage"
)

// toRoomData 将会话概要转换为可序列化的 RoomData
func toRoomData(sum session.Summary) *storage.RoomData {
	return &storage.RoomData{
		Code:        sum.Code,
		Phase:       sum.Phase,
		HostName:    sum.HostName,
		Players:     sum.Players,
		MaxPlayers:  sum.MaxPlayers,
		Round:       sum.Round,
		SealedRound: sum.SealedRound,
		CreatedAt:   sum.CreatedAt.Unix(),
		UpdatedAt:   sum.UpdatedAt.Unix(),
	}
}
