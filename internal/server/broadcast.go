package server

import (
	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
)

// GetOnlineCount 获取在线人数（按需调用）
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// BroadcastToLobby 通知大厅玩家（不在任何房间内）。房间内的玩家由会话推送状态
func (s *Server) BroadcastToLobby(msg *protocol.Message) {
	n := s.fanOut(msg, func(c *Client) bool { return c.GetRoom() == "" })
	log.Debug("📢 大厅广播", "type", msg.Type, "clients", n)
}

// clientsWhere 在锁内复制符合条件的客户端，match 为 nil 时返回全部
func (s *Server) clientsWhere(match func(*Client) bool) []*Client {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	out := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		if match == nil || match(c) {
			out = append(out, c)
		}
	}
	return out
}

// fanOut 在锁外逐个投递，同一编码格式只编码一次。返回成功入队的客户端数
func (s *Server) fanOut(msg *protocol.Message, match func(*Client) bool) int {
	encoded := make(map[codec.Format][]byte, 2)
	sent := 0
	for _, c := range s.clientsWhere(match) {
		data, ok := encoded[c.format]
		if !ok {
			var err error
			if data, err = c.format.Marshal(msg); err != nil {
				log.Error("消息编码错误", "type", msg.Type, "err", err)
				return sent
			}
			encoded[c.format] = data
		}
		if c.enqueue(data) {
			sent++
		}
	}
	return sent
}
