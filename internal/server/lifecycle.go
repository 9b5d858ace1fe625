package server

import (
	"context"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
)

// 优雅关闭时检查进行中对局的间隔
const shutdownCheckInterval = time.Second

// monitorStats 定期记录服务器状态
func (s *Server) monitorStats(ctx context.Context) error {
	interval := s.config.Server.StatsIntervalDuration()
	if interval <= 0 {
		return nil
	}
	ticker := s.clock.NewTicker(interval, "server", "stats")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			log.Info("📊 [监控]",
				"online", s.GetOnlineCount(),
				"rooms", s.rooms.RoomCount(),
				"games", s.rooms.ActiveGamesCount(),
				"goroutines", runtime.NumGoroutine(),
				"conns", len(s.semaphore),
				"max_conns", s.maxConnections,
				"mem_mb", float64(m.Alloc)/1024/1024)
		}
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接、建房和加入
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	// 通知大厅用户
	s.BroadcastToLobby(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeMaintenance,
		Message: "👷🏻‍♂️ 维护模式：停止新的房间创建",
	}))

	log.Info("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的对局结束（最多 timeout），
// 然后解散所有房间并断开所有连接
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := s.clock.Now().Add(timeout)
	ticker := s.clock.NewTicker(shutdownCheckInterval, "server", "shutdown")
	defer ticker.Stop()

	for s.clock.Now().Before(deadline) {
		activeGames := s.rooms.ActiveGamesCount()
		if activeGames == 0 {
			log.Info("✅ 所有对局已结束")
			break
		}
		log.Info("⏳ 等待对局结束...", "games", activeGames)
		<-ticker.C
	}

	if activeGames := s.rooms.ActiveGamesCount(); activeGames > 0 {
		log.Warn("⚠️ 超时，仍有对局进行中，强制关闭", "games", activeGames)
	}

	s.Shutdown()
}

// Shutdown 解散所有房间，关闭所有连接和存储
func (s *Server) Shutdown() {
	s.rooms.Shutdown()

	s.fanOut(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeMaintenance,
		Message: "🚧 服务器已停机维护",
	}), nil)
	for _, client := range s.clientsWhere(nil) {
		client.Close()
	}

	if err := s.store.Close(); err != nil {
		log.Warn("⚠️ 关闭存储失败", "err", err)
	}

	log.Info("👋 服务器已关闭")
}
