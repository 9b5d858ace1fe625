package room

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/game/session"
	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/server/storage"
)

// storeTimeout 单次 Redis 写入的超时
const storeTimeout = 3 * time.Second

// Run 定期清理超时房间，直到 ctx 结束
func (m *Manager) Run(ctx context.Context) error {
	ticker := m.clock.NewTicker(m.opts.CleanupInterval, "room", "cleanup")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Cleanup(); n > 0 {
				log.Info("🧹 已清理超时房间", "count", n)
			}
		}
	}
}

// Cleanup 解散超时房间：大厅阶段自创建起超过 RoomTimeout，
// 或已结束的对局闲置超过 RoomTimeout。返回解散的房间数
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for code, s := range m.rooms {
		var expired bool
		switch s.Phase() {
		case session.PhaseLobby:
			expired = now.Sub(s.Summary().CreatedAt) > m.opts.RoomTimeout
		case session.PhaseGameOver:
			expired = now.Sub(s.IdleSince()) > m.opts.RoomTimeout
		}
		if !expired {
			continue
		}
		log.Info("⏳ 房间超时", "room", code, "phase", s.Phase())
		m.destroyLocked(s, "", ReasonTimeout, "房间超时已关闭")
		removed++
	}
	return removed
}

// Shutdown 解散所有房间，用于服务器关闭
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, s := range m.rooms {
		m.destroyLocked(s, "", ReasonShutdown, "服务器维护，房间已关闭")
	}
	m.mu.Unlock()

	// 关闭存储前写完镜像删除
	m.Flush()
}

// onGameOver 记录终局成绩并刷新镜像（会话在独立 goroutine 中回调）
func (m *Manager) onGameOver(code string, standings []protocol.StandingView) {
	results := make([]storage.GameResult, 0, len(standings))
	for _, st := range standings {
		results = append(results, storage.GameResult{Nickname: st.Nickname, Total: st.Total})
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.RecordGameResult(ctx, results); err != nil {
		log.Warn("⚠️ 记录对局结果失败", "room", code, "err", err)
	}

	if s := m.GetRoom(code); s != nil {
		m.mirror(s)
	}
}

// mirror 异步把房间概要写入存储。写入时房间已解散则跳过
func (m *Manager) mirror(s *session.Session) {
	data := toRoomData(s.Summary())
	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		m.storeMu.Lock()
		defer m.storeMu.Unlock()

		if m.GetRoom(data.Code) != s {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := m.store.SaveRoom(ctx, data); err != nil {
			log.Warn("⚠️ 保存房间镜像失败", "room", data.Code, "err", err)
		}
	}()
}

func (m *Manager) unmirror(code string) {
	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		m.storeMu.Lock()
		defer m.storeMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := m.store.DeleteRoom(ctx, code); err != nil {
			log.Warn("⚠️ 删除房间镜像失败", "room", code, "err", err)
		}
	}()
}

// Flush 等待所有未完成的镜像写入
func (m *Manager) Flush() {
	m.writes.Wait()
}
