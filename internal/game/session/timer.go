package session

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/logger"
)

// --- 超时控制 ---

// armTurnTimerLocked 为当前行动玩家重新计时
func (s *Session) armTurnTimerLocked() {
	s.stopTurnTimerLocked()

	playerID := s.currentTurnLocked()
	if playerID == "" {
		return
	}

	gen := s.turnGen
	s.turnDeadline = s.opts.Clock.Now().Add(s.opts.TurnTimeout)
	s.turnTimer = s.opts.Clock.AfterFunc(s.opts.TurnTimeout, func() {
		s.handleTurnTimeout(gen, playerID)
	}, "session", "turn")
}

// stopTurnTimerLocked 取消回合计时，已触发但尚未拿到锁的回调会因 gen 变化被丢弃
func (s *Session) stopTurnTimerLocked() {
	s.turnGen++
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
	s.turnDeadline = time.Time{}
}

func (s *Session) handleTurnTimeout(gen uint64, playerID string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Panic(r)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.turnGen || s.phase != PhaseAuction || s.resolving {
		return
	}
	if s.currentTurnLocked() != playerID {
		return
	}

	p := s.byID[playerID]
	if p.HasPassed {
		// 当前玩家已放弃却仍持有回合，直接推进，不重复扣罚
		log.Warn("⚠️ 超时玩家已放弃，跳过", "room", s.code, "player", p.Nickname)
		s.advanceTurnLocked()
		s.broadcastStateLocked()
		return
	}

	log.Info("⏰ 回合超时，自动放弃", "room", s.code, "player", p.Nickname, "round", s.roundNumber)
	s.passLocked(p)
	s.broadcastStateLocked()
}

// afterDelayLocked 在展示间隔后执行 fn（持锁调用）。间隔为 0 时立即执行
func (s *Session) afterDelayLocked(fn func()) {
	s.stopDelayLocked()
	if s.opts.RoundDelay <= 0 {
		fn()
		return
	}

	gen := s.stageGen
	s.delayTimer = s.opts.Clock.AfterFunc(s.opts.RoundDelay, func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Panic(r)
			}
		}()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.stageGen {
			return
		}
		s.delayTimer = nil
		fn()
	}, "session", "delay")
}

func (s *Session) stopDelayLocked() {
	s.stageGen++
	if s.delayTimer != nil {
		s.delayTimer.Stop()
		s.delayTimer = nil
	}
}
