package session

import (
	"slices"

	"github.com/charmbracelet/log"
)

// RemovePlayer 移除玩家（离开或断线）。是否解散房间由调用方决定，
// 这里只处理离开后剩余玩家的对局状态
func (s *Session) RemovePlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[playerID]
	if !ok {
		return false
	}
	s.players = slices.DeleteFunc(s.players, func(x *Player) bool { return x.ID == playerID })
	delete(s.byID, playerID)
	delete(s.selections, playerID)
	s.touchLocked()

	log.Info("👋 玩家离开房间", "room", s.code, "player", p.Nickname, "phase", s.phase, "remaining", len(s.players))

	if s.closed {
		return true
	}

	switch s.phase {
	case PhaseAuction:
		s.departAuctionLocked(p)
	case PhaseSealedBid:
		s.departSealedLocked()
	}

	s.broadcastStateLocked()
	return true
}

// departAuctionLocked 离开的玩家视为永久放弃：从行动顺序中移除，
// 未放弃时丢弃桌上最小的一张地产牌，保持桌面牌数与未放弃人数一致
func (s *Session) departAuctionLocked(p *Player) {
	heldTurn := s.removeFromTurnOrderLocked(p.ID)

	if len(s.players) < 2 {
		s.stopDelayLocked()
		s.gameOverLocked()
		return
	}
	if s.resolving {
		return
	}

	if !p.HasPassed && len(s.tableProperties) > 0 {
		log.Info("🗑️ 离开玩家的地产牌作废", "room", s.code, "property", s.tableProperties[0])
		s.tableProperties = s.tableProperties[1:]
	}
	if s.highBidder == p.ID {
		s.recomputeHighBidLocked()
	}

	if w := s.soleSurvivorLocked(); w != nil {
		s.awardLocked(w)
		return
	}
	if heldTurn {
		if !s.seekTurnLocked(s.turnIndex) {
			s.forceEndRoundLocked("no active bidder after departure")
			return
		}
		s.armTurnTimerLocked()
	}
}

// removeFromTurnOrderLocked 从行动顺序中删除玩家，返回其是否正持有回合
func (s *Session) removeFromTurnOrderLocked(id string) bool {
	i := slices.Index(s.turnOrder, id)
	if i < 0 {
		return false
	}
	heldTurn := !s.resolving && i == s.turnIndex
	s.turnOrder = slices.Delete(s.turnOrder, i, i+1)

	switch {
	case i < s.turnIndex:
		s.turnIndex--
	case s.turnIndex >= len(s.turnOrder):
		s.turnIndex = 0
	}
	if heldTurn {
		s.stopTurnTimerLocked()
	}
	return heldTurn
}

func (s *Session) recomputeHighBidLocked() {
	s.highBid = 0
	s.highBidder = ""
	for _, p := range s.players {
		if !p.HasPassed && p.CurrentBid > s.highBid {
			s.highBid = p.CurrentBid
			s.highBidder = p.ID
		}
	}
}

// departSealedLocked 丢弃离开者的出牌；剩余玩家都已出牌时直接亮牌
func (s *Session) departSealedLocked() {
	if len(s.players) < 2 {
		s.stopDelayLocked()
		s.gameOverLocked()
		return
	}
	if !s.resolving && s.allSelectedLocked() {
		s.revealLocked()
	}
}
