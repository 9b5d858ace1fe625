package session

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/apperrors"
)

// PlaceBid 竞拍出价，必须严格高于当前最高价且不超过余额
func (s *Session) PlaceBid(playerID string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.checkAuctionTurnLocked(playerID)
	if err != nil {
		return err
	}
	if amount <= s.highBid {
		return apperrors.ErrBidTooLow
	}
	if amount > p.Balance {
		return apperrors.ErrInsufficientBalance
	}

	p.CurrentBid = amount
	s.highBid = amount
	s.highBidder = p.ID
	s.touchLocked()
	log.Debug("💰 出价", "room", s.code, "player", p.Nickname, "amount", amount)

	if w := s.soleSurvivorLocked(); w != nil {
		s.awardLocked(w)
	} else {
		s.advanceTurnLocked()
	}
	s.broadcastStateLocked()
	return nil
}

// Pass 放弃本轮竞拍：拿走桌上最小的地产牌并支付罚金
func (s *Session) Pass(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.checkAuctionTurnLocked(playerID)
	if err != nil {
		return err
	}

	s.passLocked(p)
	s.broadcastStateLocked()
	return nil
}

func (s *Session) checkAuctionTurnLocked(playerID string) (*Player, error) {
	if s.closed {
		return nil, apperrors.ErrRoomClosed
	}
	p, ok := s.byID[playerID]
	if !ok {
		return nil, apperrors.ErrNotInRoom
	}
	if s.phase != PhaseAuction {
		return nil, apperrors.ErrWrongPhase
	}
	if s.resolving {
		return nil, apperrors.ErrRoundResolving
	}
	if s.currentTurnLocked() != playerID {
		return nil, apperrors.ErrNotYourTurn
	}
	if p.HasPassed {
		return nil, apperrors.ErrAlreadyPassed
	}
	return p, nil
}

func (s *Session) passLocked(p *Player) {
	if len(s.tableProperties) == 0 {
		s.forceEndRoundLocked("pass with empty table")
		return
	}

	lowest := s.tableProperties[0]
	s.tableProperties = s.tableProperties[1:]
	p.addProperty(lowest)

	penalty := PassPenalty(p.CurrentBid)
	p.Balance -= penalty
	p.CurrentBid = 0
	p.HasPassed = true
	s.touchLocked()

	log.Debug("🙅 放弃", "room", s.code, "player", p.Nickname, "property", lowest, "penalty", penalty)

	if w := s.soleSurvivorLocked(); w != nil {
		s.awardLocked(w)
		return
	}
	s.advanceTurnLocked()
}

// soleSurvivorLocked 只剩一名未放弃的玩家时返回该玩家
func (s *Session) soleSurvivorLocked() *Player {
	var last *Player
	for _, p := range s.players {
		if p.HasPassed {
			continue
		}
		if last != nil {
			return nil
		}
		last = p
	}
	return last
}

// awardLocked 最后的玩家拿走桌上最大的地产牌，全额支付自己的出价
func (s *Session) awardLocked(w *Player) {
	if len(s.tableProperties) == 0 {
		s.forceEndRoundLocked("winner with empty table")
		return
	}

	highest := s.tableProperties[len(s.tableProperties)-1]
	s.tableProperties = s.tableProperties[:len(s.tableProperties)-1]
	w.addProperty(highest)
	w.Balance -= w.CurrentBid
	paid := w.CurrentBid
	w.CurrentBid = 0
	s.lastRoundWinner = w.ID

	if len(s.tableProperties) > 0 {
		log.Error("❌ 回合结束时桌上仍有地产牌，已丢弃", "room", s.code, "cards", s.tableProperties)
		s.tableProperties = nil
	}

	log.Info("🏆 竞拍回合结束", "room", s.code, "round", s.roundNumber, "winner", w.Nickname, "property", highest, "paid", paid)
	s.endAuctionRoundLocked()
}

// forceEndRoundLocked 状态不一致时强制结束本轮，不让进程崩溃
func (s *Session) forceEndRoundLocked(reason string) {
	log.Error("❌ 强制结束竞拍回合", "room", s.code, "round", s.roundNumber, "reason", reason)
	s.tableProperties = nil
	for _, p := range s.players {
		p.CurrentBid = 0
		p.HasPassed = true
	}
	s.endAuctionRoundLocked()
}

func (s *Session) endAuctionRoundLocked() {
	s.stopTurnTimerLocked()
	s.resolving = true
	s.touchLocked()
	s.afterDelayLocked(func() {
		s.nextAfterAuctionLocked()
		s.broadcastStateLocked()
	})
}

// nextAfterAuctionLocked 牌堆够发一轮就继续竞拍，否则进入暗标阶段
func (s *Session) nextAfterAuctionLocked() {
	if len(s.players) < 2 {
		s.gameOverLocked()
		return
	}
	if s.propertyDeck.Len() >= len(s.players) {
		s.startAuctionRoundLocked()
		return
	}
	s.startSealedPhaseLocked()
}

func (s *Session) startAuctionRoundLocked() {
	n := len(s.players)
	cards, ok := s.propertyDeck.Deal(n)
	if !ok {
		s.startSealedPhaseLocked()
		return
	}
	slices.Sort(cards)
	s.tableProperties = cards

	for _, p := range s.players {
		p.resetBidding()
	}
	s.highBid = 0
	s.highBidder = ""
	s.roundNumber++
	s.resolving = false

	// 上一轮的赢家先行动
	if i := slices.Index(s.turnOrder, s.lastRoundWinner); i > 0 {
		s.turnOrder = slices.Concat(s.turnOrder[i:], s.turnOrder[:i])
	}
	s.turnIndex = 0
	s.touchLocked()

	log.Info("🔨 竞拍回合开始", "room", s.code, "round", s.roundNumber, "table", s.tableProperties, "first", s.turnOrder[0])
	s.armTurnTimerLocked()
}

// currentTurnLocked 当前行动玩家 ID，没有时返回空串
func (s *Session) currentTurnLocked() string {
	if s.phase != PhaseAuction || s.resolving {
		return ""
	}
	if s.turnIndex < 0 || s.turnIndex >= len(s.turnOrder) {
		return ""
	}
	return s.turnOrder[s.turnIndex]
}

// advanceTurnLocked 轮到下一位未放弃的玩家并重新计时
func (s *Session) advanceTurnLocked() {
	if !s.seekTurnLocked(s.turnIndex + 1) {
		s.forceEndRoundLocked("no active bidder")
		return
	}
	s.armTurnTimerLocked()
}

// seekTurnLocked 从 start（含）开始循环查找未放弃的玩家
func (s *Session) seekTurnLocked(start int) bool {
	n := len(s.turnOrder)
	for k := range n {
		i := (start + k) % n
		if p, ok := s.byID[s.turnOrder[i]]; ok && !p.HasPassed {
			s.turnIndex = i
			return true
		}
	}
	return false
}
