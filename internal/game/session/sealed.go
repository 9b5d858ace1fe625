package session

import (
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/apperrors"
)

// PlayCard 暗标出牌，全员出完后同时亮牌
func (s *Session) PlayCard(playerID string, card int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrRoomClosed
	}
	p, ok := s.byID[playerID]
	if !ok {
		return apperrors.ErrNotInRoom
	}
	if s.phase != PhaseSealedBid {
		return apperrors.ErrWrongPhase
	}
	if s.resolving {
		return apperrors.ErrRoundResolving
	}
	if _, selected := s.selections[playerID]; selected {
		return apperrors.ErrAlreadySelected
	}
	if !p.Holds(card) {
		return apperrors.ErrCardNotHeld
	}

	s.selections[playerID] = card
	s.touchLocked()
	log.Debug("🃏 暗标出牌", "room", s.code, "player", p.Nickname, "selected", len(s.selections), "players", len(s.players))

	if s.allSelectedLocked() {
		s.revealLocked()
	}
	s.broadcastStateLocked()
	return nil
}

func (s *Session) startSealedPhaseLocked() {
	s.phase = PhaseSealedBid
	s.stopTurnTimerLocked()
	s.tableProperties = nil
	s.turnIndex = -1
	for _, p := range s.players {
		p.resetBidding()
	}
	s.highBid = 0
	s.highBidder = ""
	log.Info("🔒 进入暗标阶段", "room", s.code, "cheques", s.chequeDeck.Len())
	s.continueSealedLocked()
}

// continueSealedLocked 有人还持有地产牌且支票够发一轮时继续，否则游戏结束
func (s *Session) continueSealedLocked() {
	if len(s.players) < 2 || s.chequeDeck.Len() < len(s.players) || !s.anyPropertyHeldLocked() {
		s.gameOverLocked()
		return
	}
	s.startSealedRoundLocked()
}

func (s *Session) anyPropertyHeldLocked() bool {
	for _, p := range s.players {
		if len(p.properties) > 0 {
			return true
		}
	}
	return false
}

func (s *Session) startSealedRoundLocked() {
	cheques, ok := s.chequeDeck.Deal(len(s.players))
	if !ok {
		s.gameOverLocked()
		return
	}
	slices.SortFunc(cheques, func(a, b int) int { return b - a })
	s.tableCheques = cheques
	s.sealedRoundNumber++
	clear(s.selections)
	s.revealed = false
	s.resolving = false
	s.touchLocked()

	log.Info("💵 暗标回合开始", "room", s.code, "round", s.sealedRoundNumber, "cheques", s.tableCheques)
}

// allSelectedLocked 所有手上还有牌的玩家都已出牌
func (s *Session) allSelectedLocked() bool {
	if len(s.selections) == 0 {
		return false
	}
	for _, p := range s.players {
		if _, ok := s.selections[p.ID]; !ok && len(p.properties) > 0 {
			return false
		}
	}
	return true
}

// revealLocked 同时亮牌，展示间隔后发放支票
func (s *Session) revealLocked() {
	s.revealed = true
	s.resolving = true
	log.Debug("👀 亮牌", "room", s.code, "round", s.sealedRoundNumber, "selections", len(s.selections))
	s.afterDelayLocked(func() {
		s.resolveSealedLocked()
		s.broadcastStateLocked()
	})
}

type sealedPick struct {
	player *Player
	card   int
}

// resolveSealedLocked 按出牌大小降序发放支票，同值按加入顺序
func (s *Session) resolveSealedLocked() {
	picks := make([]sealedPick, 0, len(s.selections))
	for _, p := range s.players {
		if card, ok := s.selections[p.ID]; ok {
			picks = append(picks, sealedPick{player: p, card: card})
		}
	}
	sort.SliceStable(picks, func(i, j int) bool {
		return picks[i].card > picks[j].card
	})

	for i, pk := range picks {
		if !pk.player.removeProperty(pk.card) {
			log.Error("❌ 出牌不在手牌中", "room", s.code, "player", pk.player.Nickname, "card", pk.card)
			continue
		}
		if i >= len(s.tableCheques) {
			log.Error("❌ 支票不足", "room", s.code, "round", s.sealedRoundNumber)
			continue
		}
		pk.player.addCheque(s.tableCheques[i])
		log.Debug("🧾 发放支票", "room", s.code, "player", pk.player.Nickname, "card", pk.card, "cheque", s.tableCheques[i])
	}
	if surplus := len(s.tableCheques) - len(picks); surplus > 0 {
		log.Info("🗑️ 多余支票作废", "room", s.code, "cheques", s.tableCheques[len(picks):])
	}

	s.tableCheques = nil
	clear(s.selections)
	s.revealed = false
	s.touchLocked()

	s.afterDelayLocked(func() {
		s.continueSealedLocked()
		s.broadcastStateLocked()
	})
}

func (s *Session) gameOverLocked() {
	s.phase = PhaseGameOver
	s.stopTurnTimerLocked()
	s.resolving = false
	s.revealed = false
	s.turnIndex = -1
	s.tableProperties = nil
	s.tableCheques = nil
	clear(s.selections)
	s.touchLocked()

	standings := s.standingsLocked()
	log.Info("🏁 游戏结束", "room", s.code, "rounds", s.roundNumber, "sealed_rounds", s.sealedRoundNumber)
	if s.opts.OnGameOver != nil {
		go s.opts.OnGameOver(s.code, standings)
	}
}
