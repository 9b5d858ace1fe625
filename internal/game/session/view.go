package session

import (
	"sort"
	"time"

	"github.com/palemoky/for-sale/internal/apperrors"
	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
)

// View 为指定观察者生成状态快照。其他玩家的手牌、支票只给出数量，
// 暗标出牌在全员亮牌前只对本人可见
func (s *Session) View(viewerID string) *protocol.RoomStatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(viewerID)
}

func (s *Session) viewLocked(viewerID string) *protocol.RoomStatePayload {
	currentTurn := s.currentTurnLocked()

	state := &protocol.RoomStatePayload{
		RoomID:            s.code,
		GameState:         "playing",
		Phase:             s.phase.String(),
		Players:           make([]protocol.PlayerView, 0, len(s.players)),
		MyProperties:      []int{},
		MyCheques:         []int{},
		TableProperties:   append([]int{}, s.tableProperties...),
		TableCheques:      append([]int{}, s.tableCheques...),
		HighBid:           s.highBid,
		HighBidder:        s.highBidder,
		CurrentTurn:       currentTurn,
		RoundNumber:       s.roundNumber,
		SealedRoundNumber: s.sealedRoundNumber,
		AllSelected:       s.revealed,
	}
	if s.phase == PhaseLobby {
		state.GameState = "lobby"
	}
	if currentTurn != "" && !s.turnDeadline.IsZero() {
		state.TurnDeadline = s.turnDeadline.UnixMilli()
	}

	for i, p := range s.players {
		pv := protocol.PlayerView{
			ID:            p.ID,
			Nickname:      p.Nickname,
			IsReady:       p.Ready,
			IsHost:        i == 0,
			Balance:       p.Balance,
			PropertyCount: len(p.properties),
			ChequeCount:   len(p.cheques),
			ChequeTotal:   p.ChequeTotal(),
			CurrentBid:    p.CurrentBid,
			HasPassed:     p.HasPassed,
			IsCurrentTurn: p.ID == currentTurn,
		}
		if card, ok := s.selections[p.ID]; ok {
			pv.HasSelected = true
			if s.revealed || p.ID == viewerID {
				pv.SelectedProperty = &card
			}
		}
		state.Players = append(state.Players, pv)

		if p.ID == viewerID {
			state.MyProperties = append(state.MyProperties, p.properties...)
			state.MyCheques = append(state.MyCheques, p.cheques...)
		}
	}

	if s.phase == PhaseGameOver {
		state.Standings = s.standingsLocked()
	}
	return state
}

// standingsLocked 按总资产降序排名，同分按加入顺序
func (s *Session) standingsLocked() []protocol.StandingView {
	standings := make([]protocol.StandingView, 0, len(s.players))
	for _, p := range s.players {
		standings = append(standings, protocol.StandingView{
			PlayerID:    p.ID,
			Nickname:    p.Nickname,
			Balance:     p.Balance,
			ChequeTotal: p.ChequeTotal(),
			Total:       p.Total(),
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Total > standings[j].Total
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// broadcastStateLocked 给每个玩家单独推送自己的视图
func (s *Session) broadcastStateLocked() {
	if s.closed {
		return
	}
	for _, p := range s.players {
		p.client.SendMessage(codec.MustNewMessage(protocol.MsgRoomState, s.viewLocked(p.ID)))
	}
}

// BroadcastState 重新推送状态
func (s *Session) BroadcastState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastStateLocked()
}

// Chat 聊天消息原样转发给房间内所有玩家，不影响游戏状态
func (s *Session) Chat(playerID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[playerID]
	if !ok {
		return apperrors.ErrNotInRoom
	}
	if s.closed {
		return apperrors.ErrRoomClosed
	}

	msg := codec.MustNewMessage(protocol.MsgChat, protocol.ChatPayload{
		PlayerID:  p.ID,
		Nickname:  p.Nickname,
		Message:   text,
		Timestamp: s.opts.Clock.Now().UnixMilli(),
	})
	for _, member := range s.players {
		member.client.SendMessage(msg)
	}
	return nil
}

// Summary 房间概要，用于房间列表和 Redis 镜像
type Summary struct {
	Code        string    `json:"code"`
	Phase       string    `json:"phase"`
	HostName    string    `json:"host_name"`
	Players     []string  `json:"players"`
	PlayerCount int       `json:"player_count"`
	MaxPlayers  int       `json:"max_players"`
	Round       int       `json:"round"`
	SealedRound int       `json:"sealed_round"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Joinable 是否可以加入
func (sum Summary) Joinable() bool {
	return sum.Phase == PhaseLobby.String() && sum.PlayerCount < sum.MaxPlayers
}

// Summary 生成房间概要
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Code:        s.code,
		Phase:       s.phase.String(),
		Players:     make([]string, 0, len(s.players)),
		PlayerCount: len(s.players),
		MaxPlayers:  s.opts.MaxPlayers,
		Round:       s.roundNumber,
		SealedRound: s.sealedRoundNumber,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	for _, p := range s.players {
		sum.Players = append(sum.Players, p.Nickname)
	}
	if len(s.players) > 0 {
		sum.HostName = s.players[0].Nickname
	}
	return sum
}

func newDestroyedMessage(code, reason, message string) *protocol.Message {
	return codec.MustNewMessage(protocol.MsgRoomDestroyed, protocol.RoomDestroyedPayload{
		RoomID:  code,
		Reason:  reason,
		Message: message,
	})
}
