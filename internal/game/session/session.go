package session

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/palemoky/for-sale/internal/apperrors"
	"github.com/palemoky/for-sale/internal/game/deck"
	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/types"
)

// Phase 游戏阶段
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseAuction
	PhaseSealedBid
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAuction:
		return "auction"
	case PhaseSealedBid:
		return "sealed_bid"
	case PhaseGameOver:
		return "game_over"
	default:
		return "lobby"
	}
}

// 默认规则参数
const (
	DefaultTurnTimeout     = 30 * time.Second
	DefaultRoundDelay      = 2 * time.Second
	DefaultStartingBalance = 18000
	DefaultMinPlayers      = 3
	DefaultMaxPlayers      = 6
)

// GameOverFunc 游戏结束回调（在独立 goroutine 中调用）
type GameOverFunc func(code string, standings []protocol.StandingView)

// Options 会话参数，零值字段使用默认值
type Options struct {
	Clock           quartz.Clock
	Rand            *rand.Rand
	TurnTimeout     time.Duration
	RoundDelay      time.Duration // 0 表示不延迟，立即进入下一步
	StartingBalance int
	MinPlayers      int
	MaxPlayers      int
	OnGameOver      GameOverFunc
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = quartz.NewReal()
	}
	if o.TurnTimeout <= 0 {
		o.TurnTimeout = DefaultTurnTimeout
	}
	if o.RoundDelay < 0 {
		o.RoundDelay = 0
	}
	if o.StartingBalance <= 0 {
		o.StartingBalance = DefaultStartingBalance
	}
	if o.MinPlayers <= 0 {
		o.MinPlayers = DefaultMinPlayers
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = DefaultMaxPlayers
	}
	return o
}

// Session 一个房间的完整游戏状态，所有字段由 mu 保护
type Session struct {
	code string
	opts Options

	mu      sync.Mutex
	phase   Phase
	players []*Player // 加入顺序，players[0] 为房主
	byID    map[string]*Player

	propertyDeck deck.Deck
	chequeDeck   deck.Deck

	tableProperties []int // 升序
	tableCheques    []int // 降序

	// 竞拍阶段
	highBid         int
	highBidder      string
	turnOrder       []string
	turnIndex       int
	roundNumber     int
	lastRoundWinner string

	// 暗标阶段
	sealedRoundNumber int
	selections        map[string]int
	revealed          bool

	// 回合结算中（展示间隔），拒绝玩家操作
	resolving bool

	// 计时器，gen 用于识别过期的回调
	turnTimer    *quartz.Timer
	turnDeadline time.Time
	turnGen      uint64
	delayTimer   *quartz.Timer
	stageGen     uint64

	closed    bool
	createdAt time.Time
	updatedAt time.Time
}

// New 创建处于大厅阶段的会话，两副牌在此时洗好
func New(code string, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		code:         code,
		opts:         opts,
		phase:        PhaseLobby,
		byID:         make(map[string]*Player),
		propertyDeck: deck.NewPropertyDeck(),
		chequeDeck:   deck.NewChequeDeck(),
		selections:   make(map[string]int),
		turnIndex:    -1,
	}
	s.propertyDeck.Shuffle(opts.Rand)
	s.chequeDeck.Shuffle(opts.Rand)
	s.createdAt = opts.Clock.Now()
	s.updatedAt = s.createdAt
	return s
}

// Code 房间号
func (s *Session) Code() string {
	return s.code
}

// Phase 当前阶段
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// HostID 房主 ID，房间为空时返回空串
func (s *Session) HostID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.players) == 0 {
		return ""
	}
	return s.players[0].ID
}

// PlayerCount 当前玩家数
func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

// Player 返回玩家快照（副本），不存在时返回 nil
func (s *Session) Player(id string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	if !ok {
		return nil
	}
	cp := *p
	cp.properties = slices.Clone(p.properties)
	cp.cheques = slices.Clone(p.cheques)
	cp.client = nil
	return &cp
}

// IdleSince 最后一次状态变化的时间
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touchLocked() {
	s.updatedAt = s.opts.Clock.Now()
}

// AddPlayer 玩家加入大厅
func (s *Session) AddPlayer(client types.ClientInterface, nickname string) error {
	return s.AddPlayerAfter(client, nickname, nil)
}

// AddPlayerAfter 校验通过后先执行 before 再加入，校验失败时 before 不会执行。
// 用于切换房间：确认能加入新房间后才离开旧房间
func (s *Session) AddPlayerAfter(client types.ClientInterface, nickname string, before func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrRoomClosed
	}
	if s.phase != PhaseLobby {
		return apperrors.ErrGameStarted
	}
	if len(s.players) >= s.opts.MaxPlayers {
		return apperrors.ErrRoomFull
	}
	if _, exists := s.byID[client.GetID()]; exists {
		return nil
	}
	if before != nil {
		before()
	}

	p := newPlayer(client, nickname, s.opts.StartingBalance)
	s.players = append(s.players, p)
	s.byID[p.ID] = p
	s.touchLocked()

	log.Info("👤 玩家加入房间", "room", s.code, "player", nickname, "count", len(s.players))
	s.broadcastStateLocked()
	return nil
}

// SetReady 设置准备状态
func (s *Session) SetReady(playerID string, ready bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrRoomClosed
	}
	p, ok := s.byID[playerID]
	if !ok {
		return apperrors.ErrNotInRoom
	}
	if s.phase != PhaseLobby {
		return apperrors.ErrGameStarted
	}
	p.Ready = ready
	s.touchLocked()
	s.broadcastStateLocked()
	return nil
}

// Start 房主开始游戏：非房主玩家全部准备，人数在 [Min, Max] 之间
func (s *Session) Start(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return apperrors.ErrRoomClosed
	}
	if _, ok := s.byID[playerID]; !ok {
		return apperrors.ErrNotInRoom
	}
	if s.phase != PhaseLobby {
		return apperrors.ErrGameStarted
	}
	if s.players[0].ID != playerID {
		return apperrors.ErrNotHost
	}
	if n := len(s.players); n < s.opts.MinPlayers || n > s.opts.MaxPlayers {
		return apperrors.ErrNotEnoughPlayers
	}
	for _, p := range s.players[1:] {
		if !p.Ready {
			return apperrors.ErrPlayersNotReady
		}
	}

	// 行动顺序在第一轮竞拍前随机确定，之后只轮转不重洗
	s.turnOrder = make([]string, len(s.players))
	for i, p := range s.players {
		s.turnOrder[i] = p.ID
	}
	s.shuffle(len(s.turnOrder), func(i, j int) {
		s.turnOrder[i], s.turnOrder[j] = s.turnOrder[j], s.turnOrder[i]
	})

	s.phase = PhaseAuction
	log.Info("🎮 游戏开始", "room", s.code, "players", len(s.players))
	s.startAuctionRoundLocked()
	s.broadcastStateLocked()
	return nil
}

func (s *Session) shuffle(n int, swap func(i, j int)) {
	if s.opts.Rand != nil {
		s.opts.Rand.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

// Close 解散房间：停止所有计时器，向除 exceptID 外的玩家发送解散通知，
// 返回仍在房间内的玩家客户端。之后该会话不再广播任何状态
func (s *Session) Close(exceptID, reason, message string) []types.ClientInterface {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.stopTurnTimerLocked()
	s.stopDelayLocked()

	msg := newDestroyedMessage(s.code, reason, message)
	clients := make([]types.ClientInterface, 0, len(s.players))
	for _, p := range s.players {
		if p.ID == exceptID {
			continue
		}
		p.client.SendMessage(msg)
		clients = append(clients, p.client)
	}
	log.Info("🏠 房间已解散", "room", s.code, "reason", reason)
	return clients
}

// Closed 是否已解散
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
