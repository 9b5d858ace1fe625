package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	Nickname string `json:"nickname"`
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID   string `json:"room_id"`
	Nickname string `json:"nickname"`
}

// SetReadyPayload 准备请求，ready 为必填
type SetReadyPayload struct {
	Ready *bool `json:"ready"`
}

// PlaceBidPayload 出价请求
type PlaceBidPayload struct {
	Amount *int `json:"amount"`
}

// PlayCardPayload 暗标出牌请求
type PlayCardPayload struct {
	CardID *int `json:"card_id"`
}

// ChatPayload 聊天消息（请求与广播共用）
type ChatPayload struct {
	PlayerID  string `json:"player_id,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp,omitempty"` // 服务器时间戳（毫秒）
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Limit int `json:"limit"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID string `json:"player_id"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// RoomCreatedPayload 房间创建成功
type RoomCreatedPayload struct {
	RoomID string `json:"room_id"`
}

// RoomJoinedPayload 加入房间成功
type RoomJoinedPayload struct {
	RoomID string `json:"room_id"`
}

// RoomLeftPayload 已离开房间
type RoomLeftPayload struct {
	RoomID string `json:"room_id"`
}

// RoomDestroyedPayload 房间解散通知
type RoomDestroyedPayload struct {
	RoomID  string `json:"room_id"`
	Reason  string `json:"reason"` // host_left / empty / timeout / shutdown
	Message string `json:"message"`
}

// PlayerView 快照中的单个玩家（公开字段 + 条件可见字段）
type PlayerView struct {
	ID               string `json:"id"`
	Nickname         string `json:"nickname"`
	IsReady          bool   `json:"is_ready"`
	IsHost           bool   `json:"is_host"`
	Balance          int    `json:"balance"`
	PropertyCount    int    `json:"property_count"`
	ChequeCount      int    `json:"cheque_count"`
	ChequeTotal      int    `json:"cheque_total"`
	CurrentBid       int    `json:"current_bid"`
	HasPassed        bool   `json:"has_passed"`
	IsCurrentTurn    bool   `json:"is_current_turn"`
	HasSelected      bool   `json:"has_selected"`
	SelectedProperty *int   `json:"selected_property,omitempty"` // 全员出牌前只对本人可见
}

// StandingView 游戏结束时的最终排名
type StandingView struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	Nickname    string `json:"nickname"`
	Balance     int    `json:"balance"`
	ChequeTotal int    `json:"cheque_total"`
	Total       int    `json:"total"`
}

// RoomStatePayload 房间状态快照，每个观察者单独生成
type RoomStatePayload struct {
	RoomID            string         `json:"room_id"`
	GameState         string         `json:"game_state"` // lobby / playing
	Phase             string         `json:"phase"`      // lobby / auction / sealed_bid / game_over
	Players           []PlayerView   `json:"players"`
	MyProperties      []int          `json:"my_properties"`
	MyCheques         []int          `json:"my_cheques"`
	TableProperties   []int          `json:"table_properties"`
	TableCheques      []int          `json:"table_cheques"`
	HighBid           int            `json:"high_bid"`
	HighBidder        string         `json:"high_bidder,omitempty"`
	CurrentTurn       string         `json:"current_turn,omitempty"`
	TurnDeadline      int64          `json:"turn_deadline,omitempty"` // 毫秒时间戳
	RoundNumber       int            `json:"round_number"`
	SealedRoundNumber int            `json:"sealed_round_number"`
	AllSelected       bool           `json:"all_selected"`
	Standings         []StandingView `json:"standings,omitempty"`
}

// RoomListItem 房间列表项
type RoomListItem struct {
	RoomID      string `json:"room_id"`
	HostName    string `json:"host_name"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

// RoomListResultPayload 房间列表结果
type RoomListResultPayload struct {
	Rooms []RoomListItem `json:"rooms"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Nickname string `json:"nickname"`
	Total    int    `json:"total"` // 累计总资产
	Games    int    `json:"games"`
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// OnlineCountPayload 在线人数
type OnlineCountPayload struct {
	Count int `json:"count"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Reason  ErrorCode `json:"reason,omitempty"`
	Message string    `json:"message"`
}
