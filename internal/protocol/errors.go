package protocol

// ErrorCode 机器可读的错误码
type ErrorCode string

// 动作级错误码（每个客户端请求失败时返回其中之一）
const (
	ErrCodeUnknown      ErrorCode = "UNKNOWN"
	ErrCodeInvalidData  ErrorCode = "INVALID_DATA"
	ErrCodeInvalidMsg   ErrorCode = "INVALID_MESSAGE"
	ErrCodeRateLimit    ErrorCode = "RATE_LIMITED"
	ErrCodeMaintenance  ErrorCode = "MAINTENANCE"
	ErrCodeCreateFailed ErrorCode = "CREATE_FAILED"
	ErrCodeJoinFailed   ErrorCode = "JOIN_FAILED"
	ErrCodeReadyFailed  ErrorCode = "READY_FAILED"
	ErrCodeStartFailed  ErrorCode = "START_FAILED"
	ErrCodeBidFailed    ErrorCode = "BID_FAILED"
	ErrCodePassFailed   ErrorCode = "PASS_FAILED"
	ErrCodePlayFailed   ErrorCode = "PLAY_FAILED"
	ErrCodeLeaveFailed  ErrorCode = "LEAVE_FAILED"
	ErrCodeChatFailed   ErrorCode = "CHAT_FAILED"
	ErrCodeQueryFailed  ErrorCode = "QUERY_FAILED"
)

// 规则错误原因
const (
	ErrCodeNotInRoom           ErrorCode = "NOT_IN_ROOM"
	ErrCodeRoomNotFound        ErrorCode = "ROOM_NOT_FOUND"
	ErrCodeRoomFull            ErrorCode = "ROOM_FULL"
	ErrCodeRoomClosed          ErrorCode = "ROOM_CLOSED"
	ErrCodeGameStarted         ErrorCode = "GAME_STARTED"
	ErrCodeWrongPhase          ErrorCode = "WRONG_PHASE"
	ErrCodeNotYourTurn         ErrorCode = "NOT_YOUR_TURN"
	ErrCodeAlreadyPassed       ErrorCode = "ALREADY_PASSED"
	ErrCodeBidTooLow           ErrorCode = "BID_TOO_LOW"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeNotHost             ErrorCode = "NOT_HOST"
	ErrCodeNotEnoughPlayers    ErrorCode = "NOT_ENOUGH_PLAYERS"
	ErrCodePlayersNotReady     ErrorCode = "PLAYERS_NOT_READY"
	ErrCodeCardNotHeld         ErrorCode = "CARD_NOT_HELD"
	ErrCodeAlreadySelected     ErrorCode = "ALREADY_SELECTED"
	ErrCodeRoundResolving      ErrorCode = "ROUND_RESOLVING"
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[ErrorCode]string{
	ErrCodeUnknown:      "未知错误",
	ErrCodeInvalidData:  "请求数据不完整",
	ErrCodeInvalidMsg:   "无效的消息格式",
	ErrCodeRateLimit:    "请求过于频繁",
	ErrCodeMaintenance:  "服务器维护中",
	ErrCodeCreateFailed: "创建房间失败",
	ErrCodeJoinFailed:   "无法加入房间",
	ErrCodeReadyFailed:  "准备失败",
	ErrCodeStartFailed:  "无法开始游戏：需要 3-6 名玩家且非房主玩家全部准备",
	ErrCodeBidFailed:    "出价失败",
	ErrCodePassFailed:   "放弃失败",
	ErrCodePlayFailed:   "出牌失败",
	ErrCodeLeaveFailed:  "离开房间失败",
	ErrCodeChatFailed:   "发送消息失败",
	ErrCodeQueryFailed:  "查询失败",

	ErrCodeNotInRoom:           "您不在房间中",
	ErrCodeRoomNotFound:        "房间不存在",
	ErrCodeRoomFull:            "房间已满",
	ErrCodeRoomClosed:          "房间已关闭",
	ErrCodeGameStarted:         "游戏已开始",
	ErrCodeWrongPhase:          "当前阶段不允许该操作",
	ErrCodeNotYourTurn:         "还没轮到您",
	ErrCodeAlreadyPassed:       "您本轮已放弃",
	ErrCodeBidTooLow:           "出价必须高于当前最高价",
	ErrCodeInsufficientBalance: "余额不足",
	ErrCodeNotHost:             "只有房主可以开始游戏",
	ErrCodeNotEnoughPlayers:    "玩家人数不足",
	ErrCodePlayersNotReady:     "还有玩家未准备",
	ErrCodeCardNotHeld:         "您没有这张地产牌",
	ErrCodeAlreadySelected:     "您本轮已经出过牌",
	ErrCodeRoundResolving:      "本轮正在结算",
}
