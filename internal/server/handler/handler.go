package handler

import (
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/palemoky/for-sale/internal/game/room"
	"github.com/palemoky/for-sale/internal/logger"
	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
	"github.com/palemoky/for-sale/internal/server/storage"
	"github.com/palemoky/for-sale/internal/types"
)

// HandlerDeps 处理器依赖
type HandlerDeps struct {
	Server      types.ServerInterface
	Rooms       *room.Manager
	ChatLimiter types.ChatLimiter
	Store       storage.Store
	Clock       quartz.Clock
}

// Handler 消息处理器
type Handler struct {
	server      types.ServerInterface
	rooms       *room.Manager
	chatLimiter types.ChatLimiter
	store       storage.Store
	clock       quartz.Clock
	handlers    map[protocol.MessageType]handlerFunc
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(client types.ClientInterface, msg *protocol.Message)

// NewHandler 创建处理器
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		server:      deps.Server,
		rooms:       deps.Rooms,
		chatLimiter: deps.ChatLimiter,
		store:       deps.Store,
		clock:       deps.Clock,
	}
	if h.store == nil {
		h.store = storage.NopStore{}
	}
	if h.clock == nil {
		h.clock = quartz.NewReal()
	}
	h.initHandlers()
	return h
}

// initHandlers 初始化消息处理器映射
func (h *Handler) initHandlers() {
	h.handlers = map[protocol.MessageType]handlerFunc{
		// 连接操作
		protocol.MsgPing: h.handlePing,

		// 房间操作
		protocol.MsgCreateRoom: h.handleCreateRoom,
		protocol.MsgJoinRoom:   h.handleJoinRoom,
		protocol.MsgLeaveRoom:  func(c types.ClientInterface, _ *protocol.Message) { h.handleLeaveRoom(c) },
		protocol.MsgSetReady:   h.handleSetReady,
		protocol.MsgStartGame:  func(c types.ClientInterface, _ *protocol.Message) { h.handleStartGame(c) },

		// 游戏操作
		protocol.MsgPlaceBid: h.handlePlaceBid,
		protocol.MsgPassTurn: func(c types.ClientInterface, _ *protocol.Message) { h.handlePass(c) },
		protocol.MsgPlayCard: h.handlePlayCard,

		// 信息查询
		protocol.MsgGetRoomList:    func(c types.ClientInterface, _ *protocol.Message) { h.handleGetRoomList(c) },
		protocol.MsgGetLeaderboard: h.handleGetLeaderboard,
		protocol.MsgGetOnlineCount: func(c types.ClientInterface, _ *protocol.Message) { h.handleGetOnlineCount(c) },

		protocol.MsgChat: h.handleChat,
	}
}

// Handle 处理消息。处理器内的 panic 被转换为 UNKNOWN 错误，只影响当前请求
func (h *Handler) Handle(client types.ClientInterface, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Panic(r)
			client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeUnknown))
		}
	}()

	if handler, ok := h.handlers[msg.Type]; ok {
		handler(client, msg)
		return
	}

	log.Warn("⚠️ 未知消息类型", "type", msg.Type, "player", client.GetID(), "payload_bytes", len(msg.Payload))
	client.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
}

// sendInvalidData 请求数据缺失或格式错误
func sendInvalidData(client types.ClientInterface, text string) {
	client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeInvalidData, text))
}
