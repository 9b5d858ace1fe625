package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/palemoky/for-sale/internal/apperrors"
	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
	"github.com/palemoky/for-sale/internal/types"
)

// maxNicknameLen 昵称最大字符数，超出部分截断
const maxNicknameLen = 16

// normalizeNickname 去除首尾空白并截断过长昵称
func normalizeNickname(nickname string) string {
	nickname = strings.TrimSpace(nickname)
	if utf8.RuneCountInString(nickname) > maxNicknameLen {
		nickname = string([]rune(nickname)[:maxNicknameLen])
	}
	return nickname
}

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client types.ClientInterface, msg *protocol.Message) {
	// 维护模式检查
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessageWithText(
			protocol.ErrCodeMaintenance, "服务器维护中，暂停创建房间"))
		return
	}

	payload, err := codec.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		sendInvalidData(client, "无效的创建房间请求")
		return
	}
	nickname := normalizeNickname(payload.Nickname)
	if nickname == "" {
		sendInvalidData(client, "请输入昵称")
		return
	}

	code, err := h.rooms.CreateRoom(client, nickname)
	if err != nil {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodeCreateFailed, err))
		return
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomCreated, protocol.RoomCreatedPayload{
		RoomID: code,
	}))
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client types.ClientInterface, msg *protocol.Message) {
	if h.server.IsMaintenanceMode() {
		client.SendMessage(codec.NewErrorMessageWithText(
			protocol.ErrCodeMaintenance, "服务器维护中，暂停加入房间"))
		return
	}

	payload, err := codec.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		sendInvalidData(client, "无效的加入房间请求")
		return
	}
	roomID := strings.ToUpper(strings.TrimSpace(payload.RoomID))
	if roomID == "" {
		sendInvalidData(client, "请输入房间号")
		return
	}
	nickname := normalizeNickname(payload.Nickname)
	if nickname == "" {
		sendInvalidData(client, "请输入昵称")
		return
	}

	if err := h.rooms.JoinRoom(client, roomID, nickname); err != nil {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodeJoinFailed, err))
		return
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomJoined, protocol.RoomJoinedPayload{
		RoomID: roomID,
	}))
}

// handleLeaveRoom 处理离开房间
func (h *Handler) handleLeaveRoom(client types.ClientInterface) {
	code, ok := h.rooms.Leave(client)
	if !ok {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodeLeaveFailed, apperrors.ErrNotInRoom))
		return
	}

	client.SendMessage(codec.MustNewMessage(protocol.MsgRoomLeft, protocol.RoomLeftPayload{
		RoomID: code,
	}))
}

// handleSetReady 处理准备/取消准备
func (h *Handler) handleSetReady(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.SetReadyPayload](msg)
	if err != nil || payload.Ready == nil {
		sendInvalidData(client, "无效的准备请求")
		return
	}

	if _, err := h.rooms.SetReady(client, *payload.Ready); err != nil {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodeReadyFailed, err))
	}
}

// handleStartGame 处理房主开始游戏
func (h *Handler) handleStartGame(client types.ClientInterface) {
	if err := h.rooms.StartGame(client); err != nil {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodeStartFailed, err))
	}
}
