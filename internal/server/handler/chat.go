package handler

import (
	"strings"
	"unicode/utf8"

	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
	"github.com/palemoky/for-sale/internal/types"
)

// maxChatLen 单条聊天消息最大字符数
const maxChatLen = 200

// handleChat 处理房间聊天，原样转发给房间内所有玩家
func (h *Handler) handleChat(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.ChatPayload](msg)
	if err != nil {
		sendInvalidData(client, "无效的聊天消息")
		return
	}
	text := strings.TrimSpace(payload.Message)
	if text == "" {
		sendInvalidData(client, "消息不能为空")
		return
	}
	if utf8.RuneCountInString(text) > maxChatLen {
		sendInvalidData(client, "消息过长")
		return
	}

	// 聊天限流检查
	if h.chatLimiter != nil {
		allowed, reason := h.chatLimiter.AllowChat(client.GetID())
		if !allowed {
			client.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, reason))
			return
		}
	}

	if err := h.rooms.Chat(client, text); err != nil {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodeChatFailed, err))
	}
}
