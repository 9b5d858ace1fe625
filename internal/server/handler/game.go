package handler

import (
	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
	"github.com/palemoky/for-sale/internal/types"
)

// handlePlaceBid 处理竞拍出价
func (h *Handler) handlePlaceBid(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PlaceBidPayload](msg)
	if err != nil || payload.Amount == nil {
		sendInvalidData(client, "缺少出价金额")
		return
	}

	if err := h.rooms.PlaceBid(client, *payload.Amount); err != nil {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodeBidFailed, err))
	}
}

// handlePass 处理放弃竞拍
func (h *Handler) handlePass(client types.ClientInterface) {
	if err := h.rooms.Pass(client); err != nil {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodePassFailed, err))
	}
}

// handlePlayCard 处理暗标出牌
func (h *Handler) handlePlayCard(client types.ClientInterface, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil || payload.CardID == nil {
		sendInvalidData(client, "缺少地产牌编号")
		return
	}

	if err := h.rooms.PlayCard(client, *payload.CardID); err != nil {
		client.SendMessage(codec.NewGameErrorMessage(protocol.ErrCodePlayFailed, err))
	}
}
