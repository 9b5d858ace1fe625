package apperrors

import (
	"errors"

	"github.com/palemoky/for-sale/internal/protocol"
)

// GameError 游戏错误（房间和会话共享）
type GameError struct {
	Code    protocol.ErrorCode
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// New 按错误码创建错误，消息取自 protocol.ErrorMessages
func New(code protocol.ErrorCode) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrNotInRoom           = New(protocol.ErrCodeNotInRoom)
	ErrRoomNotFound        = New(protocol.ErrCodeRoomNotFound)
	ErrRoomFull            = New(protocol.ErrCodeRoomFull)
	ErrRoomClosed          = New(protocol.ErrCodeRoomClosed)
	ErrGameStarted         = New(protocol.ErrCodeGameStarted)
	ErrWrongPhase          = New(protocol.ErrCodeWrongPhase)
	ErrNotYourTurn         = New(protocol.ErrCodeNotYourTurn)
	ErrAlreadyPassed       = New(protocol.ErrCodeAlreadyPassed)
	ErrBidTooLow           = New(protocol.ErrCodeBidTooLow)
	ErrInsufficientBalance = New(protocol.ErrCodeInsufficientBalance)
	ErrNotHost             = New(protocol.ErrCodeNotHost)
	ErrNotEnoughPlayers    = New(protocol.ErrCodeNotEnoughPlayers)
	ErrPlayersNotReady     = New(protocol.ErrCodePlayersNotReady)
	ErrCardNotHeld         = New(protocol.ErrCodeCardNotHeld)
	ErrAlreadySelected     = New(protocol.ErrCodeAlreadySelected)
	ErrRoundResolving      = New(protocol.ErrCodeRoundResolving)
	ErrInvalidData         = New(protocol.ErrCodeInvalidData)
)

// CodeOf 返回 err 链上第一个 GameError 的错误码，没有则为 UNKNOWN
func CodeOf(err error) protocol.ErrorCode {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return protocol.ErrCodeUnknown
}
