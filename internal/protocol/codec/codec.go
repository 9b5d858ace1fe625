package codec

import (
	"encoding/json"
	"errors"

	"github.com/palemoky/for-sale/internal/apperrors"
	"github.com/palemoky/for-sale/internal/protocol"
)

// NewMessage 创建一个新消息
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	var data json.RawMessage
	if payload != nil {
		buf := GetBuffer()
		defer PutBuffer(buf)
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return nil, err
		}
		// Encoder 末尾带换行，去掉后拷贝出来，buf 会被复用
		raw := buf.Bytes()
		if n := len(raw); n > 0 && raw[n-1] == '\n' {
			raw = raw[:n-1]
		}
		data = append(json.RawMessage(nil), raw...)
	}
	return &protocol.Message{
		Type:    msgType,
		Payload: data,
	}, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 将消息编码为 JSON 字节
func Encode(msg *protocol.Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode 从 JSON 字节解码消息，返回的消息来自对象池，处理完后可用 PutMessage 归还
func Decode(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, errors.New("missing message type")
	}
	return msg, nil
}

// ParsePayload 解析消息的 Payload 到指定类型，空 Payload 得到零值
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 || string(msg.Payload) == "null" {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code protocol.ErrorCode) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: protocol.ErrorMessages[code],
	})
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code protocol.ErrorCode, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
}

// NewGameErrorMessage 把动作失败包装成错误消息：Code 为动作码，Reason 为规则原因
func NewGameErrorMessage(action protocol.ErrorCode, err error) *protocol.Message {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
			Code:    action,
			Reason:  gameErr.Code,
			Message: gameErr.Message,
		})
	}
	return NewErrorMessage(action)
}
