//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
)

// SimpleClient 记录收到消息的客户端，不使用 testify（计时器回调会并发写入，内部加锁）
type SimpleClient struct {
	ID string

	mu       sync.Mutex
	roomCode string
	messages []*protocol.Message
	closed   bool
}

// NewSimpleClient 创建记录客户端
func NewSimpleClient(id string) *SimpleClient {
	return &SimpleClient{ID: id}
}

func (m *SimpleClient) GetID() string { return m.ID }

func (m *SimpleClient) GetRoom() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roomCode
}

func (m *SimpleClient) SetRoom(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomCode = code
}

func (m *SimpleClient) SendMessage(msg *protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *SimpleClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// IsClosed 是否被关闭
func (m *SimpleClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Messages 返回已收到消息的副本
func (m *SimpleClient) Messages() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*protocol.Message(nil), m.messages...)
}

// MessagesOfType 返回指定类型的消息
func (m *SimpleClient) MessagesOfType(t protocol.MessageType) []*protocol.Message {
	var out []*protocol.Message
	for _, msg := range m.Messages() {
		if msg.Type == t {
			out = append(out, msg)
		}
	}
	return out
}

// LastOfType 返回指定类型的最后一条消息，没有时返回 nil
func (m *SimpleClient) LastOfType(t protocol.MessageType) *protocol.Message {
	msgs := m.MessagesOfType(t)
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

// LastState 解析最后一条 room_state，没有时返回 nil
func (m *SimpleClient) LastState() *protocol.RoomStatePayload {
	msg := m.LastOfType(protocol.MsgRoomState)
	if msg == nil {
		return nil
	}
	state, err := codec.ParsePayload[protocol.RoomStatePayload](msg)
	if err != nil {
		return nil
	}
	return state
}

// LastError 解析最后一条错误消息，没有时返回 nil
func (m *SimpleClient) LastError() *protocol.ErrorPayload {
	msg := m.LastOfType(protocol.MsgError)
	if msg == nil {
		return nil
	}
	p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	if err != nil {
		return nil
	}
	return p
}

// Reset 清空已收到的消息
func (m *SimpleClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
}
