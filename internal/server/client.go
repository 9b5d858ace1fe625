package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 发送缓冲区大小
	sendBufferSize = 256

	// 超速警告次数上限，超过后断开
	maxRateWarnings = 5
)

// Client 代表一个连接的玩家
type Client struct {
	ID string // 玩家唯一 ID
	IP string // 客户端 IP 地址

	server *Server
	conn   *websocket.Conn
	format codec.Format // 按子协议协商的编码格式
	send   chan []byte

	mu       sync.RWMutex
	roomCode string
	closed   bool
}

// NewClient 创建新客户端
func NewClient(s *Server, conn *websocket.Conn, ip string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		IP:     ip,
		server: s,
		conn:   conn,
		format: codec.FormatForSubprotocol(conn.Subprotocol()),
		send:   make(chan []byte, sendBufferSize),
	}
}

// ReadPump 从 WebSocket 读取消息，返回即视为断线
func (c *Client) ReadPump() {
	defer func() {
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("读取错误", "player", c.ID, "err", err)
			}
			return
		}

		// 消息速率限制检查
		allowed, warning := c.server.messageLimiter.AllowMessage(c.ID)
		if !allowed {
			log.Warn("⚠️ 客户端消息过于频繁", "player", c.ID, "ip", c.IP)
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
			if c.server.messageLimiter.GetWarningCount(c.ID) > maxRateWarnings {
				log.Warn("🚫 客户端因多次超速被断开", "player", c.ID, "ip", c.IP)
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "请求过于频繁，请放慢速度"))
		}

		msg, err := c.format.Unmarshal(data)
		if err != nil {
			log.Debug("消息解析错误", "player", c.ID, "err", err)
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}

		c.server.handler.Handle(c, msg)
		codec.PutMessage(msg)
	}
}

// WritePump 向 WebSocket 写入消息并定期发送 ping
func (c *Client) WritePump() {
	ticker := c.server.clock.NewTicker(pingPeriod, "client", "ping")
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.format == codec.FormatBinary {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frameType, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 发送消息给客户端，不阻塞；缓冲区满时关闭连接
func (c *Client) SendMessage(msg *protocol.Message) {
	data, err := c.format.Marshal(msg)
	if err != nil {
		log.Error("消息编码错误", "type", msg.Type, "err", err)
		return
	}
	c.enqueue(data)
}

// enqueue 投递已编码的帧，连接已关闭或缓冲区满时返回 false
func (c *Client) enqueue(data []byte) bool {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return false
	}
	select {
	case c.send <- data:
		c.mu.RUnlock()
		return true
	default:
	}
	c.mu.RUnlock()

	log.Warn("客户端发送缓冲区已满", "player", c.ID)
	c.Close()
	return false
}

// handleDisconnect 处理断开连接：与主动离开房间走同一路径
func (c *Client) handleDisconnect() {
	if code, ok := c.server.rooms.Leave(c); ok {
		log.Info("🔌 玩家断线离开房间", "player", c.ID, "room", code)
	}

	c.server.messageLimiter.RemoveClient(c.ID)
	c.server.chatLimiter.RemoveClient(c.ID)
	c.server.unregisterClient(c)
	c.Close()
	c.server.releaseSlot()
}

// Close 关闭发送通道，WritePump 随后关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// GetID 获取玩家 ID
func (c *Client) GetID() string {
	return c.ID
}

// SetRoom 设置客户端所在房间
func (c *Client) SetRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// GetRoom 获取客户端所在房间
func (c *Client) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomCode
}
