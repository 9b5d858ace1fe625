package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
	"github.com/palemoky/for-sale/internal/server/storage"
	"github.com/palemoky/for-sale/internal/testutil"
)

func TestHandleChat_BroadcastsToRoom(t *testing.T) {
	limiter := new(testutil.MockChatLimiter)
	limiter.On("AllowChat", "p2").Return(true, "")
	env := newTestEnv(t, storage.NopStore{}, limiter)
	clients := newClients("p", 3)
	createAndJoin(t, env, clients)
	outsider := testutil.NewSimpleClient("x1")

	send(env, clients[1], protocol.MsgChat, protocol.ChatPayload{Message: " 出价吧 "})

	for _, c := range clients {
		msg := c.LastOfType(protocol.MsgChat)
		require.NotNil(t, msg, "client %s should receive chat", c.ID)
		p, err := codec.ParsePayload[protocol.ChatPayload](msg)
		require.NoError(t, err)
		assert.Equal(t, "p2", p.PlayerID)
		assert.Equal(t, "guest1", p.Nickname)
		assert.Equal(t, "出价吧", p.Message)
		assert.Equal(t, env.clock.Now().UnixMilli(), p.Timestamp)
	}
	assert.Empty(t, outsider.Messages())
	limiter.AssertExpectations(t)
}

func TestHandleChat_RateLimited(t *testing.T) {
	limiter := new(testutil.MockChatLimiter)
	limiter.On("AllowChat", "p1").Return(false, "Too fast")
	env := newTestEnv(t, storage.NopStore{}, limiter)
	clients := newClients("p", 2)
	createAndJoin(t, env, clients)

	send(env, clients[0], protocol.MsgChat, protocol.ChatPayload{Message: "spam"})

	errPayload := clients[0].LastError()
	require.NotNil(t, errPayload)
	assert.Equal(t, protocol.ErrCodeRateLimit, errPayload.Code)
	assert.Equal(t, "Too fast", errPayload.Message)
	assert.Nil(t, clients[1].LastOfType(protocol.MsgChat))
	limiter.AssertExpectations(t)
}

func TestHandleChat_InvalidMessage(t *testing.T) {
	limiter := new(testutil.MockChatLimiter)
	env := newTestEnv(t, storage.NopStore{}, limiter)
	c := testutil.NewSimpleClient("p1")

	send(env, c, protocol.MsgChat, protocol.ChatPayload{Message: "   "})
	send(env, c, protocol.MsgChat, protocol.ChatPayload{Message: strings.Repeat("a", maxChatLen+1)})

	errs := c.MessagesOfType(protocol.MsgError)
	require.Len(t, errs, 2)
	for _, msg := range errs {
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		require.NoError(t, err)
		assert.Equal(t, protocol.ErrCodeInvalidData, p.Code)
	}
	limiter.AssertNotCalled(t, "AllowChat", "p1")
}

func TestHandleChat_NotInRoom(t *testing.T) {
	env := newTestEnv(t, storage.NopStore{}, nil)
	c := testutil.NewSimpleClient("p1")

	send(env, c, protocol.MsgChat, protocol.ChatPayload{Message: "hello"})

	errPayload := c.LastError()
	require.NotNil(t, errPayload)
	assert.Equal(t, protocol.ErrCodeChatFailed, errPayload.Code)
	assert.Equal(t, protocol.ErrCodeNotInRoom, errPayload.Reason)
}
