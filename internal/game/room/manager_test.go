package room

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/for-sale/internal/apperrors"
	"github.com/palemoky/for-sale/internal/game/session"
	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/protocol/codec"
	"github.com/palemoky/for-sale/internal/server/storage"
	"github.com/palemoky/for-sale/internal/testutil"
)

func newTestManager(t *testing.T, store storage.Store) (*Manager, *quartz.Mock) {
	t.Helper()
	clk := quartz.NewMock(t)
	m := NewManager(store, Options{
		Session: session.Options{
			Clock: clk,
			Rand:  rand.New(rand.NewPCG(1, 2)),
		},
		RoomTimeout:     10 * time.Minute,
		CleanupInterval: time.Minute,
	})
	return m, clk
}

func newClients(prefix string, n int) []*testutil.SimpleClient {
	clients := make([]*testutil.SimpleClient, n)
	for i := range clients {
		clients[i] = testutil.NewSimpleClient(fmt.Sprintf("%s%d", prefix, i+1))
	}
	return clients
}

// fillRoom 第一个客户端建房，其余加入
func fillRoom(t *testing.T, m *Manager, clients []*testutil.SimpleClient) string {
	t.Helper()
	code, err := m.CreateRoom(clients[0], "nick-"+clients[0].ID)
	require.NoError(t, err)
	for _, c := range clients[1:] {
		require.NoError(t, m.JoinRoom(c, code, "nick-"+c.ID))
	}
	return code
}

func startRoom(t *testing.T, m *Manager, clients []*testutil.SimpleClient) string {
	t.Helper()
	code := fillRoom(t, m, clients)
	for _, c := range clients[1:] {
		_, err := m.SetReady(c, true)
		require.NoError(t, err)
	}
	require.NoError(t, m.StartGame(clients[0]))
	return code
}

func TestCreateRoom(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	c := testutil.NewSimpleClient("p1")

	code, err := m.CreateRoom(c, "alice")
	require.NoError(t, err)

	assert.Len(t, code, roomCodeLength)
	for _, ch := range code {
		assert.True(t, strings.ContainsRune(roomCodeChars, ch), "unexpected char %q", ch)
	}
	assert.Equal(t, code, c.GetRoom())
	assert.Equal(t, code, m.RoomOf("p1"))
	assert.Equal(t, "p1", m.GetRoom(code).HostID())

	state := c.LastState()
	require.NotNil(t, state)
	assert.Equal(t, "lobby", state.GameState)
	assert.True(t, state.Players[0].IsHost)
}

func TestCreateRoom_RegeneratesOnCollision(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	codes := []string{"AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB"}
	m.newCode = func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	}

	first, err := m.CreateRoom(testutil.NewSimpleClient("p1"), "a")
	require.NoError(t, err)
	second, err := m.CreateRoom(testutil.NewSimpleClient("p2"), "b")
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first)
	assert.Equal(t, "BBBBBB", second)
	assert.Equal(t, 2, m.RoomCount())
}

func TestCreateRoom_LeavesPreviousRoom(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	clients := newClients("p", 2)
	old := fillRoom(t, m, clients)

	code, err := m.CreateRoom(clients[0], "again")
	require.NoError(t, err)

	assert.NotEqual(t, old, code)
	assert.Nil(t, m.GetRoom(old), "host left the old room")
	assert.Equal(t, 1, m.RoomCount())
	assert.Empty(t, clients[1].GetRoom())
	require.NotNil(t, clients[1].LastOfType(protocol.MsgRoomDestroyed))
}

func TestJoinRoom_Errors(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	clients := newClients("p", 7)
	code := fillRoom(t, m, clients[:6])

	assert.ErrorIs(t, m.JoinRoom(clients[6], "NOPE00", "x"), apperrors.ErrRoomNotFound)
	assert.ErrorIs(t, m.JoinRoom(clients[6], code, "x"), apperrors.ErrRoomFull)
	assert.Empty(t, clients[6].GetRoom())

	started := startRoom(t, m, newClients("q", 3))
	late := testutil.NewSimpleClient("late")
	assert.ErrorIs(t, m.JoinRoom(late, started, "late"), apperrors.ErrGameStarted)
	assert.Empty(t, m.RoomOf("late"))
}

func TestJoinRoom_CodeNormalizedAndIdempotent(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	clients := newClients("p", 2)
	code, err := m.CreateRoom(clients[0], "host")
	require.NoError(t, err)

	require.NoError(t, m.JoinRoom(clients[1], " "+strings.ToLower(code)+" ", "guest"))
	require.NoError(t, m.JoinRoom(clients[1], code, "guest"))
	assert.Equal(t, 2, m.GetRoom(code).PlayerCount())
}

func TestJoinRoom_SwitchesRooms(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	a := fillRoom(t, m, newClients("p", 3))
	hostB := testutil.NewSimpleClient("hb")
	b, err := m.CreateRoom(hostB, "hb")
	require.NoError(t, err)

	mover := testutil.NewSimpleClient("mover")
	require.NoError(t, m.JoinRoom(mover, a, "mover"))
	require.NoError(t, m.JoinRoom(mover, b, "mover"))

	assert.Equal(t, 3, m.GetRoom(a).PlayerCount())
	assert.Equal(t, 2, m.GetRoom(b).PlayerCount())
	assert.Equal(t, b, mover.GetRoom())
}

func TestJoinRoom_FailedSwitchKeepsCurrentRoom(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	full := fillRoom(t, m, newClients("f", 6))
	playing := startRoom(t, m, newClients("g", 3))

	tests := []struct {
		name   string
		target string
		err    error
	}{
		{"full", full, apperrors.ErrRoomFull},
		{"started", playing, apperrors.ErrGameStarted},
		{"missing", "NOPE00", apperrors.ErrRoomNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mine := newClients(tt.name+"-", 3)
			code := fillRoom(t, m, mine)

			assert.ErrorIs(t, m.JoinRoom(mine[0], tt.target, "host"), tt.err)

			s := m.GetRoom(code)
			require.NotNil(t, s, "host's room must survive a failed join")
			assert.Equal(t, 3, s.PlayerCount())
			assert.Equal(t, mine[0].ID, s.HostID())
			for _, c := range mine {
				assert.Equal(t, code, c.GetRoom())
				assert.Equal(t, code, m.RoomOf(c.ID))
				assert.Nil(t, c.LastOfType(protocol.MsgRoomDestroyed))
			}

			assert.ErrorIs(t, m.JoinRoom(mine[1], tt.target, "guest"), tt.err)
			assert.Equal(t, 3, s.PlayerCount())
			assert.Equal(t, code, m.RoomOf(mine[1].ID))
		})
	}
}

func TestJoinRoom_HostSwitchDestroysOldRoom(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	mine := newClients("p", 2)
	old := fillRoom(t, m, mine)
	target, err := m.CreateRoom(testutil.NewSimpleClient("other"), "other")
	require.NoError(t, err)

	require.NoError(t, m.JoinRoom(mine[0], target, "mover"))

	assert.Nil(t, m.GetRoom(old))
	assert.Equal(t, target, mine[0].GetRoom())
	assert.Empty(t, mine[1].GetRoom())
	require.NotNil(t, mine[1].LastOfType(protocol.MsgRoomDestroyed))
	assert.Equal(t, 2, m.GetRoom(target).PlayerCount())
}

func TestLeave_NonHost(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	clients := newClients("p", 3)
	code := fillRoom(t, m, clients)

	left, ok := m.Leave(clients[2])
	require.True(t, ok)
	assert.Equal(t, code, left)
	assert.Empty(t, clients[2].GetRoom())

	for _, c := range clients[:2] {
		state := c.LastState()
		require.NotNil(t, state)
		assert.Len(t, state.Players, 2)
	}

	_, ok = m.Leave(clients[2])
	assert.False(t, ok)
}

func TestLeave_HostDestroysRoom(t *testing.T) {
	t.Parallel()

	m, clk := newTestManager(t, nil)
	clients := newClients("p", 3)
	code := startRoom(t, m, clients)
	for _, c := range clients {
		c.Reset()
	}

	_, ok := m.Leave(clients[0])
	require.True(t, ok)

	assert.Nil(t, m.GetRoom(code))
	assert.Zero(t, m.ActiveGamesCount())
	for _, c := range clients[1:] {
		msg := c.LastOfType(protocol.MsgRoomDestroyed)
		require.NotNil(t, msg)
		payload, err := codec.ParsePayload[protocol.RoomDestroyedPayload](msg)
		require.NoError(t, err)
		assert.Equal(t, ReasonHostLeft, payload.Reason)
		assert.Equal(t, code, payload.RoomID)

		assert.Empty(t, c.GetRoom())
		assert.Empty(t, m.RoomOf(c.ID))
		assert.Empty(t, c.MessagesOfType(protocol.MsgRoomState), "no state after destroy")
		assert.ErrorIs(t, m.Pass(c), apperrors.ErrNotInRoom)
	}
	assert.Nil(t, clients[0].LastOfType(protocol.MsgRoomDestroyed))

	_, pending := clk.Peek()
	assert.False(t, pending, "turn timer canceled")
}

func TestLeave_LastPlayerDestroysRoom(t *testing.T) {
	t.Parallel()

	store := &testutil.MockStore{}
	deleted := make(chan string, 1)
	store.On("SaveRoom", mock.Anything, mock.Anything).Return(nil).Maybe()
	store.On("DeleteRoom", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		deleted <- args.String(1)
	}).Once()

	m, _ := newTestManager(t, store)
	c := testutil.NewSimpleClient("solo")
	code, err := m.CreateRoom(c, "solo")
	require.NoError(t, err)

	_, ok := m.Leave(c)
	require.True(t, ok)
	assert.Zero(t, m.RoomCount())

	select {
	case got := <-deleted:
		assert.Equal(t, code, got)
	case <-time.After(5 * time.Second):
		t.Fatal("room mirror not deleted")
	}
}

func TestLeave_MidGameRemovesPlayer(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	clients := newClients("p", 4)
	code := startRoom(t, m, clients)

	_, ok := m.Leave(clients[3])
	require.True(t, ok)

	s := m.GetRoom(code)
	require.NotNil(t, s)
	assert.Equal(t, 3, s.PlayerCount())
	assert.Equal(t, session.PhaseAuction, s.Phase())
	assert.Len(t, s.View("p1").TableProperties, 3)
}

func TestActions_RequireMembership(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	stranger := testutil.NewSimpleClient("ghost")

	_, err := m.SetReady(stranger, true)
	assert.ErrorIs(t, err, apperrors.ErrNotInRoom)
	assert.ErrorIs(t, m.StartGame(stranger), apperrors.ErrNotInRoom)
	assert.ErrorIs(t, m.PlaceBid(stranger, 1000), apperrors.ErrNotInRoom)
	assert.ErrorIs(t, m.Pass(stranger), apperrors.ErrNotInRoom)
	assert.ErrorIs(t, m.PlayCard(stranger, 3), apperrors.ErrNotInRoom)
	assert.ErrorIs(t, m.Chat(stranger, "hi"), apperrors.ErrNotInRoom)
}

func TestActions_RoutedToSession(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	clients := newClients("p", 3)
	code := startRoom(t, m, clients)
	assert.Equal(t, 1, m.ActiveGamesCount())

	s := m.GetRoom(code)
	byID := map[string]*testutil.SimpleClient{}
	for _, c := range clients {
		byID[c.ID] = c
	}

	cur := byID[s.View("p1").CurrentTurn]
	require.NoError(t, m.PlaceBid(cur, 2000))
	assert.Equal(t, 2000, s.View("p1").HighBid)

	next := byID[s.View("p1").CurrentTurn]
	assert.ErrorIs(t, m.PlaceBid(next, 1000), apperrors.ErrBidTooLow)
	require.NoError(t, m.Pass(next))
	assert.ErrorIs(t, m.PlayCard(cur, 1), apperrors.ErrWrongPhase)

	require.NoError(t, m.Chat(clients[1], "gl"))
	assert.NotNil(t, clients[0].LastOfType(protocol.MsgChat))
}

func TestGetRoomList(t *testing.T) {
	t.Parallel()

	m, clk := newTestManager(t, nil)

	a, err := m.CreateRoom(testutil.NewSimpleClient("a1"), "alpha")
	require.NoError(t, err)
	clk.Advance(time.Second).MustWait(context.Background())

	startRoom(t, m, []*testutil.SimpleClient{
		testutil.NewSimpleClient("b1"), testutil.NewSimpleClient("b2"), testutil.NewSimpleClient("b3"),
	})

	c, err := m.CreateRoom(testutil.NewSimpleClient("c1"), "gamma")
	require.NoError(t, err)

	list := m.GetRoomList()
	require.Len(t, list, 2, "started room is not joinable")
	assert.Equal(t, protocol.RoomListItem{RoomID: a, HostName: "alpha", PlayerCount: 1, MaxPlayers: 6}, list[0])
	assert.Equal(t, c, list[1].RoomID)
}

func TestCleanup_ExpiresIdleLobbies(t *testing.T) {
	t.Parallel()

	m, clk := newTestManager(t, nil)
	clients := newClients("p", 2)
	code := fillRoom(t, m, clients)

	clk.Advance(9 * time.Minute).MustWait(context.Background())
	assert.Zero(t, m.Cleanup())

	clk.Advance(2 * time.Minute).MustWait(context.Background())
	assert.Equal(t, 1, m.Cleanup())
	assert.Nil(t, m.GetRoom(code))

	for _, c := range clients {
		msg := c.LastOfType(protocol.MsgRoomDestroyed)
		require.NotNil(t, msg, "every member notified on timeout")
		payload, err := codec.ParsePayload[protocol.RoomDestroyedPayload](msg)
		require.NoError(t, err)
		assert.Equal(t, ReasonTimeout, payload.Reason)
		assert.Empty(t, c.GetRoom())
	}
}

func TestRun_SweepsOnTicker(t *testing.T) {
	t.Parallel()

	m, clk := newTestManager(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	require.Eventually(t, func() bool {
		d, ok := clk.Peek()
		return ok && d == time.Minute
	}, 5*time.Second, time.Millisecond, "cleanup ticker registered")

	_, err := m.CreateRoom(testutil.NewSimpleClient("p1"), "idle")
	require.NoError(t, err)

	for range 11 {
		clk.Advance(time.Minute).MustWait(ctx)
	}
	assert.Eventually(t, func() bool { return m.RoomCount() == 0 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, nil)
	lobby := newClients("p", 2)
	fillRoom(t, m, lobby)
	playing := []*testutil.SimpleClient{
		testutil.NewSimpleClient("x1"), testutil.NewSimpleClient("x2"), testutil.NewSimpleClient("x3"),
	}
	startRoom(t, m, playing)

	m.Shutdown()
	assert.Zero(t, m.RoomCount())
	for _, c := range append(lobby, playing...) {
		msg := c.LastOfType(protocol.MsgRoomDestroyed)
		require.NotNil(t, msg)
		payload, err := codec.ParsePayload[protocol.RoomDestroyedPayload](msg)
		require.NoError(t, err)
		assert.Equal(t, ReasonShutdown, payload.Reason)
	}
}

func TestMirror_SavesSummary(t *testing.T) {
	t.Parallel()

	store := &testutil.MockStore{}
	saved := make(chan *storage.RoomData, 8)
	store.On("SaveRoom", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		saved <- args.Get(1).(*storage.RoomData)
	})

	m, _ := newTestManager(t, store)
	code, err := m.CreateRoom(testutil.NewSimpleClient("p1"), "alice")
	require.NoError(t, err)

	select {
	case data := <-saved:
		assert.Equal(t, code, data.Code)
		assert.Equal(t, "lobby", data.Phase)
		assert.Equal(t, []string{"alice"}, data.Players)
		assert.Equal(t, "alice", data.HostName)
	case <-time.After(5 * time.Second):
		t.Fatal("room not mirrored")
	}
}

func TestMirror_SkipsDestroyedRoom(t *testing.T) {
	t.Parallel()

	store := &testutil.MockStore{}
	store.On("SaveRoom", mock.Anything, mock.Anything).Return(nil)
	store.On("DeleteRoom", mock.Anything, mock.Anything).Return(nil)

	m, _ := newTestManager(t, store)
	clients := newClients("p", 2)
	code := fillRoom(t, m, clients)
	s := m.GetRoom(code)
	m.Flush()
	store.AssertNumberOfCalls(t, "SaveRoom", 2)

	m.Leave(clients[0])
	m.mirror(s)
	m.Flush()

	store.AssertNumberOfCalls(t, "SaveRoom", 2)
	store.AssertCalled(t, "DeleteRoom", mock.Anything, code)
	last := store.Calls[len(store.Calls)-1]
	assert.Equal(t, "DeleteRoom", last.Method)
}

func TestShutdown_FlushesMirrorDeletes(t *testing.T) {
	t.Parallel()

	store := &testutil.MockStore{}
	store.On("SaveRoom", mock.Anything, mock.Anything).Return(nil)
	store.On("DeleteRoom", mock.Anything, mock.Anything).Return(nil)

	m, _ := newTestManager(t, store)
	a := fillRoom(t, m, newClients("p", 2))
	b := fillRoom(t, m, newClients("q", 3))

	m.Shutdown()

	store.AssertCalled(t, "DeleteRoom", mock.Anything, a)
	store.AssertCalled(t, "DeleteRoom", mock.Anything, b)
}

func TestGameOver_RecordsResults(t *testing.T) {
	t.Parallel()

	store := &testutil.MockStore{}
	recorded := make(chan []storage.GameResult, 1)
	store.On("SaveRoom", mock.Anything, mock.Anything).Return(nil).Maybe()
	store.On("RecordGameResult", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		recorded <- args.Get(1).([]storage.GameResult)
	}).Once()

	m, _ := newTestManager(t, store)
	clients := newClients("p", 3)
	code := startRoom(t, m, clients)
	byID := map[string]*testutil.SimpleClient{}
	for _, c := range clients {
		byID[c.ID] = c
	}

	s := m.GetRoom(code)
	for range 500 {
		switch s.Phase() {
		case session.PhaseAuction:
			require.NoError(t, m.Pass(byID[s.View("p1").CurrentTurn]))
			continue
		case session.PhaseSealedBid:
			for _, c := range clients {
				require.NoError(t, m.PlayCard(c, s.Player(c.ID).Properties()[0]))
			}
			continue
		}
		break
	}
	require.Equal(t, session.PhaseGameOver, s.Phase())
	assert.Zero(t, m.ActiveGamesCount())

	select {
	case results := <-recorded:
		require.Len(t, results, 3)
		standings := s.View("p1").Standings
		for i, r := range results {
			assert.Equal(t, standings[i].Nickname, r.Nickname)
			assert.Equal(t, standings[i].Total, r.Total)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("game result not recorded")
	}
}
