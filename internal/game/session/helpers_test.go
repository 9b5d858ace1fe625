package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/testutil"
)

type fixture struct {
	t       *testing.T
	s       *Session
	clock   *quartz.Mock
	clients map[string]*testutil.SimpleClient
	ids     []string
}

// newFixture 创建房间并加入 n 名玩家（p1 为房主）
func newFixture(t *testing.T, n int, delay time.Duration) *fixture {
	t.Helper()
	clk := quartz.NewMock(t)
	s := New("ROOM01", Options{
		Clock:      clk,
		Rand:       rand.New(rand.NewPCG(42, 7)),
		RoundDelay: delay,
	})
	f := &fixture{t: t, s: s, clock: clk, clients: make(map[string]*testutil.SimpleClient)}
	for i := range n {
		id := fmt.Sprintf("p%d", i+1)
		c := testutil.NewSimpleClient(id)
		require.NoError(t, s.AddPlayer(c, "nick-"+id))
		f.clients[id] = c
		f.ids = append(f.ids, id)
	}
	return f
}

// newStartedFixture 创建已开局的房间
func newStartedFixture(t *testing.T, n int, delay time.Duration) *fixture {
	t.Helper()
	f := newFixture(t, n, delay)
	for _, id := range f.ids[1:] {
		require.NoError(t, f.s.SetReady(id, true))
	}
	require.NoError(t, f.s.Start(f.ids[0]))
	return f
}

func (f *fixture) view() *protocol.RoomStatePayload {
	return f.s.View(f.ids[0])
}

func (f *fixture) current() string {
	f.t.Helper()
	turn := f.view().CurrentTurn
	require.NotEmpty(f.t, turn, "expected someone to hold the turn")
	return turn
}

// fireNext 推进到下一个计时事件并等待回调完成
func (f *fixture) fireNext() {
	f.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, w := f.clock.AdvanceNext()
	w.MustWait(ctx)
}

// passUntilSealed 竞拍阶段所有人轮流放弃，直到进入暗标阶段
func (f *fixture) passUntilSealed() {
	f.t.Helper()
	for range 200 {
		v := f.view()
		switch {
		case v.Phase != PhaseAuction.String():
			return
		case v.CurrentTurn == "":
			f.fireNext()
		default:
			require.NoError(f.t, f.s.Pass(v.CurrentTurn))
		}
	}
	f.t.Fatal("auction did not finish")
}

// settle 把正在进行的展示间隔全部走完
func (f *fixture) settle() {
	f.t.Helper()
	for range 10 {
		f.s.mu.Lock()
		pending := f.s.resolving
		f.s.mu.Unlock()
		if !pending {
			return
		}
		f.fireNext()
	}
	f.t.Fatal("session did not settle")
}

func playerView(state *protocol.RoomStatePayload, id string) protocol.PlayerView {
	for _, p := range state.Players {
		if p.ID == id {
			return p
		}
	}
	return protocol.PlayerView{}
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
