package room

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/palemoky/for-sale/internal/game/session"
	"github.com/palemoky/for-sale/internal/server/storage"
)

const (
	roomCodeLength = 6                                      // 房间号长度
	roomCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" // 房间号字符集

	defaultRoomTimeout     = 10 * time.Minute
	defaultCleanupInterval = time.Minute
)

// 解散原因
const (
	ReasonHostLeft = "host_left"
	ReasonEmpty    = "empty"
	ReasonTimeout  = "timeout"
	ReasonShutdown = "shutdown"
)

// Options 房间管理器参数
type Options struct {
	// Session 新建会话使用的参数模板（OnGameOver 由管理器接管）
	Session         session.Options
	RoomTimeout     time.Duration
	CleanupInterval time.Duration
}

// Manager 房间注册表：房间号 -> 会话，玩家 -> 房间号
type Manager struct {
	store storage.Store
	clock quartz.Clock
	opts  Options

	rooms   map[string]*session.Session
	members map[string]string
	mu      sync.RWMutex

	// 镜像写入串行执行，writes 跟踪未完成的写入
	storeMu sync.Mutex
	writes  sync.WaitGroup

	newCode func() string
}

// NewManager 创建房间管理器
func NewManager(store storage.Store, opts Options) *Manager {
	if store == nil {
		store = storage.NopStore{}
	}
	if opts.Session.Clock == nil {
		opts.Session.Clock = quartz.NewReal()
	}
	if opts.RoomTimeout <= 0 {
		opts.RoomTimeout = defaultRoomTimeout
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}

	return &Manager{
		store:   store,
		clock:   opts.Session.Clock,
		opts:    opts,
		rooms:   make(map[string]*session.Session),
		members: make(map[string]string),
		newCode: randomCode,
	}
}

func randomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
	}
	return string(code)
}

// generateRoomCodeLocked 生成与现有房间不冲突的房间号
func (m *Manager) generateRoomCodeLocked() string {
	for {
		code := m.newCode()
		if _, exists := m.rooms[code]; !exists {
			return code
		}
	}
}

func (m *Manager) sessionOptions() session.Options {
	opts := m.opts.Session
	opts.OnGameOver = m.onGameOver
	return opts
}
