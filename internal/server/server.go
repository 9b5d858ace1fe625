package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/for-sale/internal/config"
	"github.com/palemoky/for-sale/internal/game/room"
	"github.com/palemoky/for-sale/internal/game/session"
	"github.com/palemoky/for-sale/internal/protocol/codec"
	"github.com/palemoky/for-sale/internal/server/handler"
	"github.com/palemoky/for-sale/internal/server/storage"
)

const (
	// 限流记录清理间隔
	limiterCleanupInterval = time.Minute
	// HTTP 服务关闭等待时间
	httpShutdownTimeout = 5 * time.Second
)

// Server WebSocket 服务器
type Server struct {
	config    *config.Config
	clock     quartz.Clock
	store     storage.Store
	rooms     *room.Manager
	handler   *handler.Handler
	upgrader  websocket.Upgrader
	clients   map[string]*Client
	clientsMu sync.RWMutex

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	chatLimiter    *ChatRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex
}

// NewServer 创建服务器实例，store 为 nil 时不持久化
func NewServer(cfg *config.Config, store storage.Store) *Server {
	return newServer(cfg, store, quartz.NewReal())
}

func newServer(cfg *config.Config, store storage.Store, clock quartz.Clock) *Server {
	if store == nil {
		store = storage.NopStore{}
	}

	s := &Server{
		config:  cfg,
		clock:   clock,
		store:   store,
		clients: make(map[string]*Client),
		// 初始化安全组件
		rateLimiter: NewRateLimiter(
			clock,
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(clock, cfg.Security.MessageLimit.MaxPerSecond),
		chatLimiter: NewChatRateLimiter(
			clock,
			cfg.Security.ChatLimit.MaxPerSecond,
			cfg.Security.ChatLimit.MaxPerMinute,
			cfg.Security.ChatLimit.CooldownDuration(),
		),
		ipFilter: NewIPFilter(),
		// 初始化连接控制
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Subprotocols:    []string{codec.SubprotocolJSON, codec.SubprotocolProtobuf},
		CheckOrigin:     s.originChecker.Check,
		// 消息都很小，压缩只会增加 CPU 开销
		EnableCompression: false,
	}

	// 初始化房间管理器
	s.rooms = room.NewManager(store, room.Options{
		Session: session.Options{
			Clock:           clock,
			TurnTimeout:     cfg.Game.TurnTimeoutDuration(),
			RoundDelay:      cfg.Game.RoundDelayDuration(),
			StartingBalance: cfg.Game.StartingBalance,
			MinPlayers:      cfg.Game.MinPlayers,
			MaxPlayers:      cfg.Game.MaxPlayers,
		},
		RoomTimeout:     cfg.Game.RoomTimeoutDuration(),
		CleanupInterval: cfg.Game.CleanupIntervalDuration(),
	})

	// 初始化消息处理器
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		Rooms:       s.rooms,
		ChatLimiter: s.chatLimiter,
		Store:       store,
		Clock:       clock,
	})

	log.Info("🔒 安全配置",
		"conn_limit", cfg.Security.RateLimit.MaxPerSecond,
		"msg_limit", cfg.Security.MessageLimit.MaxPerSecond,
		"chat_limit", cfg.Security.ChatLimit.MaxPerSecond,
		"max_conns", cfg.Server.MaxConnections)

	return s
}

// Handler 返回 HTTP 路由：/ws 为游戏连接，/health 为健康检查
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Rooms 返回房间管理器
func (s *Server) Rooms() *room.Manager {
	return s.rooms
}

// Run 启动服务器，ctx 结束后优雅关闭并返回
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("🚀 服务器启动", "addr", "ws://"+addr+"/ws", "cpus", runtime.NumCPU())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.GracefulShutdown(s.config.Server.ShutdownTimeoutDuration())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return s.rooms.Run(gctx) })
	g.Go(func() error { return s.monitorStats(gctx) })
	g.Go(func() error { return s.cleanupLimiters(gctx) })

	return g.Wait()
}

// cleanupLimiters 定期清理过期的 IP 限流记录
func (s *Server) cleanupLimiters(ctx context.Context) error {
	ticker := s.clock.NewTicker(limiterCleanupInterval, "server", "limiter-cleanup")
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.rateLimiter.Cleanup(); n > 0 {
				log.Debug("🧹 已清理限流记录", "count", n)
			}
		}
	}
}
