package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/config"
	"github.com/palemoky/for-sale/internal/logger"
	"github.com/palemoky/for-sale/internal/server"
	"github.com/palemoky/for-sale/internal/server/storage"
)

// version 构建时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

// CLI 命令行参数，优先级高于配置文件和环境变量
type CLI struct {
	Config   string           `short:"c" help:"配置文件路径" default:"configs/config.yaml" type:"path"`
	Addr     string           `help:"监听地址，例如 :1780 或 127.0.0.1:8080"`
	LogLevel string           `help:"日志级别 (debug/info/warn/error)"`
	Version  kong.VersionFlag `short:"v" help:"显示版本并退出"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("forsale-server"),
		kong.Description("For Sale 多人在线拍卖游戏服务器"),
		kong.Vars{"version": version},
	)

	if err := run(cli); err != nil {
		log.Fatal("❌ 服务器异常退出", "err", err)
	}
}

func run(cli CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	if err := logger.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	log.Info("🎮 For Sale 服务器启动中...", "version", version)
	srv := server.NewServer(cfg, store)
	return srv.Run(ctx)
}

// loadConfig 加载配置：文件不存在时使用默认值，然后应用命令行覆盖
func loadConfig(cli CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("⚠️ 配置文件不存在，使用默认配置", "path", cli.Config)
		cfg, err = config.Load("")
	}
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	if cli.Addr != "" {
		host, portStr, err := net.SplitHostPort(cli.Addr)
		if err != nil {
			return nil, fmt.Errorf("无效的监听地址 %q: %w", cli.Addr, err)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("无效的端口 %q: %w", portStr, err)
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore 启用 Redis 时连接 Redis，否则使用空实现
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if !cfg.Redis.Enabled {
		log.Info("💾 未启用 Redis，排行榜与房间镜像不会持久化")
		return storage.NopStore{}, nil
	}

	store, err := storage.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.RoomTTLDuration())
	if err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}
	log.Info("💾 已连接 Redis", "addr", cfg.Redis.Addr)
	return store, nil
}
