package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// 环境变量前缀，例如 FORSALE_SERVER_PORT
const envPrefix = "FORSALE_"

// 默认值
const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 1780
	defaultMaxConnections  = 10000
	defaultRedisAddr       = "localhost:6379"
	defaultRoomTTL         = 60
	defaultTurnTimeout     = 30
	defaultRoundDelay      = 2
	defaultRoomTimeout     = 10
	defaultCleanupInterval = 60
	defaultStartingBalance = 18000
	defaultMinPlayers      = 3
	defaultMaxPlayers      = 6
	defaultShutdownTimeout = 10
	defaultStatsInterval   = 60
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"SERVER_"`
	Redis    RedisConfig    `yaml:"redis" envPrefix:"REDIS_"`
	Game     GameConfig     `yaml:"game" envPrefix:"GAME_"`
	Security SecurityConfig `yaml:"security" envPrefix:"SECURITY_"`
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host            string `yaml:"host" env:"HOST"`
	Port            int    `yaml:"port" env:"PORT"`
	MaxConnections  int    `yaml:"max_connections" env:"MAX_CONNECTIONS"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"` // 优雅关闭超时（秒）
	StatsInterval   int    `yaml:"stats_interval" env:"STATS_INTERVAL"`     // 统计日志间隔（秒）
}

// RedisConfig Redis 配置，关闭时使用空实现（排行榜为空）
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
	RoomTTL  int    `yaml:"room_ttl" env:"ROOM_TTL"` // 房间镜像过期时间（分钟）
}

// GameConfig 游戏配置
type GameConfig struct {
	TurnTimeout     int `yaml:"turn_timeout" env:"TURN_TIMEOUT"`         // 竞拍回合超时（秒）
	RoundDelay      int `yaml:"round_delay" env:"ROUND_DELAY"`           // 回合结算后的展示间隔（秒），0 表示立即进行
	RoomTimeout     int `yaml:"room_timeout" env:"ROOM_TIMEOUT"`         // 大厅房间等待超时（分钟）
	CleanupInterval int `yaml:"cleanup_interval" env:"CLEANUP_INTERVAL"` // 超时房间扫描间隔（秒）
	StartingBalance int `yaml:"starting_balance" env:"STARTING_BALANCE"`
	MinPlayers      int `yaml:"min_players" env:"MIN_PLAYERS"`
	MaxPlayers      int `yaml:"max_players" env:"MAX_PLAYERS"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins" env:"ALLOWED_ORIGINS"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit" envPrefix:"RATE_LIMIT_"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit" envPrefix:"MESSAGE_LIMIT_"`
	ChatLimit      ChatLimitConfig    `yaml:"chat_limit" envPrefix:"CHAT_LIMIT_"`
}

// RateLimitConfig 单 IP 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"MAX_PER_SECOND"`
	MaxPerMinute int `yaml:"max_per_minute" env:"MAX_PER_MINUTE"`
	BanDuration  int `yaml:"ban_duration" env:"BAN_DURATION"` // 封禁时长（秒）
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"MAX_PER_SECOND"`
}

// ChatLimitConfig 聊天速率限制
type ChatLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second" env:"MAX_PER_SECOND"`
	MaxPerMinute int `yaml:"max_per_minute" env:"MAX_PER_MINUTE"`
	Cooldown     int `yaml:"cooldown" env:"COOLDOWN"` // 触发限制后的冷却时间（秒）
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug/info/warn/error
	Format string `yaml:"format" env:"FORMAT"` // text/json/logfmt
}

// Addr 返回监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ShutdownTimeoutDuration 返回优雅关闭超时
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Second
}

// StatsIntervalDuration 返回统计日志间隔
func (c *ServerConfig) StatsIntervalDuration() time.Duration {
	return time.Duration(c.StatsInterval) * time.Second
}

// RoomTTLDuration 返回房间镜像过期时间
func (c *RedisConfig) RoomTTLDuration() time.Duration {
	return time.Duration(c.RoomTTL) * time.Minute
}

// TurnTimeoutDuration 返回竞拍回合超时时长
func (c *GameConfig) TurnTimeoutDuration() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}

// RoundDelayDuration 返回回合展示间隔
func (c *GameConfig) RoundDelayDuration() time.Duration {
	return time.Duration(c.RoundDelay) * time.Second
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// CleanupIntervalDuration 返回超时房间扫描间隔
func (c *GameConfig) CleanupIntervalDuration() time.Duration {
	return time.Duration(c.CleanupInterval) * time.Second
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// CooldownDuration 返回聊天冷却时长
func (c *ChatLimitConfig) CooldownDuration() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// Load 加载配置：默认值 → YAML 文件 → 环境变量。path 为空时跳过文件
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		// 在默认值上解码，文件中缺失的键保持默认
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if len(cfg.Security.AllowedOrigins) == 0 {
		cfg.Security.AllowedOrigins = []string{"*"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			MaxConnections:  defaultMaxConnections,
			ShutdownTimeout: defaultShutdownTimeout,
			StatsInterval:   defaultStatsInterval,
		},
		Redis: RedisConfig{
			Addr:    defaultRedisAddr,
			RoomTTL: defaultRoomTTL,
		},
		Game: GameConfig{
			TurnTimeout:     defaultTurnTimeout,
			RoundDelay:      defaultRoundDelay,
			RoomTimeout:     defaultRoomTimeout,
			CleanupInterval: defaultCleanupInterval,
			StartingBalance: defaultStartingBalance,
			MinPlayers:      defaultMinPlayers,
			MaxPlayers:      defaultMaxPlayers,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			RateLimit: RateLimitConfig{
				MaxPerSecond: 10,
				MaxPerMinute: 60,
				BanDuration:  60,
			},
			MessageLimit: MessageLimitConfig{
				MaxPerSecond: 20,
			},
			ChatLimit: ChatLimitConfig{
				MaxPerSecond: 1,
				MaxPerMinute: 30,
				Cooldown:     5,
			},
		},
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// Validate 检查无法运行的配置
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxConnections <= 0 {
		errs = append(errs, errors.New("server.max_connections must be positive"))
	}
	if c.Game.TurnTimeout <= 0 {
		errs = append(errs, errors.New("game.turn_timeout must be positive"))
	}
	if c.Game.RoundDelay < 0 {
		errs = append(errs, errors.New("game.round_delay must not be negative"))
	}
	if c.Game.RoomTimeout <= 0 || c.Game.CleanupInterval <= 0 {
		errs = append(errs, errors.New("game.room_timeout and game.cleanup_interval must be positive"))
	}
	if c.Game.StartingBalance < 0 {
		errs = append(errs, errors.New("game.starting_balance must not be negative"))
	}
	if c.Game.MinPlayers < 2 || c.Game.MaxPlayers > 6 || c.Game.MinPlayers > c.Game.MaxPlayers {
		errs = append(errs, fmt.Errorf("game players range invalid: [%d,%d]", c.Game.MinPlayers, c.Game.MaxPlayers))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr required when redis is enabled"))
	}
	return errors.Join(errs...)
}
