package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Log          LogConfig          `mapstructure:"log"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
	CORS         CORSConfig         `mapstructure:"cors"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Gamification GamificationConfig `mapstructure:"gamification"`

	// 配置文件所在路径（非配置项，由 LoadConfig 填充，供热更新使用）
	File string `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver   string // mysql | postgres | sqlite
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Charset  string
	SSLMode  string `mapstructure:"sslmode"`
	Path     string // sqlite 文件路径
}

type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Password   string
	DB         int
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

type JWTConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Secret  string `mapstructure:"secret"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// GamificationConfig 进度、连续学习与成就相关的业务参数
type GamificationConfig struct {
	PassThreshold      int           `mapstructure:"pass_threshold"`
	PartialCreditFloor int           `mapstructure:"partial_credit_floor"`
	StreakCap          int           `mapstructure:"streak_cap"`
	InitialStreak      int           `mapstructure:"initial_streak"`
	FreezeDuration     time.Duration `mapstructure:"freeze_duration"`
}

// DefaultGamification 与线上客户端约定的默认值
func DefaultGamification() GamificationConfig {
	return GamificationConfig{
		PassThreshold:      70,
		PartialCreditFloor: 50,
		StreakCap:          5,
		InitialStreak:      5,
		FreezeDuration:     5 * time.Minute,
	}
}

func (g GamificationConfig) Validate() error {
	if g.PassThreshold < 0 || g.PassThreshold > 100 {
		return fmt.Errorf("gamification.pass_threshold must be within [0,100], got %d", g.PassThreshold)
	}
	if g.PartialCreditFloor < 0 || g.PartialCreditFloor > 100 {
		return fmt.Errorf("gamification.partial_credit_floor must be within [0,100], got %d", g.PartialCreditFloor)
	}
	if g.StreakCap < 1 {
		return fmt.Errorf("gamification.streak_cap must be at least 1, got %d", g.StreakCap)
	}
	if g.InitialStreak < 0 || g.InitialStreak > g.StreakCap {
		return fmt.Errorf("gamification.initial_streak must be within [0,%d], got %d", g.StreakCap, g.InitialStreak)
	}
	if g.FreezeDuration <= 0 {
		return fmt.Errorf("gamification.freeze_duration must be positive, got %s", g.FreezeDuration)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "learnquest.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.catalog_ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("tracing.service_name", "learnquest")
	v.SetDefault("tracing.sample_ratio", 0.1)

	v.SetDefault("rate_limit.max_requests", 6000)
	v.SetDefault("rate_limit.window_minutes", 1)

	def := DefaultGamification()
	v.SetDefault("gamification.pass_threshold", def.PassThreshold)
	v.SetDefault("gamification.partial_credit_floor", def.PartialCreditFloor)
	v.SetDefault("gamification.streak_cap", def.StreakCap)
	v.SetDefault("gamification.initial_streak", def.InitialStreak)
	v.SetDefault("gamification.freeze_duration", def.FreezeDuration)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LEARNQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// JWT
	v.BindEnv("jwt.enabled", "JWT_ENABLED")
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		// 没有配置文件时完全依赖默认值和环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Gamification.Validate(); err != nil {
		return nil, err
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && cfg.JWT.Enabled && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
