package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Драйверы кеша
const (
	CacheDriverMemory = "memory"
	CacheDriverRedis  = "redis"
	CacheDriverNone   = "none"
)

// Провайдеры email
const (
	EmailProviderNoop   = "noop"
	EmailProviderResend = "resend"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Email    EmailConfig
	Metrics  MetricsConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           string `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	MaxOpenConns   int    `mapstructure:"max_open_conns"`
	MaxIdleConns   int    `mapstructure:"max_idle_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит настройки подключения к Redis.
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: "single", "sentinel" или "cluster". По умолчанию "single".
	Mode       string   `mapstructure:"mode"`
	Addrs      []string `mapstructure:"addrs"`
	Addr       string   `mapstructure:"addr"`
	Password   string   `mapstructure:"password"`
	DB         int      `mapstructure:"db"`
	MasterName string   `mapstructure:"master_name"`
	MaxRetries int      `mapstructure:"max_retries"`
}

// CacheConfig содержит настройки кеша рейтингов и историй
type CacheConfig struct {
	// Driver: "memory", "redis" или "none"
	Driver                string        `mapstructure:"driver"`
	Prefix                string        `mapstructure:"prefix"`
	LeaderboardOngoingTTL time.Duration `mapstructure:"leaderboard_ongoing_ttl"`
	LeaderboardEndedTTL   time.Duration `mapstructure:"leaderboard_ended_ttl"`
	HistoryTTL            time.Duration `mapstructure:"history_ttl"`
	// CleanupInterval - период очистки просроченных записей in-memory кеша
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// CORSConfig содержит разрешенные источники
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig содержит настройки отправки писем победителям
type EmailConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"`
}

// MetricsConfig управляет /metrics и /debug/pprof
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Pprof   bool `mapstructure:"pprof"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.mode", "debug")
	vip.SetDefault("server.read_timeout", 15*time.Second)
	vip.SetDefault("server.write_timeout", 15*time.Second)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 5)
	vip.SetDefault("database.migrations_path", "migrations")

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("cache.driver", CacheDriverMemory)
	vip.SetDefault("cache.prefix", "contest-api:cache:")
	vip.SetDefault("cache.leaderboard_ongoing_ttl", time.Minute)
	vip.SetDefault("cache.leaderboard_ended_ttl", time.Hour)
	vip.SetDefault("cache.history_ttl", 5*time.Minute)
	vip.SetDefault("cache.cleanup_interval", 5*time.Minute)

	vip.SetDefault("jwt.ttl", 24*time.Hour)

	vip.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	vip.SetDefault("email.provider", EmailProviderNoop)

	vip.SetDefault("metrics.enabled", true)
	vip.SetDefault("metrics.pprof", false)
}

func bindEnv(vip *viper.Viper) {
	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.mode", "GIN_MODE")

	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.migrations_path", "DATABASE_MIGRATIONS_PATH")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для секции Cache
	vip.BindEnv("cache.driver", "CACHE_DRIVER")
	vip.BindEnv("cache.leaderboard_ongoing_ttl", "CACHE_LEADERBOARD_ONGOING_TTL")
	vip.BindEnv("cache.leaderboard_ended_ttl", "CACHE_LEADERBOARD_ENDED_TTL")
	vip.BindEnv("cache.history_ttl", "CACHE_HISTORY_TTL")

	// Привязка для секции JWT
	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.ttl", "JWT_TTL")

	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	vip.BindEnv("email.provider", "EMAIL_PROVIDER")
	vip.BindEnv("email.api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("metrics.enabled", "METRICS_ENABLED")
	vip.BindEnv("metrics.pprof", "METRICS_PPROF")
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New()
	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файл не обязателен: все значения можно передать через окружение
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&cfg)

	if cfg.Server.Mode != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database: %s@%s:%s/%s (sslmode=%s)", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, cfg.Database.SSLMode)
		log.Printf("Redis: mode=%s addrs=%v", cfg.Redis.Mode, cfg.Redis.Addrs)
		log.Printf("Cache: driver=%s ongoing=%s ended=%s history=%s", cfg.Cache.Driver,
			cfg.Cache.LeaderboardOngoingTTL, cfg.Cache.LeaderboardEndedTTL, cfg.Cache.HistoryTTL)
		log.Printf("JWT Secret Set: %t, TTL: %s", cfg.JWT.Secret != "", cfg.JWT.TTL)
		log.Printf("Email Provider: %s", cfg.Email.Provider)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize приводит значения из окружения к ожидаемому виду
func normalize(cfg *Config) {
	// REDIS_ADDRS и CORS_ALLOWED_ORIGINS приходят одной строкой через запятую
	cfg.Redis.Addrs = splitList(cfg.Redis.Addrs)
	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOrigins)
	if len(cfg.Redis.Addrs) == 0 && cfg.Redis.Addr != "" {
		cfg.Redis.Addrs = []string{cfg.Redis.Addr}
	}
	cfg.Cache.Driver = strings.ToLower(strings.TrimSpace(cfg.Cache.Driver))
	cfg.Email.Provider = strings.ToLower(strings.TrimSpace(cfg.Email.Provider))
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Server.Mode == "release" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("jwt secret must be at least 16 characters (check JWT_SECRET env var)")
	}

	switch c.Cache.Driver {
	case CacheDriverMemory, CacheDriverNone:
	case CacheDriverRedis:
		if len(c.Redis.Addrs) == 0 {
			return fmt.Errorf("cache driver redis requires redis.addrs (check REDIS_ADDRS env var)")
		}
	default:
		return fmt.Errorf("unknown cache driver %q (expected memory, redis or none)", c.Cache.Driver)
	}
	if c.Cache.LeaderboardOngoingTTL <= 0 || c.Cache.LeaderboardEndedTTL <= 0 || c.Cache.HistoryTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}

	switch c.Email.Provider {
	case EmailProviderNoop:
	case EmailProviderResend:
		if c.Email.APIKey == "" || c.Email.From == "" {
			return fmt.Errorf("email provider resend requires api_key and from (check RESEND_API_KEY, EMAIL_FROM env vars)")
		}
	default:
		return fmt.Errorf("unknown email provider %q (expected noop or resend)", c.Email.Provider)
	}
	return nil
}
