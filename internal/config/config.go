// Package config загружает конфигурацию сервиса из TOML файла.
// Значения из окружения (и .env, если он есть) перекрывают файл.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-CancellationService/internal/domain"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	RefundDriverKafka = "kafka"
	RefundDriverLog   = "log"
)

// ErrInvalidConfig оборачивает все ошибки Validate
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Server        ServerConfig        `toml:"server"`
	Database      DatabaseConfig      `toml:"database"`
	Storage       StorageConfig       `toml:"storage"`
	Logs          LogsConfig          `toml:"logs"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Engine        EngineConfig        `toml:"engine"`
	Sweeper       SweeperConfig       `toml:"sweeper"`
	PolicyCache   PolicyCacheConfig   `toml:"policy_cache"`
	Redis         RedisConfig         `toml:"redis"`
	RefundGateway RefundGatewayConfig `toml:"refund_gateway"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type StorageConfig struct {
	Driver string `toml:"driver"` // postgres | memory
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type EngineConfig struct {
	MaxCASRetries     int  `toml:"max_cas_retries"`
	CurrencyPrecision *int `toml:"currency_precision"` // nil = по умолчанию, 0 допустим (JPY)
}

// Precision число знаков после запятой для денежных сумм
func (e EngineConfig) Precision() int32 {
	if e.CurrencyPrecision == nil {
		return domain.DefaultCurrencyPrecision
	}
	return int32(*e.CurrencyPrecision)
}

type SweeperConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	BatchSize       int  `toml:"batch_size"`
}

// Interval период между проходами sweeper'а
func (s SweeperConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

type PolicyCacheConfig struct {
	Enabled    bool `toml:"enabled"`
	TTLSeconds int  `toml:"ttl_seconds"`
}

// TTL время жизни записи кэша политик
func (p PolicyCacheConfig) TTL() time.Duration {
	return time.Duration(p.TTLSeconds) * time.Second
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type RefundGatewayConfig struct {
	Driver   string   `toml:"driver"` // kafka | log
	Brokers  []string `toml:"brokers"`
	Topic    string   `toml:"topic"`
	ClientID string   `toml:"client_id"`
	RetryMax int      `toml:"retry_max"`
}

// Load читает файл, подгружает .env (если есть), применяет переменные окружения,
// значения по умолчанию и валидирует результат
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv перекрывает секреты и адреса, которые не хранят в файле
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DB_PASSWORD"); ok {
		c.Database.Password = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		brokers := make([]string, 0)
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.RefundGateway.Brokers = brokers
	}
	if v, ok := lookup("HTTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: HTTP_PORT=%q: %v", ErrInvalidConfig, v, err)
		}
		c.Server.HTTPPort = port
	}
	return nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 15)
	setDefault(&c.Server.WriteTimeout, 15)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 10)

	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.MaxOpenConns, 25)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverPostgres
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "cancellation-service"
	}

	setDefault(&c.Engine.MaxCASRetries, domain.DefaultMaxCASRetries)
	if c.Engine.CurrencyPrecision == nil {
		p := domain.DefaultCurrencyPrecision
		c.Engine.CurrencyPrecision = &p
	}

	setDefault(&c.Sweeper.IntervalSeconds, 60)
	setDefault(&c.Sweeper.BatchSize, domain.DefaultSweepBatchSize)
	setDefault(&c.PolicyCache.TTLSeconds, 300)

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}

	if c.RefundGateway.Driver == "" {
		c.RefundGateway.Driver = RefundDriverLog
	}
	if c.RefundGateway.Topic == "" {
		c.RefundGateway.Topic = "booking.refunds"
	}
	if c.RefundGateway.ClientID == "" {
		c.RefundGateway.ClientID = c.Metrics.ServiceName
	}
	setDefault(&c.RefundGateway.RetryMax, 5)
}

// Validate отклоняет значения, с которыми сервис не может работать
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port=%d", ErrInvalidConfig, c.Server.HTTPPort)
	}
	if c.Engine.MaxCASRetries <= 0 {
		return fmt.Errorf("%w: engine.max_cas_retries must be positive", ErrInvalidConfig)
	}
	if p := c.Engine.Precision(); p < 0 || p > domain.MaxCurrencyPrecision {
		return fmt.Errorf("%w: engine.currency_precision must be in 0..%d", ErrInvalidConfig, domain.MaxCurrencyPrecision)
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("%w: database.host and database.dbname are required for postgres storage", ErrInvalidConfig)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("%w: unknown storage.driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	switch c.RefundGateway.Driver {
	case RefundDriverKafka:
		if len(c.RefundGateway.Brokers) == 0 {
			return fmt.Errorf("%w: refund_gateway.brokers are required for kafka driver", ErrInvalidConfig)
		}
	case RefundDriverLog:
	default:
		return fmt.Errorf("%w: unknown refund_gateway.driver %q", ErrInvalidConfig, c.RefundGateway.Driver)
	}

	if c.Redis.Enabled && !c.PolicyCache.Enabled {
		return fmt.Errorf("%w: redis requires policy_cache.enabled", ErrInvalidConfig)
	}
	return nil
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
