package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig       `yaml:"app"`
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Events    EventsConfig    `yaml:"events"`
	Booking   BookingConfig   `yaml:"booking"`
	Worker    WorkerConfig    `yaml:"worker"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
	// LockTimeoutMS is applied as the session lock_timeout; 0 waits forever.
	LockTimeoutMS int  `yaml:"lock_timeout_ms"`
	Migrate       bool `yaml:"migrate"`
}

// DSN prefers an explicit URL (the DB_URL of the old deployment) over the split fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

const (
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
	BrokerNone     = "none"
)

type EventsConfig struct {
	Broker       string   `yaml:"broker"`
	Brokers      []string `yaml:"brokers"`
	BookingTopic string   `yaml:"booking_topic"`
	GroupID      string   `yaml:"group_id"`
	AMQPURL      string   `yaml:"amqp_url"`
	Queue        string   `yaml:"queue"`
}

type BookingConfig struct {
	HoldTTLMinutes        int `yaml:"hold_ttl_minutes"`
	TicketsCacheTTLSecond int `yaml:"tickets_cache_ttl_seconds"`
}

func (b BookingConfig) HoldTTL() time.Duration {
	return time.Duration(b.HoldTTLMinutes) * time.Minute
}

func (b BookingConfig) TicketsCacheTTL() time.Duration {
	return time.Duration(b.TicketsCacheTTLSecond) * time.Second
}

type WorkerConfig struct {
	OutboxIntervalSeconds  int `yaml:"outbox_interval_seconds"`
	OutboxBatchSize        int `yaml:"outbox_batch_size"`
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type TracingConfig struct {
	Enabled        bool   `yaml:"enabled"`
	JaegerEndpoint string `yaml:"jaeger_endpoint"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// LoadConfig reads an optional .env next to the process, expands ${VAR}
// references in the YAML file and fills defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return errors.New("database url or host is required")
	}
	if c.Database.LockTimeoutMS < 0 {
		return errors.New("database lock_timeout_ms must not be negative")
	}
	switch c.Events.Broker {
	case BrokerKafka:
		if len(c.Events.Brokers) == 0 {
			return errors.New("events.brokers is required for kafka")
		}
	case BrokerRabbitMQ:
		if c.Events.AMQPURL == "" {
			return errors.New("events.amqp_url is required for rabbitmq")
		}
	case BrokerNone:
	default:
		return fmt.Errorf("unknown events broker %q", c.Events.Broker)
	}
	if c.Booking.HoldTTLMinutes < 0 {
		return errors.New("booking.hold_ttl_minutes must not be negative")
	}
	if c.Worker.OutboxIntervalSeconds <= 0 {
		return errors.New("worker.outbox_interval_seconds must be positive")
	}
	if c.Worker.OutboxBatchSize <= 0 {
		return errors.New("worker.outbox_batch_size must be positive")
	}
	if c.Worker.ExpirationSweepMinutes <= 0 {
		return errors.New("worker.expiration_sweep_minutes must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return errors.New("rate_limit.rps must be positive when enabled")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "ticketbooking"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":8081"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	c.Events.Broker = strings.ToLower(strings.TrimSpace(c.Events.Broker))
	if c.Events.Broker == "" {
		c.Events.Broker = BrokerNone
	}
	if c.Events.BookingTopic == "" {
		c.Events.BookingTopic = "ticket-bookings"
	}
	if c.Events.Queue == "" {
		c.Events.Queue = "ticket.bookings"
	}
	if c.Events.GroupID == "" {
		c.Events.GroupID = c.App.Name
	}
	if c.Booking.TicketsCacheTTLSecond == 0 {
		c.Booking.TicketsCacheTTLSecond = 30
	}
	if c.Worker.OutboxIntervalSeconds == 0 {
		c.Worker.OutboxIntervalSeconds = 2
	}
	if c.Worker.OutboxBatchSize == 0 {
		c.Worker.OutboxBatchSize = 100
	}
	if c.Worker.ExpirationSweepMinutes == 0 {
		c.Worker.ExpirationSweepMinutes = 1
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}
}
