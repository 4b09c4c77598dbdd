package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Session    SessionConfig    `yaml:"session"`
	Scan       ScanConfig       `yaml:"scan"`
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Hardware   HardwareConfig   `yaml:"hardware"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// LogConfig selects the zap level and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SessionConfig controls the tab session state machine.
type SessionConfig struct {
	IdleTTLMinutes      int           `yaml:"idle_ttl_minutes"`
	IdleTTL             time.Duration `yaml:"-"`
	RevertDelaySeconds  int           `yaml:"revert_delay_seconds"`
	RevertDelay         time.Duration `yaml:"-"`
	MessageTTLSeconds   int           `yaml:"message_ttl_seconds"`
	MessageTTL          time.Duration `yaml:"-"`
	ClearHistoryOnStart *bool         `yaml:"clear_on_start"`
	TimestampLayout     string        `yaml:"timestamp_layout"`
	Timezone            string        `yaml:"timezone"`
	Locale              string        `yaml:"locale"`
}

// ScanConfig holds the barcode scan and availability lookup configuration.
type ScanConfig struct {
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
	BoxCount       int           `yaml:"box_count"`
	Lookup         LookupConfig  `yaml:"lookup"`
}

// LookupConfig describes the optional remote hardware availability endpoint.
// When URL is empty the random placeholder source is used.
type LookupConfig struct {
	URL            string            `yaml:"url"`
	HTTPProxy      string            `yaml:"http_proxy"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// StorageConfig selects the key-value backend for the history blob.
type StorageConfig struct {
	Backend string `yaml:"backend"` // gorm, redis or memory
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig holds the redis connection used by the redis storage backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// HardwareConfig holds the MQTT broker used to open locker boxes.
type HardwareConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// ClearOnStart reports whether history is wiped when a tab session starts.
func (c SessionConfig) ClearOnStart() bool {
	return c.ClearHistoryOnStart == nil || *c.ClearHistoryOnStart
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.LoadFromEnv("LOCKER")
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadFromEnv overrides connection settings from environment variables.
func (c *Config) LoadFromEnv(prefix string) {
	if dsn := os.Getenv(prefix + "_DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if addr := os.Getenv(prefix + "_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if password := os.Getenv(prefix + "_REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if broker := os.Getenv(prefix + "_MQTT_BROKER"); broker != "" {
		c.Hardware.Broker = broker
	}
	if level := os.Getenv(prefix + "_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if port := os.Getenv(prefix + "_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		} else {
			log.Printf("ignoring invalid %s_PORT %q", prefix, port)
		}
	}
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.Server.Port <= 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimitPerSec <= 0 {
		c.Server.RateLimitPerSec = 10
	}
	if c.Server.RateLimitBurst <= 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Server.CacheTTLSeconds <= 0 {
		c.Server.CacheTTLSeconds = 300
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Session.IdleTTLMinutes <= 0 {
		c.Session.IdleTTLMinutes = 30
	}
	c.Session.IdleTTL = time.Duration(c.Session.IdleTTLMinutes) * time.Minute
	if c.Session.RevertDelaySeconds <= 0 {
		c.Session.RevertDelaySeconds = 5
	}
	c.Session.RevertDelay = time.Duration(c.Session.RevertDelaySeconds) * time.Second
	if c.Session.MessageTTLSeconds <= 0 {
		c.Session.MessageTTLSeconds = 2
	}
	c.Session.MessageTTL = time.Duration(c.Session.MessageTTLSeconds) * time.Second
	if c.Session.TimestampLayout == "" {
		c.Session.TimestampLayout = "2006/1/2 15:04"
	}
	if c.Session.Timezone == "" {
		c.Session.Timezone = "Local"
	}
	if c.Session.Locale == "" {
		c.Session.Locale = "en"
	}

	if c.Scan.TimeoutSeconds <= 0 {
		c.Scan.TimeoutSeconds = 30
	}
	c.Scan.Timeout = time.Duration(c.Scan.TimeoutSeconds) * time.Second
	if c.Scan.BoxCount <= 0 {
		c.Scan.BoxCount = 30
	}
	if c.Scan.Lookup.TimeoutSeconds <= 0 {
		c.Scan.Lookup.TimeoutSeconds = 10
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "gorm"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "file:locker.db?cache=shared"
	}

	if c.Hardware.TopicPrefix == "" {
		c.Hardware.TopicPrefix = "lockers"
	}
	if c.Hardware.ClientID == "" {
		c.Hardware.ClientID = "lockerd"
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}

	if c.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		c.WorkerPool.Size = 1
	}
}

// Validate checks settings that have no sensible default.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "gorm", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("storage.backend is redis but redis.addr is empty")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Hardware.Enabled && c.Hardware.Broker == "" {
		return fmt.Errorf("hardware.enabled requires hardware.broker")
	}
	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		return fmt.Errorf("invalid session.timezone %q: %w", c.Session.Timezone, err)
	}
	return nil
}
