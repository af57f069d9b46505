package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"1s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Pricing struct {
		DefaultSteps    int           `yaml:"default_steps" default:"252"`
		DefaultPaths    int           `yaml:"default_paths" default:"10000"`
		MaxCells        int           `yaml:"max_cells" default:"20000000"`
		DisplayDecimals int32         `yaml:"display_decimals" default:"2"`
		QuoteTimeout    time.Duration `yaml:"quote_timeout" default:"10s"`
		Cache           struct {
			Enabled    bool          `yaml:"enabled" default:"true"`
			TTL        time.Duration `yaml:"ttl" default:"10m"`
			MaxEntries int           `yaml:"max_entries" default:"10000"`
		} `yaml:"cache"`
	} `yaml:"pricing"`
	RateLimit struct {
		Enabled      bool          `yaml:"enabled"`
		Backend      string        `yaml:"backend" default:"memory"`
		Capacity     float64       `yaml:"capacity" default:"20"`
		RefillPerSec float64       `yaml:"refill_per_sec" default:"5"`
		Window       time.Duration `yaml:"window" default:"1m"`
		Redis        struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"optionlab"`
		} `yaml:"redis"`
	} `yaml:"rate_limit"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequestTopic string   `yaml:"request_topic" default:"pricing.requests"`
		ReplyTopic   string   `yaml:"reply_topic" default:"pricing.replies"`
		LogTopic     string   `yaml:"log_topic"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"optionlab-pricer"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	WebSocket struct {
		Enabled        bool          `yaml:"enabled" default:"true"`
		MaxStreamPaths int           `yaml:"max_stream_paths" default:"500"`
		WriteTimeout   time.Duration `yaml:"write_timeout" default:"5s"`
	} `yaml:"websocket"`
}

// Default returns a configuration built only from `default` tags.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

// Load reads a YAML file over the `default` tags and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// parse applies defaults first so explicit zero values in the file win.
func parse(b []byte) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_REQUEST_TOPIC"); v != "" {
		c.Kafka.RequestTopic = v
	}
	if v := getenv("KAFKA_REPLY_TOPIC"); v != "" {
		c.Kafka.ReplyTopic = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.RateLimit.Redis.Addr = v
	}
	if v := getenv("RATE_LIMIT_BACKEND"); v != "" {
		c.RateLimit.Backend = v
		c.RateLimit.Enabled = true
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Pricing.DefaultSteps < 1 || c.Pricing.DefaultPaths < 1 {
		return fmt.Errorf("pricing.default_steps and pricing.default_paths must be positive")
	}
	if c.Pricing.MaxCells < (c.Pricing.DefaultSteps+1)*c.Pricing.DefaultPaths {
		return fmt.Errorf("pricing.max_cells (%d) is below the default simulation size", c.Pricing.MaxCells)
	}
	if c.Pricing.DisplayDecimals < 0 {
		return fmt.Errorf("pricing.display_decimals must not be negative")
	}
	if c.Pricing.Cache.Enabled && (c.Pricing.Cache.TTL <= 0 || c.Pricing.Cache.MaxEntries < 1) {
		return fmt.Errorf("pricing.cache.ttl and pricing.cache.max_entries must be positive")
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case "memory":
			if c.RateLimit.Capacity < 1 || c.RateLimit.RefillPerSec <= 0 {
				return fmt.Errorf("rate_limit.capacity must be >= 1 and refill_per_sec > 0")
			}
		case "redis":
			if c.RateLimit.Redis.Addr == "" || c.RateLimit.Window <= 0 {
				return fmt.Errorf("rate_limit.redis.addr and rate_limit.window are required for the redis backend")
			}
		default:
			return fmt.Errorf("rate_limit.backend must be 'memory' or 'redis', got '%s'", c.RateLimit.Backend)
		}
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
		}
		if c.Kafka.RequestTopic == "" || c.Kafka.ReplyTopic == "" {
			return fmt.Errorf("kafka.request_topic and kafka.reply_topic are required")
		}
	}
	if c.WebSocket.Enabled && c.WebSocket.MaxStreamPaths < 1 {
		return fmt.Errorf("websocket.max_stream_paths must be positive")
	}
	return nil
}
