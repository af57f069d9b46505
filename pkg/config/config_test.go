package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\npricing:\n  default_paths: 500\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Pricing.DefaultPaths != 500 {
		t.Fatalf("explicit value overwritten: %d", c.Pricing.DefaultPaths)
	}
	if c.Pricing.DefaultSteps != 252 || c.Server.Port != 8080 || c.Pricing.QuoteTimeout != 10*time.Second {
		t.Fatalf("defaults not applied: %+v", c.Pricing)
	}
}

func TestLoadShippedConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if c.Kafka.Enabled || c.RateLimit.Backend != "memory" {
		t.Fatalf("unexpected shipped config: %+v", c.RateLimit)
	}
}

func TestValidateRejectsBadRateLimitBackend(t *testing.T) {
	path := writeConfig(t, "environment: test\nrate_limit:\n  enabled: true\n  backend: memcached\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "rate_limit.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	c.Kafka.Enabled = true
	if err := c.Validate(); err == nil {
		t.Fatalf("expected brokers error")
	}
	c.Kafka.Brokers = []string{"localhost:9092"}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	c, _ := Default()
	env := map[string]string{
		"HTTP_PORT":          "9090",
		"KAFKA_BROKERS":      "a:9092,b:9092",
		"RATE_LIMIT_BACKEND": "redis",
		"REDIS_ADDR":         "redis:6379",
	}
	if err := c.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if c.Server.Port != 9090 || len(c.Kafka.Brokers) != 2 || !c.Kafka.Enabled {
		t.Fatalf("env not applied: port=%d brokers=%v", c.Server.Port, c.Kafka.Brokers)
	}
	if c.RateLimit.Backend != "redis" || c.RateLimit.Redis.Addr != "redis:6379" {
		t.Fatalf("rate limit env not applied: %+v", c.RateLimit)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	bad := func(k string) string {
		if k == "HTTP_PORT" {
			return "eighty"
		}
		return ""
	}
	if err := c.applyEnv(bad); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func TestExplicitFalseOverridesDefault(t *testing.T) {
	path := writeConfig(t, "environment: test\nserver:\n  cors: false\nwebsocket:\n  enabled: false\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.CORS || c.WebSocket.Enabled {
		t.Fatalf("explicit false was replaced by defaults")
	}
}

func TestValidateCountsSpotColumnInBudget(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	c.Pricing.DefaultSteps = 9
	c.Pricing.DefaultPaths = 100
	c.Pricing.MaxCells = 900
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "max_cells") {
		t.Fatalf("expected budget error for 100 paths x 10 prices, got %v", err)
	}
	c.Pricing.MaxCells = 1000
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
