package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Relay struct {
	Mode     string `yaml:"mode"`     // local|ws|redis
	WSURL    string `yaml:"wsUrl"`    // ws://host:port, mode=ws
	RedisURL string `yaml:"redisUrl"` // redis://host:port/db, mode=redis
}

type Sync struct {
	Heartbeat      string `yaml:"heartbeat"`      // e.g. 5s
	CodeDebounce   string `yaml:"codeDebounce"`   // e.g. 300ms
	CursorDebounce string `yaml:"cursorDebounce"` // e.g. 100ms
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // sync-relay
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN string `yaml:"dsn"` // empty -> in-memory room store
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Relay    Relay    `yaml:"relay"`
	Sync     Sync     `yaml:"sync"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	switch c.Relay.Mode {
	case "":
		c.Relay.Mode = "local"
	case "local":
	case "ws":
		if c.Relay.WSURL == "" {
			return errors.New("relay.wsUrl is required for mode=ws")
		}
	case "redis":
		if c.Relay.RedisURL == "" {
			return errors.New("relay.redisUrl is required for mode=redis")
		}
	default:
		return fmt.Errorf("unknown relay.mode %q", c.Relay.Mode)
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "sync-relay"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}

// HeartbeatInterval returns the protocol-level PING cadence.
func (c *Config) HeartbeatInterval() time.Duration {
	return parseDurationOr(5*time.Second, c.Sync.Heartbeat)
}

// CodeDebounce is the quiet window before a buffer change is broadcast.
func (c *Config) CodeDebounce() time.Duration {
	return parseDurationOr(300*time.Millisecond, c.Sync.CodeDebounce)
}

// CursorDebounce is the quiet window before a cursor move is broadcast.
func (c *Config) CursorDebounce() time.Duration {
	return parseDurationOr(100*time.Millisecond, c.Sync.CursorDebounce)
}

func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
