package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// StorageConfig selects the Store that holds client state (token, stars).
type StorageConfig struct {
	// Driver is one of sqlite, postgres, redis, memory.
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	RedisURL string `yaml:"redis_url"`
	// Namespace prefixes redis keys so several profiles can share one server.
	Namespace string `yaml:"namespace"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ChatConfig holds the chat socket timings.
type ChatConfig struct {
	WriteWait        time.Duration `yaml:"write_wait"`
	PongWait         time.Duration `yaml:"pong_wait"`
	PingPeriod       time.Duration `yaml:"ping_period"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	MaxMessageSize   int64         `yaml:"max_message_size"`
}

// DevServerConfig configures cmd/devserver.
type DevServerConfig struct {
	Addr      string `yaml:"addr"`
	DBDriver  string `yaml:"db_driver"`
	DBPath    string `yaml:"db_path"`
	DBDSN     string `yaml:"db_dsn"`
	JWTSecret string `yaml:"jwt_secret"`
	// EchoToSender also delivers relayed frames back to their author.
	EchoToSender bool `yaml:"echo_sender"`
	Seed         bool `yaml:"seed"`
}

// Config is the whole client configuration.
// Priority: environment > YAML file > .env > defaults.
type Config struct {
	BaseURL          string          `yaml:"base_url"`
	HTTPTimeout      time.Duration   `yaml:"http_timeout"`
	Language         string          `yaml:"language"`
	CurrencySymbol   string          `yaml:"currency_symbol"`
	ConversationPoll time.Duration   `yaml:"conversation_poll"`
	Storage          StorageConfig   `yaml:"storage"`
	Log              LogConfig       `yaml:"log"`
	Chat             ChatConfig      `yaml:"chat"`
	DevServer        DevServerConfig `yaml:"devserver"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		HTTPTimeout:      DefaultHTTPTimeout,
		Language:         "en",
		CurrencySymbol:   DefaultCurrencySign,
		ConversationPoll: ConversationPollInterval,
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   DefaultSQLitePath,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxAgeDays: 7,
		},
		Chat: ChatConfig{
			WriteWait:        WriteWait,
			PongWait:         PongWait,
			PingPeriod:       PingPeriod,
			HandshakeTimeout: HandshakeTimeout,
			MaxMessageSize:   MaxMessageSize,
		},
		DevServer: DevServerConfig{
			Addr:      ":8000",
			DBDriver:  "sqlite",
			DBPath:    "devserver.db",
			JWTSecret: "dev-secret-change-me",
			Seed:      true,
		},
	}
}

// Load builds the configuration. path may be empty; CONFIG_PATH is used then.
// A missing .env or YAML file is not an error, a malformed one is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.BaseURL = envStr("FITNEST_API_URL", cfg.BaseURL)
	cfg.HTTPTimeout = envDuration("FITNEST_HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.Language = envStr("FITNEST_LANG", cfg.Language)
	cfg.CurrencySymbol = envStr("FITNEST_CURRENCY_SYMBOL", cfg.CurrencySymbol)
	cfg.ConversationPoll = envDuration("FITNEST_CONVERSATION_POLL", cfg.ConversationPoll)

	cfg.Storage.Driver = envStr("FITNEST_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Path = envStr("FITNEST_STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.DSN = envStr("FITNEST_STORAGE_DSN", cfg.Storage.DSN)
	cfg.Storage.RedisURL = envStr("REDIS_URL", cfg.Storage.RedisURL)
	cfg.Storage.Namespace = envStr("FITNEST_STORAGE_NAMESPACE", cfg.Storage.Namespace)

	cfg.Log.Level = envStr("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = envStr("LOG_FILE", cfg.Log.File)

	cfg.Chat.PongWait = envDuration("FITNEST_WS_PONG_WAIT", cfg.Chat.PongWait)
	cfg.Chat.PingPeriod = envDuration("FITNEST_WS_PING_PERIOD", cfg.Chat.PingPeriod)
	cfg.Chat.WriteWait = envDuration("FITNEST_WS_WRITE_WAIT", cfg.Chat.WriteWait)

	cfg.DevServer.Addr = envStr("DEVSERVER_ADDR", cfg.DevServer.Addr)
	cfg.DevServer.DBDriver = envStr("DEVSERVER_DB_DRIVER", cfg.DevServer.DBDriver)
	cfg.DevServer.DBPath = envStr("DEVSERVER_DB_PATH", cfg.DevServer.DBPath)
	cfg.DevServer.DBDSN = envStr("DEVSERVER_DB_DSN", cfg.DevServer.DBDSN)
	cfg.DevServer.JWTSecret = envStr("DEVSERVER_JWT_SECRET", cfg.DevServer.JWTSecret)
	cfg.DevServer.EchoToSender = envBool("DEVSERVER_ECHO_SENDER", cfg.DevServer.EchoToSender)
	cfg.DevServer.Seed = envBool("DEVSERVER_SEED", cfg.DevServer.Seed)
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url is empty")
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return errors.New("config: storage.path is required for sqlite")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("config: storage.dsn is required for postgres")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return errors.New("config: storage.redis_url is required for redis")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.ConversationPoll <= 0 {
		return errors.New("config: conversation_poll must be positive")
	}
	if c.Chat.PongWait > 0 && c.Chat.PingPeriod >= c.Chat.PongWait {
		return errors.New("config: chat.ping_period must be shorter than chat.pong_wait")
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
