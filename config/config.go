package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	LLMProvider string `json:"llm_provider"`
	LLMModel    string `json:"llm_model"`
	LLMBaseURL  string `json:"llm_base_url"`
	LLMAPIKey   string `json:"-"`

	GatewayTimeoutSec int `json:"gateway_timeout_sec"`
	MarketTimeoutSec  int `json:"market_timeout_sec"`

	SessionBackend string `json:"session_backend"`
	SessionDBPath  string `json:"session_db_path"`
	SessionTTLMin  int    `json:"session_ttl_min"`

	Debug bool `json:"debug"`
}

func DefaultConfig() *Config {
	cfg := DefaultConfigWithRoot("")

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

func DefaultConfigWithRoot(root string) *Config {
	if root == "" {
		root, _ = os.Getwd()
	}

	return &Config{
		Host: "0.0.0.0",
		Port: 5000,

		LLMProvider: "groq",
		LLMModel:    "llama3-8b-8192",
		LLMBaseURL:  "https://api.groq.com/openai/v1",

		GatewayTimeoutSec: 30,
		MarketTimeoutSec:  10,

		SessionBackend: "memory",
		SessionDBPath:  filepath.Join(root, "data", "sessions.db"),
		SessionTTLMin:  60,

		Debug: false,
	}
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("HOST"); val != "" {
		c.Host = val
	}
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Port = port
		}
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.LLMModel = val
	}
	if val := os.Getenv("LLM_BASE_URL"); val != "" {
		c.LLMBaseURL = val
	}
	if val := os.Getenv("GROQ_API_KEY"); val != "" {
		c.LLMAPIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.LLMAPIKey = val
	}

	if val := os.Getenv("GATEWAY_TIMEOUT_SEC"); val != "" {
		if sec, err := strconv.Atoi(val); err == nil {
			c.GatewayTimeoutSec = sec
		}
	}
	if val := os.Getenv("MARKET_TIMEOUT_SEC"); val != "" {
		if sec, err := strconv.Atoi(val); err == nil {
			c.MarketTimeoutSec = sec
		}
	}

	if val := os.Getenv("SESSION_BACKEND"); val != "" {
		c.SessionBackend = val
	}
	if val := os.Getenv("SESSION_DB_PATH"); val != "" {
		c.SessionDBPath = val
	}
	if val := os.Getenv("SESSION_TTL_MIN"); val != "" {
		if min, err := strconv.Atoi(val); err == nil {
			c.SessionTTLMin = min
		}
	}

	if val := os.Getenv("ADVISOR_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.GatewayTimeoutSec <= 0 {
		return fmt.Errorf("gateway timeout must be positive, got %d", c.GatewayTimeoutSec)
	}
	if c.MarketTimeoutSec <= 0 {
		return fmt.Errorf("market timeout must be positive, got %d", c.MarketTimeoutSec)
	}
	switch c.SessionBackend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown session backend: %s", c.SessionBackend)
	}
	if c.SessionTTLMin <= 0 {
		return fmt.Errorf("session ttl must be positive, got %d", c.SessionTTLMin)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.GatewayTimeoutSec) * time.Second
}

func (c *Config) MarketTimeout() time.Duration {
	return time.Duration(c.MarketTimeoutSec) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}
