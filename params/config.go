package params

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Simulation struct {
	// TickInterval is the production/price period. Every tick is followed by
	// one snapshot push to WebSocket subscribers.
	TickInterval time.Duration
}

type API struct {
	Addr           string
	AllowedOrigins []string
}

type Storage struct {
	Backend string // "pebble", "journal", "memory" or "none"
	Path    string
}

type Trader struct {
	Enabled   bool
	Interval  time.Duration
	MaxAmount float64
	Seed      int64 // 0 seeds from the wall clock
}

type Log struct {
	File    string
	Level   string
	Verbose bool
}

type Config struct {
	Simulation Simulation
	API        API
	Storage    Storage
	Trader     Trader
	Log        Log
}

func Default() Config {
	return Config{
		Simulation: Simulation{
			TickInterval: 100 * time.Millisecond,
		},
		API: API{
			Addr:           ":8001",
			AllowedOrigins: []string{"http://localhost:8000", "http://127.0.0.1:8000"},
		},
		Storage: Storage{
			Backend: "pebble",
			Path:    "data/trades",
		},
		Trader: Trader{
			Enabled:   false,
			Interval:  2 * time.Second,
			MaxAmount: 10,
		},
		Log: Log{
			File:  "data/village.log",
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if ms, ok := envMillis("SIM_TICK_MS"); ok {
		cfg.Simulation.TickInterval = ms
	}

	cfg.API.Addr = getEnv("API_ADDR", cfg.API.Addr)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.API.AllowedOrigins = splitList(origins)
	}

	cfg.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", cfg.Storage.Backend))
	cfg.Storage.Path = getEnv("STORAGE_PATH", cfg.Storage.Path)

	if enabled := os.Getenv("ENABLE_TRADER"); enabled != "" {
		cfg.Trader.Enabled = enabled == "true"
	}
	if ms, ok := envMillis("TRADER_INTERVAL_MS"); ok {
		cfg.Trader.Interval = ms
	}
	if v := os.Getenv("TRADER_MAX_AMOUNT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Trader.MaxAmount = f
		}
	}
	if v := os.Getenv("TRADER_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Trader.Seed = seed
		}
	}

	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	if verbose := os.Getenv("VERBOSE"); verbose != "" {
		cfg.Log.Verbose = verbose == "true"
	}

	return cfg
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.Simulation.TickInterval)
	}
	switch c.Storage.Backend {
	case "pebble", "journal", "memory", "none":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if (c.Storage.Backend == "pebble" || c.Storage.Backend == "journal") && c.Storage.Path == "" {
		return fmt.Errorf("storage backend %q needs a path", c.Storage.Backend)
	}
	if c.Trader.Enabled {
		if c.Trader.Interval <= 0 {
			return fmt.Errorf("trader interval must be positive, got %v", c.Trader.Interval)
		}
		if c.Trader.MaxAmount < 1 {
			return fmt.Errorf("trader max amount must be at least 1, got %v", c.Trader.MaxAmount)
		}
	}
	return nil
}

func envMillis(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
