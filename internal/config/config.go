package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv             string
	Port               string
	LogLevel           string
	LogFormat          string
	DatabasePath       string
	WordsDir           string
	LookupURL          string
	LookupTimeout      time.Duration
	CombinationTimeout time.Duration
	CombinationDepth   int
	SessionSecret      string
	SessionIdleTTL     time.Duration
	ClientOrigin       string
}

// Load reads configuration from the environment. Call godotenv.Load first to
// pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "5175"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		DatabasePath:  getEnv("DATABASE_PATH", "./data/words.db"),
		WordsDir:      getEnv("WORDS_DIR", ""),
		LookupURL:     getEnv("LOOKUP_URL", ""),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		ClientOrigin:  getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
	}

	var err error
	if cfg.LookupTimeout, err = getDuration("LOOKUP_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.CombinationTimeout, err = getDuration("COMBINATION_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = getDuration("SESSION_IDLE_TTL", 2*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CombinationDepth, err = getInt("COMBINATION_DEPTH", 3); err != nil {
		return nil, err
	}
	if cfg.CombinationDepth < 1 {
		return nil, fmt.Errorf("COMBINATION_DEPTH must be at least 1")
	}

	if cfg.LookupURL == "" {
		cfg.LookupURL = "http://127.0.0.1:" + cfg.Port
	}
	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SESSION_SECRET is required in production")
		}
		cfg.SessionSecret = "dev_secret_change_me"
	}
	if len(cfg.SessionSecret) < 10 {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 10 characters")
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
