package redis

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/cacheable"
)

const defaultURL = "redis://localhost:6379/0"

// Environment variables read by ConfigFromEnv.
const (
	EnvURL        = "CACHE_REDIS_URL"
	EnvKeyPrefix  = "CACHE_KEY_PREFIX"
	EnvMaxRetries = "CACHE_MAX_RETRIES"
)

// ConfigFromEnv builds a Config from CACHE_REDIS_URL (default
// redis://localhost:6379/0), CACHE_KEY_PREFIX and CACHE_MAX_RETRIES.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:       strings.TrimSpace(os.Getenv(EnvURL)),
		KeyPrefix: os.Getenv(EnvKeyPrefix),
	}
	if cfg.URL == "" {
		cfg.URL = defaultURL
	}
	if v := strings.TrimSpace(os.Getenv(EnvMaxRetries)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, &cacheable.ConfigError{Msg: fmt.Sprintf("redis provider: %s=%q", EnvMaxRetries, v), Err: err}
		}
		cfg.MaxRetries = n
	}
	return cfg, nil
}
