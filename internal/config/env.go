package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names. The LINE_* names match the ones operators
// already keep in their .env files.
const (
	EnvUserIDs     = "LINE_USER_IDS"
	EnvAccessToken = "LINE_CHANNEL_ACCESS_TOKEN"
	EnvSecret      = "LINE_CHANNEL_SECRET"
	EnvEndpoint    = "LINE_API_ENDPOINT"
	EnvAddr        = "STOCKLINE_ADDR"
	EnvLogLevel    = "STOCKLINE_LOG_LEVEL"
)

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables that are already set are left untouched. A missing file is not an error.
func LoadDotEnv(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment values onto cfg. Empty values are ignored.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if cfg == nil {
		return
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&cfg.Line.UserIDs, EnvUserIDs)
	set(&cfg.Line.ChannelAccessToken, EnvAccessToken)
	set(&cfg.Line.ChannelSecret, EnvSecret)
	set(&cfg.Line.Endpoint, EnvEndpoint)
	set(&cfg.Server.Addr, EnvAddr)
	set(&cfg.Logging.Level, EnvLogLevel)
}
