package config

// Config is the whole process configuration.
//
// It is decoded once at startup (file, then .env, then environment) and
// treated as read-only afterwards. Hot reload only re-applies the logging
// section; see SummarizeChange.
type Config struct {
	Line    LineConfig    `json:"line"`
	Server  ServerConfig  `json:"server"`
	Alerts  AlertsConfig  `json:"alerts"`
	Logging LoggingConfig `json:"logging"`
}

// LineConfig holds LINE Messaging API credentials and the recipient list.
//
// UserIDs is the raw comma-separated list as written in config/env;
// use Recipients() for the parsed form.
type LineConfig struct {
	ChannelAccessToken string `json:"channel_access_token"`
	ChannelSecret      string `json:"channel_secret"`
	UserIDs            string `json:"user_ids"`

	// Endpoint overrides the API base URL (e.g. a local mock). Empty uses the SDK default.
	Endpoint string `json:"endpoint,omitempty"`
	// Timeout is a Go duration string applied to each outbound API call.
	Timeout string `json:"timeout,omitempty"`
}

// ServerConfig controls the webhook/alert HTTP listener.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type ServerConfig struct {
	Addr         string `json:"addr,omitempty"` // default: "127.0.0.1:3000"
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
	MaxBodyBytes int64  `json:"max_body_bytes,omitempty"`
}

// AlertsConfig controls notification wording.
type AlertsConfig struct {
	// Locale selects message wording: "en" (default) or "th".
	Locale string `json:"locale,omitempty"`
	// Timezone is an IANA zone name for the timestamp trailer. Empty uses local time.
	Timezone string `json:"timezone,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Line    LoggingLine `json:"line"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingLine pushes WARN+ log lines to an operator (user or group id).
type LoggingLine struct {
	Enabled    bool   `json:"enabled"`
	To         string `json:"to"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "127.0.0.1:3000",
			ReadTimeout:  "15s",
			WriteTimeout: "30s",
			IdleTimeout:  "60s",
			MaxBodyBytes: 1 << 20,
		},
		Alerts: AlertsConfig{Locale: "en"},
		Line:   LineConfig{Timeout: "10s"},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}
