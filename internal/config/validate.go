package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissing marks a required configuration value that is absent.
var ErrMissing = errors.New("missing required config value")

// Durations holds the parsed duration fields of a Config.
type Durations struct {
	LineTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Durations parses all duration fields, applying defaults for empty or zero values.
func (c *Config) Durations() (Durations, error) {
	var (
		d    Durations
		errs []error
	)
	parse := func(dst *time.Duration, path, raw string, def time.Duration) {
		v, err := parseDurationOrDefault(path, raw, def)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}
	parse(&d.LineTimeout, "line.timeout", c.Line.Timeout, 10*time.Second)
	parse(&d.ReadTimeout, "server.read_timeout", c.Server.ReadTimeout, 15*time.Second)
	parse(&d.WriteTimeout, "server.write_timeout", c.Server.WriteTimeout, 30*time.Second)
	parse(&d.IdleTimeout, "server.idle_timeout", c.Server.IdleTimeout, 60*time.Second)
	return d, errors.Join(errs...)
}

// Location resolves alerts.timezone. Empty means process local time.
func (c *Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Alerts.Timezone)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("alerts.timezone: %w", err)
	}
	return loc, nil
}

// Validate reports every problem at once so a broken deployment can be
// fixed in a single pass.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	missing := func(path, env string) {
		errs = append(errs, fmt.Errorf("%w: %s (env %s)", ErrMissing, path, env))
	}
	if strings.TrimSpace(cfg.Line.ChannelAccessToken) == "" {
		missing("line.channel_access_token", EnvAccessToken)
	}
	if strings.TrimSpace(cfg.Line.ChannelSecret) == "" {
		missing("line.channel_secret", EnvSecret)
	}
	if _, err := cfg.Line.Recipients(); err != nil {
		errs = append(errs, fmt.Errorf("%w: line.user_ids (env %s)", ErrMissing, EnvUserIDs))
	}
	if _, err := cfg.Durations(); err != nil {
		errs = append(errs, err)
	}
	if _, err := cfg.Location(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Alerts.Locale)) {
	case "", "en", "th":
	default:
		errs = append(errs, fmt.Errorf("alerts.locale: unsupported locale %q", cfg.Alerts.Locale))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be >= 0"))
	}
	return errors.Join(errs...)
}

func parseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	if d == 0 {
		return def, nil
	}
	return d, nil
}
