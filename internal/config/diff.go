package config

import (
	"strings"

	logx "stockline/pkg/logx"
)

// Change describes what a reload changed.
type Change struct {
	// Sections lists every top-level section that differs.
	Sections []string
	// Ignored lists sections that differ but are only read at startup
	// (credentials, recipients, listener, wording). They take effect after a restart.
	Ignored []string
	// Fields are safe structured attrs for logging; secrets are reported as set/unset only.
	Fields []logx.Field
}

// Reloadable reports whether anything that can be applied live changed.
func (c Change) Reloadable() bool {
	for _, s := range c.Sections {
		if s == "logging" {
			return true
		}
	}
	return false
}

// SummarizeChange compares two configs section by section.
func SummarizeChange(oldCfg, newCfg *Config) Change {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var ch Change

	if oldCfg.Line != newCfg.Line {
		ch.Sections = append(ch.Sections, "line")
		ch.Ignored = append(ch.Ignored, "line")
		ch.Fields = append(ch.Fields,
			logx.Bool("line.token_changed", oldCfg.Line.ChannelAccessToken != newCfg.Line.ChannelAccessToken),
			logx.Bool("line.secret_changed", oldCfg.Line.ChannelSecret != newCfg.Line.ChannelSecret),
			logx.Bool("line.recipients_changed", strings.TrimSpace(oldCfg.Line.UserIDs) != strings.TrimSpace(newCfg.Line.UserIDs)),
		)
	}
	if oldCfg.Server != newCfg.Server {
		ch.Sections = append(ch.Sections, "server")
		ch.Ignored = append(ch.Ignored, "server")
		ch.Fields = append(ch.Fields, logx.String("server.addr", newCfg.Server.Addr))
	}
	if oldCfg.Alerts != newCfg.Alerts {
		ch.Sections = append(ch.Sections, "alerts")
		ch.Ignored = append(ch.Ignored, "alerts")
		ch.Fields = append(ch.Fields,
			logx.String("alerts.locale", newCfg.Alerts.Locale),
			logx.String("alerts.timezone", newCfg.Alerts.Timezone),
		)
	}
	if oldCfg.Logging != newCfg.Logging {
		ch.Sections = append(ch.Sections, "logging")
		ch.Fields = append(ch.Fields,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
			logx.Bool("logging.line_enabled", newCfg.Logging.Line.Enabled),
		)
	}
	return ch
}
