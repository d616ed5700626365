// Package app wires configuration, logging, the LINE client and the HTTP
// server into a running process.
package app

import (
	"context"
	"errors"
	"strings"

	"github.com/coreos/go-systemd/v22/daemon"

	"stockline/internal/alert"
	"stockline/internal/config"
	"stockline/internal/dispatch"
	"stockline/internal/line"
	rtsup "stockline/internal/runtime/supervisor"
	"stockline/internal/server"
	logx "stockline/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager
	cfg  *config.Config

	log  logx.Logger
	logs *logx.Service

	client *line.Client
	http   *server.Service
	sup    *rtsup.Supervisor

	// notify reports service state to systemd; replaced in tests.
	notify func(state string)
}

// New loads the configuration through cfgm and builds every component.
// Nothing listens until Start.
func New(cfgm *config.ConfigManager) (*App, error) {
	if cfgm == nil {
		return nil, errors.New("app: nil config manager")
	}
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	recipients, err := cfg.Line.Recipients()
	if err != nil {
		return nil, err
	}
	durs, err := cfg.Durations()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// The LINE log sink pushes through the client, which itself logs. Start
	// with the sink off, build the client, then apply the final config.
	var client *line.Client
	bootCfg := logConfig(cfg)
	bootCfg.Line.Enabled = false
	logs, log := logx.New(bootCfg, logx.SenderFunc(func(ctx context.Context, to, text string) error {
		return client.Push(ctx, to, text)
	}))

	client, err = line.NewClient(line.Config{
		ChannelAccessToken: cfg.Line.ChannelAccessToken,
		Endpoint:           cfg.Line.Endpoint,
		Timeout:            durs.LineTimeout,
	}, log.With(logx.String("comp", "line")))
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	logs.Apply(logConfig(cfg))

	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(config.Validate)

	formatter := alert.NewFormatter(cfg.Alerts.Locale, loc)
	disp := dispatch.New(client, recipients, log.With(logx.String("comp", "dispatch")))
	hook := line.NewWebhook(
		line.NewVerifier(cfg.Line.ChannelSecret),
		line.LogSender{Log: log.With(logx.String("comp", "webhook"))},
		log.With(logx.String("comp", "webhook")),
	)

	router := server.NewRouter(server.Deps{
		Webhook:      hook,
		Formatter:    formatter,
		Dispatcher:   disp,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Log:          log.With(logx.String("comp", "http")),
	})
	httpSvc := server.New(server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  durs.ReadTimeout,
		WriteTimeout: durs.WriteTimeout,
		IdleTimeout:  durs.IdleTimeout,
	}, router, log)

	log = log.With(logx.String("comp", "app"))
	log.Info("configured",
		logx.Int("recipients", len(recipients)),
		logx.String("locale", formatter.Locale()),
		logx.String("timezone", loc.String()),
		logx.String("config", cfgm.Path()),
	)

	return &App{
		cfgm:   cfgm,
		cfg:    cfg,
		log:    log,
		logs:   logs,
		client: client,
		http:   httpSvc,
		notify: sdNotify,
	}, nil
}

func logConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Line: logx.LineConfig{
			Enabled:    cfg.Logging.Line.Enabled,
			To:         cfg.Logging.Line.To,
			MinLevel:   cfg.Logging.Line.MinLevel,
			RatePerSec: cfg.Logging.Line.RatePerSec,
		},
	}
}

func sdNotify(state string) {
	// Returns false, nil when not running under systemd.
	_, _ = daemon.SdNotify(false, state)
}

// Addr is the HTTP listen address once started.
func (a *App) Addr() string { return a.http.Addr() }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))

	if err := a.http.Start(a.sup.Context()); err != nil {
		a.sup.Cancel()
		return err
	}

	// hot reload: only the logging section is applied live
	sub := a.cfgm.Subscribe(4)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfg
		for {
			select {
			case <-c.Done():
				return nil
			case next, ok := <-sub:
				if !ok {
					return nil
				}
				a.applyReload(last, next)
				last = next
			}
		}
	})
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.notify(daemon.SdNotifyReady)
	a.log.Info("app started", logx.String("addr", a.http.Addr()))
	return nil
}

func (a *App) applyReload(prev, next *config.Config) {
	ch := config.SummarizeChange(prev, next)
	if len(ch.Sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(ch.Sections, ","))}, ch.Fields...)
	if len(ch.Ignored) > 0 {
		a.log.Warn("config changes need a restart to take effect", logx.Strings("sections", ch.Ignored))
	}
	if ch.Reloadable() {
		a.logs.Apply(logConfig(next))
	}
	a.log.Info("config reloaded", fields...)
}

// Stop drains HTTP requests, stops background loops and flushes logging.
func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return a.logs.Close()
	}
	a.notify(daemon.SdNotifyStopping)
	a.log.Info("app stopping")

	var errs []error
	if err := a.http.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.sup.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	a.log.Info("app stopped")
	_ = a.logs.Close()
	return errors.Join(errs...)
}
