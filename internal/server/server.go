package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	rtsup "stockline/internal/runtime/supervisor"
	logx "stockline/pkg/logx"
)

const defaultAddr = "127.0.0.1:3000"

// Config controls the HTTP listener.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Service runs an http.Server under a supervisor so that an unexpected
// Serve exit is retried with backoff.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	handler http.Handler
	log     logx.Logger

	ln       net.Listener
	srv      *http.Server
	sup      *rtsup.Supervisor
	stopping bool
}

func New(cfg Config, handler http.Handler, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = defaultAddr
	}
	return &Service{cfg: cfg, handler: handler, log: log.With(logx.String("comp", "http"))}
}

// Start binds the listener and begins serving in the background.
// Bind errors are returned so a bad address fails startup.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.stopping = false
	s.sup = rtsup.New(ctx, rtsup.WithLogger(s.log))
	s.sup.GoRestart("http.serve", s.serveOnce, rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second))
	s.log.Info("http server listening", logx.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listen address, or "" when not listening.
func (s *Service) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Service) serveOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return context.Canceled
	}
	ln := s.ln
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			s.mu.Unlock()
			s.log.Error("http listen failed", logx.String("addr", s.cfg.Addr), logx.Err(err))
			return err
		}
		s.ln = ln
	}
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	s.srv = srv
	s.mu.Unlock()

	// Stop does the graceful shutdown; this only covers a canceled parent context.
	stop := context.AfterFunc(ctx, func() {
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(cctx)
	})
	defer stop()

	err := srv.Serve(ln)

	s.mu.Lock()
	if s.srv == srv {
		s.srv = nil
		s.ln = nil // Serve closed it
	}
	stopping := s.stopping
	s.mu.Unlock()

	if stopping || ctx.Err() != nil {
		return context.Canceled
	}
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return errors.New("http server exited unexpectedly")
	}
	return err
}

// Stop drains in-flight requests until ctx expires, then closes the server.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.sup == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	srv, ln, sup := s.srv, s.ln, s.sup
	s.mu.Unlock()

	var err error
	if srv != nil {
		if err = srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
		}
	} else if ln != nil {
		_ = ln.Close()
	}
	sup.Cancel()
	if werr := sup.Wait(ctx); err == nil {
		err = werr
	}

	s.mu.Lock()
	s.ln, s.srv, s.sup = nil, nil, nil
	s.mu.Unlock()
	s.log.Info("http server stopped")
	return err
}
