package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// LINE text messages are capped at 5000 characters.
const lineMaxText = 4800

// Sender delivers a plain text message to a single LINE user or group.
type Sender interface {
	Push(ctx context.Context, to, text string) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, to, text string) error

func (f SenderFunc) Push(ctx context.Context, to, text string) error { return f(ctx, to, text) }

type lineItem struct {
	to  string
	msg string
}

func (s *Service) startLineWorker() {
	ctx, cancel := context.WithCancel(context.Background())
	s.lineCancel = cancel
	s.lineWG.Add(1)
	go func() {
		defer s.lineWG.Done()
		s.lineWorker(ctx)
	}()
}

func (s *Service) lineWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-s.lineQueue:
			pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			// Failures here cannot be logged without recursing into the sink.
			_ = s.sender.Push(pctx, it.to, it.msg)
			cancel()
		}
	}
}

func (s *Service) enqueueLine(to, msg string) {
	// Never block core logging.
	select {
	case s.lineQueue <- lineItem{to: to, msg: msg}:
	default:
	}
}

// lineWriter is a zerolog LevelWriter forwarding filtered, rate-limited lines
// to the LINE worker.
type lineWriter struct{ svc *Service }

func (w *lineWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.InfoLevel, p)
}

func (w *lineWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	s := w.svc
	if s == nil {
		return len(p), nil
	}

	s.mu.Lock()
	to := s.lineTo
	lim := s.limiter
	min := s.minLevel
	s.mu.Unlock()

	if to == "" || s.sender == nil || lim == nil || level < min {
		return len(p), nil
	}
	if !lim.Allow() {
		return len(p), nil
	}
	if msg := formatLineJSON(p); msg != "" {
		s.enqueueLine(to, msg)
	}
	return len(p), nil
}

// formatLineJSON renders a zerolog JSON line as a short plain-text message.
func formatLineJSON(p []byte) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(p))), &m); err != nil {
		return truncate(strings.TrimSpace(string(p)), lineMaxText)
	}

	lvl, _ := m["level"].(string)
	msg, _ := m["message"].(string)

	var b strings.Builder
	if lvl != "" {
		b.WriteString("[")
		b.WriteString(strings.ToUpper(lvl))
		b.WriteString("] ")
	}
	b.WriteString(msg)

	keys := make([]string, 0, len(m))
	for k := range m {
		switch k {
		case "time", "level", "message":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("\n- ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(truncate(fmt.Sprint(m[k]), 600))
	}
	return truncate(b.String(), lineMaxText)
}

func truncate(s string, maxN int) string {
	if maxN <= 0 || len(s) <= maxN {
		return s
	}
	cut := maxN - 3
	if maxN < 10 {
		cut = maxN
	}
	// Do not split a multi-byte rune.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if maxN < 10 {
		return s[:cut]
	}
	return s[:cut] + "..."
}
