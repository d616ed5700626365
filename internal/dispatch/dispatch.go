// Package dispatch fans a message out to every configured recipient.
//
// Delivery is sequential and best-effort: each recipient gets exactly one
// push attempt, a failure is logged and recorded in the Report, and the
// remaining recipients are still attempted. Nothing is retried.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"stockline/internal/config"
	logx "stockline/pkg/logx"
)

// Pusher delivers one text message to one recipient.
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

// Result is the outcome of a single push.
type Result struct {
	To  config.Recipient
	Err error
}

// Report collects per-recipient results in recipient order.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

func (r Report) Delivered() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

func (r Report) Failed() int { return len(r.Results) - r.Delivered() }

// OK reports whether every push succeeded.
func (r Report) OK() bool { return r.Failed() == 0 }

// Dispatcher sends to a fixed recipient list.
type Dispatcher struct {
	pusher     Pusher
	recipients []config.Recipient
	log        logx.Logger
}

// New copies recipients so later changes by the caller are not observed.
func New(p Pusher, recipients []config.Recipient, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	rs := make([]config.Recipient, len(recipients))
	copy(rs, recipients)
	return &Dispatcher{pusher: p, recipients: rs, log: log}
}

// Dispatch pushes text to every recipient in order.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) Report {
	start := time.Now()
	rep := Report{Results: make([]Result, 0, len(d.recipients))}

	for _, to := range d.recipients {
		var err error
		if cerr := ctx.Err(); cerr != nil {
			err = cerr
		} else {
			err = d.pusher.Push(ctx, string(to), text)
		}
		if err != nil {
			err = fmt.Errorf("push to %s: %w", to, err)
			d.log.Warn("push failed", logx.String("to", string(to)), logx.Err(err))
		}
		rep.Results = append(rep.Results, Result{To: to, Err: err})
	}
	rep.Elapsed = time.Since(start)

	fields := []logx.Field{
		logx.Int("recipients", len(rep.Results)),
		logx.Int("delivered", rep.Delivered()),
		logx.Int("failed", rep.Failed()),
		logx.Duration("elapsed", rep.Elapsed),
	}
	if rep.OK() {
		d.log.Info("dispatch complete", fields...)
	} else {
		d.log.Error("dispatch incomplete", fields...)
	}
	return rep
}
