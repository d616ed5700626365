package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	logx "stockline/pkg/logx"
)

// ErrInvalidCallback is returned when a correctly signed body is not a
// callback document.
var ErrInvalidCallback = errors.New("invalid callback body")

// EventHandler reacts to inbound webhook events. New chat behavior belongs
// here; the verification path in Webhook stays untouched.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev webhook.EventInterface) error
}

// LogSender logs who sent each text message and does nothing else.
// Operators use it to discover user ids for LINE_USER_IDS.
type LogSender struct {
	Log logx.Logger
}

func (h LogSender) HandleEvent(_ context.Context, ev webhook.EventInterface) error {
	me, ok := ev.(webhook.MessageEvent)
	if !ok {
		return nil
	}
	if _, ok := me.Message.(webhook.TextMessageContent); !ok {
		return nil
	}
	h.Log.Info("message received", logx.String("from", SenderID(me.Source)))
	return nil
}

// SenderID returns the user id of an event source, or "" if unknown.
func SenderID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}

// Webhook verifies callback bodies and hands each event to a handler.
type Webhook struct {
	verifier Verifier
	handler  EventHandler
	log      logx.Logger
}

func NewWebhook(v Verifier, h EventHandler, log logx.Logger) *Webhook {
	if log.IsZero() {
		log = logx.Nop()
	}
	if h == nil {
		h = LogSender{Log: log}
	}
	return &Webhook{verifier: v, handler: h, log: log}
}

// Handle verifies body, decodes it and runs the handler for every event.
// Handler errors are logged and never returned: LINE only needs to know the
// delivery was accepted.
func (w *Webhook) Handle(ctx context.Context, body []byte, signature string) error {
	if err := w.verifier.Verify(body, signature); err != nil {
		return err
	}
	var cb webhook.CallbackRequest
	if err := json.Unmarshal(body, &cb); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	for _, ev := range cb.Events {
		if err := w.handler.HandleEvent(ctx, ev); err != nil {
			w.log.Warn("event handler failed", logx.String("destination", cb.Destination), logx.Err(err))
		}
	}
	return nil
}
