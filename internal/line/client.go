// Package line adapts the LINE Messaging API SDK to stockline: outbound push
// messages, webhook signature verification and inbound event handling.
package line

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	logx "stockline/pkg/logx"
)

// Config for the outbound client.
type Config struct {
	ChannelAccessToken string
	// Endpoint overrides the API base URL. Empty uses the SDK default.
	Endpoint string
	// Timeout bounds each API call. Zero means 10s.
	Timeout time.Duration
}

// Client pushes text messages through the Messaging API.
// It is safe for concurrent use.
type Client struct {
	api *messaging_api.MessagingApiAPI
	log logx.Logger
}

func NewClient(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ChannelAccessToken) == "" {
		return nil, errors.New("line channel access token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := []messaging_api.MessagingApiAPIOption{
		messaging_api.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if ep := strings.TrimSpace(cfg.Endpoint); ep != "" {
		opts = append(opts, messaging_api.WithEndpoint(ep))
	}
	api, err := messaging_api.NewMessagingApiAPI(cfg.ChannelAccessToken, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{api: api, log: log}, nil
}

// Push sends text to a single user, group or room id.
//
// The SDK call itself is bounded by the HTTP client timeout; ctx is only
// checked before the request is issued.
func (c *Client) Push(ctx context.Context, to, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("line push: empty recipient")
	}
	start := time.Now()
	_, err := c.api.PushMessage(&messaging_api.PushMessageRequest{
		To: to,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	}, "")
	if err != nil {
		return err
	}
	c.log.Debug("push sent", logx.String("to", to), logx.Duration("took", time.Since(start)))
	return nil
}
