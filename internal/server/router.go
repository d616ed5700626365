// Package server exposes the webhook and alert routes over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockline/internal/alert"
	"stockline/internal/dispatch"
	"stockline/internal/line"
	logx "stockline/pkg/logx"
)

const (
	invalidSignatureText = "Invalid signature. Please check your channel access token/channel secret."
	invalidRequestText   = "Invalid request"
)

// CallbackHandler verifies and processes a LINE webhook body.
type CallbackHandler interface {
	Handle(ctx context.Context, body []byte, signature string) error
}

// Dispatcher fans a message out to every recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, text string) dispatch.Report
}

// Deps are the collaborators the routes need.
type Deps struct {
	Webhook    CallbackHandler
	Formatter  alert.Formatter
	Dispatcher Dispatcher
	// Now defaults to time.Now.
	Now          func() time.Time
	MaxBodyBytes int64
	Log          logx.Logger
}

// NewRouter builds the gin engine serving all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestLog(d.Log), recovery(d.Log), limitBody(d.MaxBodyBytes))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/callback", callbackHandler(d))
	r.POST("/alert-pickup-part", alertHandler(d, alert.Pickup))
	r.POST("/alert-add-part", alertHandler(d, alert.Addition))
	return r
}

func callbackHandler(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			d.Log.Warn("callback body read failed", logx.Err(err))
			c.String(http.StatusBadRequest, invalidRequestText)
			return
		}

		err = d.Webhook.Handle(c.Request.Context(), body, c.GetHeader(line.SignatureHeader))
		switch {
		case err == nil:
			c.String(http.StatusOK, "OK")
		case errors.Is(err, line.ErrInvalidSignature):
			d.Log.Warn("callback rejected", logx.String("reason", "signature"), logx.String("remote", c.ClientIP()))
			c.String(http.StatusBadRequest, invalidSignatureText)
		default:
			d.Log.Warn("callback rejected", logx.String("reason", "body"), logx.Err(err))
			c.String(http.StatusBadRequest, invalidRequestText)
		}
	}
}

func alertHandler(d Deps, kind alert.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := alert.Decode(c.Request.Body)
		if err != nil {
			d.Log.Warn("alert rejected", logx.String("kind", kind.String()), logx.Err(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data"})
			return
		}

		text := d.Formatter.Format(kind, p, d.Now())
		// Delivery continues if the caller hangs up mid fan-out.
		rep := d.Dispatcher.Dispatch(context.WithoutCancel(c.Request.Context()), text)
		d.Log.Debug("alert handled",
			logx.String("kind", kind.String()),
			logx.String("employee", p.Actor()),
			logx.Int("items", len(p.Items())),
			logx.Int("delivered", rep.Delivered()),
			logx.Int("failed", rep.Failed()),
		)
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
