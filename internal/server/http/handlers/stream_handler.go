package handlers

import (
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/pubsub"
	"github.com/dominatehq/payportal/internal/server/http/middleware"
	"github.com/dominatehq/payportal/internal/tracker"
)

// StreamHandler serves live order snapshots over server-sent events. Each
// connection gets its own tracker, so a dropped client releases its topic
// subscription immediately.
type StreamHandler struct {
	facade       OrderFacade
	events       *pubsub.Manager
	recheckDelay time.Duration
	logger       *slog.Logger
}

// NewStreamHandler constructs StreamHandler.
func NewStreamHandler(facade OrderFacade, events *pubsub.Manager, recheckDelay time.Duration, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		facade:       facade,
		events:       events,
		recheckDelay: recheckDelay,
		logger:       logger,
	}
}

// Stream handles GET /api/order/:id/stream.
func (h *StreamHandler) Stream(c *gin.Context) {
	token := middleware.Token(c)
	orderCode := c.Param("id")
	if orderCode == "" {
		missingParams(c)
		return
	}

	updates := make(chan *model.Order, 1)
	t := tracker.New(h.facade, h.events, orderCode, token, h.recheckDelay, func(order *model.Order) {
		// Drop instead of block; the next update supersedes this one anyway.
		select {
		case updates <- order:
		default:
		}
	}, h.logger)

	if err := t.Start(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	defer t.Stop()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	if order := t.Order(); order != nil {
		c.SSEvent("order", toOrderResponse(order))
		c.Writer.Flush()
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case order := <-updates:
			c.SSEvent("order", toOrderResponse(order))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
