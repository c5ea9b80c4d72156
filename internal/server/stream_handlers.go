package server

import (
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adspot-dev/adspot/internal/auth"
	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/guard"
	"github.com/adspot-dev/adspot/internal/metrics"
	"github.com/adspot-dev/adspot/internal/roles"
)

const streamKeepAlive = 25 * time.Second

type streamEvent struct {
	name string
	data any
}

// streamSink turns guard callbacks into server-sent events
type streamSink struct {
	ctx context.Context
	out chan<- streamEvent
}

func (s streamSink) push(ev streamEvent) {
	select {
	case s.out <- ev:
	case <-s.ctx.Done():
	}
}

func (s streamSink) Render(r guard.Render) {
	s.push(streamEvent{name: "render", data: r.String()})
}

func (s streamSink) Notify(severity guard.Severity, title, detail string) {
	s.push(streamEvent{name: "notice", data: guard.Notice{Severity: severity, Title: title, Detail: detail}})
}

func (s streamSink) Redirect(dest guard.Destination) {
	s.push(streamEvent{name: "redirect", data: gin.H{"to": string(dest)}})
}

// @Summary Admin live stream
// @Description Server-sent events for the admin dashboard. The connection stays
// @Description guarded: sign-out or a revoked role ends it with a redirect event.
// @Tags admin
// @Produce text/event-stream
// @Param token query string false "Bearer token (EventSource cannot set headers)"
// @Router /admin/stream [get]
func (s *Server) adminStream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token, _ = extractBearerToken(c.GetHeader("Authorization"))
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	out := make(chan streamEvent, 8)
	sink := streamSink{ctx: ctx, out: out}

	var granted atomic.Bool
	watcher := auth.NewSessionWatcher(s.db, s.tokens, s.bus, token, s.logger)
	g := guard.New(watcher, s.roles, sink, sink,
		guard.WithView(sink),
		guard.WithMarkerWatcher(roles.NewWatcher(s.bus, s.logger)),
		guard.WithLogger(s.logger.With().Str("component", "admin_stream").Logger()),
		guard.WithObserver(func(d guard.Decision) {
			granted.Store(d == guard.Granted)
			if d != guard.Pending {
				metrics.RecordAccessDecision(d.String(), "stream")
			}
		}),
	)

	var changes <-chan []byte
	if ch, unsubscribe, err := s.bus.Subscribe(events.TopicBillboardChanged); err != nil {
		s.logger.Warn().Err(err).Msg("Admin stream running without billboard updates")
	} else {
		changes = ch
		defer unsubscribe()
	}

	if err := g.Mount(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to mount admin guard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer func() {
		cancel()
		g.Unmount()
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false

		case ev := <-out:
			c.SSEvent(ev.name, ev.data)
			return ev.name != "redirect"

		case payload, ok := <-changes:
			if !ok {
				changes = nil
				return true
			}
			if !granted.Load() {
				return true
			}
			change, err := events.Decode[events.BillboardChanged](payload)
			if err != nil {
				s.logger.Warn().Err(err).Msg("Ignoring malformed billboard event")
				return true
			}
			c.SSEvent("billboard", change)
			return true

		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().UTC().Unix())
			return true
		}
	})
}
