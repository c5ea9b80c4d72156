package roles

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adspot-dev/adspot/internal/events"
)

// Watcher reports users whose administrator marker was granted or revoked.
// It implements guard.MarkerWatcher.
type Watcher struct {
	bus    events.Subscriber
	logger zerolog.Logger
}

// NewWatcher creates a watcher fed by role change events on bus
func NewWatcher(bus events.Subscriber, logger zerolog.Logger) *Watcher {
	return &Watcher{
		bus:    bus,
		logger: logger.With().Str("component", "role_watcher").Logger(),
	}
}

// Watch emits the user id of every role change until ctx ends or the
// returned function is called
func (w *Watcher) Watch(ctx context.Context) (<-chan string, func(), error) {
	changes, unsub, err := w.bus.Subscribe(events.TopicRoleChanged)
	if err != nil {
		return nil, nil, fmt.Errorf("subscribing to role changes: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan string)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-changes:
				if !ok {
					return
				}
				event, err := events.Decode[events.RoleChanged](payload)
				if err != nil {
					w.logger.Warn().Err(err).Msg("Ignoring malformed role event")
					continue
				}
				select {
				case out <- event.UserID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
			unsub()
		})
	}
	return out, stop, nil
}
