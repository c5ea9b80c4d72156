package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adspot-dev/adspot/internal/events"
	"github.com/adspot-dev/adspot/internal/guard"
)

// SessionWatcher streams the session state behind one bearer token. It
// implements guard.SessionResolver.
type SessionWatcher struct {
	db     *gorm.DB
	tokens *Tokens
	bus    events.Subscriber
	token  string
	logger zerolog.Logger
}

// NewSessionWatcher creates a watcher for token. bus may be nil, in which
// case sign-outs elsewhere are only noticed on the next request.
func NewSessionWatcher(db *gorm.DB, tokens *Tokens, bus events.Subscriber, token string, logger zerolog.Logger) *SessionWatcher {
	return &SessionWatcher{
		db:     db,
		tokens: tokens,
		bus:    bus,
		token:  token,
		logger: logger.With().Str("component", "session_watcher").Logger(),
	}
}

// Subscribe emits {Resolving: true}, then the resolved session. After that
// it emits {} once, when the user signs out or the token expires.
func (w *SessionWatcher) Subscribe(ctx context.Context) (<-chan guard.Session, func(), error) {
	var (
		revoked <-chan []byte
		unsub   = func() {}
	)
	if w.bus != nil {
		ch, cancel, err := w.bus.Subscribe(events.TopicSessionRevoked)
		if err != nil {
			return nil, nil, fmt.Errorf("subscribing to session revocations: %w", err)
		}
		revoked = ch
		unsub = cancel
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan guard.Session)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		w.watch(ctx, revoked, out)
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

func (w *SessionWatcher) watch(ctx context.Context, revoked <-chan []byte, out chan<- guard.Session) {
	send := func(s guard.Session) bool {
		select {
		case out <- s:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if !send(guard.Session{Resolving: true}) {
		return
	}

	data, err := ResolveToken(ctx, w.db, w.tokens, w.token)
	if err != nil {
		w.logger.Debug().Err(err).Msg("Token did not resolve to a session")
		send(guard.Session{})
		return
	}
	if !send(guard.Session{Identity: data.UserID}) {
		return
	}

	var expired <-chan time.Time
	if !data.ExpiresAt.IsZero() {
		timer := time.NewTimer(time.Until(data.ExpiresAt))
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-expired:
			w.logger.Debug().Str("user_id", data.UserID).Msg("Session expired")
			send(guard.Session{})
			return

		case payload, ok := <-revoked:
			if !ok {
				revoked = nil
				continue
			}
			event, err := events.Decode[events.SessionRevoked](payload)
			if err != nil {
				w.logger.Warn().Err(err).Msg("Ignoring malformed session event")
				continue
			}
			if event.UserID != data.UserID {
				continue
			}
			w.logger.Debug().Str("user_id", data.UserID).Msg("Session revoked")
			send(guard.Session{})
			return
		}
	}
}
