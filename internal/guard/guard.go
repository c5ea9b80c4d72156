package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrAlreadyMounted is returned by Mount on a guard that is still mounted
var ErrAlreadyMounted = errors.New("guard already mounted")

// SessionResolver streams session state for one visitor. The first value is
// normally {Resolving: true}. Calling the returned function unsubscribes.
type SessionResolver interface {
	Subscribe(ctx context.Context) (<-chan Session, func(), error)
}

// RoleLookup reports whether an administrator marker exists for identity
type RoleLookup interface {
	Lookup(ctx context.Context, identity string) (bool, error)
}

// MarkerWatcher reports identities whose administrator marker changed.
// Calling the returned function stops the watch.
type MarkerWatcher interface {
	Watch(ctx context.Context) (<-chan string, func(), error)
}

// Navigator performs the redirect side effect
type Navigator interface {
	Redirect(dest Destination)
}

// Notifier shows a notice to the visitor
type Notifier interface {
	Notify(severity Severity, title, detail string)
}

// View receives render state changes
type View interface {
	Render(r Render)
}

type noopView struct{}

func (noopView) Render(Render) {}

// Option configures a Guard
type Option func(*Guard)

// WithView sets the view that receives render state changes
func WithView(v View) Option {
	return func(g *Guard) { g.view = v }
}

// WithLogger sets the guard's logger
func WithLogger(l zerolog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithObserver registers a callback invoked on every decision change
func WithObserver(fn func(Decision)) Option {
	return func(g *Guard) { g.observe = fn }
}

// WithMarkerWatcher re-runs the lookup for the current identity whenever w
// reports a change to its marker
func WithMarkerWatcher(w MarkerWatcher) Option {
	return func(g *Guard) { g.markers = w }
}

// Guard enforces the access decision for one mounted view. All session and
// marker state is owned by the goroutine started in Mount; callbacks on the
// Navigator, Notifier and View are made from that goroutine, one at a time.
type Guard struct {
	sessions SessionResolver
	roles    RoleLookup
	markers  MarkerWatcher
	nav      Navigator
	notifier Notifier
	view     View
	logger   zerolog.Logger
	observe  func(Decision)

	mu       sync.Mutex
	decision Decision
	mounted  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a guard. Nothing happens until Mount.
func New(sessions SessionResolver, roles RoleLookup, nav Navigator, notifier Notifier, opts ...Option) *Guard {
	g := &Guard{
		sessions: sessions,
		roles:    roles,
		nav:      nav,
		notifier: notifier,
		view:     noopView{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Mount subscribes to the session resolver and starts evaluating decisions.
// The guard stays mounted until Unmount or until ctx is cancelled.
func (g *Guard) Mount(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mounted {
		return ErrAlreadyMounted
	}

	ctx, cancel := context.WithCancel(ctx)
	updates, unsubscribe, err := g.sessions.Subscribe(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribing to session: %w", err)
	}

	var (
		changes     <-chan string
		stopChanges = func() {}
	)
	if g.markers != nil {
		changes, stopChanges, err = g.markers.Watch(ctx)
		if err != nil {
			unsubscribe()
			cancel()
			return fmt.Errorf("watching admin markers: %w", err)
		}
	}

	g.mounted = true
	g.decision = Pending
	g.cancel = cancel
	g.done = make(chan struct{})

	go g.run(ctx, updates, changes, func() {
		stopChanges()
		unsubscribe()
	}, g.done)
	return nil
}

// Unmount stops the guard and waits for its goroutine to exit. Lookup
// results arriving afterwards are discarded without notices or redirects.
func (g *Guard) Unmount() {
	g.mu.Lock()
	if !g.mounted {
		g.mu.Unlock()
		return
	}
	g.mounted = false
	g.cancel()
	done := g.done
	g.mu.Unlock()

	<-done
}

// Decision returns the current decision
func (g *Guard) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

type lookupResult struct {
	gen      uint64
	identity string
	exists   bool
	err      error
}

func (g *Guard) run(ctx context.Context, updates <-chan Session, changes <-chan string, unsubscribe func(), done chan struct{}) {
	defer close(done)
	defer unsubscribe()

	var (
		session      = Session{Resolving: true}
		marker       Marker
		gen          uint64
		cancelLookup context.CancelFunc = func() {}
		render                          = RenderLoading
		results                         = make(chan lookupResult)
	)
	defer func() { cancelLookup() }()

	g.view.Render(render)

	for {
		select {
		case <-ctx.Done():
			return

		case s, ok := <-updates:
			if !ok {
				// Resolver is finished; the last state holds until unmount.
				updates = nil
				continue
			}
			session = s

			switch {
			case s.Resolving || s.Identity == "":
				// No identity to look up. Bumping gen makes any in-flight
				// result stale.
				cancelLookup()
				gen++
				marker = Marker{}
			case s.Identity != marker.Identity:
				cancelLookup()
				gen++
				marker = Marker{Identity: s.Identity, Resolving: true}
				lookupCtx, cancel := context.WithCancel(ctx)
				cancelLookup = cancel
				go g.lookup(lookupCtx, gen, s.Identity, results)
			}

		case identity, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if session.Resolving || identity == "" || identity != session.Identity {
				continue
			}
			// The current marker stays in effect until the fresh lookup
			// answers; a revoked marker is not a loading state.
			cancelLookup()
			gen++
			lookupCtx, cancel := context.WithCancel(ctx)
			cancelLookup = cancel
			go g.lookup(lookupCtx, gen, identity, results)
			continue

		case r := <-results:
			if r.gen != gen || r.identity != session.Identity {
				g.logger.Debug().
					Str("identity", r.identity).
					Msg("Discarding stale admin marker lookup")
				continue
			}
			cancelLookup()
			cancelLookup = func() {}
			marker = Marker{Identity: r.identity, Exists: r.exists, Err: r.err}
		}

		// Unmount may race a value that was already ready
		if ctx.Err() != nil {
			return
		}

		d := Decide(session, marker)
		if !g.transition(d) {
			continue
		}

		g.logger.Debug().
			Str("decision", d.String()).
			Str("identity", session.Identity).
			Msg("Access decision changed")

		if g.observe != nil {
			g.observe(d)
		}
		if next := RenderFor(d); next != render {
			render = next
			g.view.Render(render)
		}
		if notice, ok := NoticeFor(d, session.Identity, marker.Err); ok {
			g.notifier.Notify(notice.Severity, notice.Title, notice.Detail)
		}
		if dest, ok := DestinationFor(d); ok {
			g.nav.Redirect(dest)
		}
	}
}

// transition records d and reports whether it differs from the previous decision
func (g *Guard) transition(d Decision) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.decision == d {
		return false
	}
	g.decision = d
	return true
}

func (g *Guard) lookup(ctx context.Context, gen uint64, identity string, results chan<- lookupResult) {
	exists, err := g.roles.Lookup(ctx, identity)
	select {
	case results <- lookupResult{gen: gen, identity: identity, exists: exists, err: err}:
	case <-ctx.Done():
	}
}
