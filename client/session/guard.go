package session

import (
	"context"
	"sync"
	"time"

	"github.com/tbox/dashboard/client/store"
	"go.uber.org/zap"
)

// LoginPath is the login entry point unauthorized passes navigate to.
const LoginPath = "/login"

// DefaultVerifyTimeout bounds the remote verification of one pass.
const DefaultVerifyTimeout = 5 * time.Second

// State is the verification outcome of a gating pass.
type State int

const (
	Pending State = iota
	Authorized
	Unauthorized
)

func (s State) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Unauthorized:
		return "unauthorized"
	default:
		return "pending"
	}
}

// View renders the gated content.
type View interface {
	// Loading is shown while a pass is pending.
	Loading()
	// Protected renders the content for an authorized session.
	Protected(record store.SessionRecord)
}

// Navigator moves the client to another screen.
type Navigator interface {
	Navigate(path string)
}

// Guard decides whether protected content may render. Every Mount starts a
// fresh pass; no decision is cached across passes.
type Guard struct {
	sessions  *store.SessionStore
	validator *LocalValidator
	verifier  RemoteVerifier
	view      View
	nav       Navigator
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGuard creates a Guard
func NewGuard(sessions *store.SessionStore, validator *LocalValidator, verifier RemoteVerifier, view View, nav Navigator) *Guard {
	return &Guard{
		sessions:  sessions,
		validator: validator,
		verifier:  verifier,
		view:      view,
		nav:       nav,
		timeout:   DefaultVerifyTimeout,
		logger:    zap.NewNop(),
	}
}

// WithTimeout sets the bound on remote verification. Non-positive values keep
// the default.
func (g *Guard) WithTimeout(timeout time.Duration) *Guard {
	if timeout > 0 {
		g.timeout = timeout
	}
	return g
}

// WithLogger sets the logger
func (g *Guard) WithLogger(logger *zap.Logger) *Guard {
	g.logger = logger
	return g
}

// Pass is one gating pass from Pending to a terminal state.
type Pass struct {
	guard  *Guard
	cancel context.CancelFunc
	done   chan struct{}

	// render is held from the decision through the View or Navigator call
	render sync.Mutex

	mu        sync.Mutex
	state     State
	unmounted bool
	discarded bool
}

// Mount renders the loading view and starts a gating pass.
func (g *Guard) Mount(ctx context.Context) *Pass {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pass{
		guard:  g,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  Pending,
	}

	g.view.Loading()
	go p.run(ctx)
	return p
}

// State returns the current state of the pass
func (p *Pass) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Unmount cancels the pass. A result arriving afterwards is dropped, and a
// render already under way finishes before Unmount returns. View and
// Navigator implementations must not call Unmount themselves.
func (p *Pass) Unmount() {
	p.mu.Lock()
	p.unmounted = true
	if p.state == Pending {
		p.discarded = true
	}
	p.mu.Unlock()
	p.cancel()

	p.render.Lock()
	p.render.Unlock()
}

// Wait blocks until the pass ends and returns its terminal state.
func (p *Pass) Wait(ctx context.Context) (State, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return Pending, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.discarded {
		return Pending, ErrPassDiscarded
	}
	return p.state, nil
}

func (p *Pass) run(ctx context.Context) {
	defer close(p.done)
	defer p.cancel()

	record, state := p.evaluate(ctx)

	p.render.Lock()
	defer p.render.Unlock()

	p.mu.Lock()
	if p.unmounted {
		p.mu.Unlock()
		p.guard.logger.Debug("gating pass discarded")
		return
	}
	p.state = state
	p.mu.Unlock()

	if state == Authorized {
		p.guard.view.Protected(record)
		return
	}
	p.guard.nav.Navigate(LoginPath)
}

func (p *Pass) evaluate(ctx context.Context) (store.SessionRecord, State) {
	g := p.guard

	// read at the start of every pass so a logout in between is seen
	record, ok, err := g.sessions.Load(ctx)
	if err != nil {
		g.logger.Warn("failed to read session", zap.Error(err))
		return store.SessionRecord{}, Unauthorized
	}
	if !ok {
		return store.SessionRecord{}, Unauthorized
	}

	if g.validator.Check(record.Token) == Expired {
		g.logger.Debug("credential expired locally")
		return store.SessionRecord{}, Unauthorized
	}

	verifyCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	// the bound holds even for a verifier that ignores its context
	result := make(chan error, 1)
	go func() {
		result <- g.verifier.Verify(verifyCtx, record.Token)
	}()

	select {
	case err := <-result:
		if err != nil {
			g.logger.Debug("remote verification failed", zap.Error(err))
			return store.SessionRecord{}, Unauthorized
		}
	case <-verifyCtx.Done():
		g.logger.Debug("remote verification abandoned", zap.Error(verifyCtx.Err()))
		return store.SessionRecord{}, Unauthorized
	}
	return record, Authorized
}
