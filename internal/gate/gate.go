// Package gate blocks the application until the backend reports ready.
package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/resumexpert/internal/observability"
)

// DefaultInterval is the delay between a failed probe resolving and the next probe.
const DefaultInterval = 2000 * time.Millisecond

// Checker probes backend readiness. Implementations bound each probe with
// their own timeout and report any failure as false.
type Checker interface {
	CheckHealth(ctx context.Context) bool
}

// State is the gate's view of the backend.
type State string

const (
	Checking State = "checking"
	Online   State = "online"
)

// Event is delivered to the listener on every state application.
type Event struct {
	State   State
	Attempt int
}

// Listener observes gate transitions. It must not call Cancel on the handle
// it is observing.
type Listener func(Event)

// Options configures a Gate.
type Options struct {
	Interval time.Duration
	Listener Listener
	Logger   logrus.FieldLogger
}

// Gate polls a Checker until it succeeds.
type Gate struct {
	checker  Checker
	interval time.Duration
	listener Listener
	log      logrus.FieldLogger
}

// New creates a gate over checker.
func New(checker Checker, opts Options) *Gate {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Gate{
		checker:  checker,
		interval: opts.Interval,
		listener: opts.Listener,
		log:      observability.Component(opts.Logger, "gate"),
	}
}

// Handle controls one polling loop started by Start.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	online chan struct{}

	cancelled atomic.Bool
	notifyMu  sync.Mutex // serializes state application against Cancel

	stateMu sync.RWMutex
	state   State
	attempt int
}

// Start begins probing in the background. Probing stops when the backend is
// online, when ctx ends, or when Cancel is called.
func (g *Gate) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
		online: make(chan struct{}),
		state:  Checking,
	}
	go g.run(ctx, h)
	return h
}

func (g *Gate) run(ctx context.Context, h *Handle) {
	defer close(h.done)
	defer h.cancel()

	for attempt := 1; ; attempt++ {
		if !h.apply(Event{State: Checking, Attempt: attempt}, g.listener) {
			return
		}

		ok := g.checker.CheckHealth(ctx)
		if ctx.Err() != nil {
			return
		}
		if ok {
			if h.apply(Event{State: Online, Attempt: attempt}, g.listener) {
				g.log.WithField("attempt", attempt).Info("backend online")
			}
			return
		}

		g.log.WithFields(logrus.Fields{"attempt": attempt, "retry_in": g.interval}).Debug("backend not ready")

		// The next probe is scheduled only after this one resolved.
		timer := time.NewTimer(g.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// apply records ev and notifies the listener unless the handle was cancelled.
func (h *Handle) apply(ev Event, listener Listener) bool {
	h.notifyMu.Lock()
	defer h.notifyMu.Unlock()

	if h.cancelled.Load() {
		return false
	}

	h.stateMu.Lock()
	h.state = ev.State
	h.attempt = ev.Attempt
	h.stateMu.Unlock()

	if ev.State == Online {
		close(h.online)
	}
	if listener != nil {
		listener(ev)
	}
	return true
}

// Cancel stops polling. Once Cancel returns no further state is applied and
// the listener is not invoked again. Cancel is idempotent.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
	h.cancel()
	// Wait out a listener call that was already in progress.
	h.notifyMu.Lock()
	h.notifyMu.Unlock() //nolint:staticcheck // barrier
}

// Done is closed when the polling loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Online is closed when the backend has been observed ready.
func (h *Handle) Online() <-chan struct{} {
	return h.online
}

// State returns the last applied state and the attempt that produced it.
func (h *Handle) State() (State, int) {
	h.stateMu.RLock()
	defer h.stateMu.RUnlock()
	return h.state, h.attempt
}

// Wait blocks until the backend is online or ctx ends.
func (g *Gate) Wait(ctx context.Context) error {
	h := g.Start(ctx)
	select {
	case <-h.Online():
		return nil
	case <-ctx.Done():
		h.Cancel()
		<-h.Done()
		return ctx.Err()
	}
}
