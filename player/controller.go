package player

import (
	"context"
	"errors"
	"sync"

	"a4blend/metrics"

	"go.uber.org/zap"
)

// ErrStopped is returned when the controller loop is no longer running
var ErrStopped = errors.New("player controller stopped")

const eventBufferSize = 64

type request struct {
	ev    Event
	reply chan State
}

// Controller owns the player State. All transitions run on the goroutine
// started by Run, so the state itself needs no lock; the mutex only guards
// the published snapshot.
type Controller struct {
	logger *zap.Logger
	sink   Sink

	requests chan request
	done     chan struct{}

	mu        sync.RWMutex
	snapshot  State
	listeners []func(State)
}

// NewController creates a controller in the Empty state
func NewController(logger *zap.Logger, sink Sink) *Controller {
	return &Controller{
		logger:   logger,
		sink:     sink,
		requests: make(chan request, eventBufferSize),
		done:     make(chan struct{}),
		snapshot: NewState(),
	}
}

// OnChange registers fn to receive every new state. fn runs on the
// controller goroutine and must not call Apply.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns the latest snapshot
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Run processes events until ctx is done
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)

	state := c.State()
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-c.requests:
			state = c.step(state, req.ev)
			if req.reply != nil {
				req.reply <- state
			}
		}
	}
}

func (c *Controller) step(state State, ev Event) State {
	metrics.PlayerEventsTotal.WithLabelValues(ev.Kind.String()).Inc()

	if ev.Kind.IsSinkEvent() && !state.IsEmpty() && IsStale(state, ev) {
		metrics.PlayerStaleEventsTotal.Inc()
		c.logger.Debug("Discarding stale sink event",
			zap.Stringer("event", ev.Kind),
			zap.Uint64("generation", ev.Generation),
			zap.Uint64("current", state.Generation))
		return state
	}

	next, cmds := Reduce(state, ev)

	if ev.Kind != EventTimeUpdate {
		c.logger.Debug("Player transition",
			zap.Stringer("event", ev.Kind),
			zap.Stringer("from", state.Phase()),
			zap.Stringer("to", next.Phase()),
			zap.Int("index", next.Current))
	}

	c.mu.Lock()
	c.snapshot = next
	listeners := c.listeners
	c.mu.Unlock()

	for _, cmd := range cmds {
		c.sink.Apply(cmd)
	}
	for _, fn := range listeners {
		fn(next)
	}
	return next
}

// Dispatch queues ev without waiting for it to be applied
func (c *Controller) Dispatch(ev Event) error {
	select {
	case c.requests <- request{ev: ev}:
		return nil
	case <-c.done:
		return ErrStopped
	}
}

// Apply queues ev and waits for the resulting state
func (c *Controller) Apply(ctx context.Context, ev Event) (State, error) {
	reply := make(chan State, 1)
	select {
	case c.requests <- request{ev: ev, reply: reply}:
	case <-c.done:
		return State{}, ErrStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}

	select {
	case state := <-reply:
		return state, nil
	case <-c.done:
		return State{}, ErrStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
}
