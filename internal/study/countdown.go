package study

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown drives a Session once per second and serialises every other
// access to it. Ticks that land while the session is paused are dropped
// without calling onTick. After Stop returns no tick mutates the session
// and no onTick call is running or pending.
type Countdown struct {
	mu      sync.Mutex
	session *Session
	clock   clockwork.Clock
	onTick  func(TickResult)

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	stopped bool
}

// NewCountdown wraps session. onTick, when set, runs on the countdown
// goroutine after each tick, outside the session lock. onTick must not
// call Stop.
func NewCountdown(session *Session, clock clockwork.Clock, onTick func(TickResult)) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{
		session: session,
		clock:   clock,
		onTick:  onTick,
		done:    make(chan struct{}),
	}
}

// Start launches the ticking goroutine. It returns immediately and does
// nothing on a countdown that was already started or stopped.
func (c *Countdown) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.stopped {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.started = true
	c.mu.Unlock()

	ticker := c.clock.NewTicker(time.Second)
	go func() {
		defer close(c.done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if !c.step() {
					return
				}
			}
		}
	}()
}

// step runs one timer tick and its callback. It reports whether the
// goroutine keeps ticking.
func (c *Countdown) step() bool {
	c.mu.Lock()
	if c.stopped || !c.session.IsActive {
		c.mu.Unlock()
		return false
	}
	if c.session.IsPaused {
		c.mu.Unlock()
		return true
	}
	res := c.session.Tick()
	c.mu.Unlock()

	if c.onTick != nil && !c.isStopped() {
		c.onTick(res)
	}
	return !res.Complete
}

func (c *Countdown) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Tick performs one countdown step synchronously without calling onTick
func (c *Countdown) Tick() TickResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || !c.session.IsActive {
		return TickResult{}
	}
	return c.session.Tick()
}

// Do runs fn with exclusive access to the session. It fails with
// ErrSessionInactive once the countdown is stopped.
func (c *Countdown) Do(fn func(*Session) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrSessionInactive
	}
	return fn(c.session)
}

// Stop cancels the countdown and waits for the ticking goroutine, and so
// for any onTick call in flight, to finish. It is safe to call more than
// once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel, started := c.cancel, c.started
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if started {
		<-c.done
	}
}

// Done is closed when the ticking goroutine started by Start exits
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
