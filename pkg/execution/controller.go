// Package execution decides when committed field values are pushed to the
// host: at once, or accumulated until an explicit run.
package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-paramform/pkg/schema"
)

// Mode selects when commits are delivered.
type Mode int

const (
	// Immediate delivers every commit as it happens.
	Immediate Mode = iota
	// Batched records commits until Flush.
	Batched
)

func (m Mode) String() string {
	if m == Batched {
		return "batched"
	}
	return "immediate"
}

// All asks the host hook to run every following unit.
const All = -1

// DefaultPumpInterval is the time slice between pump steps while waiting.
const DefaultPumpInterval = 10 * time.Millisecond

// Changes maps field names to committed values.
type Changes map[string]any

// Callback receives the schema and the changes being delivered.
type Callback func(ctx context.Context, s *schema.Schema, changed Changes) error

// Hook is the host automation collaborator, asked to run the next n units
// (or All) before the callback fires.
type Hook interface {
	RunNext(ctx context.Context, n int) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, n int) error

// RunNext implements Hook.
func (f HookFunc) RunNext(ctx context.Context, n int) error {
	return f(ctx, n)
}

// Pump is the host event loop step the blocking wait yields to.
type Pump interface {
	Step(ctx context.Context) error
}

// PumpFunc adapts a function to Pump.
type PumpFunc func(ctx context.Context) error

// Step implements Pump.
func (f PumpFunc) Step(ctx context.Context) error {
	return f(ctx)
}

// Option customises a Controller.
type Option func(*Controller)

// WithMode selects immediate or batched delivery.
func WithMode(mode Mode) Option {
	return func(c *Controller) {
		c.mode = mode
	}
}

// WithCallback sets the downstream callback.
func WithCallback(fn Callback) Option {
	return func(c *Controller) {
		c.callback = fn
	}
}

// WithHook sets the host automation hook and how many units it runs.
func WithHook(hook Hook, nextN int) Option {
	return func(c *Controller) {
		c.hook = hook
		c.nextN = nextN
	}
}

// WithNextN sets the unit count passed to the hook.
func WithNextN(n int) Option {
	return func(c *Controller) {
		c.nextN = n
	}
}

// WithPump makes Wait step the host event loop while blocked.
func WithPump(pump Pump, interval time.Duration) Option {
	return func(c *Controller) {
		c.pump = pump
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller delivers commits. Commit, Flush and Execute run on the event
// goroutine; Hold, Release and Wait may be called from any goroutine.
type Controller struct {
	schema   *schema.Schema
	mode     Mode
	callback Callback
	hook     Hook
	nextN    int
	pending  Changes
	pump     Pump
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	held     bool
	released chan struct{}
}

// New constructs a Controller for s.
func New(s *schema.Schema, options ...Option) *Controller {
	c := &Controller{
		schema:   s,
		mode:     Immediate,
		pending:  make(Changes),
		interval: DefaultPumpInterval,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Mode reports the delivery mode.
func (c *Controller) Mode() Mode {
	if c == nil {
		return Immediate
	}
	return c.mode
}

// NextN reports the unit count passed to the hook.
func (c *Controller) NextN() int {
	if c == nil {
		return 0
	}
	return c.nextN
}

// HasRunButton reports whether batched delivery has anything to trigger.
func (c *Controller) HasRunButton() bool {
	if c == nil {
		return false
	}
	return c.mode == Batched && !(c.callback == nil && c.nextN == 0)
}

// RunLabel returns the run button text.
func (c *Controller) RunLabel() string {
	if c == nil || c.nextN == All {
		return "Run"
	}
	return fmt.Sprintf("Run %d", c.nextN)
}

// Commit records a successful edit. Immediate mode delivers it at once;
// batched mode keeps the latest value per field until Flush.
func (c *Controller) Commit(ctx context.Context, name string, value any) error {
	if c == nil {
		return errors.New("execution: controller is nil")
	}
	if c.mode == Batched {
		c.pending[name] = value
		return nil
	}
	return c.Execute(ctx, Changes{name: value})
}

// Flush delivers the pending changes as one notification. The pending set is
// cleared even when delivery fails; the failure is returned.
func (c *Controller) Flush(ctx context.Context) error {
	if c == nil {
		return errors.New("execution: controller is nil")
	}
	changes := c.pending
	c.pending = make(Changes)
	if err := c.Execute(ctx, changes); err != nil {
		c.logger.Error().Err(err).Int("changes", len(changes)).Msg("flush failed")
		return err
	}
	return nil
}

// Execute runs the hook and then the callback with changes, and clears the
// hold flag.
func (c *Controller) Execute(ctx context.Context, changes Changes) error {
	if c == nil {
		return errors.New("execution: controller is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer c.Release()

	if c.hook != nil && (c.nextN == All || c.nextN >= 1) {
		if err := c.hook.RunNext(ctx, c.nextN); err != nil {
			return fmt.Errorf("execution: run next %d: %w", c.nextN, err)
		}
	}
	if c.callback == nil {
		return nil
	}
	if changes == nil {
		changes = Changes{}
	}
	if err := c.callback(ctx, c.schema, changes); err != nil {
		return fmt.Errorf("execution: callback: %w", err)
	}
	return nil
}

// Pending returns a copy of the changes awaiting Flush.
func (c *Controller) Pending() Changes {
	if c == nil {
		return nil
	}
	out := make(Changes, len(c.pending))
	for name, value := range c.pending {
		out[name] = value
	}
	return out
}

// Discard drops the pending changes without delivering them.
func (c *Controller) Discard() {
	if c == nil {
		return
	}
	c.pending = make(Changes)
}

// Hold raises the release flag. Wait blocks until it is cleared.
func (c *Controller) Hold() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held {
		return
	}
	c.held = true
	c.released = make(chan struct{})
}

// Release clears the release flag, waking any waiter.
func (c *Controller) Release() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held {
		return
	}
	c.held = false
	close(c.released)
}

// Held reports whether the release flag is raised.
func (c *Controller) Held() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}

// Wait blocks until the release flag is cleared. There is no built-in
// timeout; ctx is the caller's only other way out. With a pump configured the
// wait steps the host event loop between slices.
func (c *Controller) Wait(ctx context.Context) error {
	if c == nil {
		return errors.New("execution: controller is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	if !c.held {
		c.mu.Unlock()
		return nil
	}
	released := c.released
	c.mu.Unlock()

	if c.pump == nil {
		select {
		case <-released:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-released:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.pump.Step(ctx); err != nil {
				return fmt.Errorf("execution: pump step: %w", err)
			}
		}
	}
}
