// Package run drives the render goroutine of a graph context.
package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/metric"
)

// ErrPanic is wrapped by the error returned from Wait if rendering
// panicked.
var ErrPanic = errors.New("render panic")

type (
	// Run renders quanta of the context on its own goroutine.
	Run struct {
		cancelFn context.CancelFunc
		errc     chan error
		quanta   atomic.Uint64
		overruns atomic.Uint64
	}

	// Stats contains counters of the run.
	Stats struct {
		Quanta   uint64
		Overruns uint64
	}

	// SinkFunc receives the rendered destination bus. The bus is reused
	// after the call returns.
	SinkFunc func(b *graph.Bus) error

	// FlushFunc is called once when rendering is done.
	FlushFunc func() error

	// Option configures the run.
	Option func(*config)

	config struct {
		quanta   uint64
		realtime bool
		sinks    []SinkFunc
		flushes  []FlushFunc
	}
)

// WithQuanta limits number of rendered quanta. Zero means no limit.
func WithQuanta(n uint64) Option {
	return func(c *config) {
		c.quanta = n
	}
}

// WithDuration limits the run by duration of rendered signal.
func WithDuration(c *graph.Context, d time.Duration) Option {
	quantum := metric.DurationOf(c.SampleRate(), c.QuantumSize())
	n := uint64(d / quantum)
	if d%quantum != 0 {
		n++
	}
	return WithQuanta(n)
}

// Realtime paces rendering with the wall clock. A quantum that takes
// longer than its duration is counted as overrun.
func Realtime() Option {
	return func(c *config) {
		c.realtime = true
	}
}

// WithSink adds a consumer of the destination bus.
func WithSink(fn SinkFunc) Option {
	return func(c *config) {
		c.sinks = append(c.sinks, fn)
	}
}

// WithFlush adds a hook that is called when rendering is done.
func WithFlush(fn FlushFunc) Option {
	return func(c *config) {
		c.flushes = append(c.flushes, fn)
	}
}

// New starts rendering of the context. Cancellation of ctx stops it.
func New(ctx context.Context, c *graph.Context, options ...Option) *Run {
	var cfg config
	for _, option := range options {
		option(&cfg)
	}
	ctx, cancelFn := context.WithCancel(ctx)
	r := Run{
		cancelFn: cancelFn,
		errc:     make(chan error, 1),
	}
	go r.run(ctx, c, cfg)
	return &r
}

// Stop stops rendering. Wait should be used to wait until render goroutine
// is done.
func (r *Run) Stop() {
	r.cancelFn()
}

// Wait blocks until rendering is done and returns its error.
func (r *Run) Wait() error {
	return <-r.errc
}

// Stats returns counters of the run. Safe to call from any goroutine.
func (r *Run) Stats() Stats {
	return Stats{
		Quanta:   r.quanta.Load(),
		Overruns: r.overruns.Load(),
	}
}

func (r *Run) run(ctx context.Context, c *graph.Context, cfg config) {
	defer close(r.errc)
	defer r.cancelFn()
	var errs runErrors
	if err := r.render(ctx, c, cfg); err != nil {
		errs = append(errs, err)
	}
	for _, fn := range cfg.flushes {
		if err := fn(); err != nil {
			errs = append(errs, fmt.Errorf("error flushing: %w", err))
		}
	}
	r.errc <- errs.ret()
}

func (r *Run) render(ctx context.Context, c *graph.Context, cfg config) (err error) {
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok {
				err = fmt.Errorf("%w after %d quanta: %w", ErrPanic, r.quanta.Load(), e)
				return
			}
			err = fmt.Errorf("%w after %d quanta: %v", ErrPanic, r.quanta.Load(), p)
		}
	}()

	out := graph.NewBus(c.Channels(), c.QuantumSize())
	period := metric.DurationOf(c.SampleRate(), c.QuantumSize())
	var ticker *time.Ticker
	if cfg.realtime {
		ticker = time.NewTicker(period)
		defer ticker.Stop()
	}
	for cfg.quanta == 0 || r.quanta.Load() < cfg.quanta {
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil
			}
		} else {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}

		started := time.Now()
		c.Render(out)
		for _, fn := range cfg.sinks {
			if err := fn(out); err != nil {
				return fmt.Errorf("error sinking quantum %d: %w", r.quanta.Load(), err)
			}
		}
		r.quanta.Add(1)
		if cfg.realtime && time.Since(started) > period {
			r.overruns.Add(1)
		}
	}
	return nil
}

// runErrors wraps errors that might occur when both rendering and
// flushing fail.
type runErrors []error

func (e runErrors) Error() string {
	s := []string{}
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Unwrap allows errors.Is to match any of wrapped errors.
func (e runErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if error list is empty.
func (e runErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}
