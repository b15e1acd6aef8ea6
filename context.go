package graph

import (
	"fmt"
	"sync"
)

const (
	// DefaultQuantumSize is the number of frames in a render quantum.
	DefaultQuantumSize = 128
	// DefaultSampleRate is used if no other provided.
	DefaultSampleRate = 44100
	// DefaultChannels is the number of destination channels.
	DefaultChannels = 2
)

type (
	// Context owns the graph: the destination node and everything
	// reachable from it. It holds the two locks: graph lock guards
	// topology changes and render lock guards the render goroutine.
	Context struct {
		graphMu  sync.Mutex
		renderMu sync.Mutex

		sampleRate  int
		quantumSize int
		channels    int
		metered     bool
		log         Logger

		destination *Node

		// live state, graph lock.
		dirtyInputs        map[*Input]struct{}
		dirtyOutputs       map[*Output]struct{}
		dirtyParams        map[*Param]struct{}
		automaticPull      map[*Node]struct{}
		stagedAutoPull     []*Node
		automaticPullDirty bool
		scheduled          []func(r *RenderLock)
		enableRequests     []*Node

		// render goroutine only. Tokens are reused, so rendering doesn't
		// allocate.
		started           bool
		quantum           uint64
		finished          *Node
		renderingAutoPull []*Node
		renderLock        RenderLock
		boundaryGraphLock GraphLock
		boundary          Boundary
	}

	// Option provides a way to set functional parameters to context.
	Option func(c *Context) error

	// Logger is a global interface for graph loggers.
	Logger interface {
		Debug(...interface{})
		Info(...interface{})
	}
)

// NewContext creates a new context and applies provided options.
func NewContext(options ...Option) (*Context, error) {
	c := &Context{
		sampleRate:    DefaultSampleRate,
		quantumSize:   DefaultQuantumSize,
		channels:      DefaultChannels,
		log:           defaultLogger,
		dirtyInputs:   make(map[*Input]struct{}),
		dirtyOutputs:  make(map[*Output]struct{}),
		dirtyParams:   make(map[*Param]struct{}),
		automaticPull: make(map[*Node]struct{}),
	}
	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}
	c.destination = c.NewNode(
		&destination{bus: NewBus(c.channels, c.quantumSize)},
		WithName("destination"),
		WithInputs(1),
	)
	return c, nil
}

// WithSampleRate sets sample rate of the context.
func WithSampleRate(sampleRate int) Option {
	return func(c *Context) error {
		if sampleRate <= 0 {
			return fmt.Errorf("sample rate %d: %w", sampleRate, ErrInvalidState)
		}
		c.sampleRate = sampleRate
		return nil
	}
}

// WithQuantumSize sets number of frames in render quantum.
func WithQuantumSize(frames int) Option {
	return func(c *Context) error {
		if frames <= 0 {
			return fmt.Errorf("quantum size %d: %w", frames, ErrInvalidState)
		}
		c.quantumSize = frames
		return nil
	}
}

// WithChannels sets number of destination channels.
func WithChannels(channels int) Option {
	return func(c *Context) error {
		if channels <= 0 || channels > MaxChannels {
			return fmt.Errorf("%d destination channels: %w", channels, ErrChannels)
		}
		c.channels = channels
		return nil
	}
}

// WithLogger sets logger to context. If this option is not provided,
// silent logger is used.
func WithLogger(logger Logger) Option {
	return func(c *Context) error {
		c.log = logger
		return nil
	}
}

// WithMetric enables metrics for all nodes created in this context.
func WithMetric() Option {
	return func(c *Context) error {
		c.metered = true
		return nil
	}
}

// SampleRate returns sample rate of the context.
func (c *Context) SampleRate() int {
	return c.sampleRate
}

// QuantumSize returns number of frames in render quantum.
func (c *Context) QuantumSize() int {
	return c.quantumSize
}

// Channels returns number of destination channels.
func (c *Context) Channels() int {
	return c.channels
}

// Destination returns the destination node. It has a single input and no
// outputs, everything connected to it is rendered.
func (c *Context) Destination() *Node {
	return c.destination
}

// Quantum returns index of the latest rendered quantum.
func (c *Context) Quantum(r *RenderLock) uint64 {
	r.check(c)
	return c.quantum
}

// Connect connects output of src to input of dst.
func (c *Context) Connect(src *Node, output int, dst *Node, input int) error {
	return c.WithGraphLock(func(g *GraphLock) error {
		o, in, err := ports(src, output, dst, input)
		if err != nil {
			return err
		}
		return in.Connect(g, o)
	})
}

// Disconnect removes the edge from output of src to input of dst.
func (c *Context) Disconnect(src *Node, output int, dst *Node, input int) error {
	return c.WithGraphLock(func(g *GraphLock) error {
		o, in, err := ports(src, output, dst, input)
		if err != nil {
			return err
		}
		in.Disconnect(g, o)
		return nil
	})
}

// ConnectParam connects output of src to the param.
func (c *Context) ConnectParam(src *Node, output int, p *Param) error {
	return c.WithGraphLock(func(g *GraphLock) error {
		if output < 0 || output >= src.NumberOfOutputs() {
			return fmt.Errorf("output %d of %v: %w", output, src, ErrIndex)
		}
		return p.Connect(g, src.Output(output))
	})
}

// DisconnectParam removes the edge from output of src to the param.
func (c *Context) DisconnectParam(src *Node, output int, p *Param) error {
	return c.WithGraphLock(func(g *GraphLock) error {
		if output < 0 || output >= src.NumberOfOutputs() {
			return fmt.Errorf("output %d of %v: %w", output, src, ErrIndex)
		}
		p.Disconnect(g, src.Output(output))
		return nil
	})
}

// AddAutomaticPullNode makes node render every quantum even if it's not
// connected to destination.
func (c *Context) AddAutomaticPullNode(g *GraphLock, n *Node) {
	g.check(c)
	if _, ok := c.automaticPull[n]; ok {
		return
	}
	c.automaticPull[n] = struct{}{}
	c.changedAutomaticPull()
}

// RemoveAutomaticPullNode stops automatic rendering of the node.
func (c *Context) RemoveAutomaticPullNode(g *GraphLock, n *Node) {
	g.check(c)
	if _, ok := c.automaticPull[n]; !ok {
		return
	}
	delete(c.automaticPull, n)
	c.changedAutomaticPull()
}

// Schedule runs fn on the render goroutine at the next boundary. It's the
// way to change processor state that is owned by render goroutine.
func (c *Context) Schedule(g *GraphLock, fn func(r *RenderLock)) {
	g.check(c)
	c.scheduled = append(c.scheduled, fn)
}

// Render renders one quantum. The result is copied to out if it's not nil.
// Graph changes made before the end of this call are visible starting
// from the next quantum.
func (c *Context) Render(out *Bus) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	c.renderLock = RenderLock{ctx: c, held: true}
	r := &c.renderLock
	defer func() { r.held = false }()

	if !c.started {
		c.started = true
		c.updateRenderingState(r)
	}
	c.quantum++
	c.destination.processIfNecessary(r, c.quantumSize)
	for _, n := range c.renderingAutoPull {
		n.processIfNecessary(r, c.quantumSize)
	}
	if out != nil {
		out.CopyFrom(c.destination.processor.(*destination).bus)
	}
	c.updateRenderingState(r)
}

// updateRenderingState publishes topology changes to the render goroutine.
// Graph lock is held only for bookkeeping, so the wait is short.
func (c *Context) updateRenderingState(r *RenderLock) {
	c.graphMu.Lock()
	defer c.graphMu.Unlock()
	c.boundaryGraphLock = GraphLock{ctx: c, held: true}
	g := &c.boundaryGraphLock
	defer func() { g.held = false }()
	c.boundary = Boundary{graph: g, render: r}
	b := &c.boundary

	// nodes enabled during the quantum stay enabled even if they finished.
	for n := c.finished; n != nil; {
		next := n.nextFinished
		n.nextFinished = nil
		n.finished = false
		if n.enableRequested {
			c.log.Debug(fmt.Sprintf("finished and enabled again %v", n))
		} else {
			n.Disable(g)
			c.log.Debug(fmt.Sprintf("finished %v", n))
		}
		n = next
	}
	c.finished = nil
	for i, n := range c.enableRequests {
		n.enableRequested = false
		c.enableRequests[i] = nil
	}
	c.enableRequests = c.enableRequests[:0]

	for in := range c.dirtyInputs {
		in.UpdateRenderingState(b)
	}
	for o := range c.dirtyOutputs {
		o.UpdateRenderingState(b)
	}
	for p := range c.dirtyParams {
		p.UpdateRenderingState(b)
	}
	clear(c.dirtyInputs)
	clear(c.dirtyOutputs)
	clear(c.dirtyParams)

	if c.automaticPullDirty {
		c.renderingAutoPull = c.stagedAutoPull
		c.automaticPullDirty = false
	}

	for i, fn := range c.scheduled {
		fn(r)
		c.scheduled[i] = nil
	}
	c.scheduled = c.scheduled[:0]
}

func (c *Context) markInputDirty(in *Input) {
	c.dirtyInputs[in] = struct{}{}
}

func (c *Context) markOutputDirty(o *Output) {
	c.dirtyOutputs[o] = struct{}{}
}

func (c *Context) markParamDirty(p *Param) {
	c.dirtyParams[p] = struct{}{}
}

func (c *Context) changedAutomaticPull() {
	staged := make([]*Node, 0, len(c.automaticPull))
	for n := range c.automaticPull {
		staged = append(staged, n)
	}
	c.stagedAutoPull = staged
	c.automaticPullDirty = true
}

func ports(src *Node, output int, dst *Node, input int) (*Output, *Input, error) {
	if output < 0 || output >= src.NumberOfOutputs() {
		return nil, nil, fmt.Errorf("output %d of %v: %w", output, src, ErrIndex)
	}
	if input < 0 || input >= dst.NumberOfInputs() {
		return nil, nil, fmt.Errorf("input %d of %v: %w", input, dst, ErrIndex)
	}
	return src.Output(output), dst.Input(input), nil
}

// destination mixes its input into the context layout.
type destination struct {
	bus *Bus
}

func (*destination) PullInputs(r *RenderLock, n *Node, frames int) {
	n.Input(0).Pull(r, nil, frames)
}

func (d *destination) Process(r *RenderLock, n *Node, frames int) {
	d.bus.CopyFrom(n.Input(0).Bus())
}

type silentLogger struct{}

func (silentLogger) Debug(args ...interface{}) {}

func (silentLogger) Info(args ...interface{}) {}

var defaultLogger silentLogger
