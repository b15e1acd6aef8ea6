package graph

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/pipelined/graph/metric"
)

type (
	// Processor renders one quantum of a node. It reads node's input buses
	// and param values and writes into output buses. Process is called on
	// the render goroutine at most once per quantum and must not block.
	Processor interface {
		Process(r *RenderLock, n *Node, frames int)
	}

	// InputPuller is implemented by processors that pull their inputs on
	// their own, usually to let upstream render in-place into the output
	// bus.
	InputPuller interface {
		PullInputs(r *RenderLock, n *Node, frames int)
	}

	// ChannelsObserver is implemented by processors whose outputs depend
	// on the number of channels of an input. It's called at the boundary
	// after input recomputed its channels.
	ChannelsObserver interface {
		CheckNumberOfChannelsForInput(b *Boundary, n *Node, in *Input)
	}

	// Node is a processing node of the graph. It owns inputs, outputs and
	// params for its whole lifetime.
	Node struct {
		id        xid.ID
		name      string
		ctx       *Context
		processor Processor
		inputs    []*Input
		outputs   []*Output
		params    []*Param
		meter     func(frames int)

		// graph lock only.
		enableRequested bool

		// render goroutine only. Finished nodes are linked, so finishing
		// doesn't allocate.
		lastQuantum  uint64
		finished     bool
		nextFinished *Node
	}

	// NodeOption configures node on creation.
	NodeOption func(*Node)
)

// WithInputs adds n inputs to the node.
func WithInputs(n int) NodeOption {
	return func(nd *Node) {
		for i := 0; i < n; i++ {
			nd.inputs = append(nd.inputs, newInput(nd, len(nd.inputs)))
		}
	}
}

// WithOutputs adds an output for every provided number of channels. Zero
// means channels are not known yet.
func WithOutputs(channels ...int) NodeOption {
	return func(nd *Node) {
		for _, c := range channels {
			nd.outputs = append(nd.outputs, newOutput(nd, len(nd.outputs), c))
		}
	}
}

// WithName sets name used in logs.
func WithName(name string) NodeOption {
	return func(nd *Node) {
		nd.name = name
	}
}

// NewNode creates a node of the context.
func (c *Context) NewNode(p Processor, options ...NodeOption) *Node {
	n := &Node{
		id:        xid.New(),
		ctx:       c,
		processor: p,
	}
	for _, option := range options {
		option(n)
	}
	if c.metered {
		n.meter = metric.Meter(p, c.sampleRate)()
	}
	return n
}

// ID returns unique node id.
func (n *Node) ID() xid.ID {
	return n.id
}

// Context returns the context of the node.
func (n *Node) Context() *Context {
	return n.ctx
}

// Processor returns the node's processor.
func (n *Node) Processor() Processor {
	return n.processor
}

// NumberOfInputs returns number of inputs.
func (n *Node) NumberOfInputs() int {
	return len(n.inputs)
}

// NumberOfOutputs returns number of outputs.
func (n *Node) NumberOfOutputs() int {
	return len(n.outputs)
}

// Input returns input by index. It panics if index is out of range.
func (n *Node) Input(i int) *Input {
	return n.inputs[i]
}

// Output returns output by index. It panics if index is out of range.
func (n *Node) Output(i int) *Output {
	return n.outputs[i]
}

// AddParam creates a param owned by the node. Params must be added before
// the node is connected.
func (n *Node) AddParam(name string, defaultValue, minValue, maxValue float64) *Param {
	p := newParam(n, name, defaultValue, minValue, maxValue)
	n.params = append(n.params, p)
	return p
}

// Param returns param by name or nil.
func (n *Node) Param(name string) *Param {
	for _, p := range n.params {
		if p.name == name {
			return p
		}
	}
	return nil
}

// Finish marks the node done. Its outputs will be disabled at the next
// boundary but kept connected, so the node can be enabled again.
func (n *Node) Finish(r *RenderLock) {
	r.check(n.ctx)
	if n.finished {
		return
	}
	n.finished = true
	n.nextFinished = n.ctx.finished
	n.ctx.finished = n
}

// Enable enables all outputs of the node. Enabling takes precedence over
// Finish called during the same quantum.
func (n *Node) Enable(g *GraphLock) {
	g.check(n.ctx)
	if !n.enableRequested {
		n.enableRequested = true
		n.ctx.enableRequests = append(n.ctx.enableRequests, n)
	}
	for _, o := range n.outputs {
		o.Enable(g)
	}
}

// Disable disables all outputs of the node.
func (n *Node) Disable(g *GraphLock) {
	g.check(n.ctx)
	for _, o := range n.outputs {
		o.Disable(g)
	}
}

// DisconnectAll removes every edge from node's outputs.
func (n *Node) DisconnectAll(g *GraphLock) {
	g.check(n.ctx)
	for _, o := range n.outputs {
		o.DisconnectAll(g)
	}
}

func (n *Node) String() string {
	if n.name == "" {
		return n.id.String()
	}
	return fmt.Sprintf("%v %v", n.name, n.id)
}

// processIfNecessary processes the node once per quantum. Guard is set
// before inputs are pulled, so traversal always terminates.
func (n *Node) processIfNecessary(r *RenderLock, frames int) {
	q := n.ctx.quantum
	if n.lastQuantum == q {
		return
	}
	n.lastQuantum = q

	if p, ok := n.processor.(InputPuller); ok {
		p.PullInputs(r, n, frames)
	} else {
		for _, in := range n.inputs {
			in.Pull(r, nil, frames)
		}
	}
	n.processor.Process(r, n, frames)
	if n.meter != nil {
		n.meter(frames)
	}
}

// checkNumberOfChannelsForInput is called when input changed its number
// of channels.
func (n *Node) checkNumberOfChannelsForInput(b *Boundary, in *Input) {
	in.updateInternalBus()
	if o, ok := n.processor.(ChannelsObserver); ok {
		o.CheckNumberOfChannelsForInput(b, n, in)
	}
}

// feeds reports if target is reachable downstream of n. Must be called
// with graph lock.
func (n *Node) feeds(target *Node, visited map[*Node]struct{}) bool {
	if n == target {
		return true
	}
	if _, ok := visited[n]; ok {
		return false
	}
	visited[n] = struct{}{}
	for _, o := range n.outputs {
		for _, in := range o.inputs[:o.numInputs] {
			if in.node.feeds(target, visited) {
				return true
			}
		}
		for p := range o.params {
			if p.node.feeds(target, visited) {
				return true
			}
		}
	}
	return false
}

// checkConnect validates the edge from src output into the dst node.
func checkConnect(g *GraphLock, src *Output, dst *Node) error {
	if src.node.ctx != dst.ctx {
		return fmt.Errorf("connect %v to %v: nodes of different contexts: %w", src.node, dst, ErrInvalidState)
	}
	g.check(dst.ctx)
	if dst.feeds(src.node, make(map[*Node]struct{})) {
		return fmt.Errorf("connect %v to %v: %w", src.node, dst, ErrCycle)
	}
	return nil
}
