// Package mock provides mocks for graph processors and allows to execute
// integration tests.
package mock

import (
	"github.com/pipelined/graph"
)

// Source mocks a node without inputs. It fills every channel with Value.
// If Limit is set, the node finishes after Limit frames.
type Source struct {
	counter
	Limit    int
	Value    float64
	Channels int
	Hook     func(r *graph.RenderLock, n *graph.Node)
}

// Node creates a node with a single output.
func (m *Source) Node(c *graph.Context, options ...graph.NodeOption) *graph.Node {
	return c.NewNode(m, append(options, graph.WithOutputs(m.Channels))...)
}

// Process implements graph.Processor.
func (m *Source) Process(r *graph.RenderLock, n *graph.Node, frames int) {
	if m.Hook != nil {
		m.Hook(r, n)
	}
	out := n.Output(0).Bus()
	if m.Limit > 0 && m.samples >= m.Limit {
		out.Zero()
		return
	}
	for c := 0; c < out.NumChannels(); c++ {
		ch := out.Channel(c)
		for i := range ch {
			ch[i] = m.Value
		}
	}
	m.advance(frames)
	if m.Limit > 0 && m.samples >= m.Limit {
		n.Finish(r)
	}
}

// Reset allows the source to produce Limit frames again.
func (m *Source) Reset() {
	m.reset()
}

// Processor mocks a node with a single input and a single output. It
// copies the input into the output.
type Processor struct {
	counter
	Channels int
	Hook     func(r *graph.RenderLock, n *graph.Node)
}

// Node creates a node with a single input and a single output.
func (m *Processor) Node(c *graph.Context, options ...graph.NodeOption) *graph.Node {
	return c.NewNode(m, append(options, graph.WithInputs(1), graph.WithOutputs(m.Channels))...)
}

// Process implements graph.Processor.
func (m *Processor) Process(r *graph.RenderLock, n *graph.Node, frames int) {
	if m.Hook != nil {
		m.Hook(r, n)
	}
	out := n.Output(0).Bus()
	in := n.Input(0).Bus()
	if in != out {
		out.CopyFrom(in)
	}
	m.advance(frames)
}

// Sink mocks a node with a single input and no outputs. Last received
// signal is kept unless Discard is set.
// Buffer is not thread-safe, so should not be checked while graph renders.
type Sink struct {
	counter
	Discard bool
	buffer  *graph.Bus
}

// Node creates a node with a single input.
func (m *Sink) Node(c *graph.Context, options ...graph.NodeOption) *graph.Node {
	return c.NewNode(m, append(options, graph.WithInputs(1))...)
}

// Process implements graph.Processor.
func (m *Sink) Process(r *graph.RenderLock, n *graph.Node, frames int) {
	if !m.Discard {
		in := n.Input(0).Bus()
		if m.buffer == nil || m.buffer.NumChannels() != in.NumChannels() {
			m.buffer = graph.NewBus(in.NumChannels(), in.Length())
		}
		m.buffer.CopyFrom(in)
	}
	m.advance(frames)
}

// Buffer returns the last received signal.
func (m *Sink) Buffer() *graph.Bus {
	return m.buffer
}

// counter counts processed quanta and samples.
type counter struct {
	quanta  int
	samples int
}

// advance counter's metrics.
func (c *counter) advance(size int) {
	c.quanta++
	c.samples = c.samples + size
}

// reset resets counter's metrics.
func (c *counter) reset() {
	c.quanta, c.samples = 0, 0
}

// Count returns quanta and samples metrics.
func (c *counter) Count() (int, int) {
	return c.quanta, c.samples
}
