package nodes

import (
	"github.com/pipelined/graph"
)

type (
	// Constant outputs the offset param on every channel. Offset can be
	// modulated by other outputs.
	Constant struct {
		*graph.Node
		offset *graph.Param
	}

	// SourceFunc fills the channels of the bus with the next frames. It's
	// called on the render goroutine and must not block.
	SourceFunc func(b *graph.Bus, frames int)

	// Func is a source that renders with SourceFunc. If Frames is positive,
	// the source finishes after that many frames and outputs silence until
	// restarted.
	Func struct {
		*graph.Node
		fn       SourceFunc
		frames   int
		rendered int
	}
)

// NewConstant creates a constant source with provided offset.
func NewConstant(c *graph.Context, channels int, offset float64, options ...graph.NodeOption) *Constant {
	s := &Constant{}
	s.Node = c.NewNode(s, append(options, graph.WithOutputs(channels))...)
	s.offset = s.Node.AddParam("offset", offset, -1<<24, 1<<24)
	return s
}

// Offset returns offset param.
func (s *Constant) Offset() *graph.Param {
	return s.offset
}

// Process implements graph.Processor.
func (s *Constant) Process(r *graph.RenderLock, n *graph.Node, frames int) {
	out := n.Output(0).Bus()
	values := s.offset.Values(r, frames)
	for c := 0; c < out.NumChannels(); c++ {
		copy(out.Channel(c)[:frames], values)
	}
}

// NewFunc creates a source that renders with fn. Zero frames means
// unlimited.
func NewFunc(c *graph.Context, channels int, frames int, fn SourceFunc, options ...graph.NodeOption) *Func {
	s := &Func{fn: fn, frames: frames}
	s.Node = c.NewNode(s, append(options, graph.WithOutputs(channels))...)
	return s
}

// Process implements graph.Processor.
func (s *Func) Process(r *graph.RenderLock, n *graph.Node, frames int) {
	out := n.Output(0).Bus()
	if s.frames > 0 && s.rendered >= s.frames {
		out.Zero()
		return
	}
	s.fn(out, frames)
	s.rendered += frames
	if s.frames > 0 && s.rendered >= s.frames {
		n.Finish(r)
	}
}

// Restart enables the source again. The rendered frames counter is reset
// on the render goroutine with the next quantum.
func (s *Func) Restart(g *graph.GraphLock) {
	s.Node.Enable(g)
	g.Context().Schedule(g, func(r *graph.RenderLock) {
		s.rendered = 0
	})
}
