package nodes

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/pipelined/graph"
)

// Gain multiplies its input by the gain param. Number of output channels
// follows the input.
type Gain struct {
	*graph.Node
	gain *graph.Param
}

// NewGain creates a gain node with gain param set to 1.
func NewGain(c *graph.Context, options ...graph.NodeOption) *Gain {
	g := &Gain{}
	g.Node = c.NewNode(g, append(options, graph.WithInputs(1), graph.WithOutputs(1))...)
	g.gain = g.Node.AddParam("gain", 1, 0, math.MaxFloat32)
	return g
}

// Gain returns the gain param.
func (g *Gain) Gain() *graph.Param {
	return g.gain
}

// PullInputs lets upstream render directly into the output bus.
func (g *Gain) PullInputs(r *graph.RenderLock, n *graph.Node, frames int) {
	n.Input(0).Pull(r, n.Output(0).Bus(), frames)
}

// Process implements graph.Processor.
func (g *Gain) Process(r *graph.RenderLock, n *graph.Node, frames int) {
	in, out := n.Input(0).Bus(), n.Output(0).Bus()
	if in.NumChannels() != out.NumChannels() {
		// channels are negotiated at the boundary, until then stay silent.
		out.Zero()
		return
	}
	if g.gain.HasSampleAccurateValues() {
		values := g.gain.Values(r, frames)
		for c := 0; c < out.NumChannels(); c++ {
			vecmath.MulBlock(out.Channel(c)[:frames], in.Channel(c)[:frames], values)
		}
		return
	}
	v := g.gain.Value()
	for c := 0; c < out.NumChannels(); c++ {
		vecmath.ScaleBlock(out.Channel(c)[:frames], in.Channel(c)[:frames], v)
	}
}

// CheckNumberOfChannelsForInput makes output match the input.
func (g *Gain) CheckNumberOfChannelsForInput(b *graph.Boundary, n *graph.Node, in *graph.Input) {
	out := n.Output(0)
	if out.NumberOfChannels() != in.NumberOfChannels() {
		out.ChangeNumberOfChannels(b, in.NumberOfChannels())
	}
}
