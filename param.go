package graph

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
)

// Param is a control value of a node. Besides the scalar value it can be
// modulated at audio rate by connected outputs: the resulting value is the
// scalar value plus mono sum of the outputs.
type Param struct {
	node         *Node
	name         string
	defaultValue float64
	minValue     float64
	maxValue     float64
	value        atomic.Uint64

	// live state, graph lock.
	outputs map[*Output]struct{}
	staged  []*Output

	// render goroutine only.
	rendering  []*Output
	summingBus *Bus
	values     []float64
}

func newParam(n *Node, name string, defaultValue, minValue, maxValue float64) *Param {
	p := &Param{
		node:         n,
		name:         name,
		defaultValue: defaultValue,
		minValue:     minValue,
		maxValue:     maxValue,
		outputs:      make(map[*Output]struct{}),
		summingBus:   NewBus(1, n.ctx.quantumSize),
		values:       make([]float64, n.ctx.quantumSize),
	}
	p.SetValue(defaultValue)
	return p
}

// Name returns the param name.
func (p *Param) Name() string {
	return p.name
}

// Node returns the owner of the param.
func (p *Param) Node() *Node {
	return p.node
}

// DefaultValue returns the default value.
func (p *Param) DefaultValue() float64 {
	return p.defaultValue
}

// Value returns the scalar value. Safe to call from any goroutine.
func (p *Param) Value() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the scalar value clamped to param range. Safe to call from
// any goroutine.
func (p *Param) SetValue(v float64) {
	v = math.Max(p.minValue, math.Min(p.maxValue, v))
	p.value.Store(math.Float64bits(v))
}

// Connect adds an audio-rate edge from the output.
func (p *Param) Connect(g *GraphLock, o *Output) error {
	if err := checkConnect(g, o, p.node); err != nil {
		return fmt.Errorf("param %v: %w", p.name, err)
	}
	if _, ok := p.outputs[o]; ok {
		return nil
	}
	o.addParam(g, p)
	p.outputs[o] = struct{}{}
	p.changedOutputs()
	p.node.ctx.log.Debug(fmt.Sprintf("connected %v output %d to %v param %v", o.node, o.index, p.node, p.name))
	return nil
}

// Disconnect removes the edge from output. Disconnecting absent edge is a
// no-op.
func (p *Param) Disconnect(g *GraphLock, o *Output) {
	g.check(p.node.ctx)
	if _, ok := p.outputs[o]; !ok {
		return
	}
	o.removeParam(g, p)
	delete(p.outputs, o)
	p.changedOutputs()
	p.node.ctx.log.Debug(fmt.Sprintf("disconnected %v output %d from %v param %v", o.node, o.index, p.node, p.name))
}

// IsConnectedTo returns true if there's an edge from the output.
func (p *Param) IsConnectedTo(g *GraphLock, o *Output) bool {
	g.check(p.node.ctx)
	_, ok := p.outputs[o]
	return ok
}

// NumberOfConnections returns number of connected outputs.
func (p *Param) NumberOfConnections(g *GraphLock) int {
	g.check(p.node.ctx)
	return len(p.outputs)
}

// HasSampleAccurateValues returns true if param is modulated by outputs
// during current quantum.
func (p *Param) HasSampleAccurateValues() bool {
	return len(p.rendering) > 0
}

// Values returns value for every frame of the quantum. The slice is reused
// between calls.
func (p *Param) Values(r *RenderLock, frames int) []float64 {
	r.check(p.node.ctx)
	values := p.values[:frames]
	v := p.Value()
	for i := range values {
		values[i] = v
	}
	if len(p.rendering) == 0 {
		return values
	}
	p.summingBus.Zero()
	for _, o := range p.rendering {
		p.summingBus.SumFrom(o.Pull(r, nil, frames))
	}
	vecmath.AddBlockInPlace(values, p.summingBus.Channel(0)[:frames])
	return values
}

// FinalValue returns the value for the start of current quantum.
func (p *Param) FinalValue(r *RenderLock) float64 {
	if len(p.rendering) == 0 {
		return p.Value()
	}
	return p.Values(r, p.node.ctx.quantumSize)[0]
}

// UpdateRenderingState swaps in outputs connected since previous quantum.
func (p *Param) UpdateRenderingState(b *Boundary) {
	b.check(p.node.ctx)
	p.rendering = p.staged
}

// changedOutputs rebuilds staged snapshot from enabled outputs. Must be
// called with graph lock.
func (p *Param) changedOutputs() {
	staged := make([]*Output, 0, len(p.outputs))
	for o := range p.outputs {
		if o.enabled {
			staged = append(staged, o)
		}
	}
	p.staged = staged
	p.node.ctx.markParamDirty(p)
}
