package graph

import "fmt"

// MaxFanOut is the number of inputs a single output can feed.
const MaxFanOut = 8

// Output is an audio-producing port of a node. It may feed up to
// MaxFanOut inputs and any number of params.
type Output struct {
	node  *Node
	index int

	// numberOfChannels and the buses change only on render goroutine at
	// the boundary. desiredNumberOfChannels is set with the graph lock.
	numberOfChannels        int
	desiredNumberOfChannels int
	internalBus             *Bus
	// actualDestinationBus is set by Pull and points either to internalBus
	// or to the in-place bus.
	actualDestinationBus *Bus

	// live state, graph lock.
	inputs    [MaxFanOut]*Input
	numInputs int
	params    map[*Param]struct{}
	enabled   bool

	// frozen for the duration of a quantum.
	renderingFanOutCount      int
	renderingParamFanOutCount int
}

func newOutput(n *Node, index, numberOfChannels int) *Output {
	o := &Output{
		node:                    n,
		index:                   index,
		numberOfChannels:        numberOfChannels,
		desiredNumberOfChannels: numberOfChannels,
		params:                  make(map[*Param]struct{}),
		enabled:                 true,
	}
	o.updateInternalBus()
	o.actualDestinationBus = o.internalBus
	return o
}

// Node returns the owner of the output.
func (o *Output) Node() *Node {
	return o.node
}

// Index returns position of output in the node.
func (o *Output) Index() int {
	return o.index
}

// Pull makes the node process if it hasn't yet for this quantum and returns
// the bus with the result. If the output has the only consumer and inPlace
// bus has the same number of channels, the node renders directly into
// inPlace and it's returned. Otherwise the internal bus is used.
func (o *Output) Pull(r *RenderLock, inPlace *Bus, frames int) *Bus {
	r.check(o.node.ctx)
	isInPlace := inPlace != nil &&
		inPlace.NumChannels() == o.numberOfChannels &&
		o.renderingFanOutCount+o.renderingParamFanOutCount == 1
	if isInPlace {
		o.actualDestinationBus = inPlace
	} else {
		o.actualDestinationBus = o.internalBus
	}
	o.node.processIfNecessary(r, frames)
	return o.actualDestinationBus
}

// Bus returns the bus populated by the most recent Pull. Processors write
// their result into it.
func (o *Output) Bus() *Bus {
	return o.actualDestinationBus
}

// NumberOfChannels returns the actual number of channels. It only changes
// at the boundary.
func (o *Output) NumberOfChannels() int {
	return o.numberOfChannels
}

// IsChannelCountKnown returns true if number of channels is set.
func (o *Output) IsChannelCountKnown() bool {
	return o.numberOfChannels > 0
}

// SetNumberOfChannels requests a new number of channels. The change is
// applied at the next boundary.
func (o *Output) SetNumberOfChannels(g *GraphLock, n int) error {
	g.check(o.node.ctx)
	if n < 0 || n > MaxChannels {
		return fmt.Errorf("output %d of %v: %d channels: %w", o.index, o.node, n, ErrChannels)
	}
	if o.desiredNumberOfChannels == n {
		return nil
	}
	o.desiredNumberOfChannels = n
	o.node.ctx.markOutputDirty(o)
	return nil
}

// ChangeNumberOfChannels applies a new number of channels right away. It
// can only be done at the boundary, usually by a ChannelsObserver.
func (o *Output) ChangeNumberOfChannels(b *Boundary, n int) {
	b.check(o.node.ctx)
	if n < 0 || n > MaxChannels {
		panic(fmt.Errorf("output %d of %v: %d channels: %w", o.index, o.node, n, ErrChannels))
	}
	o.desiredNumberOfChannels = n
	o.updateNumberOfChannels(b)
}

// RenderingFanOutCount returns number of inputs fed during the current
// quantum. Unlike FanOutCount it doesn't change within a quantum.
func (o *Output) RenderingFanOutCount() int {
	return o.renderingFanOutCount
}

// RenderingParamFanOutCount returns number of params fed during the
// current quantum.
func (o *Output) RenderingParamFanOutCount() int {
	return o.renderingParamFanOutCount
}

// FanOutCount returns number of connected inputs.
func (o *Output) FanOutCount(g *GraphLock) int {
	g.check(o.node.ctx)
	return o.numInputs
}

// ParamFanOutCount returns number of connected params.
func (o *Output) ParamFanOutCount(g *GraphLock) int {
	g.check(o.node.ctx)
	return len(o.params)
}

// IsConnected returns true if output has any edge. Disabled output keeps
// its edges, so it's still connected.
func (o *Output) IsConnected(g *GraphLock) bool {
	return o.FanOutCount(g) > 0 || o.ParamFanOutCount(g) > 0
}

// IsEnabled returns true if output is enabled.
func (o *Output) IsEnabled(g *GraphLock) bool {
	g.check(o.node.ctx)
	return o.enabled
}

// Disable excludes output from rendering without removing edges.
func (o *Output) Disable(g *GraphLock) {
	g.check(o.node.ctx)
	if !o.enabled {
		return
	}
	o.enabled = false
	for _, in := range o.inputs[:o.numInputs] {
		in.disable(g, o)
	}
	for p := range o.params {
		p.changedOutputs()
	}
	o.node.ctx.markOutputDirty(o)
	o.node.ctx.log.Debug(fmt.Sprintf("disabled output %d of %v", o.index, o.node))
}

// Enable brings disabled output back to rendering.
func (o *Output) Enable(g *GraphLock) {
	g.check(o.node.ctx)
	if o.enabled {
		return
	}
	o.enabled = true
	for _, in := range o.inputs[:o.numInputs] {
		in.enable(g, o)
	}
	for p := range o.params {
		p.changedOutputs()
	}
	o.node.ctx.markOutputDirty(o)
	o.node.ctx.log.Debug(fmt.Sprintf("enabled output %d of %v", o.index, o.node))
}

// DisconnectAll removes all edges to inputs and params.
func (o *Output) DisconnectAll(g *GraphLock) {
	o.DisconnectAllInputs(g)
	o.DisconnectAllParams(g)
}

// DisconnectAllInputs removes all edges to inputs.
func (o *Output) DisconnectAllInputs(g *GraphLock) {
	g.check(o.node.ctx)
	for o.numInputs > 0 {
		o.inputs[o.numInputs-1].Disconnect(g, o)
	}
}

// DisconnectAllParams removes all edges to params.
func (o *Output) DisconnectAllParams(g *GraphLock) {
	g.check(o.node.ctx)
	for p := range o.params {
		p.Disconnect(g, o)
	}
}

// UpdateRenderingState applies pending channels change and freezes fan-out
// counters for the next quantum.
func (o *Output) UpdateRenderingState(b *Boundary) {
	b.check(o.node.ctx)
	o.updateNumberOfChannels(b)
	if o.enabled {
		o.renderingFanOutCount = o.numInputs
		o.renderingParamFanOutCount = len(o.params)
	} else {
		o.renderingFanOutCount = 0
		o.renderingParamFanOutCount = 0
	}
}

// addInput must be called by the Input with graph lock. Adding connected
// input is a no-op.
func (o *Output) addInput(g *GraphLock, in *Input) error {
	g.check(o.node.ctx)
	if o.indexOf(in) >= 0 {
		return nil
	}
	if o.numInputs == MaxFanOut {
		return &CapacityError{Capacity: MaxFanOut}
	}
	o.inputs[o.numInputs] = in
	o.numInputs++
	o.node.ctx.markOutputDirty(o)
	return nil
}

// removeInput must be called by the Input with graph lock. Removing
// absent input is a no-op.
func (o *Output) removeInput(g *GraphLock, in *Input) {
	g.check(o.node.ctx)
	i := o.indexOf(in)
	if i < 0 {
		return
	}
	last := o.numInputs - 1
	o.inputs[i] = o.inputs[last]
	o.inputs[last] = nil
	o.numInputs = last
	o.node.ctx.markOutputDirty(o)
}

func (o *Output) addParam(g *GraphLock, p *Param) {
	g.check(o.node.ctx)
	if _, ok := o.params[p]; ok {
		return
	}
	o.params[p] = struct{}{}
	o.node.ctx.markOutputDirty(o)
}

func (o *Output) removeParam(g *GraphLock, p *Param) {
	g.check(o.node.ctx)
	if _, ok := o.params[p]; !ok {
		return
	}
	delete(o.params, p)
	o.node.ctx.markOutputDirty(o)
}

func (o *Output) indexOf(in *Input) int {
	for i := 0; i < o.numInputs; i++ {
		if o.inputs[i] == in {
			return i
		}
	}
	return -1
}

func (o *Output) updateNumberOfChannels(b *Boundary) {
	if o.numberOfChannels == o.desiredNumberOfChannels {
		return
	}
	o.numberOfChannels = o.desiredNumberOfChannels
	o.updateInternalBus()
	o.propagateChannelCount(b)
}

// updateInternalBus reallocates the bus for current number of channels.
func (o *Output) updateInternalBus() {
	if o.internalBus != nil && o.internalBus.NumChannels() == o.numberOfChannels {
		return
	}
	if o.internalBus == nil {
		o.internalBus = NewBus(o.numberOfChannels, o.node.ctx.quantumSize)
	} else {
		o.internalBus.resize(o.numberOfChannels)
	}
	o.actualDestinationBus = o.internalBus
}

// propagateChannelCount lets connected nodes recompute their inputs.
func (o *Output) propagateChannelCount(b *Boundary) {
	for _, in := range o.inputs[:o.numInputs] {
		in.node.checkNumberOfChannelsForInput(b, in)
	}
}
