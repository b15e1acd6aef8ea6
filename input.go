package graph

import "fmt"

// Input is an audio-consuming port of a node. It sums all connected
// outputs into a single bus every quantum.
type Input struct {
	node  *Node
	index int

	// live state, graph lock.
	outputs         map[*Output]struct{}
	disabledOutputs map[*Output]struct{}
	// staged is rebuilt on every change and swapped into rendering at the
	// boundary. It's never modified after creation.
	staged []*Output

	// render goroutine only.
	rendering        []*Output
	numberOfChannels int
	summingBus       *Bus
}

func newInput(n *Node, index int) *Input {
	return &Input{
		node:             n,
		index:            index,
		outputs:          make(map[*Output]struct{}),
		disabledOutputs:  make(map[*Output]struct{}),
		numberOfChannels: 1,
		summingBus:       NewBus(1, n.ctx.quantumSize),
	}
}

// Node returns the owner of the input.
func (in *Input) Node() *Node {
	return in.node
}

// Index returns position of input in the node.
func (in *Input) Index() int {
	return in.index
}

// Connect adds an edge from the output. Edge is added to both sides or
// to none. Connecting already connected output is a no-op.
func (in *Input) Connect(g *GraphLock, o *Output) error {
	if err := checkConnect(g, o, in.node); err != nil {
		return err
	}
	if in.IsConnectedTo(g, o) {
		return nil
	}
	if err := o.addInput(g, in); err != nil {
		return fmt.Errorf("connect %v to input %d of %v: %w", o.node, in.index, in.node, err)
	}
	if o.enabled {
		in.outputs[o] = struct{}{}
	} else {
		in.disabledOutputs[o] = struct{}{}
	}
	in.changedOutputs()
	in.node.ctx.log.Debug(fmt.Sprintf("connected %v output %d to %v input %d", o.node, o.index, in.node, in.index))
	return nil
}

// Disconnect removes an edge from the output. Disconnecting absent edge
// is a no-op.
func (in *Input) Disconnect(g *GraphLock, o *Output) {
	g.check(in.node.ctx)
	if !in.IsConnectedTo(g, o) {
		return
	}
	o.removeInput(g, in)
	delete(in.outputs, o)
	delete(in.disabledOutputs, o)
	in.changedOutputs()
	in.node.ctx.log.Debug(fmt.Sprintf("disconnected %v output %d from %v input %d", o.node, o.index, in.node, in.index))
}

// DisconnectAll removes edges from all outputs.
func (in *Input) DisconnectAll(g *GraphLock) {
	g.check(in.node.ctx)
	for o := range in.outputs {
		in.Disconnect(g, o)
	}
	for o := range in.disabledOutputs {
		in.Disconnect(g, o)
	}
}

// IsConnectedTo returns true if there's an edge from the output, enabled
// or not.
func (in *Input) IsConnectedTo(g *GraphLock, o *Output) bool {
	g.check(in.node.ctx)
	if _, ok := in.outputs[o]; ok {
		return true
	}
	_, ok := in.disabledOutputs[o]
	return ok
}

// NumberOfConnections returns number of connected outputs, including
// disabled.
func (in *Input) NumberOfConnections(g *GraphLock) int {
	g.check(in.node.ctx)
	return len(in.outputs) + len(in.disabledOutputs)
}

// NumberOfRenderingConnections returns number of outputs summed during
// current quantum.
func (in *Input) NumberOfRenderingConnections() int {
	return len(in.rendering)
}

// NumberOfChannels returns number of channels derived from rendering
// outputs: the maximum of them, but at least one.
func (in *Input) NumberOfChannels() int {
	return in.numberOfChannels
}

// Pull sums rendering outputs and returns the result. With a single
// output the pull is forwarded, so inPlace bus might be used.
func (in *Input) Pull(r *RenderLock, inPlace *Bus, frames int) *Bus {
	r.check(in.node.ctx)
	switch len(in.rendering) {
	case 0:
		in.summingBus.Zero()
		return in.summingBus
	case 1:
		return in.rendering[0].Pull(r, inPlace, frames)
	}
	in.summingBus.Zero()
	for _, o := range in.rendering {
		in.summingBus.SumFrom(o.Pull(r, nil, frames))
	}
	return in.summingBus
}

// Bus returns the bus with result of the latest Pull.
func (in *Input) Bus() *Bus {
	if len(in.rendering) == 1 {
		return in.rendering[0].Bus()
	}
	return in.summingBus
}

// UpdateRenderingState swaps in outputs connected since previous quantum
// and recomputes number of channels.
func (in *Input) UpdateRenderingState(b *Boundary) {
	b.check(in.node.ctx)
	in.rendering = in.staged
	in.node.checkNumberOfChannelsForInput(b, in)
}

func (in *Input) disable(g *GraphLock, o *Output) {
	g.check(in.node.ctx)
	if _, ok := in.outputs[o]; !ok {
		return
	}
	delete(in.outputs, o)
	in.disabledOutputs[o] = struct{}{}
	in.changedOutputs()
}

func (in *Input) enable(g *GraphLock, o *Output) {
	g.check(in.node.ctx)
	if _, ok := in.disabledOutputs[o]; !ok {
		return
	}
	delete(in.disabledOutputs, o)
	in.outputs[o] = struct{}{}
	in.changedOutputs()
}

// changedOutputs rebuilds staged snapshot from enabled outputs. Must be
// called with graph lock.
func (in *Input) changedOutputs() {
	staged := make([]*Output, 0, len(in.outputs))
	for o := range in.outputs {
		staged = append(staged, o)
	}
	in.staged = staged
	in.node.ctx.markInputDirty(in)
}

// updateInternalBus recomputes number of channels and resizes the summing
// bus.
func (in *Input) updateInternalBus() {
	n := 1
	for _, o := range in.rendering {
		n = max(n, o.numberOfChannels)
	}
	in.numberOfChannels = n
	if in.summingBus.NumChannels() != n {
		in.summingBus.resize(n)
	}
}
