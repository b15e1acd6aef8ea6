/*
Package graph allows to build and render audio processing graphs that are
edited while they play.

Concept

A graph consists of nodes. Every node has inputs, outputs and params.
Output of one node is connected to inputs or params of other nodes:

    Output - produces signal of the node, feeds up to MaxFanOut inputs and
             any number of params;
    Input  - sums all connected outputs;
    Param  - scalar value, optionally modulated by connected outputs.

All nodes belong to a Context. Context has a destination node and renders
everything connected to it, one quantum of frames at a time. Rendering is
pull-based: destination pulls its input, input pulls connected outputs and
every output makes its node process. Each node is processed at most once
per quantum, no matter how many consumers pull it.

Locks

The graph is edited from one goroutine and rendered from another. Context
has two locks for that: graph lock guards the topology and render lock
guards rendering. Operations that need a lock take a proof of holding it
as their first argument:

    g := ctx.LockGraph()
    defer g.Unlock()
    err := dst.Input(0).Connect(g, src.Output(0))

Render goroutine never holds the graph lock while it pulls. Changes made
with the graph lock are published at the end of the quantum, at the
boundary, so within a quantum all consumers observe the same topology.
Channel count changes and bus reallocations happen only at the boundary.

Nodes

DSP is implemented by a Processor. It's called once per quantum with the
render lock and writes into output buses:

    type gain struct{}

    func (gain) Process(r *graph.RenderLock, n *graph.Node, frames int) {
        out := n.Output(0).Bus()
        ...
    }

    n := ctx.NewNode(gain{}, graph.WithInputs(1), graph.WithOutputs(2))

Connections that would make a node feed itself are rejected with ErrCycle.
An output can feed at most MaxFanOut inputs, one more connection fails with
CapacityError.
*/
package graph
