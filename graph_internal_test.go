package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fill writes value into every output.
type fill struct {
	value float64
}

func (f *fill) Process(r *RenderLock, n *Node, frames int) {
	for _, o := range n.outputs {
		b := o.Bus()
		for c := 0; c < b.NumChannels(); c++ {
			ch := b.Channel(c)
			for i := 0; i < frames; i++ {
				ch[i] = f.value
			}
		}
	}
}

func assertInvalidState(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		err, ok := recover().(error)
		assert.True(t, ok, "expected panic with error")
		assert.ErrorIs(t, err, ErrInvalidState)
	}()
	fn()
}

func TestPullInPlace(t *testing.T) {
	c, err := NewContext()
	require.NoError(t, err)
	src := c.NewNode(&fill{value: 1}, WithOutputs(2))
	dst := c.NewNode(&fill{}, WithInputs(1), WithOutputs(2))
	require.NoError(t, c.Connect(src, 0, dst, 0))
	c.Render(nil)

	o := src.Output(0)
	inPlace := NewBus(2, c.QuantumSize())
	pull := func(b *Bus) *Bus {
		r := c.LockRender()
		defer r.Unlock()
		c.quantum++
		return o.Pull(r, b, c.QuantumSize())
	}

	t.Run("single consumer", func(t *testing.T) {
		assert.Same(t, inPlace, pull(inPlace))
		assert.Equal(t, 1.0, inPlace.Channel(1)[c.QuantumSize()-1])
		assert.Same(t, inPlace, o.Bus())
	})
	t.Run("channels mismatch", func(t *testing.T) {
		assert.Same(t, o.internalBus, pull(NewBus(1, c.QuantumSize())))
	})
	t.Run("no in-place bus", func(t *testing.T) {
		assert.Same(t, o.internalBus, pull(nil))
	})
	t.Run("param consumer", func(t *testing.T) {
		mod := c.NewNode(&fill{}, WithOutputs(1))
		p := mod.AddParam("p", 0, -1, 1)
		require.NoError(t, c.ConnectParam(src, 0, p))
		c.Render(nil)
		assert.Equal(t, 1, o.RenderingFanOutCount())
		assert.Equal(t, 1, o.RenderingParamFanOutCount())
		assert.Same(t, o.internalBus, pull(inPlace))
		require.NoError(t, c.DisconnectParam(src, 0, p))
		c.Render(nil)
	})
	t.Run("two consumers", func(t *testing.T) {
		assert.Same(t, inPlace, pull(inPlace))
		dst2 := c.NewNode(&fill{}, WithInputs(1))
		require.NoError(t, c.Connect(src, 0, dst2, 0))
		// not visible until the boundary.
		assert.Same(t, inPlace, pull(inPlace))
		c.Render(nil)
		assert.Same(t, o.internalBus, pull(inPlace))
	})
}

func TestProcessedOncePerQuantum(t *testing.T) {
	c, err := NewContext()
	require.NoError(t, err)
	processed := 0
	src := c.NewNode(processorFunc(func(r *RenderLock, n *Node, frames int) {
		processed++
	}), WithOutputs(1))

	r := c.LockRender()
	defer r.Unlock()
	c.quantum++
	for i := 0; i < 3; i++ {
		src.Output(0).Pull(r, nil, c.QuantumSize())
	}
	assert.Equal(t, 1, processed)
	c.quantum++
	src.Output(0).Pull(r, nil, c.QuantumSize())
	assert.Equal(t, 2, processed)
}

type processorFunc func(r *RenderLock, n *Node, frames int)

func (fn processorFunc) Process(r *RenderLock, n *Node, frames int) {
	fn(r, n, frames)
}

func TestOutputInputs(t *testing.T) {
	c, err := NewContext()
	require.NoError(t, err)
	src := c.NewNode(&fill{}, WithOutputs(1))
	sink := c.NewNode(&fill{}, WithInputs(MaxFanOut+1))
	o := src.Output(0)

	g := c.LockGraph()
	defer g.Unlock()
	for i := 0; i < MaxFanOut; i++ {
		require.NoError(t, o.addInput(g, sink.Input(i)))
	}
	assert.NoError(t, o.addInput(g, sink.Input(0)))
	assert.Equal(t, MaxFanOut, o.numInputs)

	err = o.addInput(g, sink.Input(MaxFanOut))
	assert.ErrorIs(t, err, ErrCapacity)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, MaxFanOut, capErr.Capacity)
	assert.Equal(t, -1, o.indexOf(sink.Input(MaxFanOut)))

	o.removeInput(g, sink.Input(MaxFanOut))
	assert.Equal(t, MaxFanOut, o.numInputs)

	o.removeInput(g, sink.Input(0))
	assert.Equal(t, MaxFanOut-1, o.numInputs)
	assert.Equal(t, -1, o.indexOf(sink.Input(0)))
	assert.Equal(t, 0, o.indexOf(sink.Input(MaxFanOut-1)))
	assert.Nil(t, o.inputs[MaxFanOut-1])
}

func TestTokens(t *testing.T) {
	c, err := NewContext()
	require.NoError(t, err)
	other, err := NewContext()
	require.NoError(t, err)
	src := c.NewNode(&fill{}, WithOutputs(1))
	dst := c.NewNode(&fill{}, WithInputs(1))
	foreign := other.NewNode(&fill{}, WithOutputs(1))

	t.Run("released graph lock", func(t *testing.T) {
		g := c.LockGraph()
		g.Unlock()
		assertInvalidState(t, func() { src.Output(0).FanOutCount(g) })
		assertInvalidState(t, func() { g.Unlock() })
	})
	t.Run("foreign graph lock", func(t *testing.T) {
		g := other.LockGraph()
		defer g.Unlock()
		assertInvalidState(t, func() { _ = dst.Input(0).Connect(g, src.Output(0)) })
	})
	t.Run("foreign render lock", func(t *testing.T) {
		r := other.LockRender()
		defer r.Unlock()
		assertInvalidState(t, func() { src.Output(0).Pull(r, nil, c.QuantumSize()) })
	})
	t.Run("nil boundary", func(t *testing.T) {
		assertInvalidState(t, func() { src.Output(0).ChangeNumberOfChannels(nil, 2) })
	})
	t.Run("boundary outside render", func(t *testing.T) {
		c.Render(nil)
		assertInvalidState(t, func() { src.Output(0).UpdateRenderingState(&c.boundary) })
	})
	t.Run("foreign context edge", func(t *testing.T) {
		err := c.WithGraphLock(func(g *GraphLock) error {
			return dst.Input(0).Connect(g, foreign.Output(0))
		})
		assert.ErrorIs(t, err, ErrInvalidState)
		g := c.LockGraph()
		defer g.Unlock()
		assert.Zero(t, dst.Input(0).NumberOfConnections(g))
	})
}

func TestRenderDoesNotAllocate(t *testing.T) {
	c, err := NewContext()
	require.NoError(t, err)
	src := c.NewNode(&fill{value: 0.1}, WithOutputs(2))
	require.NoError(t, c.Connect(src, 0, c.Destination(), 0))
	out := NewBus(2, c.QuantumSize())
	c.Render(out)

	allocs := testing.AllocsPerRun(100, func() {
		c.Render(out)
	})
	assert.Zero(t, allocs)
}

func TestFinishDoesNotAllocate(t *testing.T) {
	c, err := NewContext()
	require.NoError(t, err)
	nodes := make([]*Node, 100)
	for i := range nodes {
		nodes[i] = c.NewNode(&fill{value: 0.1}, WithOutputs(1))
	}
	r := c.LockRender()
	defer r.Unlock()

	allocs := testing.AllocsPerRun(10, func() {
		for _, n := range nodes {
			n.Finish(r)
		}
		for _, n := range nodes {
			n.finished = false
			n.nextFinished = nil
		}
		c.finished = nil
	})
	assert.Zero(t, allocs)
}
