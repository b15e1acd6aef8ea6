package mock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/mock"
)

const quantumSize = 32

func TestMock(t *testing.T) {
	tests := []struct {
		channels int
		limit    int
		value    float64
		quanta   int
		samples  int
	}{
		{
			channels: 1,
			limit:    3 * quantumSize,
			value:    0.5,
			quanta:   3,
			samples:  3 * quantumSize,
		},
		{
			channels: 2,
			limit:    2*quantumSize + 1,
			value:    0.7,
			quanta:   3,
			samples:  3 * quantumSize,
		},
		{
			channels: 2,
			value:    0.1,
			quanta:   5,
			samples:  5 * quantumSize,
		},
	}

	for _, test := range tests {
		c, err := graph.NewContext(graph.WithQuantumSize(quantumSize))
		require.NoError(t, err)
		source := &mock.Source{
			Channels: test.channels,
			Limit:    test.limit,
			Value:    test.value,
		}
		processor := &mock.Processor{Channels: test.channels}
		sink := &mock.Sink{}
		src, proc, snk := source.Node(c), processor.Node(c), sink.Node(c)
		require.NoError(t, c.Connect(src, 0, proc, 0))
		require.NoError(t, c.Connect(proc, 0, snk, 0))
		require.NoError(t, c.WithGraphLock(func(g *graph.GraphLock) error {
			c.AddAutomaticPullNode(g, snk)
			return nil
		}))

		for i := 0; i < 5; i++ {
			if i == 2 {
				assert.Equal(t, test.value, sink.Buffer().Channel(test.channels-1)[0])
			}
			c.Render(nil)
		}
		quanta, samples := source.Count()
		assert.Equal(t, test.quanta, quanta)
		assert.Equal(t, test.samples, samples)
		quanta, samples = sink.Count()
		assert.Equal(t, 5, quanta)
		assert.Equal(t, 5*quantumSize, samples)
	}
}

func TestSourceReset(t *testing.T) {
	c, err := graph.NewContext(graph.WithQuantumSize(quantumSize))
	require.NoError(t, err)
	source := &mock.Source{Channels: 1, Limit: quantumSize}
	src := source.Node(c)
	require.NoError(t, c.Connect(src, 0, c.Destination(), 0))
	c.Render(nil)
	c.Render(nil)
	quanta, _ := source.Count()
	assert.Equal(t, 1, quanta)

	source.Reset()
	quanta, samples := source.Count()
	assert.Zero(t, quanta)
	assert.Zero(t, samples)
}
