//go:build portaudio

package portaudio_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/nodes"
	"github.com/pipelined/graph/portaudio"
	"github.com/pipelined/graph/run"
)

func TestSink(t *testing.T) {
	c, err := graph.NewContext()
	require.NoError(t, err)
	phase := 0.0
	tone := nodes.NewFunc(c, 1, 0, func(b *graph.Bus, frames int) {
		ch := b.Channel(0)
		for i := 0; i < frames; i++ {
			ch[i] = 0.2 * math.Sin(phase)
			phase += 2 * math.Pi * 440 / float64(c.SampleRate())
		}
	})
	require.NoError(t, c.Connect(tone.Node, 0, c.Destination(), 0))

	sink, err := portaudio.NewSink(c)
	require.NoError(t, err)
	r := run.New(context.Background(), c,
		run.WithDuration(c, time.Second),
		run.WithSink(sink.Write),
		run.WithFlush(sink.Close),
	)
	require.NoError(t, r.Wait())
}
