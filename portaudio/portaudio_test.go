package portaudio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pipelined/graph"
)

func TestInterleave(t *testing.T) {
	b := graph.NewBus(2, 3)
	copy(b.Channel(0), []float64{1, 2, 3})
	copy(b.Channel(1), []float64{-1, -2, -3})

	t.Run("stereo", func(t *testing.T) {
		buf := make([]float32, 6)
		interleave(buf, b, 2)
		assert.Equal(t, []float32{1, -1, 2, -2, 3, -3}, buf)
	})
	t.Run("more device channels", func(t *testing.T) {
		buf := []float32{9, 9, 9, 9, 9, 9, 9, 9, 9}
		interleave(buf, b, 3)
		assert.Equal(t, []float32{1, -1, 0, 2, -2, 0, 3, -3, 0}, buf)
	})
	t.Run("less device channels", func(t *testing.T) {
		buf := make([]float32, 3)
		interleave(buf, b, 1)
		assert.Equal(t, []float32{1, 2, 3}, buf)
	})
}
