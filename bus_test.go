package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func busOf(channels ...[]float64) *Bus {
	b := NewBus(len(channels), len(channels[0]))
	for i := range channels {
		copy(b.Channel(i), channels[i])
	}
	return b
}

func TestBusSumFrom(t *testing.T) {
	tests := []struct {
		name     string
		dst      *Bus
		src      *Bus
		expected [][]float64
	}{
		{
			name:     "mono to stereo",
			dst:      busOf([]float64{1, 1}, []float64{2, 2}),
			src:      busOf([]float64{0.5, -0.5}),
			expected: [][]float64{{1.5, 0.5}, {2.5, 1.5}},
		},
		{
			name:     "stereo to mono",
			dst:      busOf([]float64{0, 1}),
			src:      busOf([]float64{1, 2}, []float64{3, 4}),
			expected: [][]float64{{2, 4}},
		},
		{
			name:     "discrete down",
			dst:      busOf([]float64{0, 0}, []float64{0, 0}),
			src:      busOf([]float64{1, 1}, []float64{2, 2}, []float64{3, 3}),
			expected: [][]float64{{1, 1}, {2, 2}},
		},
		{
			name:     "discrete up",
			dst:      busOf([]float64{0, 0}, []float64{0, 0}, []float64{7, 7}),
			src:      busOf([]float64{1, 1}, []float64{2, 2}),
			expected: [][]float64{{1, 1}, {2, 2}, {7, 7}},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.dst.SumFrom(test.src)
			assert.Equal(t, test.expected, test.dst.channels)
		})
	}
}

func TestBusCopyFrom(t *testing.T) {
	b := busOf([]float64{9, 9}, []float64{9, 9})
	b.CopyFrom(busOf([]float64{1, 2}))
	assert.Equal(t, [][]float64{{1, 2}, {1, 2}}, b.channels)

	b.CopyFrom(b)
	assert.Equal(t, [][]float64{{1, 2}, {1, 2}}, b.channels)
}

func TestBusResize(t *testing.T) {
	b := busOf([]float64{1, 1}, []float64{2, 2})
	first := b.Channel(0)

	b.resize(1)
	assert.Equal(t, 1, b.NumChannels())
	assert.Equal(t, []float64{0, 0}, b.Channel(0))

	b.resize(2)
	assert.Equal(t, 2, b.NumChannels())
	assert.Equal(t, []float64{0, 0}, b.Channel(1))
	assert.Same(t, &first[0], &b.Channel(0)[0])

	b.resize(4)
	assert.Equal(t, 4, b.NumChannels())
	assert.Same(t, &first[0], &b.Channel(0)[0])
	for i := 0; i < 4; i++ {
		assert.Len(t, b.Channel(i), 2)
	}
}

func TestBusAsBuffer(t *testing.T) {
	buf := busOf([]float64{1, 2, 3}, []float64{-1, -2, -3}).AsBuffer(48000)
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, 48000, buf.Format.SampleRate)
	assert.Equal(t, []float64{1, -1, 2, -2, 3, -3}, buf.Data)

	var b *Bus
	assert.Zero(t, b.NumChannels())
}
