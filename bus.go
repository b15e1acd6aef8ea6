package graph

import (
	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
)

// MaxChannels is the maximum number of channels a bus can carry.
const MaxChannels = 32

// Bus is a block of samples for one render quantum. Samples are stored
// per channel, every channel has the same length.
type Bus struct {
	channels [][]float64
	length   int
}

// NewBus allocates a silent bus.
func NewBus(numChannels, length int) *Bus {
	b := &Bus{length: length}
	b.resize(numChannels)
	return b
}

// NumChannels returns number of channels.
func (b *Bus) NumChannels() int {
	if b == nil {
		return 0
	}
	return len(b.channels)
}

// Length returns number of frames per channel.
func (b *Bus) Length() int {
	return b.length
}

// Channel returns samples of the channel. The slice is shared with bus.
func (b *Bus) Channel(i int) []float64 {
	return b.channels[i]
}

// Zero silences all channels.
func (b *Bus) Zero() {
	for i := range b.channels {
		clear(b.channels[i])
	}
}

// CopyFrom silences the bus and mixes src into it.
func (b *Bus) CopyFrom(src *Bus) {
	if b == src {
		return
	}
	b.Zero()
	b.SumFrom(src)
}

// SumFrom adds src to the bus. Mono is spread to both channels of stereo
// and stereo is folded to mono. Other layouts are mixed discretely: extra
// channels are dropped, missing ones stay untouched.
func (b *Bus) SumFrom(src *Bus) {
	if src.NumChannels() == 0 || b.NumChannels() == 0 {
		return
	}
	n := min(b.length, src.length)
	switch {
	case src.NumChannels() == 1 && b.NumChannels() == 2:
		vecmath.AddBlockInPlace(b.channels[0][:n], src.channels[0][:n])
		vecmath.AddBlockInPlace(b.channels[1][:n], src.channels[0][:n])
	case src.NumChannels() == 2 && b.NumChannels() == 1:
		l, r, d := src.channels[0][:n], src.channels[1][:n], b.channels[0][:n]
		for i := range d {
			d[i] += 0.5 * (l[i] + r[i])
		}
	default:
		for c := 0; c < min(b.NumChannels(), src.NumChannels()); c++ {
			vecmath.AddBlockInPlace(b.channels[c][:n], src.channels[c][:n])
		}
	}
}

// AsBuffer returns interleaved copy of the bus.
func (b *Bus) AsBuffer(sampleRate int) *audio.FloatBuffer {
	numChannels := b.NumChannels()
	buf := &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		Data: make([]float64, numChannels*b.length),
	}
	for i := 0; i < b.length; i++ {
		for j := range b.channels {
			buf.Data[i*numChannels+j] = b.channels[j][i]
		}
	}
	return buf
}

// resize changes number of channels. Previously allocated channels are
// reused and silenced.
func (b *Bus) resize(numChannels int) {
	if numChannels <= cap(b.channels) {
		b.channels = b.channels[:numChannels]
		for i := range b.channels {
			if b.channels[i] == nil {
				b.channels[i] = make([]float64, b.length)
			}
		}
		b.Zero()
		return
	}
	channels := make([][]float64, numChannels)
	copy(channels, b.channels[:cap(b.channels)])
	for i := range channels {
		if channels[i] == nil {
			channels[i] = make([]float64, b.length)
		}
	}
	b.channels = channels
	b.Zero()
}
