// Package portaudio plays graph output with the default audio device.
package portaudio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/pipelined/graph"
)

// Sink writes rendered quanta to the default output device. Blocking
// writes pace the render loop with the device clock.
type Sink struct {
	buf         []float32
	stream      *portaudio.Stream
	numChannels int
}

// NewSink initializes portaudio and starts the default output stream with
// the context layout.
func NewSink(c *graph.Context) (*Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("error initializing portaudio: %w", err)
	}
	s := &Sink{
		buf:         make([]float32, c.QuantumSize()*c.Channels()),
		numChannels: c.Channels(),
	}
	var err error
	s.stream, err = portaudio.OpenDefaultStream(0, s.numChannels, float64(c.SampleRate()), c.QuantumSize(), &s.buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("error opening stream: %w", err)
	}
	if err = s.stream.Start(); err != nil {
		s.stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("error starting stream: %w", err)
	}
	return s, nil
}

// Write interleaves the bus into the stream buffer and writes it. It
// satisfies run.SinkFunc.
func (s *Sink) Write(b *graph.Bus) error {
	interleave(s.buf, b, s.numChannels)
	return s.stream.Write()
}

// Close stops the stream and terminates portaudio. It satisfies
// run.FlushFunc.
func (s *Sink) Close() error {
	if err := s.stream.Stop(); err != nil {
		return err
	}
	if err := s.stream.Close(); err != nil {
		return err
	}
	return portaudio.Terminate()
}

// interleave copies the bus into buf. Missing channels are silent.
func interleave(buf []float32, b *graph.Bus, numChannels int) {
	clear(buf)
	frames := min(b.Length(), len(buf)/numChannels)
	for c := 0; c < min(numChannels, b.NumChannels()); c++ {
		ch := b.Channel(c)
		for i := 0; i < frames; i++ {
			buf[i*numChannels+c] = float32(ch[i])
		}
	}
}
