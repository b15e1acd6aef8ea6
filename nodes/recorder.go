package nodes

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/pipelined/graph"
)

// ErrRecording is returned if recorded data is requested while recording.
var ErrRecording = errors.New("recorder is recording")

// Recorder captures its input into preallocated memory. It has no
// outputs, so it should be added as automatic pull node to render.
type Recorder struct {
	*graph.Node
	channels  int
	bus       *graph.Bus
	data      []float64
	recording atomic.Bool
	// written is number of interleaved samples in data.
	written atomic.Int64
}

// NewRecorder creates a recorder that captures up to maxFrames frames
// with provided number of channels.
func NewRecorder(c *graph.Context, channels, maxFrames int, options ...graph.NodeOption) *Recorder {
	rec := &Recorder{
		channels: channels,
		bus:      graph.NewBus(channels, c.QuantumSize()),
		data:     make([]float64, channels*maxFrames),
	}
	rec.Node = c.NewNode(rec, append(options, graph.WithInputs(1))...)
	return rec
}

// Start starts recording. Previously recorded data is kept.
func (rec *Recorder) Start() {
	rec.recording.Store(true)
}

// Stop stops recording. A quantum that is being rendered might still be
// captured.
func (rec *Recorder) Stop() {
	rec.recording.Store(false)
}

// IsRecording returns true if recorder captures data.
func (rec *Recorder) IsRecording() bool {
	return rec.recording.Load()
}

// Frames returns number of recorded frames.
func (rec *Recorder) Frames() int {
	return int(rec.written.Load()) / rec.channels
}

// Process implements graph.Processor. Input is mixed to the recorder
// channels. Quantum is dropped if recorder was reset while processing.
func (rec *Recorder) Process(r *graph.RenderLock, n *graph.Node, frames int) {
	if !rec.recording.Load() {
		return
	}
	written := rec.written.Load()
	free := (len(rec.data) - int(written)) / rec.channels
	frames = min(frames, free)
	if frames == 0 {
		return
	}
	rec.bus.CopyFrom(n.Input(0).Bus())
	data := rec.data[written : int(written)+frames*rec.channels]
	for c := 0; c < rec.channels; c++ {
		ch := rec.bus.Channel(c)
		for i := 0; i < frames; i++ {
			data[i*rec.channels+c] = ch[i]
		}
	}
	rec.written.CompareAndSwap(written, written+int64(frames*rec.channels))
}

// Data returns interleaved recorded samples. The slice is shared with
// recorder and is valid until the next recording.
func (rec *Recorder) Data() []float64 {
	return rec.data[:rec.written.Load()]
}

// Buffer returns recorded samples as float buffer.
func (rec *Recorder) Buffer() *audio.FloatBuffer {
	return &audio.FloatBuffer{
		Format: &audio.Format{
			NumChannels: rec.channels,
			SampleRate:  rec.Node.Context().SampleRate(),
		},
		Data: rec.Data(),
	}
}

// Reset drops recorded data. It fails if recorder is recording. A quantum
// that is being rendered while reset is dropped.
func (rec *Recorder) Reset() error {
	if rec.IsRecording() {
		return ErrRecording
	}
	rec.written.Store(0)
	return nil
}

// WriteWAV encodes recorded data as PCM WAV with provided bit depth.
func (rec *Recorder) WriteWAV(w io.WriteSeeker, bitDepth int) error {
	if rec.IsRecording() {
		return ErrRecording
	}
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	buf := rec.Buffer()
	ints := &audio.IntBuffer{
		Format:         buf.Format,
		Data:           make([]int, len(buf.Data)),
		SourceBitDepth: bitDepth,
	}
	scale := float64(int64(1)<<(bitDepth-1) - 1)
	for i, v := range buf.Data {
		v = math.Max(-1, math.Min(1, v))
		ints.Data[i] = int(v * scale)
	}

	e := wav.NewEncoder(w, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := e.Write(ints); err != nil {
		return fmt.Errorf("error writing wav: %w", err)
	}
	if err := e.Close(); err != nil {
		return fmt.Errorf("error closing wav: %w", err)
	}
	return nil
}
