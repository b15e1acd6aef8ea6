package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/graph"
)

func TestRecord(t *testing.T) {
	cfg := config{
		sampleRate: 8000,
		quantum:    64,
		channels:   2,
		frequency:  440,
		dry:        0.5,
		wet:        0.25,
		tremolo:    2,
		duration:   100 * time.Millisecond,
	}
	output := filepath.Join(t.TempDir(), "out.wav")
	require.NoError(t, record(context.Background(), cfg, output, 24))

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	d := wav.NewDecoder(f)
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, 8000, buf.Format.SampleRate)
	assert.Equal(t, 24, int(d.BitDepth))
	// 800 frames rounded up to quantum.
	assert.Len(t, buf.Data, 2*832)

	var left, right int
	for i := 0; i < len(buf.Data); i += 2 {
		left = max(left, buf.Data[i])
		right = max(right, buf.Data[i+1])
	}
	assert.NotZero(t, left)
	assert.Equal(t, left, right)
}

func TestSine(t *testing.T) {
	fn := sine(8, 2, 1)
	s := graph.NewBus(1, 4)
	fn(s, 4)
	assert.InDeltaSlice(t, []float64{0, 1, 0, -1}, s.Channel(0), 1e-9)
	fn(s, 4)
	assert.InDeltaSlice(t, []float64{0, 1, 0, -1}, s.Channel(0), 1e-9)
}
