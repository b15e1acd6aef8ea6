package main

import (
	"fmt"
	"math"

	"github.com/pipelined/graph"
	"github.com/pipelined/graph/log"
	"github.com/pipelined/graph/nodes"
)

// session is the rendered topology:
//
//	tone -> dry -> destination
//	tone -> wet -> destination
//	dry, wet -> recorder
//	tremolo -> wet.gain
type session struct {
	ctx      *graph.Context
	tone     *nodes.Func
	tremolo  *nodes.Func
	dry      *nodes.Gain
	wet      *nodes.Gain
	recorder *nodes.Recorder
}

func newSession(cfg config, recordFrames int) (*session, error) {
	options := []graph.Option{
		graph.WithSampleRate(cfg.sampleRate),
		graph.WithQuantumSize(cfg.quantum),
		graph.WithChannels(cfg.channels),
		graph.WithLogger(logger),
	}
	if cfg.metric {
		options = append(options, graph.WithMetric())
	}
	c, err := graph.NewContext(options...)
	if err != nil {
		return nil, fmt.Errorf("error creating context: %w", err)
	}

	s := session{
		ctx:      c,
		tone:     nodes.NewFunc(c, 1, 0, sine(cfg.sampleRate, cfg.frequency, 0.5), graph.WithName("tone")),
		dry:      nodes.NewGain(c, graph.WithName("dry")),
		wet:      nodes.NewGain(c, graph.WithName("wet")),
		recorder: nodes.NewRecorder(c, cfg.channels, recordFrames, graph.WithName("recorder")),
	}
	s.dry.Gain().SetValue(cfg.dry)
	s.wet.Gain().SetValue(cfg.wet)

	err = c.WithGraphLock(func(g *graph.GraphLock) error {
		for _, gain := range []*nodes.Gain{s.dry, s.wet} {
			if err := gain.Input(0).Connect(g, s.tone.Output(0)); err != nil {
				return err
			}
			if err := c.Destination().Input(0).Connect(g, gain.Output(0)); err != nil {
				return err
			}
			if err := s.recorder.Input(0).Connect(g, gain.Output(0)); err != nil {
				return err
			}
		}
		if cfg.tremolo > 0 {
			s.tremolo = nodes.NewFunc(c, 1, 0, sine(cfg.sampleRate, cfg.tremolo, cfg.wet/2), graph.WithName("tremolo"))
			if err := s.wet.Gain().Connect(g, s.tremolo.Output(0)); err != nil {
				return err
			}
		}
		c.AddAutomaticPullNode(g, s.recorder.Node)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting graph: %w", err)
	}
	for _, n := range []*graph.Node{s.tone.Node, s.dry.Node, s.wet.Node, s.recorder.Node} {
		log.WithNode(logger, n).Debug("created")
	}
	return &s, nil
}

// sine returns a source function that generates a tone.
func sine(sampleRate int, frequency, amplitude float64) nodes.SourceFunc {
	var phase float64
	step := 2 * math.Pi * frequency / float64(sampleRate)
	return func(b *graph.Bus, frames int) {
		for c := 0; c < b.NumChannels(); c++ {
			ch := b.Channel(c)
			p := phase
			for i := 0; i < frames; i++ {
				ch[i] = amplitude * math.Sin(p)
				p += step
			}
		}
		phase = math.Mod(phase+step*float64(frames), 2*math.Pi)
	}
}
