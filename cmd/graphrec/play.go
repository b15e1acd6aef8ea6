package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pipelined/graph/portaudio"
	"github.com/pipelined/graph/run"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the graph with the default audio device",
	Long: `Play the graph with the default audio device until interrupted or
until the duration is rendered.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(cmd.Context(), readConfig())
	},
}

func init() {
	RootCmd.AddCommand(playCmd)
}

func play(ctx context.Context, cfg config) error {
	// nothing is recorded, so recorder gets a single quantum.
	s, err := newSession(cfg, cfg.quantum)
	if err != nil {
		return err
	}
	sink, err := portaudio.NewSink(s.ctx)
	if err != nil {
		return err
	}
	options := []run.Option{
		run.WithSink(sink.Write),
		run.WithFlush(sink.Close),
	}
	if cfg.duration > 0 {
		options = append(options, run.WithDuration(s.ctx, cfg.duration))
	}
	return render(ctx, s, cfg, options...)
}
