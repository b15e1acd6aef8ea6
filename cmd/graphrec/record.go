package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pipelined/graph/metric"
	"github.com/pipelined/graph/run"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Render the graph offline and write the recording to a WAV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		bitDepth, _ := cmd.Flags().GetInt("bit-depth")
		return record(cmd.Context(), readConfig(), output, bitDepth)
	},
}

func init() {
	RootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringP("output", "o", "graphrec.wav", "output WAV file")
	recordCmd.Flags().Int("bit-depth", 16, "WAV bit depth: 16, 24 or 32")
}

func record(ctx context.Context, cfg config, output string, bitDepth int) error {
	if cfg.duration == 0 {
		cfg.duration = 5 * time.Second
	}
	s, err := newSession(cfg, recordFrames(cfg))
	if err != nil {
		return err
	}
	s.recorder.Start()
	if err := render(ctx, s, cfg, run.WithDuration(s.ctx, cfg.duration)); err != nil {
		return err
	}
	s.recorder.Stop()

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("error creating output: %w", err)
	}
	defer f.Close()
	if err := s.recorder.WriteWAV(f, bitDepth); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"file":   output,
		"frames": s.recorder.Frames(),
	}).Info("recording saved")
	return nil
}

// render runs the graph until it's done or interrupted.
func render(ctx context.Context, s *session, cfg config, options ...run.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	r := run.New(ctx, s.ctx, options...)
	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return r.Wait()
	})
	g.Go(func() error {
		select {
		case <-done:
		case <-ctx.Done():
			select {
			case <-done:
			default:
				logger.Info("interrupted")
				r.Stop()
			}
		}
		return nil
	})
	err := g.Wait()

	stats := r.Stats()
	logger.WithFields(logrus.Fields{
		"quanta":   stats.Quanta,
		"overruns": stats.Overruns,
	}).Info("rendering done")
	if cfg.metric {
		for processor, counters := range metric.GetAll() {
			logger.WithField("processor", processor).Info(counters)
		}
	}
	return err
}

func recordFrames(cfg config) int {
	return int(cfg.duration.Seconds()*float64(cfg.sampleRate)) + cfg.quantum
}
