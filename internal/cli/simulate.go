package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/scroller/internal/logging"
	"github.com/dshills/scroller/internal/scroller"
	"github.com/dshills/scroller/internal/scroller/engine/sim"
	"github.com/dshills/scroller/internal/scroller/metrics"
	"github.com/dshills/scroller/internal/scroller/trace"
	"github.com/dshills/scroller/internal/script"
)

func newSimulateCmd() *cobra.Command {
	var (
		tracePath   string
		showMetrics bool
		frame       time.Duration
		maxFrames   int
	)

	cmd := &cobra.Command{
		Use:   "simulate <script.lua>",
		Short: "Run a Lua scenario against the simulated engine",
		Long: `Run a Lua scenario against a scroller attached to the simulated engine.

The script sees a global table "scroller" with functions to set the layout,
submit view changes, step frames and inspect the view.`,
		Example: `  # Run a scenario and print its completions
  scroller simulate scenarios/fling.lua

  # Record a trace for later replay
  scroller simulate scenarios/fling.lua --trace fling.trace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)
			cfg, _ := configFromContext(ctx)

			opts, err := scrollerOptions(ctx, cfg)
			if err != nil {
				return err
			}

			m := metrics.New()
			opts = append(opts, scroller.WithMetrics(m))

			if tracePath != "" {
				f, err := os.Create(tracePath)
				if err != nil {
					return fmt.Errorf("create trace: %w", err)
				}
				defer f.Close()
				rec, err := trace.NewRecorder(f)
				if err != nil {
					return fmt.Errorf("start trace: %w", err)
				}
				defer func() {
					if err := rec.Err(); err != nil {
						logger.Warn("trace incomplete", "err", err)
					}
				}()
				opts = append(opts, scroller.WithTrace(rec))
				logger.Debug("tracing", "path", tracePath, "session", rec.Session())
			}

			s := scroller.New(opts...)
			defer s.Close()
			e := sim.New()
			if err := s.Attach(e); err != nil {
				return err
			}

			r := script.New(s, e,
				script.WithOutput(cmd.OutOrStdout()),
				script.WithLogger(logger),
				script.WithFrame(frame),
				script.WithMaxFrames(maxFrames),
			)
			defer r.Close()

			start := time.Now()
			if err := r.DoFile(ctx, args[0]); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			for _, ev := range r.Completions() {
				fmt.Fprintf(out, "%-16s id=%d %s\n", ev.Kind, ev.ViewChangeID, ev.Result)
			}
			logger.Infof("simulated %d frames (%s)", r.Frames(), time.Since(start).Round(time.Millisecond))

			if showMetrics {
				return m.WriteSummary(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tracePath, "trace", "", "record a trace to this file")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print metrics after the run")
	cmd.Flags().DurationVar(&frame, "frame", script.DefaultFrame, "simulated frame duration")
	cmd.Flags().IntVar(&maxFrames, "max-frames", script.DefaultMaxFrames, "frame limit for settle()")

	return cmd
}
