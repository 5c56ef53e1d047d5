package cli

import (
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/scroller/internal/config"
	"github.com/dshills/scroller/internal/demo"
	"github.com/dshills/scroller/internal/logging"
	"github.com/dshills/scroller/internal/scroller"
	"github.com/dshills/scroller/internal/scroller/engine/sim"
)

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Scroll and zoom a checkerboard in the terminal",
		Long: `Scroll and zoom a checkerboard surface in the terminal.

Keys: arrows scroll, PgUp/PgDn page, Home/End jump, + and - zoom,
0 resets the zoom, f/F fling, q quits. The mouse wheel scrolls,
Ctrl+wheel zooms around the pointer and dragging pans.

With --config, edits to the file are applied while the demo runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)
			cfg, path := configFromContext(ctx)

			opts, err := scrollerOptions(ctx, cfg)
			if err != nil {
				return err
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return fmt.Errorf("create screen: %w", err)
			}
			if err := screen.Init(); err != nil {
				return fmt.Errorf("init screen: %w", err)
			}
			defer screen.Fini()
			screen.EnableMouse()

			s := scroller.New(opts...)
			defer s.Close()

			d, err := demo.New(screen, s, sim.New(), logger)
			if err != nil {
				return err
			}

			if path != "" {
				err := config.Watch(ctx, path, func(c *config.Config, err error) {
					if err != nil {
						logger.Warn("config reload failed", "err", err)
						return
					}
					d.Reload(c)
				})
				if err != nil {
					logger.Warn("config watch disabled", "err", err)
				}
			}

			if err := d.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				return err
			}
			return nil
		},
	}
}
