package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/scroller/internal/config"
)

func newConfigCmd() *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration: the defaults overlaid with the
--config file and environment overrides. With --file, that file is
validated and printed instead.`,
		Example: `  scroller config
  scroller config --file scroller.toml --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _ := configFromContext(cmd.Context())
			if file != "" {
				c, err := config.Load(file)
				if err != nil {
					return err
				}
				cfg = c
			}

			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			data, err := config.Encode(cfg, f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "validate and print this file")
	cmd.Flags().StringVar(&format, "format", "toml", "output format (toml, yaml)")
	return cmd
}

func parseFormat(s string) (config.Format, error) {
	switch s {
	case "toml":
		return config.FormatTOML, nil
	case "yaml", "yml":
		return config.FormatYAML, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}
