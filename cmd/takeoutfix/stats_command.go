package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"takeoutfix/internal/config"
	"takeoutfix/internal/scan"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "stats <directory>",
		Short: "Report how many media files have matching sidecars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("directory not found: %s", dir)
			}

			result := newScanner(cfg).Scan(dir, recursive)

			r := newReporter(cmd.OutOrStdout())
			r.ScanSummary(result, dir, recursive)
			r.ExtensionBreakdown(result)
			r.DirectoryBreakdown(result)
			r.SampleFiles(result, 5)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Scan subdirectories recursively")
	return cmd
}

func newScanner(cfg *config.Config) *scan.Scanner {
	return scan.NewScanner(scan.WithExtraExtensions(cfg.Scanner.ExtraMediaExtensions))
}
