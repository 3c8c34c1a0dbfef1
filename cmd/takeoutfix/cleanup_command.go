package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"takeoutfix/internal/batch"
	"takeoutfix/internal/config"
	"takeoutfix/internal/exiftool"
	"takeoutfix/internal/logging"
	"takeoutfix/internal/preflight"
	"takeoutfix/internal/processor"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var (
		recursive bool
		dryRun    bool
		noVerify  bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup <directory>",
		Short: "Delete sidecar files whose metadata is already in the media",
		Long: "cleanup deletes a sidecar only after verifying that its media file\n" +
			"carries the recorded metadata. Orphan sidecars have no media to check\n" +
			"against and are always left in place.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			r := newReporter(cmd.OutOrStdout())

			if check := preflight.CheckDirectoryAccess("target directory", dir); !check.Passed {
				return errors.New(check.Detail)
			}
			if !noVerify {
				version, err := exiftool.Probe(cmd.Context(), cfg.ExifTool.Binary)
				if err != nil {
					return err
				}
				r.Info("Using ExifTool %s", version)
			}

			result := newScanner(cfg).Scan(dir, recursive)
			r.ScanSummary(result, dir, recursive)
			if len(result.OrphanSidecars) > 0 {
				r.Warn("%s orphan sidecars have no matching media and will not be deleted", formatCount(len(result.OrphanSidecars)))
			}
			if len(result.Pairs) == 0 {
				r.Warn("No media/sidecar pairs found; nothing to clean up")
				return nil
			}

			if dryRun {
				r.Info("Dry run requested; no files will be deleted")
				r.SampleFiles(result, 20)
				return nil
			}

			if !yes {
				question := fmt.Sprintf("This will delete up to %s sidecar files. Continue?", formatCount(len(result.Pairs)))
				if noVerify {
					question = fmt.Sprintf("This will delete %s sidecar files WITHOUT verifying the media. Continue?", formatCount(len(result.Pairs)))
				}
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
					r.Info("Aborted")
					return nil
				}
			}

			lock := flock.New(filepath.Join(dir, lockFileName))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire directory lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another takeoutfix run is already active in %s", dir)
			}
			defer func() {
				_ = lock.Unlock()
				_ = os.Remove(lock.Path())
			}()

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			logger = logger.With("run_id", uuid.NewString(), "command", "cleanup")
			logger.Info("cleanup started", "directory", dir, "pairs", len(result.Pairs), "verify", !noVerify)

			var runner *batch.Runner
			if noVerify {
				runner = batch.New(processor.New(nil, logger), logger)
			} else {
				session := exiftool.NewSession(exiftool.WithBinary(cfg.ExifTool.Binary))
				if err := session.Start(cmd.Context()); err != nil {
					return err
				}
				defer session.Close()
				runner = batch.New(processor.New(session, logger), logger)
			}

			bar := newProgressBar(len(result.Pairs), "Cleaning up sidecars", cmd.OutOrStdout())
			stats := runner.Cleanup(cmd.Context(), result.Pairs, batch.CleanupOptions{
				Verify:   !noVerify,
				Progress: func() { _ = bar.Add(1) },
			})
			_ = bar.Finish()

			r.CleanupResults(stats)
			logger.Info("cleanup finished",
				"deleted", stats.Deleted,
				"skipped", stats.Skipped,
				"failed", stats.Failed)

			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%s of %s sidecars could not be deleted", formatCount(stats.Failed), formatCount(stats.Total))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Scan subdirectories recursively")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be deleted without removing files")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Delete without verifying the media (dangerous)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
