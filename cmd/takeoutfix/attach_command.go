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

// lockFileName guards a directory against concurrent mutating runs.
const lockFileName = ".takeoutfix.lock"

func newAttachCommand(ctx *commandContext) *cobra.Command {
	var (
		recursive bool
		dryRun    bool
		noVerify  bool
		yes       bool
	)

	cmd := &cobra.Command{
		Use:   "attach <directory>",
		Short: "Write sidecar metadata into the paired media files",
		Long: "attach scans the directory for media/sidecar pairs, writes capture\n" +
			"dates, GPS coordinates, and descriptions into the media files, and\n" +
			"verifies each write by reading the tags back. Sidecar files are never\n" +
			"modified or deleted, so the command is safe to re-run.",
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
			version, err := exiftool.Probe(cmd.Context(), cfg.ExifTool.Binary)
			if err != nil {
				return err
			}
			r.Info("Using ExifTool %s", version)

			result := newScanner(cfg).Scan(dir, recursive)
			r.ScanSummary(result, dir, recursive)
			if len(result.Pairs) == 0 {
				r.Warn("No media/sidecar pairs found; nothing to do")
				return nil
			}
			r.ExtensionBreakdown(result)

			if dryRun {
				r.Info("Dry run requested; no files will be modified")
				r.SampleFiles(result, 20)
				return nil
			}

			if !yes {
				question := fmt.Sprintf("This will modify %s media files in place. Continue?", formatCount(len(result.Pairs)))
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
			logger = logger.With("run_id", uuid.NewString(), "command", "attach")
			logger.Info("attach started", "directory", dir, "pairs", len(result.Pairs), "verify", !noVerify)

			session := exiftool.NewSession(
				exiftool.WithBinary(cfg.ExifTool.Binary),
				exiftool.WithKeepBackups(cfg.ExifTool.KeepBackups),
			)
			if err := session.Start(cmd.Context()); err != nil {
				return err
			}
			defer session.Close()

			runner := batch.New(processor.New(session, logger), logger)
			bar := newProgressBar(len(result.Pairs), "Writing metadata", cmd.OutOrStdout())
			stats := runner.Attach(cmd.Context(), result.Pairs, batch.AttachOptions{
				Verify:   !noVerify,
				Progress: func() { _ = bar.Add(1) },
			})
			_ = bar.Finish()

			r.AttachResults(stats, !noVerify)
			logger.Info("attach finished",
				"successful", stats.Successful,
				"failed", stats.Failed,
				"verified", stats.Verified)

			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if stats.Failed > 0 {
				return fmt.Errorf("%s of %s pairs failed", formatCount(stats.Failed), formatCount(stats.Total))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Scan subdirectories recursively")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be done without modifying files")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip reading tags back after each write")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
