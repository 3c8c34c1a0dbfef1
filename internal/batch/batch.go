// Package batch drives the scan result through the tag writer/verifier,
// accumulating per-run statistics. Pairs are processed sequentially in scan
// order; one pair's failure never aborts the rest of the batch.
package batch

import (
	"context"
	"io"
	"log/slog"
	"os"

	"takeoutfix/internal/errmark"
	"takeoutfix/internal/processor"
	"takeoutfix/internal/scan"
)

// Failure records one pair-level problem for the report.
type Failure struct {
	Path   string
	Reason string
}

// maxFailureDetails bounds the retained failure lists; counters keep the
// full totals.
const maxFailureDetails = 100

// Stats accumulates attach results. Never persisted.
type Stats struct {
	Total              int
	Successful         int
	Failed             int
	Skipped            int
	Verified           int
	VerificationFailed int

	Failures             []Failure
	VerificationFailures []Failure
	Skips                []Failure
}

// SuccessRate returns the successful share in percent.
func (s *Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total) * 100
}

// CleanupStats accumulates cleanup results.
type CleanupStats struct {
	Total   int
	Deleted int
	Failed  int
	Skipped int

	Failures []Failure
	Skips    []Failure
}

func appendBounded(list []Failure, f Failure) []Failure {
	if len(list) >= maxFailureDetails {
		return list
	}
	return append(list, f)
}

// Runner orchestrates batches over a processor.
type Runner struct {
	proc   *processor.Processor
	logger *slog.Logger
}

// New constructs a Runner. A nil logger discards output.
func New(proc *processor.Processor, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{proc: proc, logger: logger}
}

// AttachOptions configures an attach run.
type AttachOptions struct {
	Verify   bool
	Progress func()
}

// Attach writes metadata to every pair. Sidecars are never deleted here, so
// re-running is safe: writes overwrite the same deterministic values.
func (r *Runner) Attach(ctx context.Context, pairs []scan.Pair, opts AttachOptions) *Stats {
	stats := &Stats{Total: len(pairs)}
	for _, pair := range pairs {
		if ctx.Err() != nil {
			break
		}
		result := r.proc.Process(ctx, pair, opts.Verify)
		switch {
		case result.Success:
			stats.Successful++
			if result.Outcome != nil {
				stats.Verified++
			}
		case errmark.Skippable(result.Err):
			// Bad sidecar, not a failed write: the pair was never attempted.
			stats.Skipped++
			stats.Skips = appendBounded(stats.Skips, Failure{Path: pair.SidecarPath, Reason: result.Message})
			r.logger.Info("pair skipped", "sidecar", pair.SidecarPath, "reason", result.Message)
		default:
			stats.Failed++
			stats.Failures = appendBounded(stats.Failures, Failure{Path: pair.MediaPath, Reason: result.Message})
			if result.Outcome != nil && !result.Outcome.Success {
				stats.VerificationFailed++
				stats.VerificationFailures = appendBounded(stats.VerificationFailures, Failure{Path: pair.MediaPath, Reason: result.Outcome.Message})
			}
			r.logger.Warn("pair failed", "media", pair.MediaPath, "reason", result.Message)
		}
		if opts.Progress != nil {
			opts.Progress()
		}
	}
	return stats
}

// CleanupOptions configures a cleanup run. With Verify set, a sidecar is
// deleted only when its pair verifies right now; without it, deletion is
// unconditional.
type CleanupOptions struct {
	Verify   bool
	Progress func()
}

// Cleanup deletes sidecars per the safety policy. Orphan sidecars are never
// passed in here; the scan keeps them out of Pairs by construction.
func (r *Runner) Cleanup(ctx context.Context, pairs []scan.Pair, opts CleanupOptions) *CleanupStats {
	stats := &CleanupStats{Total: len(pairs)}
	for _, pair := range pairs {
		if ctx.Err() != nil {
			break
		}
		if opts.Verify {
			result := r.proc.Verify(ctx, pair)
			if !result.Success {
				stats.Skipped++
				stats.Skips = appendBounded(stats.Skips, Failure{Path: pair.SidecarPath, Reason: result.Message})
				r.logger.Info("cleanup skipped", "sidecar", pair.SidecarPath, "reason", result.Message)
				if opts.Progress != nil {
					opts.Progress()
				}
				continue
			}
		}
		if err := os.Remove(pair.SidecarPath); err != nil {
			stats.Failed++
			stats.Failures = appendBounded(stats.Failures, Failure{Path: pair.SidecarPath, Reason: err.Error()})
			r.logger.Warn("delete failed", "sidecar", pair.SidecarPath, "error", err)
		} else {
			stats.Deleted++
		}
		if opts.Progress != nil {
			opts.Progress()
		}
	}
	return stats
}
