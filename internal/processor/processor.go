// Package processor applies sidecar metadata to media files through the
// tagging engine and verifies, field by field, that the write took effect.
package processor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"takeoutfix/internal/exiftool"
	"takeoutfix/internal/scan"
	"takeoutfix/internal/sidecar"
)

// Engine is the external tagging boundary the processor drives. Writes
// overwrite in place; reads return the grouped tag map.
type Engine interface {
	Write(ctx context.Context, path string, fields map[string]string) error
	Read(ctx context.Context, path string) (exiftool.Fields, error)
}

// Outcome is the per-pair verification result. For a linked pair each match
// is the AND of the image-side and video-side comparison.
type Outcome struct {
	Success          bool
	DateMatch        bool
	GPSMatch         bool
	DescriptionMatch bool
	Message          string
}

// Result reports one processed pair. Err carries the classified cause when a
// step failed outright; verification mismatches live in Outcome instead.
type Result struct {
	Success bool
	Message string
	Outcome *Outcome
	Err     error
}

// Processor writes and verifies metadata for matched pairs.
type Processor struct {
	engine Engine
	logger *slog.Logger
}

// New constructs a Processor. A nil logger discards output.
func New(engine Engine, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{engine: engine, logger: logger}
}

// Process parses the pair's sidecar, writes the derived fields to every
// target, and optionally verifies them by reading back. Any step's failure
// short-circuits with Success=false; writes are not rolled back.
func (p *Processor) Process(ctx context.Context, pair scan.Pair, verify bool) Result {
	md, err := sidecar.Parse(pair.SidecarPath)
	if err != nil {
		return Result{Message: err.Error(), Err: err}
	}

	fields := tagFields(md)
	if len(fields) == 0 {
		return Result{Success: true, Message: "no metadata to write"}
	}

	targets := pair.Targets()
	labels := targetLabels(targets)
	for i, target := range targets {
		if err := p.engine.Write(ctx, target, fields); err != nil {
			p.logger.Warn("tag write failed", "target", target, "error", err)
			return Result{Message: fmt.Sprintf("%s: %v", labels[i], err), Err: err}
		}
		p.logger.Debug("tags written", "target", target, "fields", len(fields))
	}

	message := fmt.Sprintf("wrote %d fields", len(fields))
	if len(targets) > 1 {
		message += " (image and video)"
	}
	if !verify {
		return Result{Success: true, Message: message}
	}

	outcome := p.verifyTargets(ctx, md, targets, labels)
	if !outcome.Success {
		return Result{Message: outcome.Message, Outcome: &outcome}
	}
	return Result{Success: true, Message: message + "; " + outcome.Message, Outcome: &outcome}
}

// Verify re-parses the sidecar and re-reads every target without writing.
// Cleanup uses this to gate sidecar deletion on current on-disk state.
func (p *Processor) Verify(ctx context.Context, pair scan.Pair) Result {
	md, err := sidecar.Parse(pair.SidecarPath)
	if err != nil {
		return Result{Message: err.Error(), Err: err}
	}
	targets := pair.Targets()
	outcome := p.verifyTargets(ctx, md, targets, targetLabels(targets))
	return Result{Success: outcome.Success, Message: outcome.Message, Outcome: &outcome}
}

func (p *Processor) verifyTargets(ctx context.Context, md *sidecar.Metadata, targets, labels []string) Outcome {
	per := make([]comparison, len(targets))
	for i, target := range targets {
		fields, err := p.engine.Read(ctx, target)
		if err != nil {
			p.logger.Warn("tag read failed", "target", target, "error", err)
			per[i] = comparison{readFailed: true}
			continue
		}
		per[i] = compareFields(md, fields)
	}
	return combine(per, labels)
}

func targetLabels(targets []string) []string {
	if len(targets) > 1 {
		return []string{"image", "video"}
	}
	return []string{"image"}
}

func combine(per []comparison, labels []string) Outcome {
	out := Outcome{DateMatch: true, GPSMatch: true, DescriptionMatch: true}
	linked := len(per) > 1
	var issues []string

	for i, cmp := range per {
		if cmp.readFailed {
			out.DateMatch = false
			out.GPSMatch = false
			out.DescriptionMatch = false
			if linked {
				issues = append(issues, labels[i]+": could not read metadata")
			} else {
				issues = append(issues, "could not read metadata")
			}
			continue
		}
		out.DateMatch = out.DateMatch && cmp.date
		out.GPSMatch = out.GPSMatch && cmp.gps
		out.DescriptionMatch = out.DescriptionMatch && cmp.description
		if linked {
			for _, field := range cmp.failedFields() {
				issues = append(issues, labels[i]+" "+field)
			}
		} else {
			issues = append(issues, cmp.issues...)
		}
	}

	out.Success = out.DateMatch && out.GPSMatch && out.DescriptionMatch
	switch {
	case out.Success && linked:
		out.Message = "all metadata verified (image and video)"
	case out.Success:
		out.Message = "all metadata verified"
	default:
		out.Message = "verification failed on: " + strings.Join(issues, ", ")
	}
	return out
}
