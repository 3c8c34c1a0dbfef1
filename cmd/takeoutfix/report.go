package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"takeoutfix/internal/batch"
	"takeoutfix/internal/scan"
)

var countPrinter = message.NewPrinter(language.English)

// formatCount renders an integer with digit grouping, e.g. "12,345".
func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// reporter renders human-facing output for the subcommands. Structured
// logging is separate; this is the terminal surface only.
type reporter struct {
	out      io.Writer
	colorize bool
}

func newReporter(out io.Writer) *reporter {
	return &reporter{out: out, colorize: shouldColorize(out)}
}

func (r *reporter) paint(c *color.Color, s string) string {
	if !r.colorize {
		return s
	}
	return c.Sprint(s)
}

func (r *reporter) Heading(text string) {
	fmt.Fprintln(r.out, r.paint(headingColor, text))
}

func (r *reporter) Info(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

func (r *reporter) Success(format string, args ...any) {
	fmt.Fprintln(r.out, r.paint(successColor, fmt.Sprintf(format, args...)))
}

func (r *reporter) Warn(format string, args ...any) {
	fmt.Fprintln(r.out, r.paint(warnColor, fmt.Sprintf(format, args...)))
}

func (r *reporter) Error(format string, args ...any) {
	fmt.Fprintln(r.out, r.paint(errorColor, fmt.Sprintf(format, args...)))
}

func (r *reporter) blank() {
	fmt.Fprintln(r.out)
}

// ScanSummary renders the five-way partition of a scanned directory.
func (r *reporter) ScanSummary(result *scan.Result, dir string, recursive bool) {
	mode := "single directory"
	if recursive {
		mode = "recursive"
	}
	r.Heading(fmt.Sprintf("Scan of %s (%s)", dir, mode))

	rows := [][]string{
		{"Media with sidecar", formatCount(len(result.Pairs)), "ready to process"},
		{"Media without sidecar", formatCount(len(result.OrphanMedia)), "nothing to attach"},
		{"Orphan sidecars", formatCount(len(result.OrphanSidecars)), "no matching media"},
		{"Album metadata", formatCount(len(result.SkippedSidecars)), "skipped"},
		{"Errors", formatCount(len(result.Errors)), ""},
	}
	fmt.Fprintln(r.out, renderTable(
		[]string{"Category", "Count", "Note"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft},
	))

	linked := 0
	for _, pair := range result.Pairs {
		if pair.LinkedMedia != "" {
			linked++
		}
	}
	if linked > 0 {
		r.Info("%s pairs include a linked live-photo video", formatCount(linked))
	}
	if len(result.Errors) > 0 {
		r.blank()
		r.Warn("Scan problems:")
		for _, fe := range result.Errors {
			r.Info("  %s: %s", fe.Path, fe.Reason)
		}
	}
	r.blank()
}

// ExtensionBreakdown tabulates paired media by file extension.
func (r *reporter) ExtensionBreakdown(result *scan.Result) {
	if len(result.Pairs) == 0 {
		return
	}
	counts := make(map[string]int)
	for _, pair := range result.Pairs {
		ext := strings.ToLower(filepath.Ext(pair.MediaPath))
		counts[ext]++
	}
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Slice(exts, func(i, j int) bool {
		if counts[exts[i]] != counts[exts[j]] {
			return counts[exts[i]] > counts[exts[j]]
		}
		return exts[i] < exts[j]
	})

	rows := make([][]string, 0, len(exts))
	total := len(result.Pairs)
	for _, ext := range exts {
		share := float64(counts[ext]) / float64(total) * 100
		rows = append(rows, []string{ext, formatCount(counts[ext]), fmt.Sprintf("%.1f%%", share)})
	}
	r.Heading("Paired media by extension")
	fmt.Fprintln(r.out, renderTable(
		[]string{"Extension", "Count", "Share"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))
	r.blank()
}

// maxDirectoryRows bounds the per-directory table for deep recursive scans.
const maxDirectoryRows = 15

// DirectoryBreakdown tabulates paired media per containing directory.
func (r *reporter) DirectoryBreakdown(result *scan.Result) {
	if len(result.Pairs) == 0 {
		return
	}
	counts := make(map[string]int)
	for _, pair := range result.Pairs {
		counts[filepath.Dir(pair.MediaPath)]++
	}
	if len(counts) < 2 {
		return
	}
	dirs := make([]string, 0, len(counts))
	for dir := range counts {
		dirs = append(dirs, dir)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if counts[dirs[i]] != counts[dirs[j]] {
			return counts[dirs[i]] > counts[dirs[j]]
		}
		return dirs[i] < dirs[j]
	})

	shown := dirs
	if len(shown) > maxDirectoryRows {
		shown = shown[:maxDirectoryRows]
	}
	rows := make([][]string, 0, len(shown)+1)
	for _, dir := range shown {
		rows = append(rows, []string{dir, formatCount(counts[dir])})
	}
	if rest := len(dirs) - len(shown); rest > 0 {
		rows = append(rows, []string{fmt.Sprintf("(%d more directories)", rest), ""})
	}
	r.Heading("Paired media by directory")
	fmt.Fprintln(r.out, renderTable(
		[]string{"Directory", "Pairs"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
	r.blank()
}

// SampleFiles lists the first pairs so the user can eyeball the matching.
func (r *reporter) SampleFiles(result *scan.Result, limit int) {
	if len(result.Pairs) == 0 || limit <= 0 {
		return
	}
	r.Heading("Sample pairs")
	for i, pair := range result.Pairs {
		if i >= limit {
			r.Info("  ... and %s more", formatCount(len(result.Pairs)-limit))
			break
		}
		r.Info("  %s <- %s", filepath.Base(pair.MediaPath), filepath.Base(pair.SidecarPath))
		if pair.LinkedMedia != "" {
			r.Info("  %s (linked video)", filepath.Base(pair.LinkedMedia))
		}
	}
	r.blank()
}

// AttachResults renders the statistics of a completed attach run.
func (r *reporter) AttachResults(stats *batch.Stats, verified bool) {
	r.Heading("Results")
	rows := [][]string{
		{"Processed", formatCount(stats.Total)},
		{"Successful", formatCount(stats.Successful)},
		{"Failed", formatCount(stats.Failed)},
		{"Skipped (bad sidecar)", formatCount(stats.Skipped)},
	}
	if verified {
		rows = append(rows,
			[]string{"Verified", formatCount(stats.Verified)},
			[]string{"Verification failed", formatCount(stats.VerificationFailed)},
		)
	}
	rows = append(rows, []string{"Success rate", fmt.Sprintf("%.1f%%", stats.SuccessRate())})
	fmt.Fprintln(r.out, renderTable(
		[]string{"Metric", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))

	r.failureList("Failures", stats.Failures, stats.Failed)
	r.failureList("Skipped", stats.Skips, stats.Skipped)
	if stats.Failed == 0 && stats.Total > 0 {
		r.Success("All %s pairs processed successfully", formatCount(stats.Total))
	}
}

// CleanupResults renders the statistics of a completed cleanup run.
func (r *reporter) CleanupResults(stats *batch.CleanupStats) {
	r.Heading("Results")
	rows := [][]string{
		{"Sidecars considered", formatCount(stats.Total)},
		{"Deleted", formatCount(stats.Deleted)},
		{"Skipped (not verified)", formatCount(stats.Skipped)},
		{"Delete failures", formatCount(stats.Failed)},
	}
	fmt.Fprintln(r.out, renderTable(
		[]string{"Metric", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))

	r.failureList("Skipped", stats.Skips, stats.Skipped)
	r.failureList("Delete failures", stats.Failures, stats.Failed)
	if stats.Deleted > 0 {
		r.Success("Deleted %s sidecar files", formatCount(stats.Deleted))
	}
}

func (r *reporter) failureList(title string, list []batch.Failure, total int) {
	if len(list) == 0 {
		return
	}
	r.blank()
	r.Warn("%s:", title)
	for _, f := range list {
		r.Info("  %s: %s", f.Path, f.Reason)
	}
	if rest := total - len(list); rest > 0 {
		r.Info("  ... and %s more (see the log for the full list)", formatCount(rest))
	}
}

// newProgressBar builds a terminal progress bar; on non-terminal output the
// bar stays invisible and only the final report is printed.
func newProgressBar(total int, label string, out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetVisibility(shouldColorize(out)),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}
