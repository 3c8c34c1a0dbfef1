package scan

// Pair is one matched media/sidecar association. LinkedMedia carries the
// companion video of a live-photo bundle that shares the same sidecar.
type Pair struct {
	MediaPath   string
	SidecarPath string
	LinkedMedia string
}

// Targets returns the media files the pair's metadata applies to, primary
// first. Write and verify operate uniformly over this list.
func (p Pair) Targets() []string {
	if p.LinkedMedia != "" {
		return []string{p.MediaPath, p.LinkedMedia}
	}
	return []string{p.MediaPath}
}

// FileError records a per-file scan problem.
type FileError struct {
	Path   string
	Reason string
}

// Result partitions a scanned corpus. Every classified file appears in at
// most one of the five collections.
type Result struct {
	Pairs           []Pair
	OrphanSidecars  []string
	OrphanMedia     []string
	SkippedSidecars []string
	Errors          []FileError
}

// Merge appends another result's collections. Used when a scan is split
// across subtrees; no de-duplication is attempted.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Pairs = append(r.Pairs, other.Pairs...)
	r.OrphanSidecars = append(r.OrphanSidecars, other.OrphanSidecars...)
	r.OrphanMedia = append(r.OrphanMedia, other.OrphanMedia...)
	r.SkippedSidecars = append(r.SkippedSidecars, other.SkippedSidecars...)
	r.Errors = append(r.Errors, other.Errors...)
}
