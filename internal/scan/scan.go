// Package scan classifies a directory of Takeout files into media/sidecar
// pairs, orphans, and skipped album metadata. Name matching is pure string
// work; only Scan itself touches the filesystem.
package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Option configures a Scanner.
type Option func(*Scanner)

// WithExtraExtensions adds media extensions beyond the built-in set.
// Values are normalized to a lowercase ".ext" form.
func WithExtraExtensions(exts []string) Option {
	return func(s *Scanner) {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			s.extraExts[ext] = struct{}{}
		}
	}
}

// Scanner walks a directory and partitions its files.
type Scanner struct {
	extraExts map[string]struct{}
}

// NewScanner constructs a Scanner.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{extraExts: make(map[string]struct{})}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan is a convenience wrapper using the default extension set.
func Scan(root string, recursive bool) *Result {
	return NewScanner().Scan(root, recursive)
}

func (s *Scanner) isMedia(name string) bool {
	if IsMediaName(name) {
		return true
	}
	_, ok := s.extraExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Scan classifies every file under root. A missing or non-directory root is
// reported through Errors rather than aborting the process.
func (s *Scanner) Scan(root string, recursive bool) *Result {
	result := &Result{}

	info, err := os.Stat(root)
	if err != nil {
		result.Errors = append(result.Errors, FileError{Path: root, Reason: "directory does not exist"})
		return result
	}
	if !info.IsDir() {
		result.Errors = append(result.Errors, FileError{Path: root, Reason: "path is not a directory"})
		return result
	}

	files := s.listFiles(root, recursive, result)

	// expected media path -> sidecars claiming it
	claims := make(map[string][]string)
	mediaByPath := make(map[string]struct{})

	for _, path := range files {
		name := filepath.Base(path)
		switch {
		case IsSkipName(name):
			result.SkippedSidecars = append(result.SkippedSidecars, path)
		case IsSidecarName(name):
			mediaName, ok := MediaNameFor(name)
			if !ok {
				result.Errors = append(result.Errors, FileError{Path: path, Reason: "unrecognized sidecar pattern"})
				continue
			}
			// Matching media must be a sibling; cross-directory
			// association is not attempted.
			expected := filepath.Join(filepath.Dir(path), mediaName)
			claims[expected] = append(claims[expected], path)
		case s.isMedia(name):
			mediaByPath[path] = struct{}{}
		}
	}

	expected := make([]string, 0, len(claims))
	for path := range claims {
		expected = append(expected, path)
	}
	sort.Strings(expected)

	claimed := make(map[string]struct{})
	for _, mediaPath := range expected {
		sidecars := claims[mediaPath]
		if len(sidecars) > 1 {
			// Colliding truncations: surface the conflict instead of
			// letting the last sidecar win silently.
			sort.Strings(sidecars)
			for _, sc := range sidecars {
				result.Errors = append(result.Errors, FileError{
					Path:   sc,
					Reason: fmt.Sprintf("conflict: %d sidecars target %s", len(sidecars), filepath.Base(mediaPath)),
				})
			}
			continue
		}
		if _, ok := mediaByPath[mediaPath]; ok {
			result.Pairs = append(result.Pairs, Pair{MediaPath: mediaPath, SidecarPath: sidecars[0]})
			claimed[mediaPath] = struct{}{}
		} else {
			result.OrphanSidecars = append(result.OrphanSidecars, sidecars[0])
		}
	}

	s.linkLivePhotos(result, mediaByPath, claimed)

	for path := range mediaByPath {
		if _, ok := claimed[path]; !ok {
			result.OrphanMedia = append(result.OrphanMedia, path)
		}
	}
	sort.Strings(result.OrphanMedia)
	sort.Strings(result.OrphanSidecars)
	sort.Strings(result.SkippedSidecars)
	sort.Slice(result.Pairs, func(i, j int) bool {
		return result.Pairs[i].MediaPath < result.Pairs[j].MediaPath
	})

	return result
}

func (s *Scanner) listFiles(root string, recursive bool, result *Result) []string {
	var files []string
	if recursive {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				result.Errors = append(result.Errors, FileError{Path: path, Reason: err.Error()})
				return nil
			}
			if !d.IsDir() {
				files = append(files, path)
			}
			return nil
		})
		return files
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		result.Errors = append(result.Errors, FileError{Path: root, Reason: err.Error()})
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(root, entry.Name()))
	}
	return files
}

// linkLivePhotos claims an otherwise unmatched sibling video with the same
// stem as the pair's image, so a live-photo bundle receives one shared
// sidecar instead of leaving the video an orphan.
func (s *Scanner) linkLivePhotos(result *Result, mediaByPath, claimed map[string]struct{}) {
	unclaimedVideos := make(map[string]string) // lowercased path -> actual path
	for path := range mediaByPath {
		if _, ok := claimed[path]; ok {
			continue
		}
		if IsVideoName(path) {
			unclaimedVideos[strings.ToLower(path)] = path
		}
	}
	if len(unclaimedVideos) == 0 {
		return
	}

	for i := range result.Pairs {
		pair := &result.Pairs[i]
		if !IsImageName(pair.MediaPath) {
			continue
		}
		stem := strings.TrimSuffix(pair.MediaPath, filepath.Ext(pair.MediaPath))
		for _, ext := range livePhotoVideoExts {
			key := strings.ToLower(stem + ext)
			actual, ok := unclaimedVideos[key]
			if !ok {
				continue
			}
			pair.LinkedMedia = actual
			claimed[actual] = struct{}{}
			delete(unclaimedVideos, key)
			break
		}
	}
}
