package scan

import (
	"path/filepath"
	"strings"
)

// Sidecar suffixes in most-specific-first order. Takeout truncates long
// sidecar names inconsistently, and a shorter suffix would also match names
// still carrying the fuller one, so greedy ordered matching is required.
var sidecarSuffixes = []string{
	".supplemental-metadata.json",
	".supplemental-metada.json",
	".supplemental-met.json",
	".su.json",
}

// Album-level metadata files. These describe the album, not a media item,
// and must never be treated as sidecars.
var skipNames = map[string]struct{}{
	"metadata.json":  {},
	"Metadaten.json": {},
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	".heic": {}, ".heif": {}, ".bmp": {}, ".tiff": {}, ".tif": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".mkv": {}, ".webm": {},
	".3gp": {}, ".m4v": {},
}

// Container formats a live-photo companion video can arrive in, in lookup
// order.
var livePhotoVideoExts = []string{".mp4", ".mov", ".m4v"}

// IsSkipName reports whether the filename is album-level metadata. The check
// is exact and takes precedence over sidecar pattern matching.
func IsSkipName(name string) bool {
	_, ok := skipNames[name]
	return ok
}

// IsSidecarName reports whether the filename matches one of the Takeout
// sidecar suffix patterns, case-insensitively.
func IsSidecarName(name string) bool {
	if IsSkipName(name) {
		return false
	}
	lower := strings.ToLower(name)
	for _, suffix := range sidecarSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

// MediaNameFor derives the media filename a sidecar describes by stripping
// the first matching suffix pattern. Returns false when no pattern matches.
func MediaNameFor(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, suffix := range sidecarSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return name[:len(name)-len(suffix)], true
		}
	}
	return "", false
}

// IsMediaName reports whether the file extension belongs to the supported
// image or video set.
func IsMediaName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := imageExtensions[ext]; ok {
		return true
	}
	_, ok := videoExtensions[ext]
	return ok
}

// IsImageName reports whether the extension belongs to the image set.
func IsImageName(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsVideoName reports whether the extension belongs to the video set.
func IsVideoName(name string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
