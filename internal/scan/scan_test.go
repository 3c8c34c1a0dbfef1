package scan

import (
	"path/filepath"
	"strings"
	"testing"

	"takeoutfix/internal/testsupport"
)

func TestScanPairsSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "a.jpg")
	sc := filepath.Join(dir, "a.jpg.supplemental-metadata.json")
	testsupport.WriteFile(t, media)
	testsupport.WriteSidecar(t, sc, "{}")

	result := Scan(dir, false)
	if len(result.Pairs) != 1 {
		t.Fatalf("expected one pair, got %d", len(result.Pairs))
	}
	pair := result.Pairs[0]
	if pair.MediaPath != media || pair.SidecarPath != sc {
		t.Fatalf("unexpected pair %+v", pair)
	}
	if len(result.OrphanMedia)+len(result.OrphanSidecars)+len(result.SkippedSidecars)+len(result.Errors) != 0 {
		t.Fatalf("expected clean result, got %+v", result)
	}
}

func TestScanOrphanSidecar(t *testing.T) {
	dir := t.TempDir()
	sc := filepath.Join(dir, "a.jpg.supplemental-metadata.json")
	testsupport.WriteSidecar(t, sc, "{}")

	result := Scan(dir, false)
	if len(result.Pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(result.Pairs))
	}
	if len(result.OrphanSidecars) != 1 || result.OrphanSidecars[0] != sc {
		t.Fatalf("expected orphan sidecar, got %+v", result.OrphanSidecars)
	}
}

func TestScanOrphanMedia(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "a.jpg")
	testsupport.WriteFile(t, media)

	result := Scan(dir, false)
	if len(result.Pairs) != 0 {
		t.Fatalf("expected no pairs, got %d", len(result.Pairs))
	}
	if len(result.OrphanMedia) != 1 || result.OrphanMedia[0] != media {
		t.Fatalf("expected orphan media, got %+v", result.OrphanMedia)
	}
}

func TestScanSkipsAlbumMetadata(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteSidecar(t, filepath.Join(dir, "metadata.json"), "{}")
	testsupport.WriteSidecar(t, filepath.Join(dir, "Metadaten.json"), "{}")

	result := Scan(dir, false)
	if len(result.SkippedSidecars) != 2 {
		t.Fatalf("expected two skipped files, got %+v", result.SkippedSidecars)
	}
	if len(result.Pairs)+len(result.OrphanSidecars) != 0 {
		t.Fatalf("album metadata leaked into other collections: %+v", result)
	}
}

func TestScanIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"))
	testsupport.WriteFile(t, filepath.Join(dir, "archive.zip"))

	result := Scan(dir, false)
	if len(result.Pairs)+len(result.OrphanMedia)+len(result.OrphanSidecars)+len(result.SkippedSidecars)+len(result.Errors) != 0 {
		t.Fatalf("unrelated files must be ignored silently, got %+v", result)
	}
}

func TestScanMissingRoot(t *testing.T) {
	result := Scan(filepath.Join(t.TempDir(), "nope"), false)
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", result.Errors)
	}
	if result.Errors[0].Reason != "directory does not exist" {
		t.Fatalf("unexpected reason %q", result.Errors[0].Reason)
	}
}

func TestScanRootIsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.jpg")
	testsupport.WriteFile(t, file)

	result := Scan(file, false)
	if len(result.Errors) != 1 || result.Errors[0].Reason != "path is not a directory" {
		t.Fatalf("expected non-directory error, got %+v", result.Errors)
	}
}

func TestScanRecursive(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "album", "a.jpg"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "album", "a.jpg.supplemental-metadata.json"), "{}")
	testsupport.WriteFile(t, filepath.Join(dir, "b.jpg"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "b.jpg.su.json"), "{}")

	flat := Scan(dir, false)
	if len(flat.Pairs) != 1 {
		t.Fatalf("non-recursive scan must only see immediate children, got %d pairs", len(flat.Pairs))
	}

	deep := Scan(dir, true)
	if len(deep.Pairs) != 2 {
		t.Fatalf("recursive scan expected 2 pairs, got %d", len(deep.Pairs))
	}
}

// A sidecar only pairs with media in its own directory.
func TestScanSiblingOnlyMatching(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "album", "a.jpg"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "other", "a.jpg.supplemental-metadata.json"), "{}")

	result := Scan(dir, true)
	if len(result.Pairs) != 0 {
		t.Fatalf("cross-directory pairing must not happen, got %+v", result.Pairs)
	}
	if len(result.OrphanSidecars) != 1 || len(result.OrphanMedia) != 1 {
		t.Fatalf("expected one orphan on each side, got %+v", result)
	}
}

func TestScanDuplicateSidecarConflict(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "a.jpg")
	testsupport.WriteFile(t, media)
	sc1 := filepath.Join(dir, "a.jpg.supplemental-metadata.json")
	sc2 := filepath.Join(dir, "a.jpg.su.json")
	testsupport.WriteSidecar(t, sc1, "{}")
	testsupport.WriteSidecar(t, sc2, "{}")

	result := Scan(dir, false)
	if len(result.Pairs) != 0 {
		t.Fatalf("conflicting sidecars must not pair, got %+v", result.Pairs)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected both sidecars in errors, got %+v", result.Errors)
	}
	for _, fe := range result.Errors {
		if !strings.Contains(fe.Reason, "conflict") {
			t.Fatalf("expected conflict reason, got %q", fe.Reason)
		}
	}
	// The target media is never claimed, so it surfaces as an orphan.
	if len(result.OrphanMedia) != 1 || result.OrphanMedia[0] != media {
		t.Fatalf("expected conflicted media as orphan, got %+v", result.OrphanMedia)
	}
}

func TestScanLivePhotoLinking(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "IMG_0001.HEIC")
	video := filepath.Join(dir, "IMG_0001.MP4")
	sc := filepath.Join(dir, "IMG_0001.HEIC.supplemental-metadata.json")
	testsupport.WriteFile(t, image)
	testsupport.WriteFile(t, video)
	testsupport.WriteSidecar(t, sc, "{}")

	result := Scan(dir, false)
	if len(result.Pairs) != 1 {
		t.Fatalf("expected one pair, got %d", len(result.Pairs))
	}
	pair := result.Pairs[0]
	if pair.LinkedMedia != video {
		t.Fatalf("expected linked video %q, got %q", video, pair.LinkedMedia)
	}
	if len(result.OrphanMedia) != 0 {
		t.Fatalf("linked video must not be an orphan, got %+v", result.OrphanMedia)
	}
	targets := pair.Targets()
	if len(targets) != 2 || targets[0] != image || targets[1] != video {
		t.Fatalf("unexpected targets %v", targets)
	}
}

func TestScanVideoWithOwnSidecarIsNotLinked(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "IMG_0001.HEIC"))
	testsupport.WriteFile(t, filepath.Join(dir, "IMG_0001.MP4"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "IMG_0001.HEIC.supplemental-metadata.json"), "{}")
	testsupport.WriteSidecar(t, filepath.Join(dir, "IMG_0001.MP4.supplemental-metadata.json"), "{}")

	result := Scan(dir, false)
	if len(result.Pairs) != 2 {
		t.Fatalf("expected two independent pairs, got %d", len(result.Pairs))
	}
	for _, pair := range result.Pairs {
		if pair.LinkedMedia != "" {
			t.Fatalf("pair %+v must not carry a link", pair)
		}
	}
}

func TestScanMutualExclusivity(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a.jpg"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "a.jpg.supplemental-metadata.json"), "{}")
	testsupport.WriteFile(t, filepath.Join(dir, "lonely.png"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "gone.jpg.su.json"), "{}")
	testsupport.WriteSidecar(t, filepath.Join(dir, "metadata.json"), "{}")
	testsupport.WriteFile(t, filepath.Join(dir, "IMG_7.HEIC"))
	testsupport.WriteFile(t, filepath.Join(dir, "IMG_7.MP4"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "IMG_7.HEIC.supplemental-metadata.json"), "{}")

	result := Scan(dir, false)
	seen := make(map[string]int)
	for _, pair := range result.Pairs {
		seen[pair.MediaPath]++
		seen[pair.SidecarPath]++
		if pair.LinkedMedia != "" {
			seen[pair.LinkedMedia]++
		}
	}
	for _, p := range result.OrphanMedia {
		seen[p]++
	}
	for _, p := range result.OrphanSidecars {
		seen[p]++
	}
	for _, p := range result.SkippedSidecars {
		seen[p]++
	}
	for path, count := range seen {
		if count > 1 {
			t.Fatalf("path %s appears %d times across collections", path, count)
		}
	}
}

func TestScanExtraExtensions(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "a.dng")
	testsupport.WriteFile(t, raw)
	testsupport.WriteSidecar(t, filepath.Join(dir, "a.dng.supplemental-metadata.json"), "{}")

	base := Scan(dir, false)
	if len(base.Pairs) != 0 {
		t.Fatalf("dng must not pair without configuration, got %+v", base.Pairs)
	}

	extended := NewScanner(WithExtraExtensions([]string{"DNG"})).Scan(dir, false)
	if len(extended.Pairs) != 1 || extended.Pairs[0].MediaPath != raw {
		t.Fatalf("expected configured extension to pair, got %+v", extended.Pairs)
	}
}

func TestResultMerge(t *testing.T) {
	a := &Result{
		Pairs:       []Pair{{MediaPath: "x.jpg", SidecarPath: "x.jpg.su.json"}},
		OrphanMedia: []string{"m.png"},
	}
	b := &Result{
		Pairs:           []Pair{{MediaPath: "y.jpg", SidecarPath: "y.jpg.su.json"}},
		OrphanSidecars:  []string{"o.jpg.su.json"},
		SkippedSidecars: []string{"metadata.json"},
		Errors:          []FileError{{Path: "bad", Reason: "boom"}},
	}
	a.Merge(b)
	if len(a.Pairs) != 2 || len(a.OrphanMedia) != 1 || len(a.OrphanSidecars) != 1 ||
		len(a.SkippedSidecars) != 1 || len(a.Errors) != 1 {
		t.Fatalf("merge lost entries: %+v", a)
	}
	a.Merge(nil)
	if len(a.Pairs) != 2 {
		t.Fatal("merging nil must be a no-op")
	}
}
