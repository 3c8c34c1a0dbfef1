package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"takeoutfix/internal/testsupport"
)

// writeTestConfig returns a config file pointing exiftool at a stub binary
// that answers the version probe.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	stub := filepath.Join(dir, "exiftool")
	script := "#!/bin/sh\nif [ \"$1\" = \"-ver\" ]; then echo 12.76; fi\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	path := filepath.Join(dir, "config.toml")
	body := "[exiftool]\nbinary = \"" + stub + "\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "photo.jpg"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "photo.jpg.supplemental-metadata.json"), `{"title":"photo.jpg"}`)
	testsupport.WriteFile(t, filepath.Join(dir, "lonely.jpg"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "metadata.json"), `{"title":"album"}`)

	out, err := runCommand(t, "-c", cfgPath, "stats", dir)
	if err != nil {
		t.Fatalf("stats failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Media with sidecar", "Album metadata", "photo.jpg"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestStatsCommandMissingDirectory(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "-c", cfgPath, "stats", filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatalf("expected error for missing directory, got:\n%s", out)
	}
	if !strings.Contains(err.Error(), "directory not found") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAttachDryRun(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "photo.jpg"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "photo.jpg.supplemental-metadata.json"), `{"title":"photo.jpg"}`)

	out, err := runCommand(t, "-c", cfgPath, "attach", "--dry-run", dir)
	if err != nil {
		t.Fatalf("attach dry run failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Using ExifTool 12.76") {
		t.Fatalf("probe output missing:\n%s", out)
	}
	if !strings.Contains(out, "Dry run") {
		t.Fatalf("dry run notice missing:\n%s", out)
	}
}

func TestAttachDeclinedPrompt(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "photo.jpg"))
	testsupport.WriteSidecar(t, filepath.Join(dir, "photo.jpg.supplemental-metadata.json"), `{"title":"photo.jpg"}`)

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader("n\n"))
	cmd.SetArgs([]string{"-c", cfgPath, "attach", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("declined attach should exit cleanly: %v", err)
	}
	if !strings.Contains(out.String(), "Aborted") {
		t.Fatalf("abort notice missing:\n%s", out.String())
	}
}

func TestAttachEmptyDirectory(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "-c", cfgPath, "attach", "--yes", t.TempDir())
	if err != nil {
		t.Fatalf("attach on empty directory failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "nothing to do") {
		t.Fatalf("empty notice missing:\n%s", out)
	}
}

func TestCleanupNoVerifyDeletes(t *testing.T) {
	cfgPath := writeTestConfig(t)
	dir := t.TempDir()
	media := filepath.Join(dir, "photo.jpg")
	sidecar := filepath.Join(dir, "photo.jpg.supplemental-metadata.json")
	orphan := filepath.Join(dir, "gone.jpg.supplemental-metadata.json")
	testsupport.WriteFile(t, media)
	testsupport.WriteSidecar(t, sidecar, `{"title":"photo.jpg"}`)
	testsupport.WriteSidecar(t, orphan, `{"title":"gone.jpg"}`)

	out, err := runCommand(t, "-c", cfgPath, "cleanup", "--no-verify", "--yes", dir)
	if err != nil {
		t.Fatalf("cleanup failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(sidecar); !os.IsNotExist(err) {
		t.Fatal("paired sidecar should have been deleted")
	}
	if _, err := os.Stat(orphan); err != nil {
		t.Fatal("orphan sidecar must never be deleted")
	}
	if _, err := os.Stat(media); err != nil {
		t.Fatal("media file must be untouched")
	}
	if !strings.Contains(out, "orphan sidecars have no matching media") {
		t.Fatalf("orphan warning missing:\n%s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init failed: %v\n%s", err, out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample file missing: %v", err)
	}

	out, err = runCommand(t, "-c", path, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "[exiftool]") {
		t.Fatalf("show output missing toml sections:\n%s", out)
	}
	if !strings.Contains(out, "# loaded from") {
		t.Fatalf("show output missing source path:\n%s", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if out, err := runCommand(t, "config", "init", "--path", path); err != nil {
		t.Fatalf("first init failed: %v\n%s", err, out)
	}
	if _, err := runCommand(t, "config", "init", "--path", path); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}
