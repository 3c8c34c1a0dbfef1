// Package testsupport provides fixture helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path (and parent directories) with placeholder content.
func WriteFile(t testing.TB, path string) {
	t.Helper()
	WriteFileContent(t, path, []byte{0x42})
}

// WriteFileContent creates path with the given content.
func WriteFileContent(t testing.TB, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSidecar creates a sidecar JSON fixture next to its media file.
func WriteSidecar(t testing.TB, path, body string) {
	t.Helper()
	WriteFileContent(t, path, []byte(body))
}
