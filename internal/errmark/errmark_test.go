package errmark

import (
	"errors"
	"io/fs"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrParse, "sidecar", "decode photo.json", fs.ErrNotExist)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected wrapped error to match ErrParse, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected wrapped error to retain cause, got %v", err)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := Wrap(ErrRead, "exiftool", "read photo.jpg", nil)
	if !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead, got %v", err)
	}
	want := "read error: exiftool: read photo.jpg"
	if err.Error() != want {
		t.Fatalf("unexpected message %q, want %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaults(t *testing.T) {
	err := Wrap(nil, "", "", nil)
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected default marker ErrWrite, got %v", err)
	}
}

func TestSkippable(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		expect bool
	}{
		{"parse", Wrap(ErrParse, "sidecar", "bad json", nil), true},
		{"write", Wrap(ErrWrite, "engine", "io", nil), false},
		{"engine", Wrap(ErrEngine, "exiftool", "missing", nil), false},
	}
	for _, tc := range cases {
		if got := Skippable(tc.err); got != tc.expect {
			t.Fatalf("%s: Skippable = %v, want %v", tc.name, got, tc.expect)
		}
	}
}
