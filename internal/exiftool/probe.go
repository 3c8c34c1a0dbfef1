package exiftool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"takeoutfix/internal/errmark"
)

const installInstructions = "ExifTool not found. Install it:\n" +
	"  macOS:   brew install exiftool\n" +
	"  Linux:   sudo apt install libimage-exiftool-perl\n" +
	"  Windows: download from https://exiftool.org/ and add to PATH"

// DefaultProbeTimeout bounds the version query.
const DefaultProbeTimeout = 10 * time.Second

// Probe verifies the ExifTool binary is on PATH and responds to a version
// query. Returns the reported version. Failure carries install instructions
// and is tagged errmark.ErrEngine: a hard stop for any command needing the
// engine.
func Probe(ctx context.Context, binary string) (string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}

	resolved, err := exec.LookPath(binary)
	if err != nil {
		return "", errmark.Wrap(errmark.ErrEngine, "exiftool", installInstructions, nil)
	}

	probeCtx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	out, err := commandContext(probeCtx, resolved, "-ver").Output() //nolint:gosec
	if err != nil {
		return "", errmark.Wrap(errmark.ErrEngine, "exiftool", fmt.Sprintf("%s did not answer version query", resolved), err)
	}
	version := strings.TrimSpace(string(out))
	if version == "" {
		return "", errmark.Wrap(errmark.ErrEngine, "exiftool", fmt.Sprintf("%s reported an empty version", resolved), nil)
	}
	return version, nil
}
