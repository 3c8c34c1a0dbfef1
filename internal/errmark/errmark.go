// Package errmark tags errors with a failure class so callers can decide,
// via errors.Is, whether a problem is a bad input file or a broken engine.
package errmark

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse  = errors.New("parse error")
	ErrEngine = errors.New("engine unavailable")
	ErrWrite  = errors.New("write error")
	ErrRead   = errors.New("read error")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrWrite
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Skippable reports whether the error describes a per-file input problem the
// batch can skip past, as opposed to an engine fault worth aborting for.
func Skippable(err error) bool {
	return errors.Is(err, ErrParse)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
