// Package exiftool wraps the ExifTool command-line application behind a
// long-lived stay-open session. One session serves a whole batch and is not
// safe for concurrent use; commands are serialized internally.
package exiftool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"takeoutfix/internal/errmark"
)

var commandContext = exec.CommandContext

const readyToken = "{ready}"

// Option configures a session.
type Option func(*Session)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(s *Session) {
		if strings.TrimSpace(binary) != "" {
			s.binary = binary
		}
	}
}

// WithKeepBackups disables -overwrite_original, leaving ExifTool's
// "_original" backup copies behind after each write.
func WithKeepBackups(keep bool) Option {
	return func(s *Session) {
		s.keepBackups = keep
	}
}

// Session is a running `exiftool -stay_open` process.
type Session struct {
	binary      string
	keepBackups bool

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *tailBuffer
}

// NewSession constructs a session; Start must be called before use.
func NewSession(opts ...Option) *Session {
	s := &Session{binary: "exiftool", stderr: &tailBuffer{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the ExifTool process. The context bounds the process
// lifetime: cancelling it kills the session.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return errors.New("exiftool session already started")
	}

	cmd := commandContext(ctx, s.binary, "-stay_open", "True", "-@", "-") //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = s.stderr
	if err := cmd.Start(); err != nil {
		return errmark.Wrap(errmark.ErrEngine, "exiftool", "start session", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	return nil
}

// Close shuts the session down. Safe to call on every exit path, including
// after a failed Start.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return nil
	}
	_, _ = io.WriteString(s.stdin, "-stay_open\nFalse\n")
	_ = s.stdin.Close()
	err := s.cmd.Wait()
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil
	return err
}

// Write applies the given tag fields to the file in place.
func (s *Session) Write(ctx context.Context, path string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := buildWriteArgs(path, fields, s.keepBackups)
	out, err := s.execute(ctx, args)
	if err != nil {
		return errmark.Wrap(errmark.ErrWrite, "exiftool", "write "+path, err)
	}
	if err := parseWriteResponse(out); err != nil {
		detail := err.Error()
		if tail := s.stderr.Tail(); tail != "" {
			detail += ": " + tail
		}
		return errmark.Wrap(errmark.ErrWrite, "exiftool", "write "+path, errors.New(detail))
	}
	return nil
}

// Read returns the file's tags, grouped (-G) and numeric (-n).
func (s *Session) Read(ctx context.Context, path string) (Fields, error) {
	out, err := s.execute(ctx, []string{"-G", "-j", "-n", path})
	if err != nil {
		return nil, errmark.Wrap(errmark.ErrRead, "exiftool", "read "+path, err)
	}
	fields, err := decodeReadResponse([]byte(out))
	if err != nil {
		return nil, errmark.Wrap(errmark.ErrRead, "exiftool", "read "+path, err)
	}
	return fields, nil
}

func (s *Session) execute(ctx context.Context, args []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return "", errors.New("session not started")
	}

	var block strings.Builder
	for _, arg := range args {
		block.WriteString(arg)
		block.WriteString("\n")
	}
	block.WriteString("-execute\n")
	if _, err := io.WriteString(s.stdin, block.String()); err != nil {
		return "", fmt.Errorf("send command: %w", err)
	}

	var body strings.Builder
	for {
		line, err := s.stdout.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(trimmed, readyToken) {
			return body.String(), nil
		}
		if line != "" {
			body.WriteString(line)
		}
		if err != nil {
			return "", fmt.Errorf("session terminated: %w", err)
		}
	}
}

func buildWriteArgs(path string, fields map[string]string, keepBackups bool) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys)+2)
	for _, key := range keys {
		args = append(args, "-"+key+"="+fields[key])
	}
	if !keepBackups {
		args = append(args, "-overwrite_original")
	}
	return append(args, path)
}

func parseWriteResponse(out string) error {
	if strings.Contains(out, "files updated") && !strings.Contains(out, "0 image files updated") {
		return nil
	}
	summary := strings.TrimSpace(out)
	if summary == "" {
		summary = "no response"
	}
	return errors.New(summary)
}

// tailBuffer retains the last few stderr lines for error reporting.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
}

const tailLimit = 8

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.lines = append(b.lines, line)
		if len(b.lines) > tailLimit {
			b.lines = b.lines[len(b.lines)-tailLimit:]
		}
	}
	return len(p), nil
}

func (b *tailBuffer) Tail() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "; ")
}
