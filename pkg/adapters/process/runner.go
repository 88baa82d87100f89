package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNotFound is returned when the command is not on PATH.
var ErrNotFound = errors.New("command not found")

// Runner executes local processes and captures their output.
// Commands are restricted to an allow-list of binaries.
type Runner struct {
	allowed map[string]bool
	baseDir string
	env     []string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) RunnerOption {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// NewRunner creates a Runner allowed to execute the given binaries.
func NewRunner(allowed []string, opts ...RunnerOption) *Runner {
	r := &Runner{allowed: make(map[string]bool, len(allowed))}
	for _, name := range allowed {
		r.allowed[name] = true
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LookPath reports whether name is allowed and resolvable.
func (r *Runner) LookPath(name string) (string, error) {
	if !r.allowed[name] {
		return "", fmt.Errorf("process not registered: %s", name)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// Run executes name with args and returns its stdout.
// A non-zero exit is reported together with the trimmed stderr.
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if !r.allowed[name] {
		return nil, fmt.Errorf("process not registered: %s", name)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.baseDir
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return stdout.Bytes(), fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
