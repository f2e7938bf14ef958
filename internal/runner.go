package internal

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ToolResult holds the outcome of one external tool invocation.
type ToolResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Diagnostics returns the tool's error stream, falling back to stdout when
// the tool wrote its complaint there (keytool does this for some failures).
func (r *ToolResult) Diagnostics() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.Stdout
}

// ToolRunner abstracts external tool invocation so the pipeline and probe can
// be tested without keytool, openssl, or a Kafka installation on the host.
type ToolRunner interface {
	// Run executes the named tool with args, bounded by timeout. A non-zero
	// exit is not an error at this layer; it is reported in the result. An
	// error is returned only when the process could not be started or was
	// killed by the timeout.
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*ToolResult, error)
	// LookPath reports whether the named tool is present on the host.
	LookPath(name string) (string, bool)
}

// execRunner is the production ToolRunner backed by os/exec. Once started a
// process runs to completion or is killed by context cancellation; there is
// no retry.
type execRunner struct{}

// NewToolRunner returns the os/exec-backed ToolRunner.
func NewToolRunner() ToolRunner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (*ToolResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &ToolResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runCtx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, context.DeadlineExceeded
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, err
	}
	return result, nil
}

func (execRunner) LookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}
