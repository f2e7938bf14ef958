package internal

import (
	"errors"
	"fmt"
	"time"
)

// ErrProbeUnavailable marks a probe strategy whose external tool is not
// installed on the host. Not fatal: the caller falls through to the next
// strategy in the cascade.
var ErrProbeUnavailable = errors.New("no suitable connection tester found")

// InputError reports missing or undecodable caller-supplied material. No
// external tool is invoked once one is detected.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ParseError reports a chain that was expected to contain at least one
// certificate but yielded none.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

// ToolInvocationError reports a pipeline step whose external process exited
// non-zero. It carries the step name and the tool's own diagnostic output,
// and is terminal for the pipeline run that produced it.
type ToolInvocationError struct {
	Step        string
	Diagnostics string
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Diagnostics)
}

// ProbeTimeoutError reports a probe stage that exceeded its configured bound.
// The bound is stated explicitly so the user sees how long was waited.
type ProbeTimeoutError struct {
	Target string
	Bound  time.Duration
}

func (e *ProbeTimeoutError) Error() string {
	return fmt.Sprintf("connection to %s timed out after %s", e.Target, e.Bound)
}
