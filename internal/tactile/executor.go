package tactile

import (
	"context"
	"errors"
	"fmt"
)

// Executor runs commands. The Decryption Gateway depends on this interface
// only, so tests can substitute a fake that never spawns a process.
type Executor interface {
	// Execute runs a command and returns a comprehensive result.
	// Cancelling ctx kills the child.
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)

	// Capabilities returns what this executor supports.
	Capabilities() ExecutorCapabilities

	// Validate checks if a command can be executed by this executor.
	Validate(cmd Command) error
}

// AuditedExecutor is an executor that reports audit events.
type AuditedExecutor interface {
	Executor
	SetAuditCallback(callback func(AuditEvent))
}

// Execution outcome errors.
var (
	// ErrNotStarted is returned when the process could not be spawned.
	ErrNotStarted = errors.New("command could not be started")

	// ErrKilled is returned when the process was terminated by timeout or cancellation.
	ErrKilled = errors.New("command was killed")

	// ErrNonZeroExit is returned when the process exited with a non-zero status.
	ErrNonZeroExit = errors.New("command exited non-zero")
)

// CheckResult folds an ExecutionResult into a single error: nil for a clean
// zero exit, otherwise one of the outcome errors with the details attached.
func CheckResult(res *ExecutionResult) error {
	if res == nil {
		return fmt.Errorf("%w: no result", ErrNotStarted)
	}
	switch {
	case res.IsError():
		return fmt.Errorf("%w: %s", ErrNotStarted, res.Error)
	case res.Killed:
		return fmt.Errorf("%w: %s", ErrKilled, res.KillReason)
	case res.IsNonZeroExit():
		return fmt.Errorf("%w: exit status %d", ErrNonZeroExit, res.ExitCode)
	}
	return nil
}
