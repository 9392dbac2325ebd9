// Package tactile is the process execution layer. It starts external tools
// on the executor's terminal streams and reports what happened as an
// ExecutionResult plus audit events.
//
// Design Principles:
//   - Minimal logic: callers decide what a non-zero exit means
//   - Terminal pass-through: the tool may prompt the user (passphrases)
//   - Audit trail: start/complete/killed/error events with request ids
package tactile

import (
	"io"
	"os"
	"strings"
	"time"
)

// Command represents a command to be executed.
type Command struct {
	// Binary is the executable to run (e.g., "gpg").
	Binary string `json:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments"`

	// WorkingDirectory is the directory to execute in.
	// If empty, uses the executor's default working directory.
	WorkingDirectory string `json:"working_directory,omitempty"`

	// Limits specifies resource constraints for execution.
	Limits *ResourceLimits `json:"limits,omitempty"`

	// RequestID uniquely identifies this execution request.
	// Generated by the executor when empty.
	RequestID string `json:"request_id,omitempty"`

	// Tags are key-value pairs copied into the execution log.
	Tags map[string]string `json:"tags,omitempty"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	return c.Binary + " " + strings.Join(c.Arguments, " ")
}

// ResourceLimits defines constraints on command execution.
type ResourceLimits struct {
	// TimeoutMs is the maximum execution time in milliseconds.
	// Zero means use the executor's default timeout.
	TimeoutMs int64 `json:"timeout_ms,omitempty"`
}

// ExecutionResult is the comprehensive output of command execution.
type ExecutionResult struct {
	// Success indicates whether the command completed without error.
	// Note: A command that runs but returns non-zero exit code has Success=true.
	// Success=false means the execution infrastructure failed.
	Success bool `json:"success"`

	// ExitCode is the command's exit code (-1 if not available).
	ExitCode int `json:"exit_code"`

	// Duration is how long the command ran.
	Duration time.Duration `json:"duration"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Killed indicates the command was forcibly terminated.
	Killed bool `json:"killed"`

	// KillReason explains why the command was killed.
	KillReason string `json:"kill_reason,omitempty"`

	// Error contains any infrastructure-level error message.
	Error string `json:"error,omitempty"`

	// Command is a copy of the command that was executed (for audit).
	Command *Command `json:"command,omitempty"`
}

// IsError returns true if the execution failed (infrastructure error).
func (r *ExecutionResult) IsError() bool {
	return !r.Success || r.Error != ""
}

// IsNonZeroExit returns true if the command ran but returned non-zero.
func (r *ExecutionResult) IsNonZeroExit() bool {
	return r.Success && r.ExitCode != 0
}

// ExecutorCapabilities describes what an executor can do.
type ExecutorCapabilities struct {
	Name     string `json:"name"`
	Platform string `json:"platform"`

	// SupportsTerminal indicates the child is given a terminal to prompt on.
	SupportsTerminal bool `json:"supports_terminal"`

	// DefaultTimeout is used when no timeout is specified (0 = none).
	DefaultTimeout time.Duration `json:"default_timeout"`
}

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventStart    AuditEventType = "start"
	AuditEventComplete AuditEventType = "complete"
	AuditEventKilled   AuditEventType = "killed"
	AuditEventError    AuditEventType = "error"
)

// AuditEvent represents one step in the life of an execution.
type AuditEvent struct {
	Type      AuditEventType `json:"type"`
	Timestamp time.Time      `json:"timestamp"`

	// Command is the command being executed.
	Command Command `json:"command"`

	// Result is the execution result (for complete/killed/error events).
	Result *ExecutionResult `json:"result,omitempty"`

	// ExecutorName is which executor handled this.
	ExecutorName string `json:"executor_name"`
}

// ExecutorConfig is the configuration for creating executors.
type ExecutorConfig struct {
	// DefaultWorkingDir is used when Command.WorkingDirectory is empty.
	DefaultWorkingDir string `json:"default_working_dir"`

	// DefaultTimeout is used when no timeout is specified. Zero waits forever.
	DefaultTimeout time.Duration `json:"default_timeout"`

	// AllowedEnvironment lists environment variables to pass through.
	// Empty means the child inherits the full environment.
	AllowedEnvironment []string `json:"allowed_environment"`

	// Terminal streams handed to the child.
	Stdin  io.Reader `json:"-"`
	Stdout io.Writer `json:"-"`
	Stderr io.Writer `json:"-"`

	// AuditCallback is called for each execution event (optional).
	AuditCallback func(AuditEvent) `json:"-"`
}

// DefaultExecutorConfig returns sensible defaults: no timeout, inherited
// environment, and the process's own terminal.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		DefaultWorkingDir: ".",
		Stdin:             os.Stdin,
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
	}
}

// Merge combines this config with command-specific settings.
// Command settings override config defaults.
func (c ExecutorConfig) Merge(cmd Command) Command {
	result := cmd

	if result.WorkingDirectory == "" {
		result.WorkingDirectory = c.DefaultWorkingDir
	}

	if result.Limits != nil {
		limitsCopy := *result.Limits
		result.Limits = &limitsCopy
	} else {
		result.Limits = &ResourceLimits{}
	}
	if result.Limits.TimeoutMs == 0 {
		result.Limits.TimeoutMs = int64(c.DefaultTimeout / time.Millisecond)
	}
	return result
}
