package tactile

import (
	"sync"
	"time"

	"gridcard/internal/logging"
)

// AuditLogger fans execution events out to registered callbacks, mirrors
// them into the tactile log category and keeps running metrics.
type AuditLogger struct {
	mu        sync.Mutex
	callbacks []func(AuditEvent)
	metrics   *ExecutionMetrics
}

// NewAuditLogger creates an audit logger with empty metrics.
func NewAuditLogger() *AuditLogger {
	return &AuditLogger{
		callbacks: make([]func(AuditEvent), 0),
		metrics:   NewExecutionMetrics(),
	}
}

// AddCallback registers a callback for every event.
func (l *AuditLogger) AddCallback(callback func(AuditEvent)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, callback)
}

// Attach makes l the audit sink of executor.
func (l *AuditLogger) Attach(executor AuditedExecutor) {
	executor.SetAuditCallback(l.Log)
}

// Log records one event.
func (l *AuditLogger) Log(event AuditEvent) {
	l.metrics.RecordEvent(event)

	switch event.Type {
	case AuditEventStart:
		logging.TactileDebug("audit: start [%s] %s", event.Command.RequestID, event.Command.Binary)
	case AuditEventComplete:
		logging.TactileDebug("audit: complete [%s] exit=%d", event.Command.RequestID, event.Result.ExitCode)
	case AuditEventKilled:
		logging.TactileWarn("audit: killed [%s] %s", event.Command.RequestID, event.Result.KillReason)
	case AuditEventError:
		logging.TactileError("audit: error [%s] %s", event.Command.RequestID, event.Result.Error)
	}

	l.mu.Lock()
	callbacks := make([]func(AuditEvent), len(l.callbacks))
	copy(callbacks, l.callbacks)
	l.mu.Unlock()

	for _, cb := range callbacks {
		cb(event)
	}
}

// GetMetrics returns a snapshot of the execution metrics.
func (l *AuditLogger) GetMetrics() ExecutionMetricsSnapshot {
	return l.metrics.Snapshot()
}

// ExecutionMetrics tracks execution statistics.
type ExecutionMetrics struct {
	mu            sync.Mutex
	started       int64
	completed     int64
	nonZero       int64
	killed        int64
	errors        int64
	totalDuration time.Duration
}

// ExecutionMetricsSnapshot is a point-in-time copy of ExecutionMetrics.
type ExecutionMetricsSnapshot struct {
	Started       int64         `json:"started"`
	Completed     int64         `json:"completed"`
	NonZeroExits  int64         `json:"non_zero_exits"`
	Killed        int64         `json:"killed"`
	Errors        int64         `json:"errors"`
	TotalDuration time.Duration `json:"total_duration"`
}

// NewExecutionMetrics creates zeroed metrics.
func NewExecutionMetrics() *ExecutionMetrics {
	return &ExecutionMetrics{}
}

// RecordEvent updates metrics from one event.
func (m *ExecutionMetrics) RecordEvent(event AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch event.Type {
	case AuditEventStart:
		m.started++
	case AuditEventComplete:
		m.completed++
		if event.Result != nil {
			m.totalDuration += event.Result.Duration
			if event.Result.ExitCode != 0 {
				m.nonZero++
			}
		}
	case AuditEventKilled:
		m.killed++
	case AuditEventError:
		m.errors++
	}
}

// Snapshot returns the current counters.
func (m *ExecutionMetrics) Snapshot() ExecutionMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ExecutionMetricsSnapshot{
		Started:       m.started,
		Completed:     m.completed,
		NonZeroExits:  m.nonZero,
		Killed:        m.killed,
		Errors:        m.errors,
		TotalDuration: m.totalDuration,
	}
}
