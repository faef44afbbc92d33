package models

import (
	"fmt"
	"strings"
)

// ErrorType identifies the category of error that occurred.
type ErrorType string

const (
	ErrUsage              ErrorType = "usage_error"
	ErrConfiguration      ErrorType = "configuration_error"
	ErrCommand            ErrorType = "command_error"
	ErrDaemonRestart      ErrorType = "daemon_restart_error"
	ErrReclamationWarning ErrorType = "reclamation_warning"
)

// UsageError reports a malformed invocation. No build is attempted.
type UsageError struct {
	Usage string
	Got   int
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("expected 2 arguments, got %d\nusage: %s", e.Got, e.Usage)
}

func (e *UsageError) Type() ErrorType { return ErrUsage }

// ConfigurationError reports an invalid build type or configuration value.
type ConfigurationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", msg, e.Err)
	}
	return "configuration error: " + msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Type() ErrorType { return ErrConfiguration }

// CommandError reports a command that failed on every allowed attempt.
type CommandError struct {
	Command  string
	Attempts int
	// ExitCode is -1 when the process could not be started.
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command %q failed after %d attempt(s)", e.Command, e.Attempts)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " (exit status %d)", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, ": %s", s)
	}
	return b.String()
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Type() ErrorType { return ErrCommand }

// DaemonRestartError reports that the container daemon could not be restarted.
type DaemonRestartError struct {
	Err error
}

func (e *DaemonRestartError) Error() string {
	return fmt.Sprintf("restarting container daemon: %v", e.Err)
}

func (e *DaemonRestartError) Unwrap() error { return e.Err }

func (e *DaemonRestartError) Type() ErrorType { return ErrDaemonRestart }

// ReclamationWarning records a best-effort cleanup step that failed.
// It is logged and counted, never returned as an error.
type ReclamationWarning struct {
	Step string
	Err  error
}

func (w ReclamationWarning) String() string {
	return fmt.Sprintf("%s: %v", w.Step, w.Err)
}

func (w ReclamationWarning) Type() ErrorType { return ErrReclamationWarning }
