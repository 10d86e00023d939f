package launch

import (
	"fmt"
	"strings"
)

// Category identifies a class of helper CLI failure.
type Category string

const (
	CategoryCancelled        Category = "cancelled"
	CategoryTerminated       Category = "terminated"
	CategoryFileLocked       Category = "file-locked"
	CategoryMissingLauncher  Category = "missing-launcher"
	CategoryDiskFull         Category = "disk-full"
	CategoryPermissionDenied Category = "permission-denied"
	CategoryToolMissing      Category = "tool-missing"
	CategoryGeneric          Category = "generic-error"
	CategoryUnknown          Category = "unknown"
)

// Action is a remediation the UI can offer alongside an error.
type Action struct {
	Label   string
	Command string
}

// Error is a classified helper CLI failure. It is never mutated after
// Classify returns it.
type Error struct {
	Category  Category
	Message   string
	Retryable bool
	Action    *Action
	Stderr    string // raw captured stderr, kept as a trace
}

func (e *Error) Error() string {
	return e.Message
}

// stderrRule maps case-insensitive stderr markers to a category.
// Rules are evaluated in order; the first match wins.
type stderrRule struct {
	markers []string
	// require anchors markers too generic on their own: the rule only
	// applies when this substring is also present.
	require   string
	category  Category
	retryable bool
	message   string
	action    *Action
}

// Only file-locked is retryable: it is the one failure known to be
// transient. Everything else needs a human decision.
var stderrRules = []stderrRule{
	{
		markers:   []string{"ebusy", "resource busy or locked", "file is locked", "lockfile exists"},
		category:  CategoryFileLocked,
		retryable: true,
	},
	{
		markers:  []string{"executable file not found", "command not found"},
		category: CategoryMissingLauncher,
		message:  "the process launcher is not installed or not on PATH",
	},
	{
		// A bare ENOENT can be any missing file (a skill path, a config);
		// only the spawn-failure form points at the launcher.
		markers:  []string{"enoent"},
		require:  "spawn",
		category: CategoryMissingLauncher,
		message:  "the process launcher is not installed or not on PATH",
	},
	{
		markers:  []string{"enospc", "no space left on device"},
		category: CategoryDiskFull,
		message:  "the disk is full",
	},
	{
		markers:  []string{"eacces", "permission denied"},
		category: CategoryPermissionDenied,
		message:  "permission denied writing to the skill directory",
	},
	{
		markers:  []string{"cannot find module", "err_module_not_found"},
		category: CategoryToolMissing,
		message:  "the skills CLI is not installed",
		action:   &Action{Label: "Install skills CLI", Command: "npm install -g skills-cli"},
	},
}

// Classify maps a completion record into a typed error. Evaluation order is
// strict: terminating signal, then stderr patterns, then a generic non-zero
// exit, then the unknown fallback.
func Classify(stderr string, exitCode int, signal string) *Error {
	switch signal {
	case "SIGTERM", "SIGINT":
		return &Error{
			Category: CategoryCancelled,
			Message:  "operation cancelled",
			Stderr:   stderr,
		}
	case "SIGKILL":
		return &Error{
			Category: CategoryTerminated,
			Message:  "process was terminated unexpectedly",
			Stderr:   stderr,
		}
	}

	lower := strings.ToLower(stderr)
	for _, rule := range stderrRules {
		if rule.require != "" && !strings.Contains(lower, rule.require) {
			continue
		}
		for _, marker := range rule.markers {
			if !strings.Contains(lower, marker) {
				continue
			}
			message := rule.message
			if message == "" {
				message = strings.TrimSpace(stderr)
			}
			return &Error{
				Category:  rule.category,
				Message:   message,
				Retryable: rule.retryable,
				Action:    rule.action,
				Stderr:    stderr,
			}
		}
	}

	if exitCode > 0 {
		message := strings.TrimSpace(stderr)
		if message == "" {
			message = fmt.Sprintf("exited with code %d", exitCode)
		}
		return &Error{
			Category: CategoryGeneric,
			Message:  message,
			Stderr:   stderr,
		}
	}

	message := strings.TrimSpace(stderr)
	if message == "" {
		message = "process ended without an exit code"
	}
	return &Error{
		Category: CategoryUnknown,
		Message:  message,
		Stderr:   stderr,
	}
}
