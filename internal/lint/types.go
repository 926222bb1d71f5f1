package lint

import (
	"encoding/json"

	"git.home.luguber.info/inful/gardenbuild/internal/content"
)

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityInfo indicates informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that should be fixed but don't block builds.
	SeverityWarning
	// SeverityError indicates content that will not publish correctly.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Issue represents a single linting problem found in a file.
type Issue struct {
	FilePath    string   `json:"file"`                  // Path relative to the content root
	Severity    Severity `json:"severity"`              // Issue severity level
	Rule        string   `json:"rule"`                  // Rule identifier (e.g., "filename-conventions")
	Message     string   `json:"message"`               // Brief description of the issue
	Explanation string   `json:"explanation,omitempty"` // Detailed explanation with context
	Fix         string   `json:"fix,omitempty"`         // Suggested fix
	Line        int      `json:"line,omitempty"`        // Line number (0 if file-level issue)
}

// Result contains all issues found during linting.
type Result struct {
	Issues     []Issue
	FilesTotal int // Total files scanned
}

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool { return r.count(SeverityError) > 0 }

// HasWarnings returns true if any warning-level issues exist.
func (r *Result) HasWarnings() bool { return r.count(SeverityWarning) > 0 }

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int { return r.count(SeverityError) }

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }

// ExitCode maps the result to the check command's exit status: 2 with
// errors, 1 with warnings unless quiet, 0 otherwise.
func (r *Result) ExitCode(quiet bool) int {
	switch {
	case r.HasErrors():
		return 2
	case r.HasWarnings() && !quiet:
		return 1
	default:
		return 0
	}
}

// Rule defines a linting rule that can be applied to files.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check validates a file and returns any issues found.
	Check(src content.Source) ([]Issue, error)

	// AppliesTo returns true if this rule should be checked for the given
	// content-relative path.
	AppliesTo(relPath string) bool
}

// Config contains configuration for the linter.
type Config struct {
	// Quiet suppresses warnings, only showing errors.
	Quiet bool

	// Format specifies output format (text, json).
	Format string

	// IgnorePatterns are glob patterns excluded from discovery.
	IgnorePatterns []string

	// LinkStrategy selects how link targets resolve.
	LinkStrategy content.LinkStrategy
}
