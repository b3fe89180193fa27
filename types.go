package gzrecord

import (
	"fmt"

	eng "github.com/reoring/gzrecord/internal/engine"
)

// UnknownPolicy controls how unknown keys are handled.
type UnknownPolicy int

const (
	UnknownStrip  UnknownPolicy = iota // Skip unknown keys and their values.
	UnknownStrict                      // Reject unknown keys with an error.
)

func (p UnknownPolicy) String() string {
	if p == UnknownStrict {
		return "strict"
	}
	return "strip"
}

// ParseUnknownPolicy parses "strip" or "strict"; the empty string is strip.
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch s {
	case "", "strip":
		return UnknownStrip, nil
	case "strict":
		return UnknownStrict, nil
	}
	return 0, fmt.Errorf("unknown fields policy %q (want strip or strict)", s)
}

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "ignore"
	}
}

// ParseSeverity parses "ignore", "warn" or "error"; the empty string is ignore.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "", "ignore":
		return Ignore, nil
	case "warn":
		return Warn, nil
	case "error":
		return Error, nil
	}
	return 0, fmt.Errorf("severity %q (want ignore, warn or error)", s)
}

// DecodeOpt bundles text decoding options. The zero value is the permissive
// default: unknown keys are skipped, duplicates of unknown keys are ignored
// and no limits apply.
type DecodeOpt struct {
	Unknown        UnknownPolicy
	OnDuplicateKey Severity // Applies to every key; a repeated my_num or my_str is always rejected.
	MaxDepth       int      // Maximum container nesting; 0 disables.
	MaxBytes       int64    // Maximum text size in bytes; 0 disables.
	AllowComments  bool     // Strip // and /* */ comments and trailing commas before parsing.
}

func (o DecodeOpt) enforceOptions(sink func(eng.SimpleIssue)) eng.EnforceOptions {
	return eng.EnforceOptions{
		OnDuplicate: toEngineDup(o.OnDuplicateKey),
		MaxDepth:    o.MaxDepth,
		MaxBytes:    o.MaxBytes,
		IssueSink:   sink,
	}
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}
