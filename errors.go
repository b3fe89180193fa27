package gzrecord

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeDuplicateKey  = "duplicate_key"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeInvalidFormat = "invalid_format"
	CodeParseError    = "parse_error"
	CodeOverflow      = "overflow"
	// Container failures
	CodeInvalidHeader  = "invalid_header"
	CodeCorruptStream  = "corrupt_stream"
	CodeTruncatedInput = "truncated_input"
)

// Kind groups issue codes into the failure classes callers branch on.
type Kind int

const (
	KindNone Kind = iota
	MalformedText
	SchemaMismatch
	InvalidHeader
	CorruptStream
	TruncatedInput
)

func (k Kind) String() string {
	switch k {
	case MalformedText:
		return "MalformedText"
	case SchemaMismatch:
		return "SchemaMismatch"
	case InvalidHeader:
		return "InvalidHeader"
	case CorruptStream:
		return "CorruptStream"
	case TruncatedInput:
		return "TruncatedInput"
	default:
		return "None"
	}
}

// Sentinels matched by errors.Is against any error returned by this package.
var (
	ErrMalformedText  = errors.New("gzrecord: malformed text")
	ErrSchemaMismatch = errors.New("gzrecord: schema mismatch")
	ErrInvalidHeader  = errors.New("gzrecord: invalid gzip header")
	ErrCorruptStream  = errors.New("gzrecord: corrupt gzip stream")
	ErrTruncatedInput = errors.New("gzrecord: truncated input")
)

// Sentinel returns the sentinel error for k, or nil for KindNone.
func (k Kind) Sentinel() error {
	switch k {
	case MalformedText:
		return ErrMalformedText
	case SchemaMismatch:
		return ErrSchemaMismatch
	case InvalidHeader:
		return ErrInvalidHeader
	case CorruptStream:
		return ErrCorruptStream
	case TruncatedInput:
		return ErrTruncatedInput
	}
	return nil
}

// KindOfCode maps an issue code to its kind. Unrecognized codes are treated
// as schema mismatches.
func KindOfCode(code string) Kind {
	switch code {
	case CodeParseError, CodeTooBig:
		return MalformedText
	case CodeInvalidHeader:
		return InvalidHeader
	case CodeCorruptStream:
		return CorruptStream
	case CodeTruncatedInput:
		return TruncatedInput
	case "":
		return KindNone
	}
	return SchemaMismatch
}

// Issue represents a single failure.
type Issue struct {
	Path    string // JSON Pointer (for example: /my_num); empty for container failures.
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
	Offset  int64 // Byte offset in the input (-1 when unknown).
}

// Kind reports the kind of the issue's code.
func (it Issue) Kind() Kind { return KindOfCode(it.Code) }

func (it Issue) String() string {
	b := &strings.Builder{}
	b.WriteString(it.Code)
	if it.Path != "" {
		b.WriteString(" at ")
		b.WriteString(it.Path)
	}
	if it.Message != "" {
		b.WriteString(": ")
		b.WriteString(it.Message)
	}
	return b.String()
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Is reports whether any issue belongs to the kind whose sentinel is target.
func (iss Issues) Is(target error) bool {
	for _, it := range iss {
		if s := it.Kind().Sentinel(); s != nil && s == target {
			return true
		}
	}
	return false
}

// Unwrap exposes the underlying causes, so errors.Is(err, gzip.ErrChecksum)
// and similar checks see through Issues.
func (iss Issues) Unwrap() []error {
	var errs []error
	for _, it := range iss {
		if it.Cause != nil {
			errs = append(errs, it.Cause)
		}
	}
	return errs
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// KindOf returns the kind of the first issue carried by err, or KindNone when
// err is nil or carries no issues.
func KindOf(err error) Kind {
	iss, ok := AsIssues(err)
	if !ok || len(iss) == 0 {
		return KindNone
	}
	return iss[0].Kind()
}

func singleIssue(code, path, msg string, off int64) Issues {
	return AppendIssues(nil, Issue{Code: code, Path: path, Message: msg, Offset: off})
}
