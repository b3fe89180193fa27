package gzrecord

import (
	"errors"
	"io"
	"strconv"
	"strings"

	eng "github.com/reoring/gzrecord/internal/engine"
)

// decodeRecord consumes exactly one top-level JSON value from src and maps it
// onto a Record. Schema issues are collected; a text failure discards them
// and is returned alone.
func decodeRecord(src eng.TokenSource, opt DecodeOpt) (Record, error) {
	first, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, singleIssue(CodeParseError, "/", "empty input", 0)
		}
		return Record{}, textIssues(err)
	}
	if first.Kind != eng.KindBeginObject {
		if err := eng.SkipValue(src, first); err != nil {
			return Record{}, textIssues(err)
		}
		if err := expectEOF(src); err != nil {
			return Record{}, err
		}
		return Record{}, singleIssue(CodeInvalidType, "/", "expected object, got "+first.Kind.String(), first.Offset)
	}

	var (
		rec              Record
		iss              Issues
		seenNum, seenStr bool
	)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return Record{}, textIssues(err)
		}
		if tok.Kind == eng.KindEndObject {
			break
		}
		if tok.Kind != eng.KindKey {
			return Record{}, singleIssue(CodeParseError, "/", "expected object key, got "+tok.Kind.String(), tok.Offset)
		}
		path := eng.JoinPointer("", tok.String)
		val, err := src.NextToken()
		if err != nil {
			return Record{}, textIssues(err)
		}
		accepted := false
		switch tok.String {
		case FieldMyNum:
			if seenNum {
				iss = AppendIssues(iss, Issue{Path: path, Code: CodeDuplicateKey, Message: "key '" + FieldMyNum + "' duplicated", Offset: tok.Offset})
				break
			}
			seenNum = true
			n, it := parseMyNum(val, path)
			if it != nil {
				iss = AppendIssues(iss, *it)
				break
			}
			rec.MyNum, accepted = n, true
		case FieldMyStr:
			if seenStr {
				iss = AppendIssues(iss, Issue{Path: path, Code: CodeDuplicateKey, Message: "key '" + FieldMyStr + "' duplicated", Offset: tok.Offset})
				break
			}
			seenStr = true
			if val.Kind != eng.KindString {
				iss = AppendIssues(iss, Issue{Path: path, Code: CodeInvalidType, Message: "expected string, got " + val.Kind.String(), Offset: val.Offset})
				break
			}
			rec.MyStr, accepted = val.String, true
		default:
			if opt.Unknown == UnknownStrict {
				iss = AppendIssues(iss, Issue{Path: path, Code: CodeUnknownKey, Message: "unknown key '" + tok.String + "'", Offset: tok.Offset})
			}
		}
		if !accepted {
			if err := eng.SkipValue(src, val); err != nil {
				return Record{}, textIssues(err)
			}
		}
	}
	if !seenNum {
		iss = AppendIssues(iss, Issue{Path: "/" + FieldMyNum, Code: CodeRequired, Message: "required", Offset: -1})
	}
	if !seenStr {
		iss = AppendIssues(iss, Issue{Path: "/" + FieldMyStr, Code: CodeRequired, Message: "required", Offset: -1})
	}
	if err := expectEOF(src); err != nil {
		return Record{}, err
	}
	if len(iss) > 0 {
		return Record{}, iss
	}
	return rec, nil
}

// parseMyNum accepts a JSON integer in the uint64 range. "-0" is zero.
func parseMyNum(tok eng.Token, path string) (uint64, *Issue) {
	if tok.Kind != eng.KindNumber {
		return 0, &Issue{Path: path, Code: CodeInvalidType, Message: "expected number, got " + tok.Kind.String(), Offset: tok.Offset}
	}
	lit := tok.Number
	if strings.ContainsAny(lit, ".eE") {
		return 0, &Issue{Path: path, Code: CodeInvalidType, Message: "expected integer, got " + lit, Offset: tok.Offset}
	}
	if lit == "-0" {
		return 0, nil
	}
	if strings.HasPrefix(lit, "-") {
		return 0, &Issue{Path: path, Code: CodeTooSmall, Message: "must be >= 0", Offset: tok.Offset}
	}
	n, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &Issue{Path: path, Code: CodeOverflow, Message: lit + " overflows uint64", Offset: tok.Offset, Cause: err}
		}
		return 0, &Issue{Path: path, Code: CodeInvalidType, Message: "expected integer, got " + lit, Offset: tok.Offset, Cause: err}
	}
	return n, nil
}

// expectEOF fails unless src has no tokens left.
func expectEOF(src eng.TokenSource) error {
	tok, err := src.NextToken()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return textIssues(err)
	}
	return singleIssue(CodeParseError, "/", "trailing data after top-level value", tok.Offset)
}

// textIssues classifies a token-source error. Issues pass through so failures
// surfaced by an underlying gzip reader keep their kind.
func textIssues(err error) error {
	if _, ok := AsIssues(err); ok {
		return err
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return AppendIssues(nil, Issue{Code: ie.Code, Path: ie.Path, Message: ie.Message, Offset: ie.Offset})
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return AppendIssues(nil, Issue{Code: CodeParseError, Path: "/", Message: "unexpected end of input", Cause: err, Offset: -1})
	}
	return AppendIssues(nil, Issue{Code: CodeParseError, Path: "/", Message: err.Error(), Cause: err, Offset: -1})
}

// errTrackingReader remembers the first non-EOF error returned by r.
type errTrackingReader struct {
	r   io.Reader
	err error
}

func (t *errTrackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}

// capReader fails with too_big once more than max bytes have been read.
type capReader struct {
	r   io.Reader
	max int64
	n   int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.n > c.max {
		return 0, c.tooBig()
	}
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.max {
		return n, c.tooBig()
	}
	return n, err
}

func (c *capReader) tooBig() error {
	return singleIssue(CodeTooBig, "/", "max bytes exceeded", c.max)
}
