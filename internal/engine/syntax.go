package engine

import (
	"io"
	"strconv"
	"unicode/utf8"
)

type scanState int

const (
	scanValue scanState = iota
	scanFirstElem
	scanFirstKey
	scanKey
	scanColon
	scanNext
	scanEnd
	scanString
	scanEscape
	scanUnicode
	scanLowBackslash
	scanLowU
	scanLiteral
	scanNumNeg
	scanNumZero
	scanNumInt
	scanNumDot
	scanNumFrac
	scanNumExp
	scanNumExpSign
	scanNumExpDigit
)

// SyntaxReader passes bytes through from an io.Reader while checking that
// they form a single JSON value: grammar, UTF-8 inside strings and paired
// surrogate escapes. The first violation is returned from Read and kept, as
// is any error from the underlying reader other than io.EOF. An input made of
// whitespace only is not a violation.
type SyntaxReader struct {
	r   io.Reader
	err error
	off int64

	state  scanState
	stack  []byte
	strKey bool

	hexN int
	hexV rune
	low  bool

	utf  [utf8.UTFMax]byte
	utfN int

	lit  string
	litI int
}

// NewSyntaxReader returns a SyntaxReader reading from r.
func NewSyntaxReader(r io.Reader) *SyntaxReader { return &SyntaxReader{r: r} }

// CheckSyntax reports the first syntax violation in b.
func CheckSyntax(b []byte) error {
	s := &SyntaxReader{}
	for _, c := range b {
		if err := s.step(c); err != nil {
			return err
		}
	}
	return s.eof()
}

func (s *SyntaxReader) Read(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n, err := s.r.Read(p)
	for i := 0; i < n; i++ {
		if e := s.step(p[i]); e != nil {
			s.err = e
			return i, e
		}
	}
	if err == io.EOF {
		if e := s.eof(); e != nil {
			s.err = e
			return n, e
		}
		return n, err
	}
	if err != nil {
		s.err = err
	}
	return n, err
}

// Err returns the violation or read error seen so far, if any.
func (s *SyntaxReader) Err() error { return s.err }

func (s *SyntaxReader) step(c byte) error {
	err := s.scan(c)
	s.off++
	return err
}

func (s *SyntaxReader) eof() error {
	switch s.state {
	case scanEnd:
		return nil
	case scanValue:
		if len(s.stack) == 0 {
			return nil
		}
	case scanNumZero, scanNumInt, scanNumFrac, scanNumExpDigit:
		if len(s.stack) == 0 {
			return nil
		}
	}
	return io.ErrUnexpectedEOF
}

func (s *SyntaxReader) scan(c byte) error {
	switch s.state {
	case scanString:
		return s.stringByte(c)
	case scanEscape:
		switch c {
		case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
			s.state = scanString
			return nil
		case 'u':
			s.state, s.hexN, s.hexV = scanUnicode, 0, 0
			return nil
		}
		return s.fail("invalid escape character " + strconv.QuoteRune(rune(c)) + " in string")
	case scanUnicode:
		d, ok := unhex(c)
		if !ok {
			return s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " in \\u escape")
		}
		s.hexV = s.hexV<<4 | d
		if s.hexN++; s.hexN < 4 {
			return nil
		}
		return s.endUnicode()
	case scanLowBackslash:
		if c != '\\' {
			return s.fail("unpaired surrogate in \\u escape")
		}
		s.state = scanLowU
		return nil
	case scanLowU:
		if c != 'u' {
			return s.fail("unpaired surrogate in \\u escape")
		}
		s.state, s.hexN, s.hexV = scanUnicode, 0, 0
		return nil
	case scanLiteral:
		if c != s.lit[s.litI] {
			return s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " in literal " + s.lit)
		}
		if s.litI++; s.litI == len(s.lit) {
			s.valueDone()
		}
		return nil
	case scanNumNeg, scanNumZero, scanNumInt, scanNumDot, scanNumFrac, scanNumExp, scanNumExpSign, scanNumExpDigit:
		done, err := s.numberByte(c)
		if !done || err != nil {
			return err
		}
		s.valueDone()
		return s.scan(c)
	}

	if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
		return nil
	}
	switch s.state {
	case scanFirstElem:
		if c == ']' {
			s.pop()
			return nil
		}
		return s.beginValue(c)
	case scanFirstKey:
		if c == '}' {
			s.pop()
			return nil
		}
		fallthrough
	case scanKey:
		if c != '"' {
			return s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " looking for beginning of object key")
		}
		s.state, s.strKey = scanString, true
		return nil
	case scanColon:
		if c != ':' {
			return s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " after object key")
		}
		s.state = scanValue
		return nil
	case scanNext:
		top := s.stack[len(s.stack)-1]
		switch {
		case c == ',' && top == '{':
			s.state = scanKey
		case c == ',':
			s.state = scanValue
		case c == '}' && top == '{', c == ']' && top == '[':
			s.pop()
		default:
			return s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " after " + containerName(top) + " element")
		}
		return nil
	case scanEnd:
		return s.fail("trailing data after top-level value")
	}
	return s.beginValue(c)
}

func (s *SyntaxReader) beginValue(c byte) error {
	switch {
	case c == '{':
		s.stack = append(s.stack, '{')
		s.state = scanFirstKey
	case c == '[':
		s.stack = append(s.stack, '[')
		s.state = scanFirstElem
	case c == '"':
		s.state, s.strKey = scanString, false
	case c == '-':
		s.state = scanNumNeg
	case c == '0':
		s.state = scanNumZero
	case '1' <= c && c <= '9':
		s.state = scanNumInt
	case c == 't':
		s.state, s.lit, s.litI = scanLiteral, "true", 1
	case c == 'f':
		s.state, s.lit, s.litI = scanLiteral, "false", 1
	case c == 'n':
		s.state, s.lit, s.litI = scanLiteral, "null", 1
	default:
		return s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " looking for beginning of value")
	}
	return nil
}

func (s *SyntaxReader) stringByte(c byte) error {
	if s.utfN > 0 || c >= utf8.RuneSelf {
		if c < utf8.RuneSelf {
			return s.fail("invalid UTF-8 in string")
		}
		s.utf[s.utfN] = c
		s.utfN++
		if !utf8.FullRune(s.utf[:s.utfN]) {
			return nil
		}
		r, size := utf8.DecodeRune(s.utf[:s.utfN])
		s.utfN = 0
		if r == utf8.RuneError && size == 1 {
			return s.fail("invalid UTF-8 in string")
		}
		return nil
	}
	switch {
	case c == '"':
		if s.strKey {
			s.state, s.strKey = scanColon, false
		} else {
			s.valueDone()
		}
	case c == '\\':
		s.state = scanEscape
	case c < 0x20:
		return s.fail("invalid control character in string")
	}
	return nil
}

func (s *SyntaxReader) endUnicode() error {
	v := s.hexV
	switch {
	case s.low:
		s.low = false
		if v < 0xDC00 || v > 0xDFFF {
			return s.fail("unpaired surrogate in \\u escape")
		}
	case v >= 0xD800 && v <= 0xDBFF:
		s.low = true
		s.state = scanLowBackslash
		return nil
	case v >= 0xDC00 && v <= 0xDFFF:
		return s.fail("unpaired surrogate in \\u escape")
	}
	s.state = scanString
	return nil
}

// numberByte advances a number literal. done reports that c is not part of
// the number, which is then complete.
func (s *SyntaxReader) numberByte(c byte) (done bool, err error) {
	digit := '0' <= c && c <= '9'
	switch s.state {
	case scanNumNeg:
		switch {
		case c == '0':
			s.state = scanNumZero
		case digit:
			s.state = scanNumInt
		default:
			return false, s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " in numeric literal")
		}
	case scanNumZero, scanNumInt:
		switch {
		case digit && s.state == scanNumInt:
		case c == '.':
			s.state = scanNumDot
		case c == 'e' || c == 'E':
			s.state = scanNumExp
		default:
			return true, nil
		}
	case scanNumDot:
		if !digit {
			return false, s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " after decimal point in numeric literal")
		}
		s.state = scanNumFrac
	case scanNumFrac:
		switch {
		case digit:
		case c == 'e' || c == 'E':
			s.state = scanNumExp
		default:
			return true, nil
		}
	case scanNumExp:
		switch {
		case c == '+' || c == '-':
			s.state = scanNumExpSign
		case digit:
			s.state = scanNumExpDigit
		default:
			return false, s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " in exponent of numeric literal")
		}
	case scanNumExpSign:
		if !digit {
			return false, s.fail("invalid character " + strconv.QuoteRune(rune(c)) + " in exponent of numeric literal")
		}
		s.state = scanNumExpDigit
	case scanNumExpDigit:
		if !digit {
			return true, nil
		}
	}
	return false, nil
}

func (s *SyntaxReader) pop() {
	s.stack = s.stack[:len(s.stack)-1]
	s.valueDone()
}

func (s *SyntaxReader) valueDone() {
	if len(s.stack) == 0 {
		s.state = scanEnd
		return
	}
	s.state = scanNext
}

func (s *SyntaxReader) fail(msg string) error {
	return IssueError{SimpleIssue{Code: CodeParseError, Path: "/", Message: msg, Offset: s.off}}
}

func containerName(c byte) string {
	if c == '{' {
		return "object"
	}
	return "array"
}

func unhex(c byte) (rune, bool) {
	switch {
	case '0' <= c && c <= '9':
		return rune(c - '0'), true
	case 'a' <= c && c <= 'f':
		return rune(c-'a') + 10, true
	case 'A' <= c && c <= 'F':
		return rune(c-'A') + 10, true
	}
	return 0, false
}
