package engine_test

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	eng "github.com/reoring/gzrecord/internal/engine"
)

var grammarCases = []string{
	`{}`,
	`[]`,
	`{"a":1,"b":[true,false,null],"c":{"d":"e"}}`,
	` [ 1 , -0 , 0.5 , 1e3 , -2E-7 , 10.25e+2 ] `,
	`"\"\\\/\b\f\n\r\té"`,
	`0`,
	`-12`,
	`null`,
	`{"a" 1}`,
	`{"a":1,,"b":2}`,
	`{"a":1,}`,
	`[1,]`,
	`[,1]`,
	`{,}`,
	`{"a":1:"b"}`,
	`{"a":1]`,
	`[1}`,
	`{1:2}`,
	`{} {}`,
	`[] x`,
	`01`,
	`-`,
	`1.`,
	`1e`,
	`1e+`,
	`.5`,
	`+1`,
	`tru`,
	`nul`,
	`truex`,
	`"\x"`,
	`"\u12"`,
	`"\u12g4"`,
	"\"a\tb\"",
	`{"a":"b`,
	`[1,[2,3]`,
}

func TestCheckSyntax_MatchesEncodingJSON(t *testing.T) {
	for _, in := range grammarCases {
		want := json.Valid([]byte(in))
		err := eng.CheckSyntax([]byte(in))
		if (err == nil) != want {
			t.Errorf("%q: CheckSyntax = %v, json.Valid = %v", in, err, want)
		}
	}
}

func TestCheckSyntax_UTF8AndSurrogates(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{`"caf` + "é" + `"`, true},
		{`"` + "\U0001F600" + `"`, true},
		{`"\ud83d\ude00"`, true},
		{`"\uD83D\uDE00"`, true},
		{`"\ufffd"`, true},
		{`"` + "\uFFFD" + `"`, true},
		{"\"a\xffb\"", false},
		{"\"\xc3\"", false},
		{"\"\xc3(\"", false},
		{"\"\xed\xa0\x80\"", false},
		{"\"\xe0\x80\x80\"", false},
		{"\"\xf4\x90\x80\x80\"", false},
		{"\"\x80\"", false},
		{"\xef\xbb\xbf{}", false},
		{`"\ud800"`, false},
		{`"\udc00"`, false},
		{`"\ud800x"`, false},
		{`"\ud800\n"`, false},
		{`"\ud800A"`, false},
		{`"\ude00\ud83d"`, false},
	}
	for _, tc := range cases {
		err := eng.CheckSyntax([]byte(tc.in))
		if (err == nil) != tc.ok {
			t.Errorf("%q: ok=%v, err=%v", tc.in, tc.ok, err)
		}
		if err != nil {
			var ie eng.IssueError
			if !errors.As(err, &ie) || ie.Code != eng.CodeParseError {
				t.Errorf("%q: want parse_error IssueError, got %T %v", tc.in, err, err)
			}
		}
	}
}

func TestCheckSyntax_EndOfInput(t *testing.T) {
	for _, in := range []string{``, "  \n\t"} {
		if err := eng.CheckSyntax([]byte(in)); err != nil {
			t.Errorf("%q: blank input is left to the decoder, got %v", in, err)
		}
	}
	for _, in := range []string{`{`, `{"a"`, `[1,`, `"abc`, `"\u00`, `-`, `1.`, `tr`, "\"\xe2\x82"} {
		if err := eng.CheckSyntax([]byte(in)); !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Errorf("%q: want io.ErrUnexpectedEOF, got %v", in, err)
		}
	}
}

func TestCheckSyntax_Offset(t *testing.T) {
	err := eng.CheckSyntax([]byte("{\"a\":\"x\xffy\"}"))
	var ie eng.IssueError
	if !errors.As(err, &ie) || ie.Offset != 7 {
		t.Fatalf("want violation at offset 7, got %+v", err)
	}
}

func TestSyntaxReader_MatchesCheckSyntax(t *testing.T) {
	inputs := append([]string{"\"a\xffb\"", `"\ud800"`, `"\ud83d\ude00"`, "\"\xf0\x9f\x98\x80\""}, grammarCases...)
	for _, in := range inputs {
		want := eng.CheckSyntax([]byte(in))
		r := eng.NewSyntaxReader(iotest.OneByteReader(strings.NewReader(in)))
		out, err := io.ReadAll(r)
		if (want == nil) != (err == nil) {
			t.Errorf("%q: reader err %v, CheckSyntax %v", in, err, want)
			continue
		}
		if err == nil && string(out) != in {
			t.Errorf("%q: passed through %q", in, out)
		}
		if !errors.Is(r.Err(), err) && !(err == nil && r.Err() == nil) {
			t.Errorf("%q: Err() = %v, want %v", in, r.Err(), err)
		}
	}
}

func TestSyntaxReader_StopsAtViolation(t *testing.T) {
	r := eng.NewSyntaxReader(strings.NewReader(`{"a":1,,"b":2}`))
	buf := make([]byte, 64)
	n, err := r.Read(buf)
	if err == nil || string(buf[:n]) != `{"a":1,` {
		t.Fatalf("Read = %q, %v", buf[:n], err)
	}
	if n, again := r.Read(buf); n != 0 || again != err {
		t.Fatalf("violation is not sticky: %d %v", n, again)
	}
}

func TestSyntaxReader_PassesReadErrors(t *testing.T) {
	boom := errors.New("boom")
	r := eng.NewSyntaxReader(iotest.ErrReader(boom))
	if _, err := r.Read(make([]byte, 8)); err != boom {
		t.Fatalf("want read error unchanged, got %v", err)
	}
	if r.Err() != boom {
		t.Fatalf("Err() = %v", r.Err())
	}
}
