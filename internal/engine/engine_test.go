package engine_test

import (
	"errors"
	"io"
	"testing"

	eng "github.com/reoring/gzrecord/internal/engine"
	jsonsrc "github.com/reoring/gzrecord/source/json"
)

func drain(t *testing.T, src eng.TokenSource) ([]eng.Token, error) {
	t.Helper()
	var toks []eng.Token
	for {
		tok, err := src.NextToken()
		if err == io.EOF {
			return toks, nil
		}
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
}

func TestSkipValue(t *testing.T) {
	src := jsonsrc.NewBytes([]byte(`{"a":[1,{"b":[]}],"c":"d"} 7`))
	first, err := src.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.SkipValue(src, first); err != nil {
		t.Fatalf("SkipValue: %v", err)
	}
	tok, err := src.NextToken()
	if err != nil || tok.Kind != eng.KindNumber || tok.Number != "7" {
		t.Fatalf("next token = %+v, %v", tok, err)
	}
}

func TestSkipValue_Scalar(t *testing.T) {
	for _, k := range []eng.Kind{eng.KindString, eng.KindNumber, eng.KindBool, eng.KindNull} {
		if err := eng.SkipValue(nil, eng.Token{Kind: k}); err != nil {
			t.Fatalf("%v: %v", k, err)
		}
	}
	if err := eng.SkipValue(nil, eng.Token{Kind: eng.KindEndObject}); !errors.Is(err, eng.ErrUnbalanced) {
		t.Fatalf("want ErrUnbalanced, got %v", err)
	}
}

func TestSkipValue_Truncated(t *testing.T) {
	src := jsonsrc.NewBytes([]byte(`[1,[2,3]`))
	first, _ := src.NextToken()
	if err := eng.SkipValue(src, first); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("want io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestEnforce_DuplicateKeys(t *testing.T) {
	in := []byte(`{"a":1,"b":{"a":1,"a":2},"a":3}`)

	var warned []eng.SimpleIssue
	src := eng.WrapWithEnforcement(jsonsrc.NewBytes(in), eng.EnforceOptions{
		OnDuplicate: eng.DupWarn,
		IssueSink:   func(si eng.SimpleIssue) { warned = append(warned, si) },
	})
	if _, err := drain(t, src); err != nil {
		t.Fatalf("warn mode should not fail: %v", err)
	}
	if len(warned) != 2 || warned[0].Path != "/b/a" || warned[1].Path != "/a" {
		t.Fatalf("unexpected warnings: %+v", warned)
	}

	src = eng.WrapWithEnforcement(jsonsrc.NewBytes(in), eng.EnforceOptions{OnDuplicate: eng.DupError})
	_, err := drain(t, src)
	var ie eng.IssueError
	if !errors.As(err, &ie) || ie.Code != eng.CodeDuplicateKey || ie.Path != "/b/a" {
		t.Fatalf("want duplicate_key at /b/a, got %v", err)
	}
}

func TestEnforce_ArrayPaths(t *testing.T) {
	var warned []eng.SimpleIssue
	src := eng.WrapWithEnforcement(jsonsrc.NewBytes([]byte(`[{"x":1},{"x":1,"x":2}]`)), eng.EnforceOptions{
		OnDuplicate: eng.DupWarn,
		IssueSink:   func(si eng.SimpleIssue) { warned = append(warned, si) },
	})
	if _, err := drain(t, src); err != nil {
		t.Fatal(err)
	}
	if len(warned) != 1 || warned[0].Path != "/1/x" {
		t.Fatalf("unexpected warnings: %+v", warned)
	}
}

func TestEnforce_MaxDepth(t *testing.T) {
	in := []byte(`{"a":[[1]]}`)
	src := eng.WrapWithEnforcement(jsonsrc.NewBytes(in), eng.EnforceOptions{MaxDepth: 2})
	_, err := drain(t, src)
	var ie eng.IssueError
	if !errors.As(err, &ie) || ie.Code != eng.CodeParseError {
		t.Fatalf("want depth failure, got %v", err)
	}
	src = eng.WrapWithEnforcement(jsonsrc.NewBytes(in), eng.EnforceOptions{MaxDepth: 3})
	if _, err := drain(t, src); err != nil {
		t.Fatalf("depth 3: %v", err)
	}
}

func TestEnforce_MaxBytes(t *testing.T) {
	in := []byte(`{"a":"0123456789012345678901234567890123456789"}`)
	src := eng.WrapWithEnforcement(jsonsrc.NewBytes(in), eng.EnforceOptions{MaxBytes: 16})
	_, err := drain(t, src)
	var ie eng.IssueError
	if !errors.As(err, &ie) || ie.Code != eng.CodeTooBig {
		t.Fatalf("want too_big, got %v", err)
	}
}

func TestEnforceOptions_Disabled(t *testing.T) {
	if !(eng.EnforceOptions{}).Disabled() {
		t.Fatal("zero options should be disabled")
	}
	if (eng.EnforceOptions{MaxDepth: 1}).Disabled() {
		t.Fatal("depth cap should enable enforcement")
	}
}

func TestJoinPointer_Escapes(t *testing.T) {
	if got := eng.JoinPointer("/a", "b/c~d"); got != "/a/b~1c~0d" {
		t.Fatalf("got %q", got)
	}
}
