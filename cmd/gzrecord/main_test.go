package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gzrecord "github.com/reoring/gzrecord"
	"github.com/reoring/gzrecord/config"
)

func runCLI(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvVar, "")
	var stdout, stderr bytes.Buffer
	err := run(args, bytes.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

func TestEncode_DefaultRecordMatchesReference(t *testing.T) {
	out, _, err := runCLI(t, nil, "encode")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := gzrecord.ToCompressedText(gzrecord.Default())
	if out != string(want) {
		t.Fatalf("got % x", out)
	}
}

func TestEncodeDecode_Flags(t *testing.T) {
	z, _, err := runCLI(t, nil, "encode", "--num", "42", "--str", "hello world")
	if err != nil {
		t.Fatal(err)
	}
	for _, mode := range [][]string{{"decode"}, {"decode", "--stream"}} {
		out, _, err := runCLI(t, []byte(z), mode...)
		if err != nil {
			t.Fatalf("%v: %v", mode, err)
		}
		want := "{\n  \"my_num\": 42,\n  \"my_str\": \"hello world\"\n}\n"
		if out != want {
			t.Fatalf("%v: got %q", mode, out)
		}
	}
}

func TestEncode_FromFileToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "rec.json")
	out := filepath.Join(dir, "rec.json.gz")
	if err := os.WriteFile(in, []byte(`{"my_str":"from file","extra":[1],"my_num":9}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, nil, "encode", "--in", in, "--out", out); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := gzrecord.FromCompressedText(b)
	if err != nil || rec != (gzrecord.Record{MyNum: 9, MyStr: "from file"}) {
		t.Fatalf("decoded %+v, %v", rec, err)
	}

	stdout, _, err := runCLI(t, nil, "inspect", "--in", out)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"mtime: 0", "os: 3", "my_num: 9", `my_str: "from file"`} {
		if !strings.Contains(stdout, line+"\n") {
			t.Fatalf("inspect output missing %q:\n%s", line, stdout)
		}
	}
}

func TestConfigFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "gzrecord.yaml")
	if err := os.WriteFile(cfgPath, []byte("gzip:\n  engine: standard\n  os: 255\n  mtime: 1700000000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	z, _, err := runCLI(t, nil, "encode", "--config", cfgPath, "--num", "1")
	if err != nil {
		t.Fatal(err)
	}
	h, err := gzrecord.Inspect([]byte(z))
	if err != nil || h.OS != 255 || h.ModTime.Unix() != 1700000000 {
		t.Fatalf("header = %+v, %v", h, err)
	}
}

func TestDecode_ErrorsExitOne(t *testing.T) {
	z, _ := gzrecord.ToCompressedText(gzrecord.Default())
	z[len(z)-8] ^= 0xff
	_, _, err := runCLI(t, z, "decode")
	if !errors.Is(err, gzrecord.ErrCorruptStream) || exitCode(err) != 1 {
		t.Fatalf("want CorruptStream with exit 1, got %v (%d)", err, exitCode(err))
	}
	_, _, err = runCLI(t, []byte("not gzip at all"), "decode", "--stream")
	if !errors.Is(err, gzrecord.ErrInvalidHeader) || exitCode(err) != 1 {
		t.Fatalf("want InvalidHeader with exit 1, got %v", err)
	}
}

func TestUsageErrorsExitTwo(t *testing.T) {
	cases := [][]string{
		{},
		{"compress"},
		{"encode", "--bogus"},
		{"encode", "--in", "x.json", "--num", "1"},
		{"decode", "extra-arg"},
		{"decode", "--log-level", "loud"},
	}
	for _, args := range cases {
		_, _, err := runCLI(t, nil, args...)
		if exitCode(err) != 2 {
			t.Errorf("%v: want exit 2, got %v (%d)", args, err, exitCode(err))
		}
	}
}

func TestDebugLogging(t *testing.T) {
	_, stderr, err := runCLI(t, nil, "encode", "--log-level", "debug")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "record compressed") || !strings.Contains(stderr, "level=INFO msg=encoded") {
		t.Fatalf("unexpected logs: %q", stderr)
	}
}
