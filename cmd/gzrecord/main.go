// gzrecord encodes records into gzip containers of canonical JSON text and
// decodes them back.
//
// Usage:
//
//	gzrecord encode [--num N --str S | --in FILE] [--out FILE]
//	gzrecord decode [--in FILE] [--out FILE] [--stream]
//	gzrecord inspect [--in FILE]
//
// Every subcommand accepts --config FILE (default: $GZRECORD_CONFIG) and
// --log-level LEVEL. Files default to stdin and stdout; "-" selects them
// explicitly.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	gzrecord "github.com/reoring/gzrecord"
	"github.com/reoring/gzrecord/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

// usageError marks command-line mistakes; they exit with status 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }
func (e usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error { return usageError{fmt.Errorf(format, args...)} }

const usageText = `gzrecord: canonical JSON records in gzip containers

Usage:
  gzrecord encode [--num N --str S | --in FILE] [--out FILE]
  gzrecord decode [--in FILE] [--out FILE] [--stream]
  gzrecord inspect [--in FILE]

Global flags:
  --config FILE      YAML config (default: $GZRECORD_CONFIG)
  --log-level LEVEL  debug, info, warn or error (default: warn)
`

type env struct {
	stdin          io.Reader
	stdout, stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		fmt.Fprint(stderr, usageText)
		return usagef("missing subcommand")
	}
	e := env{stdin: stdin, stdout: stdout, stderr: stderr}
	switch sub := args[0]; sub {
	case "encode":
		return e.encodeCmd(args[1:])
	case "decode":
		return e.decodeCmd(args[1:])
	case "inspect":
		return e.inspectCmd(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return nil
	default:
		fmt.Fprint(stderr, usageText)
		return usagef("unknown subcommand %q", sub)
	}
}

// globalFlags are registered on every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func (g *globalFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "path to YAML config (default: $"+config.EnvVar+")")
	fs.StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
}

func (e env) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func (e env) parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return usageError{err}
	}
	if fs.NArg() > 0 {
		return usagef("unexpected argument: %s", fs.Arg(0))
	}
	return nil
}

// pipeline resolves the config and builds the logger and pipeline.
func (e env) pipeline(g globalFlags) (*gzrecord.Pipeline, *slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, nil, usagef("--log-level: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: level}))
	cfg, err := config.Resolve(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	p, err := cfg.Pipeline(logger)
	if err != nil {
		return nil, nil, err
	}
	return p, logger, nil
}

func (e env) encodeCmd(args []string) error {
	var (
		g       globalFlags
		num     uint64
		str     string
		in, out string
	)
	fs := e.newFlagSet("encode")
	g.add(fs)
	fs.Uint64Var(&num, "num", 0, "my_num value")
	fs.StringVar(&str, "str", "", "my_str value")
	fs.StringVar(&in, "in", "", "read JSON text from FILE instead of flags (- for stdin)")
	fs.StringVar(&out, "out", "-", "write the gzip container to FILE")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	if in != "" && (fs.Changed("num") || fs.Changed("str")) {
		return usagef("--in cannot be combined with --num or --str")
	}
	p, logger, err := e.pipeline(g)
	if err != nil {
		return err
	}

	rec := gzrecord.Record{MyNum: num, MyStr: str}
	if in != "" {
		text, err := e.readInput(in)
		if err != nil {
			return err
		}
		if rec, err = p.Text.DecodeText(text); err != nil {
			return fmt.Errorf("decode %s: %w", in, err)
		}
	}
	b, err := p.ToCompressedText(rec)
	if err != nil {
		return err
	}
	logger.Info("encoded", "my_num", rec.MyNum, "bytes", len(b))
	return e.writeOutput(out, b)
}

func (e env) decodeCmd(args []string) error {
	var (
		g       globalFlags
		in, out string
		stream  bool
	)
	fs := e.newFlagSet("decode")
	g.add(fs)
	fs.StringVar(&in, "in", "-", "read the gzip container from FILE")
	fs.StringVar(&out, "out", "-", "write canonical JSON text to FILE")
	fs.BoolVar(&stream, "stream", false, "decompress and parse incrementally")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	p, _, err := e.pipeline(g)
	if err != nil {
		return err
	}

	var rec gzrecord.Record
	if stream {
		r, closeFn, err := e.openInput(in)
		if err != nil {
			return err
		}
		rec, err = p.FromCompressedReader(r)
		closeFn()
		if err != nil {
			return err
		}
	} else {
		b, err := e.readInput(in)
		if err != nil {
			return err
		}
		if rec, err = p.FromCompressedText(b); err != nil {
			return err
		}
	}
	text, err := p.Text.EncodeText(rec)
	if err != nil {
		return err
	}
	return e.writeOutput(out, append(text, '\n'))
}

func (e env) inspectCmd(args []string) error {
	var (
		g  globalFlags
		in string
	)
	fs := e.newFlagSet("inspect")
	g.add(fs)
	fs.StringVar(&in, "in", "-", "read the gzip container from FILE")
	if err := e.parse(fs, args); err != nil {
		return err
	}
	p, _, err := e.pipeline(g)
	if err != nil {
		return err
	}
	b, err := e.readInput(in)
	if err != nil {
		return err
	}
	h, err := gzrecord.Inspect(b)
	if err != nil {
		return err
	}
	rec, err := p.FromCompressedText(b)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	mtime := int64(0)
	if !h.ModTime.IsZero() {
		mtime = h.ModTime.Unix()
	}
	fmt.Fprintf(&buf, "size: %d\n", len(b))
	fmt.Fprintf(&buf, "mtime: %d\n", mtime)
	fmt.Fprintf(&buf, "os: %d\n", h.OS)
	fmt.Fprintf(&buf, "my_num: %d\n", rec.MyNum)
	fmt.Fprintf(&buf, "my_str: %q\n", rec.MyStr)
	_, err = e.stdout.Write(buf.Bytes())
	return err
}

func (e env) openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return e.stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func (e env) readInput(path string) ([]byte, error) {
	r, closeFn, err := e.openInput(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

func (e env) writeOutput(path string, b []byte) error {
	if path == "" || path == "-" {
		_, err := e.stdout.Write(b)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
