package gzrecord

import (
	"bytes"
	"io"
	"log/slog"
	"unicode/utf8"

	gojson "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"

	eng "github.com/reoring/gzrecord/internal/engine"
)

// TextCodec converts records to and from their canonical text form.
type TextCodec interface {
	EncodeText(r Record) ([]byte, error)
	DecodeText(b []byte) (Record, error)
	DecodeTextFrom(r io.Reader) (Record, error)
}

// JSONCodec is the JSON TextCodec. The zero value uses the registered JSON
// driver, permissive decoding and no logging.
type JSONCodec struct {
	Opt    DecodeOpt
	Driver JSONDriver   // nil uses CurrentJSONDriver()
	Logger *slog.Logger // nil discards
}

// NewJSONCodec returns a JSONCodec with the given decode options.
func NewJSONCodec(opt DecodeOpt) JSONCodec { return JSONCodec{Opt: opt} }

var _ TextCodec = JSONCodec{}

const indent = "  "

// EncodeText renders r as pretty-printed JSON: my_num then my_str, two-space
// indentation, no trailing newline. HTML characters are not escaped.
func (c JSONCodec) EncodeText(r Record) ([]byte, error) {
	if !utf8.ValidString(r.MyStr) {
		return nil, singleIssue(CodeInvalidFormat, "/"+FieldMyStr, "string is not valid UTF-8", -1)
	}
	var buf bytes.Buffer
	enc := gojson.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	// MyStr is valid UTF-8 here, so U+2028 and U+2029 can be written raw.
	if err := enc.EncodeWithOption(r, gojson.DisableNormalizeUTF8()); err != nil {
		return nil, err
	}
	return shortEscapes(bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})), nil
}

// shortEscapes rewrites the encoder's \u0008 and \u000c as \b and \f.
func shortEscapes(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u000`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 == len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] != 'u' || i+6 > len(b) {
			out = append(out, b[i], b[i+1])
			i++
			continue
		}
		switch string(b[i+2 : i+6]) {
		case "0008":
			out = append(out, '\\', 'b')
		case "000c":
			out = append(out, '\\', 'f')
		default:
			out = append(out, b[i:i+6]...)
		}
		i += 5
	}
	return out
}

// DecodeText parses b into a Record.
func (c JSONCodec) DecodeText(b []byte) (Record, error) {
	if c.Opt.MaxBytes > 0 && int64(len(b)) > c.Opt.MaxBytes {
		return Record{}, singleIssue(CodeTooBig, "/", "max bytes exceeded", c.Opt.MaxBytes)
	}
	if c.Opt.AllowComments {
		b = jsonc.ToJSON(b)
	}
	return c.decodeBytes(b)
}

// DecodeTextFrom reads tokens from r incrementally and parses them into a
// Record. Read errors from r that are not text failures are returned
// unchanged.
func (c JSONCodec) DecodeTextFrom(r io.Reader) (Record, error) {
	tr := &errTrackingReader{r: r}
	var in io.Reader = tr
	if c.Opt.MaxBytes > 0 {
		in = &capReader{r: in, max: c.Opt.MaxBytes}
	}
	if c.Opt.AllowComments {
		b, err := io.ReadAll(in)
		if err != nil {
			if tr.err != nil {
				return Record{}, tr.err
			}
			return Record{}, textIssues(err)
		}
		return c.decodeBytes(jsonc.ToJSON(b))
	}
	// The syntax check sees the raw bytes; its error wins over the driver's.
	chk := eng.NewSyntaxReader(in)
	rec, err := c.decode(c.driver().NewReader(chk))
	if tr.err != nil {
		return Record{}, tr.err
	}
	if chk.Err() != nil {
		return Record{}, textIssues(chk.Err())
	}
	return rec, err
}

func (c JSONCodec) decodeBytes(b []byte) (Record, error) {
	if err := eng.CheckSyntax(b); err != nil {
		return Record{}, textIssues(err)
	}
	return c.decode(c.driver().NewBytes(b))
}

func (c JSONCodec) decode(src Source) (Record, error) {
	logger := c.logger()
	var sink func(Issue)
	if c.Opt.OnDuplicateKey == Warn {
		sink = func(it Issue) {
			if it.Code == CodeDuplicateKey {
				logger.Warn("duplicate key", "path", it.Path, "offset", it.Offset)
			}
		}
	}
	return decodeRecord(enforceSource(engineTokenSource(src), c.Opt, sink), c.Opt)
}

func (c JSONCodec) driver() JSONDriver {
	if c.Driver != nil {
		return c.Driver
	}
	return CurrentJSONDriver()
}

func (c JSONCodec) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return discardLogger
}

// Equivalent to slog.DiscardHandler (Go 1.24+) for older toolchains.
var discardLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(1 << 30)}))

// EncodeText encodes r with the default codec.
func EncodeText(r Record) ([]byte, error) { return JSONCodec{}.EncodeText(r) }

// DecodeText decodes b with the default codec.
func DecodeText(b []byte) (Record, error) { return JSONCodec{}.DecodeText(b) }

// DecodeTextFrom decodes from r with the default codec.
func DecodeTextFrom(r io.Reader) (Record, error) { return JSONCodec{}.DecodeTextFrom(r) }
