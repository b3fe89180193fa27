package gzrecord

import (
	"io"
	"log/slog"
)

// Pipeline chains a TextCodec and a ByteCompressor. Nil fields fall back to
// JSONCodec{}, the default Gzip settings and a discard logger.
type Pipeline struct {
	Text       TextCodec
	Compressor ByteCompressor
	Logger     *slog.Logger
}

// DefaultPipeline returns a pipeline that reproduces the reference bytes:
// canonical JSON text in a gzip member with mtime 0, OS 3 and the canonical
// deflate engine.
func DefaultPipeline() *Pipeline {
	return &Pipeline{Text: JSONCodec{}, Compressor: defaultGzip}
}

// ToCompressedText encodes r as text and compresses it.
func (p *Pipeline) ToCompressedText(r Record) ([]byte, error) {
	text, err := p.text().EncodeText(r)
	if err != nil {
		p.fail("encode", err)
		return nil, err
	}
	out, err := p.compressor().Compress(text)
	if err != nil {
		p.fail("compress", err)
		return nil, err
	}
	p.logger().Debug("record compressed", "text_bytes", len(text), "gzip_bytes", len(out))
	return out, nil
}

// FromCompressedText decompresses b and decodes the text.
func (p *Pipeline) FromCompressedText(b []byte) (Record, error) {
	text, err := p.compressor().Decompress(b)
	if err != nil {
		p.fail("decompress", err)
		return Record{}, err
	}
	rec, err := p.text().DecodeText(text)
	if err != nil {
		p.fail("decode", err)
		return Record{}, err
	}
	p.logger().Debug("record decompressed", "gzip_bytes", len(b), "text_bytes", len(text))
	return rec, nil
}

// FromCompressedReader decompresses r and decodes the text as it streams.
// The rest of the stream is always drained so the gzip trailer is verified;
// a stream failure takes precedence over a text failure, as in
// FromCompressedText.
func (p *Pipeline) FromCompressedReader(r io.Reader) (Record, error) {
	zr, err := p.compressor().NewReader(r)
	if err != nil {
		p.fail("decompress", err)
		return Record{}, err
	}
	defer zr.Close()
	tr := &errTrackingReader{r: zr}
	rec, derr := p.text().DecodeTextFrom(tr)
	if tr.err == nil {
		_, _ = io.Copy(io.Discard, tr)
	}
	if tr.err != nil {
		p.fail("decompress", tr.err)
		return Record{}, tr.err
	}
	if derr != nil {
		p.fail("decode", derr)
		return Record{}, derr
	}
	p.logger().Debug("record decompressed", "mode", "stream")
	return rec, nil
}

func (p *Pipeline) fail(stage string, err error) {
	p.logger().Debug("pipeline failed", "stage", stage, "kind", KindOf(err).String(), "err", err)
}

func (p *Pipeline) text() TextCodec {
	if p.Text != nil {
		return p.Text
	}
	return JSONCodec{}
}

func (p *Pipeline) compressor() ByteCompressor {
	if p.Compressor != nil {
		return p.Compressor
	}
	return defaultGzip
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return discardLogger
}

// ToCompressedText runs DefaultPipeline().ToCompressedText.
func ToCompressedText(r Record) ([]byte, error) { return DefaultPipeline().ToCompressedText(r) }

// FromCompressedText runs DefaultPipeline().FromCompressedText.
func FromCompressedText(b []byte) (Record, error) { return DefaultPipeline().FromCompressedText(b) }

// FromCompressedReader runs DefaultPipeline().FromCompressedReader.
func FromCompressedReader(r io.Reader) (Record, error) {
	return DefaultPipeline().FromCompressedReader(r)
}
