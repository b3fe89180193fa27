package gzrecord

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"

	"github.com/reoring/gzrecord/internal/deflate"
)

// ByteCompressor wraps bytes into a compressed container and back.
type ByteCompressor interface {
	Compress(p []byte) ([]byte, error)
	Decompress(p []byte) ([]byte, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// gzip OS byte values (RFC 1952).
const (
	OSFAT     byte = 0
	OSUnix    byte = 3
	OSUnknown byte = 255
)

// Header holds the gzip member header fields that are written on compression.
type Header struct {
	ModTime time.Time // zero time is written as 0
	OS      byte
}

// Engine selects the DEFLATE encoder used by Gzip.Compress.
type Engine int

const (
	// DeflateCanonical emits one fixed-Huffman block with zlib-style lazy
	// matching. Output depends only on the input.
	DeflateCanonical Engine = iota
	// DeflateStandard uses klauspost/compress at its default level.
	DeflateStandard
)

func (e Engine) String() string {
	if e == DeflateStandard {
		return "standard"
	}
	return "canonical"
}

// ParseEngine parses "canonical" or "standard"; the empty string is canonical.
func ParseEngine(s string) (Engine, error) {
	switch s {
	case "", "canonical":
		return DeflateCanonical, nil
	case "standard":
		return DeflateStandard, nil
	}
	return 0, fmt.Errorf("deflate engine %q (want canonical or standard)", s)
}

// ErrModTime is returned when a header ModTime does not fit the 32-bit gzip
// mtime field.
var ErrModTime = errors.New("gzrecord: mtime outside gzip range")

// Gzip is the gzip ByteCompressor. The zero value writes mtime 0 and OS 0.
type Gzip struct {
	Header Header
	Engine Engine
}

var _ ByteCompressor = Gzip{}

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8
	headerLen   = 10
)

// Compress returns one gzip member containing p.
func (g Gzip) Compress(p []byte) ([]byte, error) {
	mtime, err := g.mtime()
	if err != nil {
		return nil, err
	}
	if g.Engine == DeflateStandard {
		return g.compressStandard(p, mtime)
	}
	out := make([]byte, headerLen, headerLen+len(p)+32)
	out[0], out[1], out[2] = gzipID1, gzipID2, gzipDeflate
	binary.LittleEndian.PutUint32(out[4:8], mtime)
	out[9] = g.Header.OS
	out = deflate.Encode(out, p)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(p))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(p)))
	return out, nil
}

func (g Gzip) compressStandard(p []byte, mtime uint32) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.DefaultCompression)
	if err != nil {
		return nil, err
	}
	zw.ModTime = time.Unix(int64(mtime), 0)
	zw.OS = g.Header.OS
	if _, err := zw.Write(p); err != nil {
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func (g Gzip) mtime() (uint32, error) {
	if g.Header.ModTime.IsZero() {
		return 0, nil
	}
	sec := g.Header.ModTime.Unix()
	if sec < 0 || sec > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %v", ErrModTime, g.Header.ModTime)
	}
	return uint32(sec), nil
}

// Decompress reads every concatenated member in p and returns the joined
// payload.
func (g Gzip) Decompress(p []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(p))
	if err != nil {
		return nil, streamIssues(err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, streamIssues(err)
	}
	return out, nil
}

// NewReader returns a reader that decompresses r incrementally. The header of
// the first member is read before NewReader returns; read errors are
// classified like Decompress.
func (g Gzip) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, streamIssues(err)
	}
	return &gzipReader{zr: zr}, nil
}

type gzipReader struct{ zr *gzip.Reader }

func (z *gzipReader) Read(p []byte) (int, error) {
	n, err := z.zr.Read(p)
	if err != nil && err != io.EOF {
		err = streamIssues(err)
	}
	return n, err
}

func (z *gzipReader) Close() error { return z.zr.Close() }

// Inspect parses the header of the first member in p without decompressing
// the body.
func Inspect(p []byte) (Header, error) {
	zr, err := gzip.NewReader(bytes.NewReader(p))
	if err != nil {
		return Header{}, streamIssues(err)
	}
	h := Header{OS: zr.OS}
	if zr.ModTime.Unix() != 0 {
		h.ModTime = zr.ModTime
	}
	return h, nil
}

// streamIssues maps gzip and flate failures onto container issues. Other
// errors, such as those of a caller-supplied reader, are returned unchanged.
func streamIssues(err error) error {
	if _, ok := AsIssues(err); ok {
		return err
	}
	var cie flate.CorruptInputError
	var ie flate.InternalError
	switch {
	case errors.Is(err, io.EOF):
		return AppendIssues(nil, Issue{Code: CodeTruncatedInput, Message: "empty input", Cause: err, Offset: 0})
	case errors.Is(err, io.ErrUnexpectedEOF):
		return AppendIssues(nil, Issue{Code: CodeTruncatedInput, Message: "unexpected end of gzip stream", Cause: err, Offset: -1})
	case errors.Is(err, gzip.ErrHeader):
		return AppendIssues(nil, Issue{Code: CodeInvalidHeader, Message: "invalid gzip header", Cause: err, Offset: -1})
	case errors.Is(err, gzip.ErrChecksum):
		return AppendIssues(nil, Issue{Code: CodeCorruptStream, Message: "checksum or size mismatch", Cause: err, Offset: -1})
	case errors.As(err, &cie):
		return AppendIssues(nil, Issue{Code: CodeCorruptStream, Message: "corrupt deflate data", Cause: err, Offset: int64(cie)})
	case errors.As(err, &ie):
		return AppendIssues(nil, Issue{Code: CodeCorruptStream, Message: string(ie), Cause: err, Offset: -1})
	}
	return err
}

// Compress compresses p with the default gzip settings (mtime 0, OS 3,
// canonical engine).
func Compress(p []byte) ([]byte, error) { return defaultGzip.Compress(p) }

// Decompress decompresses every gzip member in p.
func Decompress(p []byte) ([]byte, error) { return defaultGzip.Decompress(p) }

// NewReader returns an incremental gzip decompressor over r.
func NewReader(r io.Reader) (io.ReadCloser, error) { return defaultGzip.NewReader(r) }

var defaultGzip = Gzip{Header: Header{OS: OSUnix}}
