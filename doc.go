// Package gzrecord converts a small record between its in-memory value, a
// canonical pretty-printed JSON text and a gzip container of that text.
//
// The package provides:
//
//   - Record with Default, Equal and Compare
//   - TextCodec (JSONCodec) for the canonical text form
//   - ByteCompressor (Gzip) for the container, including multi-member input
//   - Pipeline, which chains the two in both directions, in bulk or
//     incrementally from an io.Reader
//   - A stable error model via Issues (JSON Pointer, code, message) grouped
//     into kinds that errors.Is can match
//
// Layout: public API in the root package; JSON token drivers under source/;
// streaming enforcement and the deflate encoder under internal/; YAML
// configuration under config/; the CLI under cmd/gzrecord.
//
// Typical usage:
//
//	b, err := gzrecord.ToCompressedText(gzrecord.Record{MyNum: 7, MyStr: "x"})
//	rec, err := gzrecord.FromCompressedText(b)
//	rec, err = gzrecord.FromCompressedReader(f)
//	if errors.Is(err, gzrecord.ErrCorruptStream) { ... }
package gzrecord
