// Package deflate implements a deterministic DEFLATE (RFC 1951) encoder.
//
// The whole input is emitted as one final block using the fixed Huffman
// code. Matches are chosen with the same hash chains and lazy evaluation as
// zlib at its default level (good=8, lazy=16, nice=128, chain=128), so short
// payloads, for which zlib itself picks the fixed code, encode to identical
// bytes. Output depends only on the input.
package deflate

import "math/bits"

const (
	windowSize   = 1 << 15
	minMatch     = 3
	maxMatch     = 258
	minLookahead = maxMatch + minMatch + 1
	maxDist      = windowSize - minLookahead
	tooFar       = 4096

	hashBits = 15
	hashSize = 1 << hashBits
	hashMask = hashSize - 1

	goodLength = 8
	maxLazy    = 16
	niceLength = 128
	maxChain   = 128

	endBlock = 256
)

var (
	lengthBase  = [...]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
	lengthExtra = [...]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
	distBase    = [...]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
	distExtra   = [...]uint{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
)

// Encode appends the DEFLATE encoding of src to dst and returns the extended
// slice.
func Encode(dst, src []byte) []byte {
	w := bitWriter{out: dst}
	w.writeBits(1, 1) // BFINAL
	w.writeBits(1, 2) // BTYPE = fixed Huffman
	newMatcher(src).encode(&w)
	w.writeSymbol(endBlock)
	return w.flush()
}

type matcher struct {
	src  []byte
	head []int32
	prev []int32
}

func newMatcher(src []byte) *matcher {
	m := &matcher{
		src:  src,
		head: make([]int32, hashSize),
		prev: make([]int32, len(src)),
	}
	for i := range m.head {
		m.head[i] = -1
	}
	return m
}

// insert links position p into its hash chain and returns the previous head
// of that chain, or -1 when fewer than minMatch bytes remain.
func (m *matcher) insert(p int) int {
	if p+minMatch > len(m.src) {
		return -1
	}
	h := (int(m.src[p])<<10 ^ int(m.src[p+1])<<5 ^ int(m.src[p+2])) & hashMask
	cand := int(m.head[h])
	m.prev[p] = int32(cand)
	m.head[h] = int32(p)
	return cand
}

// longest walks the chain from cand looking for a match longer than prevLen.
// It returns the best length, never below prevLen but clamped to the
// remaining input, and the start of the match it found or -1.
//
// Position 0 is never a candidate, as in zlib where it doubles as the
// empty-chain marker.
func (m *matcher) longest(p, cand, prevLen int) (int, int) {
	remaining := len(m.src) - p
	best, bestPos := prevLen, -1
	chain := maxChain
	if prevLen >= goodLength {
		chain >>= 2
	}
	limit := max(p-maxDist, 0)
	maxLen := min(maxMatch, remaining)
	nice := min(niceLength, remaining)
	for cand > limit && chain > 0 {
		n := 0
		for n < maxLen && m.src[cand+n] == m.src[p+n] {
			n++
		}
		if n > best {
			best, bestPos = n, cand
			if n >= nice {
				break
			}
		}
		cand = int(m.prev[cand])
		chain--
	}
	return min(best, remaining), bestPos
}

// encode runs lazy match selection: a match found at p is only emitted once
// the match starting at p+1 turns out to be no longer.
func (m *matcher) encode(w *bitWriter) {
	n := len(m.src)
	matchLen, matchPos := minMatch-1, -1
	pending := false
	for p := 0; p < n; {
		cand := m.insert(p)
		prevLen, prevPos := matchLen, matchPos
		matchLen = minMatch - 1
		if cand > 0 && prevLen < maxLazy && p-cand <= maxDist {
			var pos int
			matchLen, pos = m.longest(p, cand, prevLen)
			if pos >= 0 {
				matchPos = pos
			}
			if matchLen == minMatch && p-matchPos > tooFar {
				matchLen = minMatch - 1
			}
		}

		if prevLen >= minMatch && matchLen <= prevLen {
			w.writeMatch(prevLen, p-1-prevPos)
			end := p - 1 + prevLen
			for q := p + 1; q < end; q++ {
				m.insert(q)
			}
			p = end
			pending = false
			matchLen = minMatch - 1
			continue
		}

		if pending {
			w.writeLiteral(m.src[p-1])
		}
		pending = true
		p++
	}
	if pending {
		w.writeLiteral(m.src[n-1])
	}
}

// bitWriter packs values least-significant bit first.
type bitWriter struct {
	out   []byte
	acc   uint64
	nbits uint
}

func (w *bitWriter) writeBits(v uint32, n uint) {
	w.acc |= uint64(v) << w.nbits
	w.nbits += n
	for w.nbits >= 8 {
		w.out = append(w.out, byte(w.acc))
		w.acc >>= 8
		w.nbits -= 8
	}
}

// writeCode writes a Huffman code, which DEFLATE packs most-significant bit
// first.
func (w *bitWriter) writeCode(code uint32, n uint) {
	w.writeBits(bits.Reverse32(code)>>(32-n), n)
}

func (w *bitWriter) writeLiteral(b byte) { w.writeSymbol(int(b)) }

// writeSymbol writes a literal/length symbol with the fixed code of
// RFC 1951 section 3.2.6.
func (w *bitWriter) writeSymbol(sym int) {
	switch {
	case sym < 144:
		w.writeCode(uint32(0x30+sym), 8)
	case sym < 256:
		w.writeCode(uint32(0x190+sym-144), 9)
	case sym < 280:
		w.writeCode(uint32(sym-256), 7)
	default:
		w.writeCode(uint32(0xc0+sym-280), 8)
	}
}

func (w *bitWriter) writeMatch(length, dist int) {
	lc := len(lengthBase) - 1
	for lengthBase[lc] > length {
		lc--
	}
	w.writeSymbol(257 + lc)
	w.writeBits(uint32(length-lengthBase[lc]), lengthExtra[lc])

	dc := len(distBase) - 1
	for distBase[dc] > dist {
		dc--
	}
	w.writeCode(uint32(dc), 5)
	w.writeBits(uint32(dist-distBase[dc]), distExtra[dc])
}

func (w *bitWriter) flush() []byte {
	if w.nbits > 0 {
		w.out = append(w.out, byte(w.acc))
		w.acc, w.nbits = 0, 0
	}
	return w.out
}
