// Package deflate implements the DEFLATE compressed data format described
// in RFC 1951. It is the core of a gzip-compatible compressor/decompressor:
// building canonical Huffman tables, walking a bit stream, and reconstructing
// the LZ77 sliding window on the decode side; tallying literals and matches,
// building length-limited Huffman trees, and emitting fixed/dynamic blocks
// on the encode side. The decoder reads stored blocks; the encoder never
// emits them.
//
// This package knows nothing about gzip headers, trailers, or CRC32 — see
// the sibling gzip package for that framing.
package deflate

const (
	// WSIZE is the size of the sliding window. Distances never exceed it.
	WSIZE = 1 << 15

	minMatch = 3
	maxMatch = 258

	// MaxDist is the largest distance a match token may carry.
	MaxDist = WSIZE - maxMatch - minMatch - 1

	maxBits   = 15 // max bits in a literal/length or distance code
	maxBLBits = 7  // max bits in a bit-length tree code

	lengthCodesCount = 29
	literals         = 256
	endBlock         = 256
	lCodes           = literals + 1 + lengthCodesCount // 286
	dCodes           = 30
	blCodes          = 19

	repCode3_6    = 16 // repeat previous length 3-6 times
	repCodeZ3_10  = 17 // repeat zero length 3-10 times
	repCodeZ11_138 = 18 // repeat zero length 11-138 times

	// heapSize is L_CODES*2+1, the node count of a full literal/length
	// tree. buildHuffmanTree does not use it; it sizes its node slices
	// from the frequency array it is given.
	heapSize = 2*lCodes + 1
)

// Compression levels, mirroring the convention compress/flate (and every
// descendant of it, including the teacher's own fork) exposes.
const (
	NoCompression      = 0
	BestSpeed          = 1
	BestCompression    = 9
	DefaultCompression = -1
)

// extraLBits is the number of extra bits carried after each length code.
var extraLBits = [lengthCodesCount]int{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// extraDBits is the number of extra bits carried after each distance code.
var extraDBits = [dCodes]int{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// extraBLBits is the number of extra bits carried after each bit-length
// meta-code.
var extraBLBits = [blCodes]int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 2, 3, 7}

// baseLength and baseDist are encoder-only bookkeeping tables, in the same
// space as the encoder's own tally values: baseLength[code] is the
// smallest (length - MIN_MATCH) value the length code represents, and
// baseDist[code] the smallest (distance - 1) value, since the encoder
// tallies lc already offset by MIN_MATCH and dist already decremented by
// one (tally.go). Decoding needs actual length/distance values instead —
// see lengthBase/distBase below — so these two must never be handed to
// buildDecodeTable.
var baseLength = [lengthCodesCount]int{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 12, 14, 16, 20, 24, 28,
	32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 0,
}

var baseDist = [dCodes]int{
	0, 1, 2, 3, 4, 6, 8, 12, 16, 24, 32, 48, 64, 96, 128, 192,
	256, 384, 512, 768, 1024, 1536, 2048, 3072, 4096, 6144, 8192, 12288, 16384, 24576,
}

// lengthBase and distBase are the decoder's actual-value length/distance
// bases (RFC 1951 §3.2.5's cplens/cpdist): lengthBase[code] is the smallest
// match length (3..258) the code represents, distBase[code] the smallest
// distance (1..24577). These are deliberately kept separate from
// baseLength/baseDist above, which the encoder uses in
// length-minus-MIN_MATCH / distance-minus-1 space for its own tally
// bookkeeping — zlib keeps the same split between trees.h's base_length
// and inftrees.c's lbase/dbase rather than reusing one table for both
// directions. lengthBase also can't be baseLength+3 uniformly: code 285
// (length 258) carries no extra bits and baseLength stores 0 for it as a
// trees.c convention, so it needs its true value spelled out here.
var lengthBase = [lengthCodesCount]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

var distBase = [dCodes]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577,
}

// blOrder is the order in which bit-length tree code lengths are
// transmitted in a dynamic block header (RFC 1951 §3.2.7).
var blOrder = [blCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthCode maps (match length - MIN_MATCH) in [0, maxMatch-minMatch] to a
// length code index in [0, lengthCodesCount). distCode maps a distance-1
// value to a distance code index; distances above 256 are looked up by
// their top byte. Both are generated once at init, the way zlib's
// tr_static_init builds the same tables at process start instead of
// shipping them as literals.
var (
	lengthCode [maxMatch - minMatch + 1]uint8
	distCode   [512]uint8
)

func init() {
	length := 0
	for code := 0; code < lengthCodesCount-1; code++ {
		for n := 0; n < (1 << extraLBits[code]); n++ {
			lengthCode[length] = uint8(code)
			length++
		}
	}
	// The last length code (258-MIN_MATCH = 255) is reached with one fewer
	// step than its extra-bit count implies; zlib special-cases it the
	// same way.
	lengthCode[length-1] = lengthCodesCount - 1

	dist := 0
	for code := 0; code < 16; code++ {
		for n := 0; n < (1 << extraDBits[code]); n++ {
			distCode[dist] = uint8(code)
			dist++
		}
	}
	dist >>= 7
	for code := 16; code < dCodes; code++ {
		for n := 0; n < (1 << (extraDBits[code] - 7)); n++ {
			distCode[256+dist] = uint8(code)
			dist++
		}
	}
}

// dCode returns the distance code for a match distance minus one (the
// 0-based value distCode is indexed by).
func dCode(dist int) int {
	if dist < 256 {
		return int(distCode[dist])
	}
	return int(distCode[256+(dist>>7)])
}
