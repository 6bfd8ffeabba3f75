package deflate

import (
	"bufio"
	"io"
)

// Writer is the Block Encoder of spec.md §4.F: it accepts an already
// LZ77-decided stream of literals and (distance, length) matches — the
// match search itself is an external collaborator's job, see
// internal/hashmatch — and turns it into DEFLATE blocks.
type Writer struct {
	bw  *bitWriter
	out *bufio.Writer

	litFreq  [lCodes]int
	distFreq [dCodes]int

	lBuf    [litBufSize]byte
	dBuf    [litBufSize]uint16
	lastLit int

	wroteAny bool
	err      error
}

// NewWriter returns a Writer that emits a raw DEFLATE stream to w.
func NewWriter(w io.Writer) *Writer {
	out := bufio.NewWriter(w)
	wr := &Writer{out: out}
	wr.bw = newBitWriter(out)
	wr.resetTrees()
	return wr
}

func (w *Writer) resetTrees() {
	for i := range w.litFreq {
		w.litFreq[i] = 0
	}
	for i := range w.distFreq {
		w.distFreq[i] = 0
	}
	w.lastLit = 0
}

// Literal tallies a single uncompressed byte.
func (w *Writer) Literal(b byte) error {
	if w.err != nil {
		return w.err
	}
	if w.tally(0, int(b)) {
		w.err = w.flushBlock(false)
	}
	return w.err
}

// Match tallies a back-reference: length bytes copied from dist bytes
// behind the current position. length must be in [minMatch, maxMatch];
// dist must be in [1, MaxDist].
func (w *Writer) Match(dist, length int) error {
	if w.err != nil {
		return w.err
	}
	if w.tally(dist, length-minMatch) {
		w.err = w.flushBlock(false)
	}
	return w.err
}

// Close flushes the final block (marking it BFINAL) and the underlying
// bit and byte writers.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if err := w.flushBlock(true); err != nil {
		w.err = err
		return err
	}
	if err := w.bw.Flush(); err != nil {
		w.err = err
		return err
	}
	return w.out.Flush()
}

// flushBlock implements spec.md §4.F's flushBlock: build the dynamic
// trees, compare their cost against the static tree and pick whichever is
// cheaper, emit the chosen block header, then the symbol stream.
func (w *Writer) flushBlock(eof bool) error {
	w.litFreq[endBlock] = 1 // the end-of-block symbol appears exactly once

	litExtra := make([]int, lCodes)
	for i := 0; i < lengthCodesCount; i++ {
		litExtra[literals+1+i] = extraLBits[i]
	}
	litResult := buildHuffmanTree(w.litFreq[:], litExtra, fixedLitLens[:], maxBits)
	distResult := buildHuffmanTree(w.distFreq[:], extraDBits[:], fixedDistLens[:], maxBits)

	maxLCode := litResult.maxCode
	if maxLCode < endBlock {
		maxLCode = endBlock
	}
	maxDCode := distResult.maxCode
	if maxDCode < 0 {
		maxDCode = 0
	}

	blFreq, rle := buildBLSequence(litResult.lens[:maxLCode+1], distResult.lens[:maxDCode+1])
	blResult := buildHuffmanTree(blFreq[:], nil, nil, maxBLBits)

	hclen := blCodes
	for hclen > 4 && blResult.lens[blOrder[hclen-1]] == 0 {
		hclen--
	}

	dynBits := int64(5+5+4) + int64(hclen)*3 + treeHeaderBits(rle, blResult.lens[:]) +
		litResult.optLen + distResult.optLen
	staticBits := litResult.staticLen + distResult.staticLen

	bfinal := uint32(0)
	if eof {
		bfinal = 1
	}

	switch {
	case dynBits < staticBits:
		w.bw.sendBits(bfinal|(btypeDynamic<<1), 3)
		w.emitDynamicHeader(maxLCode, maxDCode, hclen, rle, blResult.lens[:], blResult.codes)
		w.compressBlock(litResult.codes, litResult.lens, distResult.codes, distResult.lens)
	default:
		w.bw.sendBits(bfinal|(btypeFixed<<1), 3)
		w.compressBlock(fixedLitCodes[:], fixedLitLens[:], fixedDistCodes[:], fixedDistLens[:])
	}

	w.resetTrees()
	w.wroteAny = true
	return w.bw.err
}

// blSeqOp is one step of the run-length-encoded code-length sequence fed
// to the bit-length tree, mirroring RFC 1951 §3.2.7's three repeat codes.
type blSeqOp struct {
	sym   int // 0..18: a literal code length, or one of repCode3_6/repCodeZ3_10/repCodeZ11_138
	extra int // the repeat count's extra-bits value, meaningful only for repeat ops
}

// buildBLSequence implements spec.md §4.D's run-length pass over the
// concatenated literal/length and distance code-length arrays, producing
// both the bl_tree frequency table and the sequence of ops to emit.
func buildBLSequence(litLens, distLens []int) ([blCodes]int, []blSeqOp) {
	var freq [blCodes]int
	var ops []blSeqOp

	all := make([]int, 0, len(litLens)+len(distLens))
	all = append(all, litLens...)
	all = append(all, distLens...)

	i := 0
	for i < len(all) {
		l := all[i]
		run := 1
		for i+run < len(all) && all[i+run] == l {
			run++
		}
		i += run

		if l == 0 {
			for run > 0 {
				switch {
				case run < 3:
					freq[0]++
					ops = append(ops, blSeqOp{sym: 0})
					run--
				case run <= 10:
					freq[repCodeZ3_10]++
					ops = append(ops, blSeqOp{sym: repCodeZ3_10, extra: run - 3})
					run = 0
				default:
					n := run
					if n > 138 {
						n = 138
					}
					freq[repCodeZ11_138]++
					ops = append(ops, blSeqOp{sym: repCodeZ11_138, extra: n - 11})
					run -= n
				}
			}
			continue
		}

		freq[l]++
		ops = append(ops, blSeqOp{sym: l})
		run--
		for run > 0 {
			switch {
			case run < 3:
				freq[l]++
				ops = append(ops, blSeqOp{sym: l})
				run--
			default:
				n := run
				if n > 6 {
					n = 6
				}
				freq[repCode3_6]++
				ops = append(ops, blSeqOp{sym: repCode3_6, extra: n - 3})
				run -= n
			}
		}
	}

	return freq, ops
}

func treeHeaderBits(ops []blSeqOp, blLens []int) int64 {
	var bits int64
	for _, op := range ops {
		bits += int64(blLens[op.sym])
		switch op.sym {
		case repCode3_6:
			bits += 2
		case repCodeZ3_10:
			bits += 3
		case repCodeZ11_138:
			bits += 7
		}
	}
	return bits
}

func (w *Writer) emitDynamicHeader(maxLCode, maxDCode, hclen int, ops []blSeqOp, blLens []int, blCodesArr []int) {
	w.bw.sendBits(uint32(maxLCode+1-257), 5)
	w.bw.sendBits(uint32(maxDCode+1-1), 5)
	w.bw.sendBits(uint32(hclen-4), 4)
	for i := 0; i < hclen; i++ {
		w.bw.sendBits(uint32(blLens[blOrder[i]]), 3)
	}
	for _, op := range ops {
		w.bw.sendBits(uint32(blCodesArr[op.sym]), uint(blLens[op.sym]))
		switch op.sym {
		case repCode3_6:
			w.bw.sendBits(uint32(op.extra), 2)
		case repCodeZ3_10:
			w.bw.sendBits(uint32(op.extra), 3)
		case repCodeZ11_138:
			w.bw.sendBits(uint32(op.extra), 7)
		}
	}
}

// compressBlock implements spec.md §4.F's compressBlock: walk the tally
// buffers in lockstep, emitting a literal code or a length code followed
// by extra bits and a distance code followed by extra bits.
func (w *Writer) compressBlock(litCodes []int, litLens []int, distCodes []int, distLens []int) {
	for i := 0; i < w.lastLit; i++ {
		dist := int(w.dBuf[i])
		lc := int(w.lBuf[i])

		if dist == 0 {
			w.bw.sendBits(uint32(litCodes[lc]), uint(litLens[lc]))
			continue
		}

		code := literals + 1 + int(lengthCode[lc])
		w.bw.sendBits(uint32(litCodes[code]), uint(litLens[code]))
		lx := code - literals - 1
		if n := extraLBits[lx]; n > 0 {
			w.bw.sendBits(uint32(lc-baseLength[lx]), uint(n))
		}

		dist--
		dc := dCode(dist)
		w.bw.sendBits(uint32(distCodes[dc]), uint(distLens[dc]))
		if n := extraDBits[dc]; n > 0 {
			w.bw.sendBits(uint32(dist-baseDist[dc]), uint(n))
		}
	}

	eob := endBlock
	w.bw.sendBits(uint32(litCodes[eob]), uint(litLens[eob]))
}
