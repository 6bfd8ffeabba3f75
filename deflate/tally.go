package deflate

// litBufSize bounds how many literal/match records a single block may
// accumulate before tally forces an early flush. Classic gzip derives this
// from the configured memory level; this package fixes it at a level
// comparable to gzip's default (memLevel 8).
const litBufSize = 1 << 14

// tally records one symbol (a literal byte when dist == 0, otherwise a
// length/distance match with dist the actual match distance and lc the
// match length minus minMatch; dist is stored as given and decremented by
// one only to look up its distance code) into the pending block and bumps the
// relevant frequency tables. It reports whether the block is full enough
// that the caller should flush now.
//
// The early-flush threshold (three quarters full, rather than waiting for
// litBufSize-1) mirrors the rationale classic gzip gives for it: flushing
// a little before the hard limit leaves headroom for the worst case where
// the next single symbol would otherwise overflow the buffer mid-match.
func (w *Writer) tally(dist int, lc int) bool {
	w.dBuf[w.lastLit] = uint16(dist)
	w.lBuf[w.lastLit] = byte(lc)
	w.lastLit++

	if dist == 0 {
		w.litFreq[lc]++
	} else {
		w.litFreq[literals+1+int(lengthCode[lc])]++
		w.distFreq[dCode(dist-1)]++
	}

	if w.lastLit == litBufSize-1 {
		return true
	}
	return w.lastLit >= (litBufSize*3)/4
}
