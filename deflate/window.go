package deflate

// window is the 2*WSIZE ring buffer spec.md §3/§4.B describes: two WSIZE
// halves that ping-pong. Bytes are appended at the current half's write
// pointer w; once w reaches WSIZE that half is handed to the sink and the
// other half becomes current. Because the previous half is left untouched
// until it is itself about to be overwritten, a match distance of up to
// WSIZE can always be satisfied by indexing into whichever half holds it,
// with no explicit wraparound bookkeeping beyond "which half".
type window struct {
	buf  [2 * WSIZE]byte
	w    int // write position within the current half, [0, WSIZE)
	half int // base offset (0 or WSIZE) of the half currently being written

	sink func([]byte) error
}

func newWindow(sink func([]byte) error) *window {
	return &window{sink: sink}
}

func (win *window) rollHalf() error {
	if err := win.sink(win.buf[win.half : win.half+WSIZE]); err != nil {
		return err
	}
	win.half = WSIZE - win.half
	win.w = 0
	return nil
}

// output writes a single decoded byte, flushing the window to the sink
// whenever it fills.
func (win *window) output(b byte) error {
	win.buf[win.half+win.w] = b
	win.w++
	if win.w == WSIZE {
		return win.rollHalf()
	}
	return nil
}

// copyMatch replicates a (distance, length) back-reference into the
// window. distance must be in [1, WSIZE]. Runs that could self-overlap
// (distance < length, as used for RLE encoding) are copied byte by byte;
// everything else is a bulk copy.
func (win *window) copyMatch(dist, length int) error {
	if dist <= 0 || dist > WSIZE {
		return corrupt(0, InvalidDistance)
	}

	for length > 0 {
		d := (win.w - dist) & (WSIZE - 1)
		base := win.half
		if d >= win.w {
			base = WSIZE - win.half
		}

		n := length
		if room := WSIZE - win.w; n > room {
			n = room
		}
		if d+n > WSIZE {
			n = WSIZE - d
		}

		if dist < n {
			for i := 0; i < n; i++ {
				win.buf[win.half+win.w] = win.buf[base+d]
				win.w++
				d++
			}
		} else {
			copy(win.buf[win.half+win.w:win.half+win.w+n], win.buf[base+d:base+d+n])
			win.w += n
		}
		length -= n

		if win.w == WSIZE {
			if err := win.rollHalf(); err != nil {
				return err
			}
		}
	}
	return nil
}

// flush hands any buffered-but-unflushed bytes to the sink. Called once at
// end of stream.
func (win *window) flush() error {
	if win.w == 0 {
		return nil
	}
	if err := win.sink(win.buf[win.half : win.half+win.w]); err != nil {
		return err
	}
	win.w = 0
	return nil
}
