package deflate

import (
	"bufio"
	"bytes"
	"io"
)

const (
	btypeStored  = 0
	btypeFixed   = 1
	btypeDynamic = 2
)

// Reader decompresses a raw DEFLATE stream (RFC 1951, no gzip framing).
// It implements spec.md §4.E/§4.G: block-by-block decode into a sliding
// window, drained through the ordinary io.Reader contract.
type Reader struct {
	br      *bitReader
	win     *window
	pending bytes.Buffer

	bfinalSeen bool
	err        error
}

// NewReader returns a Reader that reads a raw DEFLATE stream from r.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	d := &Reader{}
	d.br = newBitReader(br)
	d.win = newWindow(func(b []byte) error {
		d.pending.Write(b)
		return nil
	})
	return d
}

func (d *Reader) Read(p []byte) (int, error) {
	for d.pending.Len() == 0 && d.err == nil {
		d.decodeBlock()
	}
	if d.pending.Len() > 0 {
		return d.pending.Read(p)
	}
	return 0, d.err
}

// decodeBlock processes exactly one DEFLATE block, buffering its output in
// d.pending and setting d.err (to io.EOF on a clean finish, or a
// *CorruptInputError otherwise) when there is nothing more to decode.
func (d *Reader) decodeBlock() {
	if d.bfinalSeen {
		if err := d.win.flush(); err != nil {
			d.err = err
			return
		}
		d.err = io.EOF
		return
	}

	bfinal, err := d.br.readBits(1)
	if err != nil {
		d.err = err
		return
	}
	btype, err := d.br.readBits(2)
	if err != nil {
		d.err = err
		return
	}
	if bfinal == 1 {
		d.bfinalSeen = true
	}

	switch btype {
	case btypeStored:
		err = d.decodeStored()
	case btypeFixed:
		err = d.decodeSymbols(fixedLitDecode, fixedDistDecode)
	case btypeDynamic:
		err = d.decodeDynamic()
	default:
		err = corrupt(d.br.offset, InvalidBlockType)
	}
	if err != nil {
		d.err = err
		return
	}

	if d.bfinalSeen {
		if ferr := d.win.flush(); ferr != nil {
			d.err = ferr
			return
		}
		d.err = io.EOF
	}
}

func (d *Reader) decodeStored() error {
	d.br.alignByte()
	var hdr [4]byte
	if err := d.br.readAlignedBytes(hdr[:]); err != nil {
		return err
	}
	length := int(hdr[0]) | int(hdr[1])<<8
	nlength := int(hdr[2]) | int(hdr[3])<<8
	if nlength != (^length & 0xffff) {
		return corrupt(d.br.offset, StoredLengthMismatch)
	}
	buf := make([]byte, length)
	if err := d.br.readAlignedBytes(buf); err != nil {
		return err
	}
	for _, b := range buf {
		if err := d.win.output(b); err != nil {
			return err
		}
	}
	return nil
}

func (d *Reader) decodeDynamic() error {
	hlit, err := d.br.readBits(5)
	if err != nil {
		return err
	}
	hdist, err := d.br.readBits(5)
	if err != nil {
		return err
	}
	hclen, err := d.br.readBits(4)
	if err != nil {
		return err
	}
	nlit := int(hlit) + 257
	ndist := int(hdist) + 1
	nclen := int(hclen) + 4

	if nlit > lCodes || ndist > dCodes {
		return corrupt(d.br.offset, InvalidHlitHdist)
	}

	var blLens [blCodes]int
	for i := 0; i < nclen; i++ {
		v, err := d.br.readBits(3)
		if err != nil {
			return err
		}
		blLens[blOrder[i]] = int(v)
	}
	blTable, err := buildDecodeTable(blLens[:], blCodes, nil, nil, maxBLBits)
	if err != nil && err != errIncompleteCode {
		return err
	}

	total := nlit + ndist
	lens := make([]int, total)
	for i := 0; i < total; {
		d.br.fill(uint(maxBLBits))
		e, consumed := blTable.lookup(d.br.peekBits(uint(maxBLBits)))
		if consumed > d.br.nb {
			return corrupt(d.br.offset, UnexpectedEOF)
		}
		d.br.dumpBits(consumed)
		if e.extra == invalidCode {
			return corrupt(d.br.offset, InvalidCode)
		}
		sym := int(e.val)

		switch sym {
		case repCode3_6, repCodeZ3_10, repCodeZ11_138:
			var extraBits uint
			var base, prev int
			switch sym {
			case repCode3_6:
				extraBits, base = 2, 3
				if i == 0 {
					return corrupt(d.br.offset, InvalidCode)
				}
				prev = lens[i-1]
			case repCodeZ3_10:
				extraBits, base = 3, 3
			case repCodeZ11_138:
				extraBits, base = 7, 11
			}
			n, err := d.br.readBits(extraBits)
			if err != nil {
				return err
			}
			repeat := base + int(n)
			if i+repeat > total {
				return corrupt(d.br.offset, InvalidHlitHdist)
			}
			for j := 0; j < repeat; j++ {
				lens[i] = prev
				i++
			}
		default:
			lens[i] = sym
			i++
		}
	}

	litLens := lens[:nlit]
	distLens := lens[nlit:]

	litTable, err := buildDecodeTable(litLens, literals+1, lengthBase[:], extraLBits[:], 9)
	if err != nil && err != errIncompleteCode {
		return err
	}
	distTable, err := buildDecodeTable(distLens, 0, distBase[:], extraDBits[:], 6)
	if err != nil && err != errIncompleteCode {
		return err
	}

	return d.decodeSymbols(litTable, distTable)
}

// decodeSymbols runs the literal/length/distance loop common to fixed and
// dynamic blocks until it hits end-of-block.
func (d *Reader) decodeSymbols(lit, dist *decodeTable) error {
	for {
		d.br.fill(maxBits)
		e, consumed := lit.lookup(d.br.peekBits(maxBits))
		if consumed > d.br.nb {
			return corrupt(d.br.offset, UnexpectedEOF)
		}
		d.br.dumpBits(consumed)

		switch {
		case e.extra == invalidCode:
			return corrupt(d.br.offset, InvalidCode)
		case e.extra == 15: // end of block
			return nil
		case e.extra == 16: // literal byte
			if err := d.win.output(byte(e.val)); err != nil {
				return err
			}
		default: // length code
			length := int(e.val)
			if e.extra > 0 {
				x, err := d.br.readBits(uint(e.extra))
				if err != nil {
					return err
				}
				length += int(x)
			}

			d.br.fill(maxBits)
			de, dconsumed := dist.lookup(d.br.peekBits(maxBits))
			if dconsumed > d.br.nb {
				return corrupt(d.br.offset, UnexpectedEOF)
			}
			d.br.dumpBits(dconsumed)
			if de.extra == invalidCode {
				return corrupt(d.br.offset, InvalidDistance)
			}
			distance := int(de.val)
			if de.extra > 0 {
				x, err := d.br.readBits(uint(de.extra))
				if err != nil {
					return err
				}
				distance += int(x)
			}
			if err := d.win.copyMatch(distance, length); err != nil {
				return err
			}
		}
	}
}

// Remainder pushes back any over-read bytes and returns a reader
// positioned exactly at the end of the DEFLATE stream, for a caller (the
// gzip trailer, or the next concatenated member) to continue from. Valid
// only once Read has returned io.EOF.
func (d *Reader) Remainder() io.Reader {
	return d.br.finishStream()
}
