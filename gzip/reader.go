package gzip

import (
	"bufio"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"time"

	"github.com/jonjohnsonjr/gzcore/deflate"
)

// ErrHeader is returned when a gzip member's header or trailer is malformed.
var ErrHeader = errors.New("gzip: invalid header")

// ErrChecksum is returned when a member's trailing CRC32 or length doesn't
// match what was actually decompressed.
var ErrChecksum = errors.New("gzip: checksum mismatch")

// Reader decompresses a gzip stream (RFC 1952), transparently
// concatenating successive members the way gzip(1) does, until
// Multistream(false) is called.
type Reader struct {
	Header

	br          *bufio.Reader
	z           *deflate.Reader
	digest      uint32 // running crc32, updated via crc32.Update
	size        uint32
	multistream bool
	err         error
}

// NewReader parses the first member's header and returns a Reader ready to
// decompress its payload.
func NewReader(r io.Reader) (*Reader, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	z := &Reader{br: br, multistream: true}
	if err := z.nextMember(); err != nil {
		return nil, err
	}
	return z, nil
}

// Multistream controls whether Read keeps decoding successive concatenated
// gzip members (the default) or stops after the first member's trailer.
func (z *Reader) Multistream(ok bool) {
	z.multistream = ok
}

func (z *Reader) nextMember() error {
	var hdr [10]byte
	n, err := io.ReadFull(z.br, hdr[:])
	if n == 0 && err == io.EOF {
		return io.EOF
	}
	if err != nil {
		return ErrHeader
	}
	if hdr[0] != gzipID1 || hdr[1] != gzipID2 || hdr[2] != gzipDeflate {
		return ErrHeader
	}
	flg := hdr[3]
	mtime := binary.LittleEndian.Uint32(hdr[4:8])
	// hdr[8] is XFL, unused on decode.
	os := hdr[9]

	h := Header{OS: os}
	if mtime != 0 {
		h.ModTime = time.Unix(int64(mtime), 0)
	}

	if flg&flagExtra != 0 {
		var lenBuf [2]byte
		if _, err := io.ReadFull(z.br, lenBuf[:]); err != nil {
			return ErrHeader
		}
		extra := make([]byte, binary.LittleEndian.Uint16(lenBuf[:]))
		if _, err := io.ReadFull(z.br, extra); err != nil {
			return ErrHeader
		}
		h.Extra = extra
	}
	if flg&flagName != 0 {
		s, err := readCString(z.br)
		if err != nil {
			return err
		}
		h.Name = s
	}
	if flg&flagComment != 0 {
		s, err := readCString(z.br)
		if err != nil {
			return err
		}
		h.Comment = s
	}
	if flg&flagHDRCRC != 0 {
		var crcBuf [2]byte
		if _, err := io.ReadFull(z.br, crcBuf[:]); err != nil {
			return ErrHeader
		}
		// The header CRC is a minor-version/optional field; gzip itself
		// doesn't require decoders to validate it, only consume it.
	}

	z.Header = h
	z.digest = 0
	z.size = 0
	z.z = deflate.NewReader(z.br)
	return nil
}

func readCString(br *bufio.Reader) (string, error) {
	s, err := br.ReadString(0)
	if err != nil {
		return "", ErrHeader
	}
	return s[:len(s)-1], nil
}

func (z *Reader) Read(p []byte) (int, error) {
	for {
		if z.err != nil {
			return 0, z.err
		}
		n, err := z.z.Read(p)
		if n > 0 {
			z.digest = crc32.Update(z.digest, crc32.IEEETable, p[:n])
			z.size += uint32(n)
			return n, nil
		}
		if err != io.EOF {
			z.err = err
			return 0, err
		}

		if terr := z.finishMember(); terr != nil {
			z.err = terr
			return 0, terr
		}
		if !z.multistream {
			z.err = io.EOF
			return 0, io.EOF
		}
		if merr := z.nextMember(); merr != nil {
			z.err = merr
			return 0, merr
		}
	}
}

// finishMember reads and validates the 8-byte CRC32+ISIZE trailer that
// follows the member's deflate stream, starting with any bytes the bit
// reader had already pulled in past the stream's end. Those are fewer than
// the 8 trailer bytes, so afterwards the bufio.Reader sits exactly at the
// next member's header (or end of input).
func (z *Reader) finishMember() error {
	rest := z.z.Remainder()
	var trailer [8]byte
	if _, err := io.ReadFull(rest, trailer[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	wantCRC := binary.LittleEndian.Uint32(trailer[0:4])
	wantSize := binary.LittleEndian.Uint32(trailer[4:8])
	if wantCRC != z.digest || wantSize != z.size {
		return ErrChecksum
	}
	return nil
}

// Close is a no-op; Reader doesn't own the underlying io.Reader.
func (z *Reader) Close() error { return nil }
