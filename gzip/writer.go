package gzip

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/jonjohnsonjr/gzcore/deflate"
	"github.com/jonjohnsonjr/gzcore/internal/hashmatch"
)

// Writer compresses to gzip format (RFC 1952), writing a 10-byte header
// (plus any optional fields set on Header before the first Write), a
// deflate payload, and a CRC32+ISIZE trailer.
type Writer struct {
	Header

	w         io.Writer
	z         *deflate.Writer
	level     int
	digest    uint32
	size      uint32
	wroteHdr  bool
	headerErr error
	closed    bool
}

// NewWriter returns a Writer with DefaultCompression that writes to w.
func NewWriter(w io.Writer) *Writer {
	zw, _ := NewWriterLevel(w, deflate.DefaultCompression)
	return zw
}

// NewWriterLevel is like NewWriter but specifies the compression level
// instead of assuming DefaultCompression.
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	if level < deflate.DefaultCompression || level > deflate.BestCompression {
		return nil, ErrHeader
	}
	return &Writer{w: w, level: level}, nil
}

// Reset discards the Writer's state and starts writing a new gzip stream
// to w, with Header reset to its zero value.
func (z *Writer) Reset(w io.Writer) {
	z.Header = Header{}
	z.w = w
	z.z = nil
	z.digest = 0
	z.size = 0
	z.wroteHdr = false
	z.headerErr = nil
	z.closed = false
}

func (z *Writer) writeHeader() error {
	if z.wroteHdr {
		return z.headerErr
	}
	z.wroteHdr = true

	var flg byte
	if z.Name != "" {
		flg |= flagName
	}
	if z.Comment != "" {
		flg |= flagComment
	}
	if len(z.Extra) > 0 {
		flg |= flagExtra
	}

	var hdr [10]byte
	hdr[0], hdr[1], hdr[2] = gzipID1, gzipID2, gzipDeflate
	hdr[3] = flg
	if !z.ModTime.IsZero() && z.ModTime.Unix() > 0 {
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(z.ModTime.Unix()))
	}
	switch z.level {
	case deflate.BestCompression:
		hdr[8] = 2
	case deflate.BestSpeed:
		hdr[8] = 4
	}
	if z.OS != 0 {
		hdr[9] = z.OS
	} else {
		hdr[9] = osUnknown
	}

	if _, err := z.w.Write(hdr[:]); err != nil {
		z.headerErr = err
		return err
	}
	if len(z.Extra) > 0 {
		var lenBuf [2]byte
		binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(z.Extra)))
		if _, err := z.w.Write(lenBuf[:]); err != nil {
			z.headerErr = err
			return err
		}
		if _, err := z.w.Write(z.Extra); err != nil {
			z.headerErr = err
			return err
		}
	}
	if z.Name != "" {
		if err := writeCString(z.w, z.Name); err != nil {
			z.headerErr = err
			return err
		}
	}
	if z.Comment != "" {
		if err := writeCString(z.w, z.Comment); err != nil {
			z.headerErr = err
			return err
		}
	}

	z.z = deflate.NewWriter(z.w)
	return nil
}

func writeCString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// Write runs hashmatch's LZ77 search over p and feeds the resulting
// literal/match decisions to the deflate block encoder. Unlike
// compress/gzip, a single Write call is the unit of match-finding: pass
// the whole payload (or sizable chunks of it) rather than one byte at a
// time, or compression ratio suffers.
func (z *Writer) Write(p []byte) (int, error) {
	if err := z.writeHeader(); err != nil {
		return 0, err
	}
	z.digest = crc32.Update(z.digest, crc32.IEEETable, p)
	z.size += uint32(len(p))
	if err := hashmatch.Compress(p, z.z); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close flushes the final deflate block and writes the CRC32+ISIZE
// trailer. It does not close the underlying io.Writer.
func (z *Writer) Close() error {
	if z.closed {
		return nil
	}
	z.closed = true
	if err := z.writeHeader(); err != nil {
		return err
	}
	if err := z.z.Close(); err != nil {
		return err
	}
	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], z.digest)
	binary.LittleEndian.PutUint32(trailer[4:8], z.size)
	_, err := z.w.Write(trailer[:])
	return err
}
