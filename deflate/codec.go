package deflate

import (
	"fmt"
	"io"
)

// NewWriterLevel validates level and returns a Writer. Neither the block
// encoder (spec.md §4.F) nor the match finder in internal/hashmatch varies
// with level, so the returned Writer is the same for every valid level;
// the codec's public constructor still validates it here, matching where
// compress/flate rejects bad levels.
func NewWriterLevel(w io.Writer, level int) (*Writer, error) {
	if level < DefaultCompression || level > BestCompression {
		return nil, fmt.Errorf("deflate: invalid compression level %d", level)
	}
	return NewWriter(w), nil
}

// Reset discards any in-flight block state and starts writing a fresh
// DEFLATE stream to w, so a single Writer can be reused across gzip
// members without reallocating its tally buffers.
func (w *Writer) Reset(dst io.Writer) {
	*w = *NewWriter(dst)
}
