// Package hashmatch is the external LZ77 match-finding collaborator the
// deflate package's block encoder assumes: it owns the raw input buffer
// and decides where back-references pay off, then reports its decisions
// through the small Sink interface below instead of through any
// deflate-specific type.
package hashmatch

import (
	"github.com/cespare/xxhash/v2"

	"github.com/jonjohnsonjr/gzcore/deflate"
)

// Sink receives the literal/match decisions hashmatch makes.
// *deflate.Writer satisfies it; gzip.Writer passes its own *deflate.Writer
// here from Write.
type Sink interface {
	Literal(b byte) error
	Match(dist, length int) error
}

const (
	minMatch = 3
	maxMatch = 258
	maxDist  = deflate.MaxDist
	hashBits = 15
	hashSize = 1 << hashBits
	maxChain = 64 // bounded search depth; trades ratio for speed
)

func hash3(b []byte) uint32 {
	return uint32(xxhash.Sum64(b[:3])) & (hashSize - 1)
}

// Compress scans src for repeated runs and reports each byte to sink as
// either a literal or a (distance, length) match, the way gzip's own
// deflate_slow/deflate_fast would.
func Compress(src []byte, sink Sink) error {
	n := len(src)
	if n == 0 {
		return nil
	}

	head := make([]int32, hashSize)
	for i := range head {
		head[i] = -1
	}
	prev := make([]int32, n)

	insert := func(pos int) {
		if pos+minMatch > n {
			return
		}
		h := hash3(src[pos:])
		prev[pos] = head[h]
		head[h] = int32(pos)
	}

	longestMatch := func(pos int) (dist, length int) {
		if pos+minMatch > n {
			return 0, 0
		}
		h := hash3(src[pos:])
		candidate := head[h]
		limit := pos - maxDist
		if limit < 0 {
			limit = 0
		}

		bestLen := minMatch - 1
		bestDist := 0
		maxLen := n - pos
		if maxLen > maxMatch {
			maxLen = maxMatch
		}

		for tries := 0; candidate >= 0 && int(candidate) >= limit && tries < maxChain; tries++ {
			c := int(candidate)
			l := matchLen(src, c, pos, maxLen)
			if l > bestLen {
				bestLen = l
				bestDist = pos - c
				if l >= maxLen {
					break
				}
			}
			candidate = prev[c]
		}
		if bestLen < minMatch {
			return 0, 0
		}
		return bestDist, bestLen
	}

	for pos := 0; pos < n; {
		dist, length := longestMatch(pos)
		if length >= minMatch {
			if err := sink.Match(dist, length); err != nil {
				return err
			}
			end := pos + length
			for ; pos < end; pos++ {
				insert(pos)
			}
			continue
		}

		if err := sink.Literal(src[pos]); err != nil {
			return err
		}
		insert(pos)
		pos++
	}
	return nil
}

func matchLen(src []byte, a, b, max int) int {
	n := 0
	for n < max && src[a+n] == src[b+n] {
		n++
	}
	return n
}
