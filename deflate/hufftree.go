package deflate

import "slices"

// treeBuildResult is the output of buildHuffmanTree: per-symbol bit
// lengths and canonical codes, plus the compressed-size accounting spec.md
// §3/§4.D track alongside the tree itself.
type treeBuildResult struct {
	lens    []int
	codes   []int
	maxCode int // highest symbol index with freq != 0, including symbols synthesized in step 1
	optLen  int64
	// staticLen is only meaningful when staticLens was supplied.
	staticLen int64
}

// buildHuffmanTree implements spec.md §4.D: build a length-limited
// canonical Huffman code for the given per-symbol frequencies.
//
//   - extraBits[sym] (optional, nil for none) is the number of extra bits a
//     symbol carries on the wire, e.g. length/distance extra bits; this
//     only affects the opt_len/static_len accounting, not the tree shape.
//   - staticLens (optional, nil for none) is the fixed code length table
//     to compare against when computing static_len (flushBlock passes
//     fixedLitLens for the literal tree and fixedDistLens, all 5 bits, for
//     the distance tree).
//   - maxLength is the hard cap on assigned code length (15 for the
//     literal/length and distance trees, 7 for the bit-length tree).
func buildHuffmanTree(freq []int, extraBits []int, staticLens []int, maxLength int) treeBuildResult {
	elems := len(freq)
	freq = append([]int(nil), freq...) // we may synthesize frequencies below; don't mutate the caller's slice

	type node struct {
		freq, depth int
	}

	nodes := make([]node, 0, 2*elems)
	dad := make([]int, 0, 2*elems)
	leafSymbol := make(map[int]int, elems) // tree-node index -> symbol, leaves only

	addNode := func(f, d int) int {
		idx := len(nodes)
		nodes = append(nodes, node{freq: f, depth: d})
		dad = append(dad, -1)
		return idx
	}

	maxCode := -1
	nonZero := 0
	for sym, f := range freq {
		if f != 0 {
			nonZero++
			maxCode = sym
		}
	}

	// Step 1: a tree needs at least two leaves. If fewer than two symbols
	// carry a non-zero frequency, bump the two lowest-indexed symbols so a
	// valid tree can still be built; the fictitious frequency this
	// introduces is backed out of opt_len below.
	var fictitious int
	for _, sym := range []int{0, 1} {
		if nonZero >= 2 {
			break
		}
		if sym >= elems || freq[sym] != 0 {
			continue
		}
		freq[sym] = 1
		fictitious++
		nonZero++
		if sym > maxCode {
			maxCode = sym
		}
	}

	live := make([]int, 0, elems)
	for sym, f := range freq {
		if f == 0 {
			continue
		}
		idx := addNode(f, 0)
		leafSymbol[idx] = sym
		live = append(live, idx)
	}

	popSmallest := func() int {
		best := 0
		for i := 1; i < len(live); i++ {
			a, b := nodes[live[i]], nodes[live[best]]
			if a.freq < b.freq || (a.freq == b.freq && a.depth < b.depth) {
				best = i
			}
		}
		idx := live[best]
		live = append(live[:best], live[best+1:]...)
		return idx
	}

	// Step 2: repeatedly combine the two lightest live nodes until one
	// remains. Internal nodes are created in strictly increasing index
	// order as the merge proceeds, so a node's dad always has a larger
	// index than the node itself.
	root := -1
	if len(live) == 1 {
		root = live[0]
	}
	for len(live) >= 2 {
		n := popSmallest()
		m := popSmallest()
		k := addNode(nodes[n].freq+nodes[m].freq, max(nodes[n].depth, nodes[m].depth)+1)
		dad[n] = k
		dad[m] = k
		live = append(live, k)
		root = k
	}

	// Step 3: assign bit lengths top-down from the root. Since dad[n] > n
	// always holds, visiting node indices in decreasing order guarantees a
	// node's dad has already been assigned its length by the time the node
	// itself is processed.
	rawLen := make([]int, len(nodes))
	if root >= 0 {
		for n := len(nodes) - 1; n >= 0; n-- {
			if n == root {
				continue
			}
			if d := dad[n]; d != -1 {
				rawLen[n] = rawLen[d] + 1
			}
		}
	}

	lens := make([]int, elems)
	var bitLenCount [maxBits + 1]int
	overflow := 0
	for leafNode, sym := range leafSymbol {
		l := rawLen[leafNode]
		if l > maxLength {
			overflow++
			l = maxLength
		}
		lens[sym] = l
		bitLenCount[l]++
	}

	if overflow > 0 {
		repairOverflow(&bitLenCount, maxLength)

		// Reassign lengths: the deepest leaves get the longest remaining
		// lengths, consistent with the repaired bl_count buckets.
		leaves := make([]int, 0, len(leafSymbol))
		for leafNode := range leafSymbol {
			leaves = append(leaves, leafNode)
		}
		slices.SortFunc(leaves, func(a, b int) int { return rawLen[b] - rawLen[a] })

		pos := 0
		for l := maxLength; l >= 1 && pos < len(leaves); l-- {
			for n := bitLenCount[l]; n > 0 && pos < len(leaves); n-- {
				lens[leafSymbol[leaves[pos]]] = l
				pos++
			}
		}
	}

	// Step 5: canonical code assignment. Codes of the same length are
	// consecutive, assigned to symbols in ascending symbol order, then
	// bit-reversed (codes are transmitted MSB-first within their length).
	var nextCode [maxBits + 1]int
	for bits := 1; bits <= maxLength; bits++ {
		nextCode[bits] = (nextCode[bits-1] + bitLenCount[bits-1]) << 1
	}

	codes := make([]int, elems)
	var optLen, staticLen int64
	for sym := 0; sym < elems; sym++ {
		if freq[sym] == 0 {
			continue
		}
		l := lens[sym]
		codes[sym] = bitReverse(nextCode[l], l)
		nextCode[l]++

		xbits := 0
		if extraBits != nil && sym < len(extraBits) {
			xbits = extraBits[sym]
		}
		optLen += int64(freq[sym]) * int64(l+xbits)
		if staticLens != nil && sym < len(staticLens) {
			staticLen += int64(freq[sym]) * int64(staticLens[sym]+xbits)
		}
	}
	if fictitious > 0 {
		optLen -= int64(fictitious)
	}

	return treeBuildResult{lens: lens, codes: codes, maxCode: maxCode, optLen: optLen, staticLen: staticLen}
}

// repairOverflow implements spec.md §4.D step 4: the classic
// Katajainen-style rebalance that trims a bit-length histogram back under
// maxLength while preserving the total leaf count (and hence the Kraft
// equality every canonical code must satisfy).
func repairOverflow(bitLenCount *[maxBits + 1]int, maxLength int) {
	var spilled int
	for l := maxLength + 1; l <= maxBits; l++ {
		spilled += bitLenCount[l]
		bitLenCount[l] = 0
	}
	bitLenCount[maxLength] += spilled

	over := -(1 << uint(maxLength))
	for l := 1; l <= maxLength; l++ {
		over += bitLenCount[l] << uint(maxLength-l)
	}
	for over > 0 {
		l := maxLength - 1
		for bitLenCount[l] == 0 {
			l--
		}
		bitLenCount[l]--
		bitLenCount[l+1] += 2
		bitLenCount[maxLength]--
		over--
	}
}

func bitReverse(v, n int) int {
	r := 0
	for i := 0; i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
