package memchunk

import "bytes"

// matcher locates boundary occurrences in a buffer. It is either a
// delimiterSet or a literalPattern, never both.
type matcher interface {
	// lastIndex returns the start of the last occurrence whose start lies
	// in [lo, hi), or -1. The occurrence may extend past hi.
	lastIndex(data []byte, lo, hi int) int

	// index returns the start of the first occurrence at or after from, or -1.
	index(data []byte, from int) int

	// matchAt reports whether a complete occurrence starts at i.
	matchAt(data []byte, i int) bool

	// width is the length in bytes of one occurrence.
	width() int
}

// delimiterSet is a 256-bit membership table over single bytes.
type delimiterSet struct {
	bits  [4]uint64
	count int
	first byte // only delimiter when count == 1
}

func newDelimiterSet(delimiters []byte) *delimiterSet {
	s := &delimiterSet{}

	for _, b := range delimiters {
		if s.contains(b) {
			continue
		}

		s.bits[b>>6] |= 1 << (b & 63)
		s.count++
		s.first = b
	}

	return s
}

func (s *delimiterSet) contains(b byte) bool {
	return s.bits[b>>6]&(1<<(b&63)) != 0
}

func (s *delimiterSet) lastIndex(data []byte, lo, hi int) int {
	switch s.count {
	case 0:
		return -1
	case 1:
		if i := bytes.LastIndexByte(data[lo:hi], s.first); i >= 0 {
			return lo + i
		}

		return -1
	}

	for i := hi - 1; i >= lo; i-- {
		if s.contains(data[i]) {
			return i
		}
	}

	return -1
}

func (s *delimiterSet) index(data []byte, from int) int {
	switch s.count {
	case 0:
		return -1
	case 1:
		if i := bytes.IndexByte(data[from:], s.first); i >= 0 {
			return from + i
		}

		return -1
	}

	for i := from; i < len(data); i++ {
		if s.contains(data[i]) {
			return i
		}
	}

	return -1
}

func (s *delimiterSet) matchAt(data []byte, i int) bool {
	return i >= 0 && i < len(data) && s.contains(data[i])
}

func (s *delimiterSet) width() int { return 1 }

// literalPattern matches an exact, non-empty byte sequence.
type literalPattern []byte

func (p literalPattern) lastIndex(data []byte, lo, hi int) int {
	// Let an occurrence starting at hi-1 run past hi.
	end := hi - 1 + len(p)
	if end > len(data) {
		end = len(data)
	}

	if i := bytes.LastIndex(data[lo:end], p); i >= 0 {
		return lo + i
	}

	return -1
}

func (p literalPattern) index(data []byte, from int) int {
	if i := bytes.Index(data[from:], p); i >= 0 {
		return from + i
	}

	return -1
}

func (p literalPattern) matchAt(data []byte, i int) bool {
	return i >= 0 && i+len(p) <= len(data) && bytes.Equal(data[i:i+len(p)], p)
}

func (p literalPattern) width() int { return len(p) }
