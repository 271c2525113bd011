package memchunk

import "math"

// BoundaryKind describes how a chunk end was chosen.
type BoundaryKind uint8

const (
	// BoundaryFinal means the chunk is the remainder of the buffer.
	BoundaryFinal BoundaryKind = iota + 1
	// BoundaryMatch means the chunk ends at a delimiter or pattern boundary.
	BoundaryMatch
	// BoundaryHardCut means no boundary was found and the chunk was cut at the target size.
	BoundaryHardCut
)

// String returns the name of the kind.
func (k BoundaryKind) String() string {
	switch k {
	case BoundaryFinal:
		return "final"
	case BoundaryMatch:
		return "match"
	case BoundaryHardCut:
		return "hardcut"
	default:
		return "unknown"
	}
}

// noMemo is the forward-scan memo of a search that has not run a forward scan yet.
const noMemo = math.MaxInt

// Finder implements the zero-allocation boundary search. It provides a
// low-level FindBoundary API for code that tracks its own cursor.
//
// A Finder is immutable after construction and may be shared by any
// number of goroutines. For a stateful iterator, use Chunker instead.
type Finder struct {
	match           matcher
	targetSize      int
	prefix          bool
	consecutive     bool
	forwardFallback bool
}

// NewFinder creates a new Finder with the given options.
func NewFinder(opts ...Option) (*Finder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	f := newFinderWithConfig(&cfg)

	return &f, nil
}

func newFinderWithConfig(cfg *config) Finder {
	return Finder{
		match:           cfg.matcher(),
		targetSize:      cfg.targetSize,
		prefix:          cfg.prefix,
		consecutive:     cfg.consecutive,
		forwardFallback: cfg.forwardFallback,
	}
}

// FindBoundary returns the end (exclusive) of the chunk that starts at
// cursor, and how that end was chosen. The result always satisfies
// cursor < end <= len(data) when cursor < len(data). A cursor at or past
// the end of data yields len(data) and BoundaryFinal.
//
// Example usage:
//
//	finder, _ := NewFinder(WithTargetSize(1024))
//	for cursor := 0; cursor < len(data); {
//	    end, _ := finder.FindBoundary(data, cursor)
//	    process(data[cursor:end])
//	    cursor = end
//	}
func (f *Finder) FindBoundary(data []byte, cursor int) (end int, kind BoundaryKind) {
	memo := noMemo

	return f.next(data, cursor, &memo)
}

// TargetSize returns the target chunk size.
func (f *Finder) TargetSize() int {
	return f.targetSize
}

// next is FindBoundary with a forward-scan memo: *memo is the lowest
// offset from which a forward scan over data is known to find nothing.
func (f *Finder) next(data []byte, cursor int, memo *int) (int, BoundaryKind) {
	n := len(data)
	if cursor < 0 {
		cursor = 0
	}

	if n-cursor <= f.targetSize {
		return n, BoundaryFinal
	}

	limit := cursor + f.targetSize

	if end, ok := f.searchBackward(data, cursor, limit); ok {
		return end, BoundaryMatch
	}

	if f.forwardFallback && limit < *memo {
		if end, ok := f.searchForward(data, cursor, limit); ok {
			return end, BoundaryMatch
		}

		*memo = limit
	}

	return limit, BoundaryHardCut
}

// searchBackward finds the occurrence closest to limit whose start lies in
// [cursor, limit) and turns it into a split offset.
func (f *Finder) searchBackward(data []byte, cursor, limit int) (int, bool) {
	start := f.match.lastIndex(data, cursor, limit)
	if start < 0 {
		return 0, false
	}

	// Every other candidate lies inside this occurrence's run or before
	// it, so a split that makes no progress here means none will.
	split := f.place(data, cursor, start)

	return split, split > cursor
}

// searchForward finds the first occurrence at or after limit that yields
// a split past cursor.
func (f *Finder) searchForward(data []byte, cursor, limit int) (int, bool) {
	for from := limit; from < len(data); {
		start := f.match.index(data, from)
		if start < 0 {
			return 0, false
		}

		if split := f.place(data, cursor, start); split > cursor {
			return split, true
		}

		from = start + f.match.width()
	}

	return 0, false
}

// place converts the occurrence starting at start into a split offset,
// applying consecutive-run collapsing and prefix placement.
func (f *Finder) place(data []byte, cursor, start int) int {
	w := f.match.width()
	end := start + w

	if f.consecutive {
		runStart, runEnd := start, end
		for runStart-w >= cursor && f.match.matchAt(data, runStart-w) {
			runStart -= w
		}

		for f.match.matchAt(data, runEnd) {
			runEnd += w
		}

		if runEnd-runStart > w {
			// A run opens the next chunk as a whole. When it already opens
			// the current one, it closes it instead.
			if runStart > cursor || f.prefix {
				return runStart
			}

			return runEnd
		}
	}

	if f.prefix {
		return start
	}

	return end
}

// appendOffsets drives the search from cursor to the end of data.
func (f *Finder) appendOffsets(dst []Offset, data []byte, cursor int, memo *int) []Offset {
	for cursor < len(data) {
		end, _ := f.next(data, cursor, memo)
		if end <= cursor {
			end = cursor + 1
		}

		dst = append(dst, Offset{Start: cursor, End: end})
		cursor = end
	}

	return dst
}
