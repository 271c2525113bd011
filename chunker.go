package memchunk

import (
	"errors"
	"io"
	"iter"
)

// ErrClosed is returned by Next when the Chunker has been closed.
var ErrClosed = errors.New("memchunk: chunker is closed")

// Offset is a [Start, End) byte range into the chunked buffer.
type Offset struct {
	Start int
	End   int
}

// Len returns the length of the range in bytes.
func (o Offset) Len() int {
	return o.End - o.Start
}

// Chunk represents one chunk with its position in the buffer.
type Chunk struct {
	Start int          // Offset of the first byte
	End   int          // Offset one past the last byte
	Kind  BoundaryKind // How End was chosen
	Data  []byte       // Chunk data (points into the caller's buffer)
}

// Len returns the chunk size in bytes.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Offset returns the chunk range without its data.
func (c Chunk) Offset() Offset {
	return Offset{Start: c.Start, End: c.End}
}

// Chunker is a stateful iterator over the chunks of a byte buffer.
//
// The buffer is borrowed, never copied: it must stay alive and unmodified
// for as long as the Chunker or any Chunk.Data it returned is in use.
// Call Close when done to drop the reference to the buffer.
type Chunker struct {
	finder Finder // Boundary search (embedded to avoid pointer allocation)
	data   []byte // Borrowed input buffer

	cursor int  // Start of the next chunk
	memo   int  // Forward scans from here find nothing
	done   bool // All chunks returned
	closed bool
}

// NewChunker creates a new Chunker over data. Without options it splits
// near DefaultTargetSize at the DefaultDelimiters.
func NewChunker(data []byte, opts ...Option) (*Chunker, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &Chunker{
		finder: newFinderWithConfig(&cfg),
		data:   data,
		memo:   noMemo,
	}, nil
}

// NewChunkerWithPattern creates a new Chunker over data that splits near
// size bytes at occurrences of pattern.
func NewChunkerWithPattern(data []byte, size int, pattern []byte, opts ...Option) (*Chunker, error) {
	return NewChunker(data, withPatternMode(size, pattern, opts)...)
}

// withPatternMode puts the size and pattern ahead of opts so that a
// conflicting WithDelimiters in opts is still detected.
func withPatternMode(size int, pattern []byte, opts []Option) []Option {
	all := make([]Option, 0, len(opts)+2)
	all = append(all, WithTargetSize(size), WithPattern(pattern))

	return append(all, opts...)
}

// Next returns the next chunk of the buffer.
// Returns io.EOF when the buffer is exhausted.
//
// The returned Chunk.Data is a view into the buffer passed to NewChunker.
func (c *Chunker) Next() (Chunk, error) {
	if c.closed {
		return Chunk{}, ErrClosed
	}

	if c.done {
		return Chunk{}, io.EOF
	}

	if c.cursor >= len(c.data) {
		c.done = true

		return Chunk{}, io.EOF
	}

	start := c.cursor

	end, kind := c.finder.next(c.data, start, &c.memo)
	if end <= start {
		end = start + 1
	}

	c.cursor = end
	if end == len(c.data) {
		c.done = true
	}

	return Chunk{
		Start: start,
		End:   end,
		Kind:  kind,
		Data:  c.data[start:end:end],
	}, nil
}

// All returns an iterator over the remaining chunks.
func (c *Chunker) All() iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		for {
			chunk, err := c.Next()
			if err != nil {
				return
			}

			if !yield(chunk) {
				return
			}
		}
	}
}

// CollectOffsets returns the ranges of all remaining chunks in one pass
// and leaves the Chunker exhausted. It continues from the current
// position; call Reset first to collect from the start.
func (c *Chunker) CollectOffsets() []Offset {
	if c.closed || c.done || c.cursor >= len(c.data) {
		c.done = true

		return nil
	}

	remaining := len(c.data) - c.cursor
	offsets := make([]Offset, 0, remaining/c.finder.targetSize+1)
	offsets = c.finder.appendOffsets(offsets, c.data, c.cursor, &c.memo)

	c.cursor = len(c.data)
	c.done = true

	return offsets
}

// Reset rewinds the chunker to the start of its buffer. Iterating again
// reproduces the same chunks.
func (c *Chunker) Reset() {
	c.cursor = 0
	c.memo = noMemo
	c.done = false
}

// reset points the chunker at a new buffer and rewinds it.
func (c *Chunker) reset(data []byte) {
	c.data = data
	c.closed = false
	c.Reset()
}

// Close releases the reference to the buffer. Next returns ErrClosed
// afterwards. Close is idempotent.
func (c *Chunker) Close() error {
	c.data = nil
	c.closed = true
	c.done = true

	return nil
}

// Cursor returns the offset of the next chunk.
func (c *Chunker) Cursor() int {
	return c.cursor
}
