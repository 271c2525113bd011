package memchunk

import (
	"errors"
	"io"
)

// StreamChunker applies the boundary search to an io.Reader.
// It returns chunks via the Next() method.
//
// The internal buffer always holds a full search window past the cursor
// until the stream ends, so without forward fallback or consecutive
// collapsing the chunks equal ChunkOffsets over the whole stream.
// Forward fallback and run detection only see buffered data.
type StreamChunker struct {
	finder    Finder    // Boundary search (embedded to avoid pointer allocation)
	reader    io.Reader // Input stream
	lookahead int       // Bytes a search may read past the cursor

	buf    []byte // Internal buffer
	cursor int    // Current position in buffer
	offset int    // Absolute offset in stream
	eof    bool   // EOF reached
}

// NewStreamChunker creates a new StreamChunker that reads from the given io.Reader.
func NewStreamChunker(r io.Reader, opts ...Option) (*StreamChunker, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	return &StreamChunker{
		finder:    newFinderWithConfig(&cfg),
		reader:    r,
		lookahead: cfg.lookahead(),
		buf:       make([]byte, cfg.bufferSize),
		cursor:    cfg.bufferSize, // Start with empty buffer (triggers initial read)
	}, nil
}

// fillBuffer ensures the buffer holds a full search window.
// It moves unconsumed data to the front and reads more from the reader.
func (s *StreamChunker) fillBuffer() error {
	n := len(s.buf) - s.cursor
	if n >= s.lookahead {
		return nil
	}

	// Move unconsumed data to the front of buffer
	copy(s.buf[:n], s.buf[s.cursor:])
	s.cursor = 0

	if s.eof {
		s.buf = s.buf[:n]

		return nil
	}

	// Fill the rest of the buffer
	m, err := io.ReadFull(s.reader, s.buf[n:cap(s.buf)])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.buf = s.buf[:n+m]
		s.eof = true
	} else if err != nil {
		s.buf = s.buf[:n+m]

		return err
	}

	if !s.eof {
		s.buf = s.buf[:cap(s.buf)]
	}

	return nil
}

// Next returns the next chunk from the stream.
// Returns io.EOF when the stream is exhausted.
//
// Start and End are absolute stream offsets. The returned Chunk.Data
// slice is valid until the next call to Next(); copy it to keep it.
func (s *StreamChunker) Next() (Chunk, error) {
	if err := s.fillBuffer(); err != nil {
		return Chunk{}, err
	}

	available := s.buf[s.cursor:]
	if len(available) == 0 {
		return Chunk{}, io.EOF
	}

	memo := noMemo

	boundary, kind := s.finder.next(available, 0, &memo)
	if boundary <= 0 {
		boundary = 1
	}

	chunk := Chunk{
		Start: s.offset,
		End:   s.offset + boundary,
		Kind:  kind,
		Data:  available[:boundary:boundary],
	}

	s.cursor += boundary
	s.offset += boundary

	return chunk, nil
}

// Reset resets the chunker to start processing a new stream.
// The reader is replaced with the provided one, and all state is cleared.
func (s *StreamChunker) Reset(r io.Reader) {
	s.reader = r
	s.buf = s.buf[:cap(s.buf)] // Restore buffer to full capacity
	s.cursor = len(s.buf)      // Start with empty buffer
	s.offset = 0
	s.eof = false
}

// Offset returns the current absolute offset in the stream.
func (s *StreamChunker) Offset() int {
	return s.offset
}
