package memchunk

import (
	"io"
	"sync"
)

// ChunkerPool is a pool of Chunker instances for reuse in high-throughput scenarios.
// It reduces allocations by recycling chunkers instead of creating new ones.
type ChunkerPool struct {
	pool sync.Pool
	opts []Option
}

// NewChunkerPool creates a new ChunkerPool with the given options.
// All chunkers created from this pool will use these options.
func NewChunkerPool(opts ...Option) (*ChunkerPool, error) {
	// Validate options by creating a test chunker
	_, err := NewChunker(nil, opts...)
	if err != nil {
		return nil, err
	}

	return &ChunkerPool{
		opts: opts,
	}, nil
}

// Get retrieves a Chunker from the pool, or creates a new one if the pool is empty.
// The chunker is positioned at the start of data and ready to use.
func (p *ChunkerPool) Get(data []byte) (*Chunker, error) {
	if v := p.pool.Get(); v != nil {
		chunker := v.(*Chunker)
		chunker.reset(data)

		return chunker, nil
	}

	return NewChunker(data, p.opts...)
}

// Put returns a Chunker to the pool for reuse.
// The chunker should not be used after being returned to the pool.
func (p *ChunkerPool) Put(c *Chunker) {
	// Clear the buffer to avoid holding references
	_ = c.Close()
	p.pool.Put(c)
}

// StreamChunkerPool is a pool of StreamChunker instances and their buffers.
type StreamChunkerPool struct {
	pool sync.Pool
	opts []Option
}

// NewStreamChunkerPool creates a new StreamChunkerPool with the given options.
// All stream chunkers created from this pool will use these options.
func NewStreamChunkerPool(opts ...Option) (*StreamChunkerPool, error) {
	// Validate options by creating a test config
	if _, err := newConfig(opts); err != nil {
		return nil, err
	}

	return &StreamChunkerPool{
		opts: opts,
	}, nil
}

// Get retrieves a StreamChunker from the pool, or creates a new one if the pool is empty.
// The chunker is configured with the given reader and ready to use.
func (p *StreamChunkerPool) Get(r io.Reader) (*StreamChunker, error) {
	if v := p.pool.Get(); v != nil {
		chunker := v.(*StreamChunker)
		chunker.Reset(r)

		return chunker, nil
	}

	return NewStreamChunker(r, p.opts...)
}

// Put returns a StreamChunker to the pool for reuse.
// The chunker should not be used after being returned to the pool.
func (p *StreamChunkerPool) Put(s *StreamChunker) {
	// Clear the reader to avoid holding references
	s.reader = nil
	p.pool.Put(s)
}
