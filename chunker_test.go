package memchunk_test

import (
	"errors"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalbasit/memchunk"
)

// collect drains a chunker with Next.
func collect(t *testing.T, c *memchunk.Chunker) []memchunk.Offset {
	t.Helper()

	var offsets []memchunk.Offset

	for {
		chunk, err := c.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		require.NoError(t, err)

		offsets = append(offsets, chunk.Offset())
	}

	return offsets
}

// chunkStrings returns the chunk texts for offsets into data.
func chunkStrings(data []byte, offsets []memchunk.Offset) []string {
	out := make([]string, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, string(data[o.Start:o.End]))
	}

	return out
}

// requireCoverage checks that offsets tile [0, n) without gaps or overlaps.
func requireCoverage(t *testing.T, offsets []memchunk.Offset, n int) {
	t.Helper()

	if n == 0 {
		require.Empty(t, offsets)

		return
	}

	require.NotEmpty(t, offsets)
	require.Equal(t, 0, offsets[0].Start)
	require.Equal(t, n, offsets[len(offsets)-1].End)

	for i, o := range offsets {
		require.Less(t, o.Start, o.End, "chunk %d is empty", i)

		if i > 0 {
			require.Equal(t, offsets[i-1].End, o.Start, "gap or overlap before chunk %d", i)
		}
	}
}

// randomText builds text over a small alphabet rich in boundaries.
func randomText(rng *rand.Rand, n int) []byte {
	tokens := []string{"a", "b", "cde", "fghij", " ", ".", "?", "\n", "\n\n", "..", "▁", "ü", "日本"}

	data := make([]byte, 0, n+8)
	for len(data) < n {
		data = append(data, tokens[rng.Intn(len(tokens))]...)
	}

	return data[:n]
}

// randomOptions picks a valid configuration.
func randomOptions(rng *rand.Rand) []memchunk.Option {
	opts := []memchunk.Option{
		memchunk.WithTargetSize(1 + rng.Intn(40)),
		memchunk.WithPrefix(rng.Intn(2) == 0),
		memchunk.WithConsecutive(rng.Intn(2) == 0),
		memchunk.WithForwardFallback(rng.Intn(2) == 0),
	}

	switch rng.Intn(4) {
	case 0:
		opts = append(opts, memchunk.WithPattern([]byte("▁")))
	case 1:
		opts = append(opts, memchunk.WithPattern([]byte("..")))
	case 2:
		opts = append(opts, memchunk.WithDelimiters([]byte(".?\n ")))
	}

	return opts
}

// TestChunkerNext tests the Next() API for correctness.
func TestChunkerNext(t *testing.T) {
	t.Parallel()

	data := []byte("Hello. World. Test.")

	chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(10))
	require.NoError(t, err)

	first, err := chunker.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, first.Start)
	assert.Equal(t, 6, first.End)
	assert.Equal(t, "Hello.", string(first.Data))
	assert.Equal(t, memchunk.BoundaryMatch, first.Kind)

	second, err := chunker.Next()
	require.NoError(t, err)
	assert.Equal(t, " World.", string(second.Data))
	assert.Equal(t, memchunk.BoundaryMatch, second.Kind)

	third, err := chunker.Next()
	require.NoError(t, err)
	assert.Equal(t, " Test.", string(third.Data))
	assert.Equal(t, memchunk.BoundaryFinal, third.Kind)
	assert.Equal(t, len(data), third.End)

	for range 3 {
		_, err = chunker.Next()
		require.ErrorIs(t, err, io.EOF)
	}
}

// TestChunkerZeroCopy verifies that chunk data aliases the input buffer.
func TestChunkerZeroCopy(t *testing.T) {
	t.Parallel()

	data := []byte("one.two.three.four")

	chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(5))
	require.NoError(t, err)

	for chunk := range chunker.All() {
		require.Equal(t, chunk.Len(), cap(chunk.Data), "chunk data must not expose bytes past End")
		require.Same(t, &data[chunk.Start], &chunk.Data[0])
	}
}

// TestChunkerEmpty verifies that an empty buffer yields no chunks.
func TestChunkerEmpty(t *testing.T) {
	t.Parallel()

	chunker, err := memchunk.NewChunker(nil)
	require.NoError(t, err)

	_, err = chunker.Next()
	require.ErrorIs(t, err, io.EOF)
	assert.Empty(t, chunker.CollectOffsets())
}

// TestChunkerSmallData tests chunking of data smaller than the target size.
func TestChunkerSmallData(t *testing.T) {
	t.Parallel()

	data := []byte("Small")

	chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(100), memchunk.WithDelimiters([]byte(".")))
	require.NoError(t, err)

	chunk, err := chunker.Next()
	require.NoError(t, err)
	assert.Equal(t, "Small", string(chunk.Data))

	_, err = chunker.Next()
	require.ErrorIs(t, err, io.EOF, "expected EOF after single chunk")
}

// TestChunkerDeterminism verifies that the same input produces the same chunks.
func TestChunkerDeterminism(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	data := randomText(rng, 64*1024)

	getChunks := func() []memchunk.Offset {
		chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(512))
		require.NoError(t, err)

		return collect(t, chunker)
	}

	assert.Equal(t, getChunks(), getChunks())
}

// TestChunkerReset verifies that iterating after Reset reproduces the first pass.
func TestChunkerReset(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(2))

	for i := range 200 {
		data := randomText(rng, rng.Intn(300))
		opts := randomOptions(rng)

		chunker, err := memchunk.NewChunker(data, opts...)
		require.NoError(t, err)

		first := collect(t, chunker)

		chunker.Reset()
		assert.Equal(t, 0, chunker.Cursor())

		second := collect(t, chunker)
		require.Equal(t, first, second, "case %d", i)

		chunker.Reset()
		require.Equal(t, first, chunker.CollectOffsets(), "case %d", i)
	}
}

// TestChunkerResetMidway verifies Reset from a partially consumed chunker.
func TestChunkerResetMidway(t *testing.T) {
	t.Parallel()

	data := []byte(strings.Repeat("Sentence one. Sentence two? ", 20))

	chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(32))
	require.NoError(t, err)

	fresh, err := memchunk.NewChunker(data, memchunk.WithTargetSize(32))
	require.NoError(t, err)

	_, err = chunker.Next()
	require.NoError(t, err)
	_, err = chunker.Next()
	require.NoError(t, err)

	chunker.Reset()

	assert.Equal(t, collect(t, fresh), collect(t, chunker))
}

// TestChunkerCollectOffsets verifies that CollectOffsets continues from the cursor.
func TestChunkerCollectOffsets(t *testing.T) {
	t.Parallel()

	data := []byte("a.b.c.d.e.f.g.h.i.j.")

	all, err := memchunk.ChunkOffsets(data, memchunk.WithTargetSize(4))
	require.NoError(t, err)
	require.Greater(t, len(all), 2)

	chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(4))
	require.NoError(t, err)

	first, err := chunker.Next()
	require.NoError(t, err)
	assert.Equal(t, all[0], first.Offset())

	rest := chunker.CollectOffsets()
	assert.Equal(t, all[1:], rest)

	// exhausted afterwards
	_, err = chunker.Next()
	require.ErrorIs(t, err, io.EOF)
	assert.Empty(t, chunker.CollectOffsets())
}

// TestChunkerAll verifies the range-over-func iterator.
func TestChunkerAll(t *testing.T) {
	t.Parallel()

	data := []byte("Line one\nLine two\nLine three")

	chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(15), memchunk.WithDelimiters([]byte("\n")))
	require.NoError(t, err)

	var got []string
	for chunk := range chunker.All() {
		got = append(got, string(chunk.Data))
	}

	assert.Equal(t, []string{"Line one\n", "Line two\n", "Line three"}, got)
}

// TestChunkerAllBreak verifies that breaking out of All keeps the remaining chunks.
func TestChunkerAllBreak(t *testing.T) {
	t.Parallel()

	data := []byte("Line one\nLine two\nLine three")

	chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(15), memchunk.WithDelimiters([]byte("\n")))
	require.NoError(t, err)

	for range chunker.All() {
		break
	}

	chunk, err := chunker.Next()
	require.NoError(t, err)
	assert.Equal(t, "Line two\n", string(chunk.Data))
}

// TestChunkerClose verifies the dispose contract.
func TestChunkerClose(t *testing.T) {
	t.Parallel()

	chunker, err := memchunk.NewChunker([]byte("Hello. World."), memchunk.WithTargetSize(8))
	require.NoError(t, err)

	_, err = chunker.Next()
	require.NoError(t, err)

	require.NoError(t, chunker.Close())
	require.NoError(t, chunker.Close())

	_, err = chunker.Next()
	require.ErrorIs(t, err, memchunk.ErrClosed)

	chunker.Reset()

	_, err = chunker.Next()
	require.ErrorIs(t, err, memchunk.ErrClosed)
	assert.Empty(t, chunker.CollectOffsets())
}

// TestChunkerTermination verifies that every step makes progress.
func TestChunkerTermination(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))

	for i := range 300 {
		data := randomText(rng, 1+rng.Intn(200))

		chunker, err := memchunk.NewChunker(data, randomOptions(rng)...)
		require.NoError(t, err)

		steps := 0

		for {
			before := chunker.Cursor()

			chunk, err := chunker.Next()
			if errors.Is(err, io.EOF) {
				break
			}

			require.NoError(t, err)
			require.Equal(t, before, chunk.Start)
			require.Greater(t, chunker.Cursor(), before, "case %d: cursor did not advance", i)

			steps++
			require.LessOrEqual(t, steps, len(data), "case %d: too many steps", i)
		}
	}
}

// TestChunkerThreadSafety tests concurrent usage over one shared buffer.
func TestChunkerThreadSafety(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(4))
	data := randomText(rng, 256*1024)

	want, err := memchunk.ChunkOffsets(data, memchunk.WithTargetSize(1024))
	require.NoError(t, err)

	var wg sync.WaitGroup

	const workers = 10

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			// Each goroutine gets its own chunker instance
			chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(1024))
			if err != nil {
				t.Error(err)

				return
			}

			var got []memchunk.Offset
			for chunk := range chunker.All() {
				got = append(got, chunk.Offset())
			}

			assert.Equal(t, want, got)
		}()
	}

	wg.Wait()
}

// TestChunkerInvalidConfig tests option validation.
func TestChunkerInvalidConfig(t *testing.T) {
	t.Parallel()

	data := []byte("Hello. World.")

	tests := []struct {
		name    string
		build   func() (*memchunk.Chunker, error)
		wantErr error
	}{
		{
			name:    "valid default",
			build:   func() (*memchunk.Chunker, error) { return memchunk.NewChunker(data) },
			wantErr: nil,
		},
		{
			name: "valid pattern",
			build: func() (*memchunk.Chunker, error) {
				return memchunk.NewChunkerWithPattern(data, 8, []byte(". "), memchunk.WithPrefix(true))
			},
			wantErr: nil,
		},
		{
			name:    "zero size",
			build:   func() (*memchunk.Chunker, error) { return memchunk.NewChunker(data, memchunk.WithTargetSize(0)) },
			wantErr: memchunk.ErrInvalidTargetSize,
		},
		{
			name:    "negative size",
			build:   func() (*memchunk.Chunker, error) { return memchunk.NewChunker(data, memchunk.WithTargetSize(-1)) },
			wantErr: memchunk.ErrInvalidTargetSize,
		},
		{
			name: "zero size with pattern",
			build: func() (*memchunk.Chunker, error) {
				return memchunk.NewChunkerWithPattern(data, 0, []byte("."))
			},
			wantErr: memchunk.ErrInvalidTargetSize,
		},
		{
			name: "empty pattern",
			build: func() (*memchunk.Chunker, error) {
				return memchunk.NewChunkerWithPattern(data, 8, nil)
			},
			wantErr: memchunk.ErrEmptyPattern,
		},
		{
			name: "delimiters and pattern",
			build: func() (*memchunk.Chunker, error) {
				return memchunk.NewChunker(data,
					memchunk.WithDelimiters([]byte(".")),
					memchunk.WithPattern([]byte(". ")),
				)
			},
			wantErr: memchunk.ErrConflictingModes,
		},
		{
			name: "pattern constructor with delimiters",
			build: func() (*memchunk.Chunker, error) {
				return memchunk.NewChunkerWithPattern(data, 8, []byte(". "), memchunk.WithDelimiters([]byte(".")))
			},
			wantErr: memchunk.ErrConflictingModes,
		},
		{
			name: "zero buffer size",
			build: func() (*memchunk.Chunker, error) {
				return memchunk.NewChunker(data, memchunk.WithBufferSize(0))
			},
			wantErr: memchunk.ErrInvalidBufferSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			chunker, err := tt.build()
			if tt.wantErr == nil {
				require.NoError(t, err)
				require.NotNil(t, chunker)

				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, memchunk.ErrInvalidConfig)
			assert.Nil(t, chunker, "no partial chunker on error")
		})
	}
}

// TestDefaults verifies the exported defaults.
func TestDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4096, memchunk.DefaultTargetSize)
	assert.Equal(t, []byte("\n.?"), memchunk.DefaultDelimiters())

	// callers get their own copy
	d := memchunk.DefaultDelimiters()
	d[0] = 'x'
	assert.Equal(t, []byte("\n.?"), memchunk.DefaultDelimiters())

	finder, err := memchunk.NewFinder()
	require.NoError(t, err)
	assert.Equal(t, memchunk.DefaultTargetSize, finder.TargetSize())
}

// TestOptionsCopied verifies that later changes to caller slices do not leak into a chunker.
func TestOptionsCopied(t *testing.T) {
	t.Parallel()

	data := []byte("ab.cd;ef.gh;ij")
	delims := []byte(".")

	chunker, err := memchunk.NewChunker(data, memchunk.WithTargetSize(4), memchunk.WithDelimiters(delims))
	require.NoError(t, err)

	delims[0] = ';'

	want, err := memchunk.ChunkOffsets(data, memchunk.WithTargetSize(4), memchunk.WithDelimiters([]byte(".")))
	require.NoError(t, err)
	assert.Equal(t, want, collect(t, chunker))
}
