// Package memchunk splits text into chunks near a target size, preferring
// to cut at semantic boundaries rather than at an arbitrary byte offset.
//
// # Overview
//
// A boundary is either one byte out of a delimiter set (newline, period
// and question mark by default) or a literal multi-byte pattern, such as
// the SentencePiece metaspace "▁". Chunks are returned as [start, end)
// offsets or as views into the caller's buffer; nothing is copied.
//
// This implementation offers:
//   - Zero-copy chunks: every result is a range of the input buffer
//   - Zero-allocation search: Finder.FindBoundary allocates nothing
//   - Thread-safety: Finders are immutable, Chunkers hold private cursors
//   - Several APIs: iterator, batch offsets, io.Reader streaming and bufio.SplitFunc
//
// # Quick Start
//
// Iterator API:
//
//	chunker, _ := memchunk.NewChunker(text, memchunk.WithTargetSize(1024))
//	defer chunker.Close()
//	for {
//	    chunk, err := chunker.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    // Process chunk.Data
//	}
//
// Batch API, one call for the whole buffer:
//
//	offsets, _ := memchunk.ChunkOffsets(text, memchunk.WithDelimiters([]byte("\n")))
//
// Pattern mode with the pattern opening each chunk:
//
//	offsets, _ := memchunk.ChunkOffsetsPattern(text, 4096, []byte("▁"), memchunk.WithPrefix(true))
//
// # Algorithm
//
// From a cursor, the search window is [cursor, cursor+targetSize):
//  1. If the rest of the buffer fits in the window, it is the final chunk.
//  2. Scan backward from the window end for the last boundary; the one
//     closest to the target size wins.
//  3. Without prefix the boundary closes the chunk; with prefix it opens
//     the next one. With consecutive, a run of adjacent boundaries is
//     kept whole and split at its start.
//  4. If the window has no boundary, either search forward past the
//     target size (forward fallback) or cut at the window end.
//
// Every step moves the cursor forward by at least one byte, so iteration
// always terminates.
//
// # Consecutive Runs
//
// A run that starts after the cursor opens the next chunk as a whole, with
// or without prefix. A run that starts exactly at the cursor cannot open
// the next chunk without producing an empty one, so without prefix it
// closes the current chunk instead, and that chunk holds only the run:
//
//	// "..abcdef", target 4, delimiters ".", consecutive
//	// chunks: "..", "abcd", "ef"
//
// Other chunkers may instead fold such a run into a larger chunk or split
// it, so offsets can differ from them for input that starts with, or
// hard cuts into, a run of boundaries.
//
// # Text Safety
//
// With an ASCII delimiter set, a split never lands inside a multi-byte
// UTF-8 sequence, since continuation bytes are always >= 0x80. This does
// not hold for delimiters >= 0x80, for non-ASCII patterns, or for hard
// cuts.
//
// # Lifetime
//
// The buffer passed to NewChunker, ChunkOffsets or a Finder is borrowed.
// It must not be modified or released while a Chunker or any returned
// Chunk.Data is still in use. Chunker.Close drops the reference.
package memchunk
