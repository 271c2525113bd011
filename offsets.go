package memchunk

// ChunkOffsets returns the ranges of all chunks of data in order. It
// produces exactly what iterating a fresh Chunker with the same options
// produces, in a single loop.
//
//	offsets, _ := memchunk.ChunkOffsets(text, memchunk.WithTargetSize(1024))
//	for _, o := range offsets {
//	    process(text[o.Start:o.End])
//	}
func ChunkOffsets(data []byte, opts ...Option) ([]Offset, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, nil
	}

	finder := newFinderWithConfig(&cfg)
	memo := noMemo

	offsets := make([]Offset, 0, len(data)/cfg.targetSize+1)

	return finder.appendOffsets(offsets, data, 0, &memo), nil
}

// ChunkOffsetsPattern returns the ranges of all chunks of data, splitting
// near size bytes at occurrences of pattern.
func ChunkOffsetsPattern(data []byte, size int, pattern []byte, opts ...Option) ([]Offset, error) {
	return ChunkOffsets(data, withPatternMode(size, pattern, opts)...)
}

// Flatten returns offsets as [start0, end0, start1, end1, ...].
func Flatten(offsets []Offset) []int {
	flat := make([]int, 0, 2*len(offsets))
	for _, o := range offsets {
		flat = append(flat, o.Start, o.End)
	}

	return flat
}
