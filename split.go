package memchunk

import "bufio"

// NewSplitFunc returns a bufio.SplitFunc that yields memchunk chunks, for
// use with bufio.Scanner.
//
// Before the end of input, a token is only emitted once the scanner holds
// the target size plus one boundary width (len(pattern), or 1 for
// delimiters). The scanner buffer must hold that much in every mode: the
// default bufio.MaxScanTokenSize (64 KiB) fails with bufio.ErrTooLong for
// target sizes near or above it, so size it with Scanner.Buffer.
//
// With WithForwardFallback the split function also asks the scanner for
// more data rather than hard cutting, so a boundary-free stream grows the
// scanner buffer until it reaches the Scanner.Buffer maximum.
func NewSplitFunc(opts ...Option) (bufio.SplitFunc, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	finder := newFinderWithConfig(&cfg)
	lookahead := cfg.lookahead()

	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if len(data) == 0 {
			return 0, nil, nil
		}

		// wait for a full search window
		if !atEOF && len(data) < lookahead {
			return 0, nil, nil
		}

		memo := noMemo

		end, kind := finder.next(data, 0, &memo)
		if kind == BoundaryHardCut && finder.forwardFallback && !atEOF {
			return 0, nil, nil
		}

		return end, data[:end], nil
	}, nil
}
