package memchunk

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is the class of every configuration error. All other
	// configuration errors wrap it.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidTargetSize is returned when targetSize is not greater than 0.
	ErrInvalidTargetSize = fmt.Errorf("%w: targetSize must be greater than 0", ErrInvalidConfig)

	// ErrEmptyPattern is returned when the pattern is empty.
	ErrEmptyPattern = fmt.Errorf("%w: pattern must not be empty", ErrInvalidConfig)

	// ErrConflictingModes is returned when both delimiters and a pattern are configured.
	ErrConflictingModes = fmt.Errorf("%w: delimiters and pattern are mutually exclusive", ErrInvalidConfig)

	// ErrInvalidBufferSize is returned when bufferSize is not greater than 0.
	ErrInvalidBufferSize = fmt.Errorf("%w: bufferSize must be greater than 0", ErrInvalidConfig)
)

const (
	// DefaultTargetSize is the default target chunk size (4 KiB).
	DefaultTargetSize = 4096

	// DefaultBufferSize is the default internal buffer size for the streaming API (64 KiB).
	// It is raised automatically when the target size needs a larger window.
	DefaultBufferSize = 64 * 1024
)

// defaultDelimiters are newline, period and question mark.
const defaultDelimiters = "\n.?"

// DefaultDelimiters returns a fresh copy of the default delimiter set.
func DefaultDelimiters() []byte {
	return []byte(defaultDelimiters)
}

// Option is a function that configures a Chunker, StreamChunker or Finder.
type Option func(*config) error

// config holds the configuration for chunking.
type config struct {
	targetSize      int
	delimiters      []byte
	pattern         []byte
	delimitersSet   bool
	patternSet      bool
	prefix          bool
	consecutive     bool
	forwardFallback bool
	bufferSize      int
}

func defaultConfig() config {
	return config{
		targetSize: DefaultTargetSize,
		delimiters: []byte(defaultDelimiters),
		bufferSize: DefaultBufferSize,
	}
}

// newConfig applies opts over the defaults and validates the result.
func newConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return config{}, err
	}

	return cfg, nil
}

// validate checks that the configuration is valid.
func (c *config) validate() error {
	if c.targetSize <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTargetSize, c.targetSize)
	}

	if c.delimitersSet && c.patternSet {
		return ErrConflictingModes
	}

	if c.patternSet && len(c.pattern) == 0 {
		return ErrEmptyPattern
	}

	// Auto-adjust buffer size so the stream window always spans a full
	// backward search plus the longest boundary that may cross its edge.
	if need := c.lookahead(); c.bufferSize < need {
		c.bufferSize = need
	}

	return nil
}

// lookahead is the number of bytes past the cursor the backward search may read.
func (c *config) lookahead() int {
	width := 1
	if c.patternSet {
		width = len(c.pattern)
	}

	return c.targetSize + width
}

// matcher builds the boundary matcher for the configured mode.
func (c *config) matcher() matcher {
	if c.patternSet {
		return literalPattern(c.pattern)
	}

	return newDelimiterSet(c.delimiters)
}

// WithTargetSize sets the target chunk size in bytes.
func WithTargetSize(size int) Option {
	return func(c *config) error {
		if size <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidTargetSize, size)
		}

		c.targetSize = size

		return nil
	}
}

// WithDelimiters sets the single-byte delimiters to split on.
// An empty set is allowed and makes every split a hard cut.
func WithDelimiters(delimiters []byte) Option {
	return func(c *config) error {
		c.delimiters = append([]byte(nil), delimiters...)
		c.delimitersSet = true

		return nil
	}
}

// WithPattern switches to pattern mode and splits on the literal byte
// sequence pattern. It cannot be combined with WithDelimiters.
func WithPattern(pattern []byte) Option {
	return func(c *config) error {
		if len(pattern) == 0 {
			return ErrEmptyPattern
		}

		c.pattern = append([]byte(nil), pattern...)
		c.patternSet = true

		return nil
	}
}

// WithPrefix attaches the matched delimiter or pattern to the start of the
// following chunk instead of the end of the closing one.
func WithPrefix(enabled bool) Option {
	return func(c *config) error {
		c.prefix = enabled

		return nil
	}
}

// WithConsecutive collapses a run of adjacent delimiters or pattern
// occurrences into a single split at the start of the run.
func WithConsecutive(enabled bool) Option {
	return func(c *config) error {
		c.consecutive = enabled

		return nil
	}
}

// WithForwardFallback searches forward past the target size when the
// backward window holds no boundary, instead of hard cutting at the limit.
func WithForwardFallback(enabled bool) Option {
	return func(c *config) error {
		c.forwardFallback = enabled

		return nil
	}
}

// WithBufferSize sets the internal buffer size for the streaming API.
// It is raised to the target size plus the boundary width if smaller.
func WithBufferSize(size int) Option {
	return func(c *config) error {
		if size <= 0 {
			return fmt.Errorf("%w: got %d", ErrInvalidBufferSize, size)
		}

		c.bufferSize = size

		return nil
	}
}
