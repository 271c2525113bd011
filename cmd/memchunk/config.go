package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kalbasit/memchunk"
)

// Output formats.
const (
	formatOffsets = "offsets"
	formatJSONL   = "jsonl"
	formatText    = "text"
)

var errUnknownFormat = errors.New("unknown output format")

// Config is the chunking configuration of one run. It is read from an
// optional YAML file and then overridden by explicitly set flags.
//
// Delimiters and pattern are two modes, and a mode counts as chosen when
// either the file or a flag sets it, even to an empty value. Choosing both,
// from any mix of sources, is rejected with memchunk.ErrConflictingModes.
type Config struct {
	Size            int    `yaml:"size"`
	Delimiters      string `yaml:"delimiters"`
	Pattern         string `yaml:"pattern"`
	Prefix          bool   `yaml:"prefix"`
	Consecutive     bool   `yaml:"consecutive"`
	ForwardFallback bool   `yaml:"forward_fallback"`
	Format          string `yaml:"format"`
	Separator       string `yaml:"separator"`
	Jobs            int    `yaml:"jobs"`
	Stream          bool   `yaml:"stream"`
	CheckUTF8       bool   `yaml:"check_utf8"`

	delimitersSet bool
	patternSet    bool
}

func defaultConfig() Config {
	return Config{
		Size:       memchunk.DefaultTargetSize,
		Delimiters: string(memchunk.DefaultDelimiters()),
		Format:     formatOffsets,
		Separator:  "\n---\n",
		Jobs:       runtime.GOMAXPROCS(0),
	}
}

// modeKeys records which boundary modes a config file sets.
type modeKeys struct {
	Delimiters *string `yaml:"delimiters"`
	Pattern    *string `yaml:"pattern"`
}

// loadConfigFile decodes path over cfg. Unknown keys are rejected.
func loadConfigFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	var keys modeKeys
	if err := yaml.Unmarshal(b, &keys); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.delimitersSet = keys.Delimiters != nil
	cfg.patternSet = keys.Pattern != nil

	return nil
}

// flagValues holds the raw flag destinations before they are merged.
type flagValues struct {
	configPath string
	verbose    bool
	cfg        Config
}

func newFlagSet(values *flagValues) *pflag.FlagSet {
	d := defaultConfig()

	fs := pflag.NewFlagSet("memchunk", pflag.ContinueOnError)
	fs.StringVarP(&values.configPath, "config", "c", "", "YAML config file")
	fs.IntVarP(&values.cfg.Size, "size", "s", d.Size, "target chunk size in bytes")
	fs.StringVarP(&values.cfg.Delimiters, "delimiters", "d", escape(d.Delimiters), `delimiter bytes (escapes \n \t \r \\ accepted)`)
	fs.StringVarP(&values.cfg.Pattern, "pattern", "p", "", "literal multi-byte pattern to split on (excludes --delimiters)")
	fs.BoolVar(&values.cfg.Prefix, "prefix", false, "attach the boundary bytes to the start of the next chunk")
	fs.BoolVar(&values.cfg.Consecutive, "consecutive", false, "collapse runs of adjacent boundaries")
	fs.BoolVar(&values.cfg.ForwardFallback, "forward-fallback", false, "search past the target size before hard cutting")
	fs.StringVarP(&values.cfg.Format, "format", "f", d.Format, "output format: offsets, jsonl or text")
	fs.StringVar(&values.cfg.Separator, "separator", escape(d.Separator), "chunk separator for --format text")
	fs.IntVarP(&values.cfg.Jobs, "jobs", "j", d.Jobs, "files chunked concurrently")
	fs.BoolVar(&values.cfg.Stream, "stream", false, "read input through the streaming chunker")
	fs.BoolVar(&values.cfg.CheckUTF8, "check-utf8", false, "warn about chunks that are not valid UTF-8")
	fs.BoolVarP(&values.verbose, "verbose", "v", false, "debug logging")
	fs.BoolP("help", "h", false, "show help")

	return fs
}

// resolveConfig layers explicitly set flags over the config file over the defaults.
func resolveConfig(fs *pflag.FlagSet, values *flagValues) (Config, error) {
	cfg := defaultConfig()

	if values.configPath != "" {
		if err := loadConfigFile(values.configPath, &cfg); err != nil {
			return Config{}, err
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "size":
			cfg.Size = values.cfg.Size
		case "delimiters":
			cfg.Delimiters = unescape(values.cfg.Delimiters)
			cfg.delimitersSet = true
		case "pattern":
			cfg.Pattern = unescape(values.cfg.Pattern)
			cfg.patternSet = true
		case "prefix":
			cfg.Prefix = values.cfg.Prefix
		case "consecutive":
			cfg.Consecutive = values.cfg.Consecutive
		case "forward-fallback":
			cfg.ForwardFallback = values.cfg.ForwardFallback
		case "format":
			cfg.Format = values.cfg.Format
		case "separator":
			cfg.Separator = unescape(values.cfg.Separator)
		case "jobs":
			cfg.Jobs = values.cfg.Jobs
		case "stream":
			cfg.Stream = values.cfg.Stream
		case "check-utf8":
			cfg.CheckUTF8 = values.cfg.CheckUTF8
		}
	})

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Format {
	case formatOffsets, formatJSONL, formatText:
	default:
		return fmt.Errorf("%w: %q", errUnknownFormat, c.Format)
	}

	if c.Jobs < 1 {
		c.Jobs = 1
	}

	// surface option errors before any input is read
	_, err := memchunk.NewFinder(c.options()...)

	return err
}

// options converts the configuration to chunker options. Each chosen mode
// becomes an option, so choosing both fails validation.
func (c *Config) options() []memchunk.Option {
	opts := []memchunk.Option{
		memchunk.WithTargetSize(c.Size),
		memchunk.WithPrefix(c.Prefix),
		memchunk.WithConsecutive(c.Consecutive),
		memchunk.WithForwardFallback(c.ForwardFallback),
	}

	if c.delimitersSet {
		opts = append(opts, memchunk.WithDelimiters([]byte(c.Delimiters)))
	}

	if c.patternSet {
		opts = append(opts, memchunk.WithPattern([]byte(c.Pattern)))
	}

	return opts
}

var unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t", `\r`, "\r")

// unescape expands the backslash escapes accepted on the command line.
func unescape(s string) string {
	return unescaper.Replace(s)
}

var escaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

func escape(s string) string {
	return escaper.Replace(s)
}
