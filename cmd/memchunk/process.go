package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/kalbasit/memchunk"
)

// fileChunks is the chunking result of one input.
type fileChunks struct {
	path   string
	size   int
	chunks []memchunk.Chunk
}

// processor chunks inputs concurrently and writes results in input order.
type processor struct {
	cfg    Config
	logger *slog.Logger
	stdin  io.Reader
}

// errStdinTwice is returned when "-" is given more than once; standard
// input can only be read by one worker.
var errStdinTwice = errors.New("standard input given more than once")

// lastIndex returns the index of the last occurrence of v in s, or -1.
func lastIndex[S ~[]E, E comparable](s S, v E) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == v {
			return i
		}
	}

	return -1
}

func (p *processor) run(ctx context.Context, paths []string, out io.Writer) error {
	if slices.Index(paths, "-") != lastIndex(paths, "-") {
		return errStdinTwice
	}

	results := make([]fileChunks, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Jobs)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			res, err := p.chunkInput(path)
			if err != nil {
				return fmt.Errorf("chunk %s: %w", path, err)
			}

			p.logger.Debug("chunked input", "file", path, "bytes", res.size, "chunks", len(res.chunks))
			results[i] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	w := bufio.NewWriter(out)

	for _, res := range results {
		if err := p.write(w, res); err != nil {
			return err
		}
	}

	return w.Flush()
}

// chunkInput reads one input and chunks it.
func (p *processor) chunkInput(path string) (fileChunks, error) {
	var r io.Reader = p.stdin

	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fileChunks{}, err
		}
		defer f.Close()

		r = f
	}

	var (
		chunks []memchunk.Chunk
		err    error
	)

	if p.cfg.Stream {
		chunks, err = p.chunkStream(r)
	} else {
		chunks, err = p.chunkBuffer(r)
	}

	if err != nil {
		return fileChunks{}, err
	}

	res := fileChunks{path: path, chunks: chunks}
	if len(chunks) > 0 {
		res.size = chunks[len(chunks)-1].End
	}

	if p.cfg.CheckUTF8 {
		p.checkUTF8(res)
	}

	return res, nil
}

// chunkBuffer reads the whole input and iterates a Chunker over it.
func (p *processor) chunkBuffer(r io.Reader) ([]memchunk.Chunk, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	chunker, err := memchunk.NewChunker(data, p.cfg.options()...)
	if err != nil {
		return nil, err
	}
	defer chunker.Close()

	var chunks []memchunk.Chunk
	for chunk := range chunker.All() {
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// chunkStream chunks the input without reading it into memory first.
func (p *processor) chunkStream(r io.Reader) ([]memchunk.Chunk, error) {
	s, err := memchunk.NewStreamChunker(r, p.cfg.options()...)
	if err != nil {
		return nil, err
	}

	var chunks []memchunk.Chunk

	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			return chunks, nil
		}

		if err != nil {
			return nil, err
		}

		// Data is only valid until the next call
		chunk.Data = append([]byte(nil), chunk.Data...)
		chunks = append(chunks, chunk)
	}
}

func (p *processor) checkUTF8(res fileChunks) {
	for i, chunk := range res.chunks {
		if !utf8.Valid(chunk.Data) {
			p.logger.Warn("chunk is not valid UTF-8",
				"file", res.path,
				"index", i,
				"start", chunk.Start,
				"end", chunk.End,
				"kind", chunk.Kind.String(),
			)
		}
	}
}

// jsonChunk is one line of --format jsonl output. A chunk that is valid
// UTF-8 is emitted as text; any other chunk is emitted as base64 in data,
// since JSON strings cannot carry invalid UTF-8.
type jsonChunk struct {
	File  string `json:"file"`
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  string `json:"kind"`
	Text  string `json:"text,omitempty"`
	Data  []byte `json:"data,omitempty"`
}

func newJSONChunk(path string, index int, chunk memchunk.Chunk) jsonChunk {
	c := jsonChunk{
		File:  path,
		Index: index,
		Start: chunk.Start,
		End:   chunk.End,
		Kind:  chunk.Kind.String(),
	}

	if utf8.Valid(chunk.Data) {
		c.Text = string(chunk.Data)
	} else {
		c.Data = chunk.Data
	}

	return c
}

func (p *processor) write(w io.Writer, res fileChunks) error {
	switch p.cfg.Format {
	case formatJSONL:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)

		for i, chunk := range res.chunks {
			if err := enc.Encode(newJSONChunk(res.path, i, chunk)); err != nil {
				return err
			}
		}
	case formatText:
		for _, chunk := range res.chunks {
			if _, err := w.Write(chunk.Data); err != nil {
				return err
			}

			if _, err := io.WriteString(w, p.cfg.Separator); err != nil {
				return err
			}
		}
	default:
		for _, chunk := range res.chunks {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
				res.path, chunk.Start, chunk.End, chunk.Len(), chunk.Kind); err != nil {
				return err
			}
		}
	}

	return nil
}
