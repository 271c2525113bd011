// memchunk splits text files into chunks near a target size, cutting at
// delimiter bytes or a literal pattern where possible, and prints the
// chunk offsets, JSON lines, or the chunk text.
//
// Files are chunked concurrently and reported in argument order. With no
// file arguments, or "-", standard input is read.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var values flagValues

	fs := newFlagSet(&values)
	fs.SetOutput(stderr)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, fs)

			return nil
		}

		return err
	}

	if help, _ := fs.GetBool("help"); help {
		printHelp(stderr, fs)

		return nil
	}

	cfg, err := resolveConfig(fs, &values)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if values.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	paths := fs.Args()
	if len(paths) == 0 {
		paths = []string{"-"}
	}

	p := &processor{
		cfg:    cfg,
		logger: logger,
		stdin:  stdin,
	}

	return p.run(ctx, paths, stdout)
}

func printHelp(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `memchunk splits text into chunks near a target size at semantic boundaries.

Usage:
  memchunk [flags] [file ...]

With no file, or when file is -, read standard input.

Flags:
%s`, fs.FlagUsages())
}
