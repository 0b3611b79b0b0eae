// Command extsort sorts newline-delimited text, reading from a file or
// stdin and writing to a file or stdout, using the external sort engine
// to bound memory regardless of input size.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/bsm/extsort"
	"github.com/bsm/extsort/buffer"
)

func main() {
	app := &cli.App{
		Name:  "extsort",
		Usage: "sort newline-delimited text too large to fit in memory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "input file (default stdin)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output file (default stdout)"},
			&cli.StringFlag{Name: "tmp-dir", Usage: "root directory for run files (default OS temp dir)"},
			&cli.StringFlag{Name: "memory", Value: "256MiB", Usage: "approximate memory budget per sort buffer"},
			&cli.IntFlag{Name: "threads", Value: 4, Usage: "number of concurrent sort/spill workers"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "extsort:", err)
		os.Exit(1)
	}
}

func run(cctx *cli.Context) error {
	budget, err := humanize.ParseBytes(cctx.String("memory"))
	if err != nil {
		return fmt.Errorf("invalid --memory value: %w", err)
	}

	var logger *zap.Logger
	if cctx.Bool("verbose") {
		logger, err = zap.NewDevelopment()
	} else {
		logger = zap.NewNop()
	}
	if err != nil {
		return err
	}
	defer logger.Sync()

	in := os.Stdin
	if path := cctx.String("input"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	out := io.Writer(os.Stdout)
	if path := cctx.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	input := readLines(ctx, in)
	sizer := func(s string) int64 { return int64(len(s)) + 16 }

	sorted, errc := extsort.Strings(ctx, input,
		extsort.WithThreads[string](cctx.Int("threads")),
		extsort.WithTempDir[string](cctx.String("tmp-dir")),
		extsort.WithBuffer[string](buffer.NewMemoryBuilder(int64(budget), sizer)),
		extsort.WithLogger[string](logger),
	)

	w := bufio.NewWriter(out)
	for line := range sorted {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return <-errc
}

func readLines(ctx context.Context, r io.Reader) <-chan extsort.Result[string] {
	out := make(chan extsort.Result[string])
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case out <- extsort.Result[string]{Value: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			out <- extsort.Result[string]{Err: err}
		}
	}()
	return out
}
