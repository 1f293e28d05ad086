package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/thiremani/synthgraph/compiler"
	"github.com/thiremani/synthgraph/lexer"
	"github.com/thiremani/synthgraph/parser"
	"github.com/thiremani/synthgraph/render"
	"github.com/thiremani/synthgraph/store"
	"github.com/thiremani/synthgraph/token"
)

var WAV_SUFFIX = ".wav"

const (
	DUMP_TOKENS = "tokens"
	DUMP_AST    = "ast"
	DUMP_GRAPH  = "graph"
)

type options struct {
	output  string
	rate    int
	seconds float64
	bits    int
	play    bool
	dump    string
	noCache bool
	history int
	verbose bool
	version bool
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}
	fs := flag.NewFlagSet("synthgraph", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: synthgraph [flags] program.sg")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.output, "o", "", "output WAV path (default: program name with .wav)")
	fs.IntVar(&opts.rate, "rate", 48000, "sample rate in Hz")
	fs.Float64Var(&opts.seconds, "seconds", 4, "duration to render")
	fs.IntVar(&opts.bits, "bits", 16, "PCM bit depth (16 or 24)")
	fs.BoolVar(&opts.play, "play", false, "play to the default audio device instead of writing a file")
	fs.StringVar(&opts.dump, "dump", "", "print tokens, ast or graph and exit")
	fs.BoolVar(&opts.noCache, "nocache", false, "always render, bypassing the render cache")
	fs.IntVar(&opts.history, "history", 0, "list the N most recent renders and exit")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	if opts.version {
		printVersion(stdout)
		return 0
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cacheDir := defaultCacheDir()
	logger.Debug("cache directory", "path", cacheDir)

	if opts.history > 0 {
		if err := printHistory(stdout, cacheDir, opts.history); err != nil {
			fmt.Fprintf(stderr, "Error reading render history: %v\n", err)
			return 1
		}
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	text, err := compiler.ReadSource(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if opts.dump != "" {
		out, err := dump(opts.dump, text, logger)
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			return 1
		}
		fmt.Fprintln(stdout, out)
		return 0
	}

	if err := validate(opts); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	res, err := compiler.CompileSource(text, compiler.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", path, err)
		return 1
	}
	frames := render.FrameCount(opts.seconds, opts.rate)

	if opts.play {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err := render.Play(ctx, render.New(res, opts.rate), frames)
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "Error playing %s: %v\n", path, err)
			return 1
		}
		return 0
	}

	out := opts.output
	if out == "" {
		out = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + WAV_SUFFIX
	}

	rec, err := renderToFile(res, text, out, frames, opts, cacheDir, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error rendering %s: %v\n", path, err)
		return 1
	}
	rec.Source = path
	recordRender(cacheDir, rec, logger)

	fmt.Fprintf(stdout, "wrote %s (%d frames, peak %.3f)\n", out, frames, rec.Peak)
	return 0
}

func validate(opts *options) error {
	if opts.rate <= 0 {
		return fmt.Errorf("-rate must be positive, got %d", opts.rate)
	}
	if opts.seconds <= 0 {
		return fmt.Errorf("-seconds must be positive, got %g", opts.seconds)
	}
	if !render.SupportedBitDepth(opts.bits) {
		return fmt.Errorf("-bits must be 16 or 24, got %d", opts.bits)
	}
	return nil
}

// dump returns the text of one pipeline stage.
func dump(mode, text string, logger *slog.Logger) (string, error) {
	switch mode {
	case DUMP_TOKENS:
		tokens, err := lexer.Tokenize(text)
		if err != nil {
			return "", err
		}
		return token.Format(tokens), nil

	case DUMP_AST:
		tokens, err := lexer.Tokenize(text)
		if err != nil {
			return "", err
		}
		program, err := parser.Parse(tokens)
		if err != nil {
			return "", err
		}
		return program.String(), nil

	case DUMP_GRAPH:
		res, err := compiler.CompileSource(text, compiler.WithLogger(logger))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%soutputs: left %d, right %d", res.Synth, res.Left, res.Right), nil
	}
	return "", fmt.Errorf("unknown dump mode %q (want %s, %s or %s)", mode, DUMP_TOKENS, DUMP_AST, DUMP_GRAPH)
}

// renderToFile writes the render to out, through the render cache unless
// disabled, and returns the catalog row describing it.
func renderToFile(res *compiler.Result, text, out string, frames int, opts *options,
	cacheDir string, logger *slog.Logger) (store.Render, error) {
	key := renderKey{text: text, sampleRate: opts.rate, frames: frames, bitDepth: opts.bits}
	rec := store.Render{
		SampleRate: opts.rate,
		Frames:     frames,
		BitDepth:   opts.bits,
		Output:     out,
	}

	produce := func(dst string) (float64, error) {
		samples := render.New(res, opts.rate).Render(frames)
		return render.Peak(samples), render.WriteWAVFile(dst, samples, opts.rate, opts.bits)
	}

	if opts.noCache {
		peak, err := produce(out)
		if err != nil {
			return rec, err
		}
		_, rec.Hash = key.hashes()
		rec.Peak = peak
		return rec, nil
	}

	cached, err := newRenderCache(cacheDir, logger).prepare(key, produce, render.PeakWAV)
	if err != nil {
		return rec, err
	}
	if err := publishRender(cached.path, out); err != nil {
		return rec, fmt.Errorf("copy cached render: %w", err)
	}
	rec.Hash = cached.fullHash
	rec.Peak = cached.peak
	rec.CacheHit = cached.hit
	return rec, nil
}

// recordRender appends rec to the catalog. Failures are logged, not fatal.
func recordRender(cacheDir string, rec store.Render, logger *slog.Logger) {
	if abs, err := filepath.Abs(rec.Output); err == nil {
		rec.Output = abs
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logger.Warn("render not recorded", "err", err)
		return
	}
	catalog, err := store.Open(filepath.Join(cacheDir, CATALOG_DB))
	if err != nil {
		logger.Warn("render not recorded", "err", err)
		return
	}
	defer catalog.Close()
	if _, err := catalog.Record(rec); err != nil {
		logger.Warn("render not recorded", "err", err)
	}
}

func printHistory(w io.Writer, cacheDir string, n int) error {
	catalog, err := store.Open(filepath.Join(cacheDir, CATALOG_DB))
	if err != nil {
		return err
	}
	defer catalog.Close()

	renders, err := catalog.Recent(n)
	if err != nil {
		return err
	}
	for _, r := range renders {
		cached := ""
		if r.CacheHit {
			cached = " (cached)"
		}
		fmt.Fprintf(w, "%s  %s -> %s  %dHz %dbit %d frames peak %.3f%s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Output,
			r.SampleRate, r.BitDepth, r.Frames, r.Peak, cached)
	}
	return nil
}

// publishRender copies a cached render to dst through a temporary file in
// dst's directory, so dst is either left alone or fully replaced.
func publishRender(src, dst string) error {
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
