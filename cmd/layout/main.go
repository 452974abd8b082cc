// Command layout computes a force-directed layout for a graph document.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/onnwee/force-layout/internal/config"
	"github.com/onnwee/force-layout/internal/layout"
	"github.com/onnwee/force-layout/internal/logger"
)

type options struct {
	in         string
	out        string
	iterations int
	seed       uint64
	seeded     bool
	pretty     bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute a force-directed layout for a graph document",
		Long: `Reads a JSON graph document ({"nodes":[...],"links":[...],"params":{...}}),
runs the simulation until it converges or the iteration budget is spent,
and writes the node positions as JSON.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.seeded = cmd.Flags().Changed("seed")

			in, closeIn, err := openInput(opts.in, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeIn()

			out, closeOut, err := openOutput(opts.out, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := runLayout(cmd.Context(), config.Load(), in, out, opts); err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVar(&opts.in, "in", "-", "Graph document to read ('-' for stdin)")
	cmd.Flags().StringVar(&opts.out, "out", "-", "Where to write the result ('-' for stdout)")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "Tick budget, overriding the document and LAYOUT_ITERATIONS")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Seed for deterministic placement, overriding the document")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the JSON output")

	return cmd
}

// runLayout decodes a graph from in, computes it and encodes the result to out.
func runLayout(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, opts options) error {
	if opts.iterations < 0 {
		return fmt.Errorf("--iterations must not be negative, got %d", opts.iterations)
	}

	var g layout.Graph
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&g); err != nil {
		return fmt.Errorf("decode graph document: %w", err)
	}
	if opts.iterations > 0 {
		g.Params.Iterations = opts.iterations
	}
	if opts.seeded {
		seed := opts.seed
		g.Params.Seed = &seed
	}

	svc := layout.NewService(nil, layout.OptionsFromConfig(cfg))
	res, err := svc.Compute(ctx, &g)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func openInput(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// Logs go to stderr so stdout carries only the result.
	logger.InitWithWriter(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("Layout failed", "error", err)
		stop()
		os.Exit(1)
	}
}
