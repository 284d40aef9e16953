// Command shapecheck loads a TFLite model, allocates its tensors and prints the
// input and output tensor details.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"tflite-inspector/internal/adapters/secondary/httpfetch"
	"tflite-inspector/internal/config"
	"tflite-inspector/internal/core/interpreter"
	"tflite-inspector/internal/logger"
	"tflite-inspector/internal/report"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("shapecheck", pflag.ExitOnError)
	fs.StringP("model", "m", "", "path or http(s) URL of the .tflite model (env MODEL_PATH)")
	fs.StringP("format", "f", "", "report format: text or json (env REPORT_FORMAT)")
	fs.Int("subgraph", 0, "subgraph to inspect (env MODEL_SUBGRAPH)")
	fs.Int64("max-bytes", 0, "reject models larger than this (env MODEL_MAX_BYTES)")
	fs.String("log-level", "", "log level (env LOGGER_LEVEL)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: shapecheck [flags] [model.tflite]")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() > 0 {
		_ = fs.Set("model", fs.Arg(0))
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.Init(cfg.Logger)

	if err := run(context.Background(), cfg, os.Stdout); err != nil {
		log.Fatalf("inspect %s: %v", cfg.Model.Path, err)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	start := time.Now()

	it, err := load(ctx, cfg)
	if err != nil {
		return err
	}

	plan, err := it.AllocateTensors()
	if err != nil {
		return fmt.Errorf("allocate tensors: %w", err)
	}

	log.WithFields(log.Fields{
		"model":       cfg.Model.Path,
		"subgraph":    cfg.Model.Subgraph,
		"arena_bytes": plan.ArenaBytes,
		"elapsed_ms":  time.Since(start).Milliseconds(),
	}).Debug("tensors allocated")

	return report.Write(out, cfg.Model.ReportFormat, report.Report{
		Model:      cfg.Model.Path,
		Summary:    it.Summary(),
		Allocation: plan,
		Inputs:     it.InputDetails(),
		Outputs:    it.OutputDetails(),
		Signatures: it.SignatureList(),
	})
}

func load(ctx context.Context, cfg *config.Config) (*interpreter.Interpreter, error) {
	path := cfg.Model.Path
	opt := interpreter.WithSubgraph(cfg.Model.Subgraph)

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		data, err := httpfetch.NewClient(cfg.Fetch.Timeout).Fetch(ctx, path, cfg.Model.MaxBytes)
		if err != nil {
			return nil, err
		}
		return interpreter.LoadBytes(data, opt)
	}
	return interpreter.LoadFile(path, cfg.Model.MaxBytes, opt)
}
