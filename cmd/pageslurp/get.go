package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gocloud.dev/blob"

	"github.com/ligustah/pageslurp/internal/config"
	pshttp "github.com/ligustah/pageslurp/internal/http"
	"github.com/ligustah/pageslurp/internal/mirror"
	"github.com/ligustah/pageslurp/internal/pipeline"
	"github.com/ligustah/pageslurp/internal/resolver"
	"github.com/ligustah/pageslurp/internal/transcode"
	"github.com/ligustah/pageslurp/internal/work"
)

// runGet resolves a work and downloads its images into the output
// directory, converting each one to the configured format. Images already
// on disk are skipped and failures are retried in later passes.
func runGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ExitOnError)

	outputDir := fs.String("output-dir", "", "Directory the work directory is created in (default \"pageslurp\")")
	fs.StringVar(outputDir, "o", "", "Shorthand for -output-dir")
	force := fs.Bool("force", false, "Re-download images that already exist")
	fs.BoolVar(force, "f", false, "Shorthand for -force")
	ext := fs.String("ext", "", "Output format: jpeg, png, webp or tiff (default \"jpeg\")")
	retry := fs.Int("retry", 0, "Retry passes after the first one (default 3)")
	fs.IntVar(retry, "r", 0, "Shorthand for -retry")
	retryDelay := fs.Duration("retry-delay", 0, "Wait before each retry pass (default 3s)")
	timeout := fs.Duration("timeout", 0, "Timeout for each image request (default 10s)")
	workers := fs.Int("workers", 0, "Images fetched at once (default 1)")
	progressStyle := fs.String("progress", "", "Progress display: bar, spinner, log or none (default \"bar\")")
	info := fs.Bool("info", false, "Print the resolved work and exit")
	fs.BoolVar(info, "i", false, "Shorthand for -info")
	configPath := fs.String("config", "", "YAML configuration file")
	publish := fs.String("publish", "", "Bucket URL to publish the work to after downloading")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: pageslurp get [options] <manifest>

Download every image of a work and convert it to one format. The manifest
is a YAML or JSON file, given as a path or a file:// or http(s):// URL.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one manifest is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	source := fs.Arg(0)

	visited := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { visited[f.Name] = true })

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{
		OutputDir: *outputDir,
		Format:    *ext,
		Force:     *force,
		Workers:   *workers,
		Progress:  *progressStyle,
		Fetch:     config.FetchConfig{Timeout: *timeout},
		Retry:     config.RetryConfig{Delay: *retryDelay},
		Publish:   config.PublishConfig{Bucket: *publish},
	})
	// Zero retries is meaningful, so Merge cannot carry it.
	if visited["retry"] || visited["r"] {
		cfg.Retry.Attempts = *retry
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	logger := newLogger(cfg)

	ctx, cancel := signalContext("download")
	defer cancel()

	client := pshttp.NewClient(cfg.HTTPOptions())
	w, err := resolver.New(client).Resolve(ctx, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", source, err)
		return ExitSourceNotAccess
	}

	if *info {
		resolver.PrintInfo(os.Stdout, source, w)
		return ExitSuccess
	}
	if w.Empty() {
		fmt.Fprintln(os.Stderr, "[pageslurp] Nothing to download")
		return ExitSuccess
	}

	rc := cfg.RunConfig(w.Source)
	rc.Fetcher = client
	rc.Progress = newReporter(cfg)
	rc.Logger = logger

	result, err := pipeline.Run(ctx, w, rc)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			fmt.Fprintln(os.Stderr, "[pageslurp] Download interrupted, run again to resume")
			return ExitInterrupted
		case errors.Is(err, pipeline.ErrConfig):
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitInvalidArgs
		case errors.Is(err, pipeline.ErrFilesystem):
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitGeneralError
		}
	}

	if result.State != pipeline.Succeeded {
		return ExitPartialFailure
	}

	if cfg.Publish.Bucket != "" {
		return publishWork(ctx, logger, cfg, w, map[string]string{
			"run_id": result.RunID,
			"source": w.Source,
		})
	}

	return ExitSuccess
}

// publishWork mirrors a downloaded work into cfg.Publish.Bucket.
func publishWork(ctx context.Context, logger *slog.Logger, cfg config.Config, w *work.Work, metadata map[string]string) int {
	format, err := transcode.ParseFormat(cfg.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	bkt, err := blob.OpenBucket(ctx, cfg.Publish.Bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata["published_at"] = time.Now().UTC().Format(time.RFC3339)

	start := time.Now()
	result, err := mirror.Publish(ctx, bkt, cfg.OutputDir, w, format,
		mirror.WithForce(cfg.Force),
		mirror.WithMetadata(metadata),
		mirror.WithLogger(logger),
	)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "[pageslurp] Publish interrupted")
			return ExitInterrupted
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Fprintf(os.Stderr, "[pageslurp] Published %s: %d uploaded, %d unchanged in %s\n",
		w.Title, result.Uploaded, result.Skipped, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "[pageslurp] Manifest: %s/%s\n", cfg.Publish.Bucket, mirror.ManifestPath(w.Title))

	if len(result.Missing) > 0 {
		fmt.Fprintf(os.Stderr, "[pageslurp] %d pages missing locally:\n", len(result.Missing))
		for _, path := range result.Missing {
			fmt.Fprintf(os.Stderr, "    %s\n", path)
		}
		return ExitPartialFailure
	}
	return ExitSuccess
}
