package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ligustah/pageslurp/internal/config"
	pshttp "github.com/ligustah/pageslurp/internal/http"
	"github.com/ligustah/pageslurp/internal/resolver"
)

// runPublish copies an already downloaded work into object storage.
func runPublish(args []string) int {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)

	bucket := fs.String("bucket", "", "Destination bucket URL (required unless set in config)")
	outputDir := fs.String("output-dir", "", "Directory the work was downloaded into (default \"pageslurp\")")
	fs.StringVar(outputDir, "o", "", "Shorthand for -output-dir")
	ext := fs.String("ext", "", "Format the work was downloaded as (default \"jpeg\")")
	force := fs.Bool("force", false, "Upload every page even if unchanged")
	fs.BoolVar(force, "f", false, "Shorthand for -force")
	configPath := fs.String("config", "", "YAML configuration file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: pageslurp publish [options] <manifest>

Upload the downloaded pages of a work and write its manifest to object
storage. Pages whose published copy is unchanged are not uploaded again.

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

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	cfg = cfg.Merge(config.Config{
		OutputDir: *outputDir,
		Format:    *ext,
		Force:     *force,
		Publish:   config.PublishConfig{Bucket: *bucket},
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}
	if cfg.Publish.Bucket == "" {
		fmt.Fprintln(os.Stderr, "Error: -bucket is required")
		fs.Usage()
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext("publish")
	defer cancel()

	w, err := resolver.New(pshttp.NewClient(cfg.HTTPOptions())).Resolve(ctx, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving %s: %v\n", source, err)
		return ExitSourceNotAccess
	}
	if w.Empty() {
		fmt.Fprintln(os.Stderr, "[pageslurp] Nothing to publish")
		return ExitSuccess
	}

	return publishWork(ctx, newLogger(cfg), cfg, w, map[string]string{"source": w.Source})
}
