package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"gocloud.dev/blob"

	"github.com/ligustah/pageslurp/internal/mirror"
)

// runDelete removes a published work from object storage. It prompts for
// confirmation unless -force is given.
func runDelete(args []string) int {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)

	bucket := fs.String("bucket", "", "Bucket URL (required)")
	force := fs.Bool("force", false, "Skip confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: pageslurp delete [options] <title>

Remove a published work and all its pages from object storage.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}
	if *bucket == "" || fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: -bucket and a title are required")
		fs.Usage()
		return ExitInvalidArgs
	}
	title := fs.Arg(0)

	if !*force {
		fmt.Printf("Delete %s from %s? [y/N]: ", title, *bucket)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(os.Stderr, "Cancelled")
			return ExitSuccess
		}
	}

	ctx, cancel := signalContext("delete")
	defer cancel()

	bkt, err := blob.OpenBucket(ctx, *bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	if err := mirror.Delete(ctx, bkt, title); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Fprintf(os.Stderr, "[pageslurp] Deleted %s\n", title)
	return ExitSuccess
}
