package main

import (
	"flag"
	"fmt"
	"os"

	"gocloud.dev/blob"

	"github.com/ligustah/pageslurp/internal/mirror"
)

// runValidate checks that every page of a published work exists with the
// size recorded in its manifest. Page data is not downloaded.
func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)

	bucket := fs.String("bucket", "", "Bucket URL (required)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: pageslurp validate -bucket <url> <title>

Verify that a published work is complete and all pages exist with correct
sizes. Only metadata is read.

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

	ctx, cancel := signalContext("validate")
	defer cancel()

	bkt, err := blob.OpenBucket(ctx, *bucket)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening bucket: %v\n", err)
		return ExitStorageError
	}
	defer bkt.Close()

	result, err := mirror.Validate(ctx, bkt, title)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Printf("Work: %s\n", title)
	fmt.Printf("Pages: %d\n", result.PageCount)
	fmt.Printf("Total size: %d bytes\n", result.TotalSize)

	if result.Valid {
		fmt.Println("Status: VALID")
		return ExitSuccess
	}

	fmt.Println("Status: INVALID")
	fmt.Printf("Missing pages: %d\n", result.MissingPages)
	fmt.Printf("Size mismatches: %d\n", result.SizeMismatches)

	if len(result.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	return ExitValidationFailed
}
