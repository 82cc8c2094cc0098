package mirror

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
)

// ValidationResult contains the results of validating a published work.
type ValidationResult struct {
	Valid          bool     // true if all pages exist and sizes match
	PageCount      int      // number of pages in manifest
	TotalSize      int64    // sum of page sizes in manifest
	MissingPages   int      // number of pages that don't exist
	SizeMismatches int      // number of pages with wrong size
	Errors         []string // detailed error messages
}

// Validate checks that every page listed in the manifest of title exists
// with the recorded size. Page contents are not downloaded.
//
// Missing pages and size mismatches are reported in the result, not as an
// error. A missing manifest is an error wrapping gcerrors.NotFound.
func Validate(ctx context.Context, bucket *blob.Bucket, title string) (*ValidationResult, error) {
	manifest, err := ReadManifest(ctx, bucket, title)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Valid:     true,
		PageCount: len(manifest.Pages),
		Errors:    make([]string, 0),
	}

	prefix := Prefix(title)
	for _, page := range manifest.Pages {
		result.TotalSize += page.Size
		path := prefix + page.Object

		attrs, err := bucket.Attributes(ctx, path)
		if err != nil {
			if isNotExist(err) {
				result.Valid = false
				result.MissingPages++
				result.Errors = append(result.Errors,
					fmt.Sprintf("page missing: %s", path))
				continue
			}
			return nil, fmt.Errorf("mirror: check page %s: %w", path, err)
		}

		if attrs.Size != page.Size {
			result.Valid = false
			result.SizeMismatches++
			result.Errors = append(result.Errors,
				fmt.Sprintf("page %s size mismatch: expected %d, got %d",
					path, page.Size, attrs.Size))
		}
	}

	return result, nil
}
