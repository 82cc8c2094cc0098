package mirror

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
)

// Delete removes a published work: every page listed in its manifest, then
// the manifest itself. Pages already gone are ignored.
func Delete(ctx context.Context, bucket *blob.Bucket, title string) error {
	manifest, err := ReadManifest(ctx, bucket, title)
	if err != nil {
		return err
	}

	prefix := Prefix(title)
	for _, page := range manifest.Pages {
		path := prefix + page.Object
		if err := bucket.Delete(ctx, path); err != nil && !isNotExist(err) {
			return fmt.Errorf("mirror: delete page %s: %w", path, err)
		}
	}

	if err := bucket.Delete(ctx, ManifestPath(title)); err != nil {
		return fmt.Errorf("mirror: delete manifest: %w", err)
	}

	return nil
}
