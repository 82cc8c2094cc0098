package mirror

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"github.com/ligustah/pageslurp/internal/transcode"
	"github.com/ligustah/pageslurp/internal/work"
)

func openBucket(t *testing.T) *blob.Bucket {
	t.Helper()
	bucket, err := blob.OpenBucket(context.Background(), "mem://")
	if err != nil {
		t.Fatalf("open bucket: %v", err)
	}
	t.Cleanup(func() { bucket.Close() })
	return bucket
}

// writePages creates the local files of w as Normalize would name them.
func writePages(t *testing.T, outputDir string, w *work.Work, pages map[string]string) {
	t.Helper()
	dir := w.Dir(outputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write page: %v", err)
		}
	}
}

func demoWork() *work.Work {
	return &work.Work{
		Title:  "demo",
		Images: work.Bares("http://x/a.png", "http://x/b.png", "http://x/c.png"),
	}
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	bucket := openBucket(t)
	outputDir := t.TempDir()
	w := demoWork()
	writePages(t, outputDir, w, map[string]string{
		"1.jpeg": "page one",
		"2.jpeg": "page two",
		"3.jpeg": "page three",
	})

	result, err := Publish(ctx, bucket, outputDir, w, transcode.JPEG,
		WithMetadata(map[string]string{"run_id": "abc"}))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.Uploaded != 3 || result.Skipped != 0 || len(result.Missing) != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Bytes != int64(len("page one")+len("page two")+len("page three")) {
		t.Errorf("unexpected bytes %d", result.Bytes)
	}

	data, err := bucket.ReadAll(ctx, "demo/2.jpeg")
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	if string(data) != "page two" {
		t.Errorf("unexpected page content %q", data)
	}
	attrs, err := bucket.Attributes(ctx, "demo/2.jpeg")
	if err != nil {
		t.Fatalf("attributes: %v", err)
	}
	if attrs.ContentType != "image/jpeg" {
		t.Errorf("expected content type image/jpeg, got %q", attrs.ContentType)
	}

	m, err := ReadManifest(ctx, bucket, "demo")
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m.Title != "demo" || m.Format != "jpeg" {
		t.Errorf("unexpected manifest header %+v", m)
	}
	if len(m.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(m.Pages))
	}
	if m.Pages[0].Object != "1.jpeg" || m.Pages[0].Location != "http://x/a.png" {
		t.Errorf("unexpected first page %+v", m.Pages[0])
	}
	if m.Pages[0].Checksum == "" || m.Pages[0].Checksum == m.Pages[1].Checksum {
		t.Errorf("unexpected checksums %q %q", m.Pages[0].Checksum, m.Pages[1].Checksum)
	}
	if m.Metadata["run_id"] != "abc" {
		t.Errorf("expected run_id metadata, got %v", m.Metadata)
	}
	if m.CompletedAt.IsZero() {
		t.Error("expected completed_at to be set")
	}
}

func TestPublishSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	bucket := openBucket(t)
	outputDir := t.TempDir()
	w := demoWork()
	writePages(t, outputDir, w, map[string]string{
		"1.jpeg": "page one",
		"2.jpeg": "page two",
		"3.jpeg": "page three",
	})

	if _, err := Publish(ctx, bucket, outputDir, w, transcode.JPEG); err != nil {
		t.Fatalf("first Publish: %v", err)
	}

	writePages(t, outputDir, w, map[string]string{"2.jpeg": "page two, again"})

	result, err := Publish(ctx, bucket, outputDir, w, transcode.JPEG)
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if result.Uploaded != 1 || result.Skipped != 2 {
		t.Errorf("expected 1 uploaded and 2 skipped, got %+v", result)
	}

	result, err = Publish(ctx, bucket, outputDir, w, transcode.JPEG, WithForce(true))
	if err != nil {
		t.Fatalf("forced Publish: %v", err)
	}
	if result.Uploaded != 3 || result.Skipped != 0 {
		t.Errorf("expected forced publish to upload all pages, got %+v", result)
	}
}

func TestPublishReuploadsDeletedPage(t *testing.T) {
	ctx := context.Background()
	bucket := openBucket(t)
	outputDir := t.TempDir()
	w := demoWork()
	writePages(t, outputDir, w, map[string]string{
		"1.jpeg": "page one",
		"2.jpeg": "page two",
		"3.jpeg": "page three",
	})

	if _, err := Publish(ctx, bucket, outputDir, w, transcode.JPEG); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	if err := bucket.Delete(ctx, "demo/3.jpeg"); err != nil {
		t.Fatalf("delete page: %v", err)
	}

	result, err := Publish(ctx, bucket, outputDir, w, transcode.JPEG)
	if err != nil {
		t.Fatalf("second Publish: %v", err)
	}
	if result.Uploaded != 1 || result.Skipped != 2 {
		t.Errorf("expected the deleted page to be uploaded again, got %+v", result)
	}
}

func TestPublishMissingPages(t *testing.T) {
	ctx := context.Background()
	bucket := openBucket(t)
	outputDir := t.TempDir()
	w := demoWork()
	writePages(t, outputDir, w, map[string]string{"1.jpeg": "page one"})

	result, err := Publish(ctx, bucket, outputDir, w, transcode.JPEG)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(result.Missing) != 2 {
		t.Errorf("expected 2 missing pages, got %v", result.Missing)
	}
	if len(result.Manifest.Pages) != 1 {
		t.Errorf("expected manifest with 1 page, got %d", len(result.Manifest.Pages))
	}
}

func TestPublishErrors(t *testing.T) {
	ctx := context.Background()
	bucket := openBucket(t)

	if _, err := Publish(ctx, bucket, t.TempDir(), nil, transcode.JPEG); err == nil {
		t.Error("expected error for empty work")
	}
	_, err := Publish(ctx, bucket, t.TempDir(), demoWork(), transcode.Format("gif"))
	if !errors.Is(err, transcode.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	bucket := openBucket(t)
	outputDir := t.TempDir()
	w := demoWork()
	writePages(t, outputDir, w, map[string]string{
		"1.jpeg": "page one",
		"2.jpeg": "page two",
		"3.jpeg": "page three",
	})
	if _, err := Publish(ctx, bucket, outputDir, w, transcode.JPEG); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	result, err := Validate(ctx, bucket, "demo")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid {
		t.Errorf("expected valid, got invalid: %v", result.Errors)
	}
	if result.PageCount != 3 {
		t.Errorf("expected 3 pages, got %d", result.PageCount)
	}

	if err := bucket.Delete(ctx, "demo/1.jpeg"); err != nil {
		t.Fatalf("delete page: %v", err)
	}
	if err := bucket.WriteAll(ctx, "demo/2.jpeg", []byte("short"), nil); err != nil {
		t.Fatalf("overwrite page: %v", err)
	}

	result, err = Validate(ctx, bucket, "demo")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Error("expected invalid")
	}
	if result.MissingPages != 1 {
		t.Errorf("expected 1 missing page, got %d", result.MissingPages)
	}
	if result.SizeMismatches != 1 {
		t.Errorf("expected 1 size mismatch, got %d", result.SizeMismatches)
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 errors, got %v", result.Errors)
	}
}

func TestValidateNoManifest(t *testing.T) {
	_, err := Validate(context.Background(), openBucket(t), "nothing")
	if gcerrors.Code(err) != gcerrors.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	bucket := openBucket(t)
	outputDir := t.TempDir()
	w := demoWork()
	writePages(t, outputDir, w, map[string]string{
		"1.jpeg": "page one",
		"2.jpeg": "page two",
		"3.jpeg": "page three",
	})
	if _, err := Publish(ctx, bucket, outputDir, w, transcode.JPEG); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := bucket.WriteAll(ctx, "other/1.jpeg", []byte("keep"), nil); err != nil {
		t.Fatalf("write other: %v", err)
	}
	// Already-missing pages do not stop deletion.
	if err := bucket.Delete(ctx, "demo/1.jpeg"); err != nil {
		t.Fatalf("delete page: %v", err)
	}

	if err := Delete(ctx, bucket, "demo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, key := range []string{"demo/1.jpeg", "demo/2.jpeg", "demo/3.jpeg", "demo/manifest.json"} {
		exists, err := bucket.Exists(ctx, key)
		if err != nil {
			t.Fatalf("Exists(%s): %v", key, err)
		}
		if exists {
			t.Errorf("expected %s to be deleted", key)
		}
	}
	if exists, _ := bucket.Exists(ctx, "other/1.jpeg"); !exists {
		t.Error("expected unrelated object to survive")
	}
}

func TestDeleteNoManifest(t *testing.T) {
	err := Delete(context.Background(), openBucket(t), "nothing")
	if gcerrors.Code(err) != gcerrors.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}
