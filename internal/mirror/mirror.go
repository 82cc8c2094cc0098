package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/ligustah/pageslurp/internal/transcode"
	"github.com/ligustah/pageslurp/internal/work"
)

// ManifestName is the object name of the manifest inside a work prefix.
const ManifestName = "manifest.json"

// Manifest describes a published work.
type Manifest struct {
	Title       string            `json:"title"`
	Format      string            `json:"format"`
	Pages       []Page            `json:"pages"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Page describes a single published image. Object is relative to the
// work prefix.
type Page struct {
	Object   string `json:"object"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum,omitempty"`
	Location string `json:"location,omitempty"`
}

// Options configures Publish.
type Options struct {
	Force    bool
	Metadata map[string]string
	Logger   *slog.Logger
}

// Option is a functional option for configuring Publish.
type Option func(*Options)

// WithForce uploads every page even if the bucket already holds it.
func WithForce(force bool) Option {
	return func(o *Options) {
		o.Force = force
	}
}

// WithMetadata sets caller-defined metadata stored in the manifest.
func WithMetadata(metadata map[string]string) Option {
	return func(o *Options) {
		o.Metadata = metadata
	}
}

// WithLogger sets the logger for per-page diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// PublishResult summarizes a Publish call.
type PublishResult struct {
	Uploaded int
	Skipped  int
	Missing  []string // local files that did not exist
	Bytes    int64    // bytes uploaded
	Manifest *Manifest
}

// Prefix returns the object prefix of the work titled title.
func Prefix(title string) string {
	return title + "/"
}

// ManifestPath returns the manifest object of the work titled title.
func ManifestPath(title string) string {
	return Prefix(title) + ManifestName
}

// Publish uploads the pages of w found under outputDir and then writes the
// manifest. Pages missing locally are left out of the manifest and reported
// in the result. Pages whose remote copy matches the previous manifest are
// not uploaded again unless forced.
func Publish(ctx context.Context, bucket *blob.Bucket, outputDir string, w *work.Work, format transcode.Format, options ...Option) (*PublishResult, error) {
	opts := Options{Logger: slog.Default()}
	for _, o := range options {
		o(&opts)
	}

	if w.Empty() {
		return nil, errors.New("mirror: nothing to publish")
	}
	if !format.Valid() {
		return nil, fmt.Errorf("mirror: %w: %q", transcode.ErrUnsupportedFormat, format)
	}

	jobs, err := work.Plan(w, outputDir, format.Ext(), 0)
	if err != nil {
		return nil, fmt.Errorf("mirror: %w", err)
	}

	previous := make(map[string]Page)
	if !opts.Force {
		m, err := ReadManifest(ctx, bucket, w.Title)
		switch {
		case err == nil:
			for _, p := range m.Pages {
				previous[p.Object] = p
			}
		case !isNotExist(err):
			return nil, err
		}
	}

	prefix := Prefix(w.Title)
	log := opts.Logger.With("title", w.Title)
	result := &PublishResult{
		Manifest: &Manifest{
			Title:    w.Title,
			Format:   format.String(),
			Pages:    make([]Page, 0, len(jobs)),
			Metadata: opts.Metadata,
		},
	}

	for _, job := range jobs {
		data, err := os.ReadFile(job.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				result.Missing = append(result.Missing, job.Path)
				continue
			}
			return nil, fmt.Errorf("mirror: read page: %w", err)
		}

		page := Page{
			Object:   job.Filename() + "." + format.Ext(),
			Size:     int64(len(data)),
			Checksum: checksum(data),
			Location: job.Location(),
		}
		result.Manifest.Pages = append(result.Manifest.Pages, page)

		if prev, ok := previous[page.Object]; ok && prev.Checksum == page.Checksum {
			attrs, err := bucket.Attributes(ctx, prefix+page.Object)
			if err == nil && attrs.Size == page.Size {
				log.Debug("page unchanged", "object", page.Object)
				result.Skipped++
				continue
			}
			if err != nil && !isNotExist(err) {
				return nil, fmt.Errorf("mirror: check page %s: %w", page.Object, err)
			}
		}

		err = bucket.WriteAll(ctx, prefix+page.Object, data, &blob.WriterOptions{
			ContentType: format.ContentType(),
		})
		if err != nil {
			return nil, fmt.Errorf("mirror: upload page %s: %w", page.Object, err)
		}
		log.Debug("page uploaded", "object", page.Object, "size", page.Size)
		result.Uploaded++
		result.Bytes += page.Size
	}

	result.Manifest.CompletedAt = time.Now().UTC()
	manifestData, err := json.MarshalIndent(result.Manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mirror: marshal manifest: %w", err)
	}
	err = bucket.WriteAll(ctx, ManifestPath(w.Title), manifestData, &blob.WriterOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("mirror: write manifest: %w", err)
	}

	return result, nil
}

// ReadManifest reads the manifest of the work titled title. A missing
// manifest yields an error wrapping gcerrors.NotFound.
func ReadManifest(ctx context.Context, bucket *blob.Bucket, title string) (*Manifest, error) {
	data, err := bucket.ReadAll(ctx, ManifestPath(title))
	if err != nil {
		return nil, fmt.Errorf("mirror: read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("mirror: unmarshal manifest: %w", err)
	}
	return &m, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// isNotExist returns true if the error indicates the object doesn't exist.
func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
