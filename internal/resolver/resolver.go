package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ligustah/pageslurp/internal/work"
)

// Common errors.
var (
	ErrUnsupportedSource = errors.New("resolver: unsupported source")
	ErrNoTitle           = errors.New("resolver: work has no title")
)

// Fetcher retrieves remote manifests.
type Fetcher interface {
	Fetch(ctx context.Context, url, referer string) ([]byte, error)
}

// Resolver loads works from manifests.
type Resolver struct {
	fetcher Fetcher
}

// New returns a Resolver that uses f for http(s) sources. f may be nil if
// only local manifests are resolved.
func New(f Fetcher) *Resolver {
	return &Resolver{fetcher: f}
}

// Resolve loads the manifest at source. It returns nil when the manifest
// lists no images.
func (r *Resolver) Resolve(ctx context.Context, source string) (*work.Work, error) {
	data, err := r.read(ctx, source)
	if err != nil {
		return nil, err
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	if w != nil && w.Source == "" && isRemote(source) {
		w.Source = source
	}
	return w, nil
}

func isRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (r *Resolver) read(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return readFile(source)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return readFile(u.Path)
	case "http", "https":
		if r.fetcher == nil {
			return nil, fmt.Errorf("%w: no fetcher for %s", ErrUnsupportedSource, source)
		}
		data, err := r.fetcher.Fetch(ctx, source, "")
		if err != nil {
			return nil, fmt.Errorf("fetch manifest: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return data, nil
}

// Parse decodes a YAML or JSON manifest.
func Parse(data []byte) (*work.Work, error) {
	var w work.Work
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if w.Empty() {
		return nil, nil
	}
	if strings.TrimSpace(w.Title) == "" {
		return nil, ErrNoTitle
	}
	return &w, nil
}

// PrintInfo writes a description of w to out.
func PrintInfo(out io.Writer, source string, w *work.Work) {
	if w.Empty() {
		fmt.Fprintf(out, "Source: %s\nNo images found\n", source)
		return
	}
	fmt.Fprintf(out, "Source: %s\n", source)
	if w.Site != "" {
		fmt.Fprintf(out, "Site:   %s\n", w.Site)
	}
	if w.Source != "" {
		fmt.Fprintf(out, "Page:   %s\n", w.Source)
	}
	fmt.Fprintf(out, "Title:  %s\n", w.Title)
	fmt.Fprintf(out, "Images: %d\n", len(w.Images))
	for i, ref := range w.Images {
		name := ref.Filename
		if name == "" {
			name = work.SequenceName(i, len(w.Images))
		}
		fmt.Fprintf(out, "  %s  %s\n", name, ref.Location)
	}
}
