package transcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Errors returned by WriteFile.
var (
	ErrDecode      = errors.New("transcode: cannot decode image")
	ErrEmptyOutput = errors.New("transcode: encoded output is empty")
)

// DefaultQuality is the JPEG quality used when Options.Quality is unset.
const DefaultQuality = 80

// Options configures encoding.
type Options struct {
	// Quality is the JPEG quality, 1-100.
	// Default: 80
	Quality int
}

func (o Options) quality() int {
	if o.Quality <= 0 || o.Quality > 100 {
		return DefaultQuality
	}
	return o.Quality
}

// Decode decodes data as an image in any registered format. It returns the
// image and the name of the source format.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: no data", ErrDecode)
	}
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return img, name, nil
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format, opts Options) error {
	switch f {
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: opts.quality()})
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// WriteFile decodes data and writes it to path encoded as f. It returns
// the size of the written file. On error nothing is left at path by this
// call; a file already at path is only replaced on success.
func WriteFile(data []byte, f Format, path string, opts Options) (int64, error) {
	if !f.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}

	img, _, err := Decode(data)
	if err != nil {
		return 0, err
	}

	p, err := createPending(path)
	if err != nil {
		return 0, err
	}
	defer p.Discard()

	if err := Encode(p, img, f, opts); err != nil {
		return 0, fmt.Errorf("transcode: encode %s: %w", f, err)
	}

	return p.Commit()
}

// pendingFile is an output file that only becomes visible at its
// destination once committed.
type pendingFile struct {
	f    *os.File
	dest string
	done bool
}

func createPending(dest string) (*pendingFile, error) {
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("transcode: create pending file: %w", err)
	}
	return &pendingFile{f: f, dest: dest}, nil
}

func (p *pendingFile) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

// Commit flushes the pending file and renames it over the destination.
func (p *pendingFile) Commit() (int64, error) {
	if err := p.f.Sync(); err != nil {
		return 0, fmt.Errorf("transcode: sync: %w", err)
	}

	info, err := p.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("transcode: stat: %w", err)
	}
	if info.Size() == 0 {
		return 0, ErrEmptyOutput
	}

	if err := p.f.Close(); err != nil {
		return 0, fmt.Errorf("transcode: close: %w", err)
	}

	if err := os.Rename(p.f.Name(), p.dest); err != nil {
		return 0, fmt.Errorf("transcode: rename into place: %w", err)
	}
	p.done = true

	return info.Size(), nil
}

// Discard removes the pending file unless it was committed. Safe to call
// more than once.
func (p *pendingFile) Discard() {
	if p.done {
		return
	}
	p.done = true
	p.f.Close()
	os.Remove(p.f.Name())
}
