package transcode

import (
	"errors"
	"fmt"
	"strings"
)

// Format is a supported output raster format. Its value doubles as the
// file extension.
type Format string

// Supported output formats.
const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	WebP Format = "webp"
	TIFF Format = "tiff"
)

// ErrUnsupportedFormat is returned for output formats other than the
// supported four.
var ErrUnsupportedFormat = errors.New("transcode: unsupported format")

// Formats returns the supported output formats.
func Formats() []Format {
	return []Format{JPEG, PNG, WebP, TIFF}
}

// ParseFormat parses a format name. Matching ignores case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedFormat, s, formatList())
	}
	return f, nil
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case JPEG, PNG, WebP, TIFF:
		return true
	}
	return false
}

// Ext returns the file extension for f, without the leading dot.
func (f Format) Ext() string {
	return string(f)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	return "image/" + string(f)
}

func (f Format) String() string {
	return string(f)
}

func formatList() string {
	names := make([]string, 0, 4)
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
