package transcode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 12))
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 20), B: 128, A: 255})
		}
	}
	return img
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"jpeg", JPEG},
		{"PNG", PNG},
		{" webp ", WebP},
		{"tiff", TIFF},
	}

	for _, tt := range tests {
		result, err := ParseFormat(tt.input)
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tt.input, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestParseFormatInvalid(t *testing.T) {
	for _, input := range []string{"", "gif", "jpg", "bmp"} {
		if _, err := ParseFormat(input); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("ParseFormat(%q): expected ErrUnsupportedFormat, got %v", input, err)
		}
	}
}

func TestWriteFileAllFormats(t *testing.T) {
	data := testPNG(t)
	dir := t.TempDir()

	for _, f := range Formats() {
		t.Run(string(f), func(t *testing.T) {
			path := filepath.Join(dir, "01."+f.Ext())

			size, err := WriteFile(data, f, path, Options{})
			if err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if size <= 0 {
				t.Fatalf("expected positive size, got %d", size)
			}

			out, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if int64(len(out)) != size {
				t.Errorf("expected %d bytes on disk, got %d", size, len(out))
			}

			cfg, name, err := image.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if name != string(f) {
				t.Errorf("expected %s output, got %s", f, name)
			}
			if cfg.Width != 16 || cfg.Height != 12 {
				t.Errorf("expected 16x12, got %dx%d", cfg.Width, cfg.Height)
			}
		})
	}

	assertNoPending(t, dir)
}

func TestWriteFileDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01.jpeg")

	for _, data := range [][]byte{nil, []byte("<html>not an image</html>")} {
		_, err := WriteFile(data, JPEG, path, Options{})
		if !errors.Is(err, ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no output file, got %v", err)
	}
	assertNoPending(t, dir)
}

func TestWriteFileUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteFile(testPNG(t), Format("gif"), filepath.Join(dir, "01.gif"), Options{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	assertNoPending(t, dir)
}

func TestWriteFileReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01.png")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	if _, err := WriteFile(testPNG(t), PNG, path, Options{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	out, _ := os.ReadFile(path)
	if _, _, err := image.DecodeConfig(bytes.NewReader(out)); err != nil {
		t.Errorf("expected stale file to be replaced by a valid image: %v", err)
	}
}

func TestPendingDiscard(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "01.png")

	p, err := createPending(dest)
	if err != nil {
		t.Fatalf("createPending: %v", err)
	}
	p.Write([]byte("partial"))
	p.Discard()
	p.Discard()

	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("expected no destination file, got %v", err)
	}
	assertNoPending(t, dir)
}

func TestPendingCommitEmpty(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "01.png")

	p, err := createPending(dest)
	if err != nil {
		t.Fatalf("createPending: %v", err)
	}
	defer p.Discard()

	if _, err := p.Commit(); !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("expected ErrEmptyOutput, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("expected no destination file, got %v", err)
	}
}

func assertNoPending(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.part"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) > 0 {
		t.Errorf("expected no pending files, found %v", matches)
	}
}
