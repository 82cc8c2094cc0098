package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// startSource serves a manifest at /work.yaml listing images /1.png to
// /n.png. Paths in missing answer 404.
func startSource(t *testing.T, n int, missing ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	data := pngBytes(t)
	var requests atomic.Int32
	gone := make(map[string]bool)
	for _, p := range missing {
		gone[p] = true
	}

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/work.yaml" {
			fmt.Fprintf(w, "site: test\ntitle: demo\nimages:\n")
			for i := 1; i <= n; i++ {
				fmt.Fprintf(w, "  - %s/%d.png\n", server.URL, i)
			}
			return
		}
		requests.Add(1)
		if gone[r.URL.Path] {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestRunUsage(t *testing.T) {
	if code := run(nil); code != ExitInvalidArgs {
		t.Errorf("expected ExitInvalidArgs without a command, got %d", code)
	}
	if code := run([]string{"help"}); code != ExitSuccess {
		t.Errorf("expected ExitSuccess for help, got %d", code)
	}
	if code := run([]string{"frobnicate"}); code != ExitInvalidArgs {
		t.Errorf("expected ExitInvalidArgs for unknown command, got %d", code)
	}
}

func TestGet(t *testing.T) {
	server, requests := startSource(t, 3)
	outputDir := t.TempDir()

	args := []string{"-o", outputDir, "-ext", "png", "-progress", "none", "-retry-delay", "10ms", server.URL + "/work.yaml"}
	if code := runGet(args); code != ExitSuccess {
		t.Fatalf("get failed with exit code %d", code)
	}

	for _, name := range []string{"1.png", "2.png", "3.png"} {
		info, err := os.Stat(filepath.Join(outputDir, "demo", name))
		if err != nil {
			t.Errorf("expected %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("expected 3 image requests, got %d", got)
	}

	// A second run finds everything on disk.
	if code := runGet(args); code != ExitSuccess {
		t.Fatalf("second get failed with exit code %d", code)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("expected no further requests, got %d", got-3)
	}
}

func TestGetPartialFailure(t *testing.T) {
	server, requests := startSource(t, 3, "/2.png")
	outputDir := t.TempDir()

	code := runGet([]string{"-o", outputDir, "-progress", "none", "-r", "1", "-retry-delay", "10ms", server.URL + "/work.yaml"})
	if code != ExitPartialFailure {
		t.Fatalf("expected ExitPartialFailure, got %d", code)
	}
	// Two passes for the missing image, one for each of the others.
	if got := requests.Load(); got != 4 {
		t.Errorf("expected 4 image requests, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "demo", "2.jpeg")); !os.IsNotExist(err) {
		t.Errorf("expected no file for the failed image, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "demo", "3.jpeg")); err != nil {
		t.Errorf("expected 3.jpeg: %v", err)
	}
}

func TestGetInfo(t *testing.T) {
	server, requests := startSource(t, 2)
	outputDir := t.TempDir()

	if code := runGet([]string{"-i", "-o", outputDir, server.URL + "/work.yaml"}); code != ExitSuccess {
		t.Fatalf("get -info failed with exit code %d", code)
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("expected no image requests, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "demo")); !os.IsNotExist(err) {
		t.Errorf("expected no work directory, got %v", err)
	}
}

func TestGetEmptyWork(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("title: empty\nimages: []\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	outputDir := t.TempDir()

	if code := runGet([]string{"-o", outputDir, path}); code != ExitSuccess {
		t.Fatalf("expected ExitSuccess, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(outputDir, "empty")); !os.IsNotExist(err) {
		t.Errorf("expected no work directory, got %v", err)
	}
}

func TestGetErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no manifest", []string{}, ExitInvalidArgs},
		{"bad format", []string{"-ext", "gif", "work.yaml"}, ExitInvalidArgs},
		{"negative retry", []string{"-retry", "-1", "work.yaml"}, ExitInvalidArgs},
		{"missing manifest", []string{"-progress", "none", filepath.Join(t.TempDir(), "missing.yaml")}, ExitSourceNotAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := runGet(tt.args); code != tt.want {
				t.Errorf("expected exit code %d, got %d", tt.want, code)
			}
		})
	}
}

func TestPublishValidateDelete(t *testing.T) {
	server, _ := startSource(t, 2)
	outputDir := t.TempDir()
	bucketURL := "file://" + t.TempDir()
	manifest := server.URL + "/work.yaml"

	if code := runGet([]string{"-o", outputDir, "-ext", "webp", "-progress", "none", "-publish", bucketURL, manifest}); code != ExitSuccess {
		t.Fatalf("get -publish failed with exit code %d", code)
	}
	if code := runValidate([]string{"-bucket", bucketURL, "demo"}); code != ExitSuccess {
		t.Fatalf("validate failed with exit code %d", code)
	}

	// Publishing again finds the pages unchanged.
	if code := runPublish([]string{"-bucket", bucketURL, "-o", outputDir, "-ext", "webp", manifest}); code != ExitSuccess {
		t.Fatalf("publish failed with exit code %d", code)
	}

	if code := runDelete([]string{"-bucket", bucketURL, "-force", "demo"}); code != ExitSuccess {
		t.Fatalf("delete failed with exit code %d", code)
	}
	if code := runValidate([]string{"-bucket", bucketURL, "demo"}); code == ExitSuccess {
		t.Fatal("validate should have failed after delete")
	}
}

func TestPublishMissingPages(t *testing.T) {
	server, _ := startSource(t, 2)
	bucketURL := "file://" + t.TempDir()

	code := runPublish([]string{"-bucket", bucketURL, "-o", t.TempDir(), server.URL + "/work.yaml"})
	if code != ExitPartialFailure {
		t.Errorf("expected ExitPartialFailure for an undownloaded work, got %d", code)
	}
}
