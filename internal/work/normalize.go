package work

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrDuplicateFilename is returned by Normalize when two images would be
// written to the same file.
var ErrDuplicateFilename = errors.New("work: duplicate filename")

// PadWidth returns the zero-padding width used for a work of total images.
func PadWidth(total int) int {
	return len(strconv.Itoa(total))
}

// SequenceName returns the filename for the image at index (0-based) in a
// work of total images.
func SequenceName(index, total int) string {
	return fmt.Sprintf("%0*d", PadWidth(total), index+1)
}

// Dir returns the directory the pages of w are written to.
func (w *Work) Dir(outputDir string) string {
	return filepath.Join(outputDir, w.Title)
}

// Normalize converts the images of w into jobs writing to
// outputDir/title/filename.ext, in input order. Each job starts with
// attempts tries. The destination directory is created if needed.
func Normalize(w *Work, outputDir, ext string, attempts int) ([]Job, error) {
	jobs, err := Plan(w, outputDir, ext, attempts)
	if err != nil || len(jobs) == 0 {
		return jobs, err
	}

	dir := w.Dir(outputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("work: create directory %s: %w", dir, err)
	}
	return jobs, nil
}

// Plan is Normalize without touching the filesystem.
func Plan(w *Work, outputDir, ext string, attempts int) ([]Job, error) {
	if w.Empty() {
		return nil, nil
	}

	dir := w.Dir(outputDir)
	total := len(w.Images)
	jobs := make([]Job, 0, total)
	seen := make(map[string]int, total)

	for i, ref := range w.Images {
		if !ref.IsDescriptor() {
			ref = ImageRef{
				Index:    i,
				Filename: SequenceName(i, total),
				Location: EncodeURI(ref.Location),
			}
		}

		if prev, ok := seen[ref.Filename]; ok {
			return nil, fmt.Errorf("%w: %q used by images %d and %d", ErrDuplicateFilename, ref.Filename, prev, i)
		}
		seen[ref.Filename] = i

		jobs = append(jobs, Job{
			Ref:               ref,
			Path:              filepath.Join(dir, ref.Filename+"."+ext),
			AttemptsRemaining: attempts,
		})
	}

	return jobs, nil
}
