package pipeline

import (
	"errors"
	"fmt"
)

// Error categories. Job errors wrap exactly one of these together with the
// underlying cause, so both can be tested with errors.Is.
var (
	ErrConfig     = errors.New("pipeline: invalid configuration")
	ErrFilesystem = errors.New("pipeline: filesystem error")
	ErrNetwork    = errors.New("pipeline: network error")
	ErrTranscode  = errors.New("pipeline: transcode error")
)

func categorize(category, err error) error {
	return fmt.Errorf("%w: %w", category, err)
}

// Recoverable reports whether err may succeed on a later pass.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTranscode)
}
