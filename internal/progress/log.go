package progress

import (
	"log/slog"

	"github.com/ligustah/pageslurp/internal/work"
)

// Log writes one structured record per event. Use it when output is not a
// terminal.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log reporter. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) RunStarted(info RunInfo) {
	l.logger.Info("run started",
		"run_id", info.RunID,
		"title", info.Title,
		"images", info.Total,
		"format", info.Format,
		"force", info.Force,
	)
}

func (l *Log) Started(job work.Job) {
	l.logger.Debug("fetching", "file", job.Filename(), "url", job.Location())
}

func (l *Log) Skipped(job work.Job) {
	l.logger.Info("skipped existing", "file", job.Filename(), "path", job.Path)
}

func (l *Log) Succeeded(job work.Job, size int64) {
	l.logger.Info("saved", "file", job.Filename(), "path", job.Path, "size", formatBytes(size))
}

func (l *Log) Failed(job work.Job, message string) {
	l.logger.Warn("failed", "file", job.Filename(), "url", job.Location(), "error", message)
}

func (l *Log) Retrying(r Retry) {
	l.logger.Warn("retrying failed images",
		"pass", r.Pass,
		"pending", r.Pending,
		"retries_left", r.Remaining,
		"delay", r.Delay,
	)
}

func (l *Log) Summary(s Summary) {
	attrs := []any{
		"title", s.Title,
		"total", s.Total,
		"saved", s.Completed,
		"skipped", s.Skipped,
		"failed", len(s.Failed),
		"passes", s.Passes,
		"bytes", formatBytes(s.Bytes),
		"elapsed", s.Elapsed,
	}
	if s.OK() {
		l.logger.Info("download complete", attrs...)
		return
	}
	l.logger.Warn("download incomplete", attrs...)
	for _, f := range s.Failed {
		l.logger.Warn("unresolved image", "file", f.Filename, "url", f.Location, "error", f.Error)
	}
}
