package progress

import (
	"time"

	"github.com/ligustah/pageslurp/internal/work"
)

// Reporter receives per-job lifecycle events and the final summary.
type Reporter interface {
	Started(job work.Job)
	Skipped(job work.Job)
	Succeeded(job work.Job, size int64)
	Failed(job work.Job, message string)
	Summary(s Summary)
}

// RunInfo describes a run as it starts.
type RunInfo struct {
	RunID     string
	Title     string
	Total     int
	Format    string
	Force     bool
	SourceURL string
}

// RunReporter is implemented by reporters that want to know when a run
// starts.
type RunReporter interface {
	RunStarted(info RunInfo)
}

// Retry describes a scheduled retry pass.
type Retry struct {
	Pass      int           // number of the pass about to run, starting at 2
	Pending   int           // jobs that will be attempted again
	Remaining int           // retries left after this one
	Delay     time.Duration // wait before the pass starts
}

// RetryReporter is implemented by reporters that want to know about retry
// passes.
type RetryReporter interface {
	Retrying(r Retry)
}

// Summary is the final accounting of a run.
type Summary struct {
	Title     string
	Total     int
	Skipped   int
	Completed int
	Bytes     int64
	Passes    int
	Failed    []work.Failure
	Elapsed   time.Duration
}

// OK reports whether every job ended with an output file.
func (s Summary) OK() bool {
	return len(s.Failed) == 0
}

// Nop is a Reporter that discards all events.
type Nop struct{}

func (Nop) Started(work.Job) {}
func (Nop) Skipped(work.Job) {}
func (Nop) Succeeded(work.Job, int64) {}
func (Nop) Failed(work.Job, string) {}
func (Nop) Summary(Summary) {}
