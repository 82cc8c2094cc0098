package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	pshttp "github.com/ligustah/pageslurp/internal/http"
	"github.com/ligustah/pageslurp/internal/progress"
	"github.com/ligustah/pageslurp/internal/transcode"
	"github.com/ligustah/pageslurp/internal/work"
)

// Defaults applied to zero RunConfig fields.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultRetryDelay   = 3 * time.Second
)

// Fetcher retrieves the raw bytes at url, sending referer as the Referer
// header. Implementations must not retry.
type Fetcher interface {
	Fetch(ctx context.Context, url, referer string) ([]byte, error)
}

// RunConfig configures a run.
type RunConfig struct {
	// Format is the output format: jpeg, png, webp or tiff.
	Format string

	// Force re-downloads images whose output file already exists.
	Force bool

	// SourceURL is the page the work was resolved from, sent as Referer.
	SourceURL string

	// OutputDir is the parent of the per-work directory.
	OutputDir string

	// MaxRetries is the number of retry passes after the first pass.
	MaxRetries int

	// FetchTimeout bounds each fetch.
	// Default: 10s
	FetchTimeout time.Duration

	// RetryDelay is the fixed wait before each retry pass.
	// Default: 3s
	RetryDelay time.Duration

	// Quality is the JPEG quality.
	// Default: 80
	Quality int

	// Workers is the number of jobs processed at once.
	// Default: 1
	Workers int

	// Fetcher overrides the HTTP client.
	Fetcher Fetcher

	// Progress receives job events.
	Progress progress.Reporter

	// Logger receives diagnostics.
	// Default: slog.Default()
	Logger *slog.Logger
}

// State is the terminal state of a run.
type State int

const (
	// Succeeded means every job has an output file.
	Succeeded State = iota
	// PartiallyFailed means retries ran out with jobs still failing.
	PartiallyFailed
)

func (s State) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case PartiallyFailed:
		return "partially failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of a run.
type Result struct {
	RunID     string
	State     State
	Total     int
	Skipped   int
	Completed int
	Bytes     int64
	Passes    int
	Failed    []work.Failure
	Elapsed   time.Duration
}

// Run downloads every image of w into cfg.OutputDir/w.Title. A nil or empty
// work is a no-op. The returned error is non-nil only if the run could not
// start or ctx was cancelled; in the latter case the result is still
// returned.
func Run(ctx context.Context, w *work.Work, cfg RunConfig) (*Result, error) {
	format, err := transcode.ParseFormat(cfg.Format)
	if err != nil {
		return nil, categorize(ErrConfig, err)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: negative retry count %d", ErrConfig, cfg.MaxRetries)
	}

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Progress == nil {
		cfg.Progress = progress.Nop{}
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = pshttp.NewClient(pshttp.Options{
			MaxIdleConnsPerHost: cfg.Workers,
			Timeout:             cfg.FetchTimeout,
		})
	}

	runID := uuid.NewString()
	if w.Empty() {
		cfg.Logger.Info("nothing to download", "run_id", runID)
		return &Result{RunID: runID, State: Succeeded}, nil
	}

	jobs, err := work.Normalize(w, cfg.OutputDir, format.Ext(), cfg.MaxRetries+1)
	if err != nil {
		if errors.Is(err, work.ErrDuplicateFilename) {
			return nil, categorize(ErrConfig, err)
		}
		return nil, categorize(ErrFilesystem, err)
	}

	r := &runner{
		cfg:    cfg,
		format: format,
		log:    cfg.Logger.With("run_id", runID, "title", w.Title),
		result: &Result{RunID: runID, Total: len(jobs)},
	}

	if rr, ok := cfg.Progress.(progress.RunReporter); ok {
		rr.RunStarted(progress.RunInfo{
			RunID:     runID,
			Title:     w.Title,
			Total:     len(jobs),
			Format:    format.String(),
			Force:     cfg.Force,
			SourceURL: cfg.SourceURL,
		})
	}

	start := time.Now()
	runErr := r.run(ctx, jobs)
	r.result.Elapsed = time.Since(start)

	cfg.Progress.Summary(progress.Summary{
		Title:     w.Title,
		Total:     r.result.Total,
		Skipped:   r.result.Skipped,
		Completed: r.result.Completed,
		Bytes:     r.result.Bytes,
		Passes:    r.result.Passes,
		Failed:    r.result.Failed,
		Elapsed:   r.result.Elapsed,
	})

	r.log.Info("run finished",
		"state", r.result.State.String(),
		"total", r.result.Total,
		"saved", r.result.Completed,
		"skipped", r.result.Skipped,
		"failed", len(r.result.Failed),
		"passes", r.result.Passes,
	)

	return r.result, runErr
}

type runner struct {
	cfg    RunConfig
	format transcode.Format
	log    *slog.Logger
	result *Result
}

// outcome is what became of one job in one pass.
type outcome struct {
	skipped bool
	size    int64
	err     error
}

// run drives passes until none fail or retries run out.
func (r *runner) run(ctx context.Context, jobs []work.Job) error {
	pending := jobs
	retries := r.cfg.MaxRetries

	for pass := 1; ; pass++ {
		r.result.Passes = pass
		r.log.Debug("pass started", "pass", pass, "jobs", len(pending))

		failed, errs := r.runPass(ctx, pending, pass == 1)
		if len(failed) == 0 {
			r.result.State = Succeeded
			return nil
		}

		if retries == 0 || ctx.Err() != nil {
			r.fail(failed, errs)
			return ctx.Err()
		}

		retries--
		r.log.Info("retrying failed images",
			"pass", pass+1,
			"pending", len(failed),
			"retries_left", retries,
			"delay", r.cfg.RetryDelay,
		)
		if rr, ok := r.cfg.Progress.(progress.RetryReporter); ok {
			rr.Retrying(progress.Retry{
				Pass:      pass + 1,
				Pending:   len(failed),
				Remaining: retries,
				Delay:     r.cfg.RetryDelay,
			})
		}

		if err := wait(ctx, r.cfg.RetryDelay); err != nil {
			r.fail(failed, errs)
			return err
		}

		for i := range failed {
			failed[i].AttemptsRemaining--
		}
		pending = failed
	}
}

func (r *runner) fail(jobs []work.Job, errs []error) {
	r.result.State = PartiallyFailed
	r.result.Failed = make([]work.Failure, len(jobs))
	for i, job := range jobs {
		r.result.Failed[i] = work.NewFailure(job, errs[i])
	}
}

// runPass processes jobs and returns the ones that failed, in order, with
// their errors. The existence gate applies only when gate is set.
func (r *runner) runPass(ctx context.Context, jobs []work.Job, gate bool) ([]work.Job, []error) {
	var (
		failed []work.Job
		errs   []error
	)

	record := func(job work.Job, o outcome) {
		switch {
		case o.skipped:
			r.result.Skipped++
			r.cfg.Progress.Skipped(job)
		case o.err == nil:
			r.result.Completed++
			r.result.Bytes += o.size
			r.cfg.Progress.Succeeded(job, o.size)
		default:
			failed = append(failed, job)
			errs = append(errs, o.err)
			r.cfg.Progress.Failed(job, o.err.Error())
		}
	}

	if r.cfg.Workers == 1 {
		for _, job := range jobs {
			if gate && r.exists(job) {
				record(job, outcome{skipped: true})
				continue
			}
			r.cfg.Progress.Started(job)
			record(job, r.process(ctx, job))
		}
		return failed, errs
	}

	// Workers finish in any order; results are delivered in job order.
	results := make([]chan outcome, len(jobs))
	for i := range results {
		results[i] = make(chan outcome, 1)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				job := jobs[i]
				if gate && r.exists(job) {
					results[i] <- outcome{skipped: true}
					continue
				}
				results[i] <- r.process(ctx, job)
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := range jobs {
			indices <- i
		}
	}()

	for i, job := range jobs {
		o := <-results[i]
		if !o.skipped {
			r.cfg.Progress.Started(job)
		}
		record(job, o)
	}
	wg.Wait()

	return failed, errs
}

// exists is the existence gate: presence alone counts, content is not
// inspected.
func (r *runner) exists(job work.Job) bool {
	if r.cfg.Force {
		return false
	}
	_, err := os.Stat(job.Path)
	return err == nil
}

// process fetches and transcodes one job. On failure the destination is
// removed before the error is returned.
func (r *runner) process(ctx context.Context, job work.Job) (o outcome) {
	log := r.log.With("file", job.Filename())

	defer func() {
		if o.err == nil {
			return
		}
		log.Debug("job failed", "url", job.Location(), "error", o.err)
		if err := cleanup(job.Path); err != nil {
			log.Error("cannot remove failed output", "path", job.Path, "error", err)
			o.err = errors.Join(o.err, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return outcome{err: categorize(ErrNetwork, err)}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	data, err := r.cfg.Fetcher.Fetch(fetchCtx, job.Location(), r.cfg.SourceURL)
	if err != nil {
		return outcome{err: categorize(ErrNetwork, err)}
	}

	size, err := transcode.WriteFile(data, r.format, job.Path, transcode.Options{Quality: r.cfg.Quality})
	if err != nil {
		return outcome{err: categorize(ErrTranscode, err)}
	}

	log.Debug("saved", "path", job.Path, "size", size)
	return outcome{size: size}
}

// cleanup removes path. A missing file is not an error.
func cleanup(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return categorize(ErrFilesystem, err)
	}
	return nil
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
