package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/ligustah/pageslurp/internal/work"
)

var (
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Options configures the Bar reporter.
type Options struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to redraw the bar.
	// Default: 200ms
	UpdateInterval time.Duration

	// Width is the width of the bar in cells.
	// Default: 50
	Width int
}

// Bar draws a single progress bar that is redrawn on an interval.
type Bar struct {
	opts Options
	bar  progress.Model

	mu         sync.Mutex
	total      atomic.Int32
	done       atomic.Int32
	failed     atomic.Int32
	bytes      atomic.Int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	stopCh     chan struct{}
	loopDone   chan struct{}
	started    bool
	stopped    bool
}

// NewBar creates a new bar reporter.
func NewBar(opts Options) *Bar {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 200 * time.Millisecond
	}
	if opts.Width <= 0 {
		opts.Width = 50
	}

	return &Bar{
		opts: opts,
		bar: progress.New(
			progress.WithFillCharacters('█', ' '),
			progress.WithSolidFill("42"),
			progress.WithWidth(opts.Width),
			progress.WithoutPercentage(),
		),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// RunStarted prints the run header and starts redrawing.
func (r *Bar) RunStarted(info RunInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	r.total.Store(int32(info.Total))
	r.startTime = time.Now()
	r.lastUpdate = r.startTime

	fmt.Fprintf(r.opts.Output, "[pageslurp] Downloading %d images of %s\n", info.Total, info.Title)
	if info.Force {
		fmt.Fprintf(r.opts.Output, "[pageslurp] %s, images will be converted to %s\n",
			warnStyle.Render("Force overwriting existing files"), warnStyle.Render(info.Format))
	} else {
		fmt.Fprintf(r.opts.Output, "[pageslurp] Images will be converted to %s\n", warnStyle.Render(info.Format))
	}

	go r.updateLoop()
}

// Started is a no-op; the bar only counts finished jobs.
func (r *Bar) Started(work.Job) {}

// Skipped counts an already present job as done.
func (r *Bar) Skipped(work.Job) {
	r.done.Add(1)
}

// Succeeded counts a written job as done.
func (r *Bar) Succeeded(_ work.Job, size int64) {
	r.bytes.Add(size)
	r.done.Add(1)
}

// Failed counts a failure. Failed jobs may still complete in a later pass.
func (r *Bar) Failed(work.Job, string) {
	r.failed.Add(1)
}

// Retrying announces the next pass. The bar keeps its done count.
func (r *Bar) Retrying(rt Retry) {
	r.failed.Store(0)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.opts.Output, "\n[pageslurp] %s\n",
		warnStyle.Render(fmt.Sprintf("%d failed, retrying after %s (%d retries left)",
			rt.Pending, formatDuration(rt.Delay), rt.Remaining)))
}

// Summary stops redrawing and prints the final status.
func (r *Bar) Summary(s Summary) {
	r.stop()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		r.printBar(r.opts.Output)
		fmt.Fprintln(r.opts.Output)
	}
	printSummary(r.opts.Output, s)
}

func (r *Bar) stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	close(r.stopCh)
	if started {
		<-r.loopDone
	}
}

// updateLoop periodically redraws the bar.
func (r *Bar) updateLoop() {
	defer close(r.loopDone)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.mu.Lock()
			r.printBar(r.opts.Output)
			r.mu.Unlock()
		}
	}
}

// printBar draws the current state. Callers hold r.mu.
func (r *Bar) printBar(w io.Writer) {
	now := time.Now()
	total := int(r.total.Load())
	done := int(r.done.Load())
	failed := int(r.failed.Load())
	completed := r.bytes.Load()

	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(completed-r.lastBytes) / elapsed
	r.lastUpdate = now
	r.lastBytes = completed

	var percent float64
	if total > 0 {
		percent = float64(done) / float64(total)
	}

	line := fmt.Sprintf("\r  ├%s┤ %.1f%% [%d/%d] %s/s",
		r.bar.ViewAs(percent),
		percent*100,
		done,
		total,
		formatBytes(int64(speed)),
	)
	if failed > 0 {
		line += " " + errStyle.Render(fmt.Sprintf("%d failed", failed))
	}
	fmt.Fprint(w, line+"    ")
}

func printSummary(w io.Writer, s Summary) {
	if s.OK() {
		fmt.Fprintf(w, "[pageslurp] %s %d saved, %d skipped in %s\n",
			okStyle.Render("Download complete:"),
			s.Completed, s.Skipped, formatDuration(s.Elapsed))
		return
	}

	fmt.Fprintf(w, "[pageslurp] %s %d saved, %d skipped, %d failed in %s\n",
		errStyle.Render("Download incomplete:"),
		s.Completed, s.Skipped, len(s.Failed), formatDuration(s.Elapsed))
	for _, f := range s.Failed {
		fmt.Fprintf(w, "    %s %s %s\n", f.Filename, f.Location, mutedStyle.Render(f.Error))
	}
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// FormatBytes is exported for use by other packages.
func FormatBytes(b int64) string {
	return formatBytes(b)
}

// ParseBytes parses a human-readable byte string (e.g., "64MB").
func ParseBytes(s string) (int64, error) {
	var multiplier int64 = 1
	s = trimSuffix(s, " ")

	switch {
	case hasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "KB"):
		multiplier = 1024
		s = s[:len(s)-2]
	case hasSuffix(s, "B"):
		s = s[:len(s)-1]
	}

	var value float64
	_, err := fmt.Sscanf(s, "%f", &value)
	if err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", s)
	}

	return int64(value * float64(multiplier)), nil
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func trimSuffix(s, suffix string) string {
	for hasSuffix(s, suffix) {
		s = s[:len(s)-len(suffix)]
	}
	return s
}
