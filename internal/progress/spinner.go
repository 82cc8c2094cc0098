package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ligustah/pageslurp/internal/work"
)

// Spinner renders a spinner next to the page being fetched, using a
// bubbletea program that owns the output while the run is active.
type Spinner struct {
	out io.Writer

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewSpinner creates a spinner reporter writing to out (os.Stderr if nil).
func NewSpinner(out io.Writer) *Spinner {
	if out == nil {
		out = os.Stderr
	}
	return &Spinner{out: out}
}

type (
	jobMsg struct {
		job    work.Job
		kind   string
		size   int64
		reason string
	}
	retryMsg   Retry
	summaryMsg Summary
)

// RunStarted starts the bubbletea program.
func (s *Spinner) RunStarted(info RunInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program != nil {
		return
	}

	m := newSpinnerModel(info)
	s.program = tea.NewProgram(m,
		tea.WithInput(nil),
		tea.WithOutput(s.out),
		tea.WithoutSignalHandler(),
	)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if _, err := s.program.Run(); err != nil {
			fmt.Fprintf(s.out, "[pageslurp] progress display failed: %v\n", err)
		}
	}()
}

func (s *Spinner) Started(job work.Job) { s.send(jobMsg{job: job, kind: "started"}) }
func (s *Spinner) Skipped(job work.Job) { s.send(jobMsg{job: job, kind: "skipped"}) }

func (s *Spinner) Succeeded(job work.Job, size int64) {
	s.send(jobMsg{job: job, kind: "succeeded", size: size})
}

func (s *Spinner) Failed(job work.Job, message string) {
	s.send(jobMsg{job: job, kind: "failed", reason: message})
}

func (s *Spinner) Retrying(r Retry) { s.send(retryMsg(r)) }

// Summary ends the program and prints the final status.
func (s *Spinner) Summary(sum Summary) {
	s.mu.Lock()
	p, done := s.program, s.done
	s.mu.Unlock()

	if p != nil {
		p.Send(summaryMsg(sum))
		<-done
	}
	printSummary(s.out, sum)
}

func (s *Spinner) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

type spinnerModel struct {
	info    RunInfo
	spinner spinner.Model
	current string
	done    int
	failed  int
	bytes   int64
	notice  string
	quit    bool
}

func newSpinnerModel(info RunInfo) spinnerModel {
	return spinnerModel{
		info: info,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(warnStyle),
		),
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case jobMsg:
		switch msg.kind {
		case "started":
			m.current = msg.job.Filename()
		case "skipped":
			m.done++
		case "succeeded":
			m.done++
			m.bytes += msg.size
		case "failed":
			m.failed++
		}
		return m, nil
	case retryMsg:
		m.failed = 0
		m.notice = fmt.Sprintf("retrying %d after %s", msg.Pending, formatDuration(msg.Delay))
		return m, nil
	case summaryMsg:
		m.quit = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s [%d/%d] %s", m.spinner.View(), m.info.Title, m.done, m.info.Total, formatBytes(m.bytes))
	if m.current != "" {
		b.WriteString(mutedStyle.Render(" " + m.current + "." + m.info.Format))
	}
	if m.failed > 0 {
		b.WriteString(" " + errStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	}
	if m.notice != "" {
		b.WriteString(" " + warnStyle.Render(m.notice))
	}
	b.WriteString("\n")
	return b.String()
}
