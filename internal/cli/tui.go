package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	bprogress "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/nodeflow/pkg/progress"
)

// =============================================================================
// LoadModel - progress view for long loads
// =============================================================================

// snapshotMsg carries a progress update from the loading goroutine.
type snapshotMsg progress.Snapshot

// finishedMsg ends the program once the job returned.
type finishedMsg struct{ err error }

// loadModel is the bubbletea model showing a progress bar for a job that
// reports through a progress.Reporter.
type loadModel struct {
	label    string
	bar      bprogress.Model
	snap     progress.Snapshot
	err      error
	finished bool
	aborted  bool
}

func newLoadModel(label string) loadModel {
	return loadModel{
		label: label,
		bar:   bprogress.New(bprogress.WithDefaultGradient(), bprogress.WithWidth(40)),
	}
}

func (m loadModel) Init() tea.Cmd {
	return nil
}

func (m loadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		}
	case snapshotMsg:
		m.snap = progress.Snapshot(msg)
	case finishedMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-len(m.label)-16, 10), 60)
	}
	return m, nil
}

func (m loadModel) View() string {
	if m.finished || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(styleDim.Render(m.label))
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(m.snap.Fraction()))
	b.WriteString(" ")
	b.WriteString(styleNumber.Render(fmt.Sprintf("%d/%d", m.snap.Current, m.snap.Goal)))
	if n := len(m.snap.Messages); n > 0 {
		b.WriteString("\n")
		b.WriteString(styleDim.Render(m.snap.Messages[n-1]))
	}
	b.WriteString("\n")
	return b.String()
}

// runWithProgress runs job while a progress bar on w follows the reporter
// handed to it. It returns job's error, or context.Canceled if the user
// quit the view first.
func runWithProgress(ctx context.Context, w io.Writer, label string, job func(progress.Reporter) error) error {
	p := tea.NewProgram(newLoadModel(label), tea.WithOutput(w), tea.WithContext(ctx))

	go func() {
		rep := progress.NewFunc(func(s progress.Snapshot) { p.Send(snapshotMsg(s)) })
		p.Send(finishedMsg{err: job(rep)})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	m := final.(loadModel)
	if m.aborted {
		return context.Canceled
	}
	return m.err
}
