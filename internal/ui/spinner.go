package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// ErrCanceled is returned by SpinnerRunner.Run after Ctrl+C.
var ErrCanceled = fmt.Errorf("cancelled by user: %w", context.Canceled)

type stepDoneMsg struct {
	err error
}

type stepModel struct {
	spinner  spinner.Model
	title    string
	cancel   context.CancelFunc
	err      error
	done     bool
	canceled bool
}

func (m stepModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The program keeps running until the task reports back.
		if msg.Type == tea.KeyCtrlC && !m.canceled {
			m.canceled = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepDoneMsg:
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	default:
		return m, nil
	}
}

func (m stepModel) View() string {
	switch {
	case m.done && (m.canceled || m.err != nil):
		return failStyle.Render("✗ ") + textStyle.Render(m.title) + "\n"
	case m.done:
		return doneStyle.Render("✓ ") + textStyle.Render(m.title) + "\n"
	}
	if m.canceled {
		return fmt.Sprintf("%s %s %s", m.spinner.View(), textStyle.Render(m.title), failStyle.Render("(cancelling)"))
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), textStyle.Render(m.title))
}

// SpinnerRunner draws a spinner on Out while each step runs. Log output
// written through Hold is buffered during the step and released after the
// spinner line is finalised, so the two never interleave.
//
// Ctrl+C cancels the step's context; Run still waits for the task to return.
type SpinnerRunner struct {
	Out  io.Writer
	In   io.Reader
	Hold *HoldWriter
}

func (r SpinnerRunner) Run(ctx context.Context, title string, task func(ctx context.Context) error) error {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	if r.Hold != nil {
		r.Hold.Hold()
		defer r.Hold.Release()
	}

	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := stepModel{
		spinner: s,
		title:   title,
		cancel:  cancel,
	}

	opts := []tea.ProgramOption{tea.WithOutput(r.Out)}
	if r.In != nil {
		opts = append(opts, tea.WithInput(r.In))
	}
	p := tea.NewProgram(m, opts...)

	result := make(chan error, 1)
	go func() {
		err := task(stepCtx)
		result <- err
		p.Send(stepDoneMsg{err: err})
	}()

	finalModel, runErr := p.Run()
	if runErr != nil {
		cancel()
	}
	taskErr := <-result
	if runErr != nil {
		return runErr
	}

	fm, ok := finalModel.(stepModel)
	if !ok {
		return fmt.Errorf("internal error: invalid model type")
	}
	if fm.canceled && !errors.Is(taskErr, context.Canceled) {
		if taskErr != nil {
			return fmt.Errorf("%w: %w", ErrCanceled, taskErr)
		}
		return ErrCanceled
	}
	return taskErr
}
