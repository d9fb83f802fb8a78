package tui

import (
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned by RunWithWork when the user quits early.
var ErrInterrupted = errors.New("interrupted")

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until the program exits. If the user quits first, onInterrupt is
// called so the caller can cancel the work, and ErrInterrupted is returned
// once workFn has returned.
func RunWithWork(out io.Writer, model ProgressModel, workFn func(send func(tea.Msg)), onInterrupt func()) error {
	p := tea.NewProgram(model, tea.WithOutput(out))
	workDone := make(chan struct{})

	go func() {
		defer close(workDone)
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)
		workFn(p.Send)
		p.Send(WorkDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	m, ok := finalModel.(ProgressModel)
	if !ok {
		return nil
	}
	if m.Interrupted() {
		if onInterrupt != nil {
			onInterrupt()
		}
		<-workDone
		return ErrInterrupted
	}
	return m.Err()
}
