package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/pitchperfect/internal/model"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ErrCancelled is returned when the user aborts a running generation.
var ErrCancelled = errors.New("cancelled")

type generateDoneMsg struct {
	result *model.GenerationResult
	err    error
}

type spinnerTickMsg struct{}

type loaderModel struct {
	label      string
	generateFn func(ctx context.Context) (*model.GenerationResult, error)
	ctx        context.Context
	cancel     context.CancelFunc
	frame      int
	result     *model.GenerationResult
	err        error
	done       bool
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doGenerate(), m.tick())
}

func (m loaderModel) doGenerate() tea.Cmd {
	ctx, generateFn := m.ctx, m.generateFn
	return func() tea.Msg {
		result, err := generateFn(ctx)
		return generateDoneMsg{result: result, err: err}
	}
}

func (m loaderModel) tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case generateDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinnerTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, m.tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.done = true
			m.err = ErrCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	spinner := lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Render(spinnerFrames[m.frame])
	return fmt.Sprintf("%s %s...\n", spinner, m.label)
}

// RunLoader shows a spinner while generateFn runs. It renders inline (no alt
// screen). ctrl+c cancels the context passed to generateFn.
func RunLoader(ctx context.Context, label string, generateFn func(ctx context.Context) (*model.GenerationResult, error)) (*model.GenerationResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := loaderModel{
		label:      label,
		generateFn: generateFn,
		ctx:        ctx,
		cancel:     cancel,
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
