package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/pitchperfect/internal/model"
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")) // bright blue

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// SaveFunc persists the proposal and returns where it went.
type SaveFunc func(proposal string) (string, error)

type previewModel struct {
	result   *model.GenerationResult
	save     SaveFunc
	viewport viewport.Model
	width    int
	height   int
	ready    bool

	savedPath string
	saveError string
}

func (m previewModel) Init() tea.Cmd {
	return nil
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Title line, border, status bar.
		vpWidth, vpHeight := max(m.width-4, 10), max(m.height-5, 3)
		if !m.ready {
			m.viewport = viewport.New(vpWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = vpWidth
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(bodyStyle.Render(wordWrap(m.result.Proposal, vpWidth)))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			if m.save == nil {
				return m, nil
			}
			path, err := m.save(m.result.Proposal)
			if err != nil {
				m.saveError = err.Error()
				m.savedPath = ""
			} else {
				m.saveError = ""
				m.savedPath = path
			}
			return m, nil
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m previewModel) View() string {
	if !m.ready {
		return "loading..."
	}

	title := titleStyle.Render("Your Proposal") +
		metaStyle.Render(fmt.Sprintf("  template %s · %s", m.result.Template, m.result.Duration.Round(100*time.Millisecond)))

	content := borderStyle.Width(m.width - 2).Render(m.viewport.View())

	statusText := " s save  ↑/↓ scroll  q quit"
	switch {
	case m.saveError != "":
		statusText = errorStyle.Render(" save failed: "+m.saveError) + "  q quit"
	case m.savedPath != "":
		statusText = fmt.Sprintf(" saved to %s  ↑/↓ scroll  q quit", m.savedPath)
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

// RunPreview shows the proposal in a scrollable full-screen view. 's' calls
// save; the returned path is the last successful save, empty if none.
func RunPreview(result *model.GenerationResult, save SaveFunc) (string, error) {
	m := previewModel{result: result, save: save}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	return final.(previewModel).savedPath, nil
}

// wordWrap wraps each line of text to width, keeping blank lines.
func wordWrap(text string, width int) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, wrapLine(l, width))
	}
	return strings.Join(out, "\n")
}

func wrapLine(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if lipgloss.Width(line)+1+lipgloss.Width(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
