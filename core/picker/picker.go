package picker

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mdlkit/mdlkit/core/locator"
)

// ErrNoSelection is returned when the user dismisses the picker without
// choosing a model file. Callers treat it as "terminated early", the
// only fatal condition the tools recognize.
var ErrNoSelection = errors.New("no model file selected")

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// pickModel wraps the bubbles filepicker, restricted to model files.
type pickModel struct {
	fp       filepicker.Model
	selected string
	quitting bool
	notice   string
}

func newPickModel(startDir string) pickModel {
	fp := filepicker.New()
	fp.AllowedTypes = locator.Extensions
	fp.CurrentDirectory = startDir
	return pickModel{fp: fp}
}

func (m pickModel) Init() tea.Cmd {
	return m.fp.Init()
}

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.fp, cmd = m.fp.Update(msg)

	if ok, path := m.fp.DidSelectFile(msg); ok {
		m.selected = path
		return m, tea.Quit
	}
	if ok, path := m.fp.DidSelectDisabledFile(msg); ok {
		m.notice = fmt.Sprintf("%s is not a model file", path)
	}

	return m, cmd
}

func (m pickModel) View() string {
	if m.quitting || m.selected != "" {
		return ""
	}
	view := titleStyle.Render("Select a model file") + "\n\n" + m.fp.View()
	if m.notice != "" {
		view += "\n" + errStyle.Render(m.notice)
	}
	view += "\n" + hintStyle.Render("enter: select • q: cancel")
	return view
}

// ChooseModel runs the interactive picker rooted at startDir and
// returns the chosen model file path.
func ChooseModel(startDir string) (string, error) {
	p := tea.NewProgram(newPickModel(startDir))
	result, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("picker failed: %w", err)
	}

	final, ok := result.(pickModel)
	if !ok || final.selected == "" {
		return "", ErrNoSelection
	}
	return final.selected, nil
}
