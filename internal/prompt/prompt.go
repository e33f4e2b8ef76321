// Package prompt is the interactive terminal dialog for editing the HEAD
// commit message.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deixis/reword/internal/reword"
)

// ErrAborted is returned when the user closes the dialog without confirming.
var ErrAborted = errors.New("user aborted")

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

// Input is what the dialog starts from.
type Input struct {
	Message        string // current commit message
	HasStaged      bool
	IncludeStaged  bool // initial state of the toggle
	DefaultInclude bool // configured default; an unchanged message needs the toggle to differ from it
	MaxSubject     int
}

// Answer is what the user confirmed.
type Answer struct {
	Message       string
	IncludeStaged bool
}

// Model is the bubbletea model of the dialog.
type Model struct {
	input    Input
	editor   textarea.Model
	include  bool
	problem  string
	done     bool
	aborted  bool
	original string
}

// New returns a dialog pre-filled with in.Message.
func New(in Input) Model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Placeholder = "Commit message"
	ta.SetWidth(80)
	ta.SetHeight(8)
	ta.CharLimit = 0
	ta.SetValue(strings.TrimSpace(in.Message))
	ta.Focus()

	return Model{
		input:    in,
		editor:   ta,
		include:  in.IncludeStaged,
		original: in.Message,
	}
}

func (m Model) validation() reword.Validation {
	sel := reword.Selection{HasStaged: m.input.HasStaged, Include: m.include, Initial: m.input.DefaultInclude}
	return reword.Validate(m.editor.Value(), m.original, sel, m.input.MaxSubject)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model. ctrl+s confirms, tab toggles the staged
// changes option, esc and ctrl+c abort. Other keys edit the message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "ctrl+s":
			v := m.validation()
			if !v.Valid {
				m.problem = v.Problem
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		case "tab":
			if m.input.HasStaged {
				m.include = !m.include
				m.problem = ""
			}
			return m, nil
		}
	}
	m.problem = ""
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Rename current commit") + "\n")
	b.WriteString(m.editor.View() + "\n")

	if m.input.HasStaged {
		box := "[ ]"
		if m.include {
			box = "[x]"
		}
		b.WriteString(warnStyle.Render("You have staged changes.") + "\n")
		b.WriteString(fmt.Sprintf("%s Include staged changes\n", box))
	}
	if w := m.validation().Warning; w != "" {
		b.WriteString(warnStyle.Render(w) + "\n")
	}
	if m.problem != "" {
		b.WriteString(errStyle.Render(m.problem) + "\n")
	}

	help := "ctrl+s confirm • esc cancel"
	if m.input.HasStaged {
		help = "ctrl+s confirm • tab toggle staged • esc cancel"
	}
	b.WriteString(helpStyle.Render(help) + "\n")
	return b.String()
}

// Answer returns the confirmed values. ok is false unless the user
// confirmed a valid message.
func (m Model) Answer() (Answer, bool) {
	if !m.done {
		return Answer{}, false
	}
	return Answer{
		Message:       strings.TrimSpace(m.editor.Value()),
		IncludeStaged: !m.input.HasStaged || m.include,
	}, true
}

// Run shows the dialog on the given terminal streams and blocks until the
// user confirms or aborts. Nil streams use the process's stdin and stdout.
func Run(in Input, stdin io.Reader, stdout io.Writer) (Answer, error) {
	var opts []tea.ProgramOption
	if stdin != nil {
		opts = append(opts, tea.WithInput(stdin))
	}
	if stdout != nil {
		opts = append(opts, tea.WithOutput(stdout))
	}

	result, err := tea.NewProgram(New(in), opts...).Run()
	if err != nil {
		return Answer{}, err
	}
	ans, ok := result.(Model).Answer()
	if !ok {
		return Answer{}, ErrAborted
	}
	return ans, nil
}
