package wizard

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Confirm asks a yes/no question inline. Enter picks the default answer
// shown in capitals.
func Confirm(question string, defaultYes bool) (bool, error) {
	p := tea.NewProgram(newConfirmModel(question, defaultYes))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(confirmModel).answer, nil
}

type confirmModel struct {
	question   string
	defaultYes bool
	answer     bool
	done       bool
}

func newConfirmModel(question string, defaultYes bool) confirmModel {
	return confirmModel{question: question, defaultYes: defaultYes}
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer = true
	case "n", "N", "esc", "ctrl+c":
		m.answer = false
	case "enter":
		m.answer = m.defaultYes
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	hint := "[y/N]"
	if m.defaultYes {
		hint = "[Y/n]"
	}
	var b strings.Builder
	b.WriteString("  " + focusStyle.Render("?") + " " + m.question + " " + dimStyle.Render(hint) + " ")
	if m.done {
		if m.answer {
			b.WriteString(selectedStyle.Render("yes"))
		} else {
			b.WriteString(errorStyle.Render("no"))
		}
		b.WriteString("\n")
	}
	return b.String()
}
