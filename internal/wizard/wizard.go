// Package wizard implements the interactive Bubble Tea TUI for devpkg.
// The install wizard walks through three stages: source inputs, install
// options, and a final confirmation screen. When WizardOptions.Yes is true
// the TUI is skipped entirely and Run returns a Selection built from the
// option defaults.
package wizard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kb-labs/devpkg/internal/metadata"
	"github.com/kb-labs/devpkg/internal/source"
)

// ErrCancelled is returned when the user leaves the wizard.
var ErrCancelled = errors.New("installation cancelled")

// WizardOptions controls wizard behaviour.
type WizardOptions struct {
	// DefaultSource pre-fills the source input.
	DefaultSource string
	// DefaultBranch pre-fills the branch input.
	DefaultBranch string
	// DefaultRoot pre-fills the install root input.
	DefaultRoot string
	// Yes skips the TUI and returns defaults immediately.
	Yes bool
}

// Selection is what the user chose.
type Selection struct {
	Source   string
	Type     metadata.SourceType
	Branch   string
	Root     string
	Force    bool
	SkipLoad bool
}

// Run shows the interactive wizard and returns the user's selection.
// If opts.Yes is true, returns defaults without launching TUI.
func Run(opts WizardOptions) (*Selection, error) {
	if opts.Yes {
		return defaultSelection(opts)
	}

	model := newModel(opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	result := final.(wizardModel)
	if result.cancelled {
		return nil, ErrCancelled
	}
	return result.toSelection(), nil
}

// ── styles ────────────────────────────────────────────────────────────────────

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = dimStyle
)

// ── model stages ─────────────────────────────────────────────────────────────

type stage int

const (
	stageSource  stage = iota // entering source, branch and root
	stageOptions              // toggling force / skip-load
	stageConfirm              // confirm / cancel
)

const (
	inputSource = iota
	inputBranch
	inputRoot
	inputCount
)

const (
	optForce = iota
	optSkipLoad
)

type checkItem struct {
	id      string
	desc    string
	checked bool
}

type wizardModel struct {
	errMsg      string
	inputs      []textinput.Model
	options     []checkItem
	stage       stage
	activeInput int
	cursor      int
	cancelled   bool
	confirmed   bool
}

func newModel(opts WizardOptions) wizardModel {
	src := textinput.New()
	src.Placeholder = "./my-module  or  owner/repo"
	src.SetValue(opts.DefaultSource)
	src.Focus()
	src.Width = 50

	branch := textinput.New()
	branch.Placeholder = "main"
	branch.SetValue(opts.DefaultBranch)
	branch.Width = 50

	root := textinput.New()
	root.Placeholder = "~/.local/share/devpkg/modules"
	root.SetValue(opts.DefaultRoot)
	root.Width = 50

	return wizardModel{
		stage:  stageSource,
		inputs: []textinput.Model{src, branch, root},
		options: []checkItem{
			{id: "force", desc: "reinstall over an existing version"},
			{id: "skip-load", desc: "do not load into the session"},
		},
	}
}

// ── tea.Model interface ───────────────────────────────────────────────────────

func (m wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(key)
	}
	// forward to active input
	var cmd tea.Cmd
	if m.stage == stageSource {
		m.inputs[m.activeInput], cmd = m.inputs[m.activeInput].Update(msg)
	}
	return m, cmd
}

func (m wizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageSource:
		return m.handleSourceKey(msg)
	case stageOptions:
		return m.handleOptionsKey(msg)
	case stageConfirm:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

func (m wizardModel) handleSourceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "tab", "down":
		m.focus((m.activeInput + 1) % inputCount)
		return m, textinput.Blink
	case "shift+tab", "up":
		m.focus((m.activeInput + inputCount - 1) % inputCount)
		return m, textinput.Blink
	case "enter":
		if err := m.validateInputs(); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.stage = stageOptions
		m.cursor = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.activeInput], cmd = m.inputs[m.activeInput].Update(msg)
	return m, cmd
}

func (m wizardModel) handleOptionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case " ":
		m.options[m.cursor].checked = !m.options[m.cursor].checked
	case "enter":
		m.stage = stageConfirm
	}
	return m, nil
}

func (m wizardModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "n", "N":
		m.cancelled = true
		return m, tea.Quit
	case "enter", "y", "Y":
		m.confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *wizardModel) focus(i int) {
	m.inputs[m.activeInput].Blur()
	m.activeInput = i
	m.inputs[i].Focus()
}

func (m wizardModel) validateInputs() error {
	src := strings.TrimSpace(m.inputs[inputSource].Value())
	if src == "" {
		return fmt.Errorf("source is required")
	}
	if strings.TrimSpace(m.inputs[inputRoot].Value()) == "" {
		return fmt.Errorf("install root is required")
	}
	if source.Detect(expandHome(src)) == metadata.SourceRemote {
		if _, err := source.ParseIdentifier(src); err != nil {
			return fmt.Errorf("%q is neither a directory nor owner/repo", src)
		}
	}
	return nil
}

// ── View ──────────────────────────────────────────────────────────────────────

func (m wizardModel) View() string {
	switch m.stage {
	case stageSource:
		return m.viewSource()
	case stageOptions:
		return m.viewOptions()
	case stageConfirm:
		return m.viewConfirm()
	}
	return ""
}

func (m wizardModel) viewSource() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  devpkg") + "  install a package\n\n")

	b.WriteString("  " + sectionStyle.Render("Source") + "\n")
	b.WriteString("  " + m.inputs[inputSource].View() + "\n")
	b.WriteString(dimStyle.Render("  A local directory, owner/repo or https://host/owner/repo\n\n"))

	b.WriteString("  " + sectionStyle.Render("Branch") + "\n")
	b.WriteString("  " + m.inputs[inputBranch].View() + "\n")
	b.WriteString(dimStyle.Render("  Remote sources only\n\n"))

	b.WriteString("  " + sectionStyle.Render("Install root") + "\n")
	b.WriteString("  " + m.inputs[inputRoot].View() + "\n\n")

	if m.errMsg != "" {
		b.WriteString("  " + errorStyle.Render("✖ "+m.errMsg) + "\n\n")
	}

	b.WriteString(helpStyle.Render("  tab switch · enter next · esc quit"))
	return b.String()
}

func (m wizardModel) viewOptions() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("  devpkg") + "  options\n\n")
	for i, o := range m.options {
		b.WriteString(m.renderItem(i, o))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  ↑↓ move · space toggle · enter next · esc quit"))
	return b.String()
}

func (m wizardModel) renderItem(idx int, item checkItem) string {
	cursor := "  "
	if idx == m.cursor {
		cursor = focusStyle.Render(" ▶")
	}
	check := "○"
	style := normalStyle
	if item.checked {
		check = selectedStyle.Render("◉")
		style = selectedStyle
	}
	return fmt.Sprintf("%s %s  %-10s  %s\n",
		cursor, check,
		style.Render(item.id),
		dimStyle.Render(item.desc),
	)
}

func (m wizardModel) viewConfirm() string {
	sel := m.toSelection()
	var b strings.Builder
	b.WriteString(titleStyle.Render("  devpkg") + "  ready to install\n\n")
	b.WriteString(fmt.Sprintf("  Source:  %s (%s)\n", focusStyle.Render(sel.Source), sel.Type))
	if sel.Type == metadata.SourceRemote && sel.Branch != "" {
		b.WriteString(fmt.Sprintf("  Branch:  %s\n", focusStyle.Render(sel.Branch)))
	}
	b.WriteString(fmt.Sprintf("  Root:    %s\n\n", focusStyle.Render(sel.Root)))

	var flags []string
	for _, o := range m.options {
		if o.checked {
			flags = append(flags, o.id)
		}
	}
	if len(flags) > 0 {
		b.WriteString("  Options: " + strings.Join(flags, ", ") + "\n\n")
	}

	b.WriteString(helpStyle.Render("  Press enter to install · n to cancel"))
	return b.String()
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (m wizardModel) toSelection() *Selection {
	src := expandHome(strings.TrimSpace(m.inputs[inputSource].Value()))
	sel := &Selection{
		Source:   src,
		Type:     source.Detect(src),
		Root:     expandHome(strings.TrimSpace(m.inputs[inputRoot].Value())),
		Force:    m.options[optForce].checked,
		SkipLoad: m.options[optSkipLoad].checked,
	}
	if sel.Type == metadata.SourceRemote {
		sel.Branch = strings.TrimSpace(m.inputs[inputBranch].Value())
	}
	return sel
}

func defaultSelection(opts WizardOptions) (*Selection, error) {
	if strings.TrimSpace(opts.DefaultSource) == "" {
		return nil, fmt.Errorf("a source is required when the wizard is skipped")
	}
	m := newModel(opts)
	if err := m.validateInputs(); err != nil {
		return nil, err
	}
	return m.toSelection(), nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
