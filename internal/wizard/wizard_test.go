package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kb-labs/devpkg/internal/metadata"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

// ── defaultSelection ─────────────────────────────────────────────────────────

// TestDefaultSelectionLocal verifies a directory source is detected as Local
// and the branch is dropped.
func TestDefaultSelectionLocal(t *testing.T) {
	dir := t.TempDir()
	sel, err := defaultSelection(WizardOptions{DefaultSource: dir, DefaultBranch: "dev", DefaultRoot: "/mods"})
	if err != nil {
		t.Fatalf("defaultSelection() error = %v", err)
	}
	if sel.Type != metadata.SourceLocal {
		t.Errorf("Type = %q, want Local", sel.Type)
	}
	if sel.Branch != "" {
		t.Errorf("Branch = %q, want empty for local source", sel.Branch)
	}
	if sel.Root != "/mods" {
		t.Errorf("Root = %q, want /mods", sel.Root)
	}
}

// TestDefaultSelectionRemote verifies owner/repo keeps the branch.
func TestDefaultSelectionRemote(t *testing.T) {
	sel, err := defaultSelection(WizardOptions{DefaultSource: "kb-labs/tools", DefaultBranch: "dev", DefaultRoot: "/mods"})
	if err != nil {
		t.Fatalf("defaultSelection() error = %v", err)
	}
	if sel.Type != metadata.SourceRemote || sel.Branch != "dev" {
		t.Errorf("selection = %+v, want Remote on dev", sel)
	}
}

// TestDefaultSelectionRequiresSource verifies --yes without a source fails.
func TestDefaultSelectionRequiresSource(t *testing.T) {
	if _, err := defaultSelection(WizardOptions{DefaultRoot: "/mods"}); err == nil {
		t.Error("defaultSelection() without source succeeded")
	}
}

// TestDefaultSelectionRejectsGarbage verifies a non-directory that is not
// owner/repo fails validation.
func TestDefaultSelectionRejectsGarbage(t *testing.T) {
	_, err := defaultSelection(WizardOptions{DefaultSource: "not a/valid/source", DefaultRoot: "/mods"})
	if err == nil {
		t.Error("defaultSelection() accepted an invalid source")
	}
}

// ── model flow ───────────────────────────────────────────────────────────────

// TestWizardFlow drives the model through all stages.
func TestWizardFlow(t *testing.T) {
	dir := t.TempDir()
	var m tea.Model = newModel(WizardOptions{DefaultSource: dir, DefaultRoot: "/mods"})

	m = press(m, "enter")
	if got := m.(wizardModel).stage; got != stageOptions {
		t.Fatalf("stage = %d, want options", got)
	}
	m = press(m, " ", "down", " ", "enter")
	if got := m.(wizardModel).stage; got != stageConfirm {
		t.Fatalf("stage = %d, want confirm", got)
	}
	if view := m.View(); !strings.Contains(view, "force, skip-load") {
		t.Errorf("confirm view missing options:\n%s", view)
	}
	m = press(m, "y")

	final := m.(wizardModel)
	if !final.confirmed || final.cancelled {
		t.Errorf("confirmed = %v, cancelled = %v", final.confirmed, final.cancelled)
	}
	sel := final.toSelection()
	if !sel.Force || !sel.SkipLoad {
		t.Errorf("Force = %v, SkipLoad = %v, want both true", sel.Force, sel.SkipLoad)
	}
	if sel.Source != dir {
		t.Errorf("Source = %q, want %q", sel.Source, dir)
	}
}

// TestWizardEmptySourceBlocks verifies enter with no source shows an error.
func TestWizardEmptySourceBlocks(t *testing.T) {
	var m tea.Model = newModel(WizardOptions{DefaultRoot: "/mods"})
	m = press(m, "enter")

	wm := m.(wizardModel)
	if wm.stage != stageSource {
		t.Errorf("stage = %d, want source", wm.stage)
	}
	if wm.errMsg == "" {
		t.Error("errMsg empty")
	}
	if !strings.Contains(m.View(), "source is required") {
		t.Error("error not rendered")
	}
}

// TestWizardTabCyclesInputs verifies focus wraps around the inputs.
func TestWizardTabCyclesInputs(t *testing.T) {
	var m tea.Model = newModel(WizardOptions{})
	for i := 1; i <= inputCount; i++ {
		m = press(m, "tab")
		if got, want := m.(wizardModel).activeInput, i%inputCount; got != want {
			t.Errorf("after %d tabs activeInput = %d, want %d", i, got, want)
		}
	}
}

// TestWizardEscCancels verifies esc cancels from any stage.
func TestWizardEscCancels(t *testing.T) {
	var m tea.Model = newModel(WizardOptions{DefaultSource: t.TempDir(), DefaultRoot: "/mods"})
	m = press(m, "enter", "esc")
	if !m.(wizardModel).cancelled {
		t.Error("esc in options stage did not cancel")
	}
}

// ── confirm ──────────────────────────────────────────────────────────────────

// TestConfirmModel verifies answers for each key.
func TestConfirmModel(t *testing.T) {
	cases := []struct {
		key        string
		defaultYes bool
		want       bool
	}{
		{"y", false, true},
		{"n", true, false},
		{"esc", true, false},
		{"enter", true, true},
		{"enter", false, false},
	}
	for _, c := range cases {
		m := press(newConfirmModel("Remove Pkg?", c.defaultYes), c.key).(confirmModel)
		if !m.done || m.answer != c.want {
			t.Errorf("key %q defaultYes=%v: done=%v answer=%v, want %v", c.key, c.defaultYes, m.done, m.answer, c.want)
		}
	}
}

// TestConfirmIgnoresOtherKeys verifies unrelated keys do not answer.
func TestConfirmIgnoresOtherKeys(t *testing.T) {
	m := press(newConfirmModel("Remove Pkg?", false), "x").(confirmModel)
	if m.done {
		t.Error("unrelated key answered the prompt")
	}
	if !strings.Contains(m.View(), "[y/N]") {
		t.Errorf("View() = %q, want [y/N] hint", m.View())
	}
}

// ── expandHome ───────────────────────────────────────────────────────────────

// TestExpandHomeTilde verifies that a ~/... path is expanded to the real home.
func TestExpandHomeTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("UserHomeDir unavailable:", err)
	}

	got := expandHome("~/projects/foo")
	want := filepath.Join(home, "projects", "foo")
	if got != want {
		t.Errorf("expandHome(~/projects/foo) = %q, want %q", got, want)
	}
}

// TestExpandHomeUnchanged verifies that paths without ~/ are returned as is.
func TestExpandHomeUnchanged(t *testing.T) {
	for _, path := range []string{"/usr/local/bin", "relative/path", "owner/repo"} {
		if got := expandHome(path); got != path {
			t.Errorf("expandHome(%q) = %q, want %q", path, got, path)
		}
	}
}
