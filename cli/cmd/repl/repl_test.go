package repl

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/prex/log"
)

func testModel(t *testing.T, s Session, entries ...HistoryEntry) model {
	t.Helper()

	h := NewHistory("")
	for _, e := range entries {
		if _, err := h.WriteWithMode(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	return newModel(context.Background(), s, h, log.Logger{})
}

func typeText(m model, text string) model {
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})

	return m
}

func press(m model, k tea.KeyType) (model, tea.Cmd) {
	return m.handleKey(tea.KeyMsg{Type: k})
}

func TestRun_NoSession(t *testing.T) {
	if err := Run(context.Background(), nil, t.TempDir(), log.Logger{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("error = %v, want ErrNoSession", err)
	}
}

func TestModel_Complete(t *testing.T) {
	m := typeText(testModel(t, newFakeSession()), "1 + ab")

	if len(m.matches) != 1 || m.matches[0].Str != "abs(" {
		t.Fatalf("matches = %v", m.matches)
	}

	m, _ = press(m, tea.KeyTab)

	if got := m.input.Value(); got != "1 + abs(" {
		t.Errorf("value = %q, want %q", got, "1 + abs(")
	}

	if m.tabActive || m.matches != nil {
		t.Error("sole candidate should complete without cycling")
	}

	if got := stripANSI(m.hintLine()); got != "abs(float64)" {
		t.Errorf("hint = %q, want signature", got)
	}
}

func TestModel_CompleteAbsorbsBracket(t *testing.T) {
	m := testModel(t, newFakeSession())
	m.input.SetValue("ab(1)")
	m.input.SetCursor(2)
	refreshMatches(&m, false)

	m, _ = press(m, tea.KeyTab)

	if got := m.input.Value(); got != "abs(1)" {
		t.Errorf("value = %q, want abs(1)", got)
	}
}

func TestModel_Cycle(t *testing.T) {
	m := typeText(testModel(t, newFakeSession()), "m")

	if len(m.matches) != 2 {
		t.Fatalf("matches = %v, want max( and min(", m.matches)
	}

	m, _ = press(m, tea.KeyTab)
	first := m.input.Value()

	m, _ = press(m, tea.KeyTab)
	second := m.input.Value()

	if !m.tabActive || first == second {
		t.Errorf("cycling gave %q then %q", first, second)
	}

	m, _ = press(m, tea.KeyShiftTab)
	if m.input.Value() != first {
		t.Errorf("Shift-Tab gave %q, want %q", m.input.Value(), first)
	}

	m, _ = press(m, tea.KeyEsc)
	if m.tabActive || m.input.Value() != "m" || m.mode != modeEval {
		t.Errorf("Esc should restore %q, got %q (mode %d)", "m", m.input.Value(), m.mode)
	}

	m, _ = press(m, tea.KeyTab)
	m, _ = press(m, tea.KeyEnter)

	if m.tabActive || m.input.Value() != first {
		t.Errorf("Enter should accept %q, got %q", first, m.input.Value())
	}
}

func TestModel_Eval(t *testing.T) {
	s := newFakeSession()
	m := typeText(testModel(t, s), "1 + 2")

	m, cmd := press(m, tea.KeyEnter)
	if cmd == nil {
		t.Fatal("no output command")
	}

	if len(s.evals) != 1 || s.evals[0] != "1 + 2" {
		t.Errorf("evals = %v", s.evals)
	}

	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	if e, _ := m.history.GetEntry(0); e != (HistoryEntry{"1 + 2", modeEval}) {
		t.Errorf("history = %+v", m.history.Entries())
	}

	m = typeText(m, "bad")
	if _, cmd := press(m, tea.KeyEnter); cmd == nil {
		t.Error("failed evaluation printed nothing")
	}

	if _, cmd := press(testModel(t, s), tea.KeyEnter); cmd != nil {
		t.Error("empty input produced a command")
	}
}

func TestModel_Commands(t *testing.T) {
	m, _ := press(testModel(t, newFakeSession()), tea.KeyEsc)
	if m.mode != modeCtrl {
		t.Fatalf("mode = %d, want ctrl", m.mode)
	}

	m = typeText(m, "zap")
	m, _ = press(m, tea.KeyEnter)

	if m.quitting {
		t.Error("unknown command quit")
	}

	for _, cmd := range []string{"help", "list", "words", "clear"} {
		if _, c := m.executeCommand(cmd); c == nil {
			t.Errorf("%s produced no command", cmd)
		}
	}

	m = typeText(m, "quit")
	m, _ = press(m, tea.KeyEnter)

	if !m.quitting {
		t.Error("quit did not quit")
	}

	if got := m.history.Entries(); len(got) != 2 || got[0].Mode != modeCtrl {
		t.Errorf("history = %+v", got)
	}
}

func TestModel_ModeKeepsInput(t *testing.T) {
	m := typeText(testModel(t, newFakeSession()), "1 +")

	m, _ = press(m, tea.KeyEsc)
	m = typeText(m, "li")

	m, _ = press(m, tea.KeyEsc)
	if m.input.Value() != "1 +" {
		t.Errorf("eval input = %q, want %q", m.input.Value(), "1 +")
	}

	m, _ = press(m, tea.KeyEsc)
	if m.input.Value() != "li" {
		t.Errorf("ctrl input = %q, want li", m.input.Value())
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := press(testModel(t, newFakeSession()), tea.KeyCtrlC)
	if !m.quitting || m.View() != "" {
		t.Error("Ctrl-C on empty input should quit")
	}

	m = typeText(testModel(t, newFakeSession()), "1")

	m, _ = press(m, tea.KeyCtrlC)
	if m.quitting || m.input.Value() != "" {
		t.Error("Ctrl-C should clear non-empty input")
	}

	m, _ = press(m, tea.KeyCtrlD)
	if !m.quitting {
		t.Error("Ctrl-D on empty input should quit")
	}
}

func TestModel_History(t *testing.T) {
	entries := []HistoryEntry{{"1 + 1", modeEval}, {"help", modeCtrl}, {"2 * 2", modeEval}}

	steps := []struct {
		key  tea.KeyType
		line string
		mode inputMode
	}{
		{tea.KeyUp, "2 * 2", modeEval},
		{tea.KeyUp, "help", modeCtrl},
		{tea.KeyUp, "1 + 1", modeEval},
		{tea.KeyUp, "1 + 1", modeEval},
		{tea.KeyDown, "help", modeCtrl},
		{tea.KeyDown, "2 * 2", modeEval},
		{tea.KeyDown, "", modeEval},
	}

	m := testModel(t, newFakeSession(), entries...)

	for i, s := range steps {
		m, _ = press(m, s.key)

		if m.input.Value() != s.line || m.mode != s.mode {
			t.Fatalf("step %d: got %q (mode %d), want %q (mode %d)",
				i, m.input.Value(), m.mode, s.line, s.mode)
		}
	}

	m = testModel(t, newFakeSession(), entries...)
	m, _ = press(m, tea.KeyShiftUp)
	m, _ = press(m, tea.KeyShiftUp)

	if m.input.Value() != "1 + 1" || m.mode != modeEval {
		t.Errorf("Shift-Up gave %q (mode %d), want eval entry", m.input.Value(), m.mode)
	}

	if got := stripANSI(m.hintLine()); got != "1/3" {
		t.Errorf("hint = %q, want 1/3", got)
	}
}

func TestModel_HintLine(t *testing.T) {
	m := testModel(t, newFakeSession())

	if got := m.hintLine(); !strings.Contains(got, "fake: type an expression") {
		t.Errorf("empty eval hint = %q", got)
	}

	m, _ = press(m, tea.KeyEsc)
	if got := m.hintLine(); !strings.Contains(got, "quit") {
		t.Errorf("empty ctrl hint = %q", got)
	}

	m, _ = press(m, tea.KeyEsc)
	m = typeText(m, "max(1, ")

	if got := stripANSI(m.hintLine()); got != "max(...any)" {
		t.Errorf("signature hint = %q", got)
	}

	m = typeText(m, "ra")
	if got := stripANSI(m.hintLine()); got != "max(...any)" {
		t.Errorf("signature should take precedence, got %q", got)
	}
}

func TestListBindings(t *testing.T) {
	if got := stripANSI(listBindings(nil)); got != "  (none)" {
		t.Errorf("got %q", got)
	}

	got := stripANSI(listBindings([]Binding{
		{Name: "rate", Type: "int64", Value: "2"},
		{Name: "$s", Type: "string", Value: `"x"`},
	}))

	want := "  rate : int64 = 2\n  $s : string = \"x\""
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
