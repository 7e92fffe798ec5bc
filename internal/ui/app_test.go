package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/ticklist/internal/prefs"
	"github.com/five82/ticklist/internal/remotetest"
	"github.com/five82/ticklist/internal/state"
	"github.com/five82/ticklist/internal/task"
)

type harness struct {
	t         *testing.T
	m         Model
	svc       *remotetest.Service
	prefsPath string
}

func newHarness(t *testing.T, seed ...task.Task) *harness {
	t.Helper()
	svc := remotetest.New(seed...)
	now := func() time.Time { return testNow }
	store, err := state.NewStore(state.Options{
		Service:  svc,
		Reporter: state.ReporterFunc(func(*state.RemoteError) {}),
		Now:      now,
	})
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	h := &harness{
		t:         t,
		svc:       svc,
		prefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	h.m = New(Options{
		Context:   context.Background(),
		Session:   state.NewSession(store),
		Prefs:     prefs.Default(),
		PrefsPath: h.prefsPath,
		Now:       now,
	})
	h.send(tea.WindowSizeMsg{Width: 120, Height: 20})
	h.run(activateCmd(h.m.ctx, h.m.session))
	return h
}

// send feeds msg to the model and returns the command it produced.
func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// run executes cmd synchronously and feeds its message back.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	if cmd == nil {
		h.t.Fatalf("expected a command")
	}
	h.send(cmd())
}

func (h *harness) press(keys string) tea.Cmd {
	h.t.Helper()
	switch keys {
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "tab":
		return h.send(tea.KeyMsg{Type: tea.KeyTab})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEscape})
	case " ":
		return h.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
}

func seeded(id, text string, completed bool) task.Task {
	return task.Task{ID: id, Text: text, Completed: completed, CreatedAt: testNow.Add(-time.Hour)}
}

func TestModel_InitialLoadShowsTasks(t *testing.T) {
	h := newHarness(t, seeded("a", "Water plants", false), seeded("b", "File taxes", true))

	if !h.m.snapshot.Loaded {
		t.Fatalf("snapshot not loaded")
	}
	view := h.m.View()
	for _, want := range []string{"Water", "taxes", "Progress:", "50%", "(2)"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_EmptyStateFollowsFilter(t *testing.T) {
	h := newHarness(t)
	if !strings.Contains(h.m.View(), "No tasks yet") {
		t.Fatalf("view missing empty state:\n%s", h.m.View())
	}
	h.press("4")
	if !strings.Contains(h.m.View(), "No overdue tasks") {
		t.Fatalf("view missing overdue empty state:\n%s", h.m.View())
	}
}

func TestModel_ToggleCommitsAndRollsBack(t *testing.T) {
	h := newHarness(t, seeded("a", "Water plants", false))
	h.svc.FailNext(remotetest.MethodUpdate, "a", nil)

	cmd := h.press(" ")
	if !h.m.snapshot.Tasks[0].Completed {
		t.Fatalf("toggle not applied locally before commit")
	}
	h.run(cmd)

	if h.m.snapshot.Tasks[0].Completed {
		t.Fatalf("toggle not rolled back after failure")
	}
	if h.m.snapshot.LastError == nil {
		t.Fatalf("LastError = nil, want failure")
	}
	if !strings.Contains(h.m.View(), "failed:") {
		t.Fatalf("footer does not show the failure:\n%s", h.m.View())
	}

	h.run(h.press("x"))
	if !h.m.snapshot.Tasks[0].Completed || h.m.snapshot.LastError != nil {
		t.Fatalf("second toggle = %+v, err %v", h.m.snapshot.Tasks[0], h.m.snapshot.LastError)
	}
}

func TestModel_AddThroughForm(t *testing.T) {
	h := newHarness(t, seeded("a", "Water plants", false))

	h.press("a")
	if h.m.form == nil {
		t.Fatalf("form not open")
	}
	h.press("Buy milk")
	h.press("tab")
	h.press("2024-03-20")
	cmd := h.press("enter")
	if h.m.form != nil {
		t.Fatalf("form still open, err %v", h.m.form.err)
	}
	h.run(cmd)

	tasks := h.m.snapshot.Tasks
	if len(tasks) != 2 || tasks[0].Text != "Buy milk" || tasks[0].Deadline != due(2024, 3, 20) {
		t.Fatalf("tasks = %+v, want Buy milk prepended", tasks)
	}
	if len(h.svc.Tasks()) != 2 {
		t.Fatalf("service holds %d tasks, want 2", len(h.svc.Tasks()))
	}
}

func TestModel_FormRejectsPastDeadline(t *testing.T) {
	h := newHarness(t)

	h.press("a")
	h.press("Pay rent")
	h.press("tab")
	h.press("2024-03-01")
	if cmd := h.press("enter"); cmd != nil {
		t.Fatalf("submit produced a command for an invalid form")
	}
	if h.m.form == nil || h.m.form.err != errPastDeadline {
		t.Fatalf("form err = %v, want %v", h.m.form, errPastDeadline)
	}
	if !strings.Contains(h.m.View(), "past") {
		t.Fatalf("view does not show the validation error")
	}

	h.press("esc")
	if h.m.form != nil {
		t.Fatalf("esc did not close the form")
	}
	if len(h.svc.Calls()) != 1 {
		t.Fatalf("calls = %+v, want only the initial list", h.svc.Calls())
	}
}

func TestModel_EditSelectedTask(t *testing.T) {
	h := newHarness(t, seeded("a", "Water plants", false), seeded("b", "File taxes", false))

	h.press("j")
	h.press("e")
	if h.m.form == nil || h.m.form.id != "b" {
		t.Fatalf("form = %+v, want edit of b", h.m.form)
	}
	h.m.form.inputs[fieldText].SetValue("File taxes today")
	h.run(h.press("enter"))

	got, ok := h.m.store.Get("b")
	if !ok || got.Text != "File taxes today" {
		t.Fatalf("task b = %+v", got)
	}
}

func TestModel_DeleteAndClear(t *testing.T) {
	h := newHarness(t,
		seeded("a", "Water plants", false),
		seeded("b", "File taxes", true),
		seeded("c", "Call mom", true),
	)

	h.run(h.press("d"))
	if _, ok := h.m.store.Get("a"); ok {
		t.Fatalf("task a still present after delete")
	}

	h.run(h.press("C"))
	if len(h.m.snapshot.Tasks) != 0 || len(h.svc.Tasks()) != 0 {
		t.Fatalf("tasks after clear = %+v, remote %+v", h.m.snapshot.Tasks, h.svc.Tasks())
	}
	if !strings.Contains(h.m.notice, "cleared") {
		t.Fatalf("notice = %q", h.m.notice)
	}

	if cmd := h.press("C"); cmd != nil {
		t.Fatalf("clear with nothing completed produced a command")
	}
	if h.m.notice != "No completed tasks to clear" {
		t.Fatalf("notice = %q", h.m.notice)
	}
}

func TestModel_FilterAndSortPersistToPrefs(t *testing.T) {
	h := newHarness(t, seeded("a", "Water plants", false), seeded("b", "File taxes", true))

	h.press("f")
	h.press("s")
	h.press("T")

	if h.m.snapshot.Filter != task.FilterPending || len(h.m.snapshot.Visible) != 1 {
		t.Fatalf("filter = %v visible %d", h.m.snapshot.Filter, len(h.m.snapshot.Visible))
	}
	p, err := prefs.Load(h.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load returned error: %v", err)
	}
	want := prefs.Prefs{Theme: "Kanagawa", Filter: "pending", Sort: "asc"}
	if p != want {
		t.Fatalf("prefs = %+v, want %+v", p, want)
	}
}

func TestModel_SelectionStaysInRange(t *testing.T) {
	h := newHarness(t, seeded("a", "one", false), seeded("b", "two", false))

	h.press("G")
	if h.m.selected != 1 {
		t.Fatalf("selected = %d, want 1", h.m.selected)
	}
	h.run(h.press("d"))
	if h.m.selected != 0 {
		t.Fatalf("selected = %d after delete, want 0", h.m.selected)
	}
	h.press("k")
	h.press("k")
	if h.m.selected != 0 {
		t.Fatalf("selected = %d, want clamp at 0", h.m.selected)
	}
}

func TestModel_HelpClosesOnAnyKey(t *testing.T) {
	h := newHarness(t)
	h.press("?")
	if !h.m.showHelp || !strings.Contains(h.m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help not shown")
	}
	h.press("q")
	if h.m.showHelp {
		t.Fatalf("help still shown")
	}
}
