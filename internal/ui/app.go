package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/ticklist/internal/prefs"
	"github.com/five82/ticklist/internal/state"
	"github.com/five82/ticklist/internal/task"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Session   *state.Session
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *log.Logger
	Tick      time.Duration    // snapshot refresh cadence; zero uses 1s
	Now       func() time.Time // nil uses time.Now
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	session   *state.Session
	store     *state.Store
	prefsPath string
	logger    *log.Logger
	tick      time.Duration
	now       func() time.Time

	keys   keyMap
	theme  Theme
	width  int
	height int
	ready  bool

	snapshot state.Snapshot
	selected int
	offset   int

	showHelp bool
	form     *taskForm
	notice   string
}

// New creates a new Bubble Tea model. The session's store receives the
// persisted filter and sort order.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	store := opts.Session.Store()
	store.SetFilter(opts.Prefs.FilterValue())
	store.SetSort(opts.Prefs.SortValue())

	return Model{
		ctx:       ctx,
		session:   opts.Session,
		store:     store,
		prefsPath: prefsPath,
		logger:    logger,
		tick:      tick,
		now:       now,
		keys:      defaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		snapshot:  store.Snapshot(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		activateCmd(m.ctx, m.session),
		tickCmd(m.tick),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.clampSelection()
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tick)

	case loadedMsg:
		if msg.err != nil {
			m.logger.Printf("load tasks: %v", msg.err)
		}
		m.refresh()
		return m, nil

	case opDoneMsg:
		if msg.err == nil && msg.kind == state.OpClear {
			m.notice = "Completed tasks cleared"
		}
		m.refresh()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.form != nil {
		return m.renderForm()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.form != nil {
		return m.handleFormKey(msg)
	}

	m.notice = ""
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.showHelp = true

	case key.Matches(msg, k.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()

	case key.Matches(msg, k.Reload):
		return m, loadCmd(m.ctx, m.store)

	case key.Matches(msg, k.CycleFilter):
		m.store.CycleFilter()
		m.viewChanged()
	case key.Matches(msg, k.FilterAll):
		m.setFilter(task.FilterAll)
	case key.Matches(msg, k.FilterOpen):
		m.setFilter(task.FilterPending)
	case key.Matches(msg, k.FilterDone):
		m.setFilter(task.FilterCompleted)
	case key.Matches(msg, k.FilterLate):
		m.setFilter(task.FilterOverdue)
	case key.Matches(msg, k.CycleSort):
		m.store.CycleSort()
		m.viewChanged()

	case key.Matches(msg, k.Add):
		m.form = newTaskForm(nil)
	case key.Matches(msg, k.Edit):
		if t, ok := m.selectedTask(); ok {
			if t.Pending {
				m.notice = "Task is still being saved"
				return m, nil
			}
			m.form = newTaskForm(&t)
		}
	case key.Matches(msg, k.Toggle):
		if t, ok := m.selectedTask(); ok {
			return m.intent(m.store.Toggle(t.ID))
		}
	case key.Matches(msg, k.Delete):
		if t, ok := m.selectedTask(); ok {
			return m.intent(m.store.Delete(t.ID))
		}
	case key.Matches(msg, k.Clear):
		if m.snapshot.Stats.Completed == 0 {
			m.notice = "No completed tasks to clear"
			return m, nil
		}
		return m.intent(m.store.ClearCompleted(), nil)

	case key.Matches(msg, k.Up):
		m.moveSelection(-1)
	case key.Matches(msg, k.Down):
		m.moveSelection(1)
	case key.Matches(msg, k.Top):
		m.selected = 0
		m.clampSelection()
	case key.Matches(msg, k.Bottom):
		m.selected = len(m.snapshot.Visible) - 1
		m.clampSelection()
	case key.Matches(msg, k.PageUp):
		m.moveSelection(-m.listRows())
	case key.Matches(msg, k.PageDown):
		m.moveSelection(m.listRows())
	}
	return m, nil
}

// intent shows the local effect of an operation right away and commits it
// in the background.
func (m Model) intent(op *state.Op, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.notice = intentNotice(err)
		return m, nil
	}
	m.refresh()
	return m, commitCmd(m.ctx, op)
}

func intentNotice(err error) string {
	switch {
	case errors.Is(err, state.ErrPending):
		return "Task is still being saved"
	case errors.Is(err, state.ErrNotFound):
		return "Task no longer exists"
	default:
		return err.Error()
	}
}

func (m *Model) setFilter(f task.Filter) {
	m.store.SetFilter(f)
	m.viewChanged()
}

func (m *Model) viewChanged() {
	m.selected = 0
	m.offset = 0
	m.refresh()
	m.savePrefs()
}

func (m *Model) refresh() {
	m.snapshot = m.store.Snapshot()
	m.clampSelection()
}

func (m *Model) savePrefs() {
	p := prefs.Prefs{
		Theme:  m.theme.Name,
		Filter: m.snapshot.Filter.String(),
		Sort:   m.snapshot.Sort.String(),
	}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Printf("save prefs: %v", err)
	}
}

func (m Model) selectedTask() (task.Task, bool) {
	visible := m.snapshot.Visible
	if m.selected < 0 || m.selected >= len(visible) {
		return task.Task{}, false
	}
	return visible[m.selected], true
}

func (m *Model) moveSelection(delta int) {
	m.selected += delta
	m.clampSelection()
}

// clampSelection keeps the selection inside the visible list and scrolls
// the list so the selection stays on screen.
func (m *Model) clampSelection() {
	n := len(m.snapshot.Visible)
	m.selected = max(0, min(m.selected, n-1))

	rows := m.listRows()
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if rows > 0 && m.selected >= m.offset+rows {
		m.offset = m.selected - rows + 1
	}
	m.offset = max(0, min(m.offset, n-rows))
}

// Messages

type tickMsg time.Time

type loadedMsg struct{ err error }

type opDoneMsg struct {
	kind state.OpKind
	err  error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func activateCmd(ctx context.Context, session *state.Session) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: session.Activate(ctx)}
	}
}

func loadCmd(ctx context.Context, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: store.Load(ctx)}
	}
}

func commitCmd(ctx context.Context, op *state.Op) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{kind: op.Kind(), err: op.Commit(ctx)}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	if opts.Session == nil {
		return fmt.Errorf("ui requires a session")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
