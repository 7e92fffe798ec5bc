package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/ticklist/internal/state"
	"github.com/five82/ticklist/internal/task"
)

const (
	fieldText = iota
	fieldDeadline
	fieldCount
)

const textLimit = 500

// formError is a validation message shown under the form fields.
type formError string

func (e formError) Error() string { return string(e) }

const (
	errTextRequired formError = "Task text is required"
	errBadDeadline  formError = "Deadline must be YYYY-MM-DD"
	errPastDeadline formError = "Deadline cannot be in the past"
)

// taskForm is the add/edit modal. An empty id means add.
type taskForm struct {
	id       string
	original task.Date
	inputs   [fieldCount]textinput.Model
	focus    int
	err      error
}

func newTaskForm(t *task.Task) *taskForm {
	f := &taskForm{}

	text := textinput.New()
	text.Placeholder = "What needs to be done?"
	text.CharLimit = textLimit
	text.Width = 44
	f.inputs[fieldText] = text

	due := textinput.New()
	due.Placeholder = "YYYY-MM-DD (optional)"
	due.CharLimit = len("2006-01-02")
	due.Width = 20
	f.inputs[fieldDeadline] = due

	if t != nil {
		f.id = t.ID
		f.original = t.Deadline
		f.inputs[fieldText].SetValue(t.Text)
		f.inputs[fieldDeadline].SetValue(t.Deadline.String())
	}
	f.inputs[fieldText].Focus()
	return f
}

func (f *taskForm) editing() bool {
	return f.id != ""
}

func (f *taskForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

// values validates the inputs. The past-date check is skipped when an edit
// leaves an existing deadline unchanged, so overdue tasks stay editable.
func (f *taskForm) values(now time.Time) (string, task.Date, error) {
	text := strings.TrimSpace(f.inputs[fieldText].Value())
	if text == "" {
		return "", task.Date{}, errTextRequired
	}
	deadline, err := task.ParseDate(f.inputs[fieldDeadline].Value())
	if err != nil {
		return "", task.Date{}, errBadDeadline
	}
	if f.editing() && deadline == f.original {
		return text, deadline, nil
	}
	if err := state.ValidateDeadline(deadline, now); err != nil {
		return "", task.Date{}, errPastDeadline
	}
	return text, deadline, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.form = nil
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		f.setFocus(f.focus + 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		f.setFocus(f.focus - 1)
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submitForm()
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	f.err = nil
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	text, deadline, err := f.values(m.now())
	if err != nil {
		f.err = err
		return m, nil
	}

	var op *state.Op
	if f.editing() {
		op, err = m.store.Edit(f.id, text, deadline)
	} else {
		op, err = m.store.Add(text, deadline)
	}
	if err != nil {
		f.err = err
		return m, nil
	}

	m.form = nil
	if !f.editing() {
		m.selected = 0
	}
	m.refresh()
	return m, commitCmd(m.ctx, op)
}

func (m Model) renderForm() string {
	f := m.form
	styles := m.theme.Styles()

	title := "New Task"
	if f.editing() {
		title = "Edit Task"
	}

	label := func(i int, text string) string {
		if i == f.focus {
			return styles.AccentText.Bold(true).Render(text)
		}
		return styles.MutedText.Render(text)
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(title))
	b.WriteString("\n\n")
	b.WriteString(label(fieldText, "Task"))
	b.WriteString("\n")
	b.WriteString(f.inputs[fieldText].View())
	b.WriteString("\n\n")
	b.WriteString(label(fieldDeadline, "Deadline"))
	b.WriteString("\n")
	b.WriteString(f.inputs[fieldDeadline].View())
	b.WriteString("\n\n")
	if f.err != nil {
		b.WriteString(styles.DangerText.Render(f.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("tab: next field  enter: save  esc: cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(1, 2).
		Width(52)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
