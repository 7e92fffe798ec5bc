package task

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ErrNoDocument is wrapped by task services when an update or delete names
// an identifier the collection does not hold.
var ErrNoDocument = errors.New("document not found")

// Date is a calendar date with no time component. The zero value means
// "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// String formats d as YYYY-MM-DD, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// StartOfDay returns midnight at the start of d in loc.
func (d Date) StartOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// EndOfDay returns the last millisecond of d in loc (23:59:59.999).
func (d Date) EndOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, int(999*time.Millisecond), loc)
}

// Before reports whether d falls on an earlier day than other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// MarshalJSON encodes d as "YYYY-MM-DD", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", an empty string or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML encodes d as a plain string, or null when unset.
func (d Date) MarshalYAML() (any, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Task is a single to-do record.
type Task struct {
	ID        string    `json:"id" yaml:"id"`
	Text      string    `json:"text" yaml:"text"`
	Completed bool      `json:"completed" yaml:"completed"`
	Deadline  Date      `json:"deadline" yaml:"deadline"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`

	// Pending marks a locally created task that has not been confirmed by the
	// remote service yet. ID is a placeholder while Pending is true.
	Pending bool `json:"-" yaml:"-"`
}

// Fields returns the document body stored remotely for t.
func (t Task) Fields() Fields {
	return Fields{
		Text:      t.Text,
		Completed: t.Completed,
		Deadline:  t.Deadline,
		CreatedAt: t.CreatedAt,
	}
}

// Fields is the document body of a task as held by the remote service. The
// identifier lives outside the body.
type Fields struct {
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Deadline  Date      `json:"deadline"`
	CreatedAt time.Time `json:"createdAt"`
}

// WithID builds a confirmed Task from a document body.
func (f Fields) WithID(id string) Task {
	return Task{
		ID:        id,
		Text:      f.Text,
		Completed: f.Completed,
		Deadline:  f.Deadline,
		CreatedAt: f.CreatedAt,
	}
}

// Patch is a partial update. Nil fields are left untouched; a non-nil
// Deadline pointing at the zero Date clears the deadline.
type Patch struct {
	Text      *string
	Completed *bool
	Deadline  *Date
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Text == nil && p.Completed == nil && p.Deadline == nil
}

// FieldPaths lists the document fields touched by the patch.
func (p Patch) FieldPaths() []string {
	var paths []string
	if p.Text != nil {
		paths = append(paths, "text")
	}
	if p.Completed != nil {
		paths = append(paths, "completed")
	}
	if p.Deadline != nil {
		paths = append(paths, "deadline")
	}
	return paths
}

// Apply returns f with the patch applied.
func (p Patch) Apply(f Fields) Fields {
	if p.Text != nil {
		f.Text = *p.Text
	}
	if p.Completed != nil {
		f.Completed = *p.Completed
	}
	if p.Deadline != nil {
		f.Deadline = *p.Deadline
	}
	return f
}

// MarshalJSON encodes only the fields that are set.
func (p Patch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3)
	if p.Text != nil {
		out["text"] = *p.Text
	}
	if p.Completed != nil {
		out["completed"] = *p.Completed
	}
	if p.Deadline != nil {
		out["deadline"] = *p.Deadline
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a partial document. Unknown keys are rejected so a
// typo cannot silently become a no-op update.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode patch: %w", err)
	}
	var out Patch
	for key, value := range raw {
		switch key {
		case "text":
			var text string
			if err := json.Unmarshal(value, &text); err != nil {
				return fmt.Errorf("decode patch text: %w", err)
			}
			out.Text = &text
		case "completed":
			var completed bool
			if err := json.Unmarshal(value, &completed); err != nil {
				return fmt.Errorf("decode patch completed: %w", err)
			}
			out.Completed = &completed
		case "deadline":
			var deadline Date
			if err := deadline.UnmarshalJSON(value); err != nil {
				return err
			}
			out.Deadline = &deadline
		default:
			return fmt.Errorf("decode patch: unknown field %q", key)
		}
	}
	*p = out
	return nil
}
