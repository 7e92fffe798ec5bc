package task

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Filter selects which tasks are visible.
type Filter int

const (
	FilterAll Filter = iota
	FilterPending
	FilterCompleted
	FilterOverdue
)

var filterNames = []string{"all", "pending", "completed", "overdue"}

func (f Filter) String() string {
	if f < 0 || int(f) >= len(filterNames) {
		return "all"
	}
	return filterNames[f]
}

// Next cycles all → pending → completed → overdue → all.
func (f Filter) Next() Filter {
	return Filter((int(f) + 1) % len(filterNames))
}

// ParseFilter accepts the names returned by Filter.String.
func ParseFilter(value string) (Filter, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return FilterAll, nil
	}
	for i, name := range filterNames {
		if name == value {
			return Filter(i), nil
		}
	}
	return FilterAll, fmt.Errorf("unknown filter %q", value)
}

// Match reports whether t passes the filter.
func (f Filter) Match(t Task, now time.Time) bool {
	switch f {
	case FilterPending:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	case FilterOverdue:
		return IsOverdue(t, now)
	default:
		return true
	}
}

// SortOrder selects how visible tasks are ordered.
type SortOrder int

const (
	SortNone SortOrder = iota
	SortAsc
	SortDesc
)

var sortNames = []string{"none", "asc", "desc"}

func (o SortOrder) String() string {
	if o < 0 || int(o) >= len(sortNames) {
		return "none"
	}
	return sortNames[o]
}

// Next cycles none → asc → desc → none.
func (o SortOrder) Next() SortOrder {
	return SortOrder((int(o) + 1) % len(sortNames))
}

// ParseSortOrder accepts the names returned by SortOrder.String.
func ParseSortOrder(value string) (SortOrder, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "", "none":
		return SortNone, nil
	case "asc", "ascending":
		return SortAsc, nil
	case "desc", "descending":
		return SortDesc, nil
	}
	return SortNone, fmt.Errorf("unknown sort order %q", value)
}

// StartOfDay returns midnight at the start of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// IsOverdue reports whether an open task's deadline ended before today began.
func IsOverdue(t Task, now time.Time) bool {
	if t.Deadline.IsZero() || t.Completed {
		return false
	}
	return t.Deadline.EndOfDay(now.Location()).Before(StartOfDay(now))
}

// DaysUntil returns whole days from the start of today to the end of d:
// 0 for today, 1 for tomorrow, -1 for yesterday.
func DaysUntil(d Date, now time.Time) int {
	// Counted on UTC midnights so DST transitions cannot skew the result.
	today := DateOf(now).StartOfDay(time.UTC)
	return int(d.StartOfDay(time.UTC).Sub(today).Hours() / 24)
}

// SortByDeadline orders tasks in place. Tasks without a deadline always sort
// last; the sort is stable so equal keys keep their relative order.
func SortByDeadline(tasks []Task, order SortOrder) {
	if order == SortNone {
		return
	}
	slices.SortStableFunc(tasks, func(a, b Task) int {
		switch {
		case a.Deadline.IsZero() && b.Deadline.IsZero():
			return 0
		case a.Deadline.IsZero():
			return 1
		case b.Deadline.IsZero():
			return -1
		}
		cmp := compareDates(a.Deadline, b.Deadline)
		if order == SortDesc {
			return -cmp
		}
		return cmp
	})
}

func compareDates(a, b Date) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	}
	return 0
}

// Apply filters and sorts a copy of tasks. The input is never modified.
func Apply(tasks []Task, f Filter, order SortOrder, now time.Time) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t, now) {
			out = append(out, t)
		}
	}
	SortByDeadline(out, order)
	return out
}

// Stats summarises a task collection.
type Stats struct {
	All            int `json:"all" yaml:"all"`
	Pending        int `json:"pending" yaml:"pending"`
	Completed      int `json:"completed" yaml:"completed"`
	Overdue        int `json:"overdue" yaml:"overdue"`
	CompletionRate int `json:"completionRate" yaml:"completionRate"`
}

// Count returns the count matching a filter.
func (s Stats) Count(f Filter) int {
	switch f {
	case FilterPending:
		return s.Pending
	case FilterCompleted:
		return s.Completed
	case FilterOverdue:
		return s.Overdue
	default:
		return s.All
	}
}

// Summarize counts tasks per filter and computes the completion rate as a
// rounded percentage (0 for an empty collection).
func Summarize(tasks []Task, now time.Time) Stats {
	var s Stats
	s.All = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if IsOverdue(t, now) {
			s.Overdue++
		}
	}
	if s.All > 0 {
		s.CompletionRate = int(math.Round(100 * float64(s.Completed) / float64(s.All)))
	}
	return s
}
