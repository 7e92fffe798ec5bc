package task

import (
	"testing"
	"time"
)

var testNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) Date {
	return Date{Year: y, Month: m, Day: d}
}

func TestIsOverdue_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no deadline", Task{}, false},
		{"yesterday open", Task{Deadline: date(2024, time.March, 14)}, true},
		{"today open", Task{Deadline: date(2024, time.March, 15)}, false},
		{"tomorrow open", Task{Deadline: date(2024, time.March, 16)}, false},
		{"yesterday completed", Task{Deadline: date(2024, time.March, 14), Completed: true}, false},
		{"last year completed", Task{Deadline: date(2023, time.January, 1), Completed: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOverdue(tt.task, testNow); got != tt.want {
				t.Fatalf("IsOverdue(%v) = %v, want %v", tt.task.Deadline, got, tt.want)
			}
		})
	}
}

func TestIsOverdue_LateInTheDay(t *testing.T) {
	late := time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC)
	if IsOverdue(Task{Deadline: date(2024, time.March, 15)}, late) {
		t.Fatal("task due today should not be overdue at 23:59:59")
	}
	early := time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC)
	if !IsOverdue(Task{Deadline: date(2024, time.March, 15)}, early) {
		t.Fatal("task due yesterday should be overdue at midnight")
	}
}

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		deadline Date
		want     int
	}{
		{date(2024, time.March, 15), 0},
		{date(2024, time.March, 16), 1},
		{date(2024, time.March, 14), -1},
		{date(2024, time.April, 1), 17},
		{date(2024, time.March, 10), -5},
	}
	for _, tt := range tests {
		if got := DaysUntil(tt.deadline, testNow); got != tt.want {
			t.Errorf("DaysUntil(%s) = %d, want %d", tt.deadline, got, tt.want)
		}
	}
}

func TestSortByDeadline_DeadlineLessAlwaysLast(t *testing.T) {
	third := Task{ID: "3", Deadline: date(2024, time.March, 3)}
	first := Task{ID: "1", Deadline: date(2024, time.March, 1)}
	none := Task{ID: "none"}
	second := Task{ID: "2", Deadline: date(2024, time.March, 2)}

	tests := []struct {
		order SortOrder
		want  []string
	}{
		{SortNone, []string{"3", "1", "none", "2"}},
		{SortAsc, []string{"1", "2", "3", "none"}},
		{SortDesc, []string{"3", "2", "1", "none"}},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			tasks := []Task{third, first, none, second}
			SortByDeadline(tasks, tt.order)
			if got := ids(tasks); !equalStrings(got, tt.want) {
				t.Fatalf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortByDeadline_Stable(t *testing.T) {
	tasks := []Task{
		{ID: "a", Deadline: date(2024, time.May, 1)},
		{ID: "x"},
		{ID: "b", Deadline: date(2024, time.May, 1)},
		{ID: "y"},
		{ID: "c", Deadline: date(2024, time.April, 1)},
	}
	SortByDeadline(tasks, SortDesc)
	want := []string{"a", "b", "c", "x", "y"}
	if got := ids(tasks); !equalStrings(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestApply_FiltersWithoutMutatingInput(t *testing.T) {
	tasks := []Task{
		{ID: "open", Deadline: date(2024, time.March, 20)},
		{ID: "done", Completed: true},
		{ID: "late", Deadline: date(2024, time.March, 1)},
	}

	tests := []struct {
		filter Filter
		want   []string
	}{
		{FilterAll, []string{"late", "open", "done"}},
		{FilterPending, []string{"late", "open"}},
		{FilterCompleted, []string{"done"}},
		{FilterOverdue, []string{"late"}},
	}
	for _, tt := range tests {
		got := ids(Apply(tasks, tt.filter, SortAsc, testNow))
		if !equalStrings(got, tt.want) {
			t.Errorf("Apply(%s) = %v, want %v", tt.filter, got, tt.want)
		}
	}

	if got := ids(tasks); !equalStrings(got, []string{"open", "done", "late"}) {
		t.Fatalf("input reordered: %v", got)
	}
}

func TestSummarize_CompletionRate(t *testing.T) {
	if got := Summarize(nil, testNow); got != (Stats{}) {
		t.Fatalf("Summarize(nil) = %+v, want zero", got)
	}

	tasks := []Task{
		{ID: "1", Completed: true},
		{ID: "2"},
		{ID: "3", Deadline: date(2024, time.March, 1)},
	}
	got := Summarize(tasks, testNow)
	want := Stats{All: 3, Pending: 2, Completed: 1, Overdue: 1, CompletionRate: 33}
	if got != want {
		t.Fatalf("Summarize = %+v, want %+v", got, want)
	}

	tasks[1].Completed = true
	if rate := Summarize(tasks, testNow).CompletionRate; rate != 67 {
		t.Fatalf("CompletionRate = %d, want 67", rate)
	}
	if got.Count(FilterOverdue) != 1 || got.Count(FilterAll) != 3 {
		t.Fatalf("Count mismatch: %+v", got)
	}
}

func TestCycles(t *testing.T) {
	order := SortNone
	var seen []string
	for range 4 {
		order = order.Next()
		seen = append(seen, order.String())
	}
	if !equalStrings(seen, []string{"asc", "desc", "none", "asc"}) {
		t.Fatalf("sort cycle = %v", seen)
	}

	if got := FilterOverdue.Next(); got != FilterAll {
		t.Fatalf("FilterOverdue.Next() = %v, want all", got)
	}
}

func TestParseSelectors(t *testing.T) {
	if f, err := ParseFilter(" Overdue "); err != nil || f != FilterOverdue {
		t.Fatalf("ParseFilter = %v, %v", f, err)
	}
	if _, err := ParseFilter("later"); err == nil {
		t.Fatal("ParseFilter(later) returned nil error")
	}
	if o, err := ParseSortOrder("descending"); err != nil || o != SortDesc {
		t.Fatalf("ParseSortOrder = %v, %v", o, err)
	}
	if _, err := ParseSortOrder("sideways"); err == nil {
		t.Fatal("ParseSortOrder(sideways) returned nil error")
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
