package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/five82/ticklist/internal/task"
)

// timeNow is replaced in tests.
var timeNow = time.Now

type outputFormat string

const (
	formatTable outputFormat = "table"
	formatJSON  outputFormat = "json"
	formatYAML  outputFormat = "yaml"
)

func parseFormat(value string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", value)
}

func writeTasks(w io.Writer, format outputFormat, tasks []task.Task, now time.Time) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	switch format {
	case formatJSON:
		return writeJSON(w, tasks)
	case formatYAML:
		return writeYAML(w, tasks)
	}

	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "no tasks")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tDUE\tTEXT")
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(t.ID), done, dueLabel(t, now), t.Text)
	}
	return tw.Flush()
}

func writeStats(w io.Writer, format outputFormat, s task.Stats) error {
	switch format {
	case formatJSON:
		return writeJSON(w, s)
	case formatYAML:
		return writeYAML(w, s)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "All\t%d\n", s.All)
	fmt.Fprintf(tw, "Pending\t%d\n", s.Pending)
	fmt.Fprintf(tw, "Completed\t%d\n", s.Completed)
	fmt.Fprintf(tw, "Overdue\t%d\n", s.Overdue)
	fmt.Fprintf(tw, "Progress\t%d%%\n", s.CompletionRate)
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func dueLabel(t task.Task, now time.Time) string {
	if t.Deadline.IsZero() {
		return "-"
	}
	if task.IsOverdue(t, now) {
		return t.Deadline.String() + " (overdue)"
	}
	return t.Deadline.String()
}

// shortID trims long generated identifiers for the table; commands accept
// any unambiguous prefix.
func shortID(id string) string {
	const n = 8
	if len(id) <= n {
		return id
	}
	return id[:n]
}
