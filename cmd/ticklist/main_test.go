package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/five82/ticklist/internal/task"
)

type cli struct {
	t          *testing.T
	configPath string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"TICKLIST_BACKEND", "TICKLIST_SQLITE_PATH", "TICKLIST_LOG_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	orig := timeNow
	timeNow = func() time.Time { return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = orig })

	body := "backend = \"sqlite\"\n" +
		"log_file = \"" + filepath.Join(home, "ticklist.log") + "\"\n" +
		"[sqlite]\npath = \"" + filepath.Join(home, "tasks.sqlite3") + "\"\n"
	path := filepath.Join(home, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return &cli{t: t, configPath: path}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", c.configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("ticklist %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func addedID(t *testing.T, out string) string {
	t.Helper()
	id, ok := strings.CutPrefix(strings.TrimSpace(out), "added ")
	if !ok || id == "" {
		t.Fatalf("add output = %q", out)
	}
	return id
}

func TestCLI_AddListDoneClear(t *testing.T) {
	c := newCLI(t)

	milk := addedID(t, c.mustRun("add", "Buy", "milk", "--due", "2030-01-02"))
	taxes := addedID(t, c.mustRun("add", "File taxes"))

	out := c.mustRun("list")
	if !strings.Contains(out, "Buy milk") || !strings.Contains(out, "2030-01-02") || !strings.Contains(out, "File taxes") {
		t.Fatalf("list output = %q", out)
	}

	if out := c.mustRun("done", milk); !strings.Contains(out, "completed") {
		t.Fatalf("done output = %q", out)
	}

	out = c.mustRun("list", "--filter", "pending", "--output", "json")
	var pending []task.Task
	if err := json.Unmarshal([]byte(out), &pending); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(pending) != 1 || pending[0].ID != taxes {
		t.Fatalf("pending = %+v, want only %s", pending, taxes)
	}

	if out := c.mustRun("clear"); !strings.Contains(out, "cleared 1") {
		t.Fatalf("clear output = %q", out)
	}
	if out := c.mustRun("clear"); !strings.Contains(out, "no completed tasks") {
		t.Fatalf("second clear output = %q", out)
	}
}

func TestCLI_AddRejectsPastDeadline(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("add", "Too late", "--due", "2024-03-14")
	if err == nil || !strings.Contains(err.Error(), "past") {
		t.Fatalf("add error = %v, want past deadline", err)
	}
}

func TestCLI_EditKeepsOrClearsDeadline(t *testing.T) {
	c := newCLI(t)
	id := addedID(t, c.mustRun("add", "Draft", "--due", "2030-05-01"))

	c.mustRun("edit", id[:6], "Draft", "v2")
	out := c.mustRun("list", "-o", "yaml")
	var tasks []map[string]any
	if err := yaml.Unmarshal([]byte(out), &tasks); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if len(tasks) != 1 || tasks[0]["text"] != "Draft v2" || tasks[0]["deadline"] != "2030-05-01" {
		t.Fatalf("tasks = %+v", tasks)
	}

	c.mustRun("edit", id, "Draft v2", "--clear-due")
	out = c.mustRun("list")
	if strings.Contains(out, "2030-05-01") {
		t.Fatalf("deadline not cleared: %q", out)
	}

	if _, err := c.run("edit", id, "x", "--due", "2030-01-01", "--clear-due"); err == nil {
		t.Fatalf("edit accepted --due with --clear-due")
	}
}

func TestCLI_StatsAndRemove(t *testing.T) {
	c := newCLI(t)
	a := addedID(t, c.mustRun("add", "one"))
	addedID(t, c.mustRun("add", "two"))
	c.mustRun("done", a)

	out := c.mustRun("stats", "-o", "json")
	var stats task.Stats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	want := task.Stats{All: 2, Pending: 1, Completed: 1, CompletionRate: 50}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	c.mustRun("rm", a)
	if out := c.mustRun("stats"); !strings.Contains(out, "All") || !strings.Contains(out, "1") {
		t.Fatalf("stats output = %q", out)
	}
	if _, err := c.run("rm", a); err == nil {
		t.Fatalf("rm of a deleted task succeeded")
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]outputFormat{"": formatTable, "JSON": formatJSON, " yaml ": formatYAML} {
		got, err := parseFormat(in)
		if err != nil || got != want {
			t.Fatalf("parseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := parseFormat("csv"); err == nil {
		t.Fatalf("parseFormat(csv) returned nil error")
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("doc-1"); got != "doc-1" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("0f8c2a1e-4b7d-4a2e-9c55-1d2f3e4a5b6c"); got != "0f8c2a1e" {
		t.Fatalf("shortID = %q", got)
	}
}
