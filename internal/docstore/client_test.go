package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/five82/ticklist/internal/task"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != DefaultAddr {
		t.Fatalf("host = %q, want %q", u.Host, DefaultAddr)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestNewClient_RejectsNestedCollection(t *testing.T) {
	if _, err := NewClient("", "a/b", 0); err == nil {
		t.Fatal("NewClient returned nil error for nested collection")
	}
}

func TestClient_RoundTrip(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	var (
		gotCreate    map[string]any
		gotPatch     map[string]any
		gotDeletes   []string
		gotUserAgent string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		const base = "/api/collections/todos/documents"
		switch {
		case r.Method == http.MethodPost && r.URL.Path == base:
			_ = json.NewDecoder(r.Body).Decode(&gotCreate)
			_ = json.NewEncoder(w).Encode(CreateResponse{ID: "abc"})
		case r.Method == http.MethodGet && r.URL.Path == base:
			_ = json.NewEncoder(w).Encode(ListResponse{Documents: []task.Task{
				{ID: "abc", Text: "buy milk", CreatedAt: created, Deadline: task.Date{Year: 2024, Month: time.March, Day: 20}},
			}})
		case r.Method == http.MethodPatch && r.URL.Path == base+"/abc":
			_ = json.NewDecoder(r.Body).Decode(&gotPatch)
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, base+"/"):
			gotDeletes = append(gotDeletes, strings.TrimPrefix(r.URL.Path, base+"/"))
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "todos", time.Second)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	id, err := c.Create(ctx, task.Fields{Text: "buy milk", CreatedAt: created})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id != "abc" {
		t.Fatalf("Create id = %q, want abc", id)
	}
	if gotCreate["text"] != "buy milk" || gotCreate["completed"] != false || gotCreate["deadline"] != nil {
		t.Fatalf("create body = %v", gotCreate)
	}

	tasks, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "abc" || !tasks[0].CreatedAt.Equal(created) || tasks[0].Deadline.String() != "2024-03-20" {
		t.Fatalf("List = %+v", tasks)
	}

	done := true
	if err := c.Update(ctx, "abc", task.Patch{Completed: &done}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(gotPatch) != 1 || gotPatch["completed"] != true {
		t.Fatalf("patch body = %v, want only completed", gotPatch)
	}

	if err := c.Delete(ctx, "a b"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if len(gotDeletes) != 1 || gotDeletes[0] != "a b" {
		t.Fatalf("deletes = %v, want [a b]", gotDeletes)
	}

	if !strings.HasPrefix(gotUserAgent, "ticklist/") {
		t.Fatalf("User-Agent = %q, want ticklist/*", gotUserAgent)
	}
}

func TestClient_EmptyPatchSkipsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "", 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if err := c.Update(context.Background(), "abc", task.Patch{}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if called {
		t.Fatal("empty patch reached the server")
	}
}

func TestClient_StatusAndDecodeErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, "{not-json")
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "document not found"})
		case http.MethodPost:
			http.Error(w, "boom", http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "", 0)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := c.List(ctx); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("List error = %v, want decode response error", err)
	}

	err = c.Delete(ctx, "gone")
	if !errors.Is(err, task.ErrNoDocument) {
		t.Fatalf("Delete error = %v, want not found", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Message != "document not found" {
		t.Fatalf("Delete error = %#v, want service message", err)
	}

	_, err = c.Create(ctx, task.Fields{Text: "x"})
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable || se.Message != "boom" {
		t.Fatalf("Create error = %v, want 503 boom", err)
	}
}
