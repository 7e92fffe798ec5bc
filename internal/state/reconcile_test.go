package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/five82/ticklist/internal/task"
)

func TestMerge(t *testing.T) {
	created := fixedNow.Add(-time.Minute)
	placeholder := task.Task{ID: "local-1", Text: "water plants", CreatedAt: created, Pending: true}
	held := seedTask("a", "local copy", false)

	remoteHeld := seedTask("a", "remote copy", true)
	remoteConfirmed := task.Task{ID: "doc-9", Text: "water plants", CreatedAt: created}
	remoteNew := seedTask("b", "new", false)

	tests := []struct {
		name   string
		local  []task.Task
		remote []task.Task
		want   []string
	}{
		{name: "empty local", remote: []task.Task{remoteNew, remoteHeld}, want: []string{"b", "a"}},
		{name: "held id wins", local: []task.Task{held}, remote: []task.Task{remoteHeld, remoteNew}, want: []string{"a", "b"}},
		{name: "placeholder replaced in place", local: []task.Task{placeholder, held}, remote: []task.Task{remoteConfirmed}, want: []string{"doc-9", "a"}},
		{name: "duplicate remote ids collapse", remote: []task.Task{remoteNew, remoteNew}, want: []string{"b"}},
		{name: "nothing fetched", local: []task.Task{held}, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := merge(tt.local, tt.remote, nil)
			if !sameIDs(got, tt.want...) {
				t.Fatalf("merge = %v, want %v", taskIDs(got), tt.want)
			}
			again := merge(got, tt.remote, nil)
			if !sameIDs(again, tt.want...) {
				t.Fatalf("second merge = %v, want %v", taskIDs(again), tt.want)
			}
		})
	}
}

func TestMerge_KeepsLocalFields(t *testing.T) {
	held := seedTask("a", "local copy", false)
	got := merge([]task.Task{held}, []task.Task{seedTask("a", "remote copy", true)}, nil)
	if got[0].Text != "local copy" || got[0].Completed {
		t.Fatalf("local task overwritten: %+v", got[0])
	}
}

func TestMerge_ConfirmedTaskNotPending(t *testing.T) {
	created := fixedNow.Add(-time.Minute)
	local := []task.Task{{ID: "local-1", Text: "x", CreatedAt: created, Pending: true}}
	remote := []task.Task{{ID: "doc-1", Text: "x", CreatedAt: created, Pending: true}}

	got := merge(local, remote, nil)
	if len(got) != 1 || got[0].Pending {
		t.Fatalf("merge = %+v, want one confirmed task", got)
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	local := []task.Task{{ID: "local-1", Text: "x", CreatedAt: fixedNow, Pending: true}}
	merge(local, []task.Task{{ID: "doc-1", Text: "x", CreatedAt: fixedNow}}, nil)
	if local[0].ID != "local-1" {
		t.Fatalf("input slice modified: %+v", local[0])
	}
}

func TestMerge_SkipsDeletedIDs(t *testing.T) {
	held := seedTask("a", "kept", false)
	remote := []task.Task{held, seedTask("gone", "deleted locally", true), seedTask("b", "new", false)}
	got := merge([]task.Task{held}, remote, func(id string) bool { return id == "gone" })
	if !sameIDs(got, "a", "b") {
		t.Fatalf("merge = %v, want [a b]", taskIDs(got))
	}
}

func TestIDQueue_RunsInTicketOrder(t *testing.T) {
	var q idQueue
	ctx := context.Background()
	first := q.enqueue("a")
	second := q.enqueue("a")
	other := q.enqueue("b")

	if err := first.wait(ctx); err != nil {
		t.Fatalf("first wait = %v, want nil", err)
	}
	if err := other.wait(ctx); err != nil {
		t.Fatalf("wait on another id = %v, want nil", err)
	}
	other.release()

	started := make(chan struct{})
	go func() {
		_ = second.wait(ctx)
		close(started)
	}()
	select {
	case <-started:
		t.Fatal("second ticket ran before the first was released")
	case <-time.After(20 * time.Millisecond):
	}

	first.release()
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("second ticket never ran after the first was released")
	}
	second.release()

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tail) != 0 {
		t.Fatalf("len(tail) = %d after release, want 0", len(q.tail))
	}
}

func TestIDQueue_CancelledWaitKeepsOrder(t *testing.T) {
	var q idQueue
	first := q.enqueue("a")
	second := q.enqueue("a")
	third := q.enqueue("a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := second.wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled wait = %v, want context.Canceled", err)
	}
	second.release()

	waitCtx, stop := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer stop()
	if err := third.wait(waitCtx); err == nil {
		t.Fatal("third ticket ran while the first was still held")
	}

	first.release()
	if err := third.wait(context.Background()); err != nil {
		t.Fatalf("third wait = %v, want nil", err)
	}
	third.release()
}
