// Package state provides the task store that reconciles local edits with the
// remote document service.
//
// # Overview
//
// The Store owns the in-memory task collection shown by the UI. Every user
// intent (add, edit, toggle, delete, clear completed) is applied locally right
// away and then confirmed or rolled back once the remote call resolves:
//
//	Intent (UI / CLI):             Commit (goroutine / tea.Cmd):
//	┌────────────────────┐        ┌──────────────────────────┐
//	│ op := store.Edit() │        │ op.Commit(ctx)           │
//	│   capture snapshot │───────→│   service.Update()       │
//	│   mutate locally   │  (Op)  │   ok:   keep local state │
//	│ render Snapshot()  │        │   fail: restore snapshot │
//	└────────────────────┘        └──────────────────────────┘
//
// The split keeps the UI responsive: the local mutation happens under the
// store lock and finishes before the intent method returns, while network
// latency is only paid inside Commit.
//
// # Reconciliation rules
//
//   - Load merges fetched tasks by identifier and never overwrites a task the
//     store already holds. Tasks deleted locally stay out even when the
//     listing predates the delete. A pending placeholder whose text and creation time
//     equal a fetched task is replaced in place by the confirmed copy.
//   - Edit and Toggle restore the captured pre-intent copy when the update
//     fails. The copy is restored by identifier; when the task is gone the
//     rollback does nothing.
//   - Delete puts the task back at the head of the collection on failure. A
//     document the service no longer has (task.ErrNoDocument) counts as
//     deleted.
//   - ClearCompleted deletes in parallel and, on any failure, re-appends the
//     cleared tasks in their original order (all of them, or only the failed
//     ones with ClearRollbackFailed).
//   - Add waits for the service before showing the task unless OptimisticAdd
//     is set, in which case a placeholder is shown immediately and removed if
//     creation fails.
//
// Each intent takes a ticket for its task while holding the store lock, and
// Commit waits for the earlier tickets on that task, so the service sees a
// task's operations in the order the user issued them however the commits
// are scheduled. A commit whose context ends while waiting rolls back.
// Rollbacks still restore the copy captured by their own intent: if two
// edits to one task are queued and the first fails, its rollback overwrites
// the second edit locally.
//
// # Errors
//
// Every remote failure is wrapped in a *RemoteError, recorded in the
// snapshot (LastError, ConsecutiveFailures) and handed to the Reporter.
// Nothing is retried. ErrNotFound, ErrEmptyText and ErrPending are returned
// by intent methods before any state changes.
//
// # Sessions
//
// A Session ties a Store to one user session. Its first Activate runs the
// initial Load. Further loads happen only when the caller asks, for example
// on a reload key or a configured sync interval.
package state
