package state

import "github.com/five82/ticklist/internal/task"

// merge folds freshly fetched remote tasks into the local collection.
//
// For each remote task:
//   - if skip reports its identifier it is dropped (deleted locally, the
//     delete not yet reflected in the listing);
//   - if its identifier is already held the local copy wins, untouched;
//   - else a pending local task with the same text and creation time is
//     replaced in place, adopting the remote identifier;
//   - else the remote task is appended.
//
// The returned slice never holds two tasks with the same identifier, so
// merging the same remote collection twice is a no-op.
func merge(local, remote []task.Task, skip func(id string) bool) []task.Task {
	merged := cloneTasks(local)
	ids := make(map[string]struct{}, len(merged)+len(remote))
	for _, t := range merged {
		ids[t.ID] = struct{}{}
	}

	for _, r := range remote {
		r.Pending = false
		if _, held := ids[r.ID]; held {
			continue
		}
		if skip != nil && skip(r.ID) {
			continue
		}
		if i := findPlaceholder(merged, r); i >= 0 {
			delete(ids, merged[i].ID)
			merged[i] = r
		} else {
			merged = append(merged, r)
		}
		ids[r.ID] = struct{}{}
	}
	return merged
}

func findPlaceholder(tasks []task.Task, remote task.Task) int {
	for i, t := range tasks {
		if t.Pending && t.Text == remote.Text && t.CreatedAt.Equal(remote.CreatedAt) {
			return i
		}
	}
	return -1
}

func indexOf(tasks []task.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []task.Task) []task.Task {
	if len(tasks) == 0 {
		return nil
	}
	dup := make([]task.Task, len(tasks))
	copy(dup, tasks)
	return dup
}
