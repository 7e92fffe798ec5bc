package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/ticklist/internal/task"
)

// Service is the remote document collection backing the store. It must be
// safe for concurrent use; clearing completed tasks issues deletes in
// parallel.
type Service interface {
	Create(ctx context.Context, fields task.Fields) (string, error)
	List(ctx context.Context) ([]task.Task, error)
	Update(ctx context.Context, id string, patch task.Patch) error
	Delete(ctx context.Context, id string) error
}

// ClearPolicy decides which tasks come back when clearing completed tasks
// partially fails.
type ClearPolicy int

const (
	// ClearRollbackAll restores every cleared task if any delete failed,
	// including ones the service already deleted.
	ClearRollbackAll ClearPolicy = iota
	// ClearRollbackFailed restores only the tasks whose delete failed.
	ClearRollbackFailed
)

func (p ClearPolicy) String() string {
	if p == ClearRollbackFailed {
		return "failed"
	}
	return "all"
}

// ParseClearPolicy accepts "all" or "failed"; empty means all.
func ParseClearPolicy(value string) (ClearPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "all":
		return ClearRollbackAll, nil
	case "failed":
		return ClearRollbackFailed, nil
	}
	return ClearRollbackAll, fmt.Errorf("unknown clear policy %q", value)
}

// Options configure a Store.
type Options struct {
	Service  Service
	Reporter Reporter         // nil logs through the standard logger
	Now      func() time.Time // nil uses time.Now
	NewID    func() string    // placeholder identifiers; nil uses local-<uuid>

	// OptimisticAdd shows new tasks immediately under a placeholder
	// identifier instead of waiting for the service to confirm them.
	OptimisticAdd bool
	ClearPolicy   ClearPolicy

	Filter task.Filter
	Sort   task.SortOrder
}

// Snapshot is a copy of the store state plus the derived view.
type Snapshot struct {
	Tasks   []task.Task // full collection in display order
	Visible []task.Task // Tasks after filter and sort
	Filter  task.Filter
	Sort    task.SortOrder
	Stats   task.Stats
	Now     time.Time // instant the view was computed for

	Loaded              bool
	InFlight            int // remote operations not yet resolved
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
	Version             uint64
}

// IsOffline returns true when the last remote operation failed.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures > 0
}

// Store owns the in-memory task collection. Intents mutate it synchronously
// and return an Op whose Commit performs the remote call and reconciles.
type Store struct {
	svc           Service
	reporter      Reporter
	now           func() time.Time
	newID         func() string
	optimisticAdd bool
	clearPolicy   ClearPolicy

	ids idQueue

	mu          sync.RWMutex
	tasks       []task.Task
	deleting    map[string]int      // ids with a delete not yet resolved
	deleted     map[string]struct{} // ids deleted while a load was running
	loading     int
	filter      task.Filter
	sort        task.SortOrder
	loaded      bool
	inFlight    int
	lastErr     error
	failures    int
	lastUpdated time.Time
	version     uint64
}

// NewStore builds a Store around a remote service.
func NewStore(opts Options) (*Store, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("store requires a remote service")
	}
	s := &Store{
		svc:           opts.Service,
		reporter:      opts.Reporter,
		now:           opts.Now,
		newID:         opts.NewID,
		optimisticAdd: opts.OptimisticAdd,
		clearPolicy:   opts.ClearPolicy,
		filter:        opts.Filter,
		sort:          opts.Sort,
	}
	if s.reporter == nil {
		s.reporter = LogReporter{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return "local-" + uuid.NewString() }
	}
	return s, nil
}

// Load fetches the remote collection and merges it into local state. On
// failure local state is left as it was.
func (s *Store) Load(ctx context.Context) error {
	s.track(1)
	defer s.track(-1)

	s.mu.Lock()
	s.loading++
	s.mu.Unlock()

	remote, err := s.svc.List(ctx)
	if err != nil {
		s.mu.Lock()
		s.endLoadLocked()
		s.mu.Unlock()
		return s.fail(OpLoad, "", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = merge(s.tasks, remote, s.removedLocked)
	s.endLoadLocked()
	s.loaded = true
	s.succeedLocked()
	return nil
}

// Add creates a task. Without OptimisticAdd nothing changes locally until
// Commit succeeds, at which point the confirmed task is prepended. With
// OptimisticAdd a pending placeholder is prepended now and either confirmed
// or removed by Commit.
func (s *Store) Add(text string, deadline task.Date) (*Op, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	fields := task.Fields{
		Text:      text,
		Deadline:  deadline,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	if !s.optimisticAdd {
		return s.newOp(OpAdd, "", func(ctx context.Context) (string, error) {
			id, err := s.svc.Create(ctx, fields)
			if err != nil {
				return "", s.fail(OpAdd, "", err)
			}
			s.mu.Lock()
			defer s.mu.Unlock()
			if indexOf(s.tasks, id) < 0 {
				s.tasks = prepend(s.tasks, fields.WithID(id))
			}
			s.succeedLocked()
			return id, nil
		}), nil
	}

	placeholder := fields.WithID(s.newID())
	placeholder.Pending = true
	s.mu.Lock()
	s.tasks = prepend(s.tasks, placeholder)
	s.touchLocked()
	s.mu.Unlock()

	return s.newOp(OpAdd, placeholder.ID, func(ctx context.Context) (string, error) {
		id, err := s.svc.Create(ctx, fields)

		s.mu.Lock()
		i := indexOf(s.tasks, placeholder.ID)
		if err != nil {
			if i >= 0 {
				s.tasks = slices.Delete(s.tasks, i, i+1)
			}
			s.mu.Unlock()
			return placeholder.ID, s.fail(OpAdd, placeholder.ID, err)
		}
		if i >= 0 {
			if indexOf(s.tasks, id) >= 0 {
				// A load already brought in the confirmed copy.
				s.tasks = slices.Delete(s.tasks, i, i+1)
			} else {
				s.tasks[i].ID = id
				s.tasks[i].Pending = false
			}
		}
		s.succeedLocked()
		s.mu.Unlock()
		return id, nil
	}), nil
}

// Edit replaces the text and deadline of a task. A failed update restores
// the task as it was before the edit.
func (s *Store) Edit(id, text string, deadline task.Date) (*Op, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	s.mu.Lock()
	i, err := s.lookupLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	before := s.tasks[i]
	s.tasks[i].Text = text
	s.tasks[i].Deadline = deadline
	s.touchLocked()
	turn := s.ids.enqueue(id)
	s.mu.Unlock()

	patch := task.Patch{Text: &text, Deadline: &deadline}
	return s.newOp(OpEdit, id, func(ctx context.Context) (string, error) {
		defer turn.release()
		if err := s.update(ctx, turn, id, patch); err != nil {
			s.restore(before)
			return id, s.fail(OpEdit, id, err)
		}
		s.succeed()
		return id, nil
	}), nil
}

// Toggle flips the completed flag. A failed update restores the task as it
// was before the toggle.
func (s *Store) Toggle(id string) (*Op, error) {
	s.mu.Lock()
	i, err := s.lookupLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	before := s.tasks[i]
	completed := !before.Completed
	s.tasks[i].Completed = completed
	s.touchLocked()
	turn := s.ids.enqueue(id)
	s.mu.Unlock()

	patch := task.Patch{Completed: &completed}
	return s.newOp(OpToggle, id, func(ctx context.Context) (string, error) {
		defer turn.release()
		if err := s.update(ctx, turn, id, patch); err != nil {
			s.restore(before)
			return id, s.fail(OpToggle, id, err)
		}
		s.succeed()
		return id, nil
	}), nil
}

// Delete removes a task. A failed delete puts the task back at the head of
// the collection; its old position is not kept. Until the delete resolves,
// loads do not bring the task back.
func (s *Store) Delete(id string) (*Op, error) {
	s.mu.Lock()
	i, err := s.lookupLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	removed := s.tasks[i]
	s.tasks = slices.Delete(s.tasks, i, i+1)
	s.touchLocked()
	s.markDeletingLocked(id)
	turn := s.ids.enqueue(id)
	s.mu.Unlock()

	return s.newOp(OpDelete, id, func(ctx context.Context) (string, error) {
		defer turn.release()
		err := s.remove(ctx, turn, id)

		s.mu.Lock()
		s.resolveDeleteLocked(id, err == nil)
		if err != nil && indexOf(s.tasks, id) < 0 {
			s.tasks = prepend(s.tasks, removed)
			s.touchLocked()
		}
		s.mu.Unlock()

		if err != nil {
			return id, s.fail(OpDelete, id, err)
		}
		s.succeed()
		return id, nil
	}), nil
}

// ClearCompleted removes every completed task and deletes them remotely in
// parallel. When any delete fails the store re-appends, in their original
// relative order, either all cleared tasks or only the failed ones depending
// on the ClearPolicy.
func (s *Store) ClearCompleted() *Op {
	s.mu.Lock()
	var cleared, kept []task.Task
	for _, t := range s.tasks {
		if t.Completed && !t.Pending {
			cleared = append(cleared, t)
		} else {
			kept = append(kept, t)
		}
	}
	turns := make([]*ticket, len(cleared))
	for i, t := range cleared {
		s.markDeletingLocked(t.ID)
		turns[i] = s.ids.enqueue(t.ID)
	}
	if len(cleared) > 0 {
		s.tasks = kept
		s.touchLocked()
	}
	s.mu.Unlock()

	return s.newOp(OpClear, "", func(ctx context.Context) (string, error) {
		if len(cleared) == 0 {
			return "", nil
		}

		errs := make([]error, len(cleared))
		var wg sync.WaitGroup
		for i, t := range cleared {
			wg.Go(func() {
				defer turns[i].release()
				errs[i] = s.remove(ctx, turns[i], t.ID)
			})
		}
		wg.Wait()

		s.mu.Lock()
		for i, t := range cleared {
			s.resolveDeleteLocked(t.ID, errs[i] == nil)
		}
		s.mu.Unlock()

		var failed []task.Task
		for i, err := range errs {
			if err != nil {
				failed = append(failed, cleared[i])
			}
		}
		if len(failed) == 0 {
			s.succeed()
			return "", nil
		}

		restore := cleared
		if s.clearPolicy == ClearRollbackFailed {
			restore = failed
		}
		s.mu.Lock()
		for _, t := range restore {
			if indexOf(s.tasks, t.ID) < 0 {
				s.tasks = append(s.tasks, t)
			}
		}
		s.touchLocked()
		s.mu.Unlock()
		return "", s.fail(OpClear, "", errors.Join(errs...))
	})
}

// Get returns the task with the given identifier.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.tasks, id); i >= 0 {
		return s.tasks[i], true
	}
	return task.Task{}, false
}

// SetFilter changes the visible subset.
func (s *Store) SetFilter(f task.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.touchLocked()
}

// CycleFilter advances all → pending → completed → overdue → all.
func (s *Store) CycleFilter() task.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = s.filter.Next()
	s.touchLocked()
	return s.filter
}

// SetSort changes the sort order of the visible subset.
func (s *Store) SetSort(o task.SortOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = o
	s.touchLocked()
}

// CycleSort advances none → asc → desc → none.
func (s *Store) CycleSort() task.SortOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = s.sort.Next()
	s.touchLocked()
	return s.sort
}

// Snapshot returns a copy of the current state and its derived view.
func (s *Store) Snapshot() Snapshot {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tasks:               cloneTasks(s.tasks),
		Filter:              s.filter,
		Sort:                s.sort,
		Now:                 now,
		Loaded:              s.loaded,
		InFlight:            s.inFlight,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
		Version:             s.version,
	}
	if s.lastErr != nil {
		snap.LastError = fmt.Errorf("%w", s.lastErr)
	}
	snap.Visible = task.Apply(snap.Tasks, s.filter, s.sort, now)
	snap.Stats = task.Summarize(snap.Tasks, now)
	return snap
}

// ValidateDeadline rejects deadlines before today. The zero Date is valid.
func ValidateDeadline(d task.Date, now time.Time) error {
	if d.IsZero() {
		return nil
	}
	if d.Before(task.DateOf(now)) {
		return fmt.Errorf("%w: %s", ErrPastDeadline, d)
	}
	return nil
}

func (s *Store) lookupLocked(id string) (int, error) {
	i := indexOf(s.tasks, id)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.tasks[i].Pending {
		return -1, fmt.Errorf("%w: %s", ErrPending, id)
	}
	return i, nil
}

// update waits for its turn on id and sends the patch.
func (s *Store) update(ctx context.Context, turn *ticket, id string, patch task.Patch) error {
	if err := turn.wait(ctx); err != nil {
		return err
	}
	return s.svc.Update(ctx, id, patch)
}

// remove waits for its turn on id and deletes the document. A document the
// service no longer has counts as deleted.
func (s *Store) remove(ctx context.Context, turn *ticket, id string) error {
	if err := turn.wait(ctx); err != nil {
		return err
	}
	if err := s.svc.Delete(ctx, id); err != nil && !errors.Is(err, task.ErrNoDocument) {
		return err
	}
	return nil
}

func (s *Store) markDeletingLocked(id string) {
	if s.deleting == nil {
		s.deleting = make(map[string]int)
	}
	s.deleting[id]++
}

// resolveDeleteLocked ends the delete window for id. A successful delete is
// remembered while a load is running, since that load's listing may predate
// the delete.
func (s *Store) resolveDeleteLocked(id string, ok bool) {
	if s.deleting[id]--; s.deleting[id] <= 0 {
		delete(s.deleting, id)
	}
	if ok && s.loading > 0 {
		if s.deleted == nil {
			s.deleted = make(map[string]struct{})
		}
		s.deleted[id] = struct{}{}
	}
}

// removedLocked reports whether a fetched task must stay out of the
// collection because it was deleted locally.
func (s *Store) removedLocked(id string) bool {
	if s.deleting[id] > 0 {
		return true
	}
	_, ok := s.deleted[id]
	return ok
}

func (s *Store) endLoadLocked() {
	s.loading--
	if s.loading == 0 {
		s.deleted = nil
	}
}

// restore puts a captured copy back in place. It is a no-op when the task
// has been removed in the meantime.
func (s *Store) restore(before task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.tasks, before.ID); i >= 0 {
		s.tasks[i] = before
		s.touchLocked()
	}
}

func (s *Store) fail(kind OpKind, id string, err error) error {
	rerr := &RemoteError{Op: kind, ID: id, Err: err}
	s.mu.Lock()
	s.lastErr = rerr
	s.failures++
	s.touchLocked()
	s.mu.Unlock()

	s.reporter.Report(rerr)
	return rerr
}

func (s *Store) succeed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.succeedLocked()
}

func (s *Store) succeedLocked() {
	s.lastErr = nil
	s.failures = 0
	s.touchLocked()
}

func (s *Store) touchLocked() {
	s.version++
	s.lastUpdated = s.now()
}

func (s *Store) track(delta int) {
	s.mu.Lock()
	s.inFlight += delta
	s.mu.Unlock()
}

func prepend(tasks []task.Task, t task.Task) []task.Task {
	return append([]task.Task{t}, tasks...)
}
