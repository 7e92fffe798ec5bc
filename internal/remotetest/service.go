// Package remotetest provides an in-memory task service with scripted
// failures and blocking, for tests of code built on state.Service.
package remotetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/five82/ticklist/internal/task"
)

// Method names a service call.
type Method string

const (
	MethodCreate Method = "create"
	MethodList   Method = "list"
	MethodUpdate Method = "update"
	MethodDelete Method = "delete"
)

// ErrUnavailable is the default scripted failure.
var ErrUnavailable = errors.New("service unavailable")

// ErrNoDocument is returned for updates and deletes of unknown identifiers.
var ErrNoDocument = task.ErrNoDocument

// Call records one request.
type Call struct {
	Method Method
	ID     string
	Fields task.Fields
	Patch  task.Patch
}

type failure struct {
	method Method
	id     string
	err    error
}

// Service is an in-memory document collection.
type Service struct {
	mu       sync.Mutex
	docs     map[string]task.Fields
	order    []string
	seq      int
	failures []failure
	gates    map[Method]chan struct{}
	calls    []Call
}

// New returns a service pre-populated with tasks.
func New(seed ...task.Task) *Service {
	s := &Service{
		docs:  make(map[string]task.Fields),
		gates: make(map[Method]chan struct{}),
	}
	for _, t := range seed {
		s.docs[t.ID] = t.Fields()
		s.order = append(s.order, t.ID)
	}
	return s
}

// FailNext makes the next call of method fail with err (ErrUnavailable when
// nil). An empty id matches any identifier. Failures are consumed in order.
func (s *Service) FailNext(method Method, id string, err error) {
	if err == nil {
		err = ErrUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, id: id, err: err})
}

// Block holds every call of method until the returned release is called.
func (s *Service) Block(method Method) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[method] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gates[method] == gate {
				delete(s.gates, method)
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the requests seen so far.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Tasks returns the stored documents in insertion order.
func (s *Service) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id].WithID(id))
	}
	return out
}

// Create stores a new document under a generated identifier.
func (s *Service) Create(ctx context.Context, fields task.Fields) (string, error) {
	if err := s.enter(ctx, Call{Method: MethodCreate, Fields: fields}); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("doc-%d", s.seq)
	s.docs[id] = fields
	s.order = append(s.order, id)
	return id, nil
}

// List returns every document.
func (s *Service) List(ctx context.Context) ([]task.Task, error) {
	if err := s.enter(ctx, Call{Method: MethodList}); err != nil {
		return nil, err
	}
	return s.Tasks(), nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, patch task.Patch) error {
	if err := s.enter(ctx, Call{Method: MethodUpdate, ID: id, Patch: patch}); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoDocument, id)
	}
	s.docs[id] = patch.Apply(fields)
	return nil
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.enter(ctx, Call{Method: MethodDelete, ID: id}); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoDocument, id)
	}
	delete(s.docs, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

// enter records the call, waits on any gate and returns a scripted failure.
func (s *Service) enter(ctx context.Context, call Call) error {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	gate := s.gates[call.Method]
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.failures {
		if f.method == call.Method && (f.id == "" || f.id == call.ID) {
			s.failures = slices.Delete(s.failures, i, i+1)
			return f.err
		}
	}
	return nil
}
