package state

import (
	"context"
	"sync"
)

// Op is a mutation already applied locally and waiting for the remote
// service. Commit runs the remote call once; later calls return the first
// result. Every Op must be committed: later operations on the same task wait
// for it.
type Op struct {
	kind OpKind
	id   string
	run  func(ctx context.Context) (string, error)

	once sync.Once
	err  error
}

// Kind names the operation.
func (o *Op) Kind() OpKind {
	return o.kind
}

// ID is the identifier the operation targets. For adds it holds the
// server-assigned identifier once Commit has succeeded. Empty for
// clear-completed.
func (o *Op) ID() string {
	return o.id
}

// Commit performs the remote call and reconciles local state with its
// outcome. The returned error, if any, is a *RemoteError.
func (o *Op) Commit(ctx context.Context) error {
	o.once.Do(func() {
		id, err := o.run(ctx)
		if id != "" {
			o.id = id
		}
		o.err = err
	})
	return o.err
}

func (s *Store) newOp(kind OpKind, id string, run func(ctx context.Context) (string, error)) *Op {
	return &Op{
		kind: kind,
		id:   id,
		run: func(ctx context.Context) (string, error) {
			s.track(1)
			defer s.track(-1)
			return run(ctx)
		},
	}
}
