package state

import (
	"context"
	"sync"
)

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// idQueue orders remote work per identifier. Tickets are taken when an
// intent is applied, under the store lock, and each ticket runs only after
// the previous ticket for the same identifier has been released. Commit
// goroutines may therefore start in any order.
type idQueue struct {
	mu   sync.Mutex
	tail map[string]chan struct{}
}

type ticket struct {
	q    *idQueue
	id   string
	prev <-chan struct{}
	done chan struct{}
	once sync.Once
}

// enqueue appends a ticket for id.
func (q *idQueue) enqueue(id string) *ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tail == nil {
		q.tail = make(map[string]chan struct{})
	}
	prev, ok := q.tail[id]
	if !ok {
		prev = closedCh
	}
	t := &ticket{q: q, id: id, prev: prev, done: make(chan struct{})}
	q.tail[id] = t.done
	return t
}

// wait blocks until every earlier ticket for the same id is released.
func (t *ticket) wait(ctx context.Context) error {
	select {
	case <-t.prev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release lets the next ticket run. A ticket released before its turn,
// after a cancelled wait, still hands over only once its predecessor has.
func (t *ticket) release() {
	t.once.Do(func() {
		select {
		case <-t.prev:
			t.finish()
		default:
			go func() {
				<-t.prev
				t.finish()
			}()
		}
	})
}

func (t *ticket) finish() {
	t.q.mu.Lock()
	if t.q.tail[t.id] == t.done {
		delete(t.q.tail, t.id)
	}
	t.q.mu.Unlock()
	close(t.done)
}
