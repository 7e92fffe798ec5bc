package docdb

import (
	"context"

	"github.com/five82/ticklist/internal/state"
	"github.com/five82/ticklist/internal/task"
)

var _ state.Service = (*Collection)(nil)

// Collection binds a DB to one collection name so it can serve as the
// store's remote service directly.
type Collection struct {
	db   *DB
	name string
}

// Collection returns a view of the named collection.
func (d *DB) Collection(name string) *Collection {
	return &Collection{db: d, name: name}
}

func (c *Collection) Create(ctx context.Context, fields task.Fields) (string, error) {
	return c.db.Create(ctx, c.name, fields)
}

func (c *Collection) List(ctx context.Context) ([]task.Task, error) {
	return c.db.List(ctx, c.name)
}

func (c *Collection) Update(ctx context.Context, id string, patch task.Patch) error {
	return c.db.Update(ctx, c.name, id, patch)
}

func (c *Collection) Delete(ctx context.Context, id string) error {
	return c.db.Delete(ctx, c.name, id)
}
