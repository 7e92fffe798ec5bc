package app

import (
	"context"
	"fmt"
	"log"

	"github.com/five82/ticklist/internal/config"
	"github.com/five82/ticklist/internal/docdb"
	"github.com/five82/ticklist/internal/docstore"
	"github.com/five82/ticklist/internal/firestore"
	"github.com/five82/ticklist/internal/state"
)

// Backend is an opened task collection with the store and session built on
// it.
type Backend struct {
	Store   *state.Store
	Session *state.Session

	close func() error
}

// Close releases the underlying connection, if any.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the configured backend and builds a store around it.
// Nothing is fetched yet; the session's first Activate does the initial load.
func Open(ctx context.Context, cfg config.Config, logger *log.Logger) (*Backend, error) {
	policy, err := state.ParseClearPolicy(cfg.ClearPolicy)
	if err != nil {
		return nil, err
	}

	svc, closeFn, err := openService(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := state.NewStore(state.Options{
		Service:       svc,
		Reporter:      state.LogReporter{Logger: logger},
		OptimisticAdd: cfg.OptimisticAdd,
		ClearPolicy:   policy,
	})
	if err != nil {
		if closeFn != nil {
			_ = closeFn()
		}
		return nil, err
	}

	return &Backend{
		Store:   store,
		Session: state.NewSession(store),
		close:   closeFn,
	}, nil
}

func openService(ctx context.Context, cfg config.Config) (state.Service, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		db, err := docdb.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db.Collection(cfg.Collection), db.Close, nil

	case config.BackendDocstore:
		collection := cfg.Docstore.Collection
		if collection == "" {
			collection = cfg.Collection
		}
		client, err := docstore.NewClient(cfg.Docstore.Addr, collection, cfg.RequestTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("init docstore client: %w", err)
		}
		return client, nil, nil

	case config.BackendFirestore:
		fs := cfg.Firestore
		client, err := firestore.NewClient(ctx, firestore.Config{
			ProjectID:       fs.ProjectID,
			Database:        fs.Database,
			Collection:      fs.Collection,
			APIKey:          fs.APIKey,
			AccessToken:     fs.AccessToken,
			CredentialsFile: fs.CredentialsFile,
			Endpoint:        fs.Endpoint,
			Timeout:         cfg.RequestTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init firestore client: %w", err)
		}
		return client, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
