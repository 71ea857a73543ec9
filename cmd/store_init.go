package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-pipeline/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("database URL is required (LEADGEN_STORE_DATABASE_URL)")
	}
	return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
}
