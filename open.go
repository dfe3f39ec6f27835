/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fpmstore

import (
	"context"
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/suparena/fpmstore/config"
	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/datastore/ddb"
	"github.com/suparena/fpmstore/datastore/mock"
	"github.com/suparena/fpmstore/datastore/pg"
)

// OpenDataStore connects the engine selected by cfg and, for engines that
// support it, applies pending migrations from cfg.Migrations.
func OpenDataStore(ctx context.Context, cfg *config.DBConfig, loggers ldlog.Loggers) (datastore.DataStore, error) {
	var ds datastore.DataStore
	switch cfg.Engine {
	case config.EnginePostgres:
		store, err := pg.New(ctx, &cfg.Postgres, loggers)
		if err != nil {
			return nil, err
		}
		ds = store
	case config.EngineDynamoDB:
		store, err := ddb.NewDynamodbDataStore(&cfg.DynamoDB, loggers)
		if err != nil {
			return nil, err
		}
		ds = store
	case config.EngineMemory:
		loggers.Warn("using the in-memory engine, data is lost on exit")
		ds = mock.New()
	default:
		return nil, fmt.Errorf("unknown db engine %q", cfg.Engine)
	}

	if cfg.Migrations == "" {
		return ds, nil
	}
	m, ok := ds.(datastore.Migrator)
	if !ok {
		loggers.Warnf("engine %s does not run migrations, ignoring %s", cfg.Engine, cfg.Migrations)
		return ds, nil
	}
	if err := m.AutoMigrate(ctx, cfg.Migrations); err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return ds, nil
}
