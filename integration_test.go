//go:build integration
// +build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fpmstore_test

import (
	"context"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/fpmstore"
	"github.com/suparena/fpmstore/client"
	"github.com/suparena/fpmstore/config"
	"github.com/suparena/fpmstore/datastore/testmodels"
	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/registry"
	"github.com/suparena/fpmstore/server"
)

const (
	appKey    = "123123"
	masterKey = "123123"
)

// setupAPI serves the data API on the database selected by FPM_DB_ENGINE.
func setupAPI(t *testing.T) (*client.Client, *fpmstore.Collection[testmodels.Fake]) {
	if err := config.LoadEnv(".env"); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}
	path := filepath.Join(t.TempDir(), "fpmstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  migrations: ./migrations\nschemas: ./schemas\n"), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	if cfg.DB.Engine == config.EngineMemory {
		t.Skip("FPM_DB_ENGINE not set to a database engine, skipping integration test")
	}

	ctx := context.Background()
	loggers := cfg.Log.Loggers()
	ds, err := fpmstore.OpenDataStore(ctx, &cfg.DB, loggers)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", cfg.DB.Engine, err)
	}
	t.Cleanup(func() { ds.Close() })

	schemas := registry.NewSchemaRegistry()
	_, err = schemas.LoadSchemaDir(cfg.Schemas)
	require.NoError(t, err)

	app := server.NewApp(loggers).
		AddBizModule(server.CommonModuleName, server.NewCommonModule(ds, server.WithSchemas(schemas), server.WithLoggers(loggers))).
		AddBizModule(server.SystemModuleName, server.NewSystemModule(fpmstore.Version))
	keys := server.NewKeyStore(map[string]string{appKey: masterKey})
	srv := httptest.NewServer(server.NewHandler(app, keys, server.Options{Version: fpmstore.Version, Loggers: loggers}))
	t.Cleanup(srv.Close)

	c, err := client.New(&client.Config{AppKey: appKey, MasterKey: masterKey, Endpoint: srv.URL + server.DefaultPath})
	require.NoError(t, err)

	fakes, err := fpmstore.NewCollection[testmodels.Fake](ds)
	require.NoError(t, err)
	if _, err := c.Query("fake").Clear(ctx); err != nil {
		t.Fatalf("Failed to clear fake: %v", err)
	}
	return c, fakes
}

func TestIntegrationQueryAndObject(t *testing.T) {
	c, fakes := setupAPI(t)
	ctx := context.Background()

	obj := c.Object("fake", map[string]interface{}{"name": "c", "value": 100})
	require.NoError(t, obj.Save(ctx, nil))
	require.NotNil(t, obj.ID())

	_, err := fakes.Create(ctx, testmodels.Fake{Name: "c", Value: 5})
	require.NoError(t, err)

	rec, err := c.Query("fake").
		Select("id", "name", "value").
		Condition("name = ?", "c").
		Page(1, 10).
		Sort("id-").
		First(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.EqualValues(t, 5, rec["value"])

	n, err := c.Query("fake").Condition("value > ?", 10).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, obj.Save(ctx, map[string]interface{}{"value": 101}))
	stored, err := fakes.Get(ctx, obj.ID())
	require.NoError(t, err)
	assert.Equal(t, 101, stored.Value)

	require.NoError(t, obj.Remove(ctx, nil))
	_, err = fakes.Get(ctx, obj.ID())
	assert.True(t, errors.IsNotFound(err))
}

func TestIntegrationSchemaRejectsInvalidRows(t *testing.T) {
	c, _ := setupAPI(t)

	err := c.Object("fake", map[string]interface{}{"value": 1}).Save(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrnoInvalidInput, errors.Errno(err))
}
