/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/suparena/fpmstore"
	"github.com/suparena/fpmstore/config"
	"github.com/suparena/fpmstore/events"
	"github.com/suparena/fpmstore/registry"
	"github.com/suparena/fpmstore/server"
)

var (
	configFlag  = flag.String("config", "", "Path to the YAML configuration file")
	envFlag     = flag.String("env", ".env", "Path to a dotenv file loaded before the configuration")
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := fpmstore.GetVersionInfo()
		fmt.Printf("fpmstore version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fpmstore: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := config.LoadEnv(*envFlag); err != nil {
		return err
	}
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	loggers := cfg.Log.Loggers()

	ds, err := fpmstore.OpenDataStore(ctx, &cfg.DB, loggers)
	if err != nil {
		return err
	}
	storage := fpmstore.NewStorageManager()
	if err := storage.RegisterDataStore(cfg.DB.Engine, ds); err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(); err != nil {
			loggers.Errorf("failed to close data stores: %v", err)
		}
	}()

	opts := []server.CommonOption{server.WithLoggers(loggers)}
	if cfg.Schemas != "" {
		schemas := registry.NewSchemaRegistry()
		n, err := schemas.LoadSchemaDir(cfg.Schemas)
		if err != nil {
			return err
		}
		loggers.Infof("loaded %d table schemas from %s", n, cfg.Schemas)
		opts = append(opts, server.WithSchemas(schemas))
	}
	if cfg.Events.Kafka != nil {
		publisher, err := events.NewKafkaPublisher(cfg.Events.Kafka, loggers)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, server.WithPublisher(publisher))
	}

	app := server.NewApp(loggers).
		AddBizModule(server.CommonModuleName, server.NewCommonModule(ds, opts...)).
		AddBizModule(server.SystemModuleName, server.NewSystemModule(fpmstore.Version))
	loggers.Debugf("registered methods: %v", app.Methods())

	keys := server.NewKeyStore(cfg.Keys())
	if keys.Len() == 0 {
		loggers.Warn("no apps configured, every request will be rejected")
	}
	if *configFlag != "" {
		if err := config.Watch(ctx, *configFlag, loggers, reloadKeys(keys, loggers)); err != nil {
			loggers.Warnf("config reload disabled: %v", err)
		}
	}

	handler := server.NewHandler(app, keys, server.Options{
		Path:          cfg.Server.Path,
		TimestampSkew: cfg.Server.TimestampSkew,
		Version:       fpmstore.Version,
		Loggers:       loggers,
	})
	return server.Serve(ctx, cfg.Server.Addr, handler, loggers)
}

// Only app keys are reloaded; other settings need a restart.
func reloadKeys(keys *server.KeyStore, loggers ldlog.Loggers) func(*config.Config) {
	return func(cfg *config.Config) {
		keys.Replace(cfg.Keys())
		loggers.Infof("reloaded %d app keys", keys.Len())
	}
}
