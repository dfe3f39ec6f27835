/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

const retryDuration = time.Second

type watcher struct {
	fs       *fsnotify.Watcher
	path     string
	realPath string
	loggers  ldlog.Loggers
	onChange func(*Config)
}

// Watch reloads the file at path whenever it changes and passes every config
// that loads cleanly to onChange. A file that fails to load is logged and
// skipped. Watch returns once the watcher is set up; it stops when ctx ends.
func Watch(ctx context.Context, path string, loggers ldlog.Loggers, onChange func(*Config)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file watcher: %w", err)
	}
	w := &watcher{
		fs:       fw,
		path:     path,
		loggers:  loggers,
		onChange: onChange,
	}
	if err := w.setupWatches(); err != nil {
		_ = fw.Close()
		return err
	}
	go w.run(ctx)
	return nil
}

// The directory is watched too, since editors often replace the file.
func (w *watcher) setupWatches() error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("unable to resolve %q: %w", w.path, err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("unable to evaluate symlinks for %q: %w", filepath.Dir(abs), err)
	}
	w.realPath = filepath.Join(dir, filepath.Base(abs))
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("unable to watch %q: %w", dir, err)
	}
	return nil
}

func (w *watcher) run(ctx context.Context) {
	retryCh := make(chan struct{}, 1)
	scheduleRetry := func() {
		time.AfterFunc(retryDuration, func() {
			select {
			case retryCh <- struct{}{}:
			default:
			}
		})
	}
	for {
		select {
		case <-ctx.Done():
			if err := w.fs.Close(); err != nil {
				w.loggers.Warnf("error closing config watcher: %v", err)
			}
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Name != w.realPath || event.Op == fsnotify.Chmod {
				continue
			}
			w.drain()
			if !w.reload() {
				scheduleRetry()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.loggers.Errorf("config watcher: %v", err)
		case <-retryCh:
			w.reload()
		}
	}
}

func (w *watcher) drain() {
	for {
		select {
		case <-w.fs.Events:
		default:
			return
		}
	}
}

func (w *watcher) reload() bool {
	cfg, err := Load(w.path)
	if err != nil {
		w.loggers.Warnf("ignoring config change: %v", err)
		return false
	}
	w.loggers.Infof("reloaded config from %s", w.path)
	w.onChange(cfg)
	return true
}
