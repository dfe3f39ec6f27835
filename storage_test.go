/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fpmstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/suparena/fpmstore/datastore/mock"
)

// closeRecorder counts Close calls and can fail them.
type closeRecorder struct {
	*mock.DataStore
	closed int
	err    error
}

func (c *closeRecorder) Close() error {
	c.closed++
	return c.err
}

func TestStorageManager(t *testing.T) {
	t.Run("BasicOperations", func(t *testing.T) {
		storage := NewStorageManager()

		err := storage.RegisterDataStore("memory", mock.New())
		if err != nil {
			t.Fatalf("Failed to register: %v", err)
		}

		retrieved, err := storage.GetDataStore("memory")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if retrieved == nil {
			t.Fatal("Retrieved store is nil")
		}

		keys := storage.List()
		if len(keys) != 1 || keys[0] != "memory" {
			t.Fatalf("Expected [memory], got %v", keys)
		}

		if err := storage.RemoveDataStore("memory"); err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if _, err := storage.GetDataStore("memory"); err == nil {
			t.Fatal("Expected error after removal")
		}
		if err := storage.RemoveDataStore("memory"); err == nil {
			t.Fatal("Expected error removing an unknown key")
		}
	})

	t.Run("DuplicateRegistration", func(t *testing.T) {
		storage := NewStorageManager()

		if err := storage.RegisterDataStore("pg", mock.New()); err != nil {
			t.Fatalf("First registration failed: %v", err)
		}
		if err := storage.RegisterDataStore("pg", mock.New()); err == nil {
			t.Fatal("Expected duplicate registration error")
		}
		if err := storage.RegisterDataStore("nil", nil); err == nil {
			t.Fatal("Expected error registering a nil store")
		}
	})

	t.Run("Close", func(t *testing.T) {
		storage := NewStorageManager()
		ok := &closeRecorder{DataStore: mock.New()}
		failing := &closeRecorder{DataStore: mock.New(), err: fmt.Errorf("boom")}
		_ = storage.RegisterDataStore("a", ok)
		_ = storage.RegisterDataStore("b", failing)

		if err := storage.Close(); err == nil {
			t.Fatal("Expected the close error to be reported")
		}
		if ok.closed != 1 || failing.closed != 1 {
			t.Fatalf("Expected every store to be closed once, got %d and %d", ok.closed, failing.closed)
		}
		if len(storage.List()) != 0 {
			t.Fatalf("Expected no stores after close, got %v", storage.List())
		}
	})
}

func TestThreadSafety(t *testing.T) {
	storage := NewStorageManager()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			_ = storage.RegisterDataStore(fmt.Sprintf("store%d", id), mock.New())
		}(i)
		go func() {
			defer wg.Done()
			storage.List()
		}()
	}
	wg.Wait()

	keys := storage.List()
	if len(keys) != 10 {
		t.Fatalf("Expected 10 stores, got %d", len(keys))
	}
	if _, err := storage.GetDataStore("store3"); err != nil {
		t.Fatalf("Expected store3, got %v", err)
	}
}
