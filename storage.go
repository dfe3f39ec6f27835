/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package fpmstore

import (
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/fpmstore/datastore"
)

// Storage manages a set of named DataStores, for example one per engine.
type Storage interface {
	// RegisterDataStore registers a DataStore under a given key (for example "pg" or "memory").
	RegisterDataStore(key string, ds datastore.DataStore) error
	// GetDataStore retrieves the DataStore registered under key.
	GetDataStore(key string) (datastore.DataStore, error)
	// RemoveDataStore unregisters key without closing its DataStore.
	RemoveDataStore(key string) error
	// List returns the registered keys, sorted.
	List() []string
	// Close closes every registered DataStore.
	Close() error
}

// storageManager is a thread-safe implementation of the Storage interface.
type storageManager struct {
	mu     sync.RWMutex
	stores map[string]datastore.DataStore
}

// NewStorageManager creates and returns a new Storage implementation.
func NewStorageManager() Storage {
	return &storageManager{
		stores: make(map[string]datastore.DataStore),
	}
}

func (sm *storageManager) RegisterDataStore(key string, ds datastore.DataStore) error {
	if ds == nil {
		return fmt.Errorf("datastore for key %q is nil", key)
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.stores[key]; exists {
		return fmt.Errorf("datastore with key %q already registered", key)
	}
	sm.stores[key] = ds
	return nil
}

func (sm *storageManager) GetDataStore(key string) (datastore.DataStore, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ds, exists := sm.stores[key]
	if !exists {
		return nil, fmt.Errorf("datastore with key %q not found", key)
	}
	return ds, nil
}

func (sm *storageManager) RemoveDataStore(key string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.stores[key]; !exists {
		return fmt.Errorf("datastore with key %q not found", key)
	}
	delete(sm.stores, key)
	return nil
}

func (sm *storageManager) List() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	keys := make([]string, 0, len(sm.stores))
	for k := range sm.stores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (sm *storageManager) Close() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	var errs []error
	for key, ds := range sm.stores {
		if err := ds.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", key, err))
		}
	}
	sm.stores = make(map[string]datastore.DataStore)
	return stderrors.Join(errs...)
}
