/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import "sync"

// KeyStore holds the master key of every known appkey. It is safe for
// concurrent use and may be replaced while the server runs.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]string
}

func NewKeyStore(keys map[string]string) *KeyStore {
	k := &KeyStore{}
	k.Replace(keys)
	return k
}

// MasterKey returns the master key for appKey.
func (k *KeyStore) MasterKey(appKey string) (string, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[appKey]
	return key, ok
}

// Replace swaps in a new set of keys.
func (k *KeyStore) Replace(keys map[string]string) {
	copied := make(map[string]string, len(keys))
	for app, key := range keys {
		copied[app] = key
	}
	k.mu.Lock()
	k.keys = copied
	k.mu.Unlock()
}

func (k *KeyStore) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}
