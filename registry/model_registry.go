/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sync"
)

// Tabler is implemented by models that name their own table.
type Tabler interface {
	TableName() string
}

var (
	modelRegistry = make(map[reflect.Type]string)
	mu            sync.RWMutex
)

// RegisterModel associates a Go type T with a table.
func RegisterModel[T any](table string) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.Lock()
	defer mu.Unlock()
	modelRegistry[t] = table
}

// TableOf resolves the table of T: a registered table first, then a TableName
// method on T or *T.
func TableOf[T any]() (string, bool) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.RLock()
	table, ok := modelRegistry[t]
	mu.RUnlock()
	if ok {
		return table, true
	}

	var zero T
	if tn, ok := any(zero).(Tabler); ok {
		return tn.TableName(), true
	}
	if tn, ok := any(&zero).(Tabler); ok {
		return tn.TableName(), true
	}
	return "", false
}

// UnregisterModel removes T from the registry.
func UnregisterModel[T any]() {
	t := reflect.TypeOf((*T)(nil)).Elem()

	mu.Lock()
	defer mu.Unlock()
	delete(modelRegistry, t)
}
