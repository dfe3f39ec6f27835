/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/suparena/fpmstore/errors"
)

// SchemaRegistry holds one JSON schema per table for validating created rows.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaRegistry returns an empty registry
func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]*gojsonschema.Schema)}
}

// Register compiles schema and associates it with table, replacing any previous one.
func (r *SchemaRegistry) Register(table string, schema []byte) error {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return fmt.Errorf("schema registry: invalid schema for %q: %w", table, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[table] = compiled
	return nil
}

// LoadSchemaDir registers every <table>.json file in dir and returns how many were loaded.
func (r *SchemaRegistry) LoadSchemaDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("schema registry: %w", err)
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, fmt.Errorf("schema registry: %w", err)
		}
		if err := r.Register(strings.TrimSuffix(e.Name(), ".json"), data); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}

// Validate checks row against the schema of table. Tables without a schema always pass.
func (r *SchemaRegistry) Validate(table string, row map[string]interface{}) error {
	r.mu.RLock()
	schema, ok := r.schemas[table]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(row))
	if err != nil {
		return errors.NewValidationError("row", err.Error())
	}
	if result.Valid() {
		return nil
	}

	resultErrors := result.Errors()
	messages := make([]string, 0, len(resultErrors))
	for _, re := range resultErrors {
		messages = append(messages, re.String())
	}
	return errors.NewValidationError(resultErrors[0].Field(), strings.Join(messages, "; "))
}

// Tables lists the tables with a registered schema, sorted.
func (r *SchemaRegistry) Tables() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
