/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/mitchellh/mapstructure"

	"github.com/suparena/fpmstore/errors"
)

// BizParam is the decoded param of a request.
type BizParam map[string]interface{}

// Convert decodes the param into out, matching json tags and converting
// loosely typed values such as "10" into numeric fields.
func (p BizParam) Convert(out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]interface{}(p)); err != nil {
		return errors.NewValidationError("param", err.Error())
	}
	return nil
}

// BizHandler serves one method.
type BizHandler func(ctx context.Context, param BizParam) (interface{}, error)

// BizModule maps method names to handlers.
type BizModule map[string]BizHandler

// App dispatches "module.method" calls to registered business modules.
type App struct {
	mu      sync.RWMutex
	modules map[string]BizModule
	loggers ldlog.Loggers
}

func NewApp(loggers ldlog.Loggers) *App {
	return &App{
		modules: make(map[string]BizModule),
		loggers: loggers,
	}
}

// AddBizModule registers the handlers of module under name. Handlers added
// under an existing name are merged, replacing methods with the same name.
func (a *App) AddBizModule(name string, module BizModule) *App {
	a.mu.Lock()
	defer a.mu.Unlock()

	existing, ok := a.modules[name]
	if !ok {
		existing = make(BizModule, len(module))
		a.modules[name] = existing
	}
	for method, h := range module {
		existing[method] = h
	}
	a.loggers.Debugf("registered biz module %s with %d methods", name, len(module))
	return a
}

// Execute runs the handler registered for method.
func (a *App) Execute(ctx context.Context, method string, param BizParam) (interface{}, error) {
	h, ok := a.handler(method)
	if !ok {
		return nil, errors.NewUnknownMethodError(method)
	}
	if param == nil {
		param = BizParam{}
	}
	data, err := h(ctx, param)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return data, nil
}

// Methods lists every registered method, sorted.
func (a *App) Methods() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0)
	for name, m := range a.modules {
		for method := range m {
			out = append(out, name+"."+method)
		}
	}
	sort.Strings(out)
	return out
}

func (a *App) handler(method string) (BizHandler, bool) {
	name, fn, ok := strings.Cut(method, ".")
	if !ok || name == "" || fn == "" {
		return nil, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.modules[name]
	if !ok {
		return nil, false
	}
	h, ok := m[fn]
	return h, ok
}
