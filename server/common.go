/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/events"
	"github.com/suparena/fpmstore/registry"
	"github.com/suparena/fpmstore/storagemodels"
)

// CommonModuleName is the module name the SDKs call for generic CRUD.
const CommonModuleName = "common"

type commonModule struct {
	ds        datastore.DataStore
	schemas   *registry.SchemaRegistry
	publisher events.Publisher
	loggers   ldlog.Loggers
}

type CommonOption func(*commonModule)

// WithSchemas validates created rows against the schemas of r.
func WithSchemas(r *registry.SchemaRegistry) CommonOption {
	return func(m *commonModule) {
		m.schemas = r
	}
}

// WithPublisher publishes a ChangeEvent after every successful write.
func WithPublisher(p events.Publisher) CommonOption {
	return func(m *commonModule) {
		if p != nil {
			m.publisher = p
		}
	}
}

func WithLoggers(loggers ldlog.Loggers) CommonOption {
	return func(m *commonModule) {
		m.loggers = loggers
	}
}

// NewCommonModule exposes generic table access over ds:
//
//	find, findAndCount, count, first, get, create, update, remove, clear
//
// Every method takes the QueryRequest shape as its param.
func NewCommonModule(ds datastore.DataStore, opts ...CommonOption) BizModule {
	m := &commonModule{
		ds:        ds,
		publisher: events.NopPublisher{},
		loggers:   ldlog.NewDisabledLoggers(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return BizModule{
		"find":         m.find,
		"findAndCount": m.findAndCount,
		"count":        m.count,
		"first":        m.first,
		"get":          m.get,
		"create":       m.create,
		"update":       m.update,
		"remove":       m.remove,
		"clear":        m.clear,
	}
}

func (m *commonModule) parse(param BizParam) (*storagemodels.QueryRequest, *storagemodels.QueryData, error) {
	req := &storagemodels.QueryRequest{}
	if err := param.Convert(req); err != nil {
		return nil, nil, err
	}
	if req.Table == "" {
		return nil, nil, errors.NewValidationError("table", "required")
	}
	q, err := storagemodels.ParseQuery(req)
	if err != nil {
		return nil, nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, nil, err
	}
	return req, q, nil
}

func (m *commonModule) find(ctx context.Context, param BizParam) (interface{}, error) {
	_, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	rows, err := m.ds.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]storagemodels.Record, 0)
	}
	return rows, nil
}

func (m *commonModule) findAndCount(ctx context.Context, param BizParam) (interface{}, error) {
	_, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	rows, total, err := m.ds.FindAndCount(ctx, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]storagemodels.Record, 0)
	}
	return map[string]interface{}{
		"count": total,
		"rows":  rows,
	}, nil
}

func (m *commonModule) count(ctx context.Context, param BizParam) (interface{}, error) {
	_, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	return m.ds.Count(ctx, q.BaseData)
}

// first returns null data when nothing matches.
func (m *commonModule) first(ctx context.Context, param BizParam) (interface{}, error) {
	_, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	rec, err := m.ds.First(ctx, q)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec, nil
}

func (m *commonModule) get(ctx context.Context, param BizParam) (interface{}, error) {
	req, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	if req.ID == nil {
		return nil, errors.NewValidationError("id", "required")
	}
	rec, err := m.ds.First(ctx, q)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.NewNotFoundError(req.Table, fmt.Sprint(q.Arguments[0]))
	}
	return rec, nil
}

func (m *commonModule) create(ctx context.Context, param BizParam) (interface{}, error) {
	req, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	row, err := rowOf(req)
	if err != nil {
		return nil, err
	}
	if m.schemas != nil {
		if err := m.schemas.Validate(req.Table, row); err != nil {
			return nil, err
		}
	}
	rec, err := m.ds.Create(ctx, q.BaseData, storagemodels.CommonMap(row))
	if err != nil {
		return nil, err
	}

	event := events.NewChangeEvent(req.Table, events.OperationCreate)
	event.Rows = 1
	event.Record = rec
	m.publish(ctx, event)
	return rec, nil
}

// update applies row to the rows selected by id or condition and returns the
// number of affected rows.
func (m *commonModule) update(ctx context.Context, param BizParam) (interface{}, error) {
	req, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	row, err := rowOf(req)
	if err != nil {
		return nil, err
	}
	if req.ID == nil && !hasCondition(req.Condition) {
		id, ok := row[datastore.ColumnID]
		if !ok || id == nil {
			return nil, errors.NewValidationError("condition", "id or condition required")
		}
		q.SetCondition("id = ?", storagemodels.NormalizeNumber(id))
	}
	n, err := m.ds.Updates(ctx, q.BaseData, storagemodels.CommonMap(row))
	if err != nil {
		return nil, err
	}

	event := events.NewChangeEvent(req.Table, events.OperationUpdate)
	event.Condition = q.Condition
	event.Arguments = q.Arguments
	event.Rows = n
	event.Record = storagemodels.Record(datastore.WritableColumns(storagemodels.CommonMap(row)))
	m.publish(ctx, event)
	return n, nil
}

// remove deletes by id or condition. Removing a whole table goes through clear.
func (m *commonModule) remove(ctx context.Context, param BizParam) (interface{}, error) {
	req, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	if req.ID == nil && !hasCondition(req.Condition) {
		return nil, errors.NewValidationError("id", "id or condition required")
	}
	return m.removeMatching(ctx, q)
}

func (m *commonModule) clear(ctx context.Context, param BizParam) (interface{}, error) {
	_, q, err := m.parse(param)
	if err != nil {
		return nil, err
	}
	return m.removeMatching(ctx, q)
}

// hasCondition reports whether a request names a filter. Blank strings and
// empty maps would otherwise select the whole table.
func hasCondition(c interface{}) bool {
	switch v := c.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case map[string]interface{}:
		return len(v) > 0
	}
	return true
}

func (m *commonModule) removeMatching(ctx context.Context, q *storagemodels.QueryData) (int64, error) {
	n, err := m.ds.Remove(ctx, q.BaseData)
	if err != nil {
		return 0, err
	}
	event := events.NewChangeEvent(q.Table, events.OperationRemove)
	event.Condition = q.Condition
	event.Arguments = q.Arguments
	event.Rows = n
	m.publish(ctx, event)
	return n, nil
}

// Publishing happens after the write, so a failure is logged and not returned.
func (m *commonModule) publish(ctx context.Context, event *events.ChangeEvent) {
	if event.Rows == 0 {
		return
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.loggers.Warnf("failed to publish %s event for %s: %v", event.Operation, event.Table, err)
	}
}

func rowOf(req *storagemodels.QueryRequest) (map[string]interface{}, error) {
	row, ok := req.Row.(map[string]interface{})
	if !ok || len(row) == 0 {
		return nil, errors.NewValidationError("row", "an object with at least one field is required")
	}
	for k := range row {
		if !storagemodels.ValidIdentifier(k) && !storagemodels.IsTimestampKey(k) {
			return nil, errors.NewValidationError("row", fmt.Sprintf("invalid column %q", k))
		}
	}
	return row, nil
}
