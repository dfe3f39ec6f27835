/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package client

import (
	"context"
	"fmt"

	"github.com/suparena/fpmstore/datastore"
	"github.com/suparena/fpmstore/errors"
	"github.com/suparena/fpmstore/storagemodels"
)

// Object is a single record of a table, created or updated through Save.
type Object struct {
	c      *Client
	table  string
	fields storagemodels.Record
}

// Object returns a handle on a record of table holding initial. An id in
// initial makes Save update that record.
func (c *Client) Object(table string, initial map[string]interface{}) *Object {
	return NewObject(c, table, initial)
}

func NewObject(c *Client, table string, initial map[string]interface{}) *Object {
	o := &Object{c: c, table: table, fields: make(storagemodels.Record, len(initial))}
	for k, v := range initial {
		o.fields[k] = v
	}
	return o
}

// ID returns the id field, nil until the object is saved or loaded.
func (o *Object) ID() interface{} {
	return o.fields[datastore.ColumnID]
}

// Fields returns a copy of the current fields.
func (o *Object) Fields() storagemodels.Record {
	out := make(storagemodels.Record, len(o.fields))
	for k, v := range o.fields {
		out[k] = v
	}
	return out
}

func (o *Object) Set(key string, value interface{}) *Object {
	o.fields[key] = value
	return o
}

// Get loads the record with id into the object.
func (o *Object) Get(ctx context.Context, id interface{}) error {
	var rec storagemodels.Record
	param := &storagemodels.QueryRequest{Table: o.table, ID: id}
	if err := o.c.Execute(ctx, "common.get", param, &rec); err != nil {
		return err
	}
	o.fields = normalize(rec)
	return nil
}

// Save merges fields into the object and persists it. Objects without an id
// are created and take the stored record, including its id and timestamps.
// Objects with an id are updated; an id that matches nothing is reported as
// not found.
func (o *Object) Save(ctx context.Context, fields map[string]interface{}) error {
	for k, v := range fields {
		o.fields[k] = v
	}

	id := o.ID()
	if id == nil {
		var rec storagemodels.Record
		param := &storagemodels.QueryRequest{Table: o.table, Row: o.row()}
		if err := o.c.Execute(ctx, "common.create", param, &rec); err != nil {
			return err
		}
		o.fields = normalize(rec)
		return nil
	}

	row := o.row()
	delete(row, datastore.ColumnID)
	if len(row) == 0 {
		return errors.NewValidationError("row", "nothing to save")
	}
	var n int64
	param := &storagemodels.QueryRequest{Table: o.table, ID: id, Row: row}
	if err := o.c.Execute(ctx, "common.update", param, &n); err != nil {
		return err
	}
	if n == 0 {
		return errors.NewNotFoundError(o.table, fmt.Sprint(id))
	}
	return nil
}

// Remove deletes the record with id, or the object's own record when id is
// nil. Removing a record that does not exist is reported as not found.
func (o *Object) Remove(ctx context.Context, id interface{}) error {
	if id == nil {
		id = o.ID()
	}
	if id == nil {
		return errors.NewValidationError("id", "required")
	}
	var n int64
	param := &storagemodels.QueryRequest{Table: o.table, ID: id}
	if err := o.c.Execute(ctx, "common.remove", param, &n); err != nil {
		return err
	}
	if n == 0 {
		return errors.NewNotFoundError(o.table, fmt.Sprint(id))
	}
	return nil
}

// row is the writable part of the fields.
func (o *Object) row() map[string]interface{} {
	return map[string]interface{}(datastore.WritableColumns(storagemodels.CommonMap(o.fields)))
}
