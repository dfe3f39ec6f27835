/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/fpmstore/storagemodels"
)

// Operation names the kind of write that produced an event.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationRemove Operation = "remove"
)

// ChangeEvent describes one write against a table.
type ChangeEvent struct {
	ID        string               `json:"id"`
	Table     string               `json:"table"`
	Operation Operation            `json:"operation"`
	Condition string               `json:"condition,omitempty"`
	Arguments []interface{}        `json:"arguments,omitempty"`
	Rows      int64                `json:"rows"`
	Record    storagemodels.Record `json:"record,omitempty"`
	At        time.Time            `json:"at"`
}

// NewChangeEvent creates an event with a fresh id and the current time.
func NewChangeEvent(table string, op Operation) *ChangeEvent {
	return &ChangeEvent{
		ID:        uuid.NewString(),
		Table:     table,
		Operation: op,
		At:        time.Now().UTC(),
	}
}

// Publisher delivers change events.
type Publisher interface {
	Publish(ctx context.Context, event *ChangeEvent) error
	Close() error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event *ChangeEvent) error { return nil }
func (NopPublisher) Close() error                                          { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []ChangeEvent
	err    error
}

// NewRecordingPublisher returns an empty recorder
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// WithError makes Publish fail with err without recording
func (p *RecordingPublisher) WithError(err error) *RecordingPublisher {
	p.err = err
	return p
}

func (p *RecordingPublisher) Publish(ctx context.Context, event *ChangeEvent) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return nil
}

// Events returns a copy of the recorded events
func (p *RecordingPublisher) Events() []ChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ChangeEvent(nil), p.events...)
}

func (p *RecordingPublisher) Close() error {
	return nil
}
