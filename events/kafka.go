/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig selects the brokers and topic for change events
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	GroupID      string        `yaml:"groupId"`
	BatchTimeout time.Duration `yaml:"batchTimeout"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON, keyed by table so that the events of
// one table stay ordered within a partition.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	loggers ldlog.Loggers
}

// NewKafkaPublisher creates a publisher writing to cfg.Topic.
func NewKafkaPublisher(cfg *KafkaConfig, loggers ldlog.Loggers) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka publisher requires brokers and a topic")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
	}
	loggers.Infof("publishing change events to kafka topic %s", cfg.Topic)
	return &KafkaPublisher{writer: w, topic: cfg.Topic, loggers: loggers}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *ChangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshalling change event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Table),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to write change event to kafka: %w", err)
	}
	p.loggers.Debugf("published %s event %s for %s", event.Operation, event.ID, event.Table)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

// Consume reads change events from cfg.Topic until ctx ends or handler fails.
// Messages that are not change events are logged and skipped.
func Consume(ctx context.Context, cfg *KafkaConfig, loggers ldlog.Loggers, handler func(ChangeEvent) error) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer func() {
		if err := r.Close(); err != nil {
			loggers.Warnf("failed to close kafka reader: %v", err)
		}
	}()

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("error reading change event: %w", err)
		}
		event, err := decodeEvent(m.Value)
		if err != nil {
			loggers.Warnf("skipping message at offset %d: %v", m.Offset, err)
			continue
		}
		if err := handler(event); err != nil {
			return err
		}
	}
}

func decodeEvent(value []byte) (ChangeEvent, error) {
	var event ChangeEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return ChangeEvent{}, err
	}
	if event.Table == "" || event.Operation == "" {
		return ChangeEvent{}, fmt.Errorf("missing table or operation")
	}
	return event, nil
}
