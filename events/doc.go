/*
Package events publishes change notifications for rows written through the data API.

Every successful create, update, remove or clear produces a ChangeEvent:

	{"id": "6f1c...", "table": "fake", "operation": "update",
	 "condition": "id = ?", "arguments": [1], "rows": 1, "at": "2025-03-01T12:00:00Z"}

Publishers:
  - NopPublisher discards events
  - KafkaPublisher writes JSON events to a topic, keyed by table (segmentio/kafka-go)
  - RecordingPublisher keeps events in memory for tests

Consume reads events back from a topic, as used by "fpmctl watch".
*/
package events
