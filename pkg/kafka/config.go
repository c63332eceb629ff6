package kafka

import (
	"strings"
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers  []string
	ClientID string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:  []string{"localhost:9092"},
		ClientID: "tracking-service",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
	}
}

// Topics contains all tracking Kafka topic names
var Topics = struct {
	ItemEvents     string
	WorkflowEvents string
	LocationEvents string
	MovementEvents string
}{
	ItemEvents:     "prodtrack.items.events",
	WorkflowEvents: "prodtrack.workflows.events",
	LocationEvents: "prodtrack.locations.events",
	MovementEvents: "prodtrack.movements.events",
}

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopicConfigs returns default configurations for tracking topics
func DefaultTopicConfigs() []TopicConfig {
	const week = 7 * 24 * 60 * 60 * 1000
	return []TopicConfig{
		{Name: Topics.ItemEvents, Partitions: 12, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.WorkflowEvents, Partitions: 3, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.LocationEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.MovementEvents, Partitions: 12, ReplicationFactor: 3, RetentionMs: 30 * 24 * 60 * 60 * 1000},
	}
}

// TopicForEventType returns the topic an event type is routed to
func TopicForEventType(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "prodtrack.workflow."):
		return Topics.WorkflowEvents
	case strings.HasPrefix(eventType, "prodtrack.location."):
		return Topics.LocationEvents
	default:
		return Topics.ItemEvents
	}
}
