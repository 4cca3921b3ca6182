package models

import "time"

// QueueStatus is the lifecycle state of a research queue item.
// Transitions: pending -> {done, failed, cooldown}; cooldown/failed ->
// pending only via an explicit force-requeue.
type QueueStatus string

const (
	QueuePending  QueueStatus = "pending"
	QueueDone     QueueStatus = "done"
	QueueFailed   QueueStatus = "failed"
	QueueCooldown QueueStatus = "cooldown"
)

// ResearchQueueItem is one pending or resolved research job. The queue is
// a passive, durable FIFO list; no timer lives inside it.
type ResearchQueueItem struct {
	ID          string      `yaml:"id"`
	Topic       string      `yaml:"topic"`
	Channel     string      `yaml:"channel"`
	Reason      string      `yaml:"reason"`
	Status      QueueStatus `yaml:"status"`
	RequestedAt time.Time   `yaml:"requested_at"`
	CompletedAt *time.Time  `yaml:"completed_at,omitempty"`
	Attempts    int         `yaml:"attempts"`
}

// QueueFile is the top-level structure of research_queue.yaml.
type QueueFile struct {
	Version string              `yaml:"version"`
	Items   []ResearchQueueItem `yaml:"items"`
}
