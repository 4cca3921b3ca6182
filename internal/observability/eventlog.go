// Package observability provides the structured JSONL event trail for
// the knowledge pipeline: router resolutions, queue mutations, research
// batches, corrections, and promotions.
package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event is a single observable event in the pipeline.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`  // e.g. "router.resolved", "worker.batch"
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// Well-known event types.
const (
	EventResolved   = "router.resolved"
	EventQueued     = "queue.enqueued"
	EventRequeued   = "queue.force_requeued"
	EventBatch      = "worker.batch"
	EventDraft      = "worker.draft_synthesized"
	EventCorrection = "teach.correction"
	EventTaught     = "teach.taught"
	EventPromoted   = "draft.promoted"
)

// EventFilter selects events when reading the log back.
type EventFilter struct {
	Since *time.Time
	Type  string
}

// EventLog appends and reads pipeline events.
type EventLog interface {
	Write(event Event) error
	Info(eventType, message string, data map[string]any) error
	Warn(eventType, message string, data map[string]any) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog is an append-only JSONL file. A nil *jsonlEventLog is a
// valid no-op log, so components can run with events disabled.
type jsonlEventLog struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// NopEventLog returns a log that discards writes and reads nothing,
// for tests and for commands that run with events disabled.
func NopEventLog() EventLog {
	return (*jsonlEventLog)(nil)
}

// NewEventLog opens (or creates) the JSONL event log at path.
func NewEventLog(path string) (EventLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &jsonlEventLog{path: path, file: f}, nil
}

func (l *jsonlEventLog) Write(event Event) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}

func (l *jsonlEventLog) Info(eventType, message string, data map[string]any) error {
	return l.Write(Event{Level: "INFO", Type: eventType, Message: message, Data: data})
}

func (l *jsonlEventLog) Warn(eventType, message string, data map[string]any) error {
	return l.Write(Event{Level: "WARN", Type: eventType, Message: message, Data: data})
}

// Read scans the whole file, skipping lines that fail to decode; a torn
// final line must not hide earlier events.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	if l == nil {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for read: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if filter.Type != "" && event.Type != filter.Type {
			continue
		}
		if filter.Since != nil && event.Time.Before(*filter.Since) {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

func (l *jsonlEventLog) Close() error {
	if l == nil {
		return nil
	}
	return l.file.Close()
}
