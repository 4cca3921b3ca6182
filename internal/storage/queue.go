package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"machinespirit/pkg/models"
)

// ResearchQueue is the persisted, ordered list of research jobs.
// Consumption is FIFO over pending items. The queue is passive: retries
// happen only when an external scheduler re-invokes the worker, and
// cooldown/failed items return to pending only via ForceRequeue.
type ResearchQueue interface {
	// Enqueue appends a pending item for the topic. It reports false
	// without modifying the queue when a pending item for the same
	// normalized topic already exists.
	Enqueue(topic, reason, channel string) (bool, error)

	// PendingBatch returns up to limit pending items in FIFO order
	// without modifying the queue.
	PendingBatch(limit int) ([]models.ResearchQueueItem, error)

	// Items returns the full queue.
	Items() ([]models.ResearchQueueItem, error)

	// Mark sets the status of the item with the given ID. Terminal
	// statuses stamp CompletedAt; every call bumps the attempt counter.
	Mark(id string, status models.QueueStatus) error

	// CompleteBatch removes the items whose IDs are in done and marks
	// the ones in failed, in a single read-modify-write.
	CompleteBatch(done, failed []string) error

	// ForceRequeue resets the item for the topic to pending with
	// attempt counters and completion markers cleared, appending a new
	// pending item when none exists. Any duplicate entries for the
	// topic are collapsed into one.
	ForceRequeue(topic, reason string) error
}

type fileResearchQueue struct {
	dataDir     string
	lockTimeout time.Duration
}

// NewResearchQueue creates a ResearchQueue backed by research_queue.yaml
// under dataDir.
func NewResearchQueue(dataDir string, lockTimeout time.Duration) ResearchQueue {
	return &fileResearchQueue{dataDir: dataDir, lockTimeout: lockTimeout}
}

func (q *fileResearchQueue) path() string {
	return filepath.Join(q.dataDir, "research_queue.yaml")
}

func (q *fileResearchQueue) load() (models.QueueFile, error) {
	file := models.QueueFile{}
	if _, err := loadYAML(q.path(), &file); err != nil {
		return file, fmt.Errorf("loading research queue: %w", err)
	}
	if file.Version == "" {
		file.Version = "1.0"
	}
	return file, nil
}

func (q *fileResearchQueue) save(file models.QueueFile) error {
	if err := saveYAML(q.path(), &file); err != nil {
		return fmt.Errorf("saving research queue: %w", err)
	}
	return nil
}

func (q *fileResearchQueue) Enqueue(topic, reason, channel string) (bool, error) {
	key := NormalizeTopic(topic)
	if key == "" {
		return false, fmt.Errorf("enqueueing research: empty topic")
	}
	queued := false
	err := withLock(q.path(), q.lockTimeout, func() error {
		file, err := q.load()
		if err != nil {
			return err
		}
		for _, item := range file.Items {
			if item.Status == models.QueuePending && NormalizeTopic(item.Topic) == key {
				return nil
			}
		}
		file.Items = append(file.Items, models.ResearchQueueItem{
			ID:          uuid.NewString(),
			Topic:       topic,
			Channel:     channel,
			Reason:      reason,
			Status:      models.QueuePending,
			RequestedAt: time.Now(),
		})
		queued = true
		return q.save(file)
	})
	return queued, err
}

func (q *fileResearchQueue) PendingBatch(limit int) ([]models.ResearchQueueItem, error) {
	var batch []models.ResearchQueueItem
	err := withLock(q.path(), q.lockTimeout, func() error {
		file, err := q.load()
		if err != nil {
			return err
		}
		for _, item := range file.Items {
			if item.Status != models.QueuePending {
				continue
			}
			batch = append(batch, item)
			if limit > 0 && len(batch) >= limit {
				break
			}
		}
		return nil
	})
	return batch, err
}

func (q *fileResearchQueue) Items() ([]models.ResearchQueueItem, error) {
	var items []models.ResearchQueueItem
	err := withLock(q.path(), q.lockTimeout, func() error {
		file, err := q.load()
		if err != nil {
			return err
		}
		items = file.Items
		return nil
	})
	return items, err
}

func (q *fileResearchQueue) Mark(id string, status models.QueueStatus) error {
	return withLock(q.path(), q.lockTimeout, func() error {
		file, err := q.load()
		if err != nil {
			return err
		}
		for i := range file.Items {
			if file.Items[i].ID != id {
				continue
			}
			file.Items[i].Status = status
			file.Items[i].Attempts++
			if status == models.QueueDone || status == models.QueueFailed {
				now := time.Now()
				file.Items[i].CompletedAt = &now
			}
			return q.save(file)
		}
		return fmt.Errorf("marking queue item: %s not found", id)
	})
}

func (q *fileResearchQueue) CompleteBatch(done, failed []string) error {
	if len(done) == 0 && len(failed) == 0 {
		return nil
	}
	doneSet := make(map[string]struct{}, len(done))
	for _, id := range done {
		doneSet[id] = struct{}{}
	}
	failedSet := make(map[string]struct{}, len(failed))
	for _, id := range failed {
		failedSet[id] = struct{}{}
	}
	return withLock(q.path(), q.lockTimeout, func() error {
		file, err := q.load()
		if err != nil {
			return err
		}
		kept := file.Items[:0]
		now := time.Now()
		for _, item := range file.Items {
			if _, ok := doneSet[item.ID]; ok {
				continue
			}
			if _, ok := failedSet[item.ID]; ok {
				item.Status = models.QueueFailed
				item.Attempts++
				item.CompletedAt = &now
			}
			kept = append(kept, item)
		}
		file.Items = kept
		return q.save(file)
	})
}

func (q *fileResearchQueue) ForceRequeue(topic, reason string) error {
	key := NormalizeTopic(topic)
	if key == "" {
		return fmt.Errorf("force requeue: empty topic")
	}
	return withLock(q.path(), q.lockTimeout, func() error {
		file, err := q.load()
		if err != nil {
			return err
		}
		kept := file.Items[:0]
		found := false
		for _, item := range file.Items {
			if NormalizeTopic(item.Topic) != key {
				kept = append(kept, item)
				continue
			}
			if found {
				continue // collapse duplicates
			}
			item.Status = models.QueuePending
			item.Reason = reason
			item.RequestedAt = time.Now()
			item.CompletedAt = nil
			item.Attempts = 0
			kept = append(kept, item)
			found = true
		}
		file.Items = kept
		if !found {
			file.Items = append(file.Items, models.ResearchQueueItem{
				ID:          uuid.NewString(),
				Topic:       topic,
				Reason:      reason,
				Status:      models.QueuePending,
				RequestedAt: time.Now(),
			})
		}
		return q.save(file)
	})
}
