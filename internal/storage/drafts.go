package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"machinespirit/pkg/models"
)

// DraftStore is the persisted mapping from normalized topic to
// synthesized draft answer.
type DraftStore interface {
	Get(topic string) (*models.Draft, bool, error)
	Put(topic string, draft models.Draft) error
	// PutBatch writes several drafts in one read-modify-write, so a
	// research batch persists its output atomically.
	PutBatch(drafts map[string]models.Draft) error
	Delete(topic string) (bool, error)
	All() (map[string]models.Draft, error)
}

type fileDraftStore struct {
	dataDir     string
	lockTimeout time.Duration
}

// NewDraftStore creates a DraftStore backed by drafts.yaml under dataDir.
func NewDraftStore(dataDir string, lockTimeout time.Duration) DraftStore {
	return &fileDraftStore{dataDir: dataDir, lockTimeout: lockTimeout}
}

func (s *fileDraftStore) path() string {
	return filepath.Join(s.dataDir, "drafts.yaml")
}

func (s *fileDraftStore) load() (models.DraftFile, error) {
	file := models.DraftFile{}
	if _, err := loadYAML(s.path(), &file); err != nil {
		return file, fmt.Errorf("loading drafts: %w", err)
	}
	if file.Version == "" {
		file.Version = "1.0"
	}
	if file.Drafts == nil {
		file.Drafts = make(map[string]models.Draft)
	}
	return file, nil
}

func (s *fileDraftStore) Get(topic string) (*models.Draft, bool, error) {
	var draft *models.Draft
	err := withLock(s.path(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		if d, ok := file.Drafts[NormalizeTopic(topic)]; ok {
			draft = &d
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return draft, draft != nil, nil
}

func (s *fileDraftStore) Put(topic string, draft models.Draft) error {
	return s.PutBatch(map[string]models.Draft{topic: draft})
}

func (s *fileDraftStore) PutBatch(drafts map[string]models.Draft) error {
	if len(drafts) == 0 {
		return nil
	}
	return withLock(s.path(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		for topic, draft := range drafts {
			key := NormalizeTopic(topic)
			if key == "" {
				return fmt.Errorf("putting draft: empty topic")
			}
			if draft.Topic == "" {
				draft.Topic = topic
			}
			if draft.CreatedAt.IsZero() {
				draft.CreatedAt = time.Now()
			}
			file.Drafts[key] = draft
		}
		return saveYAML(s.path(), &file)
	})
}

func (s *fileDraftStore) Delete(topic string) (bool, error) {
	removed := false
	err := withLock(s.path(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		key := NormalizeTopic(topic)
		if _, ok := file.Drafts[key]; !ok {
			return nil
		}
		delete(file.Drafts, key)
		removed = true
		return saveYAML(s.path(), &file)
	})
	return removed, err
}

func (s *fileDraftStore) All() (map[string]models.Draft, error) {
	var drafts map[string]models.Draft
	err := withLock(s.path(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		drafts = file.Drafts
		return nil
	})
	return drafts, err
}
