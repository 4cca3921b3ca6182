package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"machinespirit/pkg/models"
)

// TurnMemory is the per-channel rolling conversation history. Each
// channel keeps at most maxPerChannel turns; the oldest turn is evicted
// first, a plain FIFO ring rather than an LRU.
type TurnMemory interface {
	Append(channel, question, answer string) error
	Recent(channel string, n int) ([]models.ConversationTurn, error)
	Last(channel string) (*models.ConversationTurn, bool, error)
}

type fileTurnMemory struct {
	dataDir       string
	lockTimeout   time.Duration
	maxPerChannel int
}

// NewTurnMemory creates a TurnMemory backed by turns.yaml under dataDir.
func NewTurnMemory(dataDir string, lockTimeout time.Duration, maxPerChannel int) TurnMemory {
	if maxPerChannel <= 0 {
		maxPerChannel = 50
	}
	return &fileTurnMemory{dataDir: dataDir, lockTimeout: lockTimeout, maxPerChannel: maxPerChannel}
}

func (m *fileTurnMemory) path() string {
	return filepath.Join(m.dataDir, "turns.yaml")
}

func (m *fileTurnMemory) load() (models.TurnFile, error) {
	file := models.TurnFile{}
	if _, err := loadYAML(m.path(), &file); err != nil {
		return file, fmt.Errorf("loading turns: %w", err)
	}
	if file.Version == "" {
		file.Version = "1.0"
	}
	if file.Channels == nil {
		file.Channels = make(map[string][]models.ConversationTurn)
	}
	return file, nil
}

func (m *fileTurnMemory) Append(channel, question, answer string) error {
	if channel == "" {
		channel = "cli"
	}
	return withLock(m.path(), m.lockTimeout, func() error {
		file, err := m.load()
		if err != nil {
			return err
		}
		turns := append(file.Channels[channel], models.ConversationTurn{
			Question: question,
			Answer:   answer,
			At:       time.Now(),
		})
		if len(turns) > m.maxPerChannel {
			turns = turns[len(turns)-m.maxPerChannel:]
		}
		file.Channels[channel] = turns
		return saveYAML(m.path(), &file)
	})
}

func (m *fileTurnMemory) Recent(channel string, n int) ([]models.ConversationTurn, error) {
	if channel == "" {
		channel = "cli"
	}
	var turns []models.ConversationTurn
	err := withLock(m.path(), m.lockTimeout, func() error {
		file, err := m.load()
		if err != nil {
			return err
		}
		all := file.Channels[channel]
		if n > 0 && len(all) > n {
			all = all[len(all)-n:]
		}
		turns = all
		return nil
	})
	return turns, err
}

func (m *fileTurnMemory) Last(channel string) (*models.ConversationTurn, bool, error) {
	turns, err := m.Recent(channel, 1)
	if err != nil {
		return nil, false, err
	}
	if len(turns) == 0 {
		return nil, false, nil
	}
	return &turns[0], true, nil
}
