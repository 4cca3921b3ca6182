package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"machinespirit/pkg/models"
)

// backupInterval is the minimum spacing between timestamped knowledge
// backups taken on save.
const backupInterval = 5 * time.Minute

// KnowledgeStore is the persisted mapping from normalized topic to
// canonical answer entry. Lookup is two-tier: an exact match on the
// normalized (and alias-resolved) key, then an explicit weak prefix
// match that accepts false positives.
type KnowledgeStore interface {
	Get(topic string) (*models.KnowledgeEntry, bool, error)
	PrefixMatch(topic string) (*models.KnowledgeEntry, bool, error)
	Put(topic string, entry models.KnowledgeEntry) error
	PutIfAbsent(topic string, entry models.KnowledgeEntry) (bool, error)
	Delete(topic string) (bool, error)
	All() (map[string]models.KnowledgeEntry, error)

	AddAlias(alias, topic string) error
	ResolveAlias(topic string) (string, error)

	UserName() (string, error)
	SetUserName(name string) error
}

type fileKnowledgeStore struct {
	dataDir     string
	lockTimeout time.Duration
	lastBackup  time.Time
}

// NewKnowledgeStore creates a KnowledgeStore backed by YAML files under
// dataDir.
func NewKnowledgeStore(dataDir string, lockTimeout time.Duration) KnowledgeStore {
	return &fileKnowledgeStore{dataDir: dataDir, lockTimeout: lockTimeout}
}

func (s *fileKnowledgeStore) knowledgePath() string {
	return filepath.Join(s.dataDir, "knowledge.yaml")
}

func (s *fileKnowledgeStore) aliasPath() string {
	return filepath.Join(s.dataDir, "aliases.yaml")
}

func (s *fileKnowledgeStore) profilePath() string {
	return filepath.Join(s.dataDir, "profile.yaml")
}

func (s *fileKnowledgeStore) load() (models.KnowledgeFile, error) {
	file := models.KnowledgeFile{}
	if _, err := loadYAML(s.knowledgePath(), &file); err != nil {
		return file, fmt.Errorf("loading knowledge: %w", err)
	}
	if file.Version == "" {
		file.Version = "1.0"
	}
	if file.Entries == nil {
		file.Entries = make(map[string]models.KnowledgeEntry)
	}
	return file, nil
}

func (s *fileKnowledgeStore) save(file models.KnowledgeFile) error {
	if err := saveYAML(s.knowledgePath(), &file); err != nil {
		return fmt.Errorf("saving knowledge: %w", err)
	}
	s.backupIfDue()
	return nil
}

// backupIfDue drops a timestamped copy of knowledge.yaml under backups/
// at most once per backupInterval. Backup failures are ignored; they
// must never fail the write that triggered them.
func (s *fileKnowledgeStore) backupIfDue() {
	now := time.Now()
	if now.Sub(s.lastBackup) < backupInterval {
		return
	}
	data, err := os.ReadFile(s.knowledgePath())
	if err != nil {
		return
	}
	dir := filepath.Join(s.dataDir, "backups")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	name := fmt.Sprintf("knowledge_%s.yaml", now.Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		return
	}
	s.lastBackup = now
}

func (s *fileKnowledgeStore) loadAliases() (models.AliasFile, error) {
	file := models.AliasFile{}
	if _, err := loadYAML(s.aliasPath(), &file); err != nil {
		return file, fmt.Errorf("loading aliases: %w", err)
	}
	if file.Version == "" {
		file.Version = "1.0"
	}
	if file.Aliases == nil {
		file.Aliases = make(map[string]string)
	}
	return file, nil
}

// resolveAlias follows the alias chain for a normalized key, guarding
// against cycles.
func resolveAlias(aliases map[string]string, key string) string {
	seen := make(map[string]struct{})
	for {
		target, ok := aliases[key]
		if !ok {
			return key
		}
		if _, looped := seen[key]; looped {
			return key
		}
		seen[key] = struct{}{}
		key = NormalizeTopic(target)
	}
}

// Get returns the entry for the exact normalized, alias-resolved key.
func (s *fileKnowledgeStore) Get(topic string) (*models.KnowledgeEntry, bool, error) {
	var entry *models.KnowledgeEntry
	err := withLock(s.knowledgePath(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		aliases, err := s.loadAliases()
		if err != nil {
			return err
		}
		key := resolveAlias(aliases.Aliases, NormalizeTopic(topic))
		if e, ok := file.Entries[key]; ok {
			entry = &e
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return entry, entry != nil, nil
}

// PrefixMatch is the weak second lookup tier: it matches when the
// shorter of {query, stored key} is a prefix of the other, so it can
// return false positives. Callers treat its hits as lower confidence.
func (s *fileKnowledgeStore) PrefixMatch(topic string) (*models.KnowledgeEntry, bool, error) {
	query := NormalizeTopic(topic)
	if query == "" {
		return nil, false, nil
	}
	var entry *models.KnowledgeEntry
	err := withLock(s.knowledgePath(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		for key, e := range file.Entries {
			if strings.HasPrefix(key, query) || strings.HasPrefix(query, key) {
				match := e
				if entry == nil || match.Topic < entry.Topic {
					entry = &match
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return entry, entry != nil, nil
}

// Put writes the entry under the normalized, alias-resolved key,
// overwriting any existing entry for that key.
func (s *fileKnowledgeStore) Put(topic string, entry models.KnowledgeEntry) error {
	return withLock(s.knowledgePath(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		aliases, err := s.loadAliases()
		if err != nil {
			return err
		}
		key := resolveAlias(aliases.Aliases, NormalizeTopic(topic))
		if key == "" {
			return fmt.Errorf("putting knowledge entry: empty topic")
		}
		if entry.Topic == "" {
			entry.Topic = strings.TrimSpace(topic)
		}
		if entry.UpdatedAt.IsZero() {
			entry.UpdatedAt = time.Now()
		}
		file.Entries[key] = entry
		return s.save(file)
	})
}

// PutIfAbsent writes the entry only when no entry exists for the key.
// It reports whether a write happened. Cache entries are append-only
// once set; corrections go through the teachability path instead.
func (s *fileKnowledgeStore) PutIfAbsent(topic string, entry models.KnowledgeEntry) (bool, error) {
	stored := false
	err := withLock(s.knowledgePath(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		aliases, err := s.loadAliases()
		if err != nil {
			return err
		}
		key := resolveAlias(aliases.Aliases, NormalizeTopic(topic))
		if key == "" {
			return fmt.Errorf("putting knowledge entry: empty topic")
		}
		if _, exists := file.Entries[key]; exists {
			return nil
		}
		if entry.Topic == "" {
			entry.Topic = strings.TrimSpace(topic)
		}
		if entry.UpdatedAt.IsZero() {
			entry.UpdatedAt = time.Now()
		}
		file.Entries[key] = entry
		stored = true
		return s.save(file)
	})
	return stored, err
}

// Delete removes the entry for the normalized key, reporting whether one
// existed. Only explicit maintenance tooling calls this.
func (s *fileKnowledgeStore) Delete(topic string) (bool, error) {
	removed := false
	err := withLock(s.knowledgePath(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		key := NormalizeTopic(topic)
		if _, ok := file.Entries[key]; !ok {
			return nil
		}
		delete(file.Entries, key)
		removed = true
		return s.save(file)
	})
	return removed, err
}

func (s *fileKnowledgeStore) All() (map[string]models.KnowledgeEntry, error) {
	var entries map[string]models.KnowledgeEntry
	err := withLock(s.knowledgePath(), s.lockTimeout, func() error {
		file, err := s.load()
		if err != nil {
			return err
		}
		entries = file.Entries
		return nil
	})
	return entries, err
}

// AddAlias records alias -> topic. Both sides are normalized; an alias
// that resolves to itself is rejected.
func (s *fileKnowledgeStore) AddAlias(alias, topic string) error {
	return withLock(s.knowledgePath(), s.lockTimeout, func() error {
		file, err := s.loadAliases()
		if err != nil {
			return err
		}
		key := NormalizeTopic(alias)
		target := resolveAlias(file.Aliases, NormalizeTopic(topic))
		if key == "" || target == "" {
			return fmt.Errorf("adding alias: alias and topic must not be empty")
		}
		if key == target {
			return fmt.Errorf("adding alias: %q resolves to itself", key)
		}
		file.Aliases[key] = target
		return saveYAML(s.aliasPath(), &file)
	})
}

func (s *fileKnowledgeStore) ResolveAlias(topic string) (string, error) {
	resolved := NormalizeTopic(topic)
	err := withLock(s.knowledgePath(), s.lockTimeout, func() error {
		file, err := s.loadAliases()
		if err != nil {
			return err
		}
		resolved = resolveAlias(file.Aliases, resolved)
		return nil
	})
	return resolved, err
}

func (s *fileKnowledgeStore) UserName() (string, error) {
	var name string
	err := withLock(s.knowledgePath(), s.lockTimeout, func() error {
		profile := models.Profile{}
		if _, err := loadYAML(s.profilePath(), &profile); err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		name = profile.UserName
		return nil
	})
	return name, err
}

func (s *fileKnowledgeStore) SetUserName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return withLock(s.knowledgePath(), s.lockTimeout, func() error {
		profile := models.Profile{}
		if _, err := loadYAML(s.profilePath(), &profile); err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		if profile.Version == "" {
			profile.Version = "1.0"
		}
		if profile.UserName == name {
			return nil
		}
		profile.UserName = name
		return saveYAML(s.profilePath(), &profile)
	})
}
