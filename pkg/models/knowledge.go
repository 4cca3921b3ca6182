package models

import "time"

// ConfidenceLabel classifies how much the system trusts an answer.
type ConfidenceLabel string

const (
	ConfidenceHigh          ConfidenceLabel = "high"
	ConfidenceMedium        ConfidenceLabel = "medium"
	ConfidenceLow           ConfidenceLabel = "low"
	ConfidenceError         ConfidenceLabel = "error"
	ConfidenceNeedsTeaching ConfidenceLabel = "needs_teaching"
)

// TaughtConfidence is the minimum numeric confidence assigned to entries
// taught or corrected by the user.
const TaughtConfidence = 0.95

// KnowledgeEntry is the canonical answer for one normalized topic.
// At most one entry exists per normalized key; writing an existing key is
// an overwrite, never a duplicate.
type KnowledgeEntry struct {
	Topic        string    `yaml:"topic"`
	Answer       string    `yaml:"answer"`
	Confidence   float64   `yaml:"confidence"`
	Source       string    `yaml:"source"`
	TaughtByUser bool      `yaml:"taught_by_user"`
	UpdatedAt    time.Time `yaml:"updated_at"`
	Citations    []string  `yaml:"citations,omitempty"`
}

// KnowledgeFile is the top-level structure of knowledge.yaml, keyed by
// normalized topic.
type KnowledgeFile struct {
	Version string                    `yaml:"version"`
	Entries map[string]KnowledgeEntry `yaml:"entries"`
}

// AliasFile maps normalized alias -> normalized canonical topic.
type AliasFile struct {
	Version string            `yaml:"version"`
	Aliases map[string]string `yaml:"aliases"`
}

// Profile holds the small set of user-scoped facts the router captures
// from conversation ("my name is ...").
type Profile struct {
	Version  string `yaml:"version"`
	UserName string `yaml:"user_name,omitempty"`
}
