package models

import "time"

// DraftKind classifies what shape of explanation a synthesized draft
// takes. Classification is keyword-driven, first match wins.
type DraftKind string

const (
	KindComparison DraftKind = "comparison"
	KindProtocol   DraftKind = "protocol"
	KindProcess    DraftKind = "process"
	KindSoftware   DraftKind = "software"
	KindObject     DraftKind = "object"
)

// Draft is an auto-synthesized, low-confidence candidate answer awaiting
// review or promotion into the knowledge store.
type Draft struct {
	Topic      string          `yaml:"topic"`
	Kind       DraftKind       `yaml:"kind"`
	Short      string          `yaml:"short"`
	Detailed   string          `yaml:"detailed"`
	Confidence ConfidenceLabel `yaml:"confidence"`
	CreatedAt  time.Time       `yaml:"created_at"`
	Provenance string          `yaml:"provenance"`
}

// DraftFile is the top-level structure of drafts.yaml, keyed by
// normalized topic.
type DraftFile struct {
	Version string           `yaml:"version"`
	Drafts  map[string]Draft `yaml:"drafts"`
}
