package models

import "time"

// Config is the merged runtime configuration read from .spiritconfig.
type Config struct {
	// DataDir is the directory holding every persisted store.
	DataDir string

	// PersonaName is how the assistant refers to itself.
	PersonaName string

	// UserName optionally seeds the stored user profile name. The
	// profile learned from conversation ("my name is ...") wins once set.
	UserName string

	// BatchLimit caps how many queue items one research pass consumes.
	BatchLimit int

	// CollaboratorURL overrides the research collaborator endpoint.
	// Empty means the built-in Wikipedia summary endpoint.
	CollaboratorURL string

	// ResearchTimeout bounds each external collaborator call.
	ResearchTimeout time.Duration

	// CalibrationMinWords and CalibrationMaxWords clamp the per-line
	// word cap derived from existing knowledge answers.
	CalibrationMinWords int
	CalibrationMaxWords int

	// MaxTurnsPerChannel bounds per-channel conversation history.
	MaxTurnsPerChannel int

	// LockTimeout bounds how long a store operation waits for the
	// advisory lock before reporting busy.
	LockTimeout time.Duration
}
