package cli

import (
	"machinespirit/internal/core"
	"machinespirit/internal/observability"
	"machinespirit/internal/storage"
	"machinespirit/pkg/models"
)

// Service dependencies, set during app initialization in app.go.
var (
	Cfg *models.Config

	Knowledge storage.KnowledgeStore
	Queue     storage.ResearchQueue
	Drafts    storage.DraftStore
	Turns     storage.TurnMemory

	Router   *core.Router
	Teacher  *core.Teacher
	Worker   *core.Worker
	Reviewer *core.Reviewer

	EventLog observability.EventLog
)
