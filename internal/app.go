// Package internal provides the App struct that wires all components of
// the Machine Spirit system together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"machinespirit/internal/cli"
	"machinespirit/internal/core"
	"machinespirit/internal/observability"
	"machinespirit/internal/research"
	"machinespirit/internal/storage"
	"machinespirit/pkg/models"
)

// App holds all service dependencies for the Machine Spirit system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Storage layer
	Knowledge storage.KnowledgeStore
	Queue     storage.ResearchQueue
	Drafts    storage.DraftStore
	Turns     storage.TurnMemory

	// Core services
	Builtins *core.Builtins
	Router   *core.Router
	Teacher  *core.Teacher
	Worker   *core.Worker
	Reviewer *core.Reviewer

	// External collaborator
	Researcher research.Researcher

	// Observability
	EventLog observability.EventLog
}

// NewApp creates and wires all components of the Machine Spirit system.
// basePath is the directory where all data is stored (typically the
// directory containing .spiritconfig).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		cfg = core.DefaultConfig(basePath)
	}
	app.Config = cfg

	// --- Observability ---
	eventLogPath := filepath.Join(cfg.DataDir, ".spirit_events.jsonl")
	app.EventLog, err = observability.NewEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: run with events disabled.
		app.EventLog = observability.NopEventLog()
	}

	// --- Storage layer ---
	app.Knowledge = storage.NewKnowledgeStore(cfg.DataDir, cfg.LockTimeout)
	app.Queue = storage.NewResearchQueue(cfg.DataDir, cfg.LockTimeout)
	app.Drafts = storage.NewDraftStore(cfg.DataDir, cfg.LockTimeout)
	app.Turns = storage.NewTurnMemory(cfg.DataDir, cfg.LockTimeout, cfg.MaxTurnsPerChannel)

	// Seed the user profile name from config; a name learned in
	// conversation takes precedence once present.
	if cfg.UserName != "" {
		if stored, err := app.Knowledge.UserName(); err == nil && stored == "" {
			_ = app.Knowledge.SetUserName(cfg.UserName)
		}
	}

	// --- External collaborator ---
	app.Researcher = research.NewWikipediaResearcher(cfg.CollaboratorURL, cfg.ResearchTimeout)

	// --- Core services ---
	app.Builtins = core.NewBuiltins(cfg.PersonaName, app.Knowledge)
	app.Router = core.NewRouter(app.Knowledge, app.Queue, app.Turns, app.Builtins, app.Researcher, app.EventLog)
	app.Teacher = core.NewTeacher(app.Knowledge, app.EventLog)
	app.Worker = core.NewWorker(app.Queue, app.Drafts, app.Knowledge, app.Researcher, app.EventLog,
		cfg.CalibrationMinWords, cfg.CalibrationMaxWords)
	app.Reviewer = core.NewReviewer(app.Drafts, app.Knowledge, app.EventLog)

	// --- Wire CLI package-level variables ---
	cli.Cfg = cfg
	cli.Knowledge = app.Knowledge
	cli.Queue = app.Queue
	cli.Drafts = app.Drafts
	cli.Turns = app.Turns
	cli.Router = app.Router
	cli.Teacher = app.Teacher
	cli.Worker = app.Worker
	cli.Reviewer = app.Reviewer
	cli.EventLog = app.EventLog

	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the Machine Spirit data
// directory. It checks the SPIRIT_HOME env var, then walks up from the
// current directory looking for .spiritconfig, falling back to
// ~/.spirit.
func ResolveBasePath() string {
	if home := os.Getenv("SPIRIT_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err == nil {
		for {
			if _, statErr := os.Stat(filepath.Join(dir, ".spiritconfig")); statErr == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".spirit")
	}
	cwd, _ := os.Getwd()
	return cwd
}
