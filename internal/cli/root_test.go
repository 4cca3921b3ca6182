package cli

import (
	"testing"
	"time"

	"machinespirit/internal/core"
	"machinespirit/internal/storage"
)

func TestCommandRegistration(t *testing.T) {
	want := []string{"ask", "correct", "teach", "forget", "knowledge", "research", "queue", "drafts", "status", "events", "dashboard", "mcp", "version"}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("expected %q command to be registered", name)
		}
	}
}

// wireTestApp points the package-level service vars at real stores in a
// temp dir and restores the previous wiring on cleanup.
func wireTestApp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	lockTimeout := 2 * time.Second

	origKnowledge, origQueue, origDrafts, origTurns := Knowledge, Queue, Drafts, Turns
	origRouter, origTeacher, origWorker, origReviewer := Router, Teacher, Worker, Reviewer
	origEventLog := EventLog
	t.Cleanup(func() {
		Knowledge, Queue, Drafts, Turns = origKnowledge, origQueue, origDrafts, origTurns
		Router, Teacher, Worker, Reviewer = origRouter, origTeacher, origWorker, origReviewer
		EventLog = origEventLog
	})

	Knowledge = storage.NewKnowledgeStore(dir, lockTimeout)
	Queue = storage.NewResearchQueue(dir, lockTimeout)
	Drafts = storage.NewDraftStore(dir, lockTimeout)
	Turns = storage.NewTurnMemory(dir, lockTimeout, 10)
	EventLog = nil

	builtins := core.NewBuiltins("Machine Spirit", Knowledge)
	Router = core.NewRouter(Knowledge, Queue, Turns, builtins, nil, nil)
	Teacher = core.NewTeacher(Knowledge, nil)
	Worker = core.NewWorker(Queue, Drafts, Knowledge, nil, nil, 0, 0)
	Reviewer = core.NewReviewer(Drafts, Knowledge, nil)
}
