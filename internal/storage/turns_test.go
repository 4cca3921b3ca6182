package storage

import (
	"fmt"
	"testing"
)

func TestTurnMemory_AppendAndLast(t *testing.T) {
	turns := NewTurnMemory(t.TempDir(), testLockTimeout, 10)

	if _, ok, _ := turns.Last("cli"); ok {
		t.Fatal("expected no turn on empty channel")
	}

	if err := turns.Append("cli", "what is my pc", "It is a computer."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last, ok, err := turns.Last("cli")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || last.Question != "what is my pc" {
		t.Fatalf("unexpected last turn: %+v", last)
	}
}

func TestTurnMemory_EvictsOldestFIFO(t *testing.T) {
	turns := NewTurnMemory(t.TempDir(), testLockTimeout, 3)

	for i := 1; i <= 5; i++ {
		if err := turns.Append("cli", fmt.Sprintf("q%d", i), "a"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	recent, err := turns.Recent("cli", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected capacity 3, got %d", len(recent))
	}
	if recent[0].Question != "q3" || recent[2].Question != "q5" {
		t.Errorf("oldest not evicted first: %v", recent)
	}
}

func TestTurnMemory_ChannelsAreSeparate(t *testing.T) {
	turns := NewTurnMemory(t.TempDir(), testLockTimeout, 10)

	turns.Append("voice", "voice question", "voice answer")
	turns.Append("web", "web question", "web answer")

	last, ok, _ := turns.Last("voice")
	if !ok || last.Question != "voice question" {
		t.Fatal("voice channel leaked")
	}
	if _, ok, _ := turns.Last("cli"); ok {
		t.Fatal("cli channel should be empty")
	}
}
