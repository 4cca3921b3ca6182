package cli

import (
	"strings"
	"testing"

	"machinespirit/internal/core"
)

func TestAskCommand_NilRouter(t *testing.T) {
	origRouter := Router
	defer func() { Router = origRouter }()
	Router = nil

	err := askCmd.RunE(askCmd, []string{"what", "is", "2", "plus", "2"})
	if err == nil {
		t.Fatal("expected error with nil router")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAskCommand_MathRecordsTurn(t *testing.T) {
	wireTestApp(t)

	if err := askCmd.RunE(askCmd, []string{"what", "is", "12", "plus", "7"}); err != nil {
		t.Fatalf("RunE: %v", err)
	}

	turn, ok, err := Turns.Last("cli")
	if err != nil || !ok {
		t.Fatalf("Last: ok=%v err=%v", ok, err)
	}
	if turn.Answer != "19" {
		t.Errorf("recorded answer = %q, want %q", turn.Answer, "19")
	}
}

func TestAskCommand_CorrectionOverwritesPreviousAnswer(t *testing.T) {
	wireTestApp(t)

	if err := Turns.Append("cli", "what cpu do i have", "I interpret that as a hardware question."); err != nil {
		t.Fatalf("Append: %v", err)
	}

	correction := []string{"no,", "that's", "wrong.", "It", "is", "a", "Ryzen", "7", "desktop."}
	if err := askCmd.RunE(askCmd, correction); err != nil {
		t.Fatalf("RunE: %v", err)
	}

	entry, ok, err := Knowledge.Get("what cpu do i have")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if entry.Answer != "It is a Ryzen 7 desktop." {
		t.Errorf("corrected answer = %q", entry.Answer)
	}
	if entry.Source != "correction" || !entry.TaughtByUser {
		t.Errorf("entry = %+v, want correction source taught by user", entry)
	}
}

func TestExplainMentionsSource(t *testing.T) {
	res := core.Resolution{Answer: "19", Source: core.SourceMath}
	if got := core.Explain(res); !strings.Contains(got, "19") {
		t.Errorf("Explain = %q, want answer included", got)
	}
}

func TestCorrectCommand_NoPriorTurn(t *testing.T) {
	wireTestApp(t)

	if err := correctCmd.RunE(correctCmd, []string{"no,", "that's", "wrong.", "It", "is", "blue."}); err != nil {
		t.Fatalf("RunE: %v", err)
	}
	entries, err := Knowledge.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("correction with no prior turn stored %d entries", len(entries))
	}
}

func TestCorrectCommand_AppliesToLastTurn(t *testing.T) {
	wireTestApp(t)

	if err := Turns.Append("cli", "what is my pc", "It is a computer."); err != nil {
		t.Fatalf("Append: %v", err)
	}
	args := []string{"no,", "that's", "wrong.", "It", "is", "a", "Ryzen", "7", "desktop."}
	if err := correctCmd.RunE(correctCmd, args); err != nil {
		t.Fatalf("RunE: %v", err)
	}

	entry, ok, err := Knowledge.Get("what is my pc")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if entry.Answer != "It is a Ryzen 7 desktop." {
		t.Errorf("answer = %q", entry.Answer)
	}
}
