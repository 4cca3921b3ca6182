package core

import (
	"strings"
	"testing"
	"time"
)

type memProfile struct {
	name string
}

func (p *memProfile) UserName() (string, error)     { return p.name, nil }
func (p *memProfile) SetUserName(name string) error { p.name = name; return nil }

func newTestBuiltins() (*Builtins, *memProfile) {
	profile := &memProfile{}
	b := NewBuiltins("Machine Spirit", profile)
	b.now = func() time.Time {
		return time.Date(2025, time.March, 7, 15, 4, 0, 0, time.UTC)
	}
	return b, profile
}

func TestBuiltinsIdentityAndSmallTalk(t *testing.T) {
	b, _ := newTestBuiltins()
	cases := []struct {
		question string
		contains string
	}{
		{"hello", "listening"},
		{"who are you", "Machine Spirit"},
		{"what is your name", "Machine Spirit"},
		{"how are you?", "online"},
		{"what is your purpose", "improve"},
		{"what is warhammer 40k", "Games Workshop"},
	}
	for _, tc := range cases {
		answer, ok := b.Respond(tc.question)
		if !ok {
			t.Errorf("Respond(%q) = false, want built-in answer", tc.question)
			continue
		}
		if !strings.Contains(answer, tc.contains) {
			t.Errorf("Respond(%q) = %q, want substring %q", tc.question, answer, tc.contains)
		}
	}
}

func TestBuiltinsNameCapture(t *testing.T) {
	b, profile := newTestBuiltins()

	answer, ok := b.Respond("what's my name")
	if !ok || !strings.Contains(answer, "haven't told me") {
		t.Fatalf("unset name answer = %q, %v", answer, ok)
	}

	answer, ok = b.Respond("my name is Ada Lovelace")
	if !ok || !strings.Contains(answer, "Ada Lovelace") {
		t.Fatalf("name capture answer = %q, %v", answer, ok)
	}
	if profile.name != "Ada Lovelace" {
		t.Fatalf("profile name = %q, want Ada Lovelace", profile.name)
	}

	answer, ok = b.Respond("what is my name")
	if !ok || !strings.Contains(answer, "Ada Lovelace") {
		t.Fatalf("recall answer = %q, %v", answer, ok)
	}
}

func TestBuiltinsClock(t *testing.T) {
	b, _ := newTestBuiltins()
	cases := []struct {
		question string
		want     string
	}{
		{"what time is it", "3:04 PM"},
		{"what day is it", "Friday"},
		{"what is the date", "Friday, March 7, 2025"},
	}
	for _, tc := range cases {
		answer, ok := b.Respond(tc.question)
		if !ok || answer != tc.want {
			t.Errorf("Respond(%q) = %q, %v; want %q", tc.question, answer, ok, tc.want)
		}
	}
}

func TestBuiltinsUnknownTopic(t *testing.T) {
	b, _ := newTestBuiltins()
	if answer, ok := b.Respond("what is quantum chromodynamics"); ok {
		t.Fatalf("Respond matched unknown topic with %q", answer)
	}
}

func TestConceptFallback(t *testing.T) {
	answer := ConceptFallback("what is nat", false)
	if !strings.Contains(answer, "network address translation") {
		t.Errorf("NAT fallback = %q, want concept text", answer)
	}

	answer = ConceptFallback("what is a flux capacitor", true)
	if answer == "" {
		t.Fatal("fallback returned empty string")
	}
	if !strings.Contains(answer, "could not reach my research sources") {
		t.Errorf("failed-research fallback missing explanation: %q", answer)
	}
	if !strings.Contains(answer, "flux capacitor") {
		t.Errorf("generic fallback should name the topic: %q", answer)
	}
}
