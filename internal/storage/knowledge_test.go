package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"machinespirit/pkg/models"
)

const testLockTimeout = 2 * time.Second

func newTestKnowledgeStore(t *testing.T) KnowledgeStore {
	t.Helper()
	return NewKnowledgeStore(t.TempDir(), testLockTimeout)
}

func TestKnowledgeStore_PutAndGet(t *testing.T) {
	store := newTestKnowledgeStore(t)

	err := store.Put("What is NAT?", models.KnowledgeEntry{
		Answer:     "NAT rewrites packet addresses at a network boundary.",
		Confidence: 0.6,
		Source:     "research",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, ok, err := store.Get("what is nat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected entry for normalized key")
	}
	if entry.Answer != "NAT rewrites packet addresses at a network boundary." {
		t.Errorf("unexpected answer: %q", entry.Answer)
	}
	if entry.Topic != "What is NAT?" {
		t.Errorf("display topic not preserved: %q", entry.Topic)
	}
	if entry.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
}

func TestKnowledgeStore_PutOverwritesSameKey(t *testing.T) {
	store := newTestKnowledgeStore(t)

	if err := store.Put("osi model", models.KnowledgeEntry{Answer: "first"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Put("OSI Model?", models.KnowledgeEntry{Answer: "second"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := store.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 entry after overwrite, got %d", len(all))
	}
	entry, _, _ := store.Get("osi model")
	if entry.Answer != "second" {
		t.Errorf("expected overwrite, got %q", entry.Answer)
	}
}

func TestKnowledgeStore_PutIfAbsent(t *testing.T) {
	store := newTestKnowledgeStore(t)

	stored, err := store.PutIfAbsent("what is dns", models.KnowledgeEntry{Answer: "first"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !stored {
		t.Fatal("expected first write to store")
	}

	stored, err = store.PutIfAbsent("what is dns", models.KnowledgeEntry{Answer: "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored {
		t.Fatal("expected second write to be a no-op")
	}

	entry, _, _ := store.Get("what is dns")
	if entry.Answer != "first" {
		t.Errorf("first answer should win, got %q", entry.Answer)
	}
}

func TestKnowledgeStore_PrefixMatchTiers(t *testing.T) {
	store := newTestKnowledgeStore(t)

	if err := store.Put("what is nat traversal", models.KnowledgeEntry{Answer: "traversal"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Exact tier misses for the shorter question.
	if _, ok, _ := store.Get("what is nat"); ok {
		t.Fatal("exact tier should not match a prefix")
	}

	// Prefix tier matches in both directions.
	entry, ok, err := store.PrefixMatch("what is nat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || entry.Answer != "traversal" {
		t.Fatalf("expected prefix match, got ok=%v", ok)
	}
	entry, ok, _ = store.PrefixMatch("what is nat traversal in ipv4 networks")
	if !ok || entry.Answer != "traversal" {
		t.Fatalf("expected reverse prefix match, got ok=%v", ok)
	}
	if _, ok, _ = store.PrefixMatch("unrelated question"); ok {
		t.Fatal("expected no match for unrelated question")
	}
}

func TestKnowledgeStore_Delete(t *testing.T) {
	store := newTestKnowledgeStore(t)

	if err := store.Put("topic", models.KnowledgeEntry{Answer: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	removed, err := store.Delete("Topic!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !removed {
		t.Fatal("expected delete to remove the entry")
	}
	removed, _ = store.Delete("topic")
	if removed {
		t.Fatal("second delete should report nothing removed")
	}
}

func TestKnowledgeStore_Aliases(t *testing.T) {
	store := newTestKnowledgeStore(t)

	if err := store.Put("warhammer 40k", models.KnowledgeEntry{Answer: "grimdark"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.AddAlias("40k", "Warhammer 40k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, ok, err := store.Get("40k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || entry.Answer != "grimdark" {
		t.Fatal("expected alias-resolved lookup to hit")
	}

	// Writes resolve aliases too, so the canonical key stays unique.
	if err := store.Put("40k", models.KnowledgeEntry{Answer: "updated"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all, _ := store.All()
	if len(all) != 1 {
		t.Fatalf("alias write duplicated the entry: %d keys", len(all))
	}

	if err := store.AddAlias("40k", "40k"); err == nil {
		t.Error("expected self-alias to be rejected")
	}
}

func TestKnowledgeStore_CorruptFileQuarantined(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knowledge.yaml")
	if err := os.WriteFile(path, []byte("{not: [valid yaml"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := NewKnowledgeStore(dir, testLockTimeout)
	all, err := store.All()
	if err != nil {
		t.Fatalf("corrupt store must not fail reads: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty default, got %d entries", len(all))
	}

	matches, _ := filepath.Glob(path + ".corrupt_*")
	if len(matches) != 1 {
		t.Fatalf("expected one quarantined file, got %v", matches)
	}
}

func TestKnowledgeStore_Profile(t *testing.T) {
	store := newTestKnowledgeStore(t)

	name, err := store.UserName()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "" {
		t.Errorf("expected empty profile, got %q", name)
	}
	if err := store.SetUserName("Aaron"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name, _ = store.UserName()
	if name != "Aaron" {
		t.Errorf("expected Aaron, got %q", name)
	}
}

func TestKnowledgeStore_QuarantineLeavesNoPartialState(t *testing.T) {
	// The decode error hits after the first entry parses; readers must
	// still see the empty default, never the partially decoded map.
	dir := t.TempDir()
	path := filepath.Join(dir, "knowledge.yaml")
	content := `entries:
  nat:
    answer: Address translation.
    confidence: 0.6
  dns:
    answer: Name resolution.
    confidence: not-a-number
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := NewKnowledgeStore(dir, testLockTimeout)
	all, err := store.All()
	if err != nil {
		t.Fatalf("corrupt store must not fail reads: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty default, got %d entries", len(all))
	}
}
