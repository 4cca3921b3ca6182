package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"machinespirit/internal/research"
	"machinespirit/internal/storage"
	"machinespirit/pkg/models"
)

type routerFixture struct {
	router    *Router
	knowledge storage.KnowledgeStore
	queue     storage.ResearchQueue
	turns     storage.TurnMemory
}

func newRouterFixture(t *testing.T, researcher research.Researcher) routerFixture {
	t.Helper()
	dir := t.TempDir()
	knowledge := storage.NewKnowledgeStore(dir, testLockTimeout)
	queue := storage.NewResearchQueue(dir, testLockTimeout)
	turns := storage.NewTurnMemory(dir, testLockTimeout, 10)
	builtins := NewBuiltins("Machine Spirit", knowledge)
	return routerFixture{
		router:    NewRouter(knowledge, queue, turns, builtins, researcher, nil),
		knowledge: knowledge,
		queue:     queue,
		turns:     turns,
	}
}

func TestResolveMath(t *testing.T) {
	fx := newRouterFixture(t, nil)
	res := fx.router.Resolve(context.Background(), "what is 12 plus 7", "cli")
	if res.Answer != "19" {
		t.Fatalf("answer = %q, want 19", res.Answer)
	}
	if res.Source != SourceMath {
		t.Errorf("source = %q, want %q", res.Source, SourceMath)
	}
	if res.Queued {
		t.Error("arithmetic answer should not queue research")
	}

	entry, ok, err := fx.knowledge.Get("what is 12 plus 7")
	if err != nil || !ok {
		t.Fatalf("math answer not cached: ok=%v err=%v", ok, err)
	}
	if entry.Answer != "19" {
		t.Errorf("cached answer = %q", entry.Answer)
	}
}

func TestResolveCachedIsIdempotent(t *testing.T) {
	calls := 0
	fx := newRouterFixture(t, research.ResearcherFunc(func(ctx context.Context, q string) (string, error) {
		calls++
		return "BGP is the routing protocol that stitches the internet's networks together.", nil
	}))

	first := fx.router.Resolve(context.Background(), "what is bgp", "cli")
	if first.Source != SourceResearch {
		t.Fatalf("first source = %q, want research", first.Source)
	}
	entryBefore, _, err := fx.knowledge.Get("what is bgp")
	if err != nil || entryBefore == nil {
		t.Fatalf("answer not cached: %v", err)
	}

	second := fx.router.Resolve(context.Background(), "what is bgp", "cli")
	if second.Source != SourceCache {
		t.Errorf("second source = %q, want cache", second.Source)
	}
	if second.Answer != first.Answer {
		t.Errorf("second answer %q differs from first %q", second.Answer, first.Answer)
	}
	if calls != 1 {
		t.Errorf("researcher called %d times, want 1", calls)
	}
	entryAfter, _, err := fx.knowledge.Get("what is bgp")
	if err != nil || entryAfter == nil {
		t.Fatalf("cache lost: %v", err)
	}
	if !entryAfter.UpdatedAt.Equal(entryBefore.UpdatedAt) {
		t.Error("second resolve mutated the cached entry")
	}
}

func TestResolveFallbackNeverEmpty(t *testing.T) {
	fx := newRouterFixture(t, research.ResearcherFunc(func(ctx context.Context, q string) (string, error) {
		return "", errors.New("connection refused")
	}))

	res := fx.router.Resolve(context.Background(), "what is nat", "cli")
	if strings.TrimSpace(res.Answer) == "" {
		t.Fatal("router returned empty answer")
	}
	if !strings.Contains(res.Answer, "network address translation") {
		t.Errorf("NAT fallback = %q, want built-in concept text", res.Answer)
	}
	if res.Source != SourceFallback {
		t.Errorf("source = %q, want fallback", res.Source)
	}
	if !res.Queued {
		t.Error("weak fallback should queue the topic for research")
	}

	items, err := fx.queue.Items()
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 || storage.NormalizeTopic(items[0].Topic) != "nat" {
		t.Errorf("queue = %+v, want single pending item for nat", items)
	}
}

func TestResolveFallbackNotCached(t *testing.T) {
	fx := newRouterFixture(t, nil)
	fx.router.Resolve(context.Background(), "what is a flux capacitor", "cli")
	if _, ok, _ := fx.knowledge.Get("what is a flux capacitor"); ok {
		t.Error("fallback answer must not be cached")
	}
}

func TestResolveTaughtAnswerSkipsQueue(t *testing.T) {
	fx := newRouterFixture(t, nil)
	teacher := NewTeacher(fx.knowledge, nil)
	if _, err := teacher.Teach("what is my pc", "It is a Ryzen 7 desktop."); err != nil {
		t.Fatalf("Teach: %v", err)
	}

	res := fx.router.Resolve(context.Background(), "What is my PC?", "cli")
	if res.Answer != "It is a Ryzen 7 desktop." {
		t.Fatalf("answer = %q", res.Answer)
	}
	if res.Source != SourceCache || res.Confidence != models.ConfidenceHigh {
		t.Errorf("source=%q confidence=%q, want taught cache hit", res.Source, res.Confidence)
	}
	if res.Queued {
		t.Error("taught answer should not queue research")
	}
}

func TestResolveRecordsTurn(t *testing.T) {
	fx := newRouterFixture(t, nil)
	fx.router.Resolve(context.Background(), "what is 2 plus 2", "voice")

	turn, ok, err := fx.turns.Last("voice")
	if err != nil || !ok {
		t.Fatalf("Last: ok=%v err=%v", ok, err)
	}
	if turn.Question != "what is 2 plus 2" || turn.Answer != "4" {
		t.Errorf("turn = %+v", turn)
	}
	if _, ok, _ := fx.turns.Last("cli"); ok {
		t.Error("turn leaked into another channel")
	}
}

func TestResolvePrefixRecall(t *testing.T) {
	fx := newRouterFixture(t, nil)
	if err := fx.knowledge.Put("what is kubernetes", models.KnowledgeEntry{
		Topic:      "what is kubernetes",
		Answer:     "Kubernetes orchestrates containers across a cluster.",
		Confidence: 0.6,
	}); err != nil {
		t.Fatalf("seeding: %v", err)
	}

	res := fx.router.Resolve(context.Background(), "what is kubernetes exactly", "cli")
	if res.Source != SourceCache {
		t.Fatalf("source = %q, want cache via prefix match", res.Source)
	}
	if res.Answer != "Kubernetes orchestrates containers across a cluster." {
		t.Errorf("answer = %q", res.Answer)
	}
}

func TestExplainMentionsQueueing(t *testing.T) {
	plain := Explain(Resolution{Answer: "It is a tool."})
	if plain != "It is a tool." {
		t.Errorf("Explain without queueing = %q", plain)
	}
	queued := Explain(Resolution{Answer: "It is a tool.", Queued: true})
	if !strings.Contains(queued, "queued") {
		t.Errorf("Explain with queueing = %q, want research note", queued)
	}
}
