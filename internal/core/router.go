package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"machinespirit/internal/observability"
	"machinespirit/internal/research"
	"machinespirit/internal/storage"
	"machinespirit/pkg/models"
)

// Answer source labels, recorded on cache entries and events.
const (
	SourceMath     = "math"
	SourceCache    = "cache"
	SourceBuiltin  = "builtin"
	SourceResearch = "research"
	SourceFallback = "fallback"
)

// Resolution is the router's verdict for one question.
type Resolution struct {
	Answer     string
	Source     string
	Confidence models.ConfidenceLabel
	Queued     bool
}

// Router resolves a question to an answer, cheapest source first. It
// never returns an empty answer: every failure path degrades to the
// next source, ending at the concept fallback.
type Router struct {
	Knowledge  storage.KnowledgeStore
	Queue      storage.ResearchQueue
	Turns      storage.TurnMemory
	Builtins   *Builtins
	Researcher research.Researcher
	Events     observability.EventLog
}

// NewRouter wires the resolution pipeline.
func NewRouter(knowledge storage.KnowledgeStore, queue storage.ResearchQueue, turns storage.TurnMemory, builtins *Builtins, researcher research.Researcher, events observability.EventLog) *Router {
	if events == nil {
		events = observability.NopEventLog()
	}
	return &Router{
		Knowledge:  knowledge,
		Queue:      queue,
		Turns:      turns,
		Builtins:   builtins,
		Researcher: researcher,
		Events:     events,
	}
}

// Resolve answers the question on the given channel. Store failures are
// logged and degraded, never surfaced: the caller always gets text.
func (r *Router) Resolve(ctx context.Context, question, channel string) Resolution {
	res := r.resolve(ctx, question)

	key := storage.NormalizeTopic(question)
	if res.Source != SourceFallback && key != "" {
		entry := models.KnowledgeEntry{
			Topic:      key,
			Answer:     res.Answer,
			Confidence: confidenceScore(res.Confidence),
			Source:     res.Source,
			UpdatedAt:  time.Now().UTC(),
		}
		if _, err := r.Knowledge.PutIfAbsent(key, entry); err != nil {
			r.Events.Warn(observability.EventResolved, "cache write failed", map[string]any{"topic": key, "error": err.Error()})
		}
	}

	res.Queued = r.maybeQueue(question, res)

	if r.Turns != nil {
		if err := r.Turns.Append(channel, question, res.Answer); err != nil {
			r.Events.Warn(observability.EventResolved, "turn append failed", map[string]any{"error": err.Error()})
		}
	}

	r.Events.Info(observability.EventResolved, "resolved question", map[string]any{
		"topic":  key,
		"source": res.Source,
		"queued": res.Queued,
	})
	return res
}

func (r *Router) resolve(ctx context.Context, question string) Resolution {
	if answer, ok := TryMath(question); ok {
		return Resolution{Answer: answer, Source: SourceMath, Confidence: models.ConfidenceHigh}
	}

	if res, ok := r.recall(question); ok {
		return res
	}

	if r.Builtins != nil {
		if answer, ok := r.Builtins.Respond(question); ok {
			return Resolution{Answer: answer, Source: SourceBuiltin, Confidence: models.ConfidenceHigh}
		}
	}

	researchFailed := false
	if r.Researcher != nil {
		answer, err := r.Researcher.Answer(ctx, question)
		if err == nil && strings.TrimSpace(answer) != "" {
			return Resolution{Answer: answer, Source: SourceResearch, Confidence: models.ConfidenceMedium}
		}
		researchFailed = true
		if err != nil {
			r.Events.Warn(observability.EventResolved, "research collaborator failed", map[string]any{"error": err.Error()})
		}
	}

	return Resolution{
		Answer:     ConceptFallback(question, researchFailed),
		Source:     SourceFallback,
		Confidence: models.ConfidenceLow,
	}
}

// recall is the two-tier cache lookup: exact normalized key first, then
// the weak bidirectional prefix match. Aliases resolve before either
// tier.
func (r *Router) recall(question string) (Resolution, bool) {
	key := storage.NormalizeTopic(question)
	if key == "" {
		return Resolution{}, false
	}
	if resolved, err := r.Knowledge.ResolveAlias(key); err == nil && resolved != "" {
		key = resolved
	}

	entry, ok, err := r.Knowledge.Get(key)
	if err != nil {
		r.Events.Warn(observability.EventResolved, "cache read failed", map[string]any{"error": err.Error()})
		return Resolution{}, false
	}
	if !ok {
		entry, ok, err = r.Knowledge.PrefixMatch(key)
		if err != nil || !ok {
			return Resolution{}, false
		}
	}

	confidence := models.ConfidenceMedium
	if entry.TaughtByUser || entry.Confidence >= models.TaughtConfidence {
		confidence = models.ConfidenceHigh
	}
	return Resolution{Answer: entry.Answer, Source: SourceCache, Confidence: confidence}, true
}

// maybeQueue runs both insight classifiers and enqueues the topic when
// either fires. Deterministic sources (math, built-ins) and taught
// answers are exempt from the recall-biased cue classifier.
func (r *Router) maybeQueue(question string, res Resolution) bool {
	if r.Queue == nil {
		return false
	}
	usedTeaching := res.Source == SourceCache && res.Confidence == models.ConfidenceHigh

	reason := ""
	cls := Classify(question, res.Answer, usedTeaching)
	if cls.NeedsResearch {
		reason = "label:" + string(cls.Confidence)
	} else if res.Source != SourceMath && res.Source != SourceBuiltin && !usedTeaching {
		reason, _ = NeedsResearch(question, res.Answer)
	}
	if reason == "" {
		return false
	}

	topic := ResearchTopic(question)
	if _, err := r.Queue.Enqueue(topic, reason, "router"); err != nil {
		r.Events.Warn(observability.EventQueued, "enqueue failed", map[string]any{"topic": topic, "error": err.Error()})
		return false
	}
	r.Events.Info(observability.EventQueued, "queued for research", map[string]any{"topic": topic, "reason": reason})
	return true
}

// ResearchTopic reduces a question to the topic the worker should
// research, stripping the interrogative framing.
func ResearchTopic(question string) string {
	topic := research.CleanTopic(question)
	if topic == "" {
		topic = storage.NormalizeTopic(question)
	}
	return topic
}

func confidenceScore(label models.ConfidenceLabel) float64 {
	switch label {
	case models.ConfidenceHigh:
		return 0.9
	case models.ConfidenceMedium:
		return 0.6
	default:
		return 0.3
	}
}

// Explain renders a resolution for a conversational surface, adding a
// note when the topic was queued for overnight research.
func Explain(res Resolution) string {
	if !res.Queued {
		return res.Answer
	}
	return fmt.Sprintf("%s\n\nI've queued this topic for deeper research.", res.Answer)
}
