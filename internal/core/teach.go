package core

import (
	"strings"
	"time"

	"machinespirit/internal/observability"
	"machinespirit/internal/storage"
	"machinespirit/pkg/models"
)

// Teacher owns explicit teaching and follow-up corrections. Teaching is
// the one path that overwrites an existing knowledge entry outright.
type Teacher struct {
	Knowledge storage.KnowledgeStore
	Events    observability.EventLog
}

// NewTeacher creates the teachability subsystem.
func NewTeacher(knowledge storage.KnowledgeStore, events observability.EventLog) *Teacher {
	if events == nil {
		events = observability.NopEventLog()
	}
	return &Teacher{Knowledge: knowledge, Events: events}
}

// Teach stores a user-supplied answer for the topic. Confidence only
// goes up: a re-teach never lowers what an earlier teach established.
func (t *Teacher) Teach(topic, answer string) (models.KnowledgeEntry, error) {
	key := storage.NormalizeTopic(topic)
	confidence := models.TaughtConfidence
	if existing, ok, err := t.Knowledge.Get(key); err != nil {
		return models.KnowledgeEntry{}, err
	} else if ok && existing.Confidence > confidence {
		confidence = existing.Confidence
	}
	entry := models.KnowledgeEntry{
		Topic:        key,
		Answer:       strings.TrimSpace(answer),
		Confidence:   confidence,
		Source:       "taught",
		TaughtByUser: true,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := t.Knowledge.Put(key, entry); err != nil {
		return models.KnowledgeEntry{}, err
	}
	t.Events.Info(observability.EventTaught, "stored taught answer", map[string]any{"topic": key})
	return entry, nil
}

// Lookup fetches the taught entry for a question, resolving aliases.
func (t *Teacher) Lookup(question string) (*models.KnowledgeEntry, bool, error) {
	key := storage.NormalizeTopic(question)
	if resolved, err := t.Knowledge.ResolveAlias(key); err == nil && resolved != "" {
		key = resolved
	}
	return t.Knowledge.Get(key)
}

// Leading phrases that mark a message as a correction of the previous
// answer. Checked longest-first so "no, that's wrong" is not swallowed
// by the bare "no," rule leaving a mangled remainder.
var correctionPrefixes = []string{
	"no, that's wrong",
	"no, that is wrong",
	"that's wrong",
	"that is wrong",
	"you are wrong",
	"you're wrong",
	"correction:",
	"actually,",
	"nope,",
	"wrong,",
	"no,",
}

// Markers that introduce the corrected text mid-sentence.
var correctionMarkers = []string{
	"the correct answer is",
	"the right answer is",
	"it should be",
	"you missed",
}

// Prefixes whose opening clause is commentary, not content: after
// stripping them, everything up to the first sentence terminator is
// dropped too.
var dropFirstSentence = map[string]bool{
	"no, that's wrong":  true,
	"no, that is wrong": true,
	"that's wrong":      true,
	"that is wrong":     true,
	"you are wrong":     true,
	"you're wrong":      true,
}

// extractCorrection reports the corrected explanation carried by the
// message, or false if the message is not a correction.
func extractCorrection(message string) (string, bool) {
	text := strings.TrimSpace(storage.StripLeadingMarkers(message))
	lower := strings.ToLower(text)

	for _, prefix := range correctionPrefixes {
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		rest := strings.TrimSpace(text[len(prefix):])
		if dropFirstSentence[prefix] {
			if i := strings.IndexAny(rest, ".!?"); i >= 0 {
				rest = strings.TrimSpace(rest[i+1:])
			}
		}
		if rest == "" {
			return "", false
		}
		return rest, true
	}
	for _, marker := range correctionMarkers {
		if i := strings.Index(lower, marker); i >= 0 {
			rest := strings.TrimSpace(text[i+len(marker):])
			rest = strings.TrimLeft(rest, ":, ")
			if rest == "" {
				return "", false
			}
			return rest, true
		}
	}
	return "", false
}

// RecordCorrection overwrites the knowledge entry for the previous
// question when the new message corrects it. Missing prior turn or an
// empty extraction makes it a no-op; it never errors the store into a
// bad state.
func (t *Teacher) RecordCorrection(prevQuestion, prevAnswer, message string) (models.KnowledgeEntry, bool, error) {
	if strings.TrimSpace(prevQuestion) == "" || strings.TrimSpace(prevAnswer) == "" {
		return models.KnowledgeEntry{}, false, nil
	}
	explanation, ok := extractCorrection(message)
	if !ok {
		return models.KnowledgeEntry{}, false, nil
	}
	key := storage.NormalizeTopic(prevQuestion)
	entry := models.KnowledgeEntry{
		Topic:        key,
		Answer:       capitalizeSentence(explanation),
		Confidence:   models.TaughtConfidence,
		Source:       "correction",
		TaughtByUser: true,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := t.Knowledge.Put(key, entry); err != nil {
		return models.KnowledgeEntry{}, false, err
	}
	t.Events.Info(observability.EventCorrection, "applied user correction", map[string]any{"topic": key})
	return entry, true, nil
}

func capitalizeSentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
