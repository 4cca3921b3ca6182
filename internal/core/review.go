package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"machinespirit/internal/observability"
	"machinespirit/internal/storage"
	"machinespirit/pkg/models"
)

// MatchOutcome says how many drafts a review query matched.
type MatchOutcome int

const (
	MatchNone MatchOutcome = iota
	MatchSingle
	MatchMultiple
)

// DraftMatch is the result of searching the draft store for a question.
type DraftMatch struct {
	Outcome    MatchOutcome
	Draft      *models.Draft
	Key        string
	Candidates []string // display topics, set on MatchMultiple
}

// Reviewer finds drafts for questions and promotes approved ones into
// permanent knowledge.
type Reviewer struct {
	Drafts    storage.DraftStore
	Knowledge storage.KnowledgeStore
	Events    observability.EventLog
}

// NewReviewer creates the draft review subsystem.
func NewReviewer(drafts storage.DraftStore, knowledge storage.KnowledgeStore, events observability.EventLog) *Reviewer {
	if events == nil {
		events = observability.NopEventLog()
	}
	return &Reviewer{Drafts: drafts, Knowledge: knowledge, Events: events}
}

var (
	interrogativeRe = regexp.MustCompile(`^(what\s+is|what's|whats|who\s+is|define|explain|tell\s+me\s+about)\s+`)
	articleRe       = regexp.MustCompile(`^(a|an|the)\s+`)
)

var comparisonCues = []string{" vs ", " versus ", "difference", "compare"}

func looksLikeComparison(question string) bool {
	padded := " " + strings.ToLower(question) + " "
	for _, cue := range comparisonCues {
		if strings.Contains(padded, cue) {
			return true
		}
	}
	return false
}

// candidateKeys derives lookup keys from a question, most to least
// specific: full normalized form, interrogative stripped, article
// stripped, bare final noun.
func candidateKeys(question string) []string {
	var keys []string
	seen := make(map[string]struct{})
	add := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	norm := storage.NormalizeTopic(question)
	add(norm)
	stripped := interrogativeRe.ReplaceAllString(norm, "")
	add(stripped)
	bare := articleRe.ReplaceAllString(stripped, "")
	add(bare)
	if fields := strings.Fields(bare); len(fields) > 0 {
		add(fields[len(fields)-1])
	}
	return keys
}

// FindBestDraft resolves a question to zero, one, or several drafts.
// Exact candidate keys are tried first; comparison drafts only match
// comparison-shaped questions. Failing exact keys, the bare noun is
// substring-matched against every draft topic.
func (r *Reviewer) FindBestDraft(question string) (DraftMatch, error) {
	all, err := r.Drafts.All()
	if err != nil {
		return DraftMatch{}, fmt.Errorf("reviewing drafts: %w", err)
	}
	comparisonOK := looksLikeComparison(question)
	eligible := func(d models.Draft) bool {
		return d.Kind != models.KindComparison || comparisonOK
	}

	keys := candidateKeys(question)
	for _, key := range keys {
		if d, ok := all[key]; ok && eligible(d) {
			draft := d
			return DraftMatch{Outcome: MatchSingle, Draft: &draft, Key: key}, nil
		}
	}

	if len(keys) == 0 {
		return DraftMatch{Outcome: MatchNone}, nil
	}
	noun := keys[len(keys)-1]
	var matchKeys []string
	for key, d := range all {
		if !eligible(d) {
			continue
		}
		if strings.Contains(strings.ToLower(d.Topic), noun) || strings.Contains(key, noun) {
			matchKeys = append(matchKeys, key)
		}
	}
	sort.Strings(matchKeys)

	switch len(matchKeys) {
	case 0:
		return DraftMatch{Outcome: MatchNone}, nil
	case 1:
		draft := all[matchKeys[0]]
		return DraftMatch{Outcome: MatchSingle, Draft: &draft, Key: matchKeys[0]}, nil
	default:
		topics := make([]string, len(matchKeys))
		for i, key := range matchKeys {
			topics[i] = all[key].Topic
		}
		return DraftMatch{Outcome: MatchMultiple, Candidates: topics}, nil
	}
}

// RenderDraft picks the text to surface for a matched draft: detailed
// when it carries real content, short otherwise.
func RenderDraft(d models.Draft) string {
	detailed := strings.TrimSpace(d.Detailed)
	if len(detailed) >= weakDraftMinChars {
		return detailed
	}
	return strings.TrimSpace(d.Short)
}

// Promote copies a draft's detailed text into the knowledge store and
// removes the draft. Weak drafts are refused: regenerate them with a
// research pass before approval. The promoted entry is not marked
// taught; a later user correction still overrides it.
func (r *Reviewer) Promote(topic string) (*models.KnowledgeEntry, error) {
	key := storage.NormalizeTopic(topic)
	draft, ok, err := r.Drafts.Get(key)
	if err != nil {
		return nil, fmt.Errorf("promoting draft: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("promoting draft: no draft for %q", topic)
	}
	if IsWeakDraft(*draft) {
		return nil, fmt.Errorf("promoting draft: draft for %q is weak, run research again first", topic)
	}
	entry := models.KnowledgeEntry{
		Topic:      key,
		Answer:     strings.TrimSpace(draft.Detailed),
		Confidence: 0.7,
		Source:     "promoted_draft",
		UpdatedAt:  time.Now().UTC(),
		Citations:  nil,
	}
	if err := r.Knowledge.Put(key, entry); err != nil {
		return nil, fmt.Errorf("promoting draft: %w", err)
	}
	if _, err := r.Drafts.Delete(key); err != nil {
		return nil, fmt.Errorf("promoting draft: removing draft: %w", err)
	}
	r.Events.Info(observability.EventPromoted, "promoted draft to knowledge", map[string]any{"topic": key})
	return &entry, nil
}

// ForceRelearn resets the research lifecycle for a topic: the queue item
// returns to pending with counters cleared, any draft is dropped, and
// with wipe set the knowledge entry is deleted so the next pass starts
// from nothing.
func ForceRelearn(queue storage.ResearchQueue, drafts storage.DraftStore, knowledge storage.KnowledgeStore, events observability.EventLog, topic string, wipe bool) error {
	if events == nil {
		events = observability.NopEventLog()
	}
	if err := queue.ForceRequeue(topic, "force_relearn"); err != nil {
		return fmt.Errorf("force relearn: %w", err)
	}
	if _, err := drafts.Delete(topic); err != nil {
		return fmt.Errorf("force relearn: dropping draft: %w", err)
	}
	if wipe {
		if _, err := knowledge.Delete(topic); err != nil {
			return fmt.Errorf("force relearn: wiping knowledge: %w", err)
		}
	}
	events.Info(observability.EventRequeued, "force requeued topic", map[string]any{
		"topic": storage.NormalizeTopic(topic),
		"wipe":  wipe,
	})
	return nil
}
