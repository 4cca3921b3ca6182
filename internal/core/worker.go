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

// Calibration bounds for the per-line word cap derived from taught
// knowledge.
const (
	calibrationFloor   = 10
	calibrationCeiling = 20
	weakDraftMinChars  = 40
)

// templateLeftovers mark a draft whose synthesis template was not
// properly filled.
var templateLeftovers = []string{
	"{topic}",
	"<topic>",
	"[topic]",
	"%s",
	"TBD",
}

// IsWeakDraft reports whether the draft should be regenerated on the
// next research pass.
func IsWeakDraft(d models.Draft) bool {
	text := strings.TrimSpace(d.Detailed)
	if text == "" {
		text = strings.TrimSpace(d.Short)
	}
	if len(text) < weakDraftMinChars {
		return true
	}
	for _, marker := range templateLeftovers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// kindRules classify a topic into a draft kind, first match wins.
var kindRules = []struct {
	kind     models.DraftKind
	keywords []string
}{
	{models.KindComparison, []string{" vs ", " versus ", "difference between", "compare"}},
	{models.KindProtocol, []string{"protocol", "tcp", "udp", "http", "smtp", "imap", "ssh", "tls", "ssl", "dns", "dhcp", "ftp", "mqtt"}},
	{models.KindProcess, []string{"process", "authentication", "handshake", "boot", "login", "deployment", "compilation", "installation", "pipeline"}},
	{models.KindSoftware, []string{"linux", "windows", "macos", "operating system", " os", "software", "application", "kernel", "database", "compiler", "server", "framework", "library"}},
}

// ClassifyKind sniffs the topic for its explanation shape.
func ClassifyKind(topic string) models.DraftKind {
	padded := " " + strings.ToLower(topic) + " "
	for _, rule := range kindRules {
		for _, kw := range rule.keywords {
			if strings.Contains(padded, kw) {
				return rule.kind
			}
		}
	}
	return models.KindObject
}

// Worker drains the research queue and synthesizes drafts. It runs as a
// short-lived batch invocation driven by an external scheduler.
type Worker struct {
	Queue      storage.ResearchQueue
	Drafts     storage.DraftStore
	Knowledge  storage.KnowledgeStore
	Researcher research.Researcher
	Events     observability.EventLog

	minWords int
	maxWords int

	// loopPause spaces successive RunLoop batches so a long drain does
	// not monopolize the store locks.
	loopPause time.Duration
}

// NewWorker wires the research worker. minWords/maxWords bound the
// style calibration; zero values take the defaults.
func NewWorker(queue storage.ResearchQueue, drafts storage.DraftStore, knowledge storage.KnowledgeStore, researcher research.Researcher, events observability.EventLog, minWords, maxWords int) *Worker {
	if events == nil {
		events = observability.NopEventLog()
	}
	if minWords <= 0 {
		minWords = calibrationFloor
	}
	if maxWords < minWords {
		maxWords = calibrationCeiling
	}
	return &Worker{
		Queue:      queue,
		Drafts:     drafts,
		Knowledge:  knowledge,
		Researcher: researcher,
		Events:     events,
		minWords:   minWords,
		maxWords:   maxWords,
		loopPause:  50 * time.Millisecond,
	}
}

// Run processes up to batchLimit pending queue items and reports how
// many drafts it synthesized. Cancellation is honored between items;
// items already processed when the context fires are still persisted.
func (w *Worker) Run(ctx context.Context, batchLimit int) (int, error) {
	batch, err := w.Queue.PendingBatch(batchLimit)
	if err != nil {
		return 0, fmt.Errorf("research batch: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	lineCap := w.calibrateLineCap()

	var done, failed []string
	synthesized := make(map[string]models.Draft)
	for _, item := range batch {
		if err := ctx.Err(); err != nil {
			break
		}
		key := storage.NormalizeTopic(item.Topic)
		if key == "" {
			failed = append(failed, item.ID)
			continue
		}
		if existing, ok, err := w.Drafts.Get(key); err == nil && ok && !IsWeakDraft(*existing) {
			done = append(done, item.ID)
			continue
		}
		draft := w.synthesize(ctx, item.Topic, lineCap)
		synthesized[key] = draft
		done = append(done, item.ID)
		w.Events.Info(observability.EventDraft, "synthesized draft", map[string]any{
			"topic": key,
			"kind":  string(draft.Kind),
		})
	}

	if err := w.Drafts.PutBatch(synthesized); err != nil {
		return 0, fmt.Errorf("research batch: persisting drafts: %w", err)
	}
	if err := w.Queue.CompleteBatch(done, failed); err != nil {
		return len(synthesized), fmt.Errorf("research batch: completing queue: %w", err)
	}
	w.Events.Info(observability.EventBatch, "research batch complete", map[string]any{
		"processed":   len(done) + len(failed),
		"synthesized": len(synthesized),
	})
	return len(synthesized), nil
}

// RunLoop re-runs batches until the queue drains or the context fires.
// maxBatches caps runaway loops when enqueues outpace the worker.
func (w *Worker) RunLoop(ctx context.Context, batchLimit, maxBatches int) (int, error) {
	if maxBatches <= 0 {
		maxBatches = 100
	}
	total := 0
	for i := 0; i < maxBatches; i++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := w.Run(ctx, batchLimit)
		total += n
		if err != nil {
			return total, err
		}
		pending, err := w.Queue.PendingBatch(1)
		if err != nil || len(pending) == 0 {
			return total, err
		}
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case <-time.After(w.loopPause):
		}
	}
	return total, nil
}

// synthesize builds a draft for the topic: researched text when the
// collaborator delivers, per-kind templates otherwise.
func (w *Worker) synthesize(ctx context.Context, topic string, lineCap int) models.Draft {
	kind := ClassifyKind(topic)
	display := strings.TrimSpace(topic)

	provenance := "synthesized"
	detailed := ""
	if w.Researcher != nil {
		if text, err := w.Researcher.Answer(ctx, display); err == nil && strings.TrimSpace(text) != "" {
			detailed = strings.TrimSpace(text)
			provenance = "researched"
		}
	}
	short := shortTemplate(kind, display)
	if detailed == "" {
		detailed = detailedTemplate(kind, display)
	}

	return models.Draft{
		Topic:      display,
		Kind:       kind,
		Short:      capWords(short, lineCap),
		Detailed:   capLines(detailed, lineCap),
		Confidence: models.ConfidenceLow,
		CreatedAt:  time.Now().UTC(),
		Provenance: provenance,
	}
}

func shortTemplate(kind models.DraftKind, topic string) string {
	switch kind {
	case models.KindComparison:
		return fmt.Sprintf("%s is a comparison of related options that differ in design and typical use.", topic)
	case models.KindProtocol:
		return fmt.Sprintf("%s is a communication protocol defining how systems exchange structured messages.", topic)
	case models.KindProcess:
		return fmt.Sprintf("%s is a process, a sequence of steps carried out to reach a defined outcome.", topic)
	case models.KindSoftware:
		return fmt.Sprintf("%s is software, a program or system that runs on computing hardware.", topic)
	default:
		return fmt.Sprintf("%s is a thing with identifiable properties and typical uses.", topic)
	}
}

func detailedTemplate(kind models.DraftKind, topic string) string {
	switch kind {
	case models.KindComparison:
		return fmt.Sprintf(
			"%s contrasts alternatives that solve a similar problem in different ways.\n"+
				"Each side has trade-offs in complexity, performance, and fit for a given workload.\n"+
				"Choosing between them depends on the constraints of the system at hand.", topic)
	case models.KindProtocol:
		return fmt.Sprintf(
			"%s defines the rules two endpoints follow to exchange data reliably.\n"+
				"It specifies message formats, ordering, and how errors are detected and handled.\n"+
				"Implementations interoperate so long as both sides honor the specification.", topic)
	case models.KindProcess:
		return fmt.Sprintf(
			"%s is a sequence of steps with a defined start, checkpoints, and outcome.\n"+
				"Each step consumes the previous step's result and can fail independently.\n"+
				"Understanding it means knowing the order of steps and what each one guarantees.", topic)
	case models.KindSoftware:
		return fmt.Sprintf(
			"%s is a software system built to perform a specific class of tasks.\n"+
				"It exposes an interface to users or other programs and manages its own state.\n"+
				"Its behavior is configured rather than rebuilt, and versions evolve over time.", topic)
	default:
		return fmt.Sprintf(
			"%s is best understood by its properties and how they are used in practice.\n"+
				"It has distinguishing characteristics that separate it from similar things.\n"+
				"Knowing when and why it is used matters more than memorizing its definition.", topic)
	}
}

// calibrateLineCap averages sentence length across stored knowledge
// answers and clamps the result, so synthesized prose matches the style
// of what the user taught.
func (w *Worker) calibrateLineCap() int {
	entries, err := w.Knowledge.All()
	if err != nil || len(entries) == 0 {
		return w.maxWords
	}
	sentences, words := 0, 0
	for _, entry := range entries {
		for _, sentence := range splitSentences(entry.Answer) {
			n := len(strings.Fields(sentence))
			if n == 0 {
				continue
			}
			sentences++
			words += n
		}
	}
	if sentences == 0 {
		return w.maxWords
	}
	avg := words / sentences
	if avg < w.minWords {
		return w.minWords
	}
	if avg > w.maxWords {
		return w.maxWords
	}
	return avg
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
}

// capLines trims every line of text to at most maxWords words.
func capLines(text string, maxWords int) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = capWords(line, maxWords)
	}
	return strings.Join(lines, "\n")
}

func capWords(line string, maxWords int) string {
	if maxWords <= 0 {
		return line
	}
	fields := strings.Fields(line)
	if len(fields) <= maxWords {
		return line
	}
	return strings.Join(fields[:maxWords], " ")
}
