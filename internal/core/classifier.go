package core

import (
	"strings"

	"machinespirit/pkg/models"
)

// Marker strings the router emits when it has nothing better to say.
// The classifiers key off these verbatim.
const (
	markerNoTaught = "i do not have a taught answer for that yet"
	markerEngine   = "error while calling local answer engine"
)

// Classification is the insight verdict for one question/answer exchange.
type Classification struct {
	Confidence    models.ConfidenceLabel
	NeedsTeaching bool
	NeedsResearch bool
}

// Classify grades an exchange. Rules apply in order, first match wins.
func Classify(question, answer string, usedTeaching bool) Classification {
	lower := strings.ToLower(answer)
	switch {
	case usedTeaching:
		return Classification{Confidence: models.ConfidenceHigh}
	case strings.Contains(lower, markerNoTaught):
		return Classification{
			Confidence:    models.ConfidenceNeedsTeaching,
			NeedsTeaching: true,
			NeedsResearch: true,
		}
	case strings.Contains(lower, markerEngine):
		return Classification{
			Confidence:    models.ConfidenceError,
			NeedsResearch: true,
		}
	default:
		return Classification{Confidence: models.ConfidenceMedium}
	}
}

// weakAnswerMarkers flag answers that sound like the assistant dodged
// the question. Each carries a tag that becomes part of the queue
// reason, so the rules stay independently testable.
var weakAnswerMarkers = []struct {
	tag    string
	phrase string
}{
	{"no_taught_answer", markerNoTaught},
	{"engine_error", markerEngine},
	{"interpret_dodge", "i interpret"},
	{"not_learned", "not fully learned"},
	{"cannot_reach", "could not reach my research sources"},
	{"dont_know", "i don't know"},
	{"dont_know", "i do not know"},
	{"no_info", "i don't have information"},
	{"no_info", "i do not have information"},
	{"unsure", "i'm not sure"},
	{"unsure", "i am not sure"},
}

// researchCues are question shapes that deserve a queue entry even when
// the answer looked fine.
var researchCues = []struct {
	tag    string
	phrase string
}{
	{"definitional", "what is "},
	{"definitional", "what's "},
	{"definitional", "define "},
	{"definitional", "explain "},
	{"request", "teach me"},
	{"person", "who is "},
	{"mechanism", "how does "},
	{"mechanism", "how do "},
	{"cause", "why does "},
	{"cause", "why do "},
	{"comparison", "difference between"},
	{"comparison", " vs "},
	{"comparison", " versus "},
}

// NeedsResearch is the recall-biased second classifier: should this
// exchange queue the topic for offline research, independent of the
// confidence verdict? The returned reason tags which rule fired.
func NeedsResearch(question, answer string) (string, bool) {
	lowerA := strings.ToLower(answer)
	for _, m := range weakAnswerMarkers {
		if strings.Contains(lowerA, m.phrase) {
			return "weak_answer:" + m.tag, true
		}
	}
	lowerQ := " " + strings.ToLower(strings.TrimSpace(question)) + " "
	for _, c := range researchCues {
		if strings.Contains(lowerQ, c.phrase) {
			return "cue:" + c.tag, true
		}
	}
	return "", false
}
