// Package storage implements the persisted stores of the knowledge
// pipeline: knowledge entries, the research queue, synthesized drafts,
// and per-channel conversation turns. Every store is a stateless handle
// over YAML files in a data directory; each operation is a full
// read-modify-write guarded by an advisory file lock and finished with
// an atomic replace.
package storage

import "strings"

// StripLeadingMarkers removes leading '>' quote markers and the spaces
// after them, so CLI-style inputs like "> scan that" normalize the same
// as "scan that".
func StripLeadingMarkers(text string) string {
	t := strings.TrimSpace(text)
	for strings.HasPrefix(t, ">") {
		t = strings.TrimLeft(t[1:], " \t")
	}
	return t
}

// NormalizeTopic produces the canonical store key for a topic or
// question: leading quote markers removed, lowercased, internal
// whitespace collapsed, trailing punctuation stripped.
func NormalizeTopic(text string) string {
	t := StripLeadingMarkers(text)
	t = strings.ToLower(t)
	t = strings.Join(strings.Fields(t), " ")
	t = strings.TrimRight(t, " .!?")
	return t
}
