package models

import "time"

// ConversationTurn is one question/answer exchange on a channel. Turns
// only feed router context; they are never promoted into knowledge.
type ConversationTurn struct {
	Question string    `yaml:"question"`
	Answer   string    `yaml:"answer"`
	At       time.Time `yaml:"at"`
}

// TurnFile is the top-level structure of turns.yaml: a bounded FIFO of
// turns per channel. Channels are kept strictly separate.
type TurnFile struct {
	Version  string                        `yaml:"version"`
	Channels map[string][]ConversationTurn `yaml:"channels"`
}
