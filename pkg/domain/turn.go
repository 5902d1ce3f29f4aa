package domain

import "time"

// Speaker is the author of a conversation turn.
type Speaker string

const (
	SpeakerSystem Speaker = "system"
	SpeakerUser   Speaker = "user"
)

// TurnKind describes how a turn should be presented.
type TurnKind string

const (
	TurnText         TurnKind = "text"
	TurnFile         TurnKind = "file"
	TurnChoicePrompt TurnKind = "choice-prompt"
)

// Choice is a discrete option offered alongside a system turn.
type Choice struct {
	Label string `json:"label" yaml:"label"`
	Token string `json:"token" yaml:"token"`
}

// Turn is one entry of the conversation log. Turns are never edited once
// appended; corrections are new turns.
type Turn struct {
	ID        string    `json:"id"`
	Speaker   Speaker   `json:"speaker"`
	Body      string    `json:"body"`
	Kind      TurnKind  `json:"kind"`
	Choices   []Choice  `json:"choices,omitempty"`
	Stage     StageID   `json:"stage,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Tokens returns the action tokens offered by the turn, in display order.
func (t Turn) Tokens() []string {
	tokens := make([]string, len(t.Choices))
	for i, c := range t.Choices {
		tokens[i] = c.Token
	}
	return tokens
}
