// Package conversation manages the append-only log of turns exchanged
// between the guide and the user.
package conversation

import (
	"slices"
	"time"

	"github.com/aretw0/onboard/pkg/domain"
)

// Log appends turns to a backing slice. It never edits or removes existing
// entries.
type Log struct {
	turns *[]domain.Turn
	newID func() string
	now   func() time.Time
}

// New wraps turns so new entries are appended to it.
func New(turns *[]domain.Turn, newID func() string, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{turns: turns, newID: newID, now: now}
}

// AppendSystem adds a guide turn. Turns with choices are choice prompts.
func (l *Log) AppendSystem(stage domain.StageID, body string, choices ...domain.Choice) domain.Turn {
	kind := domain.TurnText
	if len(choices) > 0 {
		kind = domain.TurnChoicePrompt
	}
	return l.append(domain.Turn{
		Speaker: domain.SpeakerSystem,
		Body:    body,
		Kind:    kind,
		Choices: slices.Clone(choices),
		Stage:   stage,
	})
}

// AppendUser adds a user turn.
func (l *Log) AppendUser(stage domain.StageID, body string, kind domain.TurnKind) domain.Turn {
	return l.append(domain.Turn{
		Speaker: domain.SpeakerUser,
		Body:    body,
		Kind:    kind,
		Stage:   stage,
	})
}

func (l *Log) append(t domain.Turn) domain.Turn {
	t.ID = l.newID()
	t.Timestamp = l.now()
	*l.turns = append(*l.turns, t)
	return t
}

// Since returns a copy of the turns appended after the first n.
func (l *Log) Since(n int) []domain.Turn {
	return After(*l.turns, n)
}

// After returns a copy of turns[n:], or nil when n is out of range.
func After(turns []domain.Turn, n int) []domain.Turn {
	if n < 0 {
		n = 0
	}
	if n >= len(turns) {
		return nil
	}
	return slices.Clone(turns[n:])
}
