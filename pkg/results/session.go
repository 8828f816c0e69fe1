// Package results records host-side sessions from the event stream and
// exports them for analysis.
package results

import (
	"time"

	"github.com/itohio/reactiontest/pkg/protocol"
	"github.com/itohio/reactiontest/pkg/trial"
)

// timestampLayout is used in exported file names.
const timestampLayout = "20060102_150405"

// TrialRecord is one test record as reported by the board.
type TrialRecord struct {
	Trial        int
	Condition    trial.Category
	Result       trial.Outcome
	ReactionTime uint64 // microseconds
}

// EarlyRecord is a touch before the stimulus.
type EarlyRecord struct {
	Trial     int
	Condition trial.Category
}

// Session is everything recorded between a ready and an end record.
type Session struct {
	ID          string
	Participant string
	Started     time.Time
	TrialCount  int

	Trials  []TrialRecord
	Earlies []EarlyRecord

	// Summary is nil until the end record arrives.
	Summary *protocol.Summary
}

// Complete reports whether the board sent its summary.
func (s *Session) Complete() bool { return s.Summary != nil }

// BaseName is the file name prefix for exports: participant (or session ID)
// and start time.
func (s *Session) BaseName() string {
	prefix := s.Participant
	if prefix == "" {
		prefix = s.ID
	}
	return prefix + "_" + s.Started.Format(timestampLayout)
}

// ReactionTimes returns successful reaction times of category c in microseconds.
func (s *Session) ReactionTimes(c trial.Category) []uint64 {
	var out []uint64
	for _, t := range s.Trials {
		if t.Condition == c && t.Result == trial.Success {
			out = append(out, t.ReactionTime)
		}
	}
	return out
}

// Successes counts successful trials.
func (s *Session) Successes() int {
	n := 0
	for _, t := range s.Trials {
		if t.Result == trial.Success {
			n++
		}
	}
	return n
}

func (s *Session) clone() *Session {
	c := *s
	c.Trials = append([]TrialRecord(nil), s.Trials...)
	c.Earlies = append([]EarlyRecord(nil), s.Earlies...)
	if s.Summary != nil {
		sum := *s.Summary
		c.Summary = &sum
	}
	return &c
}
