// Package protocol defines the line records the experiment reports and their
// comma-separated wire form.
//
//	ready,<trial_count>
//	start
//	early,<trial>,<category>
//	test,<trial>,<category>,<success|wrong>,<reaction_us>
//	reset
//	end,<normal_avg>,<disgust_avg>,<total_avg>,<normal_early>,<disgust_early>,<normal_wrong>,<disgust_wrong>
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/reactiontest/pkg/trial"
)

// Kind identifies a record.
type Kind uint8

const (
	Ready Kind = iota
	Start
	Early
	Test
	Reset
	End
)

var kindNames = [...]string{
	Ready: "ready",
	Start: "start",
	Early: "early",
	Test:  "test",
	Reset: "reset",
	End:   "end",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

var (
	ErrEmptyLine   = errors.New("empty line")
	ErrUnknownKind = errors.New("unknown record kind")
	ErrFieldCount  = errors.New("wrong number of fields")
)

// Summary is the final result of a session. Times are microseconds.
type Summary struct {
	NormalAverage  uint64
	DisgustAverage uint64
	TotalAverage   uint64
	NormalEarly    int
	DisgustEarly   int
	NormalWrong    int
	DisgustWrong   int
}

// Event is one record. Only the fields of its Kind are meaningful.
type Event struct {
	Kind Kind

	TrialCount int // Ready

	Trial        int // Early, Test; 1-based
	Category     trial.Category
	Outcome      trial.Outcome // Test
	ReactionTime uint64        // Test, microseconds

	Summary Summary // End
}

// Format renders e as one line without the trailing newline.
func Format(e Event) string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	switch e.Kind {
	case Ready:
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(e.TrialCount))
	case Early:
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(e.Trial))
		b.WriteByte(',')
		b.WriteString(e.Category.String())
	case Test:
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(e.Trial))
		b.WriteByte(',')
		b.WriteString(e.Category.String())
		b.WriteByte(',')
		b.WriteString(e.Outcome.String())
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(e.ReactionTime, 10))
	case End:
		s := e.Summary
		for _, v := range []uint64{s.NormalAverage, s.DisgustAverage, s.TotalAverage} {
			b.WriteByte(',')
			b.WriteString(strconv.FormatUint(v, 10))
		}
		for _, v := range []int{s.NormalEarly, s.DisgustEarly, s.NormalWrong, s.DisgustWrong} {
			b.WriteByte(',')
			b.WriteString(strconv.Itoa(v))
		}
	}
	return b.String()
}

// Parse parses one line produced by Format. A bare "early" line, as older
// firmware sends it, is accepted with zero trial fields.
func Parse(line string) (Event, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Event{}, ErrEmptyLine
	}
	parts := strings.Split(line, ",")

	switch parts[0] {
	case "ready":
		if len(parts) != 2 {
			return Event{}, fieldCount(parts, 2)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return Event{}, fmt.Errorf("invalid trial count: %w", err)
		}
		return Event{Kind: Ready, TrialCount: n}, nil

	case "start":
		return Event{Kind: Start}, nil

	case "reset":
		return Event{Kind: Reset}, nil

	case "early":
		if len(parts) == 1 {
			return Event{Kind: Early}, nil
		}
		if len(parts) != 3 {
			return Event{}, fieldCount(parts, 3)
		}
		n, c, err := parseTrial(parts[1], parts[2])
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: Early, Trial: n, Category: c}, nil

	case "test":
		if len(parts) != 5 {
			return Event{}, fieldCount(parts, 5)
		}
		n, c, err := parseTrial(parts[1], parts[2])
		if err != nil {
			return Event{}, err
		}
		o, err := trial.ParseOutcome(parts[3])
		if err != nil {
			return Event{}, err
		}
		rt, err := strconv.ParseUint(parts[4], 10, 64)
		if err != nil {
			return Event{}, fmt.Errorf("invalid reaction time: %w", err)
		}
		return Event{Kind: Test, Trial: n, Category: c, Outcome: o, ReactionTime: rt}, nil

	case "end":
		if len(parts) != 8 {
			return Event{}, fieldCount(parts, 8)
		}
		var avg [3]uint64
		for i := range avg {
			v, err := strconv.ParseUint(parts[1+i], 10, 64)
			if err != nil {
				return Event{}, fmt.Errorf("invalid average %d: %w", i, err)
			}
			avg[i] = v
		}
		var cnt [4]int
		for i := range cnt {
			v, err := strconv.Atoi(parts[4+i])
			if err != nil {
				return Event{}, fmt.Errorf("invalid counter %d: %w", i, err)
			}
			cnt[i] = v
		}
		return Event{Kind: End, Summary: Summary{
			NormalAverage:  avg[0],
			DisgustAverage: avg[1],
			TotalAverage:   avg[2],
			NormalEarly:    cnt[0],
			DisgustEarly:   cnt[1],
			NormalWrong:    cnt[2],
			DisgustWrong:   cnt[3],
		}}, nil
	}

	return Event{}, fmt.Errorf("%w: %q", ErrUnknownKind, parts[0])
}

func parseTrial(num, cat string) (int, trial.Category, error) {
	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid trial number: %w", err)
	}
	c, err := trial.ParseCategory(cat)
	if err != nil {
		return 0, 0, err
	}
	return n, c, nil
}

func fieldCount(parts []string, want int) error {
	return fmt.Errorf("%w: %s expects %d, got %d", ErrFieldCount, parts[0], want, len(parts))
}
