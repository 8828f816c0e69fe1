// Package cues plays sounds to the participant as the session progresses:
// a countdown on start, a buzz on early or wrong touches, a chime on success
// and a fanfare with the final result.
package cues

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/itohio/reactiontest/pkg/config"
	"github.com/itohio/reactiontest/pkg/protocol"
	"github.com/itohio/reactiontest/pkg/trial"
)

// Cue is one sound.
type Cue uint8

const (
	None Cue = iota
	Countdown
	Wrong
	Success
	FinalResult
)

var cueNames = [...]string{
	None:        "none",
	Countdown:   "countdown",
	Wrong:       "wrong",
	Success:     "success",
	FinalResult: "final_result",
}

// All lists every playable cue.
var All = []Cue{Countdown, Wrong, Success, FinalResult}

func (c Cue) String() string {
	if int(c) < len(cueNames) {
		return cueNames[c]
	}
	return fmt.Sprintf("cue(%d)", uint8(c))
}

// File is the sound file name of c inside the cue directory.
func (c Cue) File() string { return c.String() + ".wav" }

// ForEvent returns the cue announcing ev, or None.
func ForEvent(ev protocol.Event) Cue {
	switch ev.Kind {
	case protocol.Start:
		return Countdown
	case protocol.Early:
		return Wrong
	case protocol.Test:
		if ev.Outcome == trial.Success {
			return Success
		}
		return Wrong
	case protocol.End:
		return FinalResult
	}
	return None
}

// Player plays a cue without blocking for its duration.
type Player interface {
	Play(c Cue) error
}

// Bell rings the terminal bell, a number of times per cue.
type Bell struct {
	W io.Writer
}

var bellCount = [...]int{
	Countdown:   3,
	Wrong:       2,
	Success:     1,
	FinalResult: 4,
}

// Play implements Player.
func (b Bell) Play(c Cue) error {
	if c == None || int(c) >= len(bellCount) {
		return nil
	}
	_, err := io.WriteString(b.W, strings.Repeat("\a", bellCount[c]))
	return err
}

// openSpeaker loads sound files from a directory. It is nil unless the
// binary is built with the audio tag.
var openSpeaker func(dir string) (Player, error)

// Open returns the sound file player for cfg.Dir when audio support is
// built in and the files load, otherwise a Bell on fallback.
func Open(cfg config.CuesConfig, fallback io.Writer) Player {
	if openSpeaker != nil {
		p, err := openSpeaker(cfg.Dir)
		if err == nil {
			return p
		}
		log.Printf("Sound cues unavailable, using terminal bell: %v", err)
	}
	return Bell{W: fallback}
}

// Notify plays the cue of ev, if any, on p.
func Notify(p Player, ev protocol.Event) error {
	c := ForEvent(ev)
	if c == None {
		return nil
	}
	if err := p.Play(c); err != nil {
		return fmt.Errorf("failed to play %s: %w", c, err)
	}
	return nil
}
