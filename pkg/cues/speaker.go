//go:build audio

package cues

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

func init() {
	openSpeaker = newSpeaker
}

// Speaker plays preloaded WAV files on the default audio device.
type Speaker struct {
	buffers map[Cue]*beep.Buffer
}

func newSpeaker(dir string) (Player, error) {
	sp := &Speaker{buffers: make(map[Cue]*beep.Buffer, len(All))}

	var rate beep.SampleRate
	for _, c := range All {
		buf, format, err := load(filepath.Join(dir, c.File()), rate)
		if err != nil {
			return nil, err
		}
		if rate == 0 {
			rate = format.SampleRate
		}
		sp.buffers[c] = buf
	}

	if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	return sp, nil
}

// load decodes path into memory, resampled to rate unless rate is zero.
func load(path string, rate beep.SampleRate) (*beep.Buffer, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open %s: %w", path, err)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	defer streamer.Close()

	if rate == 0 {
		rate = format.SampleRate
	}
	buf := beep.NewBuffer(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2})
	if format.SampleRate != rate {
		buf.Append(beep.Resample(4, format.SampleRate, rate, streamer))
	} else {
		buf.Append(streamer)
	}
	format.SampleRate = rate
	return buf, format, nil
}

// Play implements Player.
func (s *Speaker) Play(c Cue) error {
	buf, ok := s.buffers[c]
	if !ok {
		return nil
	}
	speaker.Play(buf.Streamer(0, buf.Len()))
	return nil
}
