package results

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itohio/reactiontest/pkg/protocol"
)

// Recorder assembles sessions from an event stream and notifies listeners.
type Recorder struct {
	participant string
	now         func() time.Time

	mu      sync.RWMutex
	current *Session

	cbMu       sync.RWMutex
	onEvent    []func(ev protocol.Event, s *Session)
	onComplete []func(s *Session)
}

// NewRecorder creates a Recorder. participant may be empty, in which case
// sessions are named by their ID.
func NewRecorder(participant string) *Recorder {
	return &Recorder{
		participant: participant,
		now:         time.Now,
	}
}

// OnEvent registers a callback invoked after every event with a copy of the
// session it belongs to.
func (r *Recorder) OnEvent(cb func(ev protocol.Event, s *Session)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.onEvent = append(r.onEvent, cb)
}

// OnComplete registers a callback invoked when a session ends.
func (r *Recorder) OnComplete(cb func(s *Session)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.onComplete = append(r.onComplete, cb)
}

// ProcessEvents handles events until input is closed.
func (r *Recorder) ProcessEvents(input <-chan protocol.Event) {
	for ev := range input {
		r.Handle(ev)
	}
}

// Current returns a copy of the session in progress, or nil.
func (r *Recorder) Current() *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	return r.current.clone()
}

// Handle applies one event. A ready record starts a new session and abandons
// any unfinished one; records arriving without a ready (monitor attached
// mid-session) start a session implicitly.
func (r *Recorder) Handle(ev protocol.Event) {
	r.mu.Lock()
	if ev.Kind == protocol.Ready || r.current == nil {
		r.current = r.newSession()
	}
	s := r.current

	var finished *Session
	switch ev.Kind {
	case protocol.Ready:
		s.TrialCount = ev.TrialCount
	case protocol.Early:
		s.Earlies = append(s.Earlies, EarlyRecord{Trial: ev.Trial, Condition: ev.Category})
	case protocol.Test:
		s.Trials = append(s.Trials, TrialRecord{
			Trial:        ev.Trial,
			Condition:    ev.Category,
			Result:       ev.Outcome,
			ReactionTime: ev.ReactionTime,
		})
	case protocol.End:
		sum := ev.Summary
		s.Summary = &sum
		finished = s.clone()
		r.current = nil
	}
	snapshot := s.clone()
	r.mu.Unlock()

	r.cbMu.RLock()
	onEvent := append(([]func(protocol.Event, *Session))(nil), r.onEvent...)
	onComplete := append(([]func(*Session))(nil), r.onComplete...)
	r.cbMu.RUnlock()

	for _, cb := range onEvent {
		cb(ev, snapshot)
	}
	if finished != nil {
		for _, cb := range onComplete {
			cb(finished)
		}
	}
}

func (r *Recorder) newSession() *Session {
	return &Session{
		ID:          uuid.NewString(),
		Participant: r.participant,
		Started:     r.now(),
	}
}
