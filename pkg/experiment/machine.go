// Package experiment runs a reaction-time session: it waits a random
// interval, lights a stimulus, times the response and classifies it, until
// every trial of a counterbalanced sequence has a correct response.
//
// The Machine is driven by repeated calls to Tick from a single polling loop.
// Nothing inside it blocks except the arming and settle delays, which go
// through Host.Sleep.
package experiment

import (
	"fmt"

	"github.com/itohio/reactiontest/pkg/protocol"
	"github.com/itohio/reactiontest/pkg/touch"
	"github.com/itohio/reactiontest/pkg/trial"
)

// State of the session.
type State uint8

const (
	NotStarted State = iota
	Waiting
	Testing
	Finished
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Waiting:
		return "waiting"
	case Testing:
		return "testing"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Session is the mutable state of one run.
type Session struct {
	TrialIndex    int    // advances on every correct response
	WaitStart     uint64 // ms
	ReactionStart uint64 // µs
	NextInterval  int    // seconds
	Target        trial.Trial
	Lit           []int
}

// Classify decides a response given the touch vector and the target sensors.
// Any touched target is a success, whatever else is touched.
func Classify(touched touch.Touches, targets []int) trial.Outcome {
	for _, t := range targets {
		if t >= 0 && t < len(touched) && touched[t] {
			return trial.Success
		}
	}
	return trial.Wrong
}

// Machine is the reaction-time state machine.
type Machine struct {
	params  Params
	host    Host
	rng     trial.Rand
	report  *protocol.Reporter
	sampler *touch.Sampler
	seq     *trial.Sequence
	stats   *Stats

	state   State
	session Session
}

// New validates p, calibrates the sensors from their current idle readings,
// generates a shuffled trial sequence and reports ready.
func New(p Params, host Host, rng trial.Rand, out protocol.LineWriter) (*Machine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	seq, err := trial.Generate(p.TrialCount, p.Targeting, p.Layout, rng)
	if err != nil {
		return nil, err
	}
	return NewWithSequence(p, host, seq, rng, out)
}

// NewWithSequence is New with a caller-supplied trial order.
func NewWithSequence(p Params, host Host, seq *trial.Sequence, rng trial.Rand, out protocol.LineWriter) (*Machine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := seq.Validate(p.TrialCount, p.Targeting, p.Layout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSequence, err)
	}

	m := &Machine{
		params: p,
		host:   host,
		rng:    rng,
		report: protocol.NewReporter(out),
		seq:    seq,
		stats:  NewStats(p.TrialCount),
	}

	// All indicators lit is the "touch to begin" cue.
	m.setAll(p.ArmOnTouch)
	host.SetConfirmation(false)

	m.sampler = touch.NewSampler(host, touch.CalibrateFrom(host, p.Sensors(), p.ThresholdFraction))

	m.report.Emit(protocol.Event{Kind: protocol.Ready, TrialCount: p.TrialCount})

	if p.ArmOnTouch {
		m.state = NotStarted
	} else {
		m.startWait()
	}
	return m, nil
}

// Tick runs one poll of the loop and returns the resulting state.
func (m *Machine) Tick() State {
	switch m.state {
	case Finished:
		return m.state
	case NotStarted:
		m.arm()
		return m.state
	}

	if m.stats.Complete() {
		m.finish()
		return m.state
	}

	touched := m.sampler.Sample()
	if m.state == Waiting {
		m.wait(touched)
	} else {
		m.test(touched)
	}
	return m.state
}

// Run ticks until the session is finished.
func (m *Machine) Run() {
	for m.Tick() != Finished {
	}
}

func (m *Machine) arm() {
	if !m.sampler.Sample().Any() {
		return
	}
	m.report.Emit(protocol.Event{Kind: protocol.Start})
	m.setAll(false)
	m.host.Sleep(m.params.ArmDelay)
	m.settle()
}

func (m *Machine) wait(touched touch.Touches) {
	cur, err := m.seq.Current(m.session.TrialIndex)
	if err != nil {
		// Every slot has been consumed without filling both categories.
		m.finish()
		return
	}

	if touched.Any() {
		m.host.SetConfirmation(true)
		m.stats.Early(cur.Category)
		m.report.Emit(protocol.Event{
			Kind:     protocol.Early,
			Trial:    m.session.TrialIndex + 1,
			Category: cur.Category,
		})
		m.settle()
		return
	}

	if m.host.Millis()-m.session.WaitStart >= uint64(m.session.NextInterval)*1000 {
		m.session.Target = cur
		m.session.Lit = cur.Targets(m.params.Layout)
		for _, led := range m.session.Lit {
			m.host.SetIndicator(led, true)
		}
		m.session.ReactionStart = m.host.Micros()
		m.state = Testing
	}
}

func (m *Machine) test(touched touch.Touches) {
	if !touched.Any() {
		return
	}
	reaction := m.host.Micros() - m.session.ReactionStart

	for _, led := range m.session.Lit {
		m.host.SetIndicator(led, false)
	}
	m.host.SetConfirmation(true)

	target := m.session.Target
	outcome := Classify(touched, m.session.Lit)
	m.report.Emit(protocol.Event{
		Kind:         protocol.Test,
		Trial:        m.session.TrialIndex + 1,
		Category:     target.Category,
		Outcome:      outcome,
		ReactionTime: reaction,
	})

	if outcome == trial.Success {
		if err := m.stats.Record(target.Category, reaction); err != nil {
			// unreachable with a validated sequence
			m.finish()
			return
		}
		m.session.TrialIndex++
	} else {
		m.stats.Wrong(target.Category)
		m.seq.ReshuffleRemaining(m.session.TrialIndex)
	}

	m.settle()
}

// settle pauses after an outcome and starts the next wait phase.
func (m *Machine) settle() {
	m.host.Sleep(m.params.SettleDelay)
	m.host.SetConfirmation(false)
	m.report.Emit(protocol.Event{Kind: protocol.Reset})
	m.startWait()
}

func (m *Machine) startWait() {
	m.session.NextInterval = m.params.MinWaitSeconds + m.rng.Intn(m.params.MaxWaitSeconds-m.params.MinWaitSeconds)
	m.session.WaitStart = m.host.Millis()
	m.session.Lit = nil
	m.state = Waiting
}

func (m *Machine) finish() {
	m.report.Emit(protocol.Event{Kind: protocol.End, Summary: m.stats.Summary()})
	m.state = Finished
	m.host.Halt()
}

func (m *Machine) setAll(on bool) {
	for i := 0; i < m.params.Sensors(); i++ {
		m.host.SetIndicator(i, on)
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Session returns a copy of the session variables.
func (m *Machine) Session() Session {
	s := m.session
	s.Lit = append([]int(nil), m.session.Lit...)
	return s
}

// Stats returns the outcome counters.
func (m *Machine) Stats() *Stats { return m.stats }

// Sequence returns the trial order.
func (m *Machine) Sequence() *trial.Sequence { return m.seq }

// Calibration returns the thresholds computed at startup.
func (m *Machine) Calibration() touch.Calibration { return m.sampler.Calibration() }

// Stuck returns sensors that cannot register touches with the current
// calibration. It reads the pads, so call it before the session starts.
func (m *Machine) Stuck() []int { return m.sampler.Stuck() }

// Noisy returns idle pads too noisy for their threshold, over reads readings.
func (m *Machine) Noisy(reads int) []int { return m.sampler.Noisy(reads) }

// Dropped returns how many report lines failed to send.
func (m *Machine) Dropped() int { return m.report.Dropped() }
