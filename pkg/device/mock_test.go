package device

import (
	"testing"
	"time"

	"github.com/itohio/reactiontest/pkg/config"
	"github.com/itohio/reactiontest/pkg/protocol"
	"github.com/itohio/reactiontest/pkg/trial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *config.Config {
	cfg := config.Default()
	cfg.Mock.Speed = 0
	cfg.Mock.Seed = 7
	cfg.Mock.EarlyRate = 0
	cfg.Mock.WrongRate = 0
	return cfg
}

// collect reads events until an end record or the timeout.
func collect(t *testing.T, events <-chan protocol.Event, timeout time.Duration) []protocol.Event {
	t.Helper()
	var got []protocol.Event
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
			if ev.Kind == protocol.End {
				return got
			}
		case <-deadline:
			t.Fatalf("no end record within %v, got %d events", timeout, len(got))
			return got
		}
	}
}

func kindsOf(events []protocol.Event, k protocol.Kind) []protocol.Event {
	var out []protocol.Event
	for _, ev := range events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

func TestNewMock_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Experiment.TrialCount = 7

	_, err := NewMock(cfg)
	assert.Error(t, err)
}

func TestMock_FullSession(t *testing.T) {
	dev, err := NewMock(fastConfig())
	require.NoError(t, err)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	events := collect(t, dev.Events(), 10*time.Second)
	require.NotEmpty(t, events)

	assert.Equal(t, protocol.Ready, events[0].Kind)
	assert.Equal(t, 12, events[0].TrialCount)
	assert.Equal(t, protocol.Start, events[1].Kind)

	tests := kindsOf(events, protocol.Test)
	require.Len(t, tests, 12)
	counts := map[trial.Category]int{}
	for i, ev := range tests {
		assert.Equal(t, i+1, ev.Trial)
		assert.Equal(t, trial.Success, ev.Outcome)
		assert.GreaterOrEqual(t, ev.ReactionTime, uint64(250_000))
		assert.LessOrEqual(t, ev.ReactionTime, uint64(452_000))
		counts[ev.Category]++
	}
	assert.Equal(t, 6, counts[trial.Normal])
	assert.Equal(t, 6, counts[trial.Disgust])
	assert.Empty(t, kindsOf(events, protocol.Early))

	end := events[len(events)-1]
	require.Equal(t, protocol.End, end.Kind)
	assert.Equal(t, (end.Summary.NormalAverage+end.Summary.DisgustAverage)/2, end.Summary.TotalAverage)
	assert.Zero(t, end.Summary.NormalWrong+end.Summary.DisgustWrong)
}

func TestMock_SessionWithErrors(t *testing.T) {
	cfg := fastConfig()
	cfg.Mock.EarlyRate = 0.3
	cfg.Mock.WrongRate = 0.3

	dev, err := NewMock(cfg)
	require.NoError(t, err)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	events := collect(t, dev.Events(), 20*time.Second)
	end := events[len(events)-1]
	require.Equal(t, protocol.End, end.Kind)

	successes := 0
	wrong := 0
	for _, ev := range kindsOf(events, protocol.Test) {
		if ev.Outcome == trial.Success {
			successes++
		} else {
			wrong++
		}
	}
	assert.Equal(t, 12, successes)
	assert.Equal(t, end.Summary.NormalWrong+end.Summary.DisgustWrong, wrong)
	assert.Equal(t, end.Summary.NormalEarly+end.Summary.DisgustEarly, len(kindsOf(events, protocol.Early)))
}

func TestMock_SkipArming(t *testing.T) {
	cfg := fastConfig()
	cfg.Experiment.SkipArming = true

	dev, err := NewMock(cfg)
	require.NoError(t, err)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	events := collect(t, dev.Events(), 10*time.Second)
	assert.Equal(t, protocol.Ready, events[0].Kind)
	assert.Empty(t, kindsOf(events, protocol.Start))
	assert.Len(t, kindsOf(events, protocol.Test), 12)
}

func TestMock_ConnectTwice(t *testing.T) {
	dev, err := NewMock(fastConfig())
	require.NoError(t, err)
	require.NoError(t, dev.Connect())
	defer dev.Close()

	assert.True(t, dev.IsConnected())
	assert.ErrorIs(t, dev.Connect(), ErrAlreadyConnected)
}

func TestMock_Reset(t *testing.T) {
	dev, err := NewMock(fastConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, dev.Reset(), ErrNotConnected)

	require.NoError(t, dev.Connect())
	defer dev.Close()

	first := <-dev.Events()
	require.Equal(t, protocol.Ready, first.Kind)

	require.NoError(t, dev.Reset())

	// drain what the aborted session left in the buffer until the new one reports
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-dev.Events():
			if ev.Kind == protocol.Ready {
				return
			}
		case <-timeout:
			t.Fatal("no ready record after reset")
		}
	}
}

func TestMock_GracefulShutdown(t *testing.T) {
	dev, err := NewMock(fastConfig())
	require.NoError(t, err)
	require.NoError(t, dev.Connect())

	events := dev.Events()

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range events {
			received++
			if received == 3 {
				dev.Close()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Events channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3)
	assert.False(t, dev.IsConnected())

	_, ok := <-events
	assert.False(t, ok, "Channel should be closed")

	assert.NoError(t, dev.Close())
}

func TestMock_Reconnect(t *testing.T) {
	dev, err := NewMock(fastConfig())
	require.NoError(t, err)

	for round := 0; round < 2; round++ {
		require.NoError(t, dev.Connect())
		events := collect(t, dev.Events(), 10*time.Second)
		assert.Equal(t, protocol.Ready, events[0].Kind)
		assert.Equal(t, protocol.End, events[len(events)-1].Kind)
		require.NoError(t, dev.Close())

		_, ok := <-dev.Events()
		assert.False(t, ok, "round %d: channel closed after Close", round)
	}
}
