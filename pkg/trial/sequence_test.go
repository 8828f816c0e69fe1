package trial

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand returns queued values and records the bounds it was asked for.
type scriptedRand struct {
	values []int
	bounds []int
}

func (r *scriptedRand) Intn(n int) int {
	r.bounds = append(r.bounds, n)
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v % n
}

func countSensors(trials []Trial) map[int]int {
	out := make(map[int]int)
	for _, t := range trials {
		out[t.Sensor]++
	}
	return out
}

func TestGenerate_Counterbalanced(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		rng := rand.New(rand.NewSource(seed))

		seq, err := Generate(12, TargetSensor, DefaultLayout(), rng)
		require.NoError(t, err)
		assert.Equal(t, 12, seq.Len())
		assert.Equal(t, 6, seq.Count(Normal))
		assert.Equal(t, 6, seq.Count(Disgust))

		sensors := countSensors(seq.Trials())
		assert.Equal(t, map[int]int{0: 3, 1: 3, 2: 3, 3: 3}, sensors)
		for _, tr := range seq.Trials() {
			assert.Equal(t, DefaultLayout()[tr.Sensor], tr.Category)
		}
	}
}

func TestGenerate_CategoryTargeting(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	seq, err := Generate(10, TargetCategory, DefaultLayout(), rng)
	require.NoError(t, err)
	assert.Equal(t, 5, seq.Count(Normal))
	assert.Equal(t, 5, seq.Count(Disgust))
	for _, tr := range seq.Trials() {
		assert.Equal(t, NoSensor, tr.Sensor)
	}
}

func TestGenerate_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name      string
		count     int
		targeting Targeting
		layout    Layout
		wantErr   error
	}{
		{"odd count", 7, TargetCategory, DefaultLayout(), ErrUnbalancedCount},
		{"zero count", 0, TargetCategory, DefaultLayout(), ErrUnbalancedCount},
		{"not per sensor", 6, TargetSensor, DefaultLayout(), ErrUnbalancedCount},
		{"empty layout", 4, TargetSensor, Layout{}, ErrEmptyLayout},
		{"uneven layout", 4, TargetSensor, Layout{Normal, Normal, Disgust}, ErrUnevenLayout},
		{"missing category", 4, TargetSensor, Layout{Normal, Normal}, ErrMissingCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.count, tt.targeting, tt.layout, rng)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerate_FisherYatesTrace(t *testing.T) {
	rng := &scriptedRand{values: []int{0, 0, 0}}

	// Unshuffled order for 4 sensors is N0 N1 D2 D3.
	seq, err := Generate(4, TargetSensor, DefaultLayout(), rng)
	require.NoError(t, err)

	assert.Equal(t, []int{4, 3, 2}, rng.bounds)
	// i=3 swaps 3<->0: D3 N1 D2 N0
	// i=2 swaps 2<->0: D2 N1 D3 N0
	// i=1 swaps 1<->0: N1 D2 D3 N0
	assert.Equal(t, []Trial{
		{Normal, 1}, {Disgust, 2}, {Disgust, 3}, {Normal, 0},
	}, seq.Trials())
}

func TestReshuffleRemaining_KeepsPrefix(t *testing.T) {
	rng := &scriptedRand{values: []int{0, 0}}
	seq := FromTrials([]Trial{{Normal, 0}, {Normal, 1}, {Disgust, 2}, {Disgust, 3}}, rng)

	seq.ReshuffleRemaining(1)

	assert.Equal(t, []int{3, 2}, rng.bounds)
	assert.Equal(t, []Trial{
		{Normal, 0}, {Disgust, 2}, {Disgust, 3}, {Normal, 1},
	}, seq.Trials())
}

func TestReshuffleRemaining_PreservesMultiset(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seq, err := Generate(16, TargetSensor, DefaultLayout(), rng)
	require.NoError(t, err)

	for k := 0; k <= seq.Len(); k++ {
		before := seq.Trials()
		seq.ReshuffleRemaining(k)
		after := seq.Trials()

		require.Len(t, after, len(before))
		assert.Equal(t, before[:k], after[:k], "prefix changed at k=%d", k)
		assert.ElementsMatch(t, before[k:], after[k:], "suffix multiset changed at k=%d", k)
	}
}

func TestReshuffleRemaining_OutOfRange(t *testing.T) {
	rng := &scriptedRand{}
	seq := FromTrials([]Trial{{Normal, 0}, {Disgust, 2}}, rng)

	seq.ReshuffleRemaining(-1)
	seq.ReshuffleRemaining(2)
	seq.ReshuffleRemaining(1) // single element, no draws

	assert.Empty(t, rng.bounds)
	assert.Equal(t, []Trial{{Normal, 0}, {Disgust, 2}}, seq.Trials())
}

func TestSequence_Validate(t *testing.T) {
	tests := []struct {
		name      string
		trials    []Trial
		targeting Targeting
		wantErr   error
	}{
		{"valid sensor", []Trial{{Disgust, 2}, {Normal, 0}, {Disgust, 3}, {Normal, 1}}, TargetSensor, nil},
		{"valid category", []Trial{{Normal, NoSensor}, {Disgust, NoSensor}, {Disgust, NoSensor}, {Normal, NoSensor}}, TargetCategory, nil},
		{"short", []Trial{{Normal, 0}, {Disgust, 2}}, TargetSensor, ErrLengthMismatch},
		{"unbalanced", []Trial{{Normal, 0}, {Normal, 1}, {Normal, 0}, {Disgust, 2}}, TargetSensor, ErrUnbalanced},
		{"sensor out of range", []Trial{{Normal, 7}, {Normal, 1}, {Disgust, 2}, {Disgust, 3}}, TargetSensor, ErrSensorRange},
		{"negative sensor", []Trial{{Normal, -2}, {Normal, 1}, {Disgust, 2}, {Disgust, 3}}, TargetSensor, ErrSensorRange},
		{"sensor of other category", []Trial{{Normal, 2}, {Normal, 1}, {Disgust, 0}, {Disgust, 3}}, TargetSensor, ErrSensorCategory},
		{"no sensor under sensor targeting", []Trial{{Normal, NoSensor}, {Normal, 1}, {Disgust, 2}, {Disgust, 3}}, TargetSensor, ErrTargetMismatch},
		{"sensor under category targeting", []Trial{{Normal, 0}, {Normal, NoSensor}, {Disgust, NoSensor}, {Disgust, NoSensor}}, TargetCategory, ErrTargetMismatch},
		{"unknown category", []Trial{{Category(5), NoSensor}, {Normal, NoSensor}, {Disgust, NoSensor}, {Disgust, NoSensor}}, TargetCategory, ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromTrials(tt.trials, &scriptedRand{}).Validate(4, tt.targeting, DefaultLayout())
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGenerate_PassesValidate(t *testing.T) {
	for _, targeting := range []Targeting{TargetSensor, TargetCategory} {
		seq, err := Generate(12, targeting, DefaultLayout(), rand.New(rand.NewSource(3)))
		require.NoError(t, err)
		assert.NoError(t, seq.Validate(12, targeting, DefaultLayout()))
	}
}

func TestCurrent(t *testing.T) {
	seq := FromTrials([]Trial{{Disgust, NoSensor}, {Normal, NoSensor}}, &scriptedRand{})

	tr, err := seq.Current(1)
	require.NoError(t, err)
	assert.Equal(t, Normal, tr.Category)

	_, err = seq.Current(2)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)
}

func TestTrial_Targets(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, []int{2}, Trial{Disgust, 2}.Targets(l))
	assert.Equal(t, []int{0, 1}, Trial{Normal, NoSensor}.Targets(l))
	assert.Equal(t, []int{2, 3}, Trial{Disgust, NoSensor}.Targets(l))
}

func TestParse(t *testing.T) {
	c, err := ParseCategory("Disgust")
	require.NoError(t, err)
	assert.Equal(t, Disgust, c)
	_, err = ParseCategory("fruit")
	assert.Error(t, err)

	o, err := ParseOutcome("wrong")
	require.NoError(t, err)
	assert.Equal(t, Wrong, o)

	tg, err := ParseTargeting("category")
	require.NoError(t, err)
	assert.Equal(t, TargetCategory, tg)
	tg, err = ParseTargeting("")
	require.NoError(t, err)
	assert.Equal(t, TargetSensor, tg)
}
