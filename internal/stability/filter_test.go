package stability

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBecomesStableAfterN(t *testing.T) {
	f := NewFilter[int](3)

	_, ok := f.Observe(4)
	assert.False(t, ok)
	_, ok = f.Observe(4)
	assert.False(t, ok)

	v, ok := f.Observe(4)
	require.True(t, ok)
	assert.Equal(t, 4, v)

	// Stays stable while the value holds.
	v, ok = f.Observe(4)
	require.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestObserveChangeRestartsRunAtOne(t *testing.T) {
	f := NewFilter[string](3)

	f.Observe("red")
	f.Observe("red")
	_, ok := f.Observe("blue")
	assert.False(t, ok)
	assert.Equal(t, 1, f.Run())

	f.Observe("blue")
	v, ok := f.Observe("blue")
	require.True(t, ok)
	assert.Equal(t, "blue", v)
}

func TestObserveZeroValueCountsAsValue(t *testing.T) {
	f := NewFilter[int](2)

	_, ok := f.Observe(0)
	assert.False(t, ok)
	v, ok := f.Observe(0)
	require.True(t, ok)
	assert.Equal(t, 0, v)
}

func TestThresholdOfOne(t *testing.T) {
	f := NewFilter[int](0)
	assert.Equal(t, 1, f.Threshold())

	v, ok := f.Observe(7)
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestReset(t *testing.T) {
	f := NewFilter[int](2)
	f.Observe(1)
	f.Reset()
	assert.Equal(t, 0, f.Run())

	_, ok := f.Observe(1)
	assert.False(t, ok, "run must restart after Reset")
}

// Stable is reported exactly when the trailing run of identical values is at
// least N long.
func TestObserveMatchesTrailingRun(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 2, 5, 10} {
		f := NewFilter[int](n)
		var history []int
		for i := 0; i < 500; i++ {
			v := rng.Intn(3)
			history = append(history, v)

			run := 0
			for j := len(history) - 1; j >= 0 && history[j] == v; j-- {
				run++
			}

			got, ok := f.Observe(v)
			assert.Equal(t, run >= n, ok, "n=%d step=%d", n, i)
			if ok {
				assert.Equal(t, v, got)
			}
		}
	}
}
