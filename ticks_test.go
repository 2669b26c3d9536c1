package turnon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreciseTicks(t *testing.T) {
	ticks := PreciseTicks{NSuggestedTicks: 5}.Ticks(0, 100)

	var labels []string
	var minor []float64
	for _, tk := range ticks {
		if tk.Label != "" {
			labels = append(labels, tk.Label)
		} else {
			minor = append(minor, tk.Value)
		}
	}
	assert.Equal(t, []string{"0", "20", "40", "60", "80", "100"}, labels)
	assert.Equal(t, []float64{10, 30, 50, 70, 90}, minor)
}

func TestPreciseTicksInRange(t *testing.T) {
	for _, r := range [][2]float64{{0, 1.1}, {-1, 1.5}, {-10, -5}, {0.001, 0.004}, {13, 999}} {
		ticks := PreciseTicks{}.Ticks(r[0], r[1])
		require.NotEmpty(t, ticks, "%v", r)
		labelled := 0
		for _, tk := range ticks {
			assert.True(t, tk.Value >= r[0]-1e-9 && tk.Value <= r[1]+1e-9, "%v outside %v", tk.Value, r)
			if tk.Label != "" {
				labelled++
			}
		}
		assert.GreaterOrEqual(t, labelled, 2, "%v", r)
	}
}

func TestPreciseTicksDegenerate(t *testing.T) {
	ticks := PreciseTicks{}.Ticks(3, 3)
	require.Len(t, ticks, 1)
	assert.Equal(t, "3", ticks[0].Label)
}
