package efficiency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEstimator(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Estimator
	}{
		{"", ClopperPearson},
		{"Clopper-Pearson", ClopperPearson},
		{"normal", Normal},
		{"bayes", Bayesian},
	} {
		got, err := ParseEstimator(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		back, err := ParseEstimator(got.String())
		require.NoError(t, err)
		assert.Equal(t, got, back)
	}
	_, err := ParseEstimator("wilson")
	assert.Error(t, err)
}

func TestClopperPearson(t *testing.T) {
	eff, low, high := ClopperPearson.Interval(1, 2, OneSigma)
	assert.Equal(t, 0.5, eff)
	assert.InDelta(t, 0.082751, low, 1e-4)
	assert.InDelta(t, 0.917249, high, 1e-4)

	eff, low, high = ClopperPearson.Interval(0, 10, OneSigma)
	assert.Equal(t, 0.0, eff)
	assert.Equal(t, 0.0, low)
	assert.InDelta(t, 0.16815, high, 1e-4)

	eff, low, high = ClopperPearson.Interval(10, 10, OneSigma)
	assert.Equal(t, 1.0, eff)
	assert.Equal(t, 1.0, high)
	assert.Less(t, low, 1.0)
}

func TestEmptyInterval(t *testing.T) {
	for _, e := range []Estimator{ClopperPearson, Normal, Bayesian} {
		eff, low, high := e.Interval(0, 0, OneSigma)
		assert.Zero(t, eff, e.String())
		assert.Zero(t, low, e.String())
		assert.Zero(t, high, e.String())
	}
}

func TestNormalInterval(t *testing.T) {
	eff, low, high := Normal.Interval(5, 10, OneSigma)
	assert.Equal(t, 0.5, eff)
	assert.InDelta(t, 0.341886, low, 1e-4)
	assert.InDelta(t, 0.658114, high, 1e-4)

	_, low, high = Normal.Interval(10, 10, OneSigma)
	assert.Equal(t, 1.0, low)
	assert.Equal(t, 1.0, high)
}

func TestBayesianBracketsRatio(t *testing.T) {
	for _, pt := range [][2]float64{{0, 5}, {3, 7}, {7, 7}} {
		eff, low, high := Bayesian.Interval(pt[0], pt[1], OneSigma)
		assert.LessOrEqual(t, low, eff)
		assert.GreaterOrEqual(t, high, eff)
		assert.True(t, low >= 0 && high <= 1)
	}
}
