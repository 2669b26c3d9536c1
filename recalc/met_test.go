package recalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/turnon/hist"
)

const tol = 1e-9

func TestOppositeTowersCancel(t *testing.T) {
	r := New("full")
	met := r.Calculate([]Tower{{IPhi: 0, IEt: 10}, {IPhi: 36, IEt: 10}}, 0)
	assert.InDelta(t, 0, met.Mag, tol)

	// With 36 azimuthal segments iphi 18 sits opposite iphi 0.
	coarse := New("coarse", WithGeometry(Geometry{PhiSegments: 36, EtLSB: 0.5}))
	met = coarse.Calculate([]Tower{{IPhi: 0, IEt: 10}, {IPhi: 18, IEt: 10}}, 0)
	assert.InDelta(t, 0, met.Mag, tol)
	assert.Equal(t, met, coarse.Last())
}

func TestSingleTower(t *testing.T) {
	assert := assert.New(t)

	r := New("full")
	met := r.Calculate([]Tower{{IEta: 3, IPhi: 18, IEt: 20}}, 0)
	// 10 GeV at phi = pi/2, MET points the other way.
	assert.InDelta(10, met.Mag, tol)
	assert.InDelta(0, met.X, tol)
	assert.InDelta(-10, met.Y, tol)
	assert.InDelta(-math.Pi/2, met.Phi, tol)

	empty := r.Calculate(nil, 0)
	assert.Equal(MET{}, empty)
	assert.Equal(empty, r.Last(), "every call recomputes from scratch")
}

func TestExclusion(t *testing.T) {
	towers := []Tower{
		{IEta: 10, IPhi: 0, IEt: 10},
		{IEta: -28, IPhi: 0, IEt: 20},
		{IEta: 30, IPhi: 0, IEt: 40},
	}
	table := []struct {
		name string
		ex   Exclude
		want float64
	}{
		{"none", nil, 35},
		{"hf only", ExcludeAbsIEta(0, 28), 20},
		{"not 28", ExcludeAbsIEta(28, 28), 25},
		{"28 only", KeepAbsIEta(28, 28), 10},
	}
	for _, tc := range table {
		r := New(tc.name, WithExclude(tc.ex))
		assert.InDelta(t, tc.want, r.Calculate(towers, 0).Mag, tol, tc.name)
	}
}

func TestThresholdOrdering(t *testing.T) {
	towers := []Tower{{IPhi: 0, IEt: 10}} // 5 GeV
	sub := PerTowerPileup(0.1)           // 2 GeV at pileup 20
	cut := ConstantThreshold(4)

	before := New("before", WithSubtract(sub), WithThreshold(cut), WithOrder(ThresholdBeforeSubtraction))
	after := New("after", WithSubtract(sub), WithThreshold(cut), WithOrder(ThresholdAfterSubtraction))

	assert.InDelta(t, 3, before.Calculate(towers, 20).Mag, tol)
	assert.InDelta(t, 0, after.Calculate(towers, 20).Mag, tol)
}

func TestSubtractionFloor(t *testing.T) {
	r := New("pus", WithSubtract(PerTowerPileup(1)))
	met := r.Calculate([]Tower{{IPhi: 0, IEt: 10}, {IPhi: 36, IEt: 100}}, 10)
	// first tower floors at zero, second keeps 40 GeV
	assert.InDelta(t, 40, met.Mag, tol)
}

func TestRegionalPileupAndThreshold(t *testing.T) {
	sub := RegionalPileup(0.1, 0.2, 0.5)
	assert.InDelta(t, 9, sub(Tower{IEta: 5}, 10, 10), tol)
	assert.InDelta(t, 8, sub(Tower{IEta: -20}, 10, 10), tol)
	assert.InDelta(t, 8, sub(Tower{IEta: 28}, 10, 10), tol)
	assert.InDelta(t, 5, sub(Tower{IEta: -29}, 10, 10), tol)
	assert.InDelta(t, 5, sub(Tower{IEta: 35}, 10, 10), tol)
	assert.InDelta(t, 5, sub(Tower{IEta: 50}, 10, 10), tol, "beyond the forward calorimeter")

	th := PileupThreshold(1, 0.05)
	assert.InDelta(t, 2, th(Tower{}, 20), tol)
	assert.InDelta(t, 1, th(Tower{}, -5), tol)
}

func TestStandardSchemes(t *testing.T) {
	names := map[string]bool{}
	for _, r := range StandardSchemes() {
		names[r.Name()] = true
	}
	assert.True(t, names["l1MetFull"])
	assert.True(t, names["l1Met28Only"])

	towers := []Tower{{IPhi: 0, IEt: 10}, {IPhi: 18, IEt: 10}}
	for _, r := range StandardSchemes() {
		if r.Name() == "l1MetFull" {
			assert.InDelta(t, 5*math.Sqrt2, r.Calculate(towers, 0).Mag, tol)
		}
	}
	for _, r := range StandardSchemes(WithGeometry(Geometry{PhiSegments: 36, EtLSB: 0.5})) {
		assert.InDelta(t, 0, r.Calculate(towers, 0).Mag, tol, r.Name())
	}
}

func TestCaloRegions(t *testing.T) {
	r := CaloRegions()
	assert.Equal(t, []hist.BinIndex{0, 3}, r.Find(-12))
	assert.Equal(t, []hist.BinIndex{1, 3}, r.Find(28))
	assert.Equal(t, []hist.BinIndex{2}, r.Find(29))
	assert.Empty(t, r.Find(50))
}

func TestParseThresholdOrder(t *testing.T) {
	for in, want := range map[string]ThresholdOrder{
		"":       ThresholdBeforeSubtraction,
		"before": ThresholdBeforeSubtraction,
		"After":  ThresholdAfterSubtraction,
	} {
		got, err := ParseThresholdOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseThresholdOrder("during")
	assert.Error(t, err)
}
