package efficiency

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

var jetBins = []float64{0, 10, 20, 30, 40, 50, 60, 80, 100, 150, 200}

func counts(h *hbook.H1D) []float64 {
	out := make([]float64, len(h.Binning.Bins))
	for i := range h.Binning.Bins {
		out[i] = h.Binning.Bins[i].SumW()
	}
	return out
}

func binOf(t *testing.T, h *hbook.H1D, x float64) int {
	for i := range h.Binning.Bins {
		if x >= h.Binning.Bins[i].XMin() && x < h.Binning.Bins[i].XMax() {
			return i
		}
	}
	t.Fatalf("no bin for %v", x)
	return -1
}

func TestCurveFill(t *testing.T) {
	assert := assert.New(t)

	c := NewCurve("JetPt_threshold_gt30", jetBins, 30)
	c.Fill(40, 35, 1)
	c.Fill(40, 25, 1)
	c.Fill(60, 30, 1) // not strictly above
	c.Fill(90, 120, 2)

	i40, i60, i90 := binOf(t, c.Total(), 40), binOf(t, c.Total(), 60), binOf(t, c.Total(), 90)
	assert.Equal(2.0, counts(c.Total())[i40])
	assert.Equal(1.0, counts(c.Pass())[i40])
	assert.Equal(1.0, counts(c.Total())[i60])
	assert.Equal(0.0, counts(c.Pass())[i60])
	assert.Equal(2.0, counts(c.Total())[i90])
	assert.Equal(2.0, counts(c.Pass())[i90])
	assert.Equal(1.0, counts(c.Dist())[binOf(t, c.Dist(), 25)])
	assert.Equal(2.0, counts(c.Dist())[binOf(t, c.Dist(), 35)], "30 and 35 share a bin")
	assert.Equal(2.0, counts(c.Dist())[binOf(t, c.Dist(), 120)])
	assert.Equal("JetPt_threshold_gt30_pass", c.Pass().Name())
}

func TestCurveEfficiencyCache(t *testing.T) {
	assert := assert.New(t)

	c := NewCurve("x", jetBins, 30)
	c.Fill(40, 35, 1)
	e1 := c.Efficiency()
	assert.Same(e1, c.Efficiency(), "unchanged counts reuse the cached ratio")

	c.Fill(40, 10, 1)
	e2 := c.Efficiency()
	assert.NotSame(e1, e2)
	i := binOf(t, c.Total(), 40)
	assert.Equal(0.5, e2.Points[i].Eff)
	assert.Equal(2.0, e2.Points[i].Total)
	assert.Equal(1.0, e2.Points[i].Pass)
	assert.True(e2.Points[i].Low < 0.5 && e2.Points[i].High > 0.5)

	other := NewCurve("y", jetBins, 30)
	other.Fill(40, 50, 2)
	require.NoError(t, c.Merge(other))
	assert.Equal(0.75, c.Efficiency().Points[i].Eff, "merge invalidates the cache")
}

func TestCurveMergeCommutes(t *testing.T) {
	fill := func(name string, pairs ...[2]float64) *Curve {
		c := NewCurve(name, jetBins, 50)
		for _, p := range pairs {
			c.Fill(p[0], p[1], 1)
		}
		return c
	}
	a := func() *Curve { return fill("a", [2]float64{40, 60}, [2]float64{15, 5}) }
	b := func() *Curve { return fill("b", [2]float64{40, 45}, [2]float64{120, 130}, [2]float64{250, 260}) }
	d := func() *Curve { return fill("d", [2]float64{75, 90}) }

	ab := a()
	require.NoError(t, ab.Merge(b()))
	ba := b()
	require.NoError(t, ba.Merge(a()))
	for _, get := range []func(*Curve) *hbook.H1D{(*Curve).Pass, (*Curve).Total, (*Curve).Dist} {
		assert.Equal(t, counts(get(ab)), counts(get(ba)))
		assert.Equal(t, get(ab).Entries(), get(ba).Entries())
	}

	// (a+b)+d == a+(b+d)
	left := ab
	require.NoError(t, left.Merge(d()))
	bd := b()
	require.NoError(t, bd.Merge(d()))
	right := a()
	require.NoError(t, right.Merge(bd))
	for _, get := range []func(*Curve) *hbook.H1D{(*Curve).Pass, (*Curve).Total, (*Curve).Dist} {
		assert.Equal(t, counts(get(left)), counts(get(right)))
	}
}

func TestCurveMergePlaceholder(t *testing.T) {
	c := NewCurve("x", jetBins, 30)
	c.Fill(40, 35, 1)
	require.NoError(t, c.Merge(nil))
	assert.Equal(t, int64(1), c.Total().Entries())

	err := c.Merge(NewCurve("y", []float64{0, 1, 2}, 30))
	assert.Equal(t, ErrIncompatible, errors.Cause(err))
}

func TestCurveClone(t *testing.T) {
	c := NewCurve("x", jetBins, 30)
	c.Fill(40, 35, 1)
	d := c.Clone("y")
	d.Fill(40, 35, 1)
	assert.Equal(t, int64(1), c.Total().Entries())
	assert.Equal(t, int64(2), d.Total().Entries())
	assert.Equal(t, "y", d.Name())
}

func TestCurveFit(t *testing.T) {
	c := NewCurve("x", jetBins, 50)
	before := counts(c.Total())
	_, err := c.Fit()
	assert.Equal(t, ErrNotEnoughPoints, errors.Cause(err))
	assert.Equal(t, before, counts(c.Total()))

	// Deterministic turn-on with mu = 50, sigma = 15.
	for i := range c.Total().Binning.Bins {
		x := c.Total().Binning.Bins[i].XMid()
		const n = 200
		pass := int(n*TurnOn(x, 50, 15, 1) + 0.5)
		for k := 0; k < n; k++ {
			cand := 0.0
			if k < pass {
				cand = 1000
			}
			c.Fill(x, cand, 1)
		}
	}
	total := counts(c.Total())
	res, err := c.Fit()
	require.NoError(t, err)
	assert.InDelta(t, 50, res.Mu, 5)
	assert.InDelta(t, 15, res.Sigma, 5)
	assert.InDelta(t, 1, res.Plateau, 0.05)
	assert.Same(t, res, c.FitResult())
	assert.Equal(t, total, counts(c.Total()), "fitting leaves the counts alone")
}
