package efficiency

import (
	"fmt"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/turnon/hist"
)

var ErrIncompatible = errors.New("efficiency: incompatible curves")

// Curve accumulates a turn-on curve for one variable, pileup bin and
// threshold.
type Curve struct {
	name      string
	threshold float64
	edges     []float64

	pass  *hbook.H1D
	total *hbook.H1D
	dist  *hbook.H1D

	// version counts mutations of pass and total; eff is valid while effAt
	// equals version.
	version   uint64
	eff       *Efficiency
	effAt     uint64
	estimator Estimator
	cl        float64

	fit *FitResult
}

// NewCurve panics if edges are not strictly increasing, like
// hbook.NewH1DFromEdges.
func NewCurve(name string, edges []float64, threshold float64) *Curve {
	c := &Curve{
		name:      name,
		threshold: threshold,
		edges:     append([]float64(nil), edges...),
		pass:      hbook.NewH1DFromEdges(edges),
		total:     hbook.NewH1DFromEdges(edges),
		dist:      hbook.NewH1DFromEdges(edges),
		estimator: ClopperPearson,
		cl:        OneSigma,
	}
	setName(c.pass, name+"_pass")
	setName(c.total, name+"_total")
	setName(c.dist, name+"_dist")
	return c
}

func setName(h *hbook.H1D, name string) {
	if h.Ann == nil {
		h.Ann = make(hbook.Annotation)
	}
	h.Ann["name"] = name
}

func (c *Curve) Name() string { return c.name }
func (c *Curve) Threshold() float64 { return c.threshold }
func (c *Curve) Edges() []float64 { return append([]float64(nil), c.edges...) }
func (c *Curve) Pass() *hbook.H1D { return c.pass }
func (c *Curve) Total() *hbook.H1D { return c.total }
func (c *Curve) Dist() *hbook.H1D { return c.dist }
func (c *Curve) Estimator() Estimator { return c.estimator }

// SetEstimator changes how uncertainties are derived and drops the cached
// ratio.
func (c *Curve) SetEstimator(e Estimator, cl float64) {
	c.estimator = e
	c.cl = cl
	c.version++
}

// Fill records one event: reference goes to total, candidate to dist, and
// reference to pass when candidate is strictly above the threshold.
func (c *Curve) Fill(reference, candidate, w float64) {
	c.total.Fill(reference, w)
	c.dist.Fill(candidate, w)
	if candidate > c.threshold {
		c.pass.Fill(reference, w)
	}
	c.version++
}

// Merge adds the counts of other. A nil other is a no-op.
func (c *Curve) Merge(other *Curve) error {
	if other == nil {
		return nil
	}
	if !hist.SameEdges(c.edges, other.edges) {
		return errors.Wrapf(ErrIncompatible, "%s and %s have different binning", c.name, other.name)
	}
	hist.AddH1D(c.pass, other.pass)
	hist.AddH1D(c.total, other.total)
	hist.AddH1D(c.dist, other.dist)
	c.version++
	return nil
}

// Clone returns an independent copy of the accumulated counts.
func (c *Curve) Clone(name string) *Curve {
	out := NewCurve(name, c.edges, c.threshold)
	out.estimator = c.estimator
	out.cl = c.cl
	_ = out.Merge(c)
	return out
}

// Efficiency returns the derived ratio, recomputing it only if pass or total
// changed since the last call.
func (c *Curve) Efficiency() *Efficiency {
	if c.eff == nil || c.effAt != c.version {
		return c.ComputeEfficiency()
	}
	return c.eff
}

// ComputeEfficiency rederives the ratio from the pass and total counts.
func (c *Curve) ComputeEfficiency() *Efficiency {
	c.eff = newEfficiency(c.name+"_eff", c.threshold, c.pass, c.total, c.estimator, c.cl)
	c.effAt = c.version
	return c.eff
}

// FitResult returns the result of the last successful Fit, if any.
func (c *Curve) FitResult() *FitResult { return c.fit }

func (c *Curve) String() string {
	return fmt.Sprintf("Curve{%s, threshold=%v, entries=%d}", c.name, c.threshold, c.total.Entries())
}
