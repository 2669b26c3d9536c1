package efficiency

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/turnon/hist"
)

// DefaultPileupBins are the pileup edges used when none are given.
var DefaultPileupBins = []float64{0, 13, 20, 999}

// Collection holds turn-on curves keyed by (pileup bin, variable, threshold).
//
//	c, _ := efficiency.NewCollection([]float64{0, 13, 20, 999})
//	c.AddVariable("JetPt", jetBins, []float64{30, 50, 70, 100})
//	c.SetPileup(pileup)
//	c.Fill("JetPt", jetPtReco, jetPtL1, 1)
type Collection struct {
	pileup     *hist.Sorted
	variables  *hist.Categories
	thresholds *hist.Values
	curves     *hist.Collection[*Curve]
	meta       map[string]*variable

	pileupHist *hbook.H1D
	current    float64
	pileupSet  bool

	estimator Estimator
	cl        float64
	log       logrus.FieldLogger
}

type variable struct {
	name       string
	edges      []float64
	thresholds []float64
}

func (v *variable) has(threshold float64) bool {
	for _, t := range v.thresholds {
		if t == threshold {
			return true
		}
	}
	return false
}

// Option configures a Collection.
type Option func(*Collection)

func WithLogger(l logrus.FieldLogger) Option { return func(c *Collection) { c.log = l } }

// WithEstimator sets the uncertainty estimator of every curve.
func WithEstimator(e Estimator, cl float64) Option {
	return func(c *Collection) { c.estimator, c.cl = e, cl }
}

func NewCollection(pileupBins []float64, opts ...Option) (*Collection, error) {
	if pileupBins == nil {
		pileupBins = DefaultPileupBins
	}
	pu, err := hist.NewSorted("pileup", pileupBins, true)
	if err != nil {
		return nil, err
	}
	c := &Collection{
		pileup:     pu,
		variables:  hist.NewCategories("variable"),
		thresholds: hist.NewValues("threshold"),
		meta:       make(map[string]*variable),
		pileupHist: hbook.NewH1D(100, 0, 100),
		estimator:  ClopperPearson,
		cl:         OneSigma,
		log:        logrus.StandardLogger(),
	}
	setName(c.pileupHist, "nVertex")
	for _, opt := range opts {
		opt(c)
	}
	c.curves, err = hist.NewCollection(
		[]hist.Binning{c.pileup, c.variables, c.thresholds},
		c.buildCurve,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// buildCurve declines every coordinate whose threshold is not registered for
// its variable, and the summary slot, which only Summarise fills.
func (c *Collection) buildCurve(coord hist.Coord) (*Curve, bool) {
	if coord[0] == hist.Summary {
		return nil, false
	}
	name, err := c.variables.Name(coord[1])
	if err != nil {
		return nil, false
	}
	threshold, err := c.thresholds.Value(coord[2])
	if err != nil {
		return nil, false
	}
	v := c.meta[name]
	if v == nil || !v.has(threshold) {
		return nil, false
	}
	curve := NewCurve(c.curveName(name, threshold, coord[0]), v.edges, threshold)
	curve.SetEstimator(c.estimator, c.cl)
	return curve, true
}

func (c *Collection) curveName(variable string, threshold float64, pu hist.BinIndex) string {
	name := fmt.Sprintf("%s_threshold_gt%v", variable, threshold)
	switch pu {
	case hist.Summary:
		return name
	case hist.Underflow, hist.Overflow:
		return fmt.Sprintf("%s_pu%v", name, pu)
	}
	lo, hi, _ := c.pileup.Range(pu)
	return fmt.Sprintf("%s_pu%vTo%v", name, lo, hi)
}

// PileupBins returns the pileup edges.
func (c *Collection) PileupBins() []float64 { return c.pileup.Edges() }

// PileupHist is the distribution of pileup over every SetPileup call.
func (c *Collection) PileupHist() *hbook.H1D { return c.pileupHist }

// Variables returns the registered variable names in registration order.
func (c *Collection) Variables() []string {
	out := make([]string, c.variables.Len())
	for i := range out {
		out[i], _ = c.variables.Name(hist.BinIndex(i))
	}
	return out
}

// Thresholds returns the thresholds of variable.
func (c *Collection) Thresholds(variable string) []float64 {
	if v := c.meta[variable]; v != nil {
		return append([]float64(nil), v.thresholds...)
	}
	return nil
}

// Edges returns the reference binning of variable.
func (c *Collection) Edges(variable string) []float64 {
	if v := c.meta[variable]; v != nil {
		return append([]float64(nil), v.edges...)
	}
	return nil
}

// AddVariable registers a quantity and allocates one curve per pileup bin and
// threshold. Registering a name twice logs a warning and keeps the first.
func (c *Collection) AddVariable(name string, edges, thresholds []float64) error {
	if _, dup := c.meta[name]; dup {
		c.log.WithField("variable", name).Warn("variable already exists")
		return nil
	}
	if _, err := hist.NewSorted(name, edges, false); err != nil {
		return err
	}
	if len(thresholds) == 0 {
		return errors.Errorf("efficiency: variable %q has no thresholds", name)
	}
	e := append([]float64(nil), edges...)
	sort.Float64s(e)
	c.meta[name] = &variable{
		name:       name,
		edges:      e,
		thresholds: append([]float64(nil), thresholds...),
	}
	c.variables.Add(name)
	for _, t := range thresholds {
		c.thresholds.Add(t)
	}

	created := c.curves.Get(hist.All, name)
	c.log.WithFields(logrus.Fields{
		"variable": name,
		"curves":   created.Len(),
	}).Debug("created efficiency curves")
	return nil
}

// SetPileup selects the pileup bin of the following fills and records pileup
// in the pileup distribution.
func (c *Collection) SetPileup(pileup float64) {
	c.current = pileup
	c.pileupSet = true
	c.pileupHist.Fill(pileup, 1)
}

// Fill routes one event to every threshold of variable at the current pileup.
// Unknown variables and fills before SetPileup are logged and ignored.
func (c *Collection) Fill(name string, reference, candidate, w float64) {
	if !c.pileupSet {
		c.log.WithField("variable", name).Error("fill before pileup was set")
		return
	}
	if _, ok := c.meta[name]; !ok {
		c.log.WithField("variable", name).Error("histogram does not exist")
		return
	}
	c.curves.Get(c.current, name).Each(func(_ hist.Coord, curve *Curve) {
		curve.Fill(reference, candidate, w)
	})
}

// Curve returns the curve at a pileup key (a pileup value, or
// hist.SummaryKey for the integrated curve), variable and threshold.
func (c *Collection) Curve(pileup interface{}, variable string, threshold float64) (*Curve, bool) {
	v := c.curves.Get(pileup, variable, threshold)
	if v.Len() != 1 {
		return nil, false
	}
	return v.Leaves()[0], true
}

// CurveAt returns the curve at an explicit pileup bin index.
func (c *Collection) CurveAt(pileup hist.BinIndex, variable string, threshold float64) (*Curve, error) {
	vi := c.variables.Find(variable)
	ti := c.thresholds.Find(threshold)
	if len(vi) == 0 || len(ti) == 0 {
		return nil, errors.Wrapf(hist.ErrNoSuchBin, "%s threshold %v", variable, threshold)
	}
	curve, ok, err := c.curves.At(pileup, vi[0], ti[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(hist.ErrNoSuchBin, "%s threshold %v pileup bin %v", variable, threshold, pileup)
	}
	return curve, nil
}

// Summarise merges the curves of every pileup bin into the summary slot, for
// each variable and threshold. It starts from scratch on every call.
func (c *Collection) Summarise() {
	c.log.Info("summarising efficiency curves")
	for _, name := range c.Variables() {
		v := c.meta[name]
		vi := c.variables.Find(name)[0]
		for _, t := range v.thresholds {
			ti := c.thresholds.Find(t)[0]
			summed := NewCurve(c.curveName(name, t, hist.Summary), v.edges, t)
			summed.SetEstimator(c.estimator, c.cl)
			for _, curve := range c.curves.Get(hist.All, name, t).Leaves() {
				if err := summed.Merge(curve); err != nil {
					c.log.WithError(err).WithField("variable", name).Error("cannot summarise curve")
				}
			}
			summed.ComputeEfficiency()
			if err := c.curves.Set(hist.Coord{hist.Summary, vi, ti}, summed); err != nil {
				c.log.WithError(err).WithField("variable", name).Error("cannot store summary curve")
			}
		}
	}
}

// ComputeAllEfficiencies rederives the ratio of every curve.
func (c *Collection) ComputeAllEfficiencies() {
	c.curves.Items(func(_ hist.Coord, curve *Curve) {
		curve.ComputeEfficiency()
	})
}

// FitAll fits every summary and per-pileup curve with enough populated bins.
// Fit failures are logged and skipped.
func (c *Collection) FitAll() {
	c.curves.Items(func(coord hist.Coord, curve *Curve) {
		if !coord[0].Valid() && coord[0] != hist.Summary {
			return
		}
		if _, err := curve.Fit(); err != nil {
			c.log.WithError(err).WithField("curve", curve.Name()).Debug("fit skipped")
		}
	})
}

// Merge adds the counts of other into c. Both collections must share their
// pileup binning, and every variable they share must have the same edges
// and c must know all of other's thresholds for it. Variables missing from c
// are registered first. c is left untouched when the collections are
// incompatible. Summary curves are not merged, run Summarise afterwards.
func (c *Collection) Merge(other *Collection) error {
	if other == nil {
		return nil
	}
	if err := c.compatible(other); err != nil {
		return err
	}
	for _, name := range other.Variables() {
		if _, ok := c.meta[name]; ok {
			continue
		}
		ov := other.meta[name]
		if err := c.AddVariable(name, ov.edges, ov.thresholds); err != nil {
			return err
		}
	}

	var err error
	other.curves.Items(func(coord hist.Coord, curve *Curve) {
		if err != nil || coord[0] == hist.Summary {
			return
		}
		name, _ := other.variables.Name(coord[1])
		var mine *Curve
		mine, err = c.CurveAt(coord[0], name, curve.Threshold())
		if err != nil {
			err = errors.Wrapf(err, "merging %s", curve.Name())
			return
		}
		err = mine.Merge(curve)
	})
	if err != nil {
		return err
	}
	hist.AddH1D(c.pileupHist, other.pileupHist)
	return nil
}

// compatible checks everything Merge needs before it changes c.
func (c *Collection) compatible(other *Collection) error {
	if !hist.SameEdges(c.pileup.Edges(), other.pileup.Edges()) {
		return errors.Wrap(ErrIncompatible, "different pileup binning")
	}
	for _, name := range other.Variables() {
		v, ok := c.meta[name]
		if !ok {
			continue
		}
		ov := other.meta[name]
		if !hist.SameEdges(v.edges, ov.edges) {
			return errors.Wrapf(ErrIncompatible, "variable %s has different binning", name)
		}
		for _, t := range ov.thresholds {
			if !v.has(t) {
				return errors.Wrapf(ErrIncompatible, "variable %s has no threshold %v", name, t)
			}
		}
	}
	return nil
}
