package efficiency

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/decibelcooper/turnon/hist"
)

// PlotEntry is one derived curve of a PlotBundle.
type PlotEntry struct {
	Pileup    hist.BinIndex
	Label     string
	Threshold float64
	Eff       *Efficiency
	Fit       *FitResult
}

// PlotBundle gathers the derived curves of one variable.
type PlotBundle struct {
	Name     string
	Variable string
	// Entries holds the summary curve of every threshold first, then every
	// threshold's per-pileup curves.
	Entries []PlotEntry
}

// Summary returns the integrated-pileup entries, one per threshold.
func (b *PlotBundle) Summary() []PlotEntry {
	var out []PlotEntry
	for _, e := range b.Entries {
		if e.Pileup == hist.Summary {
			out = append(out, e)
		}
	}
	return out
}

// ByPileup returns the per-pileup entries of one threshold.
func (b *PlotBundle) ByPileup(threshold float64) []PlotEntry {
	var out []PlotEntry
	for _, e := range b.Entries {
		if e.Pileup.Valid() && e.Threshold == threshold {
			out = append(out, e)
		}
	}
	return out
}

// PlotBundle returns the derived curves of variable. Summary entries are
// present only after Summarise.
func (c *Collection) PlotBundle(variable string) (*PlotBundle, error) {
	v, ok := c.meta[variable]
	if !ok {
		return nil, errors.Errorf("efficiency: unknown variable %q", variable)
	}
	b := &PlotBundle{Name: "efficiency_" + variable, Variable: variable}
	for _, t := range v.thresholds {
		if curve, ok := c.Curve(hist.SummaryKey, variable, t); ok {
			b.Entries = append(b.Entries, entry(curve, hist.Summary, fmt.Sprintf("> %v", t)))
		}
	}
	for _, t := range v.thresholds {
		for _, pu := range hist.Bins(c.pileup) {
			curve, err := c.CurveAt(pu, variable, t)
			if err != nil {
				continue
			}
			lo, hi, _ := c.pileup.Range(pu)
			b.Entries = append(b.Entries, entry(curve, pu, fmt.Sprintf("%v <= pu < %v", lo, hi)))
		}
	}
	return b, nil
}

func entry(curve *Curve, pu hist.BinIndex, label string) PlotEntry {
	return PlotEntry{
		Pileup:    pu,
		Label:     label,
		Threshold: curve.Threshold(),
		Eff:       curve.Efficiency(),
		Fit:       curve.FitResult(),
	}
}
