package turnon

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/turnon/efficiency"
	"github.com/decibelcooper/turnon/hist"
	"github.com/decibelcooper/turnon/resolution"
)

// Canvas size of every saved plot.
var (
	PlotWidth  = 6 * vg.Inch
	PlotHeight = 4 * vg.Inch
)

// Output selects where plots go.
type Output struct {
	Dir     string
	Formats []string
	// Title is drawn on top of every plot.
	Title string
}

func (o Output) formats() []string {
	if len(o.Formats) == 0 {
		return []string{"pdf"}
	}
	return o.Formats
}

// save writes p once per output format and returns the written paths.
func (o Output) save(p *hplot.Plot, name string) ([]string, error) {
	var out []string
	for _, ext := range o.formats() {
		fname := filepath.Join(o.Dir, name+"."+strings.TrimPrefix(ext, "."))
		if err := p.Save(PlotWidth, PlotHeight, fname); err != nil {
			return out, errors.Wrapf(err, "saving %s", fname)
		}
		out = append(out, fname)
	}
	return out, nil
}

func newPlot(title, xLabel, yLabel string) *hplot.Plot {
	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	p.Y.Tick.Marker = PreciseTicks{NSuggestedTicks: 5}
	return p
}

// EfficiencyPlot overlays the curves of entries, each with its asymmetric
// error bars and, when withFits is set, its fitted turn-on.
func EfficiencyPlot(title, xLabel string, entries []efficiency.PlotEntry, withFits bool) *hplot.Plot {
	p := newPlot(title, xLabel, "efficiency")
	p.Y.Min = 0
	p.Y.Max = 1.1
	p.Legend.Top = true
	p.Legend.Left = false

	for i, e := range entries {
		col := plotutil.Color(i)
		s2d := e.Eff.S2D()
		if s2d.Len() == 0 {
			continue
		}
		pts := hplot.NewS2D(s2d, hplot.WithXErrBars(true), hplot.WithYErrBars(true))
		pts.GlyphStyle.Color = col
		pts.GlyphStyle.Shape = plotutil.Shape(i)
		if pts.XErrs != nil {
			pts.XErrs.LineStyle.Color = col
		}
		if pts.YErrs != nil {
			pts.YErrs.LineStyle.Color = col
		}
		p.Add(pts)
		p.Legend.Add(e.Label, pts)

		if withFits && e.Fit != nil {
			fn := plotter.NewFunction(e.Fit.Eval)
			fn.Color = col
			fn.Dashes = plotutil.Dashes(1)
			fn.Samples = 200
			p.Add(fn)
		}
	}
	return p
}

// DrawEfficiencies saves one plot with every threshold at integrated pileup
// and, for every threshold, one plot with every pileup bin.
func DrawEfficiencies(b *efficiency.PlotBundle, o Output, withFits bool) ([]string, error) {
	var written []string
	if summary := b.Summary(); len(summary) > 0 {
		p := EfficiencyPlot(o.Title, b.Variable, summary, withFits)
		files, err := o.save(p, b.Name)
		written = append(written, files...)
		if err != nil {
			return written, err
		}
	}

	seen := make(map[float64]bool)
	for _, e := range b.Entries {
		if seen[e.Threshold] {
			continue
		}
		seen[e.Threshold] = true
		byPU := b.ByPileup(e.Threshold)
		if len(byPU) == 0 {
			continue
		}
		title := fmt.Sprintf("%s > %v", b.Variable, e.Threshold)
		if o.Title != "" {
			title = o.Title + ", " + title
		}
		p := EfficiencyPlot(title, b.Variable, byPU, withFits)
		files, err := o.save(p, fmt.Sprintf("%s_thresh_%v", b.Name, e.Threshold))
		written = append(written, files...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// DrawResolution saves a heat map and its profile for every non-empty pileup
// bin of r.
func DrawResolution(r *resolution.VsX, o Output) ([]string, error) {
	yLabel := fmt.Sprintf(r.Func().Label, r.Online(), r.Offline())
	pal := moreland.SmoothBlueRed().Palette(255)

	var (
		written []string
		err     error
	)
	r.Each(func(pu hist.BinIndex, name string, h *hbook.H2D) {
		if err != nil || !populated(h) {
			return
		}
		title := fmt.Sprintf("pileup %s", r.PileupLabel(pu))
		if o.Title != "" {
			title = o.Title + ", " + title
		}

		p := newPlot(title, r.Versus(), yLabel)
		p.Add(hplot.NewH2D(h, pal))
		var files []string
		files, err = o.save(p, name)
		written = append(written, files...)
		if err != nil {
			return
		}

		var prof *hbook.P1D
		if prof, err = r.Profile(pu); err != nil {
			return
		}
		var pts *hbook.S2D
		if pts, err = hist.ProfilePoints(prof); err != nil || pts.Len() == 0 {
			return
		}
		pp := newPlot(title, r.Versus(), "mean "+yLabel)
		pp.Add(hplot.NewS2D(pts, hplot.WithXErrBars(true), hplot.WithYErrBars(true)))
		files, err = o.save(pp, name+"_profile")
		written = append(written, files...)
	})
	return written, err
}

func populated(h *hbook.H2D) bool {
	for i := range h.Binning.Bins {
		if h.Binning.Bins[i].SumW() != 0 {
			return true
		}
	}
	return false
}

// DrawDistributions saves the integrated offline and online distributions of
// variable. Every threshold shares them, the first one is drawn.
func DrawDistributions(c *efficiency.Collection, variable string, o Output) ([]string, error) {
	thresholds := c.Thresholds(variable)
	if len(thresholds) == 0 {
		return nil, errors.Errorf("no thresholds for variable %q", variable)
	}
	curve, ok := c.Curve(hist.SummaryKey, variable, thresholds[0])
	if !ok {
		return nil, errors.Errorf("variable %q is not summarised", variable)
	}

	p := newPlot(o.Title, variable, "events")
	p.Legend.Top = true
	for i, d := range []struct {
		label string
		h     *hbook.H1D
	}{
		{"offline", curve.Total()},
		{"online", curve.Dist()},
	} {
		hh := hplot.NewH1D(d.h)
		hh.LineStyle.Color = plotutil.Color(i)
		p.Add(hh)
		p.Legend.Add(d.label, hh)
	}
	return o.save(p, variable+"_distributions")
}

// DrawPileup saves the pileup distribution.
func DrawPileup(h *hbook.H1D, o Output) ([]string, error) {
	p := newPlot(o.Title, "number of vertices", "events")
	hh := hplot.NewH1D(h)
	hh.Infos.Style = hplot.HInfoSummary
	p.Add(hh)
	return o.save(p, "pileup")
}
