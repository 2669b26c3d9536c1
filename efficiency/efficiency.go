package efficiency

import (
	"go-hep.org/x/hep/hbook"
)

// Point is one reference bin of a derived efficiency.
type Point struct {
	X, XLow, XHigh float64
	Pass, Total    float64
	Eff            float64
	// Low and High bound the efficiency, Low <= Eff <= High.
	Low, High float64
}

// Efficiency is the pass/total ratio of a Curve with its uncertainties.
type Efficiency struct {
	Name      string
	Threshold float64
	Estimator Estimator
	CL        float64
	Points    []Point
}

func newEfficiency(name string, threshold float64, pass, total *hbook.H1D, est Estimator, cl float64) *Efficiency {
	e := &Efficiency{
		Name:      name,
		Threshold: threshold,
		Estimator: est,
		CL:        cl,
		Points:    make([]Point, len(total.Binning.Bins)),
	}
	for i := range total.Binning.Bins {
		bin := &total.Binning.Bins[i]
		p := Point{
			X:     bin.XMid(),
			XLow:  bin.XMin(),
			XHigh: bin.XMax(),
			Pass:  pass.Binning.Bins[i].SumW(),
			Total: bin.SumW(),
		}
		p.Eff, p.Low, p.High = est.Interval(p.Pass, p.Total, cl)
		e.Points[i] = p
	}
	return e
}

// S2D converts the bins with entries into a scatter with asymmetric errors,
// ready for hplot.
func (e *Efficiency) S2D() *hbook.S2D {
	var pts []hbook.Point2D
	for _, p := range e.Points {
		if p.Total <= 0 {
			continue
		}
		pts = append(pts, hbook.Point2D{
			X:    p.X,
			Y:    p.Eff,
			ErrX: hbook.Range{Min: p.X - p.XLow, Max: p.XHigh - p.X},
			ErrY: hbook.Range{Min: p.Eff - p.Low, Max: p.High - p.Eff},
		})
	}
	s := hbook.NewS2D(pts...)
	if ann := s.Annotation(); ann != nil {
		ann["name"] = e.Name
	}
	return s
}
