package efficiency

import (
	"math"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/fit"
	"gonum.org/v1/gonum/optimize"
)

var ErrNotEnoughPoints = errors.New("efficiency: not enough populated bins to fit")

// TurnOn is the error-function turn-on model
//
//	f(x) = plateau/2 * (1 + erf((x - mu) / (sqrt(2) * sigma)))
func TurnOn(x, mu, sigma, plateau float64) float64 {
	return 0.5 * plateau * (1 + math.Erf((x-mu)/(math.Sqrt2*math.Abs(sigma))))
}

// FitResult holds the fitted TurnOn parameters.
type FitResult struct {
	Mu, Sigma, Plateau float64
	// Chi2 is the weighted sum of squared residuals at the minimum.
	Chi2 float64
}

func (r *FitResult) Eval(x float64) float64 { return TurnOn(x, r.Mu, r.Sigma, r.Plateau) }

// Fit fits TurnOn to the derived efficiency. It never touches the pass, total
// and dist counts.
func (c *Curve) Fit() (*FitResult, error) {
	eff := c.Efficiency()

	var xs, ys, errs []float64
	for _, p := range eff.Points {
		if p.Total <= 0 {
			continue
		}
		xs = append(xs, p.X)
		ys = append(ys, p.Eff)
		// Symmetrised interval, floored so that empty-error bins still count.
		errs = append(errs, math.Max(0.5*(p.High-p.Low), 1e-3))
	}
	if len(xs) < 3 {
		return nil, errors.Wrapf(ErrNotEnoughPoints, "%s has %d", c.name, len(xs))
	}

	width := 0.1 * (c.edges[len(c.edges)-1] - c.edges[0])
	if c.threshold > 0 {
		width = math.Max(width, 0.1*c.threshold)
	}
	res, err := fit.Curve1D(
		fit.Func1D{
			F: func(x float64, ps []float64) float64 {
				return TurnOn(x, ps[0], ps[1], ps[2])
			},
			X:   xs,
			Y:   ys,
			Err: errs,
			Ps:  []float64{c.threshold, width, 1},
		},
		nil, &optimize.NelderMead{},
	)
	if err != nil {
		return nil, errors.Wrapf(err, "fitting %s", c.name)
	}

	c.fit = &FitResult{
		Mu:      res.X[0],
		Sigma:   math.Abs(res.X[1]),
		Plateau: res.X[2],
		Chi2:    res.F,
	}
	return c.fit, nil
}
