package efficiency

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// OneSigma is the central probability content of a one standard deviation
// Gaussian interval.
const OneSigma = 0.682689492137086

// Estimator derives a ratio and its uncertainty interval from pass and total
// counts.
type Estimator int

const (
	ClopperPearson Estimator = iota
	Normal
	Bayesian
)

func (e Estimator) String() string {
	switch e {
	case Normal:
		return "normal"
	case Bayesian:
		return "bayesian"
	}
	return "clopper-pearson"
}

// ParseEstimator accepts the names returned by String.
func ParseEstimator(s string) (Estimator, error) {
	switch strings.ToLower(s) {
	case "", "clopper-pearson", "cp":
		return ClopperPearson, nil
	case "normal", "binomial":
		return Normal, nil
	case "bayesian", "bayes":
		return Bayesian, nil
	}
	return 0, errors.Errorf("efficiency: unknown estimator %q", s)
}

// Interval returns the efficiency pass/total and its lower and upper bounds at
// confidence level cl. A bin without entries yields (0, 0, 0).
func (e Estimator) Interval(pass, total, cl float64) (eff, low, high float64) {
	if total <= 0 {
		return 0, 0, 0
	}
	pass = math.Min(math.Max(pass, 0), total)
	eff = pass / total
	alpha := (1 - cl) / 2

	switch e {
	case Normal:
		sigma := math.Sqrt(eff * (1 - eff) / total)
		z := distuv.UnitNormal.Quantile(1 - alpha)
		return eff, math.Max(0, eff-z*sigma), math.Min(1, eff+z*sigma)

	case Bayesian:
		// Uniform prior: the posterior is Beta(pass+1, total-pass+1).
		post := distuv.Beta{Alpha: pass + 1, Beta: total - pass + 1}
		return eff, math.Min(eff, post.Quantile(alpha)), math.Max(eff, post.Quantile(1-alpha))
	}

	low, high = 0, 1
	if pass > 0 {
		low = distuv.Beta{Alpha: pass, Beta: total - pass + 1}.Quantile(alpha)
	}
	if pass < total {
		high = distuv.Beta{Alpha: pass + 1, Beta: total - pass}.Quantile(1 - alpha)
	}
	return eff, low, high
}
