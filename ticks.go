package turnon

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// PreciseTicks places labelled ticks on round multiples of the axis range
// with unlabelled ticks in between, without the rounding noise of
// plot.DefaultTicks.
type PreciseTicks struct {
	NSuggestedTicks int
}

func (t PreciseTicks) Ticks(min, max float64) []plot.Tick {
	if max <= min {
		return []plot.Tick{{Value: min, Label: formatTick(min)}}
	}
	n := t.NSuggestedTicks
	if n < 2 {
		n = 4
	}

	mult, major := majorStep(max-min, n)
	var ticks []plot.Tick
	for v := math.Floor(min/major) * major; v <= max; v += major {
		if v >= min {
			ticks = append(ticks, plot.Tick{Value: v})
		}
	}
	// One decimal beyond the step's leading digit.
	prec := 1 - int(math.Floor(math.Log10(major)))
	if prec < 0 {
		prec = 0
	}
	for i := range ticks {
		ticks[i].Value = round(ticks[i].Value, prec)
		ticks[i].Label = formatTick(ticks[i].Value)
	}

	minor := minorStep(mult, major)
	labelled := len(ticks)
	for v := math.Floor(min/minor) * minor; v <= max; v += minor {
		if v < min || onTick(ticks[:labelled], v) {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v})
	}
	return ticks
}

// majorStep returns a step of mult powers of ten giving about n labels over
// width.
func majorStep(width float64, n int) (int, float64) {
	tens := math.Pow10(int(math.Floor(math.Log10(width))))
	for width/tens < float64(n-1) {
		tens /= 10
	}
	mult := int(width / tens / float64(n-1))
	switch mult {
	case 7:
		mult = 6
	case 9:
		mult = 8
	}
	return mult, float64(mult) * tens
}

func minorStep(mult int, major float64) float64 {
	switch mult {
	case 3, 6:
		return major / 3
	case 5:
		return major / 5
	}
	return major / 2
}

func onTick(ticks []plot.Tick, v float64) bool {
	for _, t := range ticks {
		if t.Value == v {
			return true
		}
	}
	return false
}

// round rounds x to prec decimals; integers are returned unchanged.
func round(x float64, prec int) float64 {
	if x == 0 {
		// Avoid returning -0.
		return 0
	}
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	scaled := x * pow
	if math.IsInf(scaled, 0) {
		return x
	}
	if x < 0 {
		scaled = math.Ceil(scaled - 0.5)
	} else {
		scaled = math.Floor(scaled + 0.5)
	}
	if scaled == 0 {
		return 0
	}
	return scaled / pow
}

func formatTick(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
