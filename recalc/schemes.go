package recalc

import (
	"math"

	"github.com/decibelcooper/turnon/hist"
)

// Calorimeter boundaries in |ieta|.
const (
	LastBarrelIEta = 16
	LastEndcapIEta = 28
	LastHFIEta     = 41
)

func absIEta(t Tower) int {
	if t.IEta < 0 {
		return -t.IEta
	}
	return t.IEta
}

// ExcludeAbsIEta drops towers with low <= |ieta| <= high.
func ExcludeAbsIEta(low, high int) Exclude {
	return func(t Tower) bool {
		a := absIEta(t)
		return a >= low && a <= high
	}
}

// KeepAbsIEta drops every tower outside low <= |ieta| <= high.
func KeepAbsIEta(low, high int) Exclude {
	return func(t Tower) bool {
		a := absIEta(t)
		return a < low || a > high
	}
}

// PerTowerPileup subtracts a fixed amount per pileup vertex from every tower.
func PerTowerPileup(perVertex float64) Subtract {
	return func(_ Tower, et, pileup float64) float64 {
		return et - perVertex*pileup
	}
}

// RegionalPileup subtracts perVertex[region]*pileup, with the region of the
// tower's ieta taken from CaloRegions. Towers beyond the forward calorimeter
// count as forward.
func RegionalPileup(barrel, endcap, forward float64) Subtract {
	regions := CaloRegions()
	perVertex := []float64{barrel, endcap, forward}
	return func(t Tower, et, pileup float64) float64 {
		for _, i := range regions.Find(t.IEta) {
			if int(i) < len(perVertex) {
				return et - perVertex[i]*pileup
			}
		}
		return et - forward*pileup
	}
}

func ConstantThreshold(v float64) Threshold {
	return func(Tower, float64) float64 { return v }
}

// PileupThreshold raises the tower threshold linearly with pileup.
func PileupThreshold(base, perVertex float64) Threshold {
	return func(_ Tower, pileup float64) float64 {
		return base + perVertex*math.Max(0, pileup)
	}
}

// StandardSchemes are the tower selections studied for L1 MET. opts, such as
// WithGeometry, apply to every scheme before its own selection.
func StandardSchemes(opts ...Option) []*Recalculator {
	scheme := func(name string, own ...Option) *Recalculator {
		all := make([]Option, 0, len(opts)+len(own))
		all = append(all, opts...)
		return New(name, append(all, own...)...)
	}
	return []*Recalculator{
		scheme("l1MetFull"),
		scheme("l1MetHFOnly", WithExclude(ExcludeAbsIEta(0, LastEndcapIEta))),
		scheme("l1MetNot28", WithExclude(ExcludeAbsIEta(LastEndcapIEta, LastEndcapIEta))),
		scheme("l1Met28AndHF", WithExclude(ExcludeAbsIEta(0, LastEndcapIEta-1))),
		scheme("l1Met28Only", WithExclude(KeepAbsIEta(LastEndcapIEta, LastEndcapIEta))),
		scheme("l1MetNoHF", WithExclude(ExcludeAbsIEta(LastEndcapIEta+1, LastHFIEta))),
	}
}

// CaloRegions bins |ieta| into calorimeter regions; "central" overlaps the
// barrel and the endcap.
func CaloRegions() *hist.Regions {
	within := func(low, high int) func(float64) bool {
		return func(v float64) bool {
			a := math.Abs(v)
			return a >= float64(low) && a <= float64(high)
		}
	}
	r, err := hist.NewRegions("calo",
		hist.Region{Name: "barrel", Contains: within(0, LastBarrelIEta)},
		hist.Region{Name: "endcap", Contains: within(LastBarrelIEta+1, LastEndcapIEta)},
		hist.Region{Name: "forward", Contains: within(LastEndcapIEta+1, LastHFIEta)},
		hist.Region{Name: "central", Contains: within(0, LastEndcapIEta)},
	)
	if err != nil {
		panic(err)
	}
	return r
}
