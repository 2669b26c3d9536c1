package recalc

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Tower is a calorimeter trigger tower as read from the event.
type Tower struct {
	IEta int `yaml:"ieta"`
	IPhi int `yaml:"iphi"`
	// IEt is the hardware energy code, in units of Geometry.EtLSB.
	IEt int `yaml:"iet"`
}

// Geometry converts tower indices into physical quantities.
type Geometry struct {
	PhiSegments int     `yaml:"phiSegments"`
	EtLSB       float64 `yaml:"etLSB"`
}

// DefaultGeometry has 72 azimuthal segments of 5 degrees and 0.5 GeV per
// energy count. iphi 18 is then at 90 degrees, not opposite iphi 0; that takes
// iphi 36, or PhiSegments 36.
var DefaultGeometry = Geometry{PhiSegments: 72, EtLSB: 0.5}

func (g Geometry) Phi(t Tower) float64 { return 2 * math.Pi / float64(g.PhiSegments) * float64(t.IPhi) }
func (g Geometry) Et(t Tower) float64 { return g.EtLSB * float64(t.IEt) }

// MET is a missing transverse energy vector.
type MET struct {
	X, Y float64
	Mag  float64
	Phi  float64
}

// Exclude reports whether a tower is dropped before anything else.
type Exclude func(t Tower) bool

// Subtract returns the pileup-corrected energy of a tower.
type Subtract func(t Tower, et, pileup float64) float64

// Threshold returns the minimum energy a tower needs to contribute.
type Threshold func(t Tower, pileup float64) float64

// ThresholdOrder selects whether the tower threshold is compared with the raw
// or the pileup-subtracted energy.
type ThresholdOrder int

const (
	ThresholdBeforeSubtraction ThresholdOrder = iota
	ThresholdAfterSubtraction
)

func (o ThresholdOrder) String() string {
	if o == ThresholdAfterSubtraction {
		return "after"
	}
	return "before"
}

// ParseThresholdOrder accepts "before" and "after"; the empty string means
// before.
func ParseThresholdOrder(s string) (ThresholdOrder, error) {
	switch strings.ToLower(s) {
	case "", "before":
		return ThresholdBeforeSubtraction, nil
	case "after":
		return ThresholdAfterSubtraction, nil
	}
	return 0, errors.Errorf("recalc: unknown threshold order %q", s)
}

// Recalculator reduces a tower collection to a MET vector.
type Recalculator struct {
	name      string
	exclude   Exclude
	subtract  Subtract
	threshold Threshold
	order     ThresholdOrder
	geometry  Geometry
	last      MET
}

type Option func(*Recalculator)

func WithExclude(f Exclude) Option { return func(r *Recalculator) { r.exclude = f } }
func WithSubtract(f Subtract) Option { return func(r *Recalculator) { r.subtract = f } }
func WithThreshold(f Threshold) Option { return func(r *Recalculator) { r.threshold = f } }
func WithOrder(o ThresholdOrder) Option { return func(r *Recalculator) { r.order = o } }
func WithGeometry(g Geometry) Option { return func(r *Recalculator) { r.geometry = g } }

func New(name string, opts ...Option) *Recalculator {
	r := &Recalculator{name: name, geometry: DefaultGeometry}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recalculator) Name() string { return r.name }

// Last returns the result of the previous Calculate call.
func (r *Recalculator) Last() MET { return r.last }

// Calculate recomputes the MET of towers from scratch.
func (r *Recalculator) Calculate(towers []Tower, pileup float64) MET {
	var x, y float64
	for _, t := range towers {
		if r.exclude != nil && r.exclude(t) {
			continue
		}
		et := r.geometry.Et(t)
		phi := r.geometry.Phi(t)

		var cut float64
		if r.threshold != nil {
			cut = r.threshold(t, pileup)
		}
		if r.threshold != nil && r.order == ThresholdBeforeSubtraction && et < cut {
			continue
		}
		if r.subtract != nil {
			et = math.Max(0, r.subtract(t, et, pileup))
		}
		if r.threshold != nil && r.order == ThresholdAfterSubtraction && et < cut {
			continue
		}

		x -= et * math.Cos(phi)
		y -= et * math.Sin(phi)
	}

	met := MET{X: x, Y: y, Mag: math.Hypot(x, y)}
	if met.Mag > 0 {
		met.Phi = math.Atan2(y, x)
	}
	r.last = met
	return met
}
