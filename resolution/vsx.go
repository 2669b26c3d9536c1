package resolution

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/turnon/hist"
)

// ErrInconsistent is returned when merging plots with different definitions.
var ErrInconsistent = errors.New("resolution: inconsistent plots")

// Axis is a regular binning.
type Axis struct {
	NBins     int
	Low, High float64
}

func (a Axis) args() []interface{} { return []interface{}{a.NBins, a.Low, a.High} }

// VsX holds one resolution-versus-X map per pileup bin, plus one over every
// pileup value. Each map has a profile alongside it with the mean resolution
// in every x bin.
type VsX struct {
	name    string
	fn      Func
	online  string
	offline string
	versus  string
	x, y    Axis

	pileup   *hist.Sorted
	maps     *hist.Collection[hist.Histogram]
	profiles *hist.Collection[hist.Histogram]
}

// New books the maps of (fn(online, offline)) against versus. The x axis
// bins the versus quantity and the y axis bins the resolution.
func New(fn Func, online, offline, versus string, pileupBins []float64, x, y Axis) (*VsX, error) {
	pu, err := hist.NewSorted("pileup", pileupBins, true)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("resolution_vs_%s__%s__%s", versus, online, offline)
	title := fmt.Sprintf("(%s vs. %s) against %s", online, offline, versus)
	maps, err := hist.NewFactory("Hist2D",
		hist.WithArgs(append(x.args(), y.args()...)...),
		hist.WithName(name+"__pu_%s"),
		hist.WithTitle("Resolution "+title+" in PU bin: %s"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "booking %s", name)
	}
	profiles, err := hist.NewFactory("Profile",
		hist.WithArgs(x.args()...),
		hist.WithName(name+"__pu_%s_profile"),
		hist.WithTitle("Mean resolution "+title+" in PU bin: %s"),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "booking %s profile", name)
	}

	r := &VsX{
		name:    name,
		fn:      fn,
		online:  online,
		offline: offline,
		versus:  versus,
		x:       x,
		y:       y,
		pileup:  pu,
	}
	if r.maps, err = r.book(maps); err != nil {
		return nil, err
	}
	if r.profiles, err = r.book(profiles); err != nil {
		return nil, err
	}
	return r, nil
}

// book creates one histogram of f per pileup bin plus the summary one. Every
// pileup bin is booked up front so empty maps are still drawn.
func (r *VsX) book(f *hist.Factory) (*hist.Collection[hist.Histogram], error) {
	coll, err := hist.NewCollection([]hist.Binning{r.pileup}, f.Builder(func(c hist.Coord) []interface{} {
		return []interface{}{r.PileupLabel(c[0])}
	}, nil))
	if err != nil {
		return nil, err
	}
	all, err := f.Build(r.PileupLabel(hist.Summary))
	if err != nil {
		return nil, err
	}
	if err := coll.Set(hist.Coord{hist.Summary}, all); err != nil {
		return nil, err
	}
	coll.Get(hist.All)
	return coll, nil
}

func (r *VsX) Name() string { return r.name }
func (r *VsX) Func() Func { return r.fn }
func (r *VsX) Online() string { return r.online }
func (r *VsX) Offline() string { return r.offline }
func (r *VsX) Versus() string { return r.versus }

// PileupLabel names a pileup bin in histogram names.
func (r *VsX) PileupLabel(i hist.BinIndex) string {
	switch i {
	case hist.Summary:
		return "all"
	case hist.Underflow, hist.Overflow:
		return i.String()
	}
	lo, hi, err := r.pileup.Range(i)
	if err != nil {
		return i.String()
	}
	return fmt.Sprintf("%vto%v", lo, hi)
}

// Fill adds one event to the map and profile of its pileup bin and to those
// over every pileup value. Events whose resolution is undefined are dropped.
func (r *VsX) Fill(pileup, versus, offline, online float64) {
	d := r.fn.Diff(online, offline)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return
	}
	for _, coll := range []*hist.Collection[hist.Histogram]{r.maps, r.profiles} {
		coll.Get(pileup).Fill(versus, d)
		coll.Get(hist.SummaryKey).Fill(versus, d)
	}
}

// Map returns the 2D histogram of one pileup bin, hist.Summary included.
func (r *VsX) Map(pu hist.BinIndex) (*hbook.H2D, error) {
	h, ok, err := r.maps.At(pu)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(hist.ErrNoSuchBin, "pileup bin %v", pu)
	}
	return h.(*hist.H2).H, nil
}

// Profile returns the mean resolution against x of one pileup bin,
// hist.Summary included.
func (r *VsX) Profile(pu hist.BinIndex) (*hbook.P1D, error) {
	p, ok, err := r.profiles.At(pu)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(hist.ErrNoSuchBin, "pileup bin %v", pu)
	}
	return p.(*hist.P1).P, nil
}

// Each walks the booked maps in pileup order, ending with the map over every
// pileup value.
func (r *VsX) Each(fn func(pu hist.BinIndex, name string, h *hbook.H2D)) {
	r.maps.Items(func(c hist.Coord, h hist.Histogram) {
		fn(c[0], h.Name(), h.(*hist.H2).H)
	})
}

// Consistent reports whether other books the same maps as r.
func (r *VsX) Consistent(other *VsX) bool {
	return hist.SameEdges(r.pileup.Edges(), other.pileup.Edges()) &&
		r.fn.Name == other.fn.Name &&
		r.versus == other.versus &&
		r.online == other.online &&
		r.offline == other.offline &&
		r.x == other.x && r.y == other.y
}

// Merge adds the contents of other into r.
func (r *VsX) Merge(other *VsX) error {
	if other == nil {
		return nil
	}
	if !r.Consistent(other) {
		return errors.Wrapf(ErrInconsistent, "%s and %s", r.name, other.name)
	}
	var err error
	other.Each(func(pu hist.BinIndex, _ string, src *hbook.H2D) {
		if err != nil {
			return
		}
		var dst *hbook.H2D
		if dst, err = r.Map(pu); err == nil {
			hist.AddH2D(dst, src)
		}
	})
	if err != nil {
		return err
	}
	other.profiles.Items(func(c hist.Coord, src hist.Histogram) {
		if err != nil {
			return
		}
		var dst *hbook.P1D
		if dst, err = r.Profile(c[0]); err == nil {
			err = hist.AddP1D(dst, src.(*hist.P1).P)
		}
	})
	return err
}
