package hist

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// BinIndex identifies a bin along one axis. Valid bins are numbered from 0;
// negative values are sentinels.
type BinIndex int

const (
	Underflow BinIndex = -1
	Overflow  BinIndex = -2
	// Summary is the cross-bin slot filled by an explicit summarisation step.
	// It is never produced by Find and never returned by Bins.
	Summary BinIndex = -3
)

func (i BinIndex) String() string {
	switch i {
	case Underflow:
		return "underflow"
	case Overflow:
		return "overflow"
	case Summary:
		return "sum"
	}
	return fmt.Sprint(int(i))
}

// Valid reports whether i is an ordinary bin rather than a sentinel.
func (i BinIndex) Valid() bool { return i >= 0 }

var (
	ErrNoSuchBin  = errors.New("hist: no such bin")
	ErrBadBinning = errors.New("hist: invalid binning")
)

// Binning maps a key to zero or more bins of one axis.
type Binning interface {
	Label() string
	// Len is the number of valid bins.
	Len() int
	Find(key interface{}) []BinIndex
	// HasSummary reports whether the axis carries a Summary slot.
	HasSummary() bool
}

// Bins lists the valid indices of b.
func Bins(b Binning) []BinIndex {
	out := make([]BinIndex, b.Len())
	for i := range out {
		out[i] = BinIndex(i)
	}
	return out
}

type summaryKey struct{}

// SummaryKey addresses the Summary slot of an axis that has one.
var SummaryKey = summaryKey{}

type allKey struct{}

// All selects every valid bin of an axis.
var All = allKey{}

// Sorted is an ordered-exclusive binning over ascending edges.
type Sorted struct {
	label   string
	edges   []float64
	summary bool
}

// NewSorted sorts a copy of edges and rejects duplicates.
func NewSorted(label string, edges []float64, withSummary bool) (*Sorted, error) {
	if len(edges) < 2 {
		return nil, errors.Wrapf(ErrBadBinning, "%q needs at least two edges", label)
	}
	e := append([]float64(nil), edges...)
	sort.Float64s(e)
	for i := 1; i < len(e); i++ {
		if !(e[i] > e[i-1]) {
			return nil, errors.Wrapf(ErrBadBinning, "%q has repeated edge %v", label, e[i])
		}
	}
	return &Sorted{label: label, edges: e, summary: withSummary}, nil
}

func (s *Sorted) Label() string { return s.label }
func (s *Sorted) Len() int { return len(s.edges) - 1 }
func (s *Sorted) HasSummary() bool { return s.summary }
func (s *Sorted) Edges() []float64 { return append([]float64(nil), s.edges...) }

// Range returns the [low, high) interval of bin i.
func (s *Sorted) Range(i BinIndex) (float64, float64, error) {
	if i < 0 || int(i) >= s.Len() {
		return 0, 0, errors.Wrapf(ErrNoSuchBin, "%q bin %v", s.label, i)
	}
	return s.edges[i], s.edges[i+1], nil
}

func (s *Sorted) Find(key interface{}) []BinIndex {
	if key == SummaryKey {
		if s.summary {
			return []BinIndex{Summary}
		}
		return nil
	}
	v, ok := toFloat(key)
	if !ok {
		return nil
	}
	return []BinIndex{s.find(v)}
}

func (s *Sorted) find(v float64) BinIndex {
	switch {
	case v < s.edges[0]:
		return Underflow
	case v >= s.edges[len(s.edges)-1] || math.IsNaN(v):
		return Overflow
	}
	return BinIndex(floats.Within(s.edges, v))
}

// Interval is a half-open [Low, High) range.
type Interval struct {
	Low, High float64
}

func (iv Interval) Contains(v float64) bool { return v >= iv.Low && v < iv.High }

// Overlapping holds intervals that may overlap; a value belongs to every
// interval containing it, or to Overflow when none does.
type Overlapping struct {
	label     string
	intervals []Interval
}

func NewOverlapping(label string, intervals []Interval) (*Overlapping, error) {
	if len(intervals) == 0 {
		return nil, errors.Wrapf(ErrBadBinning, "%q has no intervals", label)
	}
	for _, iv := range intervals {
		if !(iv.High > iv.Low) {
			return nil, errors.Wrapf(ErrBadBinning, "%q has empty interval [%v, %v)", label, iv.Low, iv.High)
		}
	}
	return &Overlapping{label: label, intervals: append([]Interval(nil), intervals...)}, nil
}

func (o *Overlapping) Label() string { return o.label }
func (o *Overlapping) Len() int { return len(o.intervals) }
func (o *Overlapping) HasSummary() bool { return false }

func (o *Overlapping) Interval(i BinIndex) (Interval, error) {
	if i < 0 || int(i) >= len(o.intervals) {
		return Interval{}, errors.Wrapf(ErrNoSuchBin, "%q bin %v", o.label, i)
	}
	return o.intervals[i], nil
}

func (o *Overlapping) Find(key interface{}) []BinIndex {
	v, ok := toFloat(key)
	if !ok {
		return nil
	}
	var found []BinIndex
	for i, iv := range o.intervals {
		if iv.Contains(v) {
			found = append(found, BinIndex(i))
		}
	}
	if len(found) == 0 {
		return []BinIndex{Overflow}
	}
	return found
}

// Region is a named predicate over a value.
type Region struct {
	Name     string
	Contains func(v float64) bool
}

// Regions bins a value into every region whose predicate holds.
type Regions struct {
	label   string
	regions []Region
}

func NewRegions(label string, regions ...Region) (*Regions, error) {
	if len(regions) == 0 {
		return nil, errors.Wrapf(ErrBadBinning, "%q has no regions", label)
	}
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		if r.Contains == nil {
			return nil, errors.Wrapf(ErrBadBinning, "%q region %q has no predicate", label, r.Name)
		}
		if seen[r.Name] {
			return nil, errors.Wrapf(ErrBadBinning, "%q region %q defined twice", label, r.Name)
		}
		seen[r.Name] = true
	}
	return &Regions{label: label, regions: append([]Region(nil), regions...)}, nil
}

func (r *Regions) Label() string { return r.label }
func (r *Regions) Len() int { return len(r.regions) }
func (r *Regions) HasSummary() bool { return false }

func (r *Regions) Name(i BinIndex) (string, error) {
	if i < 0 || int(i) >= len(r.regions) {
		return "", errors.Wrapf(ErrNoSuchBin, "%q bin %v", r.label, i)
	}
	return r.regions[i].Name, nil
}

func (r *Regions) Find(key interface{}) []BinIndex {
	v, ok := toFloat(key)
	if !ok {
		return nil
	}
	var found []BinIndex
	for i, reg := range r.regions {
		if reg.Contains(v) {
			found = append(found, BinIndex(i))
		}
	}
	return found
}

// Categories is an extensible axis of string labels matched exactly.
type Categories struct {
	label  string
	names  []string
	lookup map[string]BinIndex
}

func NewCategories(label string, names ...string) *Categories {
	c := &Categories{label: label, lookup: make(map[string]BinIndex)}
	for _, n := range names {
		c.Add(n)
	}
	return c
}

// Add appends name if it is new and returns its index.
func (c *Categories) Add(name string) BinIndex {
	if i, ok := c.lookup[name]; ok {
		return i
	}
	i := BinIndex(len(c.names))
	c.names = append(c.names, name)
	c.lookup[name] = i
	return i
}

func (c *Categories) Label() string { return c.label }
func (c *Categories) Len() int { return len(c.names) }
func (c *Categories) HasSummary() bool { return false }

func (c *Categories) Name(i BinIndex) (string, error) {
	if i < 0 || int(i) >= len(c.names) {
		return "", errors.Wrapf(ErrNoSuchBin, "%q bin %v", c.label, i)
	}
	return c.names[i], nil
}

func (c *Categories) Find(key interface{}) []BinIndex {
	name, ok := key.(string)
	if !ok {
		return nil
	}
	if i, ok := c.lookup[name]; ok {
		return []BinIndex{i}
	}
	return nil
}

// Values is an extensible axis of discrete numbers matched exactly, such as
// trigger thresholds.
type Values struct {
	label  string
	values []float64
}

func NewValues(label string, values ...float64) *Values {
	v := &Values{label: label}
	for _, x := range values {
		v.Add(x)
	}
	return v
}

func (v *Values) Add(x float64) BinIndex {
	for i, y := range v.values {
		if y == x {
			return BinIndex(i)
		}
	}
	v.values = append(v.values, x)
	return BinIndex(len(v.values) - 1)
}

func (v *Values) Label() string { return v.label }
func (v *Values) Len() int { return len(v.values) }
func (v *Values) HasSummary() bool { return false }

func (v *Values) Value(i BinIndex) (float64, error) {
	if i < 0 || int(i) >= len(v.values) {
		return 0, errors.Wrapf(ErrNoSuchBin, "%q bin %v", v.label, i)
	}
	return v.values[i], nil
}

func (v *Values) Find(key interface{}) []BinIndex {
	x, ok := toFloat(key)
	if !ok {
		return nil
	}
	for i, y := range v.values {
		if y == x {
			return []BinIndex{BinIndex(i)}
		}
	}
	return nil
}

func toFloat(key interface{}) (float64, bool) {
	switch v := key.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
