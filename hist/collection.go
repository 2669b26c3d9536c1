package hist

import (
	"github.com/pkg/errors"
)

// Coord is one BinIndex per axis, outermost first.
type Coord []BinIndex

// BuildFunc creates the leaf for a coordinate. Returning false leaves the
// coordinate empty, which keeps sparse collections sparse.
type BuildFunc[T any] func(c Coord) (T, bool)

// Collection is an n-dimensional sparse array of leaves. Leaves live in a flat
// arena addressed by a mixed-radix encoding of their coordinate; every axis
// contributes its valid bins plus the underflow, overflow and summary slots.
type Collection[T any] struct {
	axes   []Binning
	sizes  []int
	leaves []T
	built  []bool
	build  BuildFunc[T]
}

// NewCollection fails if no axes are given, if any axis is nil, or if build is
// nil.
func NewCollection[T any](axes []Binning, build BuildFunc[T]) (*Collection[T], error) {
	if len(axes) == 0 {
		return nil, errors.Wrap(ErrBadBinning, "collection needs at least one axis")
	}
	for i, ax := range axes {
		if ax == nil {
			return nil, errors.Wrapf(ErrBadBinning, "axis %d is not a binning", i)
		}
	}
	if build == nil {
		return nil, errors.New("hist: collection needs a leaf builder")
	}
	c := &Collection[T]{
		axes:  append([]Binning(nil), axes...),
		build: build,
	}
	c.layout()
	return c, nil
}

const extraSlots = 3

func (c *Collection[T]) layout() {
	c.sizes = make([]int, len(c.axes))
	n := 1
	for i, ax := range c.axes {
		c.sizes[i] = ax.Len()
		n *= c.sizes[i] + extraSlots
	}
	c.leaves = make([]T, n)
	c.built = make([]bool, n)
}

// sync re-lays the arena out when an extensible axis has grown since the last
// access.
func (c *Collection[T]) sync() {
	changed := false
	for i, ax := range c.axes {
		if ax.Len() != c.sizes[i] {
			changed = true
			break
		}
	}
	if !changed {
		return
	}
	oldSizes := c.sizes
	oldLeaves := c.leaves
	oldBuilt := c.built
	c.layout()
	for flat, ok := range oldBuilt {
		if !ok {
			continue
		}
		coord := decode(flat, oldSizes)
		nflat, err := encode(coord, c.sizes)
		if err != nil {
			// Axes only grow, so every old coordinate still fits.
			panic(err)
		}
		c.leaves[nflat] = oldLeaves[flat]
		c.built[nflat] = true
	}
}

func slot(i BinIndex, n int) (int, bool) {
	switch {
	case i >= 0 && int(i) < n:
		return int(i), true
	case i == Underflow:
		return n, true
	case i == Overflow:
		return n + 1, true
	case i == Summary:
		return n + 2, true
	}
	return 0, false
}

func unslot(s, n int) BinIndex {
	switch s {
	case n:
		return Underflow
	case n + 1:
		return Overflow
	case n + 2:
		return Summary
	}
	return BinIndex(s)
}

func encode(coord Coord, sizes []int) (int, error) {
	if len(coord) != len(sizes) {
		return 0, errors.Wrapf(ErrNoSuchBin, "coordinate %v has %d indices for %d axes", coord, len(coord), len(sizes))
	}
	flat := 0
	for i, idx := range coord {
		s, ok := slot(idx, sizes[i])
		if !ok {
			return 0, errors.Wrapf(ErrNoSuchBin, "index %v on axis %d", idx, i)
		}
		flat = flat*(sizes[i]+extraSlots) + s
	}
	return flat, nil
}

func decode(flat int, sizes []int) Coord {
	coord := make(Coord, len(sizes))
	for i := len(sizes) - 1; i >= 0; i-- {
		radix := sizes[i] + extraSlots
		coord[i] = unslot(flat%radix, sizes[i])
		flat /= radix
	}
	return coord
}

func (c *Collection[T]) Axes() []Binning { return append([]Binning(nil), c.axes...) }

// Shape is the number of valid bins per axis.
func (c *Collection[T]) Shape() []int {
	c.sync()
	return append([]int(nil), c.sizes...)
}

func (c *Collection[T]) checkSummary(coord Coord) error {
	for i, idx := range coord {
		if idx == Summary && !c.axes[i].HasSummary() {
			return errors.Wrapf(ErrNoSuchBin, "axis %q has no summary slot", c.axes[i].Label())
		}
	}
	return nil
}

func (c *Collection[T]) leaf(flat int, coord Coord) (T, bool) {
	if c.built[flat] {
		return c.leaves[flat], true
	}
	if coord.has(Summary) {
		var zero T
		return zero, false
	}
	l, ok := c.build(coord)
	if !ok {
		return l, false
	}
	c.leaves[flat] = l
	c.built[flat] = true
	return l, true
}

func (coord Coord) has(i BinIndex) bool {
	for _, idx := range coord {
		if idx == i {
			return true
		}
	}
	return false
}

// At returns the leaf at an explicit coordinate, building it if needed.
// Indices outside an axis' registered range yield ErrNoSuchBin; a coordinate
// the builder declines yields ok == false.
func (c *Collection[T]) At(indices ...BinIndex) (T, bool, error) {
	c.sync()
	var zero T
	coord := Coord(indices)
	flat, err := encode(coord, c.sizes)
	if err != nil {
		return zero, false, err
	}
	if err := c.checkSummary(coord); err != nil {
		return zero, false, err
	}
	l, ok := c.leaf(flat, append(Coord(nil), coord...))
	return l, ok, nil
}

// Set stores leaf at coord, replacing any existing one.
func (c *Collection[T]) Set(coord Coord, leaf T) error {
	c.sync()
	flat, err := encode(coord, c.sizes)
	if err != nil {
		return err
	}
	if err := c.checkSummary(coord); err != nil {
		return err
	}
	c.leaves[flat] = leaf
	c.built[flat] = true
	return nil
}

// Get resolves keys through the axes and returns a view over every matching
// leaf. Missing trailing keys select every valid bin of their axis.
func (c *Collection[T]) Get(keys ...interface{}) View[T] {
	c.sync()
	if len(keys) > len(c.axes) {
		keys = keys[:len(c.axes)]
	}
	matches := make([][]BinIndex, len(c.axes))
	for i, ax := range c.axes {
		if i >= len(keys) || keys[i] == All {
			matches[i] = Bins(ax)
			continue
		}
		matches[i] = ax.Find(keys[i])
	}

	var v View[T]
	for _, coord := range product(matches) {
		flat, err := encode(coord, c.sizes)
		if err != nil {
			continue
		}
		if l, ok := c.leaf(flat, coord); ok {
			v.coords = append(v.coords, coord)
			v.leaves = append(v.leaves, l)
		}
	}
	return v
}

// Items walks every built leaf in coordinate order, summary slots included.
func (c *Collection[T]) Items(fn func(Coord, T)) {
	c.sync()
	for flat, ok := range c.built {
		if ok {
			fn(decode(flat, c.sizes), c.leaves[flat])
		}
	}
}

// Len is the number of built leaves.
func (c *Collection[T]) Len() int {
	n := 0
	for _, ok := range c.built {
		if ok {
			n++
		}
	}
	return n
}

func product(matches [][]BinIndex) []Coord {
	out := []Coord{{}}
	for _, m := range matches {
		if len(m) == 0 {
			return nil
		}
		next := make([]Coord, 0, len(out)*len(m))
		for _, prefix := range out {
			for _, idx := range m {
				coord := make(Coord, len(prefix), len(prefix)+1)
				copy(coord, prefix)
				next = append(next, append(coord, idx))
			}
		}
		out = next
	}
	return out
}

// View is the set of leaves matched by a lookup.
type View[T any] struct {
	coords []Coord
	leaves []T
}

func (v View[T]) Len() int { return len(v.leaves) }
func (v View[T]) Leaves() []T { return v.leaves }
func (v View[T]) Coords() []Coord { return v.coords }

func (v View[T]) Each(fn func(Coord, T)) {
	for i, l := range v.leaves {
		fn(v.coords[i], l)
	}
}

// Filler is implemented by leaves that accept a broadcast fill.
type Filler interface {
	Fill(values ...float64)
}

// Fill calls Fill on every leaf implementing Filler. Leaves with any other
// Fill signature, such as efficiency curves, are skipped; fill those through
// Each.
func (v View[T]) Fill(values ...float64) {
	for _, l := range v.leaves {
		if f, ok := interface{}(l).(Filler); ok {
			f.Fill(values...)
		}
	}
}

// Collect maps fn over the leaves of v.
func Collect[T, V any](v View[T], fn func(T) V) []V {
	out := make([]V, len(v.leaves))
	for i, l := range v.leaves {
		out[i] = fn(l)
	}
	return out
}
