package hist

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/hbook"
)

// ErrMismatch is returned when adding histograms with different binnings.
var ErrMismatch = errors.New("hist: histograms with different binnings")

// SameEdges reports whether a and b are identical bin edges.
func SameEdges(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func AddDist1D(dst *hbook.Dist1D, src hbook.Dist1D) {
	dst.Dist.N += src.Dist.N
	dst.Dist.SumW += src.Dist.SumW
	dst.Dist.SumW2 += src.Dist.SumW2
	dst.Stats.SumWX += src.Stats.SumWX
	dst.Stats.SumWX2 += src.Stats.SumWX2
}

func AddDist2D(dst *hbook.Dist2D, src hbook.Dist2D) {
	AddDist1D(&dst.X, src.X)
	AddDist1D(&dst.Y, src.Y)
	dst.Stats.SumWXY += src.Stats.SumWXY
}

// AddH1D adds src into dst bin by bin, outflows included. Both must share
// their binning.
func AddH1D(dst, src *hbook.H1D) {
	for i := range dst.Binning.Bins {
		AddDist1D(&dst.Binning.Bins[i].Dist, src.Binning.Bins[i].Dist)
	}
	AddDist1D(&dst.Binning.Dist, src.Binning.Dist)
	for i := range dst.Binning.Outflows {
		AddDist1D(&dst.Binning.Outflows[i], src.Binning.Outflows[i])
	}
}

// AddH2D adds src into dst bin by bin, outflows included. Both must share
// their binning.
func AddH2D(dst, src *hbook.H2D) {
	for i := range dst.Binning.Bins {
		AddDist2D(&dst.Binning.Bins[i].Dist, src.Binning.Bins[i].Dist)
	}
	AddDist2D(&dst.Binning.Dist, src.Binning.Dist)
	for i := range dst.Binning.Outflows {
		AddDist2D(&dst.Binning.Outflows[i], src.Binning.Outflows[i])
	}
}

// AddP1D adds src into dst bin by bin, outflows included.
func AddP1D(dst, src *hbook.P1D) error {
	if len(dst.Binning().Bins()) != len(src.Binning().Bins()) ||
		dst.XMin() != src.XMin() || dst.XMax() != src.XMax() {
		return errors.Wrapf(ErrMismatch, "profiles %q and %q", dst.Name(), src.Name())
	}
	d, err := readMoments(dst)
	if err != nil {
		return err
	}
	s, err := readMoments(src)
	if err != nil {
		return err
	}
	for i := range d.bins {
		AddDist2D(&d.bins[i], s.bins[i])
	}
	AddDist2D(&d.total, s.total)
	for i := range d.outflows {
		AddDist2D(&d.outflows[i], s.outflows[i])
	}
	return d.writeTo(dst)
}

// ProfilePoints reduces p to the mean y of every non-empty bin, with the
// standard error on that mean. x errors span half the bin width.
func ProfilePoints(p *hbook.P1D) (*hbook.S2D, error) {
	m, err := readMoments(p)
	if err != nil {
		return nil, err
	}
	bins := p.Binning().Bins()
	pts := make([]hbook.Point2D, 0, len(bins))
	for i := range m.bins {
		d := &m.bins[i]
		sumw := d.SumW()
		if sumw <= 0 {
			continue
		}
		mean := d.SumWY() / sumw
		variance := math.Max(0, d.SumWY2()/sumw-mean*mean)
		ey := math.Sqrt(variance / d.EffEntries())
		ex := bins[i].XWidth() / 2
		pts = append(pts, hbook.Point2D{
			X:    bins[i].XMid(),
			Y:    mean,
			ErrX: hbook.Range{Min: ex, Max: ex},
			ErrY: hbook.Range{Min: ey, Max: ey},
		})
	}
	return hbook.NewS2D(pts...), nil
}

// profileMoments are the per-bin moments of a P1D. hbook keeps them
// unexported, so they travel through its binary encoding.
type profileMoments struct {
	ranges   [][]byte
	bins     []hbook.Dist2D
	total    hbook.Dist2D
	outflows [2]hbook.Dist2D
	axis     []byte
}

var errCorrupt = errors.New("hist: truncated profile encoding")

func readChunk(data []byte) (chunk, rest []byte, err error) {
	if len(data) < 8 {
		return nil, nil, errCorrupt
	}
	n := binary.LittleEndian.Uint64(data[:8])
	data = data[8:]
	if uint64(len(data)) < n {
		return nil, nil, errCorrupt
	}
	return data[:n], data[n:], nil
}

func appendChunk(data, chunk []byte) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(chunk)))
	data = append(data, buf[:]...)
	return append(data, chunk...)
}

func readDist2D(data []byte, d *hbook.Dist2D) ([]byte, error) {
	chunk, rest, err := readChunk(data)
	if err != nil {
		return nil, err
	}
	if err := d.UnmarshalBinary(chunk); err != nil {
		return nil, errors.Wrap(err, "hist: decoding profile moments")
	}
	return rest, nil
}

func readMoments(p *hbook.P1D) (*profileMoments, error) {
	data, err := p.Binning().MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "hist: encoding profile")
	}
	if len(data) < 8 {
		return nil, errCorrupt
	}
	n := int(binary.LittleEndian.Uint64(data[:8]))
	data = data[8:]
	m := &profileMoments{
		ranges: make([][]byte, n),
		bins:   make([]hbook.Dist2D, n),
	}
	for i := 0; i < n; i++ {
		var bin []byte
		if bin, data, err = readChunk(data); err != nil {
			return nil, err
		}
		if m.ranges[i], bin, err = readChunk(bin); err != nil {
			return nil, err
		}
		if _, err = readDist2D(bin, &m.bins[i]); err != nil {
			return nil, err
		}
	}
	if data, err = readDist2D(data, &m.total); err != nil {
		return nil, err
	}
	for i := range m.outflows {
		if data, err = readDist2D(data, &m.outflows[i]); err != nil {
			return nil, err
		}
	}
	m.axis = data
	return m, nil
}

func (m *profileMoments) writeTo(p *hbook.P1D) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(m.bins)))
	data := append([]byte(nil), buf[:]...)
	for i := range m.bins {
		dist, err := m.bins[i].MarshalBinary()
		if err != nil {
			return err
		}
		data = appendChunk(data, appendChunk(appendChunk(nil, m.ranges[i]), dist))
	}
	dists := append([]hbook.Dist2D{m.total}, m.outflows[:]...)
	for i := range dists {
		dist, err := dists[i].MarshalBinary()
		if err != nil {
			return err
		}
		data = appendChunk(data, dist)
	}
	data = append(data, m.axis...)
	return errors.Wrap(p.Binning().UnmarshalBinary(data), "hist: decoding profile")
}
