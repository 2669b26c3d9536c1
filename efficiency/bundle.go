package efficiency

import (
	"bufio"
	"encoding/gob"
	"io"
	"os"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/yodacnv"

	"github.com/decibelcooper/turnon/hist"
)

const bundleVersion = 1

type bundle struct {
	Version     int
	PileupEdges []float64
	PileupHist  *hbook.H1D
	Estimator   Estimator
	CL          float64
	Variables   []bundleVariable
	Curves      []bundleCurve
}

type bundleVariable struct {
	Name       string
	Edges      []float64
	Thresholds []float64
}

type bundleCurve struct {
	Pileup    hist.BinIndex
	Variable  string
	Threshold float64
	Name      string
	Pass      *hbook.H1D
	Total     *hbook.H1D
	Dist      *hbook.H1D
}

// WriteTo summarises c, recomputes every efficiency and encodes the pass,
// total and dist histograms of every curve with their metadata.
func (c *Collection) WriteTo(w io.Writer) (int64, error) {
	c.Summarise()
	c.ComputeAllEfficiencies()

	b := bundle{
		Version:     bundleVersion,
		PileupEdges: c.pileup.Edges(),
		PileupHist:  c.pileupHist,
		Estimator:   c.estimator,
		CL:          c.cl,
	}
	for _, name := range c.Variables() {
		v := c.meta[name]
		b.Variables = append(b.Variables, bundleVariable{
			Name:       name,
			Edges:      v.edges,
			Thresholds: v.thresholds,
		})
	}
	c.curves.Items(func(coord hist.Coord, curve *Curve) {
		name, _ := c.variables.Name(coord[1])
		b.Curves = append(b.Curves, bundleCurve{
			Pileup:    coord[0],
			Variable:  name,
			Threshold: curve.threshold,
			Name:      curve.name,
			Pass:      curve.pass,
			Total:     curve.total,
			Dist:      curve.dist,
		})
	})

	cw := &countingWriter{w: w}
	if err := gob.NewEncoder(cw).Encode(&b); err != nil {
		return cw.n, errors.Wrap(err, "encoding efficiency bundle")
	}
	return cw.n, nil
}

// Read decodes a bundle written by WriteTo and rederives every efficiency.
func Read(r io.Reader, opts ...Option) (*Collection, error) {
	var b bundle
	if err := gob.NewDecoder(r).Decode(&b); err != nil {
		return nil, errors.Wrap(err, "decoding efficiency bundle")
	}
	if b.Version != bundleVersion {
		return nil, errors.Errorf("efficiency: bundle version %d, want %d", b.Version, bundleVersion)
	}

	opts = append([]Option{WithEstimator(b.Estimator, b.CL)}, opts...)
	c, err := NewCollection(b.PileupEdges, opts...)
	if err != nil {
		return nil, err
	}
	for _, v := range b.Variables {
		if err := c.AddVariable(v.Name, v.Edges, v.Thresholds); err != nil {
			return nil, errors.Wrapf(err, "restoring variable %s", v.Name)
		}
	}
	if b.PileupHist != nil {
		c.pileupHist = b.PileupHist
	}

	for _, bc := range b.Curves {
		vi := c.variables.Find(bc.Variable)
		ti := c.thresholds.Find(bc.Threshold)
		if len(vi) == 0 || len(ti) == 0 {
			return nil, errors.Wrapf(hist.ErrNoSuchBin, "curve %s", bc.Name)
		}
		edges := c.meta[bc.Variable].edges
		if bc.Pass == nil || bc.Total == nil || bc.Dist == nil ||
			len(bc.Total.Binning.Bins) != len(edges)-1 {
			return nil, errors.Wrapf(ErrIncompatible, "curve %s", bc.Name)
		}
		curve := &Curve{
			name:      bc.Name,
			threshold: bc.Threshold,
			edges:     append([]float64(nil), edges...),
			pass:      bc.Pass,
			total:     bc.Total,
			dist:      bc.Dist,
			estimator: c.estimator,
			cl:        c.cl,
		}
		if err := c.curves.Set(hist.Coord{bc.Pileup, vi[0], ti[0]}, curve); err != nil {
			return nil, errors.Wrapf(err, "restoring curve %s", bc.Name)
		}
	}
	c.ComputeAllEfficiencies()
	return c, nil
}

// Save writes c to a file.
func (c *Collection) Save(fname string) error {
	f, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "creating bundle file")
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if _, err := c.WriteTo(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "writing %s", fname)
	}
	return errors.Wrapf(f.Close(), "closing %s", fname)
}

// Load reads a collection from a file written by Save.
func Load(fname string, opts ...Option) (*Collection, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrap(err, "opening bundle file")
	}
	defer f.Close()
	c, err := Read(bufio.NewReader(f), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", fname)
	}
	return c, nil
}

// ExportYODA writes the summary efficiencies and distributions of every
// variable in YODA format.
func (c *Collection) ExportYODA(w io.Writer) error {
	var objs []yodacnv.Marshaler
	for _, name := range c.Variables() {
		for _, t := range c.meta[name].thresholds {
			curve, ok := c.Curve(hist.SummaryKey, name, t)
			if !ok {
				continue
			}
			objs = append(objs, curve.Efficiency().S2D(), curve.total, curve.pass, curve.dist)
		}
	}
	objs = append(objs, c.pileupHist)
	return errors.Wrap(yodacnv.Write(w, objs...), "writing YODA")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
